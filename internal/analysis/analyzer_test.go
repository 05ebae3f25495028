package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/issuewiz/graphix/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubProvider answers with a canned outline, or fails for file names
// listed in failFor.
type stubProvider struct {
	mu      sync.Mutex
	calls   []llm.CompletionRequest
	reply   string
	failFor map[string]bool
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	user := req.Messages[len(req.Messages)-1].Content
	for name := range s.failFor {
		if strings.Contains(user, "named '"+name+"'") {
			return nil, fmt.Errorf("upstream rejected %s", name)
		}
	}
	return &llm.CompletionResponse{Content: s.reply, InputTokens: 7, OutputTokens: 3, Model: "gpt-4o"}, nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

const cannedReply = "OVERVIEW: Handles users.\n\nBRANCHES:\n- Endpoints\n  - GET /users\n"

func TestAnalyzerBuildsRequest(t *testing.T) {
	stub := &stubProvider{reply: cannedReply}
	a := NewAnalyzer(stub, Options{Model: "gpt-4-1106-preview", Temperature: 0.2, MaxTokens: 2000})

	res, err := a.Analyze(context.Background(), Request{FileName: "routes.js", Content: "app.get('/users')"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Category != CategoryAPI {
		t.Errorf("category = %q, want API", res.Category)
	}
	if res.Analysis.Overview != "Handles users." || len(res.Analysis.Branches) != 1 {
		t.Errorf("unexpected analysis: %+v", res.Analysis)
	}

	req := stub.calls[0]
	if req.Model != "gpt-4-1106-preview" || req.Temperature != 0.2 {
		t.Errorf("unexpected request options: %+v", req)
	}
	if req.Messages[0].Role != llm.RoleSystem || req.Messages[0].Content != SystemPrompt {
		t.Errorf("first message is not the system prompt: %+v", req.Messages[0])
	}
	if !strings.Contains(req.Messages[1].Content, "Analyze the following js file named 'routes.js'") {
		t.Errorf("extension not derived from file name: %q", req.Messages[1].Content[:120])
	}
}

func TestAnalyzerRejectsEmptyFileName(t *testing.T) {
	a := NewAnalyzer(&stubProvider{}, Options{})
	if _, err := a.Analyze(context.Background(), Request{FileName: "  "}); !errors.Is(err, ErrEmptyFileName) {
		t.Errorf("expected ErrEmptyFileName, got %v", err)
	}
}

func TestAnalyzerWrapsUpstreamError(t *testing.T) {
	stub := &stubProvider{failFor: map[string]bool{"bad.go": true}}
	_, err := NewAnalyzer(stub, Options{}).Analyze(context.Background(), Request{FileName: "bad.go"})
	if err == nil || !strings.Contains(err.Error(), "analyze bad.go") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestAnalyzerTruncatesContent(t *testing.T) {
	stub := &stubProvider{reply: cannedReply}
	a := NewAnalyzer(stub, Options{MaxContentBytes: 10})

	res, err := a.Analyze(context.Background(), Request{FileName: "long.txt", Content: strings.Repeat("é", 20)})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Truncated {
		t.Error("expected Truncated")
	}
	// 40 bytes in, 10 kept: the remaining 30 bytes estimate to 7 tokens.
	if res.OmittedTokens != 7 {
		t.Errorf("omitted tokens = %d, want 7", res.OmittedTokens)
	}
	prompt := stub.calls[0].Messages[1].Content
	if !strings.Contains(prompt, "```\nééééé\n```") {
		t.Errorf("content not truncated on a rune boundary")
	}
}

func TestContentHashStable(t *testing.T) {
	if ContentHash("abc") != ContentHash("abc") {
		t.Error("hash not stable")
	}
	if ContentHash("abc") == ContentHash("abd") {
		t.Error("different content hashed equal")
	}
	if len(ContentHash("")) != 16 {
		t.Errorf("hash %q not 16 hex digits", ContentHash(""))
	}
}
