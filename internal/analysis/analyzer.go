package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/issuewiz/graphix/internal/llm"
)

// ErrEmptyFileName is returned when a request does not name a file.
var ErrEmptyFileName = errors.New("file name is required")

// Options tune the completion request sent for each file.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// MaxContentBytes truncates file content before prompting. Zero disables truncation.
	MaxContentBytes int
}

// Analyzer produces a FileAnalysis for one file through an LLM provider.
type Analyzer struct {
	provider llm.Provider
	opts     Options
}

// NewAnalyzer creates an Analyzer. Transient failures are expected to be
// retried by the provider wrapper (see llm.NewRetryingProvider).
func NewAnalyzer(provider llm.Provider, opts Options) *Analyzer {
	return &Analyzer{provider: provider, opts: opts}
}

// Analyze classifies the file, builds the prompt, calls the model and parses
// the answer. Upstream failures are returned wrapped; parsing never fails.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.FileName) == "" {
		return nil, ErrEmptyFileName
	}

	ext := req.FileExtension
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(req.FileName), ".")
	}

	content, truncated := truncate(req.Content, a.opts.MaxContentBytes)
	omitted := 0
	if truncated {
		omitted = llm.EstimateTokens(req.Content[len(content):])
		slog.Warn("file content truncated",
			"file", req.FileName,
			"limit_bytes", a.opts.MaxContentBytes,
			"omitted_tokens_estimate", omitted,
		)
	}
	category := Classify(req.FileName, req.Content)

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model: a.opts.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: BuildPrompt(req.FileName, ext, content, category)},
		},
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", req.FileName, err)
	}

	slog.Debug("file analyzed",
		"file", req.FileName,
		"category", category,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens),
		"truncated", truncated,
	)

	return &Result{
		FileName:      req.FileName,
		Category:      category,
		Analysis:      Parse(resp.Content),
		InputTokens:   resp.InputTokens,
		OutputTokens:  resp.OutputTokens,
		Truncated:     truncated,
		OmittedTokens: omitted,
	}, nil
}

// ContentHash returns a stable fingerprint of file content.
func ContentHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
