package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/config"
	"github.com/issuewiz/graphix/internal/db"
	"github.com/issuewiz/graphix/internal/github"
	"github.com/issuewiz/graphix/internal/llm"
	"github.com/issuewiz/graphix/internal/matcher"
)

type fakeSource struct {
	issue    *github.Issue
	files    []github.SourceFile
	contents map[string]string
}

func (f *fakeSource) FetchIssue(ctx context.Context, ref github.IssueRef) (*github.Issue, error) {
	if f.issue == nil {
		return nil, errors.New("no issue")
	}
	return f.issue, nil
}

func (f *fakeSource) ListSourceFiles(ctx context.Context, ref github.IssueRef) ([]github.SourceFile, error) {
	return f.files, nil
}

func (f *fakeSource) Fetch(ctx context.Context, url string) (string, error) {
	c, ok := f.contents[url]
	if !ok {
		return "", fmt.Errorf("404 %s", url)
	}
	return c, nil
}

// staticMatcher ranks every requested file with the same score.
type staticMatcher struct {
	err error
}

func (m staticMatcher) Match(ctx context.Context, req matcher.Request) (*matcher.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	res := &matcher.Result{Repo: req.Repo, Description: req.IssueDetails.Description, IssueNum: req.IssueDetails.Number}
	for _, f := range req.FilteredFiles {
		res.FilenameMatches = append(res.FilenameMatches, matcher.FileMatch{FileName: f.Path, MatchScore: 0.5, DownloadURL: f.DownloadURL})
	}
	return res, nil
}

type fakeLLM struct {
	mu      sync.Mutex
	calls   int
	failFor string
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	user := req.Messages[len(req.Messages)-1].Content
	if f.failFor != "" && strings.Contains(user, "named '"+f.failFor+"'") {
		return nil, errors.New("model overloaded")
	}
	return &llm.CompletionResponse{
		Content:      "OVERVIEW: Does things.\n\nBRANCHES:\n- Functions\n  - run\n",
		InputTokens:  10,
		OutputTokens: 5,
	}, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fixture() *fakeSource {
	src := &fakeSource{
		issue:    &github.Issue{Owner: "acme", Repo: "api", Number: 9, Title: "Crash on save", Description: "Saving panics"},
		contents: map[string]string{},
	}
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		url := "https://raw.example/" + name
		src.files = append(src.files, github.SourceFile{Name: name, Path: "src/" + name, DownloadURL: url})
		src.contents[url] = "package src // " + name
	}
	return src
}

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return cache.NewStore(d)
}

const issueURL = "https://github.com/acme/api/issues/9"

func TestRunIsolatesFailures(t *testing.T) {
	store := newStore(t)
	provider := &fakeLLM{failFor: "src/b.go"}
	p := New(fixture(), staticMatcher{}, analysis.NewAnalyzer(provider, analysis.Options{}), store, Options{Concurrency: 2})

	res, err := p.Run(context.Background(), issueURL)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Key != "acme/api#9" {
		t.Errorf("Key = %q", res.Key)
	}
	if len(res.Analyses) != 2 || len(res.Failures) != 1 {
		t.Fatalf("analyses=%d failures=%d, want 2 and 1", len(res.Analyses), len(res.Failures))
	}
	if _, ok := res.Failures["src/b.go"]; !ok {
		t.Errorf("Failures = %v, want src/b.go", res.Failures)
	}

	cached, err := store.Get(context.Background(), res.Key)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 2 {
		t.Errorf("cache holds %d entries, want 2", len(cached))
	}
	if _, ok := cached["src/b.go"]; ok {
		t.Error("failed file should not be cached")
	}

	ds, err := store.Dataset(context.Background(), res.Key)
	if err != nil {
		t.Fatalf("Dataset() error: %v", err)
	}
	if ds.URL != issueURL || len(ds.Matches.FilenameMatches) != 3 || ds.Issue.Title != "Crash on save" {
		t.Errorf("dataset = %+v", ds)
	}
}

func TestRunReusesCachedAnalyses(t *testing.T) {
	store := newStore(t)
	provider := &fakeLLM{}
	src := fixture()
	p := New(src, staticMatcher{}, analysis.NewAnalyzer(provider, analysis.Options{}), store, Options{Concurrency: 3})

	if _, err := p.Run(context.Background(), issueURL); err != nil {
		t.Fatal(err)
	}
	if provider.callCount() != 3 {
		t.Fatalf("first run calls = %d, want 3", provider.callCount())
	}

	src.contents["https://raw.example/c.go"] = "package src // changed"
	res, err := p.Run(context.Background(), issueURL)
	if err != nil {
		t.Fatal(err)
	}
	if provider.callCount() != 4 {
		t.Errorf("second run should only re-analyze the changed file, calls = %d", provider.callCount())
	}
	if res.Reused != 2 {
		t.Errorf("Reused = %d, want 2", res.Reused)
	}
	if len(res.Analyses) != 3 {
		t.Errorf("Analyses = %d, want 3", len(res.Analyses))
	}
}

func TestRunForceSkipsCache(t *testing.T) {
	store := newStore(t)
	provider := &fakeLLM{}
	p := New(fixture(), staticMatcher{}, analysis.NewAnalyzer(provider, analysis.Options{}), store, Options{Force: true})

	for i := 0; i < 2; i++ {
		if _, err := p.Run(context.Background(), issueURL); err != nil {
			t.Fatal(err)
		}
	}
	if provider.callCount() != 6 {
		t.Errorf("calls = %d, want 6", provider.callCount())
	}
}

func TestRunRepositoryScope(t *testing.T) {
	store := newStore(t)
	p := New(fixture(), staticMatcher{}, analysis.NewAnalyzer(&fakeLLM{}, analysis.Options{}), store,
		Options{Scope: config.ScopeRepository})

	res, err := p.Run(context.Background(), issueURL)
	if err != nil {
		t.Fatal(err)
	}
	if res.Key != "acme/api" {
		t.Errorf("Key = %q, want acme/api", res.Key)
	}
}

func TestRunErrors(t *testing.T) {
	store := newStore(t)
	analyzer := analysis.NewAnalyzer(&fakeLLM{}, analysis.Options{})

	p := New(fixture(), staticMatcher{}, analyzer, store, Options{})
	if _, err := p.Run(context.Background(), "https://gitlab.com/acme/api"); !errors.Is(err, github.ErrInvalidURL) {
		t.Errorf("invalid URL error = %v, want ErrInvalidURL", err)
	}

	p = New(fixture(), staticMatcher{err: matcher.ErrNoFiles}, analyzer, store, Options{})
	if _, err := p.Run(context.Background(), issueURL); !errors.Is(err, matcher.ErrNoFiles) {
		t.Errorf("matcher error = %v, want ErrNoFiles", err)
	}

	keys, err := store.Keys(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("failed runs wrote to the cache: %v", keys)
	}
}
