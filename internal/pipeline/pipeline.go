// Package pipeline runs an issue through matching, analysis and caching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/config"
	"github.com/issuewiz/graphix/internal/github"
	"github.com/issuewiz/graphix/internal/matcher"
)

// Source is the repository host the pipeline reads from.
type Source interface {
	FetchIssue(ctx context.Context, ref github.IssueRef) (*github.Issue, error)
	ListSourceFiles(ctx context.Context, ref github.IssueRef) ([]github.SourceFile, error)
	Fetch(ctx context.Context, url string) (string, error)
}

// Options tunes a Pipeline.
type Options struct {
	Scope       config.CacheScope
	Concurrency int
	// Force re-analyzes files even when the cached content hash matches.
	Force    bool
	Progress analysis.ProgressFunc
}

// Pipeline turns an issue URL into cached file analyses.
type Pipeline struct {
	source   Source
	matcher  matcher.Matcher
	analyzer *analysis.Analyzer
	store    *cache.Store
	opts     Options
}

// New creates a Pipeline.
func New(source Source, m matcher.Matcher, analyzer *analysis.Analyzer, store *cache.Store, opts Options) *Pipeline {
	if opts.Scope == "" {
		opts.Scope = config.ScopeIssue
	}
	return &Pipeline{source: source, matcher: m, analyzer: analyzer, store: store, opts: opts}
}

// Result summarizes one run.
type Result struct {
	Key      string
	Ref      github.IssueRef
	Issue    *github.Issue
	Matches  *matcher.Result
	Analyses map[string]analysis.FileAnalysis
	Failures map[string]error
	// Reused counts analyses taken from the cache instead of the model.
	Reused       int
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// Run validates issueURL, ranks the repository files against the issue and
// analyzes every matched file. Per-file failures land in Result.Failures;
// the successful analyses are merged into the cache in one write.
func (p *Pipeline) Run(ctx context.Context, issueURL string) (*Result, error) {
	start := time.Now()

	ref, err := github.ParseIssueURL(issueURL)
	if err != nil {
		return nil, err
	}

	issue, err := p.source.FetchIssue(ctx, ref)
	if err != nil {
		return nil, err
	}
	files, err := p.source.ListSourceFiles(ctx, ref)
	if err != nil {
		return nil, err
	}
	slog.Info("repository walked", "repo", ref.Owner+"/"+ref.Repo, "files", len(files))

	matches, err := p.matcher.Match(ctx, matcher.Request{
		Owner:         ref.Owner,
		Repo:          ref.Repo,
		FilteredFiles: files,
		IssueDetails:  issue,
	})
	if err != nil {
		return nil, fmt.Errorf("match files: %w", err)
	}

	key := cache.Key(p.opts.Scope, ref)
	candidates := make([]analysis.Candidate, 0, len(matches.FilenameMatches))
	for _, m := range matches.FilenameMatches {
		candidates = append(candidates, analysis.Candidate{FileName: m.FileName, DownloadURL: m.DownloadURL})
	}

	batcher := analysis.NewBatcher(p.analyzer, p.source, p.opts.Concurrency).WithProgress(p.opts.Progress)
	if !p.opts.Force {
		batcher.WithLookup(func(fileName, hash string) (analysis.FileAnalysis, bool) {
			e, err := p.store.Lookup(ctx, key, fileName)
			if err != nil {
				if !errors.Is(err, cache.ErrNotFound) {
					slog.Warn("cache lookup failed", "file", fileName, "error", err)
				}
				return analysis.FileAnalysis{}, false
			}
			return e.Analysis, e.ContentHash == hash
		})
	}
	batch := batcher.Run(ctx, candidates)

	res := &Result{
		Key:          key,
		Ref:          ref,
		Issue:        issue,
		Matches:      matches,
		Analyses:     make(map[string]analysis.FileAnalysis, len(batch.Outcomes)),
		Failures:     batch.Failures,
		InputTokens:  batch.InputTokens,
		OutputTokens: batch.OutputTokens,
	}
	fresh := make(map[string]cache.Entry)
	for name, o := range batch.Outcomes {
		res.Analyses[name] = o.Analysis
		if o.Cached {
			res.Reused++
			continue
		}
		fresh[name] = cache.Entry{Analysis: o.Analysis, ContentHash: o.ContentHash}
	}
	for name, err := range batch.Failures {
		slog.Warn("file analysis failed", "file", name, "error", err)
	}

	if err := p.store.Merge(ctx, key, fresh); err != nil {
		return nil, fmt.Errorf("save analyses: %w", err)
	}
	if err := p.store.SaveDataset(ctx, key, cache.Dataset{URL: issueURL, Issue: issue, Matches: *matches}); err != nil {
		return nil, fmt.Errorf("save matches: %w", err)
	}

	res.Duration = time.Since(start)
	slog.Info("issue analyzed",
		"key", key,
		"matched", len(candidates),
		"analyzed", len(fresh),
		"reused", res.Reused,
		"failed", len(res.Failures),
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}
