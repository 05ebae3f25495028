package analysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

// Candidate is a file to analyze. Content is loaded lazily through a Fetcher.
type Candidate struct {
	FileName    string
	DownloadURL string
}

// Fetcher loads the content of a candidate.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// LookupFunc returns a previous analysis when one exists for the same file
// and content hash, so the model is not called again.
type LookupFunc func(fileName, contentHash string) (FileAnalysis, bool)

// ProgressFunc is called after each candidate completes, successfully or not.
type ProgressFunc func(done, total int, fileName string)

// Outcome is the successful result for one candidate.
type Outcome struct {
	FileName    string
	Analysis    FileAnalysis
	ContentHash string
	// Cached is set when the analysis came from LookupFunc.
	Cached bool
}

// BatchResult collects the per-file outcomes of a batch. A file appears in
// exactly one of Outcomes or Failures.
type BatchResult struct {
	Outcomes     map[string]Outcome
	Failures     map[string]error
	InputTokens  int
	OutputTokens int
}

// Batcher analyzes candidates concurrently with bounded parallelism. A
// failure on one file never affects the others.
type Batcher struct {
	analyzer    *Analyzer
	fetcher     Fetcher
	concurrency int
	lookup      LookupFunc
	onProgress  ProgressFunc
}

// NewBatcher creates a Batcher running at most concurrency analyses at once.
func NewBatcher(analyzer *Analyzer, fetcher Fetcher, concurrency int) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{analyzer: analyzer, fetcher: fetcher, concurrency: concurrency}
}

// WithLookup sets the function consulted before calling the model.
func (b *Batcher) WithLookup(fn LookupFunc) *Batcher {
	b.lookup = fn
	return b
}

// WithProgress sets the progress callback.
func (b *Batcher) WithProgress(fn ProgressFunc) *Batcher {
	b.onProgress = fn
	return b
}

// Run analyzes every candidate and returns once all of them have finished.
func (b *Batcher) Run(ctx context.Context, candidates []Candidate) *BatchResult {
	result := &BatchResult{
		Outcomes: make(map[string]Outcome, len(candidates)),
		Failures: make(map[string]error),
	}
	total := len(candidates)
	if total == 0 {
		return result
	}

	var mu sync.Mutex
	var done atomic.Int64

	p := pool.New().WithMaxGoroutines(b.concurrency)
	for _, c := range candidates {
		p.Go(func() {
			outcome, res, err := b.process(ctx, c)

			mu.Lock()
			if err != nil {
				result.Failures[c.FileName] = err
			} else {
				result.Outcomes[c.FileName] = outcome
				if res != nil {
					result.InputTokens += res.InputTokens
					result.OutputTokens += res.OutputTokens
				}
			}
			mu.Unlock()

			n := done.Add(1)
			if b.onProgress != nil {
				b.onProgress(int(n), total, c.FileName)
			}
		})
	}
	p.Wait()
	return result
}

func (b *Batcher) process(ctx context.Context, c Candidate) (Outcome, *Result, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, nil, err
	}

	content, err := b.fetcher.Fetch(ctx, c.DownloadURL)
	if err != nil {
		return Outcome{}, nil, fmt.Errorf("fetch %s: %w", c.FileName, err)
	}
	hash := ContentHash(content)

	if b.lookup != nil {
		if a, ok := b.lookup(c.FileName, hash); ok {
			return Outcome{FileName: c.FileName, Analysis: a, ContentHash: hash, Cached: true}, nil, nil
		}
	}

	res, err := b.analyzer.Analyze(ctx, Request{FileName: c.FileName, Content: content})
	if err != nil {
		return Outcome{}, nil, err
	}
	return Outcome{FileName: c.FileName, Analysis: res.Analysis, ContentHash: hash}, res, nil
}
