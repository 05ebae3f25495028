package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/issuewiz/graphix/internal/analysis"
)

// EmbeddingOptions tune ranking.
type EmbeddingOptions struct {
	// Threshold is the exclusive lower bound on similarity for a match.
	Threshold float64
	TopN      int
	// Downloads bounds concurrent file downloads.
	Downloads int
}

// EmbeddingMatcher ranks files by cosine similarity between the issue text
// and each file's content.
type EmbeddingMatcher struct {
	index   *Index
	fetcher analysis.Fetcher
	opts    EmbeddingOptions

	mu   sync.Mutex
	memo map[uint64]Result
}

// NewEmbeddingMatcher creates a matcher storing file embeddings in index.
func NewEmbeddingMatcher(index *Index, fetcher analysis.Fetcher, opts EmbeddingOptions) *EmbeddingMatcher {
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	if opts.Downloads <= 0 {
		opts.Downloads = 5
	}
	return &EmbeddingMatcher{index: index, fetcher: fetcher, opts: opts, memo: make(map[uint64]Result)}
}

type download struct {
	file    int
	content string
	hash    string
}

func (m *EmbeddingMatcher) Match(ctx context.Context, req Request) (*Result, error) {
	if req.IssueDetails == nil {
		return nil, ErrNoIssue
	}
	issue := req.IssueDetails
	repo := req.Owner + "/" + req.Repo

	key := memoKey(req)
	m.mu.Lock()
	cached, ok := m.memo[key]
	m.mu.Unlock()
	if ok {
		slog.Debug("returning memoized match", "repo", repo)
		return &cached, nil
	}

	downloads := m.downloadAll(ctx, req)
	if len(downloads) == 0 {
		return nil, ErrNoFiles
	}

	// Only files whose content changed since the last run are embedded.
	var stale []Entry
	var texts []string
	wanted := make(map[string]bool, len(downloads))
	for _, d := range downloads {
		f := req.FilteredFiles[d.file]
		wanted[f.Path] = true
		if h, ok := m.index.Hash(ctx, repo, f.Path); ok && h == d.hash {
			continue
		}
		stale = append(stale, Entry{Path: f.Path, DownloadURL: f.DownloadURL, ContentHash: d.hash})
		texts = append(texts, Preprocess(d.content))
	}
	if len(texts) > 0 {
		vecs, err := m.index.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed files: %w", err)
		}
		for i := range stale {
			stale[i].Embedding = vecs[i]
		}
		if err := m.index.Upsert(ctx, repo, stale); err != nil {
			return nil, fmt.Errorf("index files: %w", err)
		}
		if err := m.index.Persist(); err != nil {
			slog.Warn("persisting embedding index failed", "error", err)
		}
	}

	hits, err := m.index.Query(ctx, repo, strings.TrimSpace(issue.Title+" "+issue.Description), 0)
	if err != nil {
		return nil, err
	}

	matches := []FileMatch{}
	for _, h := range hits {
		if !wanted[h.Path] || h.Similarity <= m.opts.Threshold {
			continue
		}
		matches = append(matches, FileMatch{
			FileName:    h.Path,
			MatchScore:  math.Round(h.Similarity*100) / 100,
			DownloadURL: h.DownloadURL,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].MatchScore > matches[j].MatchScore })
	if len(matches) > m.opts.TopN {
		matches = matches[:m.opts.TopN]
	}

	result := Result{
		FilenameMatches: matches,
		Repo:            issue.Repo,
		Description:     issue.Description,
		IssueNum:        issue.Number,
	}
	m.mu.Lock()
	m.memo[key] = result
	m.mu.Unlock()
	return &result, nil
}

// downloadAll fetches every file with a download URL. Failures are logged and
// the file is left out.
func (m *EmbeddingMatcher) downloadAll(ctx context.Context, req Request) []download {
	var mu sync.Mutex
	var out []download

	p := pool.New().WithMaxGoroutines(m.opts.Downloads)
	for i, f := range req.FilteredFiles {
		if f.DownloadURL == "" {
			slog.Warn("skipping file without download url", "path", f.Path)
			continue
		}
		p.Go(func() {
			content, err := m.fetcher.Fetch(ctx, f.DownloadURL)
			if err != nil {
				slog.Warn("download failed", "path", f.Path, "error", err)
				return
			}
			mu.Lock()
			out = append(out, download{file: i, content: content, hash: analysis.ContentHash(content)})
			mu.Unlock()
		})
	}
	p.Wait()

	sort.Slice(out, func(a, b int) bool { return out[a].file < out[b].file })
	return out
}

// Preprocess lower-cases text and drops short tokens that are not purely
// alphanumeric, such as operators and punctuation.
func Preprocess(content string) string {
	fields := strings.Fields(strings.ToLower(content))
	kept := fields[:0]
	for _, w := range fields {
		if len([]rune(w)) > 2 || isAlnum(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func memoKey(req Request) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(req.Owner + "/" + req.Repo + "\x00")
	_, _ = d.WriteString(req.IssueDetails.Title + "\x00" + req.IssueDetails.Description + "\x00")
	for _, f := range req.FilteredFiles {
		_, _ = d.WriteString(f.Path + "\x00")
	}
	return d.Sum64()
}
