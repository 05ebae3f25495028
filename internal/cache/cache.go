// Package cache persists file analyses and match datasets under a cache key
// derived from the issue URL.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/config"
	"github.com/issuewiz/graphix/internal/db"
	"github.com/issuewiz/graphix/internal/github"
	"github.com/issuewiz/graphix/internal/matcher"
)

// ErrNotFound is returned when a key or file has no cached data.
var ErrNotFound = errors.New("not found in cache")

// Key derives the cache key for ref under the given scope. Issue scope keys
// by owner/repo#number, repository scope shares one key across all issues.
func Key(scope config.CacheScope, ref github.IssueRef) string {
	if scope == config.ScopeRepository {
		ref.Number = 0
	}
	return ref.String()
}

// Entry is one cached file analysis.
type Entry struct {
	Analysis    analysis.FileAnalysis `json:"analysis"`
	ContentHash string                `json:"content_hash,omitempty"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Dataset is the match result stored next to the analyses of a key.
type Dataset struct {
	URL     string         `json:"url"`
	Issue   *github.Issue  `json:"issue,omitempty"`
	Matches matcher.Result `json:"matches"`
}

// KeyInfo summarizes one cache key.
type KeyInfo struct {
	Key       string    `json:"key"`
	Files     int       `json:"files"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the analysis cache. Writes are last-writer-wins per (key, file).
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Get returns every analysis stored under key, by file name.
func (s *Store) Get(ctx context.Context, key string) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_name, overview, branches, content_hash, updated_at FROM analyses WHERE cache_key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Entry)
	for rows.Next() {
		var file string
		e, err := scanEntry(rows, &file)
		if err != nil {
			return nil, err
		}
		out[file] = e
	}
	return out, rows.Err()
}

// Lookup returns the analysis of one file under key.
func (s *Store) Lookup(ctx context.Context, key, file string) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT file_name, overview, branches, content_hash, updated_at FROM analyses WHERE cache_key = ? AND file_name = ?`,
		key, file)
	var name string
	e, err := scanEntry(row, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// FindLatest returns the most recently written analysis of file under any
// key, together with that key.
func (s *Store) FindLatest(ctx context.Context, file string) (string, Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cache_key, overview, branches, content_hash, updated_at FROM analyses
		 WHERE file_name = ? ORDER BY updated_at DESC, cache_key DESC LIMIT 1`, file)
	var key string
	e, err := scanEntry(row, &key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", Entry{}, ErrNotFound
	}
	return key, e, err
}

// Set stores a single analysis.
func (s *Store) Set(ctx context.Context, key, file string, e Entry) error {
	return s.Merge(ctx, key, map[string]Entry{file: e})
}

// Merge upserts entries under key in one transaction. Files already cached
// under key but absent from entries are kept.
func (s *Store) Merge(ctx context.Context, key string, entries map[string]Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analyses (cache_key, file_name, overview, branches, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key, file_name) DO UPDATE SET
			overview = excluded.overview,
			branches = excluded.branches,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare merge: %w", err)
	}
	defer stmt.Close()

	now := s.now().UnixNano()
	for file, e := range entries {
		branches := e.Analysis.Branches
		if branches == nil {
			branches = []analysis.Branch{}
		}
		data, err := json.Marshal(branches)
		if err != nil {
			return fmt.Errorf("marshal branches of %s: %w", file, err)
		}
		if _, err := stmt.ExecContext(ctx, key, file, e.Analysis.Overview, string(data), e.ContentHash, now); err != nil {
			return fmt.Errorf("store %s: %w", file, err)
		}
	}
	return tx.Commit()
}

// SaveDataset stores the match dataset of key, replacing any previous one.
func (s *Store) SaveDataset(ctx context.Context, key string, d Dataset) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_datasets (cache_key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, string(data), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}
	return nil
}

// Dataset returns the match dataset of key.
func (s *Store) Dataset(ctx context.Context, key string) (*Dataset, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM match_datasets WHERE cache_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &d, nil
}

// Keys lists every key holding analyses, most recent first.
func (s *Store) Keys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cache_key, COUNT(*), MAX(updated_at) FROM analyses
		GROUP BY cache_key ORDER BY MAX(updated_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var out []KeyInfo
	for rows.Next() {
		var k KeyInfo
		var ts int64
		if err := rows.Scan(&k.Key, &k.Files, &ts); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		k.UpdatedAt = time.Unix(0, ts)
		out = append(out, k)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner, first *string) (Entry, error) {
	var e Entry
	var branches string
	var ts int64
	if err := row.Scan(first, &e.Analysis.Overview, &branches, &e.ContentHash, &ts); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(branches), &e.Analysis.Branches); err != nil {
		return Entry{}, fmt.Errorf("decode branches: %w", err)
	}
	for i := range e.Analysis.Branches {
		if e.Analysis.Branches[i].SubBranches == nil {
			e.Analysis.Branches[i].SubBranches = []string{}
		}
	}
	e.UpdatedAt = time.Unix(0, ts)
	return e, nil
}
