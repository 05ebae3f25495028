package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/issuewiz/graphix/internal/db"
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("audit entry not found")

// Store provides persistence for audit entries.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is generated
// and a zero Timestamp is set to the current time.
func (s *Store) Log(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	detail := []byte("{}")
	if len(entry.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(entry.Detail); err != nil {
			return entry, fmt.Errorf("marshalling detail: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, timestamp, action, cache_key, subject, outcome, summary, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UnixNano(), string(entry.Action), entry.CacheKey,
		entry.Subject, string(entry.Outcome), entry.Summary, string(detail),
	)
	if err != nil {
		return entry, fmt.Errorf("inserting audit entry: %w", err)
	}
	return entry, nil
}

// GetByID retrieves a single audit entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+columns+" FROM audit_entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	Action   Action
	CacheKey string
	Outcome  Outcome
	Since    *time.Time
	Limit    int
	Offset   int
}

const columns = "id, timestamp, action, cache_key, subject, outcome, summary, detail"

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.CacheKey != "" {
		clauses = append(clauses, "cache_key = ?")
		args = append(args, filter.CacheKey)
	}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := "SELECT " + columns + " FROM audit_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e                       Entry
		ts                      int64
		action, outcome, detail string
	)
	err := sc.Scan(&e.ID, &ts, &action, &e.CacheKey, &e.Subject, &outcome, &e.Summary, &detail)
	if err != nil {
		return nil, err
	}
	e.Timestamp = time.Unix(0, ts)
	e.Action = Action(action)
	e.Outcome = Outcome(outcome)
	if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil || len(e.Detail) == 0 {
		e.Detail = nil
	}
	return &e, nil
}
