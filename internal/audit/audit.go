// Package audit records what graphix did: issue runs and mind map exports,
// with their outcome, so past work can be reviewed from the UI or API.
package audit

import "time"

// Action describes what was done.
type Action string

const (
	ActionAnalyze Action = "analyze"
	ActionExport  Action = "export"
)

// Outcome is how an action ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomePartial marks a run where some files failed.
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// CacheKey is the analysis cache key the action worked on, if known.
	CacheKey string  `json:"cacheKey,omitempty"`
	Subject  string  `json:"subject"`
	Outcome  Outcome `json:"outcome"`
	Summary  string  `json:"summary"`
	// Detail holds action-specific counters such as files or tokens.
	Detail map[string]any `json:"detail,omitempty"`
}
