package audit

import (
	"fmt"

	"github.com/issuewiz/graphix/internal/pipeline"
)

// RunEntry describes one pipeline run over issueURL. res may be nil when the
// run failed before any file was analyzed.
func RunEntry(issueURL string, res *pipeline.Result, err error) Entry {
	e := Entry{Action: ActionAnalyze, Subject: issueURL}
	if err == nil && res == nil {
		err = fmt.Errorf("run produced no result")
	}
	if err != nil {
		e.Outcome = OutcomeFailure
		e.Summary = err.Error()
		return e
	}

	matched := 0
	if res.Matches != nil {
		matched = len(res.Matches.FilenameMatches)
	}
	e.CacheKey = res.Key
	e.Outcome = OutcomeSuccess
	if len(res.Failures) > 0 {
		e.Outcome = OutcomePartial
	}
	e.Summary = fmt.Sprintf("%d files analyzed, %d from cache, %d failed",
		len(res.Analyses), res.Reused, len(res.Failures))
	e.Detail = map[string]any{
		"matched":       matched,
		"analyzed":      len(res.Analyses),
		"reused":        res.Reused,
		"failed":        len(res.Failures),
		"input_tokens":  res.InputTokens,
		"output_tokens": res.OutputTokens,
		"duration_ms":   res.Duration.Milliseconds(),
	}
	return e
}

// ExportEntry describes one mind map export of file in format.
func ExportEntry(key, file, format, location string, err error) Entry {
	e := Entry{Action: ActionExport, CacheKey: key, Subject: file, Detail: map[string]any{"format": format}}
	if err != nil {
		e.Outcome = OutcomeFailure
		e.Summary = err.Error()
		return e
	}
	e.Outcome = OutcomeSuccess
	e.Summary = "exported to " + location
	return e
}
