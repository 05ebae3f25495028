// Package matcher ranks repository files by relevance to a GitHub issue.
package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/issuewiz/graphix/internal/github"
)

var (
	// ErrNoIssue is returned when a request carries no issue details.
	ErrNoIssue = errors.New("issue details are required")
	// ErrNoFiles is returned when none of the candidate files could be read.
	ErrNoFiles = errors.New("no valid files to analyze")
)

// Request is the match-keywords request body.
type Request struct {
	Owner         string              `json:"owner"`
	Repo          string              `json:"repo"`
	FilteredFiles []github.SourceFile `json:"filteredFiles"`
	IssueDetails  *github.Issue       `json:"issueDetails"`
}

// FileMatch is one ranked file. MatchScore is in [0, 1].
type FileMatch struct {
	FileName    string  `json:"file_name"`
	MatchScore  float64 `json:"match_score"`
	DownloadURL string  `json:"download_url"`
}

// Result is the match-keywords response body.
type Result struct {
	FilenameMatches []FileMatch `json:"filename_matches"`
	Repo            string      `json:"repo"`
	Description     string      `json:"description"`
	IssueNum        int         `json:"issuenum"`
}

// Matcher ranks the files of a request against its issue.
type Matcher interface {
	Match(ctx context.Context, req Request) (*Result, error)
}

// UpstreamError carries a non-success answer from a remote matcher.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("matcher returned status %d: %s", e.StatusCode, e.Body)
}
