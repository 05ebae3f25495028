// Package github reads issues and repository files through the GitHub API.
package github

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const urlPrefix = "https://github.com/"

var (
	// ErrInvalidURL is returned for input that is not a GitHub URL.
	ErrInvalidURL = errors.New("please enter a valid GitHub URL")
	// ErrMissingRepo is returned when the URL lacks an owner or repository.
	ErrMissingRepo = errors.New("invalid GitHub URL: please enter a valid repository or issue URL")
)

// IssueRef identifies a repository and, optionally, one of its issues.
type IssueRef struct {
	Owner  string
	Repo   string
	Number int // zero when the URL names only a repository
}

// String renders owner/repo, with #number appended for issues.
func (r IssueRef) String() string {
	if r.Number == 0 {
		return r.Owner + "/" + r.Repo
	}
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// URL returns the canonical web URL of the reference.
func (r IssueRef) URL() string {
	u := urlPrefix + r.Owner + "/" + r.Repo
	if r.Number != 0 {
		u += "/issues/" + strconv.Itoa(r.Number)
	}
	return u
}

// ParseIssueURL validates a repository or issue URL such as
// https://github.com/owner/repo/issues/42.
func ParseIssueURL(raw string) (IssueRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, urlPrefix) {
		return IssueRef{}, ErrInvalidURL
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	parts := strings.Split(strings.TrimPrefix(raw, urlPrefix), "/")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return IssueRef{}, ErrMissingRepo
	}

	ref := IssueRef{Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}
	if len(parts) >= 4 && parts[2] == "issues" && parts[3] != "" {
		n, err := strconv.Atoi(parts[3])
		if err != nil || n <= 0 {
			return IssueRef{}, fmt.Errorf("invalid issue number %q: %w", parts[3], ErrMissingRepo)
		}
		ref.Number = n
	}
	return ref, nil
}
