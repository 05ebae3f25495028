package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gogithub "github.com/google/go-github/v68/github"
)

var (
	// ErrMissingToken is returned by NewClient when no token is configured.
	ErrMissingToken = errors.New("GitHub token is not configured")
	// ErrAuthFailed is returned when GitHub rejects the token.
	ErrAuthFailed = errors.New("GitHub authentication failed: please check your token")
	// ErrFileTooLarge is returned by Fetch when content exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// sourceExt lists the file extensions offered to the matcher.
var sourceExt = regexp.MustCompile(`(?i)\.(js|py|java|cpp|html|json|xml|rb|go|php|ts|tsx|jsx|sh|yml|yaml)$`)

// UpstreamError carries a non-success answer from GitHub or a raw download.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Issue is the subset of an issue shown to the user and sent to the matcher.
type Issue struct {
	Owner       string   `json:"owner"`
	Repo        string   `json:"repo"`
	Number      int      `json:"number,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
}

// SourceFile is a repository file eligible for matching.
type SourceFile struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	DownloadURL string `json:"download_url"`
}

// Options configures a Client.
type Options struct {
	Token string
	// BaseURL overrides the REST endpoint, for GitHub Enterprise or tests.
	BaseURL      string
	Exclude      []string
	MaxFileBytes int64
	HTTPClient   *http.Client
}

// Client fetches issues, walks repository contents and downloads files.
type Client struct {
	gh           *gogithub.Client
	raw          *http.Client
	exclude      []string
	maxFileBytes int64
}

// NewClient creates a Client authenticated with opts.Token.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, ErrMissingToken
	}
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	gh := gogithub.NewClient(httpClient).WithAuthToken(opts.Token)
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing github base url: %w", err)
		}
		gh.BaseURL = base
	}

	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Client{gh: gh, raw: httpClient, exclude: opts.Exclude, maxFileBytes: maxBytes}, nil
}

// FetchIssue returns the title, body and labels of ref's issue.
func (c *Client) FetchIssue(ctx context.Context, ref IssueRef) (*Issue, error) {
	if ref.Number == 0 {
		return nil, fmt.Errorf("%s does not name an issue", ref)
	}
	issue, _, err := c.gh.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, translate("fetch issue "+ref.String(), err)
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	return &Issue{
		Owner:       ref.Owner,
		Repo:        ref.Repo,
		Number:      ref.Number,
		Title:       issue.GetTitle(),
		Description: issue.GetBody(),
		Labels:      labels,
	}, nil
}

// ListSourceFiles walks the repository tree and returns every file with a
// recognized source extension that no exclude pattern matches. A failing
// subdirectory is logged and skipped; a failing root listing is an error.
func (c *Client) ListSourceFiles(ctx context.Context, ref IssueRef) ([]SourceFile, error) {
	var files []SourceFile
	if err := c.walk(ctx, ref, "", &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) walk(ctx context.Context, ref IssueRef, dir string, files *[]SourceFile) error {
	_, entries, _, err := c.gh.Repositories.GetContents(ctx, ref.Owner, ref.Repo, dir, nil)
	if err != nil {
		return translate("list "+path.Join(ref.Owner, ref.Repo, dir), err)
	}

	for _, e := range entries {
		p := e.GetPath()
		if c.excluded(p) {
			continue
		}
		switch e.GetType() {
		case "file":
			if sourceExt.MatchString(e.GetName()) {
				*files = append(*files, SourceFile{Name: e.GetName(), Path: p, DownloadURL: e.GetDownloadURL()})
			}
		case "dir":
			if err := c.walk(ctx, ref, p, files); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("skipping directory", "path", p, "error", err)
			}
		}
	}
	return nil
}

func (c *Client) excluded(p string) bool {
	for _, pattern := range c.exclude {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// Fetch downloads a file's raw content, refusing anything larger than the
// configured limit.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.raw.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &UpstreamError{Op: "download " + rawURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFileBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(data)) > c.maxFileBytes {
		return "", fmt.Errorf("%s: %w (%d bytes)", rawURL, ErrFileTooLarge, c.maxFileBytes)
	}
	return string(data), nil
}

// translate maps go-github errors onto this package's error types.
func translate(op string, err error) error {
	var errResp *gogithub.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		if errResp.Response.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%s: %w", op, ErrAuthFailed)
		}
		return &UpstreamError{Op: op, StatusCode: errResp.Response.StatusCode, Body: errResp.Message}
	}
	return fmt.Errorf("%s: %w", op, err)
}
