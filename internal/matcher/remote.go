package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteMatcher posts requests to an external match-keywords endpoint.
type RemoteMatcher struct {
	url    string
	client *http.Client
}

// NewRemoteMatcher creates a RemoteMatcher for the given endpoint URL.
func NewRemoteMatcher(url string) *RemoteMatcher {
	return &RemoteMatcher{url: url, client: &http.Client{Timeout: 2 * time.Minute}}
}

// errorBody is the shape of a failed match that still answered 200.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (m *RemoteMatcher) Match(ctx context.Context, req Request) (*Result, error) {
	if req.IssueDetails == nil {
		return nil, ErrNoIssue
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal match request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create match request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("match request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read match response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var failed errorBody
	if json.Unmarshal(respBody, &failed) == nil && failed.Status == "error" {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: failed.Message}
	}

	var out Result
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode match response: %w", err)
	}
	return &out, nil
}
