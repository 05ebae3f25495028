package github

import (
	"errors"
	"testing"
)

func TestParseIssueURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    IssueRef
		wantErr error
	}{
		{"https://github.com/octo/hello/issues/42", IssueRef{"octo", "hello", 42}, nil},
		{"  https://github.com/octo/hello  ", IssueRef{"octo", "hello", 0}, nil},
		{"https://github.com/octo/hello.git", IssueRef{"octo", "hello", 0}, nil},
		{"https://github.com/octo/hello/issues/42#issuecomment-1", IssueRef{"octo", "hello", 42}, nil},
		{"https://github.com/octo/hello/pulls/3", IssueRef{"octo", "hello", 0}, nil},
		{"https://github.com/octo/hello/issues/", IssueRef{"octo", "hello", 0}, nil},
		{"", IssueRef{}, ErrInvalidURL},
		{"http://github.com/octo/hello", IssueRef{}, ErrInvalidURL},
		{"https://gitlab.com/octo/hello", IssueRef{}, ErrInvalidURL},
		{"https://github.com/octo", IssueRef{}, ErrMissingRepo},
		{"https://github.com//hello", IssueRef{}, ErrMissingRepo},
		{"https://github.com/octo/hello/issues/abc", IssueRef{}, ErrMissingRepo},
	}
	for _, tt := range tests {
		got, err := ParseIssueURL(tt.raw)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseIssueURL(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIssueURL(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIssueURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestIssueRefString(t *testing.T) {
	if got := (IssueRef{"a", "b", 3}).String(); got != "a/b#3" {
		t.Errorf("got %q", got)
	}
	if got := (IssueRef{"a", "b", 0}).String(); got != "a/b" {
		t.Errorf("got %q", got)
	}
	if got := (IssueRef{"a", "b", 3}).URL(); got != "https://github.com/a/b/issues/3" {
		t.Errorf("got %q", got)
	}
}
