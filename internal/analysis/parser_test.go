package analysis

import (
	"reflect"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   FileAnalysis
	}{
		{"mixed", FileAnalysis{
			Overview: "Express router exposing user endpoints.",
			Branches: []Branch{
				{Name: "Endpoints", SubBranches: []string{"GET /users", "POST /users"}},
				{Name: "Middleware", SubBranches: []string{}},
				{Name: "Error Handling", SubBranches: []string{"404 handler"}},
			},
		}},
		{"no branches", FileAnalysis{Overview: "Constants only.", Branches: []Branch{}}},
		{"only empty branches", FileAnalysis{
			Overview: "Skeleton.",
			Branches: []Branch{{Name: "Types", SubBranches: []string{}}, {Name: "Init", SubBranches: []string{}}},
		}},
		{"duplicate names", FileAnalysis{
			Overview: "Two handler groups.",
			Branches: []Branch{
				{Name: "Handlers", SubBranches: []string{"list", "list"}},
				{Name: "Handlers", SubBranches: []string{"create"}},
			},
		}},
		{"empty overview", FileAnalysis{
			Overview: "",
			Branches: []Branch{{Name: "Exports", SubBranches: []string{"default"}}},
		}},
		{"punctuation in names", FileAnalysis{
			Overview: "Uses a: colon and - dashes.",
			Branches: []Branch{{Name: "Config (env)", SubBranches: []string{"PORT: 8080", "DEBUG=true"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(Format(tt.in))
			if !reflect.DeepEqual(got, tt.in) {
				t.Errorf("Parse(Format(a)) = %+v, want %+v", got, tt.in)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	got := Parse("")
	if got.Overview != "" {
		t.Errorf("overview = %q, want empty", got.Overview)
	}
	if got.Branches == nil || len(got.Branches) != 0 {
		t.Errorf("branches = %#v, want empty non-nil slice", got.Branches)
	}
}

func TestParseDropsLeadingSubBranch(t *testing.T) {
	got := Parse("OVERVIEW: x\nBRANCHES:\n  - orphan\n- Real\n  - child\n")
	want := []Branch{{Name: "Real", SubBranches: []string{"child"}}}
	if !reflect.DeepEqual(got.Branches, want) {
		t.Errorf("branches = %+v, want %+v", got.Branches, want)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want FileAnalysis
	}{
		{
			name: "lowercase markers",
			raw:  "overview: Small helper.\nbranches:\n- Helpers\n  - slugify",
			want: FileAnalysis{Overview: "Small helper.", Branches: []Branch{{Name: "Helpers", SubBranches: []string{"slugify"}}}},
		},
		{
			name: "no branches marker",
			raw:  "OVERVIEW: Only a summary\n- not a branch",
			want: FileAnalysis{Overview: "Only a summary\n- not a branch", Branches: []Branch{}},
		},
		{
			name: "no overview marker",
			raw:  "Here you go\nBRANCHES:\n- A",
			want: FileAnalysis{Branches: []Branch{{Name: "A", SubBranches: []string{}}}},
		},
		{
			name: "preamble and blank lines",
			raw:  "Sure!\n\nOVERVIEW:\n  Parses config.  \n\nBRANCHES:\n\n- Types\n\n  - Config\n  - Options\n",
			want: FileAnalysis{Overview: "Parses config.", Branches: []Branch{{Name: "Types", SubBranches: []string{"Config", "Options"}}}},
		},
		{
			name: "crlf line endings",
			raw:  "OVERVIEW: win\r\nBRANCHES:\r\n- A\r\n  - b\r\n",
			want: FileAnalysis{Overview: "win", Branches: []Branch{{Name: "A", SubBranches: []string{"b"}}}},
		},
		{
			name: "other indentation ignored",
			raw:  "BRANCHES:\n- A\n    - deep\n\t- tab\n* star\n  - b",
			want: FileAnalysis{Branches: []Branch{{Name: "A", SubBranches: []string{"b"}}}},
		},
		{
			name: "duplicates kept in order",
			raw:  "BRANCHES:\n- A\n  - x\n  - x\n- A",
			want: FileAnalysis{Branches: []Branch{{Name: "A", SubBranches: []string{"x", "x"}}, {Name: "A", SubBranches: []string{}}}},
		},
		{
			name: "branches before overview",
			raw:  "BRANCHES:\n- A\nOVERVIEW: late",
			want: FileAnalysis{Overview: "late", Branches: []Branch{{Name: "A", SubBranches: []string{}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		kind lineKind
		text string
	}{
		{"- Name ", lineBranch, "Name"},
		{"  - Sub", lineSubBranch, "Sub"},
		{"   - three spaces", lineIgnored, ""},
		{"-NoSpace", lineIgnored, ""},
		{"   ", lineIgnored, ""},
	}
	for _, tt := range tests {
		kind, text := classifyLine(tt.line)
		if kind != tt.kind || text != tt.text {
			t.Errorf("classifyLine(%q) = (%v, %q), want (%v, %q)", tt.line, kind, text, tt.kind, tt.text)
		}
	}
}
