package analysis

import (
	"regexp"
	"strings"
)

var (
	overviewMarker = regexp.MustCompile(`(?i)OVERVIEW:`)
	branchesMarker = regexp.MustCompile(`(?i)BRANCHES:`)
)

// lineKind classifies one line of the branch section.
type lineKind int

const (
	lineIgnored lineKind = iota
	lineBranch
	lineSubBranch
)

const (
	branchPrefix    = "- "
	subBranchPrefix = "  - "
)

// classifyLine returns the kind of a line and its text with the marker
// removed and surrounding whitespace trimmed.
func classifyLine(line string) (lineKind, string) {
	switch {
	case strings.TrimSpace(line) == "":
		return lineIgnored, ""
	case strings.HasPrefix(line, branchPrefix):
		return lineBranch, strings.TrimSpace(line[len(branchPrefix):])
	case strings.HasPrefix(line, subBranchPrefix):
		return lineSubBranch, strings.TrimSpace(line[len(subBranchPrefix):])
	default:
		return lineIgnored, ""
	}
}

// Parse extracts a FileAnalysis from model output. It never fails: a missing
// OVERVIEW marker yields an empty overview and a missing BRANCHES marker
// yields no branches. Sub-branch lines seen before any branch line and lines
// with any other indentation are dropped.
func Parse(raw string) FileAnalysis {
	out := FileAnalysis{Branches: []Branch{}}

	if loc := overviewMarker.FindStringIndex(raw); loc != nil {
		rest := raw[loc[1]:]
		if end := branchesMarker.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		out.Overview = strings.TrimSpace(rest)
	}

	loc := branchesMarker.FindStringIndex(raw)
	if loc == nil {
		return out
	}

	current := -1
	for _, line := range strings.Split(raw[loc[1]:], "\n") {
		kind, text := classifyLine(strings.TrimSuffix(line, "\r"))
		switch kind {
		case lineBranch:
			out.Branches = append(out.Branches, Branch{Name: text, SubBranches: []string{}})
			current = len(out.Branches) - 1
		case lineSubBranch:
			if current >= 0 {
				out.Branches[current].SubBranches = append(out.Branches[current].SubBranches, text)
			}
		}
	}
	return out
}

// Format renders an analysis in the grammar Parse reads. Parse(Format(a))
// reproduces a for any analysis whose names are single-line and trimmed.
func Format(a FileAnalysis) string {
	var b strings.Builder
	b.WriteString("OVERVIEW: ")
	b.WriteString(a.Overview)
	b.WriteString("\n\nBRANCHES:\n")
	for _, br := range a.Branches {
		b.WriteString(branchPrefix)
		b.WriteString(br.Name)
		b.WriteByte('\n')
		for _, sub := range br.SubBranches {
			b.WriteString(subBranchPrefix)
			b.WriteString(sub)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
