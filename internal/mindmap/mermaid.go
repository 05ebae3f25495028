package mindmap

import (
	"fmt"
	"strings"

	"github.com/issuewiz/graphix/internal/analysis"
)

// RenderMermaid renders the analysis as a Mermaid mindmap diagram.
func RenderMermaid(fileName string, a *analysis.FileAnalysis) string {
	var b strings.Builder
	b.WriteString("mindmap\n")
	fmt.Fprintf(&b, "  root((\"%s\"))\n", escapeMermaid(fileName))
	if a == nil {
		return b.String()
	}
	for i, br := range a.Branches {
		fmt.Fprintf(&b, "    b%d[\"%s\"]\n", i, escapeMermaid(br.Name))
		for j, sub := range br.SubBranches {
			fmt.Fprintf(&b, "      b%d_%d(\"%s\")\n", i, j, escapeMermaid(sub))
		}
	}
	return b.String()
}

// escapeMermaid replaces characters that have special meaning in mermaid
// labels with their entity codes.
func escapeMermaid(s string) string {
	return mermaidEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

var mermaidEscaper = strings.NewReplacer(
	"\"", "#quot;",
	"(", "#lpar;",
	")", "#rpar;",
	"[", "#lsqb;",
	"]", "#rsqb;",
	"{", "#lbrace;",
	"}", "#rbrace;",
	"<", "#lt;",
	">", "#gt;",
)
