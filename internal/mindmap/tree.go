package mindmap

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/issuewiz/graphix/internal/analysis"
)

var (
	rootStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a78bfa")).Bold(true)
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1e3a8a", Dark: "#93c5fd"})
	leafStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#d4d4d4"})
	enumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#525252"))
)

// RenderTree renders the analysis as a tree for the terminal.
func RenderTree(fileName string, a *analysis.FileAnalysis) string {
	t := tree.Root(rootStyle.Render(fileName)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumStyle)
	if a == nil {
		return t.Child(leafStyle.Render(LoadingText)).String()
	}
	for _, br := range a.Branches {
		node := tree.Root(branchStyle.Render(br.Name)).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(enumStyle)
		for _, sub := range br.SubBranches {
			node.Child(leafStyle.Render(sub))
		}
		t.Child(node)
	}
	return t.String()
}
