package mindmap

import (
	"fmt"
	"html/template"
	"io"

	"github.com/issuewiz/graphix/internal/analysis"
)

// Background is the page color of exported mind maps.
const Background = "#0f0f0f"

// LoadingText is shown in place of a mind map whose analysis is pending.
const LoadingText = "Analyzing file..."

const fragmentTemplate = `{{define "fragment"}}<div class="mindmap" id="mindmap">
{{- if .Pending}}
  <div class="mindmap-loading"><span class="spinner"></span>{{.LoadingText}}</div>
{{- else}}
  <div class="mindmap-root">{{.FileName}}</div>
  {{- with .Overview}}
  <p class="mindmap-overview">{{.}}</p>
  {{- end}}
  <div class="mindmap-branches">
  {{- range .Branches}}
    <div class="mindmap-branch">
      <div class="mindmap-branch-name">{{.Name}}</div>
      {{- if .Columns}}
      <div class="mindmap-subs" style="grid-template-columns: repeat({{.Columns}}, minmax(0, 1fr))">
        {{- range .SubBranches}}
        <div class="mindmap-sub">{{.}}</div>
        {{- end}}
      </div>
      {{- end}}
    </div>
  {{- end}}
  </div>
{{- end}}
</div>{{end}}`

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.FileName}} mind map</title>
  <style>{{.CSS}}</style>
</head>
<body>
{{template "fragment" .}}
</body>
</html>`

// CSS styles both the fragment and the standalone document.
const CSS = `
body { margin: 0; background: #0f0f0f; color: #e5e5e5; font: 13px/1.4 "JetBrains Mono", Menlo, monospace; }
.mindmap { display: flex; flex-direction: column; align-items: center; gap: 40px; padding: 32px; background: #0f0f0f; }
.mindmap-loading { color: #a3a3a3; padding: 48px; }
.mindmap-loading .spinner { display: inline-block; width: 12px; height: 12px; margin-right: 8px; border: 2px solid #525252; border-top-color: #a78bfa; border-radius: 50%; animation: spin 1s linear infinite; }
@keyframes spin { to { transform: rotate(360deg); } }
.mindmap-root { background: #7c3aed; color: #fff; padding: 8px 14px; border-radius: 8px; font-weight: 600; }
.mindmap-overview { max-width: 720px; margin: 0; color: #a3a3a3; text-align: center; }
.mindmap-branches { display: flex; flex-wrap: wrap; justify-content: center; gap: 16px; }
.mindmap-branch { display: flex; flex-direction: column; align-items: center; gap: 40px; }
.mindmap-branch-name { background: #1e3a8a; color: #dbeafe; padding: 8px 14px; border-radius: 6px; }
.mindmap-subs { display: grid; gap: 16px; }
.mindmap-sub { background: #1f1f1f; border: 1px solid #3f3f46; padding: 8px 14px; border-radius: 6px; min-width: 92px; }
`

var templates = template.Must(template.Must(
	template.New("mindmap").Parse(fragmentTemplate)).
	New("document").Parse(documentTemplate))

type branchView struct {
	Name        string
	SubBranches []string
	Columns     int
}

type view struct {
	FileName    string
	Overview    string
	Branches    []branchView
	Pending     bool
	LoadingText string
	CSS         template.CSS
}

func newView(fileName string, a *analysis.FileAnalysis) view {
	v := view{FileName: fileName, Pending: a == nil, LoadingText: LoadingText, CSS: template.CSS(CSS)}
	if a == nil {
		return v
	}
	v.Overview = a.Overview
	for _, b := range a.Branches {
		v.Branches = append(v.Branches, branchView{Name: b.Name, SubBranches: b.SubBranches, Columns: Columns(len(b.SubBranches))})
	}
	return v
}

// RenderHTML writes the mind map as an HTML fragment rooted at #mindmap. A
// nil analysis renders the loading placeholder.
func RenderHTML(w io.Writer, fileName string, a *analysis.FileAnalysis) error {
	if err := templates.ExecuteTemplate(w, "fragment", newView(fileName, a)); err != nil {
		return fmt.Errorf("render mind map: %w", err)
	}
	return nil
}

// RenderDocument writes a standalone page holding the mind map, suitable for
// loading into a headless browser.
func RenderDocument(w io.Writer, fileName string, a *analysis.FileAnalysis) error {
	if err := templates.ExecuteTemplate(w, "document", newView(fileName, a)); err != nil {
		return fmt.Errorf("render mind map document: %w", err)
	}
	return nil
}
