package web

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/issuewiz/graphix/internal/mindmap"
)

const baseTemplate = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} · Graphix.AI</title>
  <style>{{.CSS}}</style>
</head>
<body>
  <header class="top-bar"><a href="/" class="brand">Graphix.AI</a><a href="/dashboard">Analyses</a></header>
  <main>
{{template "content" .}}
  </main>
</body>
</html>{{end}}`

const indexTemplate = `{{define "content"}}
<section class="hero">
  <h1>Turn a GitHub issue into mind maps</h1>
  <p class="muted">Paste an issue URL. The files most related to it are analyzed and drawn as mind maps.</p>
  <form method="post" action="/analyze" class="issue-form">
    <input type="url" name="url" value="{{.URL}}" placeholder="https://github.com/owner/repo/issues/1" required>
    <button type="submit">Analyze</button>
  </form>
  {{with .Error}}<p class="error">{{.}}</p>{{end}}
</section>
{{end}}`

const dashboardTemplate = `{{define "content"}}
<h1>Analysis Results</h1>
{{if .Dataset}}
<section class="card">
  <h2>Repository: {{.Dataset.Matches.Repo}}</h2>
  {{with .Dataset.Issue}}
  <h3><a href="{{$.Dataset.URL}}" target="_blank" rel="noopener noreferrer">#{{.Number}} {{.Title}}</a></h3>
  {{if .Labels}}<p>{{range .Labels}}<span class="label">{{.}}</span>{{end}}</p>{{end}}
  {{end}}
  <h3>Description:</h3>
  <div class="prose">{{.Description}}</div>
</section>
<section class="card">
  <h2>Matched Files</h2>
  {{range .Files}}
  <div class="match">
    <div class="match-head">
      <a class="file" href="/mindmap?file={{.FileName}}&key={{$.Key}}">{{.FileName}}</a>
      <span class="score">Match Score: {{percent .MatchScore}}</span>
    </div>
    <a class="muted" href="{{.DownloadURL}}" target="_blank" rel="noopener noreferrer">View File</a>
    {{if not .Analyzed}}<span class="error">not analyzed</span>{{end}}
  </div>
  {{else}}
  <p class="muted">No file matched this issue.</p>
  {{end}}
</section>
{{else}}
<section class="card">
  <h2>Recent analyses</h2>
  {{range .Keys}}
  <div class="match"><a href="/dashboard?key={{.Key}}">{{.Key}}</a> <span class="muted">{{.Files}} files</span></div>
  {{else}}
  <p class="muted">Nothing analyzed yet. <a href="/">Analyze an issue</a>.</p>
  {{end}}
</section>
{{end}}
{{end}}`

const mindmapTemplate = `{{define "content"}}
<a class="back" href="{{.BackURL}}">← Back to Dashboard</a>
{{if .NotFound}}
<section class="card"><p class="muted center">Analysis not found for this file. Please go back and try again.</p></section>
{{else}}
<section class="card file-header">
  <div>
    <h1 class="mono">{{.FileName}}</h1>
    {{with .Match}}<a class="muted" href="{{.DownloadURL}}" target="_blank" rel="noopener noreferrer">View Raw File →</a>{{end}}
  </div>
  {{with .Match}}<div class="mono"><span class="accent">Match Score:</span> {{percent .MatchScore}}</div>{{end}}
</section>
<section class="card">
  <h2>Overview</h2>
  <div class="prose">{{.Overview}}</div>
</section>
<section class="card">
  <div class="toolbar">
    <h2>Mindmap</h2>
    <button id="export-png" data-file="{{.FileName}}" data-key="{{.Key}}">Export PNG</button>
    <a href="/mindmap/export.svg?file={{.FileName}}&key={{.Key}}">SVG</a>
    <a href="/mindmap/export.mmd?file={{.FileName}}&key={{.Key}}">Mermaid</a>
  </div>
  <div class="mindmap-frame">{{.Mindmap}}</div>
</section>
<div id="toast" class="toast" hidden></div>
<script>
(function () {
  var btn = document.getElementById('export-png');
  var toast = document.getElementById('toast');
  function show(kind, text) {
    toast.hidden = false;
    toast.className = 'toast ' + kind;
    toast.textContent = text;
  }
  btn.addEventListener('click', function () {
    var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    var ws = new WebSocket(proto + location.host + '/ws/export');
    btn.disabled = true;
    ws.onopen = function () {
      ws.send(JSON.stringify({type: 'export', file: btn.dataset.file, key: btn.dataset.key}));
    };
    ws.onmessage = function (ev) {
      var m = JSON.parse(ev.data);
      if (m.type === 'download') {
        location.href = m.url;
        return;
      }
      if (m.type === 'dismiss') {
        btn.disabled = false;
        return;
      }
      show(m.type, m.message);
      if (m.type === 'success' || m.type === 'error') {
        setTimeout(function () { toast.hidden = true; }, 4000);
      }
    };
    ws.onclose = function () { btn.disabled = false; };
  });
})();
</script>
{{end}}
{{end}}`

const pageCSS = `
:root { --bg: #000; --panel: #0a0a0a; --border: #262626; --text: #d4d4d4; --muted: #737373; --accent: #16a34a; }
* { box-sizing: border-box; }
body { margin: 0; background: var(--bg); color: var(--text); font: 15px/1.5 system-ui, sans-serif; }
a { color: var(--accent); }
main { max-width: 1100px; margin: 0 auto; padding: 32px; }
.top-bar { display: flex; gap: 24px; padding: 16px 32px; border-bottom: 1px solid var(--border); }
.brand { font-weight: 700; text-decoration: none; }
.card { background: var(--panel); border: 1px solid var(--border); border-radius: 8px; padding: 24px; margin-bottom: 24px; }
.muted { color: var(--muted); }
.center { text-align: center; }
.mono { font-family: Menlo, monospace; }
.accent { color: var(--accent); }
.error { color: #f87171; }
.hero { text-align: center; padding: 64px 0; }
.issue-form { display: flex; gap: 8px; justify-content: center; margin-top: 24px; }
.issue-form input { width: 480px; padding: 10px; background: var(--panel); color: var(--text); border: 1px solid var(--border); border-radius: 6px; }
button { background: var(--accent); color: #fff; border: 0; border-radius: 6px; padding: 8px 16px; cursor: pointer; }
button:disabled { opacity: .5; }
.match { border: 1px solid var(--border); border-radius: 6px; padding: 12px 16px; margin-bottom: 12px; }
.match-head { display: flex; justify-content: space-between; }
.score { background: #052e16; color: #86efac; padding: 2px 8px; border-radius: 4px; font-size: 13px; }
.label { display: inline-block; background: #1e293b; border-radius: 999px; padding: 0 10px; margin-right: 6px; font-size: 12px; }
.file-header { display: flex; justify-content: space-between; align-items: center; }
.toolbar { display: flex; gap: 16px; align-items: center; }
.toolbar h2 { margin-right: auto; }
.back { display: inline-block; margin-bottom: 24px; }
.mindmap-frame { overflow-x: auto; }
.toast { position: fixed; right: 24px; bottom: 24px; padding: 12px 16px; border-radius: 6px; background: #262626; }
.toast.success { background: #14532d; }
.toast.error { background: #7f1d1d; }
` + mindmap.CSS

var funcs = template.FuncMap{
	"percent": func(score float64) string { return fmt.Sprintf("%.1f%%", score*100) },
}

var pages = map[string]*template.Template{}

func init() {
	base := template.Must(template.New("base").Funcs(funcs).Parse(baseTemplate))
	for name, body := range map[string]string{
		"index":     indexTemplate,
		"dashboard": dashboardTemplate,
		"mindmap":   mindmapTemplate,
	} {
		pages[name] = template.Must(template.Must(base.Clone()).Parse(body))
	}
}

// page is the data shared by every template.
type page struct {
	Title string
	CSS   template.CSS
}

func newPage(title string) page {
	return page{Title: title, CSS: template.CSS(pageCSS)}
}

func render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages[name].ExecuteTemplate(w, "base", data); err != nil {
		slog.Error("rendering page", "page", name, "error", err)
	}
}
