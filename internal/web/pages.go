package web

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/github"
	"github.com/issuewiz/graphix/internal/matcher"
	"github.com/issuewiz/graphix/internal/mindmap"
)

type indexData struct {
	page
	URL   string
	Error string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "index", indexData{page: newPage("Analyze an issue")})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	issueURL := strings.TrimSpace(r.FormValue("url"))
	data := indexData{page: newPage("Analyze an issue"), URL: issueURL}

	if issueURL == "" {
		data.Error, _ = userMessage(github.ErrInvalidURL)
		render(w, http.StatusBadRequest, "index", data)
		return
	}
	if h.deps.Pipeline == nil {
		msg, status := userMessage(github.ErrMissingToken)
		data.Error = msg
		render(w, status, "index", data)
		return
	}

	res, err := h.deps.Pipeline.Run(r.Context(), issueURL)
	h.record(r.Context(), audit.RunEntry(issueURL, res, err))
	if err != nil {
		slog.Error("analyzing issue", "url", issueURL, "error", err)
		msg, status := userMessage(err)
		data.Error = msg
		render(w, status, "index", data)
		return
	}
	http.Redirect(w, r, "/dashboard?key="+url.QueryEscape(res.Key), http.StatusSeeOther)
}

type fileRow struct {
	matcher.FileMatch
	Analyzed bool
}

type dashboardData struct {
	page
	Key         string
	Dataset     *cache.Dataset
	Description template.HTML
	Files       []fileRow
	Keys        []cache.KeyInfo
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	data := dashboardData{page: newPage("Analysis Results"), Key: key}

	if key == "" {
		keys, err := h.deps.Store.Keys(r.Context())
		if err != nil {
			http.Error(w, "loading analyses failed", http.StatusInternalServerError)
			return
		}
		data.Keys = keys
		render(w, http.StatusOK, "dashboard", data)
		return
	}

	ds, err := h.deps.Store.Dataset(r.Context(), key)
	if errors.Is(err, cache.ErrNotFound) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	if err != nil {
		http.Error(w, "loading analysis failed", http.StatusInternalServerError)
		return
	}
	analyses, err := h.deps.Store.Get(r.Context(), key)
	if err != nil {
		http.Error(w, "loading analysis failed", http.StatusInternalServerError)
		return
	}

	data.Dataset = ds
	data.Description = h.markdown(ds.Matches.Description)
	for _, m := range ds.Matches.FilenameMatches {
		_, ok := analyses[m.FileName]
		data.Files = append(data.Files, fileRow{FileMatch: m, Analyzed: ok})
	}
	render(w, http.StatusOK, "dashboard", data)
}

type mindmapData struct {
	page
	Key      string
	BackURL  string
	FileName string
	NotFound bool
	Match    *matcher.FileMatch
	Overview template.HTML
	Mindmap  template.HTML
}

// resolve finds the analysis of file under key, or the latest analysis of
// file under any key when key is empty. It returns the key that matched.
func (h *Handler) resolve(r *http.Request, key, file string) (string, *cache.Entry, error) {
	if key == "" {
		k, e, err := h.deps.Store.FindLatest(r.Context(), file)
		if err != nil {
			return "", nil, err
		}
		return k, &e, nil
	}
	e, err := h.deps.Store.Lookup(r.Context(), key, file)
	if err != nil {
		return "", nil, err
	}
	return key, &e, nil
}

func (h *Handler) handleMindmap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file, key := q.Get("file"), q.Get("key")
	if file == "" {
		target := "/dashboard"
		if key != "" {
			target += "?key=" + url.QueryEscape(key)
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	data := mindmapData{page: newPage(file), Key: key, FileName: file}
	data.BackURL = dashboardURL(key)

	key, entry, err := h.resolve(r, key, file)
	if errors.Is(err, cache.ErrNotFound) {
		data.NotFound = true
		render(w, http.StatusNotFound, "mindmap", data)
		return
	}
	if err != nil {
		http.Error(w, "loading analysis failed", http.StatusInternalServerError)
		return
	}
	data.Key = key
	data.BackURL = dashboardURL(key)

	if ds, err := h.deps.Store.Dataset(r.Context(), key); err == nil {
		for _, m := range ds.Matches.FilenameMatches {
			if m.FileName == file {
				data.Match = &m
				break
			}
		}
	}

	var buf bytes.Buffer
	if err := mindmap.RenderHTML(&buf, file, &entry.Analysis); err != nil {
		http.Error(w, "rendering mind map failed", http.StatusInternalServerError)
		return
	}
	data.Mindmap = template.HTML(buf.String())
	data.Overview = h.markdown(entry.Analysis.Overview)
	render(w, http.StatusOK, "mindmap", data)
}

func dashboardURL(key string) string {
	if key == "" {
		return "/dashboard"
	}
	return "/dashboard?key=" + url.QueryEscape(key)
}

// handleAnalyses dumps the analyses of a key, or lists the keys when none
// is given.
func (h *Handler) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		keys, err := h.deps.Store.Keys(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if keys == nil {
			keys = []cache.KeyInfo{}
		}
		writeJSON(w, http.StatusOK, keys)
		return
	}

	entries, err := h.deps.Store.Get(r.Context(), key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make(map[string]analysis.FileAnalysis, len(entries))
	for name, e := range entries {
		out[name] = e.Analysis
	}
	writeJSON(w, http.StatusOK, out)
}

type analyzeFileRequest struct {
	FileName      string `json:"fileName"`
	FileExtension string `json:"fileExtension"`
	Content       string `json:"content"`
}

// handleAnalyzeFile analyzes one file posted as JSON.
func (h *Handler) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	var req analyzeFileRequest
	if err := decodeJSON(r, &req); err != nil || req.FileName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if h.deps.Analyzer == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error analyzing file"})
		return
	}

	res, err := h.deps.Analyzer.Analyze(r.Context(), analysis.Request{
		FileName:      req.FileName,
		FileExtension: req.FileExtension,
		Content:       req.Content,
	})
	if err != nil {
		slog.Error("analyzing file", "file", req.FileName, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error analyzing file"})
		return
	}
	writeJSON(w, http.StatusOK, res.Analysis)
}
