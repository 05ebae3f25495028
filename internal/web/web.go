// Package web serves the graphix pages: the issue form, the match dashboard,
// the mind map viewer with its exports, and the analysis JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/export"
	"github.com/issuewiz/graphix/internal/github"
	"github.com/issuewiz/graphix/internal/pipeline"
)

// Analyzer analyzes a single file.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Runner runs an issue through the analysis pipeline.
type Runner interface {
	Run(ctx context.Context, issueURL string) (*pipeline.Result, error)
}

// Deps are the services behind the handlers. Pipeline may be nil when no
// GitHub token is configured; issue analysis then reports the missing token.
type Deps struct {
	Pipeline      Runner
	Analyzer      Analyzer
	Store         *cache.Store
	Strategies    []export.Strategy
	ExportOptions export.Options
	Artifacts     *export.MemorySink
	// Audit records runs and exports when set.
	Audit *audit.Store
}

// Handler serves the web UI.
type Handler struct {
	deps Deps
	md   goldmark.Markdown
}

// New creates a Handler.
func New(deps Deps) *Handler {
	if deps.Artifacts == nil {
		deps.Artifacts = export.NewMemorySink(32)
	}
	return &Handler{deps: deps, md: newMarkdown()}
}

// RegisterRoutes mounts the UI and API. timeout wraps every route except the
// long-lived export websocket; it may be nil.
func (h *Handler) RegisterRoutes(r chi.Router, timeout func(http.Handler) http.Handler) {
	r.Get("/ws/export", h.handleExportSocket)

	r.Group(func(r chi.Router) {
		if timeout != nil {
			r.Use(timeout)
		}
		r.Get("/", h.handleIndex)
		r.Post("/analyze", h.handleAnalyze)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/mindmap", h.handleMindmap)
		r.Get("/mindmap/export.png", h.handleExportPNG)
		r.Get("/mindmap/export.svg", h.handleExportSVG)
		r.Get("/mindmap/export.mmd", h.handleExportMermaid)
		r.Get("/exports/{id}", h.handleArtifact)
		r.Get("/api/analyses", h.handleAnalyses)
		r.Post("/api/mindmap", h.handleAnalyzeFile)
		if h.deps.Audit != nil {
			audit.RegisterRoutes(r, h.deps.Audit)
		}
	})
}

// record appends e to the audit trail, if one is configured.
func (h *Handler) record(ctx context.Context, e audit.Entry) {
	if h.deps.Audit == nil {
		return
	}
	if _, err := h.deps.Audit.Log(ctx, e); err != nil {
		slog.Warn("recording audit entry", "action", e.Action, "error", err)
	}
}

// userMessage maps pipeline errors to the text shown on the form.
func userMessage(err error) (string, int) {
	switch {
	case errors.Is(err, github.ErrInvalidURL):
		return "Please enter a valid GitHub URL.", http.StatusBadRequest
	case errors.Is(err, github.ErrMissingRepo):
		return "Invalid GitHub URL. Please enter a valid repository or issue URL.", http.StatusBadRequest
	case errors.Is(err, github.ErrMissingToken):
		return "GitHub token is not configured", http.StatusServiceUnavailable
	case errors.Is(err, github.ErrAuthFailed):
		return "GitHub authentication failed. Please check your token.", http.StatusBadGateway
	default:
		return "Failed to analyze the issue. Please try again.", http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 4<<20)).Decode(v)
}
