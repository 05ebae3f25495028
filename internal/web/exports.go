package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/export"
	"github.com/issuewiz/graphix/internal/mindmap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// target loads the analysis of file and prepares it for export.
func (h *Handler) target(r *http.Request, key, file string) (export.Target, *cache.Entry, error) {
	_, entry, err := h.resolve(r, key, file)
	if err != nil {
		return export.Target{}, nil, err
	}
	t, err := export.NewTarget(file, &entry.Analysis)
	if err != nil {
		return export.Target{}, nil, err
	}
	return t, entry, nil
}

func (h *Handler) exportTarget(w http.ResponseWriter, r *http.Request) (export.Target, *cache.Entry, bool) {
	q := r.URL.Query()
	file := q.Get("file")
	if file == "" {
		http.Error(w, "file is required", http.StatusBadRequest)
		return export.Target{}, nil, false
	}
	t, entry, err := h.target(r, q.Get("key"), file)
	if errors.Is(err, cache.ErrNotFound) {
		http.Error(w, "Analysis not found for this file.", http.StatusNotFound)
		return export.Target{}, nil, false
	}
	if err != nil {
		http.Error(w, "loading analysis failed", http.StatusInternalServerError)
		return export.Target{}, nil, false
	}
	return t, entry, true
}

// bufferSink keeps the single export of a synchronous download.
type bufferSink struct {
	name string
	data []byte
}

func (b *bufferSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	b.name, b.data = name, data
	return name, nil
}

func (h *Handler) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	t, _, ok := h.exportTarget(w, r)
	if !ok {
		return
	}
	sink := &bufferSink{}
	exp := export.New(sink, export.LogNotifier{}, h.deps.ExportOptions, h.deps.Strategies...)
	_, err := exp.Export(r.Context(), t)
	h.record(r.Context(), audit.ExportEntry(r.URL.Query().Get("key"), t.FileName, "png", "download", err))
	if err != nil {
		http.Error(w, export.MsgFailure, http.StatusInternalServerError)
		return
	}
	attach(w, sink.name, "image/png", sink.data)
}

func (h *Handler) handleExportSVG(w http.ResponseWriter, r *http.Request) {
	t, _, ok := h.exportTarget(w, r)
	if !ok {
		return
	}
	bg := h.deps.ExportOptions.Background
	attach(w, downloadName(t.FileName, ".svg"), "image/svg+xml", []byte(mindmap.RenderSVG(t.Layout, bg)))
}

func (h *Handler) handleExportMermaid(w http.ResponseWriter, r *http.Request) {
	t, entry, ok := h.exportTarget(w, r)
	if !ok {
		return
	}
	attach(w, downloadName(t.FileName, ".mmd"), "text/plain; charset=utf-8", []byte(mindmap.RenderMermaid(t.FileName, &entry.Analysis)))
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request) {
	a, ok := h.deps.Artifacts.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "export not found", http.StatusNotFound)
		return
	}
	attach(w, a.Name, "image/png", a.Data)
}

// downloadName swaps the png suffix of export.FileName for ext.
func downloadName(file, ext string) string {
	return strings.TrimSuffix(export.FileName(file), ".png") + ext
}

func attach(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

// exportRequest is the incoming websocket message.
type exportRequest struct {
	Type string `json:"type"` // "export"
	File string `json:"file"`
	Key  string `json:"key"`
}

// exportMessage is an outgoing websocket message. Type is one of loading,
// success, error, dismiss or download.
type exportMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

func (h *Handler) handleExportSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()
	n := &socketNotifier{conn: conn}

	for {
		var req exportRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read", "error", err)
			}
			return
		}
		if req.Type != "export" || req.File == "" {
			n.send(exportMessage{Type: "error", Message: "invalid export request"})
			continue
		}

		t, _, err := h.target(r, req.Key, req.File)
		if err != nil {
			n.send(exportMessage{Type: "error", Message: "Analysis not found for this file. Please go back and try again."})
			continue
		}
		exp := export.New(h.deps.Artifacts, n, h.deps.ExportOptions, h.deps.Strategies...)
		id, err := exp.Export(r.Context(), t)
		h.record(r.Context(), audit.ExportEntry(req.Key, t.FileName, "png", "/exports/"+id, err))
		if err != nil {
			continue
		}
		n.send(exportMessage{Type: "download", URL: "/exports/" + id})
	}
}

// socketNotifier relays export notifications over a websocket.
type socketNotifier struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (n *socketNotifier) send(m exportMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.conn.WriteJSON(m); err != nil {
		slog.Warn("websocket write", "error", err)
	}
}

func (n *socketNotifier) Loading(msg string) export.Handle {
	n.send(exportMessage{Type: "loading", Message: msg})
	return socketHandle{n}
}

func (n *socketNotifier) Success(msg string) { n.send(exportMessage{Type: "success", Message: msg}) }

func (n *socketNotifier) Failure(msg string) { n.send(exportMessage{Type: "error", Message: msg}) }

type socketHandle struct{ n *socketNotifier }

func (h socketHandle) Update(msg string) { h.n.send(exportMessage{Type: "loading", Message: msg}) }

func (h socketHandle) Dismiss() { h.n.send(exportMessage{Type: "dismiss"}) }
