package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/audit"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/db"
	"github.com/issuewiz/graphix/internal/export"
	"github.com/issuewiz/graphix/internal/github"
	"github.com/issuewiz/graphix/internal/matcher"
	"github.com/issuewiz/graphix/internal/pipeline"
)

const testKey = "acme/api#9"

type fakeRunner struct {
	err error
}

func (f fakeRunner) Run(ctx context.Context, issueURL string) (*pipeline.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{Key: testKey}, nil
}

type fakeAnalyzer struct {
	err error
}

func (f fakeAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Result{
		FileName: req.FileName,
		Analysis: analysis.FileAnalysis{Overview: "About " + req.FileName, Branches: []analysis.Branch{}},
	}, nil
}

type pngStrategy struct {
	err error
}

func (pngStrategy) Name() string { return "fake" }

func (s pngStrategy) Rasterize(ctx context.Context, t export.Target, opts export.Options) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("PNG:" + t.FileName), nil
}

func seed(t *testing.T) *cache.Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := cache.NewStore(database)
	ctx := context.Background()
	err = store.Set(ctx, testKey, "src/users.go", cache.Entry{Analysis: analysis.FileAnalysis{
		Overview: "Handles **users**.",
		Branches: []analysis.Branch{
			{Name: "Endpoints", SubBranches: []string{"GET /users", "POST /users", "DELETE /users", "PUT /users"}},
			{Name: "Types", SubBranches: []string{}},
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	err = store.SaveDataset(ctx, testKey, cache.Dataset{
		URL:   "https://github.com/acme/api/issues/9",
		Issue: &github.Issue{Owner: "acme", Repo: "api", Number: 9, Title: "Users vanish", Labels: []string{"bug"}},
		Matches: matcher.Result{
			Repo:        "api",
			Description: "Deleting a **user** removes everyone.",
			IssueNum:    9,
			FilenameMatches: []matcher.FileMatch{
				{FileName: "src/users.go", MatchScore: 0.42, DownloadURL: "https://raw.example/src/users.go"},
				{FileName: "src/db.go", MatchScore: 0.2, DownloadURL: "https://raw.example/src/db.go"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func setupRouter(t *testing.T, deps Deps) chi.Router {
	t.Helper()
	if deps.Store == nil {
		deps.Store = seed(t)
	}
	if deps.Strategies == nil {
		deps.Strategies = []export.Strategy{pngStrategy{}}
	}
	r := chi.NewRouter()
	New(deps).RegisterRoutes(r, nil)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestIndex(t *testing.T) {
	r := setupRouter(t, Deps{})
	w := get(r, "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `action="/analyze"`) {
		t.Errorf("GET / = %d\n%s", w.Code, w.Body.String())
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		runner   Runner
		url      string
		wantCode int
		wantText string
	}{
		{"success", fakeRunner{}, "https://github.com/acme/api/issues/9", http.StatusSeeOther, ""},
		{"empty url", fakeRunner{}, "", http.StatusBadRequest, "Please enter a valid GitHub URL."},
		{"invalid url", fakeRunner{err: github.ErrInvalidURL}, "ftp://x", http.StatusBadRequest, "Please enter a valid GitHub URL."},
		{"missing repo", fakeRunner{err: github.ErrMissingRepo}, "https://github.com/acme", http.StatusBadRequest, "Invalid GitHub URL. Please enter a valid repository or issue URL."},
		{"no token", nil, "https://github.com/acme/api/issues/9", http.StatusServiceUnavailable, "GitHub token is not configured"},
		{"auth failed", fakeRunner{err: fmt.Errorf("fetch issue: %w", github.ErrAuthFailed)}, "https://github.com/acme/api/issues/9", http.StatusBadGateway, "GitHub authentication failed. Please check your token."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(t, Deps{Pipeline: tt.runner})
			form := url.Values{"url": {tt.url}}
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d\n%s", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantText != "" && !strings.Contains(w.Body.String(), tt.wantText) {
				t.Errorf("body missing %q", tt.wantText)
			}
			if tt.wantCode == http.StatusSeeOther {
				if loc := w.Header().Get("Location"); loc != "/dashboard?key=acme%2Fapi%239" {
					t.Errorf("Location = %q", loc)
				}
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	r := setupRouter(t, Deps{})
	w := get(r, "/dashboard?key="+url.QueryEscape(testKey))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Repository: api",
		"Users vanish",
		"Match Score: 42.0%",
		"Match Score: 20.0%",
		"<strong>user</strong>",
		"/mindmap?file=src%2fusers.go&key=acme%2fapi%239",
		"not analyzed",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboardUnknownKeyRedirects(t *testing.T) {
	r := setupRouter(t, Deps{})
	w := get(r, "/dashboard?key=nope")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Errorf("status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}
}

func TestDashboardListsKeys(t *testing.T) {
	r := setupRouter(t, Deps{})
	w := get(r, "/dashboard")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "1 files") {
		t.Errorf("status = %d\n%s", w.Code, w.Body.String())
	}
}

func TestMindmap(t *testing.T) {
	r := setupRouter(t, Deps{})
	w := get(r, "/mindmap?file=src/users.go&key="+url.QueryEscape(testKey))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"View Raw File",
		"https://raw.example/src/users.go",
		"42.0%",
		"grid-template-columns: repeat(3, minmax(0, 1fr))",
		"<strong>users</strong>",
		`id="export-png"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("mindmap page missing %q", want)
		}
	}
}

func TestMindmapWithoutKeyUsesLatest(t *testing.T) {
	r := setupRouter(t, Deps{})
	w := get(r, "/mindmap?file=src/users.go")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Endpoints") {
		t.Errorf("status = %d", w.Code)
	}
}

func TestMindmapMissing(t *testing.T) {
	r := setupRouter(t, Deps{})

	w := get(r, "/mindmap")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Errorf("missing file: status = %d, Location = %q", w.Code, w.Header().Get("Location"))
	}

	w = get(r, "/mindmap?file=src/db.go&key="+url.QueryEscape(testKey))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown file: status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Analysis not found for this file. Please go back and try again.") {
		t.Error("not-found message missing")
	}
}

func TestAnalyzeFileAPI(t *testing.T) {
	post := func(r http.Handler, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/mindmap", strings.NewReader(body)))
		return w
	}

	r := setupRouter(t, Deps{Analyzer: fakeAnalyzer{}})
	w := post(r, `{"fileName":"a.go","fileExtension":"go","content":"package a"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got analysis.FileAnalysis
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Overview != "About a.go" {
		t.Errorf("overview = %q", got.Overview)
	}

	if w := post(r, `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d", w.Code)
	}

	r = setupRouter(t, Deps{Analyzer: fakeAnalyzer{err: errors.New("quota")}})
	w = post(r, `{"fileName":"a.go","content":"x"}`)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), `"error":"Error analyzing file"`) {
		t.Errorf("analyzer failure: %d %s", w.Code, w.Body.String())
	}

	if w := get(r, "/api/mindmap"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/mindmap = %d, want 405", w.Code)
	}
}

func TestAnalysesAPI(t *testing.T) {
	r := setupRouter(t, Deps{})

	w := get(r, "/api/analyses?key="+url.QueryEscape(testKey))
	var got map[string]analysis.FileAnalysis
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got["src/users.go"].Branches) != 2 {
		t.Errorf("analyses = %+v", got)
	}

	w = get(r, "/api/analyses")
	var keys []cache.KeyInfo
	if err := json.NewDecoder(w.Body).Decode(&keys); err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0].Key != testKey {
		t.Errorf("keys = %+v", keys)
	}
}

func TestExportDownloads(t *testing.T) {
	r := setupRouter(t, Deps{})
	q := "?file=src/users.go&key=" + url.QueryEscape(testKey)

	w := get(r, "/mindmap/export.png"+q)
	if w.Code != http.StatusOK || w.Body.String() != "PNG:src/users.go" {
		t.Errorf("png: %d %q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "src/users.go-mindmap.png") {
		t.Errorf("png Content-Disposition = %q", cd)
	}

	w = get(r, "/mindmap/export.svg"+q)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "<svg") {
		t.Errorf("svg: %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "-mindmap.svg") {
		t.Errorf("svg Content-Disposition = %q", cd)
	}

	w = get(r, "/mindmap/export.mmd"+q)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "mindmap\n") {
		t.Errorf("mermaid: %d %q", w.Code, w.Body.String())
	}

	if w := get(r, "/mindmap/export.png?file=missing.go"); w.Code != http.StatusNotFound {
		t.Errorf("missing file export = %d, want 404", w.Code)
	}
}

func TestExportPNGFailure(t *testing.T) {
	r := setupRouter(t, Deps{Strategies: []export.Strategy{pngStrategy{err: errors.New("a")}, pngStrategy{err: errors.New("b")}}})
	w := get(r, "/mindmap/export.png?file=src/users.go&key="+url.QueryEscape(testKey))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), export.MsgFailure) {
		t.Errorf("status = %d body = %q", w.Code, w.Body.String())
	}
}

func TestExportSocket(t *testing.T) {
	srv := httptest.NewServer(setupRouter(t, Deps{}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/export"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(exportRequest{Type: "export", File: "src/users.go", Key: testKey}); err != nil {
		t.Fatal(err)
	}

	var types []string
	var download string
	for download == "" {
		var m exportMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v (got %v)", err, types)
		}
		types = append(types, m.Type)
		if m.Type == "download" {
			download = m.URL
		}
	}
	want := []string{"loading", "success", "dismiss", "download"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("messages = %v, want %v", types, want)
	}

	resp, err := http.Get(srv.URL + download)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(data) != "PNG:src/users.go" {
		t.Errorf("artifact: %d %q", resp.StatusCode, data)
	}
}

func TestExportSocketUnknownFile(t *testing.T) {
	srv := httptest.NewServer(setupRouter(t, Deps{}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/export", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteJSON(exportRequest{Type: "export", File: "missing.go"})
	var m exportMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatal(err)
	}
	if m.Type != "error" {
		t.Errorf("message = %+v, want an error", m)
	}
}

func TestAuditTrail(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	trail := audit.NewStore(database)

	post := func(r http.Handler, issueURL string) {
		form := url.Values{"url": {issueURL}}
		req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	ok := setupRouter(t, Deps{Pipeline: fakeRunner{}, Audit: trail})
	post(ok, "https://github.com/acme/api/issues/9")
	failing := setupRouter(t, Deps{Pipeline: fakeRunner{err: github.ErrInvalidURL}, Audit: trail})
	post(failing, "ftp://x")

	if w := get(ok, "/mindmap/export.png?key="+url.QueryEscape(testKey)+"&file=src/users.go"); w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}

	w := get(ok, "/api/audit")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/audit = %d", w.Code)
	}
	var entries []audit.Entry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	counts := map[audit.Outcome]int{}
	actions := map[audit.Action]int{}
	for _, e := range entries {
		counts[e.Outcome]++
		actions[e.Action]++
	}
	if len(entries) != 3 || actions[audit.ActionAnalyze] != 2 || actions[audit.ActionExport] != 1 {
		t.Errorf("entries = %+v", entries)
	}
	if counts[audit.OutcomeFailure] != 1 || counts[audit.OutcomeSuccess] != 2 {
		t.Errorf("outcomes = %v", counts)
	}
}
