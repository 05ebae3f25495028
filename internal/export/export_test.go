package export

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/mindmap"
)

type fakeStrategy struct {
	name  string
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Rasterize(ctx context.Context, t Target, opts Options) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + f.name), nil
}

type recordingSink struct {
	mu    sync.Mutex
	names []string
	data  [][]byte
	err   error
}

func (s *recordingSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.names = append(s.names, name)
	s.data = append(s.data, data)
	return "saved/" + name, nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Loading(msg string) Handle {
	n.events = append(n.events, "loading:"+msg)
	return &recordingHandle{n}
}

func (n *recordingNotifier) Success(msg string) { n.events = append(n.events, "success:"+msg) }
func (n *recordingNotifier) Failure(msg string) { n.events = append(n.events, "failure:"+msg) }

type recordingHandle struct{ n *recordingNotifier }

func (h *recordingHandle) Update(msg string) { h.n.events = append(h.n.events, "update:"+msg) }
func (h *recordingHandle) Dismiss()          { h.n.events = append(h.n.events, "dismiss") }

func (n *recordingNotifier) count(prefix string) int {
	c := 0
	for _, e := range n.events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			c++
		}
	}
	return c
}

func target() Target {
	a := &analysis.FileAnalysis{Overview: "x", Branches: []analysis.Branch{{Name: "Endpoints", SubBranches: []string{"GET /", "POST /"}}}}
	return Target{FileName: "My File.ts", Layout: mindmap.NewLayout("My File.ts", a, 600), Document: []byte("<html></html>")}
}

func TestExportPrimarySucceeds(t *testing.T) {
	primary := &fakeStrategy{name: "primary"}
	fallback := &fakeStrategy{name: "fallback"}
	sink := &recordingSink{}
	n := &recordingNotifier{}

	loc, err := New(sink, n, DefaultOptions(), primary, fallback).Export(context.Background(), target())
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if loc != "saved/my-file.ts-mindmap.png" {
		t.Errorf("location = %q", loc)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
	want := []string{"loading:" + MsgLoading, "success:" + MsgSuccess, "dismiss"}
	if len(n.events) != len(want) {
		t.Fatalf("events = %v, want %v", n.events, want)
	}
	for i := range want {
		if n.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, n.events[i], want[i])
		}
	}
}

func TestExportFallsBackOnce(t *testing.T) {
	primary := &fakeStrategy{name: "primary", err: errors.New("no chrome")}
	fallback := &fakeStrategy{name: "fallback"}
	sink := &recordingSink{}
	n := &recordingNotifier{}

	if _, err := New(sink, n, DefaultOptions(), primary, fallback).Export(context.Background(), target()); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
	if len(sink.names) != 1 || sink.names[0] != "my-file.ts-mindmap.png" {
		t.Errorf("saved names = %v", sink.names)
	}
	if string(sink.data[0]) != "png:fallback" {
		t.Errorf("saved data = %q", sink.data[0])
	}
	if n.count("update:"+MsgRetrying) != 1 {
		t.Errorf("events = %v, want one retry update", n.events)
	}
	if n.count("success:"+MsgFallback) != 1 || n.count("failure:") != 0 {
		t.Errorf("events = %v, want a single fallback success", n.events)
	}
	if n.events[len(n.events)-1] != "dismiss" {
		t.Errorf("loading should be dismissed last, events = %v", n.events)
	}
}

func TestExportExhausted(t *testing.T) {
	errA := errors.New("no chrome")
	errB := errors.New("no canvas")
	n := &recordingNotifier{}

	_, err := New(&recordingSink{}, n, DefaultOptions(),
		&fakeStrategy{name: "a", err: errA}, &fakeStrategy{name: "b", err: errB}).
		Export(context.Background(), target())

	if !errors.Is(err, ErrExportFailed) || !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("error = %v, want ErrExportFailed joined with both causes", err)
	}
	if n.count("failure:"+MsgFailure) != 1 || n.count("success:") != 0 {
		t.Errorf("events = %v, want a single failure", n.events)
	}
	if n.count("dismiss") != 1 {
		t.Errorf("loading should be dismissed once, events = %v", n.events)
	}
}

func TestExportSinkFailureIsFinal(t *testing.T) {
	primary := &fakeStrategy{name: "primary"}
	fallback := &fakeStrategy{name: "fallback"}
	sink := &recordingSink{err: errors.New("disk full")}
	n := &recordingNotifier{}

	_, err := New(sink, n, DefaultOptions(), primary, fallback).Export(context.Background(), target())
	if !errors.Is(err, ErrExportFailed) {
		t.Fatalf("error = %v, want ErrExportFailed", err)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback calls = %d, want 0 after a save failure", fallback.calls)
	}
	if n.count("failure:") != 1 || n.count("success:") != 0 || n.count("dismiss") != 1 {
		t.Errorf("events = %v", n.events)
	}
	if n.count("update:") != 0 {
		t.Errorf("retry message shown after a save failure: %v", n.events)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"My File.ts":        "my-file.ts-mindmap.png",
		"src/api/Routes.js": "src/api/routes.js-mindmap.png",
		"a  \t b":           "a-b-mindmap.png",
		"plain":             "plain-mindmap.png",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanvasStrategy(t *testing.T) {
	tgt := target()
	data, err := CanvasStrategy{}.Rasterize(context.Background(), tgt, DefaultOptions())
	if err != nil {
		t.Fatalf("Rasterize() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != int(tgt.Layout.Width*2) || b.Dy() != int(tgt.Layout.Height*2) {
		t.Errorf("size = %dx%d, want twice %vx%v", b.Dx(), b.Dy(), tgt.Layout.Width, tgt.Layout.Height)
	}
	r, g, bl, _ := img.At(1, 1).RGBA()
	if r>>8 != 0x0f || g>>8 != 0x0f || bl>>8 != 0x0f {
		t.Errorf("corner pixel = %x %x %x, want the #0f0f0f background", r>>8, g>>8, bl>>8)
	}
}

func TestCanvasStrategyEmptyLayout(t *testing.T) {
	if _, err := (CanvasStrategy{}).Rasterize(context.Background(), Target{}, DefaultOptions()); err == nil {
		t.Error("expected an error for an empty layout")
	}
}

func TestChromeStrategyMissingBinary(t *testing.T) {
	s := &ChromeStrategy{ExecPath: filepath.Join(t.TempDir(), "no-such-chrome")}
	if _, err := s.Rasterize(context.Background(), target(), DefaultOptions()); err == nil {
		t.Error("expected an error when Chrome cannot start")
	}
}

func TestDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := DirSink{Dir: dir}.Save(context.Background(), "a-mindmap.png", []byte("img"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "img" {
		t.Errorf("ReadFile(%s) = %q, %v", path, data, err)
	}

	nested, err := DirSink{Dir: dir}.Save(context.Background(), "src/api/routes.js-mindmap.png", []byte("img"))
	if err != nil {
		t.Fatalf("Save() nested error: %v", err)
	}
	if want := filepath.Join(dir, "src", "api", "routes.js-mindmap.png"); nested != want {
		t.Errorf("nested path = %q, want %q", nested, want)
	}

	if _, err := (DirSink{Dir: dir}).Save(context.Background(), "../escape.png", []byte("x")); err == nil {
		t.Error("expected an error for a name outside the directory")
	}
}

func TestMemorySinkEvictsOldest(t *testing.T) {
	s := NewMemorySink(2)
	ctx := context.Background()
	first, _ := s.Save(ctx, "1.png", []byte("1"))
	second, _ := s.Save(ctx, "2.png", []byte("2"))
	third, _ := s.Save(ctx, "3.png", []byte("3"))

	if _, ok := s.Get(first); ok {
		t.Error("oldest artifact should be evicted")
	}
	for _, id := range []string{second, third} {
		if _, ok := s.Get(id); !ok {
			t.Errorf("artifact %s missing", id)
		}
	}
	a, _ := s.Get(third)
	if a.Name != "3.png" || string(a.Data) != "3" {
		t.Errorf("artifact = %+v", a)
	}
}

func TestNewTarget(t *testing.T) {
	a := &analysis.FileAnalysis{Overview: "Routes.", Branches: []analysis.Branch{{Name: "Endpoints", SubBranches: []string{"GET /"}}}}
	tg, err := NewTarget("routes.js", a)
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	if tg.FileName != "routes.js" {
		t.Errorf("FileName = %q", tg.FileName)
	}
	if !bytes.Contains(tg.Document, []byte(`id="mindmap"`)) {
		t.Errorf("document lacks the mindmap element:\n%s", tg.Document)
	}
	if len(tg.Layout.Nodes) != 3 {
		t.Errorf("layout nodes = %d, want root, branch and leaf", len(tg.Layout.Nodes))
	}
}
