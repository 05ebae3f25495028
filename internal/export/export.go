// Package export rasterizes mind maps to PNG. Strategies are tried in order
// until one produces an image, which the sink then stores.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/mindmap"
)

// ErrExportFailed is returned when every strategy failed.
var ErrExportFailed = errors.New("export failed")

// User-facing notification texts.
const (
	MsgLoading  = "Exporting mindmap..."
	MsgRetrying = "Trying alternative export method..."
	MsgSuccess  = "Mindmap exported successfully!"
	MsgFallback = "Mindmap exported with fallback method!"
	MsgFailure  = "Export failed. Try using a browser screenshot instead."
)

// Options controls rasterization.
type Options struct {
	// Scale multiplies the output dimensions; content is scaled to match.
	Scale      float64
	Background string
	// Timeout bounds each strategy attempt. Zero means no limit.
	Timeout time.Duration
}

// DefaultOptions returns 2x output on the dark mind map background.
func DefaultOptions() Options {
	return Options{Scale: 2, Background: mindmap.Background, Timeout: 30 * time.Second}
}

// Target is the mind map to export. Document is the standalone HTML page for
// browser-based strategies; Layout is the geometry for drawing strategies.
type Target struct {
	FileName string
	Layout   mindmap.Layout
	Document []byte
}

// NewTarget lays out a and renders its standalone document.
func NewTarget(fileName string, a *analysis.FileAnalysis) (Target, error) {
	var doc bytes.Buffer
	if err := mindmap.RenderDocument(&doc, fileName, a); err != nil {
		return Target{}, fmt.Errorf("render document: %w", err)
	}
	return Target{
		FileName: fileName,
		Layout:   mindmap.NewLayout(fileName, a, mindmap.DefaultWidth),
		Document: doc.Bytes(),
	}, nil
}

// Strategy turns a target into PNG bytes.
type Strategy interface {
	Name() string
	Rasterize(ctx context.Context, t Target, opts Options) ([]byte, error)
}

// Sink stores an exported image and returns where it went.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Notifier surfaces export progress to the user.
type Notifier interface {
	Loading(msg string) Handle
	Success(msg string)
	Failure(msg string)
}

// Handle is a live loading notification.
type Handle interface {
	Update(msg string)
	Dismiss()
}

// Exporter runs strategies in order.
type Exporter struct {
	strategies []Strategy
	sink       Sink
	notifier   Notifier
	opts       Options
}

// New creates an Exporter. The first strategy is the primary one.
func New(sink Sink, notifier Notifier, opts Options, strategies ...Strategy) *Exporter {
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	if opts.Background == "" {
		opts.Background = mindmap.Background
	}
	return &Exporter{strategies: strategies, sink: sink, notifier: notifier, opts: opts}
}

// Export rasterizes t and saves it under FileName(t.FileName). It returns the
// location reported by the sink. Exactly one success or failure notification
// is emitted, and the loading notification is always dismissed.
func (e *Exporter) Export(ctx context.Context, t Target) (string, error) {
	loading := e.notifier.Loading(MsgLoading)
	defer loading.Dismiss()

	name := FileName(t.FileName)
	var errs []error
	for i, s := range e.strategies {
		if i > 0 {
			loading.Update(MsgRetrying)
		}

		data, err := e.rasterize(ctx, s, t)
		if err != nil {
			slog.Warn("export strategy failed", "strategy", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}

		// The image exists; a failed save ends the export.
		location, err := e.sink.Save(ctx, name, data)
		if err != nil {
			e.notifier.Failure(MsgFailure)
			return "", errors.Join(ErrExportFailed, fmt.Errorf("save %s: %w", name, err))
		}
		if i == 0 {
			e.notifier.Success(MsgSuccess)
		} else {
			e.notifier.Success(MsgFallback)
		}
		slog.Info("mind map exported", "file", t.FileName, "strategy", s.Name(), "location", location)
		return location, nil
	}

	e.notifier.Failure(MsgFailure)
	return "", errors.Join(append([]error{ErrExportFailed}, errs...)...)
}

func (e *Exporter) rasterize(ctx context.Context, s Strategy, t Target) ([]byte, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	data, err := s.Rasterize(ctx, t, e.opts)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName returns the download name of a mind map: whitespace runs become
// hyphens, the result is lower-cased and suffixed with -mindmap.png.
func FileName(name string) string {
	return strings.ToLower(whitespace.ReplaceAllString(name, "-")) + "-mindmap.png"
}
