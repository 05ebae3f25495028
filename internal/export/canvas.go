package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fogleman/gg"

	"github.com/issuewiz/graphix/internal/mindmap"
)

// CanvasStrategy draws the layout onto an off-screen surface. It needs no
// browser, so it serves as the fallback.
type CanvasStrategy struct{}

func (CanvasStrategy) Name() string { return "canvas" }

func (CanvasStrategy) Rasterize(ctx context.Context, t Target, opts Options) ([]byte, error) {
	l := t.Layout
	if len(l.Nodes) == 0 {
		return nil, fmt.Errorf("empty layout")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(int(l.Width*opts.Scale), int(l.Height*opts.Scale))
	dc.SetHexColor(opts.Background)
	dc.Clear()
	dc.Scale(opts.Scale, opts.Scale)

	dc.SetHexColor(mindmap.EdgeColor)
	dc.SetLineWidth(1.5)
	for _, e := range l.Edges {
		x1, y1, x2, y2 := mindmap.Connector(l.Nodes[e.From], l.Nodes[e.To])
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	for _, n := range l.Nodes {
		s := mindmap.Styles[n.Kind]
		dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, mindmap.Radius)
		dc.SetHexColor(s.Fill)
		dc.FillPreserve()
		dc.SetHexColor(s.Stroke)
		dc.SetLineWidth(1)
		dc.Stroke()

		cx, cy := n.Center()
		dc.SetHexColor(s.Text)
		dc.DrawStringAnchored(mindmap.Fit(n.Label, n.W), cx, cy, 0.5, 0.35)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
