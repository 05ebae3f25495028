// Package mindmap renders a file analysis as a three-tier mind map: the file
// at the root, one node per branch, and the sub-branches of each branch laid
// out in a grid beneath it.
package mindmap

import (
	"github.com/issuewiz/graphix/internal/analysis"
)

// MaxColumns caps the width of a sub-branch grid.
const MaxColumns = 3

// DefaultWidth is the canvas width used when the caller passes none.
const DefaultWidth = 1200.0

// Geometry, in CSS pixels, for a 13px monospace font.
const (
	charWidth   = 7.8
	nodeHeight  = 34.0
	nodePadX    = 14.0
	padding     = 32.0
	gap         = 16.0
	tierGap     = 40.0
	minLeaf     = 120.0
	maxLeaf     = 240.0
	maxBranch   = 320.0
	maxRootText = 560.0
)

// Columns returns the number of grid columns for n sub-branches.
func Columns(n int) int {
	if n <= 0 {
		return 0
	}
	return min(n, MaxColumns)
}

// Kind is the tier a node belongs to.
type Kind int

const (
	KindRoot Kind = iota
	KindBranch
	KindLeaf
)

// Rect is an axis-aligned box.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Node is one positioned box of the diagram.
type Node struct {
	Kind  Kind
	Label string
	Rect
}

// Edge connects two nodes by index into Layout.Nodes.
type Edge struct {
	From, To int
}

// Layout is the positioned geometry of a mind map. Nodes[0] is the root.
type Layout struct {
	Width, Height float64
	Nodes         []Node
	Edges         []Edge
}

type block struct {
	branch int
	leaves []int
	cols   int
	colW   float64
	w, h   float64
}

// NewLayout positions the nodes of a mind map. Branch blocks flow left to
// right and wrap into a new row when they would overflow width. The order of
// branches and sub-branches is never changed.
func NewLayout(fileName string, a *analysis.FileAnalysis, width float64) Layout {
	if width <= 0 {
		width = DefaultWidth
	}
	l := Layout{Width: width}

	rootW := textWidth(fileName, maxRootText) + 2*nodePadX
	l.Nodes = append(l.Nodes, Node{Kind: KindRoot, Label: fileName, Rect: Rect{W: rootW, H: nodeHeight}})

	var blocks []block
	if a != nil {
		for _, br := range a.Branches {
			b := block{cols: Columns(len(br.SubBranches))}
			b.branch = len(l.Nodes)
			branchW := textWidth(br.Name, maxBranch) + 2*nodePadX
			l.Nodes = append(l.Nodes, Node{Kind: KindBranch, Label: br.Name, Rect: Rect{W: branchW, H: nodeHeight}})
			l.Edges = append(l.Edges, Edge{From: 0, To: b.branch})

			b.colW = minLeaf
			for _, sub := range br.SubBranches {
				b.colW = max(b.colW, textWidth(sub, maxLeaf)+2*nodePadX)
			}
			for _, sub := range br.SubBranches {
				idx := len(l.Nodes)
				l.Nodes = append(l.Nodes, Node{Kind: KindLeaf, Label: sub, Rect: Rect{W: b.colW, H: nodeHeight}})
				l.Edges = append(l.Edges, Edge{From: b.branch, To: idx})
				b.leaves = append(b.leaves, idx)
			}

			b.w = branchW
			b.h = nodeHeight
			if b.cols > 0 {
				rows := (len(b.leaves) + b.cols - 1) / b.cols
				b.w = max(b.w, float64(b.cols)*b.colW+float64(b.cols-1)*gap)
				b.h += tierGap + float64(rows)*nodeHeight + float64(rows-1)*gap
			}
			blocks = append(blocks, b)
		}
	}

	for _, b := range blocks {
		l.Width = max(l.Width, b.w+2*padding)
	}
	l.Width = max(l.Width, rootW+2*padding)

	root := &l.Nodes[0]
	root.X = (l.Width - root.W) / 2
	root.Y = padding
	l.Height = root.Y + root.H + padding

	// Wrap blocks into rows, then center each row.
	y := root.Y + root.H + tierGap
	for start := 0; start < len(blocks); {
		end := start
		rowW, rowH := 0.0, 0.0
		for end < len(blocks) {
			w := blocks[end].w
			if end > start {
				w += gap
			}
			if end > start && rowW+w > l.Width-2*padding {
				break
			}
			rowW += w
			rowH = max(rowH, blocks[end].h)
			end++
		}

		x := (l.Width - rowW) / 2
		for _, b := range blocks[start:end] {
			l.place(b, x, y)
			x += b.w + gap
		}
		y += rowH + tierGap
		l.Height = y - tierGap + padding
		start = end
	}
	return l
}

func (l *Layout) place(b block, x, y float64) {
	br := &l.Nodes[b.branch]
	br.X = x + (b.w-br.W)/2
	br.Y = y
	if b.cols == 0 {
		return
	}
	gridW := float64(b.cols)*b.colW + float64(b.cols-1)*gap
	gx := x + (b.w-gridW)/2
	gy := y + nodeHeight + tierGap
	for i, idx := range b.leaves {
		col, row := i%b.cols, i/b.cols
		n := &l.Nodes[idx]
		n.X = gx + float64(col)*(b.colW+gap)
		n.Y = gy + float64(row)*(nodeHeight+gap)
	}
}

func textWidth(s string, limit float64) float64 {
	return min(float64(len([]rune(s)))*charWidth, limit)
}

// Fit shortens label with an ellipsis so it fits a node of width w.
func Fit(label string, w float64) string {
	n := int((w-2*nodePadX)/charWidth + 1e-6)
	r := []rune(label)
	if n <= 0 || len(r) <= n {
		return label
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
