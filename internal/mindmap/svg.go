package mindmap

import (
	"fmt"
	"html"
	"strings"
)

// Style is the paint of one node tier.
type Style struct {
	Fill, Stroke, Text string
}

// Styles holds the paint of each tier, shared by every raster and vector
// rendering so they match the HTML form.
var Styles = map[Kind]Style{
	KindRoot:   {Fill: "#7c3aed", Stroke: "#7c3aed", Text: "#ffffff"},
	KindBranch: {Fill: "#1e3a8a", Stroke: "#1e3a8a", Text: "#dbeafe"},
	KindLeaf:   {Fill: "#1f1f1f", Stroke: "#3f3f46", Text: "#e5e5e5"},
}

// EdgeColor is the stroke of connectors.
const EdgeColor = "#525252"

// Radius is the corner radius of node boxes.
const Radius = 6.0

// RenderSVG draws the layout as an SVG document.
func RenderSVG(l Layout, background string) string {
	if background == "" {
		background = Background
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)
	fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", html.EscapeString(background))

	for _, e := range l.Edges {
		x1, y1, x2, y2 := Connector(l.Nodes[e.From], l.Nodes[e.To])
		fmt.Fprintf(&b, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5"/>`+"\n",
			x1, y1, x2, y2, EdgeColor)
	}

	for _, n := range l.Nodes {
		s := Styles[n.Kind]
		fmt.Fprintf(&b, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s" stroke="%s"/>`+"\n",
			n.X, n.Y, n.W, n.H, Radius, s.Fill, s.Stroke)
		cx, cy := n.Center()
		fmt.Fprintf(&b, `  <text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="13" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
			cx, cy, s.Text, html.EscapeString(Fit(n.Label, n.W)))
	}
	b.WriteString("</svg>\n")
	return b.String()
}

// Connector returns the segment joining the bottom of parent to the top of
// child.
func Connector(parent, child Node) (x1, y1, x2, y2 float64) {
	x1, _ = parent.Center()
	x2, _ = child.Center()
	return x1, parent.Y + parent.H, x2, child.Y
}
