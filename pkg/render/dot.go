package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed adds distance and weight to edge labels.
	Detailed bool
	// Routes are highlighted in order; a later route wins on shared edges.
	Routes []Highlight
}

// Highlight marks the edges of one route.
type Highlight struct {
	Label string
	Edges []string
	// Color is any Graphviz color; empty picks from the default palette.
	Color string
}

// Palette holds the default route colors.
var Palette = []string{"#1f77b4", "#9467bd", "#ff7f0e", "#17becf", "#e377c2"}

// ToDOT converts g to Graphviz DOT format. Nodes are listed in id order and
// edges in insertion order, so equal graphs give byte-identical output.
func ToDOT(g *graph.Graph, opts Options) string {
	routeOf := make(map[string]int)
	onRoute := make(map[string]bool)
	for i, h := range opts.Routes {
		for _, id := range h.Edges {
			routeOf[id] = i
			if e, ok := g.Edge(id); ok {
				onRoute[e.U], onRoute[e.V] = true, true
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", n.DisplayName())}
		if onRoute[n.ID] {
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := fmtEdgeAttrs(e, opts)
		if i, ok := routeOf[e.ID]; ok {
			attrs = append(attrs, fmt.Sprintf("color=%q", routeColor(opts.Routes[i], i)), "penwidth=4")
		} else if w, ok := e.Weight(); ok {
			attrs = append(attrs, fmt.Sprintf("color=%q", heat(w)))
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.U, e.V, strings.Join(attrs, ", "))
	}

	if len(opts.Routes) > 0 {
		buf.WriteString("\n")
		buf.WriteString(legend(opts.Routes))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtEdgeAttrs(e *graph.Edge, opts Options) []string {
	if !opts.Detailed {
		return []string{fmt.Sprintf("tooltip=%q", e.ID)}
	}
	label := fmt.Sprintf("%.0fm", e.Distance)
	if w, ok := e.Weight(); ok {
		label += fmt.Sprintf("\n%.3f", w)
	}
	return []string{fmt.Sprintf("label=%q", label), fmt.Sprintf("tooltip=%q", e.ID)}
}

func routeColor(h Highlight, i int) string {
	if h.Color != "" {
		return h.Color
	}
	return Palette[i%len(Palette)]
}

// heat maps a weight in [0,1] to a green-to-red hex color.
func heat(w float64) string {
	w = min(max(w, 0), 1)
	r := int(w * 255)
	g := int((1 - w) * 200)
	return fmt.Sprintf("#%02x%02x40", r, g)
}

func legend(routes []Highlight) string {
	var rows strings.Builder
	for i, h := range routes {
		label := h.Label
		if label == "" {
			label = fmt.Sprintf("route %d", i+1)
		}
		fmt.Fprintf(&rows, "<tr><td bgcolor=\"%s\">  </td><td align=\"left\">%s</td></tr>",
			routeColor(h, i), escapeHTML(label))
	}
	return fmt.Sprintf("  legend [shape=plaintext, style=\"\", label=<<table border=\"0\" cellspacing=\"2\">%s</table>>];\n", rows.String())
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeHTML(s string) string { return htmlEscaper.Replace(s) }
