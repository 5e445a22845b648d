package render

import (
	"context"
	"strings"
	"testing"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range []graph.Node{{ID: "A", Name: "Gate"}, {ID: "B"}, {ID: "C"}} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []graph.Edge{
		{ID: "ab", U: "A", V: "B", Distance: 120},
		{ID: "bc", U: "B", V: "C", Distance: 80},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{})

	if !strings.HasPrefix(dot, "graph G {") {
		t.Error("ToDOT() output missing graph declaration")
	}
	if !strings.Contains(dot, `"A" [label="Gate"]`) {
		t.Errorf("ToDOT() should label nodes by display name:\n%s", dot)
	}
	if !strings.Contains(dot, `"A" -- "B"`) {
		t.Error("ToDOT() output missing undirected edge")
	}
	if strings.Contains(dot, "penwidth") || strings.Contains(dot, "legend") {
		t.Error("no routes means no highlighting")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	g := testGraph(t)
	if err := g.ApplyWeights(graph.WeightKey{Mode: "walking", Time: "day"},
		map[string]float64{"ab": 0.25, "bc": 1}); err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g, Options{Detailed: true})

	if !strings.Contains(dot, `label="120m\n0.250"`) {
		t.Errorf("detailed edge label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `color="#ff0040"`) {
		t.Errorf("weight 1 should be drawn red:\n%s", dot)
	}
}

func TestToDOT_Routes(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Routes: []Highlight{
		{Label: "safest", Edges: []string{"ab", "bc"}},
		{Label: "a <b>", Edges: []string{"bc"}, Color: "red"},
	}})

	if !strings.Contains(dot, `"A" -- "B" [tooltip="ab", color="#1f77b4", penwidth=4]`) {
		t.Errorf("first route should use the first palette color:\n%s", dot)
	}
	if !strings.Contains(dot, `"B" -- "C" [tooltip="bc", color="red", penwidth=4]`) {
		t.Errorf("later route should win on shared edges:\n%s", dot)
	}
	if !strings.Contains(dot, "a &lt;b&gt;") {
		t.Error("legend labels must be escaped")
	}
	if !strings.Contains(dot, `"C" [label="C", penwidth=2]`) {
		t.Error("route nodes should be emphasized")
	}
}

func TestHeat(t *testing.T) {
	tests := []struct {
		w    float64
		want string
	}{
		{0, "#00c840"},
		{1, "#ff0040"},
		{-3, "#00c840"},
		{7, "#ff0040"},
	}
	for _, tt := range tests {
		if got := heat(tt.w); got != tt.want {
			t.Errorf("heat(%v) = %s, want %s", tt.w, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Routes: []Highlight{{Label: "best", Edges: []string{"ab"}}}})
	svg, err := RenderSVG(context.Background(), dot)
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
