// Package render draws road graphs as Graphviz diagrams.
//
// [ToDOT] produces an undirected DOT graph. Edges of a weighted graph are
// tinted from green (safe) to red (risky); routes passed in
// [Options.Routes] are drawn on top in their own colors. [RenderSVG] lays the
// DOT source out with the embedded Graphviz build from go-graphviz, so no
// system Graphviz install is needed.
//
//	dot := render.ToDOT(g, render.Options{Routes: []render.Highlight{
//	    {Label: "safest", Edges: path.EdgeIDs()},
//	}})
//	svg, err := render.RenderSVG(ctx, dot)
package render
