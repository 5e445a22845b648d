package routing

import (
	"math"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// view is a read-only window over a graph with some nodes and edges masked.
// Masks live only in the view; the graph is never modified.
type view struct {
	g            *graph.Graph
	opts         Options
	blockedNodes map[string]bool
	blockedEdges map[string]bool
}

func newView(g *graph.Graph, opts Options) *view {
	v := &view{
		g:            g,
		opts:         opts,
		blockedNodes: make(map[string]bool, len(opts.Forbidden)),
		blockedEdges: make(map[string]bool),
	}
	for _, id := range opts.Forbidden {
		v.blockedNodes[id] = true
	}
	return v
}

// scoped returns a child view that starts with the parent's masks. Masks
// added to the child do not affect the parent.
func (v *view) scoped() *view {
	c := &view{
		g:            v.g,
		opts:         v.opts,
		blockedNodes: make(map[string]bool, len(v.blockedNodes)),
		blockedEdges: make(map[string]bool, len(v.blockedEdges)),
	}
	for id := range v.blockedNodes {
		c.blockedNodes[id] = true
	}
	for id := range v.blockedEdges {
		c.blockedEdges[id] = true
	}
	return c
}

func (v *view) blockNode(id string) { v.blockedNodes[id] = true }

// blockBetween masks every edge joining a and b.
func (v *view) blockBetween(a, b string) {
	for _, e := range v.g.EdgesBetween(a, b) {
		v.blockedEdges[e.ID] = true
	}
}

// step returns the traversal of e leaving from, or false when e is masked,
// a self loop, or leads to a masked node.
func (v *view) step(e *graph.Edge, from string) (Step, bool) {
	if v.blockedEdges[e.ID] {
		return Step{}, false
	}
	to, ok := e.Other(from)
	if !ok || to == from || v.blockedNodes[to] {
		return Step{}, false
	}
	w, _ := e.Weight()
	return Step{
		EdgeID:   e.ID,
		From:     from,
		To:       to,
		Distance: e.Distance,
		Weight:   w,
		Cost:     edgeCost(v.opts, w, e.Distance),
	}, true
}

func edgeCost(o Options, weight, distance float64) float64 {
	switch o.Basis {
	case BasisDistance:
		return distance
	case BasisBlended:
		return weight + o.BlendValue()*math.Min(distance/o.DistanceCap, 1)
	default:
		return weight
	}
}
