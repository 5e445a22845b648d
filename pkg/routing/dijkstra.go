package routing

import (
	"container/heap"
	"slices"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// ShortestPath returns the minimum-cost path from src to dst under the
// configured basis.
//
// Ties within Epsilon are broken by fewer hops, then by the lexicographically
// smaller node sequence. src == dst yields a zero-length path. Unreachable
// targets (including after forbidden-node removal) fail with NO_PATH.
//
// Complexity: O((V + E) log E) with lazy decrease-key.
func ShortestPath(g *graph.Graph, src, dst string, opts ...Option) (*Path, error) {
	const op = "routing.ShortestPath"
	o := buildOptions(opts)
	v, err := prepare(op, g, src, dst, o)
	if err != nil {
		return nil, err
	}
	p, ok := v.shortest(src, dst)
	if !ok {
		return nil, errors.NoPath(op, src, dst)
	}
	p.Rank = 1
	return p, nil
}

// prepare validates a query and builds the base view.
func prepare(op string, g *graph.Graph, src, dst string, o Options) (*view, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, op, "graph is nil")
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if !g.HasNode(src) {
		return nil, errors.NotFound(op, "node", src)
	}
	if !g.HasNode(dst) {
		return nil, errors.NotFound(op, "node", dst)
	}
	if o.Basis.NeedsWeights() && !g.Weighted() {
		return nil, errors.Configuration(op, "basis %q needs safety weights; apply weights to the graph first", o.Basis)
	}
	v := newView(g, o)
	if v.blockedNodes[src] || v.blockedNodes[dst] {
		return nil, errors.NoPath(op, src, dst)
	}
	return v, nil
}

// label is a partial path ending at node.
type label struct {
	node  string
	cost  float64
	nodes []string
	steps []Step
}

func (a *label) less(b *label) bool {
	if c := compareCost(a.cost, b.cost); c != 0 {
		return c < 0
	}
	return compareTail(a.nodes, b.nodes, a.steps, b.steps) < 0
}

// labelPQ implements heap.Interface as a min-heap of labels.
type labelPQ []*label

func (pq labelPQ) Len() int           { return len(pq) }
func (pq labelPQ) Less(i, j int) bool { return pq[i].less(pq[j]) }
func (pq labelPQ) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *labelPQ) Push(x any)        { *pq = append(*pq, x.(*label)) }
func (pq *labelPQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// shortest runs Dijkstra on the view. Each label carries its full node
// sequence so ties can be broken on it; stale heap entries are skipped.
func (v *view) shortest(src, dst string) (*Path, bool) {
	if v.blockedNodes[src] || v.blockedNodes[dst] {
		return nil, false
	}
	if src == dst {
		return newPath(src, nil), true
	}

	best := map[string]*label{src: {node: src, nodes: []string{src}}}
	settled := make(map[string]bool)
	pq := labelPQ{best[src]}
	heap.Init(&pq)

	for pq.Len() > 0 {
		cur := heap.Pop(&pq).(*label)
		if settled[cur.node] || best[cur.node] != cur {
			continue
		}
		settled[cur.node] = true
		if cur.node == dst {
			return newPath(src, cur.steps), true
		}

		for _, eid := range v.g.Incident(cur.node) {
			e, _ := v.g.Edge(eid)
			st, ok := v.step(e, cur.node)
			if !ok || settled[st.To] {
				continue
			}
			next := &label{
				node:  st.To,
				cost:  cur.cost + st.Cost,
				nodes: append(slices.Clip(cur.nodes), st.To),
				steps: append(slices.Clip(cur.steps), st),
			}
			if b, ok := best[st.To]; ok && !next.less(b) {
				continue
			}
			best[st.To] = next
			heap.Push(&pq, next)
		}
	}
	return nil, false
}
