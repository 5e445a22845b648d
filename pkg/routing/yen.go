package routing

import (
	"slices"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// KShortestPaths returns up to k loopless paths from src to dst in ascending
// cost order (Yen's algorithm). The first path equals ShortestPath's result.
// Fewer than k paths are returned when no more distinct simple paths exist.
//
// For each spur node of the most recently accepted path, the spur search
// runs on a scoped view that masks the root-path nodes before the spur and
// every edge from the spur to the next node of any accepted path sharing the
// same root. Candidates are deduplicated by node sequence.
func KShortestPaths(g *graph.Graph, src, dst string, k int, opts ...Option) ([]*Path, error) {
	const op = "routing.KShortestPaths"
	if k < 1 {
		return nil, errors.Configuration(op, "k must be at least 1, got %d", k)
	}
	o := buildOptions(opts)
	base, err := prepare(op, g, src, dst, o)
	if err != nil {
		return nil, err
	}
	return yen(op, base, src, dst, k)
}

func yen(op string, base *view, src, dst string, k int) ([]*Path, error) {
	first, ok := base.shortest(src, dst)
	if !ok {
		return nil, errors.NoPath(op, src, dst)
	}
	first.Rank = 1
	accepted := []*Path{first}
	seen := map[string]bool{first.key(): true}
	var pool []*Path

	for len(accepted) < k {
		last := accepted[len(accepted)-1]
		for i := 0; i < len(last.Nodes)-1; i++ {
			spur := last.Nodes[i]
			root := last.Nodes[:i+1]

			v := base.scoped()
			for _, p := range accepted {
				if len(p.Nodes) > i+1 && slices.Equal(p.Nodes[:i+1], root) {
					v.blockBetween(spur, p.Nodes[i+1])
				}
			}
			for _, n := range root[:i] {
				v.blockNode(n)
			}

			tail, ok := v.shortest(spur, dst)
			if !ok {
				continue
			}
			steps := make([]Step, 0, i+len(tail.Steps))
			steps = append(steps, last.Steps[:i]...)
			steps = append(steps, tail.Steps...)
			cand := newPath(src, steps)
			if seen[cand.key()] {
				continue
			}
			seen[cand.key()] = true
			pool = append(pool, cand)
		}

		if len(pool) == 0 {
			break
		}
		idx := 0
		for j := 1; j < len(pool); j++ {
			if comparePaths(pool[j], pool[idx]) < 0 {
				idx = j
			}
		}
		next := pool[idx]
		pool = slices.Delete(pool, idx, idx+1)
		next.Rank = len(accepted) + 1
		accepted = append(accepted, next)
	}
	return accepted, nil
}
