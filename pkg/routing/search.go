package routing

import (
	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// Request is a path search query.
type Request struct {
	Source string `json:"source"`
	Target string `json:"target"`
	K      int    `json:"k,omitempty"` // number of alternatives; 0 or 1 means single best
	Options
}

// Search runs a single-best or k-alternatives search depending on req.K and
// returns ranked paths, best first.
func Search(g *graph.Graph, req Request) ([]*Path, error) {
	const op = "routing.Search"
	if req.K < 0 {
		return nil, errors.Configuration(op, "k must be at least 1, got %d", req.K)
	}
	k := max(req.K, 1)
	o := req.Options
	o.SetDefaults()
	base, err := prepare(op, g, req.Source, req.Target, o)
	if err != nil {
		return nil, err
	}
	if k == 1 {
		p, ok := base.shortest(req.Source, req.Target)
		if !ok {
			return nil, errors.NoPath(op, req.Source, req.Target)
		}
		p.Rank = 1
		return []*Path{p}, nil
	}
	return yen(op, base, req.Source, req.Target, k)
}
