package routing

import (
	"strings"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// Aggregation selects how per-edge weights combine into a path total.
type Aggregation string

const (
	// AggregateSum adds the weights; longer routes accumulate more risk.
	AggregateSum Aggregation = "sum"
	// AggregatePerMeter is the distance-weighted mean weight.
	AggregatePerMeter Aggregation = "per_meter"
)

// ParseAggregation resolves an aggregation name; empty means sum.
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(strings.ToLower(strings.TrimSpace(s))) {
	case "", AggregateSum:
		return AggregateSum, nil
	case AggregatePerMeter, "mean", "per-meter":
		return AggregatePerMeter, nil
	}
	return "", errors.Configuration("routing.ParseAggregation", "unknown aggregation %q", s)
}

// Summary holds the totals of a resolved node sequence.
type Summary struct {
	Nodes       []string    `json:"nodes"`
	Steps       []Step      `json:"steps"`
	Distance    float64     `json:"distance_m"`
	Safety      float64     `json:"safety"`
	Aggregation Aggregation `json:"aggregation"`
}

// Aggregate walks nodes and recomputes total distance and safety for it.
// Between parallel edges the lowest weight wins, then the shortest, then the
// smallest id. Step costs are zero. A hop without a connecting edge fails
// with BROKEN_PATH.
func Aggregate(g *graph.Graph, nodes []string, agg Aggregation) (*Summary, error) {
	const op = "routing.Aggregate"
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, op, "graph is nil")
	}
	if len(nodes) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, op, "node sequence needs at least two ids, got %d", len(nodes))
	}
	agg, err := resolveAggregation(op, agg)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(nodes)-1)
	for i := 0; i+1 < len(nodes); i++ {
		from, to := nodes[i], nodes[i+1]
		e := pickEdge(g.EdgesBetween(from, to))
		if e == nil {
			return nil, errors.BrokenPath(op, from, to)
		}
		w, _ := e.Weight()
		steps = append(steps, Step{EdgeID: e.ID, From: from, To: to, Distance: e.Distance, Weight: w})
	}
	return summarize(append([]string(nil), nodes...), steps, agg), nil
}

// Summarize totals a search result over the edges it actually traversed, so
// parallel edges never substitute for the chosen one.
func Summarize(p *Path, agg Aggregation) (*Summary, error) {
	const op = "routing.Summarize"
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, op, "path is nil")
	}
	agg, err := resolveAggregation(op, agg)
	if err != nil {
		return nil, err
	}
	if len(p.Nodes) != len(p.Steps)+1 {
		return nil, errors.New(errors.ErrCodeBrokenPath, op, "path has %d nodes for %d steps", len(p.Nodes), len(p.Steps))
	}
	for i, st := range p.Steps {
		if st.From != p.Nodes[i] || st.To != p.Nodes[i+1] {
			return nil, errors.BrokenPath(op, p.Nodes[i], p.Nodes[i+1])
		}
	}
	return summarize(append([]string(nil), p.Nodes...), append([]Step(nil), p.Steps...), agg), nil
}

func resolveAggregation(op string, agg Aggregation) (Aggregation, error) {
	switch agg {
	case "":
		return AggregateSum, nil
	case AggregateSum, AggregatePerMeter:
		return agg, nil
	}
	return "", errors.Configuration(op, "unknown aggregation %q", agg)
}

func summarize(nodes []string, steps []Step, agg Aggregation) *Summary {
	s := &Summary{Nodes: nodes, Steps: steps, Aggregation: agg}
	var weightSum, weighted float64
	for _, st := range steps {
		s.Distance += st.Distance
		weightSum += st.Weight
		weighted += st.Weight * st.Distance
	}
	switch {
	case agg == AggregateSum:
		s.Safety = weightSum
	case s.Distance > 0:
		s.Safety = weighted / s.Distance
	case len(steps) > 0:
		s.Safety = weightSum / float64(len(steps))
	}
	return s
}

func pickEdge(edges []*graph.Edge) *graph.Edge {
	var best *graph.Edge
	var bw float64
	for _, e := range edges {
		if e.U == e.V {
			continue
		}
		w, _ := e.Weight()
		if best == nil || w < bw ||
			(w == bw && (e.Distance < best.Distance || (e.Distance == best.Distance && e.ID < best.ID))) {
			best, bw = e, w
		}
	}
	return best
}
