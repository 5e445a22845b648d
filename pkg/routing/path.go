package routing

import (
	"slices"
	"strings"
)

// Step is one traversed edge of a path, in travel direction.
type Step struct {
	EdgeID   string  `json:"edge_id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Distance float64 `json:"distance_m"`
	Weight   float64 `json:"weight"` // safety weight, 0 on an unweighted graph
	Cost     float64 `json:"cost"`   // cost under the search basis
}

// Path is one ranked search result. Paths are created fresh per search and
// never modified afterwards.
type Path struct {
	Rank     int      `json:"rank"`
	Nodes    []string `json:"nodes"`
	Steps    []Step   `json:"steps"`
	Distance float64  `json:"distance_m"` // sum of step distances
	Safety   float64  `json:"safety"`     // sum of step weights
	Cost     float64  `json:"cost"`       // sum of step costs
}

// Hops returns the number of edges in the path.
func (p *Path) Hops() int { return len(p.Steps) }

// EdgeIDs returns the traversed edge ids in order.
func (p *Path) EdgeIDs() []string {
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.EdgeID
	}
	return ids
}

// String renders the node sequence as "A -> B -> C".
func (p *Path) String() string { return strings.Join(p.Nodes, " -> ") }

// key identifies a path by its node sequence.
func (p *Path) key() string { return strings.Join(p.Nodes, "\x00") }

// newPath builds a path from a start node and its steps, summing totals in
// step order.
func newPath(start string, steps []Step) *Path {
	p := &Path{
		Nodes: make([]string, 0, len(steps)+1),
		Steps: steps,
	}
	p.Nodes = append(p.Nodes, start)
	for _, s := range steps {
		p.Nodes = append(p.Nodes, s.To)
		p.Distance += s.Distance
		p.Safety += s.Weight
		p.Cost += s.Cost
	}
	return p
}

// comparePaths orders paths by cost (within Epsilon), then hop count, then
// node sequence, then edge ids.
func comparePaths(a, b *Path) int {
	if c := compareCost(a.Cost, b.Cost); c != 0 {
		return c
	}
	return compareTail(a.Nodes, b.Nodes, a.Steps, b.Steps)
}

func compareCost(a, b float64) int {
	switch {
	case a < b-Epsilon:
		return -1
	case a > b+Epsilon:
		return 1
	}
	return 0
}

func compareTail(an, bn []string, as, bs []Step) int {
	if c := len(an) - len(bn); c != 0 {
		if c < 0 {
			return -1
		}
		return 1
	}
	if c := slices.Compare(an, bn); c != 0 {
		return c
	}
	return slices.CompareFunc(as, bs, func(x, y Step) int { return strings.Compare(x.EdgeID, y.EdgeID) })
}
