package cache

import "slices"

// Keyer derives cache keys for the stages of a route query.
type Keyer interface {
	// WeightsKey identifies the edge weights of a graph for one scoring key.
	WeightsKey(graphHash string, opts WeightsKeyOpts) string
	// RouteKey identifies a ranked route result.
	RouteKey(graphHash string, opts RouteKeyOpts) string
}

// WeightsKeyOpts lists every input that changes derived edge weights.
type WeightsKeyOpts struct {
	Mode      string `json:"mode"`
	Time      string `json:"time"`
	Profile   string `json:"profile"`
	Overrides string `json:"overrides,omitempty"`
}

// RouteKeyOpts lists every input that changes a route result.
type RouteKeyOpts struct {
	WeightsKeyOpts
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	K           int      `json:"k"`
	Basis       string   `json:"basis"`
	Blend       float64  `json:"blend"`
	DistanceCap float64  `json:"distance_cap"`
	Forbidden   []string `json:"forbidden,omitempty"`
	Aggregation string   `json:"aggregation"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// WeightsKey returns "weights:<hash>".
func (DefaultKeyer) WeightsKey(graphHash string, opts WeightsKeyOpts) string {
	return hashKey("weights", graphHash, opts)
}

// RouteKey returns "route:<hash>". Forbidden nodes are order-insensitive.
func (DefaultKeyer) RouteKey(graphHash string, opts RouteKeyOpts) string {
	opts.Forbidden = slices.Clone(opts.Forbidden)
	slices.Sort(opts.Forbidden)
	opts.Forbidden = slices.Compact(opts.Forbidden)
	return hashKey("route", graphHash, opts)
}

var _ Keyer = DefaultKeyer{}
