package routing

import (
	"strings"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
)

// Basis selects the per-edge cost the search minimizes.
type Basis string

const (
	// BasisSafety uses the edge's derived safety weight.
	BasisSafety Basis = "safety"
	// BasisDistance uses the edge's physical length in metres.
	BasisDistance Basis = "distance"
	// BasisBlended uses weight + Blend * min(distance/DistanceCap, 1).
	BasisBlended Basis = "blended"
)

const (
	// DefaultBlend is the distance share of the blended cost.
	DefaultBlend = 1.0
	// DefaultDistanceCap is the length in metres at which the blended
	// distance term saturates.
	DefaultDistanceCap = 2000.0
	// Epsilon is the tolerance under which two path costs are equal.
	Epsilon = 1e-9
)

// ParseBasis resolves a basis name. "shortest", "safest" and "balanced" are
// accepted as aliases.
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "safety", "safest":
		return BasisSafety, nil
	case "distance", "shortest":
		return BasisDistance, nil
	case "blended", "balanced":
		return BasisBlended, nil
	}
	return "", errors.Configuration("routing.ParseBasis", "unknown cost basis %q", s)
}

// NeedsWeights reports whether the basis reads derived safety weights.
func (b Basis) NeedsWeights() bool { return b != BasisDistance }

// Options configures a search.
type Options struct {
	Basis       Basis    `json:"basis,omitempty"`
	Blend       *float64 `json:"blend,omitempty"`        // nil means DefaultBlend; 0 ignores distance
	DistanceCap float64  `json:"distance_cap,omitempty"` // zero means DefaultDistanceCap
	Forbidden   []string `json:"forbidden,omitempty"`    // node ids excluded from the search
}

// Option represents a functional option for configuring a search.
type Option func(*Options)

// WithBasis sets the cost basis.
func WithBasis(b Basis) Option {
	return func(o *Options) { o.Basis = b }
}

// WithBlend sets the distance share of the blended cost.
func WithBlend(x float64) Option {
	return func(o *Options) { o.Blend = &x }
}

// WithDistanceCap sets the saturation length of the blended distance term.
func WithDistanceCap(m float64) Option {
	return func(o *Options) { o.DistanceCap = m }
}

// WithForbidden excludes nodes from the search graph.
func WithForbidden(ids ...string) Option {
	return func(o *Options) { o.Forbidden = append(o.Forbidden, ids...) }
}

// DefaultOptions returns safety-basis options with default blend settings.
func DefaultOptions() Options {
	o := Options{Basis: BasisSafety}
	o.SetDefaults()
	return o
}

// SetDefaults fills unset fields. An explicit zero Blend is kept.
func (o *Options) SetDefaults() {
	if o.Basis == "" {
		o.Basis = BasisSafety
	}
	if o.Blend == nil {
		b := DefaultBlend
		o.Blend = &b
	}
	if o.DistanceCap == 0 {
		o.DistanceCap = DefaultDistanceCap
	}
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	const op = "routing.Options.Validate"
	switch o.Basis {
	case BasisSafety, BasisDistance, BasisBlended:
	default:
		return errors.Configuration(op, "unknown cost basis %q", o.Basis)
	}
	if err := errors.ValidateNonNegative(op, "blend", o.BlendValue()); err != nil {
		return err
	}
	return errors.ValidatePositive(op, "distance_cap", o.DistanceCap)
}

// BlendValue returns the blend share, DefaultBlend when unset.
func (o Options) BlendValue() float64 {
	if o.Blend == nil {
		return DefaultBlend
	}
	return *o.Blend
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.SetDefaults()
	return o
}
