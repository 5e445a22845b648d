// Package pipeline runs complete route queries: weigh a dataset for a mode
// and time of day, search ranked routes under one or more cost bases, and
// summarize each route.
//
// The CLI and the HTTP server both go through [Runner], so caching, hooks
// and defaults behave identically at every entry point.
//
// # Stages
//
//  1. Weigh: clone the dataset graph and apply safety weights (cached by
//     dataset hash, mode, time and profile fingerprint)
//  2. Search: Dijkstra or Yen per cost basis
//  3. Summarize: aggregate each route's safety score
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, safety.DefaultConfig(), logger)
//	res, err := runner.Execute(ctx, ds, pipeline.Options{
//	    From: "A", To: "D", Mode: "walking", Time: "night",
//	})
//
// With no basis set, a query reports the shortest route by distance, the
// safest route, and the top K balanced routes.
package pipeline

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/liaphilip/women-safety-route-finder/pkg/cache"
	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/routing"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultK is the number of alternatives for the balanced basis.
	DefaultK = 3

	// MaxK bounds the number of alternatives a single query may request.
	MaxK = 20

	// DefaultMode is the travel mode when none is given.
	DefaultMode = safety.ModeWalking

	// DefaultTime is the time of day when none is given.
	DefaultTime = safety.TimeDay
)

// BasisAll requests the three-way report: shortest by distance, safest, and
// the top K balanced routes.
const BasisAll routing.Basis = "all"

// =============================================================================
// Options - Query Configuration
// =============================================================================

// Options contains all configuration for one route query.
// This struct supports JSON serialization for API requests.
type Options struct {
	From string `json:"from"`
	To   string `json:"to"`
	Mode string `json:"mode,omitempty"`
	Time string `json:"time,omitempty"`

	// Search options
	Basis       routing.Basis       `json:"basis,omitempty"`
	K           int                 `json:"k,omitempty"`
	Blend       *float64            `json:"blend,omitempty"` // nil means routing.DefaultBlend
	DistanceCap float64             `json:"distance_cap,omitempty"`
	Forbidden   []string            `json:"forbidden,omitempty"`
	Aggregation routing.Aggregation `json:"aggregation,omitempty"`

	// Profile customization
	Priorities []string           `json:"priorities,omitempty"`
	Importance map[string]float64 `json:"importance,omitempty"`
	BaseScale  map[string]float64 `json:"base_scale,omitempty"`

	// Verbose attaches per-edge breakdowns to the result.
	Verbose bool `json:"verbose,omitempty"`
	// Refresh bypasses cached weights and routes.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of one query.
type Result struct {
	ID          string                        `json:"id"`
	From        string                        `json:"from"`
	To          string                        `json:"to"`
	Mode        string                        `json:"mode"`
	Time        string                        `json:"time"`
	Profile     string                        `json:"profile"`
	Aggregation routing.Aggregation           `json:"aggregation"`
	Sets        []RouteSet                    `json:"sets"`
	Edges       map[string]*safety.EdgeReport `json:"edges,omitempty"`
	Stats       Stats                         `json:"stats"`
	CacheInfo   CacheInfo                     `json:"cache"`
}

// RouteSet is the ranked routes found under one cost basis.
type RouteSet struct {
	Basis  routing.Basis `json:"basis"`
	Routes []Route       `json:"routes"`
}

// Route is a ranked path plus display names and its aggregated score.
type Route struct {
	routing.Path
	Names []string `json:"names"`
	Score float64  `json:"score"`
}

// Stats contains query execution statistics.
type Stats struct {
	NodeCount  int           `json:"nodes"`
	EdgeCount  int           `json:"edges"`
	WeighTime  time.Duration `json:"weigh_ns"`
	SearchTime time.Duration `json:"search_ns"`
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	WeightsHit bool `json:"weights_hit"`
	RoutesHit  bool `json:"routes_hit"`
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults resolves mode and time against cfg, applies
// defaults and checks every field. It is idempotent.
func (o *Options) ValidateAndSetDefaults(cfg safety.Config) error {
	if o.validated {
		return nil
	}
	const op = "pipeline.Options"
	if o.From == "" || o.To == "" {
		return errors.New(errors.ErrCodeInvalidInput, op, "from and to are required")
	}
	if err := o.ValidateForWeights(cfg); err != nil {
		return err
	}

	basis := strings.ToLower(strings.TrimSpace(string(o.Basis)))
	if basis == "" || basis == string(BasisAll) {
		o.Basis = BasisAll
	} else {
		b, err := routing.ParseBasis(basis)
		if err != nil {
			return err
		}
		o.Basis = b
	}
	if o.K == 0 {
		o.K = DefaultK
		if o.Basis != BasisAll {
			o.K = 1
		}
	}
	if o.K < 1 || o.K > MaxK {
		return errors.Configuration(op, "k must be within [1,%d], got %d", MaxK, o.K)
	}
	agg, err := routing.ParseAggregation(string(o.Aggregation))
	if err != nil {
		return err
	}
	o.Aggregation = agg
	if err := o.searchOptions(routing.BasisSafety).Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForWeights resolves mode and time and checks the profile
// customization; it is all a weights-only query needs.
func (o *Options) ValidateForWeights(cfg safety.Config) error {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Time == "" {
		o.Time = DefaultTime
	}
	m, err := cfg.ResolveMode(o.Mode)
	if err != nil {
		return err
	}
	t, err := cfg.ResolveTime(o.Time)
	if err != nil {
		return err
	}
	o.Mode, o.Time = m, t
	if _, err := o.customization(); err != nil {
		return err
	}
	if _, err := o.priorities(); err != nil {
		return err
	}
	return nil
}

// Bases returns the cost bases to search, with the alternatives requested
// for each, in report order.
func (o *Options) Bases() []BasisQuery {
	if o.Basis == BasisAll {
		return []BasisQuery{
			{Basis: routing.BasisDistance, K: 1},
			{Basis: routing.BasisSafety, K: 1},
			{Basis: routing.BasisBlended, K: o.K},
		}
	}
	return []BasisQuery{{Basis: o.Basis, K: o.K}}
}

// BasisQuery is one search of a query.
type BasisQuery struct {
	Basis routing.Basis
	K     int
}

// searchOptions builds routing options for basis b.
func (o *Options) searchOptions(b routing.Basis) routing.Options {
	ro := routing.Options{
		Basis:       b,
		Blend:       o.Blend,
		DistanceCap: o.DistanceCap,
		Forbidden:   o.Forbidden,
	}
	ro.SetDefaults()
	return ro
}

// customization converts the name-keyed maps into factor-keyed ones.
func (o *Options) customization() (safety.Customization, error) {
	var c safety.Customization
	var err error
	if c.Importance, err = factorMap(o.Importance); err != nil {
		return c, err
	}
	if c.Scale, err = factorMap(o.BaseScale); err != nil {
		return c, err
	}
	return c, nil
}

func (o *Options) priorities() ([]safety.Factor, error) {
	out := make([]safety.Factor, 0, len(o.Priorities))
	for _, name := range o.Priorities {
		f, ok := safety.ParseFactor(name)
		if !ok {
			return nil, errors.Configuration("pipeline.Options", "unknown priority factor %q", name)
		}
		out = append(out, f)
	}
	return out, nil
}

func factorMap(in map[string]float64) (map[safety.Factor]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[safety.Factor]float64, len(in))
	for name, v := range in {
		f, ok := safety.ParseFactor(name)
		if !ok {
			return nil, errors.Configuration("pipeline.Options", "unknown factor %q", name)
		}
		out[f] = v
	}
	return out, nil
}

// scoringConfig returns cfg with the query's profile customization applied
// to its mode. Must be called after validation.
func (o *Options) scoringConfig(cfg safety.Config) (safety.Config, error) {
	prios, err := o.priorities()
	if err != nil {
		return cfg, err
	}
	custom, err := o.customization()
	if err != nil {
		return cfg, err
	}
	if len(prios) == 0 && custom.IsZero() {
		return cfg, nil
	}
	p := cfg.Profiles[o.Mode]
	if len(prios) > 0 {
		p = p.Prioritize(prios, cfg.PriorityDamping)
	}
	if !custom.IsZero() {
		if p, err = p.Customize(custom); err != nil {
			return cfg, err
		}
	}
	return cfg.WithProfile(o.Mode, p), nil
}

// weightsKeyOpts returns cache key options for the weights stage.
func (o *Options) weightsKeyOpts(profile string) cache.WeightsKeyOpts {
	return cache.WeightsKeyOpts{Mode: o.Mode, Time: o.Time, Profile: profile}
}

// routeKeyOpts returns cache key options for the route stage.
func (o *Options) routeKeyOpts(profile string) cache.RouteKeyOpts {
	ro := o.searchOptions(routing.BasisSafety)
	return cache.RouteKeyOpts{
		WeightsKeyOpts: o.weightsKeyOpts(profile),
		Source:         o.From,
		Target:         o.To,
		K:              o.K,
		Basis:          string(o.Basis),
		Blend:          ro.BlendValue(),
		DistanceCap:    ro.DistanceCap,
		Forbidden:      o.Forbidden,
		Aggregation:    string(o.Aggregation),
	}
}
