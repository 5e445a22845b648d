package pipeline

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/liaphilip/women-safety-route-finder/pkg/cache"
	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	"github.com/liaphilip/women-safety-route-finder/pkg/observability"
	"github.com/liaphilip/women-safety-route-finder/pkg/routing"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
	"github.com/liaphilip/women-safety-route-finder/pkg/source"
)

// testDataset is the diamond A-B-D / A-C-D with an isolated node E.
// A-B-D is short and well lit; A-C-D is long and dark.
func testDataset(t *testing.T) *source.Dataset {
	t.Helper()
	g := graph.New()
	for _, n := range []graph.Node{{ID: "A", Name: "Gate"}, {ID: "B"}, {ID: "C"}, {ID: "D", Name: "Library"}, {ID: "E"}} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	safe := graph.Block{"crime": 0, "lighting": 10, "cctv": 1, "sidewalk": 1}
	risky := graph.Block{"crime": 10, "lighting": 0, "cctv": 0, "sidewalk": 0}
	edges := []graph.Edge{
		{ID: "ab", U: "A", V: "B", Distance: 100, Attributes: graph.Attributes{Defaults: safe}},
		{ID: "bd", U: "B", V: "D", Distance: 100, Attributes: graph.Attributes{Defaults: safe}},
		{ID: "ac", U: "A", V: "C", Distance: 300, Attributes: graph.Attributes{Defaults: risky}},
		{ID: "cd", U: "C", V: "D", Distance: 50, Attributes: graph.Attributes{Defaults: risky}},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return source.NewDataset(g, nil)
}

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(c, nil, safety.DefaultConfig(), nil)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{From: "A", To: "D"}
	if err := opts.ValidateAndSetDefaults(safety.DefaultConfig()); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Mode != DefaultMode || opts.Time != DefaultTime {
		t.Errorf("mode/time = %s/%s", opts.Mode, opts.Time)
	}
	if opts.Basis != BasisAll || opts.K != DefaultK {
		t.Errorf("basis/k = %s/%d", opts.Basis, opts.K)
	}
	if opts.Aggregation != routing.AggregateSum {
		t.Errorf("aggregation = %s", opts.Aggregation)
	}

	bases := opts.Bases()
	if len(bases) != 3 || bases[0].Basis != routing.BasisDistance || bases[2].K != DefaultK {
		t.Errorf("Bases = %+v", bases)
	}
}

func TestOptionsSingleBasisDefaultsToOneRoute(t *testing.T) {
	opts := Options{From: "A", To: "D", Basis: "safest", Mode: "walk", Time: "NIGHT"}
	if err := opts.ValidateAndSetDefaults(safety.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if opts.Basis != routing.BasisSafety || opts.K != 1 {
		t.Errorf("basis/k = %s/%d", opts.Basis, opts.K)
	}
	if opts.Mode != safety.ModeWalking || opts.Time != safety.TimeNight {
		t.Errorf("mode/time not canonical: %s/%s", opts.Mode, opts.Time)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{From: "A", To: "D", Basis: "distance", K: 2}
	cfg := safety.DefaultConfig()
	if err := opts.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatal(err)
	}
	first := opts.K
	opts.K = 99
	if err := opts.ValidateAndSetDefaults(cfg); err != nil {
		t.Errorf("second call should be a no-op: %v", err)
	}
	if first != 2 {
		t.Errorf("K = %d", first)
	}
}

func TestOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing endpoints", Options{From: "A"}, errors.ErrCodeInvalidInput},
		{"unknown mode", Options{From: "A", To: "D", Mode: "hovercraft"}, errors.ErrCodeConfiguration},
		{"unknown time", Options{From: "A", To: "D", Time: "dusk"}, errors.ErrCodeConfiguration},
		{"unknown basis", Options{From: "A", To: "D", Basis: "fastest"}, errors.ErrCodeConfiguration},
		{"k too large", Options{From: "A", To: "D", K: MaxK + 1}, errors.ErrCodeConfiguration},
		{"negative k", Options{From: "A", To: "D", K: -1}, errors.ErrCodeConfiguration},
		{"unknown aggregation", Options{From: "A", To: "D", Aggregation: "median"}, errors.ErrCodeConfiguration},
		{"unknown priority", Options{From: "A", To: "D", Priorities: []string{"vibes"}}, errors.ErrCodeConfiguration},
		{"unknown importance factor", Options{From: "A", To: "D", Importance: map[string]float64{"vibes": 1}}, errors.ErrCodeConfiguration},
		{"negative blend", Options{From: "A", To: "D", Blend: float(-1)}, errors.ErrCodeConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults(safety.DefaultConfig())
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExecuteReport(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), testDataset(t), Options{From: "A", To: "D", Time: "night"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ID == "" || res.Profile == "" {
		t.Errorf("id/profile missing: %+v", res)
	}
	if len(res.Sets) != 3 {
		t.Fatalf("sets = %d, want 3", len(res.Sets))
	}

	shortest := res.Sets[0]
	if shortest.Basis != routing.BasisDistance || len(shortest.Routes) != 1 {
		t.Fatalf("shortest set = %+v", shortest)
	}
	if got := shortest.Routes[0].String(); got != "A -> B -> D" {
		t.Errorf("shortest = %s", got)
	}
	if shortest.Routes[0].Distance != 200 {
		t.Errorf("shortest distance = %v", shortest.Routes[0].Distance)
	}
	if names := shortest.Routes[0].Names; names[0] != "Gate" || names[2] != "Library" {
		t.Errorf("names = %v", names)
	}

	safest := res.Sets[1].Routes[0]
	if safest.String() != "A -> B -> D" {
		t.Errorf("safest = %s", safest.String())
	}
	if safest.Score != safest.Safety {
		t.Errorf("sum score %v should equal path safety %v", safest.Score, safest.Safety)
	}

	balanced := res.Sets[2]
	if balanced.Basis != routing.BasisBlended || len(balanced.Routes) != 2 {
		t.Fatalf("balanced = %+v", balanced)
	}
	if balanced.Routes[0].Cost > balanced.Routes[1].Cost {
		t.Error("balanced routes must be in ascending cost order")
	}
	if res.Edges != nil {
		t.Error("edge reports only when verbose")
	}
}

func TestExecuteScoreFollowsTraversedEdge(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B"} {
		if err := g.AddNode(graph.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	edges := []graph.Edge{
		{ID: "short", U: "A", V: "B", Distance: 50, Attributes: graph.Attributes{
			Defaults: graph.Block{"crime": 10, "lighting": 0}}},
		{ID: "long", U: "A", V: "B", Distance: 900, Attributes: graph.Attributes{
			Defaults: graph.Block{"crime": 0, "lighting": 10, "cctv": 1, "sidewalk": 1}}},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}

	r := newTestRunner(t, nil)
	for _, agg := range []routing.Aggregation{routing.AggregateSum, routing.AggregatePerMeter} {
		res, err := r.Execute(context.Background(), source.NewDataset(g, nil), Options{
			From: "A", To: "B", Basis: "distance", Mode: "walking", Time: "day", Aggregation: agg,
		})
		if err != nil {
			t.Fatal(err)
		}
		route := res.Sets[0].Routes[0]
		if ids := route.EdgeIDs(); len(ids) != 1 || ids[0] != "short" {
			t.Fatalf("%s: edges = %v, want [short]", agg, ids)
		}
		if route.Safety <= 0 {
			t.Fatalf("%s: short edge should carry risk, safety = %v", agg, route.Safety)
		}
		if math.Abs(route.Score-route.Safety) > 1e-12 {
			t.Errorf("%s: score %v must come from the traversed edge (safety %v)", agg, route.Score, route.Safety)
		}
	}
}

func TestOptionsExplicitZeroBlend(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), testDataset(t), Options{
		From: "A", To: "D", Basis: "balanced", K: 2, Blend: float(0),
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, route := range res.Sets[0].Routes {
		if math.Abs(route.Cost-route.Safety) > 1e-12 {
			t.Errorf("%s: cost %v, want safety %v with blend 0", route.String(), route.Cost, route.Safety)
		}
	}

	unset := Options{From: "A", To: "D", Basis: "balanced"}
	zero := Options{From: "A", To: "D", Basis: "balanced", Blend: float(0)}
	for _, o := range []*Options{&unset, &zero} {
		if err := o.ValidateAndSetDefaults(safety.DefaultConfig()); err != nil {
			t.Fatal(err)
		}
	}
	if got := unset.routeKeyOpts("p").Blend; got != routing.DefaultBlend {
		t.Errorf("unset blend = %v, want %v", got, routing.DefaultBlend)
	}
	if got := zero.routeKeyOpts("p").Blend; got != 0 {
		t.Errorf("explicit blend = %v, want 0", got)
	}
}

func float(v float64) *float64 { return &v }

func TestExecuteVerbose(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), testDataset(t), Options{
		From: "A", To: "D", Basis: "safety", Verbose: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Edges) != 4 {
		t.Fatalf("edge reports = %d, want 4", len(res.Edges))
	}
	if rep := res.Edges["ac"]; rep == nil || rep.Breakdown == nil || rep.Weight <= res.Edges["ab"].Weight {
		t.Errorf("ac report = %+v", rep)
	}
}

func TestExecuteNoPath(t *testing.T) {
	r := newTestRunner(t, nil)
	_, err := r.Execute(context.Background(), testDataset(t), Options{From: "A", To: "E"})
	if !errors.Is(err, errors.ErrCodeNoPath) {
		t.Errorf("err = %v, want NO_PATH", err)
	}

	_, err = r.Execute(context.Background(), testDataset(t), Options{From: "A", To: "Z"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestExecuteForbidden(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), testDataset(t), Options{
		From: "A", To: "D", Basis: "distance", Forbidden: []string{"B"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Sets[0].Routes[0].String(); got != "A -> C -> D" {
		t.Errorf("route avoiding B = %s", got)
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c)
	defer r.Close()
	ds := testDataset(t)
	opts := Options{From: "A", To: "D", Mode: "car", Time: "night"}

	first, err := r.Execute(context.Background(), ds, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.RoutesHit || first.CacheInfo.WeightsHit {
		t.Errorf("cold run hit the cache: %+v", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), ds, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RoutesHit {
		t.Error("second run should hit the route cache")
	}
	if second.ID == first.ID {
		t.Error("every result gets a fresh id")
	}
	if second.Sets[1].Routes[0].String() != first.Sets[1].Routes[0].String() {
		t.Error("cached routes differ from computed routes")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), ds, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RoutesHit || third.CacheInfo.WeightsHit {
		t.Error("refresh must bypass the cache")
	}

	opts.Refresh = false
	opts.Basis = "distance"
	fourth, err := r.Execute(context.Background(), ds, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.RoutesHit || !fourth.CacheInfo.WeightsHit {
		t.Errorf("new basis should reuse weights only: %+v", fourth.CacheInfo)
	}
}

func TestWeights(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c)
	ds := testDataset(t)

	day, err := r.Weights(context.Background(), ds, Options{Time: "day"})
	if err != nil {
		t.Fatal(err)
	}
	if len(day.Weights) != 4 || day.CacheHit {
		t.Fatalf("day weights = %+v", day)
	}
	for id, w := range day.Weights {
		if w < 0 || w > 1 {
			t.Errorf("weight %s = %v out of [0,1]", id, w)
		}
	}

	night, err := r.Weights(context.Background(), ds, Options{Time: "night"})
	if err != nil {
		t.Fatal(err)
	}
	if night.Weights["ac"] <= day.Weights["ac"] {
		t.Errorf("dark high-crime edge should weigh more at night: day %v night %v",
			day.Weights["ac"], night.Weights["ac"])
	}

	again, err := r.Weights(context.Background(), ds, Options{Time: "day"})
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheHit || again.Weights["ac"] != day.Weights["ac"] {
		t.Errorf("second weights call = %+v", again)
	}
}

func TestWeightsCustomization(t *testing.T) {
	r := newTestRunner(t, nil)
	ds := testDataset(t)

	base, err := r.Weights(context.Background(), ds, Options{})
	if err != nil {
		t.Fatal(err)
	}
	prio, err := r.Weights(context.Background(), ds, Options{Priorities: []string{"lighting"}})
	if err != nil {
		t.Fatal(err)
	}
	if base.Profile == prio.Profile {
		t.Error("prioritized profile should change the fingerprint")
	}

	_, err = r.Weights(context.Background(), ds, Options{Importance: map[string]float64{"crime": 2}})
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("importance above 1: err = %v", err)
	}
}

func TestWeightsOverridesChangeResult(t *testing.T) {
	r := newTestRunner(t, nil)
	ds := testDataset(t)
	plain, err := r.Weights(context.Background(), ds, Options{})
	if err != nil {
		t.Fatal(err)
	}

	ds.Overrides.Edges["ab"] = safety.EdgeOverride{All: graph.Block{"crime": 10, "lighting": 0}}
	over, err := r.Weights(context.Background(), ds, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if over.Weights["ab"] <= plain.Weights["ab"] {
		t.Errorf("override should raise ab: %v -> %v", plain.Weights["ab"], over.Weights["ab"])
	}
	if over.Profile == plain.Profile {
		t.Error("overrides should be folded into the profile key")
	}
	if ds.Graph.Weighted() {
		t.Error("the dataset graph must never be weighted in place")
	}
}

func TestAggregate(t *testing.T) {
	r := newTestRunner(t, nil)
	ds := testDataset(t)

	sum, err := r.Aggregate(context.Background(), ds, []string{"A", "C", "D"}, Options{Aggregation: routing.AggregatePerMeter})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Distance != 350 || sum.Aggregation != routing.AggregatePerMeter {
		t.Errorf("summary = %+v", sum)
	}

	_, err = r.Aggregate(context.Background(), ds, []string{"A", "D"}, Options{})
	if !errors.Is(err, errors.ErrCodeBrokenPath) {
		t.Errorf("err = %v, want BROKEN_PATH", err)
	}
}

func TestWeightedGraph(t *testing.T) {
	r := newTestRunner(t, nil)
	ds := testDataset(t)

	g, err := r.WeightedGraph(context.Background(), ds, Options{Time: "night"})
	if err != nil {
		t.Fatal(err)
	}
	key := g.WeightKey()
	if key.Mode != DefaultMode || key.Time != "night" || key.Profile == "" {
		t.Errorf("weight key = %+v", key)
	}
	ab, _ := g.Edge("ab")
	ac, _ := g.Edge("ac")
	wab, _ := ab.Weight()
	wac, _ := ac.Weight()
	if wab >= wac {
		t.Errorf("safe edge weight %v should be below risky %v", wab, wac)
	}
	if ds.Graph.Weighted() {
		t.Error("dataset graph must stay unweighted")
	}

	if _, err := r.WeightedGraph(context.Background(), ds, Options{Mode: "hovercraft"}); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("err = %v, want CONFIGURATION", err)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	mu       sync.Mutex
	weighs   int
	searches int
}

func (h *countingHooks) OnWeighComplete(context.Context, string, string, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.weighs++
}

func (h *countingHooks) OnSearchComplete(context.Context, string, string, int, time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.searches++
}

func TestExecuteEmitsHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := newTestRunner(t, nil)
	if _, err := r.Execute(context.Background(), testDataset(t), Options{From: "A", To: "D"}); err != nil {
		t.Fatal(err)
	}
	if hooks.weighs != 1 || hooks.searches != 3 {
		t.Errorf("weighs=%d searches=%d, want 1 and 3", hooks.weighs, hooks.searches)
	}
}

type stubSource struct {
	ds  *source.Dataset
	err error
}

func (s stubSource) Name() string                                  { return "stub" }
func (s stubSource) Load(context.Context) (*source.Dataset, error) { return s.ds, s.err }
func (s stubSource) Close() error                                  { return nil }

func TestLoad(t *testing.T) {
	r := newTestRunner(t, nil)
	ds := testDataset(t)
	ds.Overrides.Edges["nope"] = safety.EdgeOverride{}

	got, err := r.Load(context.Background(), stubSource{ds: ds})
	if err != nil || got != ds {
		t.Fatalf("Load = %v, %v", got, err)
	}
	if ids := unknownOverrides(ds); len(ids) != 1 || ids[0] != "nope" {
		t.Errorf("unknownOverrides = %v", ids)
	}

	boom := errors.New(errors.ErrCodeInvalidInput, "test", "boom")
	if _, err := r.Load(context.Background(), stubSource{err: boom}); err != boom {
		t.Errorf("err = %v", err)
	}
}
