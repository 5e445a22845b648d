package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/liaphilip/women-safety-route-finder/pkg/cache"
	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	"github.com/liaphilip/women-safety-route-finder/pkg/observability"
	"github.com/liaphilip/women-safety-route-finder/pkg/routing"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
	"github.com/liaphilip/women-safety-route-finder/pkg/source"
)

// Runner encapsulates query execution with caching.
//
// The Runner is stateless except for the cache, configuration and logger:
// every query weighs its own clone of the dataset graph, so multiple
// goroutines can safely share one Runner and one Dataset.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Config safety.Config
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, cfg safety.Config, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Config: cfg,
		Logger: logger,
	}
}

// WeightsResult is the output of a weights-only query.
type WeightsResult struct {
	ID       string                        `json:"id"`
	Mode     string                        `json:"mode"`
	Time     string                        `json:"time"`
	Profile  string                        `json:"profile"`
	Weights  map[string]float64            `json:"weights"`
	Edges    map[string]*safety.EdgeReport `json:"edges,omitempty"`
	CacheHit bool                          `json:"cache_hit"`
}

// Load reads a dataset from src, reporting through the pipeline hooks.
func (r *Runner) Load(ctx context.Context, src source.Source) (*source.Dataset, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, src.Name())
	start := time.Now()

	ds, err := src.Load(ctx)
	if err != nil {
		hooks.OnLoadComplete(ctx, src.Name(), 0, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, src.Name(), ds.Graph.NodeCount(), ds.Graph.EdgeCount(), time.Since(start), nil)

	r.Logger.Info("loaded graph",
		"source", src.Name(),
		"nodes", ds.Graph.NodeCount(),
		"edges", ds.Graph.EdgeCount(),
		"overrides", ds.Overrides.Len())
	for _, id := range unknownOverrides(ds) {
		r.Logger.Warn("override for unknown edge", "edge", id)
	}
	return ds, nil
}

// Execute runs the weigh → search → summarize pipeline with caching.
func (r *Runner) Execute(ctx context.Context, ds *source.Dataset, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(r.Config); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	scorer, err := r.scorer(opts)
	if err != nil {
		return nil, err
	}

	dsHash := ds.Hash()
	profile := scorer.Key(opts.Mode, opts.Time, ds.Overrides).Profile
	res := &Result{
		ID:          uuid.NewString(),
		From:        opts.From,
		To:          opts.To,
		Mode:        opts.Mode,
		Time:        opts.Time,
		Profile:     profile,
		Aggregation: opts.Aggregation,
		Stats: Stats{
			NodeCount: ds.Graph.NodeCount(),
			EdgeCount: ds.Graph.EdgeCount(),
		},
	}

	routeKey := r.Keyer.RouteKey(dsHash, opts.routeKeyOpts(profile))
	if !opts.Refresh && !opts.Verbose {
		var sets []RouteSet
		if r.lookup(ctx, "route", routeKey, &sets) {
			res.Sets = sets
			res.CacheInfo.RoutesHit = true
			opts.Logger.Debug("routes from cache", "id", res.ID)
			return res, nil
		}
	}

	weighStart := time.Now()
	g, reports, hit, err := r.weigh(ctx, ds, scorer, opts, dsHash)
	if err != nil {
		return nil, err
	}
	res.Edges = reports
	res.Stats.WeighTime = time.Since(weighStart)
	res.CacheInfo.WeightsHit = hit

	searchStart := time.Now()
	for _, q := range opts.Bases() {
		set, err := r.search(ctx, g, opts, q)
		if err != nil {
			return nil, err
		}
		res.Sets = append(res.Sets, set)
	}
	res.Stats.SearchTime = time.Since(searchStart)

	opts.Logger.Info("found routes",
		"from", opts.From,
		"to", opts.To,
		"mode", opts.Mode,
		"time", opts.Time,
		"sets", len(res.Sets),
		"duration", res.Stats.WeighTime+res.Stats.SearchTime)

	r.store(ctx, "route", routeKey, res.Sets, cache.TTLRoute)
	return res, nil
}

// Weights computes the safety weight of every edge for the query's mode and
// time. From and To are ignored.
func (r *Runner) Weights(ctx context.Context, ds *source.Dataset, opts Options) (*WeightsResult, error) {
	if err := opts.ValidateForWeights(r.Config); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	scorer, err := r.scorer(opts)
	if err != nil {
		return nil, err
	}

	g, reports, hit, err := r.weigh(ctx, ds, scorer, opts, ds.Hash())
	if err != nil {
		return nil, err
	}
	return &WeightsResult{
		ID:       uuid.NewString(),
		Mode:     opts.Mode,
		Time:     opts.Time,
		Profile:  g.WeightKey().Profile,
		Weights:  weightMap(g),
		Edges:    reports,
		CacheHit: hit,
	}, nil
}

// WeightedGraph returns a clone of the dataset graph carrying the safety
// weights for the query's mode, time and profile. The dataset graph itself
// is never modified.
func (r *Runner) WeightedGraph(ctx context.Context, ds *source.Dataset, opts Options) (*graph.Graph, error) {
	if err := opts.ValidateForWeights(r.Config); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	scorer, err := r.scorer(opts)
	if err != nil {
		return nil, err
	}
	g, _, _, err := r.weigh(ctx, ds, scorer, opts, ds.Hash())
	return g, err
}

// Aggregate weighs the dataset and summarizes an explicit node sequence.
func (r *Runner) Aggregate(ctx context.Context, ds *source.Dataset, nodes []string, opts Options) (*routing.Summary, error) {
	agg, err := routing.ParseAggregation(string(opts.Aggregation))
	if err != nil {
		return nil, err
	}
	g, err := r.WeightedGraph(ctx, ds, opts)
	if err != nil {
		return nil, err
	}
	return routing.Aggregate(g, nodes, agg)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// scorer builds a scorer for the query's customized profile.
func (r *Runner) scorer(opts Options) (*safety.Scorer, error) {
	cfg, err := opts.scoringConfig(r.Config)
	if err != nil {
		return nil, err
	}
	return safety.NewScorer(cfg)
}

// weigh returns a weighted clone of the dataset graph. Cached weights are
// used unless the query is verbose or asks for a refresh.
func (r *Runner) weigh(ctx context.Context, ds *source.Dataset, scorer *safety.Scorer, opts Options, dsHash string) (*graph.Graph, map[string]*safety.EdgeReport, bool, error) {
	key := scorer.Key(opts.Mode, opts.Time, ds.Overrides)
	cacheKey := r.Keyer.WeightsKey(dsHash, opts.weightsKeyOpts(key.Profile))
	g := ds.Graph.Clone()

	if !opts.Refresh && !opts.Verbose {
		var weights map[string]float64
		if r.lookup(ctx, "weights", cacheKey, &weights) {
			if err := g.ApplyWeights(key, weights); err == nil {
				return g, nil, true, nil
			}
			g.ClearWeights()
		}
	}

	hooks := observability.Pipeline()
	hooks.OnWeighStart(ctx, opts.Mode, opts.Time, g.EdgeCount())
	start := time.Now()
	reports, err := scorer.ApplyGraph(g, opts.Mode, opts.Time, ds.Overrides, opts.Verbose)
	hooks.OnWeighComplete(ctx, opts.Mode, opts.Time, time.Since(start), err)
	if err != nil {
		return nil, nil, false, err
	}
	opts.Logger.Debug("weighed graph", "edges", g.EdgeCount(), "profile", key.Profile)

	r.store(ctx, "weights", cacheKey, weightMap(g), cache.TTLWeights)
	return g, reports, false, nil
}

// search runs one basis of a query and summarizes its routes.
func (r *Runner) search(ctx context.Context, g *graph.Graph, opts Options, q BasisQuery) (RouteSet, error) {
	hooks := observability.Pipeline()
	hooks.OnSearchStart(ctx, opts.From, opts.To, q.K)
	start := time.Now()
	paths, err := routing.Search(g, routing.Request{
		Source:  opts.From,
		Target:  opts.To,
		K:       q.K,
		Options: opts.searchOptions(q.Basis),
	})
	hooks.OnSearchComplete(ctx, opts.From, opts.To, len(paths), time.Since(start), err)
	if err != nil {
		return RouteSet{}, err
	}

	set := RouteSet{Basis: q.Basis, Routes: make([]Route, 0, len(paths))}
	for _, p := range paths {
		sum, err := routing.Summarize(p, opts.Aggregation)
		if err != nil {
			return RouteSet{}, errors.Wrap(errors.ErrCodeInternal, "pipeline.search", err, "summarize route %d", p.Rank)
		}
		set.Routes = append(set.Routes, Route{
			Path:  *p,
			Names: displayNames(g, p.Nodes),
			Score: sum.Safety,
		})
	}
	return set, nil
}

// lookup decodes a cached entry into v. Backend errors are logged and
// treated as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string, v any) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true
}

// store encodes and caches v. Failures are logged, never returned.
func (r *Runner) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func weightMap(g *graph.Graph) map[string]float64 {
	out := make(map[string]float64, g.EdgeCount())
	for _, e := range g.Edges() {
		if w, ok := e.Weight(); ok {
			out[e.ID] = w
		}
	}
	return out
}

func displayNames(g *graph.Graph, ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id
		if n, ok := g.Node(id); ok {
			names[i] = n.DisplayName()
		}
	}
	return names
}

func unknownOverrides(ds *source.Dataset) []string {
	var out []string
	if ds.Overrides == nil {
		return nil
	}
	for id := range ds.Overrides.Edges {
		if _, ok := ds.Graph.Edge(id); !ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
