// Package pkg provides the core libraries for saferoute, a safety-aware route
// finder for road graphs.
//
// # Overview
//
// Every road segment carries raw safety attributes (crime, lighting, CCTV,
// crowding, police proximity, ...), optionally varying by travel mode and
// time of day. saferoute turns those attributes into a single risk weight in
// [0,1] per edge, then searches the graph for the shortest, the safest and
// the best balanced routes between two places.
//
// # Architecture
//
// The data flow through saferoute:
//
//	graph document (JSON files or MongoDB) + overrides
//	         ↓
//	    [source] package (load and validate the dataset)
//	         ↓
//	    [safety] package (normalize attributes, score each edge)
//	         ↓
//	    [graph] package (weighted clone of the road graph)
//	         ↓
//	    [routing] package (Dijkstra, Yen's K shortest paths, aggregation)
//	         ↓
//	    text report, JSON, DOT/SVG or HTTP response
//
// # Quick Start
//
//	src, _ := source.NewFileSource(source.FileOptions{GraphPath: "campus.json"})
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, safety.DefaultConfig(), nil)
//	ds, _ := runner.Load(ctx, src)
//	res, _ := runner.Execute(ctx, ds, pipeline.Options{
//	    From: "A", To: "D", Mode: "walking", Time: "night",
//	})
//
// # Main Packages
//
// [safety] - Attribute normalization, per-mode profiles, time multipliers,
// caps and the weight formula, with per-factor breakdowns.
//
// [graph] - Undirected multigraph of nodes and road segments, layered edge
// attributes and the on-disk document types.
//
// [routing] - Single-source shortest paths under a distance, safety or
// blended cost, Yen's loopless K shortest paths and path aggregation.
//
// [pipeline] - The weigh → search → summarize pipeline shared by the CLI and
// the HTTP server, with caching of weights and routes.
//
// [source] - Dataset loading from JSON files or MongoDB collections.
//
// [cache] - File, Redis and null caches plus cache key construction.
//
// [config] - TOML configuration with environment overrides, including
// scoring profile overrides.
//
// [render] - Graphviz DOT and SVG diagrams with highlighted routes.
//
// [io] - JSON import and export helpers.
//
// [observability] - Hooks for pipeline, cache and server events.
//
// [errors] - Structured error codes shared by every layer.
package pkg
