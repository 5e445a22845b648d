// Package graph provides the undirected road graph and its serialization types.
//
// A [Graph] holds named [Node]s and attributed [Edge]s with an adjacency index
// from node id to incident edge ids. Parallel edges between the same pair of
// nodes are allowed and are distinguished by edge id.
//
// # Raw Attributes
//
// Each edge carries the raw safety data it was loaded with, in [Attributes]:
// either nested per-mode, per-time [Block]s (with an optional defaults block),
// or a single flat block. Values stay untyped here; pkg/safety coerces and
// normalizes them.
//
// # Derived Weights
//
// An edge's safety weight is derived state. [Graph.ApplyWeights] replaces the
// weight of every edge at once and stamps the graph with the [WeightKey]
// (mode, time, profile fingerprint) it was computed for. Adding an edge
// clears all weights.
//
// # Serialization
//
// Graphs use a node-link JSON format, also stored as BSON documents:
//
//	{
//	  "nodes": [{"id": "A"}, {"id": "B"}],
//	  "edges": [{"id": "ab", "u": "A", "v": "B", "distance_m": 120,
//	             "modes": {"walking": {"night": {"crime": 6, "lighting": 2}}}}]
//	}
//
// Use [FromGraph]/[ToGraph] to convert between [Graph] and [Document].
//
// # Concurrency
//
// A Graph is safe for concurrent reads but not concurrent writes. Use
// [Graph.Clone] to give each concurrent query its own snapshot.
package graph
