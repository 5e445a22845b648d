// Package routing finds ranked routes over a weighted road graph.
//
// Two searches are provided on top of a [graph.Graph]:
//
//   - [ShortestPath]: Dijkstra's algorithm with a lazy decrease-key min-heap.
//   - [KShortestPaths]: Yen's algorithm layered on the same Dijkstra, returning
//     up to k distinct simple paths in ascending cost order.
//
// [Search] is the combined entry point taking a [Request].
//
// # Cost Basis
//
// Each edge costs one of:
//
//	safety    derived safety weight (requires pkg/safety weights on the graph)
//	distance  length in metres
//	blended   weight + Blend * min(distance / DistanceCap, 1)
//
// # Determinism
//
// Path costs equal within [Epsilon] are ordered by hop count, then by the
// lexicographically smaller node sequence, then by edge ids. Repeated
// searches over the same graph return identical results.
//
// # Masking
//
// Forbidden nodes and the temporary edge and node removals of Yen's spur
// searches live in a scoped view over the graph. The graph itself, including
// its derived weights, is never modified by a search.
//
// # Aggregation
//
// [Aggregate] recomputes totals for an arbitrary node sequence of at least
// two nodes, either as a plain sum of weights or as a distance-weighted mean
// (per metre). [Summarize] does the same for a search result, over the edges
// the path actually traversed.
//
// # Errors
//
//	NOT_FOUND      unknown source or target
//	NO_PATH        target unreachable under the current constraints
//	CONFIGURATION  k < 1, unknown basis, or a safety basis on an unweighted graph
//	BROKEN_PATH    Aggregate or Summarize on a hop with no connecting edge
package routing
