// Package io provides JSON import and export for road graphs, override
// layers and query results.
//
// # Graph Formats
//
// The single-document format has two top-level arrays:
//
//	{
//	  "nodes": [{"id": "A", "name": "Main Gate"}, {"id": "B"}],
//	  "edges": [
//	    {"u": "A", "v": "B", "distance_m": 120, "nearest_police_m": 400,
//	     "modes": {"walking": {"night": {"crime": 4, "lighting": 3}}},
//	     "defaults": {"crime": 2}}
//	  ]
//	}
//
// The two-file format keeps the arrays in separate files (nodes.json and
// edges.json). Use [ImportNodesEdgesJSON] for it.
//
// # Edge Fields
//
// Required:
//   - u, v: endpoint node ids
//
// Optional:
//   - id: edge identifier; synthesized as "u-v-n" when absent
//   - distance_m (or legacy distance): length in metres
//   - modes: mode -> time -> attribute block
//   - defaults: block used when a mode has no usable bucket
//   - attributes: an already resolved flat block
//   - nearest_police_m: edge-level police distance
//
// # Overrides
//
// [ReadOverridesJSON] decodes a per-edge correction layer. Overrides are
// passed explicitly to the scorer; nothing in this package stores them.
//
// # Errors
//
// Decode and graph construction failures carry the INVALID_INPUT code from
// pkg/errors. File open and create failures are wrapped with the path.
package io
