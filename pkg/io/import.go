package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// ReadGraphJSON decodes a road graph document from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "A", "name": "Gate"}, {"id": "B"}],
//	  "edges": [{"u": "A", "v": "B", "distance_m": 120,
//	             "modes": {"walking": {"night": {"lighting": 3}}}}]
//	}
//
// ReadGraphJSON returns an INVALID_INPUT error if the JSON is malformed, a
// node id is duplicated, or an edge references an unknown node. Weights
// present in the input are ignored. ReadGraphJSON does not close r.
func ReadGraphJSON(r io.Reader) (*graph.Graph, error) {
	const op = "io.ReadGraphJSON"
	var doc graph.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, op, err, "decode graph")
	}
	return toGraph(op, doc)
}

// ReadNodesEdgesJSON decodes the two-file layout: a JSON array of nodes and
// a separate JSON array of edges. Both readers are consumed, neither is
// closed.
func ReadNodesEdgesJSON(nodes, edges io.Reader) (*graph.Graph, error) {
	const op = "io.ReadNodesEdgesJSON"
	var doc graph.Document
	if err := json.NewDecoder(nodes).Decode(&doc.Nodes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, op, err, "decode nodes")
	}
	if err := json.NewDecoder(edges).Decode(&doc.Edges); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, op, err, "decode edges")
	}
	return toGraph(op, doc)
}

// ReadOverridesJSON decodes an override layer keyed by edge id:
//
//	{
//	  "edges": {
//	    "A-B-1": {
//	      "all":   {"lighting": 2},
//	      "modes": {"walking": {"night": {"crime": 8}}}
//	    }
//	  }
//	}
//
// An empty input object yields an empty, non-nil layer.
func ReadOverridesJSON(r io.Reader) (*safety.Overrides, error) {
	var ov safety.Overrides
	if err := json.NewDecoder(r).Decode(&ov); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, "io.ReadOverridesJSON", err, "decode overrides")
	}
	if ov.Edges == nil {
		ov.Edges = map[string]safety.EdgeOverride{}
	}
	return &ov, nil
}

// ImportGraphJSON reads a graph document from the file at path.
func ImportGraphJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraphJSON(f)
}

// ImportNodesEdgesJSON reads the two-file layout from disk.
func ImportNodesEdgesJSON(nodesPath, edgesPath string) (*graph.Graph, error) {
	nf, err := os.Open(nodesPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", nodesPath, err)
	}
	defer nf.Close()
	ef, err := os.Open(edgesPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", edgesPath, err)
	}
	defer ef.Close()
	return ReadNodesEdgesJSON(nf, ef)
}

// ImportOverridesJSON reads an override layer from the file at path.
func ImportOverridesJSON(path string) (*safety.Overrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadOverridesJSON(f)
}

func toGraph(op string, doc graph.Document) (*graph.Graph, error) {
	g, err := graph.ToGraph(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, op, err, "build graph")
	}
	return g, nil
}
