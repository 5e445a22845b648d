package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
)

// WriteGraphJSON encodes g as an indented graph document and writes it to w.
// Derived weights are included when the graph is weighted; [ReadGraphJSON]
// ignores them on the way back in.
func WriteGraphJSON(g *graph.Graph, w io.Writer) error {
	return writeJSON(graph.FromGraph(g), w)
}

// ExportGraphJSON writes g to a JSON file at path.
func ExportGraphJSON(g *graph.Graph, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteGraphJSON(g, w) })
}

// WriteResultJSON encodes a query result (routes, weights, summaries) as
// indented JSON.
func WriteResultJSON(v any, w io.Writer) error {
	return writeJSON(v, w)
}

// ExportResultJSON writes a query result to a JSON file at path.
func ExportResultJSON(v any, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteResultJSON(v, w) })
}

func writeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
