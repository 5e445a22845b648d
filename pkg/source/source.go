// Package source loads road graphs and their override layers from storage.
//
// Two backends implement [Source]:
//
//   - [FileSource]: a single graph document, or the nodes.json / edges.json
//     pair, plus an optional overrides file
//   - [MongoSource]: the "nodes", "edges" and "overrides" collections of a
//     MongoDB database
//
// A loaded [Dataset] is immutable by convention: callers weigh a clone of
// its graph, never the graph itself.
package source

import (
	"context"
	"encoding/json"

	"github.com/liaphilip/women-safety-route-finder/pkg/cache"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// Source loads a dataset.
type Source interface {
	// Name identifies the source in logs and cache keys.
	Name() string
	// Load reads the graph and its overrides.
	Load(ctx context.Context) (*Dataset, error)
	// Close releases connections held by the source.
	Close() error
}

// Dataset is a loaded road graph with its override layer.
type Dataset struct {
	Graph     *graph.Graph
	Overrides *safety.Overrides
}

// NewDataset pairs g with ov; a nil ov becomes an empty layer.
func NewDataset(g *graph.Graph, ov *safety.Overrides) *Dataset {
	if ov == nil {
		ov = &safety.Overrides{Edges: map[string]safety.EdgeOverride{}}
	}
	return &Dataset{Graph: g, Overrides: ov}
}

// Hash returns a content hash of the graph document and overrides. Two
// datasets with equal hashes produce equal weights and routes.
func (d *Dataset) Hash() string {
	g, _ := json.Marshal(graph.FromGraph(d.Graph))
	ov, _ := json.Marshal(d.Overrides)
	return cache.Hash(append(append(g, '\n'), ov...))
}
