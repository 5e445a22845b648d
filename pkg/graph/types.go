package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// =============================================================================
// Document - Road Graph Serialization
// =============================================================================

// Document is the canonical serialization format for road graphs.
// Used for JSON files, MongoDB documents, API requests and cache payloads.
//
//	{
//	  "nodes": [{"id": "A"}, {"id": "B", "name": "Market"}],
//	  "edges": [{"u": "A", "v": "B", "distance_m": 120,
//	             "modes": {"walking": {"night": {"lighting": 3}}}}]
//	}
type Document struct {
	Nodes []NodeDoc `json:"nodes" bson:"nodes"`
	Edges []EdgeDoc `json:"edges" bson:"edges"`
}

// NodeDoc is the serialized form of a [Node].
type NodeDoc struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name,omitempty" bson:"name,omitempty"`
}

// EdgeDoc is the serialized form of an [Edge].
//
// DistanceAlt accepts the legacy "distance" key; DistanceM wins when both
// are present. NearestPoliceM is an edge-level fallback stored in
// [Attributes.Base].
type EdgeDoc struct {
	ID             string                               `json:"id,omitempty" bson:"id,omitempty"`
	U              string                               `json:"u" bson:"u"`
	V              string                               `json:"v" bson:"v"`
	DistanceM      *float64                             `json:"distance_m,omitempty" bson:"distance_m,omitempty"`
	DistanceAlt    *float64                             `json:"distance,omitempty" bson:"distance,omitempty"`
	NearestPoliceM *float64                             `json:"nearest_police_m,omitempty" bson:"nearest_police_m,omitempty"`
	Modes          map[string]map[string]map[string]any `json:"modes,omitempty" bson:"modes,omitempty"`
	Defaults       map[string]any                       `json:"defaults,omitempty" bson:"defaults,omitempty"`
	Attributes     map[string]any                       `json:"attributes,omitempty" bson:"attributes,omitempty"`
	Weight         *float64                             `json:"weight,omitempty" bson:"-"`
}

// Distance returns the edge length, preferring distance_m over distance.
func (d EdgeDoc) Distance() float64 {
	switch {
	case d.DistanceM != nil:
		return *d.DistanceM
	case d.DistanceAlt != nil:
		return *d.DistanceAlt
	}
	return 0
}

// =============================================================================
// Graph <-> Document Conversion
// =============================================================================

// FromGraph converts a Graph to its serialization format.
// Nodes are sorted by ID; edges keep insertion order. Derived weights are
// included when the graph is weighted.
func FromGraph(g *Graph) Document {
	nodes := g.Nodes()
	edges := g.Edges()
	out := Document{
		Nodes: make([]NodeDoc, len(nodes)),
		Edges: make([]EdgeDoc, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = NodeDoc{ID: n.ID, Name: n.Name}
	}
	for i, e := range edges {
		dist := e.Distance
		doc := EdgeDoc{
			ID:        e.ID,
			U:         e.U,
			V:         e.V,
			DistanceM: &dist,
			Defaults:  map[string]any(e.Attributes.Defaults.Clone()),
		}
		if e.Attributes.IsFlat() {
			doc.Attributes = map[string]any(e.Attributes.Flat.Clone())
		}
		if len(e.Attributes.Modes) > 0 {
			doc.Modes = make(map[string]map[string]map[string]any, len(e.Attributes.Modes))
			for mode, times := range e.Attributes.Modes {
				mt := make(map[string]map[string]any, len(times))
				for t, b := range times {
					mt[t] = map[string]any(b.Clone())
				}
				doc.Modes[mode] = mt
			}
		}
		if p, ok := policeFromBase(e.Attributes.Base); ok {
			doc.NearestPoliceM = &p
		}
		if w, ok := e.Weight(); ok {
			doc.Weight = &w
		}
		out.Edges[i] = doc
	}
	return out
}

// ToGraph converts a Document to a Graph.
//
// Edges without an id get a synthesized one of the form "u-v-n", where n is
// the 1-based position of the edge among all edges of the same ordered pair. Weights present in
// the document are ignored; they are always recomputed.
func ToGraph(doc Document) (*Graph, error) {
	g := New()
	for _, nd := range doc.Nodes {
		if err := g.AddNode(Node{ID: nd.ID, Name: nd.Name}); err != nil {
			return nil, fmt.Errorf("add node %q: %w", nd.ID, err)
		}
	}

	seen := make(map[string]int)
	for i, ed := range doc.Edges {
		pair := ed.U + "-" + ed.V
		seen[pair]++
		id := ed.ID
		if id == "" {
			id = pair + "-" + strconv.Itoa(seen[pair])
		}
		e := Edge{
			ID:         id,
			U:          ed.U,
			V:          ed.V,
			Distance:   ed.Distance(),
			Attributes: attributesFromDoc(ed),
		}
		if err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("add edge #%d %s-%s: %w", i, ed.U, ed.V, err)
		}
	}
	return g, nil
}

// MarshalGraph serializes a Graph to indented JSON.
func MarshalGraph(g *Graph) ([]byte, error) {
	return json.MarshalIndent(FromGraph(g), "", "  ")
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (*Graph, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return ToGraph(doc)
}

// =============================================================================
// Internal Helpers
// =============================================================================

const basePoliceKey = "nearest_police_m"

func attributesFromDoc(ed EdgeDoc) Attributes {
	var a Attributes
	if len(ed.Modes) > 0 {
		a.Modes = make(map[string]map[string]Block, len(ed.Modes))
		for mode, times := range ed.Modes {
			mt := make(map[string]Block, len(times))
			for t, b := range times {
				mt[t] = Block(b).Clone()
			}
			a.Modes[mode] = mt
		}
	}
	if ed.Defaults != nil {
		a.Defaults = Block(ed.Defaults).Clone()
	}
	if ed.Attributes != nil {
		a.Flat = Block(ed.Attributes).Clone()
	}
	if ed.NearestPoliceM != nil {
		a.Base = Block{basePoliceKey: *ed.NearestPoliceM}
	}
	return a
}

func policeFromBase(b Block) (float64, bool) {
	v, ok := b[basePoliceKey].(float64)
	return v, ok
}
