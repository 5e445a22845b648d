package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidEdgeID is returned by [Graph.AddEdge] when the edge ID is empty.
	ErrInvalidEdgeID = errors.New("edge ID must not be empty")

	// ErrDuplicateEdgeID is returned by [Graph.AddEdge] when an edge with the
	// same ID already exists.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownNode is returned by [Graph.AddEdge] when an endpoint does not
	// exist in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNegativeDistance is returned by [Graph.AddEdge] for a negative or NaN
	// physical distance.
	ErrNegativeDistance = errors.New("edge distance must be non-negative")

	// ErrIncompleteWeights is returned by [Graph.ApplyWeights] when the weight
	// set does not cover every edge, or names an unknown edge.
	ErrIncompleteWeights = errors.New("weights must cover every edge exactly")
)

// Node is a location on the road graph.
// The zero value is not usable - ID must be set before adding to a Graph.
type Node struct {
	ID   string // Unique identifier
	Name string // Display name (defaults to ID)
}

// DisplayName returns the name if set, otherwise the ID.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Edge is an undirected road segment between U and V.
//
// Weight is derived state: it holds the safety weight computed for the
// graph's current [WeightKey] and is rewritten whenever mode, time or
// coefficients change. It never takes part in edge identity.
type Edge struct {
	ID         string     // Unique identifier
	U          string     // First endpoint
	V          string     // Second endpoint
	Distance   float64    // Physical length in metres
	Attributes Attributes // Raw per-mode/per-time attribute blocks

	weight   float64
	weighted bool
}

// Other returns the endpoint opposite to id. The second result is false when
// id is not an endpoint of the edge.
func (e *Edge) Other(id string) (string, bool) {
	switch id {
	case e.U:
		return e.V, true
	case e.V:
		return e.U, true
	}
	return "", false
}

// Connects reports whether the edge joins a and b in either direction.
func (e *Edge) Connects(a, b string) bool {
	return (e.U == a && e.V == b) || (e.U == b && e.V == a)
}

// Weight returns the derived safety weight and whether one has been applied.
func (e *Edge) Weight() (float64, bool) {
	return e.weight, e.weighted
}

// WeightKey identifies the (mode, time, profile) combination the graph's
// derived edge weights were computed for. The zero value means "unweighted".
type WeightKey struct {
	Mode    string `json:"mode"`
	Time    string `json:"time"`
	Profile string `json:"profile,omitempty"` // fingerprint of coefficients, caps and overrides
}

// IsZero reports whether no weights have been applied.
func (k WeightKey) IsZero() bool { return k == WeightKey{} }

// Graph is an undirected, attributed road graph with an adjacency index from
// node id to incident edge ids. Parallel edges between the same pair of nodes
// are allowed; self loops are accepted but never used by path search.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent mutation; use Clone to hand a private
// snapshot to each concurrent query.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	adj       map[string][]string // node id -> incident edge ids, insertion order
	weightKey WeightKey
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
		adj:   make(map[string][]string),
	}
}

// AddNode adds a node. Returns ErrInvalidNodeID if the ID is empty or
// ErrDuplicateNodeID if it is already present.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	node := n
	g.nodes[n.ID] = &node
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// AddEdge adds an undirected edge between two existing nodes.
// Adding an edge invalidates previously applied weights.
func (g *Graph) AddEdge(e Edge) error {
	if e.ID == "" {
		return ErrInvalidEdgeID
	}
	if _, exists := g.edges[e.ID]; exists {
		return ErrDuplicateEdgeID
	}
	if _, ok := g.nodes[e.U]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.nodes[e.V]; !ok {
		return ErrUnknownNode
	}
	if e.Distance < 0 || e.Distance != e.Distance {
		return ErrNegativeDistance
	}
	edge := e
	edge.weight, edge.weighted = 0, false
	g.edges[e.ID] = &edge
	g.edgeOrder = append(g.edgeOrder, e.ID)
	g.adj[e.U] = append(g.adj[e.U], e.ID)
	if e.V != e.U {
		g.adj[e.V] = append(g.adj[e.V], e.ID)
	}
	g.ClearWeights()
	return nil
}

// Node returns the node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Edge returns the edge with the given ID and true, or nil and false.
// The returned pointer refers to the graph's edge; treat it as read-only.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// NodeIDs returns all node IDs sorted ascending.
func (g *Graph) NodeIDs() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edgeOrder))
	for i, id := range g.edgeOrder {
		out[i] = g.edges[id]
	}
	return out
}

// Incident returns the ids of edges touching the node, in insertion order.
// The returned slice must not be modified.
func (g *Graph) Incident(id string) []string { return g.adj[id] }

// Degree returns the number of edges touching the node.
func (g *Graph) Degree(id string) int { return len(g.adj[id]) }

// EdgesBetween returns every edge joining a and b, in insertion order.
func (g *Graph) EdgesBetween(a, b string) []*Edge {
	var out []*Edge
	for _, eid := range g.adj[a] {
		if e := g.edges[eid]; e.Connects(a, b) {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// WeightKey returns the key the current derived weights were computed for.
// It is the zero value when the graph is unweighted.
func (g *Graph) WeightKey() WeightKey { return g.weightKey }

// Weighted reports whether derived safety weights are present.
func (g *Graph) Weighted() bool { return !g.weightKey.IsZero() }

// ApplyWeights replaces the derived weight of every edge and stamps key.
// The map must contain exactly one entry per edge; otherwise nothing is
// written and ErrIncompleteWeights is returned.
func (g *Graph) ApplyWeights(key WeightKey, weights map[string]float64) error {
	if len(weights) != len(g.edges) {
		return ErrIncompleteWeights
	}
	for id := range weights {
		if _, ok := g.edges[id]; !ok {
			return ErrIncompleteWeights
		}
	}
	for id, w := range weights {
		e := g.edges[id]
		e.weight, e.weighted = w, true
	}
	g.weightKey = key
	return nil
}

// ClearWeights drops all derived weights.
func (g *Graph) ClearWeights() {
	for _, e := range g.edges {
		e.weight, e.weighted = 0, false
	}
	g.weightKey = WeightKey{}
}

// Clone returns a deep copy of the graph, including derived weights.
// The clone shares no mutable state with the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make(map[string]*Node, len(g.nodes)),
		nodeOrder: slices.Clone(g.nodeOrder),
		edges:     make(map[string]*Edge, len(g.edges)),
		edgeOrder: slices.Clone(g.edgeOrder),
		adj:       make(map[string][]string, len(g.adj)),
		weightKey: g.weightKey,
	}
	for id, n := range g.nodes {
		nn := *n
		c.nodes[id] = &nn
	}
	for id, e := range g.edges {
		ee := *e
		ee.Attributes = e.Attributes.Clone()
		c.edges[id] = &ee
	}
	for id, inc := range g.adj {
		c.adj[id] = slices.Clone(inc)
	}
	return c
}
