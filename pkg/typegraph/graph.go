package typegraph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// NodeKind distinguishes object type nodes from the fact nodes drawn in the
// single-ended view.
type NodeKind int

const (
	KindObject NodeKind = iota
	KindFact
)

func (k NodeKind) String() string {
	if k == KindFact {
		return "fact"
	}
	return "object"
}

// Node is a vertex of the type graph.
type Node struct {
	ID    string
	Label string
	Kind  NodeKind
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed, optionally labeled connection between two nodes.
// From may equal To.
type Edge struct {
	From          string
	To            string
	Label         string
	Bidirectional bool
}

// Graph is a directed multigraph with insertion-ordered nodes and edges.
// Self-loops and parallel edges are allowed.
//
// The zero value is not usable; create graphs with [New].
// Graph is not safe for concurrent mutation.
type Graph struct {
	title string
	nodes map[string]*Node
	order []string
	edges []Edge
}

// New creates an empty graph. The title is carried into rendered output.
func New(title string) *Graph {
	return &Graph{
		title: title,
		nodes: make(map[string]*Node),
	}
}

// Title returns the graph title.
func (g *Graph) Title() string { return g.title }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return nil
}

// EnsureNode adds n unless a node with its ID already exists.
// It reports whether the node was added.
func (g *Graph) EnsureNode(n Node) (bool, error) {
	if g.HasNode(n.ID) {
		return false, nil
	}
	return true, g.AddNode(n)
}

// AddEdge appends a directed edge between two existing nodes.
// Both endpoints must already be present.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	return nil
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = *g.nodes[id]
	}
	return out
}

// Edges returns a copy of the edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// EdgesFrom returns the edges leaving id, in insertion order.
func (g *Graph) EdgesFrom(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Equal reports whether g and other have the same title, nodes and edges in
// the same order.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.title != other.title || !slices.Equal(g.order, other.order) || !slices.Equal(g.edges, other.edges) {
		return false
	}
	for _, id := range g.order {
		if *g.nodes[id] != *other.nodes[id] {
			return false
		}
	}
	return true
}
