package typegraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Document is the serialized form of a [Graph].
type Document struct {
	Title string         `json:"title,omitempty"`
	Nodes []NodeDocument `json:"nodes"`
	Edges []EdgeDocument `json:"edges"`
}

// NodeDocument is the serialized form of a [Node].
type NodeDocument struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Kind  string `json:"kind,omitempty"` // "fact" or empty for object types
}

// EdgeDocument is the serialized form of an [Edge].
type EdgeDocument struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Label         string `json:"label,omitempty"`
	Bidirectional bool   `json:"bidirectional,omitempty"`
}

// ToDocument converts g to its serialization format, preserving order.
func ToDocument(g *Graph) Document {
	doc := Document{
		Title: g.Title(),
		Nodes: make([]NodeDocument, 0, g.NodeCount()),
		Edges: make([]EdgeDocument, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		nd := NodeDocument{ID: n.ID, Label: n.Label}
		if n.Kind == KindFact {
			nd.Kind = KindFact.String()
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeDocument(e))
	}
	return doc
}

// FromDocument rebuilds a Graph, enforcing the same invariants as
// [Graph.AddNode] and [Graph.AddEdge].
func FromDocument(doc Document) (*Graph, error) {
	g := New(doc.Title)
	for _, nd := range doc.Nodes {
		n := Node{ID: nd.ID, Label: nd.Label}
		if nd.Kind == KindFact.String() {
			n.Kind = KindFact
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nd.ID, err)
		}
	}
	for _, ed := range doc.Edges {
		if err := g.AddEdge(Edge(ed)); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ed.From, ed.To, err)
		}
	}
	return g, nil
}

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a graph as JSON to w.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes a JSON graph from r.
func ReadGraph(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromDocument(doc)
}
