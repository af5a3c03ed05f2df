package typegraph

import (
	"errors"
	"testing"
)

func TestGraphAddNode(t *testing.T) {
	g := New("test")

	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate AddNode err = %v, want ErrDuplicateNodeID", err)
	}
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty AddNode err = %v, want ErrInvalidNodeID", err)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestGraphEnsureNode(t *testing.T) {
	g := New("test")

	added, err := g.EnsureNode(Node{ID: "a"})
	if err != nil || !added {
		t.Fatalf("EnsureNode first = %v, %v; want true, nil", added, err)
	}
	added, err = g.EnsureNode(Node{ID: "a", Label: "other"})
	if err != nil || added {
		t.Fatalf("EnsureNode second = %v, %v; want false, nil", added, err)
	}
	if n, _ := g.Node("a"); n.Label != "" {
		t.Error("EnsureNode must not overwrite an existing node")
	}
}

func TestGraphAddEdgeRequiresEndpoints(t *testing.T) {
	g := New("test")
	_ = g.AddNode(Node{ID: "a"})

	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("err = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("err = %v, want ErrUnknownTargetNode", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "a", Label: "self"}); err != nil {
		t.Errorf("self-loop: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestGraphEdgesReturnsCopy(t *testing.T) {
	g := New("test")
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddEdge(Edge{From: "a", To: "a"})

	edges := g.Edges()
	edges[0].Label = "mutated"
	if g.Edges()[0].Label != "" {
		t.Error("Edges() should return a copy")
	}
}

func TestGraphEdgesFrom(t *testing.T) {
	g := New("test")
	for _, id := range []string{"a", "b", "c"} {
		_ = g.AddNode(Node{ID: id})
	}
	_ = g.AddEdge(Edge{From: "a", To: "b", Label: "1"})
	_ = g.AddEdge(Edge{From: "b", To: "c", Label: "2"})
	_ = g.AddEdge(Edge{From: "a", To: "c", Label: "3"})

	out := g.EdgesFrom("a")
	if len(out) != 2 || out[0].Label != "1" || out[1].Label != "3" {
		t.Errorf("EdgesFrom(a) = %v", out)
	}
	if len(g.EdgesFrom("c")) != 0 {
		t.Error("EdgesFrom(c) should be empty")
	}
}

func TestGraphEqual(t *testing.T) {
	build := func(label string) *Graph {
		g := New("t")
		_ = g.AddNode(Node{ID: "a"})
		_ = g.AddNode(Node{ID: "b"})
		_ = g.AddEdge(Edge{From: "a", To: "b", Label: label})
		return g
	}

	if !build("x").Equal(build("x")) {
		t.Error("identical graphs should be equal")
	}
	if build("x").Equal(build("y")) {
		t.Error("graphs with different edge labels should differ")
	}

	var nilGraph *Graph
	if nilGraph.Equal(build("x")) {
		t.Error("nil graph should not equal a non-nil graph")
	}
}
