package navgraph

import (
	"math"
	"testing"
)

func TestAddNodeIdempotent(t *testing.T) {
	g := New()
	g.AddNode("a", 0, 0)
	g.AddNode("a", 5, 5)
	if n := g.nodes["a"]; n.x != 5 || n.y != 5 {
		t.Errorf("expected repositioned node, got (%v, %v)", n.x, n.y)
	}
}

func TestAddEdgeNoOpOnMissingFrom(t *testing.T) {
	g := New()
	g.AddNode("b", 0, 0)
	g.AddEdge("a", "b")
	if len(g.edges["a"]) != 0 {
		t.Errorf("expected no edge recorded for missing from-node")
	}
}

func TestFindPathDirectLine(t *testing.T) {
	g := New()
	g.AddNode("a", 0, 0)
	g.AddNode("b", 10, 0)
	g.AddEdge("a", "b")

	path, ok := g.FindPath("a", "b")
	if !ok {
		t.Fatalf("expected a path")
	}
	if len(path) != 2 || path[0] != "a" || path[1] != "b" {
		t.Errorf("unexpected path: %v", path)
	}

	cost, ok := g.PathCost(path)
	if !ok {
		t.Fatalf("expected valid path cost")
	}
	if math.Abs(float64(cost-10)) > 0.01 {
		t.Errorf("expected cost 10 (Euclidean distance), got %v", cost)
	}
}

func TestFindPathPicksOptimalRoute(t *testing.T) {
	// a -> b -> d costs 10 + 10 = 20
	// a -> c -> d costs sqrt(50) + sqrt(50) ~= 14.14 (should be preferred)
	g := New()
	g.AddNode("a", 0, 0)
	g.AddNode("b", 0, 10)
	g.AddNode("c", 5, 5)
	g.AddNode("d", 10, 10)
	g.AddEdge("a", "b")
	g.AddEdge("b", "d")
	g.AddEdge("a", "c")
	g.AddEdge("c", "d")

	path, ok := g.FindPath("a", "d")
	if !ok {
		t.Fatalf("expected a path")
	}
	cost, ok := g.PathCost(path)
	if !ok {
		t.Fatalf("expected valid path cost")
	}
	want := float32(2 * math.Sqrt(50))
	if math.Abs(float64(cost-want)) > 0.01 {
		t.Errorf("expected optimal path via c/d with cost %v, got path %v with cost %v (took suboptimal route)", want, path, cost)
	}
	if path[1] != "c" {
		t.Errorf("expected optimal path through c, got %v", path)
	}
}

func TestFindPathNoRouteReturnsFalse(t *testing.T) {
	g := New()
	g.AddNode("a", 0, 0)
	g.AddNode("b", 10, 0)
	// no edge
	_, ok := g.FindPath("a", "b")
	if ok {
		t.Errorf("expected no path when disconnected")
	}
}

func TestFindPathUnknownEndpoint(t *testing.T) {
	g := New()
	g.AddNode("a", 0, 0)
	_, ok := g.FindPath("a", "ghost")
	if ok {
		t.Errorf("expected no path for unknown goal node")
	}
}
