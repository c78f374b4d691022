package graph

import (
	"errors"
	"testing"
)

func TestAddEdge_OutOfRange(t *testing.T) {
	g := New(2, 1)
	g.AddNode(0, 0)
	g.AddNode(1, 1)

	if err := g.AddEdge(0, 5, 1.0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("AddEdge(0,5) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestAddEdge_DefaultWeight(t *testing.T) {
	g := New(2, 1)
	g.AddNode(0, 0)
	g.AddNode(1, 1)
	if err := g.AddEdge(0, 1, 0); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if g.Edges[0].Weight != 1.0 {
		t.Errorf("default weight = %v, want 1.0", g.Edges[0].Weight)
	}
}

func TestDegrees(t *testing.T) {
	g := New(4, 4)
	for i := 0; i < 4; i++ {
		g.AddNode(float32(i), 0)
	}
	edges := [][2]uint32{{0, 1}, {1, 2}, {2, 3}}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], 1.0); err != nil {
			t.Fatal(err)
		}
	}

	deg := g.Degrees()
	want := []uint32{1, 2, 2, 1}
	for i, w := range want {
		if deg[i] != w {
			t.Errorf("deg[%d] = %d, want %d", i, deg[i], w)
		}
	}
}

func TestBounds(t *testing.T) {
	g := New(3, 0)
	g.AddNode(-5, 2)
	g.AddNode(10, -3)
	g.AddNode(0, 0)

	minX, minY, maxX, maxY, ok := g.Bounds()
	if !ok {
		t.Fatal("Bounds() ok = false, want true")
	}
	if minX != -5 || minY != -3 || maxX != 10 || maxY != 2 {
		t.Errorf("Bounds() = (%v,%v,%v,%v), want (-5,-3,10,2)", minX, minY, maxX, maxY)
	}
}

func TestBounds_Empty(t *testing.T) {
	g := New(0, 0)
	if _, _, _, _, ok := g.Bounds(); ok {
		t.Error("Bounds() on empty graph ok = true, want false")
	}
}

func TestEdgeArrays(t *testing.T) {
	g := New(2, 1)
	g.AddNode(0, 0)
	g.AddNode(1, 1)
	if err := g.AddEdge(0, 1, 2.5); err != nil {
		t.Fatal(err)
	}
	src, tgt, weight := g.EdgeArrays()
	if len(src) != 1 || src[0] != 0 || tgt[0] != 1 || weight[0] != 2.5 {
		t.Errorf("EdgeArrays() = %v %v %v", src, tgt, weight)
	}
}
