// Package graph is the host-side data model for graphforce: nodes,
// edges, and the derived quantities (degrees, bounding box) that the
// simulation and algorithm packages need before any GPU work is
// recorded.
package graph

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for graph validation.
var (
	// ErrEmptyGraph is returned by operations that require at least one node.
	ErrEmptyGraph = errors.New("graph: empty graph")

	// ErrIndexOutOfRange is returned when an edge references a node index
	// outside [0, N).
	ErrIndexOutOfRange = errors.New("graph: node index out of range")
)

// Node holds per-node simulation state. Position, velocity, and force
// are packed vec2<f32> pairs matching the GPU buffer layout exactly —
// see spec §3 and §9 (packed vec2, not split-axis).
type Node struct {
	Position [2]float32
	Velocity [2]float32
	Force    [2]float32

	// Radius is an optional per-node collision/well radius. Zero means
	// "use the algorithm default".
	Radius float32

	// Depth is an optional hierarchy depth, used by depth-scaled alpha
	// in the integration pass and by Relativity Atlas mass seeding.
	Depth uint32

	// Community is an optional cluster id consumed by algorithm/community.
	Community uint32

	// Intensity is an optional per-node weight consumed by density splats.
	Intensity float32

	// Pinned fixes the node at Position with zero velocity during
	// integration, overriding the physics for this node.
	Pinned bool
}

// Edge connects Source to Target with an optional Weight (default 1.0
// when zero-valued and unset — callers that want an explicit zero weight
// should use a small epsilon instead, since zero is reserved for "unset").
type Edge struct {
	Source uint32
	Target uint32
	Weight float32
}

// Graph is the complete host-side description of a layout problem: the
// node set, the edge set, and an optional containment hierarchy encoded
// via Node.Depth plus the caller-supplied parent relation consumed by
// csr.Build.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// New creates an empty graph with the given node and edge capacity
// pre-allocated.
func New(nodeCapacity, edgeCapacity int) *Graph {
	return &Graph{
		Nodes: make([]Node, 0, nodeCapacity),
		Edges: make([]Edge, 0, edgeCapacity),
	}
}

// AddNode appends a node at the given position and returns its index.
func (g *Graph) AddNode(x, y float32) uint32 {
	idx := uint32(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{Position: [2]float32{x, y}})
	return idx
}

// AddEdge appends an edge with the given weight. A weight of 0 is
// normalized to 1.0, matching the "default 1.0" rule in spec §3.
func (g *Graph) AddEdge(source, target uint32, weight float32) error {
	n := uint32(len(g.Nodes))
	if source >= n || target >= n {
		return fmt.Errorf("%w: source=%d target=%d n=%d", ErrIndexOutOfRange, source, target, n)
	}
	if weight == 0 {
		weight = 1.0
	}
	g.Edges = append(g.Edges, Edge{Source: source, Target: target, Weight: weight})
	return nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() uint32 { return uint32(len(g.Nodes)) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() uint32 { return uint32(len(g.Edges)) }

// Degrees computes per-node total degree (in + out) from the edge list.
// This is an O(E) CPU-side pass, amortized across many GPU ticks per
// spec §4.5 ("computed CPU-side... O(E) and amortized").
func (g *Graph) Degrees() []uint32 {
	deg := make([]uint32, len(g.Nodes))
	for _, e := range g.Edges {
		deg[e.Source]++
		deg[e.Target]++
	}
	return deg
}

// Bounds computes the axis-aligned bounding box of all node positions.
// Required by algorithm/density and used by the Morton-code
// normalization step of algorithm/barneshut (which falls back to a
// fixed box without it); returns ok=false for an empty graph.
func (g *Graph) Bounds() (minX, minY, maxX, maxY float32, ok bool) {
	if len(g.Nodes) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = float32(math.Inf(1)), float32(math.Inf(1))
	maxX, maxY = float32(math.Inf(-1)), float32(math.Inf(-1))
	for _, n := range g.Nodes {
		x, y := n.Position[0], n.Position[1]
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	return minX, minY, maxX, maxY, true
}

// Positions extracts the current position buffer as a flat slice,
// suitable for simulation.Pipeline.LoadPositions.
func (g *Graph) Positions() [][2]float32 {
	out := make([][2]float32, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Position
	}
	return out
}

// EdgeArrays extracts parallel source/target/weight slices, suitable for
// simulation.Pipeline.LoadEdges.
func (g *Graph) EdgeArrays() (src, tgt []uint32, weight []float32) {
	src = make([]uint32, len(g.Edges))
	tgt = make([]uint32, len(g.Edges))
	weight = make([]float32, len(g.Edges))
	for i, e := range g.Edges {
		src[i] = e.Source
		tgt[i] = e.Target
		weight[i] = e.Weight
	}
	return src, tgt, weight
}

// Radii extracts the per-node well radius, suitable for
// algorithm/relativity's phantom-zone overlay.
func (g *Graph) Radii() []float32 {
	out := make([]float32, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Radius
	}
	return out
}

// Communities extracts the per-node community id, suitable for
// algorithm/community.
func (g *Graph) Communities() []uint32 {
	out := make([]uint32, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Community
	}
	return out
}
