// Package algorithm defines the force-algorithm contract every
// repulsion/attraction model implements, plus a registry for selecting
// among them by id or by node-count heuristic (spec §4.2).
package algorithm

import (
	"github.com/gogpu/wgpu/hal"
)

// Descriptor is the immutable identity of an algorithm: its id/name,
// the node-count range it is recommended for, and a human-readable
// complexity class used in logs and diagnostics.
type Descriptor struct {
	ID         string
	Name       string
	MinNodes   uint32
	MaxNodes   uint32
	Complexity string
}

// RenderContext carries the shared buffers and counts an algorithm
// needs to record its repulsion pass. Algorithms hold only indices and
// counts here — the simulation package exclusively owns the underlying
// buffers (spec §3 "Ownership and lifecycle").
type RenderContext struct {
	NodeCount uint32
	EdgeCount uint32

	// Positions is the current (read) role of the ping-ponged position
	// buffer for this tick.
	Positions hal.Buffer

	// Velocities, Forces are the shared per-node buffers.
	Velocities hal.Buffer
	Forces     hal.Buffer

	// EdgeSource, EdgeTarget, EdgeWeight are the shared edge buffers,
	// valid when EdgeCount > 0.
	EdgeSource hal.Buffer
	EdgeTarget hal.Buffer
	EdgeWeight hal.Buffer

	// BoundsMinX/MinY/MaxX/MaxY describe the current frame's bounding
	// box, valid when HasBounds is true. Without it density fails with a
	// ContextError, barneshut normalizes against the box (-1,-1)-(1,1),
	// and relativity skips its density sub-passes.
	BoundsMinX, BoundsMinY, BoundsMaxX, BoundsMaxY float32
	HasBounds                                     bool
}

// SharedBuffers carries the handles an algorithm needs but that do not
// change tick to tick, separate from RenderContext's per-tick ping-pong
// buffer roles and counts. Passed once at CreateBindGroups time.
type SharedBuffers struct {
	// Queue lets an algorithm write its own uniform/auxiliary buffers
	// from UpdateUniforms without the simulation package owning them.
	Queue hal.Queue
}

// Algorithm is the uniform contract every force model implements: a
// sequence of GPU compute passes sharing the buffer protocol described
// in spec §3/§4.2.
type Algorithm interface {
	// Descriptor returns this algorithm's immutable identity.
	Descriptor() Descriptor

	// CreatePipelines compiles shaders and builds compute pipelines.
	// Called once, before the first tick.
	CreatePipelines(device hal.Device) error

	// CreateBuffers allocates this algorithm's private auxiliary
	// buffers (tree nodes, density grid, centroids, CSR copies) sized
	// for up to maxNodes nodes.
	CreateBuffers(maxNodes uint32) error

	// CreateBindGroups refreshes the buffer handles this tick's
	// RecordRepulsionPass will bind against (ctx's ping-pong role may
	// have flipped since the previous tick) and caches shared for
	// UpdateUniforms's buffer writes.
	CreateBindGroups(ctx RenderContext, shared SharedBuffers) error

	// UpdateUniforms packs and uploads this algorithm's uniform blocks
	// for the current tick.
	UpdateUniforms(ctx RenderContext) error

	// RecordRepulsionPass records this algorithm's full sequence of
	// compute passes (which may include more than repulsion proper —
	// Barnes-Hut's tree build, ForceAtlas2's attraction, etc.) into
	// encoder.
	RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error

	// HandlesGravity reports whether this algorithm applies its own
	// gravity term, so the simulation pipeline should not add a
	// separate one.
	HandlesGravity() bool

	// HandlesSprings reports whether this algorithm owns attraction,
	// so the simulation pipeline should skip the shared Hooke spring
	// pass.
	HandlesSprings() bool

	// Destroy releases all GPU resources owned by this algorithm.
	Destroy()
}
