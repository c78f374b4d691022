package simulation

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// buffers holds every GPU buffer the simulation package shares across
// algorithms: ping-pong positions, velocities, forces, edge arrays,
// per-node attributes, and the three shared uniform blocks.
type buffers struct {
	positionsA hal.Buffer
	positionsB hal.Buffer
	velocities hal.Buffer
	forces     hal.Buffer

	edgeSource hal.Buffer
	edgeTarget hal.Buffer
	edgeWeight hal.Buffer

	depths hal.Buffer
	pinned hal.Buffer

	clearUniform     hal.Buffer
	springsUniform   hal.Buffer
	integrateUniform hal.Buffer
}

// allocateBuffers creates every shared buffer sized for maxNodes
// nodes and maxEdges edges, following the teacher's table-driven
// bufSpec allocation idiom: one slice of (target, label, size, usage)
// tuples, created in a loop, with every already-created buffer
// destroyed if a later one fails.
func allocateBuffers(device hal.Device, maxNodes, maxEdges uint32) (buffers, error) {
	var b buffers

	storageRW := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	storageUpload := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

	type bufSpec struct {
		target *hal.Buffer
		label  string
		size   uint64
		usage  gputypes.BufferUsage
	}

	vec2Size := uint64(maxNodes) * 8
	scalarNodeSize := uint64(maxNodes) * 4
	edgeSize := uint64(maxEdges) * 4

	specs := []bufSpec{
		{&b.positionsA, "graphforce_positions_a", vec2Size, storageRW},
		{&b.positionsB, "graphforce_positions_b", vec2Size, storageRW},
		{&b.velocities, "graphforce_velocities", vec2Size, storageRW},
		{&b.forces, "graphforce_forces", vec2Size, storageRW},
		{&b.edgeSource, "graphforce_edge_source", edgeSize, storageUpload},
		{&b.edgeTarget, "graphforce_edge_target", edgeSize, storageUpload},
		{&b.edgeWeight, "graphforce_edge_weight", edgeSize, storageUpload},
		{&b.depths, "graphforce_depths", scalarNodeSize, storageUpload},
		{&b.pinned, "graphforce_pinned", scalarNodeSize, storageUpload},
		{&b.clearUniform, "graphforce_clear_uniform", 16, uniformCPU},
		{&b.springsUniform, "graphforce_springs_uniform", 16, uniformCPU},
		{&b.integrateUniform, "graphforce_integrate_uniform", 32, uniformCPU},
	}

	for _, s := range specs {
		size := s.size
		if size == 0 {
			size = 16 // zero-capacity buffers still need a valid GPU allocation
		}
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: s.label,
			Size:  size,
			Usage: s.usage,
		})
		if err != nil {
			b.destroy(device)
			return buffers{}, fmt.Errorf("simulation: create %s buffer: %w", s.label, err)
		}
		*s.target = buf
	}

	return b, nil
}

// destroy releases every allocated buffer. Safe to call on a
// partially-populated buffers value (nil fields are skipped), matching
// the teacher's DestroyBuffers cleanup-on-partial-init behavior.
func (b *buffers) destroy(device hal.Device) {
	for _, buf := range []hal.Buffer{
		b.positionsA, b.positionsB, b.velocities, b.forces,
		b.edgeSource, b.edgeTarget, b.edgeWeight,
		b.depths, b.pinned,
		b.clearUniform, b.springsUniform, b.integrateUniform,
	} {
		if buf != nil {
			device.DestroyBuffer(buf)
		}
	}
	*b = buffers{}
}
