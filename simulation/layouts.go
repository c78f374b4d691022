package simulation

import "github.com/gogpu/gputypes"

// configUniform is the @binding(0) uniform entry every shared stage
// declares, matching the teacher's stageBindGroupLayoutEntries idiom.
func configUniform() gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageRO(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
	}
}

func storageRW(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
	}
}

// clearBindGroupLayoutEntries matches shaders/clear_forces.wgsl:
// @binding(0) uniform config, @binding(1) storage(read_write) forces.
func clearBindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{configUniform(), storageRW(1)}
}

// springsBindGroupLayoutEntries matches shaders/springs.wgsl:
// @binding(0) uniform config
// @binding(1) storage(read) positions
// @binding(2) storage(read) edge_source
// @binding(3) storage(read) edge_target
// @binding(4) storage(read) edge_weight
// @binding(5) storage(read_write) forces (atomic)
func springsBindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		configUniform(), storageRO(1), storageRO(2), storageRO(3), storageRO(4), storageRW(5),
	}
}

// integrateBindGroupLayoutEntries matches shaders/integrate.wgsl:
// @binding(0) uniform config
// @binding(1) storage(read) forces
// @binding(2) storage(read_write) velocities
// @binding(3) storage(read_write) positions_out
// @binding(4) storage(read) positions_in
// @binding(5) storage(read) depths
// @binding(6) storage(read) pinned
func integrateBindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		configUniform(), storageRO(1), storageRW(2), storageRW(3), storageRO(4), storageRO(5), storageRO(6),
	}
}
