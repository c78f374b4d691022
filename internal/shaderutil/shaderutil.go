// Package shaderutil builds compute pipelines from WGSL source and
// keeps a small deferred-destruction queue for GPU resources that must
// outlive the frame that stops using them. Both pieces generalize the
// teacher's VelloComputeDispatcher.Init loop (one module -> bind group
// layout -> pipeline layout -> pipeline chain per stage, with cleanup
// of everything already built on a later failure) so every algorithm
// package shares one implementation instead of seven copies.
package shaderutil

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Stage describes one compute pipeline to build: a label, its WGSL
// source, and the bind group layout entries its shader's @group(0)
// bindings declare.
type Stage struct {
	Label   string
	WGSL    string
	Entries []gputypes.BindGroupLayoutEntry
}

// Pipeline bundles the resources CreatePipelines produces for a single
// Stage: the shader module, its bind group layout, pipeline layout,
// and the compiled compute pipeline. Callers keep one Pipeline per
// compute pass and pass its BindGroupLayout to their own
// CreateBindGroup calls each tick.
type Pipeline struct {
	Module         hal.ShaderModule
	BindGroupLayout hal.BindGroupLayout
	PipelineLayout hal.PipelineLayout
	Compute        hal.ComputePipeline
}

// Validate compiles src with naga and discards the result, surfacing a
// WGSL syntax or type error before any GPU resource is created. Call
// this from tests against static shader strings so malformed WGSL is
// caught without a device.
func Validate(src string) error {
	if _, err := naga.Compile(src); err != nil {
		return fmt.Errorf("shaderutil: invalid WGSL: %w", err)
	}
	return nil
}

// BuildPipelines creates one Pipeline per Stage, in order. On failure
// it destroys every resource already created for earlier stages (and
// the partially created resources of the failing stage) before
// returning, so a caller never leaks GPU objects on a failed Init.
func BuildPipelines(device hal.Device, stages []Stage) ([]Pipeline, error) {
	built := make([]Pipeline, 0, len(stages))

	destroyAll := func() {
		for _, p := range built {
			destroyPipeline(device, p)
		}
	}

	for _, stage := range stages {
		module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  stage.Label,
			Source: hal.ShaderSource{WGSL: stage.WGSL},
		})
		if err != nil {
			destroyAll()
			return nil, fmt.Errorf("shaderutil: create shader module %q: %w", stage.Label, err)
		}

		bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   stage.Label + "_bgl",
			Entries: stage.Entries,
		})
		if err != nil {
			device.DestroyShaderModule(module)
			destroyAll()
			return nil, fmt.Errorf("shaderutil: create bind group layout %q: %w", stage.Label, err)
		}

		pipelineLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            stage.Label + "_pl",
			BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
		})
		if err != nil {
			device.DestroyBindGroupLayout(bgLayout)
			device.DestroyShaderModule(module)
			destroyAll()
			return nil, fmt.Errorf("shaderutil: create pipeline layout %q: %w", stage.Label, err)
		}

		compute, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  stage.Label,
			Layout: pipelineLayout,
			Compute: hal.ComputeState{
				Module:     module,
				EntryPoint: "main",
			},
		})
		if err != nil {
			device.DestroyPipelineLayout(pipelineLayout)
			device.DestroyBindGroupLayout(bgLayout)
			device.DestroyShaderModule(module)
			destroyAll()
			return nil, fmt.Errorf("shaderutil: create compute pipeline %q: %w", stage.Label, err)
		}

		built = append(built, Pipeline{
			Module:          module,
			BindGroupLayout: bgLayout,
			PipelineLayout:  pipelineLayout,
			Compute:         compute,
		})
	}

	return built, nil
}

// DestroyPipelines releases every resource in pipelines, in reverse
// dependency order (pipeline, then pipeline layout, then bind group
// layout, then shader module). Safe to call with a nil slice.
func DestroyPipelines(device hal.Device, pipelines []Pipeline) {
	for _, p := range pipelines {
		destroyPipeline(device, p)
	}
}

func destroyPipeline(device hal.Device, p Pipeline) {
	if p.Compute != nil {
		device.DestroyComputePipeline(p.Compute)
	}
	if p.PipelineLayout != nil {
		device.DestroyPipelineLayout(p.PipelineLayout)
	}
	if p.BindGroupLayout != nil {
		device.DestroyBindGroupLayout(p.BindGroupLayout)
	}
	if p.Module != nil {
		device.DestroyShaderModule(p.Module)
	}
}

// WorkgroupCount returns the number of workgroups needed to cover
// elementCount items at the given workgroup size, rounding up.
func WorkgroupCount(elementCount, workgroupSize uint32) uint32 {
	if workgroupSize == 0 {
		return 0
	}
	return (elementCount + workgroupSize - 1) / workgroupSize
}
