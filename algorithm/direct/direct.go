// Package direct implements brute-force O(N^2) Coulomb repulsion, the
// default algorithm for small graphs where Barnes-Hut's tree-build
// overhead outweighs its asymptotic win.
package direct

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

//go:embed shaders/direct_repulsion.wgsl
var shaderRepulsion string

// ID is this algorithm's registry key.
const ID = "direct"

// Config holds the Coulomb repulsion parameters.
type Config struct {
	Strength    float32
	MinDistance float32
}

// DefaultConfig returns conventional direct-repulsion parameters.
func DefaultConfig() Config {
	return Config{Strength: 400.0, MinDistance: 1.0}
}

func init() {
	Register(algorithm.Default)
}

// Register adds direct to reg under ID, for 0 to 4999 nodes per the
// node-count auto-selection cascade's lower tier.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns direct's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "Direct N-Squared",
		MinNodes:   0,
		MaxNodes:   4999,
		Complexity: "O(N^2) per tick",
	}
}

// Algorithm is the direct N^2 repulsion force model.
type Algorithm struct {
	cfg Config

	device hal.Device
	queue  hal.Queue

	pipeline shaderutil.Pipeline
	uniform  hal.Buffer

	positions hal.Buffer
	forces    hal.Buffer
}

// New constructs an unallocated Algorithm. Call CreatePipelines and
// CreateBuffers before CreateBindGroups/RecordRepulsionPass.
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "direct_repulsion", WGSL: shaderRepulsion, Entries: bindGroupLayoutEntries()},
	})
	if err != nil {
		return fmt.Errorf("direct: create pipelines: %w", err)
	}
	a.device = device
	a.pipeline = built[0]
	return nil
}

func (a *Algorithm) CreateBuffers(maxNodes uint32) error {
	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "direct_uniform",
		Size:  16,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("direct: create uniform buffer: %w", err)
	}
	a.uniform = buf
	return nil
}

func (a *Algorithm) CreateBindGroups(ctx algorithm.RenderContext, shared algorithm.SharedBuffers) error {
	a.positions = ctx.Positions
	a.forces = ctx.Forces
	a.queue = shared.Queue
	return nil
}

func (a *Algorithm) UpdateUniforms(ctx algorithm.RenderContext) error {
	w := uniformpack.NewWriter(uniformpack.Align16(16))
	w.WriteU32(ctx.NodeCount)
	w.WriteF32(a.cfg.Strength)
	w.WriteF32(a.cfg.MinDistance)
	w.Pad(4)
	a.queue.WriteBuffer(a.uniform, 0, w.Bytes())
	return nil
}

func (a *Algorithm) RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error {
	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "direct_repulsion_bg",
		Layout: a.pipeline.BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.uniform),
			entry(1, a.positions),
			entry(2, a.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("direct: bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "direct_repulsion"})
	pass.SetPipeline(a.pipeline.Compute)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(shaderutil.WorkgroupCount(nodeCount, 256), 1, 1)
	pass.End()
	return nil
}

func (a *Algorithm) HandlesGravity() bool { return false }
func (a *Algorithm) HandlesSprings() bool { return false }

func (a *Algorithm) Destroy() {
	shaderutil.DestroyPipelines(a.device, []shaderutil.Pipeline{a.pipeline})
	if a.uniform != nil {
		a.device.DestroyBuffer(a.uniform)
	}
}

func bindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		},
		{
			Binding:    2,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
		},
	}
}

func entry(binding uint32, buf hal.Buffer) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding:  binding,
		Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: 0},
	}
}
