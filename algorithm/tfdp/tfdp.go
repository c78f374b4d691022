// Package tfdp implements the t-FDP layout: a repulsion term that
// decays with distance but never below a floor, and a per-edge
// attraction term combining a linear and a bounded component. The
// alpha/beta combination must satisfy a stability constraint enforced
// host-side at construction time rather than on the GPU.
package tfdp

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

//go:embed shaders/tfdp_repulsion.wgsl
var shaderRepulsion string

//go:embed shaders/tfdp_attraction.wgsl
var shaderAttraction string

// ID is this algorithm's registry key.
const ID = "tfdp"

const workgroupSize = 256

// Config holds t-FDP's tunables. Construct with NewConfig, not a bare
// struct literal, so the alpha/beta stability constraint is checked.
type Config struct {
	Strength    float32
	Gamma       float32
	MinDistance float32

	Alpha float32
	Beta  float32
}

// NewConfig validates alpha*(1+beta) < 1, the stability condition for
// t-FDP's attraction term, returning a *graphforce.ConfigError if it
// fails. There's no GPU-side equivalent check: an unstable
// configuration would just diverge silently during integration.
func NewConfig(strength, gamma, minDistance, alpha, beta float32) (Config, error) {
	if alpha*(1+beta) >= 1 {
		return Config{}, &graphforce.ConfigError{
			Field:  "tfdp.Alpha,Beta",
			Reason: fmt.Sprintf("alpha*(1+beta) must be < 1, got alpha=%v beta=%v (%v)", alpha, beta, alpha*(1+beta)),
		}
	}
	return Config{Strength: strength, Gamma: gamma, MinDistance: minDistance, Alpha: alpha, Beta: beta}, nil
}

// DefaultConfig returns conventional t-FDP parameters, pre-validated.
func DefaultConfig() Config {
	cfg, err := NewConfig(200.0, 1.0, 1.0, 0.3, 0.1)
	if err != nil {
		panic("tfdp: default config failed its own validation: " + err.Error())
	}
	return cfg
}

func init() {
	Register(algorithm.Default)
}

// Register adds tfdp to reg under ID.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns tfdp's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "t-FDP",
		MinNodes:   0,
		MaxNodes:   4999,
		Complexity: "O(N^2) per tick",
	}
}

const (
	stageRepulsion = iota
	stageAttraction
	stageCount
)

// Algorithm is the t-FDP force model.
type Algorithm struct {
	cfg Config

	device hal.Device
	queue  hal.Queue

	pipelines [stageCount]shaderutil.Pipeline

	positions  hal.Buffer
	forces     hal.Buffer
	edgeSource hal.Buffer
	edgeTarget hal.Buffer

	repulsionUniform hal.Buffer
	attractUniform   hal.Buffer

	maxNodes  uint32
	edgeCount uint32
}

// New constructs an unallocated Algorithm from a Config produced by
// NewConfig (or DefaultConfig).
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "tfdp_repulsion", WGSL: shaderRepulsion, Entries: repulsionEntries()},
		{Label: "tfdp_attraction", WGSL: shaderAttraction, Entries: attractionEntries()},
	})
	if err != nil {
		return fmt.Errorf("tfdp: create pipelines: %w", err)
	}
	a.device = device
	copy(a.pipelines[:], built)
	return nil
}

func (a *Algorithm) CreateBuffers(maxNodes uint32) error {
	a.maxNodes = maxNodes

	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

	ru, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "tfdp_repulsion_uniform", Size: 16, Usage: uniformCPU})
	if err != nil {
		return fmt.Errorf("tfdp: create repulsion uniform: %w", err)
	}
	a.repulsionUniform = ru

	au, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "tfdp_attraction_uniform", Size: 16, Usage: uniformCPU})
	if err != nil {
		a.destroyBuffers()
		return fmt.Errorf("tfdp: create attraction uniform: %w", err)
	}
	a.attractUniform = au

	return nil
}

func (a *Algorithm) destroyBuffers() {
	for _, buf := range []hal.Buffer{a.repulsionUniform, a.attractUniform} {
		if buf != nil {
			a.device.DestroyBuffer(buf)
		}
	}
}

func (a *Algorithm) CreateBindGroups(ctx algorithm.RenderContext, shared algorithm.SharedBuffers) error {
	a.positions = ctx.Positions
	a.forces = ctx.Forces
	a.edgeSource = ctx.EdgeSource
	a.edgeTarget = ctx.EdgeTarget
	a.queue = shared.Queue
	return nil
}

func (a *Algorithm) UpdateUniforms(ctx algorithm.RenderContext) error {
	a.edgeCount = ctx.EdgeCount

	rw := uniformpack.NewWriter(16)
	rw.WriteU32(ctx.NodeCount)
	rw.WriteF32(a.cfg.Strength)
	rw.WriteF32(a.cfg.Gamma)
	rw.WriteF32(a.cfg.MinDistance)
	a.queue.WriteBuffer(a.repulsionUniform, 0, rw.Bytes())

	aw := uniformpack.NewWriter(16)
	aw.WriteU32(ctx.EdgeCount)
	aw.WriteF32(a.cfg.Alpha)
	aw.WriteF32(a.cfg.Beta)
	aw.Pad(4)
	a.queue.WriteBuffer(a.attractUniform, 0, aw.Bytes())

	return nil
}

func (a *Algorithm) RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error {
	var bindGroups []hal.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			a.device.DestroyBindGroup(bg)
		}
	}()

	repBG, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "tfdp_repulsion_bg",
		Layout: a.pipelines[stageRepulsion].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.repulsionUniform),
			entry(1, a.positions),
			entry(2, a.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("tfdp: repulsion bind group: %w", err)
	}
	bindGroups = append(bindGroups, repBG)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "tfdp_repulsion"})
	pass.SetPipeline(a.pipelines[stageRepulsion].Compute)
	pass.SetBindGroup(0, repBG, nil)
	pass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	pass.End()

	attractBG, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "tfdp_attraction_bg",
		Layout: a.pipelines[stageAttraction].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.attractUniform),
			entry(1, a.positions),
			entry(2, a.edgeSource),
			entry(3, a.edgeTarget),
			entry(4, a.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("tfdp: attraction bind group: %w", err)
	}
	bindGroups = append(bindGroups, attractBG)

	attractPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "tfdp_attraction"})
	attractPass.SetPipeline(a.pipelines[stageAttraction].Compute)
	attractPass.SetBindGroup(0, attractBG, nil)
	attractPass.Dispatch(shaderutil.WorkgroupCount(a.edgeCount, workgroupSize), 1, 1)
	attractPass.End()

	return nil
}

func (a *Algorithm) HandlesGravity() bool { return false }
func (a *Algorithm) HandlesSprings() bool { return true }

func (a *Algorithm) Destroy() {
	shaderutil.DestroyPipelines(a.device, a.pipelines[:])
	a.destroyBuffers()
}

func entry(binding uint32, buf hal.Buffer) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding:  binding,
		Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: 0},
	}
}

func uniformEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageEntry(binding uint32, readOnly bool) gputypes.BindGroupLayoutEntry {
	t := gputypes.BufferBindingTypeStorage
	if readOnly {
		t = gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: t},
	}
}

func repulsionEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, false),
	}
}

func attractionEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, true),
		storageEntry(4, false),
	}
}
