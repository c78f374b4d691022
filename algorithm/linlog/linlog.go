// Package linlog implements the LinLog energy model's repulsion term:
// the same degree-weighted repulsion as ForceAtlas2, left paired with
// the shared Hooke's-law spring pass for attraction rather than a
// dedicated logarithmic one (that shader is compiled and kept around,
// not deleted, for a caller that wants it instead).
package linlog

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

//go:embed shaders/linlog_repulsion.wgsl
var shaderRepulsion string

//go:embed shaders/linlog_attract.wgsl
var shaderAttract string

// ID is this algorithm's registry key.
const ID = "linlog"

const workgroupSize = 256

// Config holds LinLog's tunables.
type Config struct {
	Strength    float32
	MinDistance float32

	// AttractionStrength only matters if a caller invokes the
	// compiled-but-unused logarithmic attraction pass directly; the
	// shared spring pass ignores it entirely.
	AttractionStrength float32
}

// DefaultConfig returns conventional LinLog parameters.
func DefaultConfig() Config {
	return Config{Strength: 200.0, MinDistance: 1.0, AttractionStrength: 1.0}
}

func init() {
	Register(algorithm.Default)
}

// Register adds linlog to reg under ID.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns linlog's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "LinLog",
		MinNodes:   0,
		MaxNodes:   4999,
		Complexity: "O(N^2) per tick",
	}
}

const (
	stageRepulsion = iota
	stageAttract
	stageCount
)

// Algorithm is the LinLog repulsion model.
type Algorithm struct {
	cfg Config

	device hal.Device
	queue  hal.Queue

	pipelines [stageCount]shaderutil.Pipeline

	positions  hal.Buffer
	forces     hal.Buffer
	edgeSource hal.Buffer
	edgeTarget hal.Buffer
	edgeWeight hal.Buffer

	degreeBuffer     hal.Buffer
	repulsionUniform hal.Buffer
	attractUniform   hal.Buffer

	maxNodes  uint32
	edgeCount uint32

	pendingDegrees []uint32
	degreesDirty   bool
}

// New constructs an unallocated Algorithm.
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

// SetDegrees stages per-node total degree for upload on the next tick,
// same deferred-upload contract as forceatlas2.Algorithm.SetDegrees.
func (a *Algorithm) SetDegrees(degrees []uint32) {
	a.pendingDegrees = degrees
	a.degreesDirty = true
}

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "linlog_repulsion", WGSL: shaderRepulsion, Entries: repulsionEntries()},
		{Label: "linlog_attract", WGSL: shaderAttract, Entries: attractEntries()},
	})
	if err != nil {
		return fmt.Errorf("linlog: create pipelines: %w", err)
	}
	a.device = device
	copy(a.pipelines[:], built)
	return nil
}

func (a *Algorithm) CreateBuffers(maxNodes uint32) error {
	a.maxNodes = maxNodes

	storageRW := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

	degreeSize := uint64(maxNodes) * 4
	if degreeSize == 0 {
		degreeSize = 16
	}

	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "linlog_degrees", Size: degreeSize, Usage: storageRW})
	if err != nil {
		return fmt.Errorf("linlog: create degree buffer: %w", err)
	}
	a.degreeBuffer = buf

	ru, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "linlog_repulsion_uniform", Size: 16, Usage: uniformCPU})
	if err != nil {
		a.destroyBuffers()
		return fmt.Errorf("linlog: create repulsion uniform: %w", err)
	}
	a.repulsionUniform = ru

	au, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "linlog_attract_uniform", Size: 16, Usage: uniformCPU})
	if err != nil {
		a.destroyBuffers()
		return fmt.Errorf("linlog: create attract uniform: %w", err)
	}
	a.attractUniform = au

	return nil
}

func (a *Algorithm) destroyBuffers() {
	for _, buf := range []hal.Buffer{a.degreeBuffer, a.repulsionUniform, a.attractUniform} {
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
	a.edgeWeight = ctx.EdgeWeight
	a.queue = shared.Queue
	return nil
}

func (a *Algorithm) UpdateUniforms(ctx algorithm.RenderContext) error {
	a.edgeCount = ctx.EdgeCount

	if a.degreesDirty {
		w := uniformpack.NewWriter(len(a.pendingDegrees) * 4)
		for _, d := range a.pendingDegrees {
			w.WriteF32(float32(d))
		}
		a.queue.WriteBuffer(a.degreeBuffer, 0, w.Bytes())
		a.degreesDirty = false
	}

	rw := uniformpack.NewWriter(16)
	rw.WriteU32(ctx.NodeCount)
	rw.WriteF32(a.cfg.Strength)
	rw.WriteF32(a.cfg.MinDistance)
	rw.Pad(4)
	a.queue.WriteBuffer(a.repulsionUniform, 0, rw.Bytes())

	aw := uniformpack.NewWriter(16)
	aw.WriteU32(ctx.EdgeCount)
	aw.WriteF32(a.cfg.AttractionStrength)
	aw.Pad(8)
	a.queue.WriteBuffer(a.attractUniform, 0, aw.Bytes())

	return nil
}

// RecordRepulsionPass dispatches only linlog_repulsion.wgsl. The
// logarithmic attraction pipeline built in CreatePipelines is
// deliberately not dispatched here; attraction comes from the shared
// spring pass in simulation instead, since HandlesSprings() is false.
func (a *Algorithm) RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error {
	var bindGroups []hal.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			a.device.DestroyBindGroup(bg)
		}
	}()

	repBG, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "linlog_repulsion_bg",
		Layout: a.pipelines[stageRepulsion].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.repulsionUniform),
			entry(1, a.positions),
			entry(2, a.degreeBuffer),
			entry(3, a.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("linlog: repulsion bind group: %w", err)
	}
	bindGroups = append(bindGroups, repBG)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "linlog_repulsion"})
	pass.SetPipeline(a.pipelines[stageRepulsion].Compute)
	pass.SetBindGroup(0, repBG, nil)
	pass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	pass.End()

	return nil
}

func (a *Algorithm) HandlesGravity() bool { return false }
func (a *Algorithm) HandlesSprings() bool { return false }

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
		storageEntry(2, true),
		storageEntry(3, false),
	}
}

func attractEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, true),
		storageEntry(4, true),
		storageEntry(5, false),
	}
}
