// Package forceatlas2 implements Jacomy et al.'s ForceAtlas2 layout:
// degree-weighted repulsion (heavier nodes push harder), a gravity term
// pulling everything toward the origin (linear "strong" mode or
// constant-magnitude normal mode), and its own per-edge attraction pass
// — it owns springs entirely rather than delegating to the shared Hooke
// pass, since FA2's attraction formula differs from simple Hooke's law.
package forceatlas2

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

//go:embed shaders/fa2_repulsion.wgsl
var shaderRepulsion string

//go:embed shaders/fa2_attraction.wgsl
var shaderAttraction string

// ID is this algorithm's registry key.
const ID = "forceatlas2"

const workgroupSize = 256

// Config holds ForceAtlas2's tunables.
type Config struct {
	Strength    float32
	MinDistance float32

	Gravity       float32
	StrongGravity bool

	EdgeWeightInfluence float32
	LinLogMode          bool
}

// DefaultConfig returns conventional ForceAtlas2 parameters.
func DefaultConfig() Config {
	return Config{
		Strength:            200.0,
		MinDistance:         1.0,
		Gravity:             1.0,
		StrongGravity:       false,
		EdgeWeightInfluence: 1.0,
		LinLogMode:          false,
	}
}

func init() {
	Register(algorithm.Default)
}

// Register adds forceatlas2 to reg under ID.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns forceatlas2's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "ForceAtlas2",
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

// Algorithm is the ForceAtlas2 force model.
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

	// pendingDegrees/degreesDirty implement the "uploaded once,
	// amortized across ticks" contract: SetDegrees is called once after
	// a graph loads, but the queue needed to actually write the buffer
	// is only available once CreateBindGroups has run, so the upload is
	// deferred to the next UpdateUniforms call.
	pendingDegrees []uint32
	degreesDirty   bool
}

// New constructs an unallocated Algorithm. Call CreatePipelines and
// CreateBuffers before CreateBindGroups/RecordRepulsionPass.
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

// SetDegrees stages per-node total degree (in + out), as computed by
// graph.Graph.Degrees(), for upload to the GPU on the next tick. Call
// this once after loading a graph or whenever its topology changes.
func (a *Algorithm) SetDegrees(degrees []uint32) {
	a.pendingDegrees = degrees
	a.degreesDirty = true
}

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "fa2_repulsion", WGSL: shaderRepulsion, Entries: repulsionEntries()},
		{Label: "fa2_attraction", WGSL: shaderAttraction, Entries: attractionEntries()},
	})
	if err != nil {
		return fmt.Errorf("forceatlas2: create pipelines: %w", err)
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

	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "fa2_degrees", Size: degreeSize, Usage: storageRW})
	if err != nil {
		return fmt.Errorf("forceatlas2: create degree buffer: %w", err)
	}
	a.degreeBuffer = buf

	ru, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "fa2_repulsion_uniform", Size: 32, Usage: uniformCPU})
	if err != nil {
		a.destroyBuffers()
		return fmt.Errorf("forceatlas2: create repulsion uniform: %w", err)
	}
	a.repulsionUniform = ru

	au, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "fa2_attraction_uniform", Size: 16, Usage: uniformCPU})
	if err != nil {
		a.destroyBuffers()
		return fmt.Errorf("forceatlas2: create attraction uniform: %w", err)
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

	rw := uniformpack.NewWriter(32)
	rw.WriteU32(ctx.NodeCount)
	rw.WriteF32(a.cfg.Strength)
	rw.WriteF32(a.cfg.MinDistance)
	rw.WriteF32(a.cfg.Gravity)
	rw.WriteU32(boolToU32(a.cfg.StrongGravity))
	rw.Pad(12)
	a.queue.WriteBuffer(a.repulsionUniform, 0, rw.Bytes())

	aw := uniformpack.NewWriter(16)
	aw.WriteU32(ctx.EdgeCount)
	aw.WriteF32(a.cfg.EdgeWeightInfluence)
	aw.WriteU32(boolToU32(a.cfg.LinLogMode))
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
		Label:  "fa2_repulsion_bg",
		Layout: a.pipelines[stageRepulsion].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.repulsionUniform),
			entry(1, a.positions),
			entry(2, a.degreeBuffer),
			entry(3, a.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("forceatlas2: repulsion bind group: %w", err)
	}
	bindGroups = append(bindGroups, repBG)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "fa2_repulsion"})
	pass.SetPipeline(a.pipelines[stageRepulsion].Compute)
	pass.SetBindGroup(0, repBG, nil)
	pass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	pass.End()

	attractBG, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "fa2_attraction_bg",
		Layout: a.pipelines[stageAttraction].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.attractUniform),
			entry(1, a.positions),
			entry(2, a.edgeSource),
			entry(3, a.edgeTarget),
			entry(4, a.edgeWeight),
			entry(5, a.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("forceatlas2: attraction bind group: %w", err)
	}
	bindGroups = append(bindGroups, attractBG)

	attractPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "fa2_attraction"})
	attractPass.SetPipeline(a.pipelines[stageAttraction].Compute)
	attractPass.SetBindGroup(0, attractBG, nil)
	attractPass.Dispatch(shaderutil.WorkgroupCount(a.edgeCount, workgroupSize), 1, 1)
	attractPass.End()

	return nil
}

func (a *Algorithm) HandlesGravity() bool { return true }
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
		storageEntry(2, true),
		storageEntry(3, false),
	}
}

func attractionEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, true),
		storageEntry(4, true),
		storageEntry(5, false),
	}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
