// Package relativity implements the Relativity Atlas layout: a
// hierarchy-aware model for DAG-like graphs that aggregates mass
// bottom-up along a forward/inverse CSR representation of the
// containment relation, then repels each node mainly against its own
// siblings and cousins rather than the whole graph, giving O(N+E)
// behavior instead of the O(N^2) all-pairs repulsion the other models
// use. A density-field sub-pipeline runs alongside sibling repulsion to
// provide a softer, mass-independent global separation when a bounding
// box is available.
package relativity

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/algorithm/density"
	"github.com/gogpu/graphforce/csr"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

//go:embed shaders/relativity_degrees.wgsl
var shaderDegrees string

//go:embed shaders/relativity_init_mass.wgsl
var shaderInitMass string

//go:embed shaders/relativity_aggregate_mass.wgsl
var shaderAggregateMass string

//go:embed shaders/relativity_sibling_repulsion.wgsl
var shaderSiblingRepulsion string

//go:embed shaders/relativity_gravity.wgsl
var shaderGravity string

//go:embed shaders/relativity_attraction.wgsl
var shaderAttraction string

// ID is this algorithm's registry key.
const ID = "relativity"

const workgroupSize = 256

// Config holds Relativity Atlas's tunables.
type Config struct {
	BaseMass       float32
	MassIterations uint32

	TangentialMult     float32
	KRepulsion         float32
	MinDistance        float32
	DefaultWellRadius  float32
	Gravity            float32

	Density density.Config
}

// DefaultConfig returns conventional Relativity Atlas parameters,
// including the default 10-round mass aggregation and a default
// density sub-pipeline grid.
func DefaultConfig() Config {
	return Config{
		BaseMass:          1.0,
		MassIterations:    10,
		TangentialMult:    2.0,
		KRepulsion:        200.0,
		MinDistance:       1.0,
		DefaultWellRadius: 1.0,
		Gravity:           1.0,
		Density:           density.DefaultConfig(),
	}
}

func init() {
	Register(algorithm.Default)
}

// Register adds relativity to reg under ID.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns Relativity Atlas's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "Relativity Atlas",
		MinNodes:   0,
		MaxNodes:   0,
		Complexity: "O(N + E) per tick",
	}
}

const (
	stageDegrees = iota
	stageInitMass
	stageAggregateMass
	stageSiblingRepulsion
	stageGravity
	stageAttraction
	stageCount
)

// Algorithm is the Relativity Atlas force model.
type Algorithm struct {
	cfg Config

	device hal.Device
	queue  hal.Queue

	pipelines [stageCount]shaderutil.Pipeline
	dens      *density.Algorithm

	positions  hal.Buffer
	forces     hal.Buffer
	edgeSource hal.Buffer
	edgeTarget hal.Buffer

	totalDegree hal.Buffer
	isLeaf      hal.Buffer
	massA       hal.Buffer
	massB       hal.Buffer
	convergence hal.Buffer
	wellRadii   hal.Buffer
	hierarchy   *csr.Buffers

	degreesUniform  hal.Buffer
	initMassUniform hal.Buffer
	aggregateUniform hal.Buffer
	siblingUniform  hal.Buffer
	gravityUniform  hal.Buffer
	attractUniform  hal.Buffer

	maxNodes  uint32
	edgeCount uint32
	hasBounds bool

	// pendingHierarchy/hierarchyDirty mirror forceatlas2's SetDegrees
	// staging: the forward/inverse CSR pair is supplied once after a
	// graph loads, but uploading it requires the device and queue that
	// only become available once CreateBindGroups has run.
	pendingHierarchy csr.Pair
	hierarchyDirty   bool

	pendingWellRadii []float32
	wellRadiiDirty   bool
}

// New constructs an unallocated Algorithm. Call CreatePipelines and
// CreateBuffers before CreateBindGroups/RecordRepulsionPass.
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg, dens: density.New(cfg.Density)}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

// SetHierarchy stages the forward/inverse CSR pair describing the
// containment relation (built with csr.Build from the graph's parent
// edges) for upload on the next tick. Call this once after loading a
// graph or whenever its hierarchy changes.
func (a *Algorithm) SetHierarchy(pair csr.Pair) {
	a.pendingHierarchy = pair
	a.hierarchyDirty = true
}

// SetWellRadii stages per-node well radii, as computed by
// graph.Graph.Radii(), for upload on the next tick. A zero radius falls
// back to Config.DefaultWellRadius in the shader.
func (a *Algorithm) SetWellRadii(radii []float32) {
	a.pendingWellRadii = radii
	a.wellRadiiDirty = true
}

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "relativity_degrees", WGSL: shaderDegrees, Entries: degreesEntries()},
		{Label: "relativity_init_mass", WGSL: shaderInitMass, Entries: initMassEntries()},
		{Label: "relativity_aggregate_mass", WGSL: shaderAggregateMass, Entries: aggregateEntries()},
		{Label: "relativity_sibling_repulsion", WGSL: shaderSiblingRepulsion, Entries: siblingEntries()},
		{Label: "relativity_gravity", WGSL: shaderGravity, Entries: gravityEntries()},
		{Label: "relativity_attraction", WGSL: shaderAttraction, Entries: attractionEntries()},
	})
	if err != nil {
		return fmt.Errorf("relativity: create pipelines: %w", err)
	}
	a.device = device
	copy(a.pipelines[:], built)

	if err := a.dens.CreatePipelines(device); err != nil {
		shaderutil.DestroyPipelines(device, a.pipelines[:])
		return fmt.Errorf("relativity: create density sub-pipelines: %w", err)
	}
	return nil
}

func (a *Algorithm) CreateBuffers(maxNodes uint32) error {
	a.maxNodes = maxNodes

	storageRW := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

	u32Size := uint64(maxNodes) * 4
	f32Size := uint64(maxNodes) * 4
	if u32Size == 0 {
		u32Size = 16
	}
	if f32Size == 0 {
		f32Size = 16
	}

	bufs := []struct {
		target *hal.Buffer
		label  string
		size   uint64
	}{
		{&a.totalDegree, "relativity_total_degree", u32Size},
		{&a.isLeaf, "relativity_is_leaf", u32Size},
		{&a.massA, "relativity_mass_a", f32Size},
		{&a.massB, "relativity_mass_b", f32Size},
		{&a.convergence, "relativity_convergence", 4},
		{&a.wellRadii, "relativity_well_radii", f32Size},
		{&a.degreesUniform, "relativity_degrees_uniform", 16},
		{&a.initMassUniform, "relativity_init_mass_uniform", 16},
		{&a.aggregateUniform, "relativity_aggregate_uniform", 16},
		{&a.siblingUniform, "relativity_sibling_uniform", 32},
		{&a.gravityUniform, "relativity_gravity_uniform", 16},
		{&a.attractUniform, "relativity_attract_uniform", 16},
	}
	for _, b := range bufs {
		usage := storageRW
		if b.label == "relativity_degrees_uniform" || b.label == "relativity_init_mass_uniform" ||
			b.label == "relativity_aggregate_uniform" || b.label == "relativity_sibling_uniform" ||
			b.label == "relativity_gravity_uniform" || b.label == "relativity_attract_uniform" {
			usage = uniformCPU
		}
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: b.label, Size: b.size, Usage: usage})
		if err != nil {
			a.destroyBuffers()
			return fmt.Errorf("relativity: create %s: %w", b.label, err)
		}
		*b.target = buf
	}

	if err := a.dens.CreateBuffers(maxNodes); err != nil {
		a.destroyBuffers()
		return fmt.Errorf("relativity: create density sub-buffers: %w", err)
	}

	return nil
}

func (a *Algorithm) destroyBuffers() {
	bufs := []hal.Buffer{
		a.totalDegree, a.isLeaf, a.massA, a.massB, a.convergence, a.wellRadii,
		a.degreesUniform, a.initMassUniform, a.aggregateUniform,
		a.siblingUniform, a.gravityUniform, a.attractUniform,
	}
	for _, buf := range bufs {
		if buf != nil {
			a.device.DestroyBuffer(buf)
		}
	}
	a.hierarchy.Destroy(a.device)
	a.hierarchy = nil
}

func (a *Algorithm) CreateBindGroups(ctx algorithm.RenderContext, shared algorithm.SharedBuffers) error {
	a.positions = ctx.Positions
	a.forces = ctx.Forces
	a.edgeSource = ctx.EdgeSource
	a.edgeTarget = ctx.EdgeTarget
	a.queue = shared.Queue

	if err := a.dens.CreateBindGroups(ctx, shared); err != nil {
		return fmt.Errorf("relativity: density sub-bind-groups: %w", err)
	}
	return nil
}

func (a *Algorithm) UpdateUniforms(ctx algorithm.RenderContext) error {
	a.edgeCount = ctx.EdgeCount
	a.hasBounds = ctx.HasBounds

	if a.hierarchyDirty {
		a.hierarchy.Destroy(a.device)
		buf, err := csr.Upload(a.device, a.queue, a.pendingHierarchy, ctx.NodeCount)
		if err != nil {
			return fmt.Errorf("relativity: upload hierarchy: %w", err)
		}
		a.hierarchy = buf
		a.hierarchyDirty = false
	}

	if a.wellRadiiDirty {
		w := uniformpack.NewWriter(len(a.pendingWellRadii) * 4)
		for _, r := range a.pendingWellRadii {
			w.WriteF32(r)
		}
		a.queue.WriteBuffer(a.wellRadii, 0, w.Bytes())
		a.wellRadiiDirty = false
	}

	dw := uniformpack.NewWriter(16)
	dw.WriteU32(ctx.NodeCount)
	dw.Pad(12)
	a.queue.WriteBuffer(a.degreesUniform, 0, dw.Bytes())

	iw := uniformpack.NewWriter(16)
	iw.WriteU32(ctx.NodeCount)
	iw.WriteF32(a.cfg.BaseMass)
	iw.Pad(8)
	a.queue.WriteBuffer(a.initMassUniform, 0, iw.Bytes())

	aw := uniformpack.NewWriter(16)
	aw.WriteU32(ctx.NodeCount)
	aw.Pad(12)
	a.queue.WriteBuffer(a.aggregateUniform, 0, aw.Bytes())

	sw := uniformpack.NewWriter(32)
	sw.WriteU32(ctx.NodeCount)
	sw.WriteF32(a.cfg.TangentialMult)
	sw.WriteF32(a.cfg.KRepulsion)
	sw.WriteF32(a.cfg.MinDistance)
	sw.WriteF32(a.cfg.DefaultWellRadius)
	sw.Pad(12)
	a.queue.WriteBuffer(a.siblingUniform, 0, sw.Bytes())

	gw := uniformpack.NewWriter(16)
	gw.WriteU32(ctx.NodeCount)
	gw.WriteF32(a.cfg.Gravity)
	gw.Pad(8)
	a.queue.WriteBuffer(a.gravityUniform, 0, gw.Bytes())

	tw := uniformpack.NewWriter(16)
	tw.WriteU32(ctx.EdgeCount)
	tw.Pad(12)
	a.queue.WriteBuffer(a.attractUniform, 0, tw.Bytes())

	if ctx.HasBounds {
		if err := a.dens.UpdateUniforms(ctx); err != nil {
			return fmt.Errorf("relativity: density sub-uniforms: %w", err)
		}
	}

	return nil
}

// RecordRepulsionPass requires SetHierarchy to have been called at
// least once before the first tick (a.hierarchy is nil otherwise); a
// graph with no hierarchy at all degenerates gracefully since every
// node then has no parent and the sibling_repulsion pass skips it.
func (a *Algorithm) RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error {
	if a.hierarchy == nil {
		return fmt.Errorf("relativity: RecordRepulsionPass called before SetHierarchy")
	}

	var bindGroups []hal.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			a.device.DestroyBindGroup(bg)
		}
	}()

	mk := func(label string, layout hal.BindGroupLayout, entries []gputypes.BindGroupEntry) (hal.BindGroup, error) {
		bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{Label: label, Layout: layout, Entries: entries})
		if err != nil {
			return nil, fmt.Errorf("relativity: %s bind group: %w", label, err)
		}
		bindGroups = append(bindGroups, bg)
		return bg, nil
	}

	degBG, err := mk("relativity_degrees_bg", a.pipelines[stageDegrees].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.degreesUniform),
		entry(1, a.hierarchy.ForwardOffsets),
		entry(2, a.hierarchy.InverseOffsets),
		entry(3, a.totalDegree),
		entry(4, a.isLeaf),
	})
	if err != nil {
		return err
	}
	degPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "relativity_degrees"})
	degPass.SetPipeline(a.pipelines[stageDegrees].Compute)
	degPass.SetBindGroup(0, degBG, nil)
	degPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	degPass.End()

	initBG, err := mk("relativity_init_mass_bg", a.pipelines[stageInitMass].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.initMassUniform),
		entry(1, a.totalDegree),
		entry(2, a.isLeaf),
		entry(3, a.massA),
	})
	if err != nil {
		return err
	}
	initPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "relativity_init_mass"})
	initPass.SetPipeline(a.pipelines[stageInitMass].Compute)
	initPass.SetBindGroup(0, initBG, nil)
	initPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	initPass.End()

	finalMass := a.massA
	iterations := a.cfg.MassIterations
	if iterations == 0 {
		iterations = 1
	}
	for i := uint32(0); i < iterations; i++ {
		readBuf, writeBuf := a.massA, a.massB
		if i%2 == 1 {
			readBuf, writeBuf = a.massB, a.massA
		}
		finalMass = writeBuf

		aggBG, err := mk(fmt.Sprintf("relativity_aggregate_bg_%d", i), a.pipelines[stageAggregateMass].BindGroupLayout, []gputypes.BindGroupEntry{
			entry(0, a.aggregateUniform),
			entry(1, a.hierarchy.ForwardOffsets),
			entry(2, a.hierarchy.ForwardIndices),
			entry(3, readBuf),
			entry(4, writeBuf),
			entry(5, a.convergence),
		})
		if err != nil {
			return err
		}
		aggPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "relativity_aggregate_mass"})
		aggPass.SetPipeline(a.pipelines[stageAggregateMass].Compute)
		aggPass.SetBindGroup(0, aggBG, nil)
		aggPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
		aggPass.End()
	}

	sibBG, err := mk("relativity_sibling_bg", a.pipelines[stageSiblingRepulsion].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.siblingUniform),
		entry(1, a.positions),
		entry(2, finalMass),
		entry(3, a.wellRadii),
		entry(4, a.hierarchy.InverseOffsets),
		entry(5, a.hierarchy.InverseIndices),
		entry(6, a.hierarchy.ForwardOffsets),
		entry(7, a.hierarchy.ForwardIndices),
		entry(8, a.forces),
	})
	if err != nil {
		return err
	}
	sibPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "relativity_sibling_repulsion"})
	sibPass.SetPipeline(a.pipelines[stageSiblingRepulsion].Compute)
	sibPass.SetBindGroup(0, sibBG, nil)
	sibPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	sibPass.End()

	if a.hasBounds {
		if err := a.dens.RecordRepulsionPass(encoder, nodeCount); err != nil {
			return fmt.Errorf("relativity: density sub-pass: %w", err)
		}
	}

	gravBG, err := mk("relativity_gravity_bg", a.pipelines[stageGravity].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.gravityUniform),
		entry(1, a.positions),
		entry(2, finalMass),
		entry(3, a.forces),
	})
	if err != nil {
		return err
	}
	gravPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "relativity_gravity"})
	gravPass.SetPipeline(a.pipelines[stageGravity].Compute)
	gravPass.SetBindGroup(0, gravBG, nil)
	gravPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	gravPass.End()

	attractBG, err := mk("relativity_attraction_bg", a.pipelines[stageAttraction].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.attractUniform),
		entry(1, a.positions),
		entry(2, a.edgeSource),
		entry(3, a.edgeTarget),
		entry(4, a.forces),
	})
	if err != nil {
		return err
	}
	attractPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "relativity_attraction"})
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
	a.dens.Destroy()
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

func degreesEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, false),
		storageEntry(4, false),
	}
}

func initMassEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, false),
	}
}

func aggregateEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, true),
		storageEntry(4, false),
		storageEntry(5, false),
	}
}

func siblingEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, true),
		storageEntry(4, true),
		storageEntry(5, true),
		storageEntry(6, true),
		storageEntry(7, true),
		storageEntry(8, false),
	}
}

func gravityEntries() []gputypes.BindGroupLayoutEntry {
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
		storageEntry(4, false),
	}
}
