// Package density implements the density-field repulsion model: nodes
// splat a Gaussian footprint onto a uniform grid, and each node is then
// pushed down the resulting density gradient. Attraction is left to the
// shared Hooke spring pass.
package density

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/fixedpoint"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

//go:embed shaders/density_clear_grid.wgsl
var shaderClearGrid string

//go:embed shaders/density_accumulate.wgsl
var shaderAccumulate string

//go:embed shaders/density_apply_forces.wgsl
var shaderApplyForces string

// ID is this algorithm's registry key.
const ID = "density"

const workgroupSize = 256

// MaxGridDimension is the hard cap on grid width/height: 512x512 cells.
const MaxGridDimension = 512

// Config holds density field tunables. Construct with NewConfig to
// enforce the grid resolution cap.
type Config struct {
	GridWidth, GridHeight uint32
	SplatRadiusCells      uint32
	WellRadiusCells       float32
	KRepulsion            float32
}

// NewConfig validates gridWidth/gridHeight against MaxGridDimension,
// returning a *graphforce.ConfigError above the cap.
func NewConfig(gridWidth, gridHeight, splatRadiusCells uint32, wellRadiusCells, kRepulsion float32) (Config, error) {
	if gridWidth > MaxGridDimension || gridHeight > MaxGridDimension {
		return Config{}, &graphforce.ConfigError{
			Field:  "density.GridWidth,GridHeight",
			Reason: fmt.Sprintf("grid %dx%d exceeds the %dx%d cap", gridWidth, gridHeight, MaxGridDimension, MaxGridDimension),
		}
	}
	return Config{
		GridWidth: gridWidth, GridHeight: gridHeight,
		SplatRadiusCells: splatRadiusCells, WellRadiusCells: wellRadiusCells,
		KRepulsion: kRepulsion,
	}, nil
}

// DefaultConfig returns a 128x128 grid with conventional tunables.
func DefaultConfig() Config {
	cfg, err := NewConfig(128, 128, 2, 1.5, 300.0)
	if err != nil {
		panic("density: default config failed its own validation: " + err.Error())
	}
	return cfg
}

func init() {
	Register(algorithm.Default)
}

// Register adds density to reg under ID.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns density's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "Density Field",
		MinNodes:   50001,
		MaxNodes:   0,
		Complexity: "O(N * splat area + grid cells) per tick",
	}
}

const (
	stageClearGrid = iota
	stageAccumulate
	stageApplyForces
	stageCount
)

// Algorithm is the density-field repulsion model.
type Algorithm struct {
	cfg Config

	device hal.Device
	queue  hal.Queue

	pipelines [stageCount]shaderutil.Pipeline

	positions hal.Buffer
	forces    hal.Buffer

	densityGrid hal.Buffer

	clearUniform      hal.Buffer
	accumulateUniform hal.Buffer
	applyUniform      hal.Buffer

	maxNodes  uint32
	hasBounds bool
}

// New constructs an unallocated Algorithm from a Config produced by
// NewConfig (or DefaultConfig).
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "density_clear_grid", WGSL: shaderClearGrid, Entries: clearGridEntries()},
		{Label: "density_accumulate", WGSL: shaderAccumulate, Entries: accumulateEntries()},
		{Label: "density_apply_forces", WGSL: shaderApplyForces, Entries: applyForcesEntries()},
	})
	if err != nil {
		return fmt.Errorf("density: create pipelines: %w", err)
	}
	a.device = device
	copy(a.pipelines[:], built)
	return nil
}

func (a *Algorithm) CreateBuffers(maxNodes uint32) error {
	a.maxNodes = maxNodes

	storageRW := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

	cellCount := uint64(a.cfg.GridWidth) * uint64(a.cfg.GridHeight)
	gridBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: "density_grid", Size: cellCount * 4, Usage: storageRW})
	if err != nil {
		return fmt.Errorf("density: create grid buffer: %w", err)
	}
	a.densityGrid = gridBuf

	specs := []struct {
		target *hal.Buffer
		label  string
		size   uint64
	}{
		{&a.clearUniform, "density_clear_uniform", 16},
		{&a.accumulateUniform, "density_accumulate_uniform", 48},
		{&a.applyUniform, "density_apply_uniform", 48},
	}
	for _, s := range specs {
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: s.label, Size: s.size, Usage: uniformCPU})
		if err != nil {
			a.destroyBuffers()
			return fmt.Errorf("density: create %s: %w", s.label, err)
		}
		*s.target = buf
	}

	return nil
}

func (a *Algorithm) destroyBuffers() {
	for _, buf := range []hal.Buffer{a.densityGrid, a.clearUniform, a.accumulateUniform, a.applyUniform} {
		if buf != nil {
			a.device.DestroyBuffer(buf)
		}
	}
}

func (a *Algorithm) CreateBindGroups(ctx algorithm.RenderContext, shared algorithm.SharedBuffers) error {
	a.positions = ctx.Positions
	a.forces = ctx.Forces
	a.queue = shared.Queue
	return nil
}

func (a *Algorithm) UpdateUniforms(ctx algorithm.RenderContext) error {
	a.hasBounds = ctx.HasBounds
	if !ctx.HasBounds {
		// RecordRepulsionPass raises the fatal ContextError; nothing
		// here would be read anyway, so skip writing uniforms this tick.
		return nil
	}

	cw := uniformpack.NewWriter(16)
	cw.WriteU32(a.cfg.GridWidth * a.cfg.GridHeight)
	cw.Pad(12)
	a.queue.WriteBuffer(a.clearUniform, 0, cw.Bytes())

	aw := uniformpack.NewWriter(48)
	aw.WriteU32(ctx.NodeCount)
	aw.WriteU32(a.cfg.GridWidth)
	aw.WriteU32(a.cfg.GridHeight)
	aw.WriteU32(a.cfg.SplatRadiusCells)
	aw.WriteF32(a.cfg.WellRadiusCells)
	aw.WriteF32(ctx.BoundsMinX)
	aw.WriteF32(ctx.BoundsMinY)
	aw.WriteF32(ctx.BoundsMaxX)
	aw.WriteF32(ctx.BoundsMaxY)
	aw.WriteF32(float32(fixedpoint.DensityScale))
	aw.Pad(8)
	a.queue.WriteBuffer(a.accumulateUniform, 0, aw.Bytes())

	pw := uniformpack.NewWriter(48)
	pw.WriteU32(ctx.NodeCount)
	pw.WriteU32(a.cfg.GridWidth)
	pw.WriteU32(a.cfg.GridHeight)
	pw.WriteF32(a.cfg.KRepulsion)
	pw.WriteF32(ctx.BoundsMinX)
	pw.WriteF32(ctx.BoundsMinY)
	pw.WriteF32(ctx.BoundsMaxX)
	pw.WriteF32(ctx.BoundsMaxY)
	pw.WriteF32(float32(fixedpoint.DensityScale))
	pw.Pad(12)
	a.queue.WriteBuffer(a.applyUniform, 0, pw.Bytes())

	return nil
}

// RecordRepulsionPass requires bounds to have been present on the most
// recent UpdateUniforms call; density can't map positions onto a grid
// without a bounding box. Since the shared Algorithm.RecordRepulsionPass
// signature doesn't carry RenderContext, UpdateUniforms (which does)
// caches HasBounds onto a.hasBounds ahead of time, relying on the
// established per-tick ordering contract (UpdateUniforms always runs
// before RecordRepulsionPass). Missing bounds is a fatal
// *graphforce.ContextError raised before any pass is recorded, not a
// silently skipped tick.
func (a *Algorithm) RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error {
	if !a.hasBounds {
		return &graphforce.ContextError{Op: "density.RecordRepulsionPass", Reason: "missing required bounds for density field"}
	}

	var bindGroups []hal.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			a.device.DestroyBindGroup(bg)
		}
	}()

	cellCount := a.cfg.GridWidth * a.cfg.GridHeight

	clearBG, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "density_clear_bg",
		Layout: a.pipelines[stageClearGrid].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.clearUniform),
			entry(1, a.densityGrid),
		},
	})
	if err != nil {
		return fmt.Errorf("density: clear bind group: %w", err)
	}
	bindGroups = append(bindGroups, clearBG)

	clearPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "density_clear_grid"})
	clearPass.SetPipeline(a.pipelines[stageClearGrid].Compute)
	clearPass.SetBindGroup(0, clearBG, nil)
	clearPass.Dispatch(shaderutil.WorkgroupCount(cellCount, workgroupSize), 1, 1)
	clearPass.End()

	accBG, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "density_accumulate_bg",
		Layout: a.pipelines[stageAccumulate].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.accumulateUniform),
			entry(1, a.positions),
			entry(2, a.densityGrid),
		},
	})
	if err != nil {
		return fmt.Errorf("density: accumulate bind group: %w", err)
	}
	bindGroups = append(bindGroups, accBG)

	accPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "density_accumulate"})
	accPass.SetPipeline(a.pipelines[stageAccumulate].Compute)
	accPass.SetBindGroup(0, accBG, nil)
	accPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	accPass.End()

	applyBG, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "density_apply_bg",
		Layout: a.pipelines[stageApplyForces].BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			entry(0, a.applyUniform),
			entry(1, a.positions),
			entry(2, a.densityGrid),
			entry(3, a.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("density: apply bind group: %w", err)
	}
	bindGroups = append(bindGroups, applyBG)

	applyPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "density_apply_forces"})
	applyPass.SetPipeline(a.pipelines[stageApplyForces].Compute)
	applyPass.SetBindGroup(0, applyBG, nil)
	applyPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	applyPass.End()

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

func clearGridEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, false),
	}
}

func accumulateEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, false),
	}
}

func applyForcesEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, false),
	}
}
