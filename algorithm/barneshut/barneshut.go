// Package barneshut implements the O(N log N) Barnes-Hut approximation:
// quantize node positions to Morton codes, sort them, build a parallel
// binary radix tree over the sorted order (Karras 2012), aggregate
// mass/center-of-mass bottom-up, then traverse the tree per node
// applying the multipole acceptance criterion. Recommended once the
// direct algorithm's O(N^2) cost outweighs the tree-build overhead.
package barneshut

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

//go:embed shaders/bh_morton.wgsl
var shaderMorton string

//go:embed shaders/bh_counting_sort.wgsl
var shaderCountingSort string

//go:embed shaders/bh_radix_histogram.wgsl
var shaderRadixHistogram string

//go:embed shaders/bh_radix_reduce.wgsl
var shaderRadixReduce string

//go:embed shaders/bh_radix_scan.wgsl
var shaderRadixScan string

//go:embed shaders/bh_radix_scatter.wgsl
var shaderRadixScatter string

//go:embed shaders/bh_clear_tree.wgsl
var shaderClearTree string

//go:embed shaders/bh_karras.wgsl
var shaderKarras string

//go:embed shaders/bh_init_leaves.wgsl
var shaderInitLeaves string

//go:embed shaders/bh_aggregate.wgsl
var shaderAggregate string

//go:embed shaders/bh_traverse.wgsl
var shaderTraverse string

// ID is this algorithm's registry key.
const ID = "barneshut"

// RadixPasses is the number of 4-bit LSD radix sort passes needed to
// fully sort a 32-bit Morton code (8 * 4 = 32).
const RadixPasses = 8

const workgroupSize = 256

// Config holds the Barnes-Hut approximation parameters.
type Config struct {
	// Theta is the multipole acceptance criterion threshold: a node is
	// treated as a point mass when size^2 < Theta^2 * distance^2.
	Theta float32

	Strength    float32
	MinDistance float32

	// RadixSortThreshold is the node count at or above which the
	// 8-pass radix sort replaces the quadratic counting sort.
	RadixSortThreshold uint32
}

// DefaultConfig returns conventional Barnes-Hut parameters.
func DefaultConfig() Config {
	return Config{
		Theta:              0.9,
		Strength:           400.0,
		MinDistance:        1.0,
		RadixSortThreshold: 1024,
	}
}

func init() {
	Register(algorithm.Default)
}

// Register adds barneshut to reg under ID, for the upper node-count
// tier where the tree build amortizes its cost.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns barneshut's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "Barnes-Hut",
		MinNodes:   5000,
		MaxNodes:   50000,
		Complexity: "O(N log N) per tick",
	}
}

// stages indexes the pipelines slice CreatePipelines builds, in build
// order, matching the shaderutil.Stage slice below.
const (
	stageMorton = iota
	stageCountingSort
	stageRadixHistogram
	stageRadixReduce
	stageRadixScan
	stageRadixScatter
	stageClearTree
	stageKarras
	stageInitLeaves
	stageAggregate
	stageTraverse
	stageCount
)

// Algorithm is the Barnes-Hut approximate repulsion force model.
type Algorithm struct {
	cfg Config

	device hal.Device
	queue  hal.Queue

	pipelines [stageCount]shaderutil.Pipeline

	positions hal.Buffer
	forces    hal.Buffer

	maxNodes       uint32
	maxWorkgroups  uint32

	mortonA, mortonB   hal.Buffer
	indicesA, indicesB hal.Buffer

	partialHistograms hal.Buffer
	workgroupPrefix   hal.Buffer
	bucketTotals      hal.Buffer
	bucketBase        hal.Buffer

	treeNodes hal.Buffer
	visited   hal.Buffer

	mortonUniform     hal.Buffer
	sortUniform       hal.Buffer
	radixUniforms     [RadixPasses]hal.Buffer
	clearUniform      hal.Buffer
	karrasUniform     hal.Buffer
	leavesUniform     hal.Buffer
	aggregateUniform  hal.Buffer
	traverseUniform   hal.Buffer
}

// New constructs an unallocated Algorithm. Call CreatePipelines and
// CreateBuffers before CreateBindGroups/RecordRepulsionPass.
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	stages := []shaderutil.Stage{
		{Label: "bh_morton", WGSL: shaderMorton, Entries: mortonEntries()},
		{Label: "bh_counting_sort", WGSL: shaderCountingSort, Entries: countingSortEntries()},
		{Label: "bh_radix_histogram", WGSL: shaderRadixHistogram, Entries: radixHistogramEntries()},
		{Label: "bh_radix_reduce", WGSL: shaderRadixReduce, Entries: radixReduceEntries()},
		{Label: "bh_radix_scan", WGSL: shaderRadixScan, Entries: radixScanEntries()},
		{Label: "bh_radix_scatter", WGSL: shaderRadixScatter, Entries: radixScatterEntries()},
		{Label: "bh_clear_tree", WGSL: shaderClearTree, Entries: clearTreeEntries()},
		{Label: "bh_karras", WGSL: shaderKarras, Entries: karrasEntries()},
		{Label: "bh_init_leaves", WGSL: shaderInitLeaves, Entries: initLeavesEntries()},
		{Label: "bh_aggregate", WGSL: shaderAggregate, Entries: aggregateEntries()},
		{Label: "bh_traverse", WGSL: shaderTraverse, Entries: traverseEntries()},
	}

	built, err := shaderutil.BuildPipelines(device, stages)
	if err != nil {
		return fmt.Errorf("barneshut: create pipelines: %w", err)
	}
	a.device = device
	copy(a.pipelines[:], built)
	return nil
}

func (a *Algorithm) CreateBuffers(maxNodes uint32) error {
	a.maxNodes = maxNodes
	a.maxWorkgroups = shaderutil.WorkgroupCount(maxNodes, workgroupSize)
	if a.maxWorkgroups == 0 {
		a.maxWorkgroups = 1
	}

	totalNodes := uint64(maxNodes)*2 - 1
	if maxNodes == 0 {
		totalNodes = 0
	}

	u32Size := uint64(maxNodes) * 4
	histSize := uint64(a.maxWorkgroups) * 16 * 4
	treeNodeSize := totalNodes * 32 // TreeNode is 8 x 4-byte fields
	visitedSize := totalNodes * 4

	storageRW := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

	type bufSpec struct {
		target *hal.Buffer
		label  string
		size   uint64
		usage  gputypes.BufferUsage
	}

	specs := []bufSpec{
		{&a.mortonA, "bh_morton_a", u32Size, storageRW},
		{&a.mortonB, "bh_morton_b", u32Size, storageRW},
		{&a.indicesA, "bh_indices_a", u32Size, storageRW},
		{&a.indicesB, "bh_indices_b", u32Size, storageRW},
		{&a.partialHistograms, "bh_partial_histograms", histSize, storageRW},
		{&a.workgroupPrefix, "bh_workgroup_prefix", histSize, storageRW},
		{&a.bucketTotals, "bh_bucket_totals", 16 * 4, storageRW},
		{&a.bucketBase, "bh_bucket_base", 16 * 4, storageRW},
		{&a.treeNodes, "bh_tree_nodes", treeNodeSize, storageRW},
		{&a.visited, "bh_visited", visitedSize, storageRW},
		{&a.mortonUniform, "bh_morton_uniform", 32, uniformCPU},
		{&a.sortUniform, "bh_sort_uniform", 16, uniformCPU},
		{&a.clearUniform, "bh_clear_uniform", 16, uniformCPU},
		{&a.karrasUniform, "bh_karras_uniform", 16, uniformCPU},
		{&a.leavesUniform, "bh_leaves_uniform", 16, uniformCPU},
		{&a.aggregateUniform, "bh_aggregate_uniform", 16, uniformCPU},
		{&a.traverseUniform, "bh_traverse_uniform", 16, uniformCPU},
	}

	destroyAll := func() {
		a.destroyBuffers()
	}

	for _, s := range specs {
		size := s.size
		if size == 0 {
			size = 16
		}
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: s.label, Size: size, Usage: s.usage})
		if err != nil {
			destroyAll()
			return fmt.Errorf("barneshut: create %s buffer: %w", s.label, err)
		}
		*s.target = buf
	}

	for i := range a.radixUniforms {
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("bh_radix_uniform_%d", i),
			Size:  16,
			Usage: uniformCPU,
		})
		if err != nil {
			destroyAll()
			return fmt.Errorf("barneshut: create radix uniform %d: %w", i, err)
		}
		a.radixUniforms[i] = buf
	}

	return nil
}

func (a *Algorithm) destroyBuffers() {
	for _, buf := range []hal.Buffer{
		a.mortonA, a.mortonB, a.indicesA, a.indicesB,
		a.partialHistograms, a.workgroupPrefix, a.bucketTotals, a.bucketBase,
		a.treeNodes, a.visited,
		a.mortonUniform, a.sortUniform, a.clearUniform, a.karrasUniform,
		a.leavesUniform, a.aggregateUniform, a.traverseUniform,
	} {
		if buf != nil {
			a.device.DestroyBuffer(buf)
		}
	}
	for _, buf := range a.radixUniforms {
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
	minX, minY, maxX, maxY := ctx.BoundsMinX, ctx.BoundsMinY, ctx.BoundsMaxX, ctx.BoundsMaxY
	if !ctx.HasBounds {
		minX, minY, maxX, maxY = -1, -1, 1, 1
	}
	rootSize := maxX - minX
	if h := maxY - minY; h > rootSize {
		rootSize = h
	}

	mw := uniformpack.NewWriter(32)
	mw.WriteU32(ctx.NodeCount)
	mw.WriteF32(minX)
	mw.WriteF32(minY)
	mw.WriteF32(maxX)
	mw.WriteF32(maxY)
	mw.Pad(12)
	a.queue.WriteBuffer(a.mortonUniform, 0, mw.Bytes())

	sw := uniformpack.NewWriter(16)
	sw.WriteU32(ctx.NodeCount)
	sw.Pad(12)
	a.queue.WriteBuffer(a.sortUniform, 0, sw.Bytes())

	numWorkgroups := shaderutil.WorkgroupCount(ctx.NodeCount, workgroupSize)
	for pass := 0; pass < RadixPasses; pass++ {
		rw := uniformpack.NewWriter(16)
		rw.WriteU32(ctx.NodeCount)
		rw.WriteU32(uint32(pass))
		rw.WriteU32(numWorkgroups)
		rw.Pad(4)
		a.queue.WriteBuffer(a.radixUniforms[pass], 0, rw.Bytes())
	}

	totalNodes := uint32(0)
	if ctx.NodeCount > 0 {
		totalNodes = 2*ctx.NodeCount - 1
	}
	cw := uniformpack.NewWriter(16)
	cw.WriteU32(totalNodes)
	cw.Pad(12)
	a.queue.WriteBuffer(a.clearUniform, 0, cw.Bytes())

	kw := uniformpack.NewWriter(16)
	kw.WriteU32(ctx.NodeCount)
	kw.Pad(12)
	a.queue.WriteBuffer(a.karrasUniform, 0, kw.Bytes())

	lw := uniformpack.NewWriter(16)
	lw.WriteU32(ctx.NodeCount)
	lw.WriteF32(rootSize)
	lw.Pad(8)
	a.queue.WriteBuffer(a.leavesUniform, 0, lw.Bytes())

	aw := uniformpack.NewWriter(16)
	aw.WriteU32(ctx.NodeCount)
	aw.Pad(12)
	a.queue.WriteBuffer(a.aggregateUniform, 0, aw.Bytes())

	tw := uniformpack.NewWriter(16)
	tw.WriteU32(ctx.NodeCount)
	tw.WriteF32(a.cfg.Theta)
	tw.WriteF32(a.cfg.Strength)
	tw.WriteF32(a.cfg.MinDistance)
	a.queue.WriteBuffer(a.traverseUniform, 0, tw.Bytes())

	return nil
}

// RecordRepulsionPass records the full Morton -> sort -> tree build ->
// aggregate -> traverse sequence into encoder. Fewer than two nodes
// means there is nothing to build a tree over, so it returns
// immediately without issuing any GPU work.
func (a *Algorithm) RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error {
	if nodeCount < 2 {
		return nil
	}

	var bindGroups []hal.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			a.device.DestroyBindGroup(bg)
		}
	}()

	dispatch := func(stage int, label string, entries []gputypes.BindGroupEntry, elements uint32) error {
		bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   label + "_bg",
			Layout:  a.pipelines[stage].BindGroupLayout,
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("barneshut: %s bind group: %w", label, err)
		}
		bindGroups = append(bindGroups, bg)

		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
		pass.SetPipeline(a.pipelines[stage].Compute)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(shaderutil.WorkgroupCount(elements, workgroupSize), 1, 1)
		pass.End()
		return nil
	}

	if err := dispatch(stageMorton, "bh_morton", mortonBindings(a.mortonUniform, a.positions, a.mortonA, a.indicesA), nodeCount); err != nil {
		return err
	}

	var sortedMorton, sortedIndices hal.Buffer
	if nodeCount < a.cfg.RadixSortThreshold {
		if err := dispatch(stageCountingSort, "bh_counting_sort", countingSortBindings(a.sortUniform, a.mortonA, a.indicesA, a.mortonB, a.indicesB), nodeCount); err != nil {
			return err
		}
		sortedMorton, sortedIndices = a.mortonB, a.indicesB
	} else {
		inMorton, inIndices := a.mortonA, a.indicesA
		outMorton, outIndices := a.mortonB, a.indicesB
		for pass := 0; pass < RadixPasses; pass++ {
			u := a.radixUniforms[pass]
			label := fmt.Sprintf("bh_radix_%d", pass)

			if err := dispatch(stageRadixHistogram, label+"_histogram", radixHistogramBindings(u, inMorton, a.partialHistograms), nodeCount); err != nil {
				return err
			}
			if err := dispatch(stageRadixReduce, label+"_reduce", radixReduceBindings(u, a.partialHistograms, a.workgroupPrefix, a.bucketTotals), 16); err != nil {
				return err
			}
			if err := dispatch(stageRadixScan, label+"_scan", radixScanBindings(u, a.bucketTotals, a.bucketBase), 1); err != nil {
				return err
			}
			if err := dispatch(stageRadixScatter, label+"_scatter", radixScatterBindings(u, inMorton, inIndices, a.workgroupPrefix, a.bucketBase, outMorton, outIndices), nodeCount); err != nil {
				return err
			}

			inMorton, outMorton = outMorton, inMorton
			inIndices, outIndices = outIndices, inIndices
		}
		sortedMorton, sortedIndices = inMorton, inIndices
	}

	totalNodes := 2*nodeCount - 1
	if err := dispatch(stageClearTree, "bh_clear_tree", clearTreeBindings(a.clearUniform, a.treeNodes, a.visited), totalNodes); err != nil {
		return err
	}
	if err := dispatch(stageKarras, "bh_karras", karrasBindings(a.karrasUniform, sortedMorton, a.treeNodes), nodeCount-1); err != nil {
		return err
	}
	if err := dispatch(stageInitLeaves, "bh_init_leaves", initLeavesBindings(a.leavesUniform, a.positions, sortedIndices, a.treeNodes), nodeCount); err != nil {
		return err
	}
	if err := dispatch(stageAggregate, "bh_aggregate", aggregateBindings(a.aggregateUniform, a.treeNodes, a.visited), nodeCount); err != nil {
		return err
	}
	if err := dispatch(stageTraverse, "bh_traverse", traverseBindings(a.traverseUniform, a.positions, a.treeNodes, a.forces), nodeCount); err != nil {
		return err
	}

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

func uniformEntry() gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageEntry(readOnly bool) gputypes.BindGroupLayoutEntry {
	t := gputypes.BufferBindingTypeStorage
	if readOnly {
		t = gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BindGroupLayoutEntry{
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: t},
	}
}

func withBinding(e gputypes.BindGroupLayoutEntry, b uint32) gputypes.BindGroupLayoutEntry {
	e.Binding = b
	return e
}

func mortonEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(false), 2),
		withBinding(storageEntry(false), 3),
	}
}

func countingSortEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(true), 2),
		withBinding(storageEntry(false), 3),
		withBinding(storageEntry(false), 4),
	}
}

func radixHistogramEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(false), 2),
	}
}

func radixReduceEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(false), 2),
		withBinding(storageEntry(false), 3),
	}
}

func radixScanEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(false), 2),
	}
}

func radixScatterEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(true), 2),
		withBinding(storageEntry(true), 3),
		withBinding(storageEntry(true), 4),
		withBinding(storageEntry(false), 5),
		withBinding(storageEntry(false), 6),
	}
}

func clearTreeEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(false), 1),
		withBinding(storageEntry(false), 2),
	}
}

func karrasEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(false), 2),
	}
}

func initLeavesEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(true), 2),
		withBinding(storageEntry(false), 3),
	}
}

func aggregateEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(false), 1),
		withBinding(storageEntry(false), 2),
	}
}

func traverseEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		withBinding(uniformEntry(), 0),
		withBinding(storageEntry(true), 1),
		withBinding(storageEntry(true), 2),
		withBinding(storageEntry(false), 3),
	}
}

func mortonBindings(u, positions, morton, indices hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, positions), entry(2, morton), entry(3, indices)}
}

func countingSortBindings(u, mortonIn, indicesIn, mortonOut, indicesOut hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, mortonIn), entry(2, indicesIn), entry(3, mortonOut), entry(4, indicesOut)}
}

func radixHistogramBindings(u, mortonIn, partialHistograms hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, mortonIn), entry(2, partialHistograms)}
}

func radixReduceBindings(u, partialHistograms, workgroupPrefix, bucketTotals hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, partialHistograms), entry(2, workgroupPrefix), entry(3, bucketTotals)}
}

func radixScanBindings(u, bucketTotals, bucketBase hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, bucketTotals), entry(2, bucketBase)}
}

func radixScatterBindings(u, mortonIn, indicesIn, workgroupPrefix, bucketBase, mortonOut, indicesOut hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{
		entry(0, u), entry(1, mortonIn), entry(2, indicesIn),
		entry(3, workgroupPrefix), entry(4, bucketBase),
		entry(5, mortonOut), entry(6, indicesOut),
	}
}

func clearTreeBindings(u, nodes, visited hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, nodes), entry(2, visited)}
}

func karrasBindings(u, sortedMorton, nodes hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, sortedMorton), entry(2, nodes)}
}

func initLeavesBindings(u, positions, sortedIndices, nodes hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, positions), entry(2, sortedIndices), entry(3, nodes)}
}

func aggregateBindings(u, nodes, visited hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, nodes), entry(2, visited)}
}

func traverseBindings(u, positions, nodes, forces hal.Buffer) []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{entry(0, u), entry(1, positions), entry(2, nodes), entry(3, forces)}
}
