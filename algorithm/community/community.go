// Package community implements a cluster-aware layout: repulsion is
// modulated by community membership (gentle within a cluster, harsh
// across clusters) and every node is additionally pulled toward its own
// community's live centroid, which is accumulated from all members'
// positions on the GPU each tick via the same fixed-point atomic-add
// trick algorithm/density uses for its grid.
package community

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

//go:embed shaders/community_clear_centroids.wgsl
var shaderClearCentroids string

//go:embed shaders/community_repulsion.wgsl
var shaderRepulsion string

//go:embed shaders/community_accumulate_centroids.wgsl
var shaderAccumulateCentroids string

//go:embed shaders/community_cluster_attract.wgsl
var shaderClusterAttract string

// ID is this algorithm's registry key.
const ID = "community"

const workgroupSize = 256

// MaxCommunityCount is the hard cap on distinct community ids.
const MaxCommunityCount = 4096

// Config holds community layout tunables. Construct with NewConfig to
// enforce the community count cap.
type Config struct {
	IntraFactor, InterFactor float32
	KRepulsion, MinDistance  float32
	Gravity                  float32
	ClusterStrength          float32
	MaxCommunities           uint32
}

// NewConfig validates maxCommunities against MaxCommunityCount,
// returning a *graphforce.ConfigError above the cap.
func NewConfig(intraFactor, interFactor, kRepulsion, minDistance, gravity, clusterStrength float32, maxCommunities uint32) (Config, error) {
	if maxCommunities > MaxCommunityCount {
		return Config{}, &graphforce.ConfigError{
			Field:  "community.MaxCommunities",
			Reason: fmt.Sprintf("%d exceeds the %d cap", maxCommunities, MaxCommunityCount),
		}
	}
	return Config{
		IntraFactor: intraFactor, InterFactor: interFactor,
		KRepulsion: kRepulsion, MinDistance: minDistance,
		Gravity: gravity, ClusterStrength: clusterStrength,
		MaxCommunities: maxCommunities,
	}, nil
}

// DefaultConfig returns conventional community tunables: cohesive
// within a cluster, repulsive across clusters.
func DefaultConfig() Config {
	cfg, err := NewConfig(0.5, 2.0, 200.0, 1.0, 1.0, 50.0, 256)
	if err != nil {
		panic("community: default config failed its own validation: " + err.Error())
	}
	return cfg
}

func init() {
	Register(algorithm.Default)
}

// Register adds community to reg under ID.
func Register(reg *algorithm.Registry) {
	reg.Register(Descriptor(), func() algorithm.Algorithm { return New(DefaultConfig()) })
}

// Descriptor returns community's registry identity.
func Descriptor() algorithm.Descriptor {
	return algorithm.Descriptor{
		ID:         ID,
		Name:       "Community Clusters",
		MinNodes:   0,
		MaxNodes:   4999,
		Complexity: "O(N^2) per tick",
	}
}

const (
	stageClearCentroids = iota
	stageRepulsion
	stageAccumulateCentroids
	stageClusterAttract
	stageCount
)

// Algorithm is the community-aware force model.
type Algorithm struct {
	cfg Config

	device hal.Device
	queue  hal.Queue

	pipelines [stageCount]shaderutil.Pipeline

	positions hal.Buffer
	forces    hal.Buffer

	degreeBuffer    hal.Buffer
	communityBuffer hal.Buffer
	centroidSumX    hal.Buffer
	centroidSumY    hal.Buffer
	centroidCount   hal.Buffer

	clearUniform     hal.Buffer
	repulsionUniform hal.Buffer
	accumulateUniform hal.Buffer
	attractUniform   hal.Buffer

	maxNodes uint32

	// pendingDegrees/pendingCommunities mirror forceatlas2.SetDegrees's
	// deferred-upload staging: both are supplied once after a graph
	// loads and uploaded on the next UpdateUniforms, once the queue is
	// available.
	pendingDegrees    []uint32
	degreesDirty      bool
	pendingCommunities []uint32
	communitiesDirty  bool
}

// New constructs an unallocated Algorithm from a Config produced by
// NewConfig (or DefaultConfig).
func New(cfg Config) *Algorithm {
	return &Algorithm{cfg: cfg}
}

func (a *Algorithm) Descriptor() algorithm.Descriptor { return Descriptor() }

// SetDegrees stages per-node total degree for upload on the next tick.
func (a *Algorithm) SetDegrees(degrees []uint32) {
	a.pendingDegrees = degrees
	a.degreesDirty = true
}

// SetCommunities stages per-node community ids, as computed by
// graph.Graph.Communities(), for upload on the next tick. Every value
// must be < Config.MaxCommunities.
func (a *Algorithm) SetCommunities(communities []uint32) {
	a.pendingCommunities = communities
	a.communitiesDirty = true
}

func (a *Algorithm) CreatePipelines(device hal.Device) error {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "community_clear_centroids", WGSL: shaderClearCentroids, Entries: clearCentroidsEntries()},
		{Label: "community_repulsion", WGSL: shaderRepulsion, Entries: repulsionEntries()},
		{Label: "community_accumulate_centroids", WGSL: shaderAccumulateCentroids, Entries: accumulateCentroidsEntries()},
		{Label: "community_cluster_attract", WGSL: shaderClusterAttract, Entries: clusterAttractEntries()},
	})
	if err != nil {
		return fmt.Errorf("community: create pipelines: %w", err)
	}
	a.device = device
	copy(a.pipelines[:], built)
	return nil
}

func (a *Algorithm) CreateBuffers(maxNodes uint32) error {
	a.maxNodes = maxNodes

	storageRW := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	uniformCPU := gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst

	nodeSize := uint64(maxNodes) * 4
	if nodeSize == 0 {
		nodeSize = 16
	}
	communitySize := uint64(a.cfg.MaxCommunities) * 4
	if communitySize == 0 {
		communitySize = 16
	}

	bufs := []struct {
		target *hal.Buffer
		label  string
		size   uint64
		usage  gputypes.BufferUsage
	}{
		{&a.degreeBuffer, "community_degrees", nodeSize, storageRW},
		{&a.communityBuffer, "community_ids", nodeSize, storageRW},
		{&a.centroidSumX, "community_centroid_sum_x", communitySize, storageRW},
		{&a.centroidSumY, "community_centroid_sum_y", communitySize, storageRW},
		{&a.centroidCount, "community_centroid_count", communitySize, storageRW},
		{&a.clearUniform, "community_clear_uniform", 16, uniformCPU},
		{&a.repulsionUniform, "community_repulsion_uniform", 32, uniformCPU},
		{&a.accumulateUniform, "community_accumulate_uniform", 16, uniformCPU},
		{&a.attractUniform, "community_attract_uniform", 16, uniformCPU},
	}
	for _, b := range bufs {
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: b.label, Size: b.size, Usage: b.usage})
		if err != nil {
			a.destroyBuffers()
			return fmt.Errorf("community: create %s: %w", b.label, err)
		}
		*b.target = buf
	}

	return nil
}

func (a *Algorithm) destroyBuffers() {
	bufs := []hal.Buffer{
		a.degreeBuffer, a.communityBuffer, a.centroidSumX, a.centroidSumY, a.centroidCount,
		a.clearUniform, a.repulsionUniform, a.accumulateUniform, a.attractUniform,
	}
	for _, buf := range bufs {
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
	if a.degreesDirty {
		w := uniformpack.NewWriter(len(a.pendingDegrees) * 4)
		for _, d := range a.pendingDegrees {
			w.WriteF32(float32(d))
		}
		a.queue.WriteBuffer(a.degreeBuffer, 0, w.Bytes())
		a.degreesDirty = false
	}

	if a.communitiesDirty {
		w := uniformpack.NewWriter(len(a.pendingCommunities) * 4)
		for _, c := range a.pendingCommunities {
			w.WriteU32(c)
		}
		a.queue.WriteBuffer(a.communityBuffer, 0, w.Bytes())
		a.communitiesDirty = false
	}

	cw := uniformpack.NewWriter(16)
	cw.WriteU32(a.cfg.MaxCommunities)
	cw.Pad(12)
	a.queue.WriteBuffer(a.clearUniform, 0, cw.Bytes())

	rw := uniformpack.NewWriter(32)
	rw.WriteU32(ctx.NodeCount)
	rw.WriteF32(a.cfg.IntraFactor)
	rw.WriteF32(a.cfg.InterFactor)
	rw.WriteF32(a.cfg.KRepulsion)
	rw.WriteF32(a.cfg.MinDistance)
	rw.WriteF32(a.cfg.Gravity)
	rw.Pad(8)
	a.queue.WriteBuffer(a.repulsionUniform, 0, rw.Bytes())

	aw := uniformpack.NewWriter(16)
	aw.WriteU32(ctx.NodeCount)
	aw.Pad(12)
	a.queue.WriteBuffer(a.accumulateUniform, 0, aw.Bytes())

	tw := uniformpack.NewWriter(16)
	tw.WriteU32(ctx.NodeCount)
	tw.WriteF32(a.cfg.ClusterStrength)
	tw.Pad(8)
	a.queue.WriteBuffer(a.attractUniform, 0, tw.Bytes())

	return nil
}

func (a *Algorithm) RecordRepulsionPass(encoder hal.CommandEncoder, nodeCount uint32) error {
	var bindGroups []hal.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			a.device.DestroyBindGroup(bg)
		}
	}()

	mk := func(label string, layout hal.BindGroupLayout, entries []gputypes.BindGroupEntry) (hal.BindGroup, error) {
		bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{Label: label, Layout: layout, Entries: entries})
		if err != nil {
			return nil, fmt.Errorf("community: %s bind group: %w", label, err)
		}
		bindGroups = append(bindGroups, bg)
		return bg, nil
	}

	clearBG, err := mk("community_clear_bg", a.pipelines[stageClearCentroids].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.clearUniform),
		entry(1, a.centroidSumX),
		entry(2, a.centroidSumY),
		entry(3, a.centroidCount),
	})
	if err != nil {
		return err
	}
	clearPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "community_clear_centroids"})
	clearPass.SetPipeline(a.pipelines[stageClearCentroids].Compute)
	clearPass.SetBindGroup(0, clearBG, nil)
	clearPass.Dispatch(shaderutil.WorkgroupCount(a.cfg.MaxCommunities, workgroupSize), 1, 1)
	clearPass.End()

	repBG, err := mk("community_repulsion_bg", a.pipelines[stageRepulsion].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.repulsionUniform),
		entry(1, a.positions),
		entry(2, a.degreeBuffer),
		entry(3, a.communityBuffer),
		entry(4, a.forces),
	})
	if err != nil {
		return err
	}
	repPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "community_repulsion"})
	repPass.SetPipeline(a.pipelines[stageRepulsion].Compute)
	repPass.SetBindGroup(0, repBG, nil)
	repPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	repPass.End()

	accBG, err := mk("community_accumulate_bg", a.pipelines[stageAccumulateCentroids].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.accumulateUniform),
		entry(1, a.positions),
		entry(2, a.communityBuffer),
		entry(3, a.centroidSumX),
		entry(4, a.centroidSumY),
		entry(5, a.centroidCount),
	})
	if err != nil {
		return err
	}
	accPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "community_accumulate_centroids"})
	accPass.SetPipeline(a.pipelines[stageAccumulateCentroids].Compute)
	accPass.SetBindGroup(0, accBG, nil)
	accPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	accPass.End()

	attractBG, err := mk("community_cluster_attract_bg", a.pipelines[stageClusterAttract].BindGroupLayout, []gputypes.BindGroupEntry{
		entry(0, a.attractUniform),
		entry(1, a.positions),
		entry(2, a.degreeBuffer),
		entry(3, a.communityBuffer),
		entry(4, a.centroidSumX),
		entry(5, a.centroidSumY),
		entry(6, a.centroidCount),
		entry(7, a.forces),
	})
	if err != nil {
		return err
	}
	attractPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "community_cluster_attract"})
	attractPass.SetPipeline(a.pipelines[stageClusterAttract].Compute)
	attractPass.SetBindGroup(0, attractBG, nil)
	attractPass.Dispatch(shaderutil.WorkgroupCount(nodeCount, workgroupSize), 1, 1)
	attractPass.End()

	return nil
}

func (a *Algorithm) HandlesGravity() bool { return true }
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

func clearCentroidsEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, false),
		storageEntry(2, false),
		storageEntry(3, false),
	}
}

func repulsionEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, true),
		storageEntry(4, false),
	}
}

func accumulateCentroidsEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, false),
		storageEntry(4, false),
		storageEntry(5, false),
	}
}

func clusterAttractEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(0),
		storageEntry(1, true),
		storageEntry(2, true),
		storageEntry(3, true),
		storageEntry(4, true),
		storageEntry(5, true),
		storageEntry(6, true),
		storageEntry(7, false),
	}
}
