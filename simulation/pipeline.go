// Package simulation is the orchestrator: it owns every shared GPU
// buffer (positions, velocities, forces, edges), builds the three
// shared compute pipelines (clear, springs, integrate), and records one
// tick's passes (clear, the active algorithm's repulsion pass, springs,
// integrate) into a caller-supplied command encoder via RecordTick,
// with Submit ending and submitting that encoder once the caller has
// optionally also appended a ScheduleReadback. Grounded on the
// teacher's VelloComputeDispatcher (table-driven buffer allocation,
// per-stage pipeline init with rollback-on-error) and GPURenderSession
// (readback via staging buffer + fence wait).
package simulation

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
	"github.com/gogpu/graphforce/uniformpack"
)

// DefaultWorkgroupSize is the compute workgroup size used by every
// shared and per-algorithm pass, matching the teacher's own
// convention of a single fixed workgroup size throughout a dispatcher.
const DefaultWorkgroupSize = 256

// fenceTimeout bounds how long a tick waits for the GPU before
// reporting a device-lost-shaped error.
const fenceTimeout = 5 * time.Second

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithWorkgroupSize overrides DefaultWorkgroupSize.
func WithWorkgroupSize(size uint32) Option {
	return func(p *Pipeline) { p.workgroupSize = size }
}

// Pipeline owns the shared node/edge buffers and the three
// always-present compute passes (clear_forces, springs, integrate). It
// does not own any algorithm-specific buffer; those belong to the
// algorithm.Algorithm instance passed to RecordTick.
type Pipeline struct {
	device hal.Device
	queue  hal.Queue

	maxNodes uint32
	maxEdges uint32

	workgroupSize uint32

	buffers    buffers
	pipelines  sharedPipelines
	destroyQ   *shaderutil.DestroyQueue

	// parity selects which of the two position buffers is the current
	// read role; the other is written by this tick's integrate pass.
	parity bool

	// pending tracks a single outstanding ScheduleReadback call.
	pending *pendingReadback

	initialized bool
}

type sharedPipelines struct {
	clear     shaderutil.Pipeline
	springs   shaderutil.Pipeline
	integrate shaderutil.Pipeline
}

// New allocates the shared buffers and builds the clear/springs/integrate
// pipelines, sized for up to maxNodes nodes and maxEdges edges.
func New(device hal.Device, queue hal.Queue, maxNodes, maxEdges uint32, opts ...Option) (*Pipeline, error) {
	if device == nil || queue == nil {
		return nil, &graphforce.ContextError{Op: "simulation.New", Reason: "device and queue must not be nil"}
	}

	p := &Pipeline{
		device:        device,
		queue:         queue,
		maxNodes:      maxNodes,
		maxEdges:      maxEdges,
		workgroupSize: DefaultWorkgroupSize,
	}
	for _, opt := range opts {
		opt(p)
	}

	bufs, err := allocateBuffers(device, maxNodes, maxEdges)
	if err != nil {
		return nil, err
	}
	p.buffers = bufs

	pipelines, err := buildSharedPipelines(device)
	if err != nil {
		p.buffers.destroy(device)
		return nil, err
	}
	p.pipelines = pipelines
	p.destroyQ = shaderutil.NewDestroyQueue(device)
	p.initialized = true

	return p, nil
}

func buildSharedPipelines(device hal.Device) (sharedPipelines, error) {
	built, err := shaderutil.BuildPipelines(device, []shaderutil.Stage{
		{Label: "clear_forces", WGSL: shaderClearForces, Entries: clearBindGroupLayoutEntries()},
		{Label: "springs", WGSL: shaderSprings, Entries: springsBindGroupLayoutEntries()},
		{Label: "integrate", WGSL: shaderIntegrate, Entries: integrateBindGroupLayoutEntries()},
	})
	if err != nil {
		return sharedPipelines{}, fmt.Errorf("simulation: build shared pipelines: %w", err)
	}
	return sharedPipelines{clear: built[0], springs: built[1], integrate: built[2]}, nil
}

// Destroy releases every shared GPU resource. Safe to call once;
// calling it twice is a caller bug, not guarded against (matching the
// teacher's DestroyBuffers convention of zeroing fields after release
// rather than making Destroy idempotent).
func (p *Pipeline) Destroy() {
	if p.destroyQ != nil {
		p.destroyQ.Flush()
	}
	shaderutil.DestroyPipelines(p.device, []shaderutil.Pipeline{p.pipelines.clear, p.pipelines.springs, p.pipelines.integrate})
	p.buffers.destroy(p.device)
	p.initialized = false
}

// checkCapacity validates a tick's nodeCount/edgeCount against the
// buffers allocated at New time, before any GPU work is recorded.
func (p *Pipeline) checkCapacity(nodeCount, edgeCount uint32) error {
	if nodeCount > p.maxNodes {
		return &graphforce.CapacityError{Field: "nodeCount", Expected: uint64(p.maxNodes), Actual: uint64(nodeCount), NodeCount: nodeCount}
	}
	if edgeCount > p.maxEdges {
		return &graphforce.CapacityError{Field: "edgeCount", Expected: uint64(p.maxEdges), Actual: uint64(edgeCount), EdgeCount: edgeCount}
	}
	return nil
}

// currentPositions returns the ping-pong buffer holding this tick's
// read-role positions.
func (p *Pipeline) currentPositions() hal.Buffer {
	if p.parity {
		return p.buffers.positionsB
	}
	return p.buffers.positionsA
}

// nextPositions returns the ping-pong buffer this tick's integrate
// pass writes into.
func (p *Pipeline) nextPositions() hal.Buffer {
	if p.parity {
		return p.buffers.positionsA
	}
	return p.buffers.positionsB
}

// swap flips the ping-pong parity bit after a tick's integrate pass
// has been submitted, per the "pair of pre-built bind groups selected
// by parity" design.
func (p *Pipeline) swap() {
	p.parity = !p.parity
}

// LoadPositions uploads initial node positions into the current
// read-role buffer. Call before the first RecordTick.
func (p *Pipeline) LoadPositions(positions [][2]float32) error {
	if uint32(len(positions)) > p.maxNodes {
		return &graphforce.CapacityError{Field: "positions", Expected: uint64(p.maxNodes), Actual: uint64(len(positions))}
	}
	data := vec2ToBytes(positions)
	p.queue.WriteBuffer(p.currentPositions(), 0, data)
	return nil
}

// LoadEdges uploads the edge source/target/weight arrays shared by the
// springs pass and any algorithm that consumes edges directly.
func (p *Pipeline) LoadEdges(src, tgt []uint32, weight []float32) error {
	if len(src) != len(tgt) || len(src) != len(weight) {
		return &graphforce.CapacityError{Field: "edge arrays", Expected: uint64(len(src)), Actual: uint64(len(tgt))}
	}
	if uint32(len(src)) > p.maxEdges {
		return &graphforce.CapacityError{Field: "edgeCount", Expected: uint64(p.maxEdges), Actual: uint64(len(src))}
	}
	p.queue.WriteBuffer(p.buffers.edgeSource, 0, u32ToBytes(src))
	p.queue.WriteBuffer(p.buffers.edgeTarget, 0, u32ToBytes(tgt))
	p.queue.WriteBuffer(p.buffers.edgeWeight, 0, f32ToBytes(weight))
	return nil
}

// LoadNodeAttributes uploads the per-node depth and pinned flags the
// integrate pass reads.
func (p *Pipeline) LoadNodeAttributes(depths []uint32, pinned []bool) error {
	if uint32(len(depths)) > p.maxNodes || uint32(len(pinned)) > p.maxNodes {
		return &graphforce.CapacityError{Field: "node attributes", Expected: uint64(p.maxNodes), Actual: uint64(len(depths))}
	}
	p.queue.WriteBuffer(p.buffers.depths, 0, u32ToBytes(depths))
	pinnedU32 := make([]uint32, len(pinned))
	for i, b := range pinned {
		if b {
			pinnedU32[i] = 1
		}
	}
	p.queue.WriteBuffer(p.buffers.pinned, 0, u32ToBytes(pinnedU32))
	return nil
}

// UpdateUniforms packs and uploads the clear/springs/integrate uniform
// blocks for the upcoming tick.
func (p *Pipeline) UpdateUniforms(nodeCount, edgeCount uint32, alpha float32, cfg Config) error {
	if err := p.checkCapacity(nodeCount, edgeCount); err != nil {
		return err
	}

	clearW := uniformpack.NewWriter(uniformpack.Align16(16))
	clearW.WriteU32(nodeCount)
	clearW.Pad(12)
	p.queue.WriteBuffer(p.buffers.clearUniform, 0, clearW.Bytes())

	springsW := uniformpack.NewWriter(uniformpack.Align16(16))
	springsW.WriteU32(edgeCount)
	springsW.WriteF32(cfg.SpringStrength)
	springsW.WriteF32(cfg.IdealLength)
	springsW.Pad(4)
	p.queue.WriteBuffer(p.buffers.springsUniform, 0, springsW.Bytes())

	integrateW := uniformpack.NewWriter(uniformpack.Align16(32))
	integrateW.WriteU32(nodeCount)
	integrateW.WriteF32(alpha)
	integrateW.WriteF32(cfg.Damping)
	integrateW.WriteF32(cfg.DT)
	integrateW.WriteF32(cfg.DepthAlphaSpread)
	integrateW.WriteF32(cfg.VelocityMax)
	integrateW.WriteF32(cfg.Gravity)
	integrateW.Pad(4)
	p.queue.WriteBuffer(p.buffers.integrateUniform, 0, integrateW.Bytes())

	return nil
}

// RenderContext builds the algorithm.RenderContext for the current
// tick, wiring in this tick's ping-pong read-role positions and every
// shared buffer an algorithm might bind against. Callers pass the
// resulting value to the active algorithm's CreateBindGroups and
// UpdateUniforms before calling RecordTick, recomputing it each tick
// since the ping-pong role flips after every Submit.
func (p *Pipeline) RenderContext(nodeCount, edgeCount uint32, boundsMinX, boundsMinY, boundsMaxX, boundsMaxY float32, hasBounds bool) algorithm.RenderContext {
	return algorithm.RenderContext{
		NodeCount:  nodeCount,
		EdgeCount:  edgeCount,
		Positions:  p.currentPositions(),
		Velocities: p.buffers.velocities,
		Forces:     p.buffers.forces,
		EdgeSource: p.buffers.edgeSource,
		EdgeTarget: p.buffers.edgeTarget,
		EdgeWeight: p.buffers.edgeWeight,
		BoundsMinX: boundsMinX,
		BoundsMinY: boundsMinY,
		BoundsMaxX: boundsMaxX,
		BoundsMaxY: boundsMaxY,
		HasBounds:  hasBounds,
	}
}

// Shared returns the algorithm.SharedBuffers an algorithm's
// CreateBindGroups call needs, carrying the queue it writes its own
// uniform buffers through.
func (p *Pipeline) Shared() algorithm.SharedBuffers {
	return algorithm.SharedBuffers{Queue: p.queue}
}

func vec2ToBytes(data [][2]float32) []byte {
	out := make([]byte, len(data)*8)
	for i, v := range data {
		w := uniformpack.NewWriter(8)
		w.WriteF32(v[0])
		w.WriteF32(v[1])
		copy(out[i*8:i*8+8], w.Bytes())
	}
	return out
}

func f32ToBytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		w := uniformpack.NewWriter(4)
		w.WriteF32(v)
		copy(out[i*4:i*4+4], w.Bytes())
	}
	return out
}

func u32ToBytes(data []uint32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		w := uniformpack.NewWriter(4)
		w.WriteU32(v)
		copy(out[i*4:i*4+4], w.Bytes())
	}
	return out
}
