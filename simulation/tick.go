package simulation

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func bindEntry(binding uint32, buf hal.Buffer) gputypes.BindGroupEntry {
	return gputypes.BindGroupEntry{
		Binding: binding,
		Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Offset: 0,
			Size:   0,
		},
	}
}

// tickResources tracks the bind groups and command buffer created for
// one RecordTick call, so they can all be released together after
// submission, mirroring the teacher's dispatchResources.cleanup.
type tickResources struct {
	device     hal.Device
	bindGroups []hal.BindGroup
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

func (r *tickResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
	for _, bg := range r.bindGroups {
		r.device.DestroyBindGroup(bg)
	}
}

// tick is the handle RecordTick returns and Submit consumes, carrying
// the bind groups this tick's passes created so they can be released
// together once the tick's fence has signaled.
type tick struct {
	res *tickResources
}

// RecordTick records one simulation step into encoder: clear_forces,
// the active algorithm's repulsion pass, the shared springs pass
// (unless the algorithm handles its own attraction or there are no
// edges), and integrate. It does not end or submit encoder, so a
// caller can append ScheduleReadback to the same command buffer
// before calling Submit. Returns a handle Submit needs to release the
// bind groups this call created.
func (p *Pipeline) RecordTick(encoder hal.CommandEncoder, nodeCount, edgeCount uint32, algo algorithm.Algorithm) (*tick, error) {
	if !p.initialized {
		return nil, &graphforce.StateError{Op: "RecordTick", Reason: "pipeline not initialized"}
	}
	if err := p.checkCapacity(nodeCount, edgeCount); err != nil {
		return nil, err
	}
	if algo == nil {
		return nil, &graphforce.ContextError{Op: "RecordTick", Reason: "algorithm must not be nil"}
	}

	res := &tickResources{device: p.device}

	if err := p.recordClear(encoder, res, nodeCount); err != nil {
		res.cleanup()
		return nil, err
	}

	if err := algo.RecordRepulsionPass(encoder, nodeCount); err != nil {
		res.cleanup()
		return nil, fmt.Errorf("simulation: algorithm repulsion pass: %w", err)
	}

	if !algo.HandlesSprings() && edgeCount > 0 {
		if err := p.recordSprings(encoder, res, edgeCount); err != nil {
			res.cleanup()
			return nil, err
		}
	}

	if err := p.recordIntegrate(encoder, res, nodeCount); err != nil {
		res.cleanup()
		return nil, err
	}

	return &tick{res: res}, nil
}

// Submit ends encoder's recording, submits it, waits for the GPU
// fence, then swaps the ping-pong position buffers and advances the
// deferred-destruction queue. t must come from a prior RecordTick call
// on the same encoder; any ScheduleReadback call for this tick must
// have already been recorded into encoder before calling Submit.
func (p *Pipeline) Submit(encoder hal.CommandEncoder, t *tick) error {
	defer t.res.cleanup()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("simulation: end encoding: %w", err)
	}
	t.res.cmdBuf = cmdBuf

	if err := p.submitAndWait(t.res); err != nil {
		return err
	}

	p.swap()
	p.destroyQ.Advance()
	return nil
}

func (p *Pipeline) recordClear(encoder hal.CommandEncoder, res *tickResources, nodeCount uint32) error {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "graphforce_clear_bg",
		Layout: p.pipelines.clear.BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			bindEntry(0, p.buffers.clearUniform),
			bindEntry(1, p.buffers.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("simulation: clear bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bg)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "graphforce_clear"})
	pass.SetPipeline(p.pipelines.clear.Compute)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(shaderutil.WorkgroupCount(nodeCount, p.workgroupSize), 1, 1)
	pass.End()
	return nil
}

func (p *Pipeline) recordSprings(encoder hal.CommandEncoder, res *tickResources, edgeCount uint32) error {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "graphforce_springs_bg",
		Layout: p.pipelines.springs.BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			bindEntry(0, p.buffers.springsUniform),
			bindEntry(1, p.currentPositions()),
			bindEntry(2, p.buffers.edgeSource),
			bindEntry(3, p.buffers.edgeTarget),
			bindEntry(4, p.buffers.edgeWeight),
			bindEntry(5, p.buffers.forces),
		},
	})
	if err != nil {
		return fmt.Errorf("simulation: springs bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bg)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "graphforce_springs"})
	pass.SetPipeline(p.pipelines.springs.Compute)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(shaderutil.WorkgroupCount(edgeCount, p.workgroupSize), 1, 1)
	pass.End()
	return nil
}

func (p *Pipeline) recordIntegrate(encoder hal.CommandEncoder, res *tickResources, nodeCount uint32) error {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "graphforce_integrate_bg",
		Layout: p.pipelines.integrate.BindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			bindEntry(0, p.buffers.integrateUniform),
			bindEntry(1, p.buffers.forces),
			bindEntry(2, p.buffers.velocities),
			bindEntry(3, p.nextPositions()),
			bindEntry(4, p.currentPositions()),
			bindEntry(5, p.buffers.depths),
			bindEntry(6, p.buffers.pinned),
		},
	})
	if err != nil {
		return fmt.Errorf("simulation: integrate bind group: %w", err)
	}
	res.bindGroups = append(res.bindGroups, bg)

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "graphforce_integrate"})
	pass.SetPipeline(p.pipelines.integrate.Compute)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(shaderutil.WorkgroupCount(nodeCount, p.workgroupSize), 1, 1)
	pass.End()
	return nil
}

func (p *Pipeline) submitAndWait(res *tickResources) error {
	fence, err := p.device.CreateFence()
	if err != nil {
		return fmt.Errorf("simulation: create fence: %w", err)
	}
	res.fence = fence

	if err := p.queue.Submit([]hal.CommandBuffer{res.cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("simulation: submit: %w", err)
	}

	ok, err := p.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return &graphforce.ContextError{Op: "RecordTick", Reason: err.Error()}
	}
	if !ok {
		return &graphforce.ContextError{Op: "RecordTick", Reason: fmt.Sprintf("GPU timeout after %v", fenceTimeout)}
	}
	return nil
}
