package simulation

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce"
)

// pendingReadback tracks the single outstanding ScheduleReadback call.
// graphforce only ever has one tick in flight at a time (spec §5's
// single command encoder per tick), so a one-slot field is sufficient
// and mirrors the teacher's own single-slot loggerPtr idiom rather
// than a queue.
type pendingReadback struct {
	stagingBuf hal.Buffer
	nodeCount  uint32
}

// ScheduleReadback appends a copy of the current tick's position
// buffer into a staging buffer, recorded into encoder alongside the
// tick's own compute passes so no extra submit or fence wait is
// needed. Call this after RecordTick and before Submit, against the
// same encoder. AwaitReadback must be called exactly once after Submit
// returns, before scheduling another readback.
func (p *Pipeline) ScheduleReadback(encoder hal.CommandEncoder, nodeCount uint32) error {
	if !p.initialized {
		return &graphforce.StateError{Op: "ScheduleReadback", Reason: "pipeline not initialized"}
	}
	if nodeCount > p.maxNodes {
		return &graphforce.CapacityError{Field: "nodeCount", Expected: uint64(p.maxNodes), Actual: uint64(nodeCount)}
	}
	if p.pending != nil {
		return &graphforce.StateError{Op: "ScheduleReadback", Reason: "a readback is already pending; call AwaitReadback first"}
	}

	size := uint64(nodeCount) * 8
	if size == 0 {
		size = 8
	}
	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "graphforce_readback_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("simulation: create staging buffer: %w", err)
	}

	encoder.CopyBufferToBuffer(p.currentPositions(), 0, stagingBuf, 0, size)
	p.pending = &pendingReadback{stagingBuf: stagingBuf, nodeCount: nodeCount}
	return nil
}

// AwaitReadback reads back the position buffer copy a prior
// ScheduleReadback recorded, once its tick's fence has signaled, and
// destroys the staging buffer. Returns an error (without blocking on
// the GPU, which has already completed by this point) if ctx is
// already canceled.
func (p *Pipeline) AwaitReadback(ctx context.Context, out [][2]float32) error {
	if p.pending == nil {
		return &graphforce.StateError{Op: "AwaitReadback", Reason: "no readback scheduled"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pr := p.pending
	p.pending = nil
	defer p.device.DestroyBuffer(pr.stagingBuf)

	if uint32(len(out)) < pr.nodeCount {
		return &graphforce.CapacityError{Field: "out", Expected: uint64(pr.nodeCount), Actual: uint64(len(out))}
	}

	size := uint64(pr.nodeCount) * 8
	if size == 0 {
		return nil
	}
	raw := make([]byte, size)
	if err := p.queue.ReadBuffer(pr.stagingBuf, 0, raw); err != nil {
		return fmt.Errorf("simulation: readback: %w", err)
	}

	for i := uint32(0); i < pr.nodeCount; i++ {
		out[i][0] = bytesToF32(raw[i*8 : i*8+4])
		out[i][1] = bytesToF32(raw[i*8+4 : i*8+8])
	}
	return nil
}
