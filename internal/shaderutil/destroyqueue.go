package shaderutil

import "github.com/gogpu/wgpu/hal"

// destroyable is anything a Device knows how to destroy. Buffers,
// shader modules, pipelines, and bind group layouts all satisfy this
// trivially via a closure in Defer.
type destroyable func(device hal.Device)

type pending struct {
	framesRemaining int
	destroy         destroyable
}

// DestroyQueue defers GPU resource destruction by a fixed number of
// frames, so a resource still referenced by an in-flight command
// buffer (an algorithm swap mid-tick, an old density grid still being
// read back) is not destroyed out from under the GPU. Callers call
// Defer when a resource becomes unused and Advance once per tick; a
// resource is actually destroyed on the Advance call after its
// remaining frame count reaches zero.
type DestroyQueue struct {
	device hal.Device
	items  []pending
}

// NewDestroyQueue returns a DestroyQueue bound to device.
func NewDestroyQueue(device hal.Device) *DestroyQueue {
	return &DestroyQueue{device: device}
}

// Defer schedules destroy to run after delayFrames calls to Advance.
// delayFrames=0 destroys on the very next Advance; this is never
// smaller than the pipeline's own ping-pong depth so a resource freed
// this tick is never touched by a command buffer recorded this tick.
func (q *DestroyQueue) Defer(delayFrames int, destroy destroyable) {
	if delayFrames < 0 {
		delayFrames = 0
	}
	q.items = append(q.items, pending{framesRemaining: delayFrames, destroy: destroy})
}

// DeferBuffer is a convenience wrapper for the common case of
// destroying a single hal.Buffer.
func (q *DestroyQueue) DeferBuffer(delayFrames int, buf hal.Buffer) {
	q.Defer(delayFrames, func(device hal.Device) {
		device.DestroyBuffer(buf)
	})
}

// Advance decrements every pending item's remaining frame count and
// destroys those that reach zero, returning how many were destroyed.
// Call exactly once per tick.
func (q *DestroyQueue) Advance() int {
	destroyedCount := 0
	kept := q.items[:0]
	for _, item := range q.items {
		if item.framesRemaining <= 0 {
			item.destroy(q.device)
			destroyedCount++
			continue
		}
		item.framesRemaining--
		kept = append(kept, item)
	}
	q.items = kept
	return destroyedCount
}

// Len returns the number of resources still awaiting destruction.
func (q *DestroyQueue) Len() int {
	return len(q.items)
}

// Flush immediately destroys every pending item regardless of its
// remaining frame count, for use at shutdown.
func (q *DestroyQueue) Flush() {
	for _, item := range q.items {
		item.destroy(q.device)
	}
	q.items = nil
}
