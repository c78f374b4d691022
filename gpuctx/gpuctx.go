// Package gpuctx validates the lightweight device-provider handle a
// host hands graphforce alongside its compute device, the same
// integration shape the teacher uses for its own renderer handle
// (render/device.go's DeviceHandle = gpucontext.DeviceProvider alias).
//
// gpucontext.Device/Queue are deliberately minimal lifecycle handles
// (Poll, Destroy) distinct from the hal.Device/hal.Queue pair
// simulation.Pipeline actually binds to for pipeline creation and
// command encoding: a host exposes both because gpucontext.DeviceProvider
// is also what it hands to a renderer like gg for shared-device
// bookkeeping. gpuctx.Context wraps that shared handle for hosts that
// want an early nil-check and adapter/surface-format introspection
// before they separately extract the hal.Device/hal.Queue pair that
// feeds simulation.New.
package gpuctx

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Handle is the device/queue/adapter provider triple a host shares
// across its GPU-consuming libraries (a renderer, graphforce, ...). It
// is an alias for gpucontext.DeviceProvider, giving graphforce its own
// name for the interface while staying fully compatible with anything
// that already implements gpucontext.DeviceProvider.
type Handle = gpucontext.DeviceProvider

// Context is a validated, read-only view of a host's shared device
// handle: non-nil device/queue/adapter, plus the surface format a host
// renderer shares alongside graphforce's own hal.Device/hal.Queue pair.
// It does not itself feed simulation.New: the hal types
// simulation.Pipeline requires for pipeline creation and command
// encoding are a distinct, independently-acquired handle (see
// cmd/graphforcedemo's dialGPU seam).
type Context struct {
	handle Handle
}

// New wraps handle, validating that it reports a non-nil device and
// queue immediately rather than deferring the failure to first use.
func New(handle Handle) (*Context, error) {
	if handle == nil {
		return nil, &contextNilError{}
	}
	if handle.Device() == nil {
		return nil, &contextNilError{field: "Device"}
	}
	if handle.Queue() == nil {
		return nil, &contextNilError{field: "Queue"}
	}
	return &Context{handle: handle}, nil
}

// Device returns the underlying GPU device.
func (c *Context) Device() gpucontext.Device { return c.handle.Device() }

// Queue returns the underlying GPU command queue.
func (c *Context) Queue() gpucontext.Queue { return c.handle.Queue() }

// Adapter returns the underlying GPU adapter, used for limit queries.
func (c *Context) Adapter() gpucontext.Adapter { return c.handle.Adapter() }

// SurfaceFormat returns the handle's preferred surface format. graphforce
// itself never presents to a surface, but the field is preserved so a
// host embedding graphforce alongside a renderer can share one Handle.
func (c *Context) SurfaceFormat() gputypes.TextureFormat { return c.handle.SurfaceFormat() }

type contextNilError struct {
	field string
}

func (e *contextNilError) Error() string {
	if e.field == "" {
		return "gpuctx: handle is nil"
	}
	return "gpuctx: handle." + e.field + "() returned nil"
}
