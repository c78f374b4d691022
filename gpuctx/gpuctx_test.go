package gpuctx

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

type stubHandle struct {
	device gpucontext.Device
	queue  gpucontext.Queue
}

func (s stubHandle) Device() gpucontext.Device                  { return s.device }
func (s stubHandle) Queue() gpucontext.Queue                    { return s.queue }
func (s stubHandle) Adapter() gpucontext.Adapter                { return nil }
func (s stubHandle) SurfaceFormat() gputypes.TextureFormat      { return gputypes.TextureFormatUndefined }

type stubDevice struct{ gpucontext.Device }
type stubQueue struct{ gpucontext.Queue }

func TestNew_RejectsNilHandle(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) = nil error, want error")
	}
}

func TestNew_RejectsNilDeviceOrQueue(t *testing.T) {
	if _, err := New(stubHandle{}); err == nil {
		t.Fatal("New with nil device/queue = nil error, want error")
	}
	if _, err := New(stubHandle{device: stubDevice{}}); err == nil {
		t.Fatal("New with nil queue = nil error, want error")
	}
}

func TestNew_Accepts(t *testing.T) {
	ctx, err := New(stubHandle{device: stubDevice{}, queue: stubQueue{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ctx.Device() == nil || ctx.Queue() == nil {
		t.Fatal("Context did not retain device/queue")
	}
}
