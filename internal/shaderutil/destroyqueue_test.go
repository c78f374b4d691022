package shaderutil

import (
	"testing"

	"github.com/gogpu/wgpu/hal"
)

func TestDestroyQueue_DelaysUntilZero(t *testing.T) {
	q := NewDestroyQueue(nil)
	destroyed := 0
	q.Defer(2, func(device hal.Device) { destroyed++ })

	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}

	q.Advance() // framesRemaining 2 -> 1
	if destroyed != 0 {
		t.Fatalf("destroyed = %d after 1 advance, want 0", destroyed)
	}
	q.Advance() // framesRemaining 1 -> 0
	if destroyed != 0 {
		t.Fatalf("destroyed = %d after 2 advances, want 0", destroyed)
	}
	n := q.Advance() // framesRemaining 0 -> destroy
	if destroyed != 1 || n != 1 {
		t.Fatalf("destroyed = %d, n = %d after 3 advances, want 1/1", destroyed, n)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after destruction, want 0", q.Len())
	}
}

func TestDestroyQueue_ZeroDelayDestroysNextAdvance(t *testing.T) {
	q := NewDestroyQueue(nil)
	destroyed := false
	q.Defer(0, func(device hal.Device) { destroyed = true })

	n := q.Advance()
	if !destroyed || n != 1 {
		t.Fatalf("destroyed = %v, n = %d, want true/1", destroyed, n)
	}
}

func TestDestroyQueue_Flush(t *testing.T) {
	q := NewDestroyQueue(nil)
	count := 0
	q.Defer(10, func(device hal.Device) { count++ })
	q.Defer(20, func(device hal.Device) { count++ })

	q.Flush()
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after Flush, want 0", q.Len())
	}
}
