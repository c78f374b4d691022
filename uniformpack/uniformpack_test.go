package uniformpack

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestAlign16(t *testing.T) {
	cases := map[int]int{0: 0, 1: 16, 15: 16, 16: 16, 17: 32, 60: 64}
	for in, want := range cases {
		if got := Align16(in); got != want {
			t.Errorf("Align16(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestWriter_PackingOrder(t *testing.T) {
	w := NewWriter(Align16(12))
	w.WriteU32(42)
	w.WriteF32(3.5)
	w.WriteI32(-7)
	w.Pad(4)

	if w.Offset() != 16 {
		t.Fatalf("Offset() = %d, want 16", w.Offset())
	}

	buf := w.Bytes()
	if got := binary.LittleEndian.Uint32(buf[0:4]); got != 42 {
		t.Errorf("field0 = %d, want 42", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])); got != 3.5 {
		t.Errorf("field1 = %v, want 3.5", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[8:12])); got != -7 {
		t.Errorf("field2 = %d, want -7", got)
	}
}
