package csr

import (
	"errors"
	"testing"

	"github.com/gogpu/graphforce"
)

// chain builds 0-1-2-3 as directed edges 0->1, 1->2, 2->3.
func chain() (nodeCount uint32, src, dst []uint32) {
	return 4, []uint32{0, 1, 2}, []uint32{1, 2, 3}
}

func TestBuildAndValidate(t *testing.T) {
	n, src, dst := chain()
	p, err := Build(n, src, dst)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := ValidatePair(p, n); err != nil {
		t.Fatalf("ValidatePair: %v", err)
	}

	wantOffsets := []uint32{0, 1, 2, 3, 3}
	for i, w := range wantOffsets {
		if p.Forward.Offsets[i] != w {
			t.Errorf("forward.offsets[%d] = %d, want %d", i, p.Forward.Offsets[i], w)
		}
	}
	if len(p.Forward.Indices) != 3 || len(p.Inverse.Indices) != 3 {
		t.Fatalf("edge counts: forward=%d inverse=%d, want 3/3", len(p.Forward.Indices), len(p.Inverse.Indices))
	}
}

func TestValidate_BadOffsetsLength(t *testing.T) {
	m := Matrix{Offsets: []uint32{0, 1}, Indices: []uint32{0}}
	err := Validate("forward", m, 5)
	var capErr *graphforce.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Validate() error = %v, want *CapacityError", err)
	}
	if capErr.Field != "forward.offsets.len" {
		t.Errorf("Field = %q, want forward.offsets.len", capErr.Field)
	}
}

func TestValidate_NonMonotone(t *testing.T) {
	m := Matrix{Offsets: []uint32{0, 3, 1, 4}, Indices: []uint32{0, 1, 2, 0}}
	if err := Validate("forward", m, 3); err == nil {
		t.Fatal("Validate() = nil, want error for non-monotone offsets")
	}
}

func TestValidate_IndexOutOfRange(t *testing.T) {
	m := Matrix{Offsets: []uint32{0, 1}, Indices: []uint32{9}}
	err := Validate("forward", m, 1)
	var capErr *graphforce.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Validate() error = %v, want *CapacityError", err)
	}
}

func TestValidatePair_MismatchedEdgeCounts(t *testing.T) {
	fwd := Matrix{Offsets: []uint32{0, 1, 1}, Indices: []uint32{1}}
	inv := Matrix{Offsets: []uint32{0, 0, 0}, Indices: []uint32{}}
	err := ValidatePair(Pair{Forward: fwd, Inverse: inv}, 2)
	if err == nil {
		t.Fatal("ValidatePair() = nil, want mismatch error")
	}
}
