package direct

import (
	"testing"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Strength <= 0 {
		t.Errorf("Strength = %v, want > 0", cfg.Strength)
	}
	if cfg.MinDistance <= 0 {
		t.Errorf("MinDistance = %v, want > 0", cfg.MinDistance)
	}
}

func TestDescriptor(t *testing.T) {
	d := Descriptor()
	if d.ID != ID {
		t.Errorf("ID = %q, want %q", d.ID, ID)
	}
	if d.MinNodes != 0 {
		t.Errorf("MinNodes = %d, want 0", d.MinNodes)
	}
	if d.MaxNodes == 0 {
		t.Errorf("MaxNodes = 0, want a bounded upper tier")
	}
}

func TestRegister(t *testing.T) {
	reg := algorithm.NewRegistry()
	Register(reg)

	if !reg.IsRegistered(ID) {
		t.Fatalf("%q not registered", ID)
	}
	algo, err := reg.New(ID)
	if err != nil {
		t.Fatalf("New(%q): %v", ID, err)
	}
	if _, ok := algo.(*Algorithm); !ok {
		t.Errorf("New(%q) = %T, want *Algorithm", ID, algo)
	}
}

func TestAlgorithm_ImplementsContract(t *testing.T) {
	a := New(DefaultConfig())
	if a.HandlesGravity() {
		t.Error("HandlesGravity() = true, want false")
	}
	if a.HandlesSprings() {
		t.Error("HandlesSprings() = true, want false (shared springs pass must run)")
	}
}

func TestBindGroupLayoutEntries_Bindings(t *testing.T) {
	entries := bindGroupLayoutEntries()
	wantBindings := []uint32{0, 1, 2}
	if len(entries) != len(wantBindings) {
		t.Fatalf("len = %d, want %d", len(entries), len(wantBindings))
	}
	for i, e := range entries {
		if e.Binding != wantBindings[i] {
			t.Errorf("entries[%d].Binding = %d, want %d", i, e.Binding, wantBindings[i])
		}
	}
}

func TestShaderValidates(t *testing.T) {
	if err := shaderutil.Validate(shaderRepulsion); err != nil {
		t.Errorf("shaderRepulsion failed validation: %v", err)
	}
}
