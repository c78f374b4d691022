package forceatlas2

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Strength <= 0 {
		t.Errorf("Strength = %v, want > 0", cfg.Strength)
	}
	if cfg.EdgeWeightInfluence <= 0 {
		t.Errorf("EdgeWeightInfluence = %v, want > 0", cfg.EdgeWeightInfluence)
	}
}

func TestDescriptor(t *testing.T) {
	d := Descriptor()
	if d.ID != ID {
		t.Errorf("ID = %q, want %q", d.ID, ID)
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
	if !a.HandlesGravity() {
		t.Error("HandlesGravity() = false, want true")
	}
	if !a.HandlesSprings() {
		t.Error("HandlesSprings() = false, want true (FA2 owns its own attraction pass)")
	}
}

func TestSetDegrees_MarksDirty(t *testing.T) {
	a := New(DefaultConfig())
	if a.degreesDirty {
		t.Fatal("degreesDirty = true before SetDegrees, want false")
	}
	a.SetDegrees([]uint32{1, 2, 3})
	if !a.degreesDirty {
		t.Error("degreesDirty = false after SetDegrees, want true")
	}
	if len(a.pendingDegrees) != 3 {
		t.Errorf("len(pendingDegrees) = %d, want 3", len(a.pendingDegrees))
	}
}

func TestShadersValidate(t *testing.T) {
	for name, src := range map[string]string{
		"fa2_repulsion":  shaderRepulsion,
		"fa2_attraction": shaderAttraction,
	} {
		if err := shaderutil.Validate(src); err != nil {
			t.Errorf("%s failed validation: %v", name, err)
		}
	}
}

func bindings(entries []gputypes.BindGroupLayoutEntry) []uint32 {
	out := make([]uint32, len(entries))
	for i, e := range entries {
		out[i] = e.Binding
	}
	return out
}

func TestBindGroupLayoutEntries_BindingOrder(t *testing.T) {
	cases := []struct {
		name    string
		entries []gputypes.BindGroupLayoutEntry
		want    []uint32
	}{
		{"repulsion", repulsionEntries(), []uint32{0, 1, 2, 3}},
		{"attraction", attractionEntries(), []uint32{0, 1, 2, 3, 4, 5}},
	}
	for _, c := range cases {
		got := bindings(c.entries)
		if len(got) != len(c.want) {
			t.Fatalf("%s: len = %d, want %d", c.name, len(got), len(c.want))
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("%s: entries[%d].Binding = %d, want %d", c.name, i, got[i], c.want[i])
			}
		}
	}
}
