package relativity

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/csr"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MassIterations == 0 {
		t.Error("MassIterations = 0, want > 0")
	}
	if cfg.KRepulsion <= 0 {
		t.Error("KRepulsion = 0, want > 0")
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
		t.Error("HandlesSprings() = false, want true")
	}
}

func TestSetHierarchy_MarksDirty(t *testing.T) {
	a := New(DefaultConfig())
	pair, err := csr.Build(3, []uint32{0, 0}, []uint32{1, 2})
	if err != nil {
		t.Fatalf("csr.Build: %v", err)
	}
	a.SetHierarchy(pair)
	if !a.hierarchyDirty {
		t.Error("hierarchyDirty = false after SetHierarchy, want true")
	}
}

func TestSetWellRadii_MarksDirty(t *testing.T) {
	a := New(DefaultConfig())
	a.SetWellRadii([]float32{1.0, 2.0, 3.0})
	if !a.wellRadiiDirty {
		t.Error("wellRadiiDirty = false after SetWellRadii, want true")
	}
	if len(a.pendingWellRadii) != 3 {
		t.Errorf("len(pendingWellRadii) = %d, want 3", len(a.pendingWellRadii))
	}
}

// TestRecordRepulsionPass_RequiresHierarchy documents that the hierarchy
// upload (deferred to UpdateUniforms) must have run at least once before
// RecordRepulsionPass can build its CSR-backed bind groups.
func TestRecordRepulsionPass_RequiresHierarchy(t *testing.T) {
	a := New(DefaultConfig())
	if err := a.RecordRepulsionPass(nil, 10); err == nil {
		t.Fatal("RecordRepulsionPass without a hierarchy should fail, got nil error")
	}
}

func TestShadersValidate(t *testing.T) {
	for name, src := range map[string]string{
		"relativity_degrees":           shaderDegrees,
		"relativity_init_mass":         shaderInitMass,
		"relativity_aggregate_mass":    shaderAggregateMass,
		"relativity_sibling_repulsion": shaderSiblingRepulsion,
		"relativity_gravity":           shaderGravity,
		"relativity_attraction":        shaderAttraction,
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
		{"degrees", degreesEntries(), []uint32{0, 1, 2, 3, 4}},
		{"init_mass", initMassEntries(), []uint32{0, 1, 2, 3}},
		{"aggregate_mass", aggregateEntries(), []uint32{0, 1, 2, 3, 4, 5}},
		{"sibling_repulsion", siblingEntries(), []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8}},
		{"gravity", gravityEntries(), []uint32{0, 1, 2, 3}},
		{"attraction", attractionEntries(), []uint32{0, 1, 2, 3, 4}},
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
