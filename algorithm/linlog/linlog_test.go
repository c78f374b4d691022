package linlog

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
	if a.HandlesGravity() {
		t.Error("HandlesGravity() = true, want false (shared gravity term applies)")
	}
	if a.HandlesSprings() {
		t.Error("HandlesSprings() = true, want false (shared Hooke spring pass handles attraction)")
	}
}

func TestSetDegrees_MarksDirty(t *testing.T) {
	a := New(DefaultConfig())
	a.SetDegrees([]uint32{4, 2})
	if !a.degreesDirty {
		t.Error("degreesDirty = false after SetDegrees, want true")
	}
}

func TestShadersValidate(t *testing.T) {
	for name, src := range map[string]string{
		"linlog_repulsion": shaderRepulsion,
		"linlog_attract":   shaderAttract,
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
		{"attract", attractEntries(), []uint32{0, 1, 2, 3, 4, 5}},
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

// TestRecordRepulsionPass_OnlyDispatchesRepulsionStage documents that
// the attraction pipeline built in CreatePipelines (stageAttract) is
// intentionally never referenced by RecordRepulsionPass's dispatch
// logic; attraction for this algorithm comes entirely from the shared
// spring pass. This is a compile-time/structural check, not a runtime
// one, since RecordRepulsionPass needs a live device to execute.
func TestRecordRepulsionPass_OnlyDispatchesRepulsionStage(t *testing.T) {
	if stageAttract == stageRepulsion {
		t.Fatal("stageAttract and stageRepulsion must be distinct pipeline slots")
	}
	if stageCount != 2 {
		t.Fatalf("stageCount = %d, want 2 (repulsion + attract, attract unused by RecordRepulsionPass)", stageCount)
	}
}
