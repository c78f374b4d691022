package density

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestNewConfig_RejectsGridAboveCap(t *testing.T) {
	_, err := NewConfig(MaxGridDimension+1, 128, 2, 1.5, 300.0)
	if err == nil {
		t.Fatal("NewConfig with grid width above the cap should fail, got nil error")
	}
	var cfgErr *graphforce.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error = %T, want *graphforce.ConfigError", err)
	}
}

func TestNewConfig_AcceptsGridAtCap(t *testing.T) {
	_, err := NewConfig(MaxGridDimension, MaxGridDimension, 2, 1.5, 300.0)
	if err != nil {
		t.Fatalf("NewConfig at the cap failed: %v", err)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GridWidth > MaxGridDimension || cfg.GridHeight > MaxGridDimension {
		t.Errorf("DefaultConfig grid %dx%d exceeds the cap", cfg.GridWidth, cfg.GridHeight)
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
		t.Error("HandlesGravity() = true, want false")
	}
	if a.HandlesSprings() {
		t.Error("HandlesSprings() = true, want false")
	}
}

func TestRecordRepulsionPass_RequiresBounds(t *testing.T) {
	a := New(DefaultConfig())
	// UpdateUniforms never called: a.hasBounds defaults to false, so
	// RecordRepulsionPass must fail before touching a.device.
	err := a.RecordRepulsionPass(nil, 10)
	if err == nil {
		t.Fatal("RecordRepulsionPass without bounds should fail, got nil error")
	}
	var ctxErr *graphforce.ContextError
	if !errors.As(err, &ctxErr) {
		t.Errorf("error = %T, want *graphforce.ContextError", err)
	}
}

func TestShadersValidate(t *testing.T) {
	for name, src := range map[string]string{
		"density_clear_grid":   shaderClearGrid,
		"density_accumulate":   shaderAccumulate,
		"density_apply_forces": shaderApplyForces,
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
		{"clear_grid", clearGridEntries(), []uint32{0, 1}},
		{"accumulate", accumulateEntries(), []uint32{0, 1, 2}},
		{"apply_forces", applyForcesEntries(), []uint32{0, 1, 2, 3}},
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
