package tfdp

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestNewConfig_RejectsUnstableAlphaBeta(t *testing.T) {
	_, err := NewConfig(200.0, 1.0, 1.0, 0.8, 0.5)
	if err == nil {
		t.Fatal("NewConfig with alpha*(1+beta) >= 1 should fail, got nil error")
	}
	var cfgErr *graphforce.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error = %T, want *graphforce.ConfigError", err)
	}
}

func TestNewConfig_AcceptsStableAlphaBeta(t *testing.T) {
	cfg, err := NewConfig(200.0, 1.0, 1.0, 0.3, 0.1)
	if err != nil {
		t.Fatalf("NewConfig with stable alpha/beta failed: %v", err)
	}
	if cfg.Alpha != 0.3 || cfg.Beta != 0.1 {
		t.Errorf("cfg = %+v, want Alpha=0.3 Beta=0.1", cfg)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Alpha*(1+cfg.Beta) >= 1 {
		t.Errorf("DefaultConfig violates stability constraint: alpha=%v beta=%v", cfg.Alpha, cfg.Beta)
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
	if !a.HandlesSprings() {
		t.Error("HandlesSprings() = false, want true (t-FDP owns its own attraction pass)")
	}
}

func TestShadersValidate(t *testing.T) {
	for name, src := range map[string]string{
		"tfdp_repulsion":  shaderRepulsion,
		"tfdp_attraction": shaderAttraction,
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
		{"repulsion", repulsionEntries(), []uint32{0, 1, 2}},
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
