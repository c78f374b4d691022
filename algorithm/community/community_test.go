package community

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/graphforce"
	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestNewConfig_RejectsCommunityCountAboveCap(t *testing.T) {
	_, err := NewConfig(0.5, 2.0, 200.0, 1.0, 1.0, 50.0, MaxCommunityCount+1)
	if err == nil {
		t.Fatal("NewConfig with community count above the cap should fail, got nil error")
	}
	var cfgErr *graphforce.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error = %T, want *graphforce.ConfigError", err)
	}
}

func TestNewConfig_AcceptsCommunityCountAtCap(t *testing.T) {
	_, err := NewConfig(0.5, 2.0, 200.0, 1.0, 1.0, 50.0, MaxCommunityCount)
	if err != nil {
		t.Fatalf("NewConfig at the cap failed: %v", err)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxCommunities > MaxCommunityCount {
		t.Errorf("DefaultConfig MaxCommunities %d exceeds the cap", cfg.MaxCommunities)
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
	if a.HandlesSprings() {
		t.Error("HandlesSprings() = true, want false")
	}
}

func TestSetDegrees_MarksDirty(t *testing.T) {
	a := New(DefaultConfig())
	a.SetDegrees([]uint32{1, 2, 3})
	if !a.degreesDirty {
		t.Error("degreesDirty = false after SetDegrees, want true")
	}
}

func TestSetCommunities_MarksDirty(t *testing.T) {
	a := New(DefaultConfig())
	a.SetCommunities([]uint32{0, 0, 1})
	if !a.communitiesDirty {
		t.Error("communitiesDirty = false after SetCommunities, want true")
	}
	if len(a.pendingCommunities) != 3 {
		t.Errorf("len(pendingCommunities) = %d, want 3", len(a.pendingCommunities))
	}
}

func TestShadersValidate(t *testing.T) {
	for name, src := range map[string]string{
		"community_clear_centroids":      shaderClearCentroids,
		"community_repulsion":            shaderRepulsion,
		"community_accumulate_centroids": shaderAccumulateCentroids,
		"community_cluster_attract":      shaderClusterAttract,
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
		{"clear_centroids", clearCentroidsEntries(), []uint32{0, 1, 2, 3}},
		{"repulsion", repulsionEntries(), []uint32{0, 1, 2, 3, 4}},
		{"accumulate_centroids", accumulateCentroidsEntries(), []uint32{0, 1, 2, 3, 4, 5}},
		{"cluster_attract", clusterAttractEntries(), []uint32{0, 1, 2, 3, 4, 5, 6, 7}},
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
