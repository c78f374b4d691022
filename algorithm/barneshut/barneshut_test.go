package barneshut

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/graphforce/algorithm"
	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Theta <= 0 {
		t.Errorf("Theta = %v, want > 0", cfg.Theta)
	}
	if cfg.RadixSortThreshold == 0 {
		t.Errorf("RadixSortThreshold = 0, want a positive crossover point")
	}
}

func TestDescriptor(t *testing.T) {
	d := Descriptor()
	if d.ID != ID {
		t.Errorf("ID = %q, want %q", d.ID, ID)
	}
	if d.MaxNodes != 50000 {
		t.Errorf("MaxNodes = %d, want 50000 (density takes over above that)", d.MaxNodes)
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

func TestRecordRepulsionPass_SkipsBelowTwoNodes(t *testing.T) {
	a := New(DefaultConfig())
	// With fewer than two nodes there is no tree to build; this must
	// return without touching a nil device or any uninitialized buffer.
	if err := a.RecordRepulsionPass(nil, 0); err != nil {
		t.Errorf("RecordRepulsionPass(0) = %v, want nil", err)
	}
	if err := a.RecordRepulsionPass(nil, 1); err != nil {
		t.Errorf("RecordRepulsionPass(1) = %v, want nil", err)
	}
}

func TestShadersValidate(t *testing.T) {
	shaders := map[string]string{
		"bh_morton":          shaderMorton,
		"bh_counting_sort":   shaderCountingSort,
		"bh_radix_histogram": shaderRadixHistogram,
		"bh_radix_reduce":    shaderRadixReduce,
		"bh_radix_scan":      shaderRadixScan,
		"bh_radix_scatter":   shaderRadixScatter,
		"bh_clear_tree":      shaderClearTree,
		"bh_karras":          shaderKarras,
		"bh_init_leaves":     shaderInitLeaves,
		"bh_aggregate":       shaderAggregate,
		"bh_traverse":        shaderTraverse,
	}
	for name, src := range shaders {
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
		{"morton", mortonEntries(), []uint32{0, 1, 2, 3}},
		{"countingSort", countingSortEntries(), []uint32{0, 1, 2, 3, 4}},
		{"radixHistogram", radixHistogramEntries(), []uint32{0, 1, 2}},
		{"radixReduce", radixReduceEntries(), []uint32{0, 1, 2, 3}},
		{"radixScan", radixScanEntries(), []uint32{0, 1, 2}},
		{"radixScatter", radixScatterEntries(), []uint32{0, 1, 2, 3, 4, 5, 6}},
		{"clearTree", clearTreeEntries(), []uint32{0, 1, 2}},
		{"karras", karrasEntries(), []uint32{0, 1, 2}},
		{"initLeaves", initLeavesEntries(), []uint32{0, 1, 2, 3}},
		{"aggregate", aggregateEntries(), []uint32{0, 1, 2}},
		{"traverse", traverseEntries(), []uint32{0, 1, 2, 3}},
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
