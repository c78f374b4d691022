package simulation

import "testing"

func TestClearBindGroupLayoutEntries_Bindings(t *testing.T) {
	entries := clearBindGroupLayoutEntries()
	wantBindings := []uint32{0, 1}
	if len(entries) != len(wantBindings) {
		t.Fatalf("len = %d, want %d", len(entries), len(wantBindings))
	}
	for i, e := range entries {
		if e.Binding != wantBindings[i] {
			t.Errorf("entries[%d].Binding = %d, want %d", i, e.Binding, wantBindings[i])
		}
	}
}

func TestSpringsBindGroupLayoutEntries_Bindings(t *testing.T) {
	entries := springsBindGroupLayoutEntries()
	wantBindings := []uint32{0, 1, 2, 3, 4, 5}
	if len(entries) != len(wantBindings) {
		t.Fatalf("len = %d, want %d", len(entries), len(wantBindings))
	}
	for i, e := range entries {
		if e.Binding != wantBindings[i] {
			t.Errorf("entries[%d].Binding = %d, want %d", i, e.Binding, wantBindings[i])
		}
	}
}

func TestIntegrateBindGroupLayoutEntries_Bindings(t *testing.T) {
	entries := integrateBindGroupLayoutEntries()
	wantBindings := []uint32{0, 1, 2, 3, 4, 5, 6}
	if len(entries) != len(wantBindings) {
		t.Fatalf("len = %d, want %d", len(entries), len(wantBindings))
	}
	for i, e := range entries {
		if e.Binding != wantBindings[i] {
			t.Errorf("entries[%d].Binding = %d, want %d", i, e.Binding, wantBindings[i])
		}
	}
}
