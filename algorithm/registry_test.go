package algorithm

import (
	"testing"

	"github.com/gogpu/wgpu/hal"
)

type stubAlgorithm struct {
	id string
}

func (s *stubAlgorithm) Descriptor() Descriptor {
	return Descriptor{ID: s.id, Name: s.id}
}
func (s *stubAlgorithm) CreatePipelines(device hal.Device) error { return nil }
func (s *stubAlgorithm) CreateBuffers(maxNodes uint32) error     { return nil }
func (s *stubAlgorithm) CreateBindGroups(ctx RenderContext, shared SharedBuffers) error {
	return nil
}
func (s *stubAlgorithm) UpdateUniforms(ctx RenderContext) error { return nil }
func (s *stubAlgorithm) HandlesGravity() bool                   { return false }
func (s *stubAlgorithm) HandlesSprings() bool                   { return false }
func (s *stubAlgorithm) Destroy()                               {}
func (s *stubAlgorithm) RecordRepulsionPass(enc hal.CommandEncoder, n uint32) error {
	return nil
}

func TestRegistry_RegisterAndNew(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{ID: "direct", Name: "Direct N-Squared"}, func() Algorithm {
		return &stubAlgorithm{id: "direct"}
	})

	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	if !r.IsRegistered("direct") {
		t.Fatal("IsRegistered(direct) = false, want true")
	}

	a, err := r.New("direct")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Descriptor().ID != "direct" {
		t.Errorf("ID = %q, want direct", a.Descriptor().ID)
	}
}

func TestRegistry_New_Unknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New("nope"); err == nil {
		t.Fatal("New(nope) = nil error, want error")
	}
}

func TestRegistry_Register_PanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{ID: "direct"}, func() Algorithm { return &stubAlgorithm{id: "direct"} })

	defer func() {
		if recover() == nil {
			t.Fatal("Register duplicate did not panic")
		}
	}()
	r.Register(Descriptor{ID: "direct"}, func() Algorithm { return &stubAlgorithm{id: "direct"} })
}

func TestRegistry_Register_PanicsOnNilFactory(t *testing.T) {
	r := NewRegistry()
	defer func() {
		if recover() == nil {
			t.Fatal("Register nil factory did not panic")
		}
	}()
	r.Register(Descriptor{ID: "x"}, nil)
}

func TestRegistry_Select_Cascade(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{ID: "direct", MinNodes: 0, MaxNodes: 4999}, func() Algorithm {
		return &stubAlgorithm{id: "direct"}
	})
	r.Register(Descriptor{ID: "barneshut", MinNodes: 5000, MaxNodes: 50000}, func() Algorithm {
		return &stubAlgorithm{id: "barneshut"}
	})
	r.Register(Descriptor{ID: "density", MinNodes: 50001, MaxNodes: 0}, func() Algorithm {
		return &stubAlgorithm{id: "density"}
	})

	cases := []struct {
		n    uint32
		want string
	}{
		{100, "direct"},
		{4999, "direct"},
		{5000, "barneshut"},
		{50000, "barneshut"},
		{50001, "density"},
		{10_000_000, "density"},
	}
	for _, c := range cases {
		a, err := r.Select(c.n)
		if err != nil {
			t.Fatalf("Select(%d): %v", c.n, err)
		}
		if got := a.Descriptor().ID; got != c.want {
			t.Errorf("Select(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestRegistry_Select_NoMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{ID: "direct", MinNodes: 0, MaxNodes: 100}, func() Algorithm {
		return &stubAlgorithm{id: "direct"}
	})
	if _, err := r.Select(500); err == nil {
		t.Fatal("Select(500) = nil error, want error")
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{ID: "direct"}, func() Algorithm { return &stubAlgorithm{id: "direct"} })
	r.Unregister("direct")
	if r.IsRegistered("direct") {
		t.Fatal("IsRegistered(direct) = true after Unregister")
	}
	if r.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistry_Descriptors_SortedByID(t *testing.T) {
	r := NewRegistry()
	r.Register(Descriptor{ID: "relativity"}, func() Algorithm { return &stubAlgorithm{id: "relativity"} })
	r.Register(Descriptor{ID: "community"}, func() Algorithm { return &stubAlgorithm{id: "community"} })
	r.Register(Descriptor{ID: "direct"}, func() Algorithm { return &stubAlgorithm{id: "direct"} })

	descs := r.Descriptors()
	var ids []string
	for _, d := range descs {
		ids = append(ids, d.ID)
	}
	want := []string{"community", "direct", "relativity"}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("Descriptors()[%d].ID = %q, want %q", i, ids[i], id)
		}
	}
}
