package shaderutil

import "testing"

func TestWorkgroupCount(t *testing.T) {
	cases := []struct {
		elements, size, want uint32
	}{
		{0, 256, 0},
		{1, 256, 1},
		{256, 256, 1},
		{257, 256, 2},
		{1000, 256, 4},
		{100, 0, 0},
	}
	for _, c := range cases {
		if got := WorkgroupCount(c.elements, c.size); got != c.want {
			t.Errorf("WorkgroupCount(%d, %d) = %d, want %d", c.elements, c.size, got, c.want)
		}
	}
}
