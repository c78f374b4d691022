package simulation

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		t.Errorf("Damping = %v, want in (0,1)", cfg.Damping)
	}
	if cfg.DT <= 0 {
		t.Errorf("DT = %v, want > 0", cfg.DT)
	}
	if cfg.VelocityMax <= 0 {
		t.Errorf("VelocityMax = %v, want > 0", cfg.VelocityMax)
	}
}
