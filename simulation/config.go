package simulation

// Config holds the per-tick integration parameters shared by every
// algorithm. Values mirror the fields of shaders/integrate.wgsl's
// IntegrateConfig.
type Config struct {
	// Damping scales the previous velocity each tick (typical 0.9).
	Damping float32
	// DT is the integration timestep.
	DT float32
	// DepthAlphaSpread widens the effective cooling temperature for
	// deeper nodes so hierarchy leaves settle faster than roots.
	DepthAlphaSpread float32
	// VelocityMax clamps the post-integration speed.
	VelocityMax float32
	// Gravity pulls every unpinned node toward the origin each tick.
	Gravity float32
	// SpringStrength and IdealLength parameterize the shared Hooke
	// attraction pass (ignored when the active algorithm sets
	// HandlesSprings).
	SpringStrength float32
	IdealLength    float32
}

// DefaultConfig returns the conventional force-directed layout
// defaults: moderate damping, unit timestep, no depth spread, a
// generous velocity cap, and no shared gravity.
func DefaultConfig() Config {
	return Config{
		Damping:          0.9,
		DT:               1.0,
		DepthAlphaSpread: 0.0,
		VelocityMax:      1000.0,
		Gravity:          0.0,
		SpringStrength:   1.0,
		IdealLength:      30.0,
	}
}
