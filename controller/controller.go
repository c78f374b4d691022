// Package controller drives the alpha (temperature) cooling schedule
// and the running/paused/stopped state machine that gates simulation
// ticks. It never touches the GPU itself — it tells a caller what
// alpha to pack for the next tick and whether to record one at all.
package controller

import (
	"fmt"
	"math"
	"sync"
)

// State is one of the four controller states.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cooling holds the alpha decay law constants. The simulation never
// auto-stops on low alpha: drag interactions always re-energize the
// current layout, so AlphaTarget is conventionally nonzero.
type Cooling struct {
	AlphaInitial float64
	AlphaTarget  float64
	AlphaMin     float64
	AlphaDecay   float64
}

// DefaultCooling matches the conventional force-directed layout
// defaults: unit initial temperature, responsive-but-settled target,
// and the decay rate DecayForIterations(0.001, 300) yields (it would
// take alpha from 1 to AlphaMin in 300 ticks with a zero target; with
// AlphaTarget 0.1, alpha settles toward 0.1 instead).
func DefaultCooling() Cooling {
	return Cooling{
		AlphaInitial: 1.0,
		AlphaTarget:  0.1,
		AlphaMin:     0.001,
		AlphaDecay:   0.0228,
	}
}

// DecayForIterations computes the AlphaDecay that reaches AlphaMin
// after exactly target iterations, starting from alpha=1: solves
// alpha_decay = 1 - alphaMin^(1/target).
func DecayForIterations(alphaMin float64, target int) float64 {
	if target <= 0 {
		return 0
	}
	return 1 - math.Pow(alphaMin, 1/float64(target))
}

// Controller is the alpha/state machine. The zero value is not usable;
// construct with New.
type Controller struct {
	mu sync.Mutex

	cooling Cooling

	state     State
	alpha     float64
	tickCount uint64

	bus *EventBus
}

// New constructs a Controller in StateIdle with the given cooling law
// and an empty EventBus.
func New(cooling Cooling) *Controller {
	return &Controller{
		cooling: cooling,
		state:   StateIdle,
		bus:     NewEventBus(),
	}
}

// Events returns the controller's event bus, for subscribing handlers.
func (c *Controller) Events() *EventBus {
	return c.bus
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Alpha returns the current temperature.
func (c *Controller) Alpha() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alpha
}

// TickCount returns the number of ticks applied since the last
// stop/restart.
func (c *Controller) TickCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickCount
}

// Start transitions idle/paused -> running. From idle it resets alpha
// to AlphaInitial only if no ticks have run yet (tickCount==0) so
// resuming a freshly-constructed controller and resuming a paused one
// behave the same from the caller's perspective. From paused it
// resumes without resetting alpha or tick count.
func (c *Controller) Start() {
	c.mu.Lock()
	wasPaused := c.state == StatePaused
	if c.state != StateIdle && c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	if c.state == StateIdle && c.tickCount == 0 {
		c.alpha = c.cooling.AlphaInitial
	}
	c.state = StateRunning
	alpha := c.alpha
	c.mu.Unlock()

	if wasPaused {
		c.bus.emit(Event{Kind: EventResume, Alpha: alpha})
	}
}

// Pause transitions running -> paused. No-op from any other state.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	alpha := c.alpha
	c.mu.Unlock()

	c.bus.emit(Event{Kind: EventPause, Alpha: alpha})
}

// Stop transitions to stopped from any state, resets alpha to 0 and
// tickCount to 0, and emits end(tickCount) with the tick count
// observed immediately before the reset.
func (c *Controller) Stop() {
	c.mu.Lock()
	finalTicks := c.tickCount
	c.state = StateStopped
	c.alpha = 0
	c.tickCount = 0
	c.mu.Unlock()

	c.bus.emit(Event{Kind: EventEnd, TickCount: finalTicks})
}

// Restart transitions to running from any state, resets alpha to
// AlphaInitial and tickCount to 0, and emits exactly one
// restart(alpha) event.
func (c *Controller) Restart() {
	c.mu.Lock()
	c.state = StateRunning
	c.alpha = c.cooling.AlphaInitial
	c.tickCount = 0
	alpha := c.alpha
	c.mu.Unlock()

	c.bus.emit(Event{Kind: EventRestart, Alpha: alpha})
}

// Tick advances alpha by the cooling law and increments tickCount,
// then emits tick(alpha, tickCount). A Tick call while not running is
// a no-op (Stop makes subsequent ticks no-ops, matching spec's
// cancellation semantics) and returns the unchanged alpha.
func (c *Controller) Tick() float64 {
	c.mu.Lock()
	if c.state != StateRunning {
		alpha := c.alpha
		c.mu.Unlock()
		return alpha
	}

	c.alpha += (c.cooling.AlphaTarget - c.alpha) * c.cooling.AlphaDecay
	c.tickCount++
	alpha := c.alpha
	ticks := c.tickCount
	c.mu.Unlock()

	c.bus.emit(Event{Kind: EventTick, Alpha: alpha, TickCount: ticks})
	return alpha
}
