// Package graphforce implements a GPU-accelerated force-directed graph
// layout engine. Nodes carry 2-D positions; repulsion and attraction
// forces are evaluated on the GPU each tick, integrated into velocities
// and positions, and exposed for rendering by an external collaborator.
//
// See the sub-packages:
//   - graph: host-side graph data model
//   - csr: compressed-sparse-row validation and GPU upload
//   - algorithm: the force-algorithm contract and registry
//   - simulation: the per-tick GPU orchestrator
//   - controller: alpha (temperature) state machine
//   - algorithm/direct, barneshut, forceatlas2, linlog, tfdp, density,
//     relativity, community: the eight force algorithms
package graphforce

import "fmt"

// ConfigError is returned when a supplied configuration value is invalid,
// e.g. a t-FDP alpha/beta combination that fails the host-side stability
// constraint, or a density grid resolution above the hard cap.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("graphforce: config error: field %q: %s", e.Field, e.Reason)
}

// CapacityError is returned when a graph exceeds the capacity a
// simulation was allocated for, or when a CSR array violates the
// invariants in §3 of the design (bad offsets, out-of-range indices).
type CapacityError struct {
	Field      string
	Expected   uint64
	Actual     uint64
	NodeCount  uint32
	EdgeCount  uint32
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("graphforce: capacity error: field %q expected %d, got %d (nodes=%d edges=%d)",
		e.Field, e.Expected, e.Actual, e.NodeCount, e.EdgeCount)
}

// ContextError is returned for failures originating from the GPU context:
// device lost, shader compile failure, or missing resources a component
// requires (e.g. a bounding box for the density field).
type ContextError struct {
	Op     string
	Reason string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("graphforce: context error: %s: %s", e.Op, e.Reason)
}

// StateError is returned for operations attempted on a simulation or
// controller in an invalid state: using a disposed simulation, reading
// back positions before any tick has run, or similar lifecycle misuse.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("graphforce: state error: %s: %s", e.Op, e.Reason)
}
