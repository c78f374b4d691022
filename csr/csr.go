// Package csr validates and uploads the compressed-sparse-row arrays
// consumed by hierarchical algorithms (Relativity Atlas's degree and
// mass passes). A graph of N nodes and E edges has two CSR pairs:
// forward (outgoing neighbors / children) and inverse (incoming
// neighbors / parents); see spec §3 and §6.
package csr

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/graphforce"
)

// Matrix is one direction (forward or inverse) of a CSR adjacency
// representation. Offsets has N+1 entries with Offsets[0]=0 and
// Offsets[N]=len(Indices); Indices has one entry per edge-endpoint,
// each in [0,N).
type Matrix struct {
	Offsets []uint32
	Indices []uint32
}

// Pair bundles the forward and inverse CSR matrices for a graph, the
// representation Relativity Atlas's compute_degrees pass consumes.
type Pair struct {
	Forward Matrix
	Inverse Matrix
}

// Build constructs the forward (src -> dst) and inverse (dst -> src)
// CSR matrices from a node count and an edge list. Edges are treated as
// directed; callers that want an undirected graph should add both
// (u,v) and (v,u) before calling Build.
func Build(nodeCount uint32, src, dst []uint32) (Pair, error) {
	if len(src) != len(dst) {
		return Pair{}, &graphforce.CapacityError{
			Field:    "edge arrays",
			Expected: uint64(len(src)),
			Actual:   uint64(len(dst)),
		}
	}
	fwd := buildDirection(nodeCount, src, dst)
	inv := buildDirection(nodeCount, dst, src)
	return Pair{Forward: fwd, Inverse: inv}, nil
}

func buildDirection(nodeCount uint32, from, to []uint32) Matrix {
	counts := make([]uint32, nodeCount+1)
	for _, f := range from {
		counts[f+1]++
	}
	for i := uint32(1); i <= nodeCount; i++ {
		counts[i] += counts[i-1]
	}
	offsets := append([]uint32(nil), counts...)
	indices := make([]uint32, len(from))
	cursor := append([]uint32(nil), counts...)
	for i, f := range from {
		pos := cursor[f]
		indices[pos] = to[i]
		cursor[f]++
	}
	return Matrix{Offsets: offsets, Indices: indices}
}

// Validate checks the §3 invariants for a single CSR matrix against a
// node count: Offsets has N+1 entries starting at 0, is monotone
// non-decreasing, ends at len(Indices), and every index is < nodeCount.
// The field name is included in the returned error so callers can tell
// forward from inverse validation failures apart.
func Validate(field string, m Matrix, nodeCount uint32) error {
	if uint64(len(m.Offsets)) != uint64(nodeCount)+1 {
		return &graphforce.CapacityError{
			Field:    field + ".offsets.len",
			Expected: uint64(nodeCount) + 1,
			Actual:   uint64(len(m.Offsets)),
		}
	}
	if len(m.Offsets) > 0 && m.Offsets[0] != 0 {
		return &graphforce.CapacityError{
			Field:    field + ".offsets[0]",
			Expected: 0,
			Actual:   uint64(m.Offsets[0]),
		}
	}
	for i := 1; i < len(m.Offsets); i++ {
		if m.Offsets[i] < m.Offsets[i-1] {
			return &graphforce.CapacityError{
				Field:    field + ".offsets monotonicity",
				Expected: uint64(m.Offsets[i-1]),
				Actual:   uint64(m.Offsets[i]),
			}
		}
	}
	if n := len(m.Offsets); n > 0 {
		last := m.Offsets[n-1]
		if uint64(last) != uint64(len(m.Indices)) {
			return &graphforce.CapacityError{
				Field:    field + ".offsets[N]",
				Expected: uint64(len(m.Indices)),
				Actual:   uint64(last),
			}
		}
	}
	for i, idx := range m.Indices {
		if idx >= nodeCount {
			return &graphforce.CapacityError{
				Field:     field + ".indices",
				Expected:  uint64(nodeCount) - 1,
				Actual:    uint64(idx),
				NodeCount: nodeCount,
				EdgeCount: uint32(i),
			}
		}
	}
	return nil
}

// ValidatePair validates both directions and additionally checks that
// forward and inverse agree on the total edge count, per spec §3
// ("forward and inverse must agree on E").
func ValidatePair(p Pair, nodeCount uint32) error {
	if err := Validate("forward", p.Forward, nodeCount); err != nil {
		return err
	}
	if err := Validate("inverse", p.Inverse, nodeCount); err != nil {
		return err
	}
	if len(p.Forward.Indices) != len(p.Inverse.Indices) {
		return &graphforce.CapacityError{
			Field:    "forward/inverse edge count",
			Expected: uint64(len(p.Forward.Indices)),
			Actual:   uint64(len(p.Inverse.Indices)),
		}
	}
	return nil
}

// Buffers holds the four GPU storage buffers backing an uploaded CSR
// pair: forward offsets/indices and inverse offsets/indices.
type Buffers struct {
	ForwardOffsets hal.Buffer
	ForwardIndices hal.Buffer
	InverseOffsets hal.Buffer
	InverseIndices hal.Buffer
}

// Upload validates p against nodeCount and, if valid, creates and
// populates the four GPU storage buffers. The caller owns the returned
// Buffers and must call Destroy when done.
func Upload(device hal.Device, queue hal.Queue, p Pair, nodeCount uint32) (*Buffers, error) {
	if err := ValidatePair(p, nodeCount); err != nil {
		return nil, err
	}

	mk := func(label string, data []uint32) (hal.Buffer, error) {
		bytes := u32ToBytes(data)
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: label,
			Size:  uint64(len(bytes)),
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, &graphforce.ContextError{Op: "csr.Upload", Reason: err.Error()}
		}
		if len(bytes) > 0 {
			queue.WriteBuffer(buf, 0, bytes)
		}
		return buf, nil
	}

	fwdOff, err := mk("csr_forward_offsets", p.Forward.Offsets)
	if err != nil {
		return nil, err
	}
	fwdIdx, err := mk("csr_forward_indices", p.Forward.Indices)
	if err != nil {
		device.DestroyBuffer(fwdOff)
		return nil, err
	}
	invOff, err := mk("csr_inverse_offsets", p.Inverse.Offsets)
	if err != nil {
		device.DestroyBuffer(fwdOff)
		device.DestroyBuffer(fwdIdx)
		return nil, err
	}
	invIdx, err := mk("csr_inverse_indices", p.Inverse.Indices)
	if err != nil {
		device.DestroyBuffer(fwdOff)
		device.DestroyBuffer(fwdIdx)
		device.DestroyBuffer(invOff)
		return nil, err
	}

	return &Buffers{
		ForwardOffsets: fwdOff,
		ForwardIndices: fwdIdx,
		InverseOffsets: invOff,
		InverseIndices: invIdx,
	}, nil
}

// Destroy releases all GPU buffers. Safe to call on a nil receiver.
func (b *Buffers) Destroy(device hal.Device) {
	if b == nil {
		return
	}
	for _, buf := range []hal.Buffer{b.ForwardOffsets, b.ForwardIndices, b.InverseOffsets, b.InverseIndices} {
		if buf != nil {
			device.DestroyBuffer(buf)
		}
	}
}

func u32ToBytes(data []uint32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		out[i*4+0] = byte(v)
		out[i*4+1] = byte(v >> 8)
		out[i*4+2] = byte(v >> 16)
		out[i*4+3] = byte(v >> 24)
	}
	return out
}
