// Package uniformpack maps semantic simulation parameters into the
// exact byte layouts WGSL uniform blocks expect. WGSL uniform buffers
// require 16-byte alignment; every packer in graphforce writes its
// fields in the order the WGSL struct declares them, matching the teacher's
// own VelloComputeConfig.toBytes() convention (manual little-endian
// field writes, not reflection-based serialization), since host-side
// packing is order- and offset-sensitive per the public wire contract.
package uniformpack

import (
	"encoding/binary"
	"math"
)

// Writer accumulates little-endian fields into a fixed-size uniform
// buffer payload. Callers size it with NewWriter(n) where n is the
// 16-byte-aligned total size, then call WriteU32/WriteF32/Pad in the
// exact field order the corresponding WGSL struct declares.
type Writer struct {
	buf    []byte
	offset int
}

// NewWriter allocates a Writer for a payload of the given byte size.
// Size should already be a multiple of 16; use Align16 to compute it.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

// Align16 rounds n up to the next multiple of 16 bytes.
func Align16(n int) int {
	return (n + 15) &^ 15
}

// WriteU32 writes a uint32 at the current offset and advances by 4.
func (w *Writer) WriteU32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.offset:w.offset+4], v)
	w.offset += 4
}

// WriteI32 writes an int32 at the current offset and advances by 4.
func (w *Writer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

// WriteF32 writes a float32 bit pattern at the current offset and
// advances by 4.
func (w *Writer) WriteF32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.offset:w.offset+4], math.Float32bits(v))
	w.offset += 4
}

// Pad advances the cursor by n bytes without writing, for explicit
// struct padding fields declared in the WGSL source.
func (w *Writer) Pad(n int) {
	w.offset += n
}

// Bytes returns the packed payload. The Writer must not be reused after
// calling Bytes for a partially-written buffer, but may be called
// multiple times once writing is complete.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Offset returns the current write cursor, useful for asserting a
// packer wrote exactly the expected number of bytes in tests.
func (w *Writer) Offset() int {
	return w.offset
}
