// Package fixedpoint implements the scaled-integer encodings used to
// simulate atomic float accumulation on the GPU: community centroids
// (scale 10, spec §3/§4.8) and density grid cells (scale 1000, spec
// §4.6). WGSL has no atomic<f32>; both the shaders and this package
// multiply by the scale, round to the nearest i32/u32, and accumulate
// with atomicAdd. Decoding divides back down.
package fixedpoint

import "math"

// CentroidScale is the fixed-point scale used for community centroid
// accumulation (i32, signed — sums can be negative).
const CentroidScale = 10

// DensityScale is the fixed-point scale used for density grid
// accumulation (u32, unsigned — density is never negative).
const DensityScale = 1000

// EncodeCentroid converts a graph-unit coordinate into the scaled
// integer the GPU shader atomically adds into a centroid sum.
func EncodeCentroid(v float32) int32 {
	return int32(math.Round(float64(v) * CentroidScale))
}

// DecodeCentroid converts an accumulated scaled integer sum back into
// graph units. Passing a sum and a count lets the caller compute the
// mean directly: DecodeCentroid(sumX, count) == mean x.
func DecodeCentroid(sum int32, count uint32) float32 {
	if count == 0 {
		return 0
	}
	return float32(float64(sum) / CentroidScale / float64(count))
}

// EncodeDensity converts a splat weight into the scaled unsigned integer
// added to a density grid cell via atomicAdd.
func EncodeDensity(weight float32) uint32 {
	if weight < 0 {
		weight = 0
	}
	return uint32(math.Round(float64(weight) * DensityScale))
}

// DecodeDensity converts an accumulated density cell back into a
// floating-point density value.
func DecodeDensity(cell uint32) float32 {
	return float32(float64(cell) / DensityScale)
}
