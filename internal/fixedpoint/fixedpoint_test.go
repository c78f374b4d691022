package fixedpoint

import "testing"

func TestCentroidRoundTrip(t *testing.T) {
	// Accumulate three points, as the accumulate_centroids shader would
	// via atomicAdd, then decode the mean.
	xs := []float32{1.25, 4.75, -2.5}
	var sum int32
	for _, x := range xs {
		sum += EncodeCentroid(x)
	}
	got := DecodeCentroid(sum, uint32(len(xs)))
	want := float32(1.1666667)
	if diff := got - want; diff > 0.1 || diff < -0.1 {
		t.Errorf("DecodeCentroid() = %v, want within 0.1 of %v", got, want)
	}
}

func TestDensityRoundTrip(t *testing.T) {
	cell := EncodeDensity(0) + EncodeDensity(0.5) + EncodeDensity(0.25)
	got := DecodeDensity(cell)
	want := float32(0.75)
	if diff := got - want; diff > 1e-3 || diff < -1e-3 {
		t.Errorf("DecodeDensity() = %v, want %v", got, want)
	}
}

func TestEncodeDensity_ClampsNegative(t *testing.T) {
	if got := EncodeDensity(-5); got != 0 {
		t.Errorf("EncodeDensity(-5) = %d, want 0", got)
	}
}
