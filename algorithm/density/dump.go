package density

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/gogpu/graphforce/internal/fixedpoint"
)

// DumpGridPNG renders a raw, fixed-point-encoded density grid (as read
// back from the GPU, row-major, width*height uint32 cells) as a
// grayscale PNG for debugging. Decoding and normalization happen
// host-side; this never runs as part of a tick. scale upsamples the
// grid (one grid cell is rarely more than a handful of screen pixels
// otherwise) using golang.org/x/image/draw's bilinear interpolation;
// scale <= 1 leaves the image at native grid resolution.
func DumpGridPNG(path string, width, height uint32, cells []uint32, scale int) error {
	img := image.NewGray(image.Rect(0, 0, int(width), int(height)))

	var maxDensity float32
	for _, cell := range cells {
		if d := fixedpoint.DecodeDensity(cell); d > maxDensity {
			maxDensity = d
		}
	}
	if maxDensity == 0 {
		maxDensity = 1
	}

	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			idx := y*width + x
			if idx >= uint32(len(cells)) {
				continue
			}
			d := fixedpoint.DecodeDensity(cells[idx])
			gray := uint8(255 * d / maxDensity)
			img.SetGray(int(x), int(y), color.Gray{Y: gray})
		}
	}

	out := image.Image(img)
	if scale > 1 {
		scaled := image.NewGray(image.Rect(0, 0, int(width)*scale, int(height)*scale))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
		out = scaled
	}

	f, err := os.Create(path) //nolint:gosec // path is caller-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, out)
}
