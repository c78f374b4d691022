package density

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/graphforce/internal/fixedpoint"
)

func TestDumpGridPNG_WritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "density.png")

	cells := make([]uint32, 4*4)
	cells[5] = fixedpoint.EncodeDensity(2.5)
	cells[10] = fixedpoint.EncodeDensity(1.0)

	if err := DumpGridPNG(path, 4, 4, cells, 1); err != nil {
		t.Fatalf("DumpGridPNG: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output PNG is empty")
	}
}

func TestDumpGridPNG_ScalesUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "density_scaled.png")

	cells := make([]uint32, 2*2)
	if err := DumpGridPNG(path, 2, 2, cells, 8); err != nil {
		t.Fatalf("DumpGridPNG with scale: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat output file: %v", err)
	}
}

func TestDumpGridPNG_AllZeroGridDoesNotDivideByZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.png")

	cells := make([]uint32, 3*3)
	if err := DumpGridPNG(path, 3, 3, cells, 1); err != nil {
		t.Fatalf("DumpGridPNG on all-zero grid: %v", err)
	}
}
