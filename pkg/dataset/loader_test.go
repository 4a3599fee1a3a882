package dataset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"testing"

	"mriganeval/internal/models"
)

// writeSliceDir writes a stack of grayscale JPEG slices into dir using the
// given per-slice pixel pattern.
func writeSliceDir(t *testing.T, dir string, numSlices, width, height int, pattern func(z, x, y int) uint16) {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create slice dir: %v", err)
	}

	for z := 0; z < numSlices; z++ {
		img := image.NewGray16(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(x, y, color.Gray16{Y: pattern(z, x, y)})
			}
		}

		filename := filepath.Join(dir, fmt.Sprintf("slice_%03d.jpg", z))
		file, err := os.Create(filename)
		if err != nil {
			t.Fatalf("Failed to create test slice: %v", err)
		}
		if err := jpeg.Encode(file, img, &jpeg.Options{Quality: 100}); err != nil {
			file.Close()
			t.Fatalf("Failed to encode test slice: %v", err)
		}
		file.Close()
	}
}

// TestCaseNumber verifies extraction of the numeric case identifier
func TestCaseNumber(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
	}{
		{"ProstateX_0014", "0014"},
		{"case_7", "7"},
		{"study_a_12", "12"},
		{"42", "42"},
	}

	for _, tc := range testCases {
		result := CaseNumber(tc.name)
		if result != tc.expected {
			t.Errorf("CaseNumber(%s): expected %s, got %s", tc.name, tc.expected, result)
		}
	}
}

// TestLoadCase verifies that a paired case loads with matching shapes,
// resizing, and normalization applied to both volumes.
func TestLoadCase(t *testing.T) {
	tmpDir := t.TempDir()
	lowDir := filepath.Join(tmpDir, "low_res")
	highDir := filepath.Join(tmpDir, "high_res")

	// 16x16 source slices with a horizontal gradient
	gradient := func(z, x, y int) uint16 {
		return uint16(x * 4096)
	}
	writeSliceDir(t, filepath.Join(lowDir, "7"), 3, 16, 16, gradient)
	writeSliceDir(t, filepath.Join(highDir, "7"), 3, 16, 16, gradient)

	loader := &Loader{
		LowResDir:   lowDir,
		HighResDir:  highDir,
		InputWidth:  8,
		InputHeight: 8,
		Normalize:   true,
	}

	c, err := loader.LoadCase("case_7")
	if err != nil {
		t.Fatalf("LoadCase failed: %v", err)
	}

	if c.Name != "case_7" {
		t.Errorf("Expected case name case_7, got %s", c.Name)
	}

	if !c.LowRes.SameShape(c.HighRes) {
		t.Errorf("Low/high volumes should share a shape: %s vs %s",
			c.LowRes.ShapeString(), c.HighRes.ShapeString())
	}

	if c.LowRes.Width != 8 || c.LowRes.Height != 8 || c.LowRes.Depth != 3 {
		t.Errorf("Expected 8x8x3 volume after resize, got %s", c.LowRes.ShapeString())
	}

	// Normalization maps the min to -1 and the max to 1 exactly
	min, max := c.HighRes.MinMax()
	if math.Abs(min+1) > 1e-9 || math.Abs(max-1) > 1e-9 {
		t.Errorf("Expected normalized range [-1, 1], got [%g, %g]", min, max)
	}
}

// TestLoadCaseNativeShape verifies that a zero target shape keeps the native
// slice dimensions.
func TestLoadCaseNativeShape(t *testing.T) {
	tmpDir := t.TempDir()
	lowDir := filepath.Join(tmpDir, "low_res")
	highDir := filepath.Join(tmpDir, "high_res")

	pattern := func(z, x, y int) uint16 { return uint16((x + y) * 2048) }
	writeSliceDir(t, filepath.Join(lowDir, "3"), 2, 12, 10, pattern)
	writeSliceDir(t, filepath.Join(highDir, "3"), 2, 12, 10, pattern)

	loader := &Loader{LowResDir: lowDir, HighResDir: highDir}

	c, err := loader.LoadCase("case_3")
	if err != nil {
		t.Fatalf("LoadCase failed: %v", err)
	}

	if c.LowRes.Width != 12 || c.LowRes.Height != 10 || c.LowRes.Depth != 2 {
		t.Errorf("Expected native 12x10x2 volume, got %s", c.LowRes.ShapeString())
	}
}

// TestLoadCaseMissing verifies the DataNotFound error kind for absent cases.
func TestLoadCaseMissing(t *testing.T) {
	tmpDir := t.TempDir()
	loader := &Loader{
		LowResDir:  filepath.Join(tmpDir, "low_res"),
		HighResDir: filepath.Join(tmpDir, "high_res"),
	}

	_, err := loader.LoadCase("case_99")
	if !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("Expected ErrCaseNotFound, got %v", err)
	}
}

// TestLoadCaseEmptyDir verifies that a case directory without JPEG slices is
// reported as missing rather than producing an empty volume.
func TestLoadCaseEmptyDir(t *testing.T) {
	tmpDir := t.TempDir()
	lowDir := filepath.Join(tmpDir, "low_res")
	highDir := filepath.Join(tmpDir, "high_res")

	if err := os.MkdirAll(filepath.Join(lowDir, "5"), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	writeSliceDir(t, filepath.Join(highDir, "5"), 2, 8, 8, func(z, x, y int) uint16 { return 0 })

	loader := &Loader{LowResDir: lowDir, HighResDir: highDir}

	_, err := loader.LoadCase("case_5")
	if !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("Expected ErrCaseNotFound for empty slice dir, got %v", err)
	}
}

// TestLoadCaseDepthMismatch verifies that a low/high slice-count mismatch is
// surfaced as a shape error instead of being silently truncated.
func TestLoadCaseDepthMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	lowDir := filepath.Join(tmpDir, "low_res")
	highDir := filepath.Join(tmpDir, "high_res")

	pattern := func(z, x, y int) uint16 { return uint16(x * 4096) }
	writeSliceDir(t, filepath.Join(lowDir, "2"), 3, 8, 8, pattern)
	writeSliceDir(t, filepath.Join(highDir, "2"), 4, 8, 8, pattern)

	loader := &Loader{LowResDir: lowDir, HighResDir: highDir}

	_, err := loader.LoadCase("case_2")
	if !errors.Is(err, models.ErrShapeMismatch) {
		t.Errorf("Expected shape mismatch error, got %v", err)
	}
}

// TestSliceOrdering verifies that slices are stacked in numeric filename
// order even when names are not zero-padded.
func TestSliceOrdering(t *testing.T) {
	tmpDir := t.TempDir()
	caseDir := filepath.Join(tmpDir, "low_res", "1")
	if err := os.MkdirAll(caseDir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	// Write slices out of lexicographic order: slice_1, slice_10, slice_2
	intensities := map[string]uint16{
		"slice_1.jpg":  10000,
		"slice_2.jpg":  30000,
		"slice_10.jpg": 60000,
	}
	for name, value := range intensities {
		img := image.NewGray16(image.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				img.Set(x, y, color.Gray16{Y: value})
			}
		}

		file, err := os.Create(filepath.Join(caseDir, name))
		if err != nil {
			t.Fatalf("Failed to create slice: %v", err)
		}
		if err := jpeg.Encode(file, img, &jpeg.Options{Quality: 100}); err != nil {
			file.Close()
			t.Fatalf("Failed to encode slice: %v", err)
		}
		file.Close()
	}

	loader := &Loader{LowResDir: filepath.Join(tmpDir, "low_res")}
	vol, err := loader.loadVolume(caseDir)
	if err != nil {
		t.Fatalf("loadVolume failed: %v", err)
	}

	// Expect increasing intensity along z: slice_1, slice_2, slice_10
	expected := []float64{10000.0 / 65535, 30000.0 / 65535, 60000.0 / 65535}
	for z, want := range expected {
		got := vol.At(4, 4, z)
		// Allow for JPEG compression artifacts
		if math.Abs(got-want) > 0.05 {
			t.Errorf("Slice %d: expected intensity ~%.3f, got %.3f", z, want, got)
		}
	}
}

// TestResizeNearest verifies that downsampling preserves region structure.
func TestResizeNearest(t *testing.T) {
	// Left half dark, right half bright
	img := image.NewGray16(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			value := uint16(0)
			if x >= 8 {
				value = 65535
			}
			img.Set(x, y, color.Gray16{Y: value})
		}
	}

	dst := make([]float64, 8*8)
	resizeNearestInto(dst, img, 8, 8)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := 0.0
			if x >= 4 {
				want = 1.0
			}
			if math.Abs(dst[y*8+x]-want) > 1e-9 {
				t.Errorf("Resized pixel (%d,%d): expected %.0f, got %.3f", x, y, want, dst[y*8+x])
			}
		}
	}
}
