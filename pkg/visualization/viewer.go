// Package visualization renders MRI volumes and evaluation comparisons as
// grayscale JPEG images: single slices, slice sequences along an axis, and
// side-by-side low/high/generated comparison panels.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"mriganeval/internal/models"
)

// Viewer extracts and saves 2D views of a single volume.
type Viewer struct {
	volume *models.Volume

	// min and max are the intensity bounds used for display scaling, so
	// normalized [-1, 1] and raw [0, 1] volumes both render correctly
	min float64
	max float64
}

// NewViewer creates a viewer over a volume. Display scaling is anchored to
// the volume's own intensity range.
func NewViewer(volume *models.Volume) *Viewer {
	min, max := volume.MinMax()
	return &Viewer{volume: volume, min: min, max: max}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	vol := v.volume
	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Slice along the YZ plane
		if position >= vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, vol.Width)
		}

		img = image.NewGray16(image.Rect(0, 0, vol.Depth, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for z := 0; z < vol.Depth; z++ {
				img.SetGray16(z, y, color.Gray16{Y: v.displayValue(vol.At(position, y, z))})
			}
		}

	case "y", "Y":
		// Slice along the XZ plane
		if position >= vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, vol.Height)
		}

		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray16(x, z, color.Gray16{Y: v.displayValue(vol.At(x, position, z))})
			}
		}

	case "z", "Z":
		// Slice along the XY plane
		if position >= vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, vol.Depth)
		}

		img = image.NewGray16(image.Rect(0, 0, vol.Width, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray16(x, y, color.Gray16{Y: v.displayValue(vol.At(x, y, position))})
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// displayValue maps an intensity into the 16-bit grayscale display range.
func (v *Viewer) displayValue(value float64) uint16 {
	if v.max <= v.min {
		return 0
	}

	scaled := (value - v.min) / (v.max - v.min) * 65535
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 65535 {
		scaled = 65535
	}
	return uint16(scaled)
}

// SaveSlice saves an extracted slice as a JPEG image.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves all slices along the specified axis.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.volume.Width
	case "y", "Y":
		maxPos = v.volume.Height
	case "z", "Z":
		maxPos = v.volume.Depth
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}

// comparisonGap is the width in pixels of the separator between panels
const comparisonGap = 4

// SaveComparison renders the z-th slice of the low-res, high-res, and
// generated volumes side by side in a single JPEG, in that panel order.
// All three volumes must share identical spatial dimensions.
func SaveComparison(low, high, generated *models.Volume, z int, filename string) error {
	if !low.SameShape(high) || !low.SameShape(generated) {
		return fmt.Errorf("%w: low %s, high %s, generated %s", models.ErrShapeMismatch,
			low.ShapeString(), high.ShapeString(), generated.ShapeString())
	}
	if z < 0 || z >= low.Depth {
		return fmt.Errorf("position %d exceeds depth %d", z, low.Depth)
	}

	panels := []*models.Volume{low, high, generated}
	width := low.Width
	height := low.Height

	totalWidth := len(panels)*width + (len(panels)-1)*comparisonGap
	img := image.NewGray16(image.Rect(0, 0, totalWidth, height))

	for i, vol := range panels {
		viewer := NewViewer(vol)
		xOffset := i * (width + comparisonGap)

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				value := viewer.displayValue(vol.At(x, y, z))
				img.SetGray16(xOffset+x, y, color.Gray16{Y: value})
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}
