// Package dataset loads paired low/high resolution MRI cases from disk and
// manages the historical metrics table used for the train/test split.
//
// On disk a case is a directory of numerically ordered grayscale JPEG slices.
// Low and high resolution acquisitions live in parallel directory trees keyed
// by the numeric case identifier:
//
//	<lowResDir>/<caseNum>/*.jpg
//	<highResDir>/<caseNum>/*.jpg
package dataset

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"mriganeval/internal/models"
)

// ErrCaseNotFound is returned when a case directory or its slices are missing.
var ErrCaseNotFound = errors.New("case not found")

// Loader reads paired cases from the low/high resolution directory trees.
type Loader struct {
	// LowResDir is the root directory of low-resolution cases
	LowResDir string

	// HighResDir is the root directory of high-resolution cases
	HighResDir string

	// InputWidth and InputHeight give the target in-plane shape. Slices are
	// resized with nearest-neighbor interpolation. Zero keeps the native shape.
	InputWidth  int
	InputHeight int

	// Normalize rescales each volume to the [-1, 1] intensity range after loading
	Normalize bool
}

// CaseNumber extracts the numeric case identifier from a patient name.
// Patient names follow the "<study>_<num>" convention, so the identifier is
// the suffix after the last underscore.
func CaseNumber(name string) string {
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// LoadCase loads the paired low/high resolution volumes for a patient.
// Both volumes are resized to the target in-plane shape, so the pair is
// guaranteed to share identical spatial dimensions on success.
func (l *Loader) LoadCase(name string) (*models.Case, error) {
	num := CaseNumber(name)

	low, err := l.loadVolume(filepath.Join(l.LowResDir, num))
	if err != nil {
		return nil, fmt.Errorf("low-res volume for case %s: %w", name, err)
	}

	high, err := l.loadVolume(filepath.Join(l.HighResDir, num))
	if err != nil {
		return nil, fmt.Errorf("high-res volume for case %s: %w", name, err)
	}

	if !low.SameShape(high) {
		return nil, fmt.Errorf("case %s: %w: low-res %s vs high-res %s",
			name, models.ErrShapeMismatch, low.ShapeString(), high.ShapeString())
	}

	if l.Normalize {
		low.Normalize()
		high.Normalize()
	}

	return &models.Case{Name: name, LowRes: low, HighRes: high}, nil
}

// loadVolume reads all JPEG slices in a case directory, sorted by the numeric
// part of their filenames to preserve anatomical order, and stacks them into
// a volume.
func (l *Loader) loadVolume(dir string) (*models.Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, dir)
		}
		return nil, err
	}

	var sliceFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".jpg" || ext == ".jpeg" {
			sliceFiles = append(sliceFiles, entry.Name())
		}
	}

	if len(sliceFiles) == 0 {
		return nil, fmt.Errorf("%w: no JPEG slices in %s", ErrCaseNotFound, dir)
	}

	// Sort slices by the numeric part of their filenames so the anatomical
	// ordering survives zero-padded and unpadded naming alike
	sort.Slice(sliceFiles, func(i, j int) bool {
		return extractNumber(sliceFiles[i]) < extractNumber(sliceFiles[j])
	})

	var vol *models.Volume
	for z, filename := range sliceFiles {
		img, err := loadImage(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to load slice %s: %v", filename, err)
		}

		if vol == nil {
			width := l.InputWidth
			height := l.InputHeight
			if width <= 0 || height <= 0 {
				bounds := img.Bounds()
				width = bounds.Dx()
				height = bounds.Dy()
			}
			vol = models.NewVolume(width, height, len(sliceFiles))
		}

		resizeNearestInto(vol.Slice(z), img, vol.Width, vol.Height)
	}

	return vol, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	numStr := ""
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}

// loadImage loads a JPEG image from a file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return jpeg.Decode(file)
}

// resizeNearestInto resamples a grayscale image to width x height with
// nearest-neighbor interpolation, writing intensities in the 0-1 range into
// dst. Nearest-neighbor matches the preprocessing of the training pipeline,
// which must not invent intermediate intensities.
func resizeNearestInto(dst []float64, img image.Image, width, height int) {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	for y := 0; y < height; y++ {
		srcY := bounds.Min.Y + y*srcH/height
		for x := 0; x < width; x++ {
			srcX := bounds.Min.X + x*srcW/width

			r, _, _, _ := img.At(srcX, srcY).RGBA()
			// Convert 16-bit color to float64 (0-1 range)
			dst[y*width+x] = float64(r) / 65535.0
		}
	}
}
