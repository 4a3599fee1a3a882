// Package metrics provides image-quality metrics for comparing MRI volumes:
// PSNR, windowed SSIM, and MAE. All functions require the reference and the
// comparison volume to share identical spatial dimensions and fail with
// models.ErrShapeMismatch otherwise.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"mriganeval/internal/models"
)

// SSIM parameters following Wang et al.: a 7x7 uniform window and the usual
// stability constants C1=(k1*L)^2, C2=(k2*L)^2 where L is the data range.
const (
	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
)

func checkShapes(a, b *models.Volume) error {
	if !a.SameShape(b) {
		return fmt.Errorf("%w: %s vs %s", models.ErrShapeMismatch, a.ShapeString(), b.ShapeString())
	}
	return nil
}

// MAE computes the mean absolute per-voxel difference between two volumes.
func MAE(a, b *models.Volume) (float64, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range a.Data {
		sum += math.Abs(a.Data[i] - b.Data[i])
	}

	return sum / float64(len(a.Data)), nil
}

// MSE computes the mean squared per-voxel difference between two volumes.
func MSE(a, b *models.Volume) (float64, error) {
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range a.Data {
		diff := a.Data[i] - b.Data[i]
		sum += diff * diff
	}

	return sum / float64(len(a.Data)), nil
}

// PSNR computes the peak signal-to-noise ratio 10*log10(range^2/MSE) between
// two volumes. Identical volumes have zero error and yield +Inf rather than
// a division-by-zero fault. The data range must be positive.
func PSNR(a, b *models.Volume, dataRange float64) (float64, error) {
	if dataRange <= 0 {
		return 0, fmt.Errorf("data range must be positive, got %g", dataRange)
	}

	mse, err := MSE(a, b)
	if err != nil {
		return 0, err
	}

	if mse == 0 {
		return math.Inf(1), nil
	}

	return 10 * math.Log10(dataRange*dataRange/mse), nil
}

// SSIM computes the mean structural similarity index between two volumes.
// Each z slice is scanned with a sliding 7x7 window; local means, variances
// and covariance are computed per window and the per-window SSIM values are
// averaged over all positions and slices. Slices smaller than the window are
// treated as a single window. The result lies in [-1, 1], with 1 for
// identical volumes. The data range must be positive.
func SSIM(a, b *models.Volume, dataRange float64) (float64, error) {
	if dataRange <= 0 {
		return 0, fmt.Errorf("data range must be positive, got %g", dataRange)
	}
	if err := checkShapes(a, b); err != nil {
		return 0, err
	}

	c1 := (ssimK1 * dataRange) * (ssimK1 * dataRange)
	c2 := (ssimK2 * dataRange) * (ssimK2 * dataRange)

	winW := ssimWindow
	winH := ssimWindow
	if winW > a.Width {
		winW = a.Width
	}
	if winH > a.Height {
		winH = a.Height
	}

	// Reused per-window buffers to avoid allocating in the inner loop.
	bufA := make([]float64, winW*winH)
	bufB := make([]float64, winW*winH)

	total := 0.0
	count := 0

	for z := 0; z < a.Depth; z++ {
		sliceA := a.Slice(z)
		sliceB := b.Slice(z)

		for y := 0; y+winH <= a.Height; y++ {
			for x := 0; x+winW <= a.Width; x++ {
				fillWindow(bufA, sliceA, a.Width, x, y, winW, winH)
				fillWindow(bufB, sliceB, a.Width, x, y, winW, winH)

				total += windowSSIM(bufA, bufB, c1, c2)
				count++
			}
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("volume %s too small for SSIM window", a.ShapeString())
	}

	return total / float64(count), nil
}

// fillWindow copies a winW x winH region starting at (x, y) from a flat slice
// of the given width into dst.
func fillWindow(dst, slice []float64, width, x, y, winW, winH int) {
	for row := 0; row < winH; row++ {
		src := (y+row)*width + x
		copy(dst[row*winW:(row+1)*winW], slice[src:src+winW])
	}
}

// windowSSIM computes the SSIM value of a single window pair.
func windowSSIM(a, b []float64, c1, c2 float64) float64 {
	muA := stat.Mean(a, nil)
	muB := stat.Mean(b, nil)
	varA := stat.Variance(a, nil)
	varB := stat.Variance(b, nil)
	covAB := stat.Covariance(a, b, nil)

	num := (2*muA*muB + c1) * (2*covAB + c2)
	den := (muA*muA + muB*muB + c1) * (varA + varB + c2)

	return num / den
}
