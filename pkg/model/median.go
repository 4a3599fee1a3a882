package model

import (
	"fmt"
	"sort"

	"mriganeval/internal/models"
)

// MedianDenoiser applies a per-slice square median filter. It is the
// classical comparator: a non-learned denoiser the GAN has to beat before
// its metrics mean anything.
type MedianDenoiser struct {
	// Radius is the filter half-width; the window spans 2*Radius+1 pixels
	Radius int
}

// Predict returns a median-filtered copy of the volume.
func (m *MedianDenoiser) Predict(low *models.Volume) (*models.Volume, error) {
	radius := m.Radius
	if radius < 1 {
		radius = 1
	}

	out := models.NewVolume(low.Width, low.Height, low.Depth)
	window := make([]float64, 0, (2*radius+1)*(2*radius+1))

	for z := 0; z < low.Depth; z++ {
		for y := 0; y < low.Height; y++ {
			for x := 0; x < low.Width; x++ {
				window = window[:0]
				for dy := -radius; dy <= radius; dy++ {
					for dx := -radius; dx <= radius; dx++ {
						nx := x + dx
						ny := y + dy
						if nx < 0 || nx >= low.Width || ny < 0 || ny >= low.Height {
							continue
						}
						window = append(window, low.At(nx, ny, z))
					}
				}
				out.Set(x, y, z, median(window))
			}
		}
	}

	return out, nil
}

// Name returns the model identifier.
func (m *MedianDenoiser) Name() string {
	radius := m.Radius
	if radius < 1 {
		radius = 1
	}
	return fmt.Sprintf("median-r%d", radius)
}

// median returns the median of a slice of values. The slice is sorted in place.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sort.Float64s(values)

	n := len(values)
	if n%2 == 0 {
		return (values[n/2-1] + values[n/2]) / 2
	}
	return values[n/2]
}
