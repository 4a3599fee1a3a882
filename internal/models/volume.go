package models

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned whenever two volumes that must share identical
// spatial dimensions do not. Metric computation over mismatched volumes is
// undefined, so every consumer checks shapes up front instead of broadcasting
// or truncating.
var ErrShapeMismatch = errors.New("volume shape mismatch")

// Volume represents a 3D MRI intensity volume.
type Volume struct {
	// Data is the voxel data as a 1D array in row-major (z, y, x) order
	Data []float64

	// Width is the number of voxels along the x axis
	Width int

	// Height is the number of voxels along the y axis
	Height int

	// Depth is the number of slices along the z axis
	Depth int
}

// NewVolume creates a zero-filled volume with the given dimensions.
func NewVolume(width, height, depth int) *Volume {
	return &Volume{
		Data:   make([]float64, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// At returns the voxel value at (x, y, z).
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[z*v.Width*v.Height+y*v.Width+x]
}

// Set writes the voxel value at (x, y, z).
func (v *Volume) Set(x, y, z int, value float64) {
	v.Data[z*v.Width*v.Height+y*v.Width+x] = value
}

// SameShape reports whether two volumes share identical spatial dimensions.
func (v *Volume) SameShape(other *Volume) bool {
	return v.Width == other.Width && v.Height == other.Height && v.Depth == other.Depth
}

// ShapeString formats the volume dimensions as WxHxD for error messages.
func (v *Volume) ShapeString() string {
	return fmt.Sprintf("%dx%dx%d", v.Width, v.Height, v.Depth)
}

// MinMax returns the minimum and maximum intensity in the volume.
func (v *Volume) MinMax() (min, max float64) {
	if len(v.Data) == 0 {
		return 0, 0
	}

	min = v.Data[0]
	max = v.Data[0]
	for _, val := range v.Data {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}

	return min, max
}

// Range returns the intensity data range (max - min) of the volume.
func (v *Volume) Range() float64 {
	min, max := v.MinMax()
	return max - min
}

// Normalize rescales the voxel intensities to the [-1, 1] range in place.
// A constant volume has no meaningful scale and is mapped to all zeros.
func (v *Volume) Normalize() {
	min, max := v.MinMax()
	if max <= min {
		for i := range v.Data {
			v.Data[i] = 0
		}
		return
	}

	scale := max - min
	for i, val := range v.Data {
		v.Data[i] = ((val-min)/scale)*2 - 1
	}
}

// Slice returns the z-th xy plane as a flat array of Width*Height values.
// The returned slice aliases the volume data.
func (v *Volume) Slice(z int) []float64 {
	size := v.Width * v.Height
	return v.Data[z*size : (z+1)*size]
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	data := make([]float64, len(v.Data))
	copy(data, v.Data)
	return &Volume{Data: data, Width: v.Width, Height: v.Height, Depth: v.Depth}
}
