// Package model defines the denoising model interface and the adapters the
// evaluator can drive: the identity baseline, a remote inference service
// hosting the trained generator, and a classical median-filter comparator.
// The generator network itself lives behind the service; this package never
// touches its weights or architecture.
package model

import (
	"errors"

	"mriganeval/internal/models"
)

// ErrInference is returned when a model call fails or produces malformed output.
var ErrInference = errors.New("model inference failed")

// Model maps a low-resolution volume to a generated (denoised) volume of the
// same spatial shape.
type Model interface {
	Predict(low *models.Volume) (*models.Volume, error)

	// Name identifies the model in reports and persisted runs
	Name() string
}

// Identity returns its input unchanged. It is the baseline comparator: the
// metrics of the identity model are exactly the low-vs-high baseline columns.
type Identity struct{}

// Predict returns the input volume as-is.
func (Identity) Predict(low *models.Volume) (*models.Volume, error) {
	return low, nil
}

// Name returns the model identifier.
func (Identity) Name() string { return "identity" }
