package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mriganeval/internal/models"
)

// defaultInferenceTimeout bounds a single Predict call against the service.
// GAN inference on a full volume can take a while, so this is generous.
const defaultInferenceTimeout = 120 * time.Second

// HTTPModel invokes a remote inference service that hosts the trained
// generator. The volume is posted as JSON and the generated volume comes back
// in the same layout.
type HTTPModel struct {
	// Endpoint is the predict URL of the inference service
	Endpoint string

	// BatchSize is forwarded to the service and controls how many slices it
	// pushes through the generator at once
	BatchSize int

	// Verbose enables per-call progress output
	Verbose bool

	client *http.Client
}

// NewHTTPModel creates a remote model adapter for the given endpoint.
// A non-positive timeout falls back to the default inference timeout.
func NewHTTPModel(endpoint string, timeout time.Duration) *HTTPModel {
	if timeout <= 0 {
		timeout = defaultInferenceTimeout
	}
	return &HTTPModel{
		Endpoint:  endpoint,
		BatchSize: 1,
		client:    &http.Client{Timeout: timeout},
	}
}

// predictRequest is the wire format of an inference call
type predictRequest struct {
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Depth     int       `json:"depth"`
	BatchSize int       `json:"batch_size"`
	Data      []float64 `json:"data"`
}

// predictResponse is the wire format of an inference result
type predictResponse struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Depth  int       `json:"depth"`
	Data   []float64 `json:"data"`
}

// Predict posts the low-resolution volume to the inference service and
// returns the generated volume. A transport failure, a non-200 status, or a
// malformed body surfaces as ErrInference; a response whose shape does not
// match the input surfaces as a shape mismatch.
func (m *HTTPModel) Predict(low *models.Volume) (*models.Volume, error) {
	if m.Verbose {
		fmt.Printf("Requesting inference for %s volume from %s\n", low.ShapeString(), m.Endpoint)
	}

	body, err := json.Marshal(predictRequest{
		Width:     low.Width,
		Height:    low.Height,
		Depth:     low.Depth,
		BatchSize: m.BatchSize,
		Data:      low.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrInference, err)
	}

	resp, err := m.client.Post(m.Endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: service returned %s", ErrInference, resp.Status)
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrInference, err)
	}

	if len(result.Data) != result.Width*result.Height*result.Depth {
		return nil, fmt.Errorf("%w: response carries %d voxels for a %dx%dx%d volume",
			ErrInference, len(result.Data), result.Width, result.Height, result.Depth)
	}

	generated := &models.Volume{
		Data:   result.Data,
		Width:  result.Width,
		Height: result.Height,
		Depth:  result.Depth,
	}

	if !generated.SameShape(low) {
		return nil, fmt.Errorf("%w: input %s vs generated %s",
			models.ErrShapeMismatch, low.ShapeString(), generated.ShapeString())
	}

	return generated, nil
}

// Name returns the model identifier.
func (m *HTTPModel) Name() string { return "gan:" + m.Endpoint }
