// Package evaluation runs the batch metric evaluation: for each case it loads
// the paired volumes, obtains a generated volume from the model, and computes
// baseline and generated PSNR/SSIM/MAE against the high-resolution reference.
package evaluation

import (
	"fmt"

	"github.com/rs/zerolog"

	"mriganeval/internal/models"
	"mriganeval/pkg/metrics"
	"mriganeval/pkg/model"
)

// FailurePolicy controls what happens when a single case cannot be evaluated.
type FailurePolicy int

const (
	// FailFast aborts the whole batch on the first failing case.
	FailFast FailurePolicy = iota

	// SkipAndLog logs the failing case and continues with the rest of the
	// batch. Skipped cases are absent from the resulting table.
	SkipAndLog
)

// CaseLoader is the slice of the dataset loader the evaluator depends on.
type CaseLoader interface {
	LoadCase(name string) (*models.Case, error)
}

// Params holds the batch evaluation configuration. Everything the evaluator
// touches is passed in here; there is no package-level state.
type Params struct {
	// Loader provides the paired low/high resolution volumes per case
	Loader CaseLoader

	// Model produces the generated volume. A nil model evaluates the identity
	// baseline, so the generated columns duplicate the baseline columns.
	Model model.Model

	// Policy selects fail-fast or skip-and-log behavior for per-case failures
	Policy FailurePolicy

	// Logger receives per-case progress and skip events
	Logger zerolog.Logger
}

// Evaluator runs batch evaluations over lists of case identifiers.
type Evaluator struct {
	params *Params
}

// NewEvaluator creates an evaluator with the provided parameters.
func NewEvaluator(params *Params) *Evaluator {
	return &Evaluator{params: params}
}

// Run evaluates the listed cases in order and returns one metric record per
// case. An empty case list yields an empty table. Under the FailFast policy
// the first failing case aborts the batch; under SkipAndLog failing cases are
// logged and dropped from the table.
func (e *Evaluator) Run(cases []string) (models.EvaluationTable, error) {
	table := make(models.EvaluationTable, 0, len(cases))

	for i, name := range cases {
		e.params.Logger.Debug().
			Str("case", name).
			Int("index", i).
			Int("total", len(cases)).
			Msg("evaluating case")

		record, err := e.evaluateCase(name)
		if err != nil {
			if e.params.Policy == SkipAndLog {
				e.params.Logger.Warn().Str("case", name).Err(err).Msg("skipping failed case")
				continue
			}
			return nil, fmt.Errorf("case %s: %w", name, err)
		}

		table = append(table, record)
	}

	return table, nil
}

// evaluateCase computes the six metrics for a single case.
func (e *Evaluator) evaluateCase(name string) (models.MetricRecord, error) {
	var record models.MetricRecord

	c, err := e.params.Loader.LoadCase(name)
	if err != nil {
		return record, err
	}

	generated := c.LowRes
	if e.params.Model != nil {
		generated, err = e.params.Model.Predict(c.LowRes)
		if err != nil {
			return record, err
		}
		if !generated.SameShape(c.HighRes) {
			return record, fmt.Errorf("%w: generated %s vs high-res %s",
				models.ErrShapeMismatch, generated.ShapeString(), c.HighRes.ShapeString())
		}
	}

	// The intensity data range comes from the high-resolution reference
	dataRange := c.HighRes.Range()
	if dataRange <= 0 {
		return record, fmt.Errorf("high-res volume of case %s has zero intensity range", name)
	}

	record.Case = name

	record.BaselinePSNR, record.BaselineSSIM, record.BaselineMAE, err =
		compareVolumes(c.HighRes, c.LowRes, dataRange)
	if err != nil {
		return record, err
	}

	record.GeneratedPSNR, record.GeneratedSSIM, record.GeneratedMAE, err =
		compareVolumes(c.HighRes, generated, dataRange)
	if err != nil {
		return record, err
	}

	return record, nil
}

// compareVolumes computes the three metrics of a comparison volume against
// the reference.
func compareVolumes(reference, comparison *models.Volume, dataRange float64) (psnr, ssim, mae float64, err error) {
	psnr, err = metrics.PSNR(reference, comparison, dataRange)
	if err != nil {
		return 0, 0, 0, err
	}

	ssim, err = metrics.SSIM(reference, comparison, dataRange)
	if err != nil {
		return 0, 0, 0, err
	}

	mae, err = metrics.MAE(reference, comparison)
	if err != nil {
		return 0, 0, 0, err
	}

	return psnr, ssim, mae, nil
}
