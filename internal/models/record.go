package models

import "math"

// Case is one patient's paired low/high resolution MRI volume set.
type Case struct {
	// Name is the patient identifier, e.g. "ProstateX_0014"
	Name string

	// LowRes is the noisy low-resolution acquisition
	LowRes *Volume

	// HighRes is the high-resolution reference acquisition
	HighRes *Volume
}

// MetricRecord holds the image-quality metrics for one evaluated case.
// The baseline columns compare the raw low-resolution volume against the
// high-resolution reference; the generated columns compare the model output
// against the same reference.
type MetricRecord struct {
	Case string

	BaselinePSNR float64
	BaselineSSIM float64
	BaselineMAE  float64

	GeneratedPSNR float64
	GeneratedSSIM float64
	GeneratedMAE  float64
}

// EvaluationTable is an ordered collection of metric records, one per
// evaluated case, in the order the cases were submitted.
type EvaluationTable []MetricRecord

// TableSummary holds the per-column averages of an evaluation table.
// Non-finite PSNR values (identical volumes) are excluded from the PSNR
// averages so a single perfect case does not swamp the column.
type TableSummary struct {
	BaselinePSNR float64
	BaselineSSIM float64
	BaselineMAE  float64

	GeneratedPSNR float64
	GeneratedSSIM float64
	GeneratedMAE  float64
}

// Summary computes the per-column averages of the table.
func (t EvaluationTable) Summary() TableSummary {
	var s TableSummary
	if len(t) == 0 {
		return s
	}

	n := float64(len(t))
	basePSNR, genPSNR := finiteMean{}, finiteMean{}
	for _, rec := range t {
		basePSNR.add(rec.BaselinePSNR)
		genPSNR.add(rec.GeneratedPSNR)
		s.BaselineSSIM += rec.BaselineSSIM
		s.BaselineMAE += rec.BaselineMAE
		s.GeneratedSSIM += rec.GeneratedSSIM
		s.GeneratedMAE += rec.GeneratedMAE
	}

	s.BaselinePSNR = basePSNR.mean()
	s.GeneratedPSNR = genPSNR.mean()
	s.BaselineSSIM /= n
	s.BaselineMAE /= n
	s.GeneratedSSIM /= n
	s.GeneratedMAE /= n

	return s
}

// finiteMean accumulates a mean over finite values only.
type finiteMean struct {
	sum   float64
	count int
}

func (m *finiteMean) add(v float64) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return
	}
	m.sum += v
	m.count++
}

func (m *finiteMean) mean() float64 {
	if m.count == 0 {
		return math.Inf(1)
	}
	return m.sum / float64(m.count)
}
