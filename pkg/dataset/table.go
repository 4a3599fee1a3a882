package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// HistoricalRecord is one row of the historical metrics table: a case name
// and the SSIM it achieved in a previous evaluation round. The table drives
// the train/test split.
type HistoricalRecord struct {
	Case string
	SSIM float64
}

// LoadMetricsTable reads the historical metrics table from a CSV file.
// The file must carry a header with "case" and "ssim" columns; any other
// columns are ignored. Row order is preserved.
func LoadMetricsTable(path string) ([]HistoricalRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading metrics table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing metrics table %s: %v", path, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("metrics table %s is empty", path)
	}

	caseCol, ssimCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "case":
			caseCol = i
		case "ssim":
			ssimCol = i
		}
	}
	if caseCol < 0 || ssimCol < 0 {
		return nil, fmt.Errorf("metrics table %s must have 'case' and 'ssim' columns", path)
	}

	records := make([]HistoricalRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if caseCol >= len(row) || ssimCol >= len(row) {
			return nil, fmt.Errorf("metrics table %s: row %d has too few columns", path, i+2)
		}

		ssim, err := strconv.ParseFloat(strings.TrimSpace(row[ssimCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("metrics table %s: row %d: invalid ssim %q", path, i+2, row[ssimCol])
		}

		records = append(records, HistoricalRecord{
			Case: strings.TrimSpace(row[caseCol]),
			SSIM: ssim,
		})
	}

	return records, nil
}

// SplitTrainTest divides the cases into train and test sets. The split is
// deterministic: cases are ordered by historical SSIM and the lowest-scoring
// fraction is held out for testing, so the evaluation always covers the
// hardest cases. The fraction must lie in (0, 1).
func SplitTrainTest(records []HistoricalRecord, testFraction float64) (train, test []string, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %g", testFraction)
	}

	sorted := make([]HistoricalRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SSIM < sorted[j].SSIM
	})

	numTest := int(float64(len(sorted)) * testFraction)
	if numTest == 0 && len(sorted) > 0 {
		numTest = 1
	}

	test = make([]string, 0, numTest)
	train = make([]string, 0, len(sorted)-numTest)
	for i, rec := range sorted {
		if i < numTest {
			test = append(test, rec.Case)
		} else {
			train = append(train, rec.Case)
		}
	}

	return train, test, nil
}
