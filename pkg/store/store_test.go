package store

import (
	"math"
	"path/filepath"
	"testing"

	"mriganeval/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func testTable() models.EvaluationTable {
	return models.EvaluationTable{
		{
			Case:          "ProstateX_0001",
			BaselinePSNR:  24.5, BaselineSSIM: 0.71, BaselineMAE: 0.042,
			GeneratedPSNR: 29.8, GeneratedSSIM: 0.88, GeneratedMAE: 0.021,
		},
		{
			Case:          "ProstateX_0002",
			BaselinePSNR:  22.1, BaselineSSIM: 0.65, BaselineMAE: 0.055,
			GeneratedPSNR: math.Inf(1), GeneratedSSIM: 1.0, GeneratedMAE: 0,
		},
	}
}

// TestSaveAndLoadRun verifies the round trip of an evaluation table,
// including an infinite PSNR from a perfectly reconstructed case.
func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.SaveRun("checkpoint-12", "gan:http://localhost:8500/predict", testTable())
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := s.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	want := testTable()
	if len(loaded) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(loaded))
	}

	for i := range want {
		if loaded[i] != want[i] {
			t.Errorf("Record %d mismatch:\nexpected %+v\ngot      %+v", i, want[i], loaded[i])
		}
	}
}

// TestLoadRunPreservesOrder verifies that records come back in insertion order.
func TestLoadRunPreservesOrder(t *testing.T) {
	s := openTestStore(t)

	table := models.EvaluationTable{
		{Case: "z_case"},
		{Case: "a_case"},
		{Case: "m_case"},
	}

	runID, err := s.SaveRun("ordering", "identity", table)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := s.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	for i, rec := range table {
		if loaded[i].Case != rec.Case {
			t.Errorf("Position %d: expected %s, got %s", i, rec.Case, loaded[i].Case)
		}
	}
}

// TestListRuns verifies that runs are listed most recent first.
func TestListRuns(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.SaveRun("first", "identity", nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if _, err := s.SaveRun("second", "median-r1", nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Label != "second" || runs[1].Label != "first" {
		t.Errorf("Runs out of order: %s, %s", runs[0].Label, runs[1].Label)
	}
	if runs[0].Model != "median-r1" {
		t.Errorf("Expected model median-r1, got %s", runs[0].Model)
	}
}

// TestLoadMissingRun verifies that an unknown run id yields an empty table.
func TestLoadMissingRun(t *testing.T) {
	s := openTestStore(t)

	loaded, err := s.LoadRun(12345)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty table for unknown run, got %d records", len(loaded))
	}
}
