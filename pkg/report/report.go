// Package report renders evaluation tables for humans and for downstream
// plotting tools.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"mriganeval/internal/models"
)

// PrintTable writes the evaluation table and its per-column averages as an
// aligned text table.
func PrintTable(w io.Writer, table models.EvaluationTable) {
	fmt.Fprintf(w, "%-20s %12s %12s %12s %12s %12s %12s\n",
		"Case", "Base PSNR", "Base SSIM", "Base MAE", "Gen PSNR", "Gen SSIM", "Gen MAE")
	fmt.Fprintf(w, "%-20s %12s %12s %12s %12s %12s %12s\n",
		"--------------------", "---------", "---------", "---------",
		"---------", "---------", "---------")

	for _, rec := range table {
		fmt.Fprintf(w, "%-20s %12s %12.4f %12.5f %12s %12.4f %12.5f\n",
			rec.Case,
			formatPSNR(rec.BaselinePSNR), rec.BaselineSSIM, rec.BaselineMAE,
			formatPSNR(rec.GeneratedPSNR), rec.GeneratedSSIM, rec.GeneratedMAE)
	}

	if len(table) == 0 {
		fmt.Fprintln(w, "(no cases evaluated)")
		return
	}

	s := table.Summary()
	fmt.Fprintf(w, "%-20s %12s %12.4f %12.5f %12s %12.4f %12.5f\n",
		"mean",
		formatPSNR(s.BaselinePSNR), s.BaselineSSIM, s.BaselineMAE,
		formatPSNR(s.GeneratedPSNR), s.GeneratedSSIM, s.GeneratedMAE)
}

// formatPSNR renders a PSNR value, keeping the +Inf of a perfect
// reconstruction readable.
func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return strconv.FormatFloat(psnr, 'f', 2, 64)
}

// WriteCSV exports the evaluation table to a CSV file consumable by external
// plotting tools.
func WriteCSV(path string, table models.EvaluationTable) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"case",
		"baseline_psnr", "baseline_ssim", "baseline_mae",
		"generated_psnr", "generated_ssim", "generated_mae",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range table {
		row := []string{
			rec.Case,
			formatFloat(rec.BaselinePSNR), formatFloat(rec.BaselineSSIM), formatFloat(rec.BaselineMAE),
			formatFloat(rec.GeneratedPSNR), formatFloat(rec.GeneratedSSIM), formatFloat(rec.GeneratedMAE),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
