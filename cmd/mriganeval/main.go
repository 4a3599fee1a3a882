package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mriganeval/internal/models"
	"mriganeval/pkg/config"
	"mriganeval/pkg/dataset"
	"mriganeval/pkg/evaluation"
	"mriganeval/pkg/model"
	"mriganeval/pkg/report"
	"mriganeval/pkg/store"
	"mriganeval/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "mriganeval.yaml", "Path to YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file and exit")
	casesFile := flag.String("cases", "", "File listing case names to evaluate, one per line (default: historical test split)")
	modelKind := flag.String("model", "gan", "Model to evaluate: gan, median or baseline")
	endpoint := flag.String("endpoint", "", "Inference endpoint, overrides the configured one")
	medianRadius := flag.Int("median-radius", 1, "Window radius for the median model")
	label := flag.String("label", "", "Label stored with the evaluation run (default: model name)")
	listRuns := flag.Bool("list-runs", false, "List stored evaluation runs and exit")
	extractSlices := flag.Bool("extract-slices", false, "Save per-slice images of the first evaluated case")
	slicesDir := flag.String("slices-dir", "extracted_slices", "Directory to save extracted slices")
	verbose := flag.Bool("v", false, "Enable per-case debug logging")
	flag.Parse()

	logger := newLogger(*verbose)

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *listRuns {
		printStoredRuns(cfg.Output.ResultsDB)
		return
	}

	fmt.Println("================================")
	fmt.Println("PROSTATE MRI GAN DENOISING EVALUATION")
	fmt.Println("Paired low/high resolution metrics: PSNR, SSIM, MAE")
	fmt.Println("================================")

	// Fetch the dataset and the historical metrics table if needed
	if cfg.Data.DatasetURL != "" {
		if err := dataset.EnsureDataset(cfg.Data.DatasetURL, cfg.Data.Dir); err != nil {
			log.Fatalf("Failed to fetch dataset: %v", err)
		}
	}
	if cfg.Data.MetricsURL != "" {
		if err := dataset.EnsureFile(cfg.Data.MetricsURL, cfg.Data.MetricsFile); err != nil {
			log.Fatalf("Failed to fetch metrics table: %v", err)
		}
	}

	cases, err := selectCases(cfg, *casesFile)
	if err != nil {
		log.Fatalf("Failed to select cases: %v", err)
	}
	if len(cases) == 0 {
		log.Fatalf("No cases to evaluate")
	}

	m, err := selectModel(cfg, *modelKind, *endpoint, *medianRadius)
	if err != nil {
		log.Fatalf("Failed to configure model: %v", err)
	}

	modelName := "baseline"
	if m != nil {
		modelName = m.Name()
	}

	loader := &dataset.Loader{
		LowResDir:   cfg.Data.LowResDir,
		HighResDir:  cfg.Data.HighResDir,
		InputWidth:  cfg.Evaluation.InputWidth,
		InputHeight: cfg.Evaluation.InputHeight,
		Normalize:   cfg.Evaluation.Normalize,
	}

	policy := evaluation.FailFast
	if cfg.Evaluation.SkipFailures {
		policy = evaluation.SkipAndLog
	}

	evaluator := evaluation.NewEvaluator(&evaluation.Params{
		Loader: loader,
		Model:  m,
		Policy: policy,
		Logger: logger,
	})

	fmt.Printf("Evaluating %d cases with model %s...\n", len(cases), modelName)
	startTime := time.Now()
	table, err := evaluator.Run(cases)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	elapsed := time.Since(startTime)

	fmt.Printf("\nEvaluation completed in %.2f seconds (%d of %d cases)\n\n",
		elapsed.Seconds(), len(table), len(cases))
	report.PrintTable(os.Stdout, table)

	if cfg.Output.ReportCSV != "" {
		if err := report.WriteCSV(cfg.Output.ReportCSV, table); err != nil {
			log.Fatalf("Failed to write CSV report: %v", err)
		}
		fmt.Printf("\nCSV report saved to: %s\n", cfg.Output.ReportCSV)
	}

	if cfg.Output.ResultsDB != "" {
		runLabel := *label
		if runLabel == "" {
			runLabel = modelName
		}
		runID, err := saveRun(cfg.Output.ResultsDB, runLabel, modelName, table)
		if err != nil {
			log.Fatalf("Failed to persist evaluation run: %v", err)
		}
		fmt.Printf("Evaluation run stored as id %d in %s\n", runID, cfg.Output.ResultsDB)
	}

	if cfg.Output.ComparisonDir != "" && cfg.Output.MaxComparisons > 0 {
		saveComparisons(cfg, loader, m, table, logger)
	}

	// Extract and save slices of the first case if requested
	if *extractSlices && len(table) > 0 {
		c, err := loader.LoadCase(table[0].Case)
		if err != nil {
			log.Fatalf("Failed to reload case %s: %v", table[0].Case, err)
		}

		viewer := visualization.NewViewer(c.HighRes)
		for _, axis := range []string{"x", "y", "z"} {
			axisDir := filepath.Join(*slicesDir, axis)
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)

			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			}
		}
	}
}

// newLogger builds the console logger handed to the evaluator.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// selectCases returns the case list to evaluate: the contents of casesFile
// when given, otherwise the historical test split from the metrics table.
func selectCases(cfg *config.Config, casesFile string) ([]string, error) {
	if casesFile != "" {
		data, err := os.ReadFile(casesFile)
		if err != nil {
			return nil, fmt.Errorf("reading cases file: %v", err)
		}

		var cases []string
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				cases = append(cases, line)
			}
		}
		return cases, nil
	}

	records, err := dataset.LoadMetricsTable(cfg.Data.MetricsFile)
	if err != nil {
		return nil, err
	}

	_, test, err := dataset.SplitTrainTest(records, cfg.Evaluation.TestFraction)
	return test, err
}

// selectModel builds the model under evaluation. A nil model means the
// low-resolution input is scored directly against the reference.
func selectModel(cfg *config.Config, kind, endpoint string, radius int) (model.Model, error) {
	switch kind {
	case "baseline":
		return nil, nil

	case "median":
		return &model.MedianDenoiser{Radius: radius}, nil

	case "gan":
		if endpoint == "" {
			endpoint = cfg.Model.Endpoint
		}
		m := model.NewHTTPModel(endpoint, time.Duration(cfg.Model.TimeoutSeconds)*time.Second)
		m.BatchSize = cfg.Model.BatchSize
		return m, nil

	default:
		return nil, fmt.Errorf("unknown model %q (must be gan, median or baseline)", kind)
	}
}

// saveRun persists the evaluation table to the results database.
func saveRun(dbPath, label, modelName string, table models.EvaluationTable) (int64, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	return s.SaveRun(label, modelName, table)
}

// printStoredRuns lists the runs recorded in the results database.
func printStoredRuns(dbPath string) {
	if dbPath == "" {
		log.Fatalf("No results database configured")
	}

	s, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open results database: %v", err)
	}
	defer s.Close()

	runs, err := s.ListRuns()
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}

	if len(runs) == 0 {
		fmt.Println("No stored evaluation runs.")
		return
	}

	fmt.Printf("%-6s %-24s %-32s %s\n", "ID", "Label", "Model", "Created")
	for _, run := range runs {
		fmt.Printf("%-6d %-24s %-32s %s\n", run.ID, run.Label, run.Model,
			run.CreatedAt.Format(time.DateTime))
	}
}

// saveComparisons writes side-by-side low/high/generated images for the first
// few evaluated cases. Failures here only warn, the metrics are already out.
func saveComparisons(cfg *config.Config, loader *dataset.Loader, m model.Model,
	table models.EvaluationTable, logger zerolog.Logger) {

	count := cfg.Output.MaxComparisons
	if count > len(table) {
		count = len(table)
	}

	for _, rec := range table[:count] {
		c, err := loader.LoadCase(rec.Case)
		if err != nil {
			logger.Warn().Str("case", rec.Case).Err(err).Msg("comparison reload failed")
			continue
		}

		generated := c.LowRes
		if m != nil {
			if generated, err = m.Predict(c.LowRes); err != nil {
				logger.Warn().Str("case", rec.Case).Err(err).Msg("comparison inference failed")
				continue
			}
		}

		filename := filepath.Join(cfg.Output.ComparisonDir,
			fmt.Sprintf("%s_z%03d.jpg", rec.Case, c.LowRes.Depth/2))
		if err := visualization.SaveComparison(c.LowRes, c.HighRes, generated,
			c.LowRes.Depth/2, filename); err != nil {
			logger.Warn().Str("case", rec.Case).Err(err).Msg("comparison save failed")
			continue
		}

		fmt.Printf("Comparison image saved to: %s\n", filename)
	}
}
