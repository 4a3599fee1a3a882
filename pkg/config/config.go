// Package config provides configuration loading and management for mriganeval.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Data locations and remote archives
	Data struct {
		// Dir is the local root of the dataset; remote archives extract here
		Dir string `yaml:"dir"`

		// LowResDir holds the low-resolution case directories
		LowResDir string `yaml:"lowResDir"`

		// HighResDir holds the high-resolution case directories
		HighResDir string `yaml:"highResDir"`

		// MetricsFile is the historical metrics table driving the train/test split
		MetricsFile string `yaml:"metricsFile"`

		// DatasetURL is the remote .tar.gz archive fetched when Dir is absent
		DatasetURL string `yaml:"datasetURL"`

		// MetricsURL is the remote metrics table fetched when MetricsFile is absent
		MetricsURL string `yaml:"metricsURL"`
	} `yaml:"data"`

	// Evaluation parameters
	Evaluation struct {
		// InputWidth and InputHeight give the in-plane shape volumes are
		// resized to at load time; zero keeps the native shape
		InputWidth  int `yaml:"inputWidth"`
		InputHeight int `yaml:"inputHeight"`

		// Normalize rescales volumes to the [-1, 1] range the generator expects
		Normalize bool `yaml:"normalize"`

		// SkipFailures switches the batch from fail-fast to skip-and-log
		SkipFailures bool `yaml:"skipFailures"`

		// TestFraction is the share of cases held out for evaluation
		TestFraction float64 `yaml:"testFraction"`
	} `yaml:"evaluation"`

	// Model describes the external inference service
	Model struct {
		// Endpoint is the predict URL of the service hosting the generator
		Endpoint string `yaml:"endpoint"`

		// TimeoutSeconds bounds a single inference call
		TimeoutSeconds int `yaml:"timeoutSeconds"`

		// BatchSize is forwarded to the service with each request
		BatchSize int `yaml:"batchSize"`
	} `yaml:"model"`

	// Output parameters
	Output struct {
		// ResultsDB is the SQLite database evaluation runs are persisted to;
		// empty disables persistence
		ResultsDB string `yaml:"resultsDB"`

		// ReportCSV is the CSV export path; empty disables the export
		ReportCSV string `yaml:"reportCSV"`

		// ComparisonDir receives side-by-side comparison images
		ComparisonDir string `yaml:"comparisonDir"`

		// MaxComparisons caps how many cases get comparison images
		MaxComparisons int `yaml:"maxComparisons"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default data locations
	cfg.Data.Dir = "data"
	cfg.Data.LowResDir = filepath.Join("data", "low_res")
	cfg.Data.HighResDir = filepath.Join("data", "high_res")
	cfg.Data.MetricsFile = filepath.Join("data", "metrics.csv")

	// Set default evaluation parameters
	cfg.Evaluation.InputWidth = 512
	cfg.Evaluation.InputHeight = 512
	cfg.Evaluation.Normalize = true
	cfg.Evaluation.SkipFailures = false
	cfg.Evaluation.TestFraction = 0.2

	// Set default model parameters
	cfg.Model.Endpoint = "http://localhost:8500/predict"
	cfg.Model.TimeoutSeconds = 120
	cfg.Model.BatchSize = 1

	// Set default output parameters
	cfg.Output.ResultsDB = "results.db"
	cfg.Output.ComparisonDir = "comparisons"
	cfg.Output.MaxComparisons = 4

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %v", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %v", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %v", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
