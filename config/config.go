// Package config holds the run configuration for the prediction pipeline.
package config

import (
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/orbitalml/landcast/pkg/errors"
)

// Config is the full pipeline configuration. Zero values are filled in
// from Default before validation.
type Config struct {
	// DataDir holds the input CSV files.
	DataDir string `yaml:"data_dir"`
	// OutDir receives the timestamped result files.
	OutDir string `yaml:"out_dir"`
	// LabelFile is the CSV carrying the Class column.
	LabelFile string `yaml:"label_file"`
	// FeatureFile is the CSV of standardized-ready numeric features.
	FeatureFile string `yaml:"feature_file"`

	Seed     int64   `yaml:"seed"`
	TestSize float64 `yaml:"test_size"`
	Folds    int     `yaml:"folds"`

	// PlotROC also renders roc_curves_<timestamp>.png when true.
	PlotROC bool `yaml:"plot_roc"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() *Config {
	return &Config{
		DataDir:     "data",
		OutDir:      ".",
		LabelFile:   "dataset_part_2.csv",
		FeatureFile: "dataset_part_3.csv",
		Seed:        42,
		TestSize:    0.2,
		Folds:       10,
		PlotROC:     true,
		LogLevel:    "info",
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDataUnavailableError(path, "cannot read config file", err)
	}
	cfg := Default()
	if err := yaml.UnmarshalStrict(raw, cfg); err != nil {
		return nil, errors.NewDataUnavailableError(path, "malformed config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.NewValidationError("data_dir", "must not be empty", c.DataDir)
	}
	if c.OutDir == "" {
		return errors.NewValidationError("out_dir", "must not be empty", c.OutDir)
	}
	if c.LabelFile == "" || c.FeatureFile == "" {
		return errors.NewValidationError("label_file", "label_file and feature_file must not be empty", c.LabelFile)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.NewValidationError("test_size", "must be in (0, 1)", c.TestSize)
	}
	if c.Folds < 2 {
		return errors.NewValidationError("folds", "must be at least 2", c.Folds)
	}
	return nil
}
