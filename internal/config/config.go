// Package config defines the classeval configuration and its loader.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/YuminosukeSato/classigo/pkg/errors"
)

// Supported plot output formats.
var plotFormats = []string{"png", "svg", "pdf"}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Input is the label,score CSV to evaluate. Empty or "-" reads stdin.
	Input string `koanf:"input"`

	// ModelName labels the report, the log records and the exported metrics.
	ModelName string `koanf:"model_name"`

	// Threshold is the decision threshold for accuracy and the confusion matrix.
	Threshold float64 `koanf:"threshold"`

	// Folds splits the observations into stratified folds to report the
	// spread of each metric. 0 disables the fold summary.
	Folds int `koanf:"folds"`

	// Shuffle and Seed control fold assignment.
	Shuffle bool   `koanf:"shuffle"`
	Seed    uint64 `koanf:"seed"`

	// PlotDir receives roc.<format> and pr.<format> when set.
	PlotDir    string `koanf:"plot_dir"`
	PlotFormat string `koanf:"plot_format"`

	// MetricsTextfile is a node_exporter textfile collector target.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		ModelName:  "classifier",
		Threshold:  0.5,
		Folds:      0,
		Shuffle:    true,
		Seed:       42,
		PlotFormat: "png",
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) {
		return errors.NewValidationError("threshold", "must be finite", c.Threshold)
	}
	if c.Folds < 0 {
		return errors.NewValidationError("folds", "must not be negative (0 disables folds)", c.Folds)
	}
	if c.Folds == 1 {
		return errors.NewValidationError("folds", "a single fold has no held-out data", c.Folds)
	}
	format := strings.ToLower(c.PlotFormat)
	for _, f := range plotFormats {
		if format == f {
			c.PlotFormat = format
			return nil
		}
	}
	return errors.NewValidationError("plot_format", fmt.Sprintf("must be one of %v", plotFormats), c.PlotFormat)
}
