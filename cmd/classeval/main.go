// Command classeval evaluates binary classifier scores read from a CSV file.
//
// Each input row holds a label (0/1 or -1/+1) and the classifier's score for
// that observation. The report is logged as JSON; ROC and precision-recall
// plots and a Prometheus textfile are written when configured. Configuration
// comes from CLASSIGO_* environment variables and an optional YAML file named
// by CLASSIGO_CONFIG.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/evaluation"
	"github.com/YuminosukeSato/classigo/internal/config"
	"github.com/YuminosukeSato/classigo/metrics"
	"github.com/YuminosukeSato/classigo/pkg/errors"
	"github.com/YuminosukeSato/classigo/pkg/log"
	"github.com/YuminosukeSato/classigo/pkg/promexport"
	"github.com/YuminosukeSato/classigo/validation"
	"github.com/YuminosukeSato/classigo/visualize"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		_ = log.SetupLogger("error", os.Stderr)
		log.GetLogger().Error("Invalid configuration", err)
		os.Exit(1)
	}
	if err := log.SetupLogger(cfg.LogLevel, os.Stderr); err != nil {
		_ = log.SetupLogger("info", os.Stderr)
		log.GetLogger().Error("Invalid log level", err)
		os.Exit(1)
	}
	restore := log.InstallZerologWarnings(os.Stderr)
	defer restore()

	logger := log.GetLogger().With(log.ComponentKey, "classeval")
	if err := run(ctx, cfg, os.Stdin, logger); err != nil {
		logger.Error("Evaluation run failed", err)
		restore()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, stdin io.Reader, logger log.Logger) error {
	in := stdin
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	labels, scores, err := readObservations(in)
	if err != nil {
		return err
	}
	if labels, err = metrics.NormalizeLabels(labels); err != nil {
		return err
	}
	ds, err := metrics.NewDataset(labels, scores)
	if err != nil {
		return err
	}

	ev := evaluation.New(
		evaluation.WithLogger(logger),
		evaluation.WithThreshold(cfg.Threshold),
		evaluation.WithModelName(cfg.ModelName),
	)
	report, err := ev.Evaluate(ds)
	if err != nil {
		return err
	}

	if cfg.Folds > 0 {
		if err := foldSummary(ctx, ev, ds, cfg, logger); err != nil {
			return err
		}
	}
	if cfg.PlotDir != "" {
		if err := writePlots(report, cfg, logger); err != nil {
			return err
		}
	}
	if cfg.MetricsTextfile != "" {
		exp := promexport.New()
		if err := exp.Observe(report); err != nil {
			return err
		}
		if err := exp.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
		logger.Info("Metrics textfile written", "path", cfg.MetricsTextfile)
	}
	return nil
}

// foldSummary re-evaluates the fixed scores on stratified folds and logs the
// mean and standard deviation of every metric. The scores are the only
// feature and the trainer replays them unchanged.
func foldSummary(ctx context.Context, ev *evaluation.Evaluator, ds *metrics.Dataset, cfg *config.Config, logger log.Logger) error {
	if minority := min(ds.Positives(), ds.Negatives()); minority < cfg.Folds {
		logger.Warn("Fold summary skipped: too few observations in the minority class",
			log.NSplitsKey, cfg.Folds,
			log.PositivesKey, ds.Positives(),
			log.SuggestionKey, "lower folds to at most the minority class size",
		)
		return nil
	}

	X := mat.NewDense(ds.Len(), 1, ds.Scores())
	replay := model.TrainerFunc(func(mat.Matrix, []float64) (model.Classifier, error) {
		return model.ClassifierFunc(func(features []float64) (float64, error) {
			return features[0], nil
		}), nil
	})

	splitter := validation.NewStratifiedKFold(cfg.Folds, cfg.Shuffle, cfg.Seed)
	result, err := ev.CrossValidate(ctx, replay, X, ds.Labels(), splitter)
	if err != nil {
		return errors.Wrap(err, "fold summary")
	}

	fields := []any{log.RunIDKey, result.RunID, log.NSplitsKey, len(result.Folds)}
	for _, name := range evaluation.MetricNames {
		if mean, ok := result.Mean[name]; ok {
			fields = append(fields, "cv."+name+".mean", mean, "cv."+name+".std", result.Std[name])
		}
	}
	logger.Info("Fold summary", fields...)
	return nil
}

func writePlots(report *evaluation.Report, cfg *config.Config, logger log.Logger) error {
	if err := os.MkdirAll(cfg.PlotDir, 0o755); err != nil {
		return errors.Wrap(err, "create plot directory")
	}
	series := visualize.Series{Name: report.Model}

	series.Curve = report.ROC
	roc, err := visualize.ROC(series)
	if err != nil {
		return err
	}
	series.Curve = report.PR
	pr, err := visualize.PR(series)
	if err != nil {
		return err
	}

	for _, out := range []struct {
		name string
		plot *plot.Plot
	}{{"roc", roc}, {"pr", pr}} {
		path := filepath.Join(cfg.PlotDir, out.name+"."+cfg.PlotFormat)
		if err := visualize.Save(out.plot, path); err != nil {
			return err
		}
	}
	logger.Info("Plots written", "dir", cfg.PlotDir, "format", cfg.PlotFormat, log.OperationKey, log.OperationRender)
	return nil
}
