// Package promexport publishes evaluation reports as Prometheus gauges.
//
// Every gauge is labelled by model name so that several classifiers evaluated
// in one process can be compared on a dashboard. Batch jobs that do not serve
// HTTP can hand the result to the node_exporter textfile collector with
// WriteTextfile.
package promexport

import (
	"time"

	"github.com/YuminosukeSato/classigo/evaluation"
	"github.com/YuminosukeSato/classigo/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const modelLabel = "model"

// Exporter holds the evaluation gauges on a dedicated registry.
type Exporter struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry

	accuracy         *prometheus.GaugeVec
	mse              *prometheus.GaugeVec
	r2               *prometheus.GaugeVec
	rocAUC           *prometheus.GaugeVec
	averagePrecision *prometheus.GaugeVec
	logLoss          *prometheus.GaugeVec
	samples          *prometheus.GaugeVec
	lastRun          *prometheus.GaugeVec
	evaluations      *prometheus.CounterVec
}

// New creates an Exporter. Without WithRegistry a fresh registry is used, so
// the Go runtime collectors of the default registry never leak into the output.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		namespace: "classigo",
		subsystem: "evaluation",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.initializeMetrics()
	return e
}

func (e *Exporter) gauge(name, help string) *prometheus.GaugeVec {
	return promauto.With(e.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: e.namespace,
		Subsystem: e.subsystem,
		Name:      name,
		Help:      help,
	}, []string{modelLabel})
}

func (e *Exporter) initializeMetrics() {
	e.accuracy = e.gauge("accuracy", "Fraction of observations classified correctly at the report threshold")
	e.mse = e.gauge("mse", "Mean squared error between labels and scores")
	e.r2 = e.gauge("r2", "Squared Pearson correlation between labels and scores")
	e.rocAUC = e.gauge("roc_auc", "Area under the ROC curve")
	e.averagePrecision = e.gauge("average_precision", "Step-wise area under the precision-recall curve")
	e.logLoss = e.gauge("log_loss", "Mean binary cross-entropy of probability scores")
	e.samples = e.gauge("samples", "Number of observations in the last report")
	e.lastRun = e.gauge("last_run_timestamp_seconds", "Unix time of the last observed report")
	e.evaluations = promauto.With(e.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: e.namespace,
		Subsystem: e.subsystem,
		Name:      "reports_total",
		Help:      "Total number of reports observed",
	}, []string{modelLabel})
}

// Observe sets the gauges of report.Model to the values of report.
// Metrics the report could not compute are removed rather than left stale.
func (e *Exporter) Observe(report *evaluation.Report) error {
	if report == nil {
		return errors.NewValueError("Observe", "nil report")
	}
	model := report.Model
	if model == "" {
		model = evaluation.DefaultModelName
	}

	e.accuracy.WithLabelValues(model).Set(report.Accuracy)
	e.mse.WithLabelValues(model).Set(report.MSE)
	e.rocAUC.WithLabelValues(model).Set(report.ROCAUC)
	e.averagePrecision.WithLabelValues(model).Set(report.AveragePrecision)
	e.samples.WithLabelValues(model).Set(float64(report.N))

	if report.HasR2 {
		e.r2.WithLabelValues(model).Set(report.R2)
	} else {
		e.r2.DeleteLabelValues(model)
	}
	if report.HasLogLoss {
		e.logLoss.WithLabelValues(model).Set(report.LogLoss)
	} else {
		e.logLoss.DeleteLabelValues(model)
	}

	e.lastRun.WithLabelValues(model).Set(float64(time.Now().Unix()))
	e.evaluations.WithLabelValues(model).Inc()
	return nil
}

// Registry returns the registry the gauges live on, for serving with promhttp.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format. The file is written atomically.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return errors.Wrapf(err, "write metrics textfile %s", path)
	}
	return nil
}
