// Package classigo evaluates binary classifiers from paired (label, score)
// observations.
//
// The classifier itself is a black box: classigo only needs a real-valued
// score per observation, where a larger score means "more likely positive".
// From those scores it computes threshold metrics, ranking curves and
// summary statistics, and it can drive train/test and cross-validation runs
// for classifiers built by other libraries.
//
// # Installation
//
//	go get github.com/YuminosukeSato/classigo
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/classigo/metrics"
//	)
//
//	func main() {
//	    ds, err := metrics.NewDataset(
//	        []float64{1, 0, 1, 0},
//	        []float64{0.9, 0.1, 0.8, 0.4},
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    acc, _ := metrics.Accuracy(ds)
//	    auc, _ := metrics.ROCAUC(ds)
//	    fmt.Println("accuracy:", acc, "roc auc:", auc)
//	}
//
// # Packages
//
//   - metrics: Dataset, accuracy, MSE, r², ROC/PR curves, AUC, log loss
//   - core/model: Classifier and Trainer interfaces, row scoring
//   - validation: KFold, StratifiedKFold, TrainTestSplit
//   - evaluation: Reports, train/test, cross-validation, model comparison
//   - visualize: ROC and precision-recall plots (gonum/plot)
//   - pkg/promexport: Prometheus gauges and textfile export
//   - pkg/errors, pkg/log: error types and structured logging
//
// The classeval command evaluates a label,score CSV from the command line.
//
// # License
//
// classigo is released under the MIT License.
package classigo
