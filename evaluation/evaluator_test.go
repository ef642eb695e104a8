package evaluation

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/metrics"
	"github.com/YuminosukeSato/classigo/pkg/errors"
	"github.com/YuminosukeSato/classigo/pkg/log"
	"github.com/YuminosukeSato/classigo/validation"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

func mustDataset(t *testing.T, labels, scores []float64) *metrics.Dataset {
	t.Helper()
	ds, err := metrics.NewDataset(labels, scores)
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}
	return ds
}

// separable returns n samples with alternating labels whose single feature
// separates the classes perfectly.
func separable(n int) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			y[i] = 1
		}
		X.Set(i, 0, y[i]+0.01*float64(i))
	}
	return X, y
}

// constantTrainer ignores the training data and returns clf.
func constantTrainer(clf model.Classifier) model.Trainer {
	return model.TrainerFunc(func(mat.Matrix, []float64) (model.Classifier, error) {
		return clf, nil
	})
}

var byFeature = model.ClassifierFunc(func(f []float64) (float64, error) { return f[0], nil })

func TestEvaluate(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	e := New(WithLogger(logger), WithModelName("svm-linear"))

	report, err := e.Evaluate(mustDataset(t, []float64{1, 0, 1, 0}, []float64{0.9, 0.1, 0.8, 0.4}))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"Accuracy", report.Accuracy, 1.0},
		{"MSE", report.MSE, 0.055},
		{"RMSE", report.RMSE, math.Sqrt(0.055)},
		{"ROCAUC", report.ROCAUC, 1.0},
		{"AveragePrecision", report.AveragePrecision, 1.0},
		{"Threshold", report.Threshold, 0.5},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-6 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if report.N != 4 || report.Positives != 2 {
		t.Errorf("N/Positives = %d/%d, want 4/2", report.N, report.Positives)
	}
	if !report.HasR2 || !report.HasLogLoss {
		t.Errorf("HasR2=%v HasLogLoss=%v, want both true", report.HasR2, report.HasLogLoss)
	}
	if report.Confusion.TruePositives != 2 || report.Confusion.TrueNegatives != 2 {
		t.Errorf("Confusion = %+v", report.Confusion)
	}
	if len(report.ROC) != 6 || len(report.PR) != 6 {
		t.Errorf("curve lengths = %d/%d, want 6/6", len(report.ROC), len(report.PR))
	}
	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", report.RunID, err)
	}
	if report.Model != "svm-linear" {
		t.Errorf("Model = %q", report.Model)
	}

	if !logger.ContainsMessage("Evaluation finished") {
		t.Error("expected a finish record")
	}
	if !logger.ContainsField(log.RunIDKey, report.RunID) {
		t.Error("expected the run id on log records")
	}
	if !logger.ContainsField(log.AccuracyKey, 1.0) {
		t.Error("expected accuracy on the finish record")
	}
}

func TestEvaluateOptionalMetrics(t *testing.T) {
	e := New(WithLogger(log.Nop()))

	constant, err := e.Evaluate(mustDataset(t, []float64{1, 0, 1}, []float64{0.5, 0.5, 0.5}))
	if err != nil {
		t.Fatalf("Evaluate(constant scores) error = %v", err)
	}
	if constant.HasR2 || !math.IsNaN(constant.R2) {
		t.Errorf("R2 = %v HasR2 = %v, want NaN/false", constant.R2, constant.HasR2)
	}
	if math.Abs(constant.ROCAUC-0.5) > 1e-12 {
		t.Errorf("ROCAUC = %v, want 0.5", constant.ROCAUC)
	}

	margins, err := e.Evaluate(mustDataset(t, []float64{1, 0}, []float64{2.3, -1.7}))
	if err != nil {
		t.Fatal(err)
	}
	if margins.HasLogLoss || !math.IsNaN(margins.LogLoss) {
		t.Errorf("LogLoss = %v HasLogLoss = %v, want NaN/false", margins.LogLoss, margins.HasLogLoss)
	}
	for i := 0; i+1 < len(margins.Attrs()); i += 2 {
		if key := margins.Attrs()[i]; key == log.LogLossKey || key == log.R2Key && !margins.HasR2 {
			t.Errorf("Attrs() contains undefined metric %v", key)
		}
	}
}

func TestEvaluateFailures(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	e := New(WithLogger(logger))

	var degErr *errors.DegenerateInputError
	if _, err := e.Evaluate(mustDataset(t, []float64{1, 1}, []float64{0.2, 0.9})); !errors.As(err, &degErr) {
		t.Errorf("Evaluate(single class) error = %v, want DegenerateInputError", err)
	}
	if !logger.ContainsMessage("Evaluation failed") {
		t.Error("expected a failure record")
	}

	var emptyErr *errors.EmptyInputError
	if _, err := e.Evaluate(mustDataset(t, nil, nil)); !errors.As(err, &emptyErr) {
		t.Errorf("Evaluate(empty) error = %v, want EmptyInputError", err)
	}

	var valErr *errors.ValueError
	nanThreshold := New(WithLogger(log.Nop()), WithThreshold(math.NaN()))
	if _, err := nanThreshold.Evaluate(mustDataset(t, []float64{1, 0}, []float64{1, 0})); !errors.As(err, &valErr) {
		t.Errorf("Evaluate(NaN threshold) error = %v, want ValueError", err)
	}
}

func TestEvaluateClassifier(t *testing.T) {
	X, y := separable(10)
	report, err := New(WithLogger(log.Nop())).EvaluateClassifier(byFeature, X, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(report.ROCAUC-1) > 1e-9 || report.Accuracy != 1 {
		t.Errorf("ROCAUC=%v Accuracy=%v, want 1/1", report.ROCAUC, report.Accuracy)
	}

	failing := model.ClassifierFunc(func([]float64) (float64, error) { return 0, errors.New("model offline") })
	var modelErr *errors.ModelError
	if _, err := New(WithLogger(log.Nop())).EvaluateClassifier(failing, X, y); !errors.As(err, &modelErr) {
		t.Errorf("error = %v, want ModelError", err)
	}

	var lenErr *errors.LengthMismatchError
	if _, err := New(WithLogger(log.Nop())).EvaluateClassifier(byFeature, X, y[:3]); !errors.As(err, &lenErr) {
		t.Errorf("error = %v, want LengthMismatchError", err)
	}
}

func TestTrainTest(t *testing.T) {
	X, y := separable(20)
	fold, err := validation.TrainTestSplit(len(y), 0.25, true, 1)
	if err != nil {
		t.Fatal(err)
	}

	var trainedOn int
	trainer := model.TrainerFunc(func(X mat.Matrix, y []float64) (model.Classifier, error) {
		trainedOn = len(y)
		return byFeature, nil
	})

	report, err := New(WithLogger(log.Nop())).TrainTest(context.Background(), trainer, X, y, fold)
	if err != nil {
		// a shuffled 5-sample test side can in principle hold a single class
		var degErr *errors.DegenerateInputError
		if errors.As(err, &degErr) {
			t.Skip("test side drew a single class for this seed")
		}
		t.Fatal(err)
	}
	if trainedOn != 15 || report.N != 5 {
		t.Errorf("trained on %d, tested on %d; want 15/5", trainedOn, report.N)
	}
}

func TestTrainTestTrainerFailures(t *testing.T) {
	X, y := separable(8)
	fold := validation.Fold{TrainIndices: []int{0, 1, 2, 3}, TestIndices: []int{4, 5, 6, 7}}
	e := New(WithLogger(log.Nop()))

	failing := model.TrainerFunc(func(mat.Matrix, []float64) (model.Classifier, error) {
		return nil, errors.New("did not converge")
	})
	var modelErr *errors.ModelError
	if _, err := e.TrainTest(context.Background(), failing, X, y, fold); !errors.As(err, &modelErr) {
		t.Errorf("error = %v, want ModelError", err)
	}

	panicking := model.TrainerFunc(func(mat.Matrix, []float64) (model.Classifier, error) {
		panic("singular matrix")
	})
	var panicErr *errors.PanicError
	if _, err := e.TrainTest(context.Background(), panicking, X, y, fold); !errors.As(err, &panicErr) {
		t.Errorf("error = %v, want PanicError", err)
	}

	nilClassifier := model.TrainerFunc(func(mat.Matrix, []float64) (model.Classifier, error) { return nil, nil })
	if _, err := e.TrainTest(context.Background(), nilClassifier, X, y, fold); !errors.As(err, &modelErr) {
		t.Errorf("error = %v, want ModelError", err)
	}

	var valErr *errors.ValueError
	if _, err := e.TrainTest(context.Background(), byFeatureTrainer(), X, []float64{0, 1, 2, 0, 1, 0, 1, 0}, fold); !errors.As(err, &valErr) {
		t.Errorf("error = %v, want ValueError for label 2", err)
	}
}

func byFeatureTrainer() model.Trainer { return constantTrainer(byFeature) }

func TestCrossValidate(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	e := New(WithLogger(logger), WithModelName("by-feature"))
	X, y := separable(20)

	result, err := e.CrossValidate(context.Background(), byFeatureTrainer(), X, y, validation.NewStratifiedKFold(4, true, 42))
	if err != nil {
		t.Fatalf("CrossValidate() error = %v", err)
	}

	if len(result.Folds) != 4 {
		t.Fatalf("got %d folds, want 4", len(result.Folds))
	}
	var tested int
	for i, fold := range result.Folds {
		tested += fold.N
		if fold.RunID != result.RunID {
			t.Errorf("fold %d RunID = %q, want %q", i, fold.RunID, result.RunID)
		}
	}
	if tested != 20 || result.Pooled.N != 20 {
		t.Errorf("tested %d samples, pooled %d; want 20/20", tested, result.Pooled.N)
	}
	if math.Abs(result.Mean[MetricROCAUC]-1) > 1e-9 || result.Std[MetricROCAUC] > 1e-9 {
		t.Errorf("roc_auc mean/std = %v/%v, want 1/0", result.Mean[MetricROCAUC], result.Std[MetricROCAUC])
	}
	if math.Abs(result.Mean[MetricAccuracy]-1) > 1e-9 {
		t.Errorf("accuracy mean = %v, want 1", result.Mean[MetricAccuracy])
	}
	if _, ok := result.Mean[MetricLogLoss]; ok {
		t.Error("log_loss should be absent: scores exceed 1")
	}
	if math.Abs(result.Pooled.ROCAUC-1) > 1e-9 {
		t.Errorf("pooled ROCAUC = %v, want 1", result.Pooled.ROCAUC)
	}

	if n := strings.Count(logger.String(), "Fold evaluated"); n != 4 {
		t.Errorf("got %d fold records, want 4", n)
	}
	if !logger.ContainsField(log.OperationKey, log.OperationCrossValidate) {
		t.Error("expected the cross_validate operation on log records")
	}
}

func TestCrossValidateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	trainer := model.TrainerFunc(func(mat.Matrix, []float64) (model.Classifier, error) {
		calls++
		cancel()
		return byFeature, nil
	})
	X, y := separable(20)

	_, err := New(WithLogger(log.Nop())).CrossValidate(ctx, trainer, X, y, validation.NewStratifiedKFold(4, false, 0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("trainer called %d times after cancellation, want 1", calls)
	}
}

func TestCrossValidateInvalidInputs(t *testing.T) {
	X, y := separable(6)
	e := New(WithLogger(log.Nop()))

	var valErr *errors.ValueError
	if _, err := e.CrossValidate(context.Background(), byFeatureTrainer(), X, y, nil); !errors.As(err, &valErr) {
		t.Errorf("nil splitter error = %v", err)
	}
	if _, err := e.CrossValidate(context.Background(), nil, X, y, validation.NewKFold(2, false, 0)); !errors.As(err, &valErr) {
		t.Errorf("nil trainer error = %v", err)
	}
	var validationErr *errors.ValidationError
	if _, err := e.CrossValidate(context.Background(), byFeatureTrainer(), X, y, validation.NewKFold(10, false, 0)); !errors.As(err, &validationErr) {
		t.Errorf("too many folds error = %v", err)
	}
}

func TestCompare(t *testing.T) {
	X, y := separable(24)
	inverted := model.ClassifierFunc(func(f []float64) (float64, error) { return -f[0], nil })
	constant := model.ClassifierFunc(func([]float64) (float64, error) { return 0.5, nil })

	candidates := map[string]model.Trainer{
		"inverted": constantTrainer(inverted),
		"constant": constantTrainer(constant),
		"beta":     byFeatureTrainer(),
		"alpha":    byFeatureTrainer(),
	}

	rankings, err := New(WithLogger(log.Nop())).Compare(context.Background(), candidates, X, y, validation.NewStratifiedKFold(3, true, 9))
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	wantOrder := []string{"alpha", "beta", "constant", "inverted"}
	wantAUC := []float64{1, 1, 0.5, 0}
	if len(rankings) != len(wantOrder) {
		t.Fatalf("got %d rankings, want %d", len(rankings), len(wantOrder))
	}
	for i, r := range rankings {
		if r.Model != wantOrder[i] || r.Rank != i+1 {
			t.Errorf("rank %d = %s (Rank %d), want %s", i+1, r.Model, r.Rank, wantOrder[i])
		}
		if math.Abs(r.ROCAUC-wantAUC[i]) > 1e-9 {
			t.Errorf("%s ROCAUC = %v, want %v", r.Model, r.ROCAUC, wantAUC[i])
		}
		if r.Result.Model != r.Model {
			t.Errorf("result model = %q, want %q", r.Result.Model, r.Model)
		}
	}
	if _, ok := rankings[2].Result.Mean[MetricR2]; ok {
		t.Error("constant scores should leave r2 out of the summary")
	}
}

func TestCompareNoCandidates(t *testing.T) {
	X, y := separable(4)
	var valErr *errors.ValueError
	_, err := New(WithLogger(log.Nop())).Compare(context.Background(), nil, X, y, validation.NewKFold(2, false, 0))
	if !errors.As(err, &valErr) {
		t.Errorf("error = %v, want ValueError", err)
	}
}
