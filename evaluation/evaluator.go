package evaluation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/YuminosukeSato/classigo/core/model"
	"github.com/YuminosukeSato/classigo/metrics"
	"github.com/YuminosukeSato/classigo/pkg/errors"
	"github.com/YuminosukeSato/classigo/pkg/log"
	"github.com/YuminosukeSato/classigo/validation"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultModelName はモデル名が指定されなかった場合に Report に記録される名前
const DefaultModelName = "classifier"

// Evaluator は分類器の評価を実行する
//
// Evaluator は状態を持たないため、複数の goroutine から同時に使ってもよい。
type Evaluator struct {
	logger    log.Logger
	threshold float64
	model     string
	newRunID  func() string
}

// Option は Evaluator を設定する
type Option func(*Evaluator)

// WithLogger sets the logger used for run start/finish and failures.
func WithLogger(logger log.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithThreshold sets the decision threshold for accuracy and the confusion matrix.
func WithThreshold(threshold float64) Option {
	return func(e *Evaluator) {
		e.threshold = threshold
	}
}

// WithModelName sets the name recorded in reports and log records.
func WithModelName(name string) Option {
	return func(e *Evaluator) {
		e.model = name
	}
}

// New は Evaluator を作成する
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		logger:    log.GetLogger(),
		threshold: metrics.DefaultThreshold,
		model:     DefaultModelName,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.Nop()
	}
	return e
}

// Evaluate はデータセットのすべての指標を計算して Report を返す
func (e *Evaluator) Evaluate(ds *metrics.Dataset) (*Report, error) {
	runID := e.newRunID()
	logger := e.logger.With(
		log.RunIDKey, runID,
		log.ModelNameKey, e.model,
		log.OperationKey, log.OperationEvaluate,
	)
	logger.Info("Evaluation started", log.SamplesKey, ds.Len())
	start := time.Now()

	report, err := buildReport(ds, e.threshold)
	if err != nil {
		logger.Error("Evaluation failed", err)
		return nil, err
	}
	report.RunID = runID
	report.Model = e.model

	logger.Info("Evaluation finished", append(report.Attrs(), log.DurationMsKey, time.Since(start).Milliseconds())...)
	return report, nil
}

// EvaluateClassifier は X の各行を clf でスコアリングし、y をラベルとして評価する
func (e *Evaluator) EvaluateClassifier(clf model.Classifier, X mat.Matrix, y []float64) (*Report, error) {
	ds, err := e.scoreDataset(clf, X, y)
	if err != nil {
		e.logger.Error("Scoring failed", err,
			log.ModelNameKey, e.model,
			log.OperationKey, log.OperationScore,
		)
		return nil, err
	}
	return e.Evaluate(ds)
}

func (e *Evaluator) scoreDataset(clf model.Classifier, X mat.Matrix, y []float64) (*metrics.Dataset, error) {
	if X == nil {
		return nil, errors.NewValueError("EvaluateClassifier", "nil feature matrix")
	}
	if rows, _ := X.Dims(); rows != len(y) {
		return nil, errors.NewLengthMismatchError("EvaluateClassifier", len(y), rows)
	}
	scores, err := model.ScoreMatrix(clf, X)
	if err != nil {
		return nil, err
	}
	return metrics.NewDataset(y, scores)
}

// TrainTest は fold の訓練側で trainer を学習させ、テスト側で評価する
func (e *Evaluator) TrainTest(ctx context.Context, trainer model.Trainer, X mat.Matrix, y []float64, fold validation.Fold) (*Report, error) {
	runID := e.newRunID()
	logger := e.logger.With(
		log.RunIDKey, runID,
		log.ModelNameKey, e.model,
		log.OperationKey, log.OperationTrainTest,
	)
	logger.Info("Train/test evaluation started",
		log.TrainSamplesKey, len(fold.TrainIndices),
		log.TestSamplesKey, len(fold.TestIndices),
	)
	start := time.Now()

	if err := checkInputs("TrainTest", trainer, X, y); err != nil {
		logger.Error("Train/test evaluation failed", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		logger.Error("Train/test evaluation cancelled", err)
		return nil, errors.WithStack(err)
	}

	report, _, err := e.trainTest(trainer, X, y, fold)
	if err != nil {
		logger.Error("Train/test evaluation failed", err)
		return nil, err
	}
	report.RunID = runID

	logger.Info("Train/test evaluation finished", append(report.Attrs(), log.DurationMsKey, time.Since(start).Milliseconds())...)
	return report, nil
}

// trainTest returns the fold report together with the held-out dataset it was computed from.
func (e *Evaluator) trainTest(trainer model.Trainer, X mat.Matrix, y []float64, fold validation.Fold) (*Report, *metrics.Dataset, error) {
	const op = "TrainTest"
	XTrain, yTrain, XTest, yTest, err := fold.Select(X, y)
	if err != nil {
		return nil, nil, err
	}

	var clf model.Classifier
	err = errors.SafeExecute("Trainer.Train", func() error {
		var trainErr error
		clf, trainErr = trainer.Train(XTrain, yTrain)
		return trainErr
	})
	if err != nil {
		return nil, nil, errors.NewModelError(op, "train", err)
	}
	if clf == nil {
		return nil, nil, errors.NewModelError(op, "train", errors.New("trainer returned a nil classifier"))
	}

	scores, err := model.ScoreMatrix(clf, XTest)
	if err != nil {
		return nil, nil, err
	}
	ds, err := metrics.NewDataset(yTest, scores)
	if err != nil {
		return nil, nil, err
	}
	report, err := buildReport(ds, e.threshold)
	if err != nil {
		return nil, nil, errors.Wrap(err, "held-out fold")
	}
	report.Model = e.model
	return report, ds, nil
}

func checkInputs(op string, trainer model.Trainer, X mat.Matrix, y []float64) error {
	if trainer == nil {
		return errors.NewValueError(op, "nil trainer")
	}
	if X == nil {
		return errors.NewValueError(op, "nil feature matrix")
	}
	if len(y) == 0 {
		return errors.NewEmptyInputError(op)
	}
	if rows, _ := X.Dims(); rows != len(y) {
		return errors.NewLengthMismatchError(op, len(y), rows)
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return errors.NewValueError(op, fmt.Sprintf("y[%d]: %v (must be 0 or 1)", i, label))
		}
	}
	return nil
}

// CVResult は交差検証の結果
type CVResult struct {
	RunID string
	Model string

	// Folds は各 fold のテスト側に対する Report
	Folds []*Report

	// Mean と Std は fold ごとの指標の平均と標準偏差。指標名は MetricNames を参照。
	// 一部の fold で未定義だった指標 (r2, log_loss) は含まれない。
	Mean map[string]float64
	Std  map[string]float64

	// Pooled はすべての fold のテスト予測を連結した out-of-fold の Report
	Pooled *Report
}

// Metric names used as keys of CVResult.Mean and CVResult.Std.
const (
	MetricAccuracy         = "accuracy"
	MetricMSE              = "mse"
	MetricRMSE             = "rmse"
	MetricR2               = "r2"
	MetricROCAUC           = "roc_auc"
	MetricAveragePrecision = "average_precision"
	MetricLogLoss          = "log_loss"
)

// MetricNames lists every metric CrossValidate summarizes, in report order.
var MetricNames = []string{
	MetricAccuracy, MetricMSE, MetricRMSE, MetricR2, MetricROCAUC, MetricAveragePrecision, MetricLogLoss,
}

// metricValue extracts a named metric from a report; ok is false when the metric is undefined.
func metricValue(r *Report, name string) (value float64, ok bool) {
	switch name {
	case MetricAccuracy:
		return r.Accuracy, true
	case MetricMSE:
		return r.MSE, true
	case MetricRMSE:
		return r.RMSE, true
	case MetricR2:
		return r.R2, r.HasR2
	case MetricROCAUC:
		return r.ROCAUC, true
	case MetricAveragePrecision:
		return r.AveragePrecision, true
	case MetricLogLoss:
		return r.LogLoss, r.HasLogLoss
	}
	return math.NaN(), false
}

// CrossValidate は splitter の各 fold で学習と評価を順番に実行する
//
// fold の間で ctx のキャンセルを確認する。
func (e *Evaluator) CrossValidate(ctx context.Context, trainer model.Trainer, X mat.Matrix, y []float64, splitter validation.Splitter) (*CVResult, error) {
	const op = "CrossValidate"
	runID := e.newRunID()
	logger := e.logger.With(
		log.RunIDKey, runID,
		log.ModelNameKey, e.model,
		log.OperationKey, log.OperationCrossValidate,
	)

	if splitter == nil {
		err := errors.NewValueError(op, "nil splitter")
		logger.Error("Cross-validation failed", err)
		return nil, err
	}
	logger.Info("Cross-validation started",
		log.SamplesKey, len(y),
		log.NSplitsKey, splitter.NSplits(),
	)
	start := time.Now()

	result, err := e.crossValidate(ctx, logger, trainer, X, y, splitter)
	if err != nil {
		logger.Error("Cross-validation failed", err)
		return nil, err
	}
	result.RunID = runID
	result.Pooled.RunID = runID
	for _, fold := range result.Folds {
		fold.RunID = runID
	}

	logger.Info("Cross-validation finished",
		log.NSplitsKey, len(result.Folds),
		log.ROCAUCKey, result.Mean[MetricROCAUC],
		log.AccuracyKey, result.Mean[MetricAccuracy],
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (e *Evaluator) crossValidate(ctx context.Context, logger log.Logger, trainer model.Trainer, X mat.Matrix, y []float64, splitter validation.Splitter) (*CVResult, error) {
	const op = "CrossValidate"
	if err := checkInputs(op, trainer, X, y); err != nil {
		return nil, err
	}
	folds, err := splitter.Split(y)
	if err != nil {
		return nil, err
	}

	result := &CVResult{
		Model: e.model,
		Folds: make([]*Report, 0, len(folds)),
		Mean:  make(map[string]float64),
		Std:   make(map[string]float64),
	}
	pooledLabels := make([]float64, 0, len(y))
	pooledScores := make([]float64, 0, len(y))

	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "cancelled before fold %d", i)
		}
		report, ds, err := e.trainTest(trainer, X, y, fold)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		logger.Debug("Fold evaluated", append(report.Attrs(), log.FoldKey, i)...)

		result.Folds = append(result.Folds, report)
		pooledLabels = append(pooledLabels, ds.Labels()...)
		pooledScores = append(pooledScores, ds.Scores()...)
	}

	for _, name := range MetricNames {
		values := make([]float64, 0, len(result.Folds))
		for _, r := range result.Folds {
			if v, ok := metricValue(r, name); ok {
				values = append(values, v)
			}
		}
		if len(values) != len(result.Folds) || len(values) < 2 {
			continue
		}
		result.Mean[name], result.Std[name] = stat.MeanStdDev(values, nil)
	}

	pooled, err := metrics.NewDataset(pooledLabels, pooledScores)
	if err != nil {
		return nil, err
	}
	if result.Pooled, err = buildReport(pooled, e.threshold); err != nil {
		return nil, errors.Wrap(err, "pooled out-of-fold predictions")
	}
	result.Pooled.Model = e.model
	return result, nil
}

// Ranking は Compare における一つの候補の順位
type Ranking struct {
	Rank   int
	Model  string
	ROCAUC float64
	Std    float64
	Result *CVResult
}

// Compare は各候補を同じ splitter で交差検証し、平均 ROC AUC の降順に並べる
//
// 平均が等しい場合は名前の昇順。どれか一つでも失敗した場合はエラーを返す。
func (e *Evaluator) Compare(ctx context.Context, candidates map[string]model.Trainer, X mat.Matrix, y []float64, splitter validation.Splitter) ([]Ranking, error) {
	const op = "Compare"
	logger := e.logger.With(log.OperationKey, log.OperationCompare)
	if len(candidates) == 0 {
		err := errors.NewValueError(op, "no candidates to compare")
		logger.Error("Comparison failed", err)
		return nil, err
	}

	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	logger.Info("Comparison started", "candidates", names)

	rankings := make([]Ranking, 0, len(names))
	for _, name := range names {
		sub := *e
		sub.model = name
		result, err := sub.CrossValidate(ctx, candidates[name], X, y, splitter)
		if err != nil {
			logger.Error("Comparison failed", err, log.ModelNameKey, name)
			return nil, errors.Wrapf(err, "candidate %q", name)
		}
		rankings = append(rankings, Ranking{
			Model:  name,
			ROCAUC: result.Mean[MetricROCAUC],
			Std:    result.Std[MetricROCAUC],
			Result: result,
		})
	}

	// names are already sorted, so a stable sort keeps ties in name order
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].ROCAUC > rankings[j].ROCAUC
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	logger.Info("Comparison finished",
		log.ModelNameKey, rankings[0].Model,
		log.ROCAUCKey, rankings[0].ROCAUC,
	)
	return rankings, nil
}
