// Package evaluation は分類器の評価ワークフローを提供する
//
// Evaluator は metrics パッケージの指標を一つの Report にまとめ、学習/テスト分割や
// 交差検証、複数の分類器の比較を実行する。各実行には UUID の RunID が振られ、
// 開始と終了が構造化ログに記録される。
package evaluation

import (
	"math"

	"github.com/YuminosukeSato/classigo/metrics"
	"github.com/YuminosukeSato/classigo/pkg/errors"
	"github.com/YuminosukeSato/classigo/pkg/log"
	"gonum.org/v1/gonum/floats"
)

// Report は一つのデータセットに対する評価結果
type Report struct {
	RunID string
	Model string

	N         int
	Positives int
	Threshold float64

	Accuracy float64
	MSE      float64
	RMSE     float64

	// R2 はラベルとスコアの相関係数の二乗。スコアが定数の場合は NaN で HasR2 が false
	R2    float64
	HasR2 bool

	ROCAUC           float64
	AveragePrecision float64

	// LogLoss はすべてのスコアが [0, 1] の場合のみ計算される
	LogLoss    float64
	HasLogLoss bool

	ROC       metrics.Curve
	PR        metrics.Curve
	Confusion metrics.ConfusionMatrix
}

// Attrs は Report の主要な指標をログ用のキーと値の列として返す
//
// RunID と Model は呼び出し側のロガーが持つため含めない。
// NaN は JSON に書けないため、未定義の指標も含めない。
func (r *Report) Attrs() []any {
	attrs := []any{
		log.SamplesKey, r.N,
		log.PositivesKey, r.Positives,
		log.ThresholdKey, r.Threshold,
		log.AccuracyKey, r.Accuracy,
		log.MSEKey, r.MSE,
		log.ROCAUCKey, r.ROCAUC,
		log.AveragePrecisionKey, r.AveragePrecision,
	}
	if r.HasR2 {
		attrs = append(attrs, log.R2Key, r.R2)
	}
	if r.HasLogLoss {
		attrs = append(attrs, log.LogLossKey, r.LogLoss)
	}
	return attrs
}

// buildReport は ds のすべての指標を計算する
//
// 陽性と陰性の両方を含まないデータセットでは曲線が定義できないため DegenerateInputError を返す。
func buildReport(ds *metrics.Dataset, threshold float64) (*Report, error) {
	const op = "Evaluate"
	if ds.Len() == 0 {
		return nil, errors.NewEmptyInputError(op)
	}
	if ds.Positives() == 0 || ds.Negatives() == 0 {
		return nil, errors.NewDegenerateInputError(op, "both classes are required to build a report")
	}

	withThreshold := metrics.WithThreshold(threshold)
	r := &Report{
		N:         ds.Len(),
		Positives: ds.Positives(),
		Threshold: threshold,
		R2:        math.NaN(),
		LogLoss:   math.NaN(),
	}

	var err error
	if r.Accuracy, err = metrics.Accuracy(ds, withThreshold); err != nil {
		return nil, err
	}
	if r.Confusion, err = metrics.Confusion(ds, withThreshold); err != nil {
		return nil, err
	}
	if r.MSE, err = metrics.MeanSquaredError(ds); err != nil {
		return nil, err
	}
	r.RMSE = math.Sqrt(r.MSE)

	r2, err := metrics.SquaredCorrelationCoefficient(ds)
	var degenerate *errors.DegenerateInputError
	switch {
	case err == nil:
		r.R2, r.HasR2 = r2, true
	case !errors.As(err, &degenerate):
		return nil, err
	}

	if r.ROC, err = metrics.ROCCurve(ds); err != nil {
		return nil, err
	}
	r.ROCAUC = r.ROC.AUC()
	if r.PR, err = metrics.PRCurve(ds); err != nil {
		return nil, err
	}
	if r.AveragePrecision, err = metrics.AveragePrecision(ds); err != nil {
		return nil, err
	}

	scores := ds.Scores()
	if floats.Min(scores) >= 0 && floats.Max(scores) <= 1 {
		if r.LogLoss, err = metrics.BinaryLogLoss(ds); err != nil {
			return nil, err
		}
		r.HasLogLoss = true
	}
	return r, nil
}
