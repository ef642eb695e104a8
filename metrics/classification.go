package metrics

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/classigo/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultThreshold はしきい値が指定されなかった場合に使う判定境界
const DefaultThreshold = 0.5

// logLossEpsilon は log(0) を避けるためのクリッピング幅
const logLossEpsilon = 1e-15

// Option はしきい値依存の指標を設定する
type Option func(*options)

type options struct {
	threshold float64
}

// WithThreshold は score >= threshold を陽性と判定するしきい値を設定する
func WithThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

func resolve(op string, opts []Option) (options, error) {
	o := options{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	if math.IsNaN(o.threshold) {
		return o, errors.NewValueError(op, "threshold: NaN")
	}
	return o, nil
}

// ConfusionMatrix はしきい値における混同行列
type ConfusionMatrix struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Total は観測値の総数を返す
func (c ConfusionMatrix) Total() int {
	return c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives
}

// Confusion はしきい値で二値化した予測の混同行列を計算する
func Confusion(ds *Dataset, opts ...Option) (ConfusionMatrix, error) {
	o, err := resolve("Confusion", opts)
	if err != nil {
		return ConfusionMatrix{}, err
	}
	if ds.Len() == 0 {
		return ConfusionMatrix{}, errors.NewEmptyInputError("Confusion")
	}
	return confusionAt(ds, o.threshold), nil
}

func confusionAt(ds *Dataset, threshold float64) ConfusionMatrix {
	var c ConfusionMatrix
	for i, label := range ds.labels {
		predicted := ds.scores[i] >= threshold
		switch {
		case predicted && label == 1:
			c.TruePositives++
		case predicted:
			c.FalsePositives++
		case label == 1:
			c.FalseNegatives++
		default:
			c.TrueNegatives++
		}
	}
	return c
}

// Accuracy は (score >= threshold) == (label == 1) となる観測値の割合を計算する
//
// しきい値は WithThreshold で指定しなければ 0.5。
func Accuracy(ds *Dataset, opts ...Option) (float64, error) {
	o, err := resolve("Accuracy", opts)
	if err != nil {
		return 0, err
	}
	n := ds.Len()
	if n == 0 {
		return 0, errors.NewEmptyInputError("Accuracy")
	}

	c := confusionAt(ds, o.threshold)
	return float64(c.TruePositives+c.TrueNegatives) / float64(n), nil
}

// MeanSquaredError は平均二乗誤差 (1/n) * Σ(label - score)² を計算する
//
// 結果が float64 で表現できない場合 (|score| が 1e154 程度を超えるとき) は
// NumericalInstabilityError を返す。
func MeanSquaredError(ds *Dataset) (float64, error) {
	const op = "MeanSquaredError"
	n := ds.Len()
	if n == 0 {
		return 0, errors.NewEmptyInputError(op)
	}

	var sum float64
	for i, label := range ds.labels {
		diff := label - ds.scores[i]
		sum += diff * diff
	}
	mse := sum / float64(n)
	if err := errors.CheckScalar(op, mse, 0); err != nil {
		return 0, err
	}
	return mse, nil
}

// RootMeanSquaredError は平方根平均二乗誤差を計算する
func RootMeanSquaredError(ds *Dataset) (float64, error) {
	mse, err := MeanSquaredError(ds)
	if err != nil {
		return 0, errors.Wrap(err, "RootMeanSquaredError")
	}
	return math.Sqrt(mse), nil
}

// SquaredCorrelationCoefficient はラベル列とスコア列のピアソン相関係数の二乗を計算する
//
// どちらかの列の分散がゼロの場合、相関は定義されないため DegenerateInputError を返す。
func SquaredCorrelationCoefficient(ds *Dataset) (float64, error) {
	const op = "SquaredCorrelationCoefficient"
	n := ds.Len()
	if n == 0 {
		return 0, errors.NewEmptyInputError(op)
	}
	if ds.positives == 0 || ds.positives == n {
		return 0, errors.NewDegenerateInputError(op, "labels have zero variance (single class)")
	}
	if constant(ds.scores) {
		return 0, errors.NewDegenerateInputError(op, "scores have zero variance")
	}

	scaled, ok := standardize(ds.scores)
	if !ok {
		return 0, errors.NewDegenerateInputError(op, "scores have zero variance")
	}
	r := stat.Correlation(ds.labels, scaled, nil)
	if err := errors.CheckScalar(op, r, 0); err != nil {
		return 0, err
	}
	// 丸め誤差で |r| が 1 をわずかに超えることがある
	return errors.ClipValue(r*r, 0, 1), nil
}

// standardize は相関係数を変えない平行移動と拡大縮小で xs を [-1, 1] に収める
//
// 1e308 や 1e-300 のような極端なスコアでも二乗和がオーバーフロー/アンダーフローしない。
// 中心化後にすべて 0 になる場合は ok=false を返す。
func standardize(xs []float64) (scaled []float64, ok bool) {
	scaled = make([]float64, len(xs))
	copy(scaled, xs)
	// 1/m は m が非正規化数のとき +Inf になるため、逆数を掛けずに割る
	if m := floats.Norm(scaled, math.Inf(1)); m > 0 {
		divide(scaled, m)
	}
	floats.AddConst(-stat.Mean(scaled, nil), scaled)
	c := floats.Norm(scaled, math.Inf(1))
	if c == 0 {
		return nil, false
	}
	divide(scaled, c)
	return scaled, true
}

func divide(xs []float64, d float64) {
	for i := range xs {
		xs[i] /= d
	}
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// Precision は TP / (TP + FP) を計算する
//
// 陽性と予測された観測値がない場合は UndefinedMetricWarning を発生させて 0 を返す。
func Precision(ds *Dataset, opts ...Option) (float64, error) {
	c, err := Confusion(ds, opts...)
	if err != nil {
		return 0, errors.Wrap(err, "Precision")
	}
	return ratio("precision", "no predicted positive samples", c.TruePositives, c.TruePositives+c.FalsePositives), nil
}

// Recall は TP / (TP + FN) を計算する
//
// 陽性の観測値がない場合は UndefinedMetricWarning を発生させて 0 を返す。
func Recall(ds *Dataset, opts ...Option) (float64, error) {
	c, err := Confusion(ds, opts...)
	if err != nil {
		return 0, errors.Wrap(err, "Recall")
	}
	return ratio("recall", "no true positive samples", c.TruePositives, c.TruePositives+c.FalseNegatives), nil
}

// F1Score は適合率と再現率の調和平均 2TP / (2TP + FP + FN) を計算する
func F1Score(ds *Dataset, opts ...Option) (float64, error) {
	c, err := Confusion(ds, opts...)
	if err != nil {
		return 0, errors.Wrap(err, "F1Score")
	}
	return ratio("f1", "no positive samples in either labels or predictions",
		2*c.TruePositives, 2*c.TruePositives+c.FalsePositives+c.FalseNegatives), nil
}

func ratio(metric, condition string, num, den int) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, condition, 0))
		return 0
	}
	return float64(num) / float64(den)
}

// BinaryLogLoss は二値交差エントロピーの平均を計算する
//
// スコアは確率として解釈されるため [0, 1] の範囲でなければならない。
// log(0) を避けるため [1e-15, 1-1e-15] にクリップする。
func BinaryLogLoss(ds *Dataset) (float64, error) {
	const op = "BinaryLogLoss"
	n := ds.Len()
	if n == 0 {
		return 0, errors.NewEmptyInputError(op)
	}
	if lo, hi := floats.Min(ds.scores), floats.Max(ds.scores); lo < 0 || hi > 1 {
		return 0, errors.NewValueError(op, fmt.Sprintf("scores must be probabilities in [0, 1], got range [%g, %g]", lo, hi))
	}

	var sum float64
	for i, label := range ds.labels {
		p := errors.ClipValue(ds.scores[i], logLossEpsilon, 1-logLossEpsilon)
		if label == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}
