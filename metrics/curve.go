package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/classigo/pkg/errors"
	"gonum.org/v1/gonum/integrate"
)

// CurvePoint はしきい値ごとの曲線上の一点
type CurvePoint struct {
	X         float64
	Y         float64
	Threshold float64
}

// Curve はしきい値の降順に並んだ CurvePoint の列
//
// Len と XY を実装しているため gonum/plot の plotter.XYer としてそのまま描画できる。
type Curve []CurvePoint

// Len は点の数を返す
func (c Curve) Len() int { return len(c) }

// XY は i 番目の点の座標を返す
func (c Curve) XY(i int) (x, y float64) { return c[i].X, c[i].Y }

// Xs は X 座標の列を返す
func (c Curve) Xs() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.X
	}
	return out
}

// Ys は Y 座標の列を返す
func (c Curve) Ys() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Y
	}
	return out
}

// AUC は台形公式による曲線下面積を返す
//
// ROCCurve と PRCurve の出力は X 座標が非減少になる。
// 呼び出し側が組み立てた曲線の X が非減少でない場合は NaN を返す。
func (c Curve) AUC() float64 {
	if len(c) < 2 {
		return 0
	}
	xs := c.Xs()
	if !sort.Float64sAreSorted(xs) {
		return math.NaN()
	}
	return integrate.Trapezoidal(xs, c.Ys())
}

// StepArea は右連続の階段関数として Σ (X_k - X_{k-1}) * Y_k を返す
//
// PR 曲線に対しては平均適合率になる。
func (c Curve) StepArea() float64 {
	var area float64
	for k := 1; k < len(c); k++ {
		area += (c[k].X - c[k-1].X) * c[k].Y
	}
	return area
}

// sweepPoint はしきい値 threshold 以上のスコアを陽性としたときの累積カウント
type sweepPoint struct {
	threshold float64
	tp, fp    int
}

// sweep はスコアの降順に一度だけ走査し、異なるスコアごとに TP/FP を記録する
//
// 先頭は +Inf (陽性予測なし)、末尾は -Inf (すべて陽性予測)。
// 同じスコアは一つのしきい値としてまとめて処理される。
func sweep(ds *Dataset) []sweepPoint {
	n := ds.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return ds.scores[order[a]] > ds.scores[order[b]]
	})

	points := make([]sweepPoint, 0, n+2)
	points = append(points, sweepPoint{threshold: math.Inf(1)})

	tp, fp := 0, 0
	for k, idx := range order {
		if ds.labels[idx] == 1 {
			tp++
		} else {
			fp++
		}
		score := ds.scores[idx]
		if k+1 < n && ds.scores[order[k+1]] == score {
			continue
		}
		points = append(points, sweepPoint{threshold: score, tp: tp, fp: fp})
	}

	points = append(points, sweepPoint{threshold: math.Inf(-1), tp: tp, fp: fp})
	return points
}

// ROCCurve は (偽陽性率, 真陽性率) の曲線を計算する
//
// しきい値は +Inf、異なるスコアの降順、-Inf の順に走査される。
// 結果は (0,0) で始まり (1,1) で終わり、両軸とも単調非減少。
// 陽性または陰性の観測値が一つもない場合は率が定義できないため DegenerateInputError を返す。
func ROCCurve(ds *Dataset) (Curve, error) {
	const op = "ROCCurve"
	if ds.Len() == 0 {
		return nil, errors.NewEmptyInputError(op)
	}
	pos, neg := ds.Positives(), ds.Negatives()
	if pos == 0 {
		return nil, errors.NewDegenerateInputError(op, "no positive samples, true positive rate is undefined")
	}
	if neg == 0 {
		return nil, errors.NewDegenerateInputError(op, "no negative samples, false positive rate is undefined")
	}

	points := sweep(ds)
	curve := make(Curve, len(points))
	for i, p := range points {
		curve[i] = CurvePoint{
			X:         float64(p.fp) / float64(neg),
			Y:         float64(p.tp) / float64(pos),
			Threshold: p.threshold,
		}
	}
	return curve, nil
}

// PRCurve は (再現率, 適合率) の曲線を計算する
//
// +Inf のしきい値では陽性予測が一つもないため、適合率は慣習として 1.0 とする。
// 補間は行わず、各しきい値での生の点をそのまま返す。
// 陽性の観測値がない場合は再現率が定義できないため DegenerateInputError を返す。
func PRCurve(ds *Dataset) (Curve, error) {
	const op = "PRCurve"
	if ds.Len() == 0 {
		return nil, errors.NewEmptyInputError(op)
	}
	pos := ds.Positives()
	if pos == 0 {
		return nil, errors.NewDegenerateInputError(op, "no positive samples, recall is undefined")
	}

	points := sweep(ds)
	curve := make(Curve, len(points))
	for i, p := range points {
		precision := 1.0
		if predicted := p.tp + p.fp; predicted > 0 {
			precision = float64(p.tp) / float64(predicted)
		}
		curve[i] = CurvePoint{
			X:         float64(p.tp) / float64(pos),
			Y:         precision,
			Threshold: p.threshold,
		}
	}
	return curve, nil
}

// ROCAUC は ROC 曲線下面積を計算する
//
// 片方のクラスしか含まない場合は UndefinedMetricWarning を発生させて 0.5 を返す。
func ROCAUC(ds *Dataset) (float64, error) {
	if ds.Len() == 0 {
		return 0, errors.NewEmptyInputError("ROCAUC")
	}
	if ds.Positives() == 0 || ds.Negatives() == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in labels", 0.5))
		return 0.5, nil
	}
	curve, err := ROCCurve(ds)
	if err != nil {
		return 0, err
	}
	return curve.AUC(), nil
}

// AveragePrecision は PR 曲線の段階的な面積 Σ (R_k - R_{k-1}) * P_k を計算する
func AveragePrecision(ds *Dataset) (float64, error) {
	curve, err := PRCurve(ds)
	if err != nil {
		return 0, errors.Wrap(err, "AveragePrecision")
	}
	return curve.StepArea(), nil
}
