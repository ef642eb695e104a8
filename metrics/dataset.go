// Package metrics は二値分類器のスコアを評価する指標と曲線を計算する。
//
// すべての関数は不変な Dataset に対する純粋関数であり、共有状態を持たないため
// 複数のゴルーチンから同時に呼び出しても安全である。
package metrics

import (
	"fmt"

	"github.com/YuminosukeSato/classigo/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Observation は正解ラベル (0 または 1) と予測スコアの組
type Observation struct {
	Label float64
	Score float64
}

// Dataset はラベル列とスコア列の不変なペア
//
// ゼロ値は空のデータセットとして扱われ、指標関数は EmptyInputError を返す。
type Dataset struct {
	labels    []float64
	scores    []float64
	positives int
}

// NewDataset はラベルとスコアをコピーして Dataset を作成する
func NewDataset(labels, scores []float64) (*Dataset, error) {
	if len(labels) != len(scores) {
		return nil, errors.NewLengthMismatchError("NewDataset", len(labels), len(scores))
	}

	positives := 0
	for i, l := range labels {
		switch l {
		case 1:
			positives++
		case 0:
		default:
			return nil, errors.NewValueError("NewDataset", fmt.Sprintf("labels[%d]: %v (must be 0 or 1)", i, l))
		}
	}

	if err := errors.CheckNumericalStability("NewDataset", scores); err != nil {
		return nil, err
	}

	ds := &Dataset{
		labels:    make([]float64, len(labels)),
		scores:    make([]float64, len(scores)),
		positives: positives,
	}
	copy(ds.labels, labels)
	copy(ds.scores, scores)
	return ds, nil
}

// NewDatasetFromVec はベクトル形式の入力から Dataset を作成する
func NewDatasetFromVec(yTrue, yScore *mat.VecDense) (*Dataset, error) {
	if yTrue == nil || yScore == nil {
		return nil, errors.NewValueError("NewDatasetFromVec", "nil vector")
	}
	return NewDataset(vecToSlice(yTrue), vecToSlice(yScore))
}

// NewDatasetFromMatrix は行列形式の入力から Dataset を作成する（先頭列を使用）
func NewDatasetFromMatrix(yTrue, yScore mat.Matrix) (*Dataset, error) {
	if yTrue == nil || yScore == nil {
		return nil, errors.NewValueError("NewDatasetFromMatrix", "nil matrix")
	}
	return NewDataset(firstColumn(yTrue), firstColumn(yScore))
}

func vecToSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

func firstColumn(m mat.Matrix) []float64 {
	// 空の mat.Dense に対する Dims は (0, 0) を返す
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = m.At(i, 0)
	}
	return out
}

// Len は観測値の数を返す
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.labels)
}

// Positives はラベルが 1 の観測値の数を返す
func (d *Dataset) Positives() int {
	if d == nil {
		return 0
	}
	return d.positives
}

// Negatives はラベルが 0 の観測値の数を返す
func (d *Dataset) Negatives() int {
	return d.Len() - d.Positives()
}

// Labels はラベル列のコピーを返す
func (d *Dataset) Labels() []float64 {
	out := make([]float64, d.Len())
	if d != nil {
		copy(out, d.labels)
	}
	return out
}

// Scores はスコア列のコピーを返す
func (d *Dataset) Scores() []float64 {
	out := make([]float64, d.Len())
	if d != nil {
		copy(out, d.scores)
	}
	return out
}

// Observations は観測値を元の順序で返す
func (d *Dataset) Observations() []Observation {
	out := make([]Observation, d.Len())
	for i := range out {
		out[i] = Observation{Label: d.labels[i], Score: d.scores[i]}
	}
	return out
}

// NormalizeLabels は {-1, +1} 形式のラベル (libsvm / liblinear の慣習) を {0, 1} に写像する
//
// すでに {0, 1} の場合はそのままコピーを返す。変換が行われた場合は
// DataConversionWarning を発生させる。
func NormalizeLabels(y []float64) ([]float64, error) {
	out := make([]float64, len(y))
	signed := false
	for i, v := range y {
		switch v {
		case 0, 1:
			out[i] = v
		case -1:
			signed = true
			out[i] = 0
		default:
			return nil, errors.NewValueError("NormalizeLabels", fmt.Sprintf("y[%d]: %v (must be one of -1, 0, 1)", i, v))
		}
	}
	if signed {
		for _, v := range y {
			if v == 0 {
				return nil, errors.NewValueError("NormalizeLabels", "labels mix 0 and -1 as the negative class")
			}
		}
		errors.Warn(errors.NewDataConversionWarning("{-1,+1}", "{0,1}", "signed labels mapped onto binary labels"))
	}
	return out, nil
}
