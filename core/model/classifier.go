// Package model は評価対象となる二値分類器の境界を定義する
//
// 分類器はブラックボックスとして扱われる。classigo は分類器を学習も検査もせず、
// 特徴量ベクトルに対する実数スコアだけを受け取る。
package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Classifier は特徴量ベクトルに実数スコアを返す学習済み二値分類器のインターフェース
//
// スコアが大きいほど陽性らしいことを表す。確率である必要はない。
type Classifier interface {
	// Score は一つの観測値に対するスコアを返す
	Score(features []float64) (float64, error)
}

// ClassifierFunc は関数を Classifier として扱うためのアダプタ
type ClassifierFunc func(features []float64) (float64, error)

// Score は f(features) を呼び出す
func (f ClassifierFunc) Score(features []float64) (float64, error) {
	return f(features)
}

// Trainer は訓練データから Classifier を構築するインターフェース
//
// 学習アルゴリズムは呼び出し側が外部ライブラリを包んで提供する。
type Trainer interface {
	// Train は X の各行と y の 0/1 ラベルから分類器を学習する
	Train(X mat.Matrix, y []float64) (Classifier, error)
}

// TrainerFunc は関数を Trainer として扱うためのアダプタ
type TrainerFunc func(X mat.Matrix, y []float64) (Classifier, error)

// Train は f(X, y) を呼び出す
func (f TrainerFunc) Train(X mat.Matrix, y []float64) (Classifier, error) {
	return f(X, y)
}

// Prediction は確信度付きのラベル予測
type Prediction struct {
	Confidence float64
	Label      int
}

// FromPredictions は (確信度, ラベル) の順位付きリストを返す分類器を Classifier に変換する
//
// 先頭の予測だけを使い、ラベル 1 なら +|Confidence|、それ以外 (0 と -1) なら -|Confidence| を
// スコアとする。予測が空の場合はエラーを返す。
func FromPredictions(predict func(features []float64) ([]Prediction, error)) Classifier {
	return ClassifierFunc(func(features []float64) (float64, error) {
		preds, err := predict(features)
		if err != nil {
			return 0, err
		}
		if len(preds) == 0 {
			return 0, errNoPrediction
		}
		top := preds[0]
		if top.Label == 1 {
			return math.Abs(top.Confidence), nil
		}
		return -math.Abs(top.Confidence), nil
	})
}
