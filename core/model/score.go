package model

import (
	"fmt"

	"github.com/YuminosukeSato/classigo/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var errNoPrediction = errors.New("classifier returned no predictions")

// ScoreMatrix scores every row of X with clf.
//
// A classifier error is wrapped in a ModelError naming the row, a panic inside
// the classifier is recovered into a PanicError, and a NaN or infinite score is
// reported as a NumericalInstabilityError. Nothing is returned on failure.
func ScoreMatrix(clf Classifier, X mat.Matrix) ([]float64, error) {
	const op = "ScoreMatrix"
	if clf == nil {
		return nil, errors.NewValueError(op, "nil classifier")
	}
	if X == nil {
		return nil, errors.NewValueError(op, "nil feature matrix")
	}

	rows, cols := X.Dims()
	scores := make([]float64, rows)
	for i := 0; i < rows; i++ {
		features := mat.Row(make([]float64, cols), i, X)

		var score float64
		err := errors.SafeExecute("Classifier.Score", func() error {
			var scoreErr error
			score, scoreErr = clf.Score(features)
			return scoreErr
		})
		if err != nil {
			var panicErr *errors.PanicError
			if errors.As(err, &panicErr) {
				return nil, errors.WithStack(panicErr)
			}
			return nil, errors.NewModelError(op, fmt.Sprintf("row %d", i), err)
		}
		if err := errors.CheckScalar(op, score, i); err != nil {
			return nil, err
		}
		scores[i] = score
	}
	return scores, nil
}
