// Package validation partitions sample indices into train/test folds.
//
// Splitting never looks at features; only the label vector is consulted, and
// only by StratifiedKFold. All shuffles are reproducible from a seed.
package validation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/classigo/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Splitter defines interface for cross-validation splitters
type Splitter interface {
	Split(y []float64) ([]Fold, error)
	NSplits() int
}

// Fold represents a single train/test partition
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Select copies the rows of X and the labels of y that belong to each side of the fold.
// Both sides must be non-empty.
func (f Fold) Select(X mat.Matrix, y []float64) (XTrain *mat.Dense, yTrain []float64, XTest *mat.Dense, yTest []float64, err error) {
	if X == nil {
		return nil, nil, nil, nil, errors.NewValueError("Fold.Select", "feature matrix is nil")
	}
	if len(f.TrainIndices) == 0 {
		return nil, nil, nil, nil, errors.NewValidationError("TrainIndices", "must not be empty", 0)
	}
	if len(f.TestIndices) == 0 {
		return nil, nil, nil, nil, errors.NewValidationError("TestIndices", "must not be empty", 0)
	}
	rows, cols := X.Dims()
	if cols == 0 {
		return nil, nil, nil, nil, errors.NewValueError("Fold.Select", "feature matrix has no columns")
	}
	if rows != len(y) {
		return nil, nil, nil, nil, errors.NewLengthMismatchError("Fold.Select", len(y), rows)
	}
	for _, idx := range append(append([]int(nil), f.TrainIndices...), f.TestIndices...) {
		if idx < 0 || idx >= rows {
			return nil, nil, nil, nil, errors.NewValidationError("index", fmt.Sprintf("out of range [0, %d)", rows), idx)
		}
	}
	XTrain, yTrain = gather(X, y, f.TrainIndices)
	XTest, yTest = gather(X, y, f.TestIndices)
	return XTrain, yTrain, XTest, yTest, nil
}

// gather expects a non-empty index list; mat.NewDense rejects zero rows.
func gather(X mat.Matrix, y []float64, indices []int) (*mat.Dense, []float64) {
	_, cols := X.Dims()
	labels := make([]float64, len(indices))
	out := mat.NewDense(len(indices), cols, nil)
	row := make([]float64, cols)
	for i, idx := range indices {
		out.SetRow(i, mat.Row(row, idx, X))
		labels[i] = y[idx]
	}
	return out, labels
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	Splits  int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	if nSplits < 2 {
		nSplits = 5 // Default to 5-fold
	}
	return &KFold{
		Splits:  nSplits,
		Shuffle: shuffle,
		Seed:    seed,
	}
}

// NSplits returns the number of splits
func (kf *KFold) NSplits() int {
	return kf.Splits
}

// Split generates train/test indices for each fold
//
// Test blocks are contiguous in the (optionally shuffled) index order; the
// first n%k folds receive one extra sample.
func (kf *KFold) Split(y []float64) ([]Fold, error) {
	nSamples := len(y)
	if err := checkSplit("KFold.Split", nSamples, kf.Splits); err != nil {
		return nil, err
	}

	indices := identity(nSamples)
	if kf.Shuffle {
		shuffle(indices, kf.Seed)
	}

	folds := make([]Fold, kf.Splits)
	foldSize := nSamples / kf.Splits
	remainder := nSamples % kf.Splits

	currentIdx := 0
	for i := 0; i < kf.Splits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		test := make([]int, testSize)
		copy(test, indices[currentIdx:currentIdx+testSize])
		folds[i] = complement(test, nSamples)
		currentIdx += testSize
	}
	return folds, nil
}

// StratifiedKFold implements stratified k-fold cross-validation
//
// Each class is dealt across the folds separately so every fold keeps roughly
// the overall class balance.
type StratifiedKFold struct {
	Splits  int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		Splits:  nSplits,
		Shuffle: shuffle,
		Seed:    seed,
	}
}

// NSplits returns the number of splits
func (skf *StratifiedKFold) NSplits() int {
	return skf.Splits
}

// Split generates stratified train/test indices for each fold
func (skf *StratifiedKFold) Split(y []float64) ([]Fold, error) {
	nSamples := len(y)
	if err := checkSplit("StratifiedKFold.Split", nSamples, skf.Splits); err != nil {
		return nil, err
	}

	// Group indices by class
	classIndices := make(map[float64][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}
	classes := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		classes = append(classes, label)
	}
	sort.Float64s(classes)

	var r *rand.Rand
	if skf.Shuffle {
		r = rand.New(rand.NewPCG(skf.Seed, skf.Seed))
	}

	tests := make([][]int, skf.Splits)
	// offset rotates the fold that receives the remainder so small classes do
	// not all pile into fold 0
	offset := 0
	for _, label := range classes {
		indices := classIndices[label]
		if r != nil {
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		for k, idx := range indices {
			fold := (offset + k) % skf.Splits
			tests[fold] = append(tests[fold], idx)
		}
		offset = (offset + len(indices)) % skf.Splits
	}

	folds := make([]Fold, skf.Splits)
	for i, test := range tests {
		folds[i] = complement(test, nSamples)
	}
	return folds, nil
}

// TrainTestSplit holds out round(n*testFraction) samples for testing.
//
// testFraction must lie in (0, 1) and both sides must end up non-empty.
func TrainTestSplit(n int, testFraction float64, shuffleRows bool, seed uint64) (Fold, error) {
	if n == 0 {
		return Fold{}, errors.NewEmptyInputError("TrainTestSplit")
	}
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return Fold{}, errors.NewValidationError("testFraction", "must be in (0, 1)", testFraction)
	}
	nTest := int(math.Round(float64(n) * testFraction))
	if nTest == 0 || nTest == n {
		return Fold{}, errors.NewValidationError("testFraction",
			fmt.Sprintf("leaves an empty side with %d samples", n), testFraction)
	}

	indices := identity(n)
	if shuffleRows {
		shuffle(indices, seed)
	}
	test := make([]int, nTest)
	copy(test, indices[n-nTest:])
	return complement(test, n), nil
}

func checkSplit(op string, nSamples, nSplits int) error {
	if nSamples == 0 {
		return errors.NewEmptyInputError(op)
	}
	if nSamples < nSplits {
		return errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot exceed the number of samples (%d)", nSamples), nSplits)
	}
	return nil
}

func identity(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func shuffle(indices []int, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}

// complement builds a fold whose train side is every index in [0, n) not in test, in ascending order.
func complement(test []int, n int) Fold {
	inTest := make([]bool, n)
	for _, idx := range test {
		inTest[idx] = true
	}
	train := make([]int, 0, n-len(test))
	for i := 0; i < n; i++ {
		if !inTest[i] {
			train = append(train, i)
		}
	}
	return Fold{TrainIndices: train, TestIndices: test}
}
