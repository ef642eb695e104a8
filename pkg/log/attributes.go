// This file defines standard attribute keys for classifier evaluation logs.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "metrics.roc_auc") so that records from different runs and different
// classifiers can be filtered and compared.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the classifier under evaluation.
	// Examples: "svm-linear", "logistic", "baseline"
	ModelNameKey = "model.name"

	// RunIDKey identifies a single evaluation run (a UUID).
	RunIDKey = "run.id"

	// OperationKey specifies the workflow being performed.
	// Standard values: see the Operation* constants below.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of observations evaluated.
	SamplesKey = "data.samples"

	// PositivesKey indicates the number of observations labelled 1.
	PositivesKey = "data.positives"

	// FeaturesKey indicates the number of features per sample.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey describe a split.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"
)

// Cross-validation Context
const (
	// FoldKey is the zero-based index of the current fold.
	FoldKey = "cv.fold"

	// NSplitsKey is the total number of folds.
	NSplitsKey = "cv.n_splits"
)

// Evaluation Metrics
const (
	AccuracyKey         = "metrics.accuracy"
	MSEKey              = "metrics.mse"
	R2Key               = "metrics.r2"
	ROCAUCKey           = "metrics.roc_auc"
	AveragePrecisionKey = "metrics.average_precision"
	LogLossKey          = "metrics.log_loss"

	// ThresholdKey records the decision threshold used for accuracy.
	ThresholdKey = "preds.threshold"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error and Warning Context
const (
	// ErrorTypeKey is the concrete Go type of the innermost error cause.
	// ErrFmtHandler fills it automatically for records carrying ErrAttr.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values for OperationKey.
const (
	OperationEvaluate      = "evaluate"
	OperationScore         = "score"
	OperationTrainTest     = "train_test"
	OperationCrossValidate = "cross_validate"
	OperationCompare       = "compare"
	OperationRender        = "render"
)
