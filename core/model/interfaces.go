package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for trainable models.
type Fitter interface {
	// Fit trains the model on X and y.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that produce class predictions.
type Predictor interface {
	// Predict returns predictions for the input data.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute an accuracy score.
type Scorer interface {
	// Score returns the mean accuracy on the given test data and labels.
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier is the contract each model family implements. The grid search
// clones classifiers through Clone, applies hyperparameter configurations
// through SetParams, and refits via Fit.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}

	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error

	// Clone returns an unfitted copy carrying the same hyperparameters.
	Clone() Classifier
}

// ProbabilityEstimator is an optional capability. Families implementing it
// supply class probability estimates; the evaluator uses them for ROC-AUC
// and log-loss. Families without it have those metrics reported as N/A.
type ProbabilityEstimator interface {
	// PredictProba returns probability estimates, one column per class,
	// columns ordered by ascending class label.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// DecisionScorer is an optional capability for families that expose a raw
// per-sample decision score instead of probabilities. Larger scores favor
// the higher class label, which is enough for rank-based metrics such as
// ROC-AUC; the scores are not probabilities, so log-loss stays undefined.
type DecisionScorer interface {
	// DecisionFunction returns one score per input sample.
	DecisionFunction(X mat.Matrix) (*mat.VecDense, error)
}
