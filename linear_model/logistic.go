// Package linear_model implements logistic regression for binary
// classification of launch outcomes.
package linear_model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/pkg/errors"
)

// LogisticRegression implements L2-regularized binary logistic regression
// trained by gradient descent.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	c           float64 // Inverse regularization strength (1/lambda)
	solver      string  // "lbfgs" or "liblinear"; liblinear also penalizes the intercept
	maxIter     int     // Maximum iterations
	tol         float64 // Stopping tolerance on the gradient norm
	randomState int64   // Random seed for weight initialization

	// Model parameters
	coef      []float64
	intercept float64
	classes   []float64
	nFeatures int
}

// Option configures a LogisticRegression.
type Option func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		state:       model.NewStateManager(),
		c:           1.0,
		solver:      "lbfgs",
		maxIter:     100,
		tol:         1e-4,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(lr *LogisticRegression) {
		lr.c = c
	}
}

// WithSolver sets the optimization solver name.
func WithSolver(solver string) Option {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithMaxIter sets the maximum number of iterations.
func WithMaxIter(maxIter int) Option {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithTol sets the tolerance for the stopping criterion.
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithRandomState sets the random seed.
func WithRandomState(seed int64) Option {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// Fit trains the model. y must be a column vector of 0/1 labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	lr.classes = extractClasses(y)
	if len(lr.classes) != 2 {
		return errors.NewValueError("LogisticRegression.Fit", "expected exactly two classes")
	}
	lr.nFeatures = nFeatures

	// Deterministic initialization given the seed.
	seed := lr.randomState
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	lr.coef = make([]float64, nFeatures)
	for j := range lr.coef {
		lr.coef[j] = rng.NormFloat64() * 0.01
	}
	lr.intercept = 0

	// Labels remapped to 0/1 against the sorted class order.
	yBinary := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if y.At(i, 0) == lr.classes[1] {
			yBinary[i] = 1
		}
	}

	lambda := 1.0 / lr.c
	baseLearningRate := 1.0
	// liblinear treats the intercept as part of the penalized weight
	// vector; lbfgs leaves it unregularized.
	penalizeIntercept := lr.solver == "liblinear"

	for iter := 0; iter < lr.maxIter; iter++ {
		gradCoef := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef[j]
			}
			residual := sigmoid(z) - yBinary[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradCoef[j] += residual * X.At(i, j)
			}
		}

		for j := range gradCoef {
			gradCoef[j] = gradCoef[j]/float64(nSamples) + lambda*lr.coef[j]
		}
		gradIntercept /= float64(nSamples)
		if penalizeIntercept {
			gradIntercept += lambda * lr.intercept
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.coef {
			lr.coef[j] -= learningRate * gradCoef[j]
		}
		lr.intercept -= learningRate * gradIntercept

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradCoef {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// Predict returns class predictions at the 0.5 probability threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		if proba.At(i, 1) >= 0.5 {
			predictions.Set(i, 0, lr.classes[1])
		} else {
			predictions.Set(i, 0, lr.classes[0])
		}
	}
	return predictions, nil
}

// PredictProba returns probability estimates, class 0 then class 1.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, 2, nil)
	for i := 0; i < nSamples; i++ {
		z := lr.intercept
		for j := 0; j < nFeatures; j++ {
			z += X.At(i, j) * lr.coef[j]
		}
		p := sigmoid(z)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	return scoreAccuracy(lr, X, y)
}

// GetParams returns the model hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":            lr.c,
		"solver":       lr.solver,
		"max_iter":     lr.maxIter,
		"tol":          lr.tol,
		"random_state": lr.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "C":
			v, ok := value.(float64)
			if !ok {
				return errors.NewValidationError(key, "must be a float64", value)
			}
			lr.c = v
		case "solver":
			v, ok := value.(string)
			if !ok || (v != "lbfgs" && v != "liblinear") {
				return errors.NewValidationError(key, "must be 'lbfgs' or 'liblinear'", value)
			}
			lr.solver = v
		case "max_iter":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			lr.maxIter = v
		case "tol":
			v, ok := value.(float64)
			if !ok {
				return errors.NewValidationError(key, "must be a float64", value)
			}
			lr.tol = v
		case "random_state":
			v, ok := value.(int64)
			if !ok {
				return errors.NewValidationError(key, "must be an int64", value)
			}
			lr.randomState = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (lr *LogisticRegression) Clone() model.Classifier {
	return NewLogisticRegression(
		WithC(lr.c),
		WithSolver(lr.solver),
		WithMaxIter(lr.maxIter),
		WithTol(lr.tol),
		WithRandomState(lr.randomState),
	)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func extractClasses(y mat.Matrix) []float64 {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	var classes []float64
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	for i := 0; i < len(classes)-1; i++ {
		for j := i + 1; j < len(classes); j++ {
			if classes[i] > classes[j] {
				classes[i], classes[j] = classes[j], classes[i]
			}
		}
	}
	return classes
}

func scoreAccuracy(p model.Predictor, X, y mat.Matrix) (float64, error) {
	predictions, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}
