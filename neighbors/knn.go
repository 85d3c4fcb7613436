// Package neighbors implements a k-nearest-neighbors classifier with
// Minkowski distances and uniform or distance-based vote weighting.
package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/pkg/errors"
)

// KNeighborsClassifier predicts by majority vote among the k nearest
// training samples. The algorithm parameter is accepted for configuration
// parity but every variant dispatches to the brute-force search, which is
// exact and fast at the sample counts this pipeline handles.
type KNeighborsClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nNeighbors int
	weights    string // "uniform" or "distance"
	algorithm  string // "auto", "ball_tree", "kd_tree"
	p          int    // Minkowski exponent: 1 = manhattan, 2 = euclidean

	// Fitted state
	trainX    *mat.Dense
	trainY    []float64
	classes   []float64
	nFeatures int
}

// Option configures a KNeighborsClassifier.
type Option func(*KNeighborsClassifier)

// NewKNeighborsClassifier creates a new k-nearest-neighbors classifier.
func NewKNeighborsClassifier(opts ...Option) *KNeighborsClassifier {
	knn := &KNeighborsClassifier{
		state:      model.NewStateManager(),
		nNeighbors: 5,
		weights:    "uniform",
		algorithm:  "auto",
		p:          2,
	}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// WithNNeighbors sets the number of neighbors.
func WithNNeighbors(k int) Option {
	return func(knn *KNeighborsClassifier) {
		knn.nNeighbors = k
	}
}

// WithWeights sets the vote weighting mode.
func WithWeights(weights string) Option {
	return func(knn *KNeighborsClassifier) {
		knn.weights = weights
	}
}

// WithAlgorithm sets the neighbor search algorithm name.
func WithAlgorithm(algorithm string) Option {
	return func(knn *KNeighborsClassifier) {
		knn.algorithm = algorithm
	}
}

// WithP sets the Minkowski distance exponent.
func WithP(p int) Option {
	return func(knn *KNeighborsClassifier) {
		knn.p = p
	}
}

// Fit stores the training data.
func (knn *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("KNeighborsClassifier.Fit", "y must be a column vector")
	}
	if knn.nNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be >= 1", knn.nNeighbors)
	}
	if knn.nNeighbors > nSamples {
		return errors.NewValidationError("n_neighbors", "cannot exceed the number of training samples", knn.nNeighbors)
	}

	knn.trainX = mat.DenseCopyOf(X)
	knn.trainY = make([]float64, nSamples)
	seen := make(map[float64]bool)
	knn.classes = knn.classes[:0]
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		knn.trainY[i] = v
		if !seen[v] {
			seen[v] = true
			knn.classes = append(knn.classes, v)
		}
	}
	sort.Float64s(knn.classes)
	knn.nFeatures = nFeatures

	knn.state.SetDimensions(nFeatures, nSamples)
	knn.state.SetFitted()
	return nil
}

type neighbor struct {
	index    int
	distance float64
}

// nearest returns the k nearest training samples to x, ties broken by
// training index so results are deterministic.
func (knn *KNeighborsClassifier) nearest(x []float64) []neighbor {
	n, _ := knn.trainX.Dims()
	all := make([]neighbor, n)
	for i := 0; i < n; i++ {
		all[i] = neighbor{index: i, distance: knn.minkowski(knn.trainX.RawRowView(i), x)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].distance != all[j].distance {
			return all[i].distance < all[j].distance
		}
		return all[i].index < all[j].index
	})
	return all[:knn.nNeighbors]
}

func (knn *KNeighborsClassifier) minkowski(a, b []float64) float64 {
	if knn.p == 1 {
		sum := 0.0
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Predict returns the weighted majority class among the nearest neighbors.
func (knn *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best, bestP := 0, proba.At(i, 0)
		for c := 1; c < len(knn.classes); c++ {
			if proba.At(i, c) > bestP {
				best, bestP = c, proba.At(i, c)
			}
		}
		predictions.Set(i, 0, knn.classes[best])
	}
	return predictions, nil
}

// PredictProba returns neighbor vote shares per class. With distance
// weighting, votes are weighted by inverse distance; an exact hit on a
// training sample yields probability 1 for that sample's class.
func (knn *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !knn.state.IsFitted() {
		return nil, errors.NewNotFittedError("KNeighborsClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != knn.nFeatures {
		return nil, errors.NewDimensionError("KNeighborsClassifier.PredictProba", knn.nFeatures, nFeatures, 1)
	}

	classIdx := make(map[float64]int, len(knn.classes))
	for i, c := range knn.classes {
		classIdx[c] = i
	}

	probas := mat.NewDense(nSamples, len(knn.classes), nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}

		votes := make([]float64, len(knn.classes))
		nn := knn.nearest(row)

		if knn.weights == "distance" {
			exact := false
			for _, nb := range nn {
				if nb.distance == 0 {
					votes[classIdx[knn.trainY[nb.index]]]++
					exact = true
				}
			}
			if !exact {
				for _, nb := range nn {
					votes[classIdx[knn.trainY[nb.index]]] += 1 / nb.distance
				}
			}
		} else {
			for _, nb := range nn {
				votes[classIdx[knn.trainY[nb.index]]]++
			}
		}

		total := 0.0
		for _, v := range votes {
			total += v
		}
		for c := range votes {
			probas.Set(i, c, votes[c]/total)
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (knn *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := knn.Predict(X)
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

// GetParams returns the model hyperparameters.
func (knn *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": knn.nNeighbors,
		"weights":     knn.weights,
		"algorithm":   knn.algorithm,
		"p":           knn.p,
	}
}

// SetParams sets the model hyperparameters.
func (knn *KNeighborsClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_neighbors":
			v, ok := value.(int)
			if !ok || v < 1 {
				return errors.NewValidationError(key, "must be an int >= 1", value)
			}
			knn.nNeighbors = v
		case "weights":
			v, ok := value.(string)
			if !ok || (v != "uniform" && v != "distance") {
				return errors.NewValidationError(key, "must be 'uniform' or 'distance'", value)
			}
			knn.weights = v
		case "algorithm":
			v, ok := value.(string)
			if !ok || (v != "auto" && v != "ball_tree" && v != "kd_tree") {
				return errors.NewValidationError(key, "must be 'auto', 'ball_tree' or 'kd_tree'", value)
			}
			knn.algorithm = v
		case "p":
			v, ok := value.(int)
			if !ok || (v != 1 && v != 2) {
				return errors.NewValidationError(key, "must be 1 or 2", value)
			}
			knn.p = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (knn *KNeighborsClassifier) Clone() model.Classifier {
	return NewKNeighborsClassifier(
		WithNNeighbors(knn.nNeighbors),
		WithWeights(knn.weights),
		WithAlgorithm(knn.algorithm),
		WithP(knn.p),
	)
}
