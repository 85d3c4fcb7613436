// Package svm implements a support vector classifier with linear and RBF
// kernels, trained with a simplified SMO procedure. The classifier exposes
// its raw decision margins through DecisionFunction, which supports
// rank-based metrics such as ROC-AUC; probability calibration is not
// implemented, so log-loss is reported as N/A for this family.
package svm

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/pkg/errors"
)

// SVC is a binary support vector classifier.
type SVC struct {
	state *model.StateManager

	// Hyperparameters
	c           float64 // Regularization strength
	kernel      string  // "linear" or "rbf"
	gamma       string  // "scale" or "auto"
	tol         float64 // KKT violation tolerance
	maxPasses   int     // Passes over the data without alpha changes before stopping
	randomState int64

	// Fitted state
	supportX   *mat.Dense // Training samples (all retained; alphas select the support vectors)
	alphas     []float64
	targets    []float64 // Labels remapped to -1/+1
	b          float64
	gammaValue float64
	classes    []float64
	nFeatures  int
}

// Option configures an SVC.
type Option func(*SVC)

// NewSVC creates a new support vector classifier.
func NewSVC(opts ...Option) *SVC {
	s := &SVC{
		state:       model.NewStateManager(),
		c:           1.0,
		kernel:      "rbf",
		gamma:       "scale",
		tol:         1e-3,
		maxPasses:   5,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithC sets the regularization strength.
func WithC(c float64) Option {
	return func(s *SVC) {
		s.c = c
	}
}

// WithKernel sets the kernel function name.
func WithKernel(kernel string) Option {
	return func(s *SVC) {
		s.kernel = kernel
	}
}

// WithGamma sets the RBF kernel coefficient mode.
func WithGamma(gamma string) Option {
	return func(s *SVC) {
		s.gamma = gamma
	}
}

// WithRandomState sets the random seed used by SMO working-set selection.
func WithRandomState(seed int64) Option {
	return func(s *SVC) {
		s.randomState = seed
	}
}

// Fit trains the classifier with simplified SMO.
func (s *SVC) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("SVC.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("SVC.Fit", "y must be a column vector")
	}
	if s.kernel != "linear" && s.kernel != "rbf" {
		return errors.NewValidationError("kernel", "must be 'linear' or 'rbf'", s.kernel)
	}

	s.classes = uniqueSorted(y)
	if len(s.classes) != 2 {
		return errors.NewValueError("SVC.Fit", "expected exactly two classes")
	}
	s.nFeatures = nFeatures

	s.supportX = mat.DenseCopyOf(X)
	s.targets = make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if y.At(i, 0) == s.classes[1] {
			s.targets[i] = 1
		} else {
			s.targets[i] = -1
		}
	}

	s.gammaValue = s.resolveGamma(X)

	seed := s.randomState
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	s.alphas = make([]float64, nSamples)
	s.b = 0

	// Simplified SMO: sweep sample pairs until a full pass makes no
	// progress maxPasses times in a row.
	passes := 0
	for passes < s.maxPasses {
		numChanged := 0
		for i := 0; i < nSamples; i++ {
			ei := s.decision(s.supportX.RawRowView(i)) - s.targets[i]
			if (s.targets[i]*ei < -s.tol && s.alphas[i] < s.c) ||
				(s.targets[i]*ei > s.tol && s.alphas[i] > 0) {

				j := rng.Intn(nSamples - 1)
				if j >= i {
					j++
				}
				if s.optimizePair(i, j, ei) {
					numChanged++
				}
			}
		}
		if numChanged == 0 {
			passes++
		} else {
			passes = 0
		}
	}

	s.state.SetDimensions(nFeatures, nSamples)
	s.state.SetFitted()
	return nil
}

func (s *SVC) optimizePair(i, j int, ei float64) bool {
	ej := s.decision(s.supportX.RawRowView(j)) - s.targets[j]

	alphaIOld, alphaJOld := s.alphas[i], s.alphas[j]

	var low, high float64
	if s.targets[i] != s.targets[j] {
		low = math.Max(0, alphaJOld-alphaIOld)
		high = math.Min(s.c, s.c+alphaJOld-alphaIOld)
	} else {
		low = math.Max(0, alphaIOld+alphaJOld-s.c)
		high = math.Min(s.c, alphaIOld+alphaJOld)
	}
	if low == high {
		return false
	}

	kii := s.kernelFunc(s.supportX.RawRowView(i), s.supportX.RawRowView(i))
	kjj := s.kernelFunc(s.supportX.RawRowView(j), s.supportX.RawRowView(j))
	kij := s.kernelFunc(s.supportX.RawRowView(i), s.supportX.RawRowView(j))
	eta := 2*kij - kii - kjj
	if eta >= 0 {
		return false
	}

	alphaJ := alphaJOld - s.targets[j]*(ei-ej)/eta
	if alphaJ > high {
		alphaJ = high
	} else if alphaJ < low {
		alphaJ = low
	}
	if math.Abs(alphaJ-alphaJOld) < 1e-5 {
		return false
	}

	alphaI := alphaIOld + s.targets[i]*s.targets[j]*(alphaJOld-alphaJ)

	b1 := s.b - ei - s.targets[i]*(alphaI-alphaIOld)*kii - s.targets[j]*(alphaJ-alphaJOld)*kij
	b2 := s.b - ej - s.targets[i]*(alphaI-alphaIOld)*kij - s.targets[j]*(alphaJ-alphaJOld)*kjj

	s.alphas[i], s.alphas[j] = alphaI, alphaJ
	switch {
	case alphaI > 0 && alphaI < s.c:
		s.b = b1
	case alphaJ > 0 && alphaJ < s.c:
		s.b = b2
	default:
		s.b = (b1 + b2) / 2
	}
	return true
}

// decision evaluates the raw decision function for one sample.
func (s *SVC) decision(x []float64) float64 {
	sum := s.b
	n, _ := s.supportX.Dims()
	for i := 0; i < n; i++ {
		if s.alphas[i] == 0 {
			continue
		}
		sum += s.alphas[i] * s.targets[i] * s.kernelFunc(s.supportX.RawRowView(i), x)
	}
	return sum
}

func (s *SVC) kernelFunc(a, b []float64) float64 {
	switch s.kernel {
	case "rbf":
		sq := 0.0
		for k := range a {
			d := a[k] - b[k]
			sq += d * d
		}
		return math.Exp(-s.gammaValue * sq)
	default: // linear
		dot := 0.0
		for k := range a {
			dot += a[k] * b[k]
		}
		return dot
	}
}

// resolveGamma maps the gamma mode to a value: "scale" is
// 1/(n_features * Var(X)), "auto" is 1/n_features.
func (s *SVC) resolveGamma(X mat.Matrix) float64 {
	r, c := X.Dims()
	if s.gamma == "auto" {
		return 1.0 / float64(c)
	}

	mean := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			mean += X.At(i, j)
		}
	}
	mean /= float64(r * c)

	variance := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := X.At(i, j) - mean
			variance += d * d
		}
	}
	variance /= float64(r * c)
	if variance < 1e-12 {
		variance = 1.0
	}
	return 1.0 / (float64(c) * variance)
}

// Predict returns class predictions from the sign of the decision function.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SVC", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != s.nFeatures {
		return nil, errors.NewDimensionError("SVC.Predict", s.nFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}
		if s.decision(row) >= 0 {
			predictions.Set(i, 0, s.classes[1])
		} else {
			predictions.Set(i, 0, s.classes[0])
		}
	}
	return predictions, nil
}

// DecisionFunction returns the signed margin of each sample. Positive
// margins favor the higher class label. Margins rank samples for ROC-AUC
// but are not probabilities.
func (s *SVC) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SVC", "DecisionFunction")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != s.nFeatures {
		return nil, errors.NewDimensionError("SVC.DecisionFunction", s.nFeatures, nFeatures, 1)
	}

	scores := mat.NewVecDense(nSamples, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}
		scores.SetVec(i, s.decision(row))
	}
	return scores, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (s *SVC) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := s.Predict(X)
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
func (s *SVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":            s.c,
		"kernel":       s.kernel,
		"gamma":        s.gamma,
		"tol":          s.tol,
		"random_state": s.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (s *SVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "C":
			v, ok := value.(float64)
			if !ok {
				return errors.NewValidationError(key, "must be a float64", value)
			}
			s.c = v
		case "kernel":
			v, ok := value.(string)
			if !ok || (v != "linear" && v != "rbf") {
				return errors.NewValidationError(key, "must be 'linear' or 'rbf'", value)
			}
			s.kernel = v
		case "gamma":
			v, ok := value.(string)
			if !ok || (v != "scale" && v != "auto") {
				return errors.NewValidationError(key, "must be 'scale' or 'auto'", value)
			}
			s.gamma = v
		case "tol":
			v, ok := value.(float64)
			if !ok {
				return errors.NewValidationError(key, "must be a float64", value)
			}
			s.tol = v
		case "random_state":
			v, ok := value.(int64)
			if !ok {
				return errors.NewValidationError(key, "must be an int64", value)
			}
			s.randomState = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (s *SVC) Clone() model.Classifier {
	return NewSVC(
		WithC(s.c),
		WithKernel(s.kernel),
		WithGamma(s.gamma),
		WithRandomState(s.randomState),
	)
}

func uniqueSorted(y mat.Matrix) []float64 {
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
