// Package tree implements a CART decision tree classifier with gini and
// entropy split criteria.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/pkg/errors"
)

// node is one tree node. Leaves carry the class distribution of their
// training samples.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	leaf      bool
	proba     []float64 // class distribution, indexed like classes
}

// DecisionTreeClassifier is a binary CART classifier.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	splitter        string // "best" or "random"
	maxDepth        int    // 0 means unbounded
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "sqrt" or "all" ("" means "all")
	randomState     int64

	// Fitted state
	root      *node
	classes   []float64
	nFeatures int
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// NewDecisionTreeClassifier creates a new decision tree classifier.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		splitter:        "best",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "",
		randomState:     -1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithCriterion sets the impurity criterion.
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithSplitter sets the split strategy.
func WithSplitter(splitter string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.splitter = splitter
	}
}

// WithMaxDepth limits the tree depth. Zero means unbounded.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum samples required in a leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the feature subsampling mode: "sqrt" or "all".
func WithMaxFeatures(mode string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = mode
	}
}

// WithRandomState sets the random seed used by the random splitter and
// feature subsampling.
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}

// Fit grows the tree from X and the column vector y.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "y must be a column vector")
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be 'gini' or 'entropy'", dt.criterion)
	}
	if dt.splitter != "best" && dt.splitter != "random" {
		return errors.NewValidationError("splitter", "must be 'best' or 'random'", dt.splitter)
	}

	dt.nFeatures = nFeatures
	dt.classes = classesOf(y)

	seed := dt.randomState
	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	idx := make([]int, nSamples)
	for i := range idx {
		idx[i] = i
	}
	dt.root = dt.build(X, y, idx, 0, rng)

	dt.state.SetDimensions(nFeatures, nSamples)
	dt.state.SetFitted()
	return nil
}

func (dt *DecisionTreeClassifier) build(X, y mat.Matrix, idx []int, depth int, rng *rand.Rand) *node {
	dist := dt.classDistribution(y, idx)

	if len(idx) < dt.minSamplesSplit ||
		(dt.maxDepth > 0 && depth >= dt.maxDepth) ||
		isPure(dist) {
		return &node{leaf: true, proba: dist}
	}

	feature, threshold, ok := dt.findSplit(X, y, idx, rng)
	if !ok {
		return &node{leaf: true, proba: dist}
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X.At(i, feature) <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < dt.minSamplesLeaf || len(rightIdx) < dt.minSamplesLeaf {
		return &node{leaf: true, proba: dist}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      dt.build(X, y, leftIdx, depth+1, rng),
		right:     dt.build(X, y, rightIdx, depth+1, rng),
	}
}

// findSplit searches candidate (feature, threshold) pairs for the lowest
// weighted child impurity. The random splitter draws one threshold per
// feature instead of scanning all midpoints.
func (dt *DecisionTreeClassifier) findSplit(X, y mat.Matrix, idx []int, rng *rand.Rand) (int, float64, bool) {
	features := dt.candidateFeatures(rng)

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := math.MaxFloat64

	for _, f := range features {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, X.At(i, f))
		}
		sort.Float64s(values)

		var thresholds []float64
		if dt.splitter == "random" {
			lo, hi := values[0], values[len(values)-1]
			if lo == hi {
				continue
			}
			thresholds = []float64{lo + rng.Float64()*(hi-lo)}
		} else {
			for i := 1; i < len(values); i++ {
				if values[i] != values[i-1] {
					thresholds = append(thresholds, (values[i]+values[i-1])/2)
				}
			}
		}

		for _, thr := range thresholds {
			imp, ok := dt.splitImpurity(X, y, idx, f, thr)
			if ok && imp < bestImpurity {
				bestImpurity = imp
				bestFeature = f
				bestThreshold = thr
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (dt *DecisionTreeClassifier) candidateFeatures(rng *rand.Rand) []int {
	all := make([]int, dt.nFeatures)
	for i := range all {
		all[i] = i
	}
	if dt.maxFeatures != "sqrt" || dt.nFeatures <= 1 {
		return all
	}

	k := int(math.Ceil(math.Sqrt(float64(dt.nFeatures))))
	rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	subset := all[:k]
	sort.Ints(subset)
	return subset
}

func (dt *DecisionTreeClassifier) splitImpurity(X, y mat.Matrix, idx []int, feature int, threshold float64) (float64, bool) {
	var left, right []int
	for _, i := range idx {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return 0, false
	}

	total := float64(len(idx))
	impL := dt.impurity(dt.classDistribution(y, left))
	impR := dt.impurity(dt.classDistribution(y, right))
	return float64(len(left))/total*impL + float64(len(right))/total*impR, true
}

func (dt *DecisionTreeClassifier) impurity(dist []float64) float64 {
	if dt.criterion == "entropy" {
		h := 0.0
		for _, p := range dist {
			if p > 0 {
				h -= p * math.Log2(p)
			}
		}
		return h
	}

	g := 1.0
	for _, p := range dist {
		g -= p * p
	}
	return g
}

func (dt *DecisionTreeClassifier) classDistribution(y mat.Matrix, idx []int) []float64 {
	dist := make([]float64, len(dt.classes))
	for _, i := range idx {
		v := y.At(i, 0)
		for c, class := range dt.classes {
			if v == class {
				dist[c]++
				break
			}
		}
	}
	for c := range dist {
		dist[c] /= float64(len(idx))
	}
	return dist
}

func isPure(dist []float64) bool {
	for _, p := range dist {
		if p == 1 {
			return true
		}
	}
	return false
}

// Predict returns the majority class of the reached leaf for each sample.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best, bestP := 0, proba.At(i, 0)
		for c := 1; c < len(dt.classes); c++ {
			if proba.At(i, c) > bestP {
				best, bestP = c, proba.At(i, c)
			}
		}
		predictions.Set(i, 0, dt.classes[best])
	}
	return predictions, nil
}

// PredictProba returns leaf class proportions, one column per class.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != dt.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures, nFeatures, 1)
	}

	probas := mat.NewDense(nSamples, len(dt.classes), nil)
	for i := 0; i < nSamples; i++ {
		n := dt.root
		for !n.leaf {
			if X.At(i, n.feature) <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		for c := range dt.classes {
			probas.Set(i, c, n.proba[c])
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := dt.Predict(X)
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
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"splitter":          dt.splitter,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			v, ok := value.(string)
			if !ok || (v != "gini" && v != "entropy") {
				return errors.NewValidationError(key, "must be 'gini' or 'entropy'", value)
			}
			dt.criterion = v
		case "splitter":
			v, ok := value.(string)
			if !ok || (v != "best" && v != "random") {
				return errors.NewValidationError(key, "must be 'best' or 'random'", value)
			}
			dt.splitter = v
		case "max_depth":
			v, ok := value.(int)
			if !ok || v < 0 {
				return errors.NewValidationError(key, "must be a non-negative int", value)
			}
			dt.maxDepth = v
		case "min_samples_split":
			v, ok := value.(int)
			if !ok || v < 2 {
				return errors.NewValidationError(key, "must be an int >= 2", value)
			}
			dt.minSamplesSplit = v
		case "min_samples_leaf":
			v, ok := value.(int)
			if !ok || v < 1 {
				return errors.NewValidationError(key, "must be an int >= 1", value)
			}
			dt.minSamplesLeaf = v
		case "max_features":
			v, ok := value.(string)
			if !ok || (v != "sqrt" && v != "all" && v != "") {
				return errors.NewValidationError(key, "must be 'sqrt' or 'all'", value)
			}
			dt.maxFeatures = v
		case "random_state":
			v, ok := value.(int64)
			if !ok {
				return errors.NewValidationError(key, "must be an int64", value)
			}
			dt.randomState = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (dt *DecisionTreeClassifier) Clone() model.Classifier {
	return NewDecisionTreeClassifier(
		WithCriterion(dt.criterion),
		WithSplitter(dt.splitter),
		WithMaxDepth(dt.maxDepth),
		WithMinSamplesSplit(dt.minSamplesSplit),
		WithMinSamplesLeaf(dt.minSamplesLeaf),
		WithMaxFeatures(dt.maxFeatures),
		WithRandomState(dt.randomState),
	)
}

func classesOf(y mat.Matrix) []float64 {
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
	sort.Float64s(classes)
	return classes
}
