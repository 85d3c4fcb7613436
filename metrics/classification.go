// Package metrics implements the classification metrics used to score and
// compare the trained models.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/pkg/errors"
)

// Accuracy computes the fraction of exact label matches.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair(yTrue, yPred, "Accuracy")
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError computes the fraction of mismatched labels.
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AUC computes the area under the ROC curve from class-1 probability
// scores using the pairwise ranking formulation. Tied scores count half.
// When only one class is present the area is undefined and 0.5 is
// returned, mirroring the random-classifier baseline.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair(yTrue, yScore, "AUC")
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels(yTrue, "AUC"); err != nil {
		return 0, err
	}

	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) != 1 {
			continue
		}
		for j := 0; j < n; j++ {
			if yTrue.AtVec(j) != 0 {
				continue
			}
			switch {
			case yScore.AtVec(i) > yScore.AtVec(j):
				sum += 1.0
			case yScore.AtVec(i) == yScore.AtVec(j):
				sum += 0.5
			}
		}
	}
	return sum / float64(nPos*nNeg), nil
}

// AUCMatrix computes AUC from matrix inputs, using the first column of each.
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	t, err := firstColumn(yTrue, "AUCMatrix")
	if err != nil {
		return 0, err
	}
	s, err := firstColumn(yScore, "AUCMatrix")
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

// BinaryLogLoss computes the negative log-likelihood of binary labels under
// predicted class-1 probabilities. Probabilities are clipped to
// [eps, 1-eps] to avoid log(0).
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair(yTrue, yProb, "BinaryLogLoss")
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels(yTrue, "BinaryLogLoss"); err != nil {
		return 0, err
	}

	const eps = 1e-15
	loss := 0.0
	for i := 0; i < n; i++ {
		p := yProb.AtVec(i)
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		if yTrue.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// Confusion holds a confusion matrix over the classes observed in the true
// and predicted labels. Counts[i][j] is the number of samples with true
// class Classes[i] predicted as Classes[j].
type Confusion struct {
	Classes []float64
	Counts  [][]int
}

// IsBinary reports whether the matrix is exactly 2x2.
func (c *Confusion) IsBinary() bool {
	return len(c.Classes) == 2
}

// Binary returns the TN, FP, FN, TP counts. Valid only when IsBinary; the
// class ordering follows ascending labels so Classes[0] is the negative
// class.
func (c *Confusion) Binary() (tn, fp, fn, tp int) {
	return c.Counts[0][0], c.Counts[0][1], c.Counts[1][0], c.Counts[1][1]
}

// Total returns the number of samples counted.
func (c *Confusion) Total() int {
	total := 0
	for _, row := range c.Counts {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// ConfusionMatrix builds the confusion matrix over the union of classes
// observed in yTrue and yPred, ordered by ascending label.
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (*Confusion, error) {
	n, err := checkPair(yTrue, yPred, "ConfusionMatrix")
	if err != nil {
		return nil, err
	}

	seen := make(map[float64]bool)
	var classes []float64
	for i := 0; i < n; i++ {
		for _, v := range []float64{yTrue.AtVec(i), yPred.AtVec(i)} {
			if !seen[v] {
				seen[v] = true
				classes = append(classes, v)
			}
		}
	}
	sort.Float64s(classes)

	classIdx := make(map[float64]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	for i := 0; i < n; i++ {
		counts[classIdx[yTrue.AtVec(i)]][classIdx[yPred.AtVec(i)]]++
	}

	return &Confusion{Classes: classes, Counts: counts}, nil
}

// Specificity computes the true-negative rate TN/(TN+FP) from a binary
// confusion matrix. Undefined for non-binary matrices or when no negatives
// exist; the second return value reports definedness.
func Specificity(c *Confusion) (float64, bool) {
	if !c.IsBinary() {
		return 0, false
	}
	tn, fp, _, _ := c.Binary()
	if tn+fp == 0 {
		return 0, false
	}
	return float64(tn) / float64(tn+fp), true
}

// Sensitivity computes the true-positive rate TP/(TP+FN) from a binary
// confusion matrix. The second return value is false for non-binary
// matrices, where the caller falls back to recall.
func Sensitivity(c *Confusion) (float64, bool) {
	if !c.IsBinary() {
		return 0, false
	}
	_, _, fn, tp := c.Binary()
	if tp+fn == 0 {
		return 0, false
	}
	return float64(tp) / float64(tp+fn), true
}

// PrecisionWeighted computes precision averaged over classes, weighted by
// class frequency in yTrue. Classes with no predicted samples contribute 0.
func PrecisionWeighted(yTrue, yPred *mat.VecDense) (float64, error) {
	return weightedScore(yTrue, yPred, "PrecisionWeighted", precisionFor)
}

// RecallWeighted computes recall averaged over classes, weighted by class
// frequency in yTrue. Classes with no true samples contribute 0.
func RecallWeighted(yTrue, yPred *mat.VecDense) (float64, error) {
	return weightedScore(yTrue, yPred, "RecallWeighted", recallFor)
}

// F1Weighted computes the F1 score averaged over classes, weighted by class
// frequency in yTrue. Zero division yields 0 for the affected class.
func F1Weighted(yTrue, yPred *mat.VecDense) (float64, error) {
	return weightedScore(yTrue, yPred, "F1Weighted", func(yTrue, yPred *mat.VecDense, class float64) float64 {
		p := precisionFor(yTrue, yPred, class)
		r := recallFor(yTrue, yPred, class)
		if p+r == 0 {
			return 0
		}
		return 2 * p * r / (p + r)
	})
}

func weightedScore(yTrue, yPred *mat.VecDense, op string, perClass func(yTrue, yPred *mat.VecDense, class float64) float64) (float64, error) {
	n, err := checkPair(yTrue, yPred, op)
	if err != nil {
		return 0, err
	}

	support := make(map[float64]int)
	var classes []float64
	for i := 0; i < n; i++ {
		v := yTrue.AtVec(i)
		if support[v] == 0 {
			classes = append(classes, v)
		}
		support[v]++
	}
	sort.Float64s(classes)

	score := 0.0
	for _, class := range classes {
		weight := float64(support[class]) / float64(n)
		score += weight * perClass(yTrue, yPred, class)
	}
	return score, nil
}

func precisionFor(yTrue, yPred *mat.VecDense, class float64) float64 {
	tp, predicted := 0, 0
	for i := 0; i < yTrue.Len(); i++ {
		if yPred.AtVec(i) == class {
			predicted++
			if yTrue.AtVec(i) == class {
				tp++
			}
		}
	}
	if predicted == 0 {
		return 0
	}
	return float64(tp) / float64(predicted)
}

func recallFor(yTrue, yPred *mat.VecDense, class float64) float64 {
	tp, actual := 0, 0
	for i := 0; i < yTrue.Len(); i++ {
		if yTrue.AtVec(i) == class {
			actual++
			if yPred.AtVec(i) == class {
				tp++
			}
		}
	}
	if actual == 0 {
		return 0
	}
	return float64(tp) / float64(actual)
}

func checkPair(yTrue, yPred *mat.VecDense, op string) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkBinaryLabels(yTrue *mat.VecDense, op string) error {
	for i := 0; i < yTrue.Len(); i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

func firstColumn(m mat.Matrix, op string) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}
