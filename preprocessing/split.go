package preprocessing

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/pkg/errors"
)

// Split holds the two disjoint partitions produced by TrainTestSplit.
// Together the partitions cover the full sample set.
type Split struct {
	XTrain *mat.Dense
	XTest  *mat.Dense
	YTrain *mat.VecDense
	YTest  *mat.VecDense

	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit performs a single stratified random split. Samples are
// grouped by class, shuffled within each class with the given seed, and
// assigned to the test partition so that each class keeps the overall
// class ratio within integer rounding. The same seed and input order always
// produce the same partition membership.
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testSize float64, seed int64) (*Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}
	if y.Len() != nSamples {
		return nil, errors.NewDimensionError("TrainTestSplit", nSamples, y.Len(), 0)
	}

	// Group sample indices by class, classes in ascending order so the
	// assignment is independent of map iteration order.
	classIndices := make(map[float64][]int)
	var classes []float64
	for i := 0; i < nSamples; i++ {
		label := y.AtVec(i)
		if _, ok := classIndices[label]; !ok {
			classes = append(classes, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}
	sort.Float64s(classes)

	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	for _, label := range classes {
		indices := classIndices[label]
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	// Per-class test counts: floor of the proportional share, then the
	// largest fractional remainders pick up the slack until the overall
	// rounded test size is reached.
	targetTest := int(math.Round(float64(nSamples) * testSize))
	type classShare struct {
		label float64
		count int
		frac  float64
	}
	shares := make([]classShare, len(classes))
	assigned := 0
	for i, label := range classes {
		exact := float64(len(classIndices[label])) * testSize
		count := int(math.Floor(exact))
		shares[i] = classShare{label: label, count: count, frac: exact - float64(count)}
		assigned += count
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].frac > shares[j].frac
	})
	for i := 0; assigned < targetTest && i < len(shares); i++ {
		if shares[i].count < len(classIndices[shares[i].label]) {
			shares[i].count++
			assigned++
		}
	}

	testCounts := make(map[float64]int, len(shares))
	for _, s := range shares {
		testCounts[s.label] = s.count
	}

	var trainIdx, testIdx []int
	for _, label := range classes {
		indices := classIndices[label]
		nTest := testCounts[label]
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	return &Split{
		XTrain:       subsetMatrix(X, trainIdx, nFeatures),
		XTest:        subsetMatrix(X, testIdx, nFeatures),
		YTrain:       subsetVector(y, trainIdx),
		YTest:        subsetVector(y, testIdx),
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}, nil
}

func subsetMatrix(X mat.Matrix, indices []int, nFeatures int) *mat.Dense {
	out := mat.NewDense(len(indices), nFeatures, nil)
	for i, idx := range indices {
		for j := 0; j < nFeatures; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

func subsetVector(y *mat.VecDense, indices []int) *mat.VecDense {
	out := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		out.SetVec(i, y.AtVec(idx))
	}
	return out
}
