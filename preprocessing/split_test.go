package preprocessing

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// syntheticClasses builds an n-sample, 2-feature matrix whose labels follow
// the given per-class counts, classes interleaved so the split cannot rely
// on block ordering.
func syntheticClasses(counts map[float64]int) (*mat.Dense, *mat.VecDense) {
	var labels []float64
	remaining := map[float64]int{}
	for label, n := range counts {
		remaining[label] = n
	}
	for len(remaining) > 0 {
		for label := 0.0; label <= 1; label++ {
			if remaining[label] > 0 {
				labels = append(labels, label)
				remaining[label]--
				if remaining[label] == 0 {
					delete(remaining, label)
				}
			}
		}
	}

	n := len(labels)
	X := mat.NewDense(n, 2, nil)
	for i := range labels {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, labels[i]*10)
	}
	return X, mat.NewVecDense(n, labels)
}

func TestTrainTestSplitSizes(t *testing.T) {
	// 90 samples, 60/30 class balance: 80/20 split gives 72 train, 18 test
	// with per-class proportions preserved.
	X, y := syntheticClasses(map[float64]int{0: 60, 1: 30})

	split, err := TrainTestSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	if got := len(split.TrainIndices); got != 72 {
		t.Errorf("train size = %d, want 72", got)
	}
	if got := len(split.TestIndices); got != 18 {
		t.Errorf("test size = %d, want 18", got)
	}

	testCounts := map[float64]int{}
	for i := 0; i < split.YTest.Len(); i++ {
		testCounts[split.YTest.AtVec(i)]++
	}
	if testCounts[0] != 12 || testCounts[1] != 6 {
		t.Errorf("test class counts = %v, want map[0:12 1:6]", testCounts)
	}
}

func TestTrainTestSplitDisjointCover(t *testing.T) {
	X, y := syntheticClasses(map[float64]int{0: 7, 1: 5})

	split, err := TrainTestSplit(X, y, 0.25, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	seen := map[int]int{}
	for _, idx := range split.TrainIndices {
		seen[idx]++
	}
	for _, idx := range split.TestIndices {
		seen[idx]++
	}
	if len(seen) != 12 {
		t.Errorf("partitions cover %d samples, want 12", len(seen))
	}
	for idx, n := range seen {
		if n != 1 {
			t.Errorf("sample %d appears %d times across partitions", idx, n)
		}
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	X, y := syntheticClasses(map[float64]int{0: 20, 1: 10})

	first, err := TrainTestSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}
	second, err := TrainTestSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	if len(first.TestIndices) != len(second.TestIndices) {
		t.Fatalf("test sizes differ: %d vs %d", len(first.TestIndices), len(second.TestIndices))
	}
	for i := range first.TestIndices {
		if first.TestIndices[i] != second.TestIndices[i] {
			t.Fatalf("test indices differ at %d: %d vs %d", i, first.TestIndices[i], second.TestIndices[i])
		}
	}
}

func TestTrainTestSplitSeedChangesPartition(t *testing.T) {
	X, y := syntheticClasses(map[float64]int{0: 30, 1: 30})

	a, err := TrainTestSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}
	b, err := TrainTestSplit(X, y, 0.2, 7)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	same := len(a.TestIndices) == len(b.TestIndices)
	if same {
		for i := range a.TestIndices {
			if a.TestIndices[i] != b.TestIndices[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different seeds produced identical test partitions")
	}
}

func TestTrainTestSplitRowsFollowIndices(t *testing.T) {
	X, y := syntheticClasses(map[float64]int{0: 6, 1: 4})

	split, err := TrainTestSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	// Feature 0 is the original row index, so each partition row must
	// match the sample it claims to hold.
	for i, idx := range split.TestIndices {
		if got := split.XTest.At(i, 0); got != float64(idx) {
			t.Errorf("XTest row %d = sample %v, want %d", i, got, idx)
		}
		if got := split.YTest.AtVec(i); got != y.AtVec(idx) {
			t.Errorf("YTest row %d = %v, want %v", i, got, y.AtVec(idx))
		}
	}
	for i, idx := range split.TrainIndices {
		if got := split.XTrain.At(i, 0); got != float64(idx) {
			t.Errorf("XTrain row %d = sample %v, want %d", i, got, idx)
		}
	}
}

func TestTrainTestSplitValidation(t *testing.T) {
	X, y := syntheticClasses(map[float64]int{0: 4, 1: 4})

	tests := []struct {
		name     string
		testSize float64
	}{
		{"Zero test size", 0},
		{"Negative test size", -0.1},
		{"Full test size", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TrainTestSplit(X, y, tt.testSize, 42); err == nil {
				t.Errorf("TrainTestSplit(testSize=%v) should fail", tt.testSize)
			}
		})
	}

	if _, err := TrainTestSplit(X, mat.NewVecDense(3, nil), 0.2, 42); err == nil {
		t.Error("TrainTestSplit() with mismatched y length should fail")
	}
}
