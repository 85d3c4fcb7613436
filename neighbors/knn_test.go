package neighbors

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/pkg/errors"
)

func clusterData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.0,
		0.0, 1.0,
		1.0, 0.0,
		1.0, 1.0,
		5.0, 5.0,
		5.0, 6.0,
		6.0, 5.0,
		6.0, 6.0,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestKNNFitPredict(t *testing.T) {
	X, y := clusterData()

	for _, p := range []int{1, 2} {
		for _, weights := range []string{"uniform", "distance"} {
			knn := NewKNeighborsClassifier(
				WithNNeighbors(3),
				WithWeights(weights),
				WithP(p),
			)
			if err := knn.Fit(X, y); err != nil {
				t.Fatalf("Fit(p=%d, weights=%s) error = %v", p, weights, err)
			}

			preds, err := knn.Predict(mat.NewDense(2, 2, []float64{
				0.5, 0.5,
				5.5, 5.5,
			}))
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if preds.At(0, 0) != 0 {
				t.Errorf("p=%d weights=%s: point (0.5,0.5) predicted %v, want 0", p, weights, preds.At(0, 0))
			}
			if preds.At(1, 0) != 1 {
				t.Errorf("p=%d weights=%s: point (5.5,5.5) predicted %v, want 1", p, weights, preds.At(1, 0))
			}
		}
	}
}

func TestKNNExactHitDistanceWeighting(t *testing.T) {
	X, y := clusterData()

	knn := NewKNeighborsClassifier(WithNNeighbors(5), WithWeights("distance"))
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Querying a training point exactly must give probability 1 for its
	// class instead of dividing by a zero distance.
	probas, err := knn.PredictProba(mat.NewDense(1, 2, []float64{5.0, 5.0}))
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	if got := probas.At(0, 1); got != 1.0 {
		t.Errorf("PredictProba() class-1 share = %v, want 1.0 for an exact hit", got)
	}
}

func TestKNNProbasSumToOne(t *testing.T) {
	X, y := clusterData()

	knn := NewKNeighborsClassifier(WithNNeighbors(3))
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	probas, err := knn.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	rows, cols := probas.Dims()
	if rows != 8 || cols != 2 {
		t.Fatalf("PredictProba() shape = (%d, %d), want (8, 2)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += probas.At(i, j)
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("probabilities for sample %d sum to %v, want 1", i, sum)
		}
	}
}

func TestKNNAlgorithmVariantsAgree(t *testing.T) {
	X, y := clusterData()

	var reference mat.Matrix
	for _, algorithm := range []string{"auto", "ball_tree", "kd_tree"} {
		knn := NewKNeighborsClassifier(WithNNeighbors(3), WithAlgorithm(algorithm))
		if err := knn.Fit(X, y); err != nil {
			t.Fatalf("Fit(algorithm=%s) error = %v", algorithm, err)
		}
		preds, err := knn.Predict(X)
		if err != nil {
			t.Fatalf("Predict(algorithm=%s) error = %v", algorithm, err)
		}
		if reference == nil {
			reference = preds
			continue
		}
		if !mat.Equal(reference, preds) {
			t.Errorf("algorithm %s disagrees with the reference predictions", algorithm)
		}
	}
}

func TestKNNValidation(t *testing.T) {
	X, y := clusterData()

	if err := NewKNeighborsClassifier(WithNNeighbors(0)).Fit(X, y); err == nil {
		t.Error("Fit() with n_neighbors=0 should fail")
	}
	if err := NewKNeighborsClassifier(WithNNeighbors(100)).Fit(X, y); err == nil {
		t.Error("Fit() with more neighbors than samples should fail")
	}
}

func TestKNNNotFitted(t *testing.T) {
	knn := NewKNeighborsClassifier()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	if _, err := knn.Predict(X); err == nil {
		t.Error("Predict() before Fit() should fail")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("Predict() error = %v, want NotFittedError", err)
		}
	}
}

func TestKNNSetParamsClone(t *testing.T) {
	knn := NewKNeighborsClassifier()

	err := knn.SetParams(map[string]interface{}{
		"n_neighbors": 7,
		"weights":     "distance",
		"algorithm":   "kd_tree",
		"p":           1,
	})
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}

	params := knn.Clone().GetParams()
	if params["n_neighbors"] != 7 || params["weights"] != "distance" || params["p"] != 1 {
		t.Errorf("Clone().GetParams() = %v", params)
	}

	if err := knn.SetParams(map[string]interface{}{"p": 3}); err == nil {
		t.Error("SetParams() with p=3 should fail")
	}
}
