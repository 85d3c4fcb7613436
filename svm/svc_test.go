package svm

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/pkg/errors"
)

func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 2, []float64{
		0.0, 0.5,
		0.5, 0.0,
		1.0, 0.5,
		0.5, 1.0,
		4.0, 4.5,
		4.5, 4.0,
		5.0, 4.5,
		4.5, 5.0,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestSVCLinearKernel(t *testing.T) {
	X, y := separableData()

	svc := NewSVC(WithKernel("linear"), WithC(1.0), WithRandomState(42))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	predictions, err := svc.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < 8; i++ {
		if got, want := predictions.At(i, 0), y.At(i, 0); got != want {
			t.Errorf("sample %d: Predict() = %v, want %v", i, got, want)
		}
	}

	score, err := svc.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score != 1.0 {
		t.Errorf("Score() = %v, want 1.0 on separable training data", score)
	}
}

func TestSVCRBFKernel(t *testing.T) {
	X, y := separableData()

	for _, gamma := range []string{"scale", "auto"} {
		t.Run(gamma, func(t *testing.T) {
			svc := NewSVC(WithKernel("rbf"), WithGamma(gamma), WithC(10.0), WithRandomState(42))
			if err := svc.Fit(X, y); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}

			score, err := svc.Score(X, y)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if score < 0.75 {
				t.Errorf("Score() = %v, want at least 0.75", score)
			}
		})
	}
}

func TestSVCInvalidKernel(t *testing.T) {
	X, y := separableData()

	svc := NewSVC(WithKernel("poly"))
	if err := svc.Fit(X, y); err == nil {
		t.Error("Fit() with an unsupported kernel should fail")
	}
}

func TestSVCNotFitted(t *testing.T) {
	svc := NewSVC()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	if _, err := svc.Predict(X); err == nil {
		t.Error("Predict() before Fit() should fail")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("Predict() error = %v, want NotFittedError", err)
		}
	}
}

func TestSVCScoresThroughDecisionFunctionOnly(t *testing.T) {
	// ROC-AUC for this family comes from raw decision margins; log-loss
	// stays N/A, which relies on the classifier not exposing probability
	// estimates.
	var clf model.Classifier = NewSVC()
	if _, ok := clf.(model.ProbabilityEstimator); ok {
		t.Error("SVC must not implement ProbabilityEstimator")
	}
	if _, ok := clf.(model.DecisionScorer); !ok {
		t.Error("SVC must implement DecisionScorer")
	}
}

func TestSVCDecisionFunction(t *testing.T) {
	X, y := separableData()

	svc := NewSVC(WithKernel("linear"), WithC(1.0), WithRandomState(42))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	scores, err := svc.DecisionFunction(X)
	if err != nil {
		t.Fatalf("DecisionFunction() error = %v", err)
	}
	if scores.Len() != 8 {
		t.Fatalf("DecisionFunction() returned %d scores, want 8", scores.Len())
	}

	// Margin sign must agree with the hard prediction for every sample.
	predictions, err := svc.Predict(X)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	for i := 0; i < 8; i++ {
		margin := scores.AtVec(i)
		want := 0.0
		if margin >= 0 {
			want = 1.0
		}
		if got := predictions.At(i, 0); got != want {
			t.Errorf("sample %d: margin %v but Predict() = %v", i, margin, got)
		}
	}

	// Class-1 samples must outrank class-0 samples on separable data.
	for i := 0; i < 4; i++ {
		for j := 4; j < 8; j++ {
			if scores.AtVec(i) >= scores.AtVec(j) {
				t.Errorf("class-0 sample %d margin %v >= class-1 sample %d margin %v",
					i, scores.AtVec(i), j, scores.AtVec(j))
			}
		}
	}
}

func TestSVCDecisionFunctionNotFitted(t *testing.T) {
	svc := NewSVC()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	if _, err := svc.DecisionFunction(X); err == nil {
		t.Error("DecisionFunction() before Fit() should fail")
	}
}

func TestSVCSetParamsClone(t *testing.T) {
	svc := NewSVC()

	err := svc.SetParams(map[string]interface{}{
		"kernel": "rbf",
		"C":      10.0,
		"gamma":  "auto",
	})
	if err != nil {
		t.Fatalf("SetParams() error = %v", err)
	}

	clone := svc.Clone()
	params := clone.GetParams()
	if params["kernel"] != "rbf" || params["C"] != 10.0 || params["gamma"] != "auto" {
		t.Errorf("Clone().GetParams() = %v", params)
	}

	if err := svc.SetParams(map[string]interface{}{"gamma": 0.5}); err == nil {
		t.Error("SetParams() with a numeric gamma should fail")
	}
}
