package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewDataUnavailableError(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		reason  string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			source:  "data/dataset_part_3.csv",
			reason:  "cannot open file",
			err:     fmt.Errorf("no such file"),
			wantMsg: "landcast: data unavailable: data/dataset_part_3.csv: cannot open file: no such file",
		},
		{
			name:    "without original error",
			source:  "data/dataset_part_2.csv",
			reason:  "missing 'Class' column",
			err:     nil,
			wantMsg: "landcast: data unavailable: data/dataset_part_2.csv: missing 'Class' column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDataUnavailableError(tt.source, tt.reason, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var dataErr *DataUnavailableError
			if !As(err, &dataErr) {
				t.Error("Error should be castable to *DataUnavailableError")
			}
		})
	}
}

func TestNewPersistenceError(t *testing.T) {
	err := NewPersistenceError("out/model_comparison.csv", fmt.Errorf("disk full"))

	want := "landcast: cannot persist results to out/model_comparison.csv: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var persErr *PersistenceError
	if !As(err, &persErr) {
		t.Error("Error should be castable to *PersistenceError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")

	want := "landcast: LogisticRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 5, 0)

	want := "landcast: Predict: dimension mismatch on axis 0 (rows). Expected 10, got 5"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewUndefinedMetricWarning(t *testing.T) {
	warn := NewUndefinedMetricWarning("log_loss", "SVM", "decision scores are not probabilities")

	want := "'log_loss' is undefined for SVM (decision scores are not probabilities); reported as N/A"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}
}

func TestWarningHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(nil)

	Warn(NewUndefinedMetricWarning("log_loss", "KNN", "probability estimates are not calibrated"))

	if len(captured) != 1 {
		t.Fatalf("handler captured %d warnings, want 1", len(captured))
	}
	var metricWarn *UndefinedMetricWarning
	if !As(captured[0], &metricWarn) {
		t.Error("Warning should be castable to *UndefinedMetricWarning")
	}
	if metricWarn.Model != "KNN" {
		t.Errorf("Model = %v, want KNN", metricWarn.Model)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in TrainTestSplit")

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in TrainTestSplit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Fit", 10, 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	expectedMsg := "in Fit: expected 10, got 0"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	base := fmt.Errorf("read failed")
	mid := NewDataUnavailableError("features.csv", "malformed CSV", base)
	top := Wrap(mid, "loading dataset")

	if !strings.Contains(top.Error(), "read failed") {
		t.Error("Expected error chain to contain base error")
	}

	var dataErr *DataUnavailableError
	if !As(top, &dataErr) {
		t.Error("Error should be castable to *DataUnavailableError through the chain")
	}
	if dataErr.Source != "features.csv" {
		t.Errorf("Source = %v, want features.csv", dataErr.Source)
	}
}
