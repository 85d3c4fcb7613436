package model_selection

import (
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/pkg/errors"
)

// CandidateResult records the cross-validated performance of one grid
// configuration.
type CandidateResult struct {
	Params     map[string]interface{}
	FoldScores []float64
	MeanScore  float64
	StdScore   float64
}

// GridSearchCV exhaustively scores every configuration of a hyperparameter
// grid by k-fold cross-validated accuracy and refits the best one on the
// full training partition.
//
// The fold assignment is computed once per search, so every configuration
// is scored on identical folds. The best configuration is the one with the
// strictly highest mean score; on ties the configuration encountered first
// in grid enumeration order wins. This mirrors the behavior of the search
// the grids were tuned with and is deliberate, not an optimization target.
type GridSearchCV struct {
	estimator model.Classifier
	grid      *ParamGrid
	splitter  KFoldSplitter

	// BestParams is the winning configuration.
	BestParams map[string]interface{}

	// BestScore is the winning configuration's mean cross-validated accuracy.
	BestScore float64

	// BestEstimator is the best configuration refitted on the full
	// training partition.
	BestEstimator model.Classifier

	// Results holds one entry per configuration in enumeration order.
	Results []CandidateResult

	fitted bool
}

// NewGridSearchCV creates a grid search over estimator's hyperparameters.
func NewGridSearchCV(estimator model.Classifier, grid *ParamGrid, splitter KFoldSplitter) *GridSearchCV {
	return &GridSearchCV{
		estimator: estimator,
		grid:      grid,
		splitter:  splitter,
	}
}

// Fit runs the search on the training partition.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	if err := gs.grid.Validate(); err != nil {
		return err
	}

	folds := gs.splitter.Split(X, y)
	configs := gs.grid.Enumerate()

	gs.Results = make([]CandidateResult, 0, len(configs))
	bestIdx := -1

	for idx, params := range configs {
		scores, err := gs.scoreConfig(X, y, folds, params)
		if err != nil {
			return errors.Wrapf(err, "grid search: configuration %s", FormatParams(params))
		}

		result := CandidateResult{
			Params:     params,
			FoldScores: scores,
			MeanScore:  MeanScore(scores),
			StdScore:   StdScore(scores),
		}
		gs.Results = append(gs.Results, result)

		// Strict comparison keeps the first-encountered winner on ties.
		if bestIdx < 0 || result.MeanScore > gs.Results[bestIdx].MeanScore {
			bestIdx = idx
		}
	}

	best := gs.Results[bestIdx]
	gs.BestParams = best.Params
	gs.BestScore = best.MeanScore

	slog.Debug("grid search finished",
		"configurations", len(configs),
		"best_params", FormatParams(best.Params),
		"best_cv_accuracy", best.MeanScore,
	)

	// Refit the winning configuration on the full training partition.
	refit := gs.estimator.Clone()
	if err := refit.SetParams(best.Params); err != nil {
		return err
	}
	if err := refit.Fit(X, y); err != nil {
		return errors.Wrap(err, "grid search: refit of best configuration")
	}
	gs.BestEstimator = refit
	gs.fitted = true
	return nil
}

// scoreConfig trains and scores one configuration across all folds. Folds
// are independent and run in parallel goroutines, each writing only its
// own result slot.
func (gs *GridSearchCV) scoreConfig(X, y mat.Matrix, folds []CVFold, params map[string]interface{}) ([]float64, error) {
	scores := make([]float64, len(folds))
	errs := make([]error, len(folds))

	var wg sync.WaitGroup
	for foldIdx := range folds {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]
			trainX, trainY := extractSubset(X, y, fold.TrainIndices)
			valX, valY := extractSubset(X, y, fold.TestIndices)

			clf := gs.estimator.Clone()
			if err := clf.SetParams(params); err != nil {
				errs[idx] = err
				return
			}
			if err := clf.Fit(trainX, trainY); err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d training failed", idx)
				return
			}

			score, err := clf.Score(valX, valY)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d scoring failed", idx)
				return
			}
			scores[idx] = score
		}(foldIdx)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return scores, nil
}

// IsFitted reports whether the search has completed.
func (gs *GridSearchCV) IsFitted() bool {
	return gs.fitted
}
