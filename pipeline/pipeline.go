// Package pipeline wires the full landing-prediction run: load the CSVs,
// standardize, split, grid-search each classifier family under shared
// cross-validation folds, evaluate on the held-out partition and persist
// the comparison report.
package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/config"
	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/dataset"
	"github.com/orbitalml/landcast/evaluate"
	"github.com/orbitalml/landcast/linear_model"
	"github.com/orbitalml/landcast/model_selection"
	"github.com/orbitalml/landcast/neighbors"
	"github.com/orbitalml/landcast/pkg/errors"
	"github.com/orbitalml/landcast/preprocessing"
	"github.com/orbitalml/landcast/report"
	"github.com/orbitalml/landcast/svm"
	"github.com/orbitalml/landcast/tree"
)

// Family binds a classifier family to its hyperparameter grid.
type Family struct {
	Name      string
	Estimator model.Classifier
	Grid      *model_selection.ParamGrid
	// Calibrated marks families whose probability estimates are trusted
	// for log-loss reporting.
	Calibrated bool
}

// Families returns the four classifier families with their search grids,
// in training (and tie-break) order.
func Families(seed int64) []Family {
	return []Family{
		{
			Name:      "Logistic Regression",
			Estimator: linear_model.NewLogisticRegression(linear_model.WithRandomState(seed)),
			Grid: model_selection.NewParamGrid().
				Add("C", 0.01, 0.1, 1.0, 10.0, 100.0).
				Add("solver", "lbfgs", "liblinear").
				Add("max_iter", 1000),
			Calibrated: true,
		},
		{
			Name:      "SVM",
			Estimator: svm.NewSVC(svm.WithRandomState(seed)),
			Grid: model_selection.NewParamGrid().
				Add("kernel", "linear", "rbf").
				Add("C", 0.1, 1.0, 10.0).
				Add("gamma", "scale", "auto"),
		},
		{
			Name:      "Decision Tree",
			Estimator: tree.NewDecisionTreeClassifier(tree.WithRandomState(seed)),
			Grid: model_selection.NewParamGrid().
				Add("criterion", "gini", "entropy").
				Add("splitter", "best", "random").
				Add("max_depth", 2, 4, 6, 8, 10, 12, 14, 16).
				Add("max_features", "sqrt", "all").
				Add("min_samples_leaf", 1, 2, 4).
				Add("min_samples_split", 2, 5, 10),
		},
		{
			Name:      "KNN",
			Estimator: neighbors.NewKNeighborsClassifier(),
			Grid: model_selection.NewParamGrid().
				Add("n_neighbors", 1, 3, 5, 7, 9, 11, 15).
				Add("algorithm", "auto", "ball_tree", "kd_tree").
				Add("p", 1, 2).
				Add("weights", "uniform", "distance"),
		},
	}
}

// Result is the outcome of a full run.
type Result struct {
	Records []*evaluate.Record

	BestByTest *evaluate.Record
	BestByCV   *evaluate.Record

	ComparisonPath string
	DetailedPath   string
	ROCPath        string
}

// Run executes the pipeline end to end. All returned errors are fatal:
// either the input data could not be loaded or the results could not be
// persisted.
func Run(cfg *config.Config) (*Result, error) {
	start := time.Now()

	data, err := loadScaled(cfg)
	if err != nil {
		return nil, err
	}

	split, err := preprocessing.TrainTestSplit(data.X, data.Y, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, err
	}
	slog.Info("train/test split",
		"train", len(split.TrainIndices),
		"test", len(split.TestIndices))

	records, err := TrainAndEvaluate(Families(cfg.Seed), split, cfg.Folds, cfg.Seed)
	if err != nil {
		return nil, err
	}

	cmp := report.NewComparison(records)
	res := &Result{
		Records:    records,
		BestByTest: cmp.BestByTestAccuracy(),
		BestByCV:   cmp.BestByCVAccuracy(),
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, errors.NewPersistenceError(cfg.OutDir, err)
	}

	now := time.Now()
	res.ComparisonPath = filepath.Join(cfg.OutDir, report.TimestampedName("model_comparison", "csv", now))
	if err := cmp.WriteCSV(res.ComparisonPath); err != nil {
		return nil, err
	}
	res.DetailedPath = filepath.Join(cfg.OutDir, report.TimestampedName("detailed_results", "txt", now))
	if err := cmp.WriteDetailed(res.DetailedPath); err != nil {
		return nil, err
	}
	if cfg.PlotROC {
		res.ROCPath = filepath.Join(cfg.OutDir, report.TimestampedName("roc_curves", "png", now))
		if err := cmp.SaveROCCurves(vecToSlice(split.YTest), res.ROCPath); err != nil {
			return nil, err
		}
	}

	slog.Info("pipeline finished",
		"best_by_test", res.BestByTest.Family,
		"best_by_cv", res.BestByCV.Family,
		"elapsed", time.Since(start))
	return res, nil
}

// loadScaled loads the dataset and standardizes the full feature matrix.
// The train/test split afterwards sees already-standardized features.
func loadScaled(cfg *config.Config) (*dataset.Data, error) {
	data, err := dataset.Load(cfg.DataDir, cfg.LabelFile, cfg.FeatureFile)
	if err != nil {
		return nil, err
	}
	slog.Info("dataset loaded",
		"samples", data.NumSamples(),
		"features", len(data.FeatureNames))

	scaler := preprocessing.NewStandardScaler()
	scaled, err := scaler.FitTransform(data.X)
	if err != nil {
		return nil, err
	}
	return &dataset.Data{X: scaled, Y: data.Y, FeatureNames: data.FeatureNames}, nil
}

// TrainAndEvaluate grid-searches each family on the training partition and
// scores the refitted winner on the test partition. Families run
// concurrently; each goroutine writes only its own result slot. Every
// search builds its fold assignment from the same seed, so all families
// are validated on identical folds.
func TrainAndEvaluate(families []Family, split *preprocessing.Split, folds int, seed int64) ([]*evaluate.Record, error) {
	records := make([]*evaluate.Record, len(families))
	errs := make([]error, len(families))

	var wg sync.WaitGroup
	for i, fam := range families {
		wg.Add(1)
		go func(i int, fam Family) {
			defer wg.Done()
			records[i], errs[i] = trainFamily(fam, split, folds, seed)
		}(i, fam)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "training %s", families[i].Name)
		}
	}
	return records, nil
}

func trainFamily(fam Family, split *preprocessing.Split, folds int, seed int64) (*evaluate.Record, error) {
	searchStart := time.Now()
	splitter := model_selection.NewStratifiedKFold(folds, true, int(seed))
	gs := model_selection.NewGridSearchCV(fam.Estimator, fam.Grid, splitter)
	if err := gs.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, err
	}
	slog.Info("grid search complete",
		"family", fam.Name,
		"configurations", fam.Grid.Size(),
		"best_cv_accuracy", gs.BestScore,
		"elapsed", time.Since(searchStart))

	opts := []evaluate.Option{
		evaluate.WithCVAccuracy(gs.BestScore),
		evaluate.WithBestParams(gs.BestParams),
	}
	if fam.Calibrated {
		opts = append(opts, evaluate.WithCalibratedProbabilities())
	}
	return evaluate.Evaluate(fam.Name, gs.BestEstimator, split.XTest, split.YTest, opts...)
}

func vecToSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
