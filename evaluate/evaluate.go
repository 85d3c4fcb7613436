package evaluate

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/core/model"
	"github.com/orbitalml/landcast/metrics"
	"github.com/orbitalml/landcast/pkg/errors"
)

// Record holds every metric computed for one trained model family on the
// test partition. Records are created once by Evaluate and never mutated.
type Record struct {
	Family string

	Accuracy  float64
	Precision float64 // weighted by class frequency
	Recall    float64 // weighted by class frequency
	F1        float64 // weighted by class frequency

	CVAccuracy float64

	// Confusion counts; valid only when ConfusionBinary.
	TP, TN, FP, FN  int
	ConfusionBinary bool

	Specificity Metric  // undefined unless the confusion matrix is 2x2
	Sensitivity float64 // falls back to weighted recall when not 2x2

	ROCAUC  Metric // defined when the family outputs probabilities or decision scores
	LogLoss Metric // defined only for calibrated probability estimates

	BestParams map[string]interface{}

	// Class1Scores retains the positive-class score per test sample when
	// available (class-1 probability or raw decision margin), for ROC
	// curve rendering.
	Class1Scores []float64
}

// Option configures an evaluation.
type Option func(*settings)

type settings struct {
	cvAccuracy float64
	bestParams map[string]interface{}
	calibrated bool
}

// WithCVAccuracy attaches the cross-validated accuracy of the winning
// configuration.
func WithCVAccuracy(acc float64) Option {
	return func(s *settings) {
		s.cvAccuracy = acc
	}
}

// WithBestParams attaches the winning hyperparameter configuration.
func WithBestParams(params map[string]interface{}) Option {
	return func(s *settings) {
		s.bestParams = params
	}
}

// WithCalibratedProbabilities marks the family's probability estimates as
// calibrated. Log-loss is reported only for calibrated estimates; vote
// shares and leaf proportions keep it as N/A.
func WithCalibratedProbabilities() Option {
	return func(s *settings) {
		s.calibrated = true
	}
}

// Evaluate applies a trained classifier to the test partition and computes
// the full metric record. ROC-AUC needs a per-sample score: class-1
// probabilities when the classifier implements model.ProbabilityEstimator,
// raw margins when it implements model.DecisionScorer. Log-loss needs
// probabilities. Metrics without a usable score are reported as N/A via an
// UndefinedMetricWarning, which is non-fatal.
func Evaluate(family string, clf model.Classifier, XTest mat.Matrix, yTest *mat.VecDense, opts ...Option) (*Record, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	predictions, err := clf.Predict(XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %s", family)
	}

	n, _ := predictions.Dims()
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yPred.SetVec(i, predictions.At(i, 0))
	}

	rec := &Record{
		Family:     family,
		CVAccuracy: s.cvAccuracy,
		BestParams: s.bestParams,
	}

	if rec.Accuracy, err = metrics.Accuracy(yTest, yPred); err != nil {
		return nil, err
	}
	if rec.Precision, err = metrics.PrecisionWeighted(yTest, yPred); err != nil {
		return nil, err
	}
	if rec.Recall, err = metrics.RecallWeighted(yTest, yPred); err != nil {
		return nil, err
	}
	if rec.F1, err = metrics.F1Weighted(yTest, yPred); err != nil {
		return nil, err
	}

	confusion, err := metrics.ConfusionMatrix(yTest, yPred)
	if err != nil {
		return nil, err
	}
	if confusion.IsBinary() {
		rec.ConfusionBinary = true
		rec.TN, rec.FP, rec.FN, rec.TP = confusion.Binary()
		if spec, ok := metrics.Specificity(confusion); ok {
			rec.Specificity = Defined(spec)
		} else {
			errors.Warn(errors.NewUndefinedMetricWarning("specificity", family, "no negative samples in test partition"))
			rec.Specificity = NotApplicable
		}
		if sens, ok := metrics.Sensitivity(confusion); ok {
			rec.Sensitivity = sens
		} else {
			rec.Sensitivity = rec.Recall
		}
	} else {
		// Degenerate confusion matrix: specificity is undefined and
		// sensitivity falls back to the weighted recall.
		errors.Warn(errors.NewUndefinedMetricWarning("specificity", family, "confusion matrix is not 2x2"))
		rec.Specificity = NotApplicable
		rec.Sensitivity = rec.Recall
	}

	rec.ROCAUC, rec.LogLoss = probabilityMetrics(family, clf, XTest, yTest, s.calibrated, rec)

	slog.Info("model evaluated",
		"family", family,
		"accuracy", rec.Accuracy,
		"f1", rec.F1,
		"cv_accuracy", rec.CVAccuracy,
	)

	return rec, nil
}

// probabilityMetrics computes ROC-AUC and log-loss when class-1 probability
// estimates exist. Families without probability output fall back to raw
// decision scores for ROC-AUC.
func probabilityMetrics(family string, clf model.Classifier, XTest mat.Matrix, yTest *mat.VecDense, calibrated bool, rec *Record) (rocAUC, logLoss Metric) {
	estimator, ok := clf.(model.ProbabilityEstimator)
	if !ok {
		return decisionMetrics(family, clf, XTest, yTest, rec)
	}

	probas, err := estimator.PredictProba(XTest)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", family, err.Error()))
		return NotApplicable, NotApplicable
	}

	n, cols := probas.Dims()
	class1 := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		class1.SetVec(i, probas.At(i, cols-1))
	}
	rec.Class1Scores = make([]float64, n)
	copy(rec.Class1Scores, class1.RawVector().Data)

	auc, err := metrics.AUC(yTest, class1)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", family, err.Error()))
		rocAUC = NotApplicable
	} else {
		rocAUC = Defined(auc)
	}

	if !calibrated {
		errors.Warn(errors.NewUndefinedMetricWarning("log_loss", family, "probability estimates are not calibrated"))
		return rocAUC, NotApplicable
	}

	ll, err := metrics.BinaryLogLoss(yTest, class1)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("log_loss", family, err.Error()))
		return rocAUC, NotApplicable
	}
	return rocAUC, Defined(ll)
}

// decisionMetrics covers families that expose raw decision scores but no
// probabilities. AUC is rank-based, so the uncalibrated margins reproduce
// the probability-derived value; log-loss stays N/A.
func decisionMetrics(family string, clf model.Classifier, XTest mat.Matrix, yTest *mat.VecDense, rec *Record) (rocAUC, logLoss Metric) {
	scorer, ok := clf.(model.DecisionScorer)
	if !ok {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", family, "no probability or decision score output"))
		errors.Warn(errors.NewUndefinedMetricWarning("log_loss", family, "no probability or decision score output"))
		return NotApplicable, NotApplicable
	}

	scores, err := scorer.DecisionFunction(XTest)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", family, err.Error()))
		errors.Warn(errors.NewUndefinedMetricWarning("log_loss", family, err.Error()))
		return NotApplicable, NotApplicable
	}
	rec.Class1Scores = make([]float64, scores.Len())
	copy(rec.Class1Scores, scores.RawVector().Data)

	auc, err := metrics.AUC(yTest, scores)
	if err != nil {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", family, err.Error()))
		rocAUC = NotApplicable
	} else {
		rocAUC = Defined(auc)
	}

	errors.Warn(errors.NewUndefinedMetricWarning("log_loss", family, "decision scores are not probabilities"))
	return rocAUC, NotApplicable
}
