package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalml/landcast/config"
	"github.com/orbitalml/landcast/preprocessing"
	"github.com/orbitalml/landcast/report"
)

// writeLaunchData writes a small synthetic launch dataset: class 1 rows sit
// in a different region of feature space than class 0 rows, so every family
// has signal to learn.
func writeLaunchData(t *testing.T, dir string, class0, class1 int) {
	t.Helper()

	var labels strings.Builder
	var features strings.Builder
	labels.WriteString("FlightNumber,Class\n")
	features.WriteString("PayloadMass,Flights,GridFins,Block\n")

	row := 0
	for i := 0; i < class0; i++ {
		labels.WriteString(fmt.Sprintf("%d,0\n", row))
		features.WriteString(fmt.Sprintf("%.1f,%d,0,1\n", 500.0+float64(i%7)*13, 1+i%3))
		row++
	}
	for i := 0; i < class1; i++ {
		labels.WriteString(fmt.Sprintf("%d,1\n", row))
		features.WriteString(fmt.Sprintf("%.1f,%d,1,5\n", 4200.0+float64(i%7)*17, 5+i%4))
		row++
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.csv"), []byte(labels.String()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "features.csv"), []byte(features.String()), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	dataDir := t.TempDir()
	writeLaunchData(t, dataDir, 24, 16)

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.OutDir = t.TempDir()
	cfg.LabelFile = "labels.csv"
	cfg.FeatureFile = "features.csv"
	cfg.Folds = 3
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("full pipeline run")
	}

	cfg := testConfig(t)

	res, err := Run(cfg)
	require.NoError(t, err)

	require.Len(t, res.Records, 4)
	wantOrder := []string{"Logistic Regression", "SVM", "Decision Tree", "KNN"}
	for i, fam := range wantOrder {
		assert.Equal(t, fam, res.Records[i].Family)
	}

	for _, rec := range res.Records {
		assert.GreaterOrEqual(t, rec.Accuracy, 0.5, "family %s", rec.Family)
		assert.InDelta(t, 0.5, rec.CVAccuracy, 0.5, "family %s", rec.Family)
		assert.True(t, rec.ConfusionBinary, "family %s", rec.Family)
		assert.Equal(t, 8, rec.TP+rec.TN+rec.FP+rec.FN, "family %s", rec.Family)
	}

	// Score policy: every family defines ROC-AUC (SVM through its decision
	// margins), but only logistic regression reports log-loss.
	byFamily := map[string]int{}
	for i, rec := range res.Records {
		byFamily[rec.Family] = i
	}
	for _, rec := range res.Records {
		assert.True(t, rec.ROCAUC.IsDefined(), "family %s", rec.Family)
		assert.NotEmpty(t, rec.Class1Scores, "family %s", rec.Family)
	}
	assert.True(t, res.Records[byFamily["Logistic Regression"]].LogLoss.IsDefined())
	assert.False(t, res.Records[byFamily["SVM"]].LogLoss.IsDefined())
	assert.False(t, res.Records[byFamily["Decision Tree"]].LogLoss.IsDefined())
	assert.False(t, res.Records[byFamily["KNN"]].LogLoss.IsDefined())

	// Both winners are reported and are real families.
	assert.Contains(t, wantOrder, res.BestByTest.Family)
	assert.Contains(t, wantOrder, res.BestByCV.Family)

	// Persisted artifacts exist and the table round-trips.
	table, err := report.LoadCSV(res.ComparisonPath)
	require.NoError(t, err)
	require.Len(t, table, len(report.MetricRows))
	assert.NotEqual(t, "N/A", table["ROC AUC"]["SVM"])
	assert.Equal(t, "N/A", table["Log Loss"]["SVM"])

	detailed, err := os.ReadFile(res.DetailedPath)
	require.NoError(t, err)
	assert.Contains(t, string(detailed), "Best model by test accuracy:")

	info, err := os.Stat(res.ROCPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunIdempotentUnderFixedSeed(t *testing.T) {
	if testing.Short() {
		t.Skip("full pipeline run")
	}

	cfg := testConfig(t)

	first, err := Run(cfg)
	require.NoError(t, err)
	second, err := Run(cfg)
	require.NoError(t, err)

	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		assert.Equal(t, a.Family, b.Family)
		assert.Equal(t, a.Accuracy, b.Accuracy, "family %s", a.Family)
		assert.Equal(t, a.CVAccuracy, b.CVAccuracy, "family %s", a.Family)
		assert.Equal(t, a.BestParams, b.BestParams, "family %s", a.Family)
	}
}

func TestRunFailsOnMissingData(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.OutDir = t.TempDir()

	_, err := Run(cfg)
	require.Error(t, err)
}

func TestFamiliesDeclareExpectedGrids(t *testing.T) {
	families := Families(42)
	require.Len(t, families, 4)

	sizes := map[string]int{
		"Logistic Regression": 10,
		"SVM":                 12,
		"Decision Tree":       576,
		"KNN":                 84,
	}
	for _, fam := range families {
		assert.Equal(t, sizes[fam.Name], fam.Grid.Size(), "family %s", fam.Name)
		require.NoError(t, fam.Grid.Validate(), "family %s", fam.Name)
	}

	// Only logistic regression is trusted for log-loss.
	for _, fam := range families {
		if fam.Name == "Logistic Regression" {
			assert.True(t, fam.Calibrated)
		} else {
			assert.False(t, fam.Calibrated, "family %s", fam.Name)
		}
	}
}

func TestTrainAndEvaluateSharedFolds(t *testing.T) {
	if testing.Short() {
		t.Skip("grid search run")
	}

	dataDir := t.TempDir()
	writeLaunchData(t, dataDir, 24, 16)

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.LabelFile = "labels.csv"
	cfg.FeatureFile = "features.csv"

	data, err := loadScaled(cfg)
	require.NoError(t, err)

	split, err := preprocessing.TrainTestSplit(data.X, data.Y, 0.2, 42)
	require.NoError(t, err)

	// A reduced family set keeps the search small while still covering
	// a probability-bearing and a margin-scored family.
	families := Families(42)[:2]
	records, err := TrainAndEvaluate(families, split, 3, 42)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Logistic Regression", records[0].Family)
	assert.Equal(t, "SVM", records[1].Family)
	for i, rec := range records {
		assert.True(t, families[i].Grid.Contains(rec.BestParams), "family %s best params %v", rec.Family, rec.BestParams)
	}
}
