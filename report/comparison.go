// Package report aggregates per-family metric records into the final
// comparison artifacts: a delimited comparison table, a plain-text
// detailed breakdown and a ROC curve figure.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/orbitalml/landcast/evaluate"
	"github.com/orbitalml/landcast/model_selection"
	"github.com/orbitalml/landcast/pkg/errors"
)

// MetricRows is the fixed row order of the comparison table.
var MetricRows = []string{
	"Accuracy",
	"Precision",
	"Recall",
	"F1-Score",
	"CV Accuracy",
	"Specificity",
	"Sensitivity",
	"ROC AUC",
	"Log Loss",
}

// Comparison collects the evaluated records of every model family, in the
// order the families were trained.
type Comparison struct {
	Records []*evaluate.Record
}

// NewComparison builds a comparison over the given records.
func NewComparison(records []*evaluate.Record) *Comparison {
	return &Comparison{Records: records}
}

// Cell renders the table cell for one metric row and one record.
func Cell(metric string, rec *evaluate.Record) string {
	switch metric {
	case "Accuracy":
		return fmt.Sprintf("%.4f", rec.Accuracy)
	case "Precision":
		return fmt.Sprintf("%.4f", rec.Precision)
	case "Recall":
		return fmt.Sprintf("%.4f", rec.Recall)
	case "F1-Score":
		return fmt.Sprintf("%.4f", rec.F1)
	case "CV Accuracy":
		return fmt.Sprintf("%.4f", rec.CVAccuracy)
	case "Specificity":
		return rec.Specificity.String()
	case "Sensitivity":
		return fmt.Sprintf("%.4f", rec.Sensitivity)
	case "ROC AUC":
		return rec.ROCAUC.String()
	case "Log Loss":
		return rec.LogLoss.String()
	default:
		return "N/A"
	}
}

// BestByTestAccuracy returns the record with the highest test accuracy.
// Ties keep the earlier-trained family.
func (c *Comparison) BestByTestAccuracy() *evaluate.Record {
	best := c.Records[0]
	for _, rec := range c.Records[1:] {
		if rec.Accuracy > best.Accuracy {
			best = rec
		}
	}
	return best
}

// BestByCVAccuracy returns the record with the highest cross-validated
// accuracy. This may legitimately name a different family than
// BestByTestAccuracy; both winners are reported.
func (c *Comparison) BestByCVAccuracy() *evaluate.Record {
	best := c.Records[0]
	for _, rec := range c.Records[1:] {
		if rec.CVAccuracy > best.CVAccuracy {
			best = rec
		}
	}
	return best
}

// WriteCSV persists the comparison table: one row per metric, one column
// per model family. Write failures are fatal PersistenceErrors.
func (c *Comparison) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewPersistenceError(path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)

	header := make([]string, 0, len(c.Records)+1)
	header = append(header, "Metric")
	for _, rec := range c.Records {
		header = append(header, rec.Family)
	}
	if err := w.Write(header); err != nil {
		return errors.NewPersistenceError(path, err)
	}

	for _, metric := range MetricRows {
		row := make([]string, 0, len(c.Records)+1)
		row = append(row, metric)
		for _, rec := range c.Records {
			row = append(row, Cell(metric, rec))
		}
		if err := w.Write(row); err != nil {
			return errors.NewPersistenceError(path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewPersistenceError(path, err)
	}
	return nil
}

// WriteDetailed persists the human-readable per-family breakdown.
func (c *Comparison) WriteDetailed(path string) error {
	var b strings.Builder
	b.WriteString("Landing Prediction - Detailed Results\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")

	for _, rec := range c.Records {
		b.WriteString("\n" + rec.Family + "\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")
		fmt.Fprintf(&b, "Accuracy:     %.4f\n", rec.Accuracy)
		fmt.Fprintf(&b, "Precision:    %.4f\n", rec.Precision)
		fmt.Fprintf(&b, "Recall:       %.4f\n", rec.Recall)
		fmt.Fprintf(&b, "F1-Score:     %.4f\n", rec.F1)
		fmt.Fprintf(&b, "CV Accuracy:  %.4f\n", rec.CVAccuracy)
		fmt.Fprintf(&b, "Specificity:  %s\n", rec.Specificity.String())
		fmt.Fprintf(&b, "Sensitivity:  %.4f\n", rec.Sensitivity)
		if rec.ROCAUC.IsDefined() {
			fmt.Fprintf(&b, "ROC AUC:      %s\n", rec.ROCAUC.String())
		}
		if rec.LogLoss.IsDefined() {
			fmt.Fprintf(&b, "Log Loss:     %s\n", rec.LogLoss.String())
		}
		if rec.ConfusionBinary {
			fmt.Fprintf(&b, "TP/TN/FP/FN:  %d/%d/%d/%d\n", rec.TP, rec.TN, rec.FP, rec.FN)
		}
		fmt.Fprintf(&b, "Best Params:  %s\n", model_selection.FormatParams(rec.BestParams))
	}

	best := c.BestByTestAccuracy()
	bestCV := c.BestByCVAccuracy()
	b.WriteString("\n" + strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Best model by test accuracy: %s (%.4f)\n", best.Family, best.Accuracy)
	fmt.Fprintf(&b, "Best model by CV accuracy:   %s (%.4f)\n", bestCV.Family, bestCV.CVAccuracy)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.NewPersistenceError(path, err)
	}
	return nil
}

// LoadCSV reads a previously written comparison table back into a map
// keyed by metric row, each holding family name to cell value.
func LoadCSV(path string) (map[string]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataUnavailableError(path, "cannot open comparison table", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.NewDataUnavailableError(path, "malformed comparison table", err)
	}
	if len(rows) < 2 {
		return nil, errors.NewDataUnavailableError(path, "comparison table has no rows", nil)
	}

	header := rows[0]
	out := make(map[string]map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make(map[string]string, len(header)-1)
		for i := 1; i < len(header) && i < len(row); i++ {
			cells[header[i]] = row[i]
		}
		out[row[0]] = cells
	}
	return out, nil
}

// TimestampedName builds the output file name used for persisted results,
// e.g. model_comparison_20260829_153000.csv.
func TimestampedName(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format("20060102_150405"), ext)
}
