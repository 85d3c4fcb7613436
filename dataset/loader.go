// Package dataset loads the launch outcome tables used by the pipeline:
// a label table carrying the binary Class column and a feature table of
// pre-engineered numeric columns, row-aligned 1:1 by position.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/orbitalml/landcast/pkg/errors"
)

// LabelColumn is the column of the label table holding the landing outcome.
// 1 means the first stage landed successfully, 0 means it did not.
const LabelColumn = "Class"

// Data holds one loaded dataset: an n×d feature matrix, an n-vector of
// binary labels and the feature column names. Immutable once loaded.
type Data struct {
	X            *mat.Dense
	Y            *mat.VecDense
	FeatureNames []string
}

// NumSamples returns the number of rows.
func (d *Data) NumSamples() int {
	r, _ := d.X.Dims()
	return r
}

// NumFeatures returns the number of feature columns.
func (d *Data) NumFeatures() int {
	_, c := d.X.Dims()
	return c
}

// Load reads the label and feature tables from dir and returns the aligned
// dataset. Any missing file, malformed row, non-binary label or row-count
// mismatch is a DataUnavailableError; the caller is expected to abort.
func Load(dir, labelFile, featureFile string) (*Data, error) {
	labels, err := loadLabels(filepath.Join(dir, labelFile))
	if err != nil {
		return nil, err
	}

	features, names, err := loadFeatures(filepath.Join(dir, featureFile))
	if err != nil {
		return nil, err
	}

	r, _ := features.Dims()
	if r != labels.Len() {
		return nil, errors.NewDataUnavailableError(featureFile,
			"row count does not match label table: "+strconv.Itoa(r)+" vs "+strconv.Itoa(labels.Len()), nil)
	}

	return &Data{X: features, Y: labels, FeatureNames: names}, nil
}

// loadLabels reads the label table and extracts the Class column.
func loadLabels(path string) (*mat.VecDense, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	classIdx := -1
	for i, name := range header {
		if name == LabelColumn {
			classIdx = i
			break
		}
	}
	if classIdx < 0 {
		return nil, errors.NewDataUnavailableError(path, "missing '"+LabelColumn+"' column", nil)
	}

	labels := make([]float64, len(rows))
	for i, row := range rows {
		if classIdx >= len(row) {
			return nil, errors.NewDataUnavailableError(path, "short row "+strconv.Itoa(i+1), nil)
		}
		v, err := strconv.ParseFloat(row[classIdx], 64)
		if err != nil {
			return nil, errors.NewDataUnavailableError(path, "non-numeric label in row "+strconv.Itoa(i+1), err)
		}
		if v != 0 && v != 1 {
			return nil, errors.NewDataUnavailableError(path, "label must be 0 or 1, row "+strconv.Itoa(i+1), nil)
		}
		labels[i] = v
	}
	if len(labels) == 0 {
		return nil, errors.NewDataUnavailableError(path, "no samples", errors.ErrEmptyData)
	}

	return mat.NewVecDense(len(labels), labels), nil
}

// loadFeatures reads the feature table; every column must be numeric.
func loadFeatures(path string) (*mat.Dense, []string, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.NewDataUnavailableError(path, "no samples", errors.ErrEmptyData)
	}

	nCols := len(header)
	data := make([]float64, 0, len(rows)*nCols)
	for i, row := range rows {
		if len(row) != nCols {
			return nil, nil, errors.NewDataUnavailableError(path,
				"row "+strconv.Itoa(i+1)+" has "+strconv.Itoa(len(row))+" columns, expected "+strconv.Itoa(nCols), nil)
		}
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, errors.NewDataUnavailableError(path,
					"non-numeric value in row "+strconv.Itoa(i+1)+", column "+header[j], err)
			}
			data = append(data, v)
		}
	}

	return mat.NewDense(len(rows), nCols, data), header, nil
}

// readCSV reads a CSV file into a header and data rows.
func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewDataUnavailableError(path, "cannot open file", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.NewDataUnavailableError(path, "empty file", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, nil, errors.NewDataUnavailableError(path, "cannot read header", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.NewDataUnavailableError(path, "malformed CSV", err)
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}
