// Package landcast predicts Falcon 9 first-stage landing success by
// training and comparing four classifier families on historical launch
// data.
//
// The pipeline loads a label table and a feature table, standardizes the
// features, holds out a stratified 20% test partition, grid-searches each
// family with 10-fold cross-validation and persists a timestamped
// comparison report.
//
// # Quick Start
//
// Run the full pipeline from the command line:
//
//	landcast run --data-dir data --out-dir results
//
// Or drive it programmatically:
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/orbitalml/landcast/config"
//	    "github.com/orbitalml/landcast/pipeline"
//	)
//
//	func main() {
//	    cfg := config.Default()
//	    cfg.DataDir = "data"
//
//	    res, err := pipeline.Run(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Printf("best by test accuracy: %s", res.BestByTest.Family)
//	}
//
// # Packages
//
//   - dataset: CSV loading of the label and feature tables
//   - preprocessing: standard scaling and the stratified train/test split
//   - linear_model, svm, tree, neighbors: the four classifier families
//   - model_selection: k-fold splitters, parameter grids and GridSearchCV
//   - metrics: classification metrics (accuracy, weighted P/R/F1, ROC-AUC,
//     log-loss, confusion matrix)
//   - evaluate: per-family metric records with explicit N/A handling
//   - report: comparison table, detailed results and ROC curve rendering
//   - pipeline: end-to-end orchestration
//   - core/model: estimator interfaces and fitted-state management
//
// # Determinism
//
// Every random choice (split membership, fold shuffling, model
// initialization) derives from the configured seed, so identical inputs
// and configuration always reproduce the same report.
package landcast
