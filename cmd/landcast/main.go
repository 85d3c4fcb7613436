// Command landcast trains and compares four classifier families on the
// Falcon 9 landing dataset and persists a timestamped comparison report.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/orbitalml/landcast/config"
	"github.com/orbitalml/landcast/pipeline"
	"github.com/orbitalml/landcast/pkg/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "landcast",
		Short:         "Falcon 9 first-stage landing prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		cfgPath  string
		dataDir  string
		outDir   string
		seed     int64
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full train/evaluate/report pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("out-dir") {
				cfg.OutDir = outDir
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log.SetupLogger(cfg.LogLevel)

			res, err := pipeline.Run(cfg)
			if err != nil {
				slog.Error("pipeline failed", log.ErrAttr(err))
				return err
			}

			fmt.Printf("Best model by test accuracy: %s (%.4f)\n",
				res.BestByTest.Family, res.BestByTest.Accuracy)
			fmt.Printf("Best model by CV accuracy:   %s (%.4f)\n",
				res.BestByCV.Family, res.BestByCV.CVAccuracy)
			fmt.Printf("Comparison table: %s\n", res.ComparisonPath)
			fmt.Printf("Detailed results: %s\n", res.DetailedPath)
			if res.ROCPath != "" {
				fmt.Printf("ROC curves:       %s\n", res.ROCPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory holding the input CSV files")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory receiving the result files")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for split, folds and model init")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	return cmd
}
