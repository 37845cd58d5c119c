package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/duynguyendang/coursepack/internal/config"
	"github.com/duynguyendang/coursepack/internal/logger"
	"github.com/duynguyendang/coursepack/pkg/export"
	"github.com/duynguyendang/coursepack/pkg/ingest"
	"github.com/duynguyendang/coursepack/pkg/records"
	"github.com/duynguyendang/coursepack/pkg/validate"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coursepack",
	Short: "Extract lessons, quizzes and questions from course HTML",
	Long: `Scans the configured input directory for lesson and quiz documents,
extracts normalized records and writes lessons.json, quizzes.json,
questions.json and validation_report.txt to the output directory.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

var failOnError bool

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Re-validate previously written artifacts",
	Long: `Loads lessons.json, quizzes.json and questions.json from dir (default:
the configured output directory) and prints a fresh validation report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	validateCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when the report has errors")
	rootCmd.AddCommand(validateCmd)
}

func setup() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, log, nil
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log.Info("starting extraction", "input", cfg.InputDir, "output", cfg.OutputDir, "workers", cfg.Workers)
	res, err := ingest.New(ingest.DirSource{Root: cfg.InputDir}, cfg, log).Run(ctx)
	if err != nil {
		log.Error("extraction failed", "input", cfg.InputDir, "error", err)
		return err
	}

	if err := export.WriteAll(cfg.OutputDir, res.Batch, res.Report); err != nil {
		log.Error("writing artifacts failed", "output", cfg.OutputDir, "error", err)
		return err
	}
	log.Info("artifacts written", "dir", cfg.OutputDir)

	return res.Report.Render(cmd.OutOrStdout())
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	dir := cfg.OutputDir
	if len(args) == 1 {
		dir = args[0]
	}

	batch, err := export.LoadBatch(dir)
	if err != nil {
		return err
	}
	ingest.SortBatch(&batch)

	report := validate.Validate(batch)
	// One accepted record per document; failed documents left no artifact.
	report.Documents = len(batch.Lessons) + len(batch.Quizzes)
	log.Info("validated artifacts", "dir", dir, "lessons", report.Lessons, "quizzes", report.Quizzes, "questions", report.Questions)
	if err := report.Render(cmd.OutOrStdout()); err != nil {
		return err
	}
	if failOnError {
		if n := report.Count(records.SeverityError); n > 0 {
			return fmt.Errorf("validation found %d errors", n)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
