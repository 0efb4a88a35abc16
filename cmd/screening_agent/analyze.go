package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/analysis"
	"github.com/jonathan/screening-agent/internal/db"
	"github.com/jonathan/screening-agent/internal/observability"
	"github.com/jonathan/screening-agent/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Screen one or more resumes against a role",
	Long: `Extracts and analyzes every resume concurrently and prints one summary box per candidate.

When --store is set, each analysis is also saved as a candidate in DATABASE_URL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeRole         string
	analyzeSkills       []string
	analyzeLevel        string
	analyzeRequirements string
	analyzeConcurrency  int
	analyzeStore        bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeRole, "role", "r", "", "Target role (required)")
	analyzeCmd.Flags().StringSliceVar(&analyzeSkills, "skills", nil, "Required skills, comma separated")
	analyzeCmd.Flags().StringVar(&analyzeLevel, "level", "", "Experience level, e.g. senior")
	analyzeCmd.Flags().StringVar(&analyzeRequirements, "requirements", "", "Additional free-text requirements")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", pipeline.DefaultConcurrency, "Number of resumes analyzed at once")
	analyzeCmd.Flags().BoolVar(&analyzeStore, "store", false, "Save each analysis as a candidate")
	_ = analyzeCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := newLLMClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	opts := pipeline.ScreenOptions{
		Files:                  args,
		Role:                   analyzeRole,
		RequiredSkills:         analyzeSkills,
		ExperienceLevel:        analyzeLevel,
		AdditionalRequirements: analyzeRequirements,
		Concurrency:            analyzeConcurrency,
		Logger:                 log,
		OnProgress: func(e pipeline.ProgressEvent) {
			log.Debug("screening progress", zap.String("file", e.File), zap.String("step", e.Step), zap.String("message", e.Message))
		},
	}
	if analyzeStore {
		store, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	results, err := pipeline.ScreenFiles(ctx, analysis.NewAnalyzer(client, log), opts)
	if err != nil {
		return err
	}

	return printScreening(observability.NewPrinter(cmd.OutOrStdout()), analyzeRole, results)
}

// printScreening prints a box per analyzed candidate and a closing summary.
// It fails when every file failed.
func printScreening(printer *observability.Printer, role string, results []pipeline.FileResult) error {
	lines := make([]observability.ScreeningLine, 0, len(results))
	failed := 0
	for _, res := range results {
		line := observability.ScreeningLine{File: res.File, Err: res.Err}
		if res.Err != nil {
			failed++
		} else if res.Result != nil && res.Result.Candidate != nil {
			printer.PrintCandidateAnalysis(role, res.Result.Candidate)
			line.Name = res.Result.Candidate.Name
			line.Decision = res.Result.Candidate.Decision
		}
		lines = append(lines, line)
	}
	printer.PrintScreeningSummary(lines)

	if failed > 0 && failed == len(results) {
		return errors.New("no resume could be analyzed")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d resumes failed", failed, len(results))
	}
	return nil
}
