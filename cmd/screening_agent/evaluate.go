package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-agent/internal/evaluation"
	"github.com/jonathan/screening-agent/internal/interviewlog"
	"github.com/jonathan/screening-agent/internal/observability"
	"github.com/jonathan/screening-agent/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <interview.json>",
	Short: "Grade a finished interview",
	Long: `Reads a JSON file shaped like the /finaleval request body ({conversation, summary}),
grades it and prints the conversation and the evaluation. The result is appended to the interview log
unless --no-log is set. No notification is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

var (
	evaluateSummary string
	evaluateNoLog   bool
)

func init() {
	evaluateCmd.Flags().StringVar(&evaluateSummary, "summary", "", "Resume summary (overrides the file's summary)")
	evaluateCmd.Flags().BoolVar(&evaluateNoLog, "no-log", false, "Do not append the result to the interview log")
	rootCmd.AddCommand(evaluateCmd)
}

// readEvaluationRequest loads an evaluation request from path. summary, when set, replaces the file's summary.
func readEvaluationRequest(path, summary string) (*types.EvaluationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var req types.EvaluationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if summary != "" {
		req.Summary = summary
	}
	return &req, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	req, err := readEvaluationRequest(args[0], evaluateSummary)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

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

	var opts []evaluation.Option
	if !evaluateNoLog {
		opts = append(opts, evaluation.WithRecorder(interviewlog.New(cfg.Storage.InterviewLogPath)))
	}

	result, err := evaluation.NewEvaluator(client, log, opts...).Evaluate(ctx, req)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintConversation(types.Conversation{Turns: result.Conversation})
	printer.PrintEvaluation(result.Evaluation)
	return nil
}
