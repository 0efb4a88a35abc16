package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/analysis"
	"github.com/jonathan/screening-agent/internal/calls"
	"github.com/jonathan/screening-agent/internal/config"
	"github.com/jonathan/screening-agent/internal/conversation"
	"github.com/jonathan/screening-agent/internal/db"
	"github.com/jonathan/screening-agent/internal/evaluation"
	"github.com/jonathan/screening-agent/internal/ingestion"
	"github.com/jonathan/screening-agent/internal/interview"
	"github.com/jonathan/screening-agent/internal/interviewlog"
	"github.com/jonathan/screening-agent/internal/notify"
	"github.com/jonathan/screening-agent/internal/recordings"
	"github.com/jonathan/screening-agent/internal/server"
	"github.com/jonathan/screening-agent/internal/server/ratelimit"
	"github.com/jonathan/screening-agent/internal/telephony"
	"github.com/jonathan/screening-agent/internal/transcription"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the resume analysis, interview and evaluation endpoints.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 5000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	if err := ingestion.SetLicenseKey(cfg.Documents.PDFLicenseKey); err != nil {
		log.Warn("failed to install PDF license key", zap.Error(err))
	}

	client, err := newLLMClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := recordings.NewStore(cfg.Storage.RecordingsDir)
	if err != nil {
		return err
	}

	interviews := interviewlog.New(cfg.Storage.InterviewLogPath)
	phone := telephony.NewClient(cfg.Bland.BaseURL, cfg.Bland.APIKey, telephony.WithLogger(log))
	stt := transcription.NewClient(cfg.Deepgram.BaseURL, cfg.Deepgram.APIKey, transcription.WithLogger(log))
	normalizer := conversation.NewNormalizer(client, conversation.DefaultTimeout, log)

	evalOpts := []evaluation.Option{evaluation.WithRecorder(interviews)}
	if notifier := newNotifier(cfg, log); notifier != nil {
		evalOpts = append(evalOpts, evaluation.WithNotifier(notifier))
	}

	script := interview.Settings{
		Company:   cfg.Interview.Company,
		AgentName: cfg.Interview.AgentName,
		SalaryCap: cfg.Interview.SalaryCap,
	}

	deps := server.Deps{
		Analyzer:   analysis.NewAnalyzer(client, log),
		Dispatcher: interview.NewDispatcher(phone, script, log),
		Calls:      calls.NewRetriever(phone, recs, stt, normalizer, log),
		Evaluator:  evaluation.NewEvaluator(client, log, evalOpts...),
		Candidates: store,
		Recordings: recs,
		Interviews: interviews,
		Logger:     log,
	}
	if cfg.JWT.Enabled() {
		deps.JWT = server.NewJWTService(&cfg.JWT)
		log.Info("recruiter bearer auth enabled")
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		RateLimit: ratelimit.FromConfig(cfg.RateLimit),
	}, deps)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// newNotifier returns the Twilio notifier, or nil when no credentials are configured.
func newNotifier(cfg *config.Config, log *zap.Logger) notify.Notifier {
	if !cfg.Twilio.Enabled() {
		log.Info("candidate notifications disabled")
		return nil
	}
	return notify.NewTwilioNotifier(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, notify.TwilioConfig{
		Channel:        notify.Channel(cfg.Twilio.Channel),
		FromNumber:     cfg.Twilio.FromNumber,
		WhatsAppNumber: cfg.Twilio.WhatsAppNumber,
		ContentSID:     cfg.Twilio.ContentSID,
	}, log)
}
