package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/config"
	"github.com/jonathan/screening-agent/internal/llm"
	"github.com/jonathan/screening-agent/internal/logger"
)

// loadConfig reads the configuration named by --config, layered under the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// newLLMClient creates the generative-text client for the configured provider.
func newLLMClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Client, error) {
	provider := llm.ParseProvider(cfg.LLM.Provider)
	apiKey := cfg.LLM.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("API key for llm provider %q is not set", provider)
	}

	llmCfg := llm.ConfigFor(provider)
	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	log.Info("llm client ready", logger.ModelFields(string(provider), llmCfg.GetModel(llm.TierStandard))...)
	return client, nil
}
