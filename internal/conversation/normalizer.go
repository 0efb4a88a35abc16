// Package conversation turns a raw call transcript into speaker-labelled turns.
package conversation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/llm"
	"github.com/jonathan/screening-agent/internal/logger"
	"github.com/jonathan/screening-agent/internal/prompts"
	"github.com/jonathan/screening-agent/internal/schemas"
	"github.com/jonathan/screening-agent/internal/types"
)

// DefaultTimeout bounds the LLM call made for one transcript.
const DefaultTimeout = 30 * time.Second

// Normalizer labels transcript turns with the LLM. It never fails:
// whatever goes wrong, the caller gets the raw transcript as a single interviewer turn.
type Normalizer struct {
	client  llm.Client
	timeout time.Duration
	log     *zap.Logger
}

// NewNormalizer creates a Normalizer. A non-positive timeout selects DefaultTimeout.
func NewNormalizer(client llm.Client, timeout time.Duration, log *zap.Logger) *Normalizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Normalizer{client: client, timeout: timeout, log: logger.Service(log, "conversation")}
}

// Normalize structures raw. Empty input yields an empty conversation without calling the LLM.
func (n *Normalizer) Normalize(ctx context.Context, raw string) types.Conversation {
	if strings.TrimSpace(raw) == "" {
		return types.NewConversation()
	}

	conv, err := n.structure(ctx, raw)
	if err != nil {
		n.log.Warn("falling back to unstructured transcript", zap.Error(err))
		return types.FallbackConversation(raw)
	}
	return conv
}

func (n *Normalizer) structure(ctx context.Context, raw string) (types.Conversation, error) {
	prompt, err := prompts.Render(prompts.TranscriptFile, "structure-conversation", map[string]string{
		"Transcript": raw,
	})
	if err != nil {
		return types.Conversation{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	resp, err := n.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return types.Conversation{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.Conversation{}, err
	}

	cleaned := llm.CleanJSONBlock(resp)
	if err := schemas.Validate(schemas.Conversation, []byte(cleaned)); err != nil {
		n.log.Debug("conversation shape rejected", zap.String("raw", logger.TruncateForLog(resp, 500)))
		return types.Conversation{}, err
	}

	var conv types.Conversation
	if err := json.Unmarshal([]byte(cleaned), &conv); err != nil {
		return types.Conversation{}, err
	}
	if conv.Turns == nil {
		conv.Turns = []types.Turn{}
	}
	return conv, nil
}
