// Package evaluation produces the final hire decision for a completed interview.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/interviewlog"
	"github.com/jonathan/screening-agent/internal/llm"
	"github.com/jonathan/screening-agent/internal/logger"
	"github.com/jonathan/screening-agent/internal/notify"
	"github.com/jonathan/screening-agent/internal/prompts"
	"github.com/jonathan/screening-agent/internal/schemas"
	"github.com/jonathan/screening-agent/internal/types"
)

// Result is the evaluator output. Notification is nil when no notification was attempted.
type Result struct {
	Conversation []types.Turn      `json:"conversation"`
	Summary      string            `json:"summary"`
	Evaluation   *types.Evaluation `json:"evaluation"`
	Notification *notify.Result    `json:"notification,omitempty"`
}

// Recorder persists evaluated interviews.
type Recorder interface {
	Append(ctx context.Context, rec *interviewlog.Record) error
}

// Evaluator runs the evaluation prompt and the follow-up side effects.
type Evaluator struct {
	client   llm.Client
	recorder Recorder
	notifier notify.Notifier
	log      *zap.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRecorder appends every successful evaluation to r.
func WithRecorder(r Recorder) Option {
	return func(e *Evaluator) { e.recorder = r }
}

// WithNotifier sends the decision to candidates that supplied a phone number.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Evaluator) { e.notifier = n }
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(client llm.Client, log *zap.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{client: client, log: logger.Service(log, "evaluation")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// rawEvaluation accepts the loosely typed shapes models return.
type rawEvaluation struct {
	Strengths            []any          `json:"strengths"`
	AreasForImprovement  []any          `json:"areasForImprovement"`
	DetailedFeedback     map[string]any `json:"detailedFeedback"`
	SentimentAnalysis    map[string]any `json:"sentimentAnalysis"`
	RecommendedResources []any          `json:"recommendedResources"`
	AlternateRoles       []any          `json:"alternateRoles"`
	FinalDecision        struct {
		Decision        any            `json:"decision"`
		Ratings         map[string]any `json:"ratings"`
		ConfidenceScore any            `json:"confidenceScore"`
	} `json:"finalDecision"`
}

// Evaluate makes exactly one LLM call. Logging and notification failures never fail the request.
func (e *Evaluator) Evaluate(ctx context.Context, req *types.EvaluationRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, &apperr.InternalError{Message: "failed to build evaluation prompt", Cause: err}
	}

	raw, err := e.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, apperr.Upstream("llm", "error during evaluation", err)
	}

	eval, err := decode(raw)
	if err != nil {
		e.log.Warn("evaluation response rejected",
			zap.Error(err),
			zap.String("raw", logger.TruncateForLog(raw, 500)))
		return nil, err
	}

	e.log.Info("interview evaluated",
		zap.String("candidate", req.CandidateName),
		zap.String("decision", string(eval.FinalDecision.Decision)))

	res := &Result{Conversation: req.Conversation, Summary: req.Summary, Evaluation: eval}

	if e.recorder != nil {
		rec := &interviewlog.Record{
			CandidateName: req.CandidateName,
			Phone:         req.PhoneNumber,
			Summary:       req.Summary,
			Conversation:  req.Conversation,
			Evaluation:    *eval,
		}
		if err := e.recorder.Append(ctx, rec); err != nil {
			e.log.Error("failed to record interview", zap.Error(err))
		}
	}

	if req.PhoneNumber != "" && e.notifier != nil {
		n := e.notifier.Notify(ctx, notify.Message{
			Phone:         req.PhoneNumber,
			CandidateName: req.CandidateName,
			Decision:      eval.FinalDecision.Decision,
		})
		res.Notification = &n
	}

	return res, nil
}

func buildPrompt(req *types.EvaluationRequest) (string, error) {
	turns, err := json.MarshalIndent(req.Conversation, "", "  ")
	if err != nil {
		return "", err
	}
	return prompts.Render(prompts.EvaluationFile, "evaluate-interview", map[string]string{
		"Conversation": string(turns),
		"Summary":      req.Summary,
	})
}

func decode(raw string) (*types.Evaluation, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.Evaluation, []byte(cleaned)); err != nil {
		return nil, &apperr.MalformedResponseError{Message: "evaluation is missing required fields", Raw: raw, Cause: err}
	}

	var r rawEvaluation
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return nil, &apperr.MalformedResponseError{Message: "failed to parse evaluation JSON", Raw: raw, Cause: err}
	}

	feedback := make(map[string]string, len(r.DetailedFeedback))
	for k, v := range r.DetailedFeedback {
		feedback[k] = stringify(v)
	}

	return &types.Evaluation{
		Strengths:           toStrings(r.Strengths),
		AreasForImprovement: toStrings(r.AreasForImprovement),
		DetailedFeedback:    feedback,
		FinalDecision: types.FinalDecision{
			Decision:        types.ParseDecision(stringify(r.FinalDecision.Decision)),
			Ratings:         clampRatings(r.FinalDecision.Ratings),
			ConfidenceScore: stringify(r.FinalDecision.ConfidenceScore),
		},
		SentimentAnalysis:    r.SentimentAnalysis,
		RecommendedResources: toStrings(r.RecommendedResources),
		AlternateRoles:       toStrings(r.AlternateRoles),
	}, nil
}

func toStrings(items []any) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringify(item))
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
