// Package analysis turns resume text into a structured candidate analysis using the LLM.
package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/llm"
	"github.com/jonathan/screening-agent/internal/logger"
	"github.com/jonathan/screening-agent/internal/prompts"
	"github.com/jonathan/screening-agent/internal/schemas"
	"github.com/jonathan/screening-agent/internal/types"
)

const notSpecified = "Not specified"

// Result is the analyzer output. Analysis holds every field the model returned;
// Candidate is the typed view of the well-known ones.
type Result struct {
	Role      string                   `json:"role"`
	Text      string                   `json:"text"`
	Analysis  map[string]any           `json:"analysis"`
	Candidate *types.CandidateAnalysis `json:"-"`
}

// Analyzer runs the resume analysis prompt.
type Analyzer struct {
	client llm.Client
	log    *zap.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger disables logging.
func NewAnalyzer(client llm.Client, log *zap.Logger) *Analyzer {
	return &Analyzer{client: client, log: logger.Service(log, "analysis")}
}

// Analyze makes exactly one LLM call for the request. It does not retry.
func (a *Analyzer) Analyze(ctx context.Context, req *types.AnalyzeRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, &apperr.InternalError{Message: "failed to build analysis prompt", Cause: err}
	}

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, apperr.Upstream("llm", "error analyzing resume", err)
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.Analysis, []byte(cleaned)); err != nil {
		a.log.Warn("analysis response rejected",
			zap.Error(err),
			zap.String("raw", logger.TruncateForLog(raw, 500)))
		return nil, &apperr.MalformedResponseError{Message: "analysis is not a JSON object", Raw: raw, Cause: err}
	}

	var analysis map[string]any
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, &apperr.MalformedResponseError{Message: "failed to parse analysis JSON", Raw: raw, Cause: err}
	}

	candidate, err := types.DecodeAnalysis(analysis)
	if err != nil {
		a.log.Debug("analysis has fields outside the typed view", zap.Error(err))
	}

	return &Result{
		Role:      req.Role,
		Text:      req.Text,
		Analysis:  analysis,
		Candidate: candidate,
	}, nil
}

func buildPrompt(req *types.AnalyzeRequest) (string, error) {
	return prompts.Render(prompts.AnalysisFile, "analyze-resume", map[string]string{
		"Role":                   req.Role,
		"ResumeText":             req.Text,
		"RequiredSkills":         orNotSpecified(strings.Join(req.RequiredSkills, ", ")),
		"ExperienceLevel":        orNotSpecified(req.ExperienceLevel),
		"AdditionalRequirements": orNotSpecified(req.AdditionalRequirements),
	})
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
