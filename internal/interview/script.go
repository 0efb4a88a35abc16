// Package interview builds the scripted screening call and submits it to the calling service.
package interview

import (
	"fmt"
	"strings"

	"github.com/jonathan/screening-agent/internal/prompts"
	"github.com/jonathan/screening-agent/internal/telephony"
	"github.com/jonathan/screening-agent/internal/types"
)

// Call configuration sent with every screening call
const (
	ExpectedQuestions     = 7
	firstContextQuestion  = 3
	callLanguage          = "eng"
	callModel             = "base"
	maxDurationMinutes    = 7
	interruptionThreshold = 170
	callTemperature       = 0.5
)

// Settings are the fixed, deployment-specific parts of the script.
type Settings struct {
	Company   string
	AgentName string
	SalaryCap string
}

// BuildTask renders the call outline: introduction, the two fixed questions with their
// follow-ups, the numbered context questions, the closing script and the candidate details.
func BuildTask(req *types.InterviewRequest, s Settings) (string, error) {
	return prompts.Render(prompts.InterviewFile, "call-task", map[string]string{
		"SalaryCap":     s.SalaryCap,
		"Questions":     numberQuestions(req.Questions),
		"CandidateName": req.CandidateName,
		"JobRole":       req.JobRole,
		"Summary":       req.Summary,
	})
}

// BuildGreeting renders the first sentence the agent speaks.
func BuildGreeting(req *types.InterviewRequest, s Settings) (string, error) {
	return prompts.Render(prompts.InterviewFile, "first-sentence", map[string]string{
		"CandidateName": req.CandidateName,
		"AgentName":     s.AgentName,
		"Company":       s.Company,
		"JobRole":       req.JobRole,
	})
}

// BuildCallRequest assembles the complete create-call payload.
func BuildCallRequest(req *types.InterviewRequest, s Settings) (*telephony.CallRequest, error) {
	task, err := BuildTask(req, s)
	if err != nil {
		return nil, err
	}
	greeting, err := BuildGreeting(req, s)
	if err != nil {
		return nil, err
	}
	summaryPrompt, err := prompts.Get(prompts.InterviewFile, "summary-prompt")
	if err != nil {
		return nil, err
	}
	analysisPrompt, err := prompts.Get(prompts.InterviewFile, "analysis-prompt")
	if err != nil {
		return nil, err
	}

	return &telephony.CallRequest{
		PhoneNumber:           req.PhoneNo,
		Task:                  task,
		FirstSentence:         greeting,
		WaitForGreeting:       true,
		Model:                 callModel,
		Tools:                 []any{},
		Record:                true,
		VoiceSettings:         map[string]any{},
		Language:              callLanguage,
		AnsweredByEnabled:     true,
		InterruptionThreshold: interruptionThreshold,
		Temperature:           callTemperature,
		AMD:                   false,
		MaxDuration:           maxDurationMinutes,
		SummaryPrompt:         summaryPrompt,
		AnalysisPrompt:        analysisPrompt,
		AnalysisSchema: map[string]string{
			"notice_period":        "notice_period",
			"current_compensation": "current_compensation",
		},
	}, nil
}

// numberQuestions lists the context questions after the two fixed ones.
func numberQuestions(questions []string) string {
	lines := make([]string, 0, len(questions))
	for i, q := range questions {
		lines = append(lines, fmt.Sprintf("  Question %d: %q", i+firstContextQuestion, strings.TrimSpace(q)))
	}
	return strings.Join(lines, "\n")
}
