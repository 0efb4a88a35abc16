package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/llm/llmtest"
	"github.com/jonathan/screening-agent/internal/types"
)

const sampleAnalysis = "```json\n" + `{
	"summary": "Summary of Candidate: strong Go engineer.\n\nConclusion: Accepted",
	"name": "Sam",
	"phone_no": "+15550001111",
	"skills": ["Go", "PostgreSQL"],
	"questions": ["Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7"],
	"culture_fit": "high"
}` + "\n```"

func TestAnalyze_Success(t *testing.T) {
	client := llmtest.Respond(sampleAnalysis)
	a := NewAnalyzer(client, nil)

	res, err := a.Analyze(context.Background(), &types.AnalyzeRequest{
		Text:           "Sam, Go engineer, +15550001111",
		Role:           "Backend Engineer",
		RequiredSkills: []string{"Go", "SQL"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", res.Role)
	assert.Equal(t, "Sam, Go engineer, +15550001111", res.Text)
	assert.Equal(t, "high", res.Analysis["culture_fit"], "unknown fields are preserved")
	require.NotNil(t, res.Candidate)
	assert.Equal(t, "Sam", res.Candidate.Name)
	assert.Len(t, res.Candidate.Questions, 7)

	assert.Equal(t, 1, client.Calls())
	prompt := client.LastPrompt()
	assert.Contains(t, prompt, "Backend Engineer")
	assert.Contains(t, prompt, "Go, SQL")
	assert.Contains(t, prompt, "Experience Level: Not specified")
	assert.NotContains(t, prompt, "{{.")
}

func TestAnalyze_ValidationBeforeCall(t *testing.T) {
	client := llmtest.Respond(sampleAnalysis)
	a := NewAnalyzer(client, nil)

	_, err := a.Analyze(context.Background(), &types.AnalyzeRequest{Text: "resume"})

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, client.Calls())
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	a := NewAnalyzer(llmtest.Fail(errors.New("quota exceeded")), nil)

	_, err := a.Analyze(context.Background(), &types.AnalyzeRequest{Text: "resume", Role: "Engineer"})

	var ue *apperr.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "llm", ue.Service)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnalyze_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "The candidate looks great!"},
		{"array", `["not", "an", "object"]`},
		{"empty object", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.Respond(tt.raw)
			a := NewAnalyzer(client, nil)

			_, err := a.Analyze(context.Background(), &types.AnalyzeRequest{Text: "resume", Role: "Engineer"})

			var me *apperr.MalformedResponseError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.raw, me.Raw)
			assert.Equal(t, 1, client.Calls(), "no retry")
		})
	}
}
