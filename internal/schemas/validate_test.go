package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedSchemasCompile(t *testing.T) {
	for _, name := range []string{Analysis, Conversation, Evaluation} {
		err := Validate(name, []byte(`{}`))
		var le *SchemaLoadError
		assert.False(t, errors.As(err, &le), "%s: %v", name, err)
	}
}

func TestValidate_Conversation(t *testing.T) {
	assert.NoError(t, Validate(Conversation, []byte(`{"conversation": [{"speaker": "AI_HR", "text": "Hi"}]}`)))
	assert.NoError(t, Validate(Conversation, []byte(`{"conversation": []}`)))

	err := Validate(Conversation, []byte(`{"conversation": "not a list"}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields(), "conversation")

	err = Validate(Conversation, []byte(`{"turns": []}`))
	require.ErrorAs(t, err, &ve)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidate_Evaluation(t *testing.T) {
	valid := `{
		"strengths": ["clear"],
		"areasForImprovement": ["depth"],
		"detailedFeedback": {"communication": "good"},
		"finalDecision": {"decision": "Accepted", "ratings": {"communication": 4}, "confidenceScore": "High"}
	}`
	assert.NoError(t, Validate(Evaluation, []byte(valid)))

	loose := `{
		"strengths": [{"area": "Go"}, 3],
		"areasForImprovement": [null],
		"detailedFeedback": {},
		"finalDecision": {"decision": 1, "ratings": {}}
	}`
	assert.NoError(t, Validate(Evaluation, []byte(loose)), "item and decision types are left to the decoder")

	missing := `{"strengths": [], "areasForImprovement": [], "detailedFeedback": {}}`
	err := Validate(Evaluation, []byte(missing))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "finalDecision")

	noRatings := `{
		"strengths": [], "areasForImprovement": [], "detailedFeedback": {},
		"finalDecision": {"decision": "Rejected"}
	}`
	err = Validate(Evaluation, []byte(noRatings))
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "ratings")
}

func TestValidate_Analysis(t *testing.T) {
	assert.NoError(t, Validate(Analysis, []byte(`{"summary": "ok", "skills": ["Go"]}`)))
	assert.Error(t, Validate(Analysis, []byte(`[]`)))
	assert.Error(t, Validate(Analysis, []byte(`{}`)))
}

func TestValidate_NotJSON(t *testing.T) {
	var ve *ValidationError
	require.ErrorAs(t, Validate(Conversation, []byte(`not json`)), &ve)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing", []byte(`{}`))
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Path, "missing")
}
