package types

import "strings"

// Decision is the final hire outcome of an interview evaluation.
type Decision string

// Decision values
const (
	DecisionAccepted Decision = "Accepted"
	DecisionRejected Decision = "Rejected"
)

// ParseDecision normalizes a model-provided decision label.
// Anything that does not start with "accept" is treated as a rejection.
func ParseDecision(label string) Decision {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), "accept") {
		return DecisionAccepted
	}
	return DecisionRejected
}

// Rating bounds for every evaluation category.
const (
	MinRating = 1
	MaxRating = 5
)

// FinalDecision holds the decision, per-category ratings and the model's confidence label.
type FinalDecision struct {
	Decision        Decision       `json:"decision"`
	Ratings         map[string]int `json:"ratings"`
	ConfidenceScore string         `json:"confidenceScore"`
}

// Evaluation is the structured result of the final interview evaluation.
type Evaluation struct {
	Strengths            []string          `json:"strengths"`
	AreasForImprovement  []string          `json:"areasForImprovement"`
	DetailedFeedback     map[string]string `json:"detailedFeedback"`
	FinalDecision        FinalDecision     `json:"finalDecision"`
	SentimentAnalysis    map[string]any    `json:"sentimentAnalysis,omitempty"`
	RecommendedResources []string          `json:"recommendedResources,omitempty"`
	AlternateRoles       []string          `json:"alternateRoles,omitempty"`
}
