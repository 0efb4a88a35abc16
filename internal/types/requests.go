package types

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/screening-agent/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// AnalyzeRequest is the input to the candidate analyzer.
type AnalyzeRequest struct {
	Text                   string   `json:"text" validate:"required"`
	Role                   string   `json:"role" validate:"required"`
	RequiredSkills         []string `json:"requiredSkills,omitempty"`
	ExperienceLevel        string   `json:"experienceLevel,omitempty"`
	AdditionalRequirements string   `json:"additionalRequirements,omitempty"`
}

// Validate trims the request and checks required fields.
func (r *AnalyzeRequest) Validate() error {
	r.Text = strings.TrimSpace(r.Text)
	r.Role = strings.TrimSpace(r.Role)
	return validateStruct(r)
}

// InterviewRequest is the input to the interview dispatcher.
type InterviewRequest struct {
	Summary       string   `json:"summary" validate:"required"`
	CandidateName string   `json:"candidate_name" validate:"required"`
	JobRole       string   `json:"job_role" validate:"required"`
	PhoneNo       string   `json:"phone_no" validate:"required"`
	Questions     []string `json:"questions" validate:"required,min=1"`
}

// Validate trims the request and checks required fields.
func (r *InterviewRequest) Validate() error {
	r.Summary = strings.TrimSpace(r.Summary)
	r.CandidateName = strings.TrimSpace(r.CandidateName)
	r.JobRole = strings.TrimSpace(r.JobRole)
	r.PhoneNo = strings.TrimSpace(r.PhoneNo)
	return validateStruct(r)
}

// EvaluationRequest is the input to the final evaluator.
type EvaluationRequest struct {
	Conversation  []Turn `json:"conversation" validate:"required,min=1"`
	Summary       string `json:"summary" validate:"required"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	CandidateName string `json:"candidate_name,omitempty"`
}

// Validate trims the request and checks required fields.
func (r *EvaluationRequest) Validate() error {
	r.Summary = strings.TrimSpace(r.Summary)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.CandidateName = strings.TrimSpace(r.CandidateName)
	return validateStruct(r)
}

// validateStruct runs the validator and converts the first failure into an apperr.ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "is required"
		if fe.Tag() == "min" {
			msg = "must not be empty"
		}
		return &apperr.ValidationError{Field: fe.Field(), Message: msg}
	}
	return &apperr.ValidationError{Message: err.Error()}
}
