// Package types provides type definitions for structured data used throughout the screening system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// CandidateProfile is a stored candidate record created when a resume is analyzed.
type CandidateProfile struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Phone      string         `json:"phone"`
	Role       string         `json:"role,omitempty"`
	ResumeText string         `json:"text"`
	Analysis   map[string]any `json:"analysis"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CandidateAnalysis is the typed view over the open-ended analysis map returned by the analyzer.
// Fields the model omits stay zero; the original map is always kept alongside.
type CandidateAnalysis struct {
	Summary      string   `mapstructure:"summary" json:"summary"`
	Name         string   `mapstructure:"name" json:"name"`
	Phone        string   `mapstructure:"phone_no" json:"phone_no"`
	Education    string   `mapstructure:"education" json:"education"`
	Experience   []string `mapstructure:"experience" json:"experience"`
	Skills       []string `mapstructure:"skills" json:"skills"`
	MatchRate    string   `mapstructure:"match_rate" json:"match_rate"`
	Rating       string   `mapstructure:"rating" json:"rating"`
	Decision     string   `mapstructure:"decision" json:"decision"`
	Reasons      []string `mapstructure:"reasons" json:"reasons"`
	Improvements []string `mapstructure:"improvements" json:"improvements,omitempty"`
	Questions    []string `mapstructure:"questions" json:"questions"`
}

// DecodeAnalysis builds the typed view of an analysis map.
// Decoding is weakly typed ("4" → "4", a lone string → one-element list) and best effort:
// fields that cannot be converted are left empty and reported in the returned error.
func DecodeAnalysis(raw map[string]any) (*CandidateAnalysis, error) {
	var out CandidateAnalysis
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return &out, err
	}
	err = decoder.Decode(raw)
	return &out, err
}
