package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared across components
const (
	FieldService  = "service"
	FieldProvider = "llm_provider"
	FieldModel    = "llm_model"
	FieldCallID   = "call_id"
)

// Service tags a logger with the upstream or component name.
func Service(l *zap.Logger, name string) *zap.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return OrNop(l)
	}
	return OrNop(l).With(zap.String(FieldService, name))
}

// ModelFields returns the provider and model fields, omitting empty values.
func ModelFields(provider, model string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if p := strings.TrimSpace(provider); p != "" {
		fields = append(fields, zap.String(FieldProvider, p))
	}
	if m := strings.TrimSpace(model); m != "" {
		fields = append(fields, zap.String(FieldModel, m))
	}
	return fields
}
