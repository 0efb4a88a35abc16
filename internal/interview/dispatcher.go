package interview

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/logger"
	"github.com/jonathan/screening-agent/internal/telephony"
	"github.com/jonathan/screening-agent/internal/types"
)

// CallCreator places outbound calls.
type CallCreator interface {
	CreateCall(ctx context.Context, req *telephony.CallRequest) (map[string]any, error)
}

// DispatchResult is returned once the calling service accepted the call.
type DispatchResult struct {
	Message  string         `json:"message"`
	Response map[string]any `json:"response"`
}

// Dispatcher submits screening calls.
type Dispatcher struct {
	calls    CallCreator
	settings Settings
	log      *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(calls CallCreator, settings Settings, log *zap.Logger) *Dispatcher {
	return &Dispatcher{calls: calls, settings: settings, log: logger.Service(log, "interview")}
}

// Dispatch validates the request and makes a single create-call request.
// Phone number format is left to the calling service.
func (d *Dispatcher) Dispatch(ctx context.Context, req *types.InterviewRequest) (*DispatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if n := len(req.Questions); n != ExpectedQuestions {
		d.log.Warn("unexpected number of interview questions",
			zap.Int("got", n), zap.Int("expected", ExpectedQuestions))
	}

	callReq, err := BuildCallRequest(req, d.settings)
	if err != nil {
		return nil, &apperr.InternalError{Message: "failed to build call script", Cause: err}
	}

	resp, err := d.calls.CreateCall(ctx, callReq)
	if err != nil {
		return nil, apperr.Upstream("telephony", "error initiating call", err)
	}

	d.log.Info("screening call initiated",
		zap.String("candidate", req.CandidateName),
		zap.String("role", req.JobRole))
	return &DispatchResult{Message: "Call initiated successfully!", Response: resp}, nil
}
