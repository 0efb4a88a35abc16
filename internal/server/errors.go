package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/apperr"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Message    string `json:"message"`
	Error      any    `json:"error,omitempty"`
	RawContent string `json:"rawContent,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *apperr.ValidationError
		notFoundErr   *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorBodyFor builds the response body for err. Upstream detail and raw
// model output are passed through so callers can diagnose provider failures.
func errorBodyFor(err error, message string) errorBody {
	body := errorBody{Message: message}

	var (
		upstreamErr  *apperr.UpstreamError
		malformedErr *apperr.MalformedResponseError
		notFoundErr  *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &malformedErr):
		body.Error = malformedErr.Error()
		body.RawContent = malformedErr.Raw
	case errors.As(err, &upstreamErr):
		if upstreamErr.Detail != nil {
			body.Error = upstreamErr.Detail
		} else {
			body.Error = upstreamErr.Error()
		}
	case errors.As(err, &notFoundErr):
		body.Error = notFoundErr.Error()
	default:
		body.Error = err.Error()
	}
	return body
}

// writeError logs err and writes it with the status HTTPStatus picks.
// message is the caller-facing summary; validation failures use it verbatim.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	} else {
		s.log.Debug("request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	if status == http.StatusBadRequest {
		s.jsonResponse(w, status, errorBody{Message: message})
		return
	}
	s.jsonResponse(w, status, errorBodyFor(err, message))
}

// errorResponse writes a plain message with the given status.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, errorBody{Message: message})
}
