package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/calls"
	"github.com/jonathan/screening-agent/internal/recordings"
	"github.com/jonathan/screening-agent/internal/types"
)

// handleInterview places a screening call.
func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	var req types.InterviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	result, err := s.deps.Dispatcher.Dispatch(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err, "Missing required fields")
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleCallStatus reports the state of the most recent call.
func (s *Server) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Calls.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err, callErrorMessage(err, "No calls found", "Error fetching call status"))
		return
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// handleCalls downloads and transcribes the most recent completed call.
func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Calls.FetchLatestRecording(r.Context())
	if err != nil {
		s.writeError(w, r, err, callErrorMessage(err, "No completed calls with recordings found", "Error fetching call recording"))
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleRecording streams a stored recording. Range requests are honoured.
func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	if s.deps.Recordings == nil {
		s.errorResponse(w, http.StatusNotFound, "Recording not found")
		return
	}

	f, info, err := s.deps.Recordings.Open(r.PathValue("filename"))
	if err != nil {
		if HTTPStatus(err) == http.StatusNotFound {
			s.errorResponse(w, http.StatusNotFound, "Recording not found")
			return
		}
		s.writeError(w, r, err, "Error reading recording")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", recordings.ContentType(info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// handleTranscribe stores an uploaded recording and returns its conversation.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, calls.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(calls.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "No audio file uploaded")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "No audio file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > calls.MaxUploadBytes {
		s.errorResponse(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
		return
	}

	result, err := s.deps.Calls.TranscribeUpload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		message := "Error processing audio file"
		if HTTPStatus(err) == http.StatusBadRequest {
			message = calls.InvalidTypeMessage
		}
		s.writeError(w, r, err, message)
		return
	}

	s.log.Info("upload transcribed",
		zap.String("file", result.RecordingFile),
		zap.Float64("duration", result.Metadata.Duration))
	s.jsonResponse(w, http.StatusOK, result)
}

// handleFinalEval grades a finished interview.
func (s *Server) handleFinalEval(w http.ResponseWriter, r *http.Request) {
	var req types.EvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: conversation must be an array and summary is required")
		return
	}

	result, err := s.deps.Evaluator.Evaluate(r.Context(), &req)
	if err != nil {
		message := "Error during evaluation"
		if HTTPStatus(err) == http.StatusBadRequest {
			message = "Invalid request: conversation must be an array and summary is required"
		}
		s.writeError(w, r, err, message)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// callErrorMessage picks the caller-facing message for a call lookup failure.
func callErrorMessage(err error, notFound, otherwise string) string {
	if HTTPStatus(err) == http.StatusNotFound {
		return notFound
	}
	return otherwise
}
