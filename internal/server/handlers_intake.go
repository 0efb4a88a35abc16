package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/analysis"
	"github.com/jonathan/screening-agent/internal/ingestion"
	"github.com/jonathan/screening-agent/internal/types"
)

// maxDocumentBytes caps resume uploads.
const maxDocumentBytes = 10 << 20

// documentFields are the multipart fields a resume may arrive in, in order of preference.
var documentFields = []string{"resume", "file"}

// DocumentResponse is the response for /documents
type DocumentResponse struct {
	Text string `json:"text"`
}

// AnalyzeResponse is the response for /analyze
type AnalyzeResponse struct {
	Role        string         `json:"role"`
	Text        string         `json:"text"`
	Analysis    map[string]any `json:"analysis"`
	CandidateID *uuid.UUID     `json:"candidate_id,omitempty"`
}

// handleDocuments extracts the text of an uploaded resume.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes+(1<<20))
	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, ok := firstFormFile(r, documentFields)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	if _, supported := ingestion.DetectFormat(header.Filename); !supported {
		s.errorResponse(w, http.StatusBadRequest, "Unsupported file type. Upload a PDF, DOCX, HTML or text resume.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	text, err := ingestion.ExtractText(data, header.Filename)
	if err != nil {
		s.log.Warn("document extraction failed", zap.String("file", header.Filename), zap.Error(err))
		s.jsonResponse(w, http.StatusInternalServerError, errorBody{Message: "Error processing document", Error: err.Error()})
		return
	}

	s.jsonResponse(w, http.StatusOK, DocumentResponse{Text: text})
}

// handleAnalyze analyzes resume text against a role and stores the candidate.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Missing text or role")
		return
	}

	result, err := s.deps.Analyzer.Analyze(r.Context(), &req)
	if err != nil {
		message := "Error analyzing resume"
		if HTTPStatus(err) == http.StatusBadRequest {
			message = "Missing text or role"
		}
		s.writeError(w, r, err, message)
		return
	}

	resp := AnalyzeResponse{Role: result.Role, Text: result.Text, Analysis: result.Analysis}
	if id, ok := s.storeCandidate(r, result); ok {
		resp.CandidateID = &id
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// storeCandidate persists an analysis. Failures are logged; the analysis is still returned.
func (s *Server) storeCandidate(r *http.Request, result *analysis.Result) (uuid.UUID, bool) {
	if s.deps.Candidates == nil {
		return uuid.Nil, false
	}

	profile := &types.CandidateProfile{
		Role:       result.Role,
		ResumeText: result.Text,
		Analysis:   result.Analysis,
	}
	if result.Candidate != nil {
		profile.Name = result.Candidate.Name
		profile.Phone = result.Candidate.Phone
	}

	if err := s.deps.Candidates.CreateCandidate(r.Context(), profile); err != nil {
		s.log.Error("failed to store candidate", zap.String("role", result.Role), zap.Error(err))
		return uuid.Nil, false
	}
	return profile.ID, true
}

// firstFormFile returns the first present file among fields.
func firstFormFile(r *http.Request, fields []string) (multipart.File, *multipart.FileHeader, bool) {
	for _, field := range fields {
		file, header, err := r.FormFile(field)
		if err == nil {
			return file, header, true
		}
	}
	return nil, nil, false
}

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
