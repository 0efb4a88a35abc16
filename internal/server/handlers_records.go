package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/screening-agent/internal/interviewlog"
	"github.com/jonathan/screening-agent/internal/types"
)

// CandidateListResponse is the response for the candidate listing routes
type CandidateListResponse struct {
	Candidates []types.CandidateProfile `json:"candidates"`
	Count      int                      `json:"count"`
}

// InterviewListResponse is the response for /interviews
type InterviewListResponse struct {
	Interviews []interviewlog.Record `json:"interviews"`
	Count      int                   `json:"count"`
	Skipped    int                   `json:"skipped"`
}

// handleListCandidates lists stored candidates, newest first.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	if !s.requireCandidates(w) {
		return
	}
	limit, ok := s.parseLimit(w, r)
	if !ok {
		return
	}

	candidates, err := s.deps.Candidates.ListCandidates(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err, "Failed to list candidates")
		return
	}
	s.jsonResponse(w, http.StatusOK, CandidateListResponse{Candidates: candidates, Count: len(candidates)})
}

// handleGetCandidate returns one stored candidate.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	if !s.requireCandidates(w) {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid candidate ID")
		return
	}

	candidate, err := s.deps.Candidates.GetCandidate(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "Failed to get candidate")
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, candidate)
}

// handleSearchCandidates finds candidates by a case-insensitive name fragment.
func (s *Server) handleSearchCandidates(w http.ResponseWriter, r *http.Request) {
	if !s.requireCandidates(w) {
		return
	}

	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		s.errorResponse(w, http.StatusBadRequest, "Search name is required")
		return
	}
	limit, ok := s.parseLimit(w, r)
	if !ok {
		return
	}

	candidates, err := s.deps.Candidates.SearchCandidates(r.Context(), name, limit)
	if err != nil {
		s.writeError(w, r, err, "Failed to search candidates")
		return
	}
	s.jsonResponse(w, http.StatusOK, CandidateListResponse{Candidates: candidates, Count: len(candidates)})
}

// handleListInterviews returns every readable interview log record.
func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	if s.deps.Interviews == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Interview log is not configured")
		return
	}

	records, skipped, err := s.deps.Interviews.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to read interview log")
		return
	}
	if records == nil {
		records = []interviewlog.Record{}
	}
	s.jsonResponse(w, http.StatusOK, InterviewListResponse{Interviews: records, Count: len(records), Skipped: skipped})
}

func (s *Server) requireCandidates(w http.ResponseWriter) bool {
	if s.deps.Candidates == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Candidate storage is not configured")
		return false
	}
	return true
}

// parseLimit reads the optional limit query parameter. Zero returns every record.
func (s *Server) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		s.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
