package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/screening-agent/internal/analysis"
	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/calls"
	"github.com/jonathan/screening-agent/internal/config"
	"github.com/jonathan/screening-agent/internal/db"
	"github.com/jonathan/screening-agent/internal/evaluation"
	"github.com/jonathan/screening-agent/internal/interview"
	"github.com/jonathan/screening-agent/internal/interviewlog"
	"github.com/jonathan/screening-agent/internal/llm/llmtest"
	"github.com/jonathan/screening-agent/internal/notify"
	"github.com/jonathan/screening-agent/internal/recordings"
	"github.com/jonathan/screening-agent/internal/server/ratelimit"
	"github.com/jonathan/screening-agent/internal/transcription"
	"github.com/jonathan/screening-agent/internal/types"
)

const sampleAnalysis = "```json\n" + `{
	"summary": "Backend engineer with five years of Go",
	"name": "Sam Lee",
	"phone_no": "+15550001111",
	"skills": ["Go", "PostgreSQL"],
	"questions": ["How do you profile Go services?"]
}` + "\n```"

const sampleEvaluation = `{
	"strengths": ["clear communication"],
	"areasForImprovement": ["system design depth"],
	"detailedFeedback": {"communication": "good"},
	"finalDecision": {"decision": "Accepted", "ratings": {"communication": 7}, "confidenceScore": "High"}
}`

type fakeDispatcher struct {
	result *interview.DispatchResult
	err    error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req *types.InterviewRequest) (*interview.DispatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

type fakeSTT struct {
	transcript string
}

func (f *fakeSTT) Transcribe(_ context.Context, audio io.Reader, _ string) (*transcription.Result, error) {
	if _, err := io.Copy(io.Discard, audio); err != nil {
		return nil, err
	}
	return &transcription.Result{Transcript: f.transcript, Duration: 12.5, Channels: 1}, nil
}

type echoNormalizer struct{}

func (echoNormalizer) Normalize(_ context.Context, raw string) types.Conversation {
	return types.Conversation{Turns: []types.Turn{{Speaker: types.SpeakerInterviewer, Text: raw}}}
}

type fakeCalls struct {
	status *calls.StatusResult
	err    error
}

func (f *fakeCalls) Status(context.Context) (*calls.StatusResult, error) {
	return f.status, f.err
}

func (f *fakeCalls) FetchLatestRecording(context.Context) (*calls.RecordingResult, error) {
	return nil, f.err
}

func (f *fakeCalls) TranscribeUpload(context.Context, string, string, io.Reader) (*calls.UploadResult, error) {
	return nil, f.err
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) Notify(context.Context, notify.Message) notify.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return notify.Result{Success: true, Message: "sent"}
}

type failingStore struct {
	db.Store
}

func (failingStore) CreateCandidate(context.Context, *types.CandidateProfile) error {
	return &apperr.InternalError{Message: "disk full"}
}

func newSQLiteStore(t *testing.T) db.Store {
	t.Helper()
	store, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "candidates.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	s := New(Config{Port: 0, RateLimit: &ratelimit.Config{Enabled: false}}, deps)
	t.Cleanup(s.rateLimiter.Stop)
	return s.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func multipartRequest(t *testing.T, path, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Deps{})

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, Deps{})

	rec := doJSON(t, h, http.MethodOptions, "/analyze", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestAnalyze_MissingFields(t *testing.T) {
	client := llmtest.Respond(sampleAnalysis)
	h := newTestServer(t, Deps{Analyzer: analysis.NewAnalyzer(client, nil)})

	rec := doJSON(t, h, http.MethodPost, "/analyze", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing text or role", decodeBody(t, rec)["message"])
	assert.Zero(t, client.Calls())

	rec = doJSON(t, h, http.MethodPost, "/analyze", map[string]any{"text": "resume"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing text or role", decodeBody(t, rec)["message"])
}

func TestAnalyze_PersistsCandidate(t *testing.T) {
	store := newSQLiteStore(t)
	h := newTestServer(t, Deps{
		Analyzer:   analysis.NewAnalyzer(llmtest.Respond(sampleAnalysis), nil),
		Candidates: store,
	})

	rec := doJSON(t, h, http.MethodPost, "/analyze", map[string]any{
		"text": "Sam Lee, Go developer", "role": "Backend Engineer",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Backend Engineer", resp.Role)
	assert.Equal(t, "Sam Lee", resp.Analysis["name"])
	require.NotNil(t, resp.CandidateID)

	rec = doJSON(t, h, http.MethodGet, "/candidates/"+resp.CandidateID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored types.CandidateProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "Sam Lee", stored.Name)
	assert.Equal(t, "+15550001111", stored.Phone)
	assert.Equal(t, "Sam Lee, Go developer", stored.ResumeText)

	rec = doJSON(t, h, http.MethodGet, "/candidates/search/sam", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list CandidateListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestAnalyze_StoreFailureStillResponds(t *testing.T) {
	h := newTestServer(t, Deps{
		Analyzer:   analysis.NewAnalyzer(llmtest.Respond(sampleAnalysis), nil),
		Candidates: failingStore{},
	})

	rec := doJSON(t, h, http.MethodPost, "/analyze", map[string]any{"text": "resume", "role": "Engineer"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotContains(t, body, "candidate_id")
	assert.NotNil(t, body["analysis"])
}

func TestAnalyze_MalformedResponse(t *testing.T) {
	h := newTestServer(t, Deps{Analyzer: analysis.NewAnalyzer(llmtest.Respond("I cannot help with that"), nil)})

	rec := doJSON(t, h, http.MethodPost, "/analyze", map[string]any{"text": "resume", "role": "Engineer"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "I cannot help with that", body["rawContent"])
	assert.NotEmpty(t, body["error"])
}

func TestInterview(t *testing.T) {
	valid := map[string]any{
		"summary": "Go developer", "candidate_name": "Sam", "job_role": "Engineer",
		"phone_no": "+15550001111", "questions": []string{"Q1"},
	}

	t.Run("missing fields", func(t *testing.T) {
		h := newTestServer(t, Deps{Dispatcher: &fakeDispatcher{}})
		rec := doJSON(t, h, http.MethodPost, "/interview", map[string]any{"summary": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing required fields", decodeBody(t, rec)["message"])
	})

	t.Run("success", func(t *testing.T) {
		h := newTestServer(t, Deps{Dispatcher: &fakeDispatcher{result: &interview.DispatchResult{
			Message: "Call initiated successfully", Response: map[string]any{"call_id": "c1"},
		}}})
		rec := doJSON(t, h, http.MethodPost, "/interview", valid)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Call initiated successfully", body["message"])
		assert.Equal(t, "c1", body["response"].(map[string]any)["call_id"])
	})

	t.Run("upstream detail passed through", func(t *testing.T) {
		h := newTestServer(t, Deps{Dispatcher: &fakeDispatcher{err: &apperr.UpstreamError{
			Service: "telephony", Message: "rejected", Detail: map[string]any{"message": "invalid phone"},
		}}})
		rec := doJSON(t, h, http.MethodPost, "/interview", valid)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "invalid phone", body["error"].(map[string]any)["message"])
	})
}

func TestCallStatus(t *testing.T) {
	h := newTestServer(t, Deps{Calls: &fakeCalls{status: &calls.StatusResult{Status: types.CallCompleted, CallID: "c1"}}})
	rec := doJSON(t, h, http.MethodGet, "/calls/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "completed", body["status"])
	assert.Contains(t, body, "error")
	assert.Nil(t, body["error"])

	h = newTestServer(t, Deps{Calls: &fakeCalls{err: &apperr.NotFoundError{Resource: "call"}}})
	rec = doJSON(t, h, http.MethodGet, "/calls/status", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No calls found", decodeBody(t, rec)["message"])

	rec = doJSON(t, h, http.MethodGet, "/calls", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecording(t *testing.T) {
	store, err := recordings.NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save("call-1.mp3", bytes.NewReader([]byte("0123456789")))
	require.NoError(t, err)

	s := New(Config{RateLimit: &ratelimit.Config{Enabled: false}}, Deps{Recordings: store})
	t.Cleanup(s.rateLimiter.Stop)

	t.Run("range request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recordings/call-1.mp3", nil)
		req.Header.Set("Range", "bytes=0-3")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "0123", rec.Body.String())
		assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	})

	t.Run("absent", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/recordings/missing.mp3", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("traversal stays inside the directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recordings/x", nil)
		req.SetPathValue("filename", "../../etc/passwd")
		rec := httptest.NewRecorder()
		s.handleRecording(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("encoded traversal through the router", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "secret.mp3"), []byte("secret"), 0o600))
		nested, err := recordings.NewStore(filepath.Join(root, "a", "recordings"))
		require.NoError(t, err)
		srv := New(Config{RateLimit: &ratelimit.Config{Enabled: false}}, Deps{Recordings: nested})
		t.Cleanup(srv.rateLimiter.Stop)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recordings/..%2f..%2fsecret.mp3", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")

		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recordings/../../secret.mp3", nil))
		assert.NotEqual(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("traversal resolves to a stored base name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/recordings/x", nil)
		req.SetPathValue("filename", "../../call-1.mp3")
		rec := httptest.NewRecorder()
		s.handleRecording(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "0123456789", rec.Body.String())
	})
}

func TestTranscribe(t *testing.T) {
	dir := t.TempDir()
	store, err := recordings.NewStore(dir)
	require.NoError(t, err)
	retriever := calls.NewRetriever(nil, store, &fakeSTT{transcript: "hello there"}, echoNormalizer{}, nil)
	h := newTestServer(t, Deps{Calls: retriever})

	t.Run("wrong type", func(t *testing.T) {
		req := multipartRequest(t, "/transcribe", "audio", "notes.txt", "text/plain", []byte("hi"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, calls.InvalidTypeMessage, decodeBody(t, rec)["message"])
	})

	t.Run("no file", func(t *testing.T) {
		req := multipartRequest(t, "/transcribe", "other", "a.wav", "audio/wav", []byte("RIFF"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		req := multipartRequest(t, "/transcribe", "audio", "interview.wav", "audio/wav", []byte("RIFFdata"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp calls.UploadResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "hello there", resp.RawTranscription)
		assert.Equal(t, "interview.wav", resp.Metadata.OriginalFileName)
		require.Len(t, resp.StructuredConversation.Turns, 1)

		_, err := os.Stat(filepath.Join(dir, resp.RecordingFile))
		assert.NoError(t, err)
	})
}

func TestFinalEval(t *testing.T) {
	body := map[string]any{
		"conversation": []map[string]string{{"speaker": "AI_HR", "text": "Hi"}, {"speaker": "Candidate", "text": "Hello"}},
		"summary":      "Go developer",
		"phoneNumber":  "+15550001111",
	}

	t.Run("upstream failure", func(t *testing.T) {
		notifier := &countingNotifier{}
		e := evaluation.NewEvaluator(llmtest.Fail(errors.New("quota exceeded")), nil, evaluation.WithNotifier(notifier))
		h := newTestServer(t, Deps{Evaluator: e})

		rec := doJSON(t, h, http.MethodPost, "/finaleval", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeBody(t, rec)
		assert.Equal(t, "Error during evaluation", resp["message"])
		assert.NotEmpty(t, resp["error"])
		assert.Zero(t, notifier.calls)
	})

	t.Run("missing summary", func(t *testing.T) {
		client := llmtest.Respond(sampleEvaluation)
		h := newTestServer(t, Deps{Evaluator: evaluation.NewEvaluator(client, nil)})

		rec := doJSON(t, h, http.MethodPost, "/finaleval", map[string]any{"conversation": body["conversation"]})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, client.Calls())
	})

	t.Run("conversation not an array", func(t *testing.T) {
		h := newTestServer(t, Deps{Evaluator: evaluation.NewEvaluator(llmtest.Respond(sampleEvaluation), nil)})
		rec := doJSON(t, h, http.MethodPost, "/finaleval", map[string]any{"conversation": "hi", "summary": "s"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success notifies and logs", func(t *testing.T) {
		notifier := &countingNotifier{}
		log := interviewlog.New(filepath.Join(t.TempDir(), "interviews.jsonl"))
		e := evaluation.NewEvaluator(llmtest.Respond(sampleEvaluation), nil,
			evaluation.WithNotifier(notifier), evaluation.WithRecorder(log))
		h := newTestServer(t, Deps{Evaluator: e, Interviews: log})

		rec := doJSON(t, h, http.MethodPost, "/finaleval", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeBody(t, rec)
		eval := resp["evaluation"].(map[string]any)
		ratings := eval["finalDecision"].(map[string]any)["ratings"].(map[string]any)
		assert.EqualValues(t, 5, ratings["communication"])
		assert.Equal(t, true, resp["notification"].(map[string]any)["success"])
		assert.Equal(t, 1, notifier.calls)

		rec = doJSON(t, h, http.MethodGet, "/interviews", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list InterviewListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 1, list.Count)
		assert.Equal(t, "Go developer", list.Interviews[0].Summary)
	})
}

func TestCandidates(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := newTestServer(t, Deps{})
		assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, h, http.MethodGet, "/candidates", nil).Code)
		assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, h, http.MethodGet, "/interviews", nil).Code)
	})

	store := newSQLiteStore(t)
	h := newTestServer(t, Deps{Candidates: store})

	t.Run("bad id", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/candidates/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("absent", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/candidates/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Candidate not found", decodeBody(t, rec)["message"])
	})

	t.Run("list with limit", func(t *testing.T) {
		for _, name := range []string{"Ana", "Ben", "Cy"} {
			require.NoError(t, store.CreateCandidate(context.Background(), &types.CandidateProfile{Name: name}))
		}
		rec := doJSON(t, h, http.MethodGet, "/candidates?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list CandidateListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 2, list.Count)

		rec = doJSON(t, h, http.MethodGet, "/candidates?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("search without match", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/candidates/search/zzz", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list CandidateListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, 0, list.Count)
		assert.NotNil(t, list.Candidates)
	})
}

func TestDocuments(t *testing.T) {
	h := newTestServer(t, Deps{})

	t.Run("text resume via file field", func(t *testing.T) {
		req := multipartRequest(t, "/documents", "file", "resume.txt", "text/plain", []byte("Sam Lee\n\nGo developer"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, decodeBody(t, rec)["text"], "Go developer")
	})

	t.Run("no file", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/documents", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No file uploaded", decodeBody(t, rec)["message"])
	})

	t.Run("unsupported type", func(t *testing.T) {
		req := multipartRequest(t, "/documents", "resume", "resume.exe", "application/octet-stream", []byte("MZ"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed pdf", func(t *testing.T) {
		req := multipartRequest(t, "/documents", "resume", "resume.pdf", "application/pdf", []byte("not a pdf"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Error processing document", decodeBody(t, rec)["message"])
	})
}

func TestAuth(t *testing.T) {
	jwtService := NewJWTService(&config.JWTConfig{Secret: "test-secret-key-for-jwt-signing-minimum-32-bytes", ExpirationHours: 1})
	h := newTestServer(t, Deps{JWT: jwtService, Candidates: newSQLiteStore(t)})

	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, h, http.MethodGet, "/candidates", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodOptions, "/candidates", nil).Code)

	token, err := jwtService.GenerateToken("priya")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/candidates", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/interview", Method: http.MethodPost, Limit: 1, Window: time.Hour, Burst: 1},
		},
	}
	s := New(Config{RateLimit: cfg}, Deps{Dispatcher: &fakeDispatcher{}})
	t.Cleanup(s.rateLimiter.Stop)

	first := doJSON(t, s.Handler(), http.MethodPost, "/interview", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := doJSON(t, s.Handler(), http.MethodPost, "/interview", map[string]any{})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody(t, second)["error"])
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := New(Config{Port: 0, RateLimit: &ratelimit.Config{Enabled: false}}, Deps{})
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
