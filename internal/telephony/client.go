// Package telephony is a client for the outbound-calling service.
package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/logger"
)

const (
	serviceName    = "telephony"
	DefaultBaseURL = "https://api.bland.ai"
	defaultTimeout = 60 * time.Second
)

// CallRequest is the create-call payload.
type CallRequest struct {
	PhoneNumber           string            `json:"phone_number"`
	Task                  string            `json:"task"`
	FirstSentence         string            `json:"first_sentence"`
	WaitForGreeting       bool              `json:"wait_for_greeting"`
	Model                 string            `json:"model"`
	Tools                 []any             `json:"tools"`
	Record                bool              `json:"record"`
	VoiceSettings         map[string]any    `json:"voice_settings"`
	Language              string            `json:"language"`
	AnsweredByEnabled     bool              `json:"answered_by_enabled"`
	InterruptionThreshold int               `json:"interruption_threshold"`
	Temperature           float64           `json:"temperature"`
	AMD                   bool              `json:"amd"`
	MaxDuration           int               `json:"max_duration"`
	SummaryPrompt         string            `json:"summary_prompt"`
	AnalysisPrompt        string            `json:"analysis_prompt"`
	AnalysisSchema        map[string]string `json:"analysis_schema"`
}

// Call is one entry of the provider's call list.
type Call struct {
	CallID       string    `json:"call_id"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
	QueueStatus  string    `json:"queue_status"`
	Completed    bool      `json:"completed"`
	ErrorMessage string    `json:"error_message"`
	RecordingURL string    `json:"recording_url"`
	ToNumber     string    `json:"to"`
}

// UnmarshalJSON tolerates created_at values the provider sends without a zone or as null.
func (c *Call) UnmarshalJSON(data []byte) error {
	type alias Call
	var raw struct {
		alias
		CreatedAt *string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Call(raw.alias)
	c.CreatedAt = time.Time{}
	if raw.CreatedAt != nil {
		c.CreatedAt = parseTimestamp(*raw.CreatedAt)
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type listResponse struct {
	Count int    `json:"count"`
	Calls []Call `json:"calls"`
}

// Client talks to the calling service over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logger.Service(l, serviceName) }
}

// NewClient creates a client. An empty baseURL selects the public API.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateCall places an outbound call and returns the provider response verbatim.
// A non-2xx response becomes an UpstreamError whose Detail is the decoded provider body.
func (c *Client) CreateCall(ctx context.Context, req *CallRequest) (map[string]any, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &apperr.InternalError{Message: "failed to encode call request", Cause: err}
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/v1/calls", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	c.log.Info("call created", zap.Any(logger.FieldCallID, out["call_id"]))
	return out, nil
}

// ListCalls returns the provider's call list in the order the provider sends it.
func (c *Client) ListCalls(ctx context.Context) ([]Call, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, "/v1/calls", nil, &out); err != nil {
		return nil, err
	}
	return out.Calls, nil
}

// Download streams the resource at url into w and returns the number of bytes written.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, apperr.Upstream(serviceName, "invalid recording url", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperr.Upstream(serviceName, "recording download failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &apperr.UpstreamError{
			Service: serviceName,
			Message: fmt.Sprintf("recording download returned status %d", resp.StatusCode),
		}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &apperr.InternalError{Message: "failed to save recording", Cause: err}
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Upstream(serviceName, "failed to build request", err)
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Upstream(serviceName, method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Upstream(serviceName, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logger.TruncateForLog(string(data), 500)))
		return &apperr.UpstreamError{
			Service: serviceName,
			Message: fmt.Sprintf("API request failed with status %d", resp.StatusCode),
			Detail:  decodeDetail(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &apperr.MalformedResponseError{Message: "invalid " + serviceName + " response", Raw: string(data), Cause: err}
	}
	return nil
}

// decodeDetail returns the provider body as JSON when it parses, else as a string.
func decodeDetail(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(data))
}
