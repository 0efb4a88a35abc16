// Package transcription is a client for the speech-to-text service.
package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/logger"
)

const (
	serviceName    = "transcription"
	DefaultBaseURL = "https://api.deepgram.com"
	DefaultModel   = "nova-3"
	defaultTimeout = 5 * time.Minute
)

// Result is a finished transcription.
type Result struct {
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration"`
	Channels   int     `json:"channels"`
}

type listenResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
		Channels int     `json:"channels"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Client sends prerecorded audio for transcription.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel selects a different recognition model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
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
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads audio and returns the first channel's best transcript.
// An empty transcript is an UpstreamError.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (*Result, error) {
	query := url.Values{}
	query.Set("model", c.model)
	query.Set("smart_format", "true")
	query.Set("language", "en")
	query.Set("punctuate", "true")
	query.Set("utterances", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/listen?"+query.Encode(), audio)
	if err != nil {
		return nil, apperr.Upstream(serviceName, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", mimeType)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream(serviceName, "transcription request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream(serviceName, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("transcription failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logger.TruncateForLog(string(data), 500)))
		return nil, &apperr.UpstreamError{
			Service: serviceName,
			Message: fmt.Sprintf("transcription failed with status %d", resp.StatusCode),
			Detail:  decodeDetail(data),
		}
	}

	var parsed listenResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &apperr.MalformedResponseError{Message: "invalid transcription response", Raw: string(data), Cause: err}
	}

	result := &Result{
		Duration: parsed.Metadata.Duration,
		Channels: parsed.Metadata.Channels,
	}
	if len(parsed.Results.Channels) > 0 && len(parsed.Results.Channels[0].Alternatives) > 0 {
		result.Transcript = strings.TrimSpace(parsed.Results.Channels[0].Alternatives[0].Transcript)
	}
	if result.Channels == 0 {
		result.Channels = max(len(parsed.Results.Channels), 1)
	}
	if result.Transcript == "" {
		return nil, &apperr.UpstreamError{Service: serviceName, Message: "no transcription generated"}
	}

	c.log.Info("transcription completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Float64("audio_seconds", result.Duration),
		zap.Int("characters", len(result.Transcript)))
	return result, nil
}

func decodeDetail(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(data))
}
