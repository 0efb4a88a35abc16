package ratelimit

import (
	"time"

	"github.com/jonathan/screening-agent/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromConfig builds the limiter configuration from the loaded settings.
func FromConfig(cfg config.RateLimitConfig) *Config {
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    cfg.DefaultLimit,
		DefaultWindow:   cfg.DefaultWindow,
		CleanupInterval: cfg.CleanupInterval,
		Whitelist:       config.ParseIPList(cfg.Whitelist),
		Blacklist:       config.ParseIPList(cfg.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: paid third-party calls (strictest limits)
		{Path: "/interview", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/calls", Method: "GET", Limit: 30, Window: time.Hour, Burst: 3},
		{Path: "/transcribe", Method: "POST", Limit: 30, Window: time.Hour, Burst: 3},

		// Tier 2: LLM calls (moderate limits)
		{Path: "/analyze", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},
		{Path: "/finaleval", Method: "POST", Limit: 60, Window: time.Hour, Burst: 5},

		// Tier 3: local work
		{Path: "/documents", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/calls/status", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},

		// Tier 4: reads - handled by default limit
		// Tier 5: health check (unlimited) - handled by special case in matcher
	}
}
