package ratelimit

import (
	"net/http"
	"strings"
)

// healthPath is never limited.
const healthPath = "/health"

// matches reports whether the entry governs a request. With prefix set, only entries
// ending in "/" are considered and they cover every path below them.
func (e *EndpointConfig) matches(path, method string, prefix bool) bool {
	if e.Method != method {
		return false
	}
	if prefix {
		return strings.HasSuffix(e.Path, "/") && strings.HasPrefix(path, e.Path)
	}
	return e.Path == path
}

// MatchEndpoint returns the entry governing a request, or nil when the default limit applies.
// Exact paths win over prefix entries. The health check gets an unlimited zero entry.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == healthPath && method == http.MethodGet {
		return &EndpointConfig{}
	}

	for _, prefix := range []bool{false, true} {
		for i := range configs {
			if configs[i].matches(path, method, prefix) {
				return &configs[i]
			}
		}
	}
	return nil
}
