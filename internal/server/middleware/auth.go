// Package middleware provides HTTP middleware for recruiter authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// recruiterKey is the context key for storing the authenticated recruiter.
const recruiterKey ContextKey = "recruiter"

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (RecruiterGetter, error)
}

// RecruiterGetter is an interface for extracting the recruiter identity from token claims.
type RecruiterGetter interface {
	GetRecruiter() string
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the recruiter to the request context.
// Paths in public are served without a token; an entry ending in "/" matches as a prefix.
// CORS preflight requests always pass.
func AuthMiddleware(jwtService TokenValidator, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(r.URL.Path, public) {
				next.ServeHTTP(w, r)
				return
			}

			// Parse Bearer token
			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w)
				return
			}

			claims, err := jwtService.ValidateToken(parts[1])
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), recruiterKey, claims.GetRecruiter())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if p == path || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="screening-agent"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Unauthorized"}` + "\n"))
}

// GetRecruiter extracts the authenticated recruiter from the request context.
func GetRecruiter(r *http.Request) (string, error) {
	recruiter, ok := r.Context().Value(recruiterKey).(string)
	if !ok || recruiter == "" {
		return "", fmt.Errorf("recruiter not found in request context")
	}
	return recruiter, nil
}
