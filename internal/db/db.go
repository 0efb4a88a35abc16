// Package db persists candidate profiles in PostgreSQL or SQLite.
package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/screening-agent/internal/types"
)

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)

// Store is the candidate persistence contract shared by both backends.
type Store interface {
	// CreateCandidate inserts c, assigning ID and CreatedAt when they are zero.
	CreateCandidate(ctx context.Context, c *types.CandidateProfile) error
	// ListCandidates returns candidates newest first. A limit of zero returns all of them.
	ListCandidates(ctx context.Context, limit int) ([]types.CandidateProfile, error)
	// GetCandidate returns nil, nil when no candidate has the id.
	GetCandidate(ctx context.Context, id uuid.UUID) (*types.CandidateProfile, error)
	// SearchCandidates matches query as a case-insensitive substring of the name.
	SearchCandidates(ctx context.Context, query string, limit int) ([]types.CandidateProfile, error)
	Close()
}

// Open connects to the database named by url and creates the schema.
//
//	postgres://... or postgresql://...  PostgreSQL via pgx
//	sqlite://path or file:path          SQLite via modernc.org/sqlite
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		pg, err := ConnectPostgres(ctx, url)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		lite, err := OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return lite, nil
	case url == "":
		return nil, fmt.Errorf("database url is empty")
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", redact(url))
	}
}

// escapeLike makes every character of s match literally inside a LIKE pattern using '\' as escape.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func containsPattern(query string) string {
	return "%" + escapeLike(strings.TrimSpace(query)) + "%"
}

// limitClause renders the LIMIT suffix of a list query. Non-positive limits return every row.
func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return " LIMIT " + strconv.Itoa(limit)
}

// fillDefaults assigns the identity and creation time of a new candidate.
func fillDefaults(c *types.CandidateProfile) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Analysis == nil {
		c.Analysis = map[string]any{}
	}
}

// redact hides credentials in a connection string before it reaches logs or errors.
func redact(url string) string {
	if i := strings.Index(url, "@"); i >= 0 {
		if j := strings.Index(url, "://"); j >= 0 && j < i {
			return url[:j+3] + "***" + url[i:]
		}
	}
	return url
}
