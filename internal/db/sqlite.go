package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jonathan/screening-agent/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT '',
	resume_text TEXT NOT NULL DEFAULT '',
	analysis    TEXT NOT NULL DEFAULT '{}',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_candidates_created_at ON candidates (created_at DESC);
`

// SQLite stores candidates in a single-file database.
// created_at is kept as Unix nanoseconds so ordering is numeric.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and creates the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLite{db: sqlDB}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// CreateCandidate inserts a candidate profile.
func (s *SQLite) CreateCandidate(ctx context.Context, c *types.CandidateProfile) error {
	fillDefaults(c)
	analysis, err := json.Marshal(c.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, name, phone, role, resume_text, analysis, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.Phone, c.Role, c.ResumeText, string(analysis), c.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// GetCandidate retrieves a candidate by ID.
func (s *SQLite) GetCandidate(ctx context.Context, id uuid.UUID) (*types.CandidateProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id.String())
	c, err := scanSQLiteCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates retrieves recent candidates.
func (s *SQLite) ListCandidates(ctx context.Context, limit int) ([]types.CandidateProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC`+limitClause(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return collectSQLiteCandidates(rows)
}

// SearchCandidates finds candidates whose name contains query.
func (s *SQLite) SearchCandidates(ctx context.Context, query string, limit int) ([]types.CandidateProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE LOWER(name) LIKE LOWER(?) ESCAPE '\'
		 ORDER BY created_at DESC`+limitClause(limit),
		containsPattern(query),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search candidates: %w", err)
	}
	return collectSQLiteCandidates(rows)
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCandidate(row sqlScanner) (*types.CandidateProfile, error) {
	var (
		c         types.CandidateProfile
		id        string
		analysis  string
		createdAt int64
	)
	if err := row.Scan(&id, &c.Name, &c.Phone, &c.Role, &c.ResumeText, &analysis, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid candidate id %q: %w", id, err)
	}
	c.ID = parsed
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := decodeAnalysis([]byte(analysis), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectSQLiteCandidates(rows *sql.Rows) ([]types.CandidateProfile, error) {
	defer func() { _ = rows.Close() }()

	candidates := []types.CandidateProfile{}
	for rows.Next() {
		c, err := scanSQLiteCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return candidates, nil
}
