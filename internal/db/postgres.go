package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/screening-agent/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	role        TEXT NOT NULL DEFAULT '',
	resume_text TEXT NOT NULL DEFAULT '',
	analysis    JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_candidates_created_at ON candidates (created_at DESC);
`

const candidateColumns = `id, name, phone, role, resume_text, analysis, created_at`

// Postgres wraps a PostgreSQL connection pool
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool to the database and creates the schema
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool
func (db *Postgres) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateCandidate inserts a candidate profile
func (db *Postgres) CreateCandidate(ctx context.Context, c *types.CandidateProfile) error {
	fillDefaults(c)
	analysis, err := json.Marshal(c.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO candidates (id, name, phone, role, resume_text, analysis, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Phone, c.Role, c.ResumeText, analysis, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// GetCandidate retrieves a candidate by ID
func (db *Postgres) GetCandidate(ctx context.Context, id uuid.UUID) (*types.CandidateProfile, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// ListCandidates retrieves recent candidates
func (db *Postgres) ListCandidates(ctx context.Context, limit int) ([]types.CandidateProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC`+limitClause(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return collectCandidates(rows)
}

// SearchCandidates finds candidates whose name contains query
func (db *Postgres) SearchCandidates(ctx context.Context, query string, limit int) ([]types.CandidateProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE name ILIKE $1 ESCAPE '\'
		 ORDER BY created_at DESC`+limitClause(limit),
		containsPattern(query),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search candidates: %w", err)
	}
	return collectCandidates(rows)
}

func scanCandidate(row pgx.Row) (*types.CandidateProfile, error) {
	var c types.CandidateProfile
	var analysis []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Role, &c.ResumeText, &analysis, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeAnalysis(analysis, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCandidates(rows pgx.Rows) ([]types.CandidateProfile, error) {
	defer rows.Close()

	candidates := []types.CandidateProfile{}
	for rows.Next() {
		c, err := scanCandidate(rows)
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

func decodeAnalysis(data []byte, c *types.CandidateProfile) error {
	c.Analysis = map[string]any{}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &c.Analysis); err != nil {
		return fmt.Errorf("failed to decode analysis: %w", err)
	}
	return nil
}
