package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/screening-agent/internal/types"
)

// exerciseStore runs the behaviour every backend must share. The store must start empty.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := &types.CandidateProfile{
		Name:       "Sam Lee",
		Phone:      "+15550001111",
		Role:       "Backend Engineer",
		ResumeText: "Go, SQL",
		Analysis:   map[string]any{"summary": "strong", "skills": []any{"Go"}},
		CreatedAt:  base.Add(-time.Hour),
	}
	require.NoError(t, store.CreateCandidate(ctx, older))
	assert.NotEqual(t, uuid.Nil, older.ID)

	newer := &types.CandidateProfile{Name: "Alex 100% Samson", CreatedAt: base}
	require.NoError(t, store.CreateCandidate(ctx, newer))

	underscore := &types.CandidateProfile{Name: "pat_o", CreatedAt: base.Add(-2 * time.Hour)}
	require.NoError(t, store.CreateCandidate(ctx, underscore))

	t.Run("get", func(t *testing.T) {
		got, err := store.GetCandidate(ctx, older.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Sam Lee", got.Name)
		assert.Equal(t, "+15550001111", got.Phone)
		assert.Equal(t, "Backend Engineer", got.Role)
		assert.Equal(t, "Go, SQL", got.ResumeText)
		assert.Equal(t, "strong", got.Analysis["summary"])
		assert.True(t, older.CreatedAt.Equal(got.CreatedAt))

		empty, err := store.GetCandidate(ctx, newer.ID)
		require.NoError(t, err)
		assert.NotNil(t, empty.Analysis)
	})

	t.Run("get absent", func(t *testing.T) {
		got, err := store.GetCandidate(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := store.ListCandidates(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)
		assert.Equal(t, underscore.ID, list[2].ID)

		limited, err := store.ListCandidates(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		found, err := store.SearchCandidates(ctx, "SAM", 0)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, newer.ID, found[0].ID)
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		found, err := store.SearchCandidates(ctx, "%", 0)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, newer.ID, found[0].ID)

		found, err = store.SearchCandidates(ctx, "_", 0)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, underscore.ID, found[0].ID)
	})

	t.Run("search no match", func(t *testing.T) {
		found, err := store.SearchCandidates(ctx, "nobody", 0)
		require.NoError(t, err)
		assert.NotNil(t, found)
		assert.Empty(t, found)
	})
}

// exerciseUnboundedList checks that a zero limit returns every row. The store must start empty.
func exerciseUnboundedList(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	const total = 150
	for i := 0; i < total; i++ {
		c := &types.CandidateProfile{
			Name:      fmt.Sprintf("Candidate %03d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.CreateCandidate(ctx, c))
	}

	all, err := store.ListCandidates(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, total)
	assert.Equal(t, "Candidate 149", all[0].Name)
	assert.Equal(t, "Candidate 000", all[total-1].Name)

	found, err := store.SearchCandidates(ctx, "candidate", 0)
	require.NoError(t, err)
	assert.Len(t, found, total)

	limited, err := store.ListCandidates(ctx, 120)
	require.NoError(t, err)
	assert.Len(t, limited, 120)
}
