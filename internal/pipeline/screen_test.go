package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/screening-agent/internal/analysis"
	"github.com/jonathan/screening-agent/internal/llm/llmtest"
	"github.com/jonathan/screening-agent/internal/types"
)

type fakeAnalyzer struct {
	active    atomic.Int32
	maxActive atomic.Int32
	fail      string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req *types.AnalyzeRequest) (*analysis.Result, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		cur := f.maxActive.Load()
		if n <= cur || f.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	if f.fail != "" && strings.Contains(req.Text, f.fail) {
		return nil, errors.New("model unavailable")
	}
	name := strings.Fields(req.Text)[0]
	return &analysis.Result{
		Role:      req.Role,
		Text:      req.Text,
		Analysis:  map[string]any{"name": name},
		Candidate: &types.CandidateAnalysis{Name: name},
	}, nil
}

type memoryStore struct {
	mu    sync.Mutex
	saved []*types.CandidateProfile
}

func (m *memoryStore) CreateCandidate(_ context.Context, c *types.CandidateProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	m.saved = append(m.saved, c)
	return nil
}

func writeResumes(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, strings.ToLower(name)+".txt")
		require.NoError(t, os.WriteFile(path, []byte(name+" is a Go engineer"), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestScreenFiles(t *testing.T) {
	files := writeResumes(t, "Sam", "Alex", "Kim", "Lee", "Pat")
	files = append(files, filepath.Join(t.TempDir(), "missing.pdf"))

	analyzer := &fakeAnalyzer{fail: "Kim"}
	store := &memoryStore{}
	var events sync.Map

	results, err := ScreenFiles(context.Background(), analyzer, ScreenOptions{
		Files:       files,
		Role:        "Backend Engineer",
		Concurrency: 2,
		Store:       store,
		OnProgress: func(e ProgressEvent) {
			events.Store(e.File+"/"+e.Step, true)
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 6)

	assert.Equal(t, files[0], results[0].File)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "Sam", results[0].Result.Candidate.Name)
	assert.NotEqual(t, uuid.Nil, results[0].CandidateID)
	assert.Equal(t, "Backend Engineer", results[0].Result.Role)

	assert.ErrorContains(t, results[2].Err, "analysis failed")
	assert.ErrorContains(t, results[5].Err, "extraction failed")

	assert.Len(t, store.saved, 4)
	assert.LessOrEqual(t, analyzer.maxActive.Load(), int32(2))

	_, ok := events.Load(files[0] + "/" + StepDone)
	assert.True(t, ok)
	_, ok = events.Load(files[2] + "/" + StepDone)
	assert.False(t, ok)
}

func TestScreenFiles_WithAnalyzer(t *testing.T) {
	files := writeResumes(t, "Sam")
	client := llmtest.Respond(`{"name": "Sam", "summary": "ok"}`)

	results, err := ScreenFiles(context.Background(), analysis.NewAnalyzer(client, nil), ScreenOptions{
		Files: files,
		Role:  "Engineer",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "Sam", results[0].Result.Candidate.Name)
	assert.Contains(t, client.LastPrompt(), "Sam is a Go engineer")
}

func TestScreenFiles_MissingRoleFailsEachFile(t *testing.T) {
	files := writeResumes(t, "Sam")
	client := llmtest.Respond(`{}`)

	results, err := ScreenFiles(context.Background(), analysis.NewAnalyzer(client, nil), ScreenOptions{Files: files})
	require.NoError(t, err)
	assert.Error(t, results[0].Err)
	assert.Equal(t, 0, client.Calls())
}

func TestScreenFiles_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScreenFiles(ctx, &fakeAnalyzer{}, ScreenOptions{Files: writeResumes(t, "Sam"), Role: "r"})
	assert.ErrorIs(t, err, context.Canceled)
}
