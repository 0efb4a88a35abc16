// Package interviewlog keeps a durable, append-only record of evaluated interviews.
//
// Records are stored one JSON object per line. A line that fails to decode is skipped on read,
// so a crash mid-write costs at most the record being written.
package interviewlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/screening-agent/internal/types"
)

const maxLineBytes = 16 << 20

// Record is one evaluated interview.
type Record struct {
	ID            uuid.UUID        `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	CandidateName string           `json:"candidate_name,omitempty"`
	Phone         string           `json:"phone,omitempty"`
	Summary       string           `json:"summary"`
	Conversation  []types.Turn     `json:"conversation"`
	Evaluation    types.Evaluation `json:"evaluation"`
}

// Log appends records to a JSON Lines file.
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a log at path. The file and its directory are created on first append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the file location.
func (l *Log) Path() string {
	return l.path
}

// Append writes rec as a single line. ID and CreatedAt are filled in when zero.
func (l *Log) Append(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode interview record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open interview log: %w", err)
	}
	defer func() { _ = f.Close() }()

	torn, err := endsMidLine(f)
	if err != nil {
		return err
	}
	if torn {
		line = append([]byte{'\n'}, line...)
	}

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append interview record: %w", err)
	}
	return f.Sync()
}

// endsMidLine reports whether the file's last byte is something other than a newline.
func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat interview log: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, fmt.Errorf("failed to read interview log tail: %w", err)
	}
	return last[0] != '\n', nil
}

// List returns every readable record in file order, plus the number of lines skipped as corrupt.
// A missing file is an empty log.
func (l *Log) List(ctx context.Context) ([]Record, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to open interview log: %w", err)
	}
	defer func() { _ = f.Close() }()

	return decodeLines(ctx, f)
}

func decodeLines(ctx context.Context, r io.Reader) ([]Record, int, error) {
	records := []Record{}
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, skipped, fmt.Errorf("failed to read interview log: %w", err)
	}
	return records, skipped, nil
}
