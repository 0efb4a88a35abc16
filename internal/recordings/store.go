// Package recordings stores interview audio on the local filesystem.
package recordings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/screening-agent/internal/apperr"
)

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Store keeps recordings in a single flat directory.
type Store struct {
	Dir string
	now func() time.Time
}

// NewStore creates the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &apperr.InternalError{Message: "failed to create recordings directory", Cause: err}
	}
	return &Store{Dir: dir, now: time.Now}, nil
}

// SafeName reduces a caller-supplied name to its final path component.
// Both separators are honoured so Windows-style names cannot climb out either.
func SafeName(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(filepath.Clean("/" + name))
	switch base {
	case "", ".", "..", "/":
		return "", false
	}
	return base, true
}

// Path returns the absolute location of a sanitised name inside the store.
func (s *Store) Path(name string) (string, error) {
	base, ok := SafeName(name)
	if !ok {
		return "", &apperr.NotFoundError{Resource: "recording", ID: name}
	}
	return filepath.Join(s.Dir, base), nil
}

// Save writes r to name, replacing any existing file. It returns the stored base name.
// A partially written file is left in place when the copy fails.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", &apperr.ValidationError{Field: "filename", Message: "invalid recording name"}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &apperr.InternalError{Message: "failed to create recording file", Cause: err}
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", &apperr.InternalError{Message: "failed to write recording", Cause: err}
	}
	if err := f.Close(); err != nil {
		return "", &apperr.InternalError{Message: "failed to close recording", Cause: err}
	}
	return filepath.Base(path), nil
}

// Create opens a new file for streaming writes. The caller closes it.
func (s *Store) Create(name string) (*os.File, string, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, "", &apperr.ValidationError{Field: "filename", Message: "invalid recording name"}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, "", &apperr.InternalError{Message: "failed to create recording file", Cause: err}
	}
	return f, filepath.Base(path), nil
}

// Open returns the stored recording. Missing files yield a NotFoundError.
func (s *Store) Open(name string) (*os.File, os.FileInfo, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, &apperr.NotFoundError{Resource: "recording", ID: filepath.Base(path)}
		}
		return nil, nil, &apperr.InternalError{Message: "failed to open recording", Cause: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, &apperr.InternalError{Message: "failed to stat recording", Cause: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, &apperr.NotFoundError{Resource: "recording", ID: info.Name()}
	}
	return f, info, nil
}

// NewUploadName returns a unique name for an uploaded recording, keeping its extension.
func (s *Store) NewUploadName(ext string) string {
	ext = strings.ToLower(unsafeIDChars.ReplaceAllString(ext, ""))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("interview-%d%s", s.now().UnixMilli(), ext)
}

// CallFileName returns the stored name for a call's recording.
func CallFileName(callID string) string {
	id := unsafeIDChars.ReplaceAllString(callID, "_")
	id = strings.Trim(id, ".")
	if id == "" {
		id = "call"
	}
	return id + ".mp3"
}

// ContentType guesses the audio MIME type from the file extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".mpeg":
		return "audio/mpeg"
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}
