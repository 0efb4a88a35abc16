package recordings

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/screening-agent/internal/apperr"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"call.mp3", "call.mp3", true},
		{"../../etc/passwd", "passwd", true},
		{"/etc/passwd", "passwd", true},
		{`..\..\windows\win.ini`, "win.ini", true},
		{"a/b/../c.wav", "c.wav", true},
		{"", "", false},
		{".", "", false},
		{"..", "", false},
		{"../", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := SafeName(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStore_SaveAndOpen(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "recordings"))
	require.NoError(t, err)

	name, err := s.Save("../escape.mp3", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "escape.mp3", name)

	_, err = os.Stat(filepath.Join(s.Dir, "escape.mp3"))
	require.NoError(t, err, "file stays inside the store")

	f, info, err := s.Open("escape.mp3")
	require.NoError(t, err)
	defer f.Close()
	assert.EqualValues(t, len("audio-bytes"), info.Size())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))
}

func TestStore_OpenMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Open("../../etc/passwd")
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "passwd", nf.ID)

	_, _, err = s.Open("..")
	assert.True(t, apperr.IsNotFound(err))
}

func TestStore_OpenDirectory(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir, "nested"), 0o755))

	_, _, err = s.Open("nested")
	assert.True(t, apperr.IsNotFound(err))
}

func TestStore_Create(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	f, name, err := s.Create("call-1.mp3")
	require.NoError(t, err)
	_, err = io.Copy(f, bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "call-1.mp3", name)

	_, _, err = s.Create("..")
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestStore_NewUploadName(t *testing.T) {
	s := &Store{Dir: t.TempDir(), now: func() time.Time { return time.UnixMilli(1700000000123) }}

	assert.Equal(t, "interview-1700000000123.wav", s.NewUploadName(".WAV"))
	assert.Equal(t, "interview-1700000000123.mp3", s.NewUploadName("mp3"))
	assert.Equal(t, "interview-1700000000123.webm", s.NewUploadName("./webm"))
	assert.Equal(t, "interview-1700000000123", s.NewUploadName(""))
}

func TestCallFileName(t *testing.T) {
	assert.Equal(t, "c0ffee-12.mp3", CallFileName("c0ffee-12"))
	assert.Equal(t, "_.._etc_passwd.mp3", CallFileName("/../etc/passwd"))
	assert.Equal(t, "call.mp3", CallFileName(""))
	assert.Equal(t, "call.mp3", CallFileName(".."))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", ContentType("a.mp3"))
	assert.Equal(t, "audio/webm", ContentType("a.WEBM"))
	assert.Equal(t, "audio/wav", ContentType("a.wav"))
	assert.Equal(t, "audio/wav", ContentType("a"))
}
