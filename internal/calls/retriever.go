// Package calls follows placed interview calls through to a structured conversation:
// status polling, recording download, transcription and speaker labelling.
package calls

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/apperr"
	"github.com/jonathan/screening-agent/internal/logger"
	"github.com/jonathan/screening-agent/internal/recordings"
	"github.com/jonathan/screening-agent/internal/telephony"
	"github.com/jonathan/screening-agent/internal/transcription"
	"github.com/jonathan/screening-agent/internal/types"
)

// MaxUploadBytes bounds an uploaded recording.
const MaxUploadBytes = 10 << 20

// InvalidTypeMessage is returned for uploads that are not supported audio.
const InvalidTypeMessage = "Invalid file type. Only WAV, MP3, and WebM audio files are allowed."

var allowedUploadTypes = map[string]bool{
	"audio/wav":   true,
	"audio/mp3":   true,
	"audio/mpeg":  true,
	"audio/webm":  true,
	"audio/x-wav": true,
	"audio/wave":  true,
}

// AllowedUploadType reports whether mimeType is an accepted recording format.
// Parameters such as "; codecs=opus" are ignored.
func AllowedUploadType(mimeType string) bool {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	return allowedUploadTypes[strings.ToLower(mt)]
}

// CallSource lists calls and downloads their recordings.
type CallSource interface {
	ListCalls(ctx context.Context) ([]telephony.Call, error)
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, mimeType string) (*transcription.Result, error)
}

// Normalizer labels transcript turns. It must not fail.
type Normalizer interface {
	Normalize(ctx context.Context, raw string) types.Conversation
}

// StatusResult describes the most recent call.
type StatusResult struct {
	Status types.CallStatus `json:"status"`
	Error  *string          `json:"error"`
	CallID string           `json:"call_id"`
}

// RecordingResult is a downloaded and transcribed call.
type RecordingResult struct {
	CallID                 string             `json:"call_id"`
	RecordingFile          string             `json:"recording_file"`
	RawTranscription       string             `json:"raw_transcription"`
	StructuredConversation types.Conversation `json:"structured_conversation"`
}

// UploadMetadata describes a transcribed upload.
type UploadMetadata struct {
	OriginalFileName string  `json:"originalFileName"`
	Duration         float64 `json:"duration"`
	Channels         int     `json:"channels"`
}

// UploadResult is a stored and transcribed upload.
type UploadResult struct {
	Success                bool               `json:"success"`
	RecordingFile          string             `json:"recording_file"`
	RawTranscription       string             `json:"raw_transcription"`
	StructuredConversation types.Conversation `json:"structured_conversation"`
	Metadata               UploadMetadata     `json:"metadata"`
}

// Retriever ties the telephony, storage, transcription and normalisation steps together.
type Retriever struct {
	calls      CallSource
	store      *recordings.Store
	stt        Transcriber
	normalizer Normalizer
	log        *zap.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(calls CallSource, store *recordings.Store, stt Transcriber, normalizer Normalizer, log *zap.Logger) *Retriever {
	return &Retriever{
		calls:      calls,
		store:      store,
		stt:        stt,
		normalizer: normalizer,
		log:        logger.Service(log, "calls"),
	}
}

// Status reports the local status of the most recent call.
func (r *Retriever) Status(ctx context.Context) (*StatusResult, error) {
	list, err := r.calls.ListCalls(ctx)
	if err != nil {
		return nil, apperr.Upstream("telephony", "failed to fetch call status", err)
	}

	call, ok := telephony.LatestCall(list)
	if !ok {
		return nil, &apperr.NotFoundError{Resource: "call"}
	}

	res := &StatusResult{Status: call.LocalStatus(), CallID: call.CallID}
	if call.ErrorMessage != "" {
		msg := call.ErrorMessage
		res.Error = &msg
	}
	return res, nil
}

// FetchLatestRecording downloads, transcribes and structures the latest completed call.
// Files already written are kept when a later step fails.
func (r *Retriever) FetchLatestRecording(ctx context.Context) (*RecordingResult, error) {
	list, err := r.calls.ListCalls(ctx)
	if err != nil {
		return nil, apperr.Upstream("telephony", "failed to fetch calls", err)
	}

	call, ok := telephony.LatestCompleted(list)
	if !ok {
		return nil, &apperr.NotFoundError{Resource: "completed call with recording"}
	}
	log := r.log.With(zap.String(logger.FieldCallID, call.CallID))

	f, name, err := r.store.Create(recordings.CallFileName(call.CallID))
	if err != nil {
		return nil, err
	}
	n, err := r.calls.Download(ctx, call.RecordingURL, f)
	closeErr := f.Close()
	if err != nil {
		log.Warn("recording download failed", zap.Error(err))
		return nil, apperr.Upstream("telephony", "failed to download recording", err)
	}
	if closeErr != nil {
		return nil, &apperr.InternalError{Message: "failed to close recording", Cause: closeErr}
	}
	log.Info("recording downloaded", zap.String("file", name), zap.Int64("bytes", n))

	raw, _, err := r.transcribeStored(ctx, name)
	if err != nil {
		return nil, err
	}

	return &RecordingResult{
		CallID:                 call.CallID,
		RecordingFile:          name,
		RawTranscription:       raw,
		StructuredConversation: r.normalizer.Normalize(ctx, raw),
	}, nil
}

// TranscribeUpload stores an uploaded recording, transcribes it and structures the transcript.
func (r *Retriever) TranscribeUpload(ctx context.Context, originalName, mimeType string, audio io.Reader) (*UploadResult, error) {
	if !AllowedUploadType(mimeType) {
		return nil, &apperr.ValidationError{Field: "audio", Message: InvalidTypeMessage}
	}

	name, err := r.store.Save(r.store.NewUploadName(filepath.Ext(originalName)), audio)
	if err != nil {
		return nil, err
	}
	r.log.Info("upload stored", zap.String("file", name), zap.String("original", originalName))

	raw, meta, err := r.transcribeStored(ctx, name)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		Success:                true,
		RecordingFile:          name,
		RawTranscription:       raw,
		StructuredConversation: r.normalizer.Normalize(ctx, raw),
		Metadata: UploadMetadata{
			OriginalFileName: originalName,
			Duration:         meta.Duration,
			Channels:         meta.Channels,
		},
	}, nil
}

func (r *Retriever) transcribeStored(ctx context.Context, name string) (string, *transcription.Result, error) {
	path, err := r.store.Path(name)
	if err != nil {
		return "", nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, &apperr.InternalError{Message: "failed to open recording", Cause: err}
	}
	defer func() { _ = f.Close() }()

	res, err := r.stt.Transcribe(ctx, f, recordings.ContentType(name))
	if err != nil {
		return "", nil, apperr.Upstream("transcription", "transcription failed", err)
	}
	return res.Transcript, res, nil
}
