package telephony

import (
	"sort"
	"strings"

	"github.com/jonathan/screening-agent/internal/types"
)

// statusTable maps every provider status we know about onto the local vocabulary.
var statusTable = map[string]types.CallStatus{
	"completed":   types.CallCompleted,
	"complete":    types.CallCompleted,
	"failed":      types.CallFailed,
	"error":       types.CallFailed,
	"no-answer":   types.CallFailed,
	"busy":        types.CallFailed,
	"canceled":    types.CallFailed,
	"cancelled":   types.CallFailed,
	"in-progress": types.CallInProgress,
	"in_progress": types.CallInProgress,
	"started":     types.CallInProgress,
	"ringing":     types.CallInProgress,
	"answered":    types.CallInProgress,
	"queued":      types.CallInitiating,
	"new":         types.CallInitiating,
	"allocated":   types.CallInitiating,
}

// MapStatus converts a provider status label. Unknown labels map to initiating.
func MapStatus(provider string) types.CallStatus {
	if s, ok := statusTable[strings.ToLower(strings.TrimSpace(provider))]; ok {
		return s
	}
	return types.CallInitiating
}

// LocalStatus derives the local status of a call from its status fields.
// The queue status wins when it is known, then the call status, then the completed flag.
func (c Call) LocalStatus() types.CallStatus {
	for _, label := range []string{c.QueueStatus, c.Status} {
		if _, ok := statusTable[strings.ToLower(strings.TrimSpace(label))]; ok {
			return MapStatus(label)
		}
	}
	if c.Completed {
		return types.CallCompleted
	}
	return types.CallInitiating
}

// newestFirst returns a copy of calls ordered by created_at, newest first.
// Calls with equal timestamps keep the provider's order.
func newestFirst(calls []Call) []Call {
	sorted := make([]Call, len(calls))
	copy(sorted, calls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

// LatestCall returns the most recently created call.
func LatestCall(calls []Call) (Call, bool) {
	if len(calls) == 0 {
		return Call{}, false
	}
	return newestFirst(calls)[0], true
}

// LatestCompleted returns the most recently created completed call that has a recording.
func LatestCompleted(calls []Call) (Call, bool) {
	for _, c := range newestFirst(calls) {
		if c.LocalStatus() == types.CallCompleted && c.RecordingURL != "" {
			return c, true
		}
	}
	return Call{}, false
}
