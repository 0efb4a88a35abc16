package types

// CallStatus is the local vocabulary for outbound call progress.
type CallStatus string

// CallStatus values
const (
	CallCompleted  CallStatus = "completed"
	CallFailed     CallStatus = "failed"
	CallInProgress CallStatus = "in_progress"
	CallInitiating CallStatus = "initiating"
)
