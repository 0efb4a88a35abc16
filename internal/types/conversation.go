package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Speaker is one of the two fixed roles in an interview conversation.
type Speaker string

const (
	// SpeakerInterviewer is the AI HR representative placing the call
	SpeakerInterviewer Speaker = "AI_HR"
	// SpeakerCandidate is the person being interviewed
	SpeakerCandidate Speaker = "Candidate"
)

// ParseSpeaker maps a label onto the speaker taxonomy.
// Only the exact labels are recognised; anything else is attributed to the interviewer.
func ParseSpeaker(label string) Speaker {
	if Speaker(label) == SpeakerCandidate {
		return SpeakerCandidate
	}
	return SpeakerInterviewer
}

// UnmarshalJSON repairs unknown or non-string speaker values instead of rejecting them.
func (s *Speaker) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		*s = SpeakerInterviewer
		return nil
	}
	*s = ParseSpeaker(label)
	return nil
}

// Turn is a single utterance in a conversation.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// UnmarshalJSON accepts a missing or null text as empty and stringifies scalar text values.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Speaker Speaker `json:"speaker"`
		Text    any     `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Speaker == "" {
		raw.Speaker = SpeakerInterviewer
	}
	t.Speaker = raw.Speaker
	switch v := raw.Text.(type) {
	case nil:
		t.Text = ""
	case string:
		t.Text = v
	default:
		t.Text = fmt.Sprint(v)
	}
	return nil
}

// Conversation is an ordered, speaker-labelled transcript.
type Conversation struct {
	Turns []Turn `json:"conversation"`
}

// NewConversation returns a conversation with a non-nil turn list.
func NewConversation(turns ...Turn) Conversation {
	if turns == nil {
		turns = []Turn{}
	}
	return Conversation{Turns: turns}
}

// FallbackConversation attributes the whole raw transcript to the interviewer.
func FallbackConversation(raw string) Conversation {
	return NewConversation(Turn{Speaker: SpeakerInterviewer, Text: raw})
}

// Transcript renders the conversation as "Speaker: text" lines.
func (c Conversation) Transcript() string {
	var sb strings.Builder
	for i, turn := range c.Turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(turn.Speaker))
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
	}
	return sb.String()
}
