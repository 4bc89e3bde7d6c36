package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ollamakit/pkg/ollama"
)

// TranscriptVersion is the only transcript version understood.
const TranscriptVersion = 1

// Transcript is the portable export of a conversation, independent of the
// server it was held against.
type Transcript struct {
	Model     string           `json:"model"`
	Version   int              `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Messages  []ollama.Message `json:"messages"`
}

var ErrInvalidTranscript = errors.New("invalid transcript")

// Transcript snapshots the session history.
func (s *Session) Transcript() Transcript {
	msgs := make([]ollama.Message, len(s.History))
	copy(msgs, s.History)
	return Transcript{
		Model:     s.Model,
		Version:   TranscriptVersion,
		Timestamp: time.Now().UTC(),
		Messages:  msgs,
	}
}

// Import replaces the history with the transcript's messages. The model is
// switched only when the transcript names one.
func (s *Session) Import(t *Transcript) {
	s.History = append([]ollama.Message{}, t.Messages...)
	s.LastRequest = nil
	if t.Model != "" {
		s.Model = t.Model
	}
}

// ParseTranscript decodes b and checks that version and messages are present
// and that the version is supported. The timestamp never fails the parse.
func ParseTranscript(b []byte) (*Transcript, error) {
	var raw struct {
		Model     string            `json:"model"`
		Version   *int              `json:"version"`
		Timestamp json.RawMessage   `json:"timestamp"`
		Messages  *[]ollama.Message `json:"messages"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTranscript, err)
	}
	if raw.Version == nil || raw.Messages == nil {
		return nil, fmt.Errorf("%w: missing version or messages", ErrInvalidTranscript)
	}
	if *raw.Version != TranscriptVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidTranscript, *raw.Version)
	}
	return &Transcript{
		Model:     raw.Model,
		Version:   *raw.Version,
		Timestamp: parseTimestamp(raw.Timestamp),
		Messages:  *raw.Messages,
	}, nil
}

// Timestamps without a zone, as Python's datetime.isoformat writes them,
// are read as local time.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp is best effort: an unreadable timestamp is zero.
func parseTimestamp(raw json.RawMessage) time.Time {
	var s string
	if json.Unmarshal(raw, &s) != nil || s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
