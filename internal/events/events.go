// Package events defines the push channel contract between the core and
// whatever transport delivers live updates to clients.
package events

// Type discriminates session events.
type Type string

const (
	TypeTranscript   Type = "transcript"
	TypeAnswer       Type = "answer"
	TypeSessionEnded Type = "session_ended"
	TypeError        Type = "error"
)

// Event is one session-scoped notification.
type Event struct {
	Type      Type        `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Sink receives session events. Implementations must not block the caller;
// delivery is best-effort.
type Sink interface {
	Publish(sessionID string, event Event)
}

// NopSink discards all events.
type NopSink struct{}

// Publish discards the event.
func (NopSink) Publish(string, Event) {}
