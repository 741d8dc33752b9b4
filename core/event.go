package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes spoken utterances from non-verbal actions.
type EventKind int

const (
	// EventUtterance is a spoken contribution to the conversation.
	EventUtterance EventKind = iota
	// EventAction is a non-verbal occurrence (joining, typing, reacting).
	EventAction
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	if k == EventAction {
		return "action"
	}
	return "utterance"
}

// Event is the unit of communication inside a conversation. After appending
// it must be treated as immutable; the Turn field is stamped by the
// conversation on append. Embedding may be nil when no embedder is
// configured, in which case similarity against the event is zero.
type Event struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Sender    string    `json:"sender"`
	Kind      EventKind `json:"kind"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`

	// ThoughtID links an utterance back to the articulated thought that
	// produced it, if any.
	ThoughtID string `json:"thought_id,omitempty"`

	// PredictedNext carries the turn predictor's next-speaker annotation
	// ("anyone" when the floor is open).
	PredictedNext string `json:"predicted_next,omitempty"`
}

// NewUtteranceEvent creates an utterance event authored by the given sender.
func NewUtteranceEvent(senderID, senderName, content string) Event {
	return Event{
		ID:        NewID(),
		SenderID:  senderID,
		Sender:    senderName,
		Kind:      EventUtterance,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewActionEvent creates an action event authored by the given sender.
func NewActionEvent(senderID, senderName, content string) Event {
	ev := NewUtteranceEvent(senderID, senderName, content)
	ev.Kind = EventAction
	return ev
}

// WithEmbedding returns a copy of the event carrying the given embedding.
func (e Event) WithEmbedding(vec []float32) Event {
	e.Embedding = vec
	return e
}

// WithThought returns a copy of the event linked to the articulated thought.
func (e Event) WithThought(thoughtID string) Event {
	e.ThoughtID = thoughtID
	return e
}

// NewID generates a UUID-based identifier for events and mental objects.
func NewID() string { return uuid.NewString() }
