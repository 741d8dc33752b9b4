package core

import (
	"context"
	"sync"
)

// ParticipantKind is the capability tag of a conversation participant.
type ParticipantKind int

const (
	// KindHuman marks a human participant; humans do not run a thought
	// pipeline, their contributions arrive from the outside.
	KindHuman ParticipantKind = iota
	// KindAgent marks an AI participant owning a full cognitive cycle.
	KindAgent
)

// String returns the string representation of the participant kind.
func (k ParticipantKind) String() string {
	if k == KindAgent {
		return "agent"
	}
	return "human"
}

// Participant is a member of a conversation. Broadcast delivers every
// appended event to each participant except its sender via OnEvent;
// implementations must keep OnEvent cheap (heavy thought formation is driven
// separately by the turn-taking engine).
type Participant interface {
	ID() string
	Name() string
	Kind() ParticipantKind

	// OnEvent notifies the participant of a new conversation event. Errors
	// are isolated per participant and never block other deliveries.
	OnEvent(ctx context.Context, conv *Conversation, ev Event) error

	// LastSpokenTurn returns the conversation turn of the participant's most
	// recent utterance, or -1 if it has not spoken.
	LastSpokenTurn() int
}

// BaseParticipant bundles identity and spoken-turn bookkeeping shared by
// Human and Agent implementations. Embed it and supply OnEvent.
type BaseParticipant struct {
	id   string
	name string
	kind ParticipantKind

	mu         sync.Mutex
	lastSpoken int
}

// NewBaseParticipant constructs the shared identity state with a generated ID.
func NewBaseParticipant(name string, kind ParticipantKind) BaseParticipant {
	return BaseParticipant{id: NewID(), name: name, kind: kind, lastSpoken: -1}
}

// ID returns the unique participant identifier.
func (b *BaseParticipant) ID() string { return b.id }

// Name returns the display name.
func (b *BaseParticipant) Name() string { return b.name }

// Kind returns the capability tag.
func (b *BaseParticipant) Kind() ParticipantKind { return b.kind }

// LastSpokenTurn returns the turn of the most recent utterance, or -1.
func (b *BaseParticipant) LastSpokenTurn() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSpoken
}

// RecordSpokenTurn advances the last-spoken turn marker.
func (b *BaseParticipant) RecordSpokenTurn(turn int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if turn > b.lastSpoken {
		b.lastSpoken = turn
	}
}

// Human is a participant without an internal cognitive cycle.
type Human struct {
	BaseParticipant
}

// NewHuman creates a human participant.
func NewHuman(name string) *Human {
	return &Human{BaseParticipant: NewBaseParticipant(name, KindHuman)}
}

// OnEvent implements Participant; humans observe events passively.
func (h *Human) OnEvent(context.Context, *Conversation, Event) error { return nil }

// SendMessage appends an utterance authored by the human and broadcasts it to
// all other participants.
func (h *Human) SendMessage(ctx context.Context, conv *Conversation, text string) (Event, error) {
	ev := NewUtteranceEvent(h.ID(), h.Name(), text)
	appended, err := conv.Broadcast(ctx, ev)
	if err != nil {
		return appended, err
	}
	h.RecordSpokenTurn(appended.Turn)
	return appended, nil
}
