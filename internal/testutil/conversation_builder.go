package testutil

import (
	"github.com/hupe1980/innerthoughts/core"
)

// ConversationBuilder provides a fluent helper for constructing conversations
// with a scripted history in tests.
// Example:
//
//	conv := NewConversationBuilder().
//		Context("a planning meeting").
//		Participant(alice).
//		Utterance(alice.ID(), "Alice", "shall we start?").
//		Build()
type ConversationBuilder struct {
	contextText  string
	participants []core.Participant
	events       []core.Event
}

// NewConversationBuilder creates an empty builder.
func NewConversationBuilder() *ConversationBuilder { return &ConversationBuilder{} }

// Context sets the shared conversation context (chainable).
func (b *ConversationBuilder) Context(text string) *ConversationBuilder {
	b.contextText = text
	return b
}

// Participant registers a participant (chainable).
func (b *ConversationBuilder) Participant(p core.Participant) *ConversationBuilder {
	b.participants = append(b.participants, p)
	return b
}

// Utterance appends a spoken event to the scripted history (chainable).
func (b *ConversationBuilder) Utterance(senderID, senderName, content string) *ConversationBuilder {
	b.events = append(b.events, core.NewUtteranceEvent(senderID, senderName, content))
	return b
}

// Event appends a prebuilt event to the scripted history (chainable).
func (b *ConversationBuilder) Event(ev core.Event) *ConversationBuilder {
	b.events = append(b.events, ev)
	return b
}

// Build constructs the conversation, registering participants and appending
// the scripted events in order. Registration errors panic since builders are
// test-only.
func (b *ConversationBuilder) Build() *core.Conversation {
	conv := core.NewConversation(b.contextText)
	for _, p := range b.participants {
		if err := conv.AddParticipant(p); err != nil {
			panic(err)
		}
	}
	for _, ev := range b.events {
		conv.Append(ev)
	}
	return conv
}
