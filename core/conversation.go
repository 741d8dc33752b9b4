package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Conversation is the shared container tracking participants and an ordered,
// append-only event history. It is safe for concurrent access.
//
// Contract:
//   - Events are immutable once appended; insertion order is conversation order
//   - Events / LastN return defensive copies so readers hold a stable snapshot
//   - Broadcast is the single writer path: it appends the event, stamps its
//     turn number, then fans it out to every participant except the sender
//   - Participant errors during fan-out are isolated; the first one is
//     returned for logging but never prevents other deliveries
type Conversation struct {
	ID string

	// Context is the shared scene description given to every agent's prompts.
	Context string

	mu           sync.RWMutex
	participants []Participant
	events       []Event
	updated      time.Time
}

// NewConversation creates an empty conversation with the given shared context.
func NewConversation(contextText string) *Conversation {
	return &Conversation{ID: NewID(), Context: contextText, updated: time.Now().UTC()}
}

// AddParticipant registers a participant. Registration order is stable and is
// used as the deterministic arbitration fallback.
func (c *Conversation) AddParticipant(p Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.participants {
		if existing.ID() == p.ID() {
			return fmt.Errorf("participant %s already registered", p.Name())
		}
	}
	c.participants = append(c.participants, p)
	c.updated = time.Now().UTC()
	return nil
}

// Participants returns a copy of the participant list in registration order.
func (c *Conversation) Participants() []Participant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Participant, len(c.participants))
	copy(out, c.participants)
	return out
}

// ParticipantByID returns the participant with the given ID, or nil.
func (c *Conversation) ParticipantByID(id string) Participant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.participants {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

// ParticipantByName returns the participant with the given display name, or nil.
func (c *Conversation) ParticipantByName(name string) Participant {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.participants {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// RegistrationOrder returns the zero-based registration index of the
// participant, or -1 if it is not part of the conversation.
func (c *Conversation) RegistrationOrder(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, p := range c.participants {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

// Append stamps the event with the next turn number and appends it to the
// history, returning the stamped copy. Prefer Broadcast unless fan-out is
// intentionally skipped.
func (c *Conversation) Append(ev Event) Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev.Turn = len(c.events)
	c.events = append(c.events, ev)
	c.updated = time.Now().UTC()
	return ev
}

// Broadcast appends the event then delivers it concurrently to every
// participant except the sender. Delivery errors are isolated per
// participant; the first non-nil error is returned after all deliveries
// complete.
func (c *Conversation) Broadcast(ctx context.Context, ev Event) (Event, error) {
	appended := c.Append(ev)

	g := new(errgroup.Group)
	for _, p := range c.Participants() {
		if p.ID() == appended.SenderID {
			continue
		}
		g.Go(func() error {
			return p.OnEvent(ctx, c, appended)
		})
	}
	return appended, g.Wait()
}

// Events returns a defensive copy of the full event history.
func (c *Conversation) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// LastN returns a copy of the most recent n events (fewer if the history is
// shorter).
func (c *Conversation) LastN(n int) []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n > len(c.events) {
		n = len(c.events)
	}
	out := make([]Event, n)
	copy(out, c.events[len(c.events)-n:])
	return out
}

// LastEvent returns the most recent event and true, or a zero event and false
// for an empty history.
func (c *Conversation) LastEvent() (Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[len(c.events)-1], true
}

// Turn returns the turn number the next appended event will receive.
func (c *Conversation) Turn() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// EventByID returns the event with the given ID and true, or false when absent.
func (c *Conversation) EventByID(id string) (Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ev := range c.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return Event{}, false
}

// Updated returns the time of the last mutation.
func (c *Conversation) Updated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}
