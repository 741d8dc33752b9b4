package core

import "time"

// Memory is a durable mental object. Unlike thoughts, memories are never
// auto-evicted; they are created at agent initialization (background
// knowledge) or promoted from an articulated thought or observed event.
type Memory struct {
	attrs

	source string // ID of the thought or event this memory was promoted from
}

// NewMemory creates a memory owned by the given agent.
func NewMemory(agentID, content string, embedding []float32, seed ObjectSeed) *Memory {
	now := time.Now().UTC()
	return &Memory{attrs: newAttrs(NewID(), agentID, content, embedding, seed, now)}
}

// PromoteThought copies a thought's content and embedding into a new Memory
// with saliency reset to the seed value, and marks the source thought
// Discarded. The thought stays queryable in its reservoir until evicted.
func PromoteThought(t *Thought, seed ObjectSeed) *Memory {
	m := NewMemory(t.AgentID(), t.Text(), t.Vector(), seed)
	m.source = t.ID()
	t.SetStatus(StatusDiscarded)
	return m
}

// SourceID returns the ID of the thought or event the memory was promoted
// from, or "" for background knowledge.
func (m *Memory) SourceID() string { return m.source }
