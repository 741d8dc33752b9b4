package testutil

import (
	"time"

	"github.com/hupe1980/innerthoughts/core"
)

// ThoughtBuilder provides a fluent helper for constructing thoughts in tests.
// Example:
//
//	th := NewThoughtBuilder().Agent("a1").Content("hm").Motivation(4.2).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type ThoughtBuilder struct {
	agentID    string
	system     core.GenSystem
	content    string
	embedding  []float32
	trigger    string
	stimuli    []string
	seed       core.ObjectSeed
	motivation *float64
	status     *core.ThoughtStatus
}

// NewThoughtBuilder creates a builder with default agent "agent" and a stable
// hour-long half-life so decay stays negligible within a test run.
func NewThoughtBuilder() *ThoughtBuilder {
	return &ThoughtBuilder{
		agentID: "agent",
		system:  core.System1,
		content: "a passing thought",
		seed: core.ObjectSeed{
			Weight:   1.0,
			Saliency: 0.5,
			HalfLife: time.Hour,
		},
	}
}

// Agent sets the owning agent ID (chainable).
func (b *ThoughtBuilder) Agent(id string) *ThoughtBuilder { b.agentID = id; return b }

// System sets the generation origin (chainable).
func (b *ThoughtBuilder) System(s core.GenSystem) *ThoughtBuilder { b.system = s; return b }

// Content sets the thought text (chainable).
func (b *ThoughtBuilder) Content(c string) *ThoughtBuilder { b.content = c; return b }

// Embedding sets the thought vector (chainable).
func (b *ThoughtBuilder) Embedding(vec []float32) *ThoughtBuilder { b.embedding = vec; return b }

// Trigger sets the triggering event ID (chainable).
func (b *ThoughtBuilder) Trigger(eventID string) *ThoughtBuilder { b.trigger = eventID; return b }

// Stimuli sets the stimuli references (chainable).
func (b *ThoughtBuilder) Stimuli(refs ...string) *ThoughtBuilder { b.stimuli = refs; return b }

// Saliency sets the initial saliency (chainable).
func (b *ThoughtBuilder) Saliency(s float64) *ThoughtBuilder { b.seed.Saliency = s; return b }

// Weight sets the object weight (chainable).
func (b *ThoughtBuilder) Weight(w float64) *ThoughtBuilder { b.seed.Weight = w; return b }

// Motivation sets a motivation score, which also marks the thought evaluated
// (chainable).
func (b *ThoughtBuilder) Motivation(m float64) *ThoughtBuilder { b.motivation = &m; return b }

// Status overrides the lifecycle status after construction (chainable).
func (b *ThoughtBuilder) Status(s core.ThoughtStatus) *ThoughtBuilder { b.status = &s; return b }

// Build constructs the core.Thought value.
func (b *ThoughtBuilder) Build() *core.Thought {
	th := core.NewThought(b.agentID, b.system, b.content, b.embedding, b.trigger, b.stimuli, b.seed)
	if b.motivation != nil {
		th.SetMotivation(*b.motivation)
	}
	if b.status != nil {
		th.SetStatus(*b.status)
	}
	return th
}
