package core

import (
	"sync"
	"time"
)

// GenSystem tags the generation path that produced a thought.
type GenSystem int

const (
	// System1 marks fast, reactive thoughts formed with minimal context.
	System1 GenSystem = iota
	// System2 marks deliberate thoughts formed from retrieved context.
	System2
)

// String returns the string representation of the generation system.
func (s GenSystem) String() string {
	if s == System1 {
		return "system1"
	}
	return "system2"
}

// ThoughtStatus is the lifecycle state of a thought.
type ThoughtStatus int

const (
	// StatusFormed is the initial state after generation.
	StatusFormed ThoughtStatus = iota
	// StatusEvaluated means an intrinsic-motivation score has been assigned.
	StatusEvaluated
	// StatusSelected means the thought is a speaking candidate this cycle.
	StatusSelected
	// StatusArticulated means the thought was voiced as an utterance.
	StatusArticulated
	// StatusDiscarded marks thoughts dropped by failure, promotion or eviction.
	StatusDiscarded
)

// String returns the string representation of the status.
func (s ThoughtStatus) String() string {
	switch s {
	case StatusFormed:
		return "formed"
	case StatusEvaluated:
		return "evaluated"
	case StatusSelected:
		return "selected"
	case StatusArticulated:
		return "articulated"
	case StatusDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// MotivationUnset is the sentinel value of an unevaluated thought.
const MotivationUnset = 0.0

// Motivation bounds of the 1-5 intrinsic-motivation scale.
const (
	MotivationMin = 1.0
	MotivationMax = 5.0
)

// ClampMotivation maps an arbitrary score into the [1,5] motivation range.
func ClampMotivation(v float64) float64 {
	switch {
	case v < MotivationMin:
		return MotivationMin
	case v > MotivationMax:
		return MotivationMax
	default:
		return v
	}
}

// Thought is an ephemeral mental object produced by the formation pipeline.
// It lives in a bounded reservoir and progresses through the lifecycle
// Formed -> Evaluated -> Selected -> Articulated, or is Discarded.
type Thought struct {
	attrs

	system  GenSystem
	trigger string   // ID of the triggering event
	stimuli []string // IDs of retrieved objects used as formation context

	stateMu    sync.Mutex
	status     ThoughtStatus
	motivation float64
}

// NewThought creates a Formed thought owned by the given agent.
func NewThought(agentID string, system GenSystem, content string, embedding []float32, triggerEventID string, stimuli []string, seed ObjectSeed) *Thought {
	now := time.Now().UTC()
	return &Thought{
		attrs:      newAttrs(NewID(), agentID, content, embedding, seed, now),
		system:     system,
		trigger:    triggerEventID,
		stimuli:    stimuli,
		status:     StatusFormed,
		motivation: MotivationUnset,
	}
}

// System returns the generation system tag.
func (t *Thought) System() GenSystem { return t.system }

// TriggerEventID returns the ID of the event that triggered formation.
func (t *Thought) TriggerEventID() string { return t.trigger }

// Stimuli returns the IDs of the retrieved objects that stimulated the thought.
func (t *Thought) Stimuli() []string {
	out := make([]string, len(t.stimuli))
	copy(out, t.stimuli)
	return out
}

// Status returns the current lifecycle status.
func (t *Thought) Status() ThoughtStatus {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.status
}

// SetStatus transitions the thought to the given lifecycle status.
func (t *Thought) SetStatus(s ThoughtStatus) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.status = s
}

// Motivation returns the intrinsic-motivation score, or MotivationUnset if
// the thought has not been evaluated.
func (t *Thought) Motivation() float64 {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.motivation
}

// SetMotivation stores the clamped intrinsic-motivation score and moves the
// thought to Evaluated.
func (t *Thought) SetMotivation(v float64) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.motivation = ClampMotivation(v)
	t.status = StatusEvaluated
}

// Evaluated reports whether a motivation score has been assigned.
func (t *Thought) Evaluated() bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.motivation != MotivationUnset
}
