package core

import (
	"math"
	"sync"
	"time"
)

// MentalObject is the shared polymorphic view over Thought and Memory used by
// the saliency and retrieval machinery. It is modeled as an interface rather
// than a base struct hierarchy so that retrieval pools can mix both subtypes
// without fragile coupling.
//
// Saliency is never cached indefinitely: Saliency(now) recomputes the decayed
// value from the last boost anchor, so two calls with the same instant return
// the same result. Weight is fixed at creation.
type MentalObject interface {
	ID() string
	AgentID() string
	Text() string
	Vector() []float32
	Weight() float64
	CreatedAt() time.Time

	// Saliency returns the decayed saliency at the given instant, in [0,1].
	Saliency(now time.Time) float64

	// Boost re-anchors saliency to value (clamped to [0,1]) at the given
	// instant. Used by recalibration when a new event makes the object
	// relevant again.
	Boost(value float64, at time.Time)

	// Touch records retrieval bookkeeping for the given conversation turn.
	Touch(turn int)

	LastAccessedTurn() int
}

// ObjectSeed carries the initial mutable state assigned to a mental object at
// creation time. Weight is immutable afterwards; Saliency becomes the first
// decay anchor.
type ObjectSeed struct {
	Weight   float64
	Saliency float64
	HalfLife time.Duration
	Turn     int
}

// attrs is the state shared by Thought and Memory. All saliency mutations go
// through the mutex so recalibration may run concurrently with retrieval.
type attrs struct {
	id        string
	agentID   string
	content   string
	embedding []float32
	weight    float64
	created   time.Time

	mu             sync.Mutex
	saliency       float64       // value at anchor
	anchor         time.Time     // instant of the last boost
	halfLife       time.Duration // 0 disables decay
	lastAccessed   int
	retrievalCount int
}

func newAttrs(id, agentID, content string, embedding []float32, seed ObjectSeed, now time.Time) attrs {
	return attrs{
		id:           id,
		agentID:      agentID,
		content:      content,
		embedding:    embedding,
		weight:       seed.Weight,
		created:      now,
		saliency:     clamp01(seed.Saliency),
		anchor:       now,
		halfLife:     seed.HalfLife,
		lastAccessed: seed.Turn,
	}
}

// ID returns the unique identifier of the object.
func (a *attrs) ID() string { return a.id }

// AgentID returns the identifier of the owning agent.
func (a *attrs) AgentID() string { return a.agentID }

// Text returns the textual content.
func (a *attrs) Text() string { return a.content }

// Vector returns the embedding vector. Callers must not mutate it.
func (a *attrs) Vector() []float32 { return a.embedding }

// Weight returns the static importance multiplier set at creation.
func (a *attrs) Weight() float64 { return a.weight }

// CreatedAt returns the creation timestamp (UTC).
func (a *attrs) CreatedAt() time.Time { return a.created }

// Saliency computes the exponentially decayed saliency at the given instant.
// The computation is a pure function of (anchor value, elapsed time), applied
// lazily at read time so results are deterministic for a fixed now.
func (a *attrs) Saliency(now time.Time) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.decayedLocked(now)
}

func (a *attrs) decayedLocked(now time.Time) float64 {
	if a.halfLife <= 0 {
		return a.saliency
	}
	elapsed := now.Sub(a.anchor)
	if elapsed <= 0 {
		return a.saliency
	}
	halves := float64(elapsed) / float64(a.halfLife)
	return clamp01(a.saliency * math.Pow(0.5, halves))
}

// Boost re-anchors the saliency value at the given instant.
func (a *attrs) Boost(value float64, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saliency = clamp01(value)
	a.anchor = at
}

// Touch updates the last-accessed turn and retrieval count. Turns never move
// backwards.
func (a *attrs) Touch(turn int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if turn > a.lastAccessed {
		a.lastAccessed = turn
	}
	a.retrievalCount++
}

// LastAccessedTurn returns the most recent conversation turn on which the
// object was retrieved or recalibrated.
func (a *attrs) LastAccessedTurn() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAccessed
}

// RetrievalCount returns how often the object has been retrieved.
func (a *attrs) RetrievalCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.retrievalCount
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
