package reservoir

import (
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/innerthoughts/core"
)

// DefaultCapacity bounds a reservoir when the caller does not choose one.
const DefaultCapacity = 32

// Reservoir is a bounded, insertion-ordered thought store owned by a single
// agent. It is guarded for concurrent access because pipeline goroutines may
// deliver late thoughts while a new cycle reads candidates.
type Reservoir struct {
	mu       sync.RWMutex
	capacity int
	thoughts []*core.Thought // insertion order preserved
}

// New creates a reservoir with the given capacity (DefaultCapacity when
// non-positive).
func New(capacity int) *Reservoir {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Reservoir{capacity: capacity}
}

// Capacity returns the configured bound.
func (r *Reservoir) Capacity() int { return r.capacity }

// Len returns the current number of stored thoughts.
func (r *Reservoir) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.thoughts)
}

// Add inserts a thought, evicting on overflow. Eviction removes the
// lowest-saliency thought with status Articulated or Discarded first; when
// none exists, the lowest-saliency thought overall. Ties go to the oldest
// insertion.
func (r *Reservoir) Add(t *core.Thought) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.thoughts = append(r.thoughts, t)
	now := time.Now().UTC()
	for len(r.thoughts) > r.capacity {
		r.evictOneLocked(now)
	}
}

func (r *Reservoir) evictOneLocked(now time.Time) {
	victim := r.lowestLocked(now, func(t *core.Thought) bool {
		s := t.Status()
		return s == core.StatusArticulated || s == core.StatusDiscarded
	})
	if victim < 0 {
		victim = r.lowestLocked(now, func(*core.Thought) bool { return true })
	}
	if victim < 0 {
		victim = 0
	}
	r.thoughts = append(r.thoughts[:victim], r.thoughts[victim+1:]...)
}

func (r *Reservoir) lowestLocked(now time.Time, eligible func(*core.Thought) bool) int {
	idx := -1
	var lowest float64
	for i, t := range r.thoughts {
		if !eligible(t) {
			continue
		}
		s := t.Saliency(now)
		if idx < 0 || s < lowest {
			idx, lowest = i, s
		}
	}
	return idx
}

// Remove deletes the thought with the given ID, reporting whether it existed.
func (r *Reservoir) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.thoughts {
		if t.ID() == id {
			r.thoughts = append(r.thoughts[:i], r.thoughts[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the thought with the given ID, or nil.
func (r *Reservoir) Get(id string) *core.Thought {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.thoughts {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

// All returns a copy of the stored thoughts in insertion order.
func (r *Reservoir) All() []*core.Thought {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Thought, len(r.thoughts))
	copy(out, r.thoughts)
	return out
}

// Objects returns the reservoir contents as a retrieval pool.
func (r *Reservoir) Objects() []core.MentalObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.MentalObject, len(r.thoughts))
	for i, t := range r.thoughts {
		out[i] = t
	}
	return out
}

// WithStatus returns the thoughts currently in the given lifecycle status,
// in insertion order.
func (r *Reservoir) WithStatus(status core.ThoughtStatus) []*core.Thought {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*core.Thought
	for _, t := range r.thoughts {
		if t.Status() == status {
			out = append(out, t)
		}
	}
	return out
}

// TopKBySaliency returns up to k live thoughts (not Articulated/Discarded)
// with saliency >= threshold at the given instant, ordered by descending
// saliency with recency breaking ties. When system is non-negative, only
// thoughts of that generation origin are considered.
func (r *Reservoir) TopKBySaliency(k int, system core.GenSystem, threshold float64, now time.Time) []*core.Thought {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := make([]*core.Thought, 0, len(r.thoughts))
	for _, t := range r.thoughts {
		if s := t.Status(); s == core.StatusArticulated || s == core.StatusDiscarded {
			continue
		}
		if system >= 0 && t.System() != system {
			continue
		}
		if t.Saliency(now) < threshold {
			continue
		}
		candidates = append(candidates, t)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i].Saliency(now), candidates[j].Saliency(now)
		if si != sj {
			return si > sj
		}
		return candidates[i].CreatedAt().After(candidates[j].CreatedAt())
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k]
}

// AnySystem disables the generation-origin filter of TopKBySaliency.
const AnySystem core.GenSystem = -1
