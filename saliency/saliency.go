package saliency

import (
	"math"
	"sort"
	"time"

	"github.com/hupe1980/innerthoughts/core"
)

// Config parameterizes decay, recalibration and ranking.
type Config struct {
	// HalfLife is the saliency decay half-life. Zero disables decay.
	HalfLife time.Duration

	// RelevanceFloor is the minimum cosine similarity for an event to boost
	// an object during recalibration.
	RelevanceFloor float64

	// BoostGain scales similarity into the boosted saliency value.
	BoostGain float64

	// RankSaliencyWeight is the saliency share (alpha) in the rank
	// combination; similarity receives 1-alpha.
	RankSaliencyWeight float64

	// System1Base and System2Base seed the saliency of freshly formed
	// thoughts by generation origin.
	System1Base float64
	System2Base float64

	// MemoryInitial seeds the saliency of promoted and background memories.
	MemoryInitial float64

	// DefaultWeight is the static importance multiplier assigned at creation
	// when the caller supplies none.
	DefaultWeight float64
}

// DefaultConfig returns the baseline tuning: ten-minute half-life, the 0.3
// relevance floor of the evaluation retrieval threshold, and an even
// saliency/similarity split in ranking.
func DefaultConfig() Config {
	return Config{
		HalfLife:           10 * time.Minute,
		RelevanceFloor:     0.3,
		BoostGain:          1.0,
		RankSaliencyWeight: 0.5,
		System1Base:        0.6,
		System2Base:        0.8,
		MemoryInitial:      0.5,
		DefaultWeight:      1.0,
	}
}

// ThoughtSeed returns the ObjectSeed for a new thought of the given origin.
func (c Config) ThoughtSeed(system core.GenSystem, turn int) core.ObjectSeed {
	base := c.System2Base
	if system == core.System1 {
		base = c.System1Base
	}
	return core.ObjectSeed{Weight: c.DefaultWeight, Saliency: base, HalfLife: c.HalfLife, Turn: turn}
}

// MemorySeed returns the ObjectSeed for a new or promoted memory.
func (c Config) MemorySeed(turn int) core.ObjectSeed {
	return core.ObjectSeed{Weight: c.DefaultWeight, Saliency: c.MemoryInitial, HalfLife: c.HalfLife, Turn: turn}
}

// Cosine returns the cosine similarity of two vectors in [-1,1]. Mismatched
// or empty vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank combines decayed saliency, query similarity and static weight into a
// single retrieval score:
//
//	rank = weight * (alpha*saliency + (1-alpha)*max(similarity, 0))
//
// The combination is monotonically non-decreasing in each factor. Negative
// similarity is floored at zero so antipodal content never outranks neutral
// content through a large weight.
func (c Config) Rank(obj core.MentalObject, query []float32, now time.Time) float64 {
	sim := Cosine(obj.Vector(), query)
	if sim < 0 {
		sim = 0
	}
	alpha := c.RankSaliencyWeight
	return obj.Weight() * (alpha*obj.Saliency(now) + (1-alpha)*sim)
}

// Retrieve returns the top-k pool members ranked against the query embedding
// at the given instant. Ties break by recency (the most recently created
// object wins). The result is a fresh slice; a new call recomputes from
// scratch.
func (c Config) Retrieve(query []float32, pool []core.MentalObject, k int, now time.Time) []core.MentalObject {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	type scored struct {
		obj  core.MentalObject
		rank float64
	}
	ranked := make([]scored, 0, len(pool))
	for _, obj := range pool {
		ranked = append(ranked, scored{obj: obj, rank: c.Rank(obj, query, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].rank != ranked[j].rank {
			return ranked[i].rank > ranked[j].rank
		}
		return ranked[i].obj.CreatedAt().After(ranked[j].obj.CreatedAt())
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]core.MentalObject, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].obj
	}
	return out
}

// Recalibrate boosts the saliency of every pool object whose similarity to
// the event exceeds the relevance floor. This is how a new event makes old
// memories and thoughts newly relevant; weights are never altered. Objects
// below the floor keep decaying from their previous anchor.
func (c Config) Recalibrate(ev core.Event, pool []core.MentalObject, now time.Time) {
	for _, obj := range pool {
		sim := Cosine(obj.Vector(), ev.Embedding)
		if sim < c.RelevanceFloor {
			continue
		}
		boosted := sim * c.BoostGain
		if current := obj.Saliency(now); current > boosted {
			boosted = current
		}
		obj.Boost(boosted, now)
		obj.Touch(ev.Turn)
	}
}
