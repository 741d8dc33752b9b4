package saliency

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/innerthoughts/core"
)

func memoryWith(text string, vec []float32, weight, sal float64) *core.Memory {
	return core.NewMemory("agent-1", text, vec, core.ObjectSeed{
		Weight:   weight,
		Saliency: sal,
		HalfLife: time.Hour,
	})
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine(nil, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{1, 0, 0}))
}

func TestRankMonotonicInEachFactor(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()
	query := []float32{1, 0}

	base := memoryWith("base", []float32{1, 0}, 1.0, 0.5)

	heavier := memoryWith("heavier", []float32{1, 0}, 2.0, 0.5)
	assert.Greater(t, cfg.Rank(heavier, query, now), cfg.Rank(base, query, now))

	moreSalient := memoryWith("salient", []float32{1, 0}, 1.0, 0.9)
	assert.Greater(t, cfg.Rank(moreSalient, query, now), cfg.Rank(base, query, now))

	lessSimilar := memoryWith("askew", []float32{1, 1}, 1.0, 0.5)
	assert.Less(t, cfg.Rank(lessSimilar, query, now), cfg.Rank(base, query, now))
}

func TestRankFloorsNegativeSimilarity(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()

	opposed := memoryWith("opposed", []float32{-1, 0}, 10.0, 0.0)
	neutral := memoryWith("neutral", []float32{0, 1}, 1.0, 0.0)

	// A large weight on antipodal content must not outrank neutral content.
	assert.GreaterOrEqual(t, cfg.Rank(opposed, []float32{1, 0}, now), 0.0)
	assert.Equal(t, cfg.Rank(neutral, []float32{1, 0}, now), 0.0)
}

func TestRetrieveOrdersByRank(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()
	query := []float32{1, 0}

	strong := memoryWith("strong", []float32{1, 0}, 1.0, 0.9)
	weak := memoryWith("weak", []float32{0, 1}, 1.0, 0.1)
	mid := memoryWith("mid", []float32{1, 1}, 1.0, 0.5)

	got := cfg.Retrieve(query, []core.MentalObject{weak, strong, mid}, 3, now)

	var texts []string
	for _, obj := range got {
		texts = append(texts, obj.Text())
	}
	if diff := cmp.Diff([]string{"strong", "mid", "weak"}, texts); diff != "" {
		t.Errorf("retrieval order mismatch (-want +got):\n%s", diff)
	}
}

func TestRetrieveTiesBreakByRecency(t *testing.T) {
	cfg := DefaultConfig()
	query := []float32{1, 0}

	older := memoryWith("older", []float32{1, 0}, 1.0, 0.5)
	time.Sleep(2 * time.Millisecond)
	newer := memoryWith("newer", []float32{1, 0}, 1.0, 0.5)
	now := newer.CreatedAt()

	got := cfg.Retrieve(query, []core.MentalObject{older, newer}, 2, now)
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Text())
}

func TestRetrieveLimitsToK(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()
	pool := []core.MentalObject{
		memoryWith("a", []float32{1, 0}, 1.0, 0.5),
		memoryWith("b", []float32{1, 0}, 1.0, 0.5),
	}

	assert.Len(t, cfg.Retrieve([]float32{1, 0}, pool, 1, now), 1)
	assert.Nil(t, cfg.Retrieve([]float32{1, 0}, pool, 0, now))
	assert.Nil(t, cfg.Retrieve([]float32{1, 0}, nil, 3, now))
}

func TestRecalibrateBoostsAboveFloor(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now().UTC()

	relevant := memoryWith("relevant", []float32{1, 0}, 1.0, 0.1)
	irrelevant := memoryWith("irrelevant", []float32{0, 1}, 1.0, 0.1)

	ev := core.NewUtteranceEvent("p1", "Dana", "on topic").WithEmbedding([]float32{1, 0})
	ev.Turn = 3
	cfg.Recalibrate(ev, []core.MentalObject{relevant, irrelevant}, now)

	assert.InDelta(t, 1.0, relevant.Saliency(now), 1e-9)
	assert.InDelta(t, 0.1, irrelevant.Saliency(now), 1e-2)
	assert.Equal(t, 3, relevant.LastAccessedTurn())
	assert.Equal(t, 0, irrelevant.LastAccessedTurn())
}

func TestRecalibrateNeverLowersSaliency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BoostGain = 0.5
	now := time.Now().UTC()

	vivid := memoryWith("vivid", []float32{1, 0}, 1.0, 0.9)
	ev := core.NewUtteranceEvent("p1", "Dana", "on topic").WithEmbedding([]float32{1, 0})

	cfg.Recalibrate(ev, []core.MentalObject{vivid}, now)

	// sim*gain = 0.5 would be a downgrade; the current value wins.
	assert.InDelta(t, 0.9, vivid.Saliency(now), 1e-6)
}

func TestSeeds(t *testing.T) {
	cfg := DefaultConfig()

	s1 := cfg.ThoughtSeed(core.System1, 2)
	s2 := cfg.ThoughtSeed(core.System2, 2)
	assert.Equal(t, cfg.System1Base, s1.Saliency)
	assert.Equal(t, cfg.System2Base, s2.Saliency)
	assert.Equal(t, 2, s1.Turn)

	m := cfg.MemorySeed(5)
	assert.Equal(t, cfg.MemoryInitial, m.Saliency)
	assert.Equal(t, 5, m.Turn)
}
