package reservoir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/innerthoughts/core"
)

func newThought(t *testing.T, content string, saliency float64) *core.Thought {
	t.Helper()
	seed := core.ObjectSeed{
		Weight:   1.0,
		Saliency: saliency,
		HalfLife: time.Hour,
	}
	return core.NewThought("agent-1", core.System1, content, nil, "", nil, seed)
}

func TestReservoirAdd(t *testing.T) {
	r := New(3)
	r.Add(newThought(t, "a", 0.5))
	r.Add(newThought(t, "b", 0.7))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 3, r.Capacity())
}

func TestReservoirEvictsSpentThoughtsFirst(t *testing.T) {
	r := New(3)

	spent := newThought(t, "already said", 0.9)
	spent.SetStatus(core.StatusArticulated)
	low := newThought(t, "faint", 0.1)
	high := newThought(t, "vivid", 0.8)

	r.Add(spent)
	r.Add(low)
	r.Add(high)
	require.Equal(t, 3, r.Len())

	// Overflow: the articulated thought goes first even though the faint
	// one has lower saliency.
	r.Add(newThought(t, "new", 0.6))
	assert.Equal(t, 3, r.Len())
	assert.Nil(t, r.Get(spent.ID()))
	assert.NotNil(t, r.Get(low.ID()))
	assert.NotNil(t, r.Get(high.ID()))
}

func TestReservoirEvictsLowestSaliencyWhenNoneSpent(t *testing.T) {
	r := New(2)
	low := newThought(t, "faint", 0.1)
	high := newThought(t, "vivid", 0.8)

	r.Add(low)
	r.Add(high)
	r.Add(newThought(t, "new", 0.5))

	assert.Equal(t, 2, r.Len())
	assert.Nil(t, r.Get(low.ID()))
	assert.NotNil(t, r.Get(high.ID()))
}

func TestReservoirCapacityHeldAfterOverflow(t *testing.T) {
	r := New(4)
	for i := 0; i < 4; i++ {
		r.Add(newThought(t, "t", 0.5))
	}
	require.Equal(t, 4, r.Len())

	r.Add(newThought(t, "overflow", 0.5))
	assert.Equal(t, 4, r.Len())
}

func TestReservoirRemove(t *testing.T) {
	r := New(3)
	th := newThought(t, "a", 0.5)
	r.Add(th)

	assert.True(t, r.Remove(th.ID()))
	assert.False(t, r.Remove(th.ID()))
	assert.Equal(t, 0, r.Len())
}

func TestReservoirWithStatus(t *testing.T) {
	r := New(4)
	formed := newThought(t, "formed", 0.5)
	selected := newThought(t, "selected", 0.5)
	selected.SetStatus(core.StatusSelected)

	r.Add(formed)
	r.Add(selected)

	got := r.WithStatus(core.StatusSelected)
	require.Len(t, got, 1)
	assert.Equal(t, selected.ID(), got[0].ID())
}

func TestTopKBySaliency(t *testing.T) {
	r := New(8)
	now := time.Now().UTC()

	low := newThought(t, "low", 0.2)
	mid := newThought(t, "mid", 0.5)
	high := newThought(t, "high", 0.9)
	spent := newThought(t, "spent", 1.0)
	spent.SetStatus(core.StatusDiscarded)

	r.Add(low)
	r.Add(mid)
	r.Add(high)
	r.Add(spent)

	got := r.TopKBySaliency(2, AnySystem, 0.3, now)
	require.Len(t, got, 2)
	assert.Equal(t, high.ID(), got[0].ID())
	assert.Equal(t, mid.ID(), got[1].ID())
}

func TestTopKBySaliencySystemFilter(t *testing.T) {
	r := New(8)
	now := time.Now().UTC()

	fast := newThought(t, "fast", 0.5)
	seed := core.ObjectSeed{Weight: 1.0, Saliency: 0.9, HalfLife: time.Hour}
	slow := core.NewThought("agent-1", core.System2, "slow", nil, "", nil, seed)

	r.Add(fast)
	r.Add(slow)

	got := r.TopKBySaliency(5, core.System2, 0.0, now)
	require.Len(t, got, 1)
	assert.Equal(t, slow.ID(), got[0].ID())
}
