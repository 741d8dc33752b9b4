package innerthoughts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/innerthoughts/agent"
	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/model"
)

func TestRuntimeFullCycle(t *testing.T) {
	gen := model.NewMockGenerator()
	gen.Enqueue(
		`{"thoughts": [{"content": "ask about their trip", "stimuli": []}]}`,
		`{"articulation": "how was the trip?"}`,
	)

	rt := New(gen, func(o *Options) {
		o.Scorer = model.NewMockScorer(4.5)
	})

	conv := rt.NewConversation("casual catch-up")
	ada, err := rt.NewAgent("Ada", func(o *agent.Options) {
		o.Config.System1Prob = 0.0
		o.Config.IMThreshold = 3.0
	})
	require.NoError(t, err)
	require.NoError(t, conv.AddParticipant(ada))

	human := core.NewHuman("Dana")
	require.NoError(t, conv.AddParticipant(human))
	require.NoError(t, ada.InitializeMemory(context.Background(), "Loves travel stories.", false))

	_, err = human.SendMessage(context.Background(), conv, "Just got back from Lisbon!")
	require.NoError(t, err)

	speaker, text, err := rt.Step(context.Background(), conv)
	require.NoError(t, err)
	require.NotNil(t, speaker)
	assert.Equal(t, "Ada", speaker.Name())
	assert.Equal(t, "how was the trip?", text)
	assert.Len(t, conv.Events(), 2)
}

func TestRuntimeSilence(t *testing.T) {
	gen := model.NewMockGenerator()
	gen.Enqueue(`{"thoughts": [{"content": "nothing to add", "stimuli": []}]}`)

	rt := New(gen, func(o *Options) {
		o.Scorer = model.NewMockScorer(1.0)
	})

	conv := rt.NewConversation("quiet room")
	ada, err := rt.NewAgent("Ada", func(o *agent.Options) {
		o.Config.System1Prob = 0.0
		o.Config.IMThreshold = 4.0
	})
	require.NoError(t, err)
	require.NoError(t, conv.AddParticipant(ada))

	human := core.NewHuman("Dana")
	require.NoError(t, conv.AddParticipant(human))
	_, err = human.SendMessage(context.Background(), conv, "Anyway.")
	require.NoError(t, err)

	speaker, text, err := rt.Step(context.Background(), conv)
	require.NoError(t, err)
	assert.Nil(t, speaker)
	assert.Empty(t, text)
}
