package turntaking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/innerthoughts/agent"
	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/internal/testutil"
	"github.com/hupe1980/innerthoughts/model"
	"github.com/hupe1980/innerthoughts/thinking"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newAgent(t *testing.T, name string, gen model.Generator, score float64, cfg func(c *core.ProactivityConfig)) *agent.Agent {
	t.Helper()
	engine := thinking.New(gen, model.NewMockScorer(score), model.NewLocalEmbedder(0))
	a, err := agent.New(name, engine, func(o *agent.Options) {
		o.Embedder = model.NewLocalEmbedder(0)
		o.Config.System1Prob = 0.0
		if cfg != nil {
			cfg(&o.Config)
		}
	})
	require.NoError(t, err)
	return a
}

func candidateFor(t *testing.T, name string, motivation float64, tc TurnContext, order int, cfg func(c *core.ProactivityConfig)) Candidate {
	t.Helper()
	ag := newAgent(t, name, model.NewMockGenerator(), 3, cfg)
	th := testutil.NewThoughtBuilder().Agent(ag.ID()).Motivation(motivation).Build()
	return Candidate{Agent: ag, Thought: th, Context: tc, Order: order}
}

func TestClassify(t *testing.T) {
	ag := newAgent(t, "Ada", model.NewMockGenerator(), 3, nil)

	assert.Equal(t, TurnOpen, classify(ag, AnySpeaker))
	assert.Equal(t, TurnAllocated, classify(ag, "Ada"))
	assert.Equal(t, TurnOthers, classify(ag, "Bob"))
}

func TestOpenTurnAboveThresholdWins(t *testing.T) {
	a := candidateFor(t, "A", 4.0, TurnOpen, 0, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.2
	})

	winner := arbitrate(qualifying([]Candidate{a}))
	require.NotNil(t, winner)
	assert.Equal(t, "A", winner.Agent.Name())
}

func TestOpenTurnBelowThresholdIsSilent(t *testing.T) {
	a := candidateFor(t, "A", 2.5, TurnOpen, 0, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.2
	})

	assert.Nil(t, arbitrate(qualifying([]Candidate{a})))
}

func TestAllocatedBeatsHigherMotivation(t *testing.T) {
	b := candidateFor(t, "B", 1.0, TurnAllocated, 0, nil)
	c := candidateFor(t, "C", 5.0, TurnOpen, 1, func(cfg *core.ProactivityConfig) {
		cfg.IMThreshold = 1.0
	})

	winner := arbitrate(qualifying([]Candidate{c, b}))
	require.NotNil(t, winner)
	assert.Equal(t, "B", winner.Agent.Name())
}

func TestInterruptAboveThreshold(t *testing.T) {
	d := candidateFor(t, "D", 4.8, TurnOthers, 1, func(c *core.ProactivityConfig) {
		c.InterruptThreshold = 4.5
	})

	winner := arbitrate(qualifying([]Candidate{d}))
	require.NotNil(t, winner)
	assert.Equal(t, "D", winner.Agent.Name())
}

func TestInterruptBelowThresholdNeverWins(t *testing.T) {
	d := candidateFor(t, "D", 4.4, TurnOthers, 0, func(c *core.ProactivityConfig) {
		c.InterruptThreshold = 4.5
	})

	assert.Nil(t, arbitrate(qualifying([]Candidate{d})))
}

func TestUnevaluatedThoughtNeverQualifies(t *testing.T) {
	ag := newAgent(t, "A", model.NewMockGenerator(), 3, nil)
	th := testutil.NewThoughtBuilder().Agent(ag.ID()).Build() // still Formed
	c := Candidate{Agent: ag, Thought: th, Context: TurnAllocated}

	assert.Empty(t, qualifying([]Candidate{c}))
}

func TestArbitrationDeterminism(t *testing.T) {
	low := candidateFor(t, "Low", 3.5, TurnOpen, 0, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.0
	})
	high := candidateFor(t, "High", 4.5, TurnOpen, 1, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.0
	})

	for i := 0; i < 10; i++ {
		winner := arbitrate(qualifying([]Candidate{low, high}))
		require.NotNil(t, winner)
		assert.Equal(t, "High", winner.Agent.Name())

		winner = arbitrate(qualifying([]Candidate{high, low}))
		require.NotNil(t, winner)
		assert.Equal(t, "High", winner.Agent.Name())
	}
}

func TestArbitrationTieBreaksByFormation(t *testing.T) {
	cfg := func(c *core.ProactivityConfig) { c.IMThreshold = 3.0 }
	first := candidateFor(t, "First", 4.0, TurnOpen, 1, cfg)
	time.Sleep(5 * time.Millisecond)
	second := candidateFor(t, "Second", 4.0, TurnOpen, 0, cfg)

	winner := arbitrate(qualifying([]Candidate{second, first}))
	require.NotNil(t, winner)
	assert.Equal(t, "First", winner.Agent.Name())
}

func TestDecideDispatchesWinner(t *testing.T) {
	gen := model.NewMockGenerator()
	gen.Enqueue(
		`{"thoughts": [{"content": "mention the regatta schedule", "stimuli": []}]}`,
		`{"articulation": "theres a regatta next weekend btw"}`,
	)
	ada := newAgent(t, "Ada", gen, 4.5, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.0
	})

	human := core.NewHuman("Dana")
	conv := testutil.NewConversationBuilder().
		Participant(human).
		Participant(ada).
		Utterance(human.ID(), "Dana", "Any sailing events coming up?").
		Build()

	engine := New(func(o *Options) {
		o.PipelineTimeout = 5 * time.Second
	})
	speaker, text, err := engine.DecideNextSpeakerAndUtterance(context.Background(), conv)
	require.NoError(t, err)

	require.NotNil(t, speaker)
	assert.Equal(t, "Ada", speaker.Name())
	assert.Equal(t, "theres a regatta next weekend btw", text)
	assert.Equal(t, StateIdle, engine.State())

	// The utterance landed as a new event crediting the thought.
	last, ok := conv.LastEvent()
	require.True(t, ok)
	assert.Equal(t, ada.ID(), last.SenderID)
	assert.NotEmpty(t, last.ThoughtID)
	assert.Equal(t, last.Turn, ada.LastSpokenTurn())

	// The winning thought was promoted to memory and marked articulated.
	require.Equal(t, 1, ada.Memory().Len())
	th := ada.Reservoir().Get(last.ThoughtID)
	require.NotNil(t, th)
	assert.Equal(t, core.StatusArticulated, th.Status())
}

func TestDecideIgnoresTriggeringSender(t *testing.T) {
	gen := model.NewMockGenerator()
	gen.Enqueue(`{"thoughts": [{"content": "follow up on my own point", "stimuli": []}]}`)
	ada := newAgent(t, "Ada", gen, 4.5, func(c *core.ProactivityConfig) {
		c.IMThreshold = 1.0
	})

	conv := testutil.NewConversationBuilder().
		Participant(ada).
		Utterance(ada.ID(), "Ada", "Anyone around?").
		Build()

	// Ada sent the triggering event, so she sits this cycle out entirely:
	// no pipeline runs and no answer to herself is dispatched.
	speaker, text, err := DecideNextSpeakerAndUtterance(context.Background(), conv)
	require.NoError(t, err)
	assert.Nil(t, speaker)
	assert.Empty(t, text)
	assert.Zero(t, gen.Calls())
	assert.Len(t, conv.Events(), 1)
}

// scriptedGenerator serves its responses in order, then fails every call.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
}

func (g *scriptedGenerator) Generate(ctx context.Context, _ model.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.responses) > 0 {
		next := g.responses[0]
		g.responses = g.responses[1:]
		return next, nil
	}
	return "", g.err
}

func TestDecideFallsBackWhenArticulationFails(t *testing.T) {
	// Ada forms the strongest thought but her provider dies before
	// articulation.
	adaGen := &scriptedGenerator{
		responses: []string{`{"thoughts": [{"content": "strong take", "stimuli": []}]}`},
		err:       errors.New("provider down"),
	}
	ada := newAgent(t, "Ada", adaGen, 4.5, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.0
	})

	bobGen := model.NewMockGenerator()
	bobGen.Enqueue(
		`{"thoughts": [{"content": "milder take", "stimuli": []}]}`,
		`{"articulation": "i think it went fine"}`,
	)
	bob := newAgent(t, "Bob", bobGen, 3.5, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.0
	})

	human := core.NewHuman("Dana")
	conv := testutil.NewConversationBuilder().
		Participant(human).
		Participant(ada).
		Participant(bob).
		Utterance(human.ID(), "Dana", "How did the demo go?").
		Build()

	speaker, text, err := DecideNextSpeakerAndUtterance(context.Background(), conv)
	require.NoError(t, err)
	require.NotNil(t, speaker)
	assert.Equal(t, "Bob", speaker.Name())
	assert.Equal(t, "i think it went fine", text)

	// Ada's winning thought was discarded; only Bob's utterance landed.
	adaThoughts := ada.Reservoir().All()
	require.Len(t, adaThoughts, 1)
	assert.Equal(t, core.StatusDiscarded, adaThoughts[0].Status())
	assert.Len(t, conv.Events(), 2)
}

func TestDecideSilenceWhenEveryArticulationFails(t *testing.T) {
	gen := &scriptedGenerator{
		responses: []string{`{"thoughts": [{"content": "only take", "stimuli": []}]}`},
		err:       errors.New("provider down"),
	}
	ada := newAgent(t, "Ada", gen, 4.5, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.0
	})

	human := core.NewHuman("Dana")
	conv := testutil.NewConversationBuilder().
		Participant(human).
		Participant(ada).
		Utterance(human.ID(), "Dana", "Thoughts?").
		Build()

	// Exhausting the candidate pool yields silence, not a cycle error.
	speaker, text, err := DecideNextSpeakerAndUtterance(context.Background(), conv)
	require.NoError(t, err)
	assert.Nil(t, speaker)
	assert.Empty(t, text)
	assert.Len(t, conv.Events(), 1)
}

func TestDecideSilenceBelowThreshold(t *testing.T) {
	gen := model.NewMockGenerator()
	gen.Enqueue(`{"thoughts": [{"content": "hm, not sure", "stimuli": []}]}`)
	ada := newAgent(t, "Ada", gen, 1.5, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.2
	})

	human := core.NewHuman("Dana")
	conv := testutil.NewConversationBuilder().
		Participant(human).
		Participant(ada).
		Utterance(human.ID(), "Dana", "Anyway.").
		Build()

	speaker, text, err := DecideNextSpeakerAndUtterance(context.Background(), conv)
	require.NoError(t, err)
	assert.Nil(t, speaker)
	assert.Empty(t, text)
	// Nothing was appended.
	assert.Len(t, conv.Events(), 1)
}

func TestDecideAllocatedTurnViaPredictor(t *testing.T) {
	predGen := model.NewMockGenerator()
	predGen.Enqueue("Ada")

	gen := model.NewMockGenerator()
	gen.Enqueue(
		`{"thoughts": [{"content": "answer the question", "stimuli": []}]}`,
		`{"articulation": "yes, i can make it"}`,
	)
	// Low motivation would not pass any threshold, but the allocated turn
	// lets Ada speak anyway.
	ada := newAgent(t, "Ada", gen, 1.0, func(c *core.ProactivityConfig) {
		c.IMThreshold = 5.0
		c.InterruptThreshold = 5.0
	})

	human := core.NewHuman("Dana")
	conv := testutil.NewConversationBuilder().
		Participant(human).
		Participant(ada).
		Utterance(human.ID(), "Dana", "Ada, can you make it on Friday?").
		Build()

	speaker, text, err := DecideNextSpeakerAndUtterance(context.Background(), conv, func(o *Options) {
		o.Predictor = NewPredictor(predGen)
	})
	require.NoError(t, err)
	require.NotNil(t, speaker)
	assert.Equal(t, "Ada", speaker.Name())
	assert.Equal(t, "yes, i can make it", text)
}

type slowGenerator struct {
	delay    time.Duration
	response string
}

func (g *slowGenerator) Generate(ctx context.Context, _ model.Request) (string, error) {
	select {
	case <-time.After(g.delay):
		return g.response, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestDecideTimeoutExcludesAgentButKeepsThought(t *testing.T) {
	gen := &slowGenerator{
		delay:    50 * time.Millisecond,
		response: `{"thoughts": [{"content": "late idea", "stimuli": []}]}`,
	}
	ada := newAgent(t, "Ada", gen, 4.5, func(c *core.ProactivityConfig) {
		c.IMThreshold = 3.0
	})

	human := core.NewHuman("Dana")
	conv := testutil.NewConversationBuilder().
		Participant(human).
		Participant(ada).
		Utterance(human.ID(), "Dana", "Thoughts?").
		Build()

	speaker, text, err := DecideNextSpeakerAndUtterance(context.Background(), conv, func(o *Options) {
		o.PipelineTimeout = time.Millisecond
	})
	require.NoError(t, err)
	assert.Nil(t, speaker)
	assert.Empty(t, text)

	// The pipeline was not cancelled: the thought still lands in the
	// reservoir for future cycles.
	require.Eventually(t, func() bool {
		return ada.Reservoir().Len() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestPredictorDegradesToAnyone(t *testing.T) {
	human := core.NewHuman("Dana")
	conv := testutil.NewConversationBuilder().
		Participant(human).
		Utterance(human.ID(), "Dana", "hi all").
		Build()

	t.Run("invalid name", func(t *testing.T) {
		gen := model.NewMockGenerator()
		gen.Enqueue("Nobody Known")
		p := NewPredictor(gen)
		assert.Equal(t, AnySpeaker, p.PredictNextSpeaker(context.Background(), conv))
	})

	t.Run("valid name", func(t *testing.T) {
		gen := model.NewMockGenerator()
		gen.Enqueue("Dana")
		p := NewPredictor(gen)
		assert.Equal(t, "Dana", p.PredictNextSpeaker(context.Background(), conv))
	})

	t.Run("anyone", func(t *testing.T) {
		gen := model.NewMockGenerator()
		gen.Enqueue("anyone")
		p := NewPredictor(gen)
		assert.Equal(t, AnySpeaker, p.PredictNextSpeaker(context.Background(), conv))
	})
}
