package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/logging"
	"github.com/hupe1980/innerthoughts/memory"
	"github.com/hupe1980/innerthoughts/model"
	"github.com/hupe1980/innerthoughts/reservoir"
	"github.com/hupe1980/innerthoughts/saliency"
	"github.com/hupe1980/innerthoughts/thinking"
)

// Options configures an Agent.
type Options struct {
	// Persona is the agent's background knowledge, loadable into memory.
	Persona string
	// Config tunes the agent's proactivity. Validated at construction.
	Config core.ProactivityConfig
	// ReservoirCapacity bounds the thought reservoir.
	ReservoirCapacity int
	// Embedder vectorizes outgoing messages. Optional.
	Embedder model.Embedder
	// Segmenter splits background knowledge into per-segment memories.
	Segmenter model.Segmenter
	// Saliency governs seeds and recalibration.
	Saliency saliency.Config
	// Logger receives agent activity. Defaults to a no-op logger.
	Logger logging.Logger
	// Memory overrides the default in-process store, e.g. with a
	// vector-indexed one.
	Memory *memory.Store
	// Rand drives the System 1 probability roll; fix it for determinism.
	Rand *rand.Rand
}

// Agent is a conversation participant with an internal cognitive loop.
type Agent struct {
	core.BaseParticipant

	persona   string
	config    core.ProactivityConfig
	engine    *thinking.Engine
	embedder  model.Embedder
	segmenter model.Segmenter
	saliency  saliency.Config
	logger    logging.Logger

	memory    *memory.Store
	reservoir *reservoir.Reservoir

	randMu sync.Mutex
	rand   *rand.Rand
}

var _ core.Participant = (*Agent)(nil)

// New creates an agent. The proactivity config is validated immediately and
// an invalid one fails construction.
func New(name string, engine *thinking.Engine, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		Config:   core.DefaultProactivityConfig(),
		Saliency: saliency.DefaultConfig(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("agent %s: thinking engine is required", name)
	}

	a := &Agent{
		BaseParticipant: core.NewBaseParticipant(name, core.KindAgent),
		persona:         opts.Persona,
		config:          opts.Config,
		engine:          engine,
		embedder:        opts.Embedder,
		segmenter:       opts.Segmenter,
		saliency:        opts.Saliency,
		logger:          opts.Logger,
		reservoir:       reservoir.New(opts.ReservoirCapacity),
		rand:            opts.Rand,
	}
	a.memory = opts.Memory
	if a.memory == nil {
		a.memory = memory.NewStore(a.ID(), func(o *memory.StoreOptions) {
			o.Saliency = opts.Saliency
			o.Logger = opts.Logger
		})
	}
	return a, nil
}

// Persona returns the agent's background description.
func (a *Agent) Persona() string { return a.persona }

// Config returns the proactivity configuration.
func (a *Agent) Config() core.ProactivityConfig { return a.config }

// Reservoir exposes the agent's thought reservoir.
func (a *Agent) Reservoir() *reservoir.Reservoir { return a.reservoir }

// Memory exposes the agent's memory store.
func (a *Agent) Memory() *memory.Store { return a.memory }

// InitializeMemory loads background knowledge into the memory store. With
// bySegments set, the text is split and each segment becomes its own memory.
func (a *Agent) InitializeMemory(ctx context.Context, text string, bySegments bool) error {
	var segmenter model.Segmenter
	if bySegments {
		segmenter = a.segmenter
	}
	seed := a.saliency.MemorySeed(0)
	if err := a.memory.LoadBackground(ctx, text, segmenter, a.embedder, seed); err != nil {
		return fmt.Errorf("initialize memory for %s: %w", a.Name(), err)
	}
	return nil
}

// SendMessage embeds and broadcasts an utterance authored by this agent and
// records the spoken turn.
func (a *Agent) SendMessage(ctx context.Context, conv *core.Conversation, text string) (core.Event, error) {
	ev := core.NewUtteranceEvent(a.ID(), a.Name(), text)
	if a.embedder != nil {
		vec, err := a.embedder.Embed(ctx, text)
		if err != nil {
			a.logger.Warn("embedding outgoing message failed", "agent", a.Name(), "error", err)
		} else {
			ev = ev.WithEmbedding(vec)
		}
	}
	ev, err := conv.Broadcast(ctx, ev)
	if err != nil {
		return core.Event{}, err
	}
	a.RecordSpokenTurn(ev.Turn)
	return ev, nil
}

// OnEvent recalibrates the agent's mental objects against the new event.
// Thought formation is driven separately by the turn-taking engine.
func (a *Agent) OnEvent(_ context.Context, _ *core.Conversation, ev core.Event) error {
	if ev.SenderID == a.ID() {
		return nil
	}
	a.RecalibrateSaliencyForEvent(ev)
	return nil
}

// RecalibrateSaliencyForEvent boosts the saliency of reservoir and memory
// objects relevant to the event.
func (a *Agent) RecalibrateSaliencyForEvent(ev core.Event) {
	now := time.Now().UTC()
	pool := append(a.reservoir.Objects(), a.memory.Objects()...)
	a.saliency.Recalibrate(ev, pool, now)
}

// GenerateThoughts runs formation for one trigger: at most one System 1
// thought gated by system1Prob, then numSystem2 deliberate thoughts. Formed
// thoughts land in the reservoir; a failed candidate never aborts the rest.
func (a *Agent) GenerateThoughts(ctx context.Context, conv *core.Conversation, numSystem1, numSystem2 int) ([]*core.Thought, error) {
	mind := a.mind()
	var formed []*core.Thought

	var lastErr error
	if numSystem1 > 0 && a.roll() < a.config.System1Prob {
		th, err := a.engine.System1(ctx, conv, mind)
		if err != nil {
			a.logger.Warn("system1 formation failed", "agent", a.Name(), "error", err)
			lastErr = err
		} else {
			a.reservoir.Add(th)
			formed = append(formed, th)
		}
	}

	if numSystem2 > 0 {
		thoughts, err := a.engine.System2(ctx, conv, mind, numSystem2)
		if err != nil {
			a.logger.Warn("system2 formation failed", "agent", a.Name(), "error", err)
			lastErr = err
		}
		for _, th := range thoughts {
			a.reservoir.Add(th)
			formed = append(formed, th)
		}
	}

	// An empty batch without a provider failure is a valid outcome (the
	// probability roll may simply not fire).
	if len(formed) == 0 && lastErr != nil {
		return nil, fmt.Errorf("agent %s: formation failed: %w", a.Name(), lastErr)
	}
	return formed, nil
}

// EvaluateThoughts scores the candidates concurrently and returns the
// successfully evaluated subset.
func (a *Agent) EvaluateThoughts(ctx context.Context, conv *core.Conversation, thoughts []*core.Thought) []*core.Thought {
	return a.engine.EvaluateAll(ctx, conv, a.mind(), thoughts)
}

// SelectThoughts marks and returns the top k evaluated thoughts.
func (a *Agent) SelectThoughts(thoughts []*core.Thought, k int) []*core.Thought {
	return a.engine.Select(thoughts, k, time.Now().UTC())
}

// ArticulateThought renders a thought as an utterance, honoring the agent's
// proactive tone flag.
func (a *Agent) ArticulateThought(ctx context.Context, conv *core.Conversation, th *core.Thought) (string, error) {
	return a.engine.Articulate(ctx, conv, a.mind(), th, a.config.ProactiveTone)
}

// RunPipeline executes one full formation, evaluation, and selection cycle
// and returns the agent's top selected thought, or nil when nothing
// qualifies for evaluation.
func (a *Agent) RunPipeline(ctx context.Context, conv *core.Conversation, numSystem1, numSystem2 int) (*core.Thought, error) {
	formed, err := a.GenerateThoughts(ctx, conv, numSystem1, numSystem2)
	if err != nil {
		return nil, err
	}
	if len(formed) == 0 {
		return nil, nil
	}
	evaluated := a.EvaluateThoughts(ctx, conv, formed)
	if len(evaluated) == 0 {
		return nil, nil
	}
	selected := a.SelectThoughts(evaluated, 1)
	if len(selected) == 0 {
		return nil, nil
	}
	return selected[0], nil
}

// TopSelected returns the selected thought with the highest motivation, ties
// going to the earliest formed. Nil when nothing is selected.
func (a *Agent) TopSelected() *core.Thought {
	var top *core.Thought
	for _, th := range a.reservoir.WithStatus(core.StatusSelected) {
		if top == nil {
			top = th
			continue
		}
		if th.Motivation() > top.Motivation() ||
			(th.Motivation() == top.Motivation() && th.CreatedAt().Before(top.CreatedAt())) {
			top = th
		}
	}
	return top
}

func (a *Agent) mind() thinking.Mind {
	return thinking.Mind{
		AgentID:        a.ID(),
		AgentName:      a.Name(),
		Persona:        a.persona,
		Memory:         a.memory,
		Reservoir:      a.reservoir,
		LastSpokenTurn: a.LastSpokenTurn(),
	}
}

func (a *Agent) roll() float64 {
	a.randMu.Lock()
	defer a.randMu.Unlock()
	if a.rand != nil {
		return a.rand.Float64()
	}
	return rand.Float64()
}
