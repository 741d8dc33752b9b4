package turntaking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/innerthoughts/agent"
	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/logging"
	"github.com/hupe1980/innerthoughts/saliency"
)

// Candidate is one agent's entry in the arbitration pool.
type Candidate struct {
	Agent   *agent.Agent
	Thought *core.Thought
	Context TurnContext
	// Order is the agent's registration order, the deterministic fallback
	// tie-break.
	Order int
}

// Motivation returns the candidate thought's intrinsic motivation.
func (c Candidate) Motivation() float64 { return c.Thought.Motivation() }

// Options configures an Engine.
type Options struct {
	// PipelineTimeout bounds how long arbitration waits for each agent's
	// pipeline. A late pipeline is excluded from the cycle but keeps
	// running; its thought still lands in the reservoir.
	PipelineTimeout time.Duration
	// NumSystem1 and NumSystem2 are the per-cycle formation counts.
	NumSystem1 int
	NumSystem2 int
	// Predictor classifies the turn context. Nil means every turn is open.
	Predictor *Predictor
	// Saliency seeds memories promoted from articulated thoughts.
	Saliency saliency.Config
	// Logger receives engine activity.
	Logger logging.Logger
}

// Engine drives one turn-taking cycle at a time.
type Engine struct {
	opts Options

	mu    sync.Mutex
	state State
}

// New creates a turn-taking engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		PipelineTimeout: 30 * time.Second,
		NumSystem1:      1,
		NumSystem2:      1,
		Saliency:        saliency.DefaultConfig(),
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{opts: opts, state: StateIdle}
}

// State returns the engine's current cycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.opts.Logger.Debug("turn-taking state", "state", s.String())
}

// DecideNextSpeakerAndUtterance runs one full cycle: predict the turn
// context, collect each listening agent's top selected thought, arbitrate,
// and dispatch the winner's articulated utterance as a new event. When the
// winner's articulation fails, its thought is discarded and the next
// qualifying candidate gets the turn. A nil participant with empty text
// means silence.
func (e *Engine) DecideNextSpeakerAndUtterance(ctx context.Context, conv *core.Conversation) (core.Participant, string, error) {
	defer e.setState(StateIdle)

	agents := conversationAgents(conv)
	if len(agents) == 0 {
		return nil, "", nil
	}

	e.setState(StateAwaitingCandidates)

	predicted := AnySpeaker
	if e.opts.Predictor != nil {
		predicted = e.opts.Predictor.PredictNextSpeaker(ctx, conv)
	}

	candidates := e.collectCandidates(ctx, conv, agents, predicted)

	e.setState(StateArbitrating)
	pool := qualifying(candidates)
	for {
		winner := arbitrate(pool)
		if winner == nil {
			e.opts.Logger.Info("no qualifying candidate, staying silent", "predicted", predicted)
			return nil, "", nil
		}

		e.setState(StateDispatched)
		text, err := e.dispatch(ctx, conv, *winner, predicted)
		if err == nil {
			return winner.Agent, text, nil
		}
		var genErr *core.GenerationError
		if !errors.As(err, &genErr) {
			return nil, "", err
		}
		e.opts.Logger.Warn("articulation failed, falling back to next candidate",
			"agent", winner.Agent.Name(), "error", err)
		pool = withoutThought(pool, winner.Thought.ID())
		e.setState(StateArbitrating)
	}
}

type pipelineResult struct {
	idx     int
	thought *core.Thought
	err     error
}

// collectCandidates fans the thinking pipelines out per agent and joins them
// at a single barrier. Agents missing the deadline are excluded from this
// cycle; their pipelines are not cancelled, so late thoughts still land in
// their reservoirs for future cycles.
func (e *Engine) collectCandidates(ctx context.Context, conv *core.Conversation, agents []*agent.Agent, predicted string) []Candidate {
	results := make(chan pipelineResult, len(agents))
	for i, ag := range agents {
		go func() {
			th, err := ag.RunPipeline(ctx, conv, e.opts.NumSystem1, e.opts.NumSystem2)
			results <- pipelineResult{idx: i, thought: th, err: err}
		}()
	}

	timer := time.NewTimer(e.opts.PipelineTimeout)
	defer timer.Stop()

	collected := make(map[int]*core.Thought, len(agents))
	received := 0
barrier:
	for received < len(agents) {
		select {
		case r := <-results:
			received++
			if r.err != nil {
				e.opts.Logger.Warn("agent pipeline failed",
					"agent", agents[r.idx].Name(), "error", r.err)
				continue
			}
			collected[r.idx] = r.thought
		case <-timer.C:
			for i, ag := range agents {
				if _, ok := collected[i]; !ok {
					e.opts.Logger.Warn("agent excluded from cycle",
						"agent", ag.Name(), "error", core.ErrPipelineTimeout)
				}
			}
			break barrier
		}
	}

	candidates := make([]Candidate, 0, len(collected))
	for i, ag := range agents {
		th, ok := collected[i]
		if !ok || th == nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Agent:   ag,
			Thought: th,
			Context: classify(ag, predicted),
			Order:   conv.RegistrationOrder(ag.ID()),
		})
	}
	return candidates
}

// classify maps the predicted next speaker onto a turn context for one agent.
func classify(ag *agent.Agent, predicted string) TurnContext {
	switch predicted {
	case AnySpeaker, "":
		return TurnOpen
	case ag.Name():
		return TurnAllocated
	default:
		return TurnOthers
	}
}

// qualifying filters candidates by the threshold their turn context demands.
// An allocated agent qualifies with any evaluated thought.
func qualifying(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.Thought.Evaluated() {
			continue
		}
		cfg := c.Agent.Config()
		switch c.Context {
		case TurnAllocated:
			out = append(out, c)
		case TurnOpen:
			if c.Motivation() >= cfg.IMThreshold {
				out = append(out, c)
			}
		case TurnOthers:
			if c.Motivation() >= cfg.InterruptThreshold {
				out = append(out, c)
			}
		}
	}
	return out
}

// arbitrate picks the single winner from the qualifying pool. An allocated
// candidate wins outright; otherwise the highest motivation wins, ties
// broken by earliest thought formation, then by registration order.
func arbitrate(candidates []Candidate) *Candidate {
	var winner *Candidate
	for i := range candidates {
		c := &candidates[i]
		if winner == nil || beats(c, winner) {
			winner = c
		}
	}
	return winner
}

// withoutThought drops the candidate carrying the given thought from the pool.
func withoutThought(candidates []Candidate, thoughtID string) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Thought.ID() != thoughtID {
			out = append(out, c)
		}
	}
	return out
}

func beats(c, w *Candidate) bool {
	if (c.Context == TurnAllocated) != (w.Context == TurnAllocated) {
		return c.Context == TurnAllocated
	}
	if c.Motivation() != w.Motivation() {
		return c.Motivation() > w.Motivation()
	}
	if !c.Thought.CreatedAt().Equal(w.Thought.CreatedAt()) {
		return c.Thought.CreatedAt().Before(w.Thought.CreatedAt())
	}
	return c.Order < w.Order
}

// dispatch articulates the winning thought, broadcasts it as a new event,
// promotes it to memory, and marks it articulated.
func (e *Engine) dispatch(ctx context.Context, conv *core.Conversation, winner Candidate, predicted string) (string, error) {
	ag, th := winner.Agent, winner.Thought

	text, err := ag.ArticulateThought(ctx, conv, th)
	if err != nil {
		th.SetStatus(core.StatusDiscarded)
		return "", err
	}

	ev := core.NewUtteranceEvent(ag.ID(), ag.Name(), text).
		WithEmbedding(th.Vector()).
		WithThought(th.ID())
	ev.PredictedNext = predicted

	ev, err = conv.Broadcast(ctx, ev)
	if err != nil {
		return "", err
	}
	ag.RecordSpokenTurn(ev.Turn)

	if _, err := ag.Memory().Promote(ctx, th, e.opts.Saliency.MemorySeed(ev.Turn)); err != nil {
		e.opts.Logger.Warn("promotion failed", "thought_id", th.ID(), "error", err)
	}
	th.SetStatus(core.StatusArticulated)

	e.opts.Logger.Info("speaker dispatched",
		"agent", ag.Name(), "context", winner.Context.String(), "motivation", th.Motivation())
	return text, nil
}

// DecideNextSpeakerAndUtterance runs a single cycle with a throwaway engine.
func DecideNextSpeakerAndUtterance(ctx context.Context, conv *core.Conversation, optFns ...func(o *Options)) (core.Participant, string, error) {
	return New(optFns...).DecideNextSpeakerAndUtterance(ctx, conv)
}

// conversationAgents returns the agents eligible for this cycle. The sender
// of the triggering event is excluded so an agent never responds to its own
// utterance.
func conversationAgents(conv *core.Conversation) []*agent.Agent {
	var lastSender string
	if last, ok := conv.LastEvent(); ok {
		lastSender = last.SenderID
	}
	var out []*agent.Agent
	for _, p := range conv.Participants() {
		ag, ok := p.(*agent.Agent)
		if !ok || ag.ID() == lastSender {
			continue
		}
		out = append(out, ag)
	}
	return out
}
