package thinking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/logging"
	"github.com/hupe1980/innerthoughts/memory"
	"github.com/hupe1980/innerthoughts/model"
	"github.com/hupe1980/innerthoughts/reservoir"
	"github.com/hupe1980/innerthoughts/saliency"
)

// articulationFallback is spoken when articulation output cannot be parsed.
const articulationFallback = "I'm not sure what to say about that."

// Mind bundles the per-agent state the pipeline operates on. The engine
// itself is stateless and safe to share between agents.
type Mind struct {
	AgentID        string
	AgentName      string
	Persona        string
	Memory         *memory.Store
	Reservoir      *reservoir.Reservoir
	LastSpokenTurn int
}

// Options configures an Engine.
type Options struct {
	// Saliency governs retrieval ranking and new-thought seeds.
	Saliency saliency.Config
	// Logger receives pipeline activity. Defaults to a no-op logger.
	Logger logging.Logger
	// HistoryWindow is the number of trailing events fed to prompts.
	HistoryWindow int
	// MemoryTopK bounds retrieved memories for System 2 formation.
	MemoryTopK int
	// ThoughtTopK bounds prior thoughts fed to System 2 formation.
	ThoughtTopK int
	// EvalMemoryTopK bounds memories fed to evaluation.
	EvalMemoryTopK int
	// MaxParallelEval bounds concurrent evaluation calls.
	MaxParallelEval int
	// Temperature for formation and articulation calls.
	Temperature float64
	// EvalTemperature for scoring calls; lower for consistency.
	EvalTemperature float64
}

// Engine runs the formation, evaluation, selection, and articulation stages
// against external generation and scoring services.
type Engine struct {
	generator model.Generator
	scorer    model.Scorer
	embedder  model.Embedder
	opts      Options
}

// New creates a thinking engine.
func New(generator model.Generator, scorer model.Scorer, embedder model.Embedder, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Saliency:        saliency.DefaultConfig(),
		Logger:          logging.NoOpLogger{},
		HistoryWindow:   5,
		MemoryTopK:      5,
		ThoughtTopK:     3,
		EvalMemoryTopK:  10,
		MaxParallelEval: 4,
		Temperature:     0.7,
		EvalTemperature: 0.3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		generator: generator,
		scorer:    scorer,
		embedder:  embedder,
		opts:      opts,
	}
}

// System1 forms a single fast reactive thought from the recent history.
func (e *Engine) System1(ctx context.Context, conv *core.Conversation, mind Mind) (*core.Thought, error) {
	history := conv.LastN(e.opts.HistoryWindow)

	instructions, err := renderPrompt(roleInstructions, map[string]any{
		"AgentName": mind.AgentName,
		"Scene":     conv.Context,
	})
	if err != nil {
		return nil, err
	}
	input, err := renderPrompt(system1Prompt, map[string]any{"History": historyText(history)})
	if err != nil {
		return nil, err
	}

	out, err := model.Retry(ctx, func(ctx context.Context) (string, error) {
		return e.generator.Generate(ctx, model.Request{
			Instructions: instructions,
			Input:        input,
			Temperature:  e.opts.Temperature,
			JSON:         true,
		})
	})
	if err != nil {
		return nil, &core.GenerationError{Op: "system1", Err: err}
	}

	var payload struct {
		Thought string `json:"thought"`
	}
	content := strings.TrimSpace(out)
	if err := json.Unmarshal([]byte(out), &payload); err == nil && payload.Thought != "" {
		content = strings.TrimSpace(payload.Thought)
	}

	return e.newThought(ctx, conv, mind, core.System1, content, stimuliFromHistory(history)), nil
}

// System2 forms up to n deliberate thoughts grounded in retrieved memories
// and prior thoughts. Stimuli references returned by the model are validated
// against the conversation, memory store, and reservoir; unresolvable
// references are dropped.
func (e *Engine) System2(ctx context.Context, conv *core.Conversation, mind Mind, n int) ([]*core.Thought, error) {
	if n <= 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	history := conv.LastN(e.opts.HistoryWindow)

	query, err := e.queryVector(ctx, conv)
	if err != nil {
		return nil, err
	}

	memories, err := mind.Memory.Retrieve(ctx, query, e.opts.MemoryTopK, now)
	if err != nil {
		return nil, fmt.Errorf("retrieve memories: %w", err)
	}
	memPool := make([]core.MentalObject, len(memories))
	for i, m := range memories {
		m.Touch(conv.Turn())
		memPool[i] = m
	}

	prior := mind.Reservoir.TopKBySaliency(e.opts.ThoughtTopK, core.System2, e.opts.Saliency.RelevanceFloor, now)
	priorPool := make([]core.MentalObject, len(prior))
	for i, t := range prior {
		t.Touch(conv.Turn())
		priorPool[i] = t
	}

	instructions, err := renderPrompt(roleInstructions, map[string]any{
		"AgentName": mind.AgentName,
		"Scene":     conv.Context,
	})
	if err != nil {
		return nil, err
	}
	input, err := renderPrompt(system2Prompt, map[string]any{
		"Count":    n,
		"History":  labeledHistoryText(history),
		"Memories": labeledObjects("MEM", memPool),
		"Thoughts": labeledObjects("THO", priorPool),
	})
	if err != nil {
		return nil, err
	}

	out, err := model.Retry(ctx, func(ctx context.Context) (string, error) {
		return e.generator.Generate(ctx, model.Request{
			Instructions: instructions,
			Input:        input,
			Temperature:  e.opts.Temperature,
			JSON:         true,
		})
	})
	if err != nil {
		return nil, &core.GenerationError{Op: "system2", Err: err}
	}

	var payload struct {
		Thoughts []struct {
			Content string   `json:"content"`
			Stimuli []string `json:"stimuli"`
		} `json:"thoughts"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil || len(payload.Thoughts) == 0 {
		e.opts.Logger.Warn("unparseable thought batch, using fallback", "agent", mind.AgentName)
		return []*core.Thought{
			e.newThought(ctx, conv, mind, core.System2, "Interesting conversation.", stimuliFromHistory(history)),
		}, nil
	}

	thoughts := make([]*core.Thought, 0, n)
	for _, item := range payload.Thoughts {
		if len(thoughts) == n {
			break
		}
		content := strings.TrimSpace(item.Content)
		if content == "" {
			continue
		}
		stimuli := e.resolveStimuli(conv, mind, item.Stimuli)
		thoughts = append(thoughts, e.newThought(ctx, conv, mind, core.System2, content, stimuli))
	}
	return thoughts, nil
}

func (e *Engine) newThought(ctx context.Context, conv *core.Conversation, mind Mind, system core.GenSystem, content string, stimuli []string) *core.Thought {
	var trigger string
	if last, ok := conv.LastEvent(); ok {
		trigger = last.ID
	}
	vec := e.embedText(ctx, content)
	seed := e.opts.Saliency.ThoughtSeed(system, conv.Turn())
	th := core.NewThought(mind.AgentID, system, content, vec, trigger, stimuli, seed)
	e.opts.Logger.Debug("thought formed", "agent", mind.AgentName, "system", system.String(), "content", content)
	return th
}

// resolveStimuli keeps references that point at real context objects.
func (e *Engine) resolveStimuli(conv *core.Conversation, mind Mind, refs []string) []string {
	var out []string
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		switch {
		case strings.HasPrefix(ref, "CON#"):
			if _, ok := conv.EventByID(strings.TrimPrefix(ref, "CON#")); ok {
				out = append(out, ref)
			}
		case strings.HasPrefix(ref, "MEM#"):
			if mind.Memory.Get(strings.TrimPrefix(ref, "MEM#")) != nil {
				out = append(out, ref)
			}
		case strings.HasPrefix(ref, "THO#"):
			if mind.Reservoir.Get(strings.TrimPrefix(ref, "THO#")) != nil {
				out = append(out, ref)
			}
		}
	}
	return out
}

// Evaluate scores one thought's intrinsic motivation, scales it by how long
// the agent has stayed silent, clamps to [1,5], and stores it on the thought.
// A failed thought is marked discarded so the remaining candidates proceed.
func (e *Engine) Evaluate(ctx context.Context, conv *core.Conversation, mind Mind, th *core.Thought) error {
	now := time.Now().UTC()
	history := conv.LastN(e.opts.HistoryWindow)

	query, err := e.queryVector(ctx, conv)
	if err != nil {
		th.SetStatus(core.StatusDiscarded)
		return err
	}
	memories, err := mind.Memory.Retrieve(ctx, query, e.opts.EvalMemoryTopK, now)
	if err != nil {
		th.SetStatus(core.StatusDiscarded)
		return fmt.Errorf("retrieve memories: %w", err)
	}
	memPool := make([]core.MentalObject, len(memories))
	for i, m := range memories {
		memPool[i] = m
	}

	var names []string
	for _, p := range conv.Participants() {
		names = append(names, p.Name())
	}

	input, err := renderPrompt(evaluatePrompt, map[string]any{
		"AgentName":        mind.AgentName,
		"Scene":            conv.Context,
		"ParticipantNames": strings.Join(names, ", "),
		"History":          historyText(history),
		"Memories":         bulletList(memPool),
		"Thought":          th.Text(),
	})
	if err != nil {
		th.SetStatus(core.StatusDiscarded)
		return err
	}

	score, err := model.Retry(ctx, func(ctx context.Context) (float64, error) {
		return e.scorer.Score(ctx, model.Request{
			Instructions: "You are evaluating a thought in a conversation. You will provide your evaluation in JSON format.",
			Input:        input,
			Temperature:  e.opts.EvalTemperature,
			JSON:         true,
		})
	})
	if err != nil {
		th.SetStatus(core.StatusDiscarded)
		return &core.GenerationError{Op: "evaluate", Err: err}
	}

	turnsSilent := conv.Turn()
	if mind.LastSpokenTurn >= 0 {
		turnsSilent = conv.Turn() - mind.LastSpokenTurn
	}
	score *= math.Pow(1.01, float64(turnsSilent))

	th.SetMotivation(core.ClampMotivation(score))
	e.opts.Logger.Debug("thought evaluated", "agent", mind.AgentName, "motivation", th.Motivation())
	return nil
}

// EvaluateAll evaluates candidates concurrently with a bounded fan-out.
// Failures are isolated per candidate; it returns the thoughts that were
// scored successfully.
func (e *Engine) EvaluateAll(ctx context.Context, conv *core.Conversation, mind Mind, thoughts []*core.Thought) []*core.Thought {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxParallelEval)
	for _, th := range thoughts {
		g.Go(func() error {
			if err := e.Evaluate(gctx, conv, mind, th); err != nil {
				e.opts.Logger.Warn("evaluation failed, discarding candidate",
					"agent", mind.AgentName, "thought_id", th.ID(), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*core.Thought, 0, len(thoughts))
	for _, th := range thoughts {
		if th.Evaluated() {
			out = append(out, th)
		}
	}
	return out
}

// Select ranks evaluated thoughts by motivation descending, breaking ties by
// current saliency then by most recent creation, marks the top k selected,
// and returns them in rank order.
func (e *Engine) Select(thoughts []*core.Thought, k int, now time.Time) []*core.Thought {
	candidates := make([]*core.Thought, 0, len(thoughts))
	for _, th := range thoughts {
		if th.Status() == core.StatusEvaluated {
			candidates = append(candidates, th)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		mi, mj := candidates[i].Motivation(), candidates[j].Motivation()
		if mi != mj {
			return mi > mj
		}
		si, sj := candidates[i].Saliency(now), candidates[j].Saliency(now)
		if si != sj {
			return si > sj
		}
		return candidates[i].CreatedAt().After(candidates[j].CreatedAt())
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	selected := candidates[:k]
	for _, th := range selected {
		th.SetStatus(core.StatusSelected)
	}
	return selected
}

// Articulate turns a thought into a short utterance. The proactive flag
// switches the register from casual to assertive.
func (e *Engine) Articulate(ctx context.Context, conv *core.Conversation, mind Mind, th *core.Thought, proactive bool) (string, error) {
	var names []string
	for _, p := range conv.Participants() {
		if p.ID() != mind.AgentID {
			names = append(names, p.Name())
		}
	}
	instructions := fmt.Sprintf(
		"You are playing a role as a participant in an online multi-party conversation with %s. Your name in the conversation is %s.",
		strings.Join(names, ", "), mind.AgentName)
	if conv.Context != "" {
		instructions += " The conversation is set as follows: " + conv.Context
	}

	tone := neutralToneHint
	if proactive {
		tone = proactiveToneHint
	}
	input, err := renderPrompt(articulatePrompt, map[string]any{
		"ToneHint": tone,
		"Thought":  th.Text(),
	})
	if err != nil {
		return "", err
	}

	out, err := model.Retry(ctx, func(ctx context.Context) (string, error) {
		return e.generator.Generate(ctx, model.Request{
			Instructions: instructions,
			Input:        input,
			Temperature:  e.opts.Temperature,
			JSON:         true,
		})
	})
	if err != nil {
		return "", &core.GenerationError{Op: "articulate", Err: err}
	}

	var payload struct {
		Articulation string `json:"articulation"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil || strings.TrimSpace(payload.Articulation) == "" {
		e.opts.Logger.Warn("unparseable articulation, using fallback", "agent", mind.AgentName)
		return articulationFallback, nil
	}
	return strings.TrimSpace(payload.Articulation), nil
}

// queryVector derives the retrieval query from the latest event, embedding
// its content when no vector was attached at broadcast time.
func (e *Engine) queryVector(ctx context.Context, conv *core.Conversation) ([]float32, error) {
	last, ok := conv.LastEvent()
	if !ok {
		return nil, nil
	}
	if len(last.Embedding) > 0 {
		return last.Embedding, nil
	}
	if e.embedder == nil {
		return nil, nil
	}
	vec, err := e.embedder.Embed(ctx, last.Content)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

func (e *Engine) embedText(ctx context.Context, text string) []float32 {
	if e.embedder == nil {
		return nil
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.opts.Logger.Warn("embedding failed", "error", err)
		return nil
	}
	return vec
}

func stimuliFromHistory(events []core.Event) []string {
	refs := make([]string, 0, len(events))
	for _, ev := range events {
		refs = append(refs, "CON#"+ev.ID)
	}
	return refs
}
