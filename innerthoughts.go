// Package innerthoughts provides a high-level façade over the cognitive
// cycle: conversations, proactive agents, and the turn-taking engine that
// decides who speaks next. Most applications interact with this package by:
//  1. Creating a Runtime via New() (supplying generation, scoring, and
//     embedding providers)
//  2. Creating agents and a conversation, loading background knowledge
//  3. Feeding user messages in and calling Step() to let agents take turns
//
// The façade delegates thought formation to thinking.Engine and floor
// arbitration to turntaking.Engine while keeping setup ergonomics concise.
// All defaults are safe for local development and testing; production
// deployments typically supply real model providers and a structured logger.
package innerthoughts

import (
	"context"
	"time"

	"github.com/hupe1980/innerthoughts/agent"
	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/logging"
	"github.com/hupe1980/innerthoughts/model"
	"github.com/hupe1980/innerthoughts/saliency"
	"github.com/hupe1980/innerthoughts/thinking"
	"github.com/hupe1980/innerthoughts/turntaking"
)

// Options configures the Runtime.
type Options struct {
	// Scorer evaluates intrinsic motivation. Defaults to the Generator when
	// it also implements Scorer, else a neutral mock.
	Scorer model.Scorer
	// Embedder vectorizes text for retrieval. Defaults to a local
	// hash-based embedder suitable for development.
	Embedder model.Embedder
	// Segmenter splits background knowledge. Defaults to a local
	// sentence splitter.
	Segmenter model.Segmenter
	// Saliency tunes decay, ranking, and seeds across all components.
	Saliency saliency.Config
	// PipelineTimeout bounds each agent's pipeline per cycle.
	PipelineTimeout time.Duration
	// NumSystem1 and NumSystem2 are the per-cycle formation counts.
	NumSystem1 int
	NumSystem2 int
	// EnablePrediction turns on LLM next-speaker prediction for
	// allocated-turn classification.
	EnablePrediction bool
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Runtime is the high-level façade aggregating the thinking and turn-taking
// engines.
type Runtime struct {
	opts     Options
	thinking *thinking.Engine
	turns    *turntaking.Engine
}

// New creates a Runtime around a generation provider with optional overrides.
func New(generator model.Generator, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		Embedder:        model.NewLocalEmbedder(0),
		Segmenter:       model.NewLocalSegmenter(),
		Saliency:        saliency.DefaultConfig(),
		PipelineTimeout: 30 * time.Second,
		NumSystem1:      1,
		NumSystem2:      1,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Scorer == nil {
		if s, ok := generator.(model.Scorer); ok {
			opts.Scorer = s
		} else {
			opts.Scorer = model.NewMockScorer(3)
		}
	}

	think := thinking.New(generator, opts.Scorer, opts.Embedder, func(o *thinking.Options) {
		o.Saliency = opts.Saliency
		o.Logger = opts.Logger
	})

	turns := turntaking.New(func(o *turntaking.Options) {
		o.PipelineTimeout = opts.PipelineTimeout
		o.NumSystem1 = opts.NumSystem1
		o.NumSystem2 = opts.NumSystem2
		o.Saliency = opts.Saliency
		o.Logger = opts.Logger
		if opts.EnablePrediction {
			o.Predictor = turntaking.NewPredictor(generator, func(po *turntaking.PredictorOptions) {
				po.Logger = opts.Logger
			})
		}
	})

	return &Runtime{opts: opts, thinking: think, turns: turns}
}

// NewConversation creates a conversation with the given shared context.
func (r *Runtime) NewConversation(contextText string) *core.Conversation {
	return core.NewConversation(contextText)
}

// NewAgent creates an agent wired to the runtime's engines and providers.
func (r *Runtime) NewAgent(name string, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	fns := append([]func(o *agent.Options){func(o *agent.Options) {
		o.Embedder = r.opts.Embedder
		o.Segmenter = r.opts.Segmenter
		o.Saliency = r.opts.Saliency
		o.Logger = r.opts.Logger
	}}, optFns...)
	return agent.New(name, r.thinking, fns...)
}

// Step runs one turn-taking cycle over the conversation. A nil participant
// means every agent chose silence.
func (r *Runtime) Step(ctx context.Context, conv *core.Conversation) (core.Participant, string, error) {
	return r.turns.DecideNextSpeakerAndUtterance(ctx, conv)
}
