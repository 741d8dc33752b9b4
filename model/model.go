package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures a normalized prompt for generation or scoring calls.
type Request struct {
	// Instructions is the system-level framing of the call.
	Instructions string `json:"instructions"`
	// Input is the user-level prompt body.
	Input string `json:"input"`
	// Temperature controls sampling variability; providers apply their own
	// default when zero.
	Temperature float64 `json:"temperature,omitempty"`
	// JSON requests a JSON-object response where the provider supports it.
	JSON bool `json:"json,omitempty"`
}

// Generator produces text from a prompt. Used for System1/System2 thought
// content, articulation and turn prediction.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Scorer maps a prompt to a numeric rating. Used for intrinsic-motivation
// evaluation; callers clamp the result into their own range.
type Scorer interface {
	Score(ctx context.Context, req Request) (float64, error)
}

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Segmenter splits text into ordered segments. Used when bulk-loading
// background knowledge, one memory per segment.
type Segmenter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// Retry invokes call and, if it fails while the context is still live,
// retries exactly once. The failure contract for providers mandates no retry
// policy beyond this single bounded retry.
func Retry[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	v, err := call(ctx)
	if err == nil || ctx.Err() != nil {
		return v, err
	}
	return call(ctx)
}

// MockGenerator is a deterministic in-memory Generator for tests and examples.
// Responses are matched on the request Input; unmatched prompts receive a
// canned echo.
type MockGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	queue     []string
	err       error
	calls     int
}

// NewMockGenerator constructs an empty MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{responses: make(map[string]string)}
}

// AddResponse registers a canned completion for an exact input prompt.
func (m *MockGenerator) AddResponse(input, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = response
}

// Enqueue appends responses returned in order regardless of the prompt.
// Queued responses take precedence over exact matches.
func (m *MockGenerator) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MockGenerator) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many Generate invocations were made.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	if resp, ok := m.responses[req.Input]; ok {
		return resp, nil
	}
	return fmt.Sprintf("mock response to: %s", req.Input), nil
}

// MockScorer is a deterministic Scorer returning queued or fixed scores.
type MockScorer struct {
	mu    sync.Mutex
	score float64
	queue []float64
	err   error
}

// NewMockScorer constructs a MockScorer with a fixed default score.
func NewMockScorer(score float64) *MockScorer { return &MockScorer{score: score} }

// Enqueue appends scores returned in order before falling back to the default.
func (m *MockScorer) Enqueue(scores ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, scores...)
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MockScorer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Score implements Scorer.
func (m *MockScorer) Score(ctx context.Context, _ Request) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.score, nil
}
