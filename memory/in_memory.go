package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/logging"
	"github.com/hupe1980/innerthoughts/model"
	"github.com/hupe1980/innerthoughts/saliency"
)

// IndexHit is a single nearest-neighbor result from a VectorIndex.
type IndexHit struct {
	ID    string
	Score float32
}

// VectorIndex is an optional similarity backend for a Store. When configured,
// Retrieve delegates candidate selection to the index instead of scanning the
// whole pool.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, vector []float32, payload map[string]string) error
	Search(ctx context.Context, vector []float32, k int) ([]IndexHit, error)
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Saliency governs ranking and the retrieval relevance floor.
	Saliency saliency.Config
	// Index, when non-nil, receives every added memory and serves Retrieve.
	Index VectorIndex
	// Logger receives store activity. Defaults to a no-op logger.
	Logger logging.Logger
}

// Store holds the memories of a single agent. It is safe for concurrent use.
type Store struct {
	agentID string
	opts    StoreOptions

	mu       sync.RWMutex
	memories []*core.Memory
	byID     map[string]*core.Memory
}

// NewStore creates a memory store for the given agent.
func NewStore(agentID string, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{
		Saliency: saliency.DefaultConfig(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		agentID: agentID,
		opts:    opts,
		byID:    make(map[string]*core.Memory),
	}
}

// AgentID returns the owning agent's identifier.
func (s *Store) AgentID() string { return s.agentID }

// Add stores a memory and, when an index is configured, upserts its vector.
func (s *Store) Add(ctx context.Context, m *core.Memory) error {
	s.mu.Lock()
	s.memories = append(s.memories, m)
	s.byID[m.ID()] = m
	s.mu.Unlock()

	if s.opts.Index != nil {
		payload := map[string]string{"agent_id": s.agentID, "text": m.Text()}
		if err := s.opts.Index.Upsert(ctx, m.ID(), m.Vector(), payload); err != nil {
			return fmt.Errorf("index memory %s: %w", m.ID(), err)
		}
	}
	return nil
}

// Promote converts a thought into a durable memory and stores it. The thought
// is marked discarded as part of the promotion.
func (s *Store) Promote(ctx context.Context, t *core.Thought, seed core.ObjectSeed) (*core.Memory, error) {
	m := core.PromoteThought(t, seed)
	if err := s.Add(ctx, m); err != nil {
		return nil, err
	}
	s.opts.Logger.Debug("thought promoted to memory", "thought_id", t.ID(), "memory_id", m.ID())
	return m, nil
}

// LoadBackground seeds the store from a persona or background text. When a
// segmenter is provided the text is split and each segment becomes its own
// memory; otherwise the whole text becomes a single memory.
func (s *Store) LoadBackground(ctx context.Context, text string, segmenter model.Segmenter, embedder model.Embedder, seed core.ObjectSeed) error {
	segments := []string{text}
	if segmenter != nil {
		split, err := segmenter.Split(ctx, text)
		if err != nil {
			return fmt.Errorf("segment background: %w", err)
		}
		if len(split) > 0 {
			segments = split
		}
	}
	for _, segment := range segments {
		var vec []float32
		if embedder != nil {
			var err error
			vec, err = embedder.Embed(ctx, segment)
			if err != nil {
				return fmt.Errorf("embed background segment: %w", err)
			}
		}
		if err := s.Add(ctx, core.NewMemory(s.agentID, segment, vec, seed)); err != nil {
			return err
		}
	}
	s.opts.Logger.Info("background loaded", "agent_id", s.agentID, "segments", len(segments))
	return nil
}

// Retrieve returns up to k memories relevant to the query embedding. With an
// index configured, candidates come from nearest-neighbor search; otherwise
// the full pool is ranked. Hits below the relevance floor are dropped either
// way.
func (s *Store) Retrieve(ctx context.Context, query []float32, k int, now time.Time) ([]*core.Memory, error) {
	if k <= 0 {
		return nil, nil
	}
	if s.opts.Index != nil {
		return s.retrieveIndexed(ctx, query, k, now)
	}

	s.mu.RLock()
	pool := make([]core.MentalObject, 0, len(s.memories))
	for _, m := range s.memories {
		if saliency.Cosine(m.Vector(), query) >= s.opts.Saliency.RelevanceFloor {
			pool = append(pool, m)
		}
	}
	s.mu.RUnlock()

	ranked := s.opts.Saliency.Retrieve(query, pool, k, now)
	out := make([]*core.Memory, 0, len(ranked))
	for _, obj := range ranked {
		out = append(out, obj.(*core.Memory))
	}
	return out, nil
}

func (s *Store) retrieveIndexed(ctx context.Context, query []float32, k int, now time.Time) ([]*core.Memory, error) {
	hits, err := s.opts.Index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	pool := make([]core.MentalObject, 0, len(hits))
	s.mu.RLock()
	for _, hit := range hits {
		if float64(hit.Score) < s.opts.Saliency.RelevanceFloor {
			continue
		}
		if m, ok := s.byID[hit.ID]; ok {
			pool = append(pool, m)
		}
	}
	s.mu.RUnlock()

	ranked := s.opts.Saliency.Retrieve(query, pool, k, now)
	out := make([]*core.Memory, 0, len(ranked))
	for _, obj := range ranked {
		out = append(out, obj.(*core.Memory))
	}
	return out, nil
}

// Get returns the memory with the given ID, or nil.
func (s *Store) Get(id string) *core.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// All returns a copy of the stored memories in insertion order.
func (s *Store) All() []*core.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Memory, len(s.memories))
	copy(out, s.memories)
	return out
}

// Objects returns the store contents as a recalibration pool.
func (s *Store) Objects() []core.MentalObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.MentalObject, len(s.memories))
	for i, m := range s.memories {
		out[i] = m
	}
	return out
}

// Len returns the number of stored memories.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memories)
}
