package model

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder is an offline Embedder producing deterministic bag-of-words
// hash embeddings. Suitable for tests and examples only; swap in a provider
// embedder for semantic quality.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder creates a LocalEmbedder with the given dimension
// (default 64 when non-positive).
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &LocalEmbedder{dim: dim}
}

// Dimension returns the embedding vector dimension.
func (e *LocalEmbedder) Dimension() int { return e.dim }

// Embed implements Embedder. Tokens are lowercased, hashed into the vector
// and the result is L2-normalized so cosine similarity behaves.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dim))
		// second hash bit decides sign so common tokens do not all pile up
		// in the positive orthant
		if sum&(1<<31) != 0 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// LocalSegmenter is an offline Segmenter splitting text into sentences on
// terminal punctuation, with blank lines always starting a new segment.
type LocalSegmenter struct{}

// NewLocalSegmenter creates a LocalSegmenter.
func NewLocalSegmenter() *LocalSegmenter { return &LocalSegmenter{} }

// Split implements Segmenter.
func (s *LocalSegmenter) Split(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var segments []string
	for _, para := range strings.Split(text, "\n\n") {
		var b strings.Builder
		for _, r := range para {
			b.WriteRune(r)
			if r == '.' || r == '!' || r == '?' {
				if seg := strings.TrimSpace(b.String()); seg != "" {
					segments = append(segments, seg)
				}
				b.Reset()
			}
		}
		if seg := strings.TrimSpace(b.String()); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments, nil
}
