package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

// MockEmbedder is a deterministic embedder for tests and offline runs. It returns a
// fixed-dimension vector derived from the text hash so the same text always gets the
// same embedding. Specific texts can be pinned to chosen vectors or made to fail.
type MockEmbedder struct {
	dimensions int

	mu       sync.RWMutex
	pinned   map[string][]float32
	failures map[string]error
	calls    int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{
		dimensions: dimensions,
		pinned:     make(map[string][]float32),
		failures:   make(map[string]error),
	}
}

// Pin makes Embed return the normalized form of vec for any text containing substr.
func (e *MockEmbedder) Pin(substr string, vec []float32) {
	v := make([]float32, len(vec))
	copy(v, vec)
	NormalizeL2Slice(v)
	e.mu.Lock()
	e.pinned[substr] = v
	e.mu.Unlock()
}

// FailOn makes Embed return err for any text containing substr.
func (e *MockEmbedder) FailOn(substr string, err error) {
	e.mu.Lock()
	e.failures[substr] = err
	e.mu.Unlock()
}

// Calls returns how many texts have been embedded.
func (e *MockEmbedder) Calls() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.calls
}

// Embed returns the pinned vector for text if one matches, otherwise a hash-derived unit vector.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	e.mu.RLock()
	for substr, err := range e.failures {
		if strings.Contains(text, substr) {
			e.mu.RUnlock()
			return nil, err
		}
	}
	for substr, vec := range e.pinned {
		if strings.Contains(text, substr) {
			e.mu.RUnlock()
			if len(vec) != e.dimensions {
				return nil, fmt.Errorf("pinned vector has %d dimensions, expected %d", len(vec), e.dimensions)
			}
			out := make([]float32, len(vec))
			copy(out, vec)
			return out, nil
		}
	}
	e.mu.RUnlock()

	h := HashString(text)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	NormalizeL2Slice(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
