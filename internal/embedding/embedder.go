// Package embedding turns resume and job description text into L2-normalized vectors.
package embedding

import (
	"context"
	"errors"
)

// Embedder produces vector embeddings for text.
// Every implementation returns unit-length vectors of exactly Dimensions() values.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ErrEmptyText is returned when asked to embed text with no content.
var ErrEmptyText = errors.New("cannot embed empty text")

// embedEach implements EmbedBatch for embedders without a native batch call.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
