package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hyperjump/resumatch/pkg/utils"
)

// geminiMaxBytes keeps a single input well under the model's token limit.
const geminiMaxBytes = 40000

// GeminiEmbedder calls the Gemini embedContent API.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
	cache      *EmbeddingCache
}

// NewGeminiEmbedder creates an embedder for model (e.g. text-embedding-004).
func NewGeminiEmbedder(ctx context.Context, apiKey, baseURL, model string, dimensions, cacheSize int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini embedder: API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiEmbedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
		cache:      NewEmbeddingCache(cacheSize),
	}, nil
}

// Embed returns the normalized embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds all uncached texts in a single request.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []int
	var contents []*genai.Content
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyText
		}
		if cached, ok := e.cache.Get(text); ok {
			out[i] = cached
			continue
		}
		text = utils.TruncateUTF8(text, geminiMaxBytes)
		missing = append(missing, i)
		contents = append(contents, genai.Text(text)...)
	}
	if len(missing) == 0 {
		return out, nil
	}

	dims := int32(e.dimensions)
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(missing) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", embeddingCount(result), len(missing))
	}
	for j, emb := range result.Embeddings {
		vec, err := finalize(append([]float32(nil), emb.Values...), e.dimensions)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		i := missing[j]
		out[i] = vec
		e.cache.Set(texts[i], vec)
	}
	return out, nil
}

func embeddingCount(r *genai.EmbedContentResponse) int {
	if r == nil {
		return 0
	}
	return len(r.Embeddings)
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the client holds no long-lived connections.
func (e *GeminiEmbedder) Close() error {
	return nil
}
