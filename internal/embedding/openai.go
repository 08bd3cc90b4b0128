package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/resumatch/pkg/utils"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIBatchSize bounds the number of inputs per embeddings request.
const openAIBatchSize = 96

// OpenAIEmbedder calls the OpenAI embeddings API (or any compatible endpoint via baseURL).
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	cache      *EmbeddingCache
}

// NewOpenAIEmbedder creates an embedder for model. Dimensions is sent with every request so
// text-embedding-3 models return vectors of the configured size.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions, cacheSize int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("openai embedder: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIEmbedder{
		client:     &client,
		model:      model,
		dimensions: dimensions,
		cache:      NewEmbeddingCache(cacheSize),
	}, nil
}

// Embed returns the normalized embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in as few requests as possible, serving repeats from the cache.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyText
		}
		if cached, ok := e.cache.Get(text); ok {
			out[i] = cached
			continue
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += openAIBatchSize {
		end := start + openAIBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		idx := missing[start:end]
		inputs := make([]string, len(idx))
		for j, i := range idx {
			inputs[j] = texts[i]
		}

		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
			Model:          openai.EmbeddingModel(e.model),
			Dimensions:     openai.Int(int64(e.dimensions)),
			EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings request failed: %w", err)
		}
		if len(resp.Data) != len(inputs) {
			return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(inputs))
		}
		for _, d := range resp.Data {
			if d.Index < 0 || int(d.Index) >= len(idx) {
				return nil, fmt.Errorf("openai returned out-of-range embedding index %d", d.Index)
			}
			vec, err := finalize(utils.Float64sToFloat32s(d.Embedding), e.dimensions)
			if err != nil {
				return nil, fmt.Errorf("openai: %w", err)
			}
			i := idx[d.Index]
			out[i] = vec
			e.cache.Set(texts[i], vec)
		}
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client has no resources to release.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
