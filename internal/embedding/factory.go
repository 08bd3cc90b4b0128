package embedding

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/resumatch/internal/config"
	"go.uber.org/zap"
)

// Supported embedding providers.
const (
	ProviderONNX   = "onnx"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// NewEmbedder builds the embedder selected by cfg.Provider. A provider that fails to
// initialize is an error; there is no silent fallback to another provider, because
// vectors from different models are not comparable.
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	switch cfg.Provider {
	case ProviderONNX, "":
		opts := []ONNXOption{WithOutputName(cfg.OutputName)}
		if cfg.VocabPath != "" {
			if _, err := os.Stat(cfg.VocabPath); err == nil {
				tok, err := LoadWordPieceTokenizer(cfg.VocabPath)
				if err != nil {
					return nil, err
				}
				opts = append(opts, WithTokenizer(tok))
			} else if logger != nil {
				logger.Warn("vocab file not found, using hash tokenizer", zap.String("vocab_path", cfg.VocabPath))
			}
		}
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize, opts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimensions, cfg.CacheSize)
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimensions, cfg.CacheSize)
	case ProviderMock:
		return NewMockEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
