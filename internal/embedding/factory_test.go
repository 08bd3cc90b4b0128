package embedding

import (
	"context"
	"testing"

	"github.com/hyperjump/resumatch/internal/config"
	"go.uber.org/zap"
)

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	e, err := NewEmbedder(ctx, &config.EmbeddingConfig{Provider: ProviderMock, Dimensions: 8}, logger)
	if err != nil {
		t.Fatal(err)
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions = %d", e.Dimensions())
	}

	if _, err := NewEmbedder(ctx, &config.EmbeddingConfig{Provider: "word2vec"}, logger); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewEmbedder(ctx, &config.EmbeddingConfig{Provider: ProviderOpenAI, Model: "m", Dimensions: 4}, logger); err == nil {
		t.Error("expected error for openai without key")
	}
	if _, err := NewEmbedder(ctx, &config.EmbeddingConfig{Provider: ProviderGemini, Model: "m", Dimensions: 4}, logger); err == nil {
		t.Error("expected error for gemini without key")
	}
}

func TestNewEmbedder_onnxMissingModelFails(t *testing.T) {
	cfg := &config.EmbeddingConfig{
		Provider:   ProviderONNX,
		ModelPath:  t.TempDir() + "/missing.onnx",
		Dimensions: 4,
		MaxTokens:  8,
		OutputName: "last_hidden_state",
	}
	if _, err := NewEmbedder(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("expected error when the model cannot be loaded")
	}
}
