package corpus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/pkg/utils"
)

// Sources for corpus.source.
const (
	SourceSQLite = "sqlite"
	SourceQdrant = "qdrant"
)

// Load reads the configured corpus into memory and verifies it matches the configured
// embedding model and dimensionality.
func Load(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Corpus, error) {
	logger = utils.OrNop(logger)
	var (
		meta    Meta
		records []JobRecord
		err     error
	)
	switch cfg.Corpus.Source {
	case SourceSQLite, "":
		meta, records, err = loadSQLite(ctx, cfg, logger)
	case SourceQdrant:
		meta, records, err = loadQdrant(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
	if err != nil {
		return nil, err
	}
	if err := meta.CheckModel(cfg.Embedding.ModelID()); err != nil {
		return nil, err
	}
	if meta.Dimensions == 0 {
		meta.Dimensions = cfg.Embedding.Dimensions
	}
	if meta.Dimensions != cfg.Embedding.Dimensions {
		return nil, &ModelMismatchError{Corpus: meta, Configured: cfg.Embedding.ModelID()}
	}
	c, err := New(meta, records)
	if err != nil {
		return nil, err
	}
	logger.Info("job corpus loaded",
		zap.String("source", cfg.Corpus.Source),
		zap.Int("jobs", c.Len()),
		zap.String("model", meta.Model),
		zap.Int("dimensions", meta.Dimensions))
	return c, nil
}

func loadSQLite(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Meta, []JobRecord, error) {
	if err := EnsureLocal(ctx, cfg.Corpus.Path, cfg.Corpus.Blob, logger); err != nil {
		return Meta{}, nil, err
	}
	store, err := OpenStore(cfg.Corpus.Path)
	if err != nil {
		return Meta{}, nil, err
	}
	defer store.Close()
	meta, err := store.Meta(ctx)
	if err != nil {
		return Meta{}, nil, err
	}
	records, err := store.LoadAll(ctx)
	if err != nil {
		return Meta{}, nil, err
	}
	return meta, records, nil
}

func loadQdrant(ctx context.Context, cfg *config.Config) (Meta, []JobRecord, error) {
	client, err := NewQdrantClient(cfg.Corpus.Qdrant)
	if err != nil {
		return Meta{}, nil, err
	}
	defer client.Close()
	records, err := ScrollJobs(ctx, client, cfg.Corpus.Qdrant.Collection)
	if err != nil {
		return Meta{}, nil, err
	}
	return Meta{Dimensions: cfg.Embedding.Dimensions}, records, nil
}
