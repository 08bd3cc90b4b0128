package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/pkg/utils"
)

// objectFetcher is the subset of *minio.Client used to download the corpus.
type objectFetcher interface {
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
}

// NewBlobClient creates an S3-compatible client for cfg.
func NewBlobClient(cfg config.BlobConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return client, nil
}

// EnsureLocal makes sure the corpus file exists at path, downloading it from blob storage
// when it is missing locally and a remote location is configured.
func EnsureLocal(ctx context.Context, path string, cfg config.BlobConfig, logger *zap.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat corpus: %w", err)
	}
	if !cfg.Enabled() {
		return fmt.Errorf("corpus file %s not found and no blob location is configured", path)
	}
	client, err := NewBlobClient(cfg)
	if err != nil {
		return err
	}
	return download(ctx, client, path, cfg, logger)
}

// download writes the object to a sibling temp file and renames it into place so a
// partial download is never mistaken for a complete corpus.
func download(ctx context.Context, client objectFetcher, path string, cfg config.BlobConfig, logger *zap.Logger) error {
	logger = utils.OrNop(logger)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}
	tmp := path + ".download"
	logger.Info("downloading corpus",
		zap.String("bucket", cfg.Bucket), zap.String("object", cfg.Object), zap.String("path", path))
	if err := client.FGetObject(ctx, cfg.Bucket, cfg.Object, tmp, minio.GetObjectOptions{}); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("download corpus %s/%s: %w", cfg.Bucket, cfg.Object, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("install corpus: %w", err)
	}
	return nil
}
