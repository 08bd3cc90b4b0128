// Package config provides configuration loading and structs for the resumatch service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Matching  MatchingConfig  `yaml:"matching"`
	Storage   StorageConfig   `yaml:"storage"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	// RequestTimeoutSeconds bounds a single request, including PDF extraction and embedding.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// EmbeddingConfig selects and configures the text embedder.
type EmbeddingConfig struct {
	// Provider is one of onnx, openai, gemini, mock.
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	ModelPath string `yaml:"model_path"`
	VocabPath string `yaml:"vocab_path"`
	// OutputName is the ONNX output tensor. last_hidden_state outputs are mean-pooled.
	OutputName string `yaml:"output_name"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
}

// ModelID identifies the embedding space. Corpora built with a different ModelID cannot be compared.
func (e *EmbeddingConfig) ModelID() string {
	return fmt.Sprintf("%s/%s@%d", e.Provider, e.Model, e.Dimensions)
}

// CorpusConfig locates the precomputed job embeddings.
type CorpusConfig struct {
	// Source is sqlite (default) or qdrant.
	Source string       `yaml:"source"`
	Path   string       `yaml:"path"`
	Blob   BlobConfig   `yaml:"blob"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// BlobConfig is the S3-compatible location the corpus file is downloaded from when missing locally.
type BlobConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Object    string `yaml:"object"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether a remote corpus location is configured.
func (b *BlobConfig) Enabled() bool {
	return b.Endpoint != "" && b.Bucket != "" && b.Object != ""
}

// QdrantConfig holds the Qdrant collection used when corpus.source is qdrant.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// MatchingConfig holds similarity thresholds.
type MatchingConfig struct {
	DefaultThreshold    float64 `yaml:"default_threshold"`
	ServerlessThreshold float64 `yaml:"serverless_threshold"`
	FallbackLimit       int     `yaml:"fallback_limit"`
}

// StorageConfig holds local scratch paths.
type StorageConfig struct {
	TempDir string `yaml:"temp_dir"`
}

// WatchConfig holds resume inbox watch settings.
type WatchConfig struct {
	Directories    []string `yaml:"directories"`
	Extensions     []string `yaml:"extensions"`
	Recursive      *bool    `yaml:"recursive"`
	JobID          string   `yaml:"job_id"`
	JobDescription string   `yaml:"job_description"`
	Threshold      float64  `yaml:"threshold"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	expandPaths(&cfg, filepath.Dir(path))
	return &cfg, nil
}

// Default returns a config built from defaults and environment only.
func Default() *Config {
	var cfg Config
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	if cwd, err := os.Getwd(); err == nil {
		expandPaths(&cfg, cwd)
	}
	return &cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func expandPaths(cfg *Config, configDir string) {
	cfg.Corpus.Path = expandPath(cfg.Corpus.Path, configDir)
	cfg.Storage.TempDir = expandPath(cfg.Storage.TempDir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Embedding.VocabPath != "" {
		cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	}
	defaultVocabPath(&cfg.Embedding)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
