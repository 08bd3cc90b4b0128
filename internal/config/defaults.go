package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultDataDir             = "/usr/local/var/resumatch/data"
	DefaultThreshold           = 0.7
	DefaultServerlessThreshold = 0.5
	DefaultMaxUploadBytes      = 32 << 20
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 120
	}

	e := &cfg.Embedding
	e.Provider = strings.ToLower(e.Provider)
	if e.Provider == "" {
		e.Provider = "onnx"
	}
	if e.Model == "" {
		switch e.Provider {
		case "openai":
			e.Model = "text-embedding-3-small"
		case "gemini":
			e.Model = "text-embedding-004"
		default:
			e.Model = "all-MiniLM-L6-v2"
		}
	}
	if e.Provider == "onnx" {
		if e.ModelPath == "" {
			e.ModelPath = filepath.Join(DefaultDataDir, "models", "all-MiniLM-L6-v2.onnx")
		}
		defaultVocabPath(e)
		if e.OutputName == "" {
			e.OutputName = "last_hidden_state"
		}
	}
	if e.Dimensions == 0 {
		e.Dimensions = 384
	}
	if e.MaxTokens == 0 {
		e.MaxTokens = 256
	}
	if e.CacheSize == 0 {
		e.CacheSize = 10000
	}

	if cfg.Corpus.Source == "" {
		cfg.Corpus.Source = "sqlite"
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = filepath.Join(DefaultDataDir, "jobs.db")
	}
	if cfg.Corpus.Qdrant.Collection == "" {
		cfg.Corpus.Qdrant.Collection = "jobs"
	}

	if cfg.Matching.DefaultThreshold == 0 {
		cfg.Matching.DefaultThreshold = DefaultThreshold
	}
	if cfg.Matching.ServerlessThreshold == 0 {
		cfg.Matching.ServerlessThreshold = DefaultServerlessThreshold
	}
	if cfg.Matching.FallbackLimit == 0 {
		cfg.Matching.FallbackLimit = 10
	}

	if cfg.Storage.TempDir == "" {
		cfg.Storage.TempDir = os.TempDir()
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".odt", ".rtf", ".txt", ".md"}
	}
	if cfg.Watch.Threshold == 0 {
		cfg.Watch.Threshold = cfg.Matching.DefaultThreshold
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// defaultVocabPath puts vocab.txt next to the ONNX model. A relative model path is left
// alone until expandPaths has resolved it, so the vocab follows the model.
func defaultVocabPath(e *EmbeddingConfig) {
	if e.Provider != "onnx" || e.VocabPath != "" || !filepath.IsAbs(e.ModelPath) {
		return
	}
	e.VocabPath = filepath.Join(filepath.Dir(e.ModelPath), "vocab.txt")
}
