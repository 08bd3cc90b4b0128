package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "RESUMATCH_"

// LoadDotEnv loads variables from .env files into the process environment.
// Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overrides config values from RESUMATCH_* environment variables.
// Secrets are expected to come from the environment rather than the config file.
func ApplyEnv(cfg *Config) {
	if v, ok := getEnvAsBool("DEBUG"); ok {
		cfg.Debug = v
	}
	setString(&cfg.Server.Host, "HOST")
	if v, ok := getEnvAsInt("PORT"); ok {
		cfg.Server.Port = v
	}

	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.Embedding.ModelPath, "EMBEDDING_MODEL_PATH")
	setString(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&cfg.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	if cfg.Embedding.APIKey == "" {
		switch strings.ToLower(cfg.Embedding.Provider) {
		case "openai":
			cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.Embedding.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	setString(&cfg.Corpus.Source, "CORPUS_SOURCE")
	setString(&cfg.Corpus.Path, "CORPUS_PATH")
	setString(&cfg.Corpus.Blob.Endpoint, "BLOB_ENDPOINT")
	setString(&cfg.Corpus.Blob.Bucket, "BLOB_BUCKET")
	setString(&cfg.Corpus.Blob.Object, "BLOB_OBJECT")
	setString(&cfg.Corpus.Blob.AccessKey, "BLOB_ACCESS_KEY")
	setString(&cfg.Corpus.Blob.SecretKey, "BLOB_SECRET_KEY")
	if v, ok := getEnvAsBool("BLOB_USE_SSL"); ok {
		cfg.Corpus.Blob.UseSSL = v
	}
	setString(&cfg.Corpus.Qdrant.URL, "QDRANT_URL")
	setString(&cfg.Corpus.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&cfg.Corpus.Qdrant.Collection, "QDRANT_COLLECTION")

	setString(&cfg.Storage.TempDir, "TEMP_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = v
	}
}

func getEnvAsInt(key string) (int, bool) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvAsBool(key string) (bool, bool) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
