package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/corpus"
	"github.com/hyperjump/resumatch/internal/storage"
)

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	UptimeSeconds int64             `json:"uptime_seconds,omitempty"`
	Resources     map[string]string `json:"resources"`
	Jobs          *int              `json:"jobs,omitempty"`
	CorpusModel   string            `json:"corpus_model,omitempty"`
	Disk          *storage.Usage    `json:"disk,omitempty"`
	Config        map[string]any    `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load the corpus directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status *statusResponse
	var err error
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, _, logger := setup(*configPath, false)
		defer logger.Sync()
		components := initializeComponents(cfg, logger)
		defer components.Close()
		status = localStatus(context.Background(), cfg, components)
	}
	if err != nil {
		fail("Status failed", err)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fail("Output failed", err)
		}
	case "text":
		writeStatusText(os.Stdout, status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// localStatus loads the corpus in-process; the embedding model is left untouched.
func localStatus(ctx context.Context, cfg *config.Config, c *Components) *statusResponse {
	status := &statusResponse{
		Resources: c.Matcher.States(),
		Config: map[string]any{
			"embedding_provider":   cfg.Embedding.Provider,
			"embedding_model":      cfg.Embedding.ModelID(),
			"embedding_dimensions": cfg.Embedding.Dimensions,
			"corpus_source":        cfg.Corpus.Source,
			"corpus_path":          cfg.Corpus.Path,
			"default_threshold":    cfg.Matching.DefaultThreshold,
			"fallback_limit":       cfg.Matching.FallbackLimit,
		},
	}
	if n, model, err := storedJobs(ctx, cfg); err == nil {
		status.Jobs = &n
		status.CorpusModel = model
	} else if jobs, err := c.Corpus.Get(ctx); err == nil {
		n := jobs.Len()
		status.Jobs = &n
		status.CorpusModel = jobs.Meta().Model
	}
	status.Resources[c.Corpus.Name()] = c.Corpus.State().String()
	if usage, err := storage.MeasureUsage(cfg.Corpus.Path, cfg.Storage.TempDir); err == nil {
		status.Disk = &usage
	}
	return status
}

// storedJobs counts the jobs in a local SQLite corpus without loading their embeddings.
func storedJobs(ctx context.Context, cfg *config.Config) (int, string, error) {
	if src := cfg.Corpus.Source; src != corpus.SourceSQLite && src != "" {
		return 0, "", fmt.Errorf("corpus source %q is not a local database", cfg.Corpus.Source)
	}
	if _, err := os.Stat(cfg.Corpus.Path); err != nil {
		return 0, "", err
	}
	store, err := corpus.OpenStore(cfg.Corpus.Path)
	if err != nil {
		return 0, "", err
	}
	defer store.Close()
	n, err := store.Count(ctx)
	if err != nil {
		return 0, "", err
	}
	meta, err := store.Meta(ctx)
	if err != nil {
		return 0, "", err
	}
	return n, meta.Model, nil
}

func writeStatusText(w io.Writer, s *statusResponse) {
	if s.UptimeSeconds > 0 {
		fmt.Fprintf(w, "uptime:             %s\n", time.Duration(s.UptimeSeconds)*time.Second)
	}
	names := make([]string, 0, len(s.Resources))
	for name := range s.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%-19s %s\n", strings.ReplaceAll(name, " ", "_")+":", s.Resources[name])
	}
	if s.Jobs != nil {
		fmt.Fprintf(w, "jobs:               %d   # postings in the corpus\n", *s.Jobs)
	}
	if s.CorpusModel != "" {
		fmt.Fprintf(w, "corpus_model:       %s\n", s.CorpusModel)
	}
	if s.Disk != nil {
		fmt.Fprintf(w, "corpus_bytes:       %d   # corpus database, WAL included\n", s.Disk.CorpusBytes)
		fmt.Fprintf(w, "temp_files:         %d   # resume scratch files not yet removed\n", s.Disk.TempFiles)
		fmt.Fprintf(w, "temp_bytes:         %d\n", s.Disk.TempBytes)
	}
	if len(s.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		keys := make([]string, 0, len(s.Config))
		for k := range s.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%-19s %v\n", k+":", s.Config[k])
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}
