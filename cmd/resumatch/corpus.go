package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/cli"
	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/corpus"
	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/jobsearch"
	"github.com/hyperjump/resumatch/internal/models"
)

func runPrecompute() {
	fs := flag.NewFlagSet("precompute", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	batchSize := fs.Int("batch-size", 32, "job descriptions embedded per request")
	out := fs.String("out", "", "corpus database path (default: corpus.path from config)")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Println("Usage: resumatch precompute [flags] <jobs.csv|jobs.xlsx>")
		os.Exit(1)
	}
	cfg, _, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *out != "" {
		cfg.Corpus.Path = *out
	}

	ctx, cancel := commandContext()
	defer cancel()
	n, err := precompute(ctx, cfg, fs.Arg(0), *batchSize, logger)
	if err != nil {
		fail("Precompute failed", err)
	}
	fmt.Printf("Stored %d jobs in %s (model %s)\n", n, cfg.Corpus.Path, cfg.Embedding.ModelID())
}

// precompute embeds the postings in src and replaces the SQLite corpus at cfg.Corpus.Path.
func precompute(ctx context.Context, cfg *config.Config, src string, batchSize int, logger *zap.Logger) (int, error) {
	rows, err := corpus.ReadJobs(src)
	if err != nil {
		return 0, err
	}
	logger.Info("job postings read", zap.String("path", src), zap.Int("rows", len(rows)))

	emb, err := embedding.NewEmbedder(ctx, &cfg.Embedding, logger)
	if err != nil {
		return 0, fmt.Errorf("load embedding model: %w", err)
	}
	defer emb.Close()
	if emb.Dimensions() != cfg.Embedding.Dimensions {
		return 0, fmt.Errorf("embedder produces %d dimensions, config says %d", emb.Dimensions(), cfg.Embedding.Dimensions)
	}

	records, err := corpus.Precompute(ctx, emb, rows, batchSize, logger)
	if err != nil {
		return 0, err
	}
	store, err := corpus.OpenStore(cfg.Corpus.Path)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	meta := corpus.Meta{Model: cfg.Embedding.ModelID(), Dimensions: cfg.Embedding.Dimensions, CreatedAt: time.Now().UTC()}
	if err := store.Replace(ctx, meta, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func runJobs() {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read the corpus directly)")
	limit := fs.Int("limit", jobsearch.DefaultLimit, "number of results")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := buildQuery(fs.Args())
	if query == "" {
		fmt.Println("Usage: resumatch jobs [flags] <query>")
		os.Exit(1)
	}

	var resp *models.JobSearchResponse
	var err error
	if *serverURL != "" {
		resp, err = searchJobsViaHTTP(*serverURL, query, *limit, *fuzzy)
		// Retry once with typo tolerance when nothing matched.
		if err == nil && resp.Total == 0 && !*fuzzy {
			if fuzzyResp, fuzzyErr := searchJobsViaHTTP(*serverURL, query, *limit, true); fuzzyErr == nil && fuzzyResp.Total > 0 {
				resp = fuzzyResp
			}
		}
	} else {
		cfg, _, logger := setup(*configPath, *debug)
		defer logger.Sync()
		components := initializeComponents(cfg, logger)
		defer components.Close()
		resp, err = searchJobsDirect(context.Background(), components, query, *limit, *fuzzy)
	}
	if err != nil {
		fail("Job search failed", err)
	}
	if err := cli.WriteJobSearch(os.Stdout, resp, cli.ParseOutputFormat(*format)); err != nil {
		fail("Output failed", err)
	}
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func searchJobsDirect(ctx context.Context, c *Components, query string, limit int, fuzzy bool) (*models.JobSearchResponse, error) {
	start := time.Now()
	idx, err := c.JobIndex.Get(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := idx.Search(ctx, query, limit, jobsearch.Options{Fuzzy: fuzzy})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && !fuzzy {
		if hits, err = idx.Search(ctx, query, limit, jobsearch.Options{Fuzzy: true}); err != nil {
			return nil, err
		}
	}
	resp := &models.JobSearchResponse{Query: query, Results: make([]models.JobSearchHit, len(hits)), Total: len(hits)}
	for i, h := range hits {
		resp.Results[i] = models.JobSearchHit{Job: models.NewJob(h.Job), Score: h.Score}
	}
	if len(hits) == 0 {
		if suggestion, ok := idx.Suggest(query); ok {
			resp.Suggestion = suggestion
		}
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

func searchJobsViaHTTP(serverURL, query string, limit int, fuzzy bool) (*models.JobSearchResponse, error) {
	v := url.Values{}
	v.Set("q", query)
	v.Set("limit", strconv.Itoa(limit))
	v.Set("fuzzy", strconv.FormatBool(fuzzy))
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/jobs?" + v.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out models.JobSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
