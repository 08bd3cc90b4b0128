// Package main is the resumatch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/corpus"
	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/jobsearch"
	"github.com/hyperjump/resumatch/internal/lazy"
	"github.com/hyperjump/resumatch/internal/matcher"
	"github.com/hyperjump/resumatch/internal/ranking"
	"github.com/hyperjump/resumatch/internal/server"
	"github.com/hyperjump/resumatch/internal/watcher"
	"github.com/hyperjump/resumatch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/resumatch/config.yaml"

// loadConfig loads config from path. When path is the default and it does not exist, it
// looks for config.yaml in the current directory, then falls back to defaults plus
// environment. Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	config.LoadDotEnv()
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "match-jobs":
		runMatchJobs()
	case "match-candidates":
		runMatchCandidates()
	case "precompute":
		runPrecompute()
	case "jobs":
		runJobs()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("resumatch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds the logger, exiting on failure.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (model loading, inbox events, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
		zap.String("embedding_model", cfg.Embedding.ModelID()),
	)

	components := initializeComponents(cfg, logger)
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var opts []server.Option
	if w := startInbox(watchCtx, cfg, components, logger); w != nil {
		opts = append(opts, server.WithWatch(w, resolvedConfigPath))
	}

	srv := server.NewServer(components.Matcher, components.JobIndex, cfg, logger, opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// startInbox starts the resume inbox watcher when directories and a target job are configured.
func startInbox(ctx context.Context, cfg *config.Config, c *Components, logger *zap.Logger) *watcher.Watcher {
	wc := cfg.Watch
	if len(wc.Directories) == 0 {
		return nil
	}
	inbox, err := watcher.NewInbox(c.Matcher,
		watcher.Target{JobID: wc.JobID, JobDescription: wc.JobDescription},
		wc.Threshold,
		watcher.WithInboxLogger(logger))
	if err != nil {
		logger.Warn("resume inbox disabled", zap.Error(err))
		return nil
	}
	onFile, onRemove := inbox.Callbacks(ctx)
	w := watcher.NewWatcher(wc.Directories, wc.Extensions, wc.RecursiveOrDefault(), onFile, onRemove,
		watcher.WithLogger(logger))
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go w.ScanExisting()
	logger.Info("resume inbox watching", zap.Strings("directories", wc.Directories))
	return w
}

// Components holds the shared, lazily initialized services.
type Components struct {
	Embedder *lazy.Value[embedding.Embedder]
	Corpus   *lazy.Value[*corpus.Corpus]
	JobIndex *lazy.Value[*jobsearch.Index]
	Matcher  *matcher.Matcher
}

// Close releases whatever was initialized.
func (c *Components) Close() {
	if e, ok := c.Embedder.Peek(); ok {
		_ = e.Close()
	}
	if ix, ok := c.JobIndex.Peek(); ok {
		_ = ix.Close()
	}
}

// initializeComponents wires the lazies. Nothing is loaded until first use.
func initializeComponents(cfg *config.Config, logger *zap.Logger) *Components {
	lazyOpts := []lazy.Option{lazy.WithLogger(logger)}
	embedder := lazy.New[embedding.Embedder]("embedding model", func(ctx context.Context) (embedding.Embedder, error) {
		return embedding.NewEmbedder(ctx, &cfg.Embedding, logger)
	}, lazyOpts...)
	jobs := lazy.New[*corpus.Corpus]("job corpus", func(ctx context.Context) (*corpus.Corpus, error) {
		return corpus.Load(ctx, cfg, logger)
	}, lazyOpts...)
	index := lazy.New[*jobsearch.Index]("job index", func(ctx context.Context) (*jobsearch.Index, error) {
		c, err := jobs.Wait(ctx)
		if err != nil {
			return nil, err
		}
		return jobsearch.New(c)
	}, lazyOpts...)

	m := matcher.New(embedder, jobs,
		matcher.WithRanker(ranking.NewRanker(&ranking.Config{FallbackLimit: cfg.Matching.FallbackLimit})),
		matcher.WithTempDir(cfg.Storage.TempDir),
		matcher.WithLogger(logger),
	)
	return &Components{Embedder: embedder, Corpus: jobs, JobIndex: index, Matcher: m}
}

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// fail prints err the way a user should see it and exits.
func fail(prefix string, err error) {
	var ve *matcher.ValidationError
	var mm *corpus.ModelMismatchError
	switch {
	case errors.As(err, &ve):
		fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, ve.Msg)
	case errors.As(err, &mm):
		fmt.Fprintf(os.Stderr, "%s: %v\nRun `resumatch precompute` with the configured model to rebuild the corpus.\n", prefix, err)
	default:
		fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	}
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`resumatch - Match resumes to job postings by embedding similarity

Usage:
  resumatch server [flags]                       Start the HTTP server
  resumatch match-jobs [flags] <resume>          Rank the job corpus against one resume
  resumatch match-candidates [flags] <paths...>  Rank resumes (files or folders) against a job
  resumatch precompute [flags] <jobs.csv|xlsx>   Embed job postings into the corpus database
  resumatch jobs [flags] <query>                 Keyword search over job postings
  resumatch watch <run|add|remove|list>          Score resumes dropped into inbox folders
  resumatch status [flags]                       Show model/corpus status
  resumatch version                              Show version
  resumatch help                                 Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/resumatch/config.yaml,
                     then ./config.yaml, then built-in defaults)
  --debug            Enable debug logging

Match Flags:
  --threshold float  Minimum similarity in [0,1] (default from config, 0.7)
  --format string    Output format: text or json (default: text)
  --jd string        Job description text (match-candidates, watch run)
  --jd-file string   Read the job description from a file (.txt, .md, .pdf, .docx, .odt, .rtf; - for stdin)
  --job-id string    Use a precomputed job from the corpus instead of --jd

Precompute Flags:
  --batch-size int   Job descriptions embedded per request (default: 32)
  --out string       Corpus database path (default: corpus.path from config)

Jobs / Status / Watch Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to read the corpus directly.
  --limit int        Number of results (jobs, default: 10)
  --fuzzy            Typo tolerant job search

Environment:
  RESUMATCH_* variables override the config file; a .env file in the current directory is loaded first.

Examples:
  resumatch precompute --config config.yaml jobs.xlsx
  resumatch match-jobs resume.pdf
  resumatch match-jobs --threshold 0.5 --format json resume.pdf
  resumatch match-candidates --jd-file backend.txt ./applicants
  resumatch match-candidates --job-id 42 jane.pdf john.pdf
  resumatch jobs --server "" golang backend
  resumatch watch run --job-id 42 ./inbox
  resumatch watch add ./inbox`)
}
