package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/cli"
	"github.com/hyperjump/resumatch/internal/watcher"
)

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: resumatch watch <run|add|remove|list> [path]")
		fmt.Println("  resumatch watch run [flags] [dir...]  Score resumes dropped into folders until interrupted")
		fmt.Println("  resumatch watch add <path>            Add an inbox folder to the running server")
		fmt.Println("  resumatch watch remove <path>         Remove an inbox folder from the running server")
		fmt.Println("  resumatch watch list                  List the server's inbox folders")
		os.Exit(1)
	}
	sub := os.Args[2]
	if sub == "run" {
		runWatchLocal(os.Args[3:])
		return
	}

	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(argsReorder(os.Args[3:]))
	base := strings.TrimRight(*serverURL, "/") + "/api/v1/watch/directories"
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: resumatch watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(base, "application/json", bytes.NewReader(body))
		if err != nil {
			fail("Request failed", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: resumatch watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, base+"?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fail("Request failed", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(base)
		if err != nil {
			fail("Request failed", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fail("Parse failed", err)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// runWatchLocal scores resumes in the given folders (or watch.directories) as they
// arrive and prints a ranked summary on exit.
func runWatchLocal(args []string) {
	fs := flag.NewFlagSet("watch run", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	thresholdRaw := fs.String("threshold", "", "minimum similarity in [0,1] (default from config)")
	jd := fs.String("jd", "", "job description text")
	jdFile := fs.String("jd-file", "", "read the job description from a file")
	jobID := fs.String("job-id", "", "precomputed job to match against")
	_ = fs.Parse(argsReorder(args))

	cfg, _, logger := setup(*configPath, *debug)
	defer logger.Sync()
	threshold, err := resolveThreshold(*thresholdRaw, cfg.Watch.Threshold)
	if err != nil {
		fail("Watch failed", err)
	}
	description, err := readJobDescription(*jd, *jdFile, os.Stdin)
	if err != nil {
		fail("Failed to read job description", err)
	}
	target := watcher.Target{JobID: cfg.Watch.JobID, JobDescription: cfg.Watch.JobDescription}
	if *jobID != "" || description != "" {
		target = watcher.Target{JobID: *jobID, JobDescription: description}
	}
	dirs := cfg.Watch.Directories
	if fs.NArg() > 0 {
		dirs = dirs[:0:0]
		for _, d := range fs.Args() {
			abs, _ := filepath.Abs(d)
			dirs = append(dirs, abs)
		}
	}
	if len(dirs) == 0 {
		fail("Watch failed", fmt.Errorf("no directories to watch"))
	}

	components := initializeComponents(cfg, logger)
	defer components.Close()
	ctx, cancel := commandContext()
	defer cancel()

	inbox, err := watcher.NewInbox(components.Matcher, target, threshold,
		watcher.WithInboxLogger(logger),
		watcher.WithScoreHandler(func(s watcher.Score) { printScore(os.Stdout, s) }))
	if err != nil {
		fail("Watch failed", err)
	}
	onFile, onRemove := inbox.Callbacks(ctx)
	w := watcher.NewWatcher(dirs, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(), onFile, onRemove,
		watcher.WithLogger(logger))
	if err := w.Start(ctx); err != nil {
		fail("Failed to start watcher", err)
	}
	logger.Info("watching for resumes", zap.Strings("directories", dirs), zap.String("target", target.String()))
	w.ScanExisting()

	<-ctx.Done()
	w.Stop()
	fmt.Println("\nSummary:")
	for i, s := range inbox.Results() {
		fmt.Printf("%3d. ", i+1)
		printScore(os.Stdout, s)
	}
}

func printScore(w io.Writer, s watcher.Score) {
	switch {
	case s.Err != nil:
		fmt.Fprintf(w, "   skipped  %s (%v)\n", s.Filename, s.Err)
	case s.Match:
		fmt.Fprintf(w, "%7s  match    %s\n", cli.Percent(s.Similarity), s.Filename)
	default:
		fmt.Fprintf(w, "%7s  below    %s\n", cli.Percent(s.Similarity), s.Filename)
	}
}
