package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/resumatch/internal/cli"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/matcher"
	"github.com/hyperjump/resumatch/internal/models"
)

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so flag.Parse sees them. Go's flag package stops at the first
// non-flag argument, so "resumatch match-jobs cv.pdf --threshold 0.5" would otherwise
// leave --threshold unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// resolveThreshold parses the --threshold flag; empty means the configured default.
// Range checks are left to the matcher so the CLI and API report the same message.
func resolveThreshold(raw string, def float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q", raw)
	}
	return t, nil
}

func runMatchJobs() {
	fs := flag.NewFlagSet("match-jobs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	thresholdRaw := fs.String("threshold", "", "minimum similarity in [0,1] (default from config)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Println("Usage: resumatch match-jobs [flags] <resume.pdf>")
		os.Exit(1)
	}
	cfg, _, logger := setup(*configPath, *debug)
	defer logger.Sync()
	threshold, err := resolveThreshold(*thresholdRaw, cfg.Matching.DefaultThreshold)
	if err != nil {
		fail("Match failed", err)
	}

	path := fs.Arg(0)
	content, err := os.ReadFile(path)
	if err != nil {
		fail("Failed to read resume", err)
	}

	components := initializeComponents(cfg, logger)
	defer components.Close()
	ctx, cancel := commandContext()
	defer cancel()

	r, err := components.Matcher.MatchJobs(ctx, matcher.Resume{Filename: filepath.Base(path), Content: content}, threshold)
	if err != nil {
		fail("Match failed", err)
	}
	if err := cli.WriteJobMatches(os.Stdout, models.NewJobMatchResponse(r), threshold, cli.ParseOutputFormat(*format)); err != nil {
		fail("Output failed", err)
	}
}

func runMatchCandidates() {
	fs := flag.NewFlagSet("match-candidates", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	thresholdRaw := fs.String("threshold", "", "minimum similarity in [0,1] (default from config)")
	format := fs.String("format", "text", "output format: text or json")
	jd := fs.String("jd", "", "job description text")
	jdFile := fs.String("jd-file", "", "read the job description from a file")
	jobID := fs.String("job-id", "", "precomputed job to match against")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: resumatch match-candidates [--jd text | --jd-file path | --job-id id] <resume-or-folder>...")
		os.Exit(1)
	}
	cfg, _, logger := setup(*configPath, *debug)
	defer logger.Sync()
	threshold, err := resolveThreshold(*thresholdRaw, cfg.Matching.DefaultThreshold)
	if err != nil {
		fail("Match failed", err)
	}
	description, err := readJobDescription(*jd, *jdFile, os.Stdin)
	if err != nil {
		fail("Failed to read job description", err)
	}
	if description == "" && *jobID == "" {
		fail("Match failed", fmt.Errorf("one of --jd, --jd-file or --job-id is required"))
	}
	resumes, err := collectResumes(fs.Args())
	if err != nil {
		fail("Failed to read resumes", err)
	}

	components := initializeComponents(cfg, logger)
	defer components.Close()
	ctx, cancel := commandContext()
	defer cancel()

	var res *matcher.BatchResult
	if *jobID != "" {
		res, err = components.Matcher.MatchCandidatesForJob(ctx, *jobID, resumes, threshold)
	} else {
		res, err = components.Matcher.MatchCandidates(ctx, description, resumes, threshold)
	}
	if err != nil {
		fail("Match failed", err)
	}

	skipped := res.Skipped()
	out := make([]cli.Skipped, len(skipped))
	for i, o := range skipped {
		out[i] = cli.Skipped{Filename: o.Filename, Reason: o.Reason()}
	}
	resp := models.NewCandidateMatchResponse(res.Ranking, len(skipped))
	if err := cli.WriteCandidateMatches(os.Stdout, resp, out, threshold, cli.ParseOutputFormat(*format)); err != nil {
		fail("Output failed", err)
	}
}

// readJobDescription returns text, or the text extracted from path when text is empty.
// A path of "-" reads plain text from stdin.
func readJobDescription(text, path string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" || path == "" {
		return strings.TrimSpace(text), nil
	}
	var (
		s   string
		err error
	)
	if path == "-" {
		data, rerr := io.ReadAll(stdin)
		if rerr != nil {
			return "", fmt.Errorf("read stdin: %w", rerr)
		}
		s, err = extract.NewExtractor().ExtractBytes(data, ".txt")
	} else {
		s, err = extract.NewExtractor().ExtractFile(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// collectResumes reads every path. Directories contribute their supported files,
// sorted by name, without descending into subfolders.
func collectResumes(paths []string) ([]matcher.Resume, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.Type().IsRegular() && extract.IsSupported(e.Name()) {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no resumes found in %s", strings.Join(paths, ", "))
	}

	resumes := make([]matcher.Resume, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, matcher.Resume{Filename: filepath.Base(f), Content: content})
	}
	return resumes, nil
}
