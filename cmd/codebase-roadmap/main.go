package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/codebase-roadmap/internal/config"
	"github.com/DeusData/codebase-roadmap/internal/pipeline"
	"github.com/DeusData/codebase-roadmap/internal/step"
	"github.com/DeusData/codebase-roadmap/internal/store"
	"github.com/DeusData/codebase-roadmap/internal/tools"
	"github.com/DeusData/codebase-roadmap/internal/watcher"
)

var version = "dev"

const usage = `usage:
  codebase-roadmap [mcp] [--watch=false]  serve the MCP tools over stdio
  codebase-roadmap scan [flags] <root>... write meta/70_roadmap.{json,md} and meta/71_roadmap_summary.json
  codebase-roadmap --version
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return runMCP(ctx, nil, stderr)
	}
	switch args[0] {
	case "--version", "version":
		fmt.Fprintln(stdout, "codebase-roadmap", version)
		return 0
	case "mcp":
		return runMCP(ctx, args[1:], stderr)
	case "scan":
		return runScan(ctx, args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
}

func runMCP(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	watch := fs.Bool("watch", true, "rebuild stored roadmaps when their source tree changes")
	logLevel := fs.String("log-level", envOr("ROADMAP_LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	// stdout carries the protocol, so logs always go to stderr.
	slog.SetDefault(newLogger(*logLevel, "text", stderr))

	s, err := store.Open()
	if err != nil {
		fmt.Fprintf(stderr, "store open err=%v\n", err)
		return 1
	}
	defer s.Close()

	srv := tools.NewServer(s, version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if *watch {
		go watcher.New(s, srv.Rebuild).Run(ctx)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "server err=%v\n", err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type scanFlags struct {
	workdir   string
	include   string
	logLevel  string
	logFormat string
	save      bool
	parallel  int
}

func runScan(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f scanFlags
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.workdir, "workdir", "", "artifact directory (default: each root; one subdirectory per root when several roots are given)")
	fs.StringVar(&f.include, "include", "", "comma-separated include roots, relative to each root")
	fs.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "text", "log format: text or json")
	fs.BoolVar(&f.save, "save", false, "also store each roadmap in the local database used by the MCP server")
	fs.IntVar(&f.parallel, "parallel", runtime.NumCPU(), "roots scanned concurrently")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	roots := fs.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

	slog.SetDefault(newLogger(f.logLevel, f.logFormat, stderr))

	runs := make([]*rootRun, len(roots))
	g := new(errgroup.Group)
	g.SetLimit(max(f.parallel, 1))
	for i, root := range roots {
		g.Go(func() error {
			runs[i] = scanRoot(ctx, root, f, len(roots) > 1)
			return nil
		})
	}
	_ = g.Wait()

	code := 0
	for _, r := range runs {
		for _, res := range r.results {
			fmt.Fprintf(stdout, "%s\t%s\t%s\t%ds\t%s\n", r.root, res.Status, res.Name, res.Seconds, res.Note)
			if res.Status != step.StatusPass {
				code = 1
			}
		}
	}

	if f.save {
		if err := saveRuns(runs); err != nil {
			fmt.Fprintf(stderr, "save err=%v\n", err)
			return 1
		}
	}
	return code
}

// rootRun is the outcome of scanning one root.
type rootRun struct {
	root    string
	results []step.Result
	roadmap *step.RoadmapStep
	policy  *config.Config
}

func scanRoot(ctx context.Context, root string, f scanFlags, multi bool) *rootRun {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	policy := config.LoadConfig(abs)
	policy.ApplyEnv()

	workdir := f.workdir
	switch {
	case workdir == "":
		workdir = abs
	case multi:
		workdir = filepath.Join(workdir, pipeline.ProjectNameFromPath(abs))
	}

	rs := &step.RoadmapStep{Include: splitList(f.include)}
	sc := &step.Context{Root: abs, Workdir: workdir, Config: policy}
	return &rootRun{
		root:    abs,
		results: step.RunAll(ctx, sc, rs),
		roadmap: rs,
		policy:  policy,
	}
}

// saveRuns stores every successful roadmap. Writes are sequential so
// concurrent scans never contend for the database.
func saveRuns(runs []*rootRun) error {
	s, err := store.Open()
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}
	defer s.Close()

	for _, r := range runs {
		g := r.roadmap.Graph
		if g == nil {
			continue
		}
		summary, err := pipeline.Summarize(g, r.policy.EffectiveSummaryEntrypoints())
		if err != nil {
			return err
		}
		project := pipeline.ProjectNameFromPath(r.root)
		if err := s.SaveGraph(project, g, summary.GraphDigest); err != nil {
			return fmt.Errorf("save %s: %w", project, err)
		}
		slog.Info("scan.saved", "project", project, "db", s.Path())
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// newLogger builds a leveled slog logger writing text or JSON to w.
func newLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
