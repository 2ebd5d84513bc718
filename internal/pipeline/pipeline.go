// Package pipeline runs one roadmap scan: walk, classify, extract, resolve,
// detect entrypoints and assemble. A scan is a single sequential pass with no
// shared state, so independent roots can be scanned concurrently by callers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DeusData/codebase-roadmap/internal/config"
	"github.com/DeusData/codebase-roadmap/internal/discover"
	"github.com/DeusData/codebase-roadmap/internal/entrypoint"
	"github.com/DeusData/codebase-roadmap/internal/extract"
	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/lang"
	"github.com/DeusData/codebase-roadmap/internal/resolve"
)

// ErrRootNotFound is returned when the scan root is missing or not a
// directory. It is the only fatal scan error.
var ErrRootNotFound = discover.ErrRootNotFound

// Options configures a scan.
type Options struct {
	// Config supplies ceilings and exclusions. Nil means defaults.
	Config *config.Config

	// Include is an explicit include-root override (absolute or relative to
	// the root). Missing entries are dropped; if none remain the root is
	// walked. Empty means the configured include-dir candidates.
	Include []string
}

// ProjectNameFromPath derives a unique project name from an absolute path
// by replacing path separators with dashes and trimming the leading dash.
func ProjectNameFromPath(absPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(absPath))
	name := strings.ReplaceAll(cleaned, "/", "-")
	name = strings.TrimLeft(name, "-")
	if name == "" {
		return "root"
	}
	return name
}

// Build scans root and returns the assembled graph. Per-file problems only
// remove data; the error is non-nil only when root is unusable or ctx is
// cancelled, and then no graph is returned.
func Build(ctx context.Context, root string, opts Options) (*graph.Graph, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	start := time.Now()
	slog.Info("roadmap.start", "root", absRoot)

	var includeRoots []string
	if len(opts.Include) > 0 {
		includeRoots = config.ExplicitIncludeDirs(absRoot, opts.Include)
	} else {
		includeRoots = cfg.IncludeDirCandidates(absRoot)
	}

	walk, err := discover.Discover(ctx, absRoot, &discover.Options{
		IncludeRoots:    includeRoots,
		ExcludeDirs:     cfg.ExcludeDirSet(),
		ExcludePatterns: cfg.AllExcludePatterns(),
		MaxFiles:        cfg.EffectiveMaxFiles(),
		MaxFileBytes:    cfg.EffectiveMaxFileBytes(),
		DetectVenvs:     cfg.EffectiveDetectVenvs(),
		RootFiles:       true,
	})
	if err != nil {
		if errors.Is(err, ErrRootNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("discover: %w", err)
	}
	slog.Info("roadmap.discovered",
		"files", len(walk.Files),
		"skipped_oversized", walk.SkippedOversized,
		"truncated", walk.Truncated)

	nodes := make([]graph.Node, 0, len(walk.Files))
	nodeSet := make(map[string]bool, len(walk.Files))
	for _, f := range walk.Files {
		nodes = append(nodes, graph.Node{ID: f.RelPath, Path: f.RelPath, Lang: f.Language})
		nodeSet[f.RelPath] = true
	}

	s := &scan{
		nodeSet:  nodeSet,
		resolver: resolve.New(nodeSet),
	}
	for _, f := range walk.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.scanFile(f)
	}

	g := graph.Assemble(absRoot, nodes, s.edges, entrypoint.Detect(nodes), walk.SkippedOversized)
	slog.Info("roadmap.done",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"entrypoints", len(g.EntryPoints),
		"elapsed", time.Since(start))
	return g, nil
}

// scan accumulates edges for one Build call.
type scan struct {
	nodeSet  map[string]bool
	resolver *resolve.Resolver
	edges    []graph.Edge
}

func (s *scan) isNode(id string) bool { return s.nodeSet[id] }

// scanFile reads f once and turns its references into edges.
func (s *scan) scanFile(f discover.FileInfo) {
	if !lang.ReadsContent(f.Language) {
		return
	}
	ex := extract.For(f.Language)
	if ex == nil {
		return
	}
	source, err := os.ReadFile(f.Path)
	if err != nil {
		slog.Debug("roadmap.read.skip", "path", f.RelPath, "err", err)
		return
	}

	for _, ref := range ex.Extract(source) {
		s.edges = append(s.edges, s.edgeFor(f.RelPath, ref))
	}

	switch f.RelPath {
	case entrypoint.NodeManifest:
		s.edges = append(s.edges, packageScriptEdges(f.RelPath, source, s.nodeSet)...)
	case entrypoint.PythonManifest:
		s.edges = append(s.edges, pyprojectScriptEdges(f.RelPath, source, s.resolver)...)
	}
}

// edgeFor resolves ref or falls back to a synthetic destination. Resolved
// edges keep the raw reference as their note.
func (s *scan) edgeFor(src string, ref extract.Reference) graph.Edge {
	if dst, ok := s.resolver.Resolve(ref, src); ok {
		return graph.Edge{Src: src, Dst: dst, Type: ref.Kind, Note: ref.Raw}
	}
	return graph.Edge{
		Src:  src,
		Dst:  graph.SyntheticID(ref.Tag, ref.Raw, s.isNode),
		Type: ref.Kind,
	}
}
