package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-roadmap/internal/config"
	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/pipeline"
	"github.com/DeusData/codebase-roadmap/internal/render"
	"github.com/DeusData/codebase-roadmap/internal/store"
)

// Output formats accepted by get_roadmap.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatSummary  = "summary"
)

func (s *Server) handleBuildRoadmap(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	repoPath := getStringArg(args, "repo_path")
	if repoPath == "" {
		return errResult("repo_path is required"), nil
	}
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}
	if info, statErr := os.Stat(absPath); statErr != nil || !info.IsDir() {
		return errResult(fmt.Sprintf("directory not found: %s", absPath)), nil
	}

	project := pipeline.ProjectNameFromPath(absPath)
	g, summary, err := s.buildAndSave(ctx, project, absPath, getStringSliceArg(args, "include"))
	if err != nil {
		return errResult(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"project":      project,
		"nodes":        len(g.Nodes),
		"edges":        len(g.Edges),
		"entrypoints":  len(g.EntryPoints),
		"graph_digest": summary.GraphDigest,
		"stats":        g.Stats,
	}), nil
}

func (s *Server) handleGetRoadmap(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project")
	if project == "" {
		return errResult("project is required"), nil
	}
	g, err := s.store.LoadGraph(project)
	if err != nil {
		return errResult(err.Error()), nil
	}
	cfg := config.LoadConfig(g.Root)
	cfg.ApplyEnv()

	format := getStringArg(args, "format")
	if format == "" {
		format = FormatSummary
	}
	switch format {
	case FormatJSON:
		data, err := pipeline.MarshalGraph(g)
		if err != nil {
			return errResult(err.Error()), nil
		}
		return textResult(string(data)), nil
	case FormatMarkdown:
		return textResult(render.Markdown(g, render.Options{
			Depth:          getIntArg(args, "depth", cfg.EffectiveRenderDepth()),
			MaxEdges:       getIntArg(args, "max_edges", cfg.EffectiveRenderMaxEdges()),
			MaxEntrypoints: cfg.EffectiveSummaryEntrypoints(),
		})), nil
	case FormatSummary:
		summary, err := pipeline.Summarize(g, cfg.EffectiveSummaryEntrypoints())
		if err != nil {
			return errResult(err.Error()), nil
		}
		return jsonResult(summary), nil
	default:
		return errResult(fmt.Sprintf("unknown format %q (want json, markdown or summary)", format)), nil
	}
}

func (s *Server) handleListEntrypoints(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project")
	if project == "" {
		return errResult("project is required"), nil
	}
	if _, err := s.store.GetProject(project); err != nil {
		return errResult(err.Error()), nil
	}
	eps, err := s.store.LoadEntryPoints(project)
	if err != nil {
		return errResult(err.Error()), nil
	}

	minConfidence := getIntArg(args, "min_confidence", 1)
	filtered := make([]graph.EntryPoint, 0, len(eps))
	for _, ep := range eps {
		if ep.Confidence >= minConfidence {
			filtered = append(filtered, ep)
		}
	}

	return jsonResult(map[string]any{
		"project":     project,
		"entrypoints": filtered,
		"total":       len(filtered),
	}), nil
}

func (s *Server) handleTraceReferences(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	project := getStringArg(args, "project")
	node := getStringArg(args, "node")
	if project == "" || node == "" {
		return errResult("project and node are required"), nil
	}
	if _, err := s.store.GetProject(project); err != nil {
		return errResult(err.Error()), nil
	}

	direction := store.Direction(getStringArg(args, "direction"))
	if direction == "" {
		direction = store.Outbound
	}
	depth := min(max(getIntArg(args, "depth", 3), 1), 5)
	maxResults := getIntArg(args, "max_results", 200)

	result, err := s.store.BFS(project, node, direction, depth, maxResults)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"project":   project,
		"root":      result.Root,
		"direction": direction,
		"visited":   result.Visited,
		"edges":     result.Edges,
	}), nil
}

// Rebuild rescans rootPath with its configured include dirs and replaces the
// stored roadmap of project.
func (s *Server) Rebuild(ctx context.Context, project, rootPath string) error {
	_, _, err := s.buildAndSave(ctx, project, rootPath, nil)
	return err
}

// buildAndSave scans absPath and stores the result under project. Builds are
// serialized so two scans never interleave their store writes.
func (s *Server) buildAndSave(ctx context.Context, project, absPath string, include []string) (*graph.Graph, *pipeline.Summary, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	cfg := config.LoadConfig(absPath)
	cfg.ApplyEnv()

	start := time.Now()
	g, err := pipeline.Build(ctx, absPath, pipeline.Options{Config: cfg, Include: include})
	if err != nil {
		if errors.Is(err, pipeline.ErrRootNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("build failed: %w", err)
	}

	summary, err := pipeline.Summarize(g, cfg.EffectiveSummaryEntrypoints())
	if err != nil {
		return nil, nil, err
	}
	if err := s.store.SaveGraph(project, g, summary.GraphDigest); err != nil {
		return nil, nil, fmt.Errorf("save failed: %w", err)
	}
	slog.Info("tool.build", "project", project, "nodes", len(g.Nodes), "edges", len(g.Edges),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return g, summary, nil
}
