package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type projectInfo struct {
	Name        string `json:"name"`
	RootPath    string `json:"root_path"`
	IndexedAt   string `json:"indexed_at"`
	GraphDigest string `json:"graph_digest"`
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
}

func (s *Server) handleListProjects(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.store.ListProjects()
	if err != nil {
		return errResult(fmt.Sprintf("list projects: %v", err)), nil
	}

	result := make([]projectInfo, 0, len(projects))
	for _, p := range projects {
		info := projectInfo{
			Name:        p.Name,
			RootPath:    p.RootPath,
			IndexedAt:   p.IndexedAt,
			GraphDigest: p.Digest,
		}
		if info.Nodes, err = s.store.CountNodes(p.Name); err != nil {
			slog.Warn("list_projects.count", "project", p.Name, "err", err)
		}
		if info.Edges, err = s.store.CountEdges(p.Name); err != nil {
			slog.Warn("list_projects.count", "project", p.Name, "err", err)
		}
		result = append(result, info)
	}

	return jsonResult(result), nil
}

func (s *Server) handleDeleteProject(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	name := getStringArg(args, "project_name")
	if name == "" {
		return errResult("project_name is required"), nil
	}

	deleted, err := s.store.DeleteProject(name)
	if err != nil {
		return errResult(fmt.Sprintf("delete project: %v", err)), nil
	}
	if !deleted {
		return errResult(fmt.Sprintf("project not found: %s", name)), nil
	}
	slog.Info("tool.delete", "project", name)

	return jsonResult(map[string]any{
		"deleted": name,
		"status":  "ok",
	}), nil
}
