package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-roadmap/internal/config"
	"github.com/DeusData/codebase-roadmap/internal/render"
)

// roadmapURIPrefix addresses the Markdown view of a stored project.
const roadmapURIPrefix = "roadmap://projects/"

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: roadmapURIPrefix + "{project}",
		Name:        "Project Roadmap",
		Description: "Markdown roadmap (entrypoints, bounded mermaid map, stats) of a stored project",
		MIMEType:    "text/markdown",
	}, s.readRoadmapResource)
}

func (s *Server) readRoadmapResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	project := strings.TrimPrefix(uri, roadmapURIPrefix)
	if project == uri || project == "" {
		return nil, fmt.Errorf("unknown roadmap resource: %q", uri)
	}

	g, err := s.store.LoadGraph(project)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	cfg := config.LoadConfig(g.Root)
	cfg.ApplyEnv()
	md := render.Markdown(g, render.Options{
		Depth:          cfg.EffectiveRenderDepth(),
		MaxEdges:       cfg.EffectiveRenderMaxEdges(),
		MaxEntrypoints: cfg.EffectiveSummaryEntrypoints(),
	})

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "text/markdown",
				Text:     md,
			},
		},
	}, nil
}
