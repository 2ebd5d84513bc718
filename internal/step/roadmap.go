package step

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/pipeline"
	"github.com/DeusData/codebase-roadmap/internal/render"
)

// Artifact paths, relative to the workdir.
const (
	GraphArtifact    = "meta/70_roadmap.json"
	MarkdownArtifact = "meta/70_roadmap.md"
	SummaryArtifact  = "meta/71_roadmap_summary.json"
)

// RoadmapStepName is the default step name.
const RoadmapStepName = "roadmap (project map)"

// RoadmapStep scans the root and writes the graph, its Markdown view and the
// summary.
type RoadmapStep struct {
	Name string
	// Include overrides the policy's include-dir candidates when non-empty.
	Include []string

	// Graph holds the last assembled graph after a PASS.
	Graph *graph.Graph
}

// StepName implements Step.
func (s *RoadmapStep) StepName() string {
	if s.Name == "" {
		return RoadmapStepName
	}
	return s.Name
}

// Run implements Step. A missing root is a FAIL; cancellation is a SKIP.
func (s *RoadmapStep) Run(ctx context.Context, sc *Context) Result {
	start := time.Now()
	name := s.StepName()
	policy := sc.Policy()

	g, err := pipeline.Build(ctx, sc.Root, pipeline.Options{Config: policy, Include: s.Include})
	if err != nil {
		slog.Warn("step.fail", "step", name, "err", err)
		return failOrSkip(name, start, err)
	}

	graphJSON, err := pipeline.MarshalGraph(g)
	if err != nil {
		return failOrSkip(name, start, err)
	}
	if err := writeArtifact(sc.Workdir, GraphArtifact, graphJSON); err != nil {
		return failOrSkip(name, start, err)
	}

	md := render.Markdown(g, render.Options{
		Depth:          policy.EffectiveRenderDepth(),
		MaxEdges:       policy.EffectiveRenderMaxEdges(),
		MaxEntrypoints: policy.EffectiveSummaryEntrypoints(),
	})
	if err := writeArtifact(sc.Workdir, MarkdownArtifact, []byte(md)); err != nil {
		return failOrSkip(name, start, err)
	}

	summary, err := pipeline.Summarize(g, policy.EffectiveSummaryEntrypoints())
	if err != nil {
		return failOrSkip(name, start, err)
	}
	if err := writeJSON(sc.Workdir, SummaryArtifact, summary); err != nil {
		return failOrSkip(name, start, err)
	}

	s.Graph = g
	return Result{
		Name:    name,
		Status:  StatusPass,
		Seconds: elapsedSeconds(start),
		Note:    fmt.Sprintf("nodes=%d edges=%d entrypoints=%d", len(g.Nodes), len(g.Edges), len(g.EntryPoints)),
	}
}
