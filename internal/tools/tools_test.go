package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/pipeline"
	"github.com/DeusData/codebase-roadmap/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewServer(st, "test")
}

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func callReq(t *testing.T, args any) *mcp.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: raw}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want *mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(t, res)), &v); err != nil {
		t.Fatalf("decode: %v\n%s", err, resultText(t, res))
	}
	return v
}

var sampleRepo = map[string]string{
	"main.py":         "import pkg.util\nimport requests\n",
	"pkg/__init__.py": "",
	"pkg/util.py":     "from .helpers import clean\n",
	"pkg/helpers.py":  "import os\n",
}

// buildSample builds sampleRepo and returns the server and project name.
func buildSample(t *testing.T) (*Server, string) {
	t.Helper()
	srv := newTestServer(t)
	root := writeRepo(t, sampleRepo)
	res, err := srv.handleBuildRoadmap(context.Background(), callReq(t, map[string]any{"repo_path": root}))
	if err != nil {
		t.Fatal(err)
	}
	out := decode[map[string]any](t, res)
	project, _ := out["project"].(string)
	if project == "" {
		t.Fatalf("no project in %v", out)
	}
	return srv, project
}

func TestBuildRoadmap(t *testing.T) {
	srv := newTestServer(t)
	root := writeRepo(t, sampleRepo)

	res, err := srv.handleBuildRoadmap(context.Background(), callReq(t, map[string]any{"repo_path": root}))
	if err != nil {
		t.Fatal(err)
	}
	out := decode[map[string]any](t, res)

	abs, _ := filepath.Abs(root)
	if got, want := out["project"], pipeline.ProjectNameFromPath(abs); got != want {
		t.Errorf("project = %v, want %v", got, want)
	}
	if got := out["nodes"]; got != float64(4) {
		t.Errorf("nodes = %v, want 4", got)
	}
	if digest, _ := out["graph_digest"].(string); len(digest) != 32 {
		t.Errorf("graph_digest = %q, want 32 hex chars", digest)
	}

	p, err := srv.store.GetProject(out["project"].(string))
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Digest != out["graph_digest"] {
		t.Errorf("stored digest %q != returned %q", p.Digest, out["graph_digest"])
	}
}

func TestBuildRoadmapErrors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing path", map[string]any{}, "repo_path is required"},
		{"not a directory", map[string]any{"repo_path": filepath.Join(t.TempDir(), "nope")}, "directory not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleBuildRoadmap(context.Background(), callReq(t, tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if got := resultText(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("error %q does not contain %q", got, tt.want)
			}
		})
	}
}

func TestBuildRoadmapRebuildReplaces(t *testing.T) {
	srv := newTestServer(t)
	root := writeRepo(t, sampleRepo)
	req := callReq(t, map[string]any{"repo_path": root})

	if _, err := srv.handleBuildRoadmap(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "extra.py"), []byte("import main\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := decode[map[string]any](t, mustCall(t, srv.handleBuildRoadmap, req))
	if got := out["nodes"]; got != float64(5) {
		t.Errorf("nodes after rebuild = %v, want 5", got)
	}

	projects := decode[[]projectInfo](t, mustCall(t, srv.handleListProjects, callReq(t, map[string]any{})))
	if len(projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(projects))
	}
	if projects[0].Nodes != 5 {
		t.Errorf("stored nodes = %d, want 5", projects[0].Nodes)
	}
}

func mustCall(t *testing.T, h func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error), req *mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestGetRoadmapFormats(t *testing.T) {
	srv, project := buildSample(t)

	t.Run("summary default", func(t *testing.T) {
		sum := decode[pipeline.Summary](t, mustCall(t, srv.handleGetRoadmap, callReq(t, map[string]any{"project": project})))
		if diff := cmp.Diff([]string{"python"}, sum.Languages); diff != "" {
			t.Errorf("languages (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"main.py"}, sum.EntryPoints); diff != "" {
			t.Errorf("entrypoints (-want +got):\n%s", diff)
		}
		// main->pkg/util, util->helpers resolved; requests and os external.
		if sum.ResolvedEdges != 2 || sum.ExternalEdges != 2 {
			t.Errorf("resolved=%d external=%d, want 2/2", sum.ResolvedEdges, sum.ExternalEdges)
		}
	})

	t.Run("json", func(t *testing.T) {
		res := mustCall(t, srv.handleGetRoadmap, callReq(t, map[string]any{"project": project, "format": "json"}))
		g := decode[graph.Graph](t, res)
		stored, err := srv.store.LoadGraph(project)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(stored, &g); diff != "" {
			t.Errorf("graph (-stored +returned):\n%s", diff)
		}
		p, err := srv.store.GetProject(project)
		if err != nil {
			t.Fatal(err)
		}
		if got := pipeline.Digest([]byte(resultText(t, res))); got != p.Digest {
			t.Errorf("digest of returned JSON %q != stored %q", got, p.Digest)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		res := mustCall(t, srv.handleGetRoadmap, callReq(t, map[string]any{"project": project, "format": "markdown", "depth": 1}))
		md := resultText(t, res)
		for _, want := range []string{"# Project Roadmap", "```mermaid", `"main.py" --> "pkg/util.py"`} {
			if !strings.Contains(md, want) {
				t.Errorf("markdown missing %q", want)
			}
		}
		if strings.Contains(md, `"pkg/util.py" --> "pkg/helpers.py"`) {
			t.Error("depth 1 rendered a second-hop edge")
		}
	})

	t.Run("bad format", func(t *testing.T) {
		res := mustCall(t, srv.handleGetRoadmap, callReq(t, map[string]any{"project": project, "format": "yaml"}))
		if !res.IsError {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		res := mustCall(t, srv.handleGetRoadmap, callReq(t, map[string]any{"project": "nope"}))
		if !res.IsError || !strings.Contains(resultText(t, res), "project not found") {
			t.Errorf("want project not found error, got %q", resultText(t, res))
		}
	})
}

func TestListEntrypoints(t *testing.T) {
	srv := newTestServer(t)
	root := writeRepo(t, map[string]string{
		"main.py":          "",
		"pkg/__main__.py":  "",
		"pkg/__init__.py":  "",
		"pyproject.toml":   "[project]\nname = \"x\"\n",
		"scripts/other.py": "",
	})
	out := decode[map[string]any](t, mustCall(t, srv.handleBuildRoadmap, callReq(t, map[string]any{"repo_path": root})))
	project := out["project"].(string)

	tests := []struct {
		min  int
		want []string
	}{
		{0, []string{"main.py", "pkg/__main__.py", "pyproject.toml"}},
		{2, []string{"pkg/__main__.py"}},
		{3, []string{"pkg/__main__.py"}},
	}
	for _, tt := range tests {
		res := mustCall(t, srv.handleListEntrypoints, callReq(t, map[string]any{"project": project, "min_confidence": tt.min}))
		got := decode[struct {
			EntryPoints []graph.EntryPoint `json:"entrypoints"`
		}](t, res)
		var nodes []string
		for _, ep := range got.EntryPoints {
			nodes = append(nodes, ep.Node)
		}
		if diff := cmp.Diff(tt.want, nodes); diff != "" {
			t.Errorf("min_confidence=%d (-want +got):\n%s", tt.min, diff)
		}
	}
}

func TestTraceReferences(t *testing.T) {
	srv, project := buildSample(t)

	type traceOut struct {
		Visited []store.NodeHop `json:"visited"`
	}

	out := decode[traceOut](t, mustCall(t, srv.handleTraceReferences, callReq(t, map[string]any{
		"project": project, "node": "main.py", "depth": 2,
	})))
	want := []store.NodeHop{{ID: "pkg/util.py", Hop: 1}, {ID: "py:requests", Hop: 1}, {ID: "pkg/helpers.py", Hop: 2}}
	if diff := cmp.Diff(want, out.Visited); diff != "" {
		t.Errorf("outbound (-want +got):\n%s", diff)
	}

	out = decode[traceOut](t, mustCall(t, srv.handleTraceReferences, callReq(t, map[string]any{
		"project": project, "node": "pkg/helpers.py", "direction": "inbound", "depth": 5,
	})))
	want = []store.NodeHop{{ID: "pkg/util.py", Hop: 1}, {ID: "main.py", Hop: 2}}
	if diff := cmp.Diff(want, out.Visited); diff != "" {
		t.Errorf("inbound (-want +got):\n%s", diff)
	}

	res := mustCall(t, srv.handleTraceReferences, callReq(t, map[string]any{
		"project": project, "node": "main.py", "direction": "sideways",
	}))
	if !res.IsError {
		t.Error("expected error for invalid direction")
	}

	res = mustCall(t, srv.handleTraceReferences, callReq(t, map[string]any{"project": project}))
	if !res.IsError {
		t.Error("expected error for missing node")
	}
}

func TestDeleteProject(t *testing.T) {
	srv, project := buildSample(t)

	res := mustCall(t, srv.handleDeleteProject, callReq(t, map[string]any{"project_name": project}))
	if res.IsError {
		t.Fatalf("delete failed: %s", resultText(t, res))
	}

	projects := decode[[]projectInfo](t, mustCall(t, srv.handleListProjects, callReq(t, map[string]any{})))
	if len(projects) != 0 {
		t.Errorf("projects after delete = %v, want none", projects)
	}

	res = mustCall(t, srv.handleDeleteProject, callReq(t, map[string]any{"project_name": project}))
	if !res.IsError {
		t.Error("second delete should report not found")
	}
}

func TestReadRoadmapResource(t *testing.T) {
	srv, project := buildSample(t)

	res, err := srv.readRoadmapResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: roadmapURIPrefix + project},
	})
	if err != nil {
		t.Fatalf("readRoadmapResource: %v", err)
	}
	if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, "## Entrypoints") {
		t.Errorf("unexpected contents: %+v", res.Contents)
	}

	if _, err := srv.readRoadmapResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: roadmapURIPrefix + "nope"},
	}); err == nil {
		t.Error("expected error for unknown project")
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"s":    "x",
		"n":    float64(7),
		"list": []any{"a", 3.0, "", "b"},
	}
	if got := getStringArg(args, "s"); got != "x" {
		t.Errorf("getStringArg = %q", got)
	}
	if got := getStringArg(args, "n"); got != "" {
		t.Errorf("getStringArg on number = %q", got)
	}
	if got := getIntArg(args, "n", 1); got != 7 {
		t.Errorf("getIntArg = %d", got)
	}
	if got := getIntArg(args, "missing", 3); got != 3 {
		t.Errorf("getIntArg default = %d", got)
	}
	if diff := cmp.Diff([]string{"a", "b"}, getStringSliceArg(args, "list")); diff != "" {
		t.Errorf("getStringSliceArg (-want +got):\n%s", diff)
	}

	if _, err := parseArgs(&mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{bad`)}}); err == nil {
		t.Error("parseArgs accepted invalid JSON")
	}
}

func TestRebuild(t *testing.T) {
	srv := newTestServer(t)
	root := writeRepo(t, sampleRepo)

	if err := srv.Rebuild(context.Background(), "custom", root); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	n, err := srv.store.CountNodes("custom")
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("nodes = %d, want 4", n)
	}

	err = srv.Rebuild(context.Background(), "custom", filepath.Join(root, "gone"))
	if !errors.Is(err, pipeline.ErrRootNotFound) {
		t.Errorf("Rebuild on missing root = %v, want ErrRootNotFound", err)
	}
}

func TestGetRoadmapMarkdownHonoursEnv(t *testing.T) {
	srv, project := buildSample(t)
	t.Setenv("ROADMAP_RENDER_MAX_EDGES", "0")

	md := resultText(t, mustCall(t, srv.handleGetRoadmap, callReq(t, map[string]any{"project": project, "format": "markdown"})))
	if !strings.Contains(md, "(no edges rendered)") {
		t.Errorf("edge cap from the environment ignored:\n%s", md)
	}

	// An explicit argument still wins over the environment.
	md = resultText(t, mustCall(t, srv.handleGetRoadmap, callReq(t, map[string]any{"project": project, "format": "markdown", "max_edges": 5})))
	if !strings.Contains(md, `"main.py" --> "pkg/util.py"`) {
		t.Errorf("max_edges argument ignored:\n%s", md)
	}
}
