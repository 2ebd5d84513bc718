package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DeusData/codebase-roadmap/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store *store.Store
	buildMu sync.Mutex
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store, version string) *Server {
	srv := &Server{
		store: s,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codebase-roadmap",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	srv.registerResources()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	// 1. build_roadmap
	s.mcp.AddTool(&mcp.Tool{
		Name:        "build_roadmap",
		Description: "Scan a repository and store its dependency roadmap: one node per source file, import/require/use/mod edges (Python imports resolved to files, everything else kept as language-tagged references), detected entrypoints and counters. Re-running replaces the stored roadmap.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"repo_path": {
					"type": "string",
					"description": "Absolute path to the repository root"
				},
				"include": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Directories to walk, relative to the root. Defaults to the configured candidates (src, tests, app, web, ...) or the root itself."
				}
			},
			"required": ["repo_path"]
		}`),
	}, s.handleBuildRoadmap)

	// 2. get_roadmap
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_roadmap",
		Description: "Return a stored roadmap as the full JSON graph, the Markdown view with a bounded mermaid diagram, or the short summary.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name as returned by build_roadmap or list_projects"
				},
				"format": {
					"type": "string",
					"description": "Output format (default summary)",
					"enum": ["json", "markdown", "summary"]
				},
				"depth": {
					"type": "integer",
					"description": "Diagram depth from the entrypoints (markdown only, default 2)"
				},
				"max_edges": {
					"type": "integer",
					"description": "Diagram edge cap (markdown only, default 180)"
				}
			},
			"required": ["project"]
		}`),
	}, s.handleGetRoadmap)

	// 3. list_entrypoints
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_entrypoints",
		Description: "List the detected entrypoints of a stored roadmap with reason and confidence (3 high, 1 low).",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name"
				},
				"min_confidence": {
					"type": "integer",
					"description": "Only entrypoints at or above this confidence (1-3, default 1)"
				}
			},
			"required": ["project"]
		}`),
	}, s.handleListEntrypoints)

	// 4. trace_references
	s.mcp.AddTool(&mcp.Tool{
		Name:        "trace_references",
		Description: "Breadth-first walk over a stored roadmap from one file: what it references (outbound) or what references it (inbound), hop by hop.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name"
				},
				"node": {
					"type": "string",
					"description": "Repo-relative file path (or a synthetic id such as py:requests for inbound)"
				},
				"direction": {
					"type": "string",
					"description": "Traversal direction (default outbound)",
					"enum": ["outbound", "inbound"]
				},
				"depth": {
					"type": "integer",
					"description": "Maximum BFS depth (1-5, default 3)"
				},
				"max_results": {
					"type": "integer",
					"description": "Maximum visited ids (default 200)"
				}
			},
			"required": ["project", "node"]
		}`),
	}, s.handleTraceReferences)

	// 5. list_projects
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_projects",
		Description: "List all stored roadmaps with their root path, build time, digest and node/edge counts.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListProjects)

	// 6. delete_project
	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_project",
		Description: "Delete a stored roadmap and all its rows. This action is irreversible.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project_name": {
					"type": "string",
					"description": "Name of the project to delete"
				}
			},
			"required": ["project_name"]
		}`),
	}, s.handleDeleteProject)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return textResult(string(b))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}

// getStringSliceArg extracts a string array argument, skipping non-strings.
func getStringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
