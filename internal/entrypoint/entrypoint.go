// Package entrypoint flags nodes that look like program starting points.
// Detection reads node ids only, never the filesystem, so it reflects exactly
// what the walker accepted.
package entrypoint

import (
	"path"

	"github.com/DeusData/codebase-roadmap/internal/graph"
)

const (
	ReasonPackageExecution = "package execution entry"
	ReasonBinary           = "binary entry"
	ReasonNodeManifest     = "package manifest scripts"
	ReasonPythonManifest   = "project manifest (scripts likely)"
	ReasonHint             = "likely CLI/module entry"
)

const (
	NodeManifest   = "package.json"
	PythonManifest = "pyproject.toml"
)

// Rule matches one path shape. Match receives the slash-separated node id.
type Rule struct {
	Reason     string
	Confidence int
	Match      func(id string) bool
}

// hints are conventional CLI/module entry files, matched on the full id.
var hints = map[string]bool{
	"main.py":       true,
	"app.py":        true,
	"manage.py":     true,
	"cli.py":        true,
	"wsgi.py":       true,
	"asgi.py":       true,
	"src/main.py":   true,
	"src/cli.py":    true,
	"src/app.py":    true,
	"index.js":      true,
	"server.js":     true,
	"src/index.js":  true,
	"src/index.ts":  true,
	"src/main.ts":   true,
	"src/main.tsx":  true,
	"src/lib.rs":    true,
	"src/server.js": true,
}

// Rules is the detection table, highest confidence first.
var Rules = []Rule{
	{ReasonPackageExecution, 3, baseIs("__main__.py")},
	{ReasonBinary, 3, baseIs("main.rs")},
	{ReasonNodeManifest, 2, idIs(NodeManifest)},
	{ReasonPythonManifest, 1, idIs(PythonManifest)},
	{ReasonHint, 1, func(id string) bool { return hints[id] }},
}

func baseIs(name string) func(string) bool {
	return func(id string) bool { return path.Base(id) == name }
}

func idIs(name string) func(string) bool {
	return func(id string) bool { return id == name }
}

// Detect applies every rule to every node. A node may match several rules.
// The result is deduplicated and sorted by node, confidence descending, then
// reason.
func Detect(nodes []graph.Node) []graph.EntryPoint {
	var eps []graph.EntryPoint
	for _, n := range nodes {
		for _, r := range Rules {
			if r.Match(n.ID) {
				eps = append(eps, graph.EntryPoint{Node: n.ID, Reason: r.Reason, Confidence: r.Confidence})
			}
		}
	}
	return graph.SortEntryPoints(eps)
}

// Seeds returns the distinct entrypoint nodes in list order.
func Seeds(eps []graph.EntryPoint) []string {
	seen := make(map[string]bool, len(eps))
	var out []string
	for _, ep := range eps {
		if seen[ep.Node] {
			continue
		}
		seen[ep.Node] = true
		out = append(out, ep.Node)
	}
	return out
}
