package pipeline

import (
	"encoding/json"
	"log/slog"
	"path"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/parser"
	"github.com/DeusData/codebase-roadmap/internal/resolve"
)

// Manifest links are hints: a script or console entry only produces an edge
// when it points at a file the walker accepted. Nothing synthetic is created.

type packageManifest struct {
	Scripts map[string]string `json:"scripts"`
}

// packageScriptEdges links package.json to in-repo files named by its
// scripts, e.g. "node scripts/build.js" or "tsx ./src/cli.ts".
func packageScriptEdges(src string, source []byte, nodeSet map[string]bool) []graph.Edge {
	var m packageManifest
	if err := json.Unmarshal(source, &m); err != nil {
		slog.Debug("manifest.parse.skip", "path", src, "err", err)
		return nil
	}

	names := make([]string, 0, len(m.Scripts))
	for name := range m.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	var edges []graph.Edge
	for _, name := range names {
		seen := make(map[string]bool)
		for _, tok := range strings.Fields(m.Scripts[name]) {
			target := scriptTarget(tok)
			if target == "" || target == src || seen[target] || !nodeSet[target] {
				continue
			}
			seen[target] = true
			edges = append(edges, graph.Edge{Src: src, Dst: target, Type: graph.KindScript, Note: name})
		}
	}
	return edges
}

// scriptTarget normalizes one command token into a candidate node id.
func scriptTarget(tok string) string {
	if i := strings.LastIndexByte(tok, '='); i >= 0 {
		tok = tok[i+1:]
	}
	tok = strings.Trim(tok, `"'`)
	if tok == "" || strings.HasPrefix(tok, "-") || strings.HasPrefix(tok, "/") {
		return ""
	}
	tok = path.Clean(tok)
	if tok == "." || strings.HasPrefix(tok, "../") {
		return ""
	}
	return tok
}

// scriptSections are the pyproject tables whose values are console entries.
var scriptSections = map[string]bool{
	"project.scripts":     true,
	"project.gui-scripts": true,
	"tool.poetry.scripts": true,
}

// consoleScript is one `name = "pkg.module:func"` entry.
type consoleScript struct {
	name   string
	target string
}

// pyprojectScriptEdges links pyproject.toml to the modules its console
// scripts call, resolved like absolute Python imports. A partly broken
// manifest still yields the entries tree-sitter recovered.
func pyprojectScriptEdges(src string, source []byte, r *resolve.Resolver) []graph.Edge {
	tree, err := parser.Parse(parser.TOML, source)
	if err != nil {
		slog.Debug("manifest.parse.skip", "path", src, "err", err)
		return nil
	}
	defer tree.Close()

	var edges []graph.Edge
	for _, cs := range consoleScripts(tree.RootNode(), source) {
		module, _, _ := strings.Cut(cs.target, ":")
		module = strings.TrimSpace(module)
		if dst, ok := r.ResolveModule(module, 0, src); ok {
			edges = append(edges, graph.Edge{Src: src, Dst: dst, Type: graph.KindEntrypoint, Note: cs.name})
		}
	}
	return edges
}

// consoleScripts collects script entries in document order. All TOML
// spellings of the same key path are equivalent:
//
//	[project.scripts]        demo = "demo.cli:main"
//	[project]                scripts = { demo = "demo.cli:main" }
//	[project]                scripts.demo = "demo.cli:main"
func consoleScripts(root *tree_sitter.Node, source []byte) []consoleScript {
	var out []consoleScript
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "pair":
			out = collectPair(out, nil, child, source)
		case "table":
			var prefix []string
			for j := uint(0); j < child.NamedChildCount(); j++ {
				n := child.NamedChild(j)
				if n == nil {
					continue
				}
				if n.Kind() == "pair" {
					out = collectPair(out, prefix, n, source)
				} else if prefix == nil && isKey(n) {
					prefix = keyPath(n, source)
				}
			}
		}
	}
	return out
}

// collectPair appends the entry of one key/value pair under prefix,
// descending into inline tables.
func collectPair(out []consoleScript, prefix []string, pair *tree_sitter.Node, source []byte) []consoleScript {
	// Comments are extras and may sit inside the pair after its value.
	var key, value *tree_sitter.Node
	for i := uint(0); i < pair.NamedChildCount(); i++ {
		child := pair.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		if key == nil {
			key = child
		} else {
			value = child
		}
	}
	if key == nil || value == nil || !isKey(key) {
		return out
	}
	full := append(append([]string(nil), prefix...), keyPath(key, source)...)

	switch value.Kind() {
	case "inline_table":
		for i := uint(0); i < value.NamedChildCount(); i++ {
			if child := value.NamedChild(i); child != nil && child.Kind() == "pair" {
				out = collectPair(out, full, child, source)
			}
		}
	case "string":
		if len(full) < 2 || !scriptSections[strings.Join(full[:len(full)-1], ".")] {
			return out
		}
		out = append(out, consoleScript{
			name:   full[len(full)-1],
			target: unquoteTOML(parser.NodeText(value, source)),
		})
	}
	return out
}

func isKey(n *tree_sitter.Node) bool {
	switch n.Kind() {
	case "bare_key", "quoted_key", "dotted_key":
		return true
	}
	return false
}

// keyPath flattens a bare, quoted or dotted key into its segments.
func keyPath(n *tree_sitter.Node, source []byte) []string {
	if n.Kind() != "dotted_key" {
		return []string{unquoteTOML(parser.NodeText(n, source))}
	}
	var parts []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child != nil && isKey(child) {
			parts = append(parts, keyPath(child, source)...)
		}
	}
	return parts
}

// unquoteTOML strips basic, literal and multi-line string delimiters.
// Escapes are left alone; module paths never contain them.
func unquoteTOML(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
