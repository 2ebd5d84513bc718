package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DeusData/codebase-roadmap/internal/graph"
)

const (
	placeholderNoEntrypoints = `  A["(no entrypoints)"]`
	placeholderNoEdges       = `  A["(no edges rendered)"]`
)

// Options bounds the Markdown view.
type Options struct {
	Depth          int
	MaxEdges       int
	MaxEntrypoints int
}

// Mermaid returns the body lines of a "flowchart LR" block.
func Mermaid(g *graph.Graph, depth, maxEdges int) []string {
	if len(g.EntryPoints) == 0 {
		return []string{placeholderNoEntrypoints}
	}
	pairs := Bounded(g, depth, maxEdges)
	if len(pairs) == 0 {
		return []string{placeholderNoEdges}
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("  %s --> %s", mermaidLabel(p.Src), mermaidLabel(p.Dst)))
	}
	return lines
}

// mermaidLabel quotes an id. Mermaid has no backslash escape inside quoted
// labels, so embedded quotes use the #quot; entity.
func mermaidLabel(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, "#quot;") + `"`
}

// Markdown renders entrypoints, the bounded map, counters and notes.
func Markdown(g *graph.Graph, opts Options) string {
	var b strings.Builder

	b.WriteString("# Project Roadmap\n\n")

	b.WriteString("## Entrypoints\n")
	if len(g.EntryPoints) == 0 {
		b.WriteString("- (none detected)\n")
	}
	for i, ep := range g.EntryPoints {
		if opts.MaxEntrypoints > 0 && i >= opts.MaxEntrypoints {
			fmt.Fprintf(&b, "- ... %d more\n", len(g.EntryPoints)-i)
			break
		}
		fmt.Fprintf(&b, "- `%s`: %s (confidence %d/3)\n", ep.Node, ep.Reason, ep.Confidence)
	}
	b.WriteString("\n")

	b.WriteString("## High-level map\n")
	b.WriteString("```mermaid\n")
	b.WriteString("flowchart LR\n")
	for _, line := range Mermaid(g, opts.Depth, opts.MaxEdges) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")

	b.WriteString("## Stats\n")
	keys := make([]string, 0, len(g.Stats))
	for k := range g.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- **%s**: %d\n", k, g.Stats[k])
	}
	b.WriteString("\n")

	b.WriteString("## Notes\n")
	b.WriteString("- Destinations like `py:...`, `js:...`, `rs:...`, `rsmod:...` are unresolved references; only Python imports are resolved to files.\n")
	fmt.Fprintf(&b, "- The map starts at the entrypoints and stops at depth %d or %d edges.\n", opts.Depth, opts.MaxEdges)
	b.WriteString("- Output is deterministic and meant to be readable, not a compiler-grade call graph.\n")
	return b.String()
}
