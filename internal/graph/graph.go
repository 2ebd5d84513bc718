// Package graph holds the roadmap data model and the assembler that turns
// discovered nodes, edges and entrypoints into one deterministic Graph.
package graph

import (
	"sort"

	"github.com/DeusData/codebase-roadmap/internal/lang"
)

// SchemaVersion is written into every serialized graph.
const SchemaVersion = 1

// SkippedOversizedKey is the counter for files above the byte ceiling.
const SkippedOversizedKey = "skipped_oversized_files"

// EdgeKind is the reference kind carried by an edge.
type EdgeKind string

const (
	KindImport     EdgeKind = "import"
	KindRequire    EdgeKind = "require"
	KindUse        EdgeKind = "use"
	KindMod        EdgeKind = "mod"
	KindInclude    EdgeKind = "include"
	KindScript     EdgeKind = "script"
	KindEntrypoint EdgeKind = "entrypoint"
)

// AllKinds returns every edge kind in declaration order.
func AllKinds() []EdgeKind {
	return []EdgeKind{KindImport, KindRequire, KindUse, KindMod, KindInclude, KindScript, KindEntrypoint}
}

// Node is one discovered file. ID and Path are both the repo-relative path.
type Node struct {
	ID   string        `json:"id"`
	Path string        `json:"path"`
	Lang lang.Language `json:"lang"`
}

// Edge is a directed reference. Dst is either a node id or a synthetic
// "<tag>:<raw>" id for an unresolved reference.
type Edge struct {
	Src  string   `json:"src"`
	Dst  string   `json:"dst"`
	Type EdgeKind `json:"type"`
	Note string   `json:"note"`
}

// EntryPoint is a node believed to start a program.
// Confidence is 1 (low) to 3 (high).
type EntryPoint struct {
	Node       string `json:"node"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

// Graph is the aggregate produced by one scan. It is never mutated after
// Assemble returns.
type Graph struct {
	Version     int            `json:"version"`
	Root        string         `json:"root"`
	Nodes       []Node         `json:"nodes"`
	Edges       []Edge         `json:"edges"`
	EntryPoints []EntryPoint   `json:"entrypoints"`
	Stats       map[string]int `json:"stats"`
}

// Assemble sorts its inputs and derives the counters from the finalized
// lists. The input slices are copied, never reordered in place.
//   - nodes by id
//   - edges by (src, dst, type, note); identical tuples are kept
//   - entrypoints deduplicated, then by (node asc, confidence desc, reason asc)
func Assemble(root string, nodes []Node, edges []Edge, eps []EntryPoint, skippedOversized int) *Graph {
	ns := append([]Node(nil), nodes...)
	sort.Slice(ns, func(i, j int) bool { return ns[i].ID < ns[j].ID })

	es := append([]Edge(nil), edges...)
	SortEdges(es)

	g := &Graph{
		Version:     SchemaVersion,
		Root:        root,
		Nodes:       nonNilNodes(ns),
		Edges:       nonNilEdges(es),
		EntryPoints: SortEntryPoints(eps),
	}
	g.Stats = countStats(g.Nodes, g.Edges, skippedOversized)
	return g
}

// SortEdges orders edges by (src, dst, type, note) in place.
func SortEdges(es []Edge) {
	sort.SliceStable(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if a.Src != b.Src {
			return a.Src < b.Src
		}
		if a.Dst != b.Dst {
			return a.Dst < b.Dst
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Note < b.Note
	})
}

// SortEntryPoints drops exact (node, reason, confidence) duplicates and
// returns a new slice sorted by node ascending, confidence descending,
// reason ascending.
func SortEntryPoints(eps []EntryPoint) []EntryPoint {
	seen := make(map[EntryPoint]bool, len(eps))
	out := make([]EntryPoint, 0, len(eps))
	for _, ep := range eps {
		if seen[ep] {
			continue
		}
		seen[ep] = true
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Reason < b.Reason
	})
	return out
}

// countStats is computed once from the final lists; nothing increments
// counters during traversal.
func countStats(nodes []Node, edges []Edge, skippedOversized int) map[string]int {
	stats := map[string]int{SkippedOversizedKey: skippedOversized}
	for _, n := range nodes {
		stats["nodes_"+string(n.Lang)]++
	}
	for _, e := range edges {
		stats["edges_"+string(e.Type)]++
	}
	return stats
}

func nonNilNodes(ns []Node) []Node {
	if ns == nil {
		return []Node{}
	}
	return ns
}

func nonNilEdges(es []Edge) []Edge {
	if es == nil {
		return []Edge{}
	}
	return es
}

// SyntheticID builds the destination id for an unresolved reference. If the
// plain "<tag>:<raw>" form collides with a real node id, the separator is
// widened until it does not.
func SyntheticID(tag, raw string, isNode func(string) bool) string {
	sep := ":"
	for {
		id := tag + sep + raw
		if isNode == nil || !isNode(id) {
			return id
		}
		sep += ":"
	}
}

// NodeSet returns the set of node ids.
func (g *Graph) NodeSet() map[string]bool {
	set := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		set[n.ID] = true
	}
	return set
}

// Adjacency groups edge destinations by source, keeping edge order.
func (g *Graph) Adjacency() map[string][]string {
	adj := make(map[string][]string)
	for _, e := range g.Edges {
		adj[e.Src] = append(adj[e.Src], e.Dst)
	}
	return adj
}

// Languages returns the distinct language tags observed, sorted.
func (g *Graph) Languages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range g.Nodes {
		l := string(n.Lang)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// ResolvedCounts splits edges into those whose destination is a node and
// those pointing at synthetic ids.
func (g *Graph) ResolvedCounts() (resolved, external int) {
	nodes := g.NodeSet()
	for _, e := range g.Edges {
		if nodes[e.Dst] {
			resolved++
		} else {
			external++
		}
	}
	return resolved, external
}
