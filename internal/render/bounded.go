// Package render produces the bounded, human-scannable views of a graph.
package render

import (
	"github.com/DeusData/codebase-roadmap/internal/entrypoint"
	"github.com/DeusData/codebase-roadmap/internal/graph"
)

// Pair is one rendered (src, dst) connection. Several edge kinds between the
// same two ids collapse into a single Pair.
type Pair struct {
	Src string
	Dst string
}

type queueItem struct {
	id  string
	hop int
}

// Bounded walks the graph breadth-first from its entrypoints and returns at
// most maxEdges pairs in discovery order. Nodes at maxDepth hops from their
// nearest seed are not expanded. Each node is enqueued at most once, so cycles
// terminate. A graph without entrypoints yields nil.
func Bounded(g *graph.Graph, maxDepth, maxEdges int) []Pair {
	seeds := entrypoint.Seeds(g.EntryPoints)
	if len(seeds) == 0 || maxEdges <= 0 {
		return nil
	}
	return bfs(g.Adjacency(), seeds, maxDepth, maxEdges)
}

func bfs(adj map[string][]string, seeds []string, maxDepth, maxEdges int) []Pair {
	visitedNodes := make(map[string]bool, len(seeds))
	visitedEdges := make(map[Pair]bool)
	queue := make([]queueItem, 0, len(seeds))
	for _, s := range seeds {
		visitedNodes[s] = true
		queue = append(queue, queueItem{id: s, hop: 0})
	}

	var out []Pair
	for len(queue) > 0 && len(out) < maxEdges {
		item := queue[0]
		queue = queue[1:]
		if item.hop >= maxDepth {
			continue
		}
		for _, dst := range adj[item.id] {
			p := Pair{Src: item.id, Dst: dst}
			if visitedEdges[p] {
				continue
			}
			visitedEdges[p] = true
			out = append(out, p)
			if !visitedNodes[dst] {
				visitedNodes[dst] = true
				queue = append(queue, queueItem{id: dst, hop: item.hop + 1})
			}
			if len(out) >= maxEdges {
				break
			}
		}
	}
	return out
}
