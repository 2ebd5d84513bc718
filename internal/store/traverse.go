package store

import (
	"fmt"

	"github.com/DeusData/codebase-roadmap/internal/graph"
)

// Direction selects which side of an edge a traversal follows.
type Direction string

const (
	Outbound Direction = "outbound" // src -> dst: what a file references
	Inbound  Direction = "inbound"  // dst -> src: what references a file
)

// TraverseResult holds BFS traversal results.
type TraverseResult struct {
	Root    string       `json:"root"`
	Visited []NodeHop    `json:"visited"`
	Edges   []graph.Edge `json:"edges"`
}

// NodeHop is an id (node or synthetic) with its BFS hop distance.
type NodeHop struct {
	ID  string `json:"id"`
	Hop int    `json:"hop"`
}

type bfsQueue struct {
	id  string
	hop int
}

// fetchEdges retrieves the stored edges touching id in the given direction.
func (s *Store) fetchEdges(project, id string, direction Direction) ([]graph.Edge, error) {
	col := "src"
	if direction == Inbound {
		col = "dst"
	}
	return s.queryEdges("SELECT src, dst, type, note FROM edges WHERE project=? AND "+col+"=? ORDER BY seq", project, id)
}

// BFS performs breadth-first traversal over a stored graph.
// maxDepth caps the BFS depth, maxResults caps total visited ids.
func (s *Store) BFS(project, start string, direction Direction, maxDepth, maxResults int) (*TraverseResult, error) {
	if direction != Outbound && direction != Inbound {
		return nil, fmt.Errorf("invalid direction %q", direction)
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxResults <= 0 {
		maxResults = 200
	}

	result := &TraverseResult{Root: start, Visited: []NodeHop{}, Edges: []graph.Edge{}}
	visited := map[string]bool{start: true}
	queue := []bfsQueue{{start, 0}}

	for len(queue) > 0 && len(result.Visited) < maxResults {
		item := queue[0]
		queue = queue[1:]

		if item.hop >= maxDepth {
			continue
		}

		edges, err := s.fetchEdges(project, item.id, direction)
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			next := e.Dst
			if direction == Inbound {
				next = e.Src
			}
			result.Edges = append(result.Edges, e)

			if visited[next] {
				continue
			}
			visited[next] = true
			result.Visited = append(result.Visited, NodeHop{ID: next, Hop: item.hop + 1})
			queue = append(queue, bfsQueue{next, item.hop + 1})

			if len(result.Visited) >= maxResults {
				break
			}
		}
	}

	return result, nil
}
