package pipeline

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/codebase-roadmap/internal/graph"
)

// Summary is the small derived document for downstream consumers.
type Summary struct {
	Languages     []string       `json:"languages"`
	EntryPoints   []string       `json:"entrypoints"`
	Stats         map[string]int `json:"stats"`
	ResolvedEdges int            `json:"resolved_edges"`
	ExternalEdges int            `json:"external_edges"`
	GraphDigest   string         `json:"graph_digest"`
}

// MarshalGraph serializes g as 2-space indented JSON with a trailing newline.
// Equal graphs always produce identical bytes.
func MarshalGraph(g *graph.Graph) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal graph: %w", err)
	}
	return append(data, '\n'), nil
}

// Digest returns the hex xxh3-128 hash of data.
func Digest(data []byte) string {
	h := xxh3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Summarize derives the summary from g. At most maxEntrypoints entrypoint
// nodes are listed, in the graph's order (0 = all).
func Summarize(g *graph.Graph, maxEntrypoints int) (*Summary, error) {
	data, err := MarshalGraph(g)
	if err != nil {
		return nil, err
	}

	eps := g.EntryPoints
	if maxEntrypoints > 0 && len(eps) > maxEntrypoints {
		eps = eps[:maxEntrypoints]
	}
	nodes := make([]string, 0, len(eps))
	for _, ep := range eps {
		nodes = append(nodes, ep.Node)
	}

	langs := g.Languages()
	if langs == nil {
		langs = []string{}
	}
	resolved, external := g.ResolvedCounts()

	return &Summary{
		Languages:     langs,
		EntryPoints:   nodes,
		Stats:         g.Stats,
		ResolvedEdges: resolved,
		ExternalEdges: external,
		GraphDigest:   Digest(data),
	}, nil
}
