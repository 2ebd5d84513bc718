package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/lang"
)

// maxVars keeps every batch INSERT under SQLite's default 999 bound parameters.
const maxVars = 999

// SaveGraph replaces the stored graph of project with g in one transaction.
// List order is kept through a per-row sequence number.
func (s *Store) SaveGraph(project string, g *graph.Graph, digest string) error {
	return s.WithTransaction(func(tx *Store) error {
		if err := tx.UpsertProject(&Project{
			Name:     project,
			RootPath: g.Root,
			Version:  g.Version,
			Digest:   digest,
		}); err != nil {
			return err
		}
		if err := tx.clearGraph(project); err != nil {
			return err
		}

		nodeRows := make([][]any, 0, len(g.Nodes))
		for _, n := range g.Nodes {
			nodeRows = append(nodeRows, []any{project, n.ID, string(n.Lang)})
		}
		if err := tx.insertRows("nodes", []string{"project", "id", "lang"}, nodeRows); err != nil {
			return err
		}

		edgeRows := make([][]any, 0, len(g.Edges))
		for i, e := range g.Edges {
			edgeRows = append(edgeRows, []any{project, i, e.Src, e.Dst, string(e.Type), e.Note})
		}
		if err := tx.insertRows("edges", []string{"project", "seq", "src", "dst", "type", "note"}, edgeRows); err != nil {
			return err
		}

		epRows := make([][]any, 0, len(g.EntryPoints))
		for i, ep := range g.EntryPoints {
			epRows = append(epRows, []any{project, i, ep.Node, ep.Reason, ep.Confidence})
		}
		if err := tx.insertRows("entrypoints", []string{"project", "seq", "node", "reason", "confidence"}, epRows); err != nil {
			return err
		}

		keys := make([]string, 0, len(g.Stats))
		for k := range g.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		statRows := make([][]any, 0, len(keys))
		for _, k := range keys {
			statRows = append(statRows, []any{project, k, g.Stats[k]})
		}
		return tx.insertRows("stats", []string{"project", "key", "value"}, statRows)
	})
}

func (s *Store) clearGraph(project string) error {
	for _, table := range []string{"nodes", "edges", "entrypoints", "stats"} {
		if _, err := s.q.Exec("DELETE FROM "+table+" WHERE project=?", project); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// insertRows writes rows with multi-value INSERTs, chunked so no statement
// exceeds maxVars parameters.
func (s *Store) insertRows(table string, cols []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	chunk := maxVars / len(cols)
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	prefix := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES "

	for i := 0; i < len(rows); i += chunk {
		end := min(i+chunk, len(rows))
		var sb strings.Builder
		sb.WriteString(prefix)
		args := make([]any, 0, (end-i)*len(cols))
		for j, row := range rows[i:end] {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(placeholder)
			args = append(args, row...)
		}
		if _, err := s.q.Exec(sb.String(), args...); err != nil {
			return fmt.Errorf("insert %s batch: %w", table, err)
		}
	}
	return nil
}

// LoadGraph reads back the graph stored for project. The result equals the
// graph passed to SaveGraph.
func (s *Store) LoadGraph(project string) (*graph.Graph, error) {
	p, err := s.GetProject(project)
	if err != nil {
		return nil, err
	}
	g := &graph.Graph{
		Version:     p.Version,
		Root:        p.RootPath,
		Nodes:       []graph.Node{},
		Edges:       []graph.Edge{},
		EntryPoints: []graph.EntryPoint{},
		Stats:       map[string]int{},
	}

	if g.Nodes, err = s.loadNodes(project); err != nil {
		return nil, err
	}
	if g.Edges, err = s.queryEdges("SELECT src, dst, type, note FROM edges WHERE project=? ORDER BY seq", project); err != nil {
		return nil, err
	}
	if g.EntryPoints, err = s.LoadEntryPoints(project); err != nil {
		return nil, err
	}
	if err := s.loadStats(project, g.Stats); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) loadNodes(project string) ([]graph.Node, error) {
	rows, err := s.q.Query("SELECT id, lang FROM nodes WHERE project=? ORDER BY id", project)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	defer rows.Close()
	nodes := []graph.Node{}
	for rows.Next() {
		var id, l string
		if err := rows.Scan(&id, &l); err != nil {
			return nil, err
		}
		nodes = append(nodes, graph.Node{ID: id, Path: id, Lang: lang.Language(l)})
	}
	return nodes, rows.Err()
}

func (s *Store) queryEdges(query string, args ...any) ([]graph.Edge, error) {
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()
	edges := []graph.Edge{}
	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.Src, &e.Dst, &kind, &e.Note); err != nil {
			return nil, err
		}
		e.Type = graph.EdgeKind(kind)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// LoadEntryPoints returns the stored entrypoints of project in graph order.
func (s *Store) LoadEntryPoints(project string) ([]graph.EntryPoint, error) {
	rows, err := s.q.Query("SELECT node, reason, confidence FROM entrypoints WHERE project=? ORDER BY seq", project)
	if err != nil {
		return nil, fmt.Errorf("load entrypoints: %w", err)
	}
	defer rows.Close()
	eps := []graph.EntryPoint{}
	for rows.Next() {
		var ep graph.EntryPoint
		if err := rows.Scan(&ep.Node, &ep.Reason, &ep.Confidence); err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, rows.Err()
}

func (s *Store) loadStats(project string, into map[string]int) error {
	rows, err := s.q.Query("SELECT key, value FROM stats WHERE project=?", project)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var v int
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		into[k] = v
	}
	return rows.Err()
}

// CountNodes returns the number of stored nodes for project.
func (s *Store) CountNodes(project string) (int, error) {
	var n int
	err := s.q.QueryRow("SELECT COUNT(*) FROM nodes WHERE project=?", project).Scan(&n)
	return n, err
}

// CountEdges returns the number of stored edges for project.
func (s *Store) CountEdges(project string) (int, error) {
	var n int
	err := s.q.QueryRow("SELECT COUNT(*) FROM edges WHERE project=?", project).Scan(&n)
	return n, err
}
