package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/lang"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleGraph() *graph.Graph {
	return graph.Assemble("/repo",
		[]graph.Node{
			{ID: "app.py", Path: "app.py", Lang: lang.Python},
			{ID: "pkg/__init__.py", Path: "pkg/__init__.py", Lang: lang.Python},
			{ID: "pkg/core.py", Path: "pkg/core.py", Lang: lang.Python},
			{ID: "web/index.js", Path: "web/index.js", Lang: lang.JavaScript},
		},
		[]graph.Edge{
			{Src: "app.py", Dst: "pkg/core.py", Type: graph.KindImport, Note: "pkg.core"},
			{Src: "app.py", Dst: "py:requests", Type: graph.KindImport},
			{Src: "pkg/core.py", Dst: "pkg/__init__.py", Type: graph.KindImport, Note: "."},
			{Src: "pkg/core.py", Dst: "py:os", Type: graph.KindImport},
			{Src: "web/index.js", Dst: "js:react", Type: graph.KindImport},
			{Src: "web/index.js", Dst: "js:react", Type: graph.KindImport},
		},
		[]graph.EntryPoint{
			{Node: "app.py", Reason: "likely CLI/module entry", Confidence: 1},
		},
		3)
}

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if s.Path() != ":memory:" {
		t.Errorf("path = %q", s.Path())
	}
	s.Close()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTest(t)
	g := sampleGraph()

	if err := s.SaveGraph("repo", g, "abc"); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	got, err := s.LoadGraph("repo")
	if err != nil {
		t.Fatalf("LoadGraph: %v", err)
	}
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}

	p, err := s.GetProject("repo")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if p.Digest != "abc" || p.RootPath != "/repo" || p.Version != graph.SchemaVersion || p.IndexedAt == "" {
		t.Errorf("project = %+v", p)
	}

	nc, _ := s.CountNodes("repo")
	ec, _ := s.CountEdges("repo")
	if nc != 4 || ec != 6 {
		t.Errorf("counts nodes=%d edges=%d", nc, ec)
	}
}

func TestSaveReplacesPreviousGraph(t *testing.T) {
	s := openTest(t)
	if err := s.SaveGraph("repo", sampleGraph(), "one"); err != nil {
		t.Fatal(err)
	}
	small := graph.Assemble("/repo", []graph.Node{{ID: "a.py", Path: "a.py", Lang: lang.Python}}, nil, nil, 0)
	if err := s.SaveGraph("repo", small, "two"); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadGraph("repo")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(small, got); diff != "" {
		t.Errorf("replace mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLargeGraphBatches(t *testing.T) {
	s := openTest(t)
	var nodes []graph.Node
	var edges []graph.Edge
	for i := 0; i < 700; i++ {
		id := fmt.Sprintf("m%04d.py", i)
		nodes = append(nodes, graph.Node{ID: id, Path: id, Lang: lang.Python})
		edges = append(edges, graph.Edge{Src: id, Dst: "py:os", Type: graph.KindImport})
	}
	g := graph.Assemble("/big", nodes, edges, nil, 0)
	if err := s.SaveGraph("big", g, ""); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	got, err := s.LoadGraph("big")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 700 || len(got.Edges) != 700 {
		t.Errorf("loaded %d nodes, %d edges", len(got.Nodes), len(got.Edges))
	}
}

func TestProjectsListAndDelete(t *testing.T) {
	s := openTest(t)
	for _, name := range []string{"b", "a"} {
		if err := s.SaveGraph(name, sampleGraph(), ""); err != nil {
			t.Fatal(err)
		}
	}
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].Name != "a" || projects[1].Name != "b" {
		t.Errorf("projects = %+v", projects)
	}

	deleted, err := s.DeleteProject("a")
	if err != nil || !deleted {
		t.Fatalf("DeleteProject = %v, %v", deleted, err)
	}
	if nc, _ := s.CountNodes("a"); nc != 0 {
		t.Errorf("cascade left %d nodes", nc)
	}
	if ec, _ := s.CountEdges("a"); ec != 0 {
		t.Errorf("cascade left %d edges", ec)
	}
	if nc, _ := s.CountNodes("b"); nc != 4 {
		t.Errorf("other project lost nodes: %d", nc)
	}

	deleted, err = s.DeleteProject("a")
	if err != nil || deleted {
		t.Errorf("second delete = %v, %v", deleted, err)
	}
}

func TestLoadMissingProject(t *testing.T) {
	s := openTest(t)
	if _, err := s.LoadGraph("nope"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestWithTransactionRollback(t *testing.T) {
	s := openTest(t)
	boom := errors.New("boom")
	err := s.WithTransaction(func(tx *Store) error {
		if err := tx.UpsertProject(&Project{Name: "tmp", RootPath: "/tmp"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.GetProject("tmp"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("rolled back project still visible: %v", err)
	}
}

func TestOpenPathPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadmap.db")
	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := s.SaveGraph("repo", sampleGraph(), "d"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.LoadGraph("repo"); err != nil {
		t.Errorf("LoadGraph after reopen: %v", err)
	}
}

func TestBFS(t *testing.T) {
	s := openTest(t)
	if err := s.SaveGraph("repo", sampleGraph(), ""); err != nil {
		t.Fatal(err)
	}

	out, err := s.BFS("repo", "app.py", Outbound, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []NodeHop{{ID: "pkg/core.py", Hop: 1}, {ID: "py:requests", Hop: 1}}
	if diff := cmp.Diff(want, out.Visited); diff != "" {
		t.Errorf("depth 1 (-want +got):\n%s", diff)
	}

	out, err = s.BFS("repo", "app.py", Outbound, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Visited) != 4 {
		t.Errorf("depth 2 visited = %+v", out.Visited)
	}

	in, err := s.BFS("repo", "pkg/__init__.py", Inbound, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	want = []NodeHop{{ID: "pkg/core.py", Hop: 1}, {ID: "app.py", Hop: 2}}
	if diff := cmp.Diff(want, in.Visited); diff != "" {
		t.Errorf("inbound (-want +got):\n%s", diff)
	}

	capped, err := s.BFS("repo", "app.py", Outbound, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(capped.Visited) != 1 {
		t.Errorf("maxResults ignored: %+v", capped.Visited)
	}

	if _, err := s.BFS("repo", "app.py", Direction("sideways"), 1, 1); err == nil {
		t.Error("expected invalid direction error")
	}
}
