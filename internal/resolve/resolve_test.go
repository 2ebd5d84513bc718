package resolve

import (
	"testing"

	"github.com/DeusData/codebase-roadmap/internal/extract"
	"github.com/DeusData/codebase-roadmap/internal/graph"
)

func nodeSet(ids ...string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func TestResolveModule(t *testing.T) {
	r := New(nodeSet(
		"app.py",
		"pkg/__init__.py",
		"pkg/models.py",
		"pkg/sub/__init__.py",
		"pkg/sub/handlers.py",
		"pkg/sub/deep/leaf.py",
		"src/lib/__init__.py",
		"src/lib/core.py",
		"tools/helper.py",
	))

	tests := []struct {
		name   string
		module string
		level  int
		from   string
		want   string
		ok     bool
	}{
		{"absolute module file", "pkg.models", 0, "app.py", "pkg/models.py", true},
		{"absolute package", "pkg.sub", 0, "app.py", "pkg/sub/__init__.py", true},
		{"absolute top-level file", "app", 0, "pkg/models.py", "app.py", true},
		{"absolute under src root", "lib.core", 0, "app.py", "src/lib/core.py", true},
		{"absolute src package", "lib", 0, "app.py", "src/lib/__init__.py", true},
		{"absolute missing", "requests", 0, "app.py", "", false},
		{"absolute empty segment", "pkg..models", 0, "app.py", "", false},
		{"same package", "handlers", 1, "pkg/sub/other.py", "pkg/sub/handlers.py", true},
		{"sibling module", "models", 1, "pkg/__init__.py", "pkg/models.py", true},
		{"own package init", "", 1, "pkg/sub/handlers.py", "pkg/sub/__init__.py", true},
		{"parent package", "models", 2, "pkg/sub/handlers.py", "pkg/models.py", true},
		{"parent package init", "", 2, "pkg/sub/handlers.py", "pkg/__init__.py", true},
		{"grandparent dotted", "sub.handlers", 3, "pkg/sub/deep/leaf.py", "pkg/sub/handlers.py", true},
		{"relative falls back to absolute", "pkg.models", 1, "tools/helper.py", "pkg/models.py", true},
		{"relative above root", "", 3, "pkg/models.py", "", false},
		{"relative above root with fallback", "app", 4, "pkg/models.py", "app.py", true},
		{"relative without module has no fallback", "", 1, "tools/helper.py", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.ResolveModule(tt.module, tt.level, tt.from)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ResolveModule(%q, %d, %q) = (%q, %v), want (%q, %v)",
					tt.module, tt.level, tt.from, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRootInitFile(t *testing.T) {
	r := New(nodeSet("__init__.py", "main.py"))
	got, ok := r.ResolveModule("", 1, "main.py")
	if !ok || got != "__init__.py" {
		t.Errorf("got (%q, %v), want the root __init__.py", got, ok)
	}
}

func TestSrcRootOnlyWhenPresent(t *testing.T) {
	if roots := New(nodeSet("a.py", "pkg/b.py")).Roots(); len(roots) != 1 || roots[0] != "" {
		t.Errorf("roots without src/ = %q", roots)
	}
	roots := New(nodeSet("a.py", "src/b.py")).Roots()
	if len(roots) != 2 || roots[0] != "" || roots[1] != SrcRoot {
		t.Errorf("roots with src/ = %q", roots)
	}
}

func TestRepoRootWinsOverSrc(t *testing.T) {
	r := New(nodeSet("util.py", "src/util.py"))
	if got, _ := r.ResolveModule("util", 0, "x.py"); got != "util.py" {
		t.Errorf("got %q, want util.py", got)
	}
}

func TestResolveOnlyPython(t *testing.T) {
	r := New(nodeSet("a/x.js", "a/b.py"))
	js := extract.Reference{Raw: "./x.js", Kind: graph.KindRequire, Tag: "js"}
	if _, ok := r.Resolve(js, "a/index.js"); ok {
		t.Error("javascript references must stay unresolved")
	}
	rs := extract.Reference{Raw: "b", Kind: graph.KindMod, Tag: "rsmod"}
	if _, ok := r.Resolve(rs, "a/main.rs"); ok {
		t.Error("rust references must stay unresolved")
	}
	py := extract.Reference{Raw: ".b", Module: "b", Level: 1, Kind: graph.KindImport, Tag: "py"}
	if got, ok := r.Resolve(py, "a/c.py"); !ok || got != "a/b.py" {
		t.Errorf("python relative = (%q, %v)", got, ok)
	}
}
