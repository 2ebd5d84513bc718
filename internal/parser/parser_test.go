package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-roadmap/internal/lang"
)

func TestParsePython(t *testing.T) {
	source := []byte(`import os
from .sibling import helper

def greet(name):
    import json
    return f"Hello, {name}"

class MyClass:
    def method(self):
        pass
`)
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatalf("Parse Python: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var funcCount, classCount, importCount, fromCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			funcCount++
		case "class_definition":
			classCount++
		case "import_statement":
			importCount++
		case "import_from_statement":
			fromCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
	if classCount != 1 {
		t.Errorf("expected 1 class_definition, got %d", classCount)
	}
	if importCount != 2 {
		t.Errorf("expected 2 import_statements (one nested), got %d", importCount)
	}
	if fromCount != 1 {
		t.Errorf("expected 1 import_from_statement, got %d", fromCount)
	}
}

func TestParseUnsupported(t *testing.T) {
	if _, err := Parse(lang.Rust, []byte("fn main() {}")); err == nil {
		t.Error("expected error for language without grammar")
	}
	if Supported(lang.JavaScript) {
		t.Error("javascript should use the regex extractor, not a grammar")
	}
	if !Supported(lang.Python) {
		t.Error("python grammar should be registered")
	}
}

func TestParseStrictRejectsSyntaxErrors(t *testing.T) {
	if _, err := ParseStrict(lang.Python, []byte("def broken(:\n    import os\n")); err == nil {
		t.Error("expected syntax error")
	}
	tree, err := ParseStrict(lang.Python, []byte("import os\n"))
	if err != nil {
		t.Fatalf("ParseStrict valid source: %v", err)
	}
	tree.Close()
}

func TestNodeText(t *testing.T) {
	source := []byte("import os.path\n")
	tree, err := Parse(lang.Python, source)
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	var got string
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		if n.Kind() == "dotted_name" && got == "" {
			got = NodeText(n, source)
			return false
		}
		return true
	})
	if got != "os.path" {
		t.Errorf("NodeText = %q, want os.path", got)
	}
}

func TestParseTOML(t *testing.T) {
	source := []byte(`[project]
name = "demo"
scripts = { demo = "demo.cli:main" }

[tool.poetry.scripts]
legacy = "demo:entry"
`)
	tree, err := Parse(TOML, source)
	if err != nil {
		t.Fatalf("Parse TOML: %v", err)
	}
	defer tree.Close()

	counts := map[string]int{}
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		counts[n.Kind()]++
		return true
	})
	if counts["table"] != 2 {
		t.Errorf("expected 2 tables, got %d", counts["table"])
	}
	if counts["inline_table"] != 1 {
		t.Errorf("expected 1 inline_table, got %d", counts["inline_table"])
	}
	if counts["dotted_key"] < 1 {
		t.Error("expected a dotted_key for [tool.poetry.scripts]")
	}
	if tree.RootNode().HasError() {
		t.Error("valid manifest parsed with errors")
	}
	if Supported(lang.Config) {
		t.Error("config files are not parsed as a language")
	}
}
