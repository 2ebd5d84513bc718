package extract

import (
	"log/slog"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/lang"
	"github.com/DeusData/codebase-roadmap/internal/parser"
)

// pythonExtractor collects the module of every import statement, top-level
// or nested.
//
// Python import AST structures:
//
//	import_statement:
//	  name: dotted_name | aliased_import(name: dotted_name)  (repeated)
//
//	import_from_statement / future_import_statement:
//	  module_name: dotted_name | relative_import(import_prefix, dotted_name?)
type pythonExtractor struct{}

func (pythonExtractor) Extract(source []byte) []Reference {
	tree, err := parser.ParseStrict(lang.Python, source)
	if err != nil {
		slog.Debug("extract.parse.skip", "lang", lang.Python, "err", err)
		return nil
	}
	defer tree.Close()

	var refs []Reference
	parser.Walk(tree.RootNode(), func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "import_statement":
			refs = appendPlainImports(refs, node, source)
			return false
		case "import_from_statement":
			if ref, ok := fromImport(node, source); ok {
				refs = append(refs, ref)
			}
			return false
		case "future_import_statement":
			refs = append(refs, pythonRef("__future__", "__future__", 0))
			return false
		}
		return true
	})
	return refs
}

// appendPlainImports handles "import a.b, c as d".
func appendPlainImports(refs []Reference, node *tree_sitter.Node, source []byte) []Reference {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := parser.NodeText(child, source)
			refs = append(refs, pythonRef(name, name, 0))
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := parser.NodeText(nameNode, source)
			refs = append(refs, pythonRef(name, name, 0))
		}
	}
	return refs
}

// fromImport handles "from X import Y" and relative forms. Only the module
// being imported from is recorded, not the imported names.
func fromImport(node *tree_sitter.Node, source []byte) (Reference, bool) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return Reference{}, false
	}
	raw := strings.Join(strings.Fields(parser.NodeText(moduleNode, source)), "")
	if raw == "" {
		return Reference{}, false
	}
	module := strings.TrimLeft(raw, ".")
	level := len(raw) - len(module)
	return pythonRef(raw, module, level), true
}

func pythonRef(raw, module string, level int) Reference {
	return Reference{
		Raw:    raw,
		Module: module,
		Level:  level,
		Kind:   graph.KindImport,
		Tag:    lang.RefTag(lang.Python),
	}
}
