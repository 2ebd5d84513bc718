// Package extract pulls raw reference strings out of file contents.
//
// Python is read through its tree-sitter grammar. JavaScript/TypeScript and
// Rust go through documented regex heuristics: they miss dynamic imports,
// template literals and re-exports, and that is accepted. Markup, stylesheet
// and config files are read but produce nothing yet; a new Extractor can be
// registered for them without touching callers.
package extract

import (
	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/lang"
)

// Reference is one raw reference found in a file.
type Reference struct {
	// Raw is the reference as written, e.g. "os.path", "..utils", "./x",
	// "crate::config". Unresolved references become "<Tag>:<Raw>".
	Raw string

	// Module is the dotted module without leading dots (Python only). Empty
	// for "from . import x".
	Module string

	// Level is the Python relative-import depth; 0 means absolute.
	Level int

	Kind graph.EdgeKind

	// Tag prefixes the synthetic destination when Raw does not resolve.
	Tag string
}

// Extractor produces references from one file's text. Implementations never
// fail: unparseable input yields no references.
type Extractor interface {
	Extract(source []byte) []Reference
}

var registry = map[lang.Language]Extractor{
	lang.Python:     pythonExtractor{},
	lang.JavaScript: scriptExtractor{},
	lang.TypeScript: scriptExtractor{},
	lang.Rust:       rustExtractor{},
	lang.HTML:       noopExtractor{},
	lang.CSS:        noopExtractor{},
	lang.Config:     noopExtractor{},
}

// Register installs or replaces the extractor for a language.
func Register(l lang.Language, e Extractor) {
	registry[l] = e
}

// For returns the extractor for l, or nil when files of l are not scanned.
func For(l lang.Language) Extractor {
	return registry[l]
}

// noopExtractor is the extension point for languages without heuristics yet.
type noopExtractor struct{}

func (noopExtractor) Extract([]byte) []Reference { return nil }
