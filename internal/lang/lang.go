package lang

import (
	"path/filepath"
	"strings"
)

// Language is the coarse language tag assigned to a discovered file.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "js"
	TypeScript Language = "ts"
	Rust       Language = "rust"
	HTML       Language = "html"
	CSS        Language = "css"
	Config     Language = "config"
	Unknown    Language = "unknown"
)

// AllLanguages returns every tag Classify can produce, Unknown last.
func AllLanguages() []Language {
	return []Language{Python, JavaScript, TypeScript, Rust, HTML, CSS, Config, Unknown}
}

// LanguageSpec describes how files of one language are classified and scanned.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// RefTag prefixes synthetic destination ids for references that do not
	// resolve to an in-repo file (e.g. "py" -> "py:requests").
	RefTag string

	// ReadsContent is true when reference extraction needs the file text.
	ReadsContent bool

	// ImportNodeTypes and ImportFromTypes are tree-sitter node kinds for
	// languages extracted from an AST.
	ImportNodeTypes []string
	ImportFromTypes []string

	// PackageIndicators are file names that turn a directory into a package.
	PackageIndicators []string
}

// registry maps lower-cased file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[strings.ToLower(ext)] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".py").
// Matching is case-insensitive.
func ForExtension(ext string) *LanguageSpec {
	return registry[strings.ToLower(ext)]
}

// ForLanguage returns the LanguageSpec for a language, or nil for Unknown.
func ForLanguage(l Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == l {
			return spec
		}
	}
	return nil
}

// Classify maps a path to its language tag from the extension.
// Unrecognized extensions fall back to Unknown.
func Classify(path string) Language {
	if spec := ForExtension(filepath.Ext(path)); spec != nil {
		return spec.Language
	}
	return Unknown
}

// ReadsContent reports whether files of language l need to be read for
// reference extraction.
func ReadsContent(l Language) bool {
	spec := ForLanguage(l)
	return spec != nil && spec.ReadsContent
}

// RefTag returns the synthetic destination prefix for l. Languages without a
// registered tag use the language name itself.
func RefTag(l Language) string {
	if spec := ForLanguage(l); spec != nil && spec.RefTag != "" {
		return spec.RefTag
	}
	return string(l)
}
