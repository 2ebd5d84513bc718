package extract

import (
	"regexp"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/lang"
)

var (
	// ES module: import x from "mod"; one statement per line.
	esImportRe = regexp.MustCompile(`(?m)^\s*import\s+.*?\s+from\s+['"](.+?)['"]\s*;?\s*$`)

	// CommonJS: require("mod") anywhere.
	requireRe = regexp.MustCompile(`require\(\s*['"](.+?)['"]\s*\)`)
)

// scriptExtractor is shared by JavaScript and TypeScript. ES imports come
// first, then require calls, each in source order.
type scriptExtractor struct{}

func (scriptExtractor) Extract(source []byte) []Reference {
	tag := lang.RefTag(lang.JavaScript)
	var refs []Reference
	for _, m := range esImportRe.FindAllSubmatch(source, -1) {
		refs = append(refs, Reference{Raw: string(m[1]), Kind: graph.KindImport, Tag: tag})
	}
	for _, m := range requireRe.FindAllSubmatch(source, -1) {
		refs = append(refs, Reference{Raw: string(m[1]), Kind: graph.KindRequire, Tag: tag})
	}
	return refs
}
