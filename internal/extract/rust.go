package extract

import (
	"regexp"

	"github.com/DeusData/codebase-roadmap/internal/graph"
	"github.com/DeusData/codebase-roadmap/internal/lang"
)

// modTag marks "mod x;" declarations, which name local submodule files
// rather than external crates.
const modTag = "rsmod"

var (
	rustUseRe = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([a-zA-Z0-9_:]+)`)
	rustModRe = regexp.MustCompile(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+([a-zA-Z0-9_]+)\s*;`)
)

type rustExtractor struct{}

func (rustExtractor) Extract(source []byte) []Reference {
	tag := lang.RefTag(lang.Rust)
	var refs []Reference
	for _, m := range rustUseRe.FindAllSubmatch(source, -1) {
		refs = append(refs, Reference{Raw: string(m[1]), Kind: graph.KindUse, Tag: tag})
	}
	for _, m := range rustModRe.FindAllSubmatch(source, -1) {
		refs = append(refs, Reference{Raw: string(m[1]), Kind: graph.KindMod, Tag: modTag})
	}
	return refs
}
