// Package resolve maps Python module references onto files already present
// in a scan. Only Python is resolved; references from every other language
// stay unresolved and become synthetic destinations.
package resolve

import (
	"path"
	"strings"

	"github.com/DeusData/codebase-roadmap/internal/extract"
	"github.com/DeusData/codebase-roadmap/internal/lang"
)

// SrcRoot is the conventional sub-root searched after the repo root.
const SrcRoot = "src"

const (
	pyExt       = ".py"
	packageInit = "__init__.py"
)

// Resolver answers lookups against a fixed node id set. It never touches the
// filesystem, so a reference can only resolve to a file the walker accepted.
type Resolver struct {
	nodes map[string]bool
	roots []string
}

// New builds a resolver over repo-relative, slash-separated node ids. The
// source roots are the repo root plus src/ when any node lives under it.
func New(nodes map[string]bool) *Resolver {
	r := &Resolver{nodes: nodes, roots: []string{""}}
	for id := range nodes {
		if strings.HasPrefix(id, SrcRoot+"/") {
			r.roots = append(r.roots, SrcRoot)
			break
		}
	}
	return r
}

// Roots returns the source roots in lookup order.
func (r *Resolver) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Resolve maps a Python reference found in the file at from. Non-Python
// references never resolve.
func (r *Resolver) Resolve(ref extract.Reference, from string) (string, bool) {
	if ref.Tag != lang.RefTag(lang.Python) {
		return "", false
	}
	return r.ResolveModule(ref.Module, ref.Level, from)
}

// ResolveModule resolves a dotted module. Level 0 is absolute; level 1 is the
// package containing from, level 2 its parent, and so on. A relative lookup
// that finds nothing falls back to absolute resolution of the module.
func (r *Resolver) ResolveModule(module string, level int, from string) (string, bool) {
	if level <= 0 {
		return r.absolute(module)
	}
	if id, ok := r.relative(module, level, from); ok {
		return id, true
	}
	if module == "" {
		return "", false
	}
	return r.absolute(module)
}

func (r *Resolver) absolute(module string) (string, bool) {
	rel, ok := modulePath(module)
	if !ok {
		return "", false
	}
	for _, root := range r.roots {
		if id, ok := r.lookup(path.Join(root, rel)); ok {
			return id, true
		}
	}
	return "", false
}

func (r *Resolver) relative(module string, level int, from string) (string, bool) {
	anchor := path.Dir(from)
	for i := 1; i < level; i++ {
		if anchor == "." {
			// Ascending past the repo root.
			return "", false
		}
		anchor = path.Dir(anchor)
	}
	target := anchor
	if module != "" {
		rel, ok := modulePath(module)
		if !ok {
			return "", false
		}
		target = path.Join(anchor, rel)
	}
	return r.lookup(target)
}

// lookup tries target.py, then target/__init__.py.
func (r *Resolver) lookup(target string) (string, bool) {
	if target != "." && target != "" {
		if id := target + pyExt; r.nodes[id] {
			return id, true
		}
	}
	if id := path.Join(target, packageInit); r.nodes[id] {
		return id, true
	}
	return "", false
}

// modulePath turns "a.b.c" into "a/b/c". Empty segments are rejected.
func modulePath(module string) (string, bool) {
	if module == "" {
		return "", false
	}
	parts := strings.Split(module, ".")
	for _, p := range parts {
		if p == "" {
			return "", false
		}
	}
	return strings.Join(parts, "/"), true
}
