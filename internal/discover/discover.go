package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/DeusData/codebase-roadmap/internal/lang"
)

// IgnoreFileName is the gitignore-syntax file read from the scan root.
const IgnoreFileName = ".roadmapignore"

// ErrRootNotFound is returned when the scan root is missing or not a directory.
var ErrRootNotFound = errors.New("scan root not found")

// errLimitReached stops the walk once the file-count ceiling is hit.
var errLimitReached = errors.New("file limit reached")

// FileInfo represents a discovered candidate file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // slash-separated, relative to the scan root
	Language lang.Language // detected language
	Size     int64
}

// Options configures file discovery.
type Options struct {
	// IncludeRoots are the directories to walk, absolute or relative to the
	// scan root. Empty means the root itself.
	IncludeRoots []string

	// ExcludeDirs are directory names pruned before descending.
	ExcludeDirs map[string]bool

	// ExcludePatterns are fnmatch patterns matched against directory and
	// file names.
	ExcludePatterns []string

	// MaxFiles stops the walk once this many candidates are collected (0 = no limit).
	MaxFiles int

	// MaxFileBytes skips (and counts) larger files (0 = no limit).
	MaxFileBytes int64

	// DetectVenvs prunes virtual-environment-shaped directories of any name.
	DetectVenvs bool

	// IgnoreFile is a gitignore-syntax file (optional). Defaults to
	// <root>/.roadmapignore when present.
	IgnoreFile string

	// RootFiles also collects the regular files directly under the scan
	// root, before any include root is walked. Manifests such as
	// package.json live there even when only src/ is walked.
	RootFiles bool
}

// Result is the ordered candidate list plus walk counters.
type Result struct {
	// Files are in discovery order: include roots in the given order, each
	// walked lexicographically.
	Files []FileInfo

	// SkippedOversized counts files above MaxFileBytes.
	SkippedOversized int

	// Truncated is true when MaxFiles stopped the walk early.
	Truncated bool
}

// walker carries per-call state. Nothing is shared between Discover calls.
type walker struct {
	ctx    context.Context
	root   string
	opts   Options
	ignore *ignore.GitIgnore
	venvs  map[string]bool // dir -> venv-shaped, memoized for ancestor checks
	seen   map[string]bool // rel path -> already collected
	result *Result
}

// Discover walks the include roots under root and returns candidate files.
// It never reads file contents.
func Discover(ctx context.Context, root string, opts *Options) (*Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	w := &walker{
		ctx:    ctx,
		root:   root,
		venvs:  make(map[string]bool),
		seen:   make(map[string]bool),
		result: &Result{},
	}
	if opts != nil {
		w.opts = *opts
	}
	w.ignore = loadIgnoreFile(root, w.opts.IgnoreFile)

	includeRoots := w.opts.IncludeRoots
	if len(includeRoots) == 0 {
		includeRoots = []string{root}
	}

	if w.opts.RootFiles {
		if err := w.collectRootFiles(); err != nil {
			if w.truncate(err) {
				return w.result, nil
			}
			return nil, err
		}
	}

	for _, inc := range includeRoots {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(root, inc)
		}
		inc = filepath.Clean(inc)

		if !w.acceptIncludeRoot(inc) {
			continue
		}

		if err := filepath.WalkDir(inc, w.visit(inc)); err != nil {
			if w.truncate(err) {
				return w.result, nil
			}
			return nil, err
		}
	}

	return w.result, nil
}

// truncate marks the result as truncated when err is the file-count
// sentinel.
func (w *walker) truncate(err error) bool {
	if !errors.Is(err, errLimitReached) {
		return false
	}
	w.result.Truncated = true
	slog.Info("walk.limit", "max_files", w.opts.MaxFiles)
	return true
}

// collectRootFiles visits the files directly under the root, in name order.
func (w *walker) collectRootFiles() error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil
	}
	visit := w.visit(w.root)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := visit(filepath.Join(w.root, e.Name()), e, nil); err != nil {
			return err
		}
	}
	return nil
}

// acceptIncludeRoot rejects include roots that are missing, outside the scan
// root, or themselves venv-shaped.
func (w *walker) acceptIncludeRoot(inc string) bool {
	info, err := os.Stat(inc)
	if err != nil || !info.IsDir() {
		slog.Debug("walk.include.skip", "path", inc, "reason", "missing")
		return false
	}
	rel, err := filepath.Rel(w.root, inc)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		slog.Debug("walk.include.skip", "path", inc, "reason", "outside_root")
		return false
	}
	if w.opts.DetectVenvs && w.isVenv(inc) {
		slog.Debug("walk.include.skip", "path", inc, "reason", "venv")
		return false
	}
	return true
}

func (w *walker) visit(includeRoot string) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, walkErr error) error {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			// Unreadable subtree or file: degrade, never abort.
			if d != nil && d.IsDir() && path != includeRoot {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == includeRoot {
				return nil
			}
			if w.shouldPruneDir(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel := w.relPath(path)
		if rel == "" || w.seen[rel] {
			return nil
		}
		// Marked before filtering so overlapping roots never count a
		// rejected or oversized file twice.
		w.seen[rel] = true
		if !w.shouldIncludeFile(path, rel, d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if w.opts.MaxFileBytes > 0 && info.Size() > w.opts.MaxFileBytes {
			w.result.SkippedOversized++
			slog.Debug("walk.oversized", "path", rel, "bytes", info.Size())
			return nil
		}

		w.result.Files = append(w.result.Files, FileInfo{
			Path:     path,
			RelPath:  rel,
			Language: lang.Classify(path),
			Size:     info.Size(),
		})

		if w.opts.MaxFiles > 0 && len(w.result.Files) >= w.opts.MaxFiles {
			return errLimitReached
		}
		return nil
	}
}

// shouldPruneDir is evaluated before descending into a child directory.
func (w *walker) shouldPruneDir(path, name string) bool {
	if w.isExcludedName(name) {
		return true
	}
	if w.ignore != nil {
		rel := w.relPath(path)
		if w.ignore.MatchesPath(rel) || w.ignore.MatchesPath(rel+"/") {
			return true
		}
	}
	return w.opts.DetectVenvs && w.isVenv(path)
}

// shouldIncludeFile applies name filters and re-checks every ancestor below
// the scan root against the venv shape.
func (w *walker) shouldIncludeFile(path, rel, name string) bool {
	// Excluded names are directory names; a file called "build" stays.
	if MatchesAnyPattern(name, w.opts.ExcludePatterns) {
		return false
	}
	if w.ignore != nil && w.ignore.MatchesPath(rel) {
		return false
	}
	if !w.opts.DetectVenvs {
		return true
	}
	for dir := filepath.Dir(path); dir != w.root && len(dir) > len(w.root); dir = filepath.Dir(dir) {
		if w.isVenv(dir) {
			return false
		}
	}
	return true
}

func (w *walker) isExcludedName(name string) bool {
	if w.opts.ExcludeDirs[name] {
		return true
	}
	return MatchesAnyPattern(name, w.opts.ExcludePatterns)
}

func (w *walker) isVenv(dir string) bool {
	if v, ok := w.venvs[dir]; ok {
		return v
	}
	v := IsVenvRoot(dir)
	w.venvs[dir] = v
	return v
}

func (w *walker) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// MatchesAnyPattern reports whether name matches one of the fnmatch patterns.
// Malformed patterns never match.
func MatchesAnyPattern(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// loadIgnoreFile compiles an explicit ignore file, or <root>/.roadmapignore
// when it exists. A missing or unreadable file yields nil.
func loadIgnoreFile(root, explicit string) *ignore.GitIgnore {
	path := explicit
	if path == "" {
		path = filepath.Join(root, IgnoreFileName)
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		slog.Warn("walk.ignorefile", "path", path, "err", err)
		return nil
	}
	return gi
}
