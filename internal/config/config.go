package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the per-repository policy file read from the scan root.
const FileName = ".roadmap.yaml"

const (
	defaultMaxFiles           = 20000
	defaultMaxFileBytes       = 2_000_000
	defaultRenderDepth        = 2
	defaultRenderMaxEdges     = 180
	defaultSummaryEntrypoints = 50
)

// defaultExcludeDirs are directory names never descended into.
var defaultExcludeDirs = []string{
	".cache", ".direnv", ".git", ".hg", ".mypy_cache", ".next", ".nuxt",
	".pybundle-venv", ".pytest_cache", ".ruff_cache", ".svelte-kit", ".svn",
	".venv", "__pycache__", "artifacts", "binaries", "build", "dist",
	"node_modules", "out", "target", "venv",
}

// defaultExcludePatterns are fnmatch-style patterns applied to every
// directory and file name.
var defaultExcludePatterns = []string{
	"*.7z", "*.appimage", "*.bz2", "*.db", "*.deb", "*.dll", "*.dmg",
	"*.dylib", "*.egg", "*.egg-info", "*.exe", "*.gz", "*.msi", "*.orig",
	"*.pkg", "*.rej", "*.rpm", "*.so", "*.sqlite", "*.sqlite3", "*.tar",
	"*.tgz", "*.xz", "*.zip",
}

// defaultIncludeDirs are conventional source, test, web and asset trees.
var defaultIncludeDirs = []string{
	"src", "tests", "tools", "docs", ".github", "app", "templates",
	"static", "src-tauri", "frontend", "web", "ui",
}

// Config holds user-overridable roadmap settings.
// Loaded from .roadmap.yaml in the project root.
type Config struct {
	Roadmap RoadmapConfig `yaml:"roadmap"`
}

// RoadmapConfig holds scan and render settings. Nil pointers mean "use the
// default".
type RoadmapConfig struct {
	// IncludeDirs replaces the default include-dir candidates when non-empty.
	IncludeDirs []string `yaml:"include_dirs"`

	// ExcludeDirs are added to (not replacing) the built-in excluded names.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// ExcludePatterns are added to the built-in fnmatch patterns.
	ExcludePatterns []string `yaml:"exclude_patterns"`

	MaxFiles           *int   `yaml:"max_files"`
	MaxFileBytes       *int64 `yaml:"max_file_bytes"`
	RenderDepth        *int   `yaml:"render_depth"`
	RenderMaxEdges     *int   `yaml:"render_max_edges"`
	SummaryEntrypoints *int   `yaml:"summary_entrypoints"`

	// DetectVenvs enables structural virtual-environment pruning.
	// Default: true.
	DetectVenvs *bool `yaml:"detect_venvs"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig reads .roadmap.yaml from the given directory.
// Returns default config if the file doesn't exist.
func LoadConfig(dir string) *Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return cfg // missing or unreadable, use defaults
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig() // invalid YAML, use defaults
	}

	return cfg
}

// ApplyEnv overrides numeric limits from ROADMAP_* environment variables.
// Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	if v, ok := envInt("ROADMAP_MAX_FILES"); ok {
		c.Roadmap.MaxFiles = &v
	}
	if v, ok := envInt("ROADMAP_RENDER_DEPTH"); ok {
		c.Roadmap.RenderDepth = &v
	}
	if v, ok := envInt("ROADMAP_RENDER_MAX_EDGES"); ok {
		c.Roadmap.RenderMaxEdges = &v
	}
	if v, ok := envInt("ROADMAP_MAX_FILE_BYTES"); ok {
		b := int64(v)
		c.Roadmap.MaxFileBytes = &b
	}
}

func envInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// EffectiveMaxFiles returns the file-count ceiling (default 20000).
func (c *Config) EffectiveMaxFiles() int {
	if p := c.Roadmap.MaxFiles; p != nil && *p > 0 {
		return *p
	}
	return defaultMaxFiles
}

// EffectiveMaxFileBytes returns the per-file size ceiling (default 2MB).
func (c *Config) EffectiveMaxFileBytes() int64 {
	if p := c.Roadmap.MaxFileBytes; p != nil && *p > 0 {
		return *p
	}
	return defaultMaxFileBytes
}

// EffectiveRenderDepth returns the diagram traversal depth (default 2).
func (c *Config) EffectiveRenderDepth() int {
	if p := c.Roadmap.RenderDepth; p != nil && *p >= 0 {
		return *p
	}
	return defaultRenderDepth
}

// EffectiveRenderMaxEdges returns the diagram edge cap (default 180).
func (c *Config) EffectiveRenderMaxEdges() int {
	if p := c.Roadmap.RenderMaxEdges; p != nil && *p >= 0 {
		return *p
	}
	return defaultRenderMaxEdges
}

// EffectiveSummaryEntrypoints returns how many entrypoints the summary and
// the Markdown listing carry (default 50).
func (c *Config) EffectiveSummaryEntrypoints() int {
	if p := c.Roadmap.SummaryEntrypoints; p != nil && *p > 0 {
		return *p
	}
	return defaultSummaryEntrypoints
}

// EffectiveDetectVenvs returns whether venv-shaped directories are pruned.
func (c *Config) EffectiveDetectVenvs() bool {
	if c.Roadmap.DetectVenvs != nil {
		return *c.Roadmap.DetectVenvs
	}
	return true
}

// ExcludeDirSet returns the combined default + configured excluded names.
func (c *Config) ExcludeDirSet() map[string]bool {
	set := make(map[string]bool, len(defaultExcludeDirs)+len(c.Roadmap.ExcludeDirs))
	for _, d := range defaultExcludeDirs {
		set[d] = true
	}
	for _, d := range c.Roadmap.ExcludeDirs {
		if d = strings.TrimSpace(d); d != "" {
			set[d] = true
		}
	}
	return set
}

// AllExcludePatterns returns the combined default + configured patterns.
func (c *Config) AllExcludePatterns() []string {
	combined := make([]string, 0, len(defaultExcludePatterns)+len(c.Roadmap.ExcludePatterns))
	combined = append(combined, defaultExcludePatterns...)
	combined = append(combined, c.Roadmap.ExcludePatterns...)
	return combined
}

// IncludeDirs returns the configured include-dir names, or the defaults.
func (c *Config) IncludeDirs() []string {
	if len(c.Roadmap.IncludeDirs) > 0 {
		return c.Roadmap.IncludeDirs
	}
	return defaultIncludeDirs
}

// IncludeDirCandidates returns the include dirs that exist under root, in
// configured order. When none exist the root itself is returned.
func (c *Config) IncludeDirCandidates(root string) []string {
	var out []string
	for _, d := range c.IncludeDirs() {
		p := filepath.Join(root, d)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{root}
	}
	return out
}

// ExplicitIncludeDirs resolves an explicit include list against root,
// dropping entries that do not exist. An empty result falls back to root.
func ExplicitIncludeDirs(root string, include []string) []string {
	var out []string
	for _, d := range include {
		p := d
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, d)
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{root}
	}
	return out
}
