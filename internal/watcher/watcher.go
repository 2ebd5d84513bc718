// Package watcher polls stored roadmaps and rebuilds the ones whose source
// tree changed.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/DeusData/codebase-roadmap/internal/config"
	"github.com/DeusData/codebase-roadmap/internal/discover"
	"github.com/DeusData/codebase-roadmap/internal/store"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

// fingerprint summarizes a tree: the candidate count plus a hash over every
// (path, size, mtime) triple in walk order.
type fingerprint struct {
	files int
	hash  uint64
}

type projectState struct {
	last     *fingerprint
	interval time.Duration
	nextPoll time.Time
}

// RebuildFunc rebuilds and stores the roadmap of one project.
type RebuildFunc func(ctx context.Context, project, rootPath string) error

// Watcher polls stored projects for file changes and triggers rebuilds.
type Watcher struct {
	store    *store.Store
	rebuild  RebuildFunc
	projects map[string]*projectState
}

// New creates a Watcher. rebuild is called when a tree changed since the
// previous poll.
func New(s *store.Store, rebuild RebuildFunc) *Watcher {
	return &Watcher{
		store:    s,
		rebuild:  rebuild,
		projects: make(map[string]*projectState),
	}
}

// Run blocks until ctx is cancelled. Ticks at baseInterval, polling each
// project only when its adaptive interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollAll(ctx)
		}
	}
}

// pollAll polls every stored project that is due.
func (w *Watcher) pollAll(ctx context.Context) {
	projects, err := w.store.ListProjects()
	if err != nil {
		slog.Warn("watcher.list_projects", "err", err)
		return
	}

	now := time.Now()
	live := make(map[string]bool, len(projects))
	for _, p := range projects {
		live[p.Name] = true
		state, ok := w.projects[p.Name]
		if !ok {
			state = &projectState{}
			w.projects[p.Name] = state
		}
		if ok && now.Before(state.nextPoll) {
			continue
		}
		w.pollProject(ctx, p, state)
	}

	// Forget deleted projects.
	for name := range w.projects {
		if !live[name] {
			delete(w.projects, name)
		}
	}
}

// pollProject fingerprints the tree and compares with the previous poll.
// The first poll only records a baseline.
func (w *Watcher) pollProject(ctx context.Context, p *store.Project, state *projectState) {
	if info, err := os.Stat(p.RootPath); err != nil || !info.IsDir() {
		slog.Warn("watcher.root_gone", "project", p.Name, "path", p.RootPath)
		state.nextPoll = time.Now().Add(maxInterval)
		return
	}

	fp, err := takeFingerprint(ctx, p.RootPath)
	if err != nil {
		slog.Warn("watcher.fingerprint", "project", p.Name, "err", err)
		state.nextPoll = time.Now().Add(max(state.interval, baseInterval))
		return
	}
	interval := pollInterval(fp.files)

	if state.last == nil || *state.last == *fp {
		if state.last == nil {
			slog.Debug("watcher.baseline", "project", p.Name, "files", fp.files)
		}
		state.last = fp
		state.interval = interval
		state.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "project", p.Name, "files", fp.files)
	if err := w.rebuild(ctx, p.Name, p.RootPath); err != nil {
		slog.Warn("watcher.rebuild", "project", p.Name, "err", err)
		// Keep the old fingerprint so the next poll retries.
		state.nextPoll = time.Now().Add(interval)
		return
	}

	state.last = fp
	state.interval = interval
	state.nextPoll = time.Now().Add(interval)
}

// takeFingerprint walks root with the same policy a build uses and hashes
// the metadata of every candidate. File contents are never read.
func takeFingerprint(ctx context.Context, root string) (*fingerprint, error) {
	cfg := config.LoadConfig(root)
	cfg.ApplyEnv()
	walk, err := discover.Discover(ctx, root, &discover.Options{
		IncludeRoots:    cfg.IncludeDirCandidates(root),
		ExcludeDirs:     cfg.ExcludeDirSet(),
		ExcludePatterns: cfg.AllExcludePatterns(),
		MaxFiles:        cfg.EffectiveMaxFiles(),
		DetectVenvs:     cfg.EffectiveDetectVenvs(),
		RootFiles:       true,
	})
	if err != nil {
		return nil, err
	}

	h := xxh3.New()
	buf := make([]byte, 0, 256)
	for _, f := range walk.Files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		buf = append(buf[:0], f.RelPath...)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, info.Size(), 10)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 10)
		buf = append(buf, '\n')
		_, _ = h.Write(buf)
	}
	return &fingerprint{files: len(walk.Files), hash: h.Sum64()}, nil
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	return min(baseInterval+time.Duration(fileCount/500)*time.Second, maxInterval)
}
