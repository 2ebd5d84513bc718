// Package step runs the roadmap as one step of a larger bundle run and
// writes its artifacts under the run's workdir.
package step

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DeusData/codebase-roadmap/internal/config"
)

// Status is the outcome of a step.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
)

// Result reports one step run.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Seconds int    `json:"seconds"`
	Note    string `json:"note"`
}

// Context is what a step sees of the surrounding run.
type Context struct {
	// Root is the repository being scanned.
	Root string
	// Workdir receives artifacts; paths like meta/70_roadmap.json are
	// relative to it.
	Workdir string
	// Config is the policy. Nil means defaults.
	Config *config.Config
}

// Policy returns the configured policy or the defaults.
func (c *Context) Policy() *config.Config {
	if c.Config == nil {
		return config.DefaultConfig()
	}
	return c.Config
}

// Step is one unit of a bundle run.
type Step interface {
	StepName() string
	Run(ctx context.Context, sc *Context) Result
}

// RunAll runs steps in order and collects their results. A failing step does
// not stop the ones after it; cancellation marks the rest as skipped.
func RunAll(ctx context.Context, sc *Context, steps ...Step) []Result {
	results := make([]Result, 0, len(steps))
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Name: s.StepName(), Status: StatusSkip, Note: err.Error()})
			continue
		}
		results = append(results, s.Run(ctx, sc))
	}
	return results
}

func elapsedSeconds(start time.Time) int {
	return int(time.Since(start).Seconds())
}

// failOrSkip maps a run error to a result. Cancellation is a skip.
func failOrSkip(name string, start time.Time, err error) Result {
	status := StatusFail
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = StatusSkip
	}
	return Result{Name: name, Status: status, Seconds: elapsedSeconds(start), Note: err.Error()}
}

// writeArtifact writes data to workdir/rel, creating parent directories.
func writeArtifact(workdir, rel string, data []byte) error {
	p := filepath.Join(workdir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func writeJSON(workdir, rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rel, err)
	}
	return writeArtifact(workdir, rel, append(data, '\n'))
}
