// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package batch orchestrates patch application across many files. Files are
// selected with doublestar globs and processed in parallel, exactly one
// worker per file; the core is single-threaded per file and shares no state
// across files, so no locking is needed below this layer. Each file runs the
// same pipeline: read, apply, restore point, atomic write, history record.
// Per-file failures are collected, never fatal to the run.
package batch

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/apply"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/diff"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🔌 RestorePointer is the backup collaborator: it snapshots a file before a
// commit and hands back an opaque reference.
type RestorePointer interface {
	CreateRestorePoint(ctx context.Context, path string) (string, error)
}

// 🔌 Recorder receives the applied transition for undo/redo bookkeeping.
type Recorder interface {
	Record(ctx context.Context, fileID string, q *patch.Queue, before, after content.Content, backupRef string)
}

// 🔧 QueueFunc builds the patch queue for one selected file. Returning an
// empty queue skips the file.
type QueueFunc func(path string, c content.Content) (*patch.Queue, error)

// 📦 Options configure a runner.
type Options struct {
	// Root is the directory file globs are evaluated in.
	Root string
	// Include selects files; Ignore removes selected files.
	Include []string
	Ignore  []string
	// Workers bounds parallelism. Zero means one per CPU.
	Workers int
	// Mode is the conflict policy passed through to the applier.
	Mode apply.Mode
	// DryRun computes outcomes without touching any file.
	DryRun bool
	// Backups, when set, snapshots each file before it is written.
	Backups RestorePointer
	// History, when set, records each applied transition.
	History Recorder
}

// 📊 Outcome is one file's result.
type Outcome struct {
	Path string
	// Status is patched, unchanged, conflict or failed.
	Status    string
	Applied   int
	Skipped   int
	Stats     diff.Stats
	BackupRef string
	Err       error
}

// 📋 Summary aggregates a run.
type Summary struct {
	Outcomes  []Outcome
	Patched   int
	Unchanged int
	Failed    int
}

// 🏃 Runner executes batch runs.
type Runner struct {
	opts Options
}

// 🏭 NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Runner{opts: opts}
}

// ▶️ Run selects files and processes each through the pipeline. The summary
// is ordered by path regardless of worker scheduling.
func (r *Runner) Run(ctx context.Context, queueFor QueueFunc) (*Summary, error) {
	files, err := r.selectFiles()
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Int("files", len(files)).
		Int("workers", r.opts.Workers).
		Bool("dry_run", r.opts.DryRun).
		Msg("starting batch run")

	var mu sync.Mutex
	outcomes := make([]Outcome, 0, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			outcome := r.processFile(gctx, file, queueFor)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Path < outcomes[j].Path })

	summary := &Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case "patched":
			summary.Patched++
		case "unchanged":
			summary.Unchanged++
		default:
			summary.Failed++
		}
	}
	return summary, nil
}

// processFile runs the single-file pipeline. All failures land in the
// outcome; the file on disk is only replaced after a restore point exists.
func (r *Runner) processFile(ctx context.Context, path string, queueFor QueueFunc) Outcome {
	outcome := Outcome{Path: path}
	fail := func(err error) Outcome {
		outcome.Status = "failed"
		outcome.Err = err
		return outcome
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(errors.Errorf("reading %s: %w", path, err))
	}
	before := content.FromString(string(data))

	q, err := queueFor(path, before)
	if err != nil {
		return fail(errors.Errorf("building queue for %s: %w", path, err))
	}
	if q == nil || q.Len() == 0 {
		outcome.Status = "unchanged"
		return outcome
	}

	res, err := apply.Apply(ctx, before, q, r.opts.Mode)
	if err != nil {
		if errors.Is(err, apply.ErrConflict) {
			outcome.Status = "conflict"
			outcome.Err = err
			return outcome
		}
		return fail(err)
	}

	outcome.Applied = res.Applied
	outcome.Skipped = len(res.Report.Skipped)
	outcome.Stats = diff.Compute(before, res.Content).Stats()

	if !res.Content.Equal(before) {
		outcome.Status = "patched"
	} else {
		outcome.Status = "unchanged"
		return outcome
	}

	if r.opts.DryRun {
		return outcome
	}

	if r.opts.Backups != nil {
		ref, err := r.opts.Backups.CreateRestorePoint(ctx, path)
		if err != nil {
			return fail(errors.Errorf("restore point for %s: %w", path, err))
		}
		outcome.BackupRef = ref
	}

	if err := writeFileAtomic(path, []byte(res.Content.String()), 0o644); err != nil {
		return fail(err)
	}

	if r.opts.History != nil {
		r.opts.History.Record(ctx, path, q, before, res.Content, outcome.BackupRef)
	}
	return outcome
}

// selectFiles evaluates the include globs under root and filters the result
// through the ignore globs. Paths are unique and sorted.
func (r *Runner) selectFiles() ([]string, error) {
	fsys := os.DirFS(r.opts.Root)
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range r.opts.Include {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, errors.Errorf("bad include pattern %q: %w", pattern, err)
		}
	next:
		for _, m := range matches {
			info, err := os.Stat(joinRoot(r.opts.Root, m))
			if err != nil || info.IsDir() {
				continue
			}
			for _, ignore := range r.opts.Ignore {
				ok, err := doublestar.Match(ignore, m)
				if err != nil {
					return nil, errors.Errorf("bad ignore pattern %q: %w", ignore, err)
				}
				if ok {
					continue next
				}
			}
			full := joinRoot(r.opts.Root, m)
			if !seen[full] {
				seen[full] = true
				files = append(files, full)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
