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

package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/apply"
	"github.com/walteh/patchrc/pkg/batch"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

// NewBatchCmd creates the batch command
func NewBatchCmd(ro *opts.RootOpts) *cobra.Command {
	f := &opFlags{}
	var (
		include []string
		ignore  []string
		workers int
		dryRun  bool
		lenient bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Apply operations across every file matched by the include globs",
		Long: `Batch selects files with doublestar globs and runs the apply pipeline on
each, one worker per file. Per-file failures are reported and never stop the
rest of the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg := ro.Config.Batch; cfg != nil {
				if len(include) == 0 {
					include = cfg.Include
				}
				if len(ignore) == 0 {
					ignore = cfg.Ignore
				}
				if workers == 0 {
					workers = cfg.Workers
				}
			}
			if len(include) == 0 {
				return errors.New("no files selected: pass --include or configure batch.include")
			}

			mode := apply.Strict
			if lenient {
				mode = apply.Lenient
			}

			runner := batch.NewRunner(batch.Options{
				Include: include,
				Ignore:  ignore,
				Workers: workers,
				Mode:    mode,
				DryRun:  dryRun,
				Backups: ro.Backups,
				History: ro.History,
			})

			label := "batch"
			if len(f.fixes) > 0 {
				label = "batch " + strings.Join(f.fixes, ", ")
			}
			ro.Logger.StartBatch(cmd.Context(), log.BatchRun{Label: label, Include: include})

			summary, err := runner.Run(cmd.Context(), func(path string, c content.Content) (*patch.Queue, error) {
				return f.queue(ro, path)
			})
			if err != nil {
				return err
			}

			for _, o := range summary.Outcomes {
				result := log.FileResult{
					Path:      o.Path,
					Status:    o.Status,
					Applied:   o.Applied,
					Skipped:   o.Skipped,
					Added:     o.Stats.Added,
					Deleted:   o.Stats.Deleted,
					Replaced:  o.Stats.Replaced,
					BackupRef: o.BackupRef,
				}
				ro.Logger.LogFileResult(cmd.Context(), result)
				if o.Err != nil {
					ro.Logger.Errorf("%s: %v", o.Path, o.Err)
				}
			}
			ro.Logger.EndBatch(cmd.Context())

			if !dryRun {
				if err := ro.SaveHistory(); err != nil {
					return err
				}
			}
			if summary.Failed > 0 {
				return errors.Errorf("%d file(s) failed", summary.Failed)
			}
			return nil
		},
	}

	addOpFlags(cmd, f)
	cmd.Flags().StringArrayVar(&include, "include", nil, "file selection globs")
	cmd.Flags().StringArrayVar(&ignore, "ignore", nil, "globs removed from the selection")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 means one per CPU)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "skip conflicting operations instead of failing the file")

	return cmd
}
