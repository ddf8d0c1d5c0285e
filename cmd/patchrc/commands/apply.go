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
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/apply"
	"github.com/walteh/patchrc/pkg/batch"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/log"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

// NewApplyCmd creates the apply command
func NewApplyCmd(ro *opts.RootOpts) *cobra.Command {
	f := &opFlags{}
	var lenient bool

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Apply queued operations to one file",
		Long: `Apply builds a patch queue from the operation flags, resolves pattern
anchors against the file, refuses conflicting edits, and commits the result
atomically. A restore point is created before the file is replaced, and the
applied set is recorded for undo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]

			mode := apply.Strict
			if lenient {
				mode = apply.Lenient
			}

			runner := batch.NewRunner(batch.Options{
				Root:    filepath.Dir(file),
				Include: []string{filepath.Base(file)},
				Workers: 1,
				Mode:    mode,
				Backups: ro.Backups,
				History: ro.History,
			})

			summary, err := runner.Run(cmd.Context(), func(path string, c content.Content) (*patch.Queue, error) {
				return f.queue(ro, path)
			})
			if err != nil {
				return err
			}
			if len(summary.Outcomes) == 0 {
				return errors.Errorf("no such file: %s", file)
			}

			outcome := summary.Outcomes[0]
			ro.Logger.LogFileResult(cmd.Context(), log.FileResult{
				Path:      outcome.Path,
				Status:    outcome.Status,
				Applied:   outcome.Applied,
				Skipped:   outcome.Skipped,
				Added:     outcome.Stats.Added,
				Deleted:   outcome.Stats.Deleted,
				Replaced:  outcome.Stats.Replaced,
				BackupRef: outcome.BackupRef,
			})
			if outcome.Err != nil {
				return outcome.Err
			}
			return ro.SaveHistory()
		},
	}

	addOpFlags(cmd, f)
	cmd.Flags().BoolVar(&lenient, "lenient", false, "skip conflicting operations instead of failing")

	return cmd
}
