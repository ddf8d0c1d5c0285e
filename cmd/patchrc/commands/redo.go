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
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// NewRedoCmd creates the redo command
func NewRedoCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "redo FILE",
		Short: "Re-apply the most recently undone patch set on a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]

			restored, err := ro.History.Redo(cmd.Context(), file)
			if err != nil {
				return err
			}
			if err := os.WriteFile(file, []byte(restored.String()), 0o644); err != nil {
				return errors.Errorf("writing %s: %w", file, err)
			}

			ro.Logger.LogFileResult(cmd.Context(), log.FileResult{
				Path:   file,
				Status: "patched",
			})
			return ro.SaveHistory()
		},
	}
}
