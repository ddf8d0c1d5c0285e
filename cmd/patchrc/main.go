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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/commands"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
)

func main() {
	ro := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "patchrc",
		Short: "A tool for queueing, previewing and applying textual patches",
		Long: `patchrc queues textual edits against files, previews them as diffs,
detects conflicting edits before they corrupt a file, applies them atomically,
and can undo or redo applied edit sets.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags are parsed by now; rebuild the logging context and the
			// shared dependencies.
			cmd.SetContext(setupLogging())
			built, err := newRootOpts(cmd.Context())
			if err != nil {
				return err
			}
			*ro = *built
			return nil
		},
	}

	// Add shared flags
	addRootFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(
		commands.NewApplyCmd(ro),
		commands.NewPreviewCmd(ro),
		commands.NewUndoCmd(ro),
		commands.NewRedoCmd(ro),
		commands.NewBatchCmd(ro),
		commands.NewFixesCmd(ro),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
