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
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/apply"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/diff"
	"gitlab.com/tozd/go/errors"
)

// NewPreviewCmd creates the preview command
func NewPreviewCmd(ro *opts.RootOpts) *cobra.Command {
	f := &opFlags{}
	var contextLines int

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show the diff an apply would produce, without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]

			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Errorf("reading %s: %w", file, err)
			}
			before := content.FromString(string(data))

			q, err := f.queue(ro, file)
			if err != nil {
				return err
			}

			res, err := apply.Apply(cmd.Context(), before, q, apply.Strict)
			if err != nil {
				if errors.Is(err, apply.ErrConflict) {
					for _, c := range res.Report.Conflicts {
						ro.Logger.Warningf("conflict: %s vs %s (%s)",
							c.First.Op, c.Second.Op, c.Reason)
					}
				}
				return err
			}

			script := diff.Compute(before, res.Content)
			if !script.Changed() {
				ro.Logger.Info("no changes")
				return nil
			}

			unified := script.Unified("a/"+file, "b/"+file, contextLines)
			fmt.Fprint(cmd.OutOrStdout(), colorizeUnified(unified))
			return nil
		},
	}

	addOpFlags(cmd, f)
	cmd.Flags().IntVar(&contextLines, "context", diff.DefaultContext, "unchanged lines shown around each hunk")

	return cmd
}

// colorizeUnified colors a unified diff for terminal display.
func colorizeUnified(text string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			b.WriteString(color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(color.New(color.FgCyan).Sprint(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(color.New(color.FgGreen).Sprint(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(color.New(color.FgRed).Sprint(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
