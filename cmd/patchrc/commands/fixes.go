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

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
)

// NewFixesCmd creates the fixes command
func NewFixesCmd(ro *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "fixes",
		Short: "List the available predefined fixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, set := range ro.Fixes.Sets() {
				fmt.Fprintf(out, "%s %s\n",
					color.New(color.Bold, color.FgCyan).Sprint(set.Name),
					color.New(color.Faint).Sprint(set.Description))
				for _, fix := range set.Fixes {
					fmt.Fprintf(out, "    %s %s %s\n",
						color.New(color.FgGreen).Sprintf("%-28s", set.Name+"/"+fix.ID),
						fmt.Sprintf("%-10s", fix.Severity),
						fix.Name)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
