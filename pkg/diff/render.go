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

package diff

import (
	"fmt"
	"strings"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// 📝 Unified renders the script in unified form. The script is
// format-agnostic; this is a pure projection of it.
func (r Result) Unified(fromName, toName string, context int) string {
	if context < 0 {
		context = DefaultContext
	}

	groups := groupEdits(r.Edits, context)
	if len(groups) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", fromName)
	fmt.Fprintf(&b, "+++ %s\n", toName)

	for _, group := range groups {
		first, last := group[0], group[len(group)-1]
		fmt.Fprintf(&b, "@@ -%s +%s @@\n",
			formatRange(first.Orig.Start, last.Orig.End),
			formatRange(first.Res.Start, last.Res.End))

		for _, e := range group {
			switch e.Kind {
			case Equal:
				for _, line := range e.OldLines {
					b.WriteString(" " + line + "\n")
				}
			case Delete, Replace:
				for _, line := range e.OldLines {
					b.WriteString("-" + line + "\n")
				}
			}
			switch e.Kind {
			case Insert, Replace:
				for _, line := range e.NewLines {
					b.WriteString("+" + line + "\n")
				}
			}
		}
	}
	return b.String()
}

// formatRange renders a half-open 1-based span in unified header form.
func formatRange(start, end int) string {
	count := end - start
	if count == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// groupEdits splits the script into hunks, trimming equal runs down to the
// requested context and dropping all-equal scripts.
func groupEdits(edits []Edit, context int) [][]Edit {
	changed := false
	for _, e := range edits {
		if e.Kind != Equal {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	codes := append([]Edit(nil), edits...)

	// Trim leading and trailing context.
	if len(codes) > 0 && codes[0].Kind == Equal {
		codes[0] = trimEqualHead(codes[0], context)
	}
	if n := len(codes) - 1; n >= 0 && codes[n].Kind == Equal {
		codes[n] = trimEqualTail(codes[n], context)
	}

	var groups [][]Edit
	var group []Edit
	for _, e := range codes {
		if e.Kind == Equal && e.Orig.Len() > 2*context {
			head := trimEqualTail(e, context)
			group = append(group, head)
			groups = append(groups, group)
			group = nil
			e = trimEqualHead(e, context)
		}
		group = append(group, e)
	}
	if len(group) > 0 && !(len(group) == 1 && group[0].Kind == Equal) {
		groups = append(groups, group)
	}
	return groups
}

// trimEqualHead keeps only the last n lines of an equal entry.
func trimEqualHead(e Edit, n int) Edit {
	drop := e.Orig.Len() - n
	if drop <= 0 {
		return e
	}
	e.Orig.Start += drop
	e.Res.Start += drop
	e.OldLines = e.OldLines[drop:]
	return e
}

// trimEqualTail keeps only the first n lines of an equal entry.
func trimEqualTail(e Edit, n int) Edit {
	drop := e.Orig.Len() - n
	if drop <= 0 {
		return e
	}
	e.Orig.End -= drop
	e.Res.End -= drop
	e.OldLines = e.OldLines[:len(e.OldLines)-drop]
	return e
}
