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

// Package diff computes minimal line-level edit scripts between two content
// snapshots. Lines are the atomic tokens; the script is a sequence of
// equal/insert/delete/replace spans over 1-based, half-open line ranges.
// Scripts are self-contained (they carry both old and new lines), so they
// can be inverted without recomputation and replayed without access to the
// content they were computed from.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/patchrc/pkg/content"
	"gitlab.com/tozd/go/errors"
)

// ErrScriptMismatch is returned when a script is replayed against content
// whose shape does not match the script's original side.
var ErrScriptMismatch = errors.Base("edit script does not match content")

// 🔧 Kind classifies one edit-script entry.
type Kind int

const (
	Equal Kind = iota
	Insert
	Delete
	Replace
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// 📐 Span is a half-open, 1-based line range [Start, End). An empty span
// (Start == End) marks an insertion point.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines covered.
func (s Span) Len() int { return s.End - s.Start }

// 📝 Edit is one entry of an edit script.
type Edit struct {
	Kind Kind `json:"kind"`
	// Orig is the covered range in the original content.
	Orig Span `json:"orig"`
	// Res is the covered range in the resulting content.
	Res Span `json:"res"`
	// OldLines are the original lines (equal, delete, replace).
	OldLines []string `json:"old_lines,omitempty"`
	// NewLines are the resulting lines (insert, replace).
	NewLines []string `json:"new_lines,omitempty"`
}

// 📜 Result is an ordered edit script. Applying it to the original content
// reproduces the resulting content exactly.
type Result struct {
	Edits []Edit `json:"edits"`
}

// Changed reports whether the script contains any non-equal entry.
func (r Result) Changed() bool {
	for _, e := range r.Edits {
		if e.Kind != Equal {
			return true
		}
	}
	return false
}

// 📊 Stats summarizes a script.
type Stats struct {
	Added    int
	Deleted  int
	Replaced int
}

// Stats counts the changed lines per kind.
func (r Result) Stats() Stats {
	var s Stats
	for _, e := range r.Edits {
		switch e.Kind {
		case Insert:
			s.Added += len(e.NewLines)
		case Delete:
			s.Deleted += len(e.OldLines)
		case Replace:
			s.Replaced += max(len(e.OldLines), len(e.NewLines))
		}
	}
	return s
}

// 🧮 Compute builds the minimal edit script from original to resulting.
// Lines are mapped to single runes and diffed in line mode, then the rune
// runs are coalesced into opcodes; a deletion adjacent to an insertion at
// the same position becomes a single replace, with the deletion side first
// (stable, deterministic output).
func Compute(original, resulting content.Content) Result {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(joinForDiff(original), joinForDiff(resulting))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var edits []Edit
	origLine, resLine := 1, 1

	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		lines := splitChunk(d.Text)
		if len(lines) == 0 {
			continue
		}

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			edits = append(edits, Edit{
				Kind:     Equal,
				Orig:     Span{origLine, origLine + len(lines)},
				Res:      Span{resLine, resLine + len(lines)},
				OldLines: lines,
			})
			origLine += len(lines)
			resLine += len(lines)

		case diffmatchpatch.DiffDelete:
			// Coalesce with a directly following insertion into a replace.
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				newLines := splitChunk(diffs[i+1].Text)
				edits = append(edits, Edit{
					Kind:     Replace,
					Orig:     Span{origLine, origLine + len(lines)},
					Res:      Span{resLine, resLine + len(newLines)},
					OldLines: lines,
					NewLines: newLines,
				})
				origLine += len(lines)
				resLine += len(newLines)
				i++
				continue
			}
			edits = append(edits, Edit{
				Kind:     Delete,
				Orig:     Span{origLine, origLine + len(lines)},
				Res:      Span{resLine, resLine},
				OldLines: lines,
			})
			origLine += len(lines)

		case diffmatchpatch.DiffInsert:
			edits = append(edits, Edit{
				Kind:     Insert,
				Orig:     Span{origLine, origLine},
				Res:      Span{resLine, resLine + len(lines)},
				NewLines: lines,
			})
			resLine += len(lines)
		}
	}

	return Result{Edits: edits}
}

// 🔄 Invert swaps the original and resulting roles of a script, turning a
// forward diff into a backward one without recomputation.
func Invert(r Result) Result {
	out := make([]Edit, len(r.Edits))
	for i, e := range r.Edits {
		inv := Edit{
			Orig:     e.Res,
			Res:      e.Orig,
			OldLines: e.NewLines,
			NewLines: e.OldLines,
		}
		switch e.Kind {
		case Equal:
			inv.Kind = Equal
			inv.OldLines = e.OldLines
			inv.NewLines = nil
		case Insert:
			inv.Kind = Delete
		case Delete:
			inv.Kind = Insert
		case Replace:
			inv.Kind = Replace
		}
		out[i] = inv
	}
	return Result{Edits: out}
}

// ▶️ Apply replays a script against original content, producing the
// resulting content. The script's original-side spans must tile the given
// content exactly; otherwise ErrScriptMismatch is returned and no content
// is produced.
func Apply(original content.Content, r Result) (content.Content, error) {
	lines := original.Lines()
	var out []string
	cursor := 1

	for _, e := range r.Edits {
		if e.Orig.Start != cursor {
			return content.Content{}, errors.Errorf(
				"%w: entry starts at line %d, expected %d", ErrScriptMismatch, e.Orig.Start, cursor)
		}
		if e.Orig.End-1 > len(lines) {
			return content.Content{}, errors.Errorf(
				"%w: entry covers lines %d-%d beyond %d content lines",
				ErrScriptMismatch, e.Orig.Start, e.Orig.End-1, len(lines))
		}

		switch e.Kind {
		case Equal:
			out = append(out, lines[e.Orig.Start-1:e.Orig.End-1]...)
		case Insert, Replace:
			out = append(out, e.NewLines...)
		case Delete:
			// Covered original lines are dropped.
		}
		cursor = e.Orig.End
	}

	if cursor != len(lines)+1 {
		return content.Content{}, errors.Errorf(
			"%w: script ends at line %d, content has %d lines", ErrScriptMismatch, cursor-1, len(lines))
	}
	return original.WithLines(out), nil
}

// joinForDiff renders a snapshot with every line newline-terminated so the
// line-to-rune mapping is unambiguous.
func joinForDiff(c content.Content) string {
	lines := c.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// splitChunk splits a diff chunk of newline-terminated lines.
func splitChunk(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
