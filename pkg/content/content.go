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

// Package content models a file's text as an immutable snapshot of lines.
// The line-terminator style is recorded once per file so snapshots round-trip
// back to the original bytes.
package content

import (
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📄 Content is an ordered sequence of text lines plus the terminator style
// of the file they came from. A Content value never changes after capture;
// transformations produce new values.
type Content struct {
	lines       []string
	eol         string
	trailingEOL bool
}

// 🏭 FromString captures a snapshot from raw file text. The terminator style
// is detected from the first line break (CRLF wins over LF when present).
func FromString(text string) Content {
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}

	if text == "" {
		return Content{eol: eol}
	}

	trailing := strings.HasSuffix(text, eol)
	if trailing {
		text = strings.TrimSuffix(text, eol)
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	return Content{
		lines:       strings.Split(normalized, "\n"),
		eol:         eol,
		trailingEOL: trailing,
	}
}

// 🏭 FromLines captures a snapshot from a line slice, with LF terminators
// and a trailing newline. The slice is copied.
func FromLines(lines []string) Content {
	return Content{
		lines:       append([]string(nil), lines...),
		eol:         "\n",
		trailingEOL: len(lines) > 0,
	}
}

// 🔄 WithLines returns a new snapshot holding the given lines but keeping
// this file's terminator style. The slice is copied.
func (c Content) WithLines(lines []string) Content {
	return Content{
		lines:       append([]string(nil), lines...),
		eol:         c.eol,
		trailingEOL: c.trailingEOL || len(c.lines) == 0,
	}
}

// 📋 Lines returns a copy of the line slice.
func (c Content) Lines() []string {
	return append([]string(nil), c.lines...)
}

// 🔢 Len returns the number of lines.
func (c Content) Len() int {
	return len(c.lines)
}

// 📝 Line returns the 1-based line n. Callers must keep n in [1, Len()].
func (c Content) Line(n int) string {
	return c.lines[n-1]
}

// 🔚 EOL returns the recorded line-terminator style ("\n" or "\r\n").
func (c Content) EOL() string {
	if c.eol == "" {
		return "\n"
	}
	return c.eol
}

// 📝 String renders the snapshot back to file text, reproducing the
// original terminator style and trailing-newline state.
func (c Content) String() string {
	if len(c.lines) == 0 {
		return ""
	}
	out := strings.Join(c.lines, c.EOL())
	if c.trailingEOL {
		out += c.EOL()
	}
	return out
}

// 🔍 Equal reports whether two snapshots hold identical lines.
// Terminator style is ignored; it is presentation, not content.
func (c Content) Equal(other Content) bool {
	if len(c.lines) != len(other.lines) {
		return false
	}
	for i := range c.lines {
		if c.lines[i] != other.lines[i] {
			return false
		}
	}
	return true
}

// contentJSON is the persisted shape of a snapshot.
type contentJSON struct {
	Lines       []string `json:"lines"`
	EOL         string   `json:"eol"`
	TrailingEOL bool     `json:"trailing_eol"`
}

// MarshalJSON implements json.Marshaler.
func (c Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(contentJSON{
		Lines:       c.lines,
		EOL:         c.EOL(),
		TrailingEOL: c.trailingEOL,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	var raw contentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Errorf("decoding content snapshot: %w", err)
	}
	c.lines = raw.Lines
	c.eol = raw.EOL
	c.trailingEOL = raw.TrailingEOL
	return nil
}
