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

// Package match locates candidate line spans for pattern-anchored patch
// operations. Exact mode evaluates a compiled regular expression against the
// joined file text; fuzzy mode scores sliding line windows by normalized
// edit-distance similarity. The matcher never mutates content and identical
// inputs always yield identically ordered output.
package match

import (
	"regexp"
	"strings"

	"github.com/walteh/patchrc/pkg/content"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidPattern is returned before any matching is attempted when a
// pattern's regular expression syntax is malformed.
var ErrInvalidPattern = errors.Base("invalid pattern")

// DefaultFuzzyThreshold is the similarity cutoff used when a fuzzy pattern
// does not set one.
const DefaultFuzzyThreshold = 0.8

// 🔍 Mode selects the matching strategy for a pattern.
type Mode int

const (
	// ModeExact treats the pattern as a regular expression.
	ModeExact Mode = iota
	// ModeFuzzy treats the pattern as literal text matched by similarity.
	ModeFuzzy
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// 🎯 Pattern is a specification the matcher resolves against content.
type Pattern struct {
	// Expr is the regular expression (exact mode) or literal text (fuzzy mode).
	Expr string
	// Mode selects exact or fuzzy matching.
	Mode Mode
	// Threshold is the minimum fuzzy similarity in (0, 1].
	// Zero means DefaultFuzzyThreshold.
	Threshold float64
	// MultiLineWindow bounds how many lines an exact match may span when the
	// pattern is evaluated against joined text. Zero or one means matches
	// must stay within a single line.
	MultiLineWindow int
}

// 📐 Span is one candidate position: an inclusive 1-based line range, the
// matched text, and the similarity score (1.0 for exact matches).
type Span struct {
	StartLine int
	EndLine   int
	Text      string
	Score     float64
}

// Compile validates the pattern's regular expression syntax. Fuzzy patterns
// are literal text and always compile.
func Compile(p Pattern) error {
	if p.Mode != ModeExact {
		return nil
	}
	if _, err := regexp.Compile(p.Expr); err != nil {
		return errors.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return nil
}

// Find resolves a pattern against content, returning candidate spans.
// Exact results are ordered by ascending position; fuzzy results by
// descending score, then ascending position. An empty result is not an
// error; callers decide whether "no match" fails their operation.
func Find(c content.Content, p Pattern) ([]Span, error) {
	if p.Mode == ModeFuzzy {
		return findFuzzy(c, p)
	}
	return findExact(c, p)
}

// findExact compiles the pattern once and evaluates it against the whole
// text joined with the file's line separator, so patterns may span lines.
// Byte offsets are mapped back to line coordinates and matches wider than
// the multi-line window are discarded.
func findExact(c content.Content, p Pattern) ([]Span, error) {
	re, err := regexp.Compile(p.Expr)
	if err != nil {
		return nil, errors.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	lines := c.Lines()
	if len(lines) == 0 {
		return nil, nil
	}

	eol := c.EOL()
	joined := strings.Join(lines, eol)

	// Byte offset of the start of each line within joined.
	starts := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		starts[i] = offset
		offset += len(line) + len(eol)
	}

	window := p.MultiLineWindow
	if window < 1 {
		window = 1
	}

	var spans []Span
	for _, loc := range re.FindAllStringIndex(joined, -1) {
		start := lineAt(starts, loc[0])
		end := start
		if loc[1] > loc[0] {
			end = lineAt(starts, loc[1]-1)
		}
		if end-start+1 > window {
			continue
		}
		span := Span{
			StartLine: start + 1,
			EndLine:   end + 1,
			Text:      strings.Join(lines[start:end+1], eol),
			Score:     1.0,
		}
		// Several matches inside one line resolve to the same span.
		if n := len(spans); n > 0 && spans[n-1].StartLine == span.StartLine && spans[n-1].EndLine == span.EndLine {
			continue
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// lineAt returns the 0-based index of the line containing byte offset pos.
func lineAt(starts []int, pos int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
