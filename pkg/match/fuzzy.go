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

package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/walteh/patchrc/pkg/content"
	"gitlab.com/tozd/go/errors"
)

// findFuzzy slides a window the height of the literal pattern over the
// content and yields every window whose similarity meets the threshold.
// Results are ordered by descending score, then ascending position.
func findFuzzy(c content.Content, p Pattern) ([]Span, error) {
	threshold := p.Threshold
	if threshold == 0 {
		threshold = DefaultFuzzyThreshold
	}
	if threshold <= 0 || threshold > 1 {
		return nil, errors.Errorf("%w: fuzzy threshold %v outside (0,1]", ErrInvalidPattern, threshold)
	}

	patternLines := strings.Split(strings.ReplaceAll(p.Expr, "\r\n", "\n"), "\n")
	height := len(patternLines)
	target := strings.Join(patternLines, "\n")

	lines := c.Lines()
	if height == 0 || height > len(lines) {
		return nil, nil
	}

	var spans []Span
	for i := 0; i+height <= len(lines); i++ {
		candidate := strings.Join(lines[i:i+height], "\n")
		score := Similarity(candidate, target)
		if score >= threshold {
			spans = append(spans, Span{
				StartLine: i + 1,
				EndLine:   i + height,
				Text:      strings.Join(lines[i:i+height], c.EOL()),
				Score:     score,
			})
		}
	}

	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a].Score != spans[b].Score {
			return spans[a].Score > spans[b].Score
		}
		return spans[a].StartLine < spans[b].StartLine
	})
	return spans, nil
}

// Similarity computes the Levenshtein-based similarity ratio between two
// strings: 1 − distance/max(runes(a), runes(b)), in [0, 1]. DiffLevenshtein
// counts runes, so the denominator must too or multi-byte text scores high.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// ClosestSpan finds the best-scoring window regardless of threshold, for
// diagnostics when a required fuzzy pattern is absent. The second return is
// false when the content is shorter than the pattern.
func ClosestSpan(c content.Content, p Pattern) (Span, bool) {
	patternLines := strings.Split(strings.ReplaceAll(p.Expr, "\r\n", "\n"), "\n")
	height := len(patternLines)
	target := strings.Join(patternLines, "\n")

	lines := c.Lines()
	if height == 0 || height > len(lines) {
		return Span{}, false
	}

	best := Span{Score: -1}
	for i := 0; i+height <= len(lines); i++ {
		candidate := strings.Join(lines[i:i+height], "\n")
		if score := Similarity(candidate, target); score > best.Score {
			best = Span{
				StartLine: i + 1,
				EndLine:   i + height,
				Text:      candidate,
				Score:     score,
			}
		}
	}
	return best, true
}
