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

// Package apply executes a patch queue against a content snapshot. Pattern
// anchors are resolved against the ORIGINAL content, conflicts between the
// resolved ranges are detected before anything is touched, and effective
// operations are applied in descending original-coordinate order so that no
// applied operation shifts the anchor of one still pending. Apply is
// all-or-nothing per call: any resolution failure returns the original
// content unchanged.
package apply

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrPatternNotFound is returned when a required pattern has no match.
	ErrPatternNotFound = errors.Base("pattern not found")
	// ErrAmbiguousMatch is returned when an nth-match scope asks for a match
	// index beyond the number of matches present.
	ErrAmbiguousMatch = errors.Base("ambiguous pattern match")
	// ErrRangeOutOfBounds is returned when an operation's line numbers exceed
	// the content length.
	ErrRangeOutOfBounds = errors.Base("line range out of bounds")
	// ErrConflict is returned in strict mode when resolved ranges overlap.
	ErrConflict = errors.Base("conflicting operations")
)

// 🔧 Mode selects the conflict policy.
type Mode int

const (
	// Strict refuses to apply anything when any two operations conflict.
	Strict Mode = iota
	// Lenient drops every operation involved in a conflict and applies the
	// rest. Dropping both sides keeps the outcome symmetric in enqueue order.
	Lenient
)

// 📐 Span is a half-open, 1-based line range in original coordinates.
// An empty span (Start == End) is a pure insertion point.
type Span struct {
	Start int
	End   int
}

// Len returns the number of covered lines.
func (s Span) Len() int { return s.End - s.Start }

// IsPoint reports whether the span is a pure insertion point.
func (s Span) IsPoint() bool { return s.Start == s.End }

// 📦 Effective is an operation after anchor resolution: a concrete
// original-coordinate span plus the lines that replace it. NewLines is nil
// for deletions; splicing NewLines over the span is the whole application.
type Effective struct {
	// Op is the queued operation this instance came from. An AllMatches
	// scope yields one Effective per match of the same Op.
	Op patch.Operation
	// Index is the operation's 0-based enqueue position.
	Index int
	// Span is the resolved original-coordinate range.
	Span Span
	// NewLines replace the span's lines.
	NewLines []string
}

// ⚔️ Conflict is a pair of effective operations whose resolved ranges
// overlap. Flagging is symmetric: (A,B) conflicts iff (B,A) does.
type Conflict struct {
	First  Effective
	Second Effective
	Reason string
}

// 📋 Report lists detected conflicts and, in lenient mode, the operations
// skipped because of them.
type Report struct {
	Conflicts []Conflict
	Skipped   []Effective
}

// HasConflicts reports whether any conflict was detected.
func (r Report) HasConflicts() bool { return len(r.Conflicts) > 0 }

// 📊 Result is a completed apply.
type Result struct {
	// Content is the resulting snapshot. On conflict in strict mode it is
	// the original, untouched.
	Content content.Content
	// Report carries detected conflicts.
	Report Report
	// Applied is the number of effective operations applied.
	Applied int
}

// ▶️ Apply resolves, conflict-checks and executes a queue against a
// snapshot. The original content is never mutated; the result is a new
// snapshot. Resolution failures abort the whole call.
func Apply(ctx context.Context, c content.Content, q *patch.Queue, mode Mode) (Result, error) {
	logger := zerolog.Ctx(ctx)

	effective, err := Resolve(c, q)
	if err != nil {
		return Result{Content: c}, err
	}

	report := Report{Conflicts: detectConflicts(effective)}
	if report.HasConflicts() {
		if mode == Strict {
			return Result{Content: c, Report: report}, errors.Errorf(
				"%w: %d conflicting pair(s) in queue for %s", ErrConflict, len(report.Conflicts), q.File())
		}
		effective, report.Skipped = dropConflicting(effective, report.Conflicts)
		logger.Debug().
			Str("file", q.File()).
			Int("skipped", len(report.Skipped)).
			Msg("dropped conflicting operations")
	}

	ordered := append([]Effective(nil), effective...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start > b.Span.Start
		}
		// Insertions at the same anchor stack in enqueue order, which under
		// bottom-up application means the later-enqueued one goes in first.
		if a.Span.IsPoint() && b.Span.IsPoint() {
			return a.Index > b.Index
		}
		return a.Index < b.Index
	})

	lines := c.Lines()
	for _, eff := range ordered {
		lines = splice(lines, eff.Span, eff.NewLines)
	}

	logger.Debug().
		Str("file", q.File()).
		Int("operations", q.Len()).
		Int("applied", len(ordered)).
		Msg("applied patch queue")

	return Result{
		Content: c.WithLines(lines),
		Report:  report,
		Applied: len(ordered),
	}, nil
}

// 🔍 Resolve turns every queued operation into zero or more effective
// operations with concrete original-coordinate spans. Pattern anchors are
// resolved via the matcher; line anchors are bounds-checked against the
// snapshot.
func Resolve(c content.Content, q *patch.Queue) ([]Effective, error) {
	var out []Effective
	for i, op := range q.Ops() {
		effs, err := resolveOne(c, op, i)
		if err != nil {
			return nil, err
		}
		out = append(out, effs...)
	}
	return out, nil
}

func resolveOne(c content.Content, op patch.Operation, index int) ([]Effective, error) {
	n := c.Len()

	switch op.Kind() {
	case patch.KindInsertAtLine:
		// Inserting at line n+1 appends; anything past that is out of bounds.
		if op.Line() > n+1 {
			return nil, errors.Errorf("%w: %s against %d line(s)", ErrRangeOutOfBounds, op, n)
		}
		return []Effective{{
			Op:       op,
			Index:    index,
			Span:     Span{op.Line(), op.Line()},
			NewLines: op.Lines(),
		}}, nil

	case patch.KindReplaceRange, patch.KindDeleteRange:
		if op.EndLine() > n {
			return nil, errors.Errorf("%w: %s against %d line(s)", ErrRangeOutOfBounds, op, n)
		}
		return []Effective{{
			Op:       op,
			Index:    index,
			Span:     Span{op.StartLine(), op.EndLine() + 1},
			NewLines: op.Lines(),
		}}, nil

	case patch.KindAppendToEnd:
		return []Effective{{
			Op:       op,
			Index:    index,
			Span:     Span{n + 1, n + 1},
			NewLines: op.Lines(),
		}}, nil

	case patch.KindReplaceByPattern:
		return resolveReplaceByPattern(c, op, index)

	case patch.KindInsertAfterPattern, patch.KindInsertBeforePattern:
		span, err := firstMatch(c, op)
		if err != nil {
			return nil, err
		}
		anchor := span.StartLine
		if op.Kind() == patch.KindInsertAfterPattern {
			anchor = span.EndLine + 1
		}
		return []Effective{{
			Op:       op,
			Index:    index,
			Span:     Span{anchor, anchor},
			NewLines: op.Lines(),
		}}, nil

	default:
		return nil, errors.Errorf("%w: unhandled kind %v", patch.ErrInvalidOperation, op.Kind())
	}
}

func resolveReplaceByPattern(c content.Content, op patch.Operation, index int) ([]Effective, error) {
	spans, err := match.Find(c, op.MatchSpec().Pattern(op.Pattern()))
	if err != nil {
		return nil, err
	}

	var picked []match.Span
	switch op.Scope().Kind {
	case patch.ScopeAllMatches:
		// Zero matches is a valid no-op for this scope.
		picked = spans
	case patch.ScopeNthMatch:
		if len(spans) == 0 {
			return nil, notFound(c, op)
		}
		if len(spans) < op.Scope().N {
			return nil, errors.Errorf("%w: %s found only %d match(es)", ErrAmbiguousMatch, op, len(spans))
		}
		picked = spans[op.Scope().N-1 : op.Scope().N]
	default:
		if len(spans) == 0 {
			return nil, notFound(c, op)
		}
		picked = spans[:1]
	}

	out := make([]Effective, 0, len(picked))
	for _, span := range picked {
		newLines, err := replacementLines(op, span)
		if err != nil {
			return nil, err
		}
		out = append(out, Effective{
			Op:       op,
			Index:    index,
			Span:     Span{span.StartLine, span.EndLine + 1},
			NewLines: newLines,
		})
	}
	return out, nil
}

// replacementLines produces the lines that replace a matched span. In exact
// mode the replacement is expanded against the compiled pattern over the
// matched text, so $1-style capture references work; in fuzzy mode the
// pattern is literal text and the replacement is taken verbatim.
func replacementLines(op patch.Operation, span match.Span) ([]string, error) {
	if op.MatchSpec().Mode == match.ModeFuzzy {
		return splitReplacement(op.Replacement()), nil
	}
	re, err := regexp.Compile(op.Pattern())
	if err != nil {
		return nil, errors.Errorf("%w: %w", match.ErrInvalidPattern, err)
	}
	return splitReplacement(re.ReplaceAllString(span.Text, op.Replacement())), nil
}

func splitReplacement(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// firstMatch resolves the anchor for the insert-before/after variants.
func firstMatch(c content.Content, op patch.Operation) (match.Span, error) {
	spans, err := match.Find(c, op.MatchSpec().Pattern(op.Pattern()))
	if err != nil {
		return match.Span{}, err
	}
	if len(spans) == 0 {
		return match.Span{}, notFound(c, op)
	}
	return spans[0], nil
}

// notFound builds the pattern-absent failure. For fuzzy patterns the
// closest-scoring window is included so the caller can see how near the
// content came to matching.
func notFound(c content.Content, op patch.Operation) error {
	if op.MatchSpec().Mode == match.ModeFuzzy {
		if closest, ok := match.ClosestSpan(c, op.MatchSpec().Pattern(op.Pattern())); ok {
			return errors.Errorf("%w: %s; closest window at line %d scored %.2f",
				ErrPatternNotFound, op, closest.StartLine, closest.Score)
		}
	}
	return errors.Errorf("%w: %s", ErrPatternNotFound, op)
}

// detectConflicts flags every overlapping pair of resolved ranges. A pure
// insertion point L conflicts only with a range that contains L; two
// insertion points never conflict, and touching ranges do not overlap.
func detectConflicts(effective []Effective) []Conflict {
	var out []Conflict
	for i := 0; i < len(effective); i++ {
		for j := i + 1; j < len(effective); j++ {
			if reason, ok := overlap(effective[i].Span, effective[j].Span); ok {
				out = append(out, Conflict{
					First:  effective[i],
					Second: effective[j],
					Reason: reason,
				})
			}
		}
	}
	return out
}

func overlap(a, b Span) (string, bool) {
	switch {
	case a.IsPoint() && b.IsPoint():
		return "", false
	case a.IsPoint():
		if b.Start <= a.Start && a.Start < b.End {
			return "insertion point inside replaced or deleted range", true
		}
		return "", false
	case b.IsPoint():
		return overlap(b, a)
	case a.Start < b.End && b.Start < a.End:
		return "line ranges overlap", true
	default:
		return "", false
	}
}

// dropConflicting removes every effective operation that participates in at
// least one conflict, returning the survivors and the dropped set.
func dropConflicting(effective []Effective, conflicts []Conflict) (kept, skipped []Effective) {
	tainted := make(map[int]map[Span]bool)
	mark := func(e Effective) {
		if tainted[e.Index] == nil {
			tainted[e.Index] = make(map[Span]bool)
		}
		tainted[e.Index][e.Span] = true
	}
	for _, c := range conflicts {
		mark(c.First)
		mark(c.Second)
	}

	for _, e := range effective {
		if tainted[e.Index][e.Span] {
			skipped = append(skipped, e)
			continue
		}
		kept = append(kept, e)
	}
	return kept, skipped
}

// splice replaces the span's lines with newLines, returning a fresh slice.
func splice(lines []string, s Span, newLines []string) []string {
	start, end := s.Start-1, s.End-1
	out := make([]string, 0, len(lines)-s.Len()+len(newLines))
	out = append(out, lines[:start]...)
	out = append(out, newLines...)
	out = append(out, lines[end:]...)
	return out
}
