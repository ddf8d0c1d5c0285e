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

// Package patch defines the closed set of patch operation variants and the
// per-file queue of pending operations. Operations are validated on
// construction and immutable afterwards; no operation inspects file state
// until it is applied. All line numbers are 1-based and refer to the
// original content coordinates at enqueue time, never to post-edit
// coordinates.
package patch

import (
	"fmt"
	"strings"

	"github.com/walteh/patchrc/pkg/match"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidOperation is returned when an operation is constructed with bad
// parameters: non-positive line numbers, start after end, a pattern that
// fails to compile, or a fuzzy threshold outside (0, 1].
var ErrInvalidOperation = errors.Base("invalid patch operation")

// 🔧 Kind identifies an operation variant.
type Kind int

const (
	KindInsertAtLine Kind = iota
	KindReplaceRange
	KindReplaceByPattern
	KindInsertAfterPattern
	KindInsertBeforePattern
	KindAppendToEnd
	KindDeleteRange
)

// String returns the variant name as used in fix-set files.
func (k Kind) String() string {
	switch k {
	case KindInsertAtLine:
		return "insert_at_line"
	case KindReplaceRange:
		return "replace_range"
	case KindReplaceByPattern:
		return "replace_by_pattern"
	case KindInsertAfterPattern:
		return "insert_after_pattern"
	case KindInsertBeforePattern:
		return "insert_before_pattern"
	case KindAppendToEnd:
		return "append_to_end"
	case KindDeleteRange:
		return "delete_range"
	default:
		return "unknown"
	}
}

// 🎯 ScopeKind selects which pattern matches an operation applies to.
type ScopeKind int

const (
	ScopeFirstMatch ScopeKind = iota
	ScopeAllMatches
	ScopeNthMatch
)

// Scope pairs a scope kind with the 1-based match index for NthMatch.
type Scope struct {
	Kind ScopeKind
	N    int
}

// FirstMatch scopes an operation to the first pattern match.
func FirstMatch() Scope { return Scope{Kind: ScopeFirstMatch} }

// AllMatches scopes an operation to every pattern match (zero or more).
func AllMatches() Scope { return Scope{Kind: ScopeAllMatches} }

// NthMatch scopes an operation to the n-th pattern match, 1-based.
func NthMatch(n int) Scope { return Scope{Kind: ScopeNthMatch, N: n} }

// String returns the scope in fix-set file form.
func (s Scope) String() string {
	switch s.Kind {
	case ScopeAllMatches:
		return "all"
	case ScopeNthMatch:
		return fmt.Sprintf("nth:%d", s.N)
	default:
		return "first"
	}
}

// 🔍 MatchSpec carries the match mode of a pattern-anchored operation.
type MatchSpec struct {
	// Mode is exact (regular expression) or fuzzy (similarity).
	Mode match.Mode
	// Threshold is the fuzzy similarity cutoff in (0, 1]; zero means the
	// matcher default of 0.8.
	Threshold float64
	// MultiLineWindow bounds how many lines an exact match may span.
	MultiLineWindow int
}

// Exact is the zero MatchSpec: regular-expression matching within one line.
func Exact() MatchSpec { return MatchSpec{Mode: match.ModeExact} }

// Fuzzy builds a similarity MatchSpec with the given threshold.
func Fuzzy(threshold float64) MatchSpec {
	return MatchSpec{Mode: match.ModeFuzzy, Threshold: threshold}
}

// Pattern converts the spec plus an expression into a matcher pattern.
func (m MatchSpec) Pattern(expr string) match.Pattern {
	return match.Pattern{
		Expr:            expr,
		Mode:            m.Mode,
		Threshold:       m.Threshold,
		MultiLineWindow: m.MultiLineWindow,
	}
}

// 📦 Operation is one queued edit. The zero value is not valid; use the
// New* constructors, which validate parameters up front.
type Operation struct {
	kind        Kind
	line        int
	startLine   int
	endLine     int
	pattern     string
	replacement string
	lines       []string
	scope       Scope
	spec        MatchSpec
}

// Kind returns the operation variant.
func (op Operation) Kind() Kind { return op.kind }

// Line returns the anchor line of an insert-at-line operation.
func (op Operation) Line() int { return op.line }

// StartLine returns the first line of a range operation.
func (op Operation) StartLine() int { return op.startLine }

// EndLine returns the last line of a range operation, inclusive.
func (op Operation) EndLine() int { return op.endLine }

// Pattern returns the pattern expression of a pattern-anchored operation.
func (op Operation) Pattern() string { return op.pattern }

// Replacement returns the replacement text of a replace-by-pattern
// operation. For exact mode it may reference capture groups ($1, ${name}).
func (op Operation) Replacement() string { return op.replacement }

// Lines returns a copy of the operation's payload lines.
func (op Operation) Lines() []string { return append([]string(nil), op.lines...) }

// Scope returns the match scope of a replace-by-pattern operation.
func (op Operation) Scope() Scope { return op.scope }

// MatchSpec returns the operation's match mode.
func (op Operation) MatchSpec() MatchSpec { return op.spec }

// String renders a short human-readable description.
func (op Operation) String() string {
	switch op.kind {
	case KindInsertAtLine:
		return fmt.Sprintf("insert %d line(s) at line %d", len(op.lines), op.line)
	case KindReplaceRange:
		return fmt.Sprintf("replace lines %d-%d", op.startLine, op.endLine)
	case KindReplaceByPattern:
		return fmt.Sprintf("replace %s match of %q", op.scope, op.pattern)
	case KindInsertAfterPattern:
		return fmt.Sprintf("insert %d line(s) after %q", len(op.lines), op.pattern)
	case KindInsertBeforePattern:
		return fmt.Sprintf("insert %d line(s) before %q", len(op.lines), op.pattern)
	case KindAppendToEnd:
		return fmt.Sprintf("append %d line(s)", len(op.lines))
	case KindDeleteRange:
		return fmt.Sprintf("delete lines %d-%d", op.startLine, op.endLine)
	default:
		return "unknown operation"
	}
}

// 🏭 NewInsertAtLine inserts lines before the given 1-based line.
func NewInsertAtLine(line int, lines []string) (Operation, error) {
	if line <= 0 {
		return Operation{}, errors.Errorf("%w: line number %d is not positive", ErrInvalidOperation, line)
	}
	return Operation{
		kind:  KindInsertAtLine,
		line:  line,
		lines: copyLines(lines),
	}, nil
}

// 🏭 NewReplaceRange replaces the inclusive line range [start, end].
func NewReplaceRange(start, end int, lines []string) (Operation, error) {
	if err := validateRange(start, end); err != nil {
		return Operation{}, err
	}
	return Operation{
		kind:      KindReplaceRange,
		startLine: start,
		endLine:   end,
		lines:     copyLines(lines),
	}, nil
}

// 🏭 NewReplaceByPattern replaces matched spans with the replacement text.
// In exact mode the replacement is expanded against the compiled pattern, so
// capture-group references survive; in fuzzy mode it is literal text.
func NewReplaceByPattern(pattern, replacement string, scope Scope, spec MatchSpec) (Operation, error) {
	if err := validatePattern(pattern, spec); err != nil {
		return Operation{}, err
	}
	if scope.Kind == ScopeNthMatch && scope.N <= 0 {
		return Operation{}, errors.Errorf("%w: nth-match index %d is not positive", ErrInvalidOperation, scope.N)
	}
	return Operation{
		kind:        KindReplaceByPattern,
		pattern:     pattern,
		replacement: replacement,
		scope:       scope,
		spec:        spec,
	}, nil
}

// 🏭 NewInsertAfterPattern inserts lines after the first matched span.
func NewInsertAfterPattern(pattern string, lines []string, spec MatchSpec) (Operation, error) {
	if err := validatePattern(pattern, spec); err != nil {
		return Operation{}, err
	}
	return Operation{
		kind:    KindInsertAfterPattern,
		pattern: pattern,
		lines:   copyLines(lines),
		spec:    spec,
	}, nil
}

// 🏭 NewInsertBeforePattern inserts lines before the first matched span.
func NewInsertBeforePattern(pattern string, lines []string, spec MatchSpec) (Operation, error) {
	if err := validatePattern(pattern, spec); err != nil {
		return Operation{}, err
	}
	return Operation{
		kind:    KindInsertBeforePattern,
		pattern: pattern,
		lines:   copyLines(lines),
		spec:    spec,
	}, nil
}

// 🏭 NewAppendToEnd appends lines after the last line of the file.
func NewAppendToEnd(lines []string) Operation {
	return Operation{
		kind:  KindAppendToEnd,
		lines: copyLines(lines),
	}
}

// 🏭 NewDeleteRange deletes the inclusive line range [start, end].
func NewDeleteRange(start, end int) (Operation, error) {
	if err := validateRange(start, end); err != nil {
		return Operation{}, err
	}
	return Operation{
		kind:      KindDeleteRange,
		startLine: start,
		endLine:   end,
	}, nil
}

func validateRange(start, end int) error {
	if start <= 0 {
		return errors.Errorf("%w: start line %d is not positive", ErrInvalidOperation, start)
	}
	if start > end {
		return errors.Errorf("%w: start line %d after end line %d", ErrInvalidOperation, start, end)
	}
	return nil
}

func validatePattern(pattern string, spec MatchSpec) error {
	if strings.TrimSpace(pattern) == "" {
		return errors.Errorf("%w: pattern is required", ErrInvalidOperation)
	}
	if spec.Mode == match.ModeFuzzy {
		if spec.Threshold != 0 && (spec.Threshold <= 0 || spec.Threshold > 1) {
			return errors.Errorf("%w: fuzzy threshold %v outside (0,1]", ErrInvalidOperation, spec.Threshold)
		}
		return nil
	}
	if err := match.Compile(spec.Pattern(pattern)); err != nil {
		return errors.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return nil
}

func copyLines(lines []string) []string {
	return append([]string(nil), lines...)
}
