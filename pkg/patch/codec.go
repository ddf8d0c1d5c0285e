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

package patch

import (
	"strconv"
	"strings"

	"github.com/walteh/patchrc/pkg/match"
	"gitlab.com/tozd/go/errors"
)

// 📝 Encoded is the serialized form of an operation, shared by fix-set
// files (YAML) and persisted history (JSON). Decoding goes through the
// validating constructors, so a hand-written fix-set file cannot smuggle an
// invalid operation past construction checks.
type Encoded struct {
	Type            string   `json:"type"                        yaml:"type"`
	Line            int      `json:"line,omitempty"              yaml:"line,omitempty"`
	StartLine       int      `json:"start_line,omitempty"        yaml:"start_line,omitempty"`
	EndLine         int      `json:"end_line,omitempty"          yaml:"end_line,omitempty"`
	Pattern         string   `json:"pattern,omitempty"           yaml:"pattern,omitempty"`
	Replacement     string   `json:"replacement,omitempty"       yaml:"replacement,omitempty"`
	Lines           []string `json:"lines,omitempty"             yaml:"lines,omitempty"`
	Scope           string   `json:"scope,omitempty"             yaml:"scope,omitempty"`
	Mode            string   `json:"mode,omitempty"              yaml:"mode,omitempty"`
	Threshold       float64  `json:"threshold,omitempty"         yaml:"threshold,omitempty"`
	MultiLineWindow int      `json:"multi_line_window,omitempty" yaml:"multi_line_window,omitempty"`
}

// Encode serializes the operation.
func (op Operation) Encode() Encoded {
	e := Encoded{
		Type:            op.kind.String(),
		Pattern:         op.pattern,
		Replacement:     op.replacement,
		Lines:           op.Lines(),
		Threshold:       op.spec.Threshold,
		MultiLineWindow: op.spec.MultiLineWindow,
	}
	switch op.kind {
	case KindInsertAtLine:
		e.Line = op.line
	case KindReplaceRange, KindDeleteRange:
		e.StartLine = op.startLine
		e.EndLine = op.endLine
	case KindReplaceByPattern:
		e.Scope = op.scope.String()
	}
	if op.spec.Mode == match.ModeFuzzy {
		e.Mode = "fuzzy"
	}
	return e
}

// Decode rebuilds an operation through its validating constructor.
func Decode(e Encoded) (Operation, error) {
	spec := MatchSpec{
		Threshold:       e.Threshold,
		MultiLineWindow: e.MultiLineWindow,
	}
	switch strings.ToLower(e.Mode) {
	case "", "exact":
		spec.Mode = match.ModeExact
	case "fuzzy":
		spec.Mode = match.ModeFuzzy
	default:
		return Operation{}, errors.Errorf("%w: unknown match mode %q", ErrInvalidOperation, e.Mode)
	}

	switch strings.ToLower(e.Type) {
	case "insert_at_line":
		return NewInsertAtLine(e.Line, e.Lines)
	case "replace_range":
		return NewReplaceRange(e.StartLine, e.EndLine, e.Lines)
	case "replace_by_pattern":
		scope, err := parseScope(e.Scope)
		if err != nil {
			return Operation{}, err
		}
		return NewReplaceByPattern(e.Pattern, e.Replacement, scope, spec)
	case "insert_after_pattern":
		return NewInsertAfterPattern(e.Pattern, e.Lines, spec)
	case "insert_before_pattern":
		return NewInsertBeforePattern(e.Pattern, e.Lines, spec)
	case "append_to_end":
		return NewAppendToEnd(e.Lines), nil
	case "delete_range":
		return NewDeleteRange(e.StartLine, e.EndLine)
	default:
		return Operation{}, errors.Errorf("%w: unknown operation type %q", ErrInvalidOperation, e.Type)
	}
}

// parseScope accepts "first", "all" and "nth:N".
func parseScope(s string) (Scope, error) {
	switch {
	case s == "" || s == "first":
		return FirstMatch(), nil
	case s == "all":
		return AllMatches(), nil
	case strings.HasPrefix(s, "nth:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "nth:"))
		if err != nil {
			return Scope{}, errors.Errorf("%w: bad scope %q: %w", ErrInvalidOperation, s, err)
		}
		return NthMatch(n), nil
	default:
		return Scope{}, errors.Errorf("%w: unknown scope %q", ErrInvalidOperation, s)
	}
}
