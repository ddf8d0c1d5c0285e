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
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/patchrc/cmd/patchrc/opts"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

// 🔧 opFlags collects the operation-building flags shared by apply, preview
// and batch.
type opFlags struct {
	fixes    []string // set/id references into the fix library
	replaces []string // PATTERN=REPLACEMENT
	deletes  []string // START-END
	inserts  []string // LINE:TEXT
	appends  []string // TEXT
	fuzzy    float64  // similarity threshold; 0 means exact matching
	scope    string   // first / all / nth:N, for --replace
}

// addOpFlags registers the operation flags on a command
func addOpFlags(cmd *cobra.Command, f *opFlags) {
	cmd.Flags().StringArrayVar(&f.fixes, "fix", nil, "apply a predefined fix (SET/ID)")
	cmd.Flags().StringArrayVar(&f.replaces, "replace", nil, "replace pattern matches (PATTERN=REPLACEMENT)")
	cmd.Flags().StringArrayVar(&f.deletes, "delete", nil, "delete a line range (START-END)")
	cmd.Flags().StringArrayVar(&f.inserts, "insert", nil, "insert a line (LINE:TEXT)")
	cmd.Flags().StringArrayVar(&f.appends, "append", nil, "append a line at the end of the file")
	cmd.Flags().Float64Var(&f.fuzzy, "fuzzy", 0, "fuzzy-match patterns with this similarity threshold")
	cmd.Flags().StringVar(&f.scope, "scope", "all", "which matches --replace applies to (first, all, nth:N)")
}

// spec builds the match mode for pattern flags from the flag set and config
// defaults.
func (f *opFlags) spec(ro *opts.RootOpts) patch.MatchSpec {
	spec := patch.MatchSpec{
		Mode:            match.ModeExact,
		MultiLineWindow: ro.Config.MultiLineWindow,
	}
	if f.fuzzy > 0 {
		spec.Mode = match.ModeFuzzy
		spec.Threshold = f.fuzzy
	}
	return spec
}

// 🎯 queue expands the operation flags into a validated patch queue for one
// file. Fix references that do not target the file are skipped.
func (f *opFlags) queue(ro *opts.RootOpts, file string) (*patch.Queue, error) {
	q := patch.NewQueue(file)
	spec := f.spec(ro)

	scope, err := parseScope(f.scope)
	if err != nil {
		return nil, err
	}

	for _, ref := range f.fixes {
		setName, fixID, ok := strings.Cut(ref, "/")
		if !ok {
			return nil, errors.Errorf("fix reference %q is not SET/ID", ref)
		}
		fix, err := ro.Fixes.Find(setName, fixID)
		if err != nil {
			return nil, err
		}
		if !fix.AppliesTo(file) {
			continue
		}
		fq, err := fix.Queue(file)
		if err != nil {
			return nil, err
		}
		q.Add(fq.Ops()...)
	}

	for _, r := range f.replaces {
		pattern, replacement, ok := strings.Cut(r, "=")
		if !ok {
			return nil, errors.Errorf("replace %q is not PATTERN=REPLACEMENT", r)
		}
		op, err := patch.NewReplaceByPattern(pattern, replacement, scope, spec)
		if err != nil {
			return nil, err
		}
		q.Add(op)
	}

	for _, d := range f.deletes {
		start, end, err := parseRange(d)
		if err != nil {
			return nil, err
		}
		op, err := patch.NewDeleteRange(start, end)
		if err != nil {
			return nil, err
		}
		q.Add(op)
	}

	for _, ins := range f.inserts {
		lineStr, text, ok := strings.Cut(ins, ":")
		if !ok {
			return nil, errors.Errorf("insert %q is not LINE:TEXT", ins)
		}
		line, err := strconv.Atoi(lineStr)
		if err != nil {
			return nil, errors.Errorf("insert line %q: %w", lineStr, err)
		}
		op, err := patch.NewInsertAtLine(line, []string{text})
		if err != nil {
			return nil, err
		}
		q.Add(op)
	}

	if len(f.appends) > 0 {
		q.Add(patch.NewAppendToEnd(f.appends))
	}

	return q, nil
}

func parseScope(s string) (patch.Scope, error) {
	switch {
	case s == "first":
		return patch.FirstMatch(), nil
	case s == "" || s == "all":
		return patch.AllMatches(), nil
	case strings.HasPrefix(s, "nth:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "nth:"))
		if err != nil {
			return patch.Scope{}, errors.Errorf("bad scope %q: %w", s, err)
		}
		return patch.NthMatch(n), nil
	default:
		return patch.Scope{}, errors.Errorf("unknown scope %q", s)
	}
}

func parseRange(s string) (int, int, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, errors.Errorf("range %q is not START-END", s)
	}
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, errors.Errorf("range start %q: %w", startStr, err)
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return 0, 0, errors.Errorf("range end %q: %w", endStr, err)
	}
	return start, end, nil
}
