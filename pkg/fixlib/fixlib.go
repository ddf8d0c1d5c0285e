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

// Package fixlib is a library of named, predefined fix sets. A fix carries
// encoded patch operations plus the file globs it applies to; the library
// only produces operation queues, it never applies them. Builtin sets are
// compiled in; more can be loaded from YAML files.
package fixlib

import (
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrUnknownFix is returned when a fix or fix set name is not registered.
	ErrUnknownFix = errors.Base("unknown fix")
	// ErrInvalidFixSet is returned when a fix-set definition fails validation.
	ErrInvalidFixSet = errors.Base("invalid fix set")
)

// 🩹 Fix is one named, reusable patch recipe.
type Fix struct {
	ID          string `json:"id"                    yaml:"id"`
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Severity is advisory: low, medium, high or critical.
	Severity string `json:"severity,omitempty" yaml:"severity,omitempty"`
	// Files are doublestar globs the fix is meant for; empty means any file.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
	// Operations are the encoded patch operations the fix expands to.
	Operations []patch.Encoded `json:"operations" yaml:"operations"`
}

// 📚 FixSet groups fixes under a category name.
type FixSet struct {
	Name        string `json:"name"                  yaml:"name"`
	Category    string `json:"category,omitempty"    yaml:"category,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Fixes       []Fix  `json:"fixes"                 yaml:"fixes"`
}

// 🎯 Queue expands the fix into a validated patch queue for one file. Every
// encoded operation goes through the model's validating constructors.
func (f Fix) Queue(file string) (*patch.Queue, error) {
	q := patch.NewQueue(file)
	for i, enc := range f.Operations {
		op, err := patch.Decode(enc)
		if err != nil {
			return nil, errors.Errorf("fix %s operation %d: %w", f.ID, i, err)
		}
		q.Add(op)
	}
	return q, nil
}

// AppliesTo reports whether the fix targets the given path. Fixes with no
// file globs apply everywhere.
func (f Fix) AppliesTo(path string) bool {
	if len(f.Files) == 0 {
		return true
	}
	for _, glob := range f.Files {
		if ok, err := doublestar.PathMatch(glob, path); err == nil && ok {
			return true
		}
	}
	return false
}

// validate checks the set decodes cleanly before it enters the registry.
func (s FixSet) validate() error {
	if s.Name == "" {
		return errors.Errorf("%w: set has no name", ErrInvalidFixSet)
	}
	seen := make(map[string]bool)
	for _, f := range s.Fixes {
		if f.ID == "" {
			return errors.Errorf("%w: fix in set %s has no id", ErrInvalidFixSet, s.Name)
		}
		if seen[f.ID] {
			return errors.Errorf("%w: duplicate fix id %s in set %s", ErrInvalidFixSet, f.ID, s.Name)
		}
		seen[f.ID] = true
		for i, enc := range f.Operations {
			if _, err := patch.Decode(enc); err != nil {
				return errors.Errorf("%w: fix %s operation %d: %w", ErrInvalidFixSet, f.ID, i, err)
			}
		}
	}
	return nil
}

// 🗂️ Registry holds fix sets by name.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]FixSet
}

// 🏭 NewRegistry creates a registry preloaded with the builtin fix sets.
func NewRegistry() *Registry {
	r := &Registry{sets: make(map[string]FixSet)}
	for _, set := range builtinSets() {
		// Builtins are compile-time constants; a failure here is a bug.
		if err := r.Register(set); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a fix set, validating every operation it carries.
func (r *Registry) Register(set FixSet) error {
	if err := set.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sets[set.Name]; exists {
		return errors.Errorf("%w: fix set %s already registered", ErrInvalidFixSet, set.Name)
	}
	r.sets[set.Name] = set
	return nil
}

// Sets returns every registered set, sorted by name.
func (r *Registry) Sets() []FixSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]FixSet, 0, len(r.sets))
	for _, set := range r.sets {
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a set by name.
func (r *Registry) Lookup(name string) (FixSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[name]
	if !ok {
		return FixSet{}, errors.Errorf("%w: no fix set named %s", ErrUnknownFix, name)
	}
	return set, nil
}

// Find locates a single fix by "set/id".
func (r *Registry) Find(setName, fixID string) (Fix, error) {
	set, err := r.Lookup(setName)
	if err != nil {
		return Fix{}, err
	}
	for _, f := range set.Fixes {
		if f.ID == fixID {
			return f, nil
		}
	}
	return Fix{}, errors.Errorf("%w: no fix %s in set %s", ErrUnknownFix, fixID, setName)
}
