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

// Package history records applied patch sets as reversible entries and
// supports linear undo/redo per file. Every entry carries self-contained
// forward and backward edit scripts, so undoing never depends on cumulative
// offsets and evicting old entries never invalidates the rest. The store is
// the one piece of shared mutable state in the system and is mutex-guarded;
// it is injected into callers, never held as a process-wide singleton.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/diff"
	"github.com/walteh/patchrc/pkg/patch"
	"gitlab.com/tozd/go/errors"
)

// ErrNoHistory is returned by Undo with the cursor at the earliest entry and
// by Redo with the cursor at the latest.
var ErrNoHistory = errors.Base("no history entry in that direction")

// DefaultDepth caps retained entries per file when no depth is configured.
const DefaultDepth = 100

// 📝 Entry is one recorded transition. Operations hold the applied queue
// snapshot in encoded form; the diffs are self-contained scripts between the
// content before and after the apply.
type Entry struct {
	Operations []patch.Encoded `json:"operations"`
	Forward    diff.Result     `json:"forward"`
	Backward   diff.Result     `json:"backward"`
	BackupRef  string          `json:"backup_ref,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// fileHistory is the per-file state machine: an entry arena plus a cursor in
// [0, len(entries)] and the content the cursor currently points at.
type fileHistory struct {
	entries []Entry
	cursor  int
	current content.Content
}

// 🗄️ Store keeps per-file history, keyed by file identifier.
type Store struct {
	mu    sync.Mutex
	depth int
	files map[string]*fileHistory
	now   func() time.Time
}

// 🏭 NewStore creates a store retaining at most depth entries per file.
// Non-positive depth means DefaultDepth.
func NewStore(depth int) *Store {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Store{
		depth: depth,
		files: make(map[string]*fileHistory),
		now:   time.Now,
	}
}

// 📥 Record appends a transition for fileID: the queue that was applied, the
// content before and after, and the opaque restore-point reference the
// backup collaborator handed out. Entries past the cursor are discarded
// first (linear history, no branching); then the oldest entry is evicted if
// the depth cap is exceeded.
func (s *Store) Record(ctx context.Context, fileID string, q *patch.Queue, before, after content.Content, backupRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fh := s.files[fileID]
	if fh == nil {
		fh = &fileHistory{current: before}
		s.files[fileID] = fh
	}

	forward := diff.Compute(before, after)

	var ops []patch.Encoded
	if q != nil {
		for _, op := range q.Ops() {
			ops = append(ops, op.Encode())
		}
	}

	// Truncate the redo tail.
	fh.entries = fh.entries[:fh.cursor]
	fh.entries = append(fh.entries, Entry{
		Operations: ops,
		Forward:    forward,
		Backward:   diff.Invert(forward),
		BackupRef:  backupRef,
		Timestamp:  s.now(),
	})
	if len(fh.entries) > s.depth {
		drop := len(fh.entries) - s.depth
		fh.entries = fh.entries[drop:]
	}
	fh.cursor = len(fh.entries)
	fh.current = after

	zerolog.Ctx(ctx).Debug().
		Str("file", fileID).
		Int("entries", len(fh.entries)).
		Int("operations", len(ops)).
		Msg("recorded history entry")
}

// ↩️ Undo moves the cursor back one entry and returns the content it now
// points at. The caller writes that content to storage; the store only
// computes it.
func (s *Store) Undo(ctx context.Context, fileID string) (content.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fh := s.files[fileID]
	if fh == nil || fh.cursor == 0 {
		return content.Content{}, errors.Errorf("%w: nothing to undo for %s", ErrNoHistory, fileID)
	}

	entry := fh.entries[fh.cursor-1]
	restored, err := diff.Apply(fh.current, entry.Backward)
	if err != nil {
		return content.Content{}, errors.Errorf("undoing %s: %w", fileID, err)
	}
	fh.cursor--
	fh.current = restored

	zerolog.Ctx(ctx).Debug().Str("file", fileID).Int("cursor", fh.cursor).Msg("undid entry")
	return restored, nil
}

// ↪️ Redo moves the cursor forward one entry and returns the content it now
// points at.
func (s *Store) Redo(ctx context.Context, fileID string) (content.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fh := s.files[fileID]
	if fh == nil || fh.cursor >= len(fh.entries) {
		return content.Content{}, errors.Errorf("%w: nothing to redo for %s", ErrNoHistory, fileID)
	}

	entry := fh.entries[fh.cursor]
	restored, err := diff.Apply(fh.current, entry.Forward)
	if err != nil {
		return content.Content{}, errors.Errorf("redoing %s: %w", fileID, err)
	}
	fh.cursor++
	fh.current = restored

	zerolog.Ctx(ctx).Debug().Str("file", fileID).Int("cursor", fh.cursor).Msg("redid entry")
	return restored, nil
}

// CanUndo reports whether Undo would succeed for fileID.
func (s *Store) CanUndo(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	fh := s.files[fileID]
	return fh != nil && fh.cursor > 0
}

// CanRedo reports whether Redo would succeed for fileID.
func (s *Store) CanRedo(fileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	fh := s.files[fileID]
	return fh != nil && fh.cursor < len(fh.entries)
}

// Entries returns a copy of the retained entries for fileID, oldest first.
func (s *Store) Entries(fileID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	fh := s.files[fileID]
	if fh == nil {
		return nil
	}
	return append([]Entry(nil), fh.entries...)
}

// Current returns the content the cursor points at, and whether fileID has
// any recorded state at all.
func (s *Store) Current(fileID string) (content.Content, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fh := s.files[fileID]
	if fh == nil {
		return content.Content{}, false
	}
	return fh.current, true
}
