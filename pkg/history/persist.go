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

package history

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/walteh/patchrc/pkg/content"
	"gitlab.com/tozd/go/errors"
)

// storeJSON is the persisted shape of a store.
type storeJSON struct {
	Depth int                 `json:"depth"`
	Files map[string]fileJSON `json:"files"`
}

type fileJSON struct {
	Entries []Entry         `json:"entries"`
	Cursor  int             `json:"cursor"`
	Current content.Content `json:"current"`
}

// 💾 Save writes the store as JSON, atomically (temp file then rename), so
// undo/redo state survives across process runs.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	snapshot := storeJSON{
		Depth: s.depth,
		Files: make(map[string]fileJSON, len(s.files)),
	}
	for id, fh := range s.files {
		snapshot.Files[id] = fileJSON{
			Entries: append([]Entry(nil), fh.entries...),
			Cursor:  fh.cursor,
			Current: fh.current,
		}
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Errorf("marshaling history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Errorf("creating history directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Errorf("writing history file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Errorf("replacing history file: %w", err)
	}
	return nil
}

// 📂 Load reads a store persisted by Save. A missing file yields an empty
// store with the given depth.
func Load(path string, depth int) (*Store, error) {
	s := NewStore(depth)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Errorf("reading history file: %w", err)
	}

	var snapshot storeJSON
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Errorf("decoding history file %s: %w", path, err)
	}

	for id, f := range snapshot.Files {
		if f.Cursor < 0 || f.Cursor > len(f.Entries) {
			return nil, errors.Errorf("decoding history file %s: cursor %d outside [0,%d] for %s",
				path, f.Cursor, len(f.Entries), id)
		}
		s.files[id] = &fileHistory{
			entries: f.Entries,
			cursor:  f.Cursor,
			current: f.Current,
		}
	}
	return s, nil
}
