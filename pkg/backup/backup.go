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

// Package backup creates and restores whole-file restore points. A restore
// point is an opaque reference handed back to the caller; a manifest in the
// backup directory maps references to their source paths, so restoring needs
// nothing but the reference. Retention is bounded per source file.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrUnknownRef is returned when a reference is not in the manifest.
var ErrUnknownRef = errors.Base("unknown restore point reference")

// DefaultKeep bounds retained restore points per source file.
const DefaultKeep = 10

const manifestName = "manifest.json"

// 🗃️ Manager owns one backup directory. Batch runs call it from multiple
// workers at once, so the manifest read-modify-write is serialized by mu.
type Manager struct {
	mu   sync.Mutex
	dir  string
	keep int
	now  func() time.Time
}

// manifestEntry records where a snapshot came from.
type manifestEntry struct {
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// 🏭 NewManager creates a manager over dir, keeping at most keep restore
// points per source file. Non-positive keep means DefaultKeep.
func NewManager(dir string, keep int) *Manager {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Manager{dir: dir, keep: keep, now: time.Now}
}

// 📸 CreateRestorePoint snapshots the file at path and returns an opaque
// reference to the snapshot. Older snapshots of the same file beyond the
// retention cap are pruned.
func (m *Manager) CreateRestorePoint(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Errorf("reading %s for restore point: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Errorf("resolving %s: %w", path, err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", errors.Errorf("creating backup directory %s: %w", m.dir, err)
	}

	createdAt := m.now()
	ref := fmt.Sprintf("%s.%s.bak", filepath.Base(path), createdAt.Format("20060102-150405.000000000"))
	if err := os.WriteFile(filepath.Join(m.dir, ref), data, 0o644); err != nil {
		return "", errors.Errorf("writing restore point for %s: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	manifest, err := m.loadManifest()
	if err != nil {
		return "", err
	}
	manifest[ref] = manifestEntry{Source: abs, CreatedAt: createdAt}
	m.prune(ctx, manifest, abs)
	if err := m.saveManifest(manifest); err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Debug().Str("file", path).Str("ref", ref).Msg("created restore point")
	return ref, nil
}

// ♻️ Restore writes the referenced snapshot back over its source file,
// atomically.
func (m *Manager) Restore(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	manifest, err := m.loadManifest()
	if err != nil {
		return err
	}
	entry, ok := manifest[ref]
	if !ok {
		return errors.Errorf("%w: %s", ErrUnknownRef, ref)
	}

	data, err := os.ReadFile(filepath.Join(m.dir, ref))
	if err != nil {
		return errors.Errorf("reading restore point %s: %w", ref, err)
	}

	tmp := entry.Source + ".patchrc-restore"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Errorf("writing %s: %w", entry.Source, err)
	}
	if err := os.Rename(tmp, entry.Source); err != nil {
		return errors.Errorf("replacing %s: %w", entry.Source, err)
	}

	zerolog.Ctx(ctx).Info().Str("file", entry.Source).Str("ref", ref).Msg("restored from backup")
	return nil
}

// RestorePoints lists the references for one source file, newest first.
func (m *Manager) RestorePoints(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Errorf("resolving %s: %w", path, err)
	}
	m.mu.Lock()
	manifest, err := m.loadManifest()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var refs []string
	for ref, entry := range manifest {
		if entry.Source == abs {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return manifest[refs[i]].CreatedAt.After(manifest[refs[j]].CreatedAt)
	})
	return refs, nil
}

// prune drops the oldest snapshots of source beyond the retention cap.
func (m *Manager) prune(ctx context.Context, manifest map[string]manifestEntry, source string) {
	var refs []string
	for ref, entry := range manifest {
		if entry.Source == source {
			refs = append(refs, ref)
		}
	}
	if len(refs) <= m.keep {
		return
	}
	sort.Slice(refs, func(i, j int) bool {
		return manifest[refs[i]].CreatedAt.After(manifest[refs[j]].CreatedAt)
	})
	for _, ref := range refs[m.keep:] {
		delete(manifest, ref)
		if err := os.Remove(filepath.Join(m.dir, ref)); err != nil && !os.IsNotExist(err) {
			zerolog.Ctx(ctx).Warn().Str("ref", ref).Err(err).Msg("could not remove pruned restore point")
		}
	}
}

func (m *Manager) loadManifest() (map[string]manifestEntry, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]manifestEntry), nil
		}
		return nil, errors.Errorf("reading backup manifest: %w", err)
	}
	var manifest map[string]manifestEntry
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Errorf("decoding backup manifest: %w", err)
	}
	return manifest, nil
}

func (m *Manager) saveManifest(manifest map[string]manifestEntry) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Errorf("marshaling backup manifest: %w", err)
	}
	f, err := os.CreateTemp(m.dir, manifestName+".*")
	if err != nil {
		return errors.Errorf("creating backup manifest temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Errorf("writing backup manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Errorf("closing backup manifest temp file: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return errors.Errorf("setting backup manifest permissions: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(m.dir, manifestName)); err != nil {
		os.Remove(tmp)
		return errors.Errorf("replacing backup manifest: %w", err)
	}
	return nil
}
