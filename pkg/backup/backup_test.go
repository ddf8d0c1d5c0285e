package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func TestCreateAndRestore(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.py")
	writeFile(t, target, "original\n")

	m := NewManager(filepath.Join(dir, "backups"), 0)
	ref, err := m.CreateRestorePoint(context.Background(), target)
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	writeFile(t, target, "mangled\n")

	require.NoError(t, m.Restore(context.Background(), ref))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))
}

func TestRestoreUnknownRef(t *testing.T) {
	m := NewManager(t.TempDir(), 0)
	err := m.Restore(context.Background(), "no-such-ref")
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestCreateRestorePointMissingFile(t *testing.T) {
	m := NewManager(t.TempDir(), 0)
	_, err := m.CreateRestorePoint(context.Background(), filepath.Join(t.TempDir(), "ghost.txt"))
	assert.Error(t, err)
}

func TestRetentionPrunesOldest(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	writeFile(t, target, "v0\n")

	m := NewManager(filepath.Join(dir, "backups"), 2)

	// Deterministic, strictly increasing timestamps.
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}

	var refs []string
	for i := 0; i < 4; i++ {
		ref, err := m.CreateRestorePoint(context.Background(), target)
		require.NoError(t, err)
		refs = append(refs, ref)
	}

	kept, err := m.RestorePoints(target)
	require.NoError(t, err)
	assert.Equal(t, []string{refs[3], refs[2]}, kept, "newest first, oldest pruned")

	err = m.Restore(context.Background(), refs[0])
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestConcurrentCreateRestorePoints(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "backups"), 0)

	// One file per worker, all snapshotting at once. Every handed-out ref
	// must land in the manifest and stay restorable.
	const workers = 64
	targets := make([]string, workers)
	for i := range targets {
		targets[i] = filepath.Join(dir, fmt.Sprintf("file-%02d.txt", i))
		writeFile(t, targets[i], fmt.Sprintf("content %d\n", i))
	}

	refs := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			refs[i], errs[i] = m.CreateRestorePoint(context.Background(), targets[i])
		}()
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])

		writeFile(t, targets[i], "mangled\n")
		require.NoError(t, m.Restore(context.Background(), refs[i]))

		data, err := os.ReadFile(targets[i])
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("content %d\n", i), string(data))
	}
}

func TestRestorePointsPerSourceFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, "a\n")
	writeFile(t, b, "b\n")

	m := NewManager(filepath.Join(dir, "backups"), 0)
	refA, err := m.CreateRestorePoint(context.Background(), a)
	require.NoError(t, err)
	_, err = m.CreateRestorePoint(context.Background(), b)
	require.NoError(t, err)

	got, err := m.RestorePoints(a)
	require.NoError(t, err)
	assert.Equal(t, []string{refA}, got)
}
