package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/patch"
)

func record(t *testing.T, s *Store, file string, before content.Content, lines ...string) content.Content {
	t.Helper()
	after := before.WithLines(append(before.Lines(), lines...))
	op := patch.NewAppendToEnd(lines)
	q := patch.NewQueue(file)
	q.Add(op)
	s.Record(context.Background(), file, q, before, after, "")
	return after
}

func TestUndoRedoRoundTrip(t *testing.T) {
	const n = 5
	s := NewStore(0)
	ctx := context.Background()

	states := []content.Content{content.FromLines([]string{"base"})}
	for i := 0; i < n; i++ {
		states = append(states, record(t, s, "f", states[i], fmt.Sprintf("line-%d", i)))
	}
	final := states[len(states)-1]

	// Undo all the way back.
	for i := n; i > 0; i-- {
		got, err := s.Undo(ctx, "f")
		require.NoError(t, err)
		assert.True(t, states[i-1].Equal(got), "undo to state %d", i-1)
	}
	_, err := s.Undo(ctx, "f")
	assert.ErrorIs(t, err, ErrNoHistory)

	// Redo all the way forward.
	for i := 1; i <= n; i++ {
		got, err := s.Redo(ctx, "f")
		require.NoError(t, err)
		assert.True(t, states[i].Equal(got), "redo to state %d", i)
	}
	_, err = s.Redo(ctx, "f")
	assert.ErrorIs(t, err, ErrNoHistory)

	got, ok := s.Current("f")
	require.True(t, ok)
	assert.True(t, final.Equal(got))
}

func TestUndoUnknownFile(t *testing.T) {
	s := NewStore(0)
	_, err := s.Undo(context.Background(), "never-seen")
	assert.ErrorIs(t, err, ErrNoHistory)
	_, err = s.Redo(context.Background(), "never-seen")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestRecordTruncatesRedoTail(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	base := content.FromLines([]string{"base"})
	s1 := record(t, s, "f", base, "one")
	_ = record(t, s, "f", s1, "two")

	_, err := s.Undo(ctx, "f")
	require.NoError(t, err)
	require.True(t, s.CanRedo("f"))

	// A new record while undone discards the redo branch.
	s3 := record(t, s, "f", s1, "three")
	assert.False(t, s.CanRedo("f"))
	require.Len(t, s.Entries("f"), 2)

	got, ok := s.Current("f")
	require.True(t, ok)
	assert.True(t, s3.Equal(got))
}

func TestEvictionKeepsNewestEntries(t *testing.T) {
	s := NewStore(3)
	ctx := context.Background()

	state := content.FromLines([]string{"base"})
	for i := 0; i < 6; i++ {
		state = record(t, s, "f", state, fmt.Sprintf("line-%d", i))
	}
	assert.Len(t, s.Entries("f"), 3)

	// The three retained entries still undo cleanly; the fourth is gone.
	for i := 0; i < 3; i++ {
		_, err := s.Undo(ctx, "f")
		require.NoError(t, err)
	}
	_, err := s.Undo(ctx, "f")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestFilesAreIndependent(t *testing.T) {
	s := NewStore(0)
	ctx := context.Background()

	a := record(t, s, "a", content.FromLines([]string{"a"}), "more")
	_ = record(t, s, "b", content.FromLines([]string{"b"}), "more")

	_, err := s.Undo(ctx, "b")
	require.NoError(t, err)

	got, ok := s.Current("a")
	require.True(t, ok)
	assert.True(t, a.Equal(got), "undoing b leaves a untouched")
}

func TestEntriesCarryOperationSnapshots(t *testing.T) {
	s := NewStore(0)
	before := content.FromLines([]string{"x"})
	_ = record(t, s, "f", before, "y")

	entries := s.Entries("f")
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Operations, 1)
	assert.Equal(t, "append_to_end", entries[0].Operations[0].Type)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.json")
	ctx := context.Background()

	s := NewStore(10)
	base := content.FromLines([]string{"base"})
	s1 := record(t, s, "f", base, "one")
	_ = record(t, s, "f", s1, "two")
	_, err := s.Undo(ctx, "f")
	require.NoError(t, err)

	require.NoError(t, s.Save(path))

	loaded, err := Load(path, 10)
	require.NoError(t, err)

	assert.Len(t, loaded.Entries("f"), 2)
	assert.True(t, loaded.CanUndo("f"))
	assert.True(t, loaded.CanRedo("f"))

	got, err := loaded.Redo(ctx, "f")
	require.NoError(t, err)

	want, err := s.Redo(ctx, "f")
	require.NoError(t, err)
	assert.True(t, want.Equal(got), "loaded store redoes to the same content")
}

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "nope.json"), 5)
	require.NoError(t, err)
	assert.False(t, loaded.CanUndo("anything"))
}
