package apply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/diff"
	"github.com/walteh/patchrc/pkg/patch"
)

func mustOp(t *testing.T) func(patch.Operation, error) patch.Operation {
	t.Helper()
	return func(op patch.Operation, err error) patch.Operation {
		require.NoError(t, err)
		return op
	}
}

func queueOf(t *testing.T, file string, ops ...patch.Operation) *patch.Queue {
	t.Helper()
	q := patch.NewQueue(file)
	q.Add(ops...)
	return q
}

func TestApplyInsertAtLine(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c"})
	q := queueOf(t, "f", mustOp(t)(patch.NewInsertAtLine(2, []string{"x"})))

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "b", "c"}, res.Content.Lines())
	assert.Equal(t, 1, res.Applied)
	assert.False(t, res.Report.HasConflicts())
}

func TestApplyReplaceByPatternFirstMatch(t *testing.T) {
	c := content.FromLines([]string{"def foo():", "    pass"})
	q := queueOf(t, "f", mustOp(t)(
		patch.NewReplaceByPattern(`def foo\(\):`, "def foo(x):", patch.FirstMatch(), patch.Exact())))

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"def foo(x):", "    pass"}, res.Content.Lines())
}

func TestApplyConflictIsRefusedInStrictMode(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c", "d"})
	q := queueOf(t, "f",
		mustOp(t)(patch.NewDeleteRange(2, 3)),
		mustOp(t)(patch.NewInsertAtLine(2, []string{"y"})),
	)

	res, err := Apply(context.Background(), c, q, Strict)
	require.ErrorIs(t, err, ErrConflict)
	assert.True(t, res.Report.HasConflicts())
	require.Len(t, res.Report.Conflicts, 1)
	assert.Equal(t, c.Lines(), res.Content.Lines(), "original content is untouched on conflict")
}

func TestApplyLenientSkipsConflictingOperations(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c", "d"})
	q := queueOf(t, "f",
		mustOp(t)(patch.NewDeleteRange(2, 3)),
		mustOp(t)(patch.NewInsertAtLine(2, []string{"y"})),
		patch.NewAppendToEnd([]string{"tail"}),
	)

	res, err := Apply(context.Background(), c, q, Lenient)
	require.NoError(t, err)
	assert.True(t, res.Report.HasConflicts())
	assert.Len(t, res.Report.Skipped, 2, "both sides of the conflict are dropped")
	assert.Equal(t, []string{"a", "b", "c", "d", "tail"}, res.Content.Lines())
	assert.Equal(t, 1, res.Applied)
}

func TestApplyOrderIndependence(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c", "d", "e"})
	opA := mustOp(t)(patch.NewReplaceRange(1, 1, []string{"A"}))
	opB := mustOp(t)(patch.NewDeleteRange(4, 5))

	resAB, err := Apply(context.Background(), c, queueOf(t, "f", opA, opB), Strict)
	require.NoError(t, err)
	resBA, err := Apply(context.Background(), c, queueOf(t, "f", opB, opA), Strict)
	require.NoError(t, err)

	assert.Equal(t, resAB.Content.Lines(), resBA.Content.Lines())
	assert.Equal(t, []string{"A", "b", "c"}, resAB.Content.Lines())
}

func TestConflictSymmetry(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c", "d"})
	opA := mustOp(t)(patch.NewReplaceRange(1, 2, []string{"x"}))
	opB := mustOp(t)(patch.NewDeleteRange(2, 3))

	effAB, err := Resolve(c, queueOf(t, "f", opA, opB))
	require.NoError(t, err)
	effBA, err := Resolve(c, queueOf(t, "f", opB, opA))
	require.NoError(t, err)

	assert.Len(t, detectConflicts(effAB), 1)
	assert.Len(t, detectConflicts(effBA), 1)
}

func TestTouchingRangesDoNotConflict(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c", "d"})
	q := queueOf(t, "f",
		mustOp(t)(patch.NewDeleteRange(1, 2)),
		mustOp(t)(patch.NewDeleteRange(3, 3)),
	)

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.False(t, res.Report.HasConflicts())
	assert.Equal(t, []string{"d"}, res.Content.Lines())
}

func TestInsertionsAtSameAnchorStackInEnqueueOrder(t *testing.T) {
	c := content.FromLines([]string{"a", "b"})
	q := queueOf(t, "f",
		mustOp(t)(patch.NewInsertAtLine(2, []string{"first"})),
		mustOp(t)(patch.NewInsertAtLine(2, []string{"second"})),
	)

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.False(t, res.Report.HasConflicts(), "insertions at the same line never conflict")
	assert.Equal(t, []string{"a", "first", "second", "b"}, res.Content.Lines())
}

func TestInsertBeforeAndAfterPattern(t *testing.T) {
	c := content.FromLines([]string{"import os", "", "def main():", "    pass"})
	q := queueOf(t, "f",
		mustOp(t)(patch.NewInsertAfterPattern(`(?m)^import os$`, []string{"import sys"},
			patch.MatchSpec{MultiLineWindow: 1})),
		mustOp(t)(patch.NewInsertBeforePattern(`def main`, []string{"# entry point"}, patch.Exact())),
	)

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"import os",
		"import sys",
		"",
		"# entry point",
		"def main():",
		"    pass",
	}, res.Content.Lines())
}

func TestAppendToEnd(t *testing.T) {
	c := content.FromLines([]string{"a"})
	q := queueOf(t, "f", patch.NewAppendToEnd([]string{"z", "zz"}))

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "z", "zz"}, res.Content.Lines())
}

func TestAllMatchesReplacesEveryMatch(t *testing.T) {
	c := content.FromLines([]string{"x = 1", "y = 2", "x = 3"})
	q := queueOf(t, "f", mustOp(t)(
		patch.NewReplaceByPattern(`x = (\d)`, "x = $1$1", patch.AllMatches(), patch.Exact())))

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"x = 11", "y = 2", "x = 33"}, res.Content.Lines())
}

func TestAllMatchesWithZeroMatchesIsNoOp(t *testing.T) {
	c := content.FromLines([]string{"a", "b"})
	q := queueOf(t, "f", mustOp(t)(
		patch.NewReplaceByPattern(`missing`, "x", patch.AllMatches(), patch.Exact())))

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, c.Lines(), res.Content.Lines())
}

func TestNthMatch(t *testing.T) {
	c := content.FromLines([]string{"item", "item", "item"})

	q := queueOf(t, "f", mustOp(t)(
		patch.NewReplaceByPattern(`(?m)^item$`, "picked", patch.NthMatch(2), patch.MatchSpec{})))
	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"item", "picked", "item"}, res.Content.Lines())

	q = queueOf(t, "f", mustOp(t)(
		patch.NewReplaceByPattern(`(?m)^item$`, "picked", patch.NthMatch(5), patch.MatchSpec{})))
	_, err = Apply(context.Background(), c, q, Strict)
	assert.ErrorIs(t, err, ErrAmbiguousMatch)
}

func TestPatternNotFound(t *testing.T) {
	c := content.FromLines([]string{"a"})
	q := queueOf(t, "f", mustOp(t)(
		patch.NewReplaceByPattern(`nowhere`, "x", patch.FirstMatch(), patch.Exact())))

	res, err := Apply(context.Background(), c, q, Strict)
	assert.ErrorIs(t, err, ErrPatternNotFound)
	assert.Equal(t, c.Lines(), res.Content.Lines())
}

func TestRangeOutOfBounds(t *testing.T) {
	c := content.FromLines([]string{"a", "b"})

	q := queueOf(t, "f", mustOp(t)(patch.NewDeleteRange(2, 9)))
	_, err := Apply(context.Background(), c, q, Strict)
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)

	q = queueOf(t, "f", mustOp(t)(patch.NewInsertAtLine(4, []string{"x"})))
	_, err = Apply(context.Background(), c, q, Strict)
	assert.ErrorIs(t, err, ErrRangeOutOfBounds)

	// Inserting just past the last line appends.
	q = queueOf(t, "f", mustOp(t)(patch.NewInsertAtLine(3, []string{"x"})))
	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "x"}, res.Content.Lines())
}

func TestFuzzyReplace(t *testing.T) {
	c := content.FromLines([]string{"print('hell world')"})
	q := queueOf(t, "f", mustOp(t)(
		patch.NewReplaceByPattern("print('hello world')", "log('hello world')",
			patch.FirstMatch(), patch.Fuzzy(0.8))))

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"log('hello world')"}, res.Content.Lines())
}

func TestFuzzyNotFoundReportsClosestWindow(t *testing.T) {
	c := content.FromLines([]string{"completely unrelated"})
	q := queueOf(t, "f", mustOp(t)(
		patch.NewInsertAfterPattern("nothing like this at all", []string{"x"}, patch.Fuzzy(0.9))))

	_, err := Apply(context.Background(), c, q, Strict)
	require.ErrorIs(t, err, ErrPatternNotFound)
	assert.Contains(t, err.Error(), "closest window")
}

func TestMultiLineReplacement(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c"})
	q := queueOf(t, "f", mustOp(t)(patch.NewReplaceRange(2, 2, []string{"b1", "b2"})))

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, res.Content.Lines())
}

func TestEmptyQueueIsNoOp(t *testing.T) {
	c := content.FromLines([]string{"a"})
	res, err := Apply(context.Background(), c, patch.NewQueue("f"), Strict)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, c.Lines(), res.Content.Lines())
}

func TestApplyThenInvertedDiffRoundTrip(t *testing.T) {
	c := content.FromLines([]string{"a", "b", "c", "d", "e"})
	q := queueOf(t, "f",
		mustOp(t)(patch.NewInsertAtLine(2, []string{"x"})),
		mustOp(t)(patch.NewDeleteRange(4, 4)),
		patch.NewAppendToEnd([]string{"tail"}),
	)

	res, err := Apply(context.Background(), c, q, Strict)
	require.NoError(t, err)

	script := diff.Compute(c, res.Content)
	back, err := diff.Apply(res.Content, diff.Invert(script))
	require.NoError(t, err)
	assert.True(t, c.Equal(back))
}
