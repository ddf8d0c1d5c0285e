package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/content"
)

func TestComputeKinds(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		resulting string
		wantKinds []Kind
	}{
		{
			name:      "identical",
			original:  "a\nb\n",
			resulting: "a\nb\n",
			wantKinds: []Kind{Equal},
		},
		{
			name:      "insert_in_middle",
			original:  "a\nb\n",
			resulting: "a\nx\nb\n",
			wantKinds: []Kind{Equal, Insert, Equal},
		},
		{
			name:      "delete_in_middle",
			original:  "a\nx\nb\n",
			resulting: "a\nb\n",
			wantKinds: []Kind{Equal, Delete, Equal},
		},
		{
			name:      "replace_coalesces_delete_and_insert",
			original:  "a\nold\nb\n",
			resulting: "a\nnew\nb\n",
			wantKinds: []Kind{Equal, Replace, Equal},
		},
		{
			name:      "everything_new",
			original:  "",
			resulting: "a\nb\n",
			wantKinds: []Kind{Insert},
		},
		{
			name:      "everything_deleted",
			original:  "a\nb\n",
			resulting: "",
			wantKinds: []Kind{Delete},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compute(content.FromString(tt.original), content.FromString(tt.resulting))
			kinds := make([]Kind, len(r.Edits))
			for i, e := range r.Edits {
				kinds[i] = e.Kind
			}
			assert.Equal(t, tt.wantKinds, kinds)
		})
	}
}

func TestApplyRoundTrip(t *testing.T) {
	pairs := [][2]string{
		{"a\nb\nc\n", "a\nx\nb\nc\n"},
		{"a\nb\nc\n", "a\nc\n"},
		{"a\nold\nb\n", "a\nnew\nb\n"},
		{"", "fresh\nfile\n"},
		{"gone\n", ""},
		{"a\nb\nc\nd\ne\n", "e\nd\nc\nb\na\n"},
		{"same\nsame\nsame\n", "same\nsame\nsame\n"},
		{"x\n", "x\ny\nz\nx\ny\nz\n"},
	}

	for _, pair := range pairs {
		original := content.FromString(pair[0])
		resulting := content.FromString(pair[1])

		script := Compute(original, resulting)

		// apply(original, diff(original, resulting)) == resulting
		replayed, err := Apply(original, script)
		require.NoError(t, err, "pair %q -> %q", pair[0], pair[1])
		assert.True(t, resulting.Equal(replayed), "forward replay of %q -> %q got %q", pair[0], pair[1], replayed.String())

		// apply(resulting, invert(script)) == original
		back, err := Apply(resulting, Invert(script))
		require.NoError(t, err)
		assert.True(t, original.Equal(back), "backward replay of %q -> %q", pair[0], pair[1])
	}
}

func TestInvertTwiceIsIdentity(t *testing.T) {
	script := Compute(content.FromString("a\nb\nc\n"), content.FromString("a\nx\nc\nd\n"))
	assert.Equal(t, script, Invert(Invert(script)))
}

func TestComputeIsDeterministic(t *testing.T) {
	a := content.FromString("one\ntwo\nthree\nfour\n")
	b := content.FromString("one\n2\nthree\n4\n")
	assert.Equal(t, Compute(a, b), Compute(a, b))
}

func TestApplyMismatch(t *testing.T) {
	script := Compute(content.FromString("a\nb\n"), content.FromString("a\nx\n"))

	_, err := Apply(content.FromString("totally\ndifferent\nshape\n"), script)
	assert.ErrorIs(t, err, ErrScriptMismatch)
}

func TestStats(t *testing.T) {
	script := Compute(
		content.FromString("a\nold\nb\ngone\n"),
		content.FromString("a\nnew\nb\nplus\nmore\n"),
	)
	s := script.Stats()
	assert.Equal(t, 1, s.Replaced)
	assert.Positive(t, s.Added+s.Deleted+s.Replaced)
}

func TestChanged(t *testing.T) {
	same := content.FromString("a\n")
	assert.False(t, Compute(same, same).Changed())
	assert.True(t, Compute(same, content.FromString("b\n")).Changed())
}

func TestUnified(t *testing.T) {
	original := content.FromString("one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\nnine\nten\n")
	resulting := content.FromString("one\ntwo\nthree\nfour\nFIVE\nsix\nseven\neight\nnine\nten\n")

	out := Compute(original, resulting).Unified("a/file.txt", "b/file.txt", 2)

	assert.Contains(t, out, "--- a/file.txt")
	assert.Contains(t, out, "+++ b/file.txt")
	assert.Contains(t, out, "-five")
	assert.Contains(t, out, "+FIVE")
	assert.Contains(t, out, " four")
	assert.Contains(t, out, " six")
	assert.NotContains(t, out, " one", "context is trimmed to two lines")
	assert.Contains(t, out, "@@ -3,5 +3,5 @@")
}

func TestUnifiedNoChanges(t *testing.T) {
	c := content.FromString("a\nb\n")
	assert.Empty(t, Compute(c, c).Unified("a", "b", 3))
}
