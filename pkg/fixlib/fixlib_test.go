package fixlib

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/patchrc/pkg/apply"
	"github.com/walteh/patchrc/pkg/content"
	"github.com/walteh/patchrc/pkg/patch"
)

func TestBuiltinSetsAreValid(t *testing.T) {
	r := NewRegistry()
	sets := r.Sets()
	require.NotEmpty(t, sets)

	for _, set := range sets {
		for _, fix := range set.Fixes {
			q, err := fix.Queue("some/file.py")
			require.NoError(t, err, "builtin fix %s/%s must decode", set.Name, fix.ID)
			assert.Positive(t, q.Len())
		}
	}
}

func TestBuiltinYamlSafeLoadFix(t *testing.T) {
	r := NewRegistry()
	fix, err := r.Find("security", "fix-unsafe-yaml-load")
	require.NoError(t, err)

	q, err := fix.Queue("app.py")
	require.NoError(t, err)

	c := content.FromLines([]string{"data = yaml.load(stream)", "other = 1"})
	res, err := apply.Apply(context.Background(), c, q, apply.Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{"data = yaml.safe_load(stream)", "other = 1"}, res.Content.Lines())
}

func TestLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("no-such-set")
	assert.ErrorIs(t, err, ErrUnknownFix)
	_, err = r.Find("security", "no-such-fix")
	assert.ErrorIs(t, err, ErrUnknownFix)
}

func TestRegisterRejectsDuplicatesAndBadSets(t *testing.T) {
	r := NewRegistry()

	err := r.Register(FixSet{Name: "security"})
	assert.ErrorIs(t, err, ErrInvalidFixSet)

	err = r.Register(FixSet{Name: "broken", Fixes: []Fix{{
		ID:         "bad-op",
		Operations: []patch.Encoded{{Type: "replace_by_pattern", Pattern: "(unclosed"}},
	}}})
	assert.ErrorIs(t, err, ErrInvalidFixSet)

	err = r.Register(FixSet{Name: "dupes", Fixes: []Fix{{ID: "x"}, {ID: "x"}}})
	assert.ErrorIs(t, err, ErrInvalidFixSet)
}

func TestAppliesTo(t *testing.T) {
	fix := Fix{Files: []string{"**/*.py"}}
	assert.True(t, fix.AppliesTo("src/app.py"))
	assert.False(t, fix.AppliesTo("src/app.go"))
	assert.True(t, Fix{}.AppliesTo("anything.txt"))
}

func TestLoadPath(t *testing.T) {
	dir := t.TempDir()
	set := `
name: migrations
category: migration
description: API migration helpers
fixes:
  - id: rename-endpoint
    name: Rename Endpoint
    severity: medium
    files:
      - "**/*.py"
    operations:
      - type: replace_by_pattern
        pattern: /api/v1/
        replacement: /api/v2/
        scope: all
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "migrations.yaml"), []byte(set), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r := NewRegistry()
	require.NoError(t, r.LoadPath(context.Background(), dir))

	fix, err := r.Find("migrations", "rename-endpoint")
	require.NoError(t, err)

	q, err := fix.Queue("client.py")
	require.NoError(t, err)

	c := content.FromLines([]string{`requests.get("/api/v1/users")`})
	res, err := apply.Apply(context.Background(), c, q, apply.Strict)
	require.NoError(t, err)
	assert.Equal(t, []string{`requests.get("/api/v2/users")`}, res.Content.Lines())
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nsurprise: true\n"), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}
