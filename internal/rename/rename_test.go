package rename

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndexer struct {
	indexed []string
}

func (r *recordingIndexer) IndexFile(_ context.Context, absPath string) error {
	r.indexed = append(r.indexed, absPath)
	return nil
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

// TestApplyRenameRewritesAliasAndHeadingButNotLookalike is the spec's
// "Rename rewrite" scenario (§8 concrete scenario 6).
func TestApplyRenameRewritesAliasAndHeadingButNotLookalike(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "[[notes/old|Alias]] and [[notes/old#section]]")
	writeFile(t, root, "b.md", "[[notes/old-stuff]]")
	writeFile(t, root, "notes/new.md", "# New\n")

	rec := &recordingIndexer{}
	rw := &Rewriter{Root: root, Indexer: rec}

	updated, err := rw.ApplyRename(context.Background(), "notes/old.md", "notes/new.md")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.md"}, updated)

	got, err := os.ReadFile(filepath.Join(root, "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "[[notes/new|Alias]] and [[notes/new#section]]", string(got))

	unchanged, err := os.ReadFile(filepath.Join(root, "b.md"))
	require.NoError(t, err)
	assert.Equal(t, "[[notes/old-stuff]]", string(unchanged))

	require.Len(t, rec.indexed, 1)
	assert.Equal(t, filepath.Join(root, "a.md"), rec.indexed[0])
}

func TestApplyRenameNoMatchesDoesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "no links here")

	rec := &recordingIndexer{}
	rw := &Rewriter{Root: root, Indexer: rec}

	updated, err := rw.ApplyRename(context.Background(), "notes/old.md", "notes/new.md")
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.Empty(t, rec.indexed)
}
