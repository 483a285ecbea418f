package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesInternalDirAndLocks(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir)
	require.NoError(t, err)
	defer w.Close()

	assert.DirExists(t, filepath.Join(w.Root(), ".tomosona"))
	assert.Equal(t, filepath.Join(w.Root(), ".tomosona", "tomosona.sqlite"), w.DatabasePath())
}

func TestOpen_SecondOpenFailsWhileLocked(t *testing.T) {
	dir := t.TempDir()

	w1, err := Open(dir)
	require.NoError(t, err)
	defer w1.Close()

	_, err = Open(dir)
	require.Error(t, err)
}

func TestOpen_ReleasingAllowsReopen(t *testing.T) {
	dir := t.TempDir()

	w1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, w1.Close())

	w2, err := Open(dir)
	require.NoError(t, err)
	defer w2.Close()
}

func TestPropertyTypeSchema_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	schema, err := ReadPropertyTypeSchema(dir)
	require.NoError(t, err)
	assert.Empty(t, schema)

	want := map[string]PropertyTypeKind{
		"status":   PropertyTypeText,
		"tags":     PropertyTypeTags,
		"priority": PropertyTypeNumber,
	}
	require.NoError(t, WritePropertyTypeSchema(dir, want))

	got, err := ReadPropertyTypeSchema(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPropertyTypeSchema_DropsInvalidEntries(t *testing.T) {
	dir := t.TempDir()
	path := PropertyTypeSchemaPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"status":"text","bogus":"not-a-kind"}`), 0o644))

	got, err := ReadPropertyTypeSchema(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]PropertyTypeKind{"status": PropertyTypeText}, got)
}
