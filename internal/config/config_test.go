package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.SemanticK = 5
	cfg.SemanticThreshold = 0.7

	require.NoError(t, Save(root, cfg))
	require.FileExists(t, filepath.Join(root, InternalDirName, ConfigFileName))

	loaded, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadPartialOverlayKeepsDefaultsForUnsetFields(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, InternalDirName), 0o755))
	require.NoError(t, os.WriteFile(ConfigPath(root), []byte("semantic_k: 7\n"), 0o644))

	loaded, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 7, loaded.SemanticK)
	require.Equal(t, Default().SemanticThreshold, loaded.SemanticThreshold)
}
