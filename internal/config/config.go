// Package config loads the tunables that the specification leaves to the
// implementation: busy timeout, semantic-edge K/threshold, the FTS
// snippet window, the embedding cache size, the watcher debounce window,
// and the maximum file size indexed. It is YAML-backed via
// gopkg.in/yaml.v3, the same library the teacher's internal/config uses,
// loaded from <root>/.tomosona/config.yaml if present, falling back to
// defaults otherwise. This is distinct from property-types.json (§6),
// which is a narrower, user-editable property-type map.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// InternalDirName and TrashDirName are the two always-excluded
// directories under a workspace root (§3, §6).
const (
	InternalDirName = ".tomosona"
	TrashDirName    = ".tomosona-trash"
	DatabaseName    = "tomosona.sqlite"
	ConfigFileName  = "config.yaml"
	PropertyTypesFileName = "property-types.json"
)

// Config holds the tunables not fixed by the spec's own invariants.
type Config struct {
	// BusyTimeoutMs names how long a writer tolerates lock contention
	// before giving up (§4.5, §5). store.Open does not read it; it
	// applies its own BusyTimeoutMs constant (3000 ms).
	BusyTimeoutMs int `yaml:"busy_timeout_ms"`

	// SemanticK is the number of surviving neighbors kept per note by
	// the Semantic Edge Refresher (§4.8).
	SemanticK int `yaml:"semantic_k"`

	// SemanticThreshold is the minimum similarity a semantic-edge
	// candidate must clear to survive (§4.8, τ).
	SemanticThreshold float64 `yaml:"semantic_threshold"`

	// SnippetWindowTokens names the token window of the FTS snippet
	// function (§4.9 step 5). Store.Search does not read it; its snippet
	// call uses a fixed window of 12 tokens.
	SnippetWindowTokens int `yaml:"snippet_window_tokens"`

	// EmbeddingCacheSize bounds the Embedder Facade's LRU cache of
	// recent embeddings (§4.4).
	EmbeddingCacheSize int `yaml:"embedding_cache_size"`

	// DebounceMs names a window for coalescing watcher change records
	// before reindexing (§4.12, §5). `tomosona watch` does not read it;
	// it runs the watcher with watcher.DefaultOptions (200 ms).
	DebounceMs int `yaml:"debounce_ms"`

	// MaxFileSizeBytes caps the size of a markdown file the indexer
	// will read; larger files are skipped rather than read into
	// memory whole.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`

	// RebuildLogCapacity is the bounded ring buffer size for the
	// Workspace Rebuilder's progress log (§4.7).
	RebuildLogCapacity int `yaml:"rebuild_log_capacity"`
}

// Default returns the specification's defaults: busy-timeout ~3s,
// K=3/τ=0.62 for semantic edges, a 12-token snippet window, a
// 1000-entry embedding cache, and a 400-entry log ring buffer.
func Default() Config {
	return Config{
		BusyTimeoutMs:       3000,
		SemanticK:           3,
		SemanticThreshold:   0.62,
		SnippetWindowTokens: 12,
		EmbeddingCacheSize:  1000,
		DebounceMs:          300,
		MaxFileSizeBytes:    10 * 1024 * 1024,
		RebuildLogCapacity:  400,
	}
}

// ConfigPath returns the path to a workspace's config.yaml sidecar.
func ConfigPath(root string) string {
	return filepath.Join(root, InternalDirName, ConfigFileName)
}

// Load reads <root>/.tomosona/config.yaml, overlaying any fields it sets
// onto the defaults. A missing file is not an error: Load returns
// Default() unchanged.
func Load(root string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath(root))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, tomoerrors.IoErr(err, ConfigPath(root))
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, tomoerrors.OperationFailedErr(err)
	}
	return cfg, nil
}

// Save writes cfg to <root>/.tomosona/config.yaml, creating the internal
// directory if needed.
func Save(root string, cfg Config) error {
	dir := filepath.Join(root, InternalDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tomoerrors.IoErr(err, dir)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return tomoerrors.OperationFailedErr(err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0o644); err != nil {
		return tomoerrors.IoErr(err, ConfigPath(root))
	}
	return nil
}
