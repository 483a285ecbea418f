// Package workspace holds the process-scoped active-root state described
// in §5 and §9: a single canonicalized workspace root behind an exclusive
// lock, plus the internal/trash directory layout and the user-editable
// property-type schema of §6. It is grounded on the teacher's
// internal/config singleton-lock pattern (an embed-model download lock
// guarding a process-wide resource), adapted from a download lock to a
// cross-process workspace lock via gofrs/flock.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/jbl2024/tomosona/internal/config"
	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
	"github.com/jbl2024/tomosona/internal/pathutil"
)

// LockFileName is the cross-process exclusive lock guarding the
// single-writer-at-a-time model of §5.
const LockFileName = "workspace.lock"

// Workspace holds the canonicalized root and the cross-process lock
// protecting it. All index operations require an active Workspace;
// callers without one get a NoWorkspace error.
type Workspace struct {
	mu   sync.Mutex
	root string
	lock *flock.Flock
}

// Open canonicalizes input (per §4.1's CanonicalizeRoot), creates the
// internal directory if absent, and acquires the cross-process lock.
// Returns NoWorkspace-adjacent errors (InvalidPath, ReservedRoot) from
// pathutil unchanged.
func Open(input string) (*Workspace, error) {
	root, err := pathutil.CanonicalizeRoot(input)
	if err != nil {
		return nil, err
	}

	internalDir := filepath.Join(root, config.InternalDirName)
	if err := os.MkdirAll(internalDir, 0o755); err != nil {
		return nil, tomoerrors.IoErr(err, internalDir)
	}

	lock := flock.New(filepath.Join(internalDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, tomoerrors.IoErr(err, internalDir)
	}
	if !locked {
		return nil, tomoerrors.New(tomoerrors.OperationFailed, "workspace is locked by another process").WithPath(root)
	}

	return &Workspace{root: root, lock: lock}, nil
}

// Root returns the canonicalized workspace root.
func (w *Workspace) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// DatabasePath returns the path to the index database within the
// workspace's internal directory.
func (w *Workspace) DatabasePath() string {
	return filepath.Join(w.Root(), config.InternalDirName, config.DatabaseName)
}

// VectorIndexPath returns the gob sidecar path for the HNSW vector index.
func (w *Workspace) VectorIndexPath() string {
	return filepath.Join(w.Root(), config.InternalDirName, "vector-index.gob")
}

// TrashDir returns the workspace's trash directory path (never indexed).
func (w *Workspace) TrashDir() string {
	return filepath.Join(w.Root(), config.TrashDirName)
}

// Close releases the cross-process lock.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}

// PropertyTypeKind is one of the user-editable property-type tags of §6,
// a slightly wider vocabulary than the storage Kind of §3 ("checkbox" and
// "tags" are UI-facing synonyms for bool and list respectively).
type PropertyTypeKind string

const (
	PropertyTypeText     PropertyTypeKind = "text"
	PropertyTypeList     PropertyTypeKind = "list"
	PropertyTypeNumber   PropertyTypeKind = "number"
	PropertyTypeCheckbox PropertyTypeKind = "checkbox"
	PropertyTypeDate     PropertyTypeKind = "date"
	PropertyTypeTags     PropertyTypeKind = "tags"
)

var validPropertyTypes = map[PropertyTypeKind]bool{
	PropertyTypeText: true, PropertyTypeList: true, PropertyTypeNumber: true,
	PropertyTypeCheckbox: true, PropertyTypeDate: true, PropertyTypeTags: true,
}

// PropertyTypeSchemaPath returns the path to property-types.json.
func PropertyTypeSchemaPath(root string) string {
	return filepath.Join(root, config.InternalDirName, config.PropertyTypesFileName)
}

// ReadPropertyTypeSchema reads the property-key -> type map, silently
// dropping entries whose type tag isn't recognized. A missing file
// returns an empty map, not an error.
func ReadPropertyTypeSchema(root string) (map[string]PropertyTypeKind, error) {
	data, err := os.ReadFile(PropertyTypeSchemaPath(root))
	if os.IsNotExist(err) {
		return map[string]PropertyTypeKind{}, nil
	}
	if err != nil {
		return nil, tomoerrors.IoErr(err, PropertyTypeSchemaPath(root))
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[string]PropertyTypeKind{}, nil
	}

	out := make(map[string]PropertyTypeKind, len(raw))
	for k, v := range raw {
		kind := PropertyTypeKind(v)
		if !validPropertyTypes[kind] {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = kind
	}
	return out, nil
}

// WritePropertyTypeSchema pretty-prints schema to property-types.json,
// creating the internal directory if needed.
func WritePropertyTypeSchema(root string, schema map[string]PropertyTypeKind) error {
	dir := filepath.Join(root, config.InternalDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tomoerrors.IoErr(err, dir)
	}

	raw := make(map[string]string, len(schema))
	for k, v := range schema {
		if !validPropertyTypes[v] {
			continue
		}
		raw[k] = string(v)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return tomoerrors.OperationFailedErr(err)
	}
	path := PropertyTypeSchemaPath(root)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return tomoerrors.IoErr(err, path)
	}
	return nil
}
