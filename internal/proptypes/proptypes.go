// Package proptypes loads and saves <root>/.tomosona/property-types.json
// (§6): a user-editable map from lowercased property key to a type tag
// the host UI uses to render a property's editor. It is a narrower
// sibling of internal/config's general tunables, not a replacement for
// it. Grounded on the teacher's internal/config JSON-sidecar pattern,
// adapted from YAML tunables to a hand-edited JSON map with permissive
// reads.
package proptypes

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jbl2024/tomosona/internal/config"
	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// Kind is one of the type tags a property-types.json entry may carry.
// This is a distinct, slightly larger vocabulary than store.PropertyKind
// (§4.5's five storage kinds): "checkbox" and "tags" are host-UI
// rendering hints layered on top of "bool" and "list" respectively.
type Kind string

const (
	Text     Kind = "text"
	List     Kind = "list"
	Number   Kind = "number"
	Checkbox Kind = "checkbox"
	Date     Kind = "date"
	Tags     Kind = "tags"
)

var validKinds = map[Kind]bool{
	Text: true, List: true, Number: true, Checkbox: true, Date: true, Tags: true,
}

// Schema is the parsed property-key -> Kind map.
type Schema map[string]Kind

// Path returns the path to a workspace's property-types.json sidecar.
func Path(root string) string {
	return filepath.Join(root, config.InternalDirName, config.PropertyTypesFileName)
}

// Load reads property-types.json, silently dropping any entry whose
// value is not one of the six recognized kind tags. A missing file
// yields an empty, non-nil Schema rather than an error.
func Load(root string) (Schema, error) {
	data, err := os.ReadFile(Path(root))
	if os.IsNotExist(err) {
		return Schema{}, nil
	}
	if err != nil {
		return nil, tomoerrors.IoErr(err, Path(root))
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, tomoerrors.OperationFailedErr(err)
	}

	schema := make(Schema, len(raw))
	for key, kindStr := range raw {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		kind := Kind(strings.ToLower(strings.TrimSpace(kindStr)))
		if !validKinds[kind] {
			continue
		}
		schema[key] = kind
	}
	return schema, nil
}

// Save pretty-prints schema as JSON to property-types.json, creating the
// internal directory if needed.
func Save(root string, schema Schema) error {
	dir := filepath.Join(root, config.InternalDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tomoerrors.IoErr(err, dir)
	}

	// encoding/json sorts string-keyed map output alphabetically, so the
	// written file has a stable, diff-friendly key order without
	// needing to pre-sort.
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return tomoerrors.OperationFailedErr(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(Path(root), data, 0o644); err != nil {
		return tomoerrors.IoErr(err, Path(root))
	}
	return nil
}
