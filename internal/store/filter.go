package store

import (
	"context"
	"sort"
	"strings"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// FilterOp is one of the comparison operators a property-filter token can
// carry, per §4.9.
type FilterOp string

const (
	OpEquals     FilterOp = "="  // ":" and "=" are equivalent
	OpGreater    FilterOp = ">"
	OpGreaterEq  FilterOp = ">="
	OpLess       FilterOp = "<"
	OpLessEq     FilterOp = "<="
	OpHas        FilterOp = "has"
)

// PropertyFilter is one parsed `key:value`-shaped query token, already
// typed by the Query Engine (bool/number/date/text) per §4.9's typing
// rules.
type PropertyFilter struct {
	Key  string
	Op   FilterOp
	Kind PropertyKind // ignored when Op == OpHas

	ValueText string
	ValueNum  float64
	ValueBool bool
	ValueDate string
}

// MatchingPaths returns the set of note paths satisfying every filter
// simultaneously (set intersection, per §4.9 step 1 and the "Query
// filter intersection" testable property).
func (s *Store) MatchingPaths(ctx context.Context, filters []PropertyFilter) ([]string, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	var result map[string]struct{}
	for _, f := range filters {
		paths, err := s.pathsForFilter(ctx, f)
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(paths))
		for _, p := range paths {
			set[p] = struct{}{}
		}
		if result == nil {
			result = set
			continue
		}
		for p := range result {
			if _, ok := set[p]; !ok {
				delete(result, p)
			}
		}
	}

	out := make([]string, 0, len(result))
	for p := range result {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return lessFold(out[i], out[j]) })
	return out, nil
}

func (s *Store) pathsForFilter(ctx context.Context, f PropertyFilter) ([]string, error) {
	var query string
	var args []any

	if f.Op == OpHas {
		query = `SELECT DISTINCT path FROM note_properties WHERE key = ?`
		args = []any{f.Key}
		return s.queryPaths(ctx, query, args)
	}

	col, val := filterColumn(f)
	cmp := string(f.Op)
	if f.Op == OpEquals {
		cmp = "="
	}
	kindClause := `kind = ?`
	args = []any{f.Key, string(f.Kind), val}
	if f.Kind == PropertyText {
		// A text value also matches one element of a list property (tags).
		kindClause = `kind IN (?, ?)`
		args = []any{f.Key, string(PropertyText), string(PropertyList), val}
	}
	query = `SELECT DISTINCT path FROM note_properties WHERE key = ? AND ` + kindClause + ` AND ` + col + ` ` + cmp + ` ?`
	return s.queryPaths(ctx, query, args)
}

func filterColumn(f PropertyFilter) (string, any) {
	switch f.Kind {
	case PropertyBool:
		return "value_bool", f.ValueBool
	case PropertyNumber:
		return "value_num", f.ValueNum
	case PropertyDate:
		return "value_date", f.ValueDate
	default:
		return "value_text", f.ValueText
	}
}

func (s *Store) queryPaths(ctx context.Context, query string, args []any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, tomoerrors.StoreErr(err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// lessFold is a case-insensitive less-than used for the repo-wide
// "sorted case-insensitively by path" convention (§4.9, §4.10, §4.11).
func lessFold(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
