package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jbl2024/tomosona/internal/store"
)

func TestDecomposeSplitsFreeTextAndFilters(t *testing.T) {
	freeText, filters := Decompose("roadmap tags:dev deadline>=2026-01-01 has:archive")

	require.Equal(t, "roadmap", freeText)
	require.Len(t, filters, 3)

	byKey := map[string]store.PropertyFilter{}
	for _, f := range filters {
		byKey[f.Key] = f
	}

	require.Equal(t, store.OpEquals, byKey["tags"].Op)
	require.Equal(t, store.PropertyText, byKey["tags"].Kind)
	require.Equal(t, "dev", byKey["tags"].ValueText)

	require.Equal(t, store.OpGreaterEq, byKey["deadline"].Op)
	require.Equal(t, store.PropertyDate, byKey["deadline"].Kind)
	require.Equal(t, "2026-01-01", byKey["deadline"].ValueDate)

	require.Equal(t, store.OpHas, byKey["archive"].Op)
}

func TestDecomposeTypesValues(t *testing.T) {
	cases := []struct {
		token string
		kind  store.PropertyKind
	}{
		{"archive:true", store.PropertyBool},
		{"archive:false", store.PropertyBool},
		{"score:3.5", store.PropertyNumber},
		{"created:2026-03-01", store.PropertyDate},
		{"status:done", store.PropertyText},
	}
	for _, c := range cases {
		_, filters := Decompose(c.token)
		require.Len(t, filters, 1, c.token)
		require.Equal(t, c.kind, filters[0].Kind, c.token)
	}
}

func TestDecomposeInequalityRejectsNonNumericDate(t *testing.T) {
	freeText, filters := Decompose("status>=done")
	require.Empty(t, filters)
	require.Equal(t, "status>=done", freeText)
}

func TestDecomposeNoFiltersReturnsWholeQueryAsFreeText(t *testing.T) {
	freeText, filters := Decompose("just a plain search")
	require.Equal(t, "just a plain search", freeText)
	require.Empty(t, filters)
}
