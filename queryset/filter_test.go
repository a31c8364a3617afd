package queryset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yui-knk/norikra/queryset"
)

func trackingQuerySet(t *testing.T) *queryset.Set {
	t.Helper()

	defs, err := queryset.Decode([]byte(trackingSet))
	require.NoError(t, err)

	set, err := queryset.NewSet("tracking.yaml", defs)
	require.NoError(t, err)

	return set
}

func TestFilter(t *testing.T) {
	t.Parallel()

	set := trackingQuerySet(t)

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"empty matches all", "", []string{"rfid-zones", "sizes", "paths"}},
		{"by target", `"Zones" in targets`, []string{"rfid-zones"}},
		{"by group", `group == "web"`, []string{"paths"}},
		{"no group", `group == ""`, []string{"sizes"}},
		{"by field", `"params.$$path.$1" in fields`, []string{"paths"}},
		{"by target count", `len(targets) == 2`, []string{"rfid-zones", "sizes"}},
		{"by name", `name startsWith "s"`, []string{"sizes"}},
		{"by expression text", `expression contains "max("`, []string{"sizes"}},
		{"none", `false`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := queryset.Filter(set, tt.filter)
			require.NoError(t, err)

			var names []string
			for _, q := range got {
				names = append(names, q.Name())
			}

			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	t.Parallel()

	set := trackingQuerySet(t)

	_, err := queryset.Filter(set, `name + 1`)
	require.Error(t, err)

	_, err = queryset.Filter(set, `len(targets)`)
	require.ErrorIs(t, err, queryset.ErrFilterNotBool)

	_, err = queryset.Filter(set, `unknown_var == 1`)
	require.Error(t, err)
}
