package postgis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectRegionsDefaults(t *testing.T) {
	query, args := selectRegions(Table{}.withDefaults())
	assert.Equal(t, `SELECT "region", ST_AsBinary("geom") FROM "regions"`, query)
	assert.Empty(t, args)
}

func TestSelectRegionsFilter(t *testing.T) {
	query, args := selectRegions(Table{
		Name:           "admin_1",
		LabelColumn:    "name",
		GeometryColumn: "the_geom",
		OrderColumn:    defaultOrderColumn,
		Filter:         map[string]string{"admin": "Spain", "iso_a2": "ES"},
	})
	assert.Equal(t,
		`SELECT "name", ST_AsBinary("the_geom") FROM "admin_1" WHERE "admin" = $1 AND "iso_a2" = $2 ORDER BY "id"`,
		query)
	assert.Equal(t, []any{"Spain", "ES"}, args)
}

func TestSelectRegionsQuotesIdentifiers(t *testing.T) {
	query, _ := selectRegions(Table{Name: `bad"name`, LabelColumn: "l", GeometryColumn: "g"})
	assert.Contains(t, query, `FROM "bad""name"`)
}

func TestSelectRegionsKeepsInsertionOrder(t *testing.T) {
	query, _ := selectRegions(Table{Name: "regions", LabelColumn: "region", GeometryColumn: "geom", OrderColumn: "id"})
	assert.Equal(t, `SELECT "region", ST_AsBinary("geom") FROM "regions" ORDER BY "id"`, query)
	assert.NotContains(t, query, `ORDER BY "region"`)

	query, _ = selectRegions(Table{Name: "regions", LabelColumn: "region", GeometryColumn: "geom", OrderColumn: "gid"})
	assert.True(t, strings.HasSuffix(query, `ORDER BY "gid"`))
}

func TestHasColumnQuery(t *testing.T) {
	assert.Contains(t, hasColumnQuery, "information_schema.columns")
	assert.Contains(t, hasColumnQuery, "table_name = $1 AND column_name = $2")
}
