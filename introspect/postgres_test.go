package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresType(t *testing.T) {
	n := func(v int32) *int32 { return &v }

	tests := []struct {
		udt                       string
		charLen, precision, scale *int32
		labels                    string
		want                      string
	}{
		{udt: "varchar", charLen: n(255), want: "varchar(255)"},
		{udt: "bpchar", charLen: n(2), want: "char(2)"},
		{udt: "text", want: "text"},
		{udt: "numeric", precision: n(10), scale: n(2), want: "decimal(10,2)"},
		{udt: "numeric", want: "decimal"},
		{udt: "int4", want: "int"},
		{udt: "int8", want: "bigint"},
		{udt: "bool", want: "boolean"},
		{udt: "timestamptz", want: "timestamp"},
		{udt: "bytea", want: "blob"},
		{udt: "mood", labels: "'happy','it''s fine'", want: "enum('happy','it''s fine')"},
		{udt: "mood", want: "mood"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, postgresType(tt.udt, tt.charLen, tt.precision, tt.scale, tt.labels), tt.udt)
	}
}

func TestMetadataQueryQuotesIdentifiers(t *testing.T) {
	assert.Equal(t,
		`SELECT table_name, column_name, "key", COALESCE(value, '') FROM "public"."metadata" WHERE table_name = $1`,
		metadataQuery("public"))
	assert.Contains(t, metadataQuery(`we"ird`), `"we""ird"."metadata"`)
}
