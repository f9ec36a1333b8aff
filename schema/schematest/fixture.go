// Package schematest provides a small blog-like schema for tests of the
// packages built on the schema store.
package schematest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/metagen/introspect"
	"github.com/ridoystarlord/metagen/schema"
)

// Database is the database name of the fixture.
const Database = "blog"

// Column builds a column row.
func Column(field, typ, null, key, comment string) introspect.ColumnRow {
	return introspect.ColumnRow{
		Field:      field,
		Type:       typ,
		Null:       null,
		Key:        key,
		Privileges: "select,insert,update,references",
		Comment:    comment,
	}
}

// ForeignKey builds a constraint row referencing refTable.refColumn.
func ForeignKey(table, column, refTable, refColumn string) introspect.ForeignKeyRow {
	return introspect.ForeignKeyRow{
		ConstraintSchema: Database,
		ConstraintName:   table + "_" + column + "_foreign",
		Table:            table,
		Column:           column,
		ReferencedTable:  &refTable,
		ReferencedColumn: &refColumn,
	}
}

// Gateway returns the fixture gateway: users, boards and countries.
func Gateway() *introspect.StaticGateway {
	gw := &introspect.StaticGateway{Database: Database}
	gw.Add(introspect.StaticTable{
		Name: "users",
		Columns: []introspect.ColumnRow{
			Column("id", "int(10) unsigned", "NO", "PRI", ""),
			Column("name", "varchar(255)", "NO", "", ""),
			Column("email", "varchar(191)", "NO", "UNI", ""),
			Column("password", "varchar(255)", "NO", "", ""),
			Column("role", "enum('admin','member')", "YES", "", ""),
			Column("avatar_image", "varchar(255)", "YES", "", ""),
			Column("created_at", "timestamp", "YES", "", ""),
			Column("updated_at", "timestamp", "YES", "", ""),
		},
		ForeignKeys: []introspect.ForeignKeyRow{
			{ConstraintSchema: Database, ConstraintName: "PRIMARY", Table: "users", Column: "id"},
		},
	})
	gw.Add(introspect.StaticTable{
		Name: "boards",
		Columns: []introspect.ColumnRow{
			Column("id", "bigint(20) unsigned", "NO", "PRI", ""),
			Column("name", "varchar(100)", "NO", "", ""),
			Column("description", "text", "YES", "", ""),
			Column("owner_id", "int(10) unsigned", "NO", "MUL", ""),
			Column("is_public", "tinyint(1)", "NO", "", ""),
			Column("tags", "varchar(255)", "YES", "", `Comma separated tags {"subtype": "csv_string"}`),
			Column("status", "varchar(20)", "NO", "", `{"guarded": "true"}`),
			Column("price", "decimal(10,2)", "YES", "", ""),
			Column("start_date", "date", "YES", "", ""),
			Column("created_at", "timestamp", "YES", "", ""),
			Column("updated_at", "timestamp", "YES", "", ""),
		},
		ForeignKeys: []introspect.ForeignKeyRow{
			ForeignKey("boards", "owner_id", "users", "id"),
		},
		Metadata: []introspect.MetadataRow{
			{Table: "boards", Column: "description", Key: "faker", Value: "paragraph"},
		},
	})
	gw.Add(introspect.StaticTable{
		Name: "countries",
		Columns: []introspect.ColumnRow{
			Column("code", "char(2)", "NO", "PRI", ""),
			Column("name", "varchar(64)", "NO", "", ""),
		},
	})
	return gw
}

// Load loads gw into a store and fails the test on error.
func Load(t testing.TB, gw introspect.Gateway) *schema.Store {
	t.Helper()
	store, err := schema.NewLoader(gw).Load(context.Background(), Database)
	require.NoError(t, err)
	return store
}

// Store loads the fixture gateway.
func Store(t testing.TB) *schema.Store {
	t.Helper()
	return Load(t, Gateway())
}
