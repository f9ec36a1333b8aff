package introspect

import (
	"context"
	"errors"
)

// ErrUnknownTable is returned by a gateway when the database reports that
// the requested table does not exist.
var ErrUnknownTable = errors.New("introspect: unknown table")

// Gateway supplies the raw schema rows the schema store is built from.
type Gateway interface {
	Tables(ctx context.Context, database string) ([]string, error)
	Columns(ctx context.Context, database, table string) ([]ColumnRow, error)
	ForeignKeys(ctx context.Context, database, table string) ([]ForeignKeyRow, error)
	Metadata(ctx context.Context, database, table string) ([]MetadataRow, error)
}

// ColumnRow is one row of SHOW FULL COLUMNS.
type ColumnRow struct {
	Field      string  `yaml:"field"`
	Type       string  `yaml:"type"`
	Collation  string  `yaml:"collation,omitempty"`
	Null       string  `yaml:"null"`
	Key        string  `yaml:"key,omitempty"`
	Default    *string `yaml:"default,omitempty"`
	Extra      string  `yaml:"extra,omitempty"`
	Privileges string  `yaml:"privileges,omitempty"`
	Comment    string  `yaml:"comment,omitempty"`
}

// ForeignKeyRow is one row of key_column_usage. ReferencedTable is nil for
// primary and unique key rows.
type ForeignKeyRow struct {
	ConstraintSchema string  `yaml:"constraint_schema,omitempty"`
	ConstraintName   string  `yaml:"constraint_name,omitempty"`
	Table            string  `yaml:"table"`
	Column           string  `yaml:"column"`
	ReferencedTable  *string `yaml:"referenced_table,omitempty"`
	ReferencedColumn *string `yaml:"referenced_column,omitempty"`
}

// MetadataRow is one row of the optional metadata side table. When Key is
// "json", Value holds a JSON object whose members are merged individually.
type MetadataRow struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
	Key    string `yaml:"key"`
	Value  string `yaml:"value"`
}
