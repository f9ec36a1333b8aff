package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGateway reads schema rows from PostgreSQL and reshapes them into
// the MySQL row layout the schema store expects. The database argument
// names the schema (usually "public").
type PostgresGateway struct {
	pool *pgxpool.Pool
}

// NewPostgresGateway returns a gateway reading through pool.
func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	return &PostgresGateway{pool: pool}
}

func (g *PostgresGateway) Tables(ctx context.Context, schema string) ([]string, error) {
	tablesQuery := `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = $1 AND table_type = 'BASE TABLE'
	ORDER BY table_name;
	`

	rows, err := g.pool.Query(ctx, tablesQuery, schema)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tableNames = append(tableNames, tableName)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating table rows: %w", rows.Err())
	}
	return tableNames, nil
}

func (g *PostgresGateway) Columns(ctx context.Context, schema, table string) ([]ColumnRow, error) {
	var exists bool
	if err := g.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2
	)`, schema, table).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking table: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownTable, schema, table)
	}

	columnsQuery := `
	SELECT
		c.column_name::text,
		c.udt_name::text,
		c.character_maximum_length::int,
		c.numeric_precision::int,
		c.numeric_scale::int,
		COALESCE(c.collation_name::text, ''),
		c.is_nullable::text,
		COALESCE((
			SELECT CASE MAX(CASE tc.constraint_type WHEN 'PRIMARY KEY' THEN 3 WHEN 'UNIQUE' THEN 2 ELSE 1 END)
				WHEN 3 THEN 'PRI' WHEN 2 THEN 'UNI' ELSE 'MUL' END
			FROM information_schema.key_column_usage kcu
			JOIN information_schema.table_constraints tc
				ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
			WHERE kcu.table_schema = c.table_schema AND kcu.table_name = c.table_name
				AND kcu.column_name = c.column_name
		), ''),
		c.column_default::text,
		CASE WHEN c.is_identity = 'YES' OR c.column_default LIKE 'nextval(%' THEN 'auto_increment' ELSE '' END,
		COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass::oid, c.ordinal_position::int), ''),
		COALESCE((
			SELECT string_agg(quote_literal(e.enumlabel), ',' ORDER BY e.enumsortorder)
			FROM pg_catalog.pg_type t
			JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
			JOIN pg_catalog.pg_enum e ON e.enumtypid = t.oid
			WHERE n.nspname = c.udt_schema AND t.typname = c.udt_name
		), '')
	FROM information_schema.columns c
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position;
	`

	rows, err := g.pool.Query(ctx, columnsQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []ColumnRow
	for rows.Next() {
		var (
			col       ColumnRow
			udt       string
			charLen   *int32
			precision *int32
			scale     *int32
			labels    string
		)
		if err := rows.Scan(
			&col.Field,
			&udt,
			&charLen,
			&precision,
			&scale,
			&col.Collation,
			&col.Null,
			&col.Key,
			&col.Default,
			&col.Extra,
			&col.Comment,
			&labels,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		col.Type = postgresType(udt, charLen, precision, scale, labels)
		columns = append(columns, col)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating column rows: %w", rows.Err())
	}
	return columns, nil
}

func (g *PostgresGateway) ForeignKeys(ctx context.Context, schema, table string) ([]ForeignKeyRow, error) {
	foreignKeysQuery := `
	SELECT
		tc.constraint_schema,
		tc.constraint_name,
		kcu.table_name,
		kcu.column_name,
		ccu.table_name AS foreign_table_name,
		ccu.column_name AS foreign_column_name
	FROM information_schema.table_constraints AS tc
	JOIN information_schema.key_column_usage AS kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage AS ccu
		ON ccu.constraint_name = tc.constraint_name
		AND ccu.table_schema = tc.table_schema
	WHERE tc.constraint_type = 'FOREIGN KEY'
		AND tc.table_schema = $1
		AND tc.table_name = $2
	ORDER BY tc.constraint_name, kcu.ordinal_position;
	`

	rows, err := g.pool.Query(ctx, foreignKeysQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var foreignKeys []ForeignKeyRow
	for rows.Next() {
		var fk ForeignKeyRow
		if err := rows.Scan(
			&fk.ConstraintSchema,
			&fk.ConstraintName,
			&fk.Table,
			&fk.Column,
			&fk.ReferencedTable,
			&fk.ReferencedColumn,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %w", err)
		}
		foreignKeys = append(foreignKeys, fk)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %w", rows.Err())
	}
	return foreignKeys, nil
}

func (g *PostgresGateway) Metadata(ctx context.Context, schema, table string) ([]MetadataRow, error) {
	var exists bool
	if err := g.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2
	)`, schema, MetadataTable).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking metadata table: %w", err)
	}
	if !exists {
		return nil, nil
	}

	rows, err := g.pool.Query(ctx, metadataQuery(schema), table)
	if err != nil {
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	var result []MetadataRow
	for rows.Next() {
		var row MetadataRow
		if err := rows.Scan(&row.Table, &row.Column, &row.Key, &row.Value); err != nil {
			return nil, fmt.Errorf("scanning metadata: %w", err)
		}
		result = append(result, row)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating metadata rows: %w", rows.Err())
	}
	return result, nil
}

func metadataQuery(schema string) string {
	return `SELECT table_name, column_name, "key", COALESCE(value, '') FROM ` +
		pgx.Identifier{schema, MetadataTable}.Sanitize() + ` WHERE table_name = $1`
}

// postgresType rebuilds a MySQL-style type string such as varchar(255) or
// decimal(10,2) from the udt name and the information_schema sizes. A user
// defined enum type becomes enum('a','b') from its quoted labels.
func postgresType(udt string, charLen, precision, scale *int32, enumLabels string) string {
	if enumLabels != "" {
		return "enum(" + enumLabels + ")"
	}
	name := strings.ToLower(udt)
	switch name {
	case "varchar", "bpchar":
		if name == "bpchar" {
			name = "char"
		}
		if charLen != nil {
			return fmt.Sprintf("%s(%d)", name, *charLen)
		}
		return name
	case "numeric":
		if precision != nil && scale != nil {
			return fmt.Sprintf("decimal(%d,%d)", *precision, *scale)
		}
		return "decimal"
	case "int2":
		return "smallint"
	case "int4":
		return "int"
	case "int8":
		return "bigint"
	case "float4":
		return "float"
	case "float8":
		return "double"
	case "bool":
		return "boolean"
	case "timestamptz":
		return "timestamp"
	case "timetz":
		return "time"
	case "bytea":
		return "blob"
	default:
		return name
	}
}
