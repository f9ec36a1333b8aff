package introspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
)

// MetadataTable is the name of the optional side table holding per-column
// metadata rows.
const MetadataTable = "metadata"

// mysqlNoSuchTable is ER_NO_SUCH_TABLE.
const mysqlNoSuchTable = 1146

// MySQLGateway reads schema rows from a MySQL server.
type MySQLGateway struct {
	db *sql.DB

	mu          sync.Mutex
	hasMetadata map[string]bool
}

// NewMySQLGateway returns a gateway reading through db.
func NewMySQLGateway(db *sql.DB) *MySQLGateway {
	return &MySQLGateway{db: db, hasMetadata: make(map[string]bool)}
}

func (g *MySQLGateway) Tables(ctx context.Context, database string) ([]string, error) {
	query := `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = ? AND table_type = 'BASE TABLE'
	ORDER BY table_name`

	rows, err := g.db.QueryContext(ctx, query, database)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table rows: %w", err)
	}
	return tables, nil
}

func (g *MySQLGateway) Columns(ctx context.Context, database, table string) ([]ColumnRow, error) {
	query := fmt.Sprintf("SHOW FULL COLUMNS FROM %s FROM %s", quoteIdent(table), quoteIdent(database))

	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		if isNoSuchTable(err) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownTable, database, table)
		}
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var columns []ColumnRow
	for rows.Next() {
		var (
			col       ColumnRow
			collation sql.NullString
			def       sql.NullString
		)
		if err := rows.Scan(
			&col.Field,
			&col.Type,
			&collation,
			&col.Null,
			&col.Key,
			&def,
			&col.Extra,
			&col.Privileges,
			&col.Comment,
		); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		col.Collation = collation.String
		if def.Valid {
			v := def.String
			col.Default = &v
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating column rows: %w", err)
	}
	return columns, nil
}

func (g *MySQLGateway) ForeignKeys(ctx context.Context, database, table string) ([]ForeignKeyRow, error) {
	query := `
	SELECT
		constraint_schema,
		constraint_name,
		table_name,
		column_name,
		referenced_table_name,
		referenced_column_name
	FROM information_schema.key_column_usage
	WHERE table_schema = ? AND table_name = ?
	ORDER BY constraint_name, ordinal_position`

	rows, err := g.db.QueryContext(ctx, query, database, table)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var keys []ForeignKeyRow
	for rows.Next() {
		var (
			fk        ForeignKeyRow
			refTable  sql.NullString
			refColumn sql.NullString
		)
		if err := rows.Scan(
			&fk.ConstraintSchema,
			&fk.ConstraintName,
			&fk.Table,
			&fk.Column,
			&refTable,
			&refColumn,
		); err != nil {
			return nil, fmt.Errorf("scanning foreign key: %w", err)
		}
		if refTable.Valid {
			fk.ReferencedTable = &refTable.String
		}
		if refColumn.Valid {
			fk.ReferencedColumn = &refColumn.String
		}
		keys = append(keys, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating foreign key rows: %w", err)
	}
	return keys, nil
}

// Metadata returns the side-table rows for table, or nothing when the
// database has no metadata table.
func (g *MySQLGateway) Metadata(ctx context.Context, database, table string) ([]MetadataRow, error) {
	ok, err := g.metadataTableExists(ctx, database)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT table_name, column_name, `key`, value FROM %s.%s WHERE table_name = ?",
		quoteIdent(database), quoteIdent(MetadataTable))

	rows, err := g.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	var result []MetadataRow
	for rows.Next() {
		var row MetadataRow
		var value sql.NullString
		if err := rows.Scan(&row.Table, &row.Column, &row.Key, &value); err != nil {
			return nil, fmt.Errorf("scanning metadata: %w", err)
		}
		row.Value = value.String
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metadata rows: %w", err)
	}
	return result, nil
}

func (g *MySQLGateway) metadataTableExists(ctx context.Context, database string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ok, seen := g.hasMetadata[database]; seen {
		return ok, nil
	}

	query := `
	SELECT COUNT(*)
	FROM information_schema.tables
	WHERE table_schema = ? AND table_name = ?`

	var n int
	if err := g.db.QueryRowContext(ctx, query, database, MetadataTable).Scan(&n); err != nil {
		return false, fmt.Errorf("checking metadata table: %w", err)
	}
	g.hasMetadata[database] = n > 0
	return n > 0, nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func isNoSuchTable(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoSuchTable
}
