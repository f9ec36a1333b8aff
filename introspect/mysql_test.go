package introspect

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var showColumns = []string{"Field", "Type", "Collation", "Null", "Key", "Default", "Extra", "Privileges", "Comment"}

func escape(query string) string {
	return regexp.QuoteMeta(query)
}

func TestMySQLTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT table_name\\s+FROM information_schema.tables").
		WithArgs("blog").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("boards").AddRow("users"))

	tables, err := NewMySQLGateway(db).Tables(context.Background(), "blog")
	require.NoError(t, err)
	assert.Equal(t, []string{"boards", "users"}, tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(escape("SHOW FULL COLUMNS FROM `users` FROM `blog`")).
		WillReturnRows(sqlmock.NewRows(showColumns).
			AddRow("id", "int(10) unsigned", nil, "NO", "PRI", nil, "auto_increment", "select,insert", "").
			AddRow("email", "varchar(191)", "utf8mb4_unicode_ci", "NO", "UNI", nil, "", "select,insert", `{"subtype":"email"}`).
			AddRow("status", "varchar(20)", "utf8mb4_unicode_ci", "YES", "", "draft", "", "select", ""))

	cols, err := NewMySQLGateway(db).Columns(context.Background(), "blog", "users")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, "id", cols[0].Field)
	assert.Equal(t, "", cols[0].Collation)
	assert.Nil(t, cols[0].Default)
	assert.Equal(t, "auto_increment", cols[0].Extra)

	assert.Equal(t, "email", cols[1].Field)
	assert.Equal(t, "UNI", cols[1].Key)
	assert.Equal(t, `{"subtype":"email"}`, cols[1].Comment)

	require.NotNil(t, cols[2].Default)
	assert.Equal(t, "draft", *cols[2].Default)
	assert.Equal(t, "YES", cols[2].Null)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLColumnsUnknownTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(escape("SHOW FULL COLUMNS FROM `ghosts` FROM `blog`")).
		WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'blog.ghosts' doesn't exist"})

	_, err = NewMySQLGateway(db).Columns(context.Background(), "blog", "ghosts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLForeignKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"constraint_schema", "constraint_name", "table_name", "column_name", "referenced_table_name", "referenced_column_name"}
	mock.ExpectQuery("FROM information_schema.key_column_usage").
		WithArgs("blog", "boards").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("blog", "PRIMARY", "boards", "id", nil, nil).
			AddRow("blog", "boards_owner_id_foreign", "boards", "owner_id", "users", "id"))

	keys, err := NewMySQLGateway(db).ForeignKeys(context.Background(), "blog", "boards")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Nil(t, keys[0].ReferencedTable)
	require.NotNil(t, keys[1].ReferencedTable)
	assert.Equal(t, "users", *keys[1].ReferencedTable)
	assert.Equal(t, "id", *keys[1].ReferencedColumn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM information_schema.tables").
		WithArgs("blog", "metadata").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(escape("SELECT table_name, column_name, `key`, value FROM `blog`.`metadata` WHERE table_name = ?")).
		WithArgs("boards").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "key", "value"}).
			AddRow("boards", "tags", "subtype", "csv_string").
			AddRow("boards", "tags", "json", `{"fillable":"true"}`))
	mock.ExpectQuery(escape("SELECT table_name, column_name, `key`, value FROM `blog`.`metadata` WHERE table_name = ?")).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "key", "value"}))

	gw := NewMySQLGateway(db)
	rows, err := gw.Metadata(context.Background(), "blog", "boards")
	require.NoError(t, err)
	assert.Equal(t, []MetadataRow{
		{Table: "boards", Column: "tags", Key: "subtype", Value: "csv_string"},
		{Table: "boards", Column: "tags", Key: "json", Value: `{"fillable":"true"}`},
	}, rows)

	// The existence check is cached per database.
	rows, err = gw.Metadata(context.Background(), "blog", "users")
	require.NoError(t, err)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLMetadataTableMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM information_schema.tables").
		WithArgs("blog", "metadata").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	rows, err := NewMySQLGateway(db).Metadata(context.Background(), "blog", "boards")
	require.NoError(t, err)
	assert.Nil(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresType(t *testing.T) {
	n := func(v int32) *int32 { return &v }
	assert.Equal(t, "varchar(255)", postgresType("varchar", n(255), nil, nil))
	assert.Equal(t, "char(2)", postgresType("bpchar", n(2), nil, nil))
	assert.Equal(t, "text", postgresType("text", nil, nil, nil))
	assert.Equal(t, "decimal(10,2)", postgresType("numeric", nil, n(10), n(2)))
	assert.Equal(t, "int", postgresType("int4", nil, n(32), n(0)))
	assert.Equal(t, "boolean", postgresType("bool", nil, nil, nil))
	assert.Equal(t, "timestamp", postgresType("timestamptz", nil, nil, nil))
}
