package sql_test

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/basaltdb/basalt/dialect"
	sql "github.com/basaltdb/basalt/dialect/sql"
	"github.com/basaltdb/basalt/dialect/sql/sqlhstore"
	_ "github.com/basaltdb/basalt/dialect/sql/sqlpg"
)

func TestDriverExecQuery(t *testing.T) {
	ctx := context.Background()
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	drv := sql.OpenDB(dialect.Postgres, db)
	defer drv.Close()

	t.Run("exec result", func(t *testing.T) {
		mk.ExpectExec("INSERT INTO users").
			WithArgs("a").
			WillReturnResult(sqlmock.NewResult(7, 1))
		var res sql.Result
		require.NoError(t, drv.Exec(ctx, "INSERT INTO users (name) VALUES ($1)", []any{"a"}, &res))
		id, err := res.LastInsertId()
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	})

	t.Run("query rows", func(t *testing.T) {
		mk.ExpectQuery("SELECT name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))
		var rows sql.Rows
		require.NoError(t, drv.Query(ctx, "SELECT name FROM users", []any{}, &rows))
		defer rows.Close()
		var names []string
		for rows.Next() {
			var name string
			require.NoError(t, rows.Scan(&name))
			names = append(names, name)
		}
		assert.Equal(t, []string{"a", "b"}, names)
	})

	t.Run("invalid receiver type", func(t *testing.T) {
		var wrong int
		assert.Error(t, drv.Query(ctx, "SELECT 1", []any{}, &wrong))
		assert.Error(t, drv.Exec(ctx, "DELETE FROM users", []any{}, &wrong))
	})

	assert.NoError(t, mk.ExpectationsWereMet())
}

func TestDriverServerVersion(t *testing.T) {
	t.Run("postgres probes once", func(t *testing.T) {
		db, mk, err := sqlmock.New()
		require.NoError(t, err)
		drv := sql.OpenDB(dialect.Postgres, db)
		defer drv.Close()

		mk.ExpectQuery("SHOW server_version_num").
			WillReturnRows(sqlmock.NewRows([]string{"server_version_num"}).AddRow("140005"))

		v, ok := drv.ServerVersion()
		require.True(t, ok)
		assert.Equal(t, 140005, v)

		// Cached, no second round trip.
		v, ok = drv.ServerVersion()
		require.True(t, ok)
		assert.Equal(t, 140005, v)
		assert.NoError(t, mk.ExpectationsWereMet())
	})

	t.Run("probe failure reports unknown", func(t *testing.T) {
		db, mk, err := sqlmock.New()
		require.NoError(t, err)
		drv := sql.OpenDB(dialect.Postgres, db)
		defer drv.Close()

		mk.ExpectQuery("SHOW server_version_num").WillReturnError(assert.AnError)
		_, ok := drv.ServerVersion()
		assert.False(t, ok)
	})

	t.Run("non-postgres is unknown", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		drv := sql.OpenDB(dialect.MySQL, db)
		defer drv.Close()
		_, ok := drv.ServerVersion()
		assert.False(t, ok)
	})
}

func TestDriverBuilder(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	drv := sql.OpenDB(dialect.Postgres, db)
	defer drv.Close()

	mk.ExpectQuery("SHOW server_version_num").
		WillReturnRows(sqlmock.NewRows([]string{"server_version_num"}).AddRow("140000"))

	// The builder carries the driver's version probe, so subscript-form
	// rendering follows the connected server.
	b := drv.Builder()
	sqlhstore.Hstore("tags").Get("a").Append(b)
	query, args := b.Query()
	assert.Equal(t, `"tags"[$1]`, query)
	assert.Equal(t, []any{"a"}, args)
}

func TestDriverTx(t *testing.T) {
	ctx := context.Background()
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	drv := sql.OpenDB(dialect.Postgres, db)
	defer drv.Close()

	mk.ExpectBegin()
	mk.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 2))
	mk.ExpectCommit()

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "UPDATE users SET name = $1", []any{"b"}, nil))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mk.ExpectationsWereMet())
}

func TestSQLiteIntegration(t *testing.T) {
	ctx := context.Background()
	drv, err := sql.Open(dialect.SQLite, ":memory:")
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	require.NoError(t, drv.Exec(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)", []any{}, nil))

	var res sql.Result
	require.NoError(t, drv.Exec(ctx, "INSERT INTO users (name) VALUES (?)", []any{"a"}, &res))
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	var rows sql.Rows
	require.NoError(t, drv.Query(ctx, "SELECT id, name FROM users", []any{}, &rows))
	defer rows.Close()
	require.True(t, rows.Next())
	var gotID int64
	var name string
	require.NoError(t, rows.Scan(&gotID, &name))
	assert.Equal(t, int64(1), gotID)
	assert.Equal(t, "a", name)

	_, ok := drv.ServerVersion()
	assert.False(t, ok, "sqlite has no version probe")
}

func TestMySQLOpen(t *testing.T) {
	// Opening is lazy; no server is contacted until the first statement.
	drv, err := sql.Open(dialect.MySQL, "user:pass@tcp(127.0.0.1:3306)/app?parseTime=true")
	require.NoError(t, err)
	defer drv.Close()
	assert.Equal(t, dialect.MySQL, drv.Dialect())

	b := drv.Builder()
	b.Ident("users.name").WriteString(" = ").Arg("a")
	query, _ := b.Query()
	assert.Equal(t, "`users`.`name` = ?", query)
}

func TestDialectNameNormalization(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	drv := sql.OpenDB("postgres-instrumented", db)
	defer drv.Close()
	assert.Equal(t, dialect.Postgres, drv.Dialect())
}
