package dialect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basaltdb/basalt/dialect"
	"github.com/basaltdb/basalt/dialect/mock"
)

func TestDebugDriver(t *testing.T) {
	ctx := context.Background()
	var logged []string
	logFn := func(_ context.Context, v ...any) {
		for _, x := range v {
			logged = append(logged, x.(string))
		}
	}

	db := mock.Open(dialect.Postgres, mock.WithAutoID(1))
	drv := dialect.Debug(db)
	assert.Equal(t, dialect.Postgres, drv.Dialect())

	drv = dialect.DebugWithLog(db, logFn)
	require.NoError(t, drv.Exec(ctx, "INSERT INTO users DEFAULT VALUES", nil, nil))

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "UPDATE users SET name = $1", []any{"a"}, nil))
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{
		"driver.Exec: query=INSERT INTO users DEFAULT VALUES args=<nil>",
		"driver.Tx: started",
		"tx.Exec: query=UPDATE users SET name = $1 args=[a]",
		"tx.Commit",
	}, logged)

	// Everything still reached the wrapped database.
	assert.Equal(t, []string{
		"INSERT INTO users DEFAULT VALUES",
		"BEGIN",
		"UPDATE users SET name = $1 -- args: [a]",
		"COMMIT",
	}, db.Statements())
}

func TestNopTx(t *testing.T) {
	ctx := context.Background()
	db := mock.Open(dialect.Postgres)
	tx := dialect.NopTx(db)
	require.NoError(t, tx.Exec(ctx, "DELETE FROM users", nil, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())
	assert.Equal(t, []string{"DELETE FROM users"}, db.Statements())
}
