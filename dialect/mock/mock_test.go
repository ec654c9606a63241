package mock_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/basaltdb/basalt"
	"github.com/basaltdb/basalt/dialect"
	"github.com/basaltdb/basalt/dialect/mock"
	bsql "github.com/basaltdb/basalt/dialect/sql"
)

func TestStatementLog(t *testing.T) {
	ctx := context.Background()

	t.Run("records and drains", func(t *testing.T) {
		db := mock.Open(dialect.Postgres)
		require.NoError(t, db.Exec(ctx, "DELETE FROM users", nil, nil))
		require.NoError(t, db.Exec(ctx, "UPDATE users SET name = $1", []any{"a"}, nil))

		assert.Equal(t, []string{
			"DELETE FROM users",
			"UPDATE users SET name = $1 -- args: [a]",
		}, db.Statements())
		assert.Empty(t, db.Statements(), "drained on first read")
	})

	t.Run("append tag", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithAppend("suite-a"))
		require.NoError(t, db.Exec(ctx, "DELETE FROM users", nil, nil))
		assert.Equal(t, []string{"DELETE FROM users -- suite-a"}, db.Statements())
	})

	t.Run("shard suffix", func(t *testing.T) {
		db := mock.Open(dialect.Postgres)
		require.NoError(t, db.Shard("replica").Exec(ctx, "DELETE FROM users", nil, nil))
		require.NoError(t, db.Shard("default").Exec(ctx, "DELETE FROM logs", nil, nil))
		assert.Equal(t, []string{
			"DELETE FROM users -- replica",
			"DELETE FROM logs",
		}, db.Statements())
	})

	t.Run("shard connections are cached", func(t *testing.T) {
		db := mock.Open(dialect.Postgres)
		assert.Same(t, db.Shard("replica"), db.Shard("replica"))
		assert.NotEqual(t, db.Shard("replica").ID(), db.Shard("other").ID())
	})
}

func TestInsertIDs(t *testing.T) {
	ctx := context.Background()
	const insert = "INSERT INTO users DEFAULT VALUES"

	t.Run("sequence", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithAutoID(1))
		for want := int64(1); want <= 3; want++ {
			var res bsql.Result
			require.NoError(t, db.Exec(ctx, insert, nil, &res))
			id, err := res.LastInsertId()
			require.NoError(t, err)
			assert.Equal(t, want, id)
		}
	})

	t.Run("queue then default", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithAutoID(mock.NewQueue(7, 9)))
		var ids []int64
		for i := 0; i < 3; i++ {
			var res bsql.Result
			require.NoError(t, db.Exec(ctx, insert, nil, &res))
			id, err := res.LastInsertId()
			require.NoError(t, err)
			ids = append(ids, id)
		}
		assert.Equal(t, []int64{7, 9, 0}, ids)
	})

	t.Run("callback sees the recorded statement", func(t *testing.T) {
		var seen string
		db := mock.Open(dialect.Postgres,
			mock.WithAppend("tagged"),
			mock.WithAutoID(mock.Callback(func(stmt string) any {
				seen = stmt
				return 5
			})),
		)
		var res bsql.Result
		require.NoError(t, db.Exec(ctx, insert, nil, &res))
		id, _ := res.LastInsertId()
		assert.Equal(t, int64(5), id)
		assert.Equal(t, insert+" -- tagged", seen)
	})

	t.Run("error spec fails every insert until reconfigured", func(t *testing.T) {
		boom := errors.New("duplicate key")
		db := mock.Open(dialect.Postgres, mock.WithAutoID(boom))
		for i := 0; i < 2; i++ {
			err := db.Exec(ctx, insert, nil, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.True(t, basalt.IsDatabaseError(err))
		}
		db.Configure(mock.WithAutoID(1))
		require.NoError(t, db.Exec(ctx, insert, nil, nil))
	})
}

func TestNumRows(t *testing.T) {
	ctx := context.Background()

	t.Run("terminal", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithNumRows(3))
		var res bsql.Result
		require.NoError(t, db.Exec(ctx, "UPDATE users SET a = 1", nil, &res))
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("queue", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithNumRows(mock.NewQueue(2, 1)))
		var got []int64
		for i := 0; i < 3; i++ {
			var res bsql.Result
			require.NoError(t, db.Exec(ctx, "DELETE FROM users", nil, &res))
			n, _ := res.RowsAffected()
			got = append(got, n)
		}
		assert.Equal(t, []int64{2, 1, 0}, got)
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("single row map", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithFetch(map[string]any{"id": 1, "name": "a"}))
		var rows bsql.Rows
		require.NoError(t, db.Query(ctx, "SELECT * FROM users", nil, &rows))
		cols, err := rows.Columns()
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name"}, cols, "derived sorted from row keys")

		require.True(t, rows.Next())
		var id int
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		assert.Equal(t, 1, id)
		assert.Equal(t, "a", name)
		assert.False(t, rows.Next())
		require.NoError(t, rows.Close())
	})

	t.Run("column spec fixes order", func(t *testing.T) {
		db := mock.Open(dialect.Postgres,
			mock.WithColumns([]string{"name", "id"}),
			mock.WithFetch([]map[string]any{{"id": 1, "name": "a"}, {"id": 2, "name": "b"}}),
		)
		var rows bsql.Rows
		require.NoError(t, db.Query(ctx, "SELECT name, id FROM users", nil, &rows))
		cols, _ := rows.Columns()
		assert.Equal(t, []string{"name", "id"}, cols)

		var got []string
		for rows.Next() {
			var id int
			var name string
			require.NoError(t, rows.Scan(&name, &id))
			got = append(got, fmt.Sprintf("%s/%d", name, id))
		}
		assert.Equal(t, []string{"a/1", "b/2"}, got)
	})

	t.Run("queue of fetches", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithFetch(mock.NewQueue(
			map[string]any{"id": 1},
			[]map[string]any{{"id": 2}, {"id": 3}},
		)))
		counts := make([]int, 3)
		for i := range counts {
			var rows bsql.Rows
			require.NoError(t, db.Query(ctx, "SELECT id FROM users", nil, &rows))
			for rows.Next() {
				counts[i]++
			}
		}
		assert.Equal(t, []int{1, 2, 0}, counts)
	})

	t.Run("terminal spec stays live across queries", func(t *testing.T) {
		row := map[string]any{"id": 1}
		db := mock.Open(dialect.Postgres, mock.WithFetch(row))
		var rows bsql.Rows
		require.NoError(t, db.Query(ctx, "SELECT id FROM users", nil, &rows))
		require.True(t, rows.Next())
		var v any
		require.NoError(t, rows.Scan(&v))

		row["id"] = 99
		var again bsql.Rows
		require.NoError(t, db.Query(ctx, "SELECT id FROM users", nil, &again))
		require.True(t, again.Next())
		require.NoError(t, again.Scan(&v))
		assert.Equal(t, 99, v, "terminal spec reflects caller mutation")
		assert.Equal(t, []string{
			"SELECT id FROM users",
			"SELECT id FROM users",
		}, db.Statements())
	})
}

func TestStrictMode(t *testing.T) {
	ctx := context.Background()

	t.Run("exhausted queue errors", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithStrict(), mock.WithFetch(mock.NewQueue(map[string]any{"id": 1})))
		var rows bsql.Rows
		require.NoError(t, db.Query(ctx, "SELECT id FROM users", nil, &rows))

		err := db.Query(ctx, "SELECT id FROM users", nil, &rows)
		require.Error(t, err)
		assert.ErrorIs(t, err, basalt.ErrScriptExhausted)
		assert.True(t, basalt.IsDatabaseError(err))
	})

	t.Run("lenient queue falls back to default", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithFetch(mock.NewQueue(map[string]any{"id": 1})))
		var rows bsql.Rows
		require.NoError(t, db.Query(ctx, "SELECT id FROM users", nil, &rows))
		require.NoError(t, db.Query(ctx, "SELECT id FROM users", nil, &rows))
		assert.False(t, rows.Next())
	})
}

func TestDatasetOverrides(t *testing.T) {
	ctx := context.Background()
	db := mock.Open(dialect.Postgres,
		mock.WithFetch(map[string]any{"id": 1}),
		mock.WithNumRows(1),
	)

	t.Run("fetch override shadows the database spec", func(t *testing.T) {
		ds := db.Dataset().WithFetch([]map[string]any{{"id": 10}, {"id": 11}})
		var rows bsql.Rows
		require.NoError(t, ds.Query(ctx, "SELECT id FROM users", nil, &rows))
		var ids []int
		for rows.Next() {
			var id int
			require.NoError(t, rows.Scan(&id))
			ids = append(ids, id)
		}
		assert.Equal(t, []int{10, 11}, ids)
	})

	t.Run("absent override falls through", func(t *testing.T) {
		ds := db.Dataset().WithNumRows(9)
		var rows bsql.Rows
		require.NoError(t, ds.Query(ctx, "SELECT id FROM users", nil, &rows))
		require.True(t, rows.Next())
		var id int
		require.NoError(t, rows.Scan(&id))
		assert.Equal(t, 1, id)
	})

	t.Run("derivation does not mutate the parent", func(t *testing.T) {
		base := db.Dataset()
		_ = base.WithFetch(map[string]any{"id": 99})
		var rows bsql.Rows
		require.NoError(t, base.Query(ctx, "SELECT id FROM users", nil, &rows))
		require.True(t, rows.Next())
		var id int
		require.NoError(t, rows.Scan(&id))
		assert.Equal(t, 1, id)
	})
	db.Statements()
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		db := mock.Open(dialect.Postgres, mock.WithAutoID(1))
		tx, err := db.Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Exec(ctx, "INSERT INTO users DEFAULT VALUES", nil, nil))
		require.NoError(t, tx.Commit())
		assert.Equal(t, []string{
			"BEGIN",
			"INSERT INTO users DEFAULT VALUES",
			"COMMIT",
		}, db.Statements())
	})

	t.Run("rollback", func(t *testing.T) {
		db := mock.Open(dialect.Postgres)
		tx, err := db.Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())
		assert.Error(t, tx.Rollback(), "finished transaction")
		assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, db.Statements())
	})
}

func TestServerVersion(t *testing.T) {
	db := mock.Open(dialect.Postgres)
	_, ok := db.ServerVersion()
	assert.False(t, ok)

	db.Configure(mock.WithServerVersion(140002))
	v, ok := db.ServerVersion()
	require.True(t, ok)
	assert.Equal(t, 140002, v)
}

func TestConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	db := mock.Open(dialect.Postgres, mock.WithAutoID(1))

	var g errgroup.Group
	ids := make(chan int64, 100)
	for w := 0; w < 10; w++ {
		g.Go(func() error {
			for i := 0; i < 10; i++ {
				var res bsql.Result
				if err := db.Exec(ctx, "INSERT INTO users DEFAULT VALUES", nil, &res); err != nil {
					return err
				}
				id, err := res.LastInsertId()
				if err != nil {
					return err
				}
				ids <- id
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		require.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
		assert.GreaterOrEqual(t, id, int64(1))
		assert.LessOrEqual(t, id, int64(100))
	}
	assert.Len(t, seen, 100)
	assert.Len(t, db.Statements(), 100)
}
