package sqlpg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basaltdb/basalt/dialect"
	"github.com/basaltdb/basalt/dialect/sql"
	"github.com/basaltdb/basalt/dialect/sql/sqlexpr"
)

func render(t *testing.T, x sqlexpr.Expr) (string, []any) {
	t.Helper()
	query, args, err := sql.Render(dialect.Postgres, x)
	require.NoError(t, err)
	return query, args
}

func TestArray(t *testing.T) {
	t.Run("literal", func(t *testing.T) {
		query, args := render(t, Array("a", "b", "c"))
		assert.Equal(t, "ARRAY[$1, $2, $3]", query)
		assert.Equal(t, []any{"a", "b", "c"}, args)
	})
	t.Run("empty", func(t *testing.T) {
		query, args := render(t, Array())
		assert.Equal(t, "ARRAY[]", query)
		assert.Empty(t, args)
	})
}

func TestHstoreValue(t *testing.T) {
	h := Hstore{m: map[string]string{"a": "1"}}
	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`"a"=>"1"`), v)
}

func TestHstoreLiteral(t *testing.T) {
	query, args := render(t, HstoreLiteral(map[string]string{"a": "1"}))
	assert.Equal(t, "$1::hstore", query)
	require.Len(t, args, 1)
	assert.IsType(t, Hstore{}, args[0])
}

func TestArrayOp(t *testing.T) {
	a := WrapArray(sqlexpr.Wrap("ids"))

	t.Run("wrap is idempotent", func(t *testing.T) {
		assert.Same(t, a, WrapArray(a))
	})
	t.Run("contains", func(t *testing.T) {
		query, args := render(t, a.Contains([]string{"a"}))
		assert.Equal(t, `("ids" @> ARRAY[$1])`, query)
		assert.Equal(t, []any{"a"}, args)
	})
	t.Run("contained by", func(t *testing.T) {
		query, _ := render(t, a.ContainedBy(WrapArray(sqlexpr.Wrap("other"))))
		assert.Equal(t, `("ids" <@ "other")`, query)
	})
	t.Run("overlaps", func(t *testing.T) {
		query, args := render(t, a.Overlaps([]any{1, 2}))
		assert.Equal(t, `("ids" && ARRAY[$1, $2])`, query)
		assert.Equal(t, []any{1, 2}, args)
	})
	t.Run("concat chains", func(t *testing.T) {
		query, _ := render(t, a.Concat([]any{1}).Unnest())
		assert.Equal(t, `unnest(("ids" || ARRAY[$1]))`, query)
	})
	t.Run("length", func(t *testing.T) {
		query, args := render(t, a.Length())
		assert.Equal(t, `array_length("ids", $1)`, query)
		assert.Equal(t, []any{1}, args)
	})
	t.Run("any", func(t *testing.T) {
		query, _ := render(t, a.Any())
		assert.Equal(t, `any("ids")`, query)
	})
}

func TestArrayOpRewrite(t *testing.T) {
	a := WrapArray(sqlexpr.NewFunc("akeys", sqlexpr.Wrap("tags")))
	got := sqlexpr.Rewrite(a, func(x sqlexpr.Expr) sqlexpr.Expr {
		if f, ok := x.(*sqlexpr.Func); ok && f.Name() == "akeys" {
			return sqlexpr.NewFunc("avals", f.Args()...)
		}
		return x
	})
	query, _ := render(t, got)
	assert.Equal(t, `avals("tags")`, query)
	_, ok := got.(*ArrayOp)
	assert.True(t, ok, "rewrite preserves the wrapper")
}
