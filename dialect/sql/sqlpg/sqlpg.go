// Package sqlpg provides the Postgres capability providers consumed by
// sqlhstore: array literals, hstore literals and the array operation set.
// Importing the package registers all three:
//
//	import _ "github.com/basaltdb/basalt/dialect/sql/sqlpg"
package sqlpg

import (
	"database/sql"

	"github.com/lib/pq/hstore"

	bsql "github.com/basaltdb/basalt/dialect/sql"
	"github.com/basaltdb/basalt/dialect/sql/sqlexpr"
	"github.com/basaltdb/basalt/dialect/sql/sqlhstore"
)

func init() {
	sqlhstore.RegisterProviders(sqlhstore.Providers{
		ArrayLiteral: func(vs []any) sqlexpr.Expr { return Array(vs...) },
		MapLiteral:   func(m map[string]string) sqlexpr.Expr { return HstoreLiteral(m) },
		ArrayOps:     func(x sqlexpr.Expr) sqlexpr.Expr { return WrapArray(x) },
	})
}

// ArrayLiteral renders an ARRAY[...] constructor with each element bound as
// a statement argument.
type ArrayLiteral struct {
	elems []any
}

// Array returns an array literal for the given elements.
func Array(elems ...any) *ArrayLiteral {
	return &ArrayLiteral{elems: elems}
}

// Append implements the sql.Expr interface.
func (a *ArrayLiteral) Append(b *bsql.Builder) {
	b.WriteString("ARRAY[")
	b.Args(a.elems...)
	b.WriteByte(']')
}

// Hstore is a driver.Valuer binding a Go map in the lib/pq hstore wire
// encoding.
type Hstore struct {
	m map[string]string
}

// HstoreLiteral returns an hstore literal bound as a single argument with
// an explicit ::hstore cast.
func HstoreLiteral(m map[string]string) sqlexpr.Expr {
	return sqlexpr.NewCast(sqlexpr.Value(Hstore{m: m}), "hstore")
}

// Value implements the driver.Valuer interface using lib/pq's hstore
// encoding.
func (h Hstore) Value() (any, error) {
	enc := hstore.Hstore{Map: make(map[string]sql.NullString, len(h.m))}
	for k, v := range h.m {
		enc.Map[k] = sql.NullString{String: v, Valid: true}
	}
	return enc.Value()
}

// ArrayOp attaches the Postgres array operation set to an array-valued
// expression. Array-valued hstore results (akeys, avals, flatten forms) are
// wrapped with it automatically when this package is imported.
type ArrayOp struct {
	expr sqlexpr.Expr
}

// WrapArray wraps x with the array operation set. Wrapping is idempotent.
func WrapArray(x sqlexpr.Expr) *ArrayOp {
	if a, ok := x.(*ArrayOp); ok {
		return a
	}
	return &ArrayOp{expr: x}
}

// Append implements the sql.Expr interface.
func (a *ArrayOp) Append(b *bsql.Builder) { a.expr.Append(b) }

// Unwrap returns the wrapped expression node.
func (a *ArrayOp) Unwrap() sqlexpr.Expr { return a.expr }

// TransformChildren implements the sqlexpr.Transformer interface.
func (a *ArrayOp) TransformChildren(t sqlexpr.Transform) sqlexpr.Expr {
	return WrapArray(t(a.expr))
}

// Contains reports whether the array contains v: (a @> x).
func (a *ArrayOp) Contains(v any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpContains, a.expr, coerce(v))
}

// ContainedBy reports whether the array is contained in v: (a <@ x).
func (a *ArrayOp) ContainedBy(v any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpContainedBy, a.expr, coerce(v))
}

// Overlaps reports whether the arrays share elements: (a && x).
func (a *ArrayOp) Overlaps(v any) sqlexpr.Expr {
	return sqlexpr.Placeholder("(? && ?)", a.expr, coerce(v))
}

// Concat appends another array: (a || x).
func (a *ArrayOp) Concat(v any) *ArrayOp {
	return WrapArray(sqlexpr.NewOp(sqlexpr.OpConcat, a.expr, coerce(v)))
}

// Unnest expands the array to a set of elements: unnest(a).
func (a *ArrayOp) Unnest() sqlexpr.Expr {
	return sqlexpr.NewFunc("unnest", a.expr)
}

// Length returns the array length along the first dimension:
// array_length(a, 1).
func (a *ArrayOp) Length() sqlexpr.Expr {
	return sqlexpr.NewFunc("array_length", a.expr, sqlexpr.Value(1))
}

// Any returns an any(a) expression for use on the right side of
// comparisons.
func (a *ArrayOp) Any() sqlexpr.Expr {
	return sqlexpr.NewFunc("any", a.expr)
}

func coerce(v any) sqlexpr.Expr {
	switch x := v.(type) {
	case *ArrayOp:
		return x.expr
	case sqlexpr.Expr:
		return x
	case []string:
		elems := make([]any, len(x))
		for i, e := range x {
			elems[i] = e
		}
		return Array(elems...)
	case []any:
		return Array(x...)
	default:
		return sqlexpr.Value(v)
	}
}
