// Package sqlhstore provides a fluent op set for the Postgres hstore type,
// built from sqlexpr nodes. Every method constructs and returns a new
// immutable node; receivers are never mutated.
//
// Native Go inputs are coerced through the optional capability providers
// registered with RegisterProviders before node construction: slices become
// array literals, maps become hstore literals. Array-valued results (keys,
// values, flatten operations) are wrapped with the array-ops provider when
// one is present. Importing dialect/sql/sqlpg registers a full provider set:
//
//	import _ "github.com/basaltdb/basalt/dialect/sql/sqlpg"
//
//	h := sqlhstore.Hstore("tags")
//	q, args, _ := sql.Render(dialect.Postgres, h.HasKey("a"))
//	// q = (\"tags\" ? $1), args = [a]
package sqlhstore

import (
	"github.com/basaltdb/basalt/dialect/sql"
	"github.com/basaltdb/basalt/dialect/sql/sqlexpr"
)

// Op is an hstore-typed operand with the hstore operation set attached.
// Wrapping is idempotent and the zero alternatives (column name, nested
// expression, bound value) follow sqlexpr.Wrap.
type Op struct {
	operand *sqlexpr.Operand
}

// Hstore wraps v as an hstore operand. Plain strings are column
// identifiers; use sqlexpr.Value for literals. Wrapping an *Op returns it
// unchanged.
func Hstore(v any) *Op {
	if o, ok := v.(*Op); ok {
		return o
	}
	return &Op{operand: sqlexpr.Wrap(coerceInput(v))}
}

// Append implements the sql.Expr interface.
func (o *Op) Append(b *sql.Builder) { o.operand.Append(b) }

// Unwrap returns the underlying expression node.
func (o *Op) Unwrap() sqlexpr.Expr { return o.operand }

// TransformChildren implements the sqlexpr.Transformer interface.
func (o *Op) TransformChildren(t sqlexpr.Transform) sqlexpr.Expr {
	return Hstore(t(o.operand))
}

// Get looks up one key or, for sequence keys, a value array. Three forms:
//
//   - array-like key: rendered with the lookup operator and an array
//     literal; the result carries the array capability.
//   - identifier receiver: a deferred Subscript node whose final form
//     depends on the connected server version.
//   - anything else: the lookup operator directly.
func (o *Op) Get(key any) *Op {
	switch k := key.(type) {
	case []string:
		return o.getArray(toAny(k))
	case []any:
		return o.getArray(k)
	}
	if o.operand.IsIdent() {
		return &Op{operand: sqlexpr.Wrap(sqlexpr.NewSubscript(o.operand, coerceKey(key)))}
	}
	return &Op{operand: sqlexpr.Wrap(sqlexpr.NewOp(sqlexpr.OpLookup, o.operand, coerceKey(key)))}
}

// Lookup is an alias for Get.
func (o *Op) Lookup(key any) *Op { return o.Get(key) }

func (o *Op) getArray(keys []any) *Op {
	x := sqlexpr.NewOp(sqlexpr.OpLookup, o.operand, arrayLiteral(keys))
	return &Op{operand: sqlexpr.Wrap(wrapArrayResult(x))}
}

// Merge concatenates two hstores: (h || x).
func (o *Op) Merge(v any) *Op {
	return &Op{operand: sqlexpr.Wrap(sqlexpr.NewOp(sqlexpr.OpConcat, o.operand, coerceValue(v)))}
}

// Concat is an alias for Merge.
func (o *Op) Concat(v any) *Op { return o.Merge(v) }

// Contains reports whether the receiver contains v: (h @> x).
func (o *Op) Contains(v any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpContains, o.operand, coerceValue(v))
}

// ContainedBy reports whether the receiver is contained in v: (h <@ x).
func (o *Op) ContainedBy(v any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpContainedBy, o.operand, coerceValue(v))
}

// HasKey reports whether the key exists: (h ? 'a').
func (o *Op) HasKey(key any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpHasKey, o.operand, coerceKey(key))
}

// Include is an alias for HasKey.
func (o *Op) Include(key any) sqlexpr.Expr { return o.HasKey(key) }

// Key is an alias for HasKey.
func (o *Op) Key(key any) sqlexpr.Expr { return o.HasKey(key) }

// Member is an alias for HasKey.
func (o *Op) Member(key any) sqlexpr.Expr { return o.HasKey(key) }

// Exist is an alias for HasKey.
func (o *Op) Exist(key any) sqlexpr.Expr { return o.HasKey(key) }

// ContainAll reports whether all the given keys exist: (h ?& keys).
func (o *Op) ContainAll(keys any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpContainAll, o.operand, coerceKeys(keys))
}

// ContainAny reports whether any of the given keys exists: (h ?| keys).
func (o *Op) ContainAny(keys any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpContainAny, o.operand, coerceKeys(keys))
}

// Minus deletes keys or matching pairs: (h - v). Plain Go strings are cast
// to text explicitly; an uncast string argument makes the operator
// ambiguous on the server.
func (o *Op) Minus(v any) *Op {
	var arg sqlexpr.Expr
	switch x := v.(type) {
	case string:
		arg = sqlexpr.NewCast(sqlexpr.Value(x), "text")
	default:
		arg = coerceValue(v)
	}
	return &Op{operand: sqlexpr.Wrap(sqlexpr.NewOp(sqlexpr.OpMinus, o.operand, arg))}
}

// Delete removes one key via the delete function: delete(h, 'a').
func (o *Op) Delete(key any) *Op {
	return &Op{operand: sqlexpr.Wrap(sqlexpr.NewFunc("delete", o.operand, coerceKey(key)))}
}

// Keys returns the receiver's keys as an array: akeys(h). The result is
// not an hstore; it carries the array capability when a provider is
// registered.
func (o *Op) Keys() sqlexpr.Expr { return o.arrayFunc("akeys") }

// AKeys is an alias for Keys.
func (o *Op) AKeys() sqlexpr.Expr { return o.Keys() }

// Values returns the receiver's values as an array: avals(h).
func (o *Op) Values() sqlexpr.Expr { return o.arrayFunc("avals") }

// AVals is an alias for Values.
func (o *Op) AVals() sqlexpr.Expr { return o.Values() }

// SKeys returns the keys as a set: skeys(h).
func (o *Op) SKeys() sqlexpr.Expr {
	return sqlexpr.NewFunc("skeys", o.operand)
}

// SVals returns the values as a set: svals(h).
func (o *Op) SVals() sqlexpr.Expr {
	return sqlexpr.NewFunc("svals", o.operand)
}

// ToArray flattens the receiver to a key/value array: hstore_to_array(h).
func (o *Op) ToArray() sqlexpr.Expr { return o.arrayFunc("hstore_to_array") }

// ToMatrix flattens the receiver to a two-dimensional array:
// hstore_to_matrix(h).
func (o *Op) ToMatrix() sqlexpr.Expr { return o.arrayFunc("hstore_to_matrix") }

// Slice extracts a subset of the receiver: slice(h, keys).
func (o *Op) Slice(keys any) *Op {
	return &Op{operand: sqlexpr.Wrap(sqlexpr.NewFunc("slice", o.operand, coerceKeys(keys)))}
}

// Each expands the receiver to a set of key/value pairs: each(h).
func (o *Op) Each() sqlexpr.Expr {
	return sqlexpr.NewFunc("each", o.operand)
}

// Defined reports whether the key exists with a non-NULL value:
// defined(h, 'a').
func (o *Op) Defined(key any) sqlexpr.Expr {
	return sqlexpr.NewFunc("defined", o.operand, coerceKey(key))
}

// RecordSet replaces fields of record from the receiver: (record #= h).
func (o *Op) RecordSet(record any) sqlexpr.Expr {
	return sqlexpr.NewOp(sqlexpr.OpRecordSet, coerceValue(record), o.operand)
}

func (o *Op) arrayFunc(name string) sqlexpr.Expr {
	return wrapArrayResult(sqlexpr.NewFunc(name, o.operand))
}

// coerceInput normalizes values handed to Hstore itself. Maps become
// hstore literals when the provider is registered.
func coerceInput(v any) any {
	if m, ok := v.(map[string]string); ok {
		return mapLiteral(m)
	}
	return v
}

// coerceKey normalizes a single-key argument. Plain strings bind directly;
// only Minus needs the explicit text cast.
func coerceKey(key any) sqlexpr.Expr {
	switch k := key.(type) {
	case *Op:
		return k.operand
	case sqlexpr.Expr:
		return k
	default:
		return sqlexpr.Value(k)
	}
}

// coerceKeys normalizes a key-list argument through the array provider.
func coerceKeys(keys any) sqlexpr.Expr {
	switch k := keys.(type) {
	case *Op:
		return k.operand
	case sqlexpr.Expr:
		return k
	case []string:
		return arrayLiteral(toAny(k))
	case []any:
		return arrayLiteral(k)
	default:
		return sqlexpr.Value(k)
	}
}

// coerceValue normalizes an hstore-or-record argument. Native maps become
// hstore literals, native sequences array literals.
func coerceValue(v any) sqlexpr.Expr {
	switch x := v.(type) {
	case *Op:
		return x.operand
	case sqlexpr.Expr:
		return x
	case map[string]string:
		return mapLiteral(x)
	case []string:
		return arrayLiteral(toAny(x))
	case []any:
		return arrayLiteral(x)
	case string:
		return sqlexpr.Ident(x)
	default:
		return sqlexpr.Value(v)
	}
}

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
