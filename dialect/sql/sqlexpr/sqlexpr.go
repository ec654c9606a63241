// Package sqlexpr implements a small algebra of immutable SQL expression
// nodes: wrapped operands, operator applications, function calls,
// placeholder templates and version-conditional subscripts. Nodes are
// combined by higher-level capability packages (see sqlhstore) and rendered
// through the dialect/sql Builder.
//
// All nodes are immutable after construction and safe for concurrent use.
// Construction never validates SQL semantics; malformed trees produce SQL
// the target database rejects at execution time.
package sqlexpr

import (
	"fmt"
	"strings"

	"github.com/basaltdb/basalt/dialect/sql"
)

// Expr is re-exported from dialect/sql: an element that appends its own SQL
// text to a Builder.
type Expr = sql.Expr

// Op is an operator symbol recognized by OpExpr.
type Op string

// The fixed operator enumeration.
const (
	OpConcat      Op = "||" // concatenation / merge
	OpContains    Op = "@>" // left contains right
	OpContainedBy Op = "<@" // left contained in right
	OpHasKey      Op = "?"  // key existence
	OpContainAll  Op = "?&" // all keys exist
	OpContainAny  Op = "?|" // any key exists
	OpLookup      Op = "->" // value lookup
	OpRecordSet   Op = "#=" // record update from key/value pairs
	OpMinus       Op = "-"  // key/pair deletion
)

// Ident marks a string as a column or qualified column identifier. It is
// rendered with dialect quoting.
type Ident string

// Append implements the Expr interface.
func (i Ident) Append(b *sql.Builder) { b.Ident(string(i)) }

// Literal is a value rendered as a bound statement argument.
type Literal struct {
	v any
}

// Value returns a Literal binding v as a statement argument.
func Value(v any) Literal { return Literal{v: v} }

// Append implements the Expr interface.
func (l Literal) Append(b *sql.Builder) { b.Arg(l.v) }

// Raw returns the wrapped value.
func (l Literal) Raw() any { return l.v }

// Operand wraps one underlying value, an identifier, a literal, or a nested
// expression, making it usable as an expression node. Wrapping is
// idempotent: wrapping an *Operand returns it unchanged.
type Operand struct {
	v any
}

// Wrap returns an Operand for v. Plain strings are treated as column
// identifiers; use Value for string literals. Expressions pass through as
// nested nodes, and any other value becomes a bound argument.
func Wrap(v any) *Operand {
	if o, ok := v.(*Operand); ok {
		return o
	}
	return &Operand{v: v}
}

// Value returns the underlying wrapped value.
func (o *Operand) Value() any { return o.v }

// IsIdent reports whether the underlying value is a plain or qualified
// identifier. Subscript access on identifier operands may use the deferred
// subscript form; see Subscript.
func (o *Operand) IsIdent() bool {
	switch o.v.(type) {
	case string, Ident:
		return true
	}
	return false
}

// TransformChildren implements the Transformer interface. Operands over a
// nested expression descend into it; operands over plain values are
// leaves and return themselves.
func (o *Operand) TransformChildren(t Transform) Expr {
	if x, ok := o.v.(Expr); ok {
		return Wrap(t(x))
	}
	return o
}

// Append implements the Expr interface.
func (o *Operand) Append(b *sql.Builder) {
	switch v := o.v.(type) {
	case nil:
		b.WriteString("NULL")
	case Expr:
		v.Append(b)
	case string:
		b.Ident(v)
	default:
		b.Arg(v)
	}
}

// OpExpr applies one operator symbol to two or more operands. It renders
// parenthesized regardless of nesting context, preserving precedence.
type OpExpr struct {
	op   Op
	args []Expr
}

// NewOp returns an operator application node. At least two arguments are
// expected; rendering a shorter node records an error on the Builder.
func NewOp(op Op, args ...Expr) *OpExpr {
	return &OpExpr{op: op, args: args}
}

// Op returns the operator symbol.
func (x *OpExpr) Op() Op { return x.op }

// Args returns the operand list. The returned slice must not be mutated.
func (x *OpExpr) Args() []Expr { return x.args }

// Append implements the Expr interface.
func (x *OpExpr) Append(b *sql.Builder) {
	if len(x.args) < 2 {
		b.AddError(fmt.Errorf("sqlexpr: operator %q applied to %d operands", x.op, len(x.args)))
		return
	}
	b.Wrap(func(b *sql.Builder) {
		b.Join(" "+string(x.op)+" ", x.args...)
	})
}

// TransformChildren implements the Transformer interface.
func (x *OpExpr) TransformChildren(t Transform) Expr {
	return NewOp(x.op, transformAll(x.args, t)...)
}

// Func is a function call expression. For method-style calls the receiver
// is argument zero, e.g. delete(hstore, 'a').
type Func struct {
	name string
	args []Expr
}

// NewFunc returns a function call node.
func NewFunc(name string, args ...Expr) *Func {
	return &Func{name: name, args: args}
}

// Name returns the function name.
func (f *Func) Name() string { return f.name }

// Args returns the argument list. The returned slice must not be mutated.
func (f *Func) Args() []Expr { return f.args }

// Append implements the Expr interface.
func (f *Func) Append(b *sql.Builder) {
	b.WriteString(f.name)
	b.Wrap(func(b *sql.Builder) {
		b.Join(", ", f.args...)
	})
}

// TransformChildren implements the Transformer interface.
func (f *Func) TransformChildren(t Transform) Expr {
	return NewFunc(f.name, transformAll(f.args, t)...)
}

// Template is a placeholder-template fragment: literal text segments
// interleaved with argument slots. A template of N slots carries N+1
// fragments.
type Template struct {
	frags []string
	args  []Expr
}

// NewTemplate returns a template node from explicit fragments and slots.
// The fragment count must exceed the slot count by exactly one; rendering a
// malformed template records an error on the Builder.
func NewTemplate(frags []string, args ...Expr) *Template {
	return &Template{frags: frags, args: args}
}

// Placeholder returns a template node by splitting pattern on '?' and
// filling the slots with args, e.g. Placeholder("(? #= ?)", x, y).
func Placeholder(pattern string, args ...Expr) *Template {
	return &Template{frags: strings.Split(pattern, "?"), args: args}
}

// Append implements the Expr interface.
func (t *Template) Append(b *sql.Builder) {
	if len(t.frags) != len(t.args)+1 {
		b.AddError(fmt.Errorf("sqlexpr: template with %d fragments and %d slots", len(t.frags), len(t.args)))
		return
	}
	for i, frag := range t.frags {
		if i > 0 {
			t.args[i-1].Append(b)
		}
		b.WriteString(frag)
	}
}

// TransformChildren implements the Transformer interface.
func (t *Template) TransformChildren(tr Transform) Expr {
	return NewTemplate(t.frags, transformAll(t.args, tr)...)
}

// minSubscriptVersion is the first server version with subscript read
// syntax on hstore/jsonb columns.
const minSubscriptVersion = 140000

// Subscript is the version-conditional lookup node created by [] access on
// identifier operands. Its rendering is deferred: the form is a property of
// the connected server, resolved against the Builder's version probe at
// render time. Servers of version >= 140000 get the subscript form
// expr[sub]; older or unknown servers get the same output as the lookup
// operator.
type Subscript struct {
	expr Expr
	sub  Expr
}

// NewSubscript returns a subscript node for expr and the key sub.
func NewSubscript(expr, sub Expr) *Subscript {
	return &Subscript{expr: expr, sub: sub}
}

// Expr returns the subscripted expression.
func (s *Subscript) Expr() Expr { return s.expr }

// Sub returns the key expression.
func (s *Subscript) Sub() Expr { return s.sub }

// Append implements the Expr interface.
func (s *Subscript) Append(b *sql.Builder) {
	if v, ok := b.ServerVersion(); ok && v >= minSubscriptVersion {
		s.expr.Append(b)
		b.WriteByte('[')
		s.sub.Append(b)
		b.WriteByte(']')
		return
	}
	NewOp(OpLookup, s.expr, s.sub).Append(b)
}

// TransformChildren implements the Transformer interface.
func (s *Subscript) TransformChildren(t Transform) Expr {
	return NewSubscript(t(s.expr), t(s.sub))
}

// Cast renders the inner expression followed by a Postgres-style type cast,
// e.g. $1::text.
type Cast struct {
	expr Expr
	typ  string
}

// NewCast returns a cast node annotating expr with the SQL type typ.
func NewCast(expr Expr, typ string) *Cast {
	return &Cast{expr: expr, typ: typ}
}

// Append implements the Expr interface.
func (c *Cast) Append(b *sql.Builder) {
	c.expr.Append(b)
	b.WriteString("::" + c.typ)
}

// TransformChildren implements the Transformer interface.
func (c *Cast) TransformChildren(t Transform) Expr {
	return NewCast(t(c.expr), c.typ)
}
