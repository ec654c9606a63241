package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/basaltdb/basalt/dialect"
)

// Expr is an element of a SQL statement that knows how to append its own
// text to a Builder. All node types in dialect/sql/sqlexpr implement it.
type Expr interface {
	Append(*Builder)
}

// Querier is implemented by builders that can produce a final statement
// with its bound arguments.
type Querier interface {
	Query() (string, []any)
}

// ExprFunc adapts a plain function to the Expr interface.
type ExprFunc func(*Builder)

// Append implements the Expr interface.
func (f ExprFunc) Append(b *Builder) { f(b) }

// Raw is a fragment of SQL text appended verbatim, without quoting or
// argument binding.
type Raw string

// Append implements the Expr interface.
func (r Raw) Append(b *Builder) { b.WriteString(string(r)) }

// Builder is the rendering context for SQL generation. It accumulates
// statement text and bound arguments, applies dialect-specific identifier
// quoting and placeholder numbering, and exposes the connected server
// version to version-conditional expressions.
//
// A Builder is not safe for concurrent use. Expression nodes themselves are
// immutable and freely shared; each rendering uses its own Builder.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
	errs    []error
	version func() (int, bool)
}

// Dialect returns a new Builder for the given dialect name.
func Dialect(name string) *Builder {
	return &Builder{dialect: name}
}

// Clone returns a fresh Builder sharing the dialect and version probe of b,
// with empty text and arguments.
func (b *Builder) Clone() *Builder {
	return &Builder{dialect: b.dialect, version: b.version}
}

// DialectName returns the dialect name the builder renders for.
func (b *Builder) DialectName() string { return b.dialect }

// SetServerVersion installs a probe reporting the connected server version.
// The probe is consulted lazily at render time, so it may be installed
// before a connection exists.
func (b *Builder) SetServerVersion(probe func() (int, bool)) *Builder {
	b.version = probe
	return b
}

// ServerVersion reports the connected server version, or false when no
// probe is installed or the probe does not know the version yet.
func (b *Builder) ServerVersion() (int, bool) {
	if b.version == nil {
		return 0, false
	}
	return b.version()
}

// WriteString appends raw text to the statement.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte appends a single byte to the statement.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Quote quotes the given identifier for the builder dialect.
func (b *Builder) Quote(ident string) string {
	switch b.dialect {
	case dialect.MySQL:
		return "`" + ident + "`"
	default:
		return `"` + ident + `"`
	}
}

// Ident appends a (possibly qualified) identifier with dialect quoting.
// Fragments that are not plain identifiers, such as "*" or function calls,
// are appended as-is.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case s == "":
	case s == "*" || !isIdent(s):
		b.WriteString(s)
	case strings.Contains(s, "."):
		parts := strings.Split(s, ".")
		for i, p := range parts {
			if i > 0 {
				b.WriteByte('.')
			}
			if p == "*" {
				b.WriteString(p)
			} else {
				b.WriteString(b.Quote(p))
			}
		}
	default:
		b.WriteString(b.Quote(s))
	}
	return b
}

// Arg appends a placeholder for v and records it as a bound argument.
// Values implementing Expr are appended as sub-expressions instead.
func (b *Builder) Arg(v any) *Builder {
	if x, ok := v.(Expr); ok {
		x.Append(b)
		return b
	}
	b.args = append(b.args, v)
	switch b.dialect {
	case dialect.Postgres:
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(len(b.args)))
	default:
		b.WriteByte('?')
	}
	return b
}

// Args appends placeholders for every value in vs, comma separated.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(v)
	}
	return b
}

// Comma appends ", ".
func (b *Builder) Comma() *Builder {
	return b.WriteString(", ")
}

// Wrap appends the output of fn surrounded by parentheses.
func (b *Builder) Wrap(fn func(*Builder)) *Builder {
	b.WriteByte('(')
	fn(b)
	b.WriteByte(')')
	return b
}

// Join appends every expression in xs separated by sep.
func (b *Builder) Join(sep string, xs ...Expr) *Builder {
	for i, x := range xs {
		if i > 0 {
			b.WriteString(sep)
		}
		x.Append(b)
	}
	return b
}

// AddError records a rendering error. All recorded errors are reported by
// Err; rendering itself never panics.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the errors recorded during rendering, joined, or nil.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// String returns the statement text accumulated so far.
func (b *Builder) String() string { return b.sb.String() }

// Query implements the Querier interface.
func (b *Builder) Query() (string, []any) { return b.sb.String(), b.args }

// isIdent reports whether s consists only of characters legal in an
// unquoted identifier path.
func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return s != ""
}

// Render renders a single expression with the given dialect and returns the
// statement text and bound arguments, plus any rendering error.
func Render(dialectName string, x Expr) (string, []any, error) {
	b := Dialect(dialectName)
	x.Append(b)
	query, args := b.Query()
	return query, args, b.Err()
}

var _ fmt.Stringer = (*Builder)(nil)
