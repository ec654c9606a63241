// Package sql provides the rendering layer shared by every expression in
// this module. A Builder accumulates SQL text and bound arguments while
// carrying the target dialect, its identifier quoting rules and, when the
// driver can report one, the server version. Expression trees append
// themselves to a Builder through the Expr interface; Render is the
// one-call entry point that turns a tree into a statement and its
// arguments.
//
// The package also wraps database/sql with a dialect-aware Driver and
// re-exports the scanning helpers (Rows, NullScanner and the Null*
// aliases) used by code that consumes query results.
package sql
