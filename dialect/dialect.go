package dialect

import (
	"context"
)

// Dialect names for the supported database backends.
const (
	// Postgres is the PostgreSQL dialect.
	Postgres = "postgres"
	// MySQL is the MySQL/MariaDB dialect.
	MySQL = "mysql"
	// SQLite is the SQLite dialect.
	SQLite = "sqlite"
	// Mock is the in-memory scripted dialect provided by dialect/mock.
	Mock = "mock"
)

// ExecQuerier wraps the two standard database operations.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. The v argument
	// receives the execution result and its type depends on the driver.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows. The v argument receives
	// the rows and its type depends on the driver.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the minimal interface a database driver exposes to the rest of
// the toolkit. Implemented by dialect/sql for real databases and by
// dialect/mock for scripted in-memory databases.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx is a driver-scoped transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// VersionReporter is implemented by drivers that know the server version of
// the database they are connected to. The version uses the Postgres integer
// encoding, e.g. 140000 for major version 14. Rendering that depends on the
// server version (see sqlexpr.Subscript) consults this at render time.
type VersionReporter interface {
	// ServerVersion reports the connected server version. The second return
	// value is false when the version is unknown, e.g. before the first
	// connection is established.
	ServerVersion() (int, bool)
}

// nopTx is a Tx that does nothing. Used by drivers without transaction
// support.
type nopTx struct {
	Driver
}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

// NopTx returns a Tx that executes statements on drv and ignores
// Commit/Rollback.
func NopTx(drv Driver) Tx {
	return nopTx{drv}
}
