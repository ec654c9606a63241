// Package dialect provides the database dialect abstraction for basalt.
//
// It defines the Driver, Tx and ExecQuerier interfaces shared by all driver
// implementations, plus the dialect name constants:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//	dialect.Mock     = "mock"
//
// Two driver implementations ship with the repository:
//
//   - dialect/sql: a database/sql-backed driver for real databases.
//   - dialect/mock: an in-memory driver replaying scripted responses,
//     intended for tests.
//
// Opening a real database connection:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// Any Driver can be wrapped with statement logging:
//
//	drv = dialect.Debug(drv)
package dialect
