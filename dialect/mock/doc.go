// Package mock provides a scriptable in-memory database driver. It never
// talks to a server; instead it records every statement it receives and
// answers from configured response specs, which makes it a deterministic
// substrate for testing code written against dialect.Driver.
//
// A database is configured with response specs for the four request kinds
// it can answer: the id assigned to an insert, the row count of an update
// or delete, the rows returned by a query, and the query's column list.
// Each spec is either a terminal value, a *Queue consumed one item per
// request, a Callback computed from the statement text, or an error value
// that fails the request. Shapes nest freely.
//
//	db := mock.Open(dialect.Postgres,
//		mock.WithAutoID(1),
//		mock.WithFetch(map[string]any{"id": 1, "name": "a"}),
//	)
//	var res sql.Result
//	db.Exec(ctx, "INSERT INTO users DEFAULT VALUES", nil, &res)
//	db.Statements() // ["INSERT INTO users DEFAULT VALUES"]
//
// Datasets carry per-call-site spec overrides, shard connections tag
// their statements, and YAML scripts (see Script) let fixtures live next
// to the tests that use them.
package mock
