// Package basalt is a small SQL dialect toolkit: a composable expression
// algebra with dialect-aware rendering, Postgres hstore operations, and a
// scriptable in-memory mock driver for testing database code without a
// database.
//
// The interesting pieces live in sub-packages:
//
//   - dialect: driver interfaces and dialect names.
//   - dialect/sql: database/sql plumbing and the rendering Builder.
//   - dialect/sql/sqlexpr: the expression node algebra.
//   - dialect/sql/sqlhstore: hstore operations built from sqlexpr nodes.
//   - dialect/sql/sqlpg: Postgres literal providers (arrays, hstore).
//   - dialect/mock: the scripted mock database.
//
// This root package carries the shared error taxonomy and a render cache.
package basalt
