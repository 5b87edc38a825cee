package store

import "database/sql"

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Store methods that must run inside a caller-owned transaction take a
// Querier so the engine controls the commit boundary.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
