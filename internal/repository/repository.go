// Package repository contains the hand-written SQL persistence layer for
// workflows, steps, history and attachments. Write methods accept an optional
// *sql.Tx so the signoff engine can compose them into one atomic transaction.
package repository

import "database/sql"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// on returns tx when inside a transaction, otherwise the base connection.
func on(db *sql.DB, tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return db
}
