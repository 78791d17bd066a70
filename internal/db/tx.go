package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Transact runs fn inside a single transaction. On a nil return the
// transaction commits; on error or panic it rolls back and the error (or
// panic) propagates unchanged.
func Transact(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
