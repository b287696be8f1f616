package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a write transaction over the graph tables. All mutations for one
// ingestion happen inside a single Tx so a failure leaves no partial state.
type Tx struct {
	tx *sql.Tx
}

// BeginWeave starts a write transaction for one ingestion operation.
func (db *DB) BeginWeave(ctx context.Context) (*Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin weave tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit makes the transaction's writes durable.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit weave tx: %w", err)
	}
	return nil
}

// Rollback discards the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}
