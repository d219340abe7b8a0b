package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Manager owns the connection pool and hands out transaction scopes. Every
// statement in the ledger runs through WithTransaction.
type Manager struct {
	conn *sql.DB
	log  logrus.FieldLogger
}

func NewManager(conn *sql.DB, log logrus.FieldLogger) *Manager {
	return &Manager{conn: conn, log: log}
}

// WithTransaction runs fn inside a single database transaction on a connection
// checked out of the pool. The transaction commits when fn returns nil and is
// rolled back when fn returns an error or panics; the connection goes back to
// the pool either way.
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	tx := &Tx{tx: sqlTx, log: m.log}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(sqlTx)
			panic(p)
		}
		if err != nil {
			m.rollback(sqlTx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func (m *Manager) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		m.log.WithError(err).Warn("Failed to roll back transaction")
	}
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.conn.PingContext(ctx)
}

func (m *Manager) Close() error {
	return m.conn.Close()
}

// Tx is a transaction handle that logs every statement and its bound
// parameters at debug level before running it.
type Tx struct {
	tx  *sql.Tx
	log logrus.FieldLogger
}

func (t *Tx) trace(query string, args []interface{}) {
	t.log.WithFields(logrus.Fields{
		"statement": query,
		"args":      args,
	}).Debug("Executing statement")
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	t.trace(query, args)
	return t.tx.ExecContext(ctx, query, args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	t.trace(query, args)
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	t.trace(query, args)
	return t.tx.QueryRowContext(ctx, query, args...)
}
