// Package database wraps the Postgres pool used for the asset tracker.
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Conn struct {
	pool *pgxpool.Pool
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

var ErrNoRows = pgx.ErrNoRows

// URL builds a Postgres connection URL from the project environment variables.
func URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)
}

// Connect connects to the Postgres database with the project environment variables.
func Connect() (*Conn, error) {
	pool, err := pgxpool.Connect(context.Background(), URL())

	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &Conn{pool: pool}, nil
}

// Close closes all database connections in the pool.
func (conn *Conn) Close() {
	conn.pool.Close()
}

// Exec executes a database query.
func (conn *Conn) Exec(sql string, arguments ...any) error {
	_, err := conn.pool.Exec(context.Background(), sql, arguments...)

	return err
}

// Query executes a database query.
func (conn *Conn) Query(sql string, arguments ...any) (Rows, error) {
	return conn.pool.Query(context.Background(), sql, arguments...)
}

// QueryRow executes a database query returning Row data.
func (conn *Conn) QueryRow(sql string, arguments ...any) Row {
	return conn.pool.QueryRow(context.Background(), sql, arguments...)
}

// Tx wraps a database transaction.
//
// Mutating endpoints write their asset and history rows through one Tx, so a
// failure can never leave an asset change without its audit entry.
type Tx struct {
	pgxTx pgx.Tx
}

// Begin starts a transaction.
func (conn *Conn) Begin() (*Tx, error) {
	pgxTx, err := conn.pool.Begin(context.Background())

	if err != nil {
		return nil, err
	}

	return &Tx{pgxTx: pgxTx}, nil
}

// Exec executes a database query inside the transaction.
func (tx *Tx) Exec(sql string, arguments ...any) error {
	_, err := tx.pgxTx.Exec(context.Background(), sql, arguments...)

	return err
}

// Query executes a database query inside the transaction.
func (tx *Tx) Query(sql string, arguments ...any) (Rows, error) {
	return tx.pgxTx.Query(context.Background(), sql, arguments...)
}

// QueryRow executes a database query inside the transaction returning Row data.
func (tx *Tx) QueryRow(sql string, arguments ...any) Row {
	return tx.pgxTx.QueryRow(context.Background(), sql, arguments...)
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.pgxTx.Commit(context.Background())
}

// Rollback rolls the transaction back. Rolling back after a commit is a no-op.
func (tx *Tx) Rollback() {
	_ = tx.pgxTx.Rollback(context.Background())
}

// Queryable defines an interface for a connection or transaction.
type Queryable interface {
	Exec(sql string, arguments ...any) error
	Query(sql string, arguments ...any) (Rows, error)
	QueryRow(sql string, arguments ...any) Row
}
