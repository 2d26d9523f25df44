package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// repositoryImpl is the concrete implementation of Repository interface.
type repositoryImpl struct {
	db       *sqlx.DB
	record   RecordRepository
	outgoing OutgoingRepository
	payment  PaymentRepository
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) Repository {
	return &repositoryImpl{
		db:       db,
		record:   NewRecordRepository(db),
		outgoing: NewOutgoingRepository(db),
		payment:  NewPaymentRepository(db),
	}
}

func (r *repositoryImpl) Record() RecordRepository {
	return r.record
}

func (r *repositoryImpl) Outgoing() OutgoingRepository {
	return r.outgoing
}

func (r *repositoryImpl) Payment() PaymentRepository {
	return r.payment
}

// Ping checks if the database connection is healthy.
func (r *repositoryImpl) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// withConn runs fn on a dedicated connection that is released on return.
func withConn(ctx context.Context, db *sqlx.DB, fn func(conn *sqlx.Conn) error) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	defer conn.Close()

	return fn(conn)
}

// withTx runs fn inside a transaction. The transaction is rolled back unless
// fn and the commit both succeed.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrWriteFailed, err)
	}
	return nil
}

func limitClause(limit int) (string, []interface{}) {
	if limit <= 0 {
		return "", nil
	}
	return " LIMIT ?", []interface{}{limit}
}
