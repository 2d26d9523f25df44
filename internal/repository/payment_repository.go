package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/rentverify/internal/models"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{
		db: db,
	}
}

// List returns the most recent payment statuses first.
func (r *paymentRepository) List(ctx context.Context, limit int) ([]*models.Payment, error) {
	query := `
		SELECT id, phone_number, status, recorded_at
		FROM payments
		ORDER BY recorded_at DESC, id DESC`
	clause, args := limitClause(limit)
	query += clause

	payments := make([]*models.Payment, 0)
	err := withConn(ctx, r.db, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &payments, conn.Rebind(query), args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}
