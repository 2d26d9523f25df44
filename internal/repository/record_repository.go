package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/rentverify/internal/models"
)

type recordRepository struct {
	db *sqlx.DB
}

func NewRecordRepository(db *sqlx.DB) RecordRepository {
	return &recordRepository{
		db: db,
	}
}

// CreateInbound inserts a rent record and its optional payment status.
func (r *recordRepository) CreateInbound(ctx context.Context, record *models.RentRecord, payment *models.Payment) error {
	if record.ReceivedAt.IsZero() {
		record.ReceivedAt = time.Now().UTC()
	}
	if payment != nil && payment.RecordedAt.IsZero() {
		payment.RecordedAt = record.ReceivedAt
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO rent_records (phone_number, reply, received_at, record_type)
			VALUES (?, ?, ?, ?)
			RETURNING id`)

		err := tx.QueryRowxContext(ctx, query,
			record.PhoneNumber, record.Reply, record.ReceivedAt, record.Category,
		).Scan(&record.ID)
		if err != nil {
			return fmt.Errorf("failed to insert rent record: %w", err)
		}

		if payment == nil {
			return nil
		}

		query = tx.Rebind(`
			INSERT INTO payments (phone_number, status, recorded_at)
			VALUES (?, ?, ?)
			RETURNING id`)

		err = tx.QueryRowxContext(ctx, query,
			payment.PhoneNumber, payment.Status, payment.RecordedAt,
		).Scan(&payment.ID)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		return nil
	})
}

// List returns records newest first, optionally narrowed by category and
// capped by limit.
func (r *recordRepository) List(ctx context.Context, filter models.RecordFilter) ([]*models.RentRecord, error) {
	query := `
		SELECT id, phone_number, reply, received_at, record_type
		FROM rent_records`
	var args []interface{}

	if filter.Category != "" {
		query += ` WHERE record_type = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY received_at DESC, id DESC`

	limit, limitArgs := limitClause(filter.Limit)
	query += limit
	args = append(args, limitArgs...)

	records := make([]*models.RentRecord, 0)
	err := withConn(ctx, r.db, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &records, conn.Rebind(query), args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list rent records: %w", err)
	}

	return records, nil
}

// Recategorize moves every record of one category to another and reports how
// many rows changed.
func (r *recordRepository) Recategorize(ctx context.Context, from, to models.Category) (int64, error) {
	if !from.Valid() || !to.Valid() {
		return 0, fmt.Errorf("invalid recategorization %q -> %q", from, to)
	}

	var affected int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE rent_records SET record_type = ? WHERE record_type = ?`),
			to, from)
		if err != nil {
			return fmt.Errorf("failed to update record type: %w", err)
		}

		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}
