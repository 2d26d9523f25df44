package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/rentverify/internal/models"
)

type outgoingRepository struct {
	db *sqlx.DB
}

func NewOutgoingRepository(db *sqlx.DB) OutgoingRepository {
	return &outgoingRepository{
		db: db,
	}
}

// Create stores a message that the provider has accepted.
func (r *outgoingRepository) Create(ctx context.Context, msg *models.OutgoingMessage) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = models.OutgoingStatusSent
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO outgoing_messages (
				recipient_name, recipient_phone, recipient_address, recipient_email,
				body, sent_at, provider_message_id, status
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`)

		err := tx.QueryRowxContext(ctx, query,
			msg.RecipientName, msg.RecipientPhone, msg.RecipientAddress, msg.RecipientEmail,
			msg.Body, msg.SentAt, msg.ProviderMessageID, msg.Status,
		).Scan(&msg.ID)
		if err != nil {
			return fmt.Errorf("failed to insert outgoing message: %w", err)
		}
		return nil
	})
}

// List returns outgoing messages, newest first.
func (r *outgoingRepository) List(ctx context.Context, limit int) ([]*models.OutgoingMessage, error) {
	query := `
		SELECT id, recipient_name, recipient_phone, recipient_address, recipient_email,
		       body, sent_at, provider_message_id, status
		FROM outgoing_messages
		ORDER BY sent_at DESC, id DESC`
	clause, args := limitClause(limit)
	query += clause

	messages := make([]*models.OutgoingMessage, 0)
	err := withConn(ctx, r.db, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &messages, conn.Rebind(query), args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing messages: %w", err)
	}

	return messages, nil
}
