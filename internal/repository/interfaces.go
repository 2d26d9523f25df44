package repository

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repository.go -package=mocks

import (
	"context"

	"github.com/popeskul/rentverify/internal/models"
)

// Repository interface defines all repository operations.
type Repository interface {
	// Ping checks database connectivity
	Ping(ctx context.Context) error

	Record() RecordRepository
	Outgoing() OutgoingRepository
	Payment() PaymentRepository
}

// RecordRepository stores inbound replies. Records are append-only from the
// web application; Recategorize exists for out-of-band maintenance.
type RecordRepository interface {
	// CreateInbound persists the record and, when payment is non-nil, the
	// derived payment status in the same transaction.
	CreateInbound(ctx context.Context, record *models.RentRecord, payment *models.Payment) error
	List(ctx context.Context, filter models.RecordFilter) ([]*models.RentRecord, error)
	Recategorize(ctx context.Context, from, to models.Category) (int64, error)
}

// OutgoingRepository stores operator-initiated messages.
type OutgoingRepository interface {
	Create(ctx context.Context, msg *models.OutgoingMessage) error
	List(ctx context.Context, limit int) ([]*models.OutgoingMessage, error)
}

// PaymentRepository reads payment statuses derived from landlord replies.
type PaymentRepository interface {
	List(ctx context.Context, limit int) ([]*models.Payment, error)
}
