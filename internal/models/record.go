// Package models defines data structures used throughout the application.
package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Category tells whether an inbound reply came from a tenant or a landlord.
type Category string

const (
	CategoryTenant   Category = "tenant"
	CategoryLandlord Category = "landlord"
)

// ParseCategory converts a raw configuration or query value into a Category.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryTenant:
		return CategoryTenant, nil
	case CategoryLandlord:
		return CategoryLandlord, nil
	default:
		return "", fmt.Errorf("unknown record category %q", s)
	}
}

func (c Category) Valid() bool {
	return c == CategoryTenant || c == CategoryLandlord
}

// ReplyStatus is the classification of a landlord reply.
type ReplyStatus string

const (
	ReplyAffirmative ReplyStatus = "affirmative"
	ReplyNegative    ReplyStatus = "negative"
	ReplyPending     ReplyStatus = "pending"
	// ReplyNone is used for tenant records, which carry no confirmation.
	ReplyNone ReplyStatus = "none"
)

// RentRecord represents an inbound SMS reply stored in rent_records.
type RentRecord struct {
	ID          int64     `db:"id" json:"id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	Reply       string    `db:"reply" json:"reply"`
	ReceivedAt  time.Time `db:"received_at" json:"received_at"`
	Category    Category  `db:"record_type" json:"type"`
}

// RecordFilter narrows a record listing. Zero values mean "no filter".
type RecordFilter struct {
	Category Category
	Limit    int
}

// PaymentState is the binary payment confirmation kept in the payments table.
type PaymentState string

const (
	PaymentPaid    PaymentState = "PAID"
	PaymentNotPaid PaymentState = "NOT_PAID"
)

// Payment represents a row in the payments table.
type Payment struct {
	ID          int64        `db:"id" json:"id"`
	PhoneNumber string       `db:"phone_number" json:"phone_number"`
	Status      PaymentState `db:"status" json:"status"`
	RecordedAt  time.Time    `db:"recorded_at" json:"recorded_at"`
}

// OutgoingStatus is the provider-side state of an outgoing message at send time.
type OutgoingStatus string

const OutgoingStatusSent OutgoingStatus = "sent"

// OutgoingMessage represents an operator-initiated SMS to a landlord.
type OutgoingMessage struct {
	ID                int64          `db:"id" json:"id"`
	RecipientName     string         `db:"recipient_name" json:"recipient_name"`
	RecipientPhone    string         `db:"recipient_phone" json:"recipient_phone"`
	RecipientAddress  string         `db:"recipient_address" json:"recipient_address"`
	RecipientEmail    sql.NullString `db:"recipient_email" json:"recipient_email,omitempty"`
	Body              string         `db:"body" json:"body"`
	SentAt            time.Time      `db:"sent_at" json:"sent_at"`
	ProviderMessageID string         `db:"provider_message_id" json:"provider_message_id"`
	Status            OutgoingStatus `db:"status" json:"status"`
}

// OutboundRequest carries the operator's send form.
type OutboundRequest struct {
	Name    string `form:"name" validate:"required,notblank"`
	Phone   string `form:"phone" validate:"required,intlphone"`
	Address string `form:"address" validate:"required,notblank"`
	Email   string `form:"email" validate:"omitempty,email"`
	Message string `form:"message" validate:"required,notblank"`
}
