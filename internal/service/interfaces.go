package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"io"
	"net/url"

	"github.com/popeskul/rentverify/internal/models"
)

type RecordService interface {
	Ingest(ctx context.Context, from, body string) (*models.RentRecord, error)
	Dashboard(ctx context.Context, filter models.RecordFilter) (*Dashboard, error)
	List(ctx context.Context, filter models.RecordFilter) ([]*models.RentRecord, error)
	Summary(ctx context.Context) (Summary, error)
	Payments(ctx context.Context, limit int) ([]*models.Payment, error)
	Outgoing(ctx context.Context, limit int) ([]*models.OutgoingMessage, error)
	Export(ctx context.Context, w io.Writer, filter models.RecordFilter) (int, error)
}

type AuthService interface {
	Authenticate(username, password string) error
}

type NotifierService interface {
	Send(ctx context.Context, req models.OutboundRequest) (*models.OutgoingMessage, error)
	Enabled() bool
	CircuitBreakerStatus() (state BreakerState, requests, failures uint32)
}

type RelayService interface {
	Relay(ctx context.Context, form url.Values) RelayResult
}

type HealthService interface {
	GetHealth(ctx context.Context) *HealthStatus
}
