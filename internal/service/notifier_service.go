package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/client/twilio"
	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/repository"
	"github.com/popeskul/rentverify/internal/validation"
)

// SMSSender delivers a single SMS. *twilio.Client satisfies it.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (*twilio.Message, error)
}

type notifierService struct {
	repo           repository.Repository
	sender         SMSSender
	circuitBreaker *CircuitBreaker
	timeout        time.Duration
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewNotifierService creates the outbound notifier. A nil sender leaves the
// notifier disabled; every Send then fails with ErrNotifierDisabled.
func NewNotifierService(
	cfg *config.TwilioConfig,
	repo repository.Repository,
	sender SMSSender,
	m *metrics.Metrics,
	logger *zap.Logger,
) NotifierService {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &notifierService{
		repo:           repo,
		sender:         sender,
		circuitBreaker: NewCircuitBreaker("twilio-circuit-breaker", &cfg.CircuitBreaker, providerHealthy, logger),
		timeout:        timeout,
		metrics:        m,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// providerHealthy keeps provider-side rejections of a single request, such as
// an invalid number, from tripping the breaker.
func providerHealthy(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *twilio.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode > 0 && apiErr.StatusCode < http.StatusInternalServerError
}

func (s *notifierService) Enabled() bool {
	return s.sender != nil
}

// Send validates req, hands it to the provider and records the accepted
// message. Nothing is stored when the provider call fails.
func (s *notifierService) Send(ctx context.Context, req models.OutboundRequest) (*models.OutgoingMessage, error) {
	if ok, errs := validation.ValidateOutboundRequest(req); !ok {
		return nil, errs
	}
	if s.sender == nil {
		return nil, ErrNotifierDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var sent *twilio.Message
	err := s.circuitBreaker.Execute(ctx, func() error {
		var sendErr error
		sent, sendErr = s.sender.SendSMS(ctx, req.Phone, req.Message)
		return sendErr
	})
	if err != nil {
		s.metrics.Outbound(metrics.OutcomeFailure)
		requests, failures := s.circuitBreaker.GetCounts()
		s.logger.Error("Failed to send SMS",
			zap.String("to", req.Phone),
			zap.Error(err),
			zap.String("circuitBreakerState", string(s.circuitBreaker.GetState())),
			zap.Uint32("totalRequests", requests),
			zap.Uint32("totalFailures", failures))
		return nil, fmt.Errorf("%w: %w", ErrTransportFailure, err)
	}

	msg := &models.OutgoingMessage{
		RecipientName:     strings.TrimSpace(req.Name),
		RecipientPhone:    req.Phone,
		RecipientAddress:  strings.TrimSpace(req.Address),
		RecipientEmail:    nullString(req.Email),
		Body:              req.Message,
		SentAt:            s.now(),
		ProviderMessageID: sent.SID,
		Status:            models.OutgoingStatusSent,
	}
	if err := s.repo.Outgoing().Create(ctx, msg); err != nil {
		s.metrics.Outbound(metrics.OutcomeFailure)
		return nil, fmt.Errorf("message %s sent but not recorded: %w", sent.SID, err)
	}

	s.metrics.Outbound(metrics.OutcomeSuccess)
	s.logger.Info("SMS sent",
		zap.Int64("outgoing_id", msg.ID),
		zap.String("sid", sent.SID))
	return msg, nil
}

func (s *notifierService) CircuitBreakerStatus() (state BreakerState, requests, failures uint32) {
	state = s.circuitBreaker.GetState()
	requests, failures = s.circuitBreaker.GetCounts()
	return
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
