package service

import (
	"context"
	"fmt"
	"time"

	"github.com/popeskul/rentverify/internal/repository"
)

// Pinger is any dependency that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthService struct {
	repo     repository.Repository
	sessions Pinger
	notifier NotifierService
}

func NewHealthService(repo repository.Repository, sessions Pinger, notifier NotifierService) HealthService {
	return &healthService{
		repo:     repo,
		sessions: sessions,
		notifier: notifier,
	}
}

func (s *healthService) GetHealth(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:             Healthy,
		DatabaseStatus:     connectivity(s.repo.Ping(ctx)),
		SessionStoreStatus: connectivity(s.sessions.Ping(ctx)),
		OutboundSMS:        s.notifier.Enabled(),
	}

	state, requests, failures := s.notifier.CircuitBreakerStatus()
	status.CircuitBreakerState = state
	if requests > 0 {
		failureRate := float64(failures) / float64(requests) * 100
		status.CircuitBreakerStatus = fmt.Sprintf("Requests: %d, Failures: %d (%.1f%%)", requests, failures, failureRate)
	} else {
		status.CircuitBreakerStatus = "No requests yet"
	}

	// An open breaker only affects outbound SMS.
	if state == BreakerOpen {
		status.Status = Degraded
	}
	if status.DatabaseStatus != StatusConnected || status.SessionStoreStatus != StatusConnected {
		status.Status = Unhealthy
	}

	return status
}

func connectivity(err error) string {
	if err != nil {
		return StatusDisconnected
	}
	return StatusConnected
}
