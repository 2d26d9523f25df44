package service

import (
	"strings"

	"github.com/popeskul/rentverify/internal/models"
)

type HealthState string

const (
	Healthy   HealthState = "healthy"
	Degraded  HealthState = "degraded"
	Unhealthy HealthState = "unhealthy"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

type HealthStatus struct {
	Status               HealthState  `json:"status"`
	DatabaseStatus       string       `json:"database_status"`
	SessionStoreStatus   string       `json:"session_store_status"`
	CircuitBreakerState  BreakerState `json:"circuit_breaker_state"`
	CircuitBreakerStatus string       `json:"circuit_breaker_status,omitempty"`
	OutboundSMS          bool         `json:"outbound_sms_enabled"`
}

// Dashboard is what the dashboard page renders.
type Dashboard struct {
	Summary Summary
	// Records is the listing after the optional category filter.
	Records []*models.RentRecord
	Filter  models.Category
}

// RelayResult lists the per-target outcome of one relay fan-out.
type RelayResult struct {
	Results   []string
	Succeeded bool
}

func (r RelayResult) String() string {
	if r.Succeeded {
		return "Relayed to: " + strings.Join(r.Results, ", ")
	}
	return "All relays failed: " + strings.Join(r.Results, ", ")
}
