package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/classifier"
	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/repository"
)

type Service struct {
	Record   RecordService
	Auth     AuthService
	Notifier NotifierService
	Relay    RelayService
	Health   HealthService
}

// NewService wires every service. sender may be nil when no SMS provider is
// configured.
func NewService(
	cfg *config.Config,
	repo repository.Repository,
	sessions Pinger,
	sender SMSSender,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Service, error) {
	category, err := models.ParseCategory(cfg.Records.DefaultCategory)
	if err != nil {
		return nil, err
	}

	authService, err := NewAuthService(cfg.Auth, m, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	recordService := NewRecordService(repo, classifier.New(category), m, logger)
	notifierService := NewNotifierService(&cfg.Twilio, repo, sender, m, logger)
	relayService := NewRelayService(&cfg.Relay, logger)
	healthService := NewHealthService(repo, sessions, notifierService)

	return &Service{
		Record:   recordService,
		Auth:     authService,
		Notifier: notifierService,
		Relay:    relayService,
		Health:   healthService,
	}, nil
}
