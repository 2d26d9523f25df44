package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/metrics"
)

type authService struct {
	username     string
	passwordHash []byte
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewAuthService prepares the single admin account. A plaintext password is
// hashed once here and never kept.
func NewAuthService(cfg config.AuthConfig, m *metrics.Metrics, logger *zap.Logger) (AuthService, error) {
	if cfg.AdminUsername == "" {
		return nil, errors.New("admin username is required")
	}

	var hash []byte
	switch {
	case cfg.AdminPasswordHash != "":
		hash = []byte(cfg.AdminPasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
	case cfg.AdminPassword != "":
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	default:
		return nil, errors.New("admin password is required")
	}

	return &authService{
		username:     cfg.AdminUsername,
		passwordHash: hash,
		metrics:      m,
		logger:       logger,
	}, nil
}

// Authenticate checks the submitted credentials. The password hash is always
// compared, even for an unknown username.
func (s *authService) Authenticate(username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))

	if !userOK || passErr != nil {
		s.metrics.Login(false)
		s.logger.Warn("Failed login attempt", zap.String("username", username))
		return ErrInvalidCredentials
	}

	s.metrics.Login(true)
	s.logger.Info("Successful login", zap.String("username", username))
	return nil
}
