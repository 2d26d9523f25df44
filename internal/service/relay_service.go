package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/config"
)

type relayService struct {
	targets    []string
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewRelayService forwards webhook payloads to each configured target in turn.
func NewRelayService(cfg *config.RelayConfig, logger *zap.Logger) RelayService {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &relayService{
		targets:    cfg.Targets,
		httpClient: resty.New().SetTimeout(timeout),
		logger:     logger,
	}
}

// Relay posts form to every target. The relay succeeds when at least one
// target answers 200.
func (s *relayService) Relay(ctx context.Context, form url.Values) RelayResult {
	result := RelayResult{Results: make([]string, 0, len(s.targets))}

	for _, target := range s.targets {
		name := targetName(target)

		resp, err := s.httpClient.R().
			SetContext(ctx).
			SetFormDataFromValues(form).
			Post(target)
		switch {
		case err != nil:
			s.logger.Error("Error forwarding webhook", zap.String("target", target), zap.Error(err))
			result.Results = append(result.Results, fmt.Sprintf("%s: Error - %v", name, err))
		case resp.StatusCode() != http.StatusOK:
			s.logger.Warn("Relay target rejected webhook",
				zap.String("target", target),
				zap.Int("status_code", resp.StatusCode()))
			result.Results = append(result.Results, fmt.Sprintf("%s: Error %d", name, resp.StatusCode()))
		default:
			s.logger.Info("Forwarded webhook", zap.String("target", target))
			result.Results = append(result.Results, name+": Success")
			result.Succeeded = true
		}
	}

	return result
}

func targetName(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	return u.Host
}
