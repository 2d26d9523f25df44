// Package twilio is a minimal client for the Twilio Programmable Messaging
// REST API.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.twilio.com"

// Config holds the account credentials and sending number.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
}

// Message is the subset of the Twilio message resource the application uses.
type Message struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}

// APIError is the error body Twilio returns for rejected requests.
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	MoreInfo   string `json:"more_info"`
	StatusCode int    `json:"status"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twilio error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("twilio error: %s", e.Message)
}

// Client sends SMS through one Twilio account.
type Client struct {
	httpClient *resty.Client
	accountSID string
	from       string
	logger     *zap.Logger
}

// NewClient creates a Twilio client. Every request is bounded by cfg.Timeout.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.AccountSID == "" {
		return nil, errors.New("twilio account SID cannot be empty")
	}
	if cfg.AuthToken == "" {
		return nil, errors.New("twilio auth token cannot be empty")
	}
	if cfg.FromNumber == "" {
		return nil, errors.New("twilio sender number cannot be empty")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	logger.Info("Twilio client configured",
		zap.String("base_url", baseURL),
		zap.String("from", cfg.FromNumber),
		zap.Duration("timeout", timeout))

	return &Client{
		httpClient: client,
		accountSID: cfg.AccountSID,
		from:       cfg.FromNumber,
		logger:     logger,
	}, nil
}

// SendSMS creates an outbound message. Provider rejections are returned as
// *APIError; transport failures and timeouts are returned wrapped.
func (c *Client) SendSMS(ctx context.Context, to, body string) (*Message, error) {
	url := fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", c.accountSID)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   to,
			"From": c.from,
			"Body": body,
		}).
		SetResult(&Message{}).
		SetError(&APIError{}).
		Post(url)
	if err != nil {
		c.logger.Error("Twilio request failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("twilio request failed: %w", err)
	}

	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || apiErr.Message == "" {
			apiErr = &APIError{Message: resp.Status()}
		}
		apiErr.StatusCode = resp.StatusCode()

		c.logger.Warn("Twilio rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	msg := resp.Result().(*Message)
	c.logger.Info("Twilio accepted message", zap.String("sid", msg.SID), zap.String("status", msg.Status))
	return msg, nil
}
