package twilio_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/client/twilio"
)

func newClient(t *testing.T, url string, timeout time.Duration) *twilio.Client {
	t.Helper()
	c, err := twilio.NewClient(twilio.Config{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15550000000",
		BaseURL:    url,
		Timeout:    timeout,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  twilio.Config
	}{
		{name: "missing sid", cfg: twilio.Config{AuthToken: "t", FromNumber: "+1"}},
		{name: "missing token", cfg: twilio.Config{AccountSID: "AC", FromNumber: "+1"}},
		{name: "missing sender", cfg: twilio.Config{AccountSID: "AC", AuthToken: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := twilio.NewClient(tt.cfg, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestClient_SendSMS(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantSID    string
		wantAPIErr string
	}{
		{
			name: "accepted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				if !ok || user != "AC123" || pass != "token" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_ = r.ParseForm()
				if r.PostForm.Get("To") != "+15551234567" || r.PostForm.Get("From") != "+15550000000" || r.PostForm.Get("Body") != "Rent due?" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued","to":"+15551234567"}`))
			},
			wantSID: "SM42",
		},
		{
			name: "provider rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
			},
			wantAPIErr: "The 'To' number is not a valid phone number.",
		},
		{
			name: "rejection without json body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantAPIErr: "500 Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			msg, err := newClient(t, srv.URL, time.Second).SendSMS(context.Background(), "+15551234567", "Rent due?")
			if tt.wantAPIErr != "" {
				require.Error(t, err)
				var apiErr *twilio.APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.wantAPIErr, apiErr.Message)
				assert.Nil(t, msg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSID, msg.SID)
		})
	}
}

func TestClient_SendSMS_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, 50*time.Millisecond).SendSMS(context.Background(), "+15551234567", "hi")
	require.Error(t, err)

	var apiErr *twilio.APIError
	assert.False(t, errors.As(err, &apiErr))
}
