package main

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/handler"
	"github.com/popeskul/rentverify/internal/infrastructure/database"
	"github.com/popeskul/rentverify/internal/infrastructure/migrate"
	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/repository"
	"github.com/popeskul/rentverify/internal/service"
	"github.com/popeskul/rentverify/internal/session"
	"github.com/popeskul/rentverify/internal/web"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "rent.db")},
		Auth:     config.AuthConfig{AdminUsername: "admin", AdminPassword: "s3cret"},
		Records:  config.RecordsConfig{DefaultCategory: "tenant"},
		Twilio: config.TwilioConfig{
			Timeout: 10,
			CircuitBreaker: config.CircuitBreakerConfig{
				MaxRequests: 3, Interval: 60, Timeout: 60, FailureRatio: 0.6, ConsecutiveFails: 5,
			},
		},
	}

	dialect, err := database.NewDialect(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, migrate.NewRunner(dialect).Up())

	db, err := database.Open(context.Background(), dialect)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := session.NewMemoryStore(time.Minute)
	sessions := session.NewManager(store, session.Options{Secret: "test-secret"})
	m := metrics.New(prometheus.NewRegistry())

	svc, err := service.NewService(cfg, repository.NewRepository(db), store, nil, m, zap.NewNop())
	require.NoError(t, err)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	h := handler.NewHandler(svc, sessions, renderer, m, zap.NewNop())
	chain, rl := middleware.Chain(&middleware.Config{
		Logger:         zap.NewNop(),
		RateLimit:      1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
		TimeoutExempt:  webhookPaths,
	})
	t.Cleanup(rl.Stop)

	srv := httptest.NewServer(chain(setupRouter(h, sessions, m, zap.NewNop())))
	t.Cleanup(srv.Close)
	return srv
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

func get(t *testing.T, c *http.Client, target string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRouter_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	c := noRedirectClient()

	t.Run("protected pages redirect to login", func(t *testing.T) {
		for _, path := range []string{"/dashboard", "/export", "/api/records", "/api/summary", "/api/payments", "/api/outgoing"} {
			resp := get(t, c, srv.URL+path)
			assert.Equal(t, http.StatusFound, resp.StatusCode, path)
			assert.Equal(t, middleware.LoginRequiredURL, resp.Header.Get("Location"), path)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, err := c.PostForm(srv.URL+"/login", url.Values{"username": {"admin"}, "password": {"nope"}})
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, resp.Cookies())
		assert.Contains(t, readBody(t, resp), "Invalid username or password.")
	})

	resp, err := c.PostForm(srv.URL+"/sms", url.Values{"From": {"+15551234567"}, "Body": {"YES"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Reply recorded", readBody(t, resp))
	resp.Body.Close()

	resp, err = c.PostForm(srv.URL+"/sms", url.Values{"From": {"123"}, "Body": {"YES"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = c.PostForm(srv.URL+"/login", url.Values{"username": {"admin"}, "password": {"s3cret"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	cookie := resp.Cookies()[0]
	assert.True(t, cookie.HttpOnly)

	t.Run("dashboard", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/dashboard", cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := readBody(t, resp)
		assert.Contains(t, body, "Login successful!")
		assert.Contains(t, body, "******4567")
		assert.NotContains(t, body, "+15551234567")
	})

	t.Run("export", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/export", cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		rows, err := csv.NewReader(resp.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, service.ExportHeader, rows[0])
		assert.Equal(t, "******4567", rows[1][0])
		assert.Equal(t, "tenant", rows[1][3])
	})

	t.Run("api records", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/api/records?type=tenant", cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `"count":1`)
	})

	t.Run("api outgoing", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/api/outgoing", cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `"count":0`)
	})

	t.Run("metrics", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/metrics")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := readBody(t, resp)
		assert.Contains(t, body, `rentverify_inbound_messages_total{category="tenant",outcome="accepted"} 1`)
		assert.Contains(t, body, `rentverify_inbound_messages_total{category="unknown",outcome="rejected"} 1`)
		assert.Contains(t, body, `route="/dashboard"`)
	})

	t.Run("health", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/health")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), `"status":"healthy"`)
	})

	t.Run("logout", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/logout", cookie)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, handler.LoggedOutURL, resp.Header.Get("Location"))

		resp = get(t, c, srv.URL+"/dashboard", cookie)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("unknown path", func(t *testing.T) {
		resp := get(t, c, srv.URL+"/nope")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
