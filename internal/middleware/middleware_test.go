package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/session"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "abc-123", wantSame: true},
		{name: "oversized replaced", incoming: strings.Repeat("x", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.incoming != "" {
				req.Header.Set(middleware.RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
			if tt.wantSame {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Limit(1), 1)
	defer rl.Stop()

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("127.0.0.1:1234").Code)

	// Same client on a new connection shares the bucket.
	w := send("127.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), middleware.ErrorCodeRateLimitExceeded)

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)

	time.Sleep(time.Second)
	assert.Equal(t, http.StatusOK, send("127.0.0.1:1234").Code)

	rl.Stop()
}

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, middleware.ErrorCodeInternal, body["error"])
}

func TestTimeout(t *testing.T) {
	t.Run("completes in time", func(t *testing.T) {
		handler := middleware.Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "1")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("done"))
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "done", w.Body.String())
		assert.Equal(t, "1", w.Header().Get("X-Test"))
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		release := make(chan struct{})
		handler := middleware.Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			<-release
			_, _ = w.Write([]byte("late"))
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		close(release)

		assert.Equal(t, http.StatusRequestTimeout, w.Code)
		assert.Contains(t, w.Body.String(), middleware.ErrorCodeRequestTimeout)
		assert.NotContains(t, w.Body.String(), "late")
	})

	t.Run("handler reads request after deadline", func(t *testing.T) {
		read := make(chan string, 1)
		handler := middleware.Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			time.Sleep(10 * time.Millisecond)
			read <- r.Method + " " + r.URL.Path + " " + r.Header.Get("X-Reply")
		}))

		req := httptest.NewRequest(http.MethodPost, "/sms", nil)
		req.Header.Set("X-Reply", "YES")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestTimeout, w.Code)
		select {
		case got := <-read:
			assert.Equal(t, "POST /sms YES", got)
		case <-time.After(time.Second):
			t.Fatal("handler did not finish")
		}
	})
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(middleware.Metrics(m))
	r.Get("/api/records", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/api/records", "/api/records?limit=5", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(reg, "rentverify_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRequireSession(t *testing.T) {
	manager := session.NewManager(session.NewMemoryStore(time.Minute), session.Options{Secret: "test-secret"})

	var gotUser string
	protected := middleware.RequireSession(manager, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		require.True(t, ok)
		gotUser = s.Username
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no session redirects to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, middleware.LoginRequiredURL, w.Header().Get("Location"))
	})

	t.Run("valid session passes", func(t *testing.T) {
		login := httptest.NewRecorder()
		_, err := manager.Login(login, httptest.NewRequest(http.MethodPost, "/login", nil), "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(context.Background())
		for _, c := range login.Result().Cookies() {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin", gotUser)
	})

	t.Run("tampered cookie redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: "rentverify_session", Value: "forged.c2lnbmF0dXJl"})
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
	})
}

func TestChain(t *testing.T) {
	chain, rl := middleware.Chain(&middleware.Config{
		Logger:         zap.NewNop(),
		RateLimit:      rate.Limit(100),
		RateLimitBurst: 10,
		RequestTimeout: time.Second,
	})
	defer rl.Stop()

	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, middleware.GetRequestID(r.Context()))
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestChain_TimeoutExempt(t *testing.T) {
	chain, rl := middleware.Chain(&middleware.Config{
		Logger:         zap.NewNop(),
		RateLimit:      rate.Limit(100),
		RateLimitBurst: 10,
		RequestTimeout: 20 * time.Millisecond,
		TimeoutExempt:  []string{"/sms"},
	})
	defer rl.Stop()

	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(60 * time.Millisecond)
		_, _ = w.Write([]byte("Reply recorded"))
	}))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "webhook runs to completion", path: "/sms", wantStatus: http.StatusOK, wantBody: "Reply recorded"},
		{name: "other routes time out", path: "/dashboard", wantStatus: http.StatusRequestTimeout, wantBody: middleware.ErrorCodeRequestTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
