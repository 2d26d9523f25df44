package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/handler"
	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/session"
)

const (
	smsWebhookPath = "/sms"
	smsRelayPath   = "/sms-relay"
)

// webhookPaths are answered without the request timeout.
var webhookPaths = []string{smsWebhookPath, smsRelayPath}

func setupRouter(h *handler.Handler, sessions *session.Manager, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Metrics(m))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	// Provider webhooks
	r.Post(smsWebhookPath, h.SMSWebhook)
	r.Post(smsRelayPath, h.SMSRelay)

	r.Get("/", h.Index)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Post("/logout", h.Logout)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(sessions, logger))

		r.Get("/dashboard", h.Dashboard)
		r.Get("/export", h.ExportCSV)
		r.Post("/send-sms", h.SendSMS)

		r.Route("/api", func(r chi.Router) {
			r.Get("/records", h.APIRecords)
			r.Get("/summary", h.APISummary)
			r.Get("/payments", h.APIPayments)
			r.Get("/outgoing", h.APIOutgoing)
		})
	})

	return r
}
