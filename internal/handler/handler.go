// Package handler provides HTTP request handlers for the application.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/service"
	"github.com/popeskul/rentverify/internal/session"
	"github.com/popeskul/rentverify/internal/web"
)

const (
	errorCodeInvalidParameter = "INVALID_PARAMETER"
)

const (
	errorMessageInvalidType         = "type must be tenant or landlord"
	errorMessageInvalidLimit        = "limit must be between 1 and 500"
	errorMessageFailedToLoadRecords = "Failed to retrieve records"
)

const (
	defaultAPILimit = 100
	maxAPILimit     = 500
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Handler struct {
	service  *service.Service
	sessions *session.Manager
	renderer *web.Renderer
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewHandler(
	svc *service.Service,
	sessions *session.Manager,
	renderer *web.Renderer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		service:  svc,
		sessions: sessions,
		renderer: renderer,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page Not Found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.logger.Error("Failed to render page",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("page", page),
			zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, web.PageError, web.ErrorPage{Code: status, Message: message})
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error:     errorCode,
		Message:   message,
		Timestamp: h.now().UTC(),
	})
}

func (h *Handler) sendText(w http.ResponseWriter, r *http.Request, statusCode int, body string) {
	render.Status(r, statusCode)
	render.PlainText(w, r, body)
}

// parseCategory reads the optional ?type= filter.
func parseCategory(r *http.Request) (models.Category, bool) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		return "", true
	}
	category, err := models.ParseCategory(raw)
	if err != nil {
		return "", false
	}
	return category, true
}

func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultAPILimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxAPILimit {
		return 0, false
	}
	return limit, true
}
