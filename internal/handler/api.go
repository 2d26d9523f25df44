package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/service"
)

type RecordsResponse struct {
	Records []*models.RentRecord `json:"records"`
	Count   int                  `json:"count"`
}

type PaymentsResponse struct {
	Payments []*models.Payment `json:"payments"`
	Count    int               `json:"count"`
}

type OutgoingMessage struct {
	ID                int64     `json:"id"`
	RecipientName     string    `json:"recipient_name"`
	RecipientPhone    string    `json:"recipient_phone"`
	RecipientAddress  string    `json:"recipient_address"`
	RecipientEmail    string    `json:"recipient_email,omitempty"`
	Body              string    `json:"body"`
	SentAt            time.Time `json:"sent_at"`
	ProviderMessageID string    `json:"provider_message_id"`
	Status            string    `json:"status"`
}

type OutgoingResponse struct {
	Messages []OutgoingMessage `json:"messages"`
	Count    int               `json:"count"`
}

type HealthResponse struct {
	*service.HealthStatus
	Timestamp time.Time `json:"timestamp"`
}

// APIRecords returns stored replies, newest first.
func (h *Handler) APIRecords(w http.ResponseWriter, r *http.Request) {
	category, ok := parseCategory(r)
	if !ok {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidParameter, errorMessageInvalidType)
		return
	}
	limit, ok := parseLimit(r)
	if !ok {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidParameter, errorMessageInvalidLimit)
		return
	}

	records, err := h.service.Record.List(r.Context(), models.RecordFilter{Category: category, Limit: limit})
	if err != nil {
		h.logFailure(r, "Failed to list records", err)
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToLoadRecords)
		return
	}

	render.JSON(w, r, RecordsResponse{Records: records, Count: len(records)})
}

func (h *Handler) APISummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Record.Summary(r.Context())
	if err != nil {
		h.logFailure(r, "Failed to summarize records", err)
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToLoadRecords)
		return
	}

	render.JSON(w, r, summary)
}

func (h *Handler) APIPayments(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidParameter, errorMessageInvalidLimit)
		return
	}

	payments, err := h.service.Record.Payments(r.Context(), limit)
	if err != nil {
		h.logFailure(r, "Failed to list payments", err)
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToLoadRecords)
		return
	}

	render.JSON(w, r, PaymentsResponse{Payments: payments, Count: len(payments)})
}

// APIOutgoing returns the SMS prompts sent from the dashboard, newest first.
func (h *Handler) APIOutgoing(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidParameter, errorMessageInvalidLimit)
		return
	}

	sent, err := h.service.Record.Outgoing(r.Context(), limit)
	if err != nil {
		h.logFailure(r, "Failed to list outgoing messages", err)
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToLoadRecords)
		return
	}

	messages := make([]OutgoingMessage, 0, len(sent))
	for _, m := range sent {
		messages = append(messages, OutgoingMessage{
			ID:                m.ID,
			RecipientName:     m.RecipientName,
			RecipientPhone:    m.RecipientPhone,
			RecipientAddress:  m.RecipientAddress,
			RecipientEmail:    m.RecipientEmail.String,
			Body:              m.Body,
			SentAt:            m.SentAt,
			ProviderMessageID: m.ProviderMessageID,
			Status:            string(m.Status),
		})
	}

	render.JSON(w, r, OutgoingResponse{Messages: messages, Count: len(messages)})
}

// Health reports dependency status. Unhealthy answers 503; degraded still
// answers 200 so the app stays in rotation while outbound SMS is paused.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health.GetHealth(r.Context())

	if health.Status == service.Unhealthy {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, HealthResponse{HealthStatus: health, Timestamp: h.now().UTC()})
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.Error(err))
}
