package handler

import (
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/validation"
)

const (
	smsReplyRecorded    = "Reply recorded"
	smsProcessingFailed = "Error processing message"
	relayFailed         = "Error processing relay"
)

// InvalidPayloadResponse is returned when the webhook payload is rejected.
type InvalidPayloadResponse struct {
	Error   string            `json:"error"`
	Details validation.Errors `json:"details"`
}

// SMSWebhook records one inbound reply delivered by the SMS provider.
func (h *Handler) SMSWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Malformed SMS webhook body",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.rejectPayload(w, r, validation.Errors{"_": "Malformed form body."})
		return
	}

	payload := map[string]string{
		"From": r.PostForm.Get("From"),
		"Body": r.PostForm.Get("Body"),
	}
	if ok, errs := validation.ValidateSMSPayload(payload); !ok {
		h.logger.Warn("Rejected SMS webhook",
			zap.String("request_id", requestID),
			zap.Any("details", errs))
		h.rejectPayload(w, r, errs)
		return
	}

	record, err := h.service.Record.Ingest(r.Context(), payload["From"], payload["Body"])
	if err != nil {
		h.logger.Error("Error in SMS handler",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.sendText(w, r, http.StatusInternalServerError, smsProcessingFailed)
		return
	}

	h.logger.Info("Reply recorded",
		zap.String("request_id", requestID),
		zap.Int64("record_id", record.ID),
		zap.String("type", string(record.Category)))
	h.sendText(w, r, http.StatusOK, smsReplyRecorded)
}

func (h *Handler) rejectPayload(w http.ResponseWriter, r *http.Request, errs validation.Errors) {
	h.metrics.Inbound("", metrics.OutcomeRejected)
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, InvalidPayloadResponse{
		Error:   "Invalid SMS payload",
		Details: errs,
	})
}

// SMSRelay forwards the webhook to every relay target.
func (h *Handler) SMSRelay(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Error("Error in relay",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		h.sendText(w, r, http.StatusInternalServerError, relayFailed)
		return
	}

	result := h.service.Relay.Relay(r.Context(), r.PostForm)
	if !result.Succeeded {
		h.sendText(w, r, http.StatusInternalServerError, result.String())
		return
	}
	h.sendText(w, r, http.StatusOK, result.String())
}
