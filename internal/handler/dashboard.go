package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/service"
	"github.com/popeskul/rentverify/internal/session"
	"github.com/popeskul/rentverify/internal/validation"
	"github.com/popeskul/rentverify/internal/web"
)

const (
	flashExportFailed  = "Error exporting data."
	flashSMSNotStored  = "SMS was sent but could not be recorded."
	flashSMSSentFormat = "SMS sent to %s."
)

// currentSession returns the session placed in the context by
// middleware.RequireSession.
func currentSession(r *http.Request) *session.Session {
	s, _ := session.FromContext(r.Context())
	return s
}

// Dashboard shows the reply counts and the record listing.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := currentSession(r)

	category, ok := parseCategory(r)
	if !ok {
		h.renderError(w, r, http.StatusBadRequest, "Bad Request")
		return
	}

	page := web.DashboardPage{
		Username:   s.Username,
		SMSEnabled: h.service.Notifier.Enabled(),
		ExportURL:  exportURL(category),
	}

	dashboard, err := h.service.Record.Dashboard(r.Context(), models.RecordFilter{Category: category})
	if err != nil {
		h.logger.Error("Error loading dashboard",
			zap.String("request_id", requestID),
			zap.Error(err))
		page.ErrorLoading = true
		dashboard = &service.Dashboard{Filter: category}
	}
	page.Dashboard = dashboard

	flashes, err := h.sessions.PopFlashes(r.Context(), s)
	if err != nil {
		h.logger.Warn("Failed to read flash messages", zap.String("request_id", requestID), zap.Error(err))
	}
	page.Flashes = flashes

	h.logger.Info("Dashboard accessed",
		zap.String("request_id", requestID),
		zap.String("username", s.Username),
		zap.Int("records", len(dashboard.Records)))
	h.render(w, r, http.StatusOK, web.PageDashboard, page)
}

func exportURL(category models.Category) string {
	if category == "" {
		return "/export"
	}
	return "/export?" + url.Values{"type": {string(category)}}.Encode()
}

// ExportCSV streams the records as a CSV attachment.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := currentSession(r)

	category, ok := parseCategory(r)
	if !ok {
		h.renderError(w, r, http.StatusBadRequest, "Bad Request")
		return
	}

	var buf bytes.Buffer
	n, err := h.service.Record.Export(r.Context(), &buf, models.RecordFilter{Category: category})
	if err != nil {
		h.logger.Error("Error exporting CSV",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.flash(r, s, web.FlashDanger, flashExportFailed)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	filename := service.ExportFilename(h.now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to write CSV export", zap.String("request_id", requestID), zap.Error(err))
		return
	}

	h.logger.Info("CSV export completed",
		zap.String("request_id", requestID),
		zap.String("username", s.Username),
		zap.Int("records", n))
}

// SendSMS sends the operator's message to a landlord and returns to the
// dashboard with the outcome as a flash message.
func (h *Handler) SendSMS(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	s := currentSession(r)

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad Request")
		return
	}
	req := models.OutboundRequest{
		Name:    r.PostForm.Get("name"),
		Phone:   r.PostForm.Get("phone"),
		Address: r.PostForm.Get("address"),
		Email:   r.PostForm.Get("email"),
		Message: r.PostForm.Get("message"),
	}

	msg, err := h.service.Notifier.Send(r.Context(), req)

	var verrs validation.Errors
	switch {
	case err == nil:
		h.flash(r, s, web.FlashSuccess, fmt.Sprintf(flashSMSSentFormat, msg.RecipientName))
	case errors.As(err, &verrs):
		for _, field := range verrs.Fields() {
			h.flash(r, s, web.FlashDanger, fmt.Sprintf("%s: %s", field, verrs[field]))
		}
	case errors.Is(err, service.ErrTransportFailure), errors.Is(err, service.ErrNotifierDisabled):
		h.flash(r, s, web.FlashDanger, "Failed to send SMS: "+service.ProviderMessage(err))
	default:
		h.logger.Error("Sent SMS was not recorded",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.flash(r, s, web.FlashWarning, flashSMSNotStored)
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
