package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/service"
	"github.com/popeskul/rentverify/internal/session"
)

func TestRenderer_Pages(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	received := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	dashboard := &service.Dashboard{
		Summary: service.Summarize([]*models.RentRecord{
			{Reply: "yes", Category: models.CategoryLandlord},
		}),
		Records: []*models.RentRecord{
			{ID: 1, PhoneNumber: "******4567", Reply: "yes", Category: models.CategoryLandlord, ReceivedAt: received},
			{ID: 2, PhoneNumber: "******9999", Reply: "<b>later</b>", Category: models.CategoryTenant, ReceivedAt: received},
		},
	}

	tests := []struct {
		name     string
		page     string
		data     any
		status   int
		contains []string
		excludes []string
	}{
		{
			name:     "login with flash",
			page:     PageLogin,
			data:     LoginPage{Flashes: []session.Flash{{Category: FlashDanger, Message: "Invalid username or password."}}},
			status:   http.StatusUnauthorized,
			contains: []string{`alert-danger`, "Invalid username or password.", `action="/login"`},
		},
		{
			name:   "dashboard",
			page:   PageDashboard,
			data:   DashboardPage{Username: "admin", Dashboard: dashboard, SMSEnabled: true, ExportURL: "/export"},
			status: http.StatusOK,
			contains: []string{
				"******4567", "YES", "PENDING", "2025-03-01 09:30:00",
				`action="/send-sms"`, `href="/export"`,
				"&lt;b&gt;later&lt;/b&gt;",
			},
			excludes: []string{"<b>later</b>", "not configured", "value="},
		},
		{
			name:     "dashboard without sms",
			page:     PageDashboard,
			data:     DashboardPage{Dashboard: &service.Dashboard{}, ErrorLoading: true},
			status:   http.StatusOK,
			contains: []string{"Outbound SMS is not configured.", "Error loading dashboard data.", "No replies yet."},
		},
		{
			name:     "error",
			page:     PageError,
			data:     ErrorPage{Code: 404, Message: "Page Not Found"},
			status:   http.StatusNotFound,
			contains: []string{"404", "Page Not Found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, r.Render(w, tt.status, tt.page, tt.data))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			body := w.Body.String()
			for _, s := range tt.contains {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, body, s)
			}
		})
	}
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	assert.Error(t, r.Render(w, http.StatusOK, "missing.html", nil))
	assert.Zero(t, w.Body.Len())
}

func TestReplyLabel(t *testing.T) {
	assert.Equal(t, "YES", replyLabel(" yes "))
	assert.Equal(t, "NO", replyLabel("No"))
	assert.Equal(t, "PENDING", replyLabel("maybe"))
}
