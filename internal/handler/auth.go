package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/service"
	"github.com/popeskul/rentverify/internal/session"
	"github.com/popeskul/rentverify/internal/validation"
	"github.com/popeskul/rentverify/internal/web"
)

const (
	flashLoginSuccess  = "Login successful!"
	flashLoggedOut     = "You have been logged out."
	flashLoginRequired = "Please log in to access this page."
)

// LoggedOutURL is where Logout sends the browser.
const LoggedOutURL = "/login?notice=logged_out"

// notices are the fixed messages an anonymous login page can show. The key
// travels in the query string; arbitrary text never does.
var notices = map[string]session.Flash{
	"logged_out":     {Category: web.FlashInfo, Message: flashLoggedOut},
	"login_required": {Category: web.FlashWarning, Message: flashLoginRequired},
}

// Index sends the browser to the dashboard or the login form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Load(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Load(r); err == nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	var page web.LoginPage
	if notice, ok := notices[r.URL.Query().Get("notice")]; ok {
		page.Flashes = []session.Flash{notice}
	}
	h.render(w, r, http.StatusOK, web.PageLogin, page)
}

// Login checks the submitted credentials and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad Request")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	var err error
	if ok, _ := validation.ValidateLoginForm(username, password); !ok {
		err = service.ErrInvalidCredentials
	} else {
		err = h.service.Auth.Authenticate(username, password)
	}
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Error("Login failed", zap.String("request_id", requestID), zap.Error(err))
		}
		h.render(w, r, http.StatusUnauthorized, web.PageLogin, web.LoginPage{
			Flashes:  []session.Flash{{Category: web.FlashDanger, Message: service.InvalidCredentialsMessage}},
			Username: username,
		})
		return
	}

	s, err := h.sessions.Login(w, r, username)
	if err != nil {
		h.logger.Error("Failed to start session", zap.String("request_id", requestID), zap.Error(err))
		h.renderError(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	h.flash(r, s, web.FlashSuccess, flashLoginSuccess)

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout ends the session, if any, and returns to the login form.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	username := "Unknown"
	if s, err := h.sessions.Load(r); err == nil {
		username = s.Username
	}

	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Warn("Failed to delete session",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
	}
	h.logger.Info("User logged out", zap.String("username", username))

	http.Redirect(w, r, LoggedOutURL, http.StatusSeeOther)
}

func (h *Handler) flash(r *http.Request, s *session.Session, category, message string) {
	if err := h.sessions.AddFlash(r.Context(), s, category, message); err != nil {
		h.logger.Warn("Failed to store flash message",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
	}
}
