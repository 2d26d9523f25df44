package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession is returned by Load when the request carries no valid session.
var ErrNoSession = errors.New("no active session")

type Options struct {
	Secret     string
	CookieName string
	Lifetime   time.Duration
	Secure     bool
}

// Manager issues, verifies and clears session cookies.
type Manager struct {
	store    Store
	secret   []byte
	cookie   string
	lifetime time.Duration
	secure   bool
	now      func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	name := opts.CookieName
	if name == "" {
		name = "rentverify_session"
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	return &Manager{
		store:    store,
		secret:   []byte(opts.Secret),
		cookie:   name,
		lifetime: lifetime,
		secure:   opts.Secure,
		now:      time.Now,
	}
}

// Store exposes the backing store for health checks.
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the session referenced by the request cookie.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookie)
	if err != nil {
		return nil, ErrNoSession
	}

	id, ok := m.verify(c.Value)
	if !ok {
		return nil, ErrNoSession
	}

	s, err := m.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	if !s.ExpiresAt.After(m.now()) {
		_ = m.store.Delete(r.Context(), id)
		return nil, ErrNoSession
	}
	return s, nil
}

// Login starts a fresh session for username and sets its cookie. Any session
// already attached to the request is discarded first.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, username string) (*Session, error) {
	if old, err := m.Load(r); err == nil {
		_ = m.store.Delete(r.Context(), old.ID)
	}

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.lifetime),
	}
	if err := m.store.Save(r.Context(), s, m.lifetime); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, m.newCookie(m.sign(s.ID), s.ExpiresAt, int(m.lifetime.Seconds())))
	return s, nil
}

// Logout removes the session and expires the cookie. It is safe to call
// without an active session.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	var err error
	if s, loadErr := m.Load(r); loadErr == nil {
		err = m.store.Delete(r.Context(), s.ID)
	}
	http.SetCookie(w, m.newCookie("", time.Unix(0, 0), -1))
	return err
}

// AddFlash queues a message for the next page render.
func (m *Manager) AddFlash(ctx context.Context, s *Session, category, message string) error {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
	return m.store.Save(ctx, s, s.TTL(m.now()))
}

// PopFlashes returns and clears queued messages.
func (m *Manager) PopFlashes(ctx context.Context, s *Session) ([]Flash, error) {
	if len(s.Flashes) == 0 {
		return nil, nil
	}
	flashes := s.Flashes
	s.Flashes = nil
	if err := m.store.Save(ctx, s, s.TTL(m.now())); err != nil {
		return nil, err
	}
	return flashes, nil
}

func (m *Manager) newCookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) sign(id string) string {
	return id + "." + m.mac(id)
}

func (m *Manager) verify(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.mac(id))) {
		return "", false
	}
	return id, true
}

func (m *Manager) mac(id string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by NewContext, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}
