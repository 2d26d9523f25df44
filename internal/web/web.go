// Package web renders the operator-facing HTML pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/popeskul/rentverify/internal/classifier"
	"github.com/popeskul/rentverify/internal/models"
	"github.com/popeskul/rentverify/internal/service"
	"github.com/popeskul/rentverify/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	PageLogin     = "login.html"
	PageDashboard = "dashboard.html"
	PageError     = "error.html"
)

// Flash categories, matching the alert styles in the layout.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// LoginPage is the data for the login form.
type LoginPage struct {
	Flashes  []session.Flash
	Username string
}

// DashboardPage is the data for the dashboard.
type DashboardPage struct {
	Flashes      []session.Flash
	Username     string
	Dashboard    *service.Dashboard
	SMSEnabled   bool
	ExportURL    string
	ErrorLoading bool
}

// ErrorPage is the data for a full-page error.
type ErrorPage struct {
	Flashes []session.Flash
	Code    int
	Message string
}

var funcs = template.FuncMap{
	"replyLabel": replyLabel,
	"timestamp": func(t time.Time) string {
		return t.UTC().Format(service.ExportTimeLayout)
	},
}

func replyLabel(reply string) string {
	switch classifier.ReplyStatus(reply) {
	case models.ReplyAffirmative:
		return "YES"
	case models.ReplyNegative:
		return "NO"
	default:
		return "PENDING"
	}
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", base, err)
		}
		r.pages[base] = t
	}
	return r, nil
}

// Render writes page with the given status. Nothing is written if the
// template fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
