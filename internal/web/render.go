package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/ghost/internal/db"
	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// ListPageData is the template data for the session list page.
type ListPageData struct {
	PageData
	Items      []db.Session
	Pagination ops.Pagination
	ProjectDir string
}

// DetailPageData is the template data for the session detail page.
type DetailPageData struct {
	PageData
	Session  *db.Session
	Captures []db.Capture
	Report   template.HTML
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	log       logrus.FieldLogger
}

// NewRenderer parses the layout and every page template from templateFS.
func NewRenderer(templateFS fs.FS, version string, log logrus.FieldLogger) (*Renderer, error) {
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatTime": formatTime,
		"endedAt":    endedAt,
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version, log: log}, nil
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.WithField("template", name).Error("template not found")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.WithError(err).WithField("template", name).Error("template execution failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error as JSON or as the error page, depending on
// what the client accepts. Internal messages are not exposed.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var gErr *errors.GhostError
	if !stderrors.As(err, &gErr) {
		gErr = errors.NewInternal(err)
	}

	message := gErr.Message
	if gErr.Code == errors.ErrInternal {
		r.log.WithError(err).Error("request failed")
		message = "internal error"
	}

	if wantsJSON(req) {
		renderJSON(w, gErr.Status, map[string]any{
			"error": map[string]any{
				"code":    string(gErr.Code),
				"message": message,
				"status":  gErr.Status,
			},
		})
		return
	}

	r.renderPageStatus(w, gErr.Status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", gErr.Status),
			Version: r.version,
		},
		StatusCode: gErr.Status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// endedAt formats a session end time, or "open" while it is still running.
func endedAt(t *int64) string {
	if t == nil {
		return "open"
	}
	return formatTime(*t)
}
