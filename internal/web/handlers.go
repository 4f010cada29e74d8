package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/ops"
	"github.com/hpungsan/ghost/internal/report"
)

// Handlers contains HTTP route handlers for the journal browser.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /sessions.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	projectDir := r.URL.Query().Get("project_dir")

	result, err := ops.Sessions(r.Context(), h.db, ops.SessionsInput{
		ProjectDir: ptrString(projectDir),
		Limit:      parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:     parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Sessions",
			Version: h.renderer.version,
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		ProjectDir: projectDir,
	})
}

// HandleDetail handles GET /sessions/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	result, err := ops.History(r.Context(), h.db, ops.HistoryInput{SessionID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	body, err := report.Fragment(result.Session, result.Captures)
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   "Session " + result.Session.ID,
			Version: h.renderer.version,
		},
		Session:  result.Session,
		Captures: result.Captures,
		Report:   body,
	})
}

// HandleMarkdown handles GET /sessions/{id}/report.md.
func (h *Handlers) HandleMarkdown(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Report(r.Context(), h.db, ops.ReportInput{
		SessionID: r.PathValue("id"),
		Format:    string(report.FormatMarkdown),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="session-`+result.SessionID+`.md"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.Content))
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
