package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/ghost/internal/codegen"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/db"
	"github.com/hpungsan/ghost/internal/element"
	"github.com/hpungsan/ghost/internal/logging"
	"github.com/hpungsan/ghost/internal/ops"
)

func setupTest(t *testing.T) (*Handlers, http.Handler) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(filepath.Join(tmpDir, "state"))
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.ProjectDir = filepath.Join(tmpDir, "project")

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		t.Fatalf("static sub-FS: %v", err)
	}
	renderer, err := NewRenderer(templateSub, "test", logging.Discard())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	h := &Handlers{db: database, cfg: cfg, renderer: renderer}
	return h, securityHeaders(routes(h, staticSub))
}

// recordSession starts a session and records one click capture in it.
func recordSession(t *testing.T, h *Handlers) *db.Session {
	t.Helper()
	ctx := context.Background()
	s, err := ops.StartSession(ctx, h.db, h.cfg, ops.StartSessionInput{TargetURL: "https://shop.test"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	store, err := ops.NewStore(h.cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = ops.Record(ctx, h.db, store, h.cfg, ops.RecordInput{
		SessionID: s.ID,
		Accessor:  "checkout",
		Locator:   element.LocatorCandidate{Expression: "cy.contains('Checkout')", Kind: element.TextBased},
		Spec:      codegen.ActionSpec{Kind: codegen.Click, Wait: codegen.WaitVisible},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	return s
}

func get(handler http.Handler, target string, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRootRedirects(t *testing.T) {
	_, handler := setupTest(t)

	w := get(handler, "/", "")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/sessions" {
		t.Errorf("expected redirect to /sessions, got %q", loc)
	}
}

func TestHandleList_Empty(t *testing.T) {
	_, handler := setupTest(t)

	w := get(handler, "/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No sessions recorded yet.") {
		t.Error("expected empty state message")
	}
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("expected full layout")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected security headers")
	}
}

func TestHandleList_ShowsSessions(t *testing.T) {
	h, handler := setupTest(t)
	s := recordSession(t, h)

	w := get(handler, "/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `href="/sessions/`+s.ID+`"`) {
		t.Errorf("expected link to session %s", s.ID)
	}
	if !strings.Contains(body, "https://shop.test") {
		t.Error("expected target url")
	}
	if !strings.Contains(body, "open") {
		t.Error("expected open session marker")
	}
}

func TestHandleList_JSON(t *testing.T) {
	h, handler := setupTest(t)
	recordSession(t, h)
	recordSession(t, h)

	w := get(handler, "/sessions?limit=1", "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out ops.SessionsOutput
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || out.Pagination.Total != 2 || !out.Pagination.HasMore {
		t.Errorf("unexpected page: %+v", out)
	}
}

func TestHandleList_ProjectFilter(t *testing.T) {
	h, handler := setupTest(t)
	recordSession(t, h)

	w := get(handler, "/sessions?project_dir=/elsewhere", "application/json")
	var out ops.SessionsOutput
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 0 || out.Pagination.Total != 0 {
		t.Errorf("expected no sessions, got %+v", out)
	}
}

func TestHandleDetail_RendersReport(t *testing.T) {
	h, handler := setupTest(t)
	s := recordSession(t, h)

	w := get(handler, "/sessions/"+s.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<table>") {
		t.Error("expected the captures table")
	}
	if !strings.Contains(body, "checkout") {
		t.Error("expected the accessor name")
	}
	if !strings.Contains(body, "/sessions/"+s.ID+"/report.md") {
		t.Error("expected markdown download link")
	}
}

func TestHandleDetail_JSON(t *testing.T) {
	h, handler := setupTest(t)
	s := recordSession(t, h)

	w := get(handler, "/sessions/"+s.ID, "application/json")
	var out ops.HistoryOutput
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Captures) != 1 {
		t.Fatalf("expected 1 capture, got %d", len(out.Captures))
	}
	if out.Captures[0].Statement != "page.checkout.should('be.visible').click();" {
		t.Errorf("unexpected statement %q", out.Captures[0].Statement)
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	_, handler := setupTest(t)

	w := get(handler, "/sessions/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Error 404") {
		t.Error("expected error page")
	}

	w = get(handler, "/sessions/missing", "application/json")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %q", body.Error.Code)
	}
}

func TestHandleMarkdown(t *testing.T) {
	h, handler := setupTest(t)
	s := recordSession(t, h)

	w := get(handler, "/sessions/"+s.ID+"/report.md", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "# Session "+s.ID) {
		t.Errorf("unexpected markdown:\n%s", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "session-"+s.ID+".md") {
		t.Errorf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
}

func TestStaticAssets(t *testing.T) {
	_, handler := setupTest(t)

	w := get(handler, "/static/style.css", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "font-family") {
		t.Error("expected stylesheet content")
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=abc", 20},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/sessions?"+tt.query, nil)
		if got := parseIntParam(req, "limit", 20); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
