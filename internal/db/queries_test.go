package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/hpungsan/ghost/internal/errors"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestCapture(id, sessionID, accessor string) *Capture {
	return &Capture{
		ID:             id,
		SessionID:      sessionID,
		Accessor:       accessor,
		Locator:        "cy.get('#" + accessor + "')",
		Strategy:       "id",
		Action:         "click",
		Wait:           "visible",
		Force:          true,
		Statement:      "page." + accessor + ".should('be.visible').click({ force: true });",
		PageObjectPath: "/p/cypress/pages/PageObjects.js",
		SpecPath:       "/p/cypress/e2e/generated_test.cy.js",
		CreatedAt:      1000,
	}
}

func TestInsertSession_GetSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := &Session{ID: "01SESS001", TargetURL: "https://example.com", ProjectDir: "/p", StartedAt: 100}
	if err := InsertSession(ctx, db, s); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	got, err := GetSession(ctx, db, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.TargetURL != s.TargetURL || got.ProjectDir != s.ProjectDir || got.StartedAt != 100 {
		t.Errorf("GetSession = %+v", got)
	}
	if got.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil", *got.EndedAt)
	}
	if got.CaptureCount != 0 {
		t.Errorf("CaptureCount = %d, want 0", got.CaptureCount)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetSession(context.Background(), db, "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestEndSession(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := InsertSession(ctx, db, &Session{ID: "01SESS001", TargetURL: "u", ProjectDir: "/p", StartedAt: 1}); err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}
	if err := EndSession(ctx, db, "01SESS001", 50); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	// Second end keeps the first timestamp.
	if err := EndSession(ctx, db, "01SESS001", 99); err != nil {
		t.Fatalf("EndSession again failed: %v", err)
	}

	got, err := GetSession(ctx, db, "01SESS001")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.EndedAt == nil || *got.EndedAt != 50 {
		t.Errorf("EndedAt = %v, want 50", got.EndedAt)
	}

	if err := EndSession(ctx, db, "nope", 1); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestInsertCapture_AssignsSequence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"01SESSA", "01SESSB"} {
		if err := InsertSession(ctx, db, &Session{ID: id, TargetURL: "u", ProjectDir: "/p", StartedAt: 1}); err != nil {
			t.Fatalf("InsertSession failed: %v", err)
		}
	}

	for i := 1; i <= 3; i++ {
		c := newTestCapture(fmt.Sprintf("01CAPA%d", i), "01SESSA", fmt.Sprintf("element_%d", i))
		if err := InsertCapture(ctx, db, c); err != nil {
			t.Fatalf("InsertCapture failed: %v", err)
		}
		if c.Seq != i {
			t.Errorf("Seq = %d, want %d", c.Seq, i)
		}
	}

	// Sequences are per session.
	other := newTestCapture("01CAPB1", "01SESSB", "title")
	if err := InsertCapture(ctx, db, other); err != nil {
		t.Fatalf("InsertCapture failed: %v", err)
	}
	if other.Seq != 1 {
		t.Errorf("other session Seq = %d, want 1", other.Seq)
	}

	got, err := ListCaptures(ctx, db, "01SESSA")
	if err != nil {
		t.Fatalf("ListCaptures failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, c := range got {
		if c.Seq != i+1 || c.Accessor != fmt.Sprintf("element_%d", i+1) {
			t.Errorf("captures[%d] = seq %d accessor %s", i, c.Seq, c.Accessor)
		}
	}
	if !got[0].Force || got[0].Multiple {
		t.Errorf("Force/Multiple = %v/%v, want true/false", got[0].Force, got[0].Multiple)
	}

	s, err := GetSession(ctx, db, "01SESSA")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if s.CaptureCount != 3 {
		t.Errorf("CaptureCount = %d, want 3", s.CaptureCount)
	}
}

func TestInsertCapture_UnknownSession(t *testing.T) {
	db := setupTestDB(t)

	err := InsertCapture(context.Background(), db, newTestCapture("01CAP", "ghost-session", "a"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestListCaptures_Empty(t *testing.T) {
	db := setupTestDB(t)

	got, err := ListCaptures(context.Background(), db, "none")
	if err != nil {
		t.Fatalf("ListCaptures failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListCaptures = %v, want empty non-nil slice", got)
	}
}

func TestListSessions_OrderFilterPaging(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sessions := []*Session{
		{ID: "01S1", TargetURL: "u", ProjectDir: "/a", StartedAt: 10},
		{ID: "01S2", TargetURL: "u", ProjectDir: "/b", StartedAt: 20},
		{ID: "01S3", TargetURL: "u", ProjectDir: "/a", StartedAt: 30},
	}
	for _, s := range sessions {
		if err := InsertSession(ctx, db, s); err != nil {
			t.Fatalf("InsertSession failed: %v", err)
		}
	}

	all, total, err := ListSessions(ctx, db, SessionFilters{})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("total = %d len = %d, want 3/3", total, len(all))
	}
	if all[0].ID != "01S3" || all[2].ID != "01S1" {
		t.Errorf("order = %s..%s, want newest first", all[0].ID, all[2].ID)
	}

	dir := "/a"
	filtered, total, err := ListSessions(ctx, db, SessionFilters{ProjectDir: &dir})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if total != 2 || len(filtered) != 2 {
		t.Errorf("filtered total = %d len = %d, want 2/2", total, len(filtered))
	}

	page, total, err := ListSessions(ctx, db, SessionFilters{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].ID != "01S2" {
		t.Errorf("page = %+v total = %d", page, total)
	}
}
