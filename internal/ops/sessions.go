package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/ghost/internal/db"
	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/report"
)

// SessionsInput contains parameters for the Sessions operation.
type SessionsInput struct {
	ProjectDir *string // optional filter
	Limit      int     // default: 20, max: 100
	Offset     int     // default: 0
}

// SessionsOutput contains the result of the Sessions operation.
type SessionsOutput struct {
	Items      []db.Session `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// Sessions lists journal sessions, newest first.
func Sessions(ctx context.Context, database *sql.DB, input SessionsInput) (*SessionsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	items, total, err := db.ListSessions(ctx, database, db.SessionFilters{
		ProjectDir: cleanOptionalString(input.ProjectDir),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}

	return &SessionsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// HistoryInput contains parameters for the History operation.
type HistoryInput struct {
	SessionID string // required
}

// HistoryOutput contains the result of the History operation.
type HistoryOutput struct {
	Session  *db.Session  `json:"session"`
	Captures []db.Capture `json:"captures"`
}

// History returns a session and its captures in capture order.
func History(ctx context.Context, database *sql.DB, input HistoryInput) (*HistoryOutput, error) {
	id := strings.TrimSpace(input.SessionID)
	if id == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	s, err := db.GetSession(ctx, database, id)
	if err != nil {
		return nil, err
	}
	captures, err := db.ListCaptures(ctx, database, id)
	if err != nil {
		return nil, err
	}
	return &HistoryOutput{Session: s, Captures: captures}, nil
}

// ReportInput contains parameters for the Report operation.
type ReportInput struct {
	SessionID string // required
	Format    string // markdown (default) or html
}

// ReportOutput contains the result of the Report operation.
type ReportOutput struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
	Content   string `json:"content"`
}

// Report renders a session as Markdown or HTML.
func Report(ctx context.Context, database *sql.DB, input ReportInput) (*ReportOutput, error) {
	format, err := report.ParseFormat(input.Format)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	h, err := History(ctx, database, HistoryInput{SessionID: input.SessionID})
	if err != nil {
		return nil, err
	}
	content, err := report.Render(format, h.Session, h.Captures)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ReportOutput{SessionID: h.Session.ID, Format: string(format), Content: content}, nil
}
