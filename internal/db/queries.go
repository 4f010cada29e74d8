package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/ghost/internal/errors"
)

// Session is one recording run against a target page.
type Session struct {
	ID         string `json:"id" yaml:"id"`
	TargetURL  string `json:"target_url" yaml:"target_url"`
	ProjectDir string `json:"project_dir" yaml:"project_dir"`
	StartedAt  int64  `json:"started_at" yaml:"started_at"`
	EndedAt    *int64 `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`

	// CaptureCount is filled by ListSessions and GetSession.
	CaptureCount int `json:"capture_count" yaml:"capture_count"`
}

// Capture is one persisted accessor + statement pair.
type Capture struct {
	ID             string `json:"id" yaml:"id"`
	SessionID      string `json:"session_id" yaml:"session_id"`
	Seq            int    `json:"seq" yaml:"seq"`
	Accessor       string `json:"accessor" yaml:"accessor"`
	Locator        string `json:"locator" yaml:"locator"`
	Strategy       string `json:"strategy" yaml:"strategy"`
	Action         string `json:"action" yaml:"action"`
	Wait           string `json:"wait" yaml:"wait"`
	Force          bool   `json:"force" yaml:"force"`
	Multiple       bool   `json:"multiple" yaml:"multiple"`
	Statement      string `json:"statement" yaml:"statement"`
	PageObjectPath string `json:"page_object_path" yaml:"page_object_path"`
	SpecPath       string `json:"spec_path" yaml:"spec_path"`
	CreatedAt      int64  `json:"created_at" yaml:"created_at"`
}

// SessionFilters narrows ListSessions.
type SessionFilters struct {
	ProjectDir *string
	Limit      int // 0 means no limit
	Offset     int
}

// InsertSession stores a new session.
func InsertSession(ctx context.Context, db *sql.DB, s *Session) error {
	query := `
		INSERT INTO sessions (id, target_url, project_dir, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query, s.ID, s.TargetURL, s.ProjectDir, s.StartedAt, toNullInt64(s.EndedAt))
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// EndSession records the end time of an open session. Ending a session twice
// keeps the first end time.
func EndSession(ctx context.Context, db *sql.DB, id string, endedAt int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = COALESCE(ended_at, ?) WHERE id = ?`, endedAt, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

const sessionColumns = `
	s.id, s.target_url, s.project_dir, s.started_at, s.ended_at,
	(SELECT COUNT(*) FROM captures c WHERE c.session_id = s.id)
`

// GetSession retrieves a session by ID.
func GetSession(ctx context.Context, db *sql.DB, id string) (*Session, error) {
	row := db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// ListSessions returns sessions newest first, and the total matching count.
func ListSessions(ctx context.Context, db *sql.DB, f SessionFilters) ([]Session, int, error) {
	where := ""
	var args []any
	if f.ProjectDir != nil {
		where = " WHERE s.project_dir = ?"
		args = append(args, *f.ProjectDir)
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions s`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions s` + where + ` ORDER BY s.started_at DESC, s.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return sessions, total, nil
}

// InsertCapture stores c as the next capture of its session and sets c.Seq.
// A capture for an unknown session is NOT_FOUND.
func InsertCapture(ctx context.Context, db *sql.DB, c *Capture) error {
	query := `
		INSERT INTO captures (
			id, session_id, seq, accessor, locator, strategy, action, wait,
			force, multiple, statement, page_object_path, spec_path, created_at
		) VALUES (
			?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM captures WHERE session_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
		RETURNING seq
	`
	err := db.QueryRowContext(ctx, query,
		c.ID, c.SessionID, c.SessionID,
		c.Accessor, c.Locator, c.Strategy, c.Action, c.Wait,
		boolToInt(c.Force), boolToInt(c.Multiple), c.Statement,
		c.PageObjectPath, c.SpecPath, c.CreatedAt,
	).Scan(&c.Seq)
	if err != nil {
		if isForeignKeyError(err) {
			return errors.NewNotFound(c.SessionID)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// ListCaptures returns a session's captures in capture order.
func ListCaptures(ctx context.Context, db *sql.DB, sessionID string) ([]Capture, error) {
	query := `
		SELECT id, session_id, seq, accessor, locator, strategy, action, wait,
			force, multiple, statement, page_object_path, spec_path, created_at
		FROM captures
		WHERE session_id = ?
		ORDER BY seq
	`
	rows, err := db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	captures := []Capture{}
	for rows.Next() {
		var (
			c        Capture
			force    int
			multiple int
		)
		if err := rows.Scan(
			&c.ID, &c.SessionID, &c.Seq, &c.Accessor, &c.Locator, &c.Strategy, &c.Action, &c.Wait,
			&force, &multiple, &c.Statement, &c.PageObjectPath, &c.SpecPath, &c.CreatedAt,
		); err != nil {
			return nil, errors.NewInternal(err)
		}
		c.Force = force != 0
		c.Multiple = multiple != 0
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return captures, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		s       Session
		endedAt sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.TargetURL, &s.ProjectDir, &s.StartedAt, &endedAt, &s.CaptureCount); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		s.EndedAt = &endedAt.Int64
	}
	return &s, nil
}

// isForeignKeyError checks if the error is a SQLite FOREIGN KEY violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
