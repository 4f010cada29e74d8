package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/ghost/internal/artifact"
	"github.com/hpungsan/ghost/internal/codegen"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/db"
	"github.com/hpungsan/ghost/internal/element"
	"github.com/hpungsan/ghost/internal/errors"
)

// StartSessionInput contains parameters for the StartSession operation.
type StartSessionInput struct {
	TargetURL  string // default: cfg.TargetURL
	ProjectDir string // default: cfg output directory
}

// StartSession opens a journal session.
func StartSession(ctx context.Context, database *sql.DB, cfg *config.Config, input StartSessionInput) (*db.Session, error) {
	projectDir := input.ProjectDir
	if projectDir == "" {
		dir, err := cfg.OutputDir()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		projectDir = dir
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s := &db.Session{
		ID:         id,
		TargetURL:  pick(input.TargetURL, cfg.TargetURL),
		ProjectDir: projectDir,
		StartedAt:  time.Now().Unix(),
	}
	if err := db.InsertSession(ctx, database, s); err != nil {
		return nil, err
	}
	return s, nil
}

// EndSession closes a journal session.
func EndSession(ctx context.Context, database *sql.DB, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewInvalidRequest("session_id is required")
	}
	return db.EndSession(ctx, database, id, time.Now().Unix())
}

// RecordInput contains parameters for the Record operation.
type RecordInput struct {
	SessionID string // optional; empty skips the journal entry

	Accessor       string // optional; empty picks the next <prefix><n>
	AccessorPrefix string // default: cfg.AccessorPrefix

	Locator element.LocatorCandidate // Expression required
	Spec    codegen.ActionSpec

	PageObjectPath string // default: cfg.PageObjectPath
	SpecPath       string // default: cfg.SpecPath
	VisitURL       string // default: cfg.TargetURL
}

// RecordOutput contains the result of the Record operation.
type RecordOutput struct {
	CaptureID        string `json:"capture_id,omitempty"`
	Seq              int    `json:"seq,omitempty"`
	Accessor         string `json:"accessor"`
	Declaration      string `json:"declaration"`
	Statement        string `json:"statement"`
	AccessorInserted bool   `json:"accessor_inserted"`
	PageObjectPath   string `json:"page_object_path"`
	SpecPath         string `json:"spec_path"`
}

// Prepared is a capture whose accessor name and statement are settled.
// Nothing has been written for it yet.
type Prepared struct {
	SessionID string
	Accessor  string
	Locator   element.LocatorCandidate
	Spec      codegen.ActionSpec
	Statement string
	VisitURL  string

	pomPath  string
	specPath string
}

// Prepare validates input, picks the accessor name and synthesizes the
// statement. It reads the page object to number the accessor but writes
// nothing, so an invalid spec can be corrected and prepared again.
func Prepare(ctx context.Context, store *artifact.Store, cfg *config.Config, input RecordInput) (*Prepared, error) {
	locator := input.Locator
	locator.Expression = strings.TrimSpace(locator.Expression)
	if locator.Expression == "" {
		return nil, errors.NewInvalidRequest("locator is required")
	}
	pomPath := pick(input.PageObjectPath, cfg.PageObjectPath)

	name := strings.TrimSpace(input.Accessor)
	if name == "" {
		var err error
		name, err = store.NextAccessorName(ctx, pomPath, pick(input.AccessorPrefix, cfg.AccessorPrefix))
		if err != nil {
			return nil, err
		}
	}

	stmt, err := codegen.Synthesize(name, input.Spec, codegen.Options{PageVar: cfg.PageVar})
	if err != nil {
		return nil, err
	}

	return &Prepared{
		SessionID: input.SessionID,
		Accessor:  name,
		Locator:   locator,
		Spec:      input.Spec,
		Statement: stmt,
		VisitURL:  pick(input.VisitURL, cfg.TargetURL),
		pomPath:   pomPath,
		specPath:  pick(input.SpecPath, cfg.SpecPath),
	}, nil
}

// Persist writes a prepared capture. The journal session is checked first,
// then the accessor and statement are appended together, then the journal
// row is added. A spec that cannot take the statement leaves the page object
// as it was.
func Persist(ctx context.Context, database *sql.DB, store *artifact.Store, p *Prepared) (*RecordOutput, error) {
	journal := database != nil && p.SessionID != ""
	if journal {
		if _, err := db.GetSession(ctx, database, p.SessionID); err != nil {
			return nil, err
		}
	}

	acc, st, err := store.AppendPair(ctx, artifact.Pair{
		PageObjectFile: p.pomPath,
		Name:           p.Accessor,
		Locator:        p.Locator.Expression,
		SpecFile:       p.specPath,
		Statement:      p.Statement,
		VisitURL:       p.VisitURL,
	})
	if err != nil {
		return nil, err
	}

	out := &RecordOutput{
		Accessor:         p.Accessor,
		Declaration:      acc.Declaration,
		Statement:        st.Statement,
		AccessorInserted: acc.Inserted,
		PageObjectPath:   acc.Path,
		SpecPath:         st.Path,
	}
	if !journal {
		return out, nil
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	c := &db.Capture{
		ID:             id,
		SessionID:      p.SessionID,
		Accessor:       p.Accessor,
		Locator:        p.Locator.Expression,
		Strategy:       string(p.Locator.Kind),
		Action:         p.Spec.Kind.String(),
		Wait:           p.Spec.Wait.String(),
		Force:          p.Spec.Force,
		Multiple:       p.Spec.Multiple,
		Statement:      st.Statement,
		PageObjectPath: acc.Path,
		SpecPath:       st.Path,
		CreatedAt:      time.Now().Unix(),
	}
	if err := db.InsertCapture(ctx, database, c); err != nil {
		return nil, err
	}
	out.CaptureID = c.ID
	out.Seq = c.Seq
	return out, nil
}

// Record prepares and persists one captured interaction.
func Record(ctx context.Context, database *sql.DB, store *artifact.Store, cfg *config.Config, input RecordInput) (*RecordOutput, error) {
	p, err := Prepare(ctx, store, cfg, input)
	if err != nil {
		return nil, err
	}
	return Persist(ctx, database, store, p)
}
