package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/ghost/internal/artifact"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/element"
	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db    *sql.DB
	store *artifact.Store
	cfg   *config.Config
	log   logrus.FieldLogger
}

// NewHandlers creates a new Handlers instance. A nil logger discards output.
func NewHandlers(database *sql.DB, store *artifact.Store, cfg *config.Config, log logrus.FieldLogger) *Handlers {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Handlers{db: database, store: store, cfg: cfg, log: log}
}

// decode unmarshals MCP request arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	if args == nil {
		return result, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// Request types for each tool

// CandidatesRequest represents the arguments for locator_candidates.
type CandidatesRequest struct {
	ID         string `json:"id,omitempty"`
	Text       string `json:"text,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Class      string `json:"class,omitempty"`
	Type       string `json:"type,omitempty"`
	TextMaxLen int    `json:"text_max_len,omitempty"`
}

// SynthesizeRequest represents the arguments for action_synthesize.
type SynthesizeRequest struct {
	Accessor string  `json:"accessor"`
	Locator  string  `json:"locator,omitempty"`
	Action   string  `json:"action"`
	Wait     string  `json:"wait,omitempty"`
	Force    bool    `json:"force,omitempty"`
	Multiple bool    `json:"multiple,omitempty"`
	Value    *string `json:"value,omitempty"`
	PageVar  string  `json:"page_var,omitempty"`
}

// AppendAccessorRequest represents the arguments for artifact_append_accessor.
type AppendAccessorRequest struct {
	Locator string `json:"locator"`
	Name    string `json:"name,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
	Path    string `json:"path,omitempty"`
}

// AppendStatementRequest represents the arguments for artifact_append_statement.
type AppendStatementRequest struct {
	Statement string `json:"statement"`
	Path      string `json:"path,omitempty"`
	VisitURL  string `json:"visit_url,omitempty"`
}

// RecordRequest represents the arguments for capture_record.
type RecordRequest struct {
	Locator        string  `json:"locator"`
	Strategy       string  `json:"strategy,omitempty"`
	Action         string  `json:"action"`
	Wait           string  `json:"wait,omitempty"`
	Force          bool    `json:"force,omitempty"`
	Multiple       bool    `json:"multiple,omitempty"`
	Value          *string `json:"value,omitempty"`
	Accessor       string  `json:"accessor,omitempty"`
	AccessorPrefix string  `json:"accessor_prefix,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
	PageObjectPath string  `json:"page_object_path,omitempty"`
	SpecPath       string  `json:"spec_path,omitempty"`
	VisitURL       string  `json:"visit_url,omitempty"`
}

// SessionStartRequest represents the arguments for session_start.
type SessionStartRequest struct {
	TargetURL  string `json:"target_url,omitempty"`
	ProjectDir string `json:"project_dir,omitempty"`
}

// SessionRequest identifies a session for session_end and capture_history.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// SessionListRequest represents the arguments for session_list.
type SessionListRequest struct {
	ProjectDir *string `json:"project_dir,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}

// ReportRequest represents the arguments for session_report.
type ReportRequest struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format,omitempty"`
}

// Handler implementations

// HandleCandidates handles the locator_candidates tool call.
func (h *Handlers) HandleCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CandidatesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Candidates(h.cfg, ops.CandidatesInput{
		ID:         input.ID,
		Text:       input.Text,
		Tag:        input.Tag,
		ClassName:  input.Class,
		InputType:  input.Type,
		TextMaxLen: input.TextMaxLen,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSynthesize handles the action_synthesize tool call.
func (h *Handlers) HandleSynthesize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SynthesizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Synthesize(h.cfg, ops.SynthesizeInput{
		Accessor: input.Accessor,
		Locator:  input.Locator,
		Action:   input.Action,
		Wait:     input.Wait,
		Force:    input.Force,
		Multiple: input.Multiple,
		Value:    input.Value,
		PageVar:  input.PageVar,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAppendAccessor handles the artifact_append_accessor tool call.
func (h *Handlers) HandleAppendAccessor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AppendAccessorRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.AppendAccessor(ctx, h.store, h.cfg, ops.AppendAccessorInput{
		Path:    input.Path,
		Name:    input.Name,
		Prefix:  input.Prefix,
		Locator: input.Locator,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAppendStatement handles the artifact_append_statement tool call.
func (h *Handlers) HandleAppendStatement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AppendStatementRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.AppendStatement(ctx, h.store, h.cfg, ops.AppendStatementInput{
		Path:      input.Path,
		Statement: input.Statement,
		VisitURL:  input.VisitURL,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRecord handles the capture_record tool call.
func (h *Handlers) HandleRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	spec, err := ops.ParseActionSpec(input.Action, input.Wait, input.Force, input.Multiple, input.Value)
	if err != nil {
		return errorResult(err), nil
	}
	result, err := ops.Record(ctx, h.db, h.store, h.cfg, ops.RecordInput{
		SessionID:      input.SessionID,
		Accessor:       input.Accessor,
		AccessorPrefix: input.AccessorPrefix,
		Locator: element.LocatorCandidate{
			Expression: input.Locator,
			Kind:       element.StrategyKind(input.Strategy),
		},
		Spec:           spec,
		PageObjectPath: input.PageObjectPath,
		SpecPath:       input.SpecPath,
		VisitURL:       input.VisitURL,
	})
	if err != nil {
		return errorResult(err), nil
	}
	h.log.WithFields(logrus.Fields{"tool": "capture_record", "accessor": result.Accessor}).Debug("capture recorded")
	return successResult(result)
}

// HandleSessionStart handles the session_start tool call.
func (h *Handlers) HandleSessionStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionStartRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.StartSession(ctx, h.db, h.cfg, ops.StartSessionInput{
		TargetURL:  input.TargetURL,
		ProjectDir: input.ProjectDir,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSessionEnd handles the session_end tool call.
func (h *Handlers) HandleSessionEnd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := ops.EndSession(ctx, h.db, input.SessionID); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"session_id": input.SessionID, "ended": true})
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Sessions(ctx, h.db, ops.SessionsInput{
		ProjectDir: input.ProjectDir,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistory handles the capture_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.History(ctx, h.db, ops.HistoryInput{SessionID: input.SessionID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleReport handles the session_report tool call.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	result, err := ops.Report(ctx, h.db, ops.ReportInput{
		SessionID: input.SessionID,
		Format:    input.Format,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error. Details of
// internal errors are withheld.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if gErr, ok := err.(*errors.GhostError); ok {
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": gErr.Message,
			"status":  gErr.Status,
		}
		if gErr.Code != errors.ErrInternal && gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		if gErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
