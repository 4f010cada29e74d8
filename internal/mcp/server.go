// Package mcp exposes ghost's operations as MCP tools over stdio.
package mcp

import (
	"database/sql"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/hpungsan/ghost/internal/artifact"
	"github.com/hpungsan/ghost/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"locator_candidates": {
		def:     candidatesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCandidates },
	},
	"action_synthesize": {
		def:     synthesizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSynthesize },
	},
	"artifact_append_accessor": {
		def:     appendAccessorToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAppendAccessor },
	},
	"artifact_append_statement": {
		def:     appendStatementToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAppendStatement },
	},
	"capture_record": {
		def:     recordToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecord },
	},
	"session_start": {
		def:     sessionStartToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionStart },
	},
	"session_end": {
		def:     sessionEndToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionEnd },
	},
	"session_list": {
		def:     sessionListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionList },
	},
	"capture_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
	"session_report": {
		def:     reportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReport },
	},
}

// AllToolNames returns every tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server with ghost's tools registered, except the
// ones listed in cfg.DisabledTools.
func NewServer(database *sql.DB, store *artifact.Store, cfg *config.Config, log logrus.FieldLogger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"ghost",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(database, store, cfg, log)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP tools on stdin/stdout.
func Run(database *sql.DB, store *artifact.Store, cfg *config.Config, log logrus.FieldLogger, version string) error {
	return server.ServeStdio(NewServer(database, store, cfg, log, version))
}
