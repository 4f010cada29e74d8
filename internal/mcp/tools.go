package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var actionNames = []string{"click", "type", "hover", "scroll", "assert-visible", "wait", "wait-click"}

var waitNames = []string{"none", "visible", "exists", "enabled"}

var candidatesToolDef = mcp.NewTool("locator_candidates",
	mcp.WithDescription("Rank Cypress locator candidates for a DOM element, most specific first: id, text, tag, first class."),
	mcp.WithString("id", mcp.Description("Element id attribute")),
	mcp.WithString("text", mcp.Description("Visible text")),
	mcp.WithString("tag", mcp.Description("Tag name")),
	mcp.WithString("class", mcp.Description("class attribute")),
	mcp.WithString("type", mcp.Description("Input type attribute")),
	mcp.WithNumber("text_max_len", mcp.Description("Text of this many characters or more gets no text locator")),
)

var synthesizeToolDef = mcp.NewTool("action_synthesize",
	mcp.WithDescription("Generate the Cypress statement for one action on a page-object accessor. Writes nothing."),
	mcp.WithString("accessor", mcp.Required(), mcp.Description("Accessor name")),
	mcp.WithString("locator", mcp.Description("Locator expression; when given the accessor declaration is returned too")),
	mcp.WithString("action", mcp.Required(), mcp.Enum(actionNames...)),
	mcp.WithString("wait", mcp.Enum(waitNames...), mcp.Description("Wait condition, default none")),
	mcp.WithBoolean("force", mcp.Description("Pass { force: true }")),
	mcp.WithBoolean("multiple", mcp.Description("Pass { multiple: true }")),
	mcp.WithString("value", mcp.Description("Text to type; required for the type action")),
	mcp.WithString("page_var", mcp.Description("Page object variable, default from config")),
)

var appendAccessorToolDef = mcp.NewTool("artifact_append_accessor",
	mcp.WithDescription("Add a getter to the page-object class. Re-adding an identical accessor is a no-op."),
	mcp.WithString("locator", mcp.Required(), mcp.Description("Locator expression, e.g. cy.get('#submit')")),
	mcp.WithString("name", mcp.Description("Accessor name; omitted picks the next <prefix><n>")),
	mcp.WithString("prefix", mcp.Description("Prefix for generated names")),
	mcp.WithString("path", mcp.Description("Page-object file, default from config")),
)

var appendStatementToolDef = mcp.NewTool("artifact_append_statement",
	mcp.WithDescription("Append one statement to the last test case of the spec file."),
	mcp.WithString("statement", mcp.Required(), mcp.Description("Single-line statement")),
	mcp.WithString("path", mcp.Description("Spec file, default from config")),
	mcp.WithString("visit_url", mcp.Description("URL visited by a newly created spec")),
)

var recordToolDef = mcp.NewTool("capture_record",
	mcp.WithDescription("Record one captured element: append its accessor and statement and, with a session_id, journal it."),
	mcp.WithString("locator", mcp.Required(), mcp.Description("Locator expression")),
	mcp.WithString("strategy", mcp.Enum("id", "text", "tag", "class"), mcp.Description("Strategy that produced the locator")),
	mcp.WithString("action", mcp.Required(), mcp.Enum(actionNames...)),
	mcp.WithString("wait", mcp.Enum(waitNames...)),
	mcp.WithBoolean("force"),
	mcp.WithBoolean("multiple"),
	mcp.WithString("value", mcp.Description("Text to type; required for the type action")),
	mcp.WithString("accessor", mcp.Description("Accessor name; omitted picks the next <prefix><n>")),
	mcp.WithString("accessor_prefix"),
	mcp.WithString("session_id", mcp.Description("Journal session from session_start")),
	mcp.WithString("page_object_path"),
	mcp.WithString("spec_path"),
	mcp.WithString("visit_url"),
)

var sessionStartToolDef = mcp.NewTool("session_start",
	mcp.WithDescription("Open a journal session for capture_record."),
	mcp.WithString("target_url"),
	mcp.WithString("project_dir"),
)

var sessionEndToolDef = mcp.NewTool("session_end",
	mcp.WithDescription("Mark a journal session as ended."),
	mcp.WithString("session_id", mcp.Required()),
)

var sessionListToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List journal sessions, newest first."),
	mcp.WithString("project_dir", mcp.Description("Only sessions for this project directory")),
	mcp.WithNumber("limit", mcp.Description("Page size, default 20, max 100")),
	mcp.WithNumber("offset"),
)

var historyToolDef = mcp.NewTool("capture_history",
	mcp.WithDescription("Return a session and its captures in order."),
	mcp.WithString("session_id", mcp.Required()),
)

var reportToolDef = mcp.NewTool("session_report",
	mcp.WithDescription("Render a session as Markdown or HTML."),
	mcp.WithString("session_id", mcp.Required()),
	mcp.WithString("format", mcp.Enum("markdown", "html")),
)
