// Package report renders a recorded session as Markdown or as a standalone
// HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hpungsan/ghost/internal/db"
)

// Format selects the report output.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat parses a format name. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want markdown or html)", s)
}

// Markdown renders the session summary and its captures as a table followed
// by the generated statements in order.
func Markdown(s *db.Session, captures []db.Capture) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session %s\n\n", s.ID)
	fmt.Fprintf(&b, "- Target: %s\n", s.TargetURL)
	fmt.Fprintf(&b, "- Project: `%s`\n", s.ProjectDir)
	fmt.Fprintf(&b, "- Started: %s\n", formatTime(s.StartedAt))
	if s.EndedAt != nil {
		fmt.Fprintf(&b, "- Ended: %s\n", formatTime(*s.EndedAt))
	}
	fmt.Fprintf(&b, "- Captures: %d\n\n", len(captures))

	if len(captures) == 0 {
		b.WriteString("No elements were captured.\n")
		return b.String()
	}

	b.WriteString("## Captures\n\n")
	b.WriteString("| # | Accessor | Locator | Strategy | Action | Wait | Modifiers |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, c := range captures {
		fmt.Fprintf(&b, "| %d | `%s` | `%s` | %s | %s | %s | %s |\n",
			c.Seq, c.Accessor, cell(c.Locator), c.Strategy, c.Action, c.Wait, modifiers(c))
	}

	b.WriteString("\n## Statements\n\n```js\n")
	for _, c := range captures {
		b.WriteString(c.Statement)
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	files := map[string]bool{}
	var paths []string
	for _, c := range captures {
		for _, p := range []string{c.PageObjectPath, c.SpecPath} {
			if !files[p] {
				files[p] = true
				paths = append(paths, p)
			}
		}
	}
	b.WriteString("\n## Files\n\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "- `%s`\n", p)
	}

	return b.String()
}

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Fragment renders the Markdown report through goldmark (GFM tables enabled)
// as an HTML fragment for embedding in another page.
func Fragment(s *db.Session, captures []db.Capture) (template.HTML, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(s, captures)), &body); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(body.String()), nil
}

// HTML wraps Fragment in a standalone page.
func HTML(s *db.Session, captures []db.Capture) (string, error) {
	body, err := Fragment(s, captures)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	err = page.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: "Session " + s.ID,
		Body:  body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return out.String(), nil
}

// Render dispatches on format.
func Render(format Format, s *db.Session, captures []db.Capture) (string, error) {
	switch format {
	case FormatHTML:
		return HTML(s, captures)
	case FormatMarkdown, "":
		return Markdown(s, captures), nil
	}
	return "", fmt.Errorf("unknown report format %q", format)
}

func modifiers(c db.Capture) string {
	var mods []string
	if c.Force {
		mods = append(mods, "force")
	}
	if c.Multiple {
		mods = append(mods, "multiple")
	}
	if len(mods) == 0 {
		return "-"
	}
	return strings.Join(mods, ", ")
}

// cell keeps a value from breaking the table row.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}
