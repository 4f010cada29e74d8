package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/ghost/internal/codegen"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/db"
	"github.com/hpungsan/ghost/internal/element"
	"github.com/hpungsan/ghost/internal/logging"
	"github.com/hpungsan/ghost/internal/ops"
	"github.com/hpungsan/ghost/internal/session"
)

// setupTestDeps creates a temporary journal and project for testing.
func setupTestDeps(t *testing.T) (*deps, *bytes.Buffer) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(filepath.Join(tmpDir, "state"))
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.ProjectDir = filepath.Join(tmpDir, "project")
	log := logging.Discard()
	store, err := ops.NewStore(cfg, log)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	var out bytes.Buffer
	return &deps{db: database, cfg: cfg, store: store, log: log, in: strings.NewReader(""), out: &out}, &out
}

func run(t *testing.T, d *deps, args ...string) error {
	t.Helper()
	return newCLIApp(d).Run(append([]string{"ghost"}, args...))
}

func TestCLICandidates(t *testing.T) {
	d, out := setupTestDeps(t)

	if err := run(t, d, "candidates", "--id", "submit", "--text", "Submit", "--tag", "button"); err != nil {
		t.Fatalf("candidates command failed: %v", err)
	}

	var output ops.CandidatesOutput
	if err := json.Unmarshal(out.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out.String())
	}
	if len(output.Candidates) != 3 {
		t.Errorf("expected 3 candidates, got %d", len(output.Candidates))
	}
	if output.Default.Kind != element.IDBased {
		t.Errorf("expected id default, got %s", output.Default.Kind)
	}
}

func TestCLISynthesize_YAML(t *testing.T) {
	d, out := setupTestDeps(t)

	err := run(t, d, "--format", "yaml", "synthesize", "--action", "type", "--value", "hi", "--locator", "cy.get('#email')", "email")
	if err != nil {
		t.Fatalf("synthesize command failed: %v", err)
	}

	var output map[string]string
	if err := yaml.Unmarshal(out.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse yaml: %v\nOutput: %s", err, out.String())
	}
	if output["statement"] != "page.email.clear().type('hi');" {
		t.Errorf("statement = %q", output["statement"])
	}
	if output["declaration"] != "get email() { return cy.get('#email'); }" {
		t.Errorf("declaration = %q", output["declaration"])
	}
	if !strings.HasPrefix(out.String(), "accessor: email\n") {
		t.Errorf("yaml should keep field order:\n%s", out.String())
	}
}

func TestCLIAccessorAndStatement(t *testing.T) {
	d, out := setupTestDeps(t)

	if err := run(t, d, "accessor", "cy.get('#a')"); err != nil {
		t.Fatalf("accessor command failed: %v", err)
	}
	if err := run(t, d, "accessor", "--name", "title", "cy.contains('Welcome')"); err != nil {
		t.Fatalf("accessor command failed: %v", err)
	}
	if err := run(t, d, "statement", "--visit-url", "https://shop.test", "page.element_1.click();"); err != nil {
		t.Fatalf("statement command failed: %v", err)
	}
	if !strings.Contains(out.String(), `"inserted": true`) {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	pomFile, _ := d.cfg.PageObjectFile()
	pom, err := os.ReadFile(pomFile)
	if err != nil {
		t.Fatalf("read page object: %v", err)
	}
	want := "export class PageObjects {\n" +
		"  get element_1() { return cy.get('#a'); }\n" +
		"  get title() { return cy.contains('Welcome'); }\n" +
		"}\n"
	if string(pom) != want {
		t.Errorf("page object =\n%s\nwant\n%s", pom, want)
	}

	specFile, _ := d.cfg.SpecFile()
	spec, err := os.ReadFile(specFile)
	if err != nil {
		t.Fatalf("read spec: %v", err)
	}
	if !strings.Contains(string(spec), "import { PageObjects } from '../pages/PageObjects';") {
		t.Errorf("spec import wrong:\n%s", spec)
	}
	if !strings.Contains(string(spec), "    page.element_1.click();\n  });\n});\n") {
		t.Errorf("statement not in test case:\n%s", spec)
	}
}

func TestCLISessionsHistoryReport(t *testing.T) {
	d, out := setupTestDeps(t)
	ctx := context.Background()

	s, err := ops.StartSession(ctx, d.db, d.cfg, ops.StartSessionInput{TargetURL: "https://shop.test"})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	_, err = ops.Record(ctx, d.db, d.store, d.cfg, ops.RecordInput{
		SessionID: s.ID,
		Locator:   element.LocatorCandidate{Expression: "cy.get('#go')", Kind: element.IDBased},
		Spec:      codegen.ActionSpec{Kind: codegen.WaitThenClick},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := run(t, d, "sessions"); err != nil {
		t.Fatalf("sessions command failed: %v", err)
	}
	var list ops.SessionsOutput
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out.String())
	}
	if len(list.Items) != 1 || list.Items[0].CaptureCount != 1 {
		t.Errorf("unexpected sessions: %+v", list.Items)
	}

	out.Reset()
	if err := run(t, d, "history", s.ID); err != nil {
		t.Fatalf("history command failed: %v", err)
	}
	var history ops.HistoryOutput
	if err := json.Unmarshal(out.Bytes(), &history); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out.String())
	}
	if len(history.Captures) != 1 || history.Captures[0].Action != "wait-click" {
		t.Errorf("unexpected captures: %+v", history.Captures)
	}

	out.Reset()
	if err := run(t, d, "report", s.ID); err != nil {
		t.Fatalf("report command failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "# Session "+s.ID) {
		t.Errorf("unexpected report:\n%s", out.String())
	}

	reportFile := filepath.Join(t.TempDir(), "report.html")
	if err := run(t, d, "report", "--as", "html", "--out", reportFile, s.ID); err != nil {
		t.Fatalf("report command failed: %v", err)
	}
	html, err := os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(html), "<!DOCTYPE html>") {
		t.Errorf("expected an html page, got:\n%s", html)
	}
}

func TestCLIErrorHandling(t *testing.T) {
	d, _ := setupTestDeps(t)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"type without value", []string{"synthesize", "--action", "type", "email"}, "[INVALID_SPEC]"},
		{"unknown action", []string{"synthesize", "--action", "drag", "email"}, "[INVALID_SPEC]"},
		{"missing locator", []string{"accessor"}, "[INVALID_REQUEST]"},
		{"multi-line statement", []string{"statement", "a();\nb();"}, "[INVALID_SPEC]"},
		{"unknown session", []string{"history", "nope"}, "[NOT_FOUND]"},
		{"unknown report format", []string{"report", "--as", "pdf", "x"}, "[INVALID_REQUEST]"},
		{"unknown output format", []string{"--format", "xml", "candidates", "--tag", "a"}, "[INVALID_REQUEST]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, d, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.code) {
				t.Errorf("error = %q, want code %s", err.Error(), tt.code)
			}
		})
	}
}

func TestOutcomePrinter_HoldsDroppedUntilOutcome(t *testing.T) {
	var out bytes.Buffer
	p := newOutcomePrinter(&out, logging.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.observe(session.Outcome{Kind: session.Dropped, Element: element.RawElement{Tag: "a", Text: "late"}})
		}()
	}
	wg.Wait()
	if out.Len() != 0 {
		t.Fatalf("dropped clicks printed mid-prompt: %q", out.String())
	}

	p.observe(session.Outcome{Kind: session.Persisted, Result: &ops.RecordOutput{Statement: "page.element_1.click();"}})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d: %q", len(lines), out.String())
	}
	if lines[0] != "  + page.element_1.click();" {
		t.Errorf("outcome should print first, got %q", lines[0])
	}
	for _, l := range lines[1:] {
		if !strings.Contains(l, "dropped click on Tag: a") {
			t.Errorf("unexpected line %q", l)
		}
	}

	out.Reset()
	p.flush()
	if out.Len() != 0 {
		t.Errorf("flush after outcome should print nothing, got %q", out.String())
	}
}

func TestOutcomePrinter_FlushAfterRun(t *testing.T) {
	var out bytes.Buffer
	p := newOutcomePrinter(&out, logging.Discard())
	p.observe(session.Outcome{Kind: session.Dropped, Element: element.RawElement{Tag: "button"}})
	p.flush()
	if !strings.Contains(out.String(), "dropped click on Tag: button") {
		t.Errorf("expected held drop to print on flush, got %q", out.String())
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"ghost"}, false},
		{"record command", []string{"ghost", "record"}, true},
		{"report command", []string{"ghost", "report", "x"}, true},
		{"serve command", []string{"ghost", "serve"}, true},
		{"global format flag", []string{"ghost", "--format", "yaml", "sessions"}, true},
		{"inline format flag", []string{"ghost", "--format=yaml", "sessions"}, true},
		{"help flag", []string{"ghost", "--help"}, true},
		{"short version flag", []string{"ghost", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"ghost", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCLIMode(tt.args); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	for _, args := range [][]string{{"ghost", "help"}, {"ghost", "-h"}, {"ghost", "--version"}} {
		if !isHelpOrVersion(args) {
			t.Errorf("isHelpOrVersion(%v) = false", args)
		}
	}
	for _, args := range [][]string{{"ghost"}, {"ghost", "record"}} {
		if isHelpOrVersion(args) {
			t.Errorf("isHelpOrVersion(%v) = true", args)
		}
	}
}
