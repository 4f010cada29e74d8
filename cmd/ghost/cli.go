package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/ghost/internal/browser"
	"github.com/hpungsan/ghost/internal/errors"
	"github.com/hpungsan/ghost/internal/logging"
	"github.com/hpungsan/ghost/internal/ops"
	"github.com/hpungsan/ghost/internal/output"
	"github.com/hpungsan/ghost/internal/prompt"
	"github.com/hpungsan/ghost/internal/session"
	"github.com/hpungsan/ghost/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "ghost",
		Usage:   "Record Cypress page objects and tests by clicking",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|yaml"},
		},
		Commands: []*cli.Command{
			recordCmd(d),
			candidatesCmd(d),
			synthesizeCmd(d),
			accessorCmd(d),
			statementCmd(d),
			sessionsCmd(d),
			historyCmd(d),
			reportCmd(d),
			serveCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// recordCmd opens the browser and records clicks until interrupted.
func recordCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Open the target page and turn clicks into page-object accessors and test statements",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Page to record (default: target_url)"},
			&cli.BoolFlag{Name: "headless", Usage: "Run the browser without a window"},
			&cli.BoolFlag{Name: "no-journal", Usage: "Do not journal captures"},
		},
		Action: func(c *cli.Context) error {
			cfg := d.cfg
			if u := c.String("url"); u != "" {
				cfg.TargetURL = u
			}
			if strings.TrimSpace(cfg.TargetURL) == "" {
				return outputError(errors.NewInvalidRequest("a target url is required"))
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()

			launchTimeout := time.Duration(cfg.LaunchTimeoutSec) * time.Second
			ctrl, err := browser.Launch(ctx, cfg.TargetURL, browser.Options{
				Headless:      cfg.Headless || c.Bool("headless"),
				LaunchTimeout: launchTimeout,
				Log:           d.log,
			})
			if err != nil {
				return outputError(errors.NewCaptureUnavailable(err))
			}
			defer func() {
				if err := ctrl.Close(); err != nil {
					d.log.WithError(err).Warn("browser did not close cleanly")
				}
			}()

			readyCtx, cancel := context.WithTimeout(ctx, launchTimeout)
			err = ctrl.WaitReady(readyCtx, time.Duration(cfg.ReadyCheckIntervalMS)*time.Millisecond)
			cancel()
			if err != nil {
				return outputError(err)
			}

			var sessionID string
			if !c.Bool("no-journal") && d.db != nil {
				s, err := ops.StartSession(ctx, d.db, cfg, ops.StartSessionInput{TargetURL: cfg.TargetURL})
				if err != nil {
					return outputError(err)
				}
				sessionID = s.ID
				defer func() {
					if err := ops.EndSession(context.WithoutCancel(ctx), d.db, sessionID); err != nil {
						d.log.WithError(err).Warn("failed to end session")
					}
				}()
			}

			printer := newOutcomePrinter(d.out, d.log)
			sess, err := session.New(session.Options{
				Config:    cfg,
				Store:     d.store,
				DB:        d.db,
				Capturer:  ctrl,
				Chooser:   prompt.NewTerminal(d.in, d.out),
				Log:       d.log,
				Observer:  printer.observe,
				SessionID: sessionID,
			})
			if err != nil {
				return outputError(err)
			}

			fmt.Fprintf(d.out, "Recording %s. Click elements in the browser; press Ctrl+C to finish.\n", cfg.TargetURL)
			err = sess.Run(ctx)
			printer.flush()
			if err != nil {
				return outputError(err)
			}
			if sessionID != "" {
				fmt.Fprintf(d.out, "Session %s saved. Run 'ghost report %s' for a summary.\n", sessionID, sessionID)
			}
			return nil
		},
	}
}

// outcomePrinter reports capture outcomes on the terminal. Dropped clicks
// arrive from the polling goroutine while a prompt may be on screen, so they
// are held and printed after the outcome of the capture in progress.
type outcomePrinter struct {
	out io.Writer
	log *logging.Logger

	mu      sync.Mutex
	dropped []string
}

func newOutcomePrinter(out io.Writer, log *logging.Logger) *outcomePrinter {
	return &outcomePrinter{out: out, log: log}
}

func (p *outcomePrinter) observe(o session.Outcome) {
	if o.Kind == session.Dropped {
		p.mu.Lock()
		p.dropped = append(p.dropped, o.Element.Describe())
		p.mu.Unlock()
		p.log.WithField("element", o.Element.Describe()).Debug("click dropped")
		return
	}
	switch o.Kind {
	case session.Persisted:
		fmt.Fprintf(p.out, "  + %s\n", o.Result.Statement)
	case session.Cancelled:
		fmt.Fprintln(p.out, "  cancelled, nothing written")
	case session.Failed:
		fmt.Fprintf(p.out, "  failed: %v\n", o.Err)
	}
	p.flush()
}

// flush prints the clicks dropped since the last outcome.
func (p *outcomePrinter) flush() {
	p.mu.Lock()
	dropped := p.dropped
	p.dropped = nil
	p.mu.Unlock()
	for _, desc := range dropped {
		fmt.Fprintf(p.out, "  dropped click on %s (still choosing the previous one)\n", desc)
	}
}

// candidatesCmd creates the candidates command.
func candidatesCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "candidates",
		Usage: "List locator candidates for an element",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "id attribute"},
			&cli.StringFlag{Name: "text", Usage: "Visible text"},
			&cli.StringFlag{Name: "tag", Usage: "Tag name"},
			&cli.StringFlag{Name: "class", Usage: "class attribute"},
			&cli.StringFlag{Name: "type", Usage: "Input type"},
			&cli.IntFlag{Name: "text-max-len", Usage: "Text cap (default: text_max_len)"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.Candidates(d.cfg, ops.CandidatesInput{
				ID:         c.String("id"),
				Text:       c.String("text"),
				Tag:        c.String("tag"),
				ClassName:  c.String("class"),
				InputType:  c.String("type"),
				TextMaxLen: c.Int("text-max-len"),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, d, result)
		},
	}
}

func actionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Required: true, Usage: "click|type|hover|scroll|assert-visible|wait|wait-click"},
		&cli.StringFlag{Name: "wait", Aliases: []string{"w"}, Usage: "none|visible|exists|enabled"},
		&cli.BoolFlag{Name: "force", Usage: "Pass { force: true }"},
		&cli.BoolFlag{Name: "multiple", Usage: "Pass { multiple: true }"},
		&cli.StringFlag{Name: "value", Usage: "Text to type"},
	}
}

// optionalValue returns the --value flag, nil when not given.
func optionalValue(c *cli.Context) *string {
	if !c.IsSet("value") {
		return nil
	}
	v := c.String("value")
	return &v
}

// synthesizeCmd creates the synthesize command.
func synthesizeCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "synthesize",
		Usage:     "Print the statement for an action without writing anything",
		ArgsUsage: "<accessor>",
		Flags: append(actionFlags(),
			&cli.StringFlag{Name: "locator", Aliases: []string{"l"}, Usage: "Also print the accessor declaration"},
			&cli.StringFlag{Name: "page-var", Usage: "Page object variable (default: page_var)"},
		),
		Action: func(c *cli.Context) error {
			result, err := ops.Synthesize(d.cfg, ops.SynthesizeInput{
				Accessor: c.Args().First(),
				Locator:  c.String("locator"),
				Action:   c.String("action"),
				Wait:     c.String("wait"),
				Force:    c.Bool("force"),
				Multiple: c.Bool("multiple"),
				Value:    optionalValue(c),
				PageVar:  c.String("page-var"),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, d, result)
		},
	}
}

// accessorCmd creates the accessor command.
func accessorCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "accessor",
		Usage:     "Add an accessor to the page-object file",
		ArgsUsage: "<locator>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Accessor name (default: next <prefix><n>)"},
			&cli.StringFlag{Name: "prefix", Usage: "Name prefix (default: accessor_prefix)"},
			&cli.StringFlag{Name: "path", Usage: "Page-object file (default: page_object_path)"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.AppendAccessor(c.Context, d.store, d.cfg, ops.AppendAccessorInput{
				Path:    c.String("path"),
				Name:    c.String("name"),
				Prefix:  c.String("prefix"),
				Locator: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, d, result)
		},
	}
}

// statementCmd creates the statement command.
func statementCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "statement",
		Usage:     "Append a statement to the last test case of the spec file",
		ArgsUsage: "<statement>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Spec file (default: spec_path)"},
			&cli.StringFlag{Name: "visit-url", Usage: "URL a new spec visits (default: target_url)"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.AppendStatement(c.Context, d.store, d.cfg, ops.AppendStatementInput{
				Path:      c.String("path"),
				Statement: c.Args().First(),
				VisitURL:  c.String("visit-url"),
			})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, d, result)
		},
	}
}

// sessionsCmd creates the sessions command.
func sessionsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List recording sessions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project-dir", Usage: "Filter by project directory"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Max results"},
			&cli.IntFlag{Name: "offset", Usage: "Skip results"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SessionsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}
			if p := c.String("project-dir"); p != "" {
				input.ProjectDir = &p
			}
			result, err := ops.Sessions(c.Context, d.db, input)
			if err != nil {
				return outputError(err)
			}
			return printResult(c, d, result)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Show a session and its captures",
		ArgsUsage: "<session-id>",
		Action: func(c *cli.Context) error {
			result, err := ops.History(c.Context, d.db, ops.HistoryInput{SessionID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return printResult(c, d, result)
		},
	}
}

// reportCmd writes the rendered report itself rather than a JSON envelope.
func reportCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Render a session as Markdown or HTML",
		ArgsUsage: "<session-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "as", Value: "markdown", Usage: "Report format: markdown|html"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write to this file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			result, err := ops.Report(c.Context, d.db, ops.ReportInput{
				SessionID: c.Args().First(),
				Format:    c.String("as"),
			})
			if err != nil {
				return outputError(err)
			}
			if path := c.String("out"); path != "" {
				if err := os.WriteFile(path, []byte(result.Content), 0644); err != nil {
					return outputError(errors.NewIOFailure(path, err))
				}
				fmt.Fprintf(d.out, "wrote %s\n", path)
				return nil
			}
			_, err = fmt.Fprint(d.out, result.Content)
			return err
		},
	}
}

// serveCmd starts the read-only journal browser.
func serveCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Browse recorded sessions and their reports in a web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7340, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(d.db, d.cfg, d.log, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(err)
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := web.Run(ctx, srv, d.log); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// printResult writes v in the format chosen by --format.
func printResult(c *cli.Context, d *deps, v any) error {
	f, err := output.ParseFormat(c.String("format"))
	if err != nil {
		return outputError(errors.NewInvalidRequest(err.Error()))
	}
	return output.Print(d.out, f, v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if gErr, ok := err.(*errors.GhostError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
