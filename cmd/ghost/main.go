package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/ghost/internal/artifact"
	"github.com/hpungsan/ghost/internal/config"
	"github.com/hpungsan/ghost/internal/db"
	"github.com/hpungsan/ghost/internal/logging"
	"github.com/hpungsan/ghost/internal/mcp"
	"github.com/hpungsan/ghost/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"record": true, "candidates": true, "synthesize": true,
	"accessor": true, "statement": true,
	"sessions": true, "history": true, "report": true, "serve": true,
	"help": true,
}

// deps holds everything the commands and the MCP server share.
type deps struct {
	db    *sql.DB
	cfg   *config.Config
	store *artifact.Store
	log   *logging.Logger
	in    io.Reader
	out   io.Writer
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	// Global flags come before the command.
	if arg == "--format" || arg == "-f" || strings.HasPrefix(arg, "--format=") {
		return true
	}
	return isHelpOrVersion(args)
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
    ____ _               _
   / ___| |__   ___  ___| |_
  | |  _| '_ \ / _ \/ __| __|
  | |_| | | | | (_) \__ \ |_
   \____|_| |_|\___/|___/\__|

  Record Cypress page objects and tests by clicking

  Usage: ghost <command> [options]
         ghost --help

  MCP server mode requires piped input.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// setup loads configuration and opens the journal, logger and store.
func setup() (*deps, func()) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".ghost")

	wd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, wd)
	if err != nil {
		fail("failed to load config: %v", err)
	}
	if err := config.ApplyEnv(cfg, filepath.Join(wd, ".env")); err != nil {
		fail("failed to apply environment: %v", err)
	}

	logOpts := logging.Options{Level: cfg.LogLevel, Out: os.Stderr}
	if cfg.LogToFile {
		logOpts.Dir = filepath.Join(baseDir, "logs")
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		fail("%v", err)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		logger.Close()
		fail("failed to initialize database: %v", err)
	}
	db.ConfigurePool(database, cfg)

	store, err := ops.NewStore(cfg, logger)
	if err != nil {
		database.Close()
		logger.Close()
		fail("failed to open project: %v", err)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.WithField("tools", unknown).Warn("unknown tools in disabled_tools")
	}

	d := &deps{db: database, cfg: cfg, store: store, log: logger, in: os.Stdin, out: os.Stdout}
	return d, func() {
		database.Close()
		logger.Close()
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no journal or config.
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(&deps{cfg: config.DefaultConfig(), log: logging.Discard(), in: os.Stdin, out: os.Stdout})
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	if !isCLIMode(os.Args) && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'ghost --help' for usage.\n")
		os.Exit(1)
	}

	d, cleanup := setup()

	if isCLIMode(os.Args) {
		err := newCLIApp(d).Run(os.Args)
		cleanup()
		if err != nil {
			fail("%v", err)
		}
		return
	}

	// MCP server mode (default)
	err := mcp.Run(d.db, d.store, d.cfg, d.log, Version)
	cleanup()
	if err != nil {
		fail("%v", err)
	}
}
