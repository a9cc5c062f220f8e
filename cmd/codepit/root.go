package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/internal/config"
	"github.com/spf13/cobra"
)

// errRunFailed marks a command whose failure was already reported.
var errRunFailed = errors.New("run failed")

// cli carries the loaded configuration to every subcommand.
type cli struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "codepit [file]",
		Short: "Code snippet manager with sandboxed JavaScript and Python execution",
		Long: `codepit - store, search and run code snippets.

JavaScript and TypeScript run on an embedded engine; Python runs on CPython
compiled to WebAssembly, downloaded on first use. Snippets are kept in a
key/value store (memory, Redis or PostgreSQL) and can be exported as JSON
bundles, optionally to S3.

Without a subcommand, codepit runs code like 'codepit run'.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
		RunE:              c.runRun, // default to run command behavior
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default: codepit.yaml or $CODEPIT_CONFIG)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("store", "", "Store DSN: memory://, redis://host:6379/0, postgres://user@host/db")
	pf.Bool("no-python", false, "Disable the Python executor")
	pf.String("python-cache", "", "Directory for the downloaded Python runtime")

	addRunFlags(root)

	root.AddCommand(
		newRunCmd(c),
		newReplCmd(c),
		newServeCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newListCmd(c),
		newStatsCmd(c),
		newLanguagesCmd(c),
	)
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// load reads configuration and applies flags that override it.
func (c *cli) load(cmd *cobra.Command, args []string) error {
	src := config.DefaultSources()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		src.File = path
	}

	cfg, err := config.Load(src)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("store") {
		cfg.Store.DSN, _ = flags.GetString("store")
	}
	if noPython, _ := flags.GetBool("no-python"); noPython {
		cfg.Python.Enabled = false
	}
	if flags.Changed("python-cache") {
		cfg.Python.CacheDir, _ = flags.GetString("python-cache")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	return nil
}

// detectLanguage resolves the language from --lang or, failing that, the
// file extension.
func detectLanguage(langFlag, filename string) (executor.Language, error) {
	if langFlag != "" {
		return executor.Parse(langFlag), nil
	}
	if filename != "" {
		if lang := executor.FromExtension(filepath.Ext(filename)); lang != "" {
			return lang, nil
		}
	}
	return "", errors.New("language required: use --lang python or --lang js")
}
