// Package commands implements the kioskctl subcommands.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"kiosk/internal/app"
	"kiosk/internal/config"
	"kiosk/internal/logger"
)

type env struct {
	configPath string
	logLevel   string
	asJSON     bool
	out        io.Writer
}

// NewRootCommand builds the kioskctl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	e := &env{out: out}

	root := &cobra.Command{
		Use:           "kioskctl",
		Short:         "kioskctl inspects the slideshow spreadsheet and the kiosk's fetch history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetOut(out)
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "Path to a YAML or JSON5 config file")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "warn", "Log level")
	root.PersistentFlags().BoolVar(&e.asJSON, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newFetchCommand(e),
		newTestConnectionCommand(e),
		newTestImageCommand(e),
		newTestImagesCommand(e),
		newURLsCommand(e),
		newFormatCommand(e),
		newHistoryCommand(e),
		newConfigCommand(e),
	)

	return root
}

// ExecuteContext runs kioskctl with os.Args and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := NewRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func (e *env) config() (*config.Config, error) {
	if e.configPath != "" {
		return config.LoadConfig(e.configPath)
	}

	cfg := config.Default()
	cfg.ApplyEnv(os.LookupEnv)

	return cfg, cfg.Validate()
}

func (e *env) logger(cfg *config.Config) *logger.Logger {
	level := cfg.Logging.Level
	if e.logLevel != "" {
		level = e.logLevel
	}

	return logger.NewLoggerWithFormat(level, cfg.Logging.Format, os.Stderr)
}

// open builds the full application graph. Callers must Close it.
func (e *env) open(ctx context.Context, adjust func(*config.Config)) (*app.App, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}

	if adjust != nil {
		adjust(cfg)
	}

	return app.New(ctx, cfg, e.logger(cfg))
}

func (e *env) table() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(e.out)

	return t
}

func (e *env) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func check(ok bool) string {
	if ok {
		return "✅"
	}

	return "❌"
}

func closeApp(ctx context.Context, a *app.App) {
	if err := a.Close(ctx); err != nil {
		a.Log.Warn("close failed", "error", err)
	}
}
