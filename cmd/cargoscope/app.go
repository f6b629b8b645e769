// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cargoscope/cargoscope/internal/cache"
	"github.com/cargoscope/cargoscope/internal/config"
	"github.com/cargoscope/cargoscope/internal/issue"
)

type (
	// App wires CLI services and shared state. Every command handler receives
	// the App that built it.
	App struct {
		Config config.Provider
		// OpenCache opens the result cache; nil disables caching.
		OpenCache func(cfg *config.Config) (*cache.Store, error)

		stdout io.Writer
		stderr io.Writer

		opts globalOptions
		// cfg is loaded by the root command before any subcommand runs.
		cfg *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		OpenCache func(cfg *config.Config) (*cache.Store, error)
		Stdout    io.Writer
		Stderr    io.Writer
	}

	globalOptions struct {
		verbose    bool
		configPath string
		format     string
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		OpenCache: deps.OpenCache,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.OpenCache == nil {
		app.OpenCache = openDiskCache
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func openDiskCache(cfg *config.Config) (*cache.Store, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(cache.Options{Dir: dir})
}

// setup loads the configuration and installs the logger. A broken config file
// is reported and replaced by defaults, except when it was named explicitly.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := a.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: a.opts.configPath})
	if err != nil {
		if a.opts.configPath != "" {
			return a.fail(cmd, "load configuration", a.opts.configPath, err)
		}
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.opts.verbose))
		cfg = config.DefaultConfig()
	}
	a.cfg = cfg

	if !a.opts.verbose {
		a.opts.verbose = cfg.UI.Verbose
	}
	slog.SetDefault(slog.New(newLogHandler(a.stderr, a.opts.verbose)))
	return nil
}

// newLogHandler returns a charmbracelet/log handler: debug level when verbose,
// warnings only otherwise.
func newLogHandler(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// outputFormat returns the --format flag value, or the configured default.
func (a *App) outputFormat() (config.OutputFormat, error) {
	format := a.cfg.Output.Format
	if a.opts.format != "" {
		format = config.OutputFormat(a.opts.format)
	}
	if valid, errs := format.IsValid(); !valid {
		return "", errs[0]
	}
	return format, nil
}

// fail prints err the way users see every failure (an actionable message
// with suggestions and a pointer to the issue catalog) and returns an
// ExitError carrying the exit code.
func (a *App) fail(cmd *cobra.Command, operation, resource string, err error) error {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		ec := issue.NewErrorContext().
			WithOperation(operation).
			WithResource(resource).
			Wrap(err)
		if known := issue.ForError(err); known != nil {
			ec = ec.WithIssue(known.Id())
		}
		ae = ec.Build()
	}
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+ae.Format(a.opts.verbose))

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: exitCode(err)}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalidOutputFormat), errors.Is(err, errUsage):
		return ExitUsage
	case errors.Is(err, errSource):
		return ExitSource
	default:
		return ExitFailure
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
