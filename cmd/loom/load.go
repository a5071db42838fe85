// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/config"
	"github.com/loomkit/loom/internal/issue"
	"github.com/loomkit/loom/internal/loader"
	"github.com/loomkit/loom/internal/loadorder"
	"github.com/loomkit/loom/internal/metrics"
	"github.com/loomkit/loom/internal/report"
	"github.com/loomkit/loom/internal/tracing"
	"github.com/loomkit/loom/pkg/universe"
)

// stdoutPath selects standard output for --metrics.
const stdoutPath = "-"

// loadFlags are the `loom load` overrides of the config file.
type loadFlags struct {
	format      string
	universe    string
	orderFile   string
	prefixes    []string
	exclude     []string
	failFast    bool
	raise       bool
	metricsPath string
	trace       bool
}

func newLoadCommand(app *App) *cobra.Command {
	var flags loadFlags
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the modules and print the report",
		Long: `Load every module into a fresh universe and print the load report.

Types that fail are collected in the report instead of stopping the load,
unless --fail-fast is given. With --raise, a report with failures makes loom
exit with status 1; --fail-fast aborts with status 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), app, cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "report format: text, markdown, json or yaml (default from config)")
	cmd.Flags().StringVar(&flags.universe, "universe", "", "name of the loaded universe")
	cmd.Flags().StringVar(&flags.orderFile, "order-file", "", "order file (.cue or .toml) with module priorities")
	cmd.Flags().StringSliceVar(&flags.prefixes, "prefix", nil, "load only modules whose name starts with a prefix")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "skip the named modules")
	cmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "abort on the first fatal failure")
	cmd.Flags().BoolVar(&flags.raise, "raise", false, "exit non-zero when the report has failures")
	cmd.Flags().StringVar(&flags.metricsPath, "metrics", "", "write Prometheus metrics to a file ('-' for stdout)")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "write phase and pass spans to stderr")
	return cmd
}

// apply overlays the flags that were set on cfg.
func (f loadFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.format != "" {
		cfg.Report.Format = report.Format(f.format)
	}
	if f.universe != "" {
		cfg.Loader.Universe = f.universe
	}
	if f.orderFile != "" {
		cfg.Modules.OrderFile = f.orderFile
	}
	if cmd.Flags().Changed("prefix") {
		cfg.Modules.Prefixes = f.prefixes
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Modules.Exclude = f.exclude
	}
	if cmd.Flags().Changed("fail-fast") {
		cfg.Loader.FailFast = f.failFast
	}
	if cmd.Flags().Changed("raise") {
		cfg.Loader.RaiseAggregate = f.raise
	}
}

func runLoad(ctx context.Context, app *App, cmd *cobra.Command, flags loadFlags) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.displayError(err)
	}
	flags.apply(cmd, cfg)
	if app.verbose {
		cfg.Report.Verbose = true
	}

	format, err := report.ParseFormat(string(cfg.Report.Format))
	if err != nil {
		return err
	}

	tp, err := tracing.NewProvider(tracing.Config{Enabled: flags.trace, Output: app.stderr, Pretty: true})
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.WithoutCancel(ctx)) }()

	collector := metrics.NewCollector("")
	l := loader.New(
		loader.WithSettings(cfg.Settings(app.WorkDir)),
		loader.WithLogger(app.newLogger(cfg.Log)),
		loader.WithTracer(tp.Tracer()),
		loader.WithRecorder(collector),
	)

	res, loadErr := l.Load(ctx, app.Modules())
	if res != nil && res.Report != nil {
		if err := report.Write(app.stdout, res.Report, format, cfg.ReportOptions()); err != nil {
			return err
		}
	}
	if flags.metricsPath != "" {
		if err := writeMetrics(app.stdout, flags.metricsPath, collector); err != nil {
			return err
		}
	}
	return app.classifyLoadError(loadErr)
}

// classifyLoadError maps loader errors to exit codes and actionable messages.
func (a *App) classifyLoadError(err error) error {
	if err == nil {
		return nil
	}

	var (
		fatal    *loader.FatalError
		agg      *report.AggregateError
		orderErr *loadorder.OrderFileError
		cfgErr   *universe.ConfigurationError
	)
	switch {
	case errors.As(err, &fatal):
		return &ExitError{Code: ExitAborted, Err: err}
	case errors.As(err, &agg):
		return &ExitError{Code: ExitFailures, Err: err}
	case errors.As(err, &orderErr):
		return a.displayError(issue.NewErrorContext().
			WithOperation("read order file").
			WithResource(orderErr.Path).
			WithIssue(issue.OrderFileInvalidId).
			WithSuggestion("Priorities must be non-negative integers keyed by module name").
			Wrap(orderErr.Cause).
			BuildError())
	case errors.As(err, &cfgErr), errors.Is(err, loadorder.ErrDuplicateModule):
		return a.displayError(issue.NewErrorContext().
			WithOperation("build the type catalog").
			WithIssue(issue.CatalogInvalidId).
			WithSuggestion("Run 'loom plan' to see which modules and declarations are loaded").
			Wrap(err).
			BuildError())
	default:
		return err
	}
}

// displayError prints the full form of an actionable error in verbose mode and
// returns err for the exit status.
func (a *App) displayError(err error) error {
	if a.verbose {
		fmt.Fprintln(a.stderr, formatErrorForDisplay(err, true))
	}
	return err
}

func writeMetrics(stdout io.Writer, path string, c *metrics.Collector) error {
	if path == stdoutPath {
		return c.Write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if err := c.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
