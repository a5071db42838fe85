// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/loomkit/loom/internal/config"
	"github.com/loomkit/loom/internal/issue"
	"github.com/loomkit/loom/internal/samplepack"
	"github.com/loomkit/loom/pkg/loommod"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ModuleSource returns a fresh set of modules for one load.
	ModuleSource func() []loommod.Module

	// App wires CLI services and shared dependencies.
	App struct {
		Config  ConfigProvider
		Modules ModuleSource
		// WorkDir is searched for an order file when none is configured.
		WorkDir string
		stdout  io.Writer
		stderr  io.Writer

		// Global flag values, bound by NewRootCommand.
		configPath string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Modules ModuleSource
		WorkDir string
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Modules == nil {
		deps.Modules = samplepack.Modules
	}
	if deps.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		deps.WorkDir = wd
	}

	return &App{
		Config:  deps.Config,
		Modules: deps.Modules,
		WorkDir: deps.WorkDir,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}, nil
}

// loadConfig loads configuration honoring the global --config flag.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
}

// newLogger builds the CLI logger from the log section. --verbose lowers the
// level to debug.
func (a *App) newLogger(cfg config.LogConfig) *log.Logger {
	level := cfg.Level.Level()
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix:    config.AppName,
		Level:     level,
		Formatter: cfg.Format.Formatter(),
	})
}

// formatErrorForDisplay formats an error for user display. Actionable errors
// use their own formatting; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
