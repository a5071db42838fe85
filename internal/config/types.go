// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/loomkit/loom/internal/loader"
	"github.com/loomkit/loom/internal/loadorder"
	"github.com/loomkit/loom/internal/report"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatLogfmt LogFormat = "logfmt"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light color scheme.
	ColorSchemeLight ColorScheme = "light"
	// ColorSchemeNoTTY disables styling.
	ColorSchemeNoTTY ColorScheme = "notty"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidReportFormat is returned when a report format is not recognized.
	ErrInvalidReportFormat = errors.New("invalid report format")
	// ErrInvalidPriorityEntry is the sentinel error wrapped by InvalidPriorityEntryError.
	ErrInvalidPriorityEntry = errors.New("invalid priority entry")
	// ErrInvalidLoaderConfig is the sentinel error wrapped by InvalidLoaderConfigError.
	ErrInvalidLoaderConfig = errors.New("invalid loader config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level the CLI logs at.
	LogLevel string

	// LogFormat selects the charmbracelet/log formatter.
	LogFormat string

	// ColorScheme specifies the terminal color scheme preference. It also picks
	// the glamour style of markdown reports.
	ColorScheme string

	// InvalidValueError is returned when an enumerated config value is not
	// recognized. It wraps the sentinel of its type.
	InvalidValueError struct {
		Field    string
		Value    string
		Valid    []string
		Sentinel error
	}

	// InvalidPriorityEntryError is returned when a PriorityEntry has invalid fields.
	InvalidPriorityEntryError struct {
		Entry  PriorityEntry
		Reason string
	}

	// InvalidLoaderConfigError collects LoaderConfig field errors.
	InvalidLoaderConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects field-level validation errors from
	// all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Loader  LoaderConfig  `json:"loader" mapstructure:"loader"`
		Modules ModulesConfig `json:"modules" mapstructure:"modules"`
		Log     LogConfig     `json:"log" mapstructure:"log"`
		Report  ReportConfig  `json:"report" mapstructure:"report"`
	}

	// LoaderConfig configures the scheduler.
	LoaderConfig struct {
		// Universe names the loaded universe.
		Universe               string `json:"universe" mapstructure:"universe"`
		InitializationAttempts int    `json:"initialization_attempts" mapstructure:"initialization_attempts"`
		FinalizationAttempts   int    `json:"finalization_attempts" mapstructure:"finalization_attempts"`
		// FailFast aborts the load on the first fatal failure.
		FailFast bool `json:"fail_fast" mapstructure:"fail_fast"`
		// RaiseAggregate turns a report with failures into a command error.
		RaiseAggregate bool `json:"raise_aggregate" mapstructure:"raise_aggregate"`
	}

	// ModulesConfig selects and orders modules.
	ModulesConfig struct {
		// Prefixes keeps only modules whose name starts with one of them.
		Prefixes []string `json:"prefixes" mapstructure:"prefixes"`
		Exclude  []string `json:"exclude" mapstructure:"exclude"`
		// Priorities override the order file.
		Priorities []PriorityEntry `json:"priorities" mapstructure:"priorities"`
		// OrderFile is an explicit order file. When empty the working directory
		// is searched for loadorder.cue or loadorder.toml.
		OrderFile string `json:"order_file" mapstructure:"order_file"`
	}

	// PriorityEntry assigns a load priority to a module.
	PriorityEntry struct {
		Module   string `json:"module" mapstructure:"module"`
		Priority int    `json:"priority" mapstructure:"priority"`
	}

	// LogConfig configures CLI logging.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
	}

	// ReportConfig configures how load reports are rendered.
	ReportConfig struct {
		Format      report.Format `json:"format" mapstructure:"format"`
		Verbose     bool          `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme   `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// Error implements the error interface for InvalidValueError.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q (valid: %s)", e.Field, e.Value, strings.Join(e.Valid, ", "))
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidValueError) Unwrap() error { return e.Sentinel }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "log level", Value: string(l), Valid: []string{"debug", "info", "warn", "error"}, Sentinel: ErrInvalidLogLevel}}
	}
}

// Level converts the LogLevel to a charmbracelet/log level.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// IsValid returns whether the LogFormat is one of the defined formats.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "log format", Value: string(f), Valid: []string{"text", "json", "logfmt"}, Sentinel: ErrInvalidLogFormat}}
	}
}

// Formatter converts the LogFormat to a charmbracelet/log formatter.
func (f LogFormat) Formatter() log.Formatter {
	switch f {
	case LogFormatJSON:
		return log.JSONFormatter
	case LogFormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight, ColorSchemeNoTTY:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "color scheme", Value: string(cs), Valid: []string{"auto", "dark", "light", "notty"}, Sentinel: ErrInvalidColorScheme}}
	}
}

// Styled reports whether output should carry terminal styling.
func (cs ColorScheme) Styled() bool { return cs != ColorSchemeNoTTY }

// MarkdownStyle returns the glamour style name for the scheme.
func (cs ColorScheme) MarkdownStyle() string {
	if cs == ColorSchemeAuto {
		return ""
	}
	return string(cs)
}

// IsValid returns whether the PriorityEntry names a module with a
// non-negative priority.
func (e PriorityEntry) IsValid() (bool, []error) {
	switch {
	case strings.TrimSpace(e.Module) == "" || strings.ContainsAny(e.Module, " \t\n"):
		return false, []error{&InvalidPriorityEntryError{Entry: e, Reason: "module name must be a non-empty word"}}
	case e.Priority < 0:
		return false, []error{&InvalidPriorityEntryError{Entry: e, Reason: "priority must not be negative"}}
	}
	return true, nil
}

// Error implements the error interface for InvalidPriorityEntryError.
func (e *InvalidPriorityEntryError) Error() string {
	return fmt.Sprintf("invalid priority entry %q=%d: %s", e.Entry.Module, e.Entry.Priority, e.Reason)
}

// Unwrap returns ErrInvalidPriorityEntry for errors.Is() compatibility.
func (e *InvalidPriorityEntryError) Unwrap() error { return ErrInvalidPriorityEntry }

// IsValid returns whether the LoaderConfig has a universe name and positive
// retry budgets.
func (c LoaderConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Universe) == "" {
		errs = append(errs, errors.New("universe name must not be empty"))
	}
	if c.InitializationAttempts < 1 {
		errs = append(errs, fmt.Errorf("initialization_attempts must be at least 1, got %d", c.InitializationAttempts))
	}
	if c.FinalizationAttempts < 1 {
		errs = append(errs, fmt.Errorf("finalization_attempts must be at least 1, got %d", c.FinalizationAttempts))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidLoaderConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidLoaderConfigError.
func (e *InvalidLoaderConfigError) Error() string {
	return fmt.Sprintf("invalid loader config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidLoaderConfig for errors.Is() compatibility.
func (e *InvalidLoaderConfigError) Unwrap() error { return ErrInvalidLoaderConfig }

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Loader.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, entry := range c.Modules.Priorities {
		if valid, fieldErrs := entry.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if _, err := report.ParseFormat(string(c.Report.Format)); err != nil {
		errs = append(errs, &InvalidValueError{Field: "report format", Value: string(c.Report.Format), Valid: []string{"text", "markdown", "json", "yaml"}, Sentinel: ErrInvalidReportFormat})
	}
	if valid, fieldErrs := c.Report.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// PriorityMap converts the priority entries to loadorder.Priorities.
func (c ModulesConfig) PriorityMap() loadorder.Priorities {
	if len(c.Priorities) == 0 {
		return nil
	}
	p := make(loadorder.Priorities, len(c.Priorities))
	for _, e := range c.Priorities {
		p[e.Module] = e.Priority
	}
	return p
}

// Settings converts the configuration to loader settings. orderDir is
// searched for an order file when Modules.OrderFile is empty.
func (c *Config) Settings(orderDir string) loader.Settings {
	s := loader.Settings{
		Universe:               c.Loader.Universe,
		InitializationAttempts: c.Loader.InitializationAttempts,
		FinalizationAttempts:   c.Loader.FinalizationAttempts,
		FailFast:               c.Loader.FailFast,
		RaiseAggregate:         c.Loader.RaiseAggregate,
		Priorities:             c.Modules.PriorityMap(),
		OrderFile:              c.Modules.OrderFile,
		ModulePrefixes:         c.Modules.Prefixes,
		ExcludeModules:         c.Modules.Exclude,
	}
	if s.OrderFile == "" {
		s.OrderFileDir = orderDir
	}
	return s
}

// ReportOptions converts the report section to renderer options.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		Verbose:       c.Report.Verbose,
		Styled:        c.Report.ColorScheme.Styled(),
		MarkdownStyle: c.Report.ColorScheme.MarkdownStyle(),
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Loader: LoaderConfig{
			Universe:               loader.DefaultUniverseName,
			InitializationAttempts: loader.DefaultInitializationAttempts,
			FinalizationAttempts:   loader.DefaultFinalizationAttempts,
		},
		Modules: ModulesConfig{
			Prefixes:   []string{},
			Exclude:    []string{},
			Priorities: []PriorityEntry{},
		},
		Log: LogConfig{
			Level:  LogLevelWarn,
			Format: LogFormatText,
		},
		Report: ReportConfig{
			Format:      report.FormatText,
			ColorScheme: ColorSchemeAuto,
		},
	}
}
