// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/loomkit/loom/internal/cueutil"
	"github.com/loomkit/loom/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "loom"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides (LOOM_LOADER_FAIL_FAST, ...).
	EnvPrefix = "LOOM"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the loom configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Resolve loads the configuration and returns it with the path of the file it
// came from. The path is empty when only defaults and environment apply.
func Resolve(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	path, err := locate(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'loom config dump' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Uniqueness and environment-supplied values are not covered by the schema.
	if err := validatePriorities(cfg.Modules.Priorities); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("List each module at most once under modules.priorities").
			Wrap(err).
			BuildError()
	}
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check LOOM_* environment variables for invalid values").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, path, nil
}

// newViper returns a viper instance carrying every default and bound to
// LOOM_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("loader.universe", defaults.Loader.Universe)
	v.SetDefault("loader.initialization_attempts", defaults.Loader.InitializationAttempts)
	v.SetDefault("loader.finalization_attempts", defaults.Loader.FinalizationAttempts)
	v.SetDefault("loader.fail_fast", defaults.Loader.FailFast)
	v.SetDefault("loader.raise_aggregate", defaults.Loader.RaiseAggregate)
	v.SetDefault("modules.prefixes", defaults.Modules.Prefixes)
	v.SetDefault("modules.exclude", defaults.Modules.Exclude)
	v.SetDefault("modules.priorities", defaults.Modules.Priorities)
	v.SetDefault("modules.order_file", defaults.Modules.OrderFile)
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("log.format", string(defaults.Log.Format))
	v.SetDefault("report.format", string(defaults.Report.Format))
	v.SetDefault("report.verbose", defaults.Report.Verbose)
	v.SetDefault("report.color_scheme", string(defaults.Report.ColorScheme))
	return v
}

// locate picks the config file: an explicit path, then the config directory,
// then the working directory.
func locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'loom config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if p := ConfigFileName + "." + ConfigFileExt; fileExists(p) {
		return p, nil
	}
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// This compiles the schema directly instead of using cueutil.ParseAndDecode:
// the result is merged into Viper as a map, and fields are optional so the
// value is validated with Concrete(false).
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merging keeps defaults and env overrides in place.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// validatePriorities rejects a module listed twice.
func validatePriorities(entries []PriorityEntry) error {
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if first, exists := seen[e.Module]; exists {
			return fmt.Errorf("modules.priorities[%d]: duplicate module %q (same as modules.priorities[%d])", i, e.Module, first)
		}
		seen[e.Module] = i
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// ConfigFilePath returns the path of the config file in the config directory.
//
//nolint:revive // mirrors ConfigDir
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// CreateDefaultConfig writes the default config file unless one exists. It
// returns the path and whether a file was written.
func CreateDefaultConfig() (string, bool, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, false, nil
	}
	if err := Save(DefaultConfig()); err != nil {
		return "", false, err
	}
	return cfgPath, true, nil
}

// Save writes cfg to the config file
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// loom configuration file\n\n")

	sb.WriteString("loader: {\n")
	sb.WriteString(fmt.Sprintf("\tuniverse: %q\n", cfg.Loader.Universe))
	sb.WriteString(fmt.Sprintf("\tinitialization_attempts: %d\n", cfg.Loader.InitializationAttempts))
	sb.WriteString(fmt.Sprintf("\tfinalization_attempts: %d\n", cfg.Loader.FinalizationAttempts))
	sb.WriteString(fmt.Sprintf("\tfail_fast: %v\n", cfg.Loader.FailFast))
	sb.WriteString(fmt.Sprintf("\traise_aggregate: %v\n", cfg.Loader.RaiseAggregate))
	sb.WriteString("}\n")

	sb.WriteString("\nmodules: {\n")
	writeList(&sb, "prefixes", cfg.Modules.Prefixes)
	writeList(&sb, "exclude", cfg.Modules.Exclude)
	if len(cfg.Modules.Priorities) > 0 {
		sb.WriteString("\tpriorities: [\n")
		for _, e := range cfg.Modules.Priorities {
			sb.WriteString(fmt.Sprintf("\t\t{module: %q, priority: %d},\n", e.Module, e.Priority))
		}
		sb.WriteString("\t]\n")
	}
	if cfg.Modules.OrderFile != "" {
		sb.WriteString(fmt.Sprintf("\torder_file: %q\n", cfg.Modules.OrderFile))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	sb.WriteString(fmt.Sprintf("\tlevel: %q\n", cfg.Log.Level))
	sb.WriteString(fmt.Sprintf("\tformat: %q\n", cfg.Log.Format))
	sb.WriteString("}\n")

	sb.WriteString("\nreport: {\n")
	sb.WriteString(fmt.Sprintf("\tformat: %q\n", cfg.Report.Format))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.Report.Verbose))
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.Report.ColorScheme))
	sb.WriteString("}\n")

	return sb.String()
}

func writeList(sb *strings.Builder, name string, items []string) {
	if len(items) == 0 {
		return
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	sb.WriteString(fmt.Sprintf("\t%s: [%s]\n", name, strings.Join(quoted, ", ")))
}
