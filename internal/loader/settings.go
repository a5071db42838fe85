// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"

	"github.com/loomkit/loom/internal/loadorder"
)

const (
	// DefaultInitializationAttempts bounds the initialization passes.
	DefaultInitializationAttempts = 10
	// DefaultFinalizationAttempts bounds the finalization passes.
	DefaultFinalizationAttempts = 5
	// DefaultUniverseName names the universe when none is configured.
	DefaultUniverseName = "default"
)

// Settings configures one load.
type Settings struct {
	// Universe names the universe created by the load.
	Universe               string
	InitializationAttempts int
	FinalizationAttempts   int
	// FailFast aborts the load on the first fatal failure.
	FailFast bool
	// RaiseAggregate makes Load return a *report.AggregateError when any item failed.
	RaiseAggregate bool

	// Priorities are explicit module priorities; they override the order file.
	Priorities loadorder.Priorities
	// OrderFile is an explicit order file path.
	OrderFile string
	// OrderFileDir is searched for loadorder.cue / loadorder.toml when
	// OrderFile is empty. Empty disables discovery.
	OrderFileDir string
	// ModulePrefixes keeps only modules whose name has one of these prefixes.
	ModulePrefixes []string
	// ExcludeModules drops modules by name.
	ExcludeModules []string
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		Universe:               DefaultUniverseName,
		InitializationAttempts: DefaultInitializationAttempts,
		FinalizationAttempts:   DefaultFinalizationAttempts,
	}
}

// Validate checks the retry budgets and priorities.
func (s Settings) Validate() error {
	var errs []error
	if s.InitializationAttempts < 1 {
		errs = append(errs, fmt.Errorf("initialization attempts must be at least 1, got %d", s.InitializationAttempts))
	}
	if s.FinalizationAttempts < 1 {
		errs = append(errs, fmt.Errorf("finalization attempts must be at least 1, got %d", s.FinalizationAttempts))
	}
	if err := s.Priorities.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("priorities: %w", err))
	}
	return errors.Join(errs...)
}
