// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/loadorder"
	"github.com/loomkit/loom/internal/report"
	"github.com/loomkit/loom/pkg/loommod"
	"github.com/loomkit/loom/pkg/universe"
)

const tracerName = "github.com/loomkit/loom/internal/loader"

type (
	// Loader loads modules into one universe. A Loader runs Load once; after
	// that it serves InitializeLate.
	Loader struct {
		settings   Settings
		logger     *log.Logger
		tracer     trace.Tracer
		recorder   Recorder
		errStream  io.Writer
		errOptions report.Options
		newRunID   func() string

		universe     *universe.Universe
		catalog      *catalog.Catalog
		bootstrapped map[reflect.Type]bool
		result       *Result
		failures     []report.Failure
	}

	// Result is the outcome of Load.
	Result struct {
		RunID    string
		Universe *universe.Universe
		// Modules lists the loaded module names in load order.
		Modules []string
		Catalog *catalog.Catalog
		// Initialized lists committed candidates in commit order, enumeration
		// members first.
		Initialized []universe.TypeID
		// Passes maps each committed candidate to the pass that committed it.
		// Enumeration members commit in pass 0.
		Passes map[universe.TypeID]int
		// InitializationPasses and FinalizationPasses count the passes run.
		InitializationPasses int
		FinalizationPasses   int
		// Modified lists the modifications that ran successfully.
		Modified []universe.TypeID
		// Finished lists the archetypes whose Finish succeeded.
		Finished []universe.TypeID
		// Late lists candidates initialized by InitializeLate.
		Late   []universe.TypeID
		Report *report.Report
	}

	// Preview is the planned order of a load, computed without constructing
	// anything.
	Preview struct {
		Modules []string
		Catalog *catalog.Catalog
		// Levels groups candidates by dependency depth. Every candidate in level
		// n can initialize in pass n+1 at the earliest.
		Levels [][]string
		// Cycles lists declared dependency cycles among candidates.
		Cycles      [][]string
		Diagnostics []catalog.Diagnostic
	}
)

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		settings:     DefaultSettings(),
		logger:       log.New(io.Discard),
		tracer:       otel.Tracer(tracerName),
		recorder:     nopRecorder{},
		newRunID:     uuid.NewString,
		bootstrapped: make(map[reflect.Type]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Settings returns the loader settings.
func (l *Loader) Settings() Settings { return l.settings }

// Universe returns the universe being loaded, or nil before Load.
func (l *Loader) Universe() *universe.Universe { return l.universe }

// Load orders, discovers and initializes mods, runs modifications and
// finalization, and freezes the universe.
//
// Ordering and discovery errors are returned before anything is constructed.
// Item failures are collected in Result.Report; Load returns them as a
// *report.AggregateError only when Settings.RaiseAggregate is set. With
// Settings.FailFast the first fatal failure returns a partial Result, an
// unfrozen universe and a *FatalError.
func (l *Loader) Load(ctx context.Context, mods []loommod.Module) (*Result, error) {
	if l.result != nil {
		return nil, ErrAlreadyLoaded
	}
	if err := l.settings.Validate(); err != nil {
		return nil, err
	}
	runID := l.newRunID()
	l.logger = l.logger.With("run", runID)

	ctx, span := l.tracer.Start(ctx, "loom.load", trace.WithAttributes(
		attribute.String("loom.run_id", runID),
		attribute.String("loom.universe", l.settings.Universe),
	))
	defer span.End()

	plan, cat, diags, err := discover(mods, l.settings)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")
		return nil, err
	}
	l.catalog = cat
	l.universe = universe.New(l.settings.Universe)
	l.result = &Result{
		RunID:    runID,
		Universe: l.universe,
		Modules:  loommod.Names(plan.Modules),
		Catalog:  cat,
		Passes:   make(map[universe.TypeID]int),
	}
	for _, t := range cat.LateAllowed() {
		if err := l.universe.AllowLateInitialization(t); err != nil {
			return nil, err
		}
	}
	l.logger.Info("loading universe", "universe", l.settings.Universe, "modules", len(plan.Modules), "candidates", cat.Len())

	if err := l.runPhases(ctx); err != nil {
		l.finishReport(diags)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return l.result, err
	}
	l.universe.Freeze()
	rep := l.finishReport(diags)

	span.SetAttributes(
		attribute.Int("loom.initialized", rep.Summary.Initialized),
		attribute.Int("loom.failures", len(rep.Failures)),
	)
	if !rep.HasFailures() {
		l.logger.Info("universe loaded", "initialized", rep.Summary.Initialized, "passes", rep.Summary.InitializationPasses)
		return l.result, nil
	}

	span.SetStatus(codes.Error, fmt.Sprintf("%d failures", len(rep.Failures)))
	l.logger.Warn("universe loaded with failures", "failures", len(rep.Failures))
	if l.errStream != nil {
		if err := report.Write(l.errStream, rep, report.FormatText, l.errOptions); err != nil {
			l.logger.Error("writing report", "err", err)
		}
	}
	if l.settings.RaiseAggregate {
		return l.result, rep.Err()
	}
	return l.result, nil
}

func (l *Loader) runPhases(ctx context.Context) error {
	phases := []struct {
		phase report.Phase
		run   func(context.Context) error
	}{
		{report.PhaseEnumerate, l.enumerate},
		{report.PhaseInitialize, l.initialize},
		{report.PhaseModify, l.modify},
		{report.PhaseFinalize, l.finalize},
	}
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("load canceled before %s: %w", p.phase, err)
		}
		start := time.Now()
		err := p.run(ctx)
		l.recorder.ObserveDuration(p.phase, time.Since(start))
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) finishReport(diags []catalog.Diagnostic) *report.Report {
	rep := &report.Report{
		RunID:       l.result.RunID,
		Universe:    l.universe.Name(),
		Failures:    l.failures,
		Diagnostics: diags,
		Summary: report.Summary{
			Modules:              len(l.result.Modules),
			Candidates:           l.catalog.Len(),
			Initialized:          len(l.result.Initialized),
			Finished:             len(l.result.Finished),
			InitializationPasses: l.result.InitializationPasses,
			FinalizationPasses:   l.result.FinalizationPasses,
			Frozen:               l.universe.Frozen(),
		},
	}
	l.annotateCycles(rep)
	l.result.Report = rep
	return rep
}

// PreviewLoad resolves the order and catalog of mods and groups candidates by
// declared dependency depth.
func PreviewLoad(mods []loommod.Module, settings Settings) (*Preview, error) {
	plan, cat, diags, err := discover(mods, settings)
	if err != nil {
		return nil, err
	}
	levels, cycles := dependencyLevels(cat)
	return &Preview{
		Modules:     loommod.Names(plan.Modules),
		Catalog:     cat,
		Levels:      levels,
		Cycles:      cycles,
		Diagnostics: diags,
	}, nil
}

// discover filters and orders mods and builds the catalog. Order overrides and
// unknown prioritized modules become diagnostics ahead of the catalog's own.
func discover(mods []loommod.Module, s Settings) (*loadorder.Plan, *catalog.Catalog, []catalog.Diagnostic, error) {
	filtered := loadorder.Filter(mods, s.ModulePrefixes, s.ExcludeModules)
	filePriorities, err := readOrderFile(s)
	if err != nil {
		return nil, nil, nil, err
	}
	plan, err := loadorder.Resolve(filtered, s.Priorities, filePriorities)
	if err != nil {
		return nil, nil, nil, err
	}
	cat, err := catalog.Build(plan.Modules)
	if err != nil {
		return nil, nil, nil, err
	}

	var diags []catalog.Diagnostic
	for _, o := range plan.Overrides {
		diags = append(diags, catalog.Diagnostic{
			Severity: catalog.SeverityInfo,
			Code:     "priority_overridden",
			Message:  fmt.Sprintf("priority %d from the order file replaced by %d", o.File, o.Explicit),
			Module:   o.Module,
		})
	}
	for _, name := range plan.Unknown {
		diags = append(diags, catalog.Diagnostic{
			Severity: catalog.SeverityWarning,
			Code:     "priority_unknown_module",
			Message:  "a priority is set for a module that is not loaded",
			Module:   name,
		})
	}
	return plan, cat, append(diags, cat.Diagnostics()...), nil
}

func readOrderFile(s Settings) (loadorder.Priorities, error) {
	path := s.OrderFile
	if path == "" && s.OrderFileDir != "" {
		found, ok := loadorder.Discover(s.OrderFileDir)
		if !ok {
			return nil, nil
		}
		path = found
	}
	if path == "" {
		return nil, nil
	}
	return loadorder.ParseFile(path)
}
