// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/report"
	"github.com/loomkit/loom/pkg/universe"
)

// modify runs each module's modification once, in module order. A modification
// whose dependencies are missing is reported and skipped.
func (l *Loader) modify(ctx context.Context) error {
	_, span := l.tracer.Start(ctx, "loom.modify")
	defer span.End()

	for _, entry := range l.catalog.Modules() {
		d := entry.Modification
		if d == nil {
			continue
		}
		if missing := l.missingDependencies(d); missing != nil {
			if err := l.fail(report.PhaseModify, d, 1, report.KindMissingDependency, missing); err != nil {
				return err
			}
			continue
		}
		err := safely(func() error {
			mod, ok := reflect.New(d.ID.Type).Interface().(universe.Modification)
			if !ok {
				return &StructuralError{Type: d.ID.Type, Reason: "does not implement universe.Modification"}
			}
			return mod.Initialize(universe.NewModifier(l.universe, entry.Name))
		})
		if err != nil {
			kind := report.KindCannotInitialize
			if errors.Is(err, universe.ErrConfiguration) {
				kind = report.KindConfiguration
			}
			if ferr := l.fail(report.PhaseModify, d, 1, kind, err); ferr != nil {
				return ferr
			}
			continue
		}
		if err := l.universe.MarkInitialized(d.ID); err != nil {
			return err
		}
		l.result.Modified = append(l.result.Modified, d.ID)
		l.logger.Debug("modification applied", "module", entry.Name, "type", d.ID)
	}
	span.SetAttributes(attribute.Int("loom.modified", len(l.result.Modified)))
	return nil
}

// finishing is an archetype waiting for Finish to succeed.
type finishing struct {
	id       universe.TypeID
	module   string
	finisher universe.Finisher
	attempts int
	lastErr  error
}

// finalize runs Finish on every initialized archetype implementing
// universe.Finisher. Transient failures are retried in later passes, up to
// the finalization budget.
func (l *Loader) finalize(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "loom.finalize")
	defer span.End()

	var queue []*finishing
	for _, id := range l.result.Initialized {
		d, ok := l.catalog.Descriptor(id)
		if !ok || d.Category != catalog.CategoryArchetype {
			continue
		}
		a, ok := l.universe.Archetype(id.Type)
		if !ok {
			continue
		}
		if f, ok := a.(universe.Finisher); ok {
			queue = append(queue, &finishing{id: id, module: d.Module, finisher: f})
		}
	}

	pass := 0
	for len(queue) > 0 && pass < l.settings.FinalizationAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		pass++
		_, passSpan := l.tracer.Start(ctx, "loom.finalize.pass", trace.WithAttributes(attribute.Int("loom.pass", pass)))
		var still []*finishing
		for _, f := range queue {
			f.attempts++
			err := safely(func() error { return f.finisher.Finish(l.universe) })
			switch {
			case err == nil:
				l.result.Finished = append(l.result.Finished, f.id)
			case transient(err):
				f.lastErr = err
				still = append(still, f)
			default:
				d, _ := l.catalog.Descriptor(f.id)
				if ferr := l.fail(report.PhaseFinalize, d, f.attempts, report.KindCannotInitialize, err); ferr != nil {
					passSpan.End()
					return ferr
				}
			}
		}
		queue = still
		passSpan.End()
	}
	l.result.FinalizationPasses = pass
	l.recorder.ObservePasses(report.PhaseFinalize, pass)

	for _, f := range queue {
		l.recordFailure(report.Failure{
			Phase:    report.PhaseFinalize,
			Category: catalog.CategoryArchetype,
			ID:       f.id,
			Module:   f.module,
			Kind:     transientKind(f.lastErr),
			Attempts: f.attempts,
			Err:      f.lastErr,
		})
	}
	return nil
}

// InitializeLate initializes a candidate declared with AllowLateInit after the
// universe is frozen. Its dependencies must already be initialized; a
// *universe.MissingDependencyError is returned otherwise and the call may be
// repeated later. Other refusals return a *LateInitError.
func (l *Loader) InitializeLate(ctx context.Context, t reflect.Type) error {
	if l.result == nil {
		return ErrNotLoaded
	}
	_, span := l.tracer.Start(ctx, "loom.initialize_late", trace.WithAttributes(attribute.String("loom.type", fmt.Sprint(t))))
	defer span.End()

	id := universe.ID(t)
	d, ok := l.catalog.Descriptor(id)
	switch {
	case !ok:
		return &LateInitError{Type: id.Type, Reason: "not a loaded candidate"}
	case !slices.Contains(catalog.InitializationCategories, d.Category):
		return &LateInitError{Type: id.Type, Reason: fmt.Sprintf("%s candidates cannot initialize late", d.Category)}
	case !d.Declaration.AllowLateInit:
		return &LateInitError{Type: id.Type, Reason: "not declared with AllowLateInit"}
	case l.universe.IsInitialized(id):
		return &LateInitError{Type: id.Type, Reason: "already initialized"}
	}
	if missing := l.missingDependencies(d); missing != nil {
		return missing
	}
	if err := l.construct(d); err != nil {
		l.recorder.ObserveAttempt(d.Category, OutcomeFailed)
		return fmt.Errorf("late initialization of %s: %w", id, err)
	}
	if err := l.universe.MarkInitialized(id); err != nil {
		return err
	}
	l.recorder.ObserveAttempt(d.Category, OutcomeInitialized)
	l.result.Late = append(l.result.Late, id)
	l.logger.Info("initialized late", "type", id)
	return nil
}
