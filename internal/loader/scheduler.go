// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/report"
	"github.com/loomkit/loom/pkg/universe"
)

// pending is a candidate still waiting to initialize.
type pending struct {
	desc     *catalog.Descriptor
	attempts int
	kind     report.Kind
	lastErr  error
}

// enumerate realizes every enumeration member. Enumeration failures are never
// retried. A set type counts as initialized once all of its members are.
func (l *Loader) enumerate(ctx context.Context) error {
	_, span := l.tracer.Start(ctx, "loom.enumerate")
	defer span.End()

	members := l.catalog.All(catalog.CategoryEnumeration)
	remaining := make(map[reflect.Type]int)
	for _, d := range members {
		remaining[d.ID.Type]++
	}
	broken := make(map[reflect.Type]bool)
	for _, d := range members {
		set := d.ID.Type
		err := safely(func() error {
			_, err := d.Lazy.Realize(l.universe)
			return err
		})
		if err != nil {
			broken[set] = true
			l.recorder.ObserveAttempt(d.Category, OutcomeFailed)
			if ferr := l.fail(report.PhaseEnumerate, d, 1, report.KindCannotInitialize, err); ferr != nil {
				return ferr
			}
			continue
		}
		l.recorder.ObserveAttempt(d.Category, OutcomeInitialized)
		if err := l.commit(d.ID, 0); err != nil {
			return err
		}
		if remaining[set]--; remaining[set] == 0 && !broken[set] {
			if err := l.universe.MarkInitialized(universe.TypeID{Type: set}); err != nil {
				return err
			}
		}
	}
	span.SetAttributes(attribute.Int("loom.enumerations", len(members)))
	return nil
}

// initialize runs passes over components, archetypes and models until nothing
// is pending or the attempt budget is spent. Work committed in a pass becomes
// visible to dependency checks only in the next pass.
func (l *Loader) initialize(ctx context.Context) error {
	ctx, span := l.tracer.Start(ctx, "loom.initialize")
	defer span.End()

	queues := make(map[catalog.Category][]*pending)
	total := 0
	for _, cat := range catalog.InitializationCategories {
		for _, d := range l.catalog.All(cat) {
			queues[cat] = append(queues[cat], &pending{desc: d})
			total++
		}
	}

	pass := 0
	for total > 0 && pass < l.settings.InitializationAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		pass++
		committed, err := l.initializationPass(ctx, pass, queues)
		if err != nil {
			return err
		}
		for _, d := range committed {
			if err := l.commit(d.ID, pass); err != nil {
				return err
			}
		}
		total = 0
		for _, q := range queues {
			total += len(q)
		}
		l.logger.Debug("initialization pass", "pass", pass, "initialized", len(committed), "pending", total)
	}
	l.result.InitializationPasses = pass
	l.recorder.ObservePasses(report.PhaseInitialize, pass)
	span.SetAttributes(attribute.Int("loom.passes", pass), attribute.Int("loom.unresolved", total))

	for _, cat := range catalog.InitializationCategories {
		for _, p := range queues[cat] {
			l.recordFailure(report.Failure{
				Phase:    report.PhaseInitialize,
				Category: cat,
				ID:       p.desc.ID,
				Module:   p.desc.Module,
				Kind:     p.kind,
				Attempts: p.attempts,
				Err:      p.lastErr,
			})
		}
	}
	return nil
}

// initializationPass attempts every pending candidate once and returns the
// descriptors to commit. Fatal failures are dropped from the queues.
func (l *Loader) initializationPass(ctx context.Context, pass int, queues map[catalog.Category][]*pending) ([]*catalog.Descriptor, error) {
	_, span := l.tracer.Start(ctx, "loom.initialize.pass", trace.WithAttributes(attribute.Int("loom.pass", pass)))
	defer span.End()

	var committed []*catalog.Descriptor
	for _, cat := range catalog.InitializationCategories {
		var still []*pending
		for _, p := range queues[cat] {
			p.attempts++
			if missing := l.missingDependencies(p.desc); missing != nil {
				p.kind, p.lastErr = report.KindMissingDependency, missing
				still = append(still, p)
				l.recorder.ObserveAttempt(cat, OutcomeRetry)
				continue
			}
			err := l.construct(p.desc)
			switch {
			case err == nil:
				committed = append(committed, p.desc)
				l.recorder.ObserveAttempt(cat, OutcomeInitialized)
			case transient(err):
				p.kind, p.lastErr = transientKind(err), err
				still = append(still, p)
				l.recorder.ObserveAttempt(cat, OutcomeRetry)
				l.logger.Debug("initialization deferred", "type", p.desc.ID, "pass", pass, "err", err)
			default:
				l.recorder.ObserveAttempt(cat, OutcomeFailed)
				if ferr := l.fail(report.PhaseInitialize, p.desc, p.attempts, report.KindCannotInitialize, err); ferr != nil {
					return nil, ferr
				}
			}
		}
		queues[cat] = still
	}
	span.SetAttributes(attribute.Int("loom.initialized", len(committed)))
	return committed, nil
}

// missingDependencies returns the declared dependencies of d that are not yet
// committed, joined as *universe.MissingDependencyError values, or nil.
func (l *Loader) missingDependencies(d *catalog.Descriptor) error {
	var errs []error
	for _, dep := range d.Dependencies {
		if !l.universe.IsInitialized(dep) {
			errs = append(errs, &universe.MissingDependencyError{Dependency: dep})
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) commit(id universe.TypeID, pass int) error {
	if err := l.universe.MarkInitialized(id); err != nil {
		return err
	}
	l.result.Initialized = append(l.result.Initialized, id)
	l.result.Passes[id] = pass
	return nil
}

// fail records a fatal failure. Under FailFast it returns the *FatalError that
// aborts the load.
func (l *Loader) fail(phase report.Phase, d *catalog.Descriptor, attempts int, kind report.Kind, err error) error {
	f := report.Failure{
		Phase:    phase,
		Category: d.Category,
		ID:       d.ID,
		Module:   d.Module,
		Kind:     kind,
		Attempts: attempts,
		Err:      err,
	}
	l.recordFailure(f)
	if l.settings.FailFast {
		return &FatalError{Failure: f}
	}
	return nil
}

func (l *Loader) recordFailure(f report.Failure) {
	l.failures = append(l.failures, f)
	l.recorder.ObserveFailure(f.Kind)
	l.logger.Error("load failure", "phase", f.Phase, "type", f.ID, "module", f.Module, "kind", f.Kind, "err", f.Err)
}
