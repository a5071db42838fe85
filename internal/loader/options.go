// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"io"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomkit/loom/internal/report"
)

// Option configures a Loader.
type Option func(*Loader)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(l *Loader) { l.settings = s }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTracer sets the tracer used for load, phase and pass spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Loader) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Loader) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithErrorStream makes Load write the report to w when any item failed.
func WithErrorStream(w io.Writer, opts report.Options) Option {
	return func(l *Loader) {
		l.errStream = w
		l.errOptions = opts
	}
}

// WithRunID overrides the run identifier generator.
func WithRunID(fn func() string) Option {
	return func(l *Loader) {
		if fn != nil {
			l.newRunID = fn
		}
	}
}
