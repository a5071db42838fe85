// SPDX-License-Identifier: MPL-2.0

// Package tracing configures the OpenTelemetry tracer the loader reports its
// phase and pass spans to.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName identifies loom in exported spans.
const DefaultServiceName = "loom"

type (
	// Config configures the tracing subsystem.
	Config struct {
		// Enabled controls whether spans are exported. When false a no-op
		// tracer is returned.
		Enabled bool
		// Output receives spans as JSON, one document per span.
		Output io.Writer
		// Pretty indents the JSON output.
		Pretty bool
		// ServiceName defaults to DefaultServiceName.
		ServiceName string
		// Exporter overrides the stdout exporter. Tests use it to capture spans.
		Exporter sdktrace.SpanExporter
	}

	// Provider owns the tracer provider for one CLI invocation.
	Provider struct {
		provider *sdktrace.TracerProvider
		tracer   trace.Tracer
	}
)

// NewProvider creates the trace provider. A disabled config yields a no-op
// provider with zero overhead.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer("noop")}, nil
	}

	exporter := cfg.Exporter
	if exporter == nil {
		if cfg.Output == nil {
			return nil, fmt.Errorf("tracing enabled without an output")
		}
		opts := []stdouttrace.Option{stdouttrace.WithWriter(cfg.Output)}
		if cfg.Pretty {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		var err error
		exporter, err = stdouttrace.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// NewSchemaless avoids schema version conflicts with resource.Default().
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	// A CLI run is short; the syncer exports each span as it ends.
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(exporter),
	)
	return &Provider{provider: provider, tracer: provider.Tracer(serviceName)}, nil
}

// Tracer returns the tracer for creating spans. It is safe to use when
// tracing is disabled.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool { return p.provider != nil }

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
