// SPDX-License-Identifier: MPL-2.0

package tracing

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/loomkit/loom/internal/loader"
	"github.com/loomkit/loom/internal/samplepack"
)

func TestDisabledProvider(t *testing.T) {
	t.Parallel()

	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestEnabledWithoutOutput(t *testing.T) {
	t.Parallel()

	_, err := NewProvider(Config{Enabled: true})
	assert.Error(t, err)
}

func TestLoaderSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	p, err := NewProvider(Config{Enabled: true, Exporter: exporter})
	require.NoError(t, err)

	_, err = loader.New(loader.WithTracer(p.Tracer())).Load(context.Background(), samplepack.Modules())
	require.NoError(t, err)

	// The in-memory exporter drops its spans on shutdown.
	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	for _, want := range []string{"loom.load", "loom.enumerate", "loom.initialize", "loom.initialize.pass", "loom.modify", "loom.finalize", "loom.finalize.pass"} {
		assert.True(t, slices.Contains(names, want), "missing span %s in %v", want, names)
	}
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestStdoutExporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p, err := NewProvider(Config{Enabled: true, Output: &buf, ServiceName: "loom-test"})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "probe")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"probe"`)
	assert.Contains(t, buf.String(), "loom-test")
}
