// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/internal/config"
	"github.com/loomkit/loom/internal/issue"
	"github.com/loomkit/loom/internal/loader"
	"github.com/loomkit/loom/internal/report"
	"github.com/loomkit/loom/internal/samplepack"
	"github.com/loomkit/loom/pkg/loommod"
	"github.com/loomkit/loom/pkg/universe"
)

var errWorn = errors.New("worn through")

type frayedCloth struct {
	universe.ModelBase
}

func (*frayedCloth) Validate() error { return errWorn }

// withFrayed adds a module whose only model always fails validation.
func withFrayed() []loommod.Module {
	frayed := loommod.New("frayed", func(m *loommod.Manifest) {
		m.Add(loommod.Declare[frayedCloth]())
	})
	return append(samplepack.Modules(), frayed)
}

func TestLoadCommand_JSON(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, Dependencies{}, "load", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Universe  string `json:"universe"`
		Succeeded bool   `json:"succeeded"`
		Summary   struct {
			Modules     int  `json:"modules"`
			Initialized int  `json:"initialized"`
			Finished    int  `json:"finished"`
			Frozen      bool `json:"frozen"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	assert.True(t, doc.Succeeded)
	assert.Equal(t, loader.DefaultUniverseName, doc.Universe)
	assert.Equal(t, 3, doc.Summary.Modules)
	assert.Equal(t, 12, doc.Summary.Initialized)
	assert.Equal(t, 1, doc.Summary.Finished)
	assert.True(t, doc.Summary.Frozen)
}

func TestLoadCommand_TextReport(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, Dependencies{Modules: withFrayed}, "load", "--universe", "workshop")
	require.NoError(t, err, "failures alone do not fail the command")
	assert.Contains(t, out, "workshop")
	assert.Contains(t, out, "frayedCloth")
	assert.Contains(t, out, string(report.KindCannotInitialize))
}

func TestLoadCommand_Raise(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, Dependencies{Modules: withFrayed}, "load", "--raise", "--format", "yaml")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailures, exitErr.Code)
	var agg *report.AggregateError
	assert.ErrorAs(t, err, &agg)
	assert.ErrorIs(t, err, errWorn)
}

func TestLoadCommand_FailFast(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, Dependencies{Modules: withFrayed}, "load", "--fail-fast")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitAborted, exitErr.Code)
	var fatal *loader.FatalError
	assert.ErrorAs(t, err, &fatal)
}

func TestLoadCommand_ConfigFlagsOverride(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Loader.RaiseAggregate = true
	cfg.Report.ColorScheme = config.ColorSchemeNoTTY

	// The flag turns off what the config file turned on.
	_, _, err := run(t, Dependencies{Modules: withFrayed, Config: &stubConfig{cfg: cfg}}, "load", "--raise=false")
	assert.NoError(t, err)

	_, _, err = run(t, Dependencies{Modules: withFrayed, Config: &stubConfig{cfg: cfg}}, "load")
	assert.Error(t, err)
}

func TestLoadCommand_Exclude(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, Dependencies{Modules: withFrayed}, "load", "--exclude", "frayed", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"succeeded": true`)
}

func TestLoadCommand_Metrics(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, Dependencies{}, "load", "--format", "json", "--metrics", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "loom_loader_attempts_total")
	assert.Contains(t, out, "loom_loader_passes")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	_, _, err = run(t, Dependencies{}, "load", "--metrics", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `phase="initialize"`)
}

func TestLoadCommand_Trace(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, Dependencies{}, "load", "--trace", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, "loom.initialize.pass")
}

func TestLoadCommand_OrderFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loadorder.toml"), []byte("tweaks = 0\ncore = 1\ngarments = 2\n"), 0o644))

	out, _, err := run(t, Dependencies{WorkDir: dir}, "plan")
	require.NoError(t, err)
	tweaks := strings.Index(out, "tweaks")
	core := strings.Index(out, "core")
	require.True(t, tweaks >= 0 && core >= 0, out)
	assert.Less(t, tweaks, core, "discovered order file puts tweaks first")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("core = -1\n"), 0o644))
	_, _, err = run(t, Dependencies{WorkDir: dir}, "load", "--order-file", bad)
	var ae *issue.ActionableError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, issue.OrderFileInvalidId, ae.Issue)
	assert.Equal(t, bad, ae.Resource)
}

func TestLoadCommand_DuplicateModule(t *testing.T) {
	t.Parallel()

	dupes := func() []loommod.Module { return append(samplepack.Modules(), samplepack.Tweaks()) }
	_, _, err := run(t, Dependencies{Modules: dupes}, "load")
	var ae *issue.ActionableError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, issue.CatalogInvalidId, ae.Issue)
}

func TestLoadCommand_ConfigError(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, Dependencies{Config: &stubConfig{err: config.ErrInvalidConfig}}, "load")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
