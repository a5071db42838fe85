// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loomkit/loom/internal/config"
	"github.com/loomkit/loom/internal/testutil"
	"github.com/loomkit/loom/pkg/loommod"
	"github.com/loomkit/loom/pkg/universe"
)

type (
	warpThread struct {
		universe.ModelBase
	}
	weftThread struct {
		universe.ModelBase
	}
)

func TestPlanCommand(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, Dependencies{}, "plan")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	for _, want := range []string{"core", "garments", "tweaks", "pass 1:", "pass 2:", "pass 3:", "TapestryArchetype"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dependency cycles") {
		t.Errorf("sample pack has no cycles:\n%s", out)
	}
}

func TestPlanCommandShowsCycles(t *testing.T) {
	t.Parallel()

	knotted := func() []loommod.Module {
		return []loommod.Module{loommod.New("knot", func(m *loommod.Manifest) {
			m.Add(
				loommod.Declare[warpThread](loommod.After[weftThread]()),
				loommod.Declare[weftThread](loommod.After[warpThread]()),
			)
		})}
	}
	out, _, err := run(t, Dependencies{Modules: knotted}, "plan")
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	if !strings.Contains(out, "Dependency cycles") || !strings.Contains(out, "warpThread") {
		t.Errorf("expected the cycle to be listed:\n%s", out)
	}
}

func TestExplainCommand(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, Dependencies{}, "explain")
	if err != nil {
		t.Fatalf("explain error = %v", err)
	}
	for _, slug := range []string{"config-load-failed", "missing-dependency", "dependency-cycle", "late-initialization-denied"} {
		if !strings.Contains(out, slug) {
			t.Errorf("issue list missing %q", slug)
		}
	}

	out, _, err = run(t, Dependencies{}, "explain", "missing-dependency", "--raw")
	if err != nil {
		t.Fatalf("explain missing-dependency error = %v", err)
	}
	if !strings.Contains(out, "# ") {
		t.Errorf("raw output should be markdown, got %q", out)
	}

	out, _, err = run(t, Dependencies{}, "explain", "dependency-cycle", "--style", "notty")
	if err != nil {
		t.Fatalf("explain dependency-cycle error = %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("rendered page is empty")
	}

	if _, _, err := run(t, Dependencies{}, "explain", "no-such-issue"); err == nil {
		t.Error("unknown issue should fail")
	}
}

// Not parallel: the config commands use the package-level config dir override
// and LOOM_* environment.
func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	config.SetConfigDirOverride(dir)
	t.Cleanup(config.Reset)
	t.Cleanup(testutil.ClearLoomEnv(t))
	deps := Dependencies{Config: config.NewProvider()}

	out, _, err := run(t, deps, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	cfgPath := filepath.Join(dir, "config.cue")
	if strings.TrimSpace(out) != cfgPath {
		t.Errorf("config path = %q, want %q", out, cfgPath)
	}

	out, _, err = run(t, deps, "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, "Created") {
		t.Errorf("init output = %q", out)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	out, _, err = run(t, deps, "config", "init")
	if err != nil || !strings.Contains(out, "already exists") {
		t.Errorf("second init = %q, %v", out, err)
	}

	testutil.MustWriteFile(t, dir, "config.cue", `loader: universe: "edited"`)
	out, _, err = run(t, deps, "config", "init", "--force")
	if err != nil || !strings.Contains(out, "Wrote") {
		t.Errorf("forced init = %q, %v", out, err)
	}

	t.Cleanup(testutil.MustSetenv(t, "LOOM_LOADER_UNIVERSE", "from-env"))
	out, _, err = run(t, deps, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{cfgPath, "universe", "from-env", "initialization_attempts", "color_scheme"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	out, _, err = run(t, deps, "config", "dump")
	if err != nil {
		t.Fatalf("config dump error = %v", err)
	}
	if !strings.Contains(out, "loader: {") || !strings.Contains(out, `"from-env"`) {
		t.Errorf("config dump = %q", out)
	}
}

func TestConfigShowExplicitFile(t *testing.T) {
	t.Cleanup(config.Reset)
	config.SetConfigDirOverride(t.TempDir())
	t.Cleanup(testutil.ClearLoomEnv(t))

	path := testutil.MustWriteFile(t, t.TempDir(), "custom.cue", `report: format: "yaml"`)
	out, _, err := run(t, Dependencies{Config: config.NewProvider()}, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, path) || !strings.Contains(out, "yaml") {
		t.Errorf("config show = %q", out)
	}

	bad := testutil.MustWriteFile(t, t.TempDir(), "bad.cue", `loader: {`)
	if _, _, err := run(t, Dependencies{Config: config.NewProvider()}, "--config", bad, "load"); err == nil {
		t.Error("load with an invalid config file should fail")
	}
}
