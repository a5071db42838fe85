// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// SetHomeDir sets the platform's home environment variable (USERPROFILE on
// Windows, HOME elsewhere) and returns a cleanup function restoring it.
//
//	t.Cleanup(testutil.SetHomeDir(t, t.TempDir()))
func SetHomeDir(t testing.TB, dir string) func() {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		return MustSetenv(t, "USERPROFILE", dir)
	default:
		return MustSetenv(t, "HOME", dir)
	}
}

// ClearLoomEnv unsets the LOOM_* variables the config layer reads so a test
// sees only file values and defaults. It returns a cleanup restoring them.
func ClearLoomEnv(t testing.TB) func() {
	t.Helper()
	keys := []string{
		"LOOM_LOADER_UNIVERSE",
		"LOOM_LOADER_INITIALIZATION_ATTEMPTS",
		"LOOM_LOADER_FINALIZATION_ATTEMPTS",
		"LOOM_LOADER_FAIL_FAST",
		"LOOM_LOADER_RAISE_AGGREGATE",
		"LOOM_MODULES_PREFIXES",
		"LOOM_MODULES_EXCLUDE",
		"LOOM_MODULES_ORDER_FILE",
		"LOOM_LOG_LEVEL",
		"LOOM_LOG_FORMAT",
		"LOOM_REPORT_FORMAT",
		"LOOM_REPORT_VERBOSE",
		"LOOM_REPORT_COLOR_SCHEME",
	}
	var restores []func()
	for _, k := range keys {
		restores = append(restores, MustUnsetenv(t, k))
	}
	return func() {
		for _, r := range restores {
			r()
		}
	}
}
