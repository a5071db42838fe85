// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func homeVar() string {
	if runtime.GOOS == "windows" {
		return "USERPROFILE"
	}
	return "HOME"
}

func TestSetHomeDir(t *testing.T) {
	envVar := homeVar()
	original, had := os.LookupEnv(envVar)
	dir := t.TempDir()

	t.Run("subtest", func(t *testing.T) {
		t.Cleanup(SetHomeDir(t, dir))
		if got := os.Getenv(envVar); got != dir {
			t.Errorf("%s = %q, want %q", envVar, got, dir)
		}
	})

	got, has := os.LookupEnv(envVar)
	if has != had || got != original {
		t.Errorf("after cleanup %s = %q (set=%v), want %q (set=%v)", envVar, got, has, original, had)
	}
}

func TestMustSetenvRestoresUnset(t *testing.T) {
	const key = "LOOM_TESTUTIL_PROBE"
	restore := MustUnsetenv(t, key)
	defer restore()

	cleanup := MustSetenv(t, key, "on")
	if got := os.Getenv(key); got != "on" {
		t.Fatalf("%s = %q, want %q", key, got, "on")
	}
	cleanup()
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("%s still set after cleanup", key)
	}
}

func TestClearLoomEnv(t *testing.T) {
	t.Cleanup(MustSetenv(t, "LOOM_LOG_LEVEL", "debug"))

	restore := ClearLoomEnv(t)
	if _, ok := os.LookupEnv("LOOM_LOG_LEVEL"); ok {
		t.Fatal("LOOM_LOG_LEVEL should be unset")
	}
	restore()
	if got := os.Getenv("LOOM_LOG_LEVEL"); got != "debug" {
		t.Errorf("LOOM_LOG_LEVEL = %q after restore, want %q", got, "debug")
	}
}

func TestMustWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	path := MustWriteFile(t, dir, "loadorder.toml", "core = 1\n")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "core = 1\n" {
		t.Errorf("content = %q", data)
	}
}

func TestMustChdir(t *testing.T) {
	dir := t.TempDir()
	before, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	restore := MustChdir(t, dir)
	now, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// TempDir may sit behind a symlink (macOS /var -> /private/var).
	if want, _ := filepath.EvalSymlinks(dir); now != dir && now != want {
		t.Errorf("cwd = %q, want %q", now, dir)
	}
	restore()

	after, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("cwd after restore = %q, want %q", after, before)
	}
}
