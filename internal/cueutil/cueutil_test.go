// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name:     string & !=""
	attempts: int & >=1 | *3
	tags?: [...string]
}
`

type testSettings struct {
	Name     string   `json:"name"`
	Attempts int      `json:"attempts"`
	Tags     []string `json:"tags,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		opts      []Option
		want      testSettings
		wantErr   bool
		errSubstr string
	}{
		{
			name: "defaults applied",
			data: `name: "core"`,
			want: testSettings{Name: "core", Attempts: 3},
		},
		{
			name: "explicit values",
			data: "name: \"arms\"\nattempts: 5\ntags: [\"a\"]",
			want: testSettings{Name: "arms", Attempts: 5, Tags: []string{"a"}},
		},
		{
			name:      "constraint violation names the path",
			data:      "name: \"x\"\nattempts: 0",
			opts:      []Option{WithFilename("settings.cue")},
			wantErr:   true,
			errSubstr: "settings.cue: attempts",
		},
		{
			name:    "missing required field",
			data:    `attempts: 2`,
			wantErr: true,
		},
		{
			name:      "syntax error",
			data:      `name: `,
			opts:      []Option{WithFilename("broken.cue")},
			wantErr:   true,
			errSubstr: "broken.cue",
		},
		{
			name:      "size limit",
			data:      `name: "core"`,
			opts:      []Option{WithMaxFileSize(4)},
			wantErr:   true,
			errSubstr: "exceeds maximum",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(tt.data), "#Settings", tt.opts...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.errSubstr != "" && !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error %q does not contain %q", err, tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := *res.Value
			if got.Name != tt.want.Name || got.Attempts != tt.want.Attempts || len(got.Tags) != len(tt.want.Tags) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !res.Unified.Exists() {
				t.Error("unified value should exist")
			}
		})
	}
}

func TestParseAndDecode_NonConcrete(t *testing.T) {
	t.Parallel()

	schema := `#Partial: { name?: string }`
	res, err := ParseAndDecode[map[string]any]([]byte(schema), []byte(`{}`), "#Partial", WithConcrete(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*res.Value) != 0 {
		t.Errorf("expected empty map, got %v", *res.Value)
	}
}

func TestParseAndDecode_UnknownDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[testSettings]([]byte(testSchema), []byte(`name: "x"`), "#Missing")
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.cue")
	if err := os.WriteFile(path, []byte(`name: "file"`), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := ParseFile[testSettings]([]byte(testSchema), path, "#Settings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value.Name != "file" {
		t.Errorf("Name = %q", res.Value.Name)
	}

	if _, err := ParseFile[testSettings]([]byte(testSchema), path, "#Settings", WithMaxFileSize(2)); err == nil {
		t.Error("expected size error")
	}
	_, err = ParseFile[testSettings]([]byte(testSchema), filepath.Join(dir, "missing.cue"), "#Settings")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("nil error should stay nil")
	}
	err := FormatError(errors.New("boom"), "x.cue")
	if err == nil || err.Error() != "x.cue: boom" {
		t.Errorf("got %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"loader"}, "loader"},
		{[]string{"modules", "priorities", "0", "module"}, "modules.priorities[0].module"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize([]byte("abc"), 3, "a.cue"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckFileSize([]byte("abcd"), 3, "a.cue"); err == nil {
		t.Error("expected error")
	}
}
