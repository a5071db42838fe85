// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/issue"
	"github.com/loomkit/loom/pkg/universe"
)

type (
	sword  struct{ universe.ModelBase }
	shield struct{ universe.ModelBase }
)

var errBroken = errors.New("broken validator")

func sampleReport() *Report {
	return &Report{
		RunID:    "run-1",
		Universe: "test",
		Summary:  Summary{Modules: 2, Candidates: 4, Initialized: 2, InitializationPasses: 3, FinalizationPasses: 1},
		Failures: []Failure{
			{
				Phase:    PhaseInitialize,
				Category: catalog.CategoryModel,
				ID:       universe.IDOf[sword](),
				Module:   "arms",
				Kind:     KindMissingDependency,
				Attempts: 3,
				Err:      &universe.MissingDependencyError{Dependency: universe.IDOf[shield]()},
				Cycle:    []string{"report.sword", "report.shield"},
			},
			{
				Phase:    PhaseInitialize,
				Category: catalog.CategoryComponent,
				ID:       universe.IDOf[shield](),
				Module:   "arms",
				Kind:     KindCannotInitialize,
				Attempts: 1,
				Err:      fmt.Errorf("build shield: %w", errBroken),
			},
		},
		Cycles: [][]string{{"report.sword", "report.shield"}},
		Diagnostics: []catalog.Diagnostic{
			{Severity: catalog.SeverityWarning, Code: "declaration_uncategorized", Message: "plain skipped", Module: "arms"},
			{Severity: catalog.SeverityInfo, Code: "declaration_excluded", Message: "old excluded", Module: "arms"},
		},
	}
}

func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind      Kind
		transient bool
		issue     issue.Id
	}{
		{KindMissingDependency, true, issue.MissingDependencyId},
		{KindFailedToConfigure, true, issue.FailedToConfigureId},
		{KindCannotInitialize, false, issue.CannotInitializeId},
		{KindConfiguration, false, issue.ModificationRejectedId},
	}
	for _, tt := range tests {
		if got := tt.kind.Transient(); got != tt.transient {
			t.Errorf("%s.Transient() = %v", tt.kind, got)
		}
		if got := tt.kind.Issue(); got != tt.issue {
			t.Errorf("%s.Issue() = %v", tt.kind, got)
		}
	}
}

func TestAggregateError(t *testing.T) {
	t.Parallel()

	r := sampleReport()
	err := r.Err()
	var agg *AggregateError
	if !errors.As(err, &agg) {
		t.Fatalf("Err() = %T, want *AggregateError", err)
	}
	if !errors.Is(err, errBroken) {
		t.Error("aggregate should expose wrapped failure causes")
	}
	var missing *universe.MissingDependencyError
	if !errors.As(err, &missing) {
		t.Error("aggregate should expose *MissingDependencyError")
	}
	var failure *Failure
	if !errors.As(err, &failure) || failure.ID != universe.IDOf[sword]() {
		t.Errorf("first failure = %v", failure)
	}
	if !strings.Contains(err.Error(), "2 failures") || !strings.Contains(err.Error(), "(and 1 more)") {
		t.Errorf("Error() = %q", err.Error())
	}

	if (&Report{}).Err() != nil {
		t.Error("Err() without failures should be nil")
	}
	counts := r.CountByKind()
	if counts[KindMissingDependency] != 1 || counts[KindCannotInitialize] != 1 {
		t.Errorf("CountByKind() = %v", counts)
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	out := Text(sampleReport(), Options{})
	for _, want := range []string{
		`2 failure(s) while loading universe "test"`,
		"✗ [initialize] model report.sword (module arms)",
		"missing_dependency after 3 attempt(s): dependency report.shield is not initialized",
		"cycle: report.sword -> report.shield",
		"warning: plain skipped [declaration_uncategorized]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Text() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "old excluded") {
		t.Error("info diagnostics should only show when verbose")
	}
	if strings.Contains(out, "1. ") {
		t.Error("chains should only show when verbose")
	}

	verbose := Text(sampleReport(), Options{Verbose: true})
	for _, want := range []string{"old excluded", "1. build shield: broken validator", "2. broken validator"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("verbose Text() missing %q:\n%s", want, verbose)
		}
	}
}

func TestText_Success(t *testing.T) {
	t.Parallel()

	r := &Report{Universe: "ok", Summary: Summary{Initialized: 5, Finished: 2, InitializationPasses: 2, FinalizationPasses: 1}}
	out := Text(r, Options{Styled: true})
	if !strings.Contains(out, `universe "ok" loaded: 5 initialized, 2 finished in 2+1 passes`) {
		t.Errorf("Text() = %q", out)
	}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	md, err := Markdown(sampleReport(), Options{})
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	for _, want := range []string{"# Load report: test", "## Failures (2)", "### `report.sword`", "- kind: **missing_dependency** after 3 attempt(s)"} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, md)
		}
	}

	rendered, err := Markdown(sampleReport(), Options{MarkdownStyle: "notty"})
	if err != nil {
		t.Fatalf("glamour Markdown() error = %v", err)
	}
	if !strings.Contains(rendered, "report.sword") {
		t.Errorf("rendered Markdown missing type:\n%s", rendered)
	}
}

func TestJSONAndYAML(t *testing.T) {
	t.Parallel()

	j, err := JSON(sampleReport())
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var fromJSON document
	if err := json.Unmarshal([]byte(j), &fromJSON); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	y, err := YAML(sampleReport())
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	var fromYAML document
	if err := yaml.Unmarshal([]byte(y), &fromYAML); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}

	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Errorf("JSON and YAML documents differ:\n%+v\n%+v", fromJSON, fromYAML)
	}
	if fromJSON.Succeeded || len(fromJSON.Failures) != 2 {
		t.Errorf("document = %+v", fromJSON)
	}
	f := fromJSON.Failures[1]
	if f.Kind != KindCannotInitialize || f.Category != "component" || len(f.Chain) != 2 {
		t.Errorf("failure document = %+v", f)
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	for _, format := range Formats {
		var buf bytes.Buffer
		if err := Write(&buf, sampleReport(), format, Options{}); err != nil {
			t.Errorf("Write(%s) error = %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) wrote nothing", format)
		}
	}
	if err := Write(&bytes.Buffer{}, sampleReport(), Format("xml"), Options{}); err == nil {
		t.Error("Write(xml) should fail")
	}
	if _, err := ParseFormat("yaml"); err != nil {
		t.Errorf("ParseFormat(yaml) error = %v", err)
	}
}
