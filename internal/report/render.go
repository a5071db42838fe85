// SPDX-License-Identifier: MPL-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/loomkit/loom/internal/catalog"
)

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

var (
	// Formats lists every supported output format.
	Formats = []Format{FormatText, FormatMarkdown, FormatJSON, FormatYAML}

	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorSuccess = lipgloss.Color("#10B981")
	colorMuted   = lipgloss.Color("#6B7280")
	colorVerbose = lipgloss.Color("#9CA3AF")
)

type (
	// Format is an output format.
	Format string

	// Options controls rendering.
	Options struct {
		// Verbose adds full causal chains and info-level diagnostics.
		Verbose bool
		// Styled colors text output with lipgloss.
		Styled bool
		// MarkdownStyle, when set, renders Markdown through glamour with the
		// given style ("auto", "dark", "notty", ...). Empty writes raw Markdown.
		MarkdownStyle string
	}

	textStyles struct {
		header, failure, warning, success, muted, verbose lipgloss.Style
	}

	document struct {
		RunID       string          `json:"run_id" yaml:"run_id"`
		Universe    string          `json:"universe" yaml:"universe"`
		Succeeded   bool            `json:"succeeded" yaml:"succeeded"`
		Summary     Summary         `json:"summary" yaml:"summary"`
		Failures    []failureDoc    `json:"failures" yaml:"failures"`
		Cycles      [][]string      `json:"cycles,omitempty" yaml:"cycles,omitempty"`
		Diagnostics []diagnosticDoc `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	}

	failureDoc struct {
		Phase    Phase    `json:"phase" yaml:"phase"`
		Category string   `json:"category" yaml:"category"`
		Type     string   `json:"type" yaml:"type"`
		Module   string   `json:"module,omitempty" yaml:"module,omitempty"`
		Kind     Kind     `json:"kind" yaml:"kind"`
		Attempts int      `json:"attempts" yaml:"attempts"`
		Error    string   `json:"error" yaml:"error"`
		Chain    []string `json:"chain" yaml:"chain"`
		Cycle    []string `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	}

	diagnosticDoc struct {
		Severity catalog.Severity `json:"severity" yaml:"severity"`
		Code     string           `json:"code" yaml:"code"`
		Message  string           `json:"message" yaml:"message"`
		Module   string           `json:"module,omitempty" yaml:"module,omitempty"`
	}
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (want text, markdown, json or yaml)", s)
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, format Format, opts Options) error {
	var (
		out string
		err error
	)
	switch format {
	case FormatText, "":
		out = Text(r, opts)
	case FormatMarkdown:
		out, err = Markdown(r, opts)
	case FormatJSON:
		out, err = JSON(r)
	case FormatYAML:
		out, err = YAML(r)
	default:
		_, err = ParseFormat(string(format))
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func newTextStyles(styled bool) textStyles {
	if !styled {
		plain := lipgloss.NewStyle()
		return textStyles{plain, plain, plain, plain, plain, plain}
	}
	return textStyles{
		header:  lipgloss.NewStyle().Bold(true),
		failure: lipgloss.NewStyle().Bold(true).Foreground(colorError),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		success: lipgloss.NewStyle().Foreground(colorSuccess),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		verbose: lipgloss.NewStyle().Foreground(colorVerbose),
	}
}

// Text renders the human-readable report written to the error stream.
func Text(r *Report, opts Options) string {
	st := newTextStyles(opts.Styled)
	var b strings.Builder

	if !r.HasFailures() {
		fmt.Fprintf(&b, "%s universe %q loaded: %d initialized, %d finished in %d+%d passes\n",
			st.success.Render("✓"), r.Universe, r.Summary.Initialized, r.Summary.Finished,
			r.Summary.InitializationPasses, r.Summary.FinalizationPasses)
	} else {
		b.WriteString(st.header.Render(fmt.Sprintf("%d failure(s) while loading universe %q", len(r.Failures), r.Universe)))
		b.WriteString("\n")
		b.WriteString(st.muted.Render(fmt.Sprintf("run %s: %d initialized, %d finished, %d+%d passes",
			r.RunID, r.Summary.Initialized, r.Summary.Finished, r.Summary.InitializationPasses, r.Summary.FinalizationPasses)))
		b.WriteString("\n")
	}

	for i := range r.Failures {
		f := &r.Failures[i]
		b.WriteString("\n")
		b.WriteString(st.failure.Render("✗ " + fmt.Sprintf("[%s] %s %s", f.Phase, f.Category, f.ID)))
		if f.Module != "" {
			b.WriteString(st.muted.Render(" (module " + f.Module + ")"))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "    %s after %d attempt(s)", f.Kind, f.Attempts)
		if f.Err != nil {
			b.WriteString(": " + firstLine(f.Err.Error()))
		}
		b.WriteString("\n")
		if len(f.Cycle) > 0 {
			b.WriteString(st.warning.Render("    cycle: " + strings.Join(f.Cycle, " -> ")))
			b.WriteString("\n")
		}
		if opts.Verbose {
			for j, link := range f.Chain() {
				b.WriteString(st.verbose.Render(fmt.Sprintf("      %d. %s", j+1, link)))
				b.WriteString("\n")
			}
		}
	}

	diags := visibleDiagnostics(r.Diagnostics, opts.Verbose)
	if len(diags) > 0 {
		b.WriteString("\n")
		for _, d := range diags {
			b.WriteString(st.warning.Render(fmt.Sprintf("%s: %s", d.Severity, d.Message)))
			b.WriteString(st.muted.Render(" [" + d.Code + "]"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders the report as Markdown, through glamour when opts.MarkdownStyle is set.
func Markdown(r *Report, opts Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Load report: %s\n\n", r.Universe)
	fmt.Fprintf(&b, "Run `%s`\n\n", r.RunID)
	b.WriteString("| Modules | Candidates | Initialized | Finished | Passes | Frozen |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d + %d | %t |\n",
		r.Summary.Modules, r.Summary.Candidates, r.Summary.Initialized, r.Summary.Finished,
		r.Summary.InitializationPasses, r.Summary.FinalizationPasses, r.Summary.Frozen)

	if r.HasFailures() {
		fmt.Fprintf(&b, "\n## Failures (%d)\n", len(r.Failures))
		for i := range r.Failures {
			f := &r.Failures[i]
			fmt.Fprintf(&b, "\n### `%s`\n\n", f.ID)
			fmt.Fprintf(&b, "- phase: %s\n- category: %s\n- kind: **%s** after %d attempt(s)\n", f.Phase, f.Category, f.Kind, f.Attempts)
			if f.Module != "" {
				fmt.Fprintf(&b, "- module: %s\n", f.Module)
			}
			if len(f.Cycle) > 0 {
				fmt.Fprintf(&b, "- cycle: %s\n", strings.Join(f.Cycle, " → "))
			}
			if chain := f.Chain(); len(chain) > 0 {
				b.WriteString("\n~~~\n")
				limit := len(chain)
				if !opts.Verbose {
					limit = 1
				}
				for _, link := range chain[:limit] {
					b.WriteString(link + "\n")
				}
				b.WriteString("~~~\n")
			}
		}
	} else {
		b.WriteString("\nAll candidates loaded.\n")
	}

	if diags := visibleDiagnostics(r.Diagnostics, opts.Verbose); len(diags) > 0 {
		b.WriteString("\n## Diagnostics\n\n")
		for _, d := range diags {
			fmt.Fprintf(&b, "- **%s** `%s`: %s\n", d.Severity, d.Code, d.Message)
		}
	}

	md := b.String()
	if opts.MarkdownStyle == "" {
		return md, nil
	}
	return glamour.Render(md, opts.MarkdownStyle)
}

// JSON renders the report as indented JSON.
func JSON(r *Report) (string, error) {
	data, err := json.MarshalIndent(newDocument(r), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// YAML renders the report as YAML.
func YAML(r *Report) (string, error) {
	data, err := yaml.Marshal(newDocument(r))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newDocument(r *Report) document {
	doc := document{
		RunID:     r.RunID,
		Universe:  r.Universe,
		Succeeded: !r.HasFailures(),
		Summary:   r.Summary,
		Failures:  make([]failureDoc, 0, len(r.Failures)),
		Cycles:    r.Cycles,
	}
	for i := range r.Failures {
		f := &r.Failures[i]
		fd := failureDoc{
			Phase:    f.Phase,
			Category: f.Category.String(),
			Type:     f.ID.String(),
			Module:   f.Module,
			Kind:     f.Kind,
			Attempts: f.Attempts,
			Chain:    f.Chain(),
			Cycle:    f.Cycle,
		}
		if f.Err != nil {
			fd.Error = f.Err.Error()
		}
		doc.Failures = append(doc.Failures, fd)
	}
	for _, d := range r.Diagnostics {
		doc.Diagnostics = append(doc.Diagnostics, diagnosticDoc{Severity: d.Severity, Code: d.Code, Message: d.Message, Module: d.Module})
	}
	return doc
}

func visibleDiagnostics(diags []catalog.Diagnostic, verbose bool) []catalog.Diagnostic {
	if verbose {
		return diags
	}
	var out []catalog.Diagnostic
	for _, d := range diags {
		if d.Severity != catalog.SeverityInfo {
			out = append(out, d)
		}
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
