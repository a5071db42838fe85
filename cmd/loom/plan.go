// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/catalog"
	"github.com/loomkit/loom/internal/loader"
)

func newPlanCommand(app *App) *cobra.Command {
	var flags loadFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the load order without constructing anything",
		Long: `Resolve the module order and catalog, then group the candidates by
declared dependency depth. A candidate in wave n initializes in pass n+1 at the
earliest. Declared dependency cycles are listed; their members cannot load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.displayError(err)
			}
			flags.apply(cmd, cfg)

			preview, err := loader.PreviewLoad(app.Modules(), cfg.Settings(app.WorkDir))
			if err != nil {
				return app.classifyLoadError(err)
			}
			return renderPlan(app.stdout, preview, app.verbose)
		},
	}
	cmd.Flags().StringVar(&flags.orderFile, "order-file", "", "order file (.cue or .toml) with module priorities")
	cmd.Flags().StringSliceVar(&flags.prefixes, "prefix", nil, "plan only modules whose name starts with a prefix")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "skip the named modules")
	return cmd
}

func renderPlan(w io.Writer, p *loader.Preview, verbose bool) error {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Modules") + "\n")
	for i, entry := range p.Catalog.Modules() {
		var parts []string
		for _, cat := range []catalog.Category{
			catalog.CategoryEnumeration,
			catalog.CategoryComponent,
			catalog.CategoryArchetype,
			catalog.CategoryModel,
			catalog.CategoryModification,
		} {
			if n := len(entry.Of(cat)); n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, cat))
			}
		}
		summary := strings.Join(parts, ", ")
		if summary == "" {
			summary = "no candidates"
		}
		fmt.Fprintf(&b, "  %d. %s %s\n", i+1, KeyStyle.Render(entry.Name), SubtitleStyle.Render("("+summary+")"))
	}

	b.WriteString("\n" + TitleStyle.Render("Initialization waves") + "\n")
	if len(p.Levels) == 0 {
		b.WriteString("  " + SubtitleStyle.Render("(nothing to initialize)") + "\n")
	}
	for i, level := range p.Levels {
		fmt.Fprintf(&b, "  pass %d: %s\n", i+1, strings.Join(level, ", "))
	}

	if len(p.Cycles) > 0 {
		b.WriteString("\n" + ErrorStyle.Render("Dependency cycles") + "\n")
		for _, c := range p.Cycles {
			fmt.Fprintf(&b, "  %s -> %s\n", strings.Join(c, " -> "), c[0])
		}
	}

	var shown []catalog.Diagnostic
	for _, d := range p.Diagnostics {
		if verbose || d.Severity == catalog.SeverityWarning {
			shown = append(shown, d)
		}
	}
	if len(shown) > 0 {
		b.WriteString("\n" + WarningStyle.Render("Diagnostics") + "\n")
		for _, d := range shown {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", d.Severity, d.Code, d.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
