// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	var (
		style string
		raw   bool
	)
	cmd := &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain a failure kind or error",
		Long: `Show the help page for an issue. Without an argument, list every issue.

Failure kinds in a load report and errors printed by loom name the page to read,
for example: loom explain missing-dependency`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var slugs []string
			for _, iss := range issue.Values() {
				slugs = append(slugs, iss.Slug())
			}
			return slugs, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listIssues(app.stdout)
			}
			iss, ok := issue.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown issue %q (run 'loom explain' to list them)", args[0])
			}
			if raw {
				_, err := io.WriteString(app.stdout, iss.Markdown()+"\n")
				return err
			}
			rendered, err := iss.Render(style)
			if err != nil {
				return err
			}
			_, err = io.WriteString(app.stdout, rendered)
			return err
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style: dark, light, notty or a style file")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source")
	return cmd
}

func listIssues(w io.Writer) error {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Issues") + "\n")
	for _, iss := range issue.Values() {
		fmt.Fprintf(&b, "  %s  %s\n", KeyStyle.Render(fmt.Sprintf("%-28s", iss.Slug())), SubtitleStyle.Render(title(iss)))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// title returns the first markdown heading of the page.
func title(iss *issue.Issue) string {
	for line := range strings.SplitSeq(string(iss.MarkdownMsg()), "\n") {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return h
		}
	}
	return ""
}
