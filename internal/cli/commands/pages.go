package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/verokit/internal/cli/output"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/spf13/cobra"
)

// NewPagesCommand creates the pages command.
func NewPagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List the page objects offered to target popups",
		Long: `List the pages found under pages_dir, with the fields and actions that
target and action popups offer as Page.member completions.`,
		Example: `  # List pages
  verokit pages

  # From another directory, as JSON
  verokit pages --pages-dir e2e/pages --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPages(cmd)
		},
	}
	return cmd
}

func runPages(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	idx, err := cmdCtx.PageIndex()
	if err != nil {
		return err
	}
	all := idx.Snapshot().All()
	if all == nil {
		all = []pages.Page{}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(all)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Pages (%d)", len(all))))
		for _, p := range all {
			r.Println("")
			r.Println(output.FormatHeader(2, p.Name))
			r.Println("")
			r.Println(output.FormatKeyValue("File", relPath(cmdCtx.Cfg.ProjectRoot, p.File)))
			r.Println(output.FormatKeyValue("Fields", joinOrNone(fieldNames(p))))
			r.Println(output.FormatKeyValue("Actions", joinOrNone(actionNames(p))))
		}
		return nil
	}

	if len(all) == 0 {
		r.Muted(fmt.Sprintf("No pages found in %s", idx.Dir()))
		return nil
	}
	r.Header(1, fmt.Sprintf("Pages (%d)", len(all)))

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Page", "Fields", "Actions", "File"})
	for _, p := range all {
		t.AppendRow(table.Row{
			p.Name,
			joinOrNone(fieldNames(p)),
			joinOrNone(actionNames(p)),
			fmt.Sprintf("%s:%d", relPath(cmdCtx.Cfg.ProjectRoot, p.File), p.Line),
		})
	}
	t.Render()
	return nil
}

func fieldNames(p pages.Page) []string {
	names := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		names = append(names, f.Name)
	}
	return names
}

func actionNames(p pages.Page) []string {
	names := make([]string, 0, len(p.Actions))
	for _, a := range p.Actions {
		names = append(names, a.Name)
	}
	return names
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// relPath shortens path against root when it lies below it.
func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
