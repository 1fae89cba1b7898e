package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/verokit/internal/cli/output"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/spf13/cobra"
)

// ActionsOptions holds options for the actions command.
type ActionsOptions struct {
	Category string
}

// actionGroupJSON is the JSON shape of one palette group.
type actionGroupJSON struct {
	Category string              `json:"category"`
	Title    string              `json:"title"`
	Actions  []catalog.ActionDef `json:"actions"`
}

// NewActionsCommand creates the actions command.
func NewActionsCommand() *cobra.Command {
	opts := &ActionsOptions{}

	cmd := &cobra.Command{
		Use:   "actions [query]",
		Short: "List the palette actions",
		Long: `List the actions offered by the slash palette, grouped by category.

A query filters actions the way the palette does: by label, keyword prefix
or description.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List every action
  verokit actions

  # Actions matching "wa"
  verokit actions wa

  # Only assertions, as JSON
  verokit actions --category assertion --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return runActions(cmd, query, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "Only list actions of this category")
	_ = cmd.RegisterFlagCompletionFunc("category", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(catalog.Categories()))
		for _, c := range catalog.Categories() {
			names = append(names, c.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runActions(cmd *cobra.Command, query string, opts *ActionsOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	cat, err := cmdCtx.Catalog()
	if err != nil {
		return err
	}

	actions := cat.Filter(query)
	if opts.Category != "" {
		want, ok := catalog.ParseCategory(opts.Category)
		if !ok {
			return fmt.Errorf("unknown category %q", opts.Category)
		}
		kept := actions[:0]
		for _, a := range actions {
			if a.Category == want {
				kept = append(kept, a)
			}
		}
		actions = kept
	}
	groups := catalog.GroupByCategory(actions)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := make([]actionGroupJSON, 0, len(groups))
		for _, g := range groups {
			out = append(out, actionGroupJSON{
				Category: g.Category.String(),
				Title:    g.Category.Title(),
				Actions:  g.Actions,
			})
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		actionsMarkdown(r, groups, len(actions))
		return nil
	default:
		actionsText(r, groups, len(actions))
		return nil
	}
}

// actionsText renders one table with a separator between categories.
func actionsText(r *output.Renderer, groups []catalog.Group, total int) {
	if total == 0 {
		r.Muted("No matching actions")
		return
	}
	r.Header(1, fmt.Sprintf("Actions (%d)", total))
	renderActionsTable(r.Writer(), groups)
}

func renderActionsTable(w io.Writer, groups []catalog.Group) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "ID", "Label", "Statement"})

	for i, g := range groups {
		if i > 0 {
			t.AppendSeparator()
		}
		for j, a := range g.Actions {
			category := ""
			if j == 0 {
				category = g.Category.Title()
			}
			t.AppendRow(table.Row{category, a.ID, a.Label, statementPreview(a)})
		}
	}
	t.Render()
}

func actionsMarkdown(r *output.Renderer, groups []catalog.Group, total int) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Actions (%d)", total)))
	for _, g := range groups {
		r.Println("")
		r.Println(output.FormatHeader(2, g.Category.Title()))
		r.Println("")
		for _, a := range g.Actions {
			line := fmt.Sprintf("- `%s` **%s**", a.ID, a.Label)
			if a.Description != "" {
				line += ": " + a.Description
			}
			r.Println(line)
			if preview := statementPreview(a); preview != "" {
				r.Printf("  `%s`\n", preview)
			}
		}
	}
}

// statementPreview shows what the action writes into the editor.
func statementPreview(a catalog.ActionDef) string {
	switch {
	case a.IsHook():
		return a.Hook.Header() + " { }"
	case a.Handoff:
		return "(opens the recorder)"
	default:
		return strings.TrimSpace(a.SlotTemplate)
	}
}
