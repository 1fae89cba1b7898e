package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/verokit/internal/cli/output"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/leapstack-labs/verokit/pkg/snippet"
	"github.com/spf13/cobra"
)

// ComposeOptions holds options for the compose command.
type ComposeOptions struct {
	Indent      string
	Interactive bool
}

// composeOutput is the JSON shape of a composed statement.
type composeOutput struct {
	ActionID string                   `json:"actionId"`
	Text     string                   `json:"text"`
	Values   map[string]snippet.Value `json:"values"`
}

// ErrMissingSlots is returned when required slots have no value.
var ErrMissingSlots = errors.New("missing slot values")

// NewComposeCommand creates the compose command.
func NewComposeCommand() *cobra.Command {
	opts := &ComposeOptions{}

	cmd := &cobra.Command{
		Use:   "compose <action-id> [slot=value...]",
		Short: "Compose a statement from an action",
		Long: `Build the statement an action produces from slot values.

Values are validated the way the builder popups validate them: integers are
normalized, key names and choices take their catalog spelling, and targets
must be Page.field or a selector such as CSS "#email".

With --interactive, every slot without a value is prompted for, with tab
completion of options, key names and page members.`,
		Example: `  # Compose a FILL statement
  verokit compose fill target=LoginPage.email value=a@b.com

  # Raw selector target
  verokit compose click 'target=CSS "#submit"'

  # Prompt for the slots
  verokit compose verify -i`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			cat, err := NewCommandContext(cmd).Catalog()
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			ids := make([]string, 0, cat.Len())
			for _, a := range cat.Actions() {
				ids = append(ids, a.ID+"\t"+a.Label)
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Indent, "indent", "", "Prefix for the composed line")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for slots without a value")

	return cmd
}

func runCompose(cmd *cobra.Command, actionID string, assignments []string, opts *ComposeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	cat, err := cmdCtx.Catalog()
	if err != nil {
		return err
	}
	action, ok := cat.Lookup(actionID)
	if !ok {
		return fmt.Errorf("unknown action %q (see 'verokit actions')", actionID)
	}
	switch {
	case action.Handoff:
		return fmt.Errorf("%s hands off to the recorder and has no statement", action.ID)
	case action.IsHook():
		return fmt.Errorf("%s inserts a hook block; use 'verokit hook --kind %s'", action.ID, action.Hook)
	}

	raw, err := parseAssignments(action, assignments)
	if err != nil {
		return err
	}

	values := make(map[string]snippet.Value, len(action.Slots))
	var errs []error
	for _, slot := range action.Slots {
		text, given := raw[slot.ID]
		if !given {
			continue
		}
		v, err := snippet.Resolve(slot, text)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values[slot.ID] = v
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if opts.Interactive {
		idx, err := cmdCtx.PageIndex()
		if err != nil {
			return err
		}
		if err := promptSlots(cmd, action, values, idx.Snapshot()); err != nil {
			return err
		}
	}

	text, ready := snippet.Build(action, values, opts.Indent)
	if !ready {
		return fmt.Errorf("%w: %s", ErrMissingSlots, strings.Join(missingSlots(action, values), ", "))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(composeOutput{ActionID: action.ID, Text: text, Values: values})
	case output.ModeMarkdown:
		r.Println(output.FormatCode("vero", text))
	default:
		r.Println(text)
	}
	return nil
}

// parseAssignments splits slot=value arguments. Unknown slots are errors.
func parseAssignments(action catalog.ActionDef, args []string) (map[string]string, error) {
	raw := make(map[string]string, len(args))
	for _, arg := range args {
		id, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected slot=value, got %q", arg)
		}
		if _, known := action.Slot(id); !known {
			return nil, fmt.Errorf("%s has no slot %q (slots: %s)", action.ID, id, strings.Join(slotIDs(action), ", "))
		}
		raw[id] = value
	}
	return raw, nil
}

func slotIDs(action catalog.ActionDef) []string {
	ids := make([]string, 0, len(action.Slots))
	for _, s := range action.Slots {
		ids = append(ids, s.ID)
	}
	return ids
}

// missingSlots lists required slots without a value, in slot order.
func missingSlots(action catalog.ActionDef, values map[string]snippet.Value) []string {
	var out []string
	for _, s := range action.Slots {
		if _, ok := values[s.ID]; !ok && !s.Optional {
			out = append(out, s.ID)
		}
	}
	return out
}
