package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/internal/slash"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/leapstack-labs/verokit/pkg/snippet"
	"github.com/spf13/cobra"
)

// errAborted is returned when the user interrupts the prompts.
var errAborted = errors.New("aborted")

// promptSlots asks for every slot without a value, in slot order, until
// each answer validates. Optional slots accept an empty answer.
func promptSlots(cmd *cobra.Command, action catalog.ActionDef, values map[string]snippet.Value, snap *pages.Snapshot) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize prompt: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", action.Label, action.SlotTemplate)

	for _, slot := range action.Slots {
		if _, done := values[slot.ID]; done {
			continue
		}

		cfg := rl.Config.Clone()
		cfg.Prompt = slotPrompt(slot)
		cfg.AutoComplete = slotCompleter(slot, snap)
		rl.SetConfig(cfg)

		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return errAborted
			}
			if err != nil {
				return err
			}

			v, err := snippet.Resolve(slot, line)
			if err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				continue
			}
			values[slot.ID] = v
			break
		}
	}
	return nil
}

func slotPrompt(slot catalog.SlotDef) string {
	if slot.Optional {
		return fmt.Sprintf("%s (%s, optional)> ", slot.Label, slot.Kind)
	}
	return fmt.Sprintf("%s (%s)> ", slot.Label, slot.Kind)
}

// slotCompleter completes the values the slot's popup would list.
func slotCompleter(slot catalog.SlotDef, snap *pages.Snapshot) readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range slotCandidates(slot, snap) {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

// slotCandidates lists what the slot's popup offers.
func slotCandidates(slot catalog.SlotDef, snap *pages.Snapshot) []string {
	return slash.Suggestions(slash.NewPopup(slot, editor.ScreenPos{}, snap, ""))
}
