package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/verokit/internal/cli/output"
	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/hooks"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/spf13/cobra"
)

// HookOptions holds options for the hook command.
type HookOptions struct {
	Line  int
	Kind  string
	Write bool
}

// hookOutput is the JSON shape of a hook insertion.
type hookOutput struct {
	File     string          `json:"file"`
	Kind     string          `json:"kind"`
	Applied  bool            `json:"applied"`
	Inserted bool            `json:"inserted"`
	Line     int             `json:"line"`
	Cursor   editor.Position `json:"cursor"`
	Written  bool            `json:"written"`
	Text     string          `json:"text,omitempty"`
}

// ErrNoFeature is returned when the file has no usable FEATURE block.
var ErrNoFeature = errors.New("no FEATURE block")

// NewHookCommand creates the hook command.
func NewHookCommand() *cobra.Command {
	opts := &HookOptions{}

	cmd := &cobra.Command{
		Use:   "hook <file>",
		Short: "Insert a lifecycle hook into a feature",
		Long: `Insert a BEFORE ALL, BEFORE EACH, AFTER EACH or AFTER ALL block into the
FEATURE containing --line (or the first FEATURE in the file).

Hooks are kept in canonical order ahead of the first SCENARIO. When the hook
already exists nothing changes and its body line is reported.

Without --write the updated script is printed.`,
		Example: `  # Print the script with a BEFORE EACH block added
  verokit hook tests/login.vero --kind beforeEach

  # Edit the file in place
  verokit hook tests/login.vero --line 12 --kind after-all --write`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Line, "line", "l", 1, "1-based line inside the feature")
	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "Hook kind (beforeAll, beforeEach, afterEach, afterAll)")
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write the result back to the file")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		kinds := make([]string, 0, len(catalog.HookKinds()))
		for _, k := range catalog.HookKinds() {
			kinds = append(kinds, k.String())
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runHook(cmd *cobra.Command, path string, opts *HookOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	kind, ok := catalog.ParseHookKind(opts.Kind)
	if !ok {
		return fmt.Errorf("unknown hook kind %q", opts.Kind)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a user-supplied script
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	buf := editor.NewMemory(string(data))
	if opts.Line < 1 || opts.Line > buf.LineCount() {
		return fmt.Errorf("line %d is outside %s (%d lines)", opts.Line, path, buf.LineCount())
	}

	ins := hooks.NewInserter(buf, cmdCtx.Logger)
	ins.IndentUnit = cmdCtx.Cfg.IndentUnit
	res := ins.Apply(opts.Line, kind)
	if !res.Applied {
		return fmt.Errorf("%s: %w around line %d", path, ErrNoFeature, opts.Line)
	}

	written := false
	if opts.Write && res.Inserted {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(buf.Text()), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = true
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := hookOutput{
			File:     path,
			Kind:     kind.String(),
			Applied:  res.Applied,
			Inserted: res.Inserted,
			Line:     res.Line,
			Cursor:   res.Cursor,
			Written:  written,
		}
		if !opts.Write {
			out.Text = buf.Text()
		}
		return r.JSON(out)
	}

	if opts.Write {
		if res.Inserted {
			r.Success(fmt.Sprintf("Inserted %s at %s:%d", kind.Header(), path, res.Line))
		} else {
			r.Muted(fmt.Sprintf("%s already exists at %s:%d", kind.Header(), path, res.Line))
		}
		return nil
	}
	r.Printf("%s", buf.Text())
	if !strings.HasSuffix(buf.Text(), "\n") {
		r.Println("")
	}
	return nil
}
