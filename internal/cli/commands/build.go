package commands

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/verokit/internal/cli/output"
	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/slash"
	"github.com/leapstack-labs/verokit/internal/tui"
	"github.com/spf13/cobra"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Line  int
	Write bool
}

// buildOutput is the JSON shape of a finished build.
type buildOutput struct {
	File      string `json:"file"`
	Action    string `json:"actionId,omitempty"`
	Completed bool   `json:"completed"`
	Handoff   bool   `json:"handoff,omitempty"`
	Line      int    `json:"line,omitempty"`
	Statement string `json:"statement,omitempty"`
	Written   bool   `json:"written"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build a statement interactively",
		Long: `Open the action palette on --line of a script and fill the chosen
statement one blank at a time, with page fields and actions offered from the
page index.

A blank line (or one holding only the trigger) takes the statement; otherwise
it goes on a new line below. Without --write the finished statement is printed.`,
		Example: `  # Pick an action for line 3 and print it
  verokit build tests/login.vero --line 3

  # Insert it into the file
  verokit build tests/login.vero -l 3 -w`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Line, "line", "l", 1, "1-based line to build on")
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write the result back to the file")

	return cmd
}

func runBuild(cmd *cobra.Command, path string, opts *BuildOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	cat, err := cmdCtx.Catalog()
	if err != nil {
		return err
	}
	idx, err := cmdCtx.PageIndex()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a user-supplied script
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	buf := editor.NewMemory(string(data), cmdCtx.BufferOptions()...)
	if opts.Line < 1 || opts.Line > buf.LineCount() {
		return fmt.Errorf("line %d is outside %s (%d lines)", opts.Line, path, buf.LineCount())
	}
	line := tui.PrepareTriggerLine(buf, opts.Line, cmdCtx.Cfg.Trigger, cmdCtx.Cfg.IndentUnit)

	sess := slash.NewSession(buf, slash.Options{
		Trigger:    cmdCtx.Cfg.Trigger,
		IndentUnit: cmdCtx.Cfg.IndentUnit,
		Logger:     cmdCtx.Logger,
	})
	model := tui.New(sess, buf, cat, idx.Snapshot(), line)

	prog := tea.NewProgram(model,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.ErrOrStderr()),
	)
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("builder failed: %w", err)
	}
	if err := model.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	res := model.Result()

	written := false
	if res.Completed && opts.Write {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(buf.Text()), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = true
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(buildOutput{
			File:      path,
			Action:    res.Action,
			Completed: res.Completed,
			Handoff:   res.Handoff,
			Line:      res.Line,
			Statement: res.Statement,
			Written:   written,
		})
	}

	switch {
	case res.Handoff:
		r.Warning("The recorder runs in the editor; nothing was written")
	case !res.Completed:
		r.Muted("Cancelled")
	case written:
		r.Success(fmt.Sprintf("Wrote %s:%d", path, res.Line))
	default:
		r.Println(res.Statement)
	}
	return nil
}
