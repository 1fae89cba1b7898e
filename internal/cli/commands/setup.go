// Package commands implements the verokit CLI commands.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/verokit/internal/cli/config"
	"github.com/leapstack-labs/verokit/internal/cli/output"
	"github.com/leapstack-labs/verokit/internal/editor"
	"github.com/leapstack-labs/verokit/internal/pages"
	"github.com/leapstack-labs/verokit/pkg/catalog"
	"github.com/spf13/cobra"
)

// CommandContext holds the dependencies shared by commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	mode, _ := output.ParseMode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Catalog returns the built-in catalog extended with the configured
// actions files.
func (c *CommandContext) Catalog() (*catalog.Catalog, error) {
	return loadCatalog(c.Cfg.ActionsFiles)
}

func loadCatalog(files []string) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if len(files) == 0 {
		return cat, nil
	}

	var extra []catalog.ActionDef
	for _, f := range files {
		defs, err := catalog.LoadFile(f)
		if err != nil {
			return nil, err
		}
		extra = append(extra, defs...)
	}
	cat, err := cat.Extend(extra...)
	if err != nil {
		return nil, fmt.Errorf("invalid actions: %w", err)
	}
	return cat, nil
}

// PageIndex loads the page index from the configured pages directory.
func (c *CommandContext) PageIndex() (*pages.Index, error) {
	idx := pages.NewIndex(c.Cfg.PagesDir, c.Logger)
	if err := idx.Load(); err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	return idx, nil
}

// BufferOptions returns the buffer options for the configured screen.
func (c *CommandContext) BufferOptions() []editor.MemoryOption {
	return []editor.MemoryOption{editor.WithCellSize(c.Cfg.Screen.CellWidth, c.Cfg.Screen.CellHeight)}
}

// bindConfigKey makes a command-local flag set the given config key.
func bindConfigKey(cmd *cobra.Command, flag, key string) {
	_ = cmd.Flags().SetAnnotation(flag, config.KeyAnnotation, []string{key})
}
