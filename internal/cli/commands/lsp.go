package commands

import (
	"context"

	"github.com/leapstack-labs/verokit/internal/lsp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for IDE integration.

The server communicates over stdin/stdout using JSON-RPC. Typing the trigger
on an empty line opens the action palette as a completion list; blanks are
filled with vero.* workspace commands.

The page index is loaded from pages_dir and, unless --watch=false,
refreshed when scripts change.`,
		Example: `  # Start LSP server (usually called by an IDE)
  verokit lsp`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd, version)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the page index when scripts change")
	bindConfigKey(cmd, "watch", "lsp.watch")
	return cmd
}

func runLSP(cmd *cobra.Command, version string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	cat, err := cmdCtx.Catalog()
	if err != nil {
		return err
	}
	idx, err := cmdCtx.PageIndex()
	if err != nil {
		return err
	}

	server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), lsp.Options{
		Catalog:    cat,
		Pages:      idx,
		PagesDir:   cfg.PagesDir,
		IndentUnit: cfg.IndentUnit,
		Trigger:    cfg.Trigger,
		CellWidth:  cfg.Screen.CellWidth,
		CellHeight: cfg.Screen.CellHeight,
		Version:    version,
		Logger:     cmdCtx.Logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	eg, egctx := errgroup.WithContext(ctx)
	if cfg.LSP.Watch {
		eg.Go(func() error {
			// Without a watcher the index only goes stale.
			if err := idx.Watch(egctx); err != nil {
				cmdCtx.Logger.Warn("page watcher stopped", "error", err)
			}
			return nil
		})
	}
	eg.Go(func() error {
		// The client owns the process; stop watching once it disconnects.
		defer cancel()
		return server.Run()
	})
	return eg.Wait()
}
