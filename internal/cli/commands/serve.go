package commands

import (
	"github.com/leapstack-labs/verokit/internal/api"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for browser-based editors",
		Long: `Serve the catalog, composer, hook inserter and page index over HTTP.

Routes:
  GET  /api/actions?q=          Palette actions
  GET  /api/actions/grouped?q=  Actions grouped by category
  GET  /api/actions/recent      Recently composed actions (cookie session)
  POST /api/compose             Compose a statement
  POST /api/hooks               Insert a lifecycle hook
  GET  /api/pages               Page objects
  GET  /api/pages/events        Page list updates (SSE)
  GET  /healthz                 Health check

Stop the server with Ctrl+C.`,
		Example: `  # Serve on the default address
  verokit serve

  # Another port, without watching scripts
  verokit serve --addr :8080 --watch=false`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default "+api.DefaultAddr+")")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the page index when scripts change")
	bindConfigKey(cmd, "addr", "serve.addr")
	bindConfigKey(cmd, "watch", "serve.watch")
	return cmd
}

func runServe(cmd *cobra.Command) error {
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

	srv := api.NewServer(api.Config{
		Catalog:       cat,
		Pages:         idx,
		IndentUnit:    cfg.IndentUnit,
		Addr:          cfg.Serve.Addr,
		Watch:         cfg.Serve.Watch,
		SessionSecret: cfg.Serve.SessionSecret,
		Logger:        cmdCtx.Logger,
	})

	cmdCtx.Renderer.Printf("Serving %d actions and %d pages on http://%s\n", cat.Len(), idx.Snapshot().Len(), cfg.Serve.Addr)
	return srv.Serve(cmd.Context())
}
