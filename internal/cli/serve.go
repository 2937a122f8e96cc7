package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/treecanvas/internal/server"
	"github.com/matzehuels/treecanvas/pkg/config"
)

func (c *CLI) serveCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the canvas over HTTP",
		Long: `Start the HTTP API for the configured workspace. One canvas session is
shared by every request; position, parent and collapse changes are written
back to the store after the persist debounce window and on shutdown.`,
		Example: `  treecanvas serve --addr :7420
  curl localhost:7420/graph`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runner := c.newRunner(ctx, noCache)
			defer runner.Close()

			srv, err := server.New(ctx, st, server.Options{
				Session:  c.sessionOptions(nil),
				Export:   c.pipelineOptions(),
				Runner:   runner,
				Debounce: c.cfg.Persist.Debounce.Std(),
				Logger:   c.Logger,
			})
			if err != nil {
				return err
			}
			printInfo("Serving workspace %s on %s", StyleHighlight.Render(c.cfg.Workspace), StyleLink.Render("http://"+c.cfg.Server.Addr))
			return srv.Run(ctx, c.cfg.Server.Addr, c.cfg.Server.ShutdownTimeout.Std())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default "+config.DefaultServerAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not cache exports")
	_ = c.viper.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
