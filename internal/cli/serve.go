package cli

import (
	"github.com/spf13/cobra"

	"github.com/liaphilip/women-safety-route-finder/internal/server"
)

type serveOpts struct {
	data    dataFlags
	addr    string
	noCache bool
}

// serveCommand creates the serve command. The dataset is loaded once at
// startup; the server stops on SIGINT or SIGTERM.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve route queries over HTTP",
		Example: `  saferoute serve -g data/campus.json --addr :8080
  curl -s localhost:8080/v1/routes -d '{"from":"A","to":"D","time":"night"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ds, err := c.loadDataset(ctx, runner, opts.data)
			if err != nil {
				return err
			}

			sc := c.settings().Server
			addr := opts.addr
			if addr == "" {
				addr = sc.Addr
			}
			srv := server.New(runner, ds, c.Logger)
			return srv.ListenAndServe(ctx, addr, server.Options{
				ReadTimeout:     sc.ReadTimeout,
				WriteTimeout:    sc.WriteTimeout,
				ShutdownTimeout: sc.ShutdownTimeout,
			})
		},
	}

	opts.data.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}
