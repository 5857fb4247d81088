package cli

import (
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/mcpserver"
	"github.com/tupl-xyz/lens-go/pkg/util"
)

// NewMCPCmd creates the mcp command group
func NewMCPCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose the Lens API as an MCP server",
	}

	cmd.AddCommand(newMCPServeCmd(g))

	return cmd
}

func newMCPServeCmd(g *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Lens tools over MCP streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			opts, err := g.lensOptions(ctx)
			if err != nil {
				return err
			}

			srv, err := mcpserver.New(opts, util.LoggerFrom(ctx))
			if err != nil {
				return err
			}

			return srv.ListenAndServe(ctx, addr, func(a net.Addr) {
				_, _ = green.Fprintf(cmd.OutOrStdout(), "Serving Lens MCP tools on http://%s%s\n", a, mcpserver.EndpointPath)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")

	return cmd
}
