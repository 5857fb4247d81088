package cli

import (
	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/lens"
)

// NewTraceCmd creates the trace command
func NewTraceCmd(g *globalOptions) *cobra.Command {
	var steering bool

	cmd := &cobra.Command{
		Use:   "trace <contract-id>",
		Short: "Show the reasoning trace of a contract",
		Long: `Show the step-by-step reasoning trace of a contract. With --steering the
trace is annotated with the effect of applied directives.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				trace lens.Document
				err   error
			)
			if steering {
				sm, serr := g.newSteeringManager(ctx)
				if serr != nil {
					return serr
				}
				defer func() { _ = sm.Close() }()
				trace, err = sm.GetReasoningTraceWithSteering(ctx, args[0])
			} else {
				qp, qerr := g.newQueryProcessor(ctx)
				if qerr != nil {
					return qerr
				}
				defer func() { _ = qp.Close() }()
				trace, err = qp.GetReasoningTrace(ctx, args[0])
			}
			if err != nil {
				return err
			}

			if g.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), trace)
			}
			printTrace(cmd.OutOrStdout(), args[0], trace)
			return nil
		},
	}

	cmd.Flags().BoolVar(&steering, "steering", false, "Include directive annotations")

	return cmd
}
