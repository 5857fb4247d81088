// Package cli implements the lens command line tool.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/util"
)

// NewRootCmd creates the root lens command
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lens",
		Short: "Client for the Lens reasoning API",
		Long: `lens runs reasoning queries against the Lens API, inspects the
resulting contracts and traces, and steers re-runs with per-step directives.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := g.validateOutput(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = util.WithVerbose(ctx, g.verbose)
			ctx = util.WithLogger(ctx, g.newLogger())
			cmd.SetContext(ctx)

			return nil
		},
	}

	g.addFlags(rootCmd)

	rootCmd.AddCommand(NewQueryCmd(g))
	rootCmd.AddCommand(NewContractCmd(g))
	rootCmd.AddCommand(NewTraceCmd(g))
	rootCmd.AddCommand(NewSteerCmd(g))
	rootCmd.AddCommand(NewStepTypesCmd(g))
	rootCmd.AddCommand(NewMCPCmd(g))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
