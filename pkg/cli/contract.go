package cli

import (
	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/lens"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentFetches = 4

// NewContractCmd creates the contract command group
func NewContractCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Inspect reasoning contracts",
	}

	cmd.AddCommand(newContractGetCmd(g))
	cmd.AddCommand(newContractListCmd(g))

	return cmd
}

func newContractGetCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <contract-id>...",
		Short: "Fetch one or more contracts",
		Long: `Fetch contracts by id. Several ids are fetched concurrently, each on its
own client, and printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			opts, err := g.lensOptions(ctx)
			if err != nil {
				return err
			}

			contracts := make([]*lens.Contract, len(args))
			eg, egCtx := errgroup.WithContext(ctx)
			eg.SetLimit(maxConcurrentFetches)
			for i, id := range args {
				eg.Go(func() error {
					qp := lens.NewQueryProcessor(opts...)
					defer func() { _ = qp.Close() }()

					c, err := qp.GetContract(egCtx, id)
					if err != nil {
						return err
					}
					contracts[i] = c
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if g.jsonOutput() {
				if len(contracts) == 1 {
					return writeJSON(w, document(contracts[0].Raw, contracts[0]))
				}
				docs := make([]any, 0, len(contracts))
				for _, c := range contracts {
					docs = append(docs, document(c.Raw, c))
				}
				return writeJSON(w, docs)
			}

			for i, c := range contracts {
				if i > 0 {
					_, _ = w.Write([]byte("\n"))
				}
				printContract(w, c)
			}
			return nil
		},
	}
}

func newContractListCmd(g *globalOptions) *cobra.Command {
	var (
		workflowID string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			qp, err := g.newQueryProcessor(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = qp.Close() }()

			opts := []lens.ListOption{lens.WithLimit(limit)}
			if workflowID != "" {
				opts = append(opts, lens.WithListWorkflowID(workflowID))
			}

			contracts, err := qp.ListContracts(ctx, opts...)
			if err != nil {
				return err
			}

			if g.jsonOutput() {
				docs := make([]any, 0, len(contracts))
				for _, c := range contracts {
					docs = append(docs, document(c.Raw, c))
				}
				return writeJSON(cmd.OutOrStdout(), docs)
			}
			printContractList(cmd.OutOrStdout(), contracts)
			return nil
		},
	}

	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "Only list contracts of this workflow")
	cmd.Flags().IntVar(&limit, "limit", lens.DefaultListLimit, "Maximum number of contracts")

	return cmd
}
