package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/lens"
)

// NewQueryCmd creates the query command
func NewQueryCmd(g *globalOptions) *cobra.Command {
	var (
		mode         string
		docs         []string
		workflowID   string
		workflowName string
	)

	cmd := &cobra.Command{
		Use:   "query <text>...",
		Short: "Run a reasoning query",
		Long: `Submit a natural-language query for reasoning and print the resulting contract.

Examples:
  lens query "Is intermittent fasting effective for weight loss?"
  lens query --mode focused --doc "Study A: ..." --workflow-id wf_1 "Compare the studies"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			qp, err := g.newQueryProcessor(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = qp.Close() }()

			opts := []lens.QueryOption{lens.WithReasoningMode(mode)}
			if len(docs) > 0 {
				opts = append(opts, lens.WithInitialDocs(docs))
			}
			if workflowID != "" {
				opts = append(opts, lens.WithWorkflowID(workflowID))
			}
			if workflowName != "" {
				opts = append(opts, lens.WithWorkflowName(workflowName))
			}

			result, err := qp.ProcessQuery(ctx, strings.Join(args, " "), opts...)
			if err != nil {
				return err
			}

			if g.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), document(result.Raw, result))
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", lens.ReasoningModeComprehensive, "Reasoning mode (comprehensive, focused, policy_guided)")
	cmd.Flags().StringArrayVar(&docs, "doc", nil, "Initial document text (repeatable)")
	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "Workflow to attach the contract to")
	cmd.Flags().StringVar(&workflowName, "workflow-name", "", "Human-readable workflow name")

	return cmd
}
