package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/lens"
)

// NewStepTypesCmd creates the step-types command
func NewStepTypesCmd(g *globalOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "step-types",
		Short: "List the reasoning step types directives can target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := lens.AllCategories()
			if category != "" {
				c := lens.StepCategory(category)
				if lens.StepTypesInCategory(c) == nil {
					return fmt.Errorf("unknown category %q", category)
				}
				categories = []lens.StepCategory{c}
			}

			w := cmd.OutOrStdout()
			if g.jsonOutput() {
				grouped := make(map[lens.StepCategory][]lens.ReasoningStepType, len(categories))
				for _, c := range categories {
					grouped[c] = lens.StepTypesInCategory(c)
				}
				return writeJSON(w, grouped)
			}

			for i, c := range categories {
				if i > 0 {
					fmt.Fprintln(w)
				}
				_, _ = bold.Fprintf(w, "%s\n", c)
				for _, st := range lens.StepTypesInCategory(c) {
					fmt.Fprintf(w, "  %s\n", st)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list one category (analysis, logical, evaluation, synthesis, external, meta)")

	return cmd
}
