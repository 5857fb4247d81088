package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tupl-xyz/lens-go/pkg/directives"
	"github.com/tupl-xyz/lens-go/pkg/lens"
	"github.com/tupl-xyz/lens-go/pkg/util"
)

// NewSteerCmd creates the steer command group
func NewSteerCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steer",
		Short: "Configure steering directives and re-run reasoning",
		Long: `Attach guidance to individual reasoning steps of a contract, check what is
pending, and re-run the reasoning with the directives applied.

Examples:
  lens steer add c_123 step_2 --type evidence_gathering --guidance "Prefer peer-reviewed studies"
  lens steer add-file c_123 directives.yaml
  lens steer apply c_123`,
	}

	cmd.AddCommand(newSteerAddCmd(g))
	cmd.AddCommand(newSteerAddFileCmd(g))
	cmd.AddCommand(newSteerApplyCmd(g))
	cmd.AddCommand(newSteerStatusCmd(g))
	cmd.AddCommand(newSteerClearCmd(g))

	return cmd
}

func newSteerAddCmd(g *globalOptions) *cobra.Command {
	var (
		types        []string
		guidance     string
		priority     int
		constraints  []string
		enforceOrder bool
	)

	cmd := &cobra.Command{
		Use:   "add <contract-id> <step-id>",
		Short: "Attach a directive to one reasoning step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := make([]lens.ReasoningStepType, 0, len(types))
			for _, t := range types {
				st, err := lens.ParseStepType(t)
				if err != nil {
					return err
				}
				targets = append(targets, st)
			}

			parsed, err := parseConstraints(constraints)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sm, err := g.newSteeringManager(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = sm.Close() }()

			directive := lens.SteeringDirective{
				TargetStepTypes: targets,
				Guidance:        guidance,
				Priority:        priority,
				Constraints:     parsed,
				EnforceOrder:    enforceOrder,
			}
			resp, err := sm.AddSteeringDirective(ctx, args[0], args[1], directive)
			if err != nil {
				return err
			}

			return g.printAck(cmd, resp, "Directive added to step %s of contract %s", args[1], args[0])
		},
	}

	cmd.Flags().StringSliceVar(&types, "type", nil, "Target step type (repeatable, see 'lens step-types')")
	cmd.Flags().StringVar(&guidance, "guidance", "", "Guidance text for the step")
	cmd.Flags().IntVar(&priority, "priority", lens.DefaultPriority, "Directive priority, nominally 1-10")
	cmd.Flags().StringArrayVar(&constraints, "constraint", nil, "Constraint as key=value; JSON values are decoded (repeatable)")
	cmd.Flags().BoolVar(&enforceOrder, "enforce-order", false, "Require the target step types to run in order")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("guidance")

	return cmd
}

func newSteerAddFileCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-file <contract-id> <file>",
		Short: "Attach every directive of a DirectiveSet file in one request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := directives.FromFile(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sm, err := g.newSteeringManager(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = sm.Close() }()

			resp, err := sm.AddMultipleSteeringDirectives(ctx, args[0], set.Directives)
			if err != nil {
				return err
			}

			return g.printAck(cmd, resp, "%d directive(s) added to contract %s", len(set.Directives), args[0])
		},
	}
}

func newSteerApplyCmd(g *globalOptions) *cobra.Command {
	var discardOriginal bool

	cmd := &cobra.Command{
		Use:   "apply <contract-id>",
		Short: "Re-run reasoning with the pending directives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sm, err := g.newSteeringManager(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = sm.Close() }()

			result, err := sm.ApplySteeringAndRerun(ctx, args[0], lens.WithPreserveOriginalTrace(!discardOriginal))
			if err != nil {
				return err
			}

			if g.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), document(result.Raw, result))
			}
			printSteeredResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&discardOriginal, "discard-original-trace", false, "Do not keep the original reasoning trace")

	return cmd
}

func newSteerStatusCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <contract-id>",
		Short: "Show which steps carry directives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sm, err := g.newSteeringManager(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = sm.Close() }()

			status, err := sm.GetDirectiveStatus(ctx, args[0])
			if err != nil {
				return err
			}

			if g.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), document(status.Raw, status))
			}
			printDirectiveStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newSteerClearCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <contract-id>",
		Short: "Remove all pending directives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sm, err := g.newSteeringManager(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = sm.Close() }()

			resp, err := sm.ClearDirectives(ctx, args[0])
			if err != nil {
				return err
			}

			return g.printAck(cmd, resp, "Directives cleared for contract %s", args[0])
		},
	}
}

// printAck confirms a write. The server's response document is only shown
// with --verbose or -o json.
func (g *globalOptions) printAck(cmd *cobra.Command, resp lens.Document, format string, args ...any) error {
	w := cmd.OutOrStdout()
	if g.jsonOutput() {
		if resp == nil {
			resp = lens.Document{}
		}
		return writeJSON(w, resp)
	}

	_, _ = green.Fprintf(w, "✓ "+format+"\n", args...)
	if util.IsVerbose(cmd.Context()) {
		printDocument(w, resp, "  ")
	}
	return nil
}

// parseConstraints turns key=value pairs into a constraint map. Values that
// parse as JSON keep their type; anything else is a string.
func parseConstraints(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid constraint %q: expected key=value", pair)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			out[key] = decoded
		} else {
			out[key] = value
		}
	}

	return out, nil
}
