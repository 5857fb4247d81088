package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/tupl-xyz/lens-go/pkg/lens"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// document returns the full server response when one was decoded.
func document(raw lens.Document, typed any) any {
	if raw != nil {
		return raw
	}
	return typed
}

func printResult(w io.Writer, r *lens.ReasoningResult) {
	if r.Success {
		_, _ = green.Fprintf(w, "✓ Contract %s\n", r.ContractID)
	} else {
		_, _ = red.Fprintf(w, "✗ Contract %s (unsuccessful)\n", r.ContractID)
	}

	printAnswer(w, r.FinalAnswer, r.ConfidenceOverall, r.TotalSteps, r.ExecutionTimeMs, r.KnowledgeGaps)
}

func printSteeredResult(w io.Writer, r *lens.SteeredResult) {
	printResult(w, &r.ReasoningResult)

	if len(r.DirectiveImpactSummary) > 0 {
		fmt.Fprintln(w)
		_, _ = bold.Fprintln(w, "Directive impact:")
		printDocument(w, r.DirectiveImpactSummary, "  ")
	}
	if len(r.DirectiveChangeRecords) > 0 {
		fmt.Fprintf(w, "  Change records: %d\n", len(r.DirectiveChangeRecords))
	}
}

func printContract(w io.Writer, c *lens.Contract) {
	_, _ = cyan.Fprintf(w, "Contract %s\n", c.ContractID)
	if c.Query != "" {
		fmt.Fprintf(w, "  Query:      %s\n", c.Query)
	}
	if c.WorkflowName != "" || c.WorkflowID != "" {
		fmt.Fprintf(w, "  Workflow:   %s\n", strings.TrimSpace(c.WorkflowName+" "+workflowSuffix(c.WorkflowID)))
	}

	printAnswer(w, c.FinalAnswer, c.ConfidenceOverall, c.TotalSteps, c.ExecutionTimeMs, c.KnowledgeGaps)
}

func workflowSuffix(id string) string {
	if id == "" {
		return ""
	}
	return "(" + id + ")"
}

func printAnswer(w io.Writer, answer string, confidence float64, steps int, elapsedMs int64, gaps []string) {
	if answer != "" {
		fmt.Fprintf(w, "  Answer:     %s\n", answer)
	}
	fmt.Fprintf(w, "  Confidence: %s\n", confidenceString(confidence))
	fmt.Fprintf(w, "  Steps:      %d\n", steps)
	fmt.Fprintf(w, "  Time:       %d ms\n", elapsedMs)

	if len(gaps) > 0 {
		_, _ = yellow.Fprintln(w, "  Knowledge gaps:")
		for _, gap := range gaps {
			fmt.Fprintf(w, "    - %s\n", gap)
		}
	}
}

func confidenceString(c float64) string {
	s := fmt.Sprintf("%.2f", c)
	switch {
	case c >= 0.8:
		return green.Sprint(s)
	case c >= 0.5:
		return yellow.Sprint(s)
	default:
		return red.Sprint(s)
	}
}

func printContractList(w io.Writer, contracts []lens.ContractSummary) {
	if len(contracts) == 0 {
		fmt.Fprintln(w, "No contracts found")
		return
	}

	for _, c := range contracts {
		_, _ = cyan.Fprintf(w, "%s", c.ContractID)
		fmt.Fprintf(w, "  confidence=%s steps=%d", confidenceString(c.ConfidenceOverall), c.TotalSteps)
		if c.CreatedAt != "" {
			fmt.Fprintf(w, " created=%s", c.CreatedAt)
		}
		if c.Query != "" {
			fmt.Fprintf(w, "  %s", truncate(c.Query, 60))
		}
		fmt.Fprintln(w)
	}
}

func printDirectiveStatus(w io.Writer, s *lens.DirectiveStatus) {
	_, _ = cyan.Fprintf(w, "Contract %s\n", s.ContractID)
	fmt.Fprintf(w, "  Steps with directives: %d/%d\n", s.StepsWithDirectives, s.TotalSteps)
	if s.HasPendingDirectives {
		_, _ = yellow.Fprintln(w, "  Pending directives: yes")
	} else {
		fmt.Fprintln(w, "  Pending directives: no")
	}

	for _, step := range s.StepStatuses {
		fmt.Fprint(w, "  -")
		printInline(w, step)
		fmt.Fprintln(w)
	}
}

// printDocument renders a JSON object as indented key: value lines with
// keys sorted.
func printDocument(w io.Writer, doc lens.Document, indent string) {
	for _, k := range sortedKeys(doc) {
		switch v := doc[k].(type) {
		case map[string]any:
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			printDocument(w, v, indent+"  ")
		default:
			fmt.Fprintf(w, "%s%s: %s\n", indent, k, scalar(v))
		}
	}
}

func printInline(w io.Writer, doc lens.Document) {
	for _, k := range sortedKeys(doc) {
		fmt.Fprintf(w, " %s=%s", k, scalar(doc[k]))
	}
}

func sortedKeys(doc map[string]any) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// printTrace lists the trace's "steps" array when present and falls back
// to a key listing otherwise.
func printTrace(w io.Writer, contractID string, trace lens.Document) {
	_, _ = cyan.Fprintf(w, "Trace for contract %s\n", contractID)

	steps, ok := trace["steps"].([]any)
	if !ok {
		printDocument(w, trace, "  ")
		return
	}

	for i, s := range steps {
		step, ok := s.(map[string]any)
		if !ok {
			fmt.Fprintf(w, "  %d. %s\n", i+1, scalar(s))
			continue
		}

		_, _ = bold.Fprintf(w, "  %d. %s", i+1, scalar(step["step_type"]))
		if id, ok := step["step_id"].(string); ok && id != "" {
			fmt.Fprintf(w, " [%s]", id)
		}
		fmt.Fprintln(w)

		for _, k := range sortedKeys(step) {
			if k == "step_type" || k == "step_id" {
				continue
			}
			fmt.Fprintf(w, "     %s: %s\n", k, truncate(scalar(step[k]), 120))
		}
	}

	rest := lens.Document{}
	for k, v := range trace {
		if k != "steps" {
			rest[k] = v
		}
	}
	printDocument(w, rest, "  ")
}
