package lens

import (
	"encoding/json"
)

// Document is an opaque JSON object returned by the service.
type Document map[string]any

// ReasoningResult is the outcome of a reasoning run.
type ReasoningResult struct {
	Success           bool     `json:"success"`
	ContractID        string   `json:"contract_id"`
	FinalAnswer       string   `json:"final_answer"`
	ConfidenceOverall float64  `json:"confidence_overall"`
	ExecutionTimeMs   int64    `json:"execution_time_ms"`
	TotalSteps        int      `json:"total_steps"`
	KnowledgeGaps     []string `json:"knowledge_gaps"`

	// Raw holds the full response, including fields not modelled above.
	Raw Document `json:"-"`
}

func (r *ReasoningResult) UnmarshalJSON(data []byte) error {
	type alias ReasoningResult
	var a alias
	if err := decodeWithRaw(data, &a, &a.Raw); err != nil {
		return err
	}
	*r = ReasoningResult(a)
	return nil
}

// SteeredResult is the outcome of re-running a contract with directives.
type SteeredResult struct {
	ReasoningResult

	DirectiveImpactSummary Document   `json:"directive_impact_summary,omitempty"`
	DirectiveChangeRecords []Document `json:"directive_change_records,omitempty"`
}

func (r *SteeredResult) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.ReasoningResult); err != nil {
		return err
	}
	var extra struct {
		DirectiveImpactSummary Document   `json:"directive_impact_summary"`
		DirectiveChangeRecords []Document `json:"directive_change_records"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	r.DirectiveImpactSummary = extra.DirectiveImpactSummary
	r.DirectiveChangeRecords = extra.DirectiveChangeRecords
	return nil
}

// Contract is the server record of one reasoning run.
type Contract struct {
	ContractID        string   `json:"contract_id"`
	Query             string   `json:"query,omitempty"`
	FinalAnswer       string   `json:"final_answer"`
	ConfidenceOverall float64  `json:"confidence_overall"`
	ExecutionTimeMs   int64    `json:"execution_time_ms"`
	TotalSteps        int      `json:"total_steps"`
	KnowledgeGaps     []string `json:"knowledge_gaps"`
	WorkflowID        string   `json:"workflow_id,omitempty"`
	WorkflowName      string   `json:"workflow_name,omitempty"`

	Raw Document `json:"-"`
}

func (c *Contract) UnmarshalJSON(data []byte) error {
	type alias Contract
	var a alias
	if err := decodeWithRaw(data, &a, &a.Raw); err != nil {
		return err
	}
	*c = Contract(a)
	return nil
}

// ContractSummary is one entry of ListContracts.
type ContractSummary struct {
	ContractID        string  `json:"contract_id"`
	Query             string  `json:"query,omitempty"`
	WorkflowID        string  `json:"workflow_id,omitempty"`
	WorkflowName      string  `json:"workflow_name,omitempty"`
	ConfidenceOverall float64 `json:"confidence_overall"`
	TotalSteps        int     `json:"total_steps"`
	CreatedAt         string  `json:"created_at,omitempty"`

	Raw Document `json:"-"`
}

func (c *ContractSummary) UnmarshalJSON(data []byte) error {
	type alias ContractSummary
	var a alias
	if err := decodeWithRaw(data, &a, &a.Raw); err != nil {
		return err
	}
	*c = ContractSummary(a)
	return nil
}

// DirectiveStatus summarizes the directives configured on a contract.
type DirectiveStatus struct {
	ContractID           string     `json:"contract_id"`
	TotalSteps           int        `json:"total_steps"`
	StepsWithDirectives  int        `json:"steps_with_directives"`
	StepStatuses         []Document `json:"step_statuses"`
	HasPendingDirectives bool       `json:"has_pending_directives"`

	Raw Document `json:"-"`
}

func (s *DirectiveStatus) UnmarshalJSON(data []byte) error {
	type alias DirectiveStatus
	var a alias
	if err := decodeWithRaw(data, &a, &a.Raw); err != nil {
		return err
	}
	*s = DirectiveStatus(a)
	return nil
}

func decodeWithRaw(data []byte, typed any, raw *Document) error {
	if err := json.Unmarshal(data, typed); err != nil {
		return err
	}
	return json.Unmarshal(data, raw)
}
