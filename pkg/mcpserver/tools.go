package mcpserver

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tupl-xyz/lens-go/pkg/directives"
	"github.com/tupl-xyz/lens-go/pkg/lens"
)

const (
	ToolProcessQuery                  = "process_query"
	ToolGetContract                   = "get_contract"
	ToolGetReasoningTrace             = "get_reasoning_trace"
	ToolListContracts                 = "list_contracts"
	ToolAddSteeringDirective          = "add_steering_directive"
	ToolAddMultipleSteeringDirectives = "add_multiple_steering_directives"
	ToolApplySteeringAndRerun         = "apply_steering_and_rerun"
	ToolGetDirectiveStatus            = "get_directive_status"
	ToolClearDirectives               = "clear_directives"
	ToolGetReasoningTraceWithSteering = "get_reasoning_trace_with_steering"
	ToolListStepTypes                 = "list_step_types"
)

func objectSchema(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Required:   required,
		Properties: props,
	}
}

func contractIDSchema() *jsonschema.Schema {
	return objectSchema([]string{"contract_id"}, map[string]*jsonschema.Schema{
		"contract_id": {Type: "string", Description: "Contract identifier."},
	})
}

func processQuerySchema() *jsonschema.Schema {
	return objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
		"query":        {Type: "string", Description: "Natural-language question to reason about."},
		"initial_docs": {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "Seed documents."},
		"reasoning_mode": {
			Type:        "string",
			Description: "Reasoning strategy. Unknown values are passed to the service.",
			Examples:    []any{lens.ReasoningModeComprehensive, lens.ReasoningModeFocused, lens.ReasoningModePolicyGuided},
		},
		"workflow_id":   {Type: "string"},
		"workflow_name": {Type: "string"},
	})
}

func listContractsSchema() *jsonschema.Schema {
	return objectSchema(nil, map[string]*jsonschema.Schema{
		"workflow_id": {Type: "string", Description: "Only list contracts of this workflow."},
		"limit":       {Type: "integer", Description: "Maximum number of contracts. Defaults to 20."},
	})
}

func addDirectiveSchema() *jsonschema.Schema {
	s := directives.DirectiveSchema()
	s.Required = append([]string{"contract_id"}, s.Required...)
	s.Properties["contract_id"] = &jsonschema.Schema{Type: "string", Description: "Contract identifier."}
	return s
}

func addMultipleDirectivesSchema() *jsonschema.Schema {
	return objectSchema([]string{"contract_id", "directives"}, map[string]*jsonschema.Schema{
		"contract_id": {Type: "string", Description: "Contract identifier."},
		"directives": {
			Type:  "array",
			Items: directives.DirectiveSchema(),
		},
	})
}

func applySchema() *jsonschema.Schema {
	s := contractIDSchema()
	s.Properties["preserve_original_trace"] = &jsonschema.Schema{
		Type:        "boolean",
		Description: "Keep the original reasoning trace. Defaults to true.",
	}
	return s
}

func listStepTypesSchema() *jsonschema.Schema {
	categories := lens.AllCategories()
	enum := make([]any, 0, len(categories))
	for _, c := range categories {
		enum = append(enum, string(c))
	}
	return objectSchema(nil, map[string]*jsonschema.Schema{
		"category": {Type: "string", Enum: enum},
	})
}
