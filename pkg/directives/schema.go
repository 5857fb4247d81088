package directives

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tupl-xyz/lens-go/pkg/lens"
	"k8s.io/utils/ptr"
)

var (
	resolveOnce sync.Once
	resolved    *jsonschema.Resolved
	resolveErr  error
)

// StepTypesSchema describes a non-empty array of known step types.
func StepTypesSchema() *jsonschema.Schema {
	all := lens.AllStepTypes()
	enum := make([]any, 0, len(all))
	for _, st := range all {
		enum = append(enum, st.String())
	}

	return &jsonschema.Schema{
		Type:        "array",
		Description: "Reasoning step types the guidance applies to.",
		MinItems:    ptr.To(1),
		Items: &jsonschema.Schema{
			Type: "string",
			Enum: enum,
		},
	}
}

// DirectiveSchema is the JSON Schema for one entry of a directive batch.
// Priority is typed but not range checked.
func DirectiveSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"step_id", "target_step_types", "guidance"},
		Properties: map[string]*jsonschema.Schema{
			"step_id": {
				Type:        "string",
				Description: "Identifier of the reasoning step to steer.",
				MinLength:   ptr.To(1),
			},
			"target_step_types": StepTypesSchema(),
			"guidance": {
				Type:        "string",
				Description: "Natural-language guidance for the step.",
				MinLength:   ptr.To(1),
			},
			"priority": {
				Type:        "integer",
				Description: "Directive priority, nominally 1-10. Defaults to 5.",
			},
			"constraints": {
				Type:        "object",
				Description: "Opaque constraints forwarded to the service.",
			},
			"enforce_order": {
				Type:        "boolean",
				Description: "Whether the target step types must run in order.",
			},
		},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

func resolvedDirectiveSchema() (*jsonschema.Resolved, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = DirectiveSchema().Resolve(nil)
		if resolveErr != nil {
			resolveErr = fmt.Errorf("failed to resolve directive schema: %w", resolveErr)
		}
	})

	return resolved, resolveErr
}

// ValidateEntry checks one decoded JSON value against DirectiveSchema.
func ValidateEntry(entry any) error {
	schema, err := resolvedDirectiveSchema()
	if err != nil {
		return err
	}

	return schema.Validate(entry)
}
