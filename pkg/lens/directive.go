package lens

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultPriority = 5
	MinPriority     = 1
	MaxPriority     = 10
)

// SteeringDirective is guidance attached to one reasoning step. Priority is
// nominally 1-10 but is forwarded unchecked. Constraints is an opaque
// key-value map passed through to the server.
type SteeringDirective struct {
	TargetStepTypes []ReasoningStepType
	Guidance        string
	Priority        int
	Constraints     map[string]any
	EnforceOrder    bool
}

// NewSteeringDirective returns a directive with the default priority and
// enforce_order disabled.
func NewSteeringDirective(guidance string, targets ...ReasoningStepType) SteeringDirective {
	return SteeringDirective{
		TargetStepTypes: targets,
		Guidance:        guidance,
		Priority:        DefaultPriority,
	}
}

// DirectiveSpec is one entry of a batch of directives. Nil Priority and
// EnforceOrder take their defaults.
type DirectiveSpec struct {
	StepID          string              `json:"step_id"`
	TargetStepTypes []ReasoningStepType `json:"target_step_types"`
	Guidance        string              `json:"guidance"`
	Priority        *int                `json:"priority,omitempty"`
	Constraints     map[string]any      `json:"constraints,omitempty"`
	EnforceOrder    *bool               `json:"enforce_order,omitempty"`
}

// Directive resolves defaults.
func (s DirectiveSpec) Directive() SteeringDirective {
	d := SteeringDirective{
		TargetStepTypes: s.TargetStepTypes,
		Guidance:        s.Guidance,
		Priority:        DefaultPriority,
		Constraints:     s.Constraints,
	}
	if s.Priority != nil {
		d.Priority = *s.Priority
	}
	if s.EnforceOrder != nil {
		d.EnforceOrder = *s.EnforceOrder
	}
	return d
}

// Validate checks the required fields are present. It does not check
// priority bounds or guidance content.
func (s DirectiveSpec) Validate() error {
	var err error
	if strings.TrimSpace(s.StepID) == "" {
		err = errors.Join(err, fmt.Errorf("step_id is required"))
	}
	if len(s.TargetStepTypes) == 0 {
		err = errors.Join(err, fmt.Errorf("target_step_types is required"))
	}
	if strings.TrimSpace(s.Guidance) == "" {
		err = errors.Join(err, fmt.Errorf("guidance is required"))
	}
	return err
}

// configureRequest is the envelope accepted by configure-step-directives.
type configureRequest struct {
	ContractID     string          `json:"contract_id"`
	StepDirectives []stepDirective `json:"step_directives"`
}

type stepDirective struct {
	StepID     string          `json:"step_id"`
	Directives []wireDirective `json:"directives"`
}

type wireDirective struct {
	TargetStepTypes []string       `json:"target_step_types"`
	Priority        int            `json:"priority"`
	Guidance        string         `json:"guidance"`
	Constraints     map[string]any `json:"constraints"`
	EnforceOrder    bool           `json:"enforce_order"`
}

func (d SteeringDirective) wire() (wireDirective, error) {
	targets, err := stepTypeStrings(d.TargetStepTypes)
	if err != nil {
		return wireDirective{}, err
	}
	constraints := d.Constraints
	if constraints == nil {
		constraints = map[string]any{}
	}
	return wireDirective{
		TargetStepTypes: targets,
		Priority:        d.Priority,
		Guidance:        d.Guidance,
		Constraints:     constraints,
		EnforceOrder:    d.EnforceOrder,
	}, nil
}

type applyRequest struct {
	ContractID            string `json:"contract_id"`
	PreserveOriginalTrace bool   `json:"preserve_original_trace"`
}
