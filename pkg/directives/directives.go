// Package directives loads batches of steering directives from YAML or JSON
// files.
//
//	apiVersion: lens/v1alpha1
//	kind: DirectiveSet
//	directives:
//	  - step_id: step_1
//	    target_step_types: [evidence_gathering, evidence_validation]
//	    guidance: Focus on peer-reviewed studies
//	    priority: 8
//	    constraints:
//	      min_sources: 3
//	    enforce_order: true
package directives

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tupl-xyz/lens-go/pkg/lens"
	"github.com/tupl-xyz/lens-go/pkg/util"
	"sigs.k8s.io/yaml"
)

const KindDirectiveSet = "DirectiveSet"

type DirectiveSet struct {
	util.TypeMeta `json:",inline"`
	Directives    []lens.DirectiveSpec `json:"directives"`
}

// Read parses and validates a directive set. Every entry is checked against
// DirectiveSchema before decoding, so errors name the offending entry.
func Read(data []byte) (*DirectiveSet, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directive set: %w", err)
	}

	var raw struct {
		Directives []any `json:"directives"`
	}
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse directive set: %w", err)
	}

	if len(raw.Directives) == 0 {
		return nil, fmt.Errorf("directive set has no directives")
	}

	var verr error
	for i, entry := range raw.Directives {
		if err := ValidateEntry(entry); err != nil {
			verr = errors.Join(verr, fmt.Errorf("directives[%d]: %w", i, err))
		}
	}
	if verr != nil {
		return nil, verr
	}

	set := &DirectiveSet{}
	if err := util.UnmarshalWithKind(jsonData, set, KindDirectiveSet); err != nil {
		return nil, fmt.Errorf("failed to decode directive set: %w", err)
	}

	if err := set.TypeMeta.Validate(KindDirectiveSet); err != nil {
		return nil, err
	}

	return set, nil
}

// FromFile reads a directive set from path.
func FromFile(path string) (*DirectiveSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directive file %s: %w", path, err)
	}

	set, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("invalid directive file %s: %w", path, err)
	}

	return set, nil
}
