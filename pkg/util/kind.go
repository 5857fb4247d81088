package util

import (
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"
)

// UnmarshalWithKind decodes YAML or JSON data into target after checking
// that the document's kind matches expectedKind. Fields unknown to target
// are rejected.
func UnmarshalWithKind(data []byte, target any, expectedKind string) error {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return err
	}

	tmp := struct {
		Kind string `json:"kind"`
	}{}
	if err := json.Unmarshal(jsonData, &tmp); err != nil {
		return err
	}

	if tmp.Kind != expectedKind {
		return fmt.Errorf("cannot decode kind '%s' as kind '%s'", tmp.Kind, expectedKind)
	}

	return yaml.UnmarshalStrict(jsonData, target)
}
