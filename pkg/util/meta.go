package util

import (
	"errors"
	"fmt"
)

// APIVersionV1Alpha1 is the only document version Lens reads. Documents
// that omit apiVersion are treated as this version.
const APIVersionV1Alpha1 = "lens/v1alpha1"

// TypeMeta is the apiVersion/kind header that starts every Lens document
// read from disk.
type TypeMeta struct {
	APIVersion string `json:"apiVersion,omitempty"`
	Kind       string `json:"kind"`
}

// Validate checks the header against the kind the reader expects. All
// problems are reported together.
func (t TypeMeta) Validate(expectedKind string) error {
	var errs []error
	if err := ValidateAPIVersion(t.APIVersion); err != nil {
		errs = append(errs, err)
	}

	switch t.Kind {
	case expectedKind:
	case "":
		errs = append(errs, fmt.Errorf("kind is required: expected %q", expectedKind))
	default:
		errs = append(errs, fmt.Errorf("kind %q does not match expected %q", t.Kind, expectedKind))
	}

	return errors.Join(errs...)
}

func ValidateAPIVersion(version string) error {
	if version == "" || version == APIVersionV1Alpha1 {
		return nil
	}
	return fmt.Errorf("unknown apiVersion %q: expected %q", version, APIVersionV1Alpha1)
}
