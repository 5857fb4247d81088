package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	// ${VAR:-default}; matched before the required form
	envWithDefaultPattern = regexp.MustCompile(`\$\{([^:}]+):-([^}]*)\}`)
	// ${VAR}
	envRequiredPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
)

const maxExpandIterations = 10

// ExpandEnv expands environment variable references in value.
// Supports:
//   - ${VAR} - required variable (error if unset or empty)
//   - ${VAR:-default} - optional with default value
//
// Nested references inside defaults are expanded as well.
func ExpandEnv(value string) (string, error) {
	result := value

	for i := 0; i < maxExpandIterations; i++ {
		prev := result

		var err error
		result, err = expandOnce(result)
		if err != nil {
			return "", err
		}

		if result == prev {
			break
		}
	}

	return result, nil
}

func expandOnce(value string) (string, error) {
	result := envWithDefaultPattern.ReplaceAllStringFunc(value, func(match string) string {
		submatches := envWithDefaultPattern.FindStringSubmatch(match)
		if len(submatches) != 3 {
			return match
		}

		if val, ok := os.LookupEnv(submatches[1]); ok && val != "" {
			return val
		}
		return submatches[2]
	})

	var missing []string
	result = envRequiredPattern.ReplaceAllStringFunc(result, func(match string) string {
		if strings.Contains(match, ":-") {
			return match
		}

		submatches := envRequiredPattern.FindStringSubmatch(match)
		if len(submatches) != 2 {
			return match
		}

		val, ok := os.LookupEnv(submatches[1])
		if !ok || val == "" {
			missing = append(missing, match)
			return match
		}
		return val
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("required environment variable(s) not set: %v", missing)
	}

	return result, nil
}
