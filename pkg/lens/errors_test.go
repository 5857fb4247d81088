package lens

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusError_Error(t *testing.T) {
	tt := map[string]struct {
		err      *HTTPStatusError
		expected string
	}{
		"server error with detail": {
			err: &HTTPStatusError{
				URL:        "https://api.tupl.xyz/lens/process",
				StatusCode: http.StatusInternalServerError,
				Status:     "500 Internal Server Error",
				Detail:     "boom",
			},
			expected: "Server error '500 Internal Server Error' for url 'https://api.tupl.xyz/lens/process': boom",
		},
		"client error without detail": {
			err: &HTTPStatusError{
				URL:        "https://api.tupl.xyz/lens/contracts",
				StatusCode: http.StatusUnprocessableEntity,
				Status:     "422 Unprocessable Entity",
			},
			expected: "Client error '422 Unprocessable Entity' for url 'https://api.tupl.xyz/lens/contracts'",
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestResponseDetail(t *testing.T) {
	tt := map[string]struct {
		body     string
		expected string
	}{
		"empty":         {body: "", expected: ""},
		"string detail": {body: `{"detail":"Contract not found"}`, expected: "Contract not found"},
		"object detail": {body: `{"detail":[{"loc":["body","query"]}]}`, expected: `[{"loc":["body","query"]}]`},
		"no detail key": {body: `{"error":"nope"}`, expected: `{"error":"nope"}`},
		"plain text":    {body: "  bad gateway\n", expected: "bad gateway"},
		"null detail":   {body: `{"detail":null}`, expected: `{"detail":null}`},
		"invalid json":  {body: "<html>", expected: "<html>"},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, responseDetail([]byte(tc.body)))
		})
	}
}

func TestResponseDetail_Truncates(t *testing.T) {
	long := strings.Repeat("x", maxDetailLen+100)
	got := responseDetail([]byte(long))
	assert.Len(t, got, maxDetailLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")

	tt := map[string]struct {
		err           *Error
		processing    bool
		steering      bool
		configuration bool
	}{
		"processing":    {err: ProcessingError("Failed to process query", cause), processing: true},
		"steering":      {err: SteeringError("Failed to add steering directive", cause), steering: true},
		"configuration": {err: ConfigurationError("invalid config", cause), configuration: true},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tc.err)
			assert.Equal(t, tc.processing, IsProcessingError(wrapped))
			assert.Equal(t, tc.steering, IsSteeringError(wrapped))
			assert.Equal(t, tc.configuration, IsConfigurationError(wrapped))
			assert.ErrorIs(t, wrapped, cause)
			assert.False(t, IsNotFound(wrapped))
			assert.Zero(t, tc.err.StatusCode)
		})
	}
}

func TestNewError_Message(t *testing.T) {
	err := ProcessingError("Failed to get contract", errors.New("timeout"))
	assert.Equal(t, "Failed to get contract: timeout", err.Error())

	bare := SteeringError("Failed to clear directives", nil)
	assert.Equal(t, "Failed to clear directives", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestNewError_StatusCode(t *testing.T) {
	statusErr := &HTTPStatusError{StatusCode: http.StatusBadGateway, Status: "502 Bad Gateway", URL: "u"}
	err := SteeringError("Failed to apply steering and rerun", fmt.Errorf("wrapped: %w", statusErr))

	assert.Equal(t, http.StatusBadGateway, err.StatusCode)

	var target *HTTPStatusError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "502 Bad Gateway", target.Status)
}

func TestNotFoundError(t *testing.T) {
	err := notFoundError(KindSteering, "abc")

	assert.Equal(t, "Contract abc not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsSteeringError(err))
	assert.False(t, IsProcessingError(err))
}

func TestError_Nil(t *testing.T) {
	var err *Error
	assert.Equal(t, "", err.Error())
	assert.Nil(t, err.Unwrap())
	assert.False(t, IsProcessingError(nil))
}
