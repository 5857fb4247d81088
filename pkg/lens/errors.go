package lens

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind identifies which component raised an *Error.
type ErrorKind string

const (
	KindProcessing    ErrorKind = "processing"
	KindSteering      ErrorKind = "steering"
	KindConfiguration ErrorKind = "configuration"
)

var (
	// ErrContractNotFound is wrapped by errors for endpoints that answered 404
	// for an unknown contract.
	ErrContractNotFound = errors.New("contract not found")
	// ErrClientClosed is wrapped by errors for calls made after Close.
	ErrClientClosed = errors.New("client is closed")
	// ErrInvalidStepType is returned for step types outside the enumeration.
	ErrInvalidStepType = errors.New("invalid reasoning step type")
	// ErrEmptyResponse is wrapped when a 2xx response has no body or a null body.
	ErrEmptyResponse = errors.New("empty response body")
)

// Error is the base error for every failure surfaced by this package.
// Message is complete on its own and already includes the text of Err.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProcessingError builds a query processing failure.
func ProcessingError(message string, err error) *Error {
	return newError(KindProcessing, message, err)
}

// SteeringError builds a steering directive failure.
func SteeringError(message string, err error) *Error {
	return newError(KindSteering, message, err)
}

// ConfigurationError builds a failure caused by invalid client configuration.
func ConfigurationError(message string, err error) *Error {
	return newError(KindConfiguration, message, err)
}

func newError(kind ErrorKind, message string, err error) *Error {
	e := &Error{Kind: kind, Message: message, Err: err}
	if err != nil {
		e.Message = fmt.Sprintf("%s: %v", message, err)
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		e.StatusCode = statusErr.StatusCode
	}
	return e
}

// notFoundError is surfaced before the generic status handling runs, so its
// message carries only the contract id.
func notFoundError(kind ErrorKind, contractID string) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf("Contract %s not found", contractID),
		StatusCode: http.StatusNotFound,
		Err:        ErrContractNotFound,
	}
}

// IsProcessingError reports whether err is, or wraps, a processing failure.
func IsProcessingError(err error) bool {
	return hasKind(err, KindProcessing)
}

// IsSteeringError reports whether err is, or wraps, a steering failure.
func IsSteeringError(err error) bool {
	return hasKind(err, KindSteering)
}

// IsConfigurationError reports whether err is, or wraps, a configuration failure.
func IsConfigurationError(err error) bool {
	return hasKind(err, KindConfiguration)
}

// IsNotFound reports whether err was caused by an unknown contract.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound)
}

func hasKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatusError describes a non-2xx response.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Detail     string
}

func (e *HTTPStatusError) Error() string {
	class := "Server"
	if e.StatusCode < 500 {
		class = "Client"
	}
	msg := fmt.Sprintf("%s error '%s' for url '%s'", class, e.Status, e.URL)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

const maxDetailLen = 512

// responseDetail extracts a human readable reason from an error body. The
// service answers with {"detail": ...}; anything else is returned trimmed.
func responseDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		switch d := payload.Detail.(type) {
		case string:
			return truncate(d)
		default:
			b, err := json.Marshal(d)
			if err == nil {
				return truncate(string(b))
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) <= maxDetailLen {
		return s
	}
	return s[:maxDetailLen] + "..."
}
