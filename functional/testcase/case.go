// Package testcase provides a fluent API for defining functional test cases
// that exercise the lens binary against a fake Lens API.
package testcase

import (
	"testing"

	"github.com/tupl-xyz/lens-go/pkg/lens/lenstest"
)

// TestCase represents a complete functional test scenario
type TestCase struct {
	t    *testing.T
	name string

	api       *APIBuilder
	files     map[string]string
	env       map[string]string
	args      []string
	inProcess bool

	assertions []Assertion
}

// New creates a new test case with the given name
func New(t *testing.T, name string) *TestCase {
	return &TestCase{
		t:          t,
		name:       name,
		api:        NewAPIBuilder(),
		files:      make(map[string]string),
		env:        make(map[string]string),
		assertions: make([]Assertion, 0),
	}
}

// WithAPI configures the fake Lens API
func (tc *TestCase) WithAPI(configure func(*APIBuilder)) *TestCase {
	configure(tc.api)
	return tc
}

// WithFile writes content to name inside the test's working directory
func (tc *TestCase) WithFile(name, content string) *TestCase {
	tc.files[name] = content
	return tc
}

// WithEnv sets an environment variable for the command. The value may
// reference {{URL}}, which is replaced by the fake API's base URL.
func (tc *TestCase) WithEnv(key, value string) *TestCase {
	tc.env[key] = value
	return tc
}

// InProcess runs the CLI inside the test process instead of the built binary
func (tc *TestCase) InProcess() *TestCase {
	tc.inProcess = true
	return tc
}

// IsInProcess reports whether the CLI runs inside the test process
func (tc *TestCase) IsInProcess() bool {
	return tc.inProcess
}

// Args sets the command line. {{URL}} is replaced by the fake API's base URL.
func (tc *TestCase) Args(args ...string) *TestCase {
	tc.args = args
	return tc
}

// Expect adds an assertion to be checked after the test runs
func (tc *TestCase) Expect(a Assertion) *TestCase {
	tc.assertions = append(tc.assertions, a)
	return tc
}

// ExpectExitCode asserts the command exit code
func (tc *TestCase) ExpectExitCode(code int) *TestCase {
	return tc.Expect(&ExitCodeAssertion{Expected: code})
}

// ExpectOutputContains asserts that the command output contains a substring
func (tc *TestCase) ExpectOutputContains(substring string) *TestCase {
	return tc.Expect(&OutputContainsAssertion{Substring: substring})
}

// ExpectOutputMatches asserts that the command output matches a regex
func (tc *TestCase) ExpectOutputMatches(pattern string) *TestCase {
	return tc.Expect(&OutputMatchesAssertion{Pattern: pattern})
}

// ExpectRequest asserts that the API received a request for method and path
func (tc *TestCase) ExpectRequest(method, path string) *TestCase {
	return tc.Expect(&RequestAssertion{Method: method, Path: path})
}

// ExpectRequestWithBody asserts that a request for method and path carried
// a body accepted by matcher
func (tc *TestCase) ExpectRequestWithBody(method, path string, matcher func(map[string]any) bool) *TestCase {
	return tc.Expect(&RequestAssertion{Method: method, Path: path, BodyMatcher: matcher})
}

// ExpectRequestCount asserts the total number of API requests
func (tc *TestCase) ExpectRequestCount(n int) *TestCase {
	return tc.Expect(&RequestCountAssertion{Expected: n})
}

// Run executes the test case
func (tc *TestCase) Run() {
	tc.t.Helper()
	tc.t.Run(tc.name, func(t *testing.T) {
		runner := &Runner{tc: tc, t: t}
		runner.Run()
	})
}

// Name returns the test case name
func (tc *TestCase) Name() string {
	return tc.name
}

func (tc *TestCase) startAPI(t *testing.T) *lenstest.Server {
	srv := lenstest.NewServer(t)
	for _, route := range tc.api.routes {
		srv.AddRoute(route)
	}
	return srv
}
