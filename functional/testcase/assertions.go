package testcase

import (
	"regexp"
	"strings"
	"testing"

	"github.com/tupl-xyz/lens-go/pkg/lens/lenstest"
)

// RunContext is what assertions inspect after the command finished
type RunContext struct {
	CommandOutput string
	CommandError  error
	ExitCode      int
	Requests      []lenstest.CapturedRequest
}

// Assertion checks one property of a finished run
type Assertion interface {
	Assert(t *testing.T, ctx *RunContext)
}

type ExitCodeAssertion struct {
	Expected int
}

func (a *ExitCodeAssertion) Assert(t *testing.T, ctx *RunContext) {
	t.Helper()
	if ctx.ExitCode != a.Expected {
		t.Errorf("expected exit code %d, got %d\noutput:\n%s", a.Expected, ctx.ExitCode, ctx.CommandOutput)
	}
}

type OutputContainsAssertion struct {
	Substring string
}

func (a *OutputContainsAssertion) Assert(t *testing.T, ctx *RunContext) {
	t.Helper()
	if !strings.Contains(ctx.CommandOutput, a.Substring) {
		t.Errorf("expected output to contain %q\noutput:\n%s", a.Substring, ctx.CommandOutput)
	}
}

type OutputMatchesAssertion struct {
	Pattern string
}

func (a *OutputMatchesAssertion) Assert(t *testing.T, ctx *RunContext) {
	t.Helper()
	re, err := regexp.Compile(a.Pattern)
	if err != nil {
		t.Fatalf("invalid pattern %q: %v", a.Pattern, err)
	}
	if !re.MatchString(ctx.CommandOutput) {
		t.Errorf("expected output to match %q\noutput:\n%s", a.Pattern, ctx.CommandOutput)
	}
}

type RequestAssertion struct {
	Method      string
	Path        string
	BodyMatcher func(map[string]any) bool
}

func (a *RequestAssertion) Assert(t *testing.T, ctx *RunContext) {
	t.Helper()
	for _, req := range ctx.Requests {
		if req.Method != a.Method || req.Path != a.Path {
			continue
		}
		if a.BodyMatcher == nil || a.BodyMatcher(req.Body) {
			return
		}
	}
	t.Errorf("expected a matching %s %s request, got %d request(s)", a.Method, a.Path, len(ctx.Requests))
}

type RequestCountAssertion struct {
	Expected int
}

func (a *RequestCountAssertion) Assert(t *testing.T, ctx *RunContext) {
	t.Helper()
	if len(ctx.Requests) != a.Expected {
		t.Errorf("expected %d request(s), got %d", a.Expected, len(ctx.Requests))
	}
}
