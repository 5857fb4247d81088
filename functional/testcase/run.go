package testcase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tupl-xyz/lens-go/pkg/cli"
	"github.com/tupl-xyz/lens-go/pkg/config"
	"github.com/tupl-xyz/lens-go/pkg/lens/lenstest"
)

// EnvLensBinary points at a prebuilt lens binary
const EnvLensBinary = "LENS_BINARY"

const urlPlaceholder = "{{URL}}"

// Runner orchestrates the execution of a test case
type Runner struct {
	tc *TestCase
	t  *testing.T

	api *lenstest.Server
	dir string
}

// Run executes the test case
func (r *Runner) Run() {
	r.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := r.setup(); err != nil {
		r.t.Fatalf("test setup failed: %v", err)
	}

	var runCtx *RunContext
	if r.tc.IsInProcess() {
		runCtx = r.runInProcess(ctx)
	} else {
		runCtx = r.runSubprocess(ctx)
	}
	runCtx.Requests = r.api.Requests()

	for _, assertion := range r.tc.assertions {
		assertion.Assert(r.t, runCtx)
	}
}

func (r *Runner) setup() error {
	r.api = r.tc.startAPI(r.t)
	r.dir = r.t.TempDir()

	for name, content := range r.tc.files {
		path := filepath.Join(r.dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(r.expand(content)), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return nil
}

func (r *Runner) expand(s string) string {
	return strings.ReplaceAll(s, urlPlaceholder, r.api.URL())
}

func (r *Runner) args() []string {
	out := make([]string, 0, len(r.tc.args))
	for _, a := range r.tc.args {
		out = append(out, r.expand(a))
	}
	return out
}

// environment returns the command's LENS_* variables. The base URL points
// at the fake API unless the test case overrides it.
func (r *Runner) environment() map[string]string {
	env := map[string]string{
		config.EnvBaseURL: r.api.URL(),
		config.EnvTimeout: "",
		config.EnvAPIKey:  "",
	}
	for k, v := range r.tc.env {
		env[k] = r.expand(v)
	}
	return env
}

func (r *Runner) runInProcess(ctx context.Context) *RunContext {
	for k, v := range r.environment() {
		r.t.Setenv(k, v)
	}
	r.t.Chdir(r.dir)

	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(r.args())

	runCtx := &RunContext{}
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(&out, "Error: %v\n", err)
		runCtx.CommandError = err
		runCtx.ExitCode = 1
	}
	runCtx.CommandOutput = out.String()

	if runCtx.CommandError != nil {
		r.t.Logf("lens command failed (in-process): %v", runCtx.CommandError)
		r.t.Logf("command output:\n%s", runCtx.CommandOutput)
	}

	return runCtx
}

func (r *Runner) runSubprocess(ctx context.Context) *RunContext {
	binary, err := GetLensBinary()
	if err != nil {
		r.t.Fatalf("failed to find lens binary: %v", err)
	}

	cmd := exec.CommandContext(ctx, binary, r.args()...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Env = os.Environ()
	for k, v := range r.environment() {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	err = cmd.Run()
	runCtx := &RunContext{
		CommandOutput: stdout.String() + stderr.String(),
		CommandError:  err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		runCtx.ExitCode = exitErr.ExitCode()
	} else if cmd.ProcessState != nil {
		runCtx.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		r.t.Logf("lens command failed: %v", err)
		r.t.Logf("command output:\n%s", runCtx.CommandOutput)
	}

	return runCtx
}

// GetLensBinary returns the path to the lens binary.
// It first checks the LENS_BINARY environment variable,
// then looks for the binary in common locations.
func GetLensBinary() (string, error) {
	if path := os.Getenv(EnvLensBinary); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%s set to %q but file not found", EnvLensBinary, path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	candidates := []string{
		filepath.Join(wd, "..", "..", "bin", "lens"), // from functional/tests
		filepath.Join(wd, "..", "bin", "lens"),       // from functional
		filepath.Join(wd, "bin", "lens"),             // repo root
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("lens binary not found; set %s environment variable", EnvLensBinary)
}
