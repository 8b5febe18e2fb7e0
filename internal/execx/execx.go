package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result captures the outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// PrimaryOutput returns stderr if present, otherwise stdout. External tools
// are inconsistent about which stream carries their failure message.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}

// Runner abstracts process execution so callers can be tested without
// spawning real binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ProcessRunner executes commands with os/exec. A non-zero exit is not an
// error at this layer; callers classify exit codes themselves because some
// non-zero exits are soft negatives.
type ProcessRunner struct{}

var _ Runner = ProcessRunner{}

// Run executes the named binary, blocking until it completes, and collects
// both output streams.
func (ProcessRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}

	return res, nil
}

// LookPath reports the absolute path of the named binary, or an error when it
// is not installed on the host.
func LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
