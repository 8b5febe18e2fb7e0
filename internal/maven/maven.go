package maven

import (
	"context"
	"fmt"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/muleops/muleops/internal/execx"
)

// BinaryName is the build tool invoked for deploy-class asset types.
const BinaryName = "mvn"

// Maven wraps the mvn binary. Any non-zero exit is fatal; the tool's own
// output is passed through as the failure message.
type Maven struct {
	bin    string
	runner execx.Runner
}

// New locates the build tool on the host. A missing binary is fatal before
// any state is read.
func New() (*Maven, error) {
	bin, err := execx.LookPath(BinaryName)
	if err != nil {
		return nil, fmt.Errorf("%s binary not present on host: %w", BinaryName, err)
	}
	return NewWith(bin, execx.ProcessRunner{}), nil
}

// NewWith builds a Maven with an explicit binary path and runner.
func NewWith(bin string, runner execx.Runner) *Maven {
	return &Maven{bin: bin, runner: runner}
}

// Run invokes the build tool with the given arguments and returns its stdout.
func (m *Maven) Run(ctx context.Context, args ...string) (string, error) {
	res, err := m.runner.Run(ctx, m.bin, args...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", BinaryName, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s exited with code %d: %s", BinaryName, res.ExitCode, execx.PrimaryOutput(res))
	}
	return res.Stdout, nil
}

// RepositoryURL returns the organization-scoped distribution repository.
func RepositoryURL(host, groupID string) string {
	return "https://maven." + host + "/api/v1/organizations/" + groupID + "/maven"
}

// ParseArguments splits a shell-style argument string into argv entries.
func ParseArguments(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parsing maven arguments: %w", err)
	}
	return args, nil
}
