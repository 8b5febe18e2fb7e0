package anypoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/muleops/muleops/internal/execx"
)

// BinaryName is the external command-line tool every mutation and describe
// call shells out to.
const BinaryName = "anypoint-cli"

// environmentNotFound is the one documented soft-negative message: describe
// prints it (exit 255) when the named environment does not exist.
const environmentNotFound = "Error: Environment not found"

// ErrNotFound reports that the platform has no record for the requested
// resource. It is a state, not a failure.
var ErrNotFound = errors.New("resource not found")

// Connection carries the session parameters threaded into every CLI call.
type Connection struct {
	Host         string
	Organization string
	Bearer       string
}

// CLI wraps the anypoint-cli binary. Exit code 0 means success with stdout as
// payload; any other exit is a failure with the tool's own message passed
// through, except for the recognised describe sentinel.
type CLI struct {
	bin    string
	conn   Connection
	runner execx.Runner
}

// NewCLI locates the binary on the host and returns a wrapper bound to the
// given connection. A missing binary is fatal before any state is read.
func NewCLI(conn Connection) (*CLI, error) {
	bin, err := execx.LookPath(BinaryName)
	if err != nil {
		return nil, fmt.Errorf("%s binary not present on host: %w", BinaryName, err)
	}
	return NewCLIWith(bin, conn, execx.ProcessRunner{}), nil
}

// NewCLIWith builds a CLI with an explicit binary path and runner.
func NewCLIWith(bin string, conn Connection, runner execx.Runner) *CLI {
	return &CLI{bin: bin, conn: conn, runner: runner}
}

func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	full := []string{
		"--bearer=" + c.conn.Bearer,
		"--host=" + c.conn.Host,
		"--organization=" + c.conn.Organization,
	}
	full = append(full, args...)

	res, err := c.runner.Run(ctx, c.bin, full...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", BinaryName, err)
	}
	if res.ExitCode != 0 {
		return "", &CLIError{ExitCode: res.ExitCode, Output: execx.PrimaryOutput(res)}
	}
	return res.Stdout, nil
}

// CLIError is a non-zero exit from the external tool.
type CLIError struct {
	ExitCode int
	Output   string
}

func (e *CLIError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", BinaryName, e.ExitCode, e.Output)
}

// UploadRequest describes a direct `exchange asset upload` call, used for
// the custom, oas and wsdl asset types.
type UploadRequest struct {
	Name       string
	MainFile   string
	Classifier string
	Identifier string
	FilePath   string
}

// UploadAsset uploads an asset, with or without a payload file. A request
// without FilePath is a metadata-only upload.
func (c *CLI) UploadAsset(ctx context.Context, req UploadRequest) (string, error) {
	args := []string{"exchange", "asset", "upload", "--name", req.Name}
	if req.MainFile != "" {
		args = append(args, "--mainFile", req.MainFile)
	}
	args = append(args, "--classifier", req.Classifier, req.Identifier)
	if req.FilePath != "" {
		args = append(args, req.FilePath)
	}
	return c.run(ctx, args...)
}

// DeprecateAsset hides the asset from default discovery without deleting it.
func (c *CLI) DeprecateAsset(ctx context.Context, identifier string) (string, error) {
	return c.run(ctx, "exchange", "asset", "deprecate", identifier)
}

// UndeprecateAsset restores a deprecated asset to active state.
func (c *CLI) UndeprecateAsset(ctx context.Context, identifier string) (string, error) {
	return c.run(ctx, "exchange", "asset", "undeprecate", identifier)
}

// EnvironmentRecord is the normalized describe payload for an environment.
type EnvironmentRecord struct {
	ID       string
	ClientID string
}

// DescribeEnvironment queries the current record for a named environment.
// Returns ErrNotFound when the tool reports the documented sentinel.
func (c *CLI) DescribeEnvironment(ctx context.Context, name string) (*EnvironmentRecord, error) {
	out, err := c.run(ctx, "account", "environment", "describe", name, "--output", "json")
	if err != nil {
		var cliErr *CLIError
		if errors.As(err, &cliErr) && cliErr.Output == environmentNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("malformed describe output: %w", err)
	}

	rec := &EnvironmentRecord{}
	if id, ok := raw["ID"].(string); ok {
		rec.ID = id
	}
	if clientID, ok := raw["Client ID"].(string); ok {
		rec.ClientID = clientID
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("describe output missing environment ID")
	}
	return rec, nil
}

// CreateEnvironment creates a new environment of the given type.
func (c *CLI) CreateEnvironment(ctx context.Context, name, envType string) (string, error) {
	return c.run(ctx, "account", "environment", "create", "--type", envType, name)
}

// DeleteEnvironment removes a named environment.
func (c *CLI) DeleteEnvironment(ctx context.Context, name string) (string, error) {
	return c.run(ctx, "account", "environment", "delete", name)
}
