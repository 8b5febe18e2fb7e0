package anypoint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muleops/muleops/internal/execx"
)

type fakeRunner struct {
	calls   [][]string
	results []execx.Result
	err     error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (execx.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return execx.Result{}, f.err
	}
	if len(f.results) == 0 {
		return execx.Result{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

func testConnection() Connection {
	return Connection{Host: "anypoint.mulesoft.com", Organization: "MyOrg", Bearer: "tok-123"}
}

func TestCLIGlobalFlags(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	cli := NewCLIWith("anypoint-cli", testConnection(), runner)

	_, err := cli.DeprecateAsset(context.Background(), "org-id/my-asset/1.0.0")
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"anypoint-cli",
		"--bearer=tok-123",
		"--host=anypoint.mulesoft.com",
		"--organization=MyOrg",
		"exchange", "asset", "deprecate", "org-id/my-asset/1.0.0",
	}, runner.calls[0])
}

func TestUploadAsset(t *testing.T) {
	t.Parallel()

	t.Run("with payload and main file", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.UploadAsset(context.Background(), UploadRequest{
			Name:       "My API",
			MainFile:   "api.yaml",
			Classifier: "oas",
			Identifier: "org-id/my-api/1.0.0",
			FilePath:   "/tmp/api.zip",
		})
		require.NoError(t, err)

		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{
			"exchange", "asset", "upload",
			"--name", "My API",
			"--mainFile", "api.yaml",
			"--classifier", "oas",
			"org-id/my-api/1.0.0",
			"/tmp/api.zip",
		}, runner.calls[0][4:])
	})

	t.Run("metadata-only upload omits file arguments", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.UploadAsset(context.Background(), UploadRequest{
			Name:       "Custom Asset",
			Classifier: "custom",
			Identifier: "org-id/custom/1.0.0",
		})
		require.NoError(t, err)

		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{
			"exchange", "asset", "upload",
			"--name", "Custom Asset",
			"--classifier", "custom",
			"org-id/custom/1.0.0",
		}, runner.calls[0][4:])
	})
}

func TestCLINonZeroExit(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{results: []execx.Result{{Stderr: "Error: invalid token", ExitCode: 1}}}
	cli := NewCLIWith("anypoint-cli", testConnection(), runner)

	_, err := cli.UndeprecateAsset(context.Background(), "org-id/a/1.0.0")
	require.Error(t, err)

	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, 1, cliErr.ExitCode)
	assert.Equal(t, "Error: invalid token", cliErr.Output)
	assert.Contains(t, err.Error(), "exited with code 1")
}

func TestDescribeEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("parses the describe payload", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{results: []execx.Result{{
			Stdout: `{"ID": "env-123", "Name": "Staging", "Client ID": "client-abc"}`,
		}}}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		rec, err := cli.DescribeEnvironment(context.Background(), "Staging")
		require.NoError(t, err)
		assert.Equal(t, "env-123", rec.ID)
		assert.Equal(t, "client-abc", rec.ClientID)

		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{
			"account", "environment", "describe", "Staging", "--output", "json",
		}, runner.calls[0][4:])
	})

	t.Run("sentinel message maps to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{results: []execx.Result{{
			Stderr:   "Error: Environment not found",
			ExitCode: 255,
		}}}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.DescribeEnvironment(context.Background(), "Missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("any other failure passes through", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{results: []execx.Result{{
			Stderr:   "Error: connection refused",
			ExitCode: 1,
		}}}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.DescribeEnvironment(context.Background(), "Staging")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("malformed JSON is an error", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{results: []execx.Result{{Stdout: "not json"}}}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.DescribeEnvironment(context.Background(), "Staging")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed describe output")
	})

	t.Run("payload without an ID is an error", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{results: []execx.Result{{Stdout: `{"Name": "Staging"}`}}}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.DescribeEnvironment(context.Background(), "Staging")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing environment ID")
	})
}

func TestEnvironmentMutations(t *testing.T) {
	t.Parallel()

	t.Run("create passes the environment type", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.CreateEnvironment(context.Background(), "Staging", "sandbox")
		require.NoError(t, err)
		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{
			"account", "environment", "create", "--type", "sandbox", "Staging",
		}, runner.calls[0][4:])
	})

	t.Run("delete addresses the environment by name", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{}
		cli := NewCLIWith("anypoint-cli", testConnection(), runner)

		_, err := cli.DeleteEnvironment(context.Background(), "Staging")
		require.NoError(t, err)
		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{
			"account", "environment", "delete", "Staging",
		}, runner.calls[0][4:])
	})
}

func TestCLISpawnFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("fork failed")}
	cli := NewCLIWith("anypoint-cli", testConnection(), runner)

	_, err := cli.DeprecateAsset(context.Background(), "org-id/a/1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fork failed")
}
