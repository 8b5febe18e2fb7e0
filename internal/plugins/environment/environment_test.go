package environmentplugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muleops/muleops/internal/anypoint"
	"github.com/muleops/muleops/internal/config"
	"github.com/muleops/muleops/internal/model"
)

type describeResult struct {
	record *anypoint.EnvironmentRecord
	err    error
}

type fakeAccountCLI struct {
	calls []string

	describes []describeResult
	createErr error
	deleteErr error

	createdName string
	createdType string
}

func (f *fakeAccountCLI) DescribeEnvironment(_ context.Context, _ string) (*anypoint.EnvironmentRecord, error) {
	f.calls = append(f.calls, "describe")
	if len(f.describes) == 0 {
		return nil, anypoint.ErrNotFound
	}
	res := f.describes[0]
	f.describes = f.describes[1:]
	return res.record, res.err
}

func (f *fakeAccountCLI) CreateEnvironment(_ context.Context, name, envType string) (string, error) {
	f.calls = append(f.calls, "create")
	f.createdName = name
	f.createdType = envType
	return "", f.createErr
}

func (f *fakeAccountCLI) DeleteEnvironment(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, "delete")
	return "", f.deleteErr
}

type fakeAccountAPI struct {
	calls []string

	orgID     string
	orgErr    error
	secret    string
	secretErr error
}

func (f *fakeAccountAPI) OrganizationID(_ context.Context, _ string) (string, error) {
	f.calls = append(f.calls, "org-id")
	return f.orgID, f.orgErr
}

func (f *fakeAccountAPI) EnvironmentClientSecret(_ context.Context, _, _ string) (string, error) {
	f.calls = append(f.calls, "client-secret")
	return f.secret, f.secretErr
}

func envStep(state string) *config.Step {
	return &config.Step{
		ID:   "staging_env",
		Type: "environment",
		Environment: &config.EnvironmentStep{
			State:   state,
			Name:    "Staging",
			EnvType: "sandbox",
		},
	}
}

func newTestPlugin(cli *fakeAccountCLI, api *fakeAccountAPI) *environmentPlugin {
	platform := config.Platform{Host: "anypoint.mulesoft.com", Organization: "MyOrg", Bearer: "tok"}
	return New(cli, api, platform).(*environmentPlugin)
}

func TestEvaluateEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("existing environment satisfies present with credentials", func(t *testing.T) {
		t.Parallel()
		cli := &fakeAccountCLI{describes: []describeResult{
			{record: &anypoint.EnvironmentRecord{ID: "env-1", ClientID: "client-abc"}},
		}}
		api := &fakeAccountAPI{orgID: "org-1", secret: "s3cret"}
		p := newTestPlugin(cli, api)

		res, err := p.Evaluate(context.Background(), envStep("present"))
		require.NoError(t, err)
		assert.False(t, res.RequiresAction)
		assert.Equal(t, model.StatusSatisfied, res.CurrentState)
		assert.Equal(t, map[string]string{
			"id":            "env-1",
			"client_id":     "client-abc",
			"client_secret": "s3cret",
		}, res.Outputs)
	})

	t.Run("missing environment requires creation", func(t *testing.T) {
		t.Parallel()
		cli := &fakeAccountCLI{}
		api := &fakeAccountAPI{}
		p := newTestPlugin(cli, api)

		res, err := p.Evaluate(context.Background(), envStep("present"))
		require.NoError(t, err)
		assert.True(t, res.RequiresAction)
		assert.Equal(t, model.StatusMissing, res.CurrentState)
		// no credential fetch for an environment that does not exist
		assert.Equal(t, []string{"describe"}, cli.calls)
		assert.Empty(t, api.calls)
	})

	t.Run("absent and missing is satisfied", func(t *testing.T) {
		t.Parallel()
		p := newTestPlugin(&fakeAccountCLI{}, &fakeAccountAPI{})

		res, err := p.Evaluate(context.Background(), envStep("absent"))
		require.NoError(t, err)
		assert.False(t, res.RequiresAction)
		assert.Equal(t, model.StatusSatisfied, res.CurrentState)
	})

	t.Run("absent but existing must be deleted", func(t *testing.T) {
		t.Parallel()
		cli := &fakeAccountCLI{describes: []describeResult{
			{record: &anypoint.EnvironmentRecord{ID: "env-1"}},
		}}
		p := newTestPlugin(cli, &fakeAccountAPI{})

		res, err := p.Evaluate(context.Background(), envStep("absent"))
		require.NoError(t, err)
		assert.True(t, res.RequiresAction)
		assert.Equal(t, model.StatusDrifted, res.CurrentState)
	})

	t.Run("describe failure is fatal", func(t *testing.T) {
		t.Parallel()
		cli := &fakeAccountCLI{describes: []describeResult{
			{err: errors.New("connection refused")},
		}}
		p := newTestPlugin(cli, &fakeAccountAPI{})

		_, err := p.Evaluate(context.Background(), envStep("present"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestApplyEnvironment_Create(t *testing.T) {
	t.Parallel()

	cli := &fakeAccountCLI{describes: []describeResult{
		{record: &anypoint.EnvironmentRecord{ID: "env-1", ClientID: "client-abc"}},
	}}
	api := &fakeAccountAPI{orgID: "org-1", secret: "s3cret"}
	p := newTestPlugin(cli, api)

	step := envStep("present")
	eval := &model.EvaluationResult{StepID: step.ID, RequiresAction: true}

	res, err := p.Apply(context.Background(), eval, step)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuccess, res.Status)
	assert.True(t, res.Changed)
	assert.Equal(t, "environment created", res.Message)

	assert.Equal(t, "Staging", cli.createdName)
	assert.Equal(t, "sandbox", cli.createdType)
	// create, then re-describe for identifiers, then fetch the secret
	assert.Equal(t, []string{"create", "describe"}, cli.calls)
	assert.Equal(t, []string{"org-id", "client-secret"}, api.calls)
	assert.Equal(t, map[string]string{
		"id":            "env-1",
		"client_id":     "client-abc",
		"client_secret": "s3cret",
	}, res.Outputs)
}

func TestApplyEnvironment_CreateDescribeFails(t *testing.T) {
	t.Parallel()

	// create is accepted but the follow-up describe still finds nothing
	cli := &fakeAccountCLI{}
	p := newTestPlugin(cli, &fakeAccountAPI{})

	step := envStep("present")
	eval := &model.EvaluationResult{StepID: step.ID, RequiresAction: true}

	res, err := p.Apply(context.Background(), eval, step)
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, err.Error(), "describe failed")
	assert.Equal(t, []string{"create", "describe"}, cli.calls)
}

func TestApplyEnvironment_CreateFailure(t *testing.T) {
	t.Parallel()

	cli := &fakeAccountCLI{createErr: errors.New("quota exceeded")}
	p := newTestPlugin(cli, &fakeAccountAPI{})

	step := envStep("present")
	eval := &model.EvaluationResult{StepID: step.ID, RequiresAction: true}

	res, err := p.Apply(context.Background(), eval, step)
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, err.Error(), "quota exceeded")
	// nothing beyond the failed create
	assert.Equal(t, []string{"create"}, cli.calls)
}

func TestApplyEnvironment_Delete(t *testing.T) {
	t.Parallel()

	cli := &fakeAccountCLI{}
	p := newTestPlugin(cli, &fakeAccountAPI{})

	step := envStep("absent")
	eval := &model.EvaluationResult{StepID: step.ID, RequiresAction: true}

	res, err := p.Apply(context.Background(), eval, step)
	require.NoError(t, err)
	assert.Equal(t, "environment deleted", res.Message)
	assert.Equal(t, []string{"delete"}, cli.calls)
}

func TestApplyEnvironment_DeleteFailure(t *testing.T) {
	t.Parallel()

	cli := &fakeAccountCLI{deleteErr: errors.New("permission denied")}
	p := newTestPlugin(cli, &fakeAccountAPI{})

	step := envStep("absent")
	eval := &model.EvaluationResult{StepID: step.ID, RequiresAction: true}

	res, err := p.Apply(context.Background(), eval, step)
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.Contains(t, err.Error(), "permission denied")
}
