package environmentplugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/muleops/muleops/internal/anypoint"
	"github.com/muleops/muleops/internal/config"
	"github.com/muleops/muleops/internal/model"
	"github.com/muleops/muleops/internal/plugin"
	muleopserrors "github.com/muleops/muleops/pkg/errors"
)

// AccountCLI is the slice of the anypoint-cli surface environment
// reconciliation shells out to.
type AccountCLI interface {
	DescribeEnvironment(ctx context.Context, name string) (*anypoint.EnvironmentRecord, error)
	CreateEnvironment(ctx context.Context, name, envType string) (string, error)
	DeleteEnvironment(ctx context.Context, name string) (string, error)
}

// AccountAPI resolves organization membership and environment credentials.
type AccountAPI interface {
	OrganizationID(ctx context.Context, name string) (string, error)
	EnvironmentClientSecret(ctx context.Context, orgID, clientID string) (string, error)
}

type environmentPlugin struct {
	cli      AccountCLI
	api      AccountAPI
	platform config.Platform
}

// New creates the environment plugin with its platform collaborators.
func New(cli AccountCLI, api AccountAPI, platform config.Platform) plugin.Plugin {
	return &environmentPlugin{cli: cli, api: api, platform: platform}
}

var _ plugin.Plugin = (*environmentPlugin)(nil)

func (p *environmentPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:    "account-environment",
		Version: "1.0.0",
		Type:    "environment",
	}
}

func (p *environmentPlugin) Schema() any {
	return config.EnvironmentStep{}
}

// Evaluate describes the named environment. Environments are not field-diffed
// beyond existence: the platform has no update call, so an existing
// environment always satisfies a present declaration.
func (p *environmentPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	desired := step.Environment
	if desired == nil {
		return nil, muleopserrors.NewValidationError(step.ID, "environment configuration missing", nil)
	}

	record, err := p.cli.DescribeEnvironment(ctx, desired.Name)
	exists := true
	if errors.Is(err, anypoint.ErrNotFound) {
		exists = false
	} else if err != nil {
		return nil, muleopserrors.NewExecutionError(step.ID, err)
	}

	identifier := anypoint.EnvironmentIdentifier(desired.Name, p.platform.Organization)

	if desired.State == "absent" {
		result := &model.EvaluationResult{
			StepID:       step.ID,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("environment %s already absent", identifier),
		}
		if exists {
			result.CurrentState = model.StatusDrifted
			result.RequiresAction = true
			result.Message = fmt.Sprintf("environment %s exists and must be deleted", identifier)
		}
		return result, nil
	}

	if !exists {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("environment %s must be created", identifier),
		}, nil
	}

	// Already present: report the identifiers so a no-op run still returns
	// them, including the client secret fetched from the platform.
	outputs, err := p.credentials(ctx, record)
	if err != nil {
		return nil, muleopserrors.NewExecutionError(step.ID, err)
	}
	return &model.EvaluationResult{
		StepID:       step.ID,
		CurrentState: model.StatusSatisfied,
		Message:      fmt.Sprintf("environment %s up to date", identifier),
		Outputs:      outputs,
	}, nil
}

// Apply creates or deletes the environment. Create re-queries for identifiers
// and fetches the client secret; secrets are never generated locally.
func (p *environmentPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	desired := step.Environment
	if desired == nil {
		return nil, muleopserrors.NewValidationError(step.ID, "environment configuration missing", nil)
	}

	var message string
	var outputs map[string]string
	var err error

	switch desired.State {
	case "present":
		outputs, err = p.createEnvironment(ctx, desired)
		message = "environment created"
	case "absent":
		_, err = p.cli.DeleteEnvironment(ctx, desired.Name)
		message = "environment deleted"
	default:
		err = fmt.Errorf("unsupported state %q", desired.State)
	}
	if err != nil {
		wrapped := muleopserrors.NewExecutionError(step.ID, err)
		return &model.StepResult{
			StepID:  step.ID,
			Status:  model.StatusFailed,
			Message: err.Error(),
			Error:   wrapped,
		}, wrapped
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusSuccess,
		Changed: true,
		Message: message,
		Outputs: outputs,
	}, nil
}

func (p *environmentPlugin) createEnvironment(ctx context.Context, desired *config.EnvironmentStep) (map[string]string, error) {
	if _, err := p.cli.CreateEnvironment(ctx, desired.Name, desired.EnvType); err != nil {
		return nil, err
	}

	record, err := p.cli.DescribeEnvironment(ctx, desired.Name)
	if err != nil {
		return nil, fmt.Errorf("environment created but describe failed: %w", err)
	}
	return p.credentials(ctx, record)
}

func (p *environmentPlugin) credentials(ctx context.Context, record *anypoint.EnvironmentRecord) (map[string]string, error) {
	orgID, err := p.api.OrganizationID(ctx, p.platform.Organization)
	if err != nil {
		return nil, err
	}
	secret, err := p.api.EnvironmentClientSecret(ctx, orgID, record.ClientID)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"id":            record.ID,
		"client_id":     record.ClientID,
		"client_secret": secret,
	}, nil
}
