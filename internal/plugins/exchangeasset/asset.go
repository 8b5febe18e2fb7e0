package exchangeassetplugin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/muleops/muleops/internal/anypoint"
	"github.com/muleops/muleops/internal/config"
	"github.com/muleops/muleops/internal/maven"
	"github.com/muleops/muleops/internal/model"
	"github.com/muleops/muleops/internal/plugin"
	muleopserrors "github.com/muleops/muleops/pkg/errors"
)

// ExchangeCLI is the slice of the anypoint-cli surface asset reconciliation
// shells out to.
type ExchangeCLI interface {
	UploadAsset(ctx context.Context, req anypoint.UploadRequest) (string, error)
	DeprecateAsset(ctx context.Context, identifier string) (string, error)
	UndeprecateAsset(ctx context.Context, identifier string) (string, error)
}

// ExchangeAPI is the REST surface used to inspect and mutate catalog records.
type ExchangeAPI interface {
	FindAsset(ctx context.Context, groupID, assetID, version string) (*anypoint.AssetSummary, error)
	AssetDetail(ctx context.Context, groupID, assetID, version string) (*anypoint.AssetDetail, error)
	SetAssetName(ctx context.Context, groupID, assetID, name string) error
	SetAssetDescription(ctx context.Context, groupID, assetID, description string) error
	SetAssetTags(ctx context.Context, orgID, groupID, assetID, version string, tags []string) error
	SetAssetIcon(ctx context.Context, groupID, assetID, iconPath string) error
	DeleteAssetIcon(ctx context.Context, groupID, assetID string) error
	DeleteAsset(ctx context.Context, orgID, groupID, assetID, version string) error
}

// Deployer publishes build artifacts through the build tool.
type Deployer interface {
	DeployFile(ctx context.Context, dep maven.FileDeployment) error
	DeployProject(ctx context.Context, dep maven.ProjectDeployment) error
}

type assetPlugin struct {
	cli      ExchangeCLI
	api      ExchangeAPI
	deployer Deployer
	platform config.Platform
}

// New creates the exchange_asset plugin with its platform collaborators.
func New(cli ExchangeCLI, api ExchangeAPI, deployer Deployer, platform config.Platform) plugin.Plugin {
	return &assetPlugin{cli: cli, api: api, deployer: deployer, platform: platform}
}

var _ plugin.Plugin = (*assetPlugin)(nil)

func (p *assetPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:    "exchange-asset",
		Version: "1.0.0",
		Type:    "exchange_asset",
	}
}

func (p *assetPlugin) Schema() any {
	return config.ExchangeAssetStep{}
}

// Evaluate queries the catalog for the declared asset and computes the
// reconciliation plan. Strictly read-only.
func (p *assetPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	desired := step.ExchangeAsset
	if desired == nil {
		return nil, muleopserrors.NewValidationError(step.ID, "exchange_asset configuration missing", nil)
	}

	exists, err := p.lookup(ctx, desired)
	if err != nil {
		return nil, muleopserrors.NewExecutionError(step.ID, err)
	}

	identifier := anypoint.AssetIdentifier(desired.GroupID, desired.AssetID, desired.AssetVersion)

	if desired.State == "absent" {
		result := &model.EvaluationResult{
			StepID:       step.ID,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("asset %s already absent", identifier),
			InternalData: assetPlan{},
		}
		if exists {
			result.CurrentState = model.StatusDrifted
			result.RequiresAction = true
			result.Message = fmt.Sprintf("asset %s exists and must be deleted", identifier)
			result.InternalData = assetPlan{Exists: true}
		}
		return result, nil
	}

	if !exists {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("asset %s must be created", identifier),
			InternalData:   assetPlan{},
		}, nil
	}

	detail, err := p.api.AssetDetail(ctx, desired.GroupID, desired.AssetID, desired.AssetVersion)
	if err != nil {
		return nil, muleopserrors.NewExecutionError(step.ID, err)
	}

	localIconMD5 := ""
	if desired.Icon != "" && detail.Icon() != nil {
		localIconMD5, err = md5File(desired.Icon)
		if err != nil {
			return nil, muleopserrors.NewExecutionError(step.ID, err)
		}
	}

	assetState := diffAsset(desired, detail, localIconMD5)
	needed := requiresAction(desired.State, assetState)

	result := &model.EvaluationResult{
		StepID:         step.ID,
		CurrentState:   model.StatusSatisfied,
		RequiresAction: needed,
		Message:        fmt.Sprintf("asset %s up to date", identifier),
		InternalData:   assetState,
	}
	if needed {
		result.CurrentState = model.StatusDrifted
		result.Message = fmt.Sprintf("asset %s differs from declaration: %s", identifier, describePlan(desired.State, assetState))
	}
	return result, nil
}

// lookup finds the asset and double-checks the hit against all identifying
// keys and the declared type. The query endpoint may return near-matches, so
// anything short of an exact match counts as not found.
func (p *assetPlugin) lookup(ctx context.Context, desired *config.ExchangeAssetStep) (bool, error) {
	summary, err := p.api.FindAsset(ctx, desired.GroupID, desired.AssetID, desired.AssetVersion)
	if errors.Is(err, anypoint.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	exact := summary.GroupID == desired.GroupID &&
		summary.AssetID == desired.AssetID &&
		summary.Version == desired.AssetVersion &&
		summary.Type == desired.AssetType
	return exact, nil
}

func describePlan(state string, p assetPlan) string {
	var parts []string
	if state == "deprecated" && !p.Deprecated {
		parts = append(parts, "must deprecate")
	}
	if state == "present" && p.Deprecated {
		parts = append(parts, "must undeprecate")
	}
	if p.UpdateName {
		parts = append(parts, "name")
	}
	if p.UpdateDescription {
		parts = append(parts, "description")
	}
	if p.UpdateIcon {
		parts = append(parts, "icon")
	}
	if p.UpdateTags {
		parts = append(parts, "tags")
	}
	return strings.Join(parts, ", ")
}

// Apply issues the minimal set of mutations the plan calls for, in fixed
// order: create, then metadata update, then deprecate.
func (p *assetPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	desired := step.ExchangeAsset
	if desired == nil {
		return nil, muleopserrors.NewValidationError(step.ID, "exchange_asset configuration missing", nil)
	}
	assetState, ok := evalResult.InternalData.(assetPlan)
	if !ok {
		return nil, muleopserrors.NewExecutionError(step.ID, fmt.Errorf("evaluation result carries no asset plan"))
	}

	identifier := anypoint.AssetIdentifier(desired.GroupID, desired.AssetID, desired.AssetVersion)

	var message string
	var err error
	switch desired.State {
	case "present":
		message, err = p.applyPresent(ctx, desired, assetState, identifier)
	case "deprecated":
		message, err = p.applyDeprecated(ctx, desired, assetState, identifier)
	case "absent":
		message = "asset deleted"
		err = p.api.DeleteAsset(ctx, p.platform.OrganizationID, desired.GroupID, desired.AssetID, desired.AssetVersion)
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
	}, nil
}

func (p *assetPlugin) applyPresent(ctx context.Context, desired *config.ExchangeAssetStep, assetState assetPlan, identifier string) (string, error) {
	if !assetState.Exists {
		if err := p.create(ctx, desired, identifier); err != nil {
			return "", err
		}
		if err := p.applyAllMetadata(ctx, desired); err != nil {
			return "", err
		}
		return "asset uploaded", nil
	}

	if assetState.Deprecated {
		if _, err := p.cli.UndeprecateAsset(ctx, identifier); err != nil {
			return "", err
		}
	}
	if assetState.mustUpdate() {
		if err := p.applyFlaggedMetadata(ctx, desired, assetState); err != nil {
			return "", err
		}
	}
	return "asset modified", nil
}

func (p *assetPlugin) applyDeprecated(ctx context.Context, desired *config.ExchangeAssetStep, assetState assetPlan, identifier string) (string, error) {
	if !assetState.Exists {
		if err := p.create(ctx, desired, identifier); err != nil {
			return "", err
		}
		if err := p.applyAllMetadata(ctx, desired); err != nil {
			return "", err
		}
	} else if assetState.mustUpdate() {
		if err := p.applyFlaggedMetadata(ctx, desired, assetState); err != nil {
			return "", err
		}
	}

	if _, err := p.cli.DeprecateAsset(ctx, identifier); err != nil {
		return "", err
	}
	return "asset deprecated", nil
}

// create dispatches asset creation by declared type: direct upload for API
// specs and custom files, build-tool deployment for packaged artifacts.
func (p *assetPlugin) create(ctx context.Context, desired *config.ExchangeAssetStep, identifier string) error {
	switch desired.AssetType {
	case "custom", "oas", "wsdl":
		_, err := p.cli.UploadAsset(ctx, anypoint.UploadRequest{
			Name:       desired.Name,
			MainFile:   desired.MainFile,
			Classifier: desired.AssetType,
			Identifier: identifier,
			FilePath:   desired.FilePath,
		})
		return err

	case "example", "template":
		if desired.FilePath == "" {
			return p.deployFromSources(ctx, desired)
		}
		return p.deployFile(ctx, desired)

	case "connector", "extension", "policy":
		return p.deployFile(ctx, desired)
	}

	return fmt.Errorf("unsupported asset type %q", desired.AssetType)
}

func (p *assetPlugin) deployFile(ctx context.Context, desired *config.ExchangeAssetStep) error {
	classifier, err := maven.ClassifierFor(desired.AssetType, desired.FilePath)
	if err != nil {
		return err
	}
	if err := p.deployer.DeployFile(ctx, maven.FileDeployment{
		GroupID:    desired.GroupID,
		AssetID:    desired.AssetID,
		Version:    desired.AssetVersion,
		FilePath:   desired.FilePath,
		Classifier: classifier,
	}); err != nil {
		return err
	}
	// A deploy-file publish carries no human-readable name.
	return p.api.SetAssetName(ctx, desired.GroupID, desired.AssetID, desired.Name)
}

func (p *assetPlugin) deployFromSources(ctx context.Context, desired *config.ExchangeAssetStep) error {
	if desired.Maven == nil || desired.Maven.Sources == "" {
		return fmt.Errorf("asset type %q requires either maven.sources to build it or file_path to upload it", desired.AssetType)
	}
	return p.deployer.DeployProject(ctx, maven.ProjectDeployment{
		GroupID:        desired.GroupID,
		AssetID:        desired.AssetID,
		Version:        desired.AssetVersion,
		Name:           desired.Name,
		AssetType:      desired.AssetType,
		Sources:        desired.Maven.Sources,
		GlobalSettings: desired.Maven.Settings,
		POM:            desired.Maven.POM,
		Arguments:      desired.Maven.Arguments,
	})
}

// applyAllMetadata pushes every declared metadata field after a create; the
// create paths set the display name but none of them carry description,
// icon, or tags.
func (p *assetPlugin) applyAllMetadata(ctx context.Context, desired *config.ExchangeAssetStep) error {
	if err := p.api.SetAssetTags(ctx, p.platform.OrganizationID, desired.GroupID, desired.AssetID, desired.AssetVersion, desired.Tags); err != nil {
		return err
	}
	if err := p.api.SetAssetDescription(ctx, desired.GroupID, desired.AssetID, desired.Description); err != nil {
		return err
	}
	if desired.Icon != "" {
		if err := p.api.SetAssetIcon(ctx, desired.GroupID, desired.AssetID, desired.Icon); err != nil {
			return err
		}
	}
	return nil
}

// applyFlaggedMetadata issues only the update calls the plan flagged.
func (p *assetPlugin) applyFlaggedMetadata(ctx context.Context, desired *config.ExchangeAssetStep, assetState assetPlan) error {
	if assetState.UpdateTags {
		if err := p.api.SetAssetTags(ctx, p.platform.OrganizationID, desired.GroupID, desired.AssetID, desired.AssetVersion, desired.Tags); err != nil {
			return err
		}
	}
	if assetState.UpdateDescription {
		if err := p.api.SetAssetDescription(ctx, desired.GroupID, desired.AssetID, desired.Description); err != nil {
			return err
		}
	}
	if assetState.UpdateIcon {
		if desired.Icon == "" {
			if err := p.api.DeleteAssetIcon(ctx, desired.GroupID, desired.AssetID); err != nil {
				return err
			}
		} else if err := p.api.SetAssetIcon(ctx, desired.GroupID, desired.AssetID, desired.Icon); err != nil {
			return err
		}
	}
	if assetState.UpdateName {
		if err := p.api.SetAssetName(ctx, desired.GroupID, desired.AssetID, desired.Name); err != nil {
			return err
		}
	}
	return nil
}
