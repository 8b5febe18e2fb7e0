package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	muleopserrors "github.com/muleops/muleops/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	stepIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

	// fileBackedTypes are asset types whose creation always needs a payload
	// file, either uploaded directly or deployed through maven.
	fileBackedTypes = map[string]struct{}{
		"oas": {}, "wsdl": {}, "connector": {}, "extension": {}, "policy": {},
	}
	// buildableTypes can alternatively be built from maven sources.
	buildableTypes = map[string]struct{}{"example": {}, "template": {}}
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			_, err := semver.NewVersion(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("step_id", func(fl validator.FieldLevel) bool {
			return stepIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration. Every configuration error is fatal before any platform
// state is read or mutated.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return muleopserrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	stepIndex := make(map[string]struct{}, len(cfg.Steps))
	needsOrgID := false

	for i, step := range cfg.Steps {
		if _, exists := stepIndex[step.ID]; exists {
			return muleopserrors.NewValidationError(fieldForStep(i, "id"), fmt.Sprintf("duplicate step id %q", step.ID), nil)
		}
		stepIndex[step.ID] = struct{}{}

		if err := ValidateStep(step); err != nil {
			return err
		}

		if step.Type == "exchange_asset" {
			needsOrgID = true
		}
	}

	if needsOrgID && cfg.Platform.OrganizationID == "" {
		return muleopserrors.NewValidationError("platform.organization_id", "required when exchange_asset steps are declared", nil)
	}

	return nil
}

// ValidateStep validates a single step independent of other configuration
// properties.
func ValidateStep(step Step) error {
	v := validatorInstance()
	if err := v.Struct(step); err != nil {
		return convertValidationError(err)
	}

	switch step.Type {
	case "exchange_asset":
		if step.ExchangeAsset == nil {
			return muleopserrors.NewValidationError(step.ID, "exchange_asset configuration is required", nil)
		}
		if err := v.Struct(step.ExchangeAsset); err != nil {
			return convertValidationError(err)
		}
		if err := validateAssetSources(step.ID, step.ExchangeAsset); err != nil {
			return err
		}
	case "environment":
		if step.Environment == nil {
			return muleopserrors.NewValidationError(step.ID, "environment configuration is required", nil)
		}
		if err := v.Struct(step.Environment); err != nil {
			return convertValidationError(err)
		}
	default:
		return muleopserrors.NewValidationError(step.ID, fmt.Sprintf("unknown step type %q", step.Type), nil)
	}

	return nil
}

// validateAssetSources enforces the payload requirements for asset creation.
// Both present and deprecated targets can create the asset, so both need a
// usable payload source.
func validateAssetSources(stepID string, asset *ExchangeAssetStep) error {
	if asset.State == "absent" {
		return nil
	}

	if _, ok := fileBackedTypes[asset.AssetType]; ok && asset.FilePath == "" {
		return muleopserrors.NewValidationError(stepID,
			fmt.Sprintf("asset type %q requires file_path to upload it", asset.AssetType), nil)
	}

	if _, ok := buildableTypes[asset.AssetType]; ok {
		if asset.FilePath == "" && (asset.Maven == nil || asset.Maven.Sources == "") {
			return muleopserrors.NewValidationError(stepID,
				fmt.Sprintf("asset type %q requires either maven.sources to build it or file_path to upload it", asset.AssetType), nil)
		}
	}

	return nil
}

func fieldForStep(index int, field string) string {
	return fmt.Sprintf("steps[%d].%s", index, field)
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return muleopserrors.NewValidationError("config", invalid.Error(), err)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.ToLower(fe.Field())
		message := fmt.Sprintf("failed %q validation", fe.Tag())
		if fe.Param() != "" {
			message = fmt.Sprintf("failed %q=%s validation", fe.Tag(), fe.Param())
		}
		return muleopserrors.NewValidationError(field, message, err)
	}

	return muleopserrors.NewValidationError("config", err.Error(), err)
}
