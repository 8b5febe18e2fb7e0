package config

import (
	"gopkg.in/yaml.v3"
)

// DefaultHost is the hosted Anypoint control plane.
const DefaultHost = "anypoint.mulesoft.com"

// Config represents the full muleops configuration document.
type Config struct {
	Version  string   `yaml:"version" validate:"required"`
	Name     string   `yaml:"name" validate:"required,min=1,max=100"`
	Platform Platform `yaml:"platform"`
	Settings Settings `yaml:"settings,omitempty"`
	Steps    []Step   `yaml:"steps" validate:"required,min=1,dive"`
}

// Platform holds the connection parameters shared by every step.
type Platform struct {
	Host           string `yaml:"host,omitempty"`
	Organization   string `yaml:"organization" validate:"required"`
	OrganizationID string `yaml:"organization_id,omitempty"`
	Bearer         string `yaml:"bearer" validate:"required"`
}

// Settings holds global execution parameters.
type Settings struct {
	Timeout         int  `yaml:"timeout,omitempty" validate:"omitempty,min=1,max=360000"`
	ContinueOnError bool `yaml:"continue_on_error,omitempty"`
	DryRun          bool `yaml:"dry_run,omitempty"`
	Verbose         bool `yaml:"verbose,omitempty"`
}

// Step describes one declared resource to reconcile.
type Step struct {
	ID   string `yaml:"id" validate:"required,step_id"`
	Type string `yaml:"type" validate:"required,oneof=exchange_asset environment"`

	ExchangeAsset *ExchangeAssetStep `yaml:",inline,omitempty"`
	Environment   *EnvironmentStep   `yaml:",inline,omitempty"`
}

// MavenSpec configures the build-tool path for example/template assets.
type MavenSpec struct {
	Sources string `yaml:"sources,omitempty"`
	// Settings is an optional global settings file merged by maven with the
	// generated user settings (-gs). Useful to resolve external dependencies.
	Settings string `yaml:"settings,omitempty"`
	// POM forces maven to use this descriptor instead of sources/pom.xml.
	POM string `yaml:"pom,omitempty"`
	// Arguments is a shell-style string of extra -D flags and options,
	// appended verbatim to the maven invocation.
	Arguments string `yaml:"arguments,omitempty"`
}

// ExchangeAssetStep declares the desired state of an Exchange asset.
type ExchangeAssetStep struct {
	State        string     `yaml:"state" validate:"required,oneof=present deprecated absent"`
	Name         string     `yaml:"name" validate:"required"`
	AssetType    string     `yaml:"asset_type" validate:"required,oneof=custom oas wsdl example template extension connector policy"`
	GroupID      string     `yaml:"group_id" validate:"required"`
	AssetID      string     `yaml:"asset_id" validate:"required"`
	AssetVersion string     `yaml:"asset_version,omitempty" validate:"omitempty,semver"`
	APIVersion   string     `yaml:"api_version,omitempty"`
	MainFile     string     `yaml:"main_file,omitempty"`
	FilePath     string     `yaml:"file_path,omitempty"`
	Description  string     `yaml:"description,omitempty"`
	Icon         string     `yaml:"icon,omitempty"`
	Tags         []string   `yaml:"tags,omitempty"`
	Maven        *MavenSpec `yaml:"maven,omitempty"`
}

// EnvironmentStep declares the desired state of an account environment.
type EnvironmentStep struct {
	State   string `yaml:"state" validate:"required,oneof=present absent"`
	Name    string `yaml:"name" validate:"required"`
	EnvType string `yaml:"env_type,omitempty" validate:"omitempty,oneof=design sandbox production"`
}

// UnmarshalYAML customises step decoding to populate type-specific structures
// without conflicts.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type baseStep struct {
		ID   string `yaml:"id"`
		Type string `yaml:"type"`
	}

	var base baseStep
	if err := value.Decode(&base); err != nil {
		return err
	}

	s.ID = base.ID
	s.Type = base.Type
	s.ExchangeAsset = nil
	s.Environment = nil

	switch base.Type {
	case "exchange_asset":
		var asset ExchangeAssetStep
		if err := value.Decode(&asset); err != nil {
			return err
		}
		s.ExchangeAsset = &asset
	case "environment":
		var env EnvironmentStep
		if err := value.Decode(&env); err != nil {
			return err
		}
		s.Environment = &env
	}

	return nil
}

// UnmarshalYAML applies defaults for asset steps.
func (a *ExchangeAssetStep) UnmarshalYAML(value *yaml.Node) error {
	type rawAsset ExchangeAssetStep
	var temp rawAsset
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*a = ExchangeAssetStep(temp)
	if a.AssetVersion == "" {
		a.AssetVersion = "1.0.0"
	}
	if a.APIVersion == "" {
		a.APIVersion = "1.0"
	}
	return nil
}

// UnmarshalYAML applies defaults for environment steps.
func (e *EnvironmentStep) UnmarshalYAML(value *yaml.Node) error {
	type rawEnv EnvironmentStep
	var temp rawEnv
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*e = EnvironmentStep(temp)
	if e.EnvType == "" {
		e.EnvType = "production"
	}
	return nil
}
