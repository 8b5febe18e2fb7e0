package maven

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDeployment publishes a prebuilt archive to the distribution repository
// via the deploy:deploy-file goal.
type FileDeployment struct {
	GroupID    string
	AssetID    string
	Version    string
	FilePath   string
	Classifier string
}

// ProjectDeployment builds an asset from its sources and deploys it via the
// clean deploy goals, using a rewritten descriptor and generated credentials.
type ProjectDeployment struct {
	GroupID        string
	AssetID        string
	Version        string
	Name           string
	AssetType      string
	Sources        string
	GlobalSettings string
	POM            string
	Arguments      string
}

// Deployer drives the build tool against the platform's distribution
// repository for one session.
type Deployer struct {
	mvn     *Maven
	host    string
	bearer  string
	workDir string
}

// NewDeployer builds a Deployer writing its generated settings under the
// system temporary directory.
func NewDeployer(mvn *Maven, host, bearer string) *Deployer {
	return &Deployer{mvn: mvn, host: host, bearer: bearer, workDir: os.TempDir()}
}

// NewDeployerWith builds a Deployer with an explicit settings directory.
func NewDeployerWith(mvn *Maven, host, bearer, workDir string) *Deployer {
	return &Deployer{mvn: mvn, host: host, bearer: bearer, workDir: workDir}
}

// DeployFile uploads a prebuilt archive under the composite identifier.
func (d *Deployer) DeployFile(ctx context.Context, dep FileDeployment) error {
	settingsPath := SettingsPath(d.workDir, dep.GroupID, dep.AssetID)
	if err := WriteSettings(settingsPath, d.bearer); err != nil {
		return fmt.Errorf("generating settings file: %w", err)
	}

	args := []string{
		"deploy:deploy-file",
		"-s", settingsPath,
		"-Dfile=" + dep.FilePath,
		"-DrepositoryId=Repository",
		"-DartifactId=" + dep.AssetID,
		"-DgroupId=" + dep.GroupID,
		"-Dversion=" + dep.Version,
		"-Dclassifier=" + dep.Classifier,
		"-Durl=" + RepositoryURL(d.host, dep.GroupID),
	}

	_, err := d.mvn.Run(ctx, args...)
	return err
}

// DeployProject rewrites the project descriptor in place and runs a full
// clean deploy against the distribution repository.
func (d *Deployer) DeployProject(ctx context.Context, dep ProjectDeployment) error {
	if dep.Sources == "" {
		return fmt.Errorf("project deployment requires a sources directory")
	}

	settingsPath := SettingsPath(d.workDir, dep.GroupID, dep.AssetID)
	if err := WriteSettings(settingsPath, d.bearer); err != nil {
		return fmt.Errorf("generating settings file: %w", err)
	}

	pomPath := dep.POM
	if pomPath == "" {
		pomPath = filepath.Join(dep.Sources, "pom.xml")
	}
	if err := RewritePOM(pomPath, POMUpdate{
		GroupID:   dep.GroupID,
		AssetID:   dep.AssetID,
		Version:   dep.Version,
		Name:      dep.Name,
		AssetType: dep.AssetType,
	}); err != nil {
		return err
	}

	args := []string{"-U", "-B", "clean", "deploy", "-DskipTests", "-DattachMuleSources=true"}
	if dep.GlobalSettings != "" {
		args = append(args, "-gs", dep.GlobalSettings)
	}
	args = append(args, "-s", settingsPath, "-f", pomPath)

	extra, err := ParseArguments(dep.Arguments)
	if err != nil {
		return err
	}
	args = append(args, extra...)

	repo := "Repository::default::" + RepositoryURL(d.host, dep.GroupID)
	args = append(args, "-DaltDeploymentRepository="+repo)

	_, err = d.mvn.Run(ctx, args...)
	return err
}
