package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muleops/muleops/internal/anypoint"
	"github.com/muleops/muleops/internal/config"
	"github.com/muleops/muleops/internal/engine"
	"github.com/muleops/muleops/internal/logger"
	"github.com/muleops/muleops/internal/maven"
	"github.com/muleops/muleops/internal/plugin"
	environmentplugin "github.com/muleops/muleops/internal/plugins/environment"
	exchangeassetplugin "github.com/muleops/muleops/internal/plugins/exchangeasset"
)

type applyOptions struct {
	ConfigPath string
	DryRun     bool
	Verbose    bool
}

func newApplyCmd(root *rootFlags) *cobra.Command {
	opts := applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile every declared resource against the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runApply(cmd *cobra.Command, opts applyOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	effectiveDryRun := opts.DryRun || cfg.Settings.DryRun
	effectiveVerbose := opts.Verbose || cfg.Settings.Verbose

	level := "info"
	if effectiveVerbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: term.IsTerminal(int(os.Stderr.Fd())),
	})
	if err != nil {
		return err
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	execCtx := &engine.ExecutionContext{
		Config:          cfg,
		DryRun:          effectiveDryRun,
		ContinueOnError: cfg.Settings.ContinueOnError,
		Logger:          log,
		Registry:        registry,
		Context:         context.Background(),
	}

	results, execErr := engine.Execute(execCtx)
	printSummary(cmd.OutOrStdout(), results)

	if execErr != nil {
		return fmt.Errorf("apply failed: %w", execErr)
	}
	return nil
}

// buildRegistry wires the plugins with their external collaborators. Binary
// lookups happen here, before any platform state is read: a missing tool on
// the host is fatal at startup, dry run included.
func buildRegistry(cfg *config.Config) (*plugin.Registry, error) {
	conn := anypoint.Connection{
		Host:         cfg.Platform.Host,
		Organization: cfg.Platform.Organization,
		Bearer:       cfg.Platform.Bearer,
	}

	cli, err := anypoint.NewCLI(conn)
	if err != nil {
		return nil, err
	}
	client := anypoint.NewClient(cfg.Platform.Host, cfg.Platform.Bearer)

	// The deploy paths are only reachable for the types needsBuildTool
	// covers, so the build tool is located exactly when one is declared.
	var deployer exchangeassetplugin.Deployer
	if needsBuildTool(cfg) {
		mvn, err := maven.New()
		if err != nil {
			return nil, err
		}
		deployer = maven.NewDeployer(mvn, cfg.Platform.Host, cfg.Platform.Bearer)
	}

	registry := plugin.NewRegistry()
	if err := registry.Register("exchange_asset", exchangeassetplugin.New(cli, client, deployer, cfg.Platform)); err != nil {
		return nil, err
	}
	if err := registry.Register("environment", environmentplugin.New(cli, client, cfg.Platform)); err != nil {
		return nil, err
	}
	return registry, nil
}

// needsBuildTool reports whether any declared asset can take a maven path.
func needsBuildTool(cfg *config.Config) bool {
	for _, step := range cfg.Steps {
		asset := step.ExchangeAsset
		if asset == nil || asset.State == "absent" {
			continue
		}
		switch asset.AssetType {
		case "example", "template", "connector", "extension", "policy":
			return true
		}
	}
	return false
}
