package engine

import (
	"context"

	"github.com/muleops/muleops/internal/config"
	"github.com/muleops/muleops/internal/logger"
	"github.com/muleops/muleops/internal/plugin"
)

// ExecutionContext carries runtime state for one reconciliation run.
type ExecutionContext struct {
	Config          *config.Config
	DryRun          bool
	ContinueOnError bool
	Logger          *logger.Logger
	Registry        *plugin.Registry
	Context         context.Context
}
