package plugin

import (
	"context"

	"github.com/muleops/muleops/internal/config"
	"github.com/muleops/muleops/internal/model"
)

// Metadata identifies a plugin and the step type it reconciles.
type Metadata struct {
	Name    string
	Version string
	Type    string
}

// Plugin is the contract every resource reconciler satisfies. The split into
// a strictly read-only Evaluate and a mutating Apply keeps the reconciliation
// plan a value the engine inspects, not an implicit side effect.
type Plugin interface {
	// Metadata returns the plugin's identity.
	Metadata() Metadata

	// Schema returns the struct defining the YAML configuration for this
	// plugin's steps, used for documentation and schema generation.
	Schema() any

	// Evaluate assesses the platform's current state against the step's
	// declared state without mutating anything. It returns the
	// reconciliation plan: whether Apply must run, and plan detail in
	// InternalData so Apply does not re-fetch observed state.
	Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error)

	// Apply mutates the platform to match the declared state. It is only
	// called when Evaluate reported RequiresAction, receives that evaluation
	// result, and must be idempotent.
	Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error)
}
