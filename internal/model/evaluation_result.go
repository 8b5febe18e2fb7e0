package model

// EvaluationStatus classifies the observed state of a resource relative to
// its declared state.
type EvaluationStatus string

const (
	// StatusSatisfied means the platform already matches the declaration.
	StatusSatisfied EvaluationStatus = "satisfied"
	// StatusMissing means the resource does not exist and must be created.
	StatusMissing EvaluationStatus = "missing"
	// StatusDrifted means the resource exists but one or more declared
	// attributes differ from the observed ones.
	StatusDrifted EvaluationStatus = "drifted"
	// StatusBlocked means evaluation could not determine the state.
	StatusBlocked EvaluationStatus = "blocked"
)

// EvaluationResult is the outcome of a strictly read-only assessment of a
// step. It carries the reconciliation plan: whether Apply must run at all and
// the plugin-internal detail of which mutations are needed.
type EvaluationResult struct {
	// StepID is the unique identifier of the evaluated step.
	StepID string

	// CurrentState is the observed state relative to the declaration.
	CurrentState EvaluationStatus

	// RequiresAction reports whether Apply() must be called. False means the
	// platform already satisfies the declaration and no mutation is issued.
	RequiresAction bool

	// Message is a human-readable description of what was found.
	Message string

	// Outputs holds resource identifiers discovered during evaluation
	// (environment id, client id, client secret). Populated even when no
	// action is required so a no-op run still reports them.
	Outputs map[string]string

	// InternalData is opaque plan data passed from Evaluate() to Apply() so
	// the observed state is not re-fetched.
	InternalData any
}
