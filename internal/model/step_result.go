package model

import (
	"time"
)

const (
	// StatusSuccess marks a step whose mutations were applied.
	StatusSuccess = "success"
	// StatusSkipped marks a step that required no action.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during evaluation or apply.
	StatusFailed = "failed"
	// StatusWouldChange indicates a dry run detected pending mutations.
	StatusWouldChange = "would_change"
)

// StepResult captures the outcome of reconciling a single step: the changed
// flag (Changed), a message, and any resource identifiers produced.
type StepResult struct {
	StepID    string
	Status    string
	Changed   bool
	Message   string
	Outputs   map[string]string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}
