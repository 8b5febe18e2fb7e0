package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/muleops/muleops/internal/config"
	"github.com/muleops/muleops/internal/model"
	muleopserrors "github.com/muleops/muleops/pkg/errors"
)

// Execute reconciles every step in declared order, one at a time. There is
// exactly one apply in flight at any moment; a failed step halts the run
// unless ContinueOnError is set.
func Execute(execCtx *ExecutionContext) ([]model.StepResult, error) {
	if execCtx == nil {
		return nil, muleopserrors.NewExecutionError("", fmt.Errorf("execution context is nil"))
	}
	if execCtx.Config == nil {
		return nil, muleopserrors.NewExecutionError("", fmt.Errorf("execution context config is nil"))
	}

	baseCtx := execCtx.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	timeout := time.Duration(execCtx.Config.Settings.Timeout) * time.Second

	var results []model.StepResult
	var firstErr error

	for i := range execCtx.Config.Steps {
		step := &execCtx.Config.Steps[i]

		if baseCtx.Err() != nil {
			return results, muleopserrors.NewExecutionError(step.ID, baseCtx.Err())
		}

		res, err := executeStep(baseCtx, execCtx, step, timeout)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if !execCtx.ContinueOnError {
				return results, err
			}
		}
	}

	return results, firstErr
}

func executeStep(ctx context.Context, execCtx *ExecutionContext, step *config.Step, timeout time.Duration) (*model.StepResult, error) {
	stepCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	impl, err := execCtx.Registry.Get(step.Type)
	if err != nil {
		return failedResult(step.ID, err), err
	}

	log := execCtx.Logger.WithStep(step.ID, step.Type)
	start := time.Now()

	log.Debug("evaluating current state")
	evalResult, err := impl.Evaluate(stepCtx, step)
	if err != nil {
		wrapped := fmt.Errorf("evaluation failed for step %s: %w", step.ID, err)
		return failedResult(step.ID, wrapped), wrapped
	}

	var result *model.StepResult
	if execCtx.DryRun {
		result = dryRunResult(evalResult)
	} else if evalResult.RequiresAction {
		log.Info(evalResult.Message)
		result, err = impl.Apply(stepCtx, evalResult, step)
	} else {
		log.Debug(evalResult.Message)
		result = &model.StepResult{
			StepID:  evalResult.StepID,
			Status:  model.StatusSkipped,
			Message: evalResult.Message,
			Outputs: evalResult.Outputs,
		}
	}

	if result == nil {
		result = &model.StepResult{StepID: step.ID}
	}
	if result.StepID == "" {
		result.StepID = step.ID
	}
	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	if err != nil {
		log.Error(err, "step failed")
		result.Status = model.StatusFailed
		if result.Error == nil {
			result.Error = err
		}
		return result, err
	}

	if result.Status == model.StatusSuccess {
		log.Info(result.Message)
	}
	return result, nil
}

func dryRunResult(evalResult *model.EvaluationResult) *model.StepResult {
	if evalResult.RequiresAction {
		return &model.StepResult{
			StepID:  evalResult.StepID,
			Status:  model.StatusWouldChange,
			Changed: true,
			Message: evalResult.Message,
		}
	}
	return &model.StepResult{
		StepID:  evalResult.StepID,
		Status:  model.StatusSkipped,
		Message: evalResult.Message,
		Outputs: evalResult.Outputs,
	}
}

func failedResult(stepID string, err error) *model.StepResult {
	return &model.StepResult{
		StepID:    stepID,
		Status:    model.StatusFailed,
		Message:   err.Error(),
		Error:     err,
		Timestamp: time.Now(),
	}
}
