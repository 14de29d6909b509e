package interaction

import (
	"context"
	"fmt"

	"github.com/qj0r9j0vc2/modmail/internal/domain/entity"
)

// pipelineState carries results from one step to the next.
type pipelineState struct {
	thread entity.Thread
}

// step is one ordered unit of a dispatch, usually a single outbound call.
type step struct {
	name string
	run  func(ctx context.Context, st *pipelineState) error
}

// StepError reports which step of a dispatch failed. Steps after it never ran.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// runPipeline runs steps in order and stops at the first failure.
func runPipeline(ctx context.Context, st *pipelineState, steps ...step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		if err := s.run(ctx, st); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
	}
	return nil
}
