package workflow

import (
	"errors"
	"fmt"
)

// ErrStageFailure marks a stage that failed for a reason other than the input
// data.
var ErrStageFailure = errors.New("stage failure")

// StageError reports the stage that halted a run together with the state
// accumulated before it.
type StageError struct {
	Stage StageName
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
