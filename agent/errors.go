package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrToolLoopExceeded is returned when the model keeps requesting tools
	// after the configured number of tool turns.
	ErrToolLoopExceeded = errors.New("tool loop exceeded")

	// ErrEmptyMessage rejects blank user input before anything is persisted.
	ErrEmptyMessage = errors.New("message is empty")
)

// Stage names the part of a turn that failed.
type Stage string

const (
	StageConversation Stage = "conversation"
	StageCompletion   Stage = "completion"
	StageToolLoop     Stage = "tool loop"
	StagePersist      Stage = "persist"
)

// StageError tags a turn failure with the stage it happened in. The
// underlying error stays reachable through errors.Is and errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
