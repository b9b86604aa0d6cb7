package session

import (
	"errors"
	"fmt"
)

// ErrNoInput indicates a session produced no audio or text to analyze.
// It is fatal: the orchestrator transitions straight to Failed without
// entering the analysis stages.
var ErrNoInput = errors.New("no audio or text captured")

// StageError records the failure of one analysis stage. Stage failures are
// recovered: the orchestrator notes them and continues with the remaining
// stages so a partial report is still produced.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PersistenceError records a failure writing a session artifact
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
