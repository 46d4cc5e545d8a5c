package pipeline

import (
	"fmt"

	"github.com/hoyack/gemsieve/internal/domain"
)

// ErrorKind classifies a stage failure for the run record and the admin
// surface's error display (§5 "stage error taxonomy").
type ErrorKind string

const (
	ErrKindConfig       ErrorKind = "config"
	ErrKindTransport    ErrorKind = "transport"
	ErrKindSchema       ErrorKind = "schema"
	ErrKindInvariant    ErrorKind = "invariant"
	ErrKindCancellation ErrorKind = "cancellation"
)

// StageError wraps a failure with the stage it occurred in and its kind.
// CompleteRun stores Error() as the run's error_message.
type StageError struct {
	Kind  ErrorKind
	Stage domain.StageName
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage domain.StageName, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
