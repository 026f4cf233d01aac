package slicer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyActiveContent    = errors.New("active content empty")
	ErrNoCode                = errors.New("no code found")
	ErrSliceNotFound         = errors.New("slice not found")
	ErrActiveContentNotFound = errors.New("active content not found in document")
	ErrLineOutOfRange        = errors.New("slice line out of range")
)

// ValidationError reports a local precondition failure. It unwraps to one of the sentinels above.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(op string, err error) error {
	return &ValidationError{Op: op, Err: err}
}

// AnalysisError is returned when code cannot be analyzed. Traceback is optional.
type AnalysisError struct {
	Message   string
	Traceback string
}

func (e *AnalysisError) Error() string {
	return e.Message
}
