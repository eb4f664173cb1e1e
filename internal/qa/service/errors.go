package service

import "fmt"

// ErrorClass buckets pipeline failures by the stage that produced them, so
// the delivery layer can map them to responses without inspecting causes.
type ErrorClass string

const (
	// ClassUnderstanding covers failures to interpret the question.
	ClassUnderstanding ErrorClass = "understanding"
	// ClassBuild covers failures to render a complete query from the
	// interpretation.
	ClassBuild ErrorClass = "build"
	// ClassUnsupported covers well-formed questions the system has no
	// template or answer shape for.
	ClassUnsupported ErrorClass = "unsupported"
	// ClassSearch covers engine and infrastructure failures.
	ClassSearch ErrorClass = "search"
)

// PipelineError is the single error type crossing the service boundary.
type PipelineError struct {
	Class   ErrorClass
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

func pipelineErr(class ErrorClass, message string, err error) *PipelineError {
	return &PipelineError{Class: class, Message: message, Err: err}
}
