// internal/flows/errors.go
package flows

import (
	"fmt"
	"runtime/debug"
)

// ErrorCode classifies why a flow step failed.
type ErrorCode string

const (
	// -- Page interaction --
	ErrCodeElementNotFound   ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeInteractionFailed ErrorCode = "INTERACTION_FAILED"
	ErrCodeNavigationError   ErrorCode = "NAVIGATION_ERROR"
	ErrCodeSubmitFailed      ErrorCode = "SUBMIT_FAILED"

	// -- Internal --
	ErrCodeFlowPanic ErrorCode = "FLOW_PANIC"
)

// FlowError is the error recorded on an account when a step fails.
type FlowError struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v [%s]", e.Msg, e.Err, e.Code)
	}
	return fmt.Sprintf("%s [%s]", e.Msg, e.Code)
}

func (e *FlowError) Unwrap() error { return e.Err }

func newFlowError(code ErrorCode, err error, format string, args ...interface{}) *FlowError {
	return &FlowError{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// panicError converts a recovered panic value. The stack is kept for the log,
// not for the report.
func panicError(r interface{}) (*FlowError, []byte) {
	return &FlowError{Code: ErrCodeFlowPanic, Msg: fmt.Sprintf("recovered from panic: %v", r)}, debug.Stack()
}
