package tools

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrDuplicateToolName is returned by Register when the name is taken.
var ErrDuplicateToolName = errors.New("duplicate tool name")

// UnknownToolError reports an invocation of a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// InvalidArgumentsError reports arguments that do not satisfy a tool schema.
type InvalidArgumentsError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// Failure is a handler-level failure surfaced to the client as a protocol
// error with its own code.
type Failure struct {
	Code    int
	Message string
	Data    any

	cause error
}

func (e *Failure) Error() string {
	return e.Message
}

func (e *Failure) Unwrap() error {
	return e.cause
}

// InternalError builds a Failure with the JSON-RPC internal error code.
// A %w verb in format keeps the wrapped error reachable through errors.Is.
func InternalError(format string, args ...any) *Failure {
	err := fmt.Errorf(format, args...)
	return &Failure{Code: mcp.INTERNAL_ERROR, Message: err.Error(), cause: errors.Unwrap(err)}
}

// ErrorCode maps an invocation error to the JSON-RPC error code reported to
// the client.
func ErrorCode(err error) int {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Code
	}
	var unknown *UnknownToolError
	var invalid *InvalidArgumentsError
	if errors.As(err, &unknown) || errors.As(err, &invalid) {
		return mcp.INVALID_PARAMS
	}
	return mcp.INTERNAL_ERROR
}

// ErrorData returns the structured data attached to a Failure, if any.
func ErrorData(err error) any {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Data
	}
	return nil
}
