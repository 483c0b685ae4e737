package owner

import (
	"errors"
	"fmt"
)

var (
	// ErrExecution matches every *ExecutionError via errors.Is.
	ErrExecution = errors.New("execution failed")

	ErrAlreadyStarted = errors.New("executor already started")
	ErrNilTask        = errors.New("task has no run function")
)

// ExecutionError is delivered to a future whose operation failed on the
// executor goroutine, either by returning an error or by panicking.
type ExecutionError struct {
	Op        string // Task name
	Err       error  // Error returned by the operation, nil on panic
	Recovered any    // Value recovered from a panic, nil otherwise
	Stack     []byte // Stack captured at the panic site
}

func (e *ExecutionError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("%s: %s panicked: %v", ErrExecution, e.Op, e.Recovered)
	}
	return fmt.Sprintf("%s: %s: %v", ErrExecution, e.Op, e.Err)
}

// Panicked reports whether the operation panicked rather than returned an error.
func (e *ExecutionError) Panicked() bool { return e.Recovered != nil }

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }
