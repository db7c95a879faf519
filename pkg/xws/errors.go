package xws

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExecuted is returned when a Spec is executed or enqueued a second time.
	ErrAlreadyExecuted = errors.New("call already executed")

	// ErrCanceled is returned when a Spec was canceled before or during execution.
	ErrCanceled = errors.New("canceled")

	// ErrUnauthorized is returned for 401 responses, after every registered
	// auth error callback has been notified.
	ErrUnauthorized = errors.New("401 Unauthorized")

	// ErrQueueFull is returned by Enqueue when the dispatcher queue has no capacity left.
	ErrQueueFull = errors.New("dispatcher queue full")

	// ErrClientClosed is returned by Enqueue once the client has been closed.
	ErrClientClosed = errors.New("client closed")

	// ErrInvalidPath is the root of every path parameter misuse error.
	ErrInvalidPath = errors.New("invalid resource path")

	// ErrInvalidSpec is the root of every other builder misuse error.
	ErrInvalidSpec = errors.New("invalid call spec")

	// ErrStructure is returned when a JSON body does not contain the expected roots.
	ErrStructure = errors.New("json does not match expected structure")
)

func pathError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPath, fmt.Sprintf(format, args...))
}

func specError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpec, fmt.Sprintf(format, args...))
}
