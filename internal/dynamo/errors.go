package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrInvalidMeshData indicates an empty node list or a triangle that
	// references a node index out of range.
	ErrInvalidMeshData = errors.New("dynamo: invalid mesh data")

	// ErrPolicyParse indicates malformed textual policy input.
	ErrPolicyParse = errors.New("dynamo: policy parse error")

	// ErrPolicyFormat indicates a shape mismatch between the declared
	// architecture and the supplied weights.
	ErrPolicyFormat = errors.New("dynamo: policy format error")

	// ErrInvalidTransition indicates a state machine call that is not valid
	// from the current state. Hosts treat it as a no-op.
	ErrInvalidTransition = errors.New("dynamo: invalid state transition")
)

// OpError wraps a domain error with the operation that produced it.
type OpError struct {
	Op      string
	Detail  string
	Wrapped error
}

func (e *OpError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Wrapped, e.Detail)
}

func (e *OpError) Unwrap() error {
	return e.Wrapped
}

// Errorf builds an *OpError around kind with a formatted detail message.
func Errorf(op string, kind error, format string, args ...any) error {
	return &OpError{Op: op, Detail: fmt.Sprintf(format, args...), Wrapped: kind}
}
