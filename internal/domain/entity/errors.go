package entity

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when a knowledge base is built from zero
// usable records.
var ErrEmptyDataset = errors.New("knowledge base: no usable records")

// ErrJobNotFound is returned when a job id does not resolve to a stored job.
var ErrJobNotFound = errors.New("job not found")

// ErrToolUnavailable signals that the external validation tool could not be
// located or timed out. Degraded-mode signal, not necessarily fatal.
var ErrToolUnavailable = errors.New("validation tool unavailable")

// ModelFailureError wraps a transport/timeout/quota failure from the model
// boundary. It aborts the owning session without consuming retry budget.
type ModelFailureError struct {
	Err error
}

func (e *ModelFailureError) Error() string {
	return fmt.Sprintf("model failure: %v", e.Err)
}

func (e *ModelFailureError) Unwrap() error { return e.Err }

// IsModelFailure reports whether err originates from the model boundary.
func IsModelFailure(err error) bool {
	var mf *ModelFailureError
	return errors.As(err, &mf)
}
