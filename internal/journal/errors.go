package journal

import (
	"errors"
	"fmt"
)

// ErrNoSourcePosition means a replace or delete was attempted on a
// transaction that does not know where it lives in the file. It is returned
// before anything is touched on disk.
var ErrNoSourcePosition = errors.New("transaction has no source position")

// ValidationError means the mutated journal failed hledger's check and the
// file was restored from its backup. Cause carries the engine's diagnostic.
type ValidationError struct {
	Op    string
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("journal failed validation after %s, changes reverted: %v", e.Op, e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
