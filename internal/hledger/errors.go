package hledger

import (
	"errors"
	"fmt"
	"strings"
)

// The three failure kinds a subprocess call can produce. Callers need to
// tell "no engine installed" apart from "engine rejected this input", so
// each kind is matchable with errors.Is / errors.As.
var (
	// ErrEngineUnavailable means the hledger binary could not be found.
	ErrEngineUnavailable = errors.New("hledger not found")

	// ErrEngineTimeout means the binary ran past the configured time budget
	// and was killed.
	ErrEngineTimeout = errors.New("hledger command timed out")
)

// EngineError is returned when hledger ran but exited non-zero. Stderr
// carries the binary's diagnostic verbatim.
type EngineError struct {
	Args   []string
	Stderr string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("hledger command failed: %s", e.Stderr)
}

// CommandLine reconstructs the invocation for log messages.
func (e *EngineError) CommandLine() string {
	return "hledger " + strings.Join(e.Args, " ")
}
