package hledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultBinary is the hledger executable looked up on PATH.
	DefaultBinary = "hledger"

	// DefaultTimeout bounds a single hledger invocation.
	DefaultTimeout = 30 * time.Second
)

// Runner executes one hledger invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the real binary via os/exec. Every call gets its own
// deadline so a hung engine cannot stall the caller indefinitely.
type ExecRunner struct {
	binary  string
	timeout time.Duration
}

// NewExecRunner returns an ExecRunner for the given binary and per-call
// timeout. Empty or zero arguments fall back to the defaults.
func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{binary: binary, timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return nil, fmt.Errorf("%w: %q is not installed, see https://hledger.org/install.html", ErrEngineUnavailable, r.binary)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s: %s %s", ErrEngineTimeout, r.timeout, r.binary, strings.Join(args, " "))
	default:
		return nil, &EngineError{Args: args, Stderr: strings.TrimSpace(stderr.String())}
	}
}
