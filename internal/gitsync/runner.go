package gitsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation; pulls and pushes talk to
// the network, so this is generous.
const DefaultTimeout = 30 * time.Second

var (
	// ErrGitUnavailable means the git binary could not be found.
	ErrGitUnavailable = errors.New("git not found")

	// ErrGitTimeout means a git command ran past its time budget.
	ErrGitTimeout = errors.New("git command timed out")
)

// GitError is returned when git ran but exited non-zero.
type GitError struct {
	Args   []string
	Stderr string
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed: %s", strings.Join(e.Args, " "), e.Stderr)
}

// Runner executes one git invocation in a working directory and returns
// its stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ExecRunner runs the real git binary. Prompts are disabled so a
// credential-less remote fails fast instead of hanging on stdin.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner returns an ExecRunner with the given per-call timeout, or
// the default when zero.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return nil, ErrGitUnavailable
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s: git %s", ErrGitTimeout, r.timeout, strings.Join(args, " "))
	default:
		return nil, &GitError{Args: args, Stderr: strings.TrimSpace(stderr.String())}
	}
}
