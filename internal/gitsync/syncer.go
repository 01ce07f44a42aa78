package gitsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calder-fi/hledger-engine/internal/budget"
)

// Syncer keeps the journal's directory in sync with its git remote. All
// commands run in the journal's directory, and only the journal and budget
// files are ever staged, so unrelated files in the repository are left
// alone.
type Syncer struct {
	journalFile string
	dir         string
	runner      Runner
}

// NewSyncer returns a syncer for the repository containing journalFile.
func NewSyncer(journalFile string, runner Runner) *Syncer {
	return &Syncer{
		journalFile: journalFile,
		dir:         filepath.Dir(journalFile),
		runner:      runner,
	}
}

func (s *Syncer) run(ctx context.Context, args ...string) ([]byte, error) {
	return s.runner.Run(ctx, s.dir, args...)
}

// IsRepo reports whether the journal lives inside a git repository.
func (s *Syncer) IsRepo(ctx context.Context) bool {
	_, err := s.run(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// Branch returns the checked-out branch name, "detached" for a detached
// HEAD, or "?" when git cannot say.
func (s *Syncer) Branch(ctx context.Context) string {
	out, err := s.run(ctx, "branch", "--show-current")
	if err != nil {
		return "?"
	}
	branch := strings.TrimSpace(string(out))
	if branch == "" {
		return "detached"
	}
	return branch
}

// StatusSummary describes the working tree in one short line.
func (s *Syncer) StatusSummary(ctx context.Context) string {
	out, err := s.run(ctx, "status", "--porcelain")
	if err != nil {
		return "?"
	}
	changed := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			changed++
		}
	}
	switch changed {
	case 0:
		return "Clean"
	case 1:
		return "1 changed file"
	default:
		return fmt.Sprintf("%d changed files", changed)
	}
}

// Sync stages the journal and budget files, commits them when anything
// changed, rebases onto the remote, and pushes. The returned message says
// which of that actually happened. A rebase that hits conflicts is aborted
// so the working tree is never left mid-rebase.
func (s *Syncer) Sync(ctx context.Context) (string, error) {
	if _, err := s.run(ctx, "add", s.journalFile); err != nil {
		return "", err
	}
	budgetFile := filepath.Join(s.dir, budget.Filename)
	if _, err := os.Stat(budgetFile); err == nil {
		if _, err := s.run(ctx, "add", budgetFile); err != nil {
			return "", err
		}
	}

	// diff --cached --quiet exits non-zero when something is staged.
	committed := false
	if _, err := s.run(ctx, "diff", "--cached", "--quiet"); err != nil {
		message := fmt.Sprintf("Update journal (%s)", time.Now().Format("2006-01-02 15:04"))
		if _, err := s.run(ctx, "commit", "-m", message); err != nil {
			return "", err
		}
		committed = true
	}

	if _, err := s.run(ctx, "pull", "--rebase"); err != nil {
		_, _ = s.run(ctx, "rebase", "--abort")
		return "", fmt.Errorf("pull --rebase hit conflicts, resolve manually: %w", err)
	}
	if _, err := s.run(ctx, "push"); err != nil {
		return "", err
	}

	if committed {
		return "Committed and pushed successfully", nil
	}
	return "Nothing to commit, pulled and pushed", nil
}
