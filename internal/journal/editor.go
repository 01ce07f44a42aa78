package journal

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/calder-fi/hledger-engine/internal/ledger"
)

// Checker validates a journal file. It is how the editor asks the engine
// whether a mutated file is still acceptable.
type Checker interface {
	Check(ctx context.Context) error
}

// Editor applies transactional mutations to one journal file. Every
// mutation runs the same cycle: back the file up, rewrite it, have the
// checker validate the result, then either commit (drop the backup) or
// restore the original. A failed mutation leaves the file byte-identical
// to how it was found, and the backup never outlives the call.
type Editor struct {
	file    string
	checker Checker
}

// NewEditor returns an editor for the given journal file.
func NewEditor(file string, checker Checker) *Editor {
	return &Editor{file: file, checker: checker}
}

// File returns the path the editor mutates.
func (e *Editor) File() string {
	return e.file
}

// Append formats txn and adds it at the end of the journal, separated from
// existing entries by a single blank line.
func (e *Editor) Append(ctx context.Context, txn *ledger.Transaction) error {
	return e.Rewrite(ctx, "append transaction", func(content string) (string, error) {
		return appendTransaction(content, txn), nil
	})
}

// Replace swaps the file lines txn occupies for a fresh rendering of
// replacement. txn must carry the source span of a prior load; replacement
// needs no span of its own.
func (e *Editor) Replace(ctx context.Context, txn, replacement *ledger.Transaction) error {
	if txn.Span == nil {
		return ErrNoSourcePosition
	}
	span := *txn.Span
	return e.Rewrite(ctx, "replace transaction", func(content string) (string, error) {
		return spliceTransaction(content, span, replacement)
	})
}

// Delete removes txn's lines from the journal, along with the blank line
// above them so no double gap is left behind. txn must carry a source span.
func (e *Editor) Delete(ctx context.Context, txn *ledger.Transaction) error {
	if txn.Span == nil {
		return ErrNoSourcePosition
	}
	span := *txn.Span
	return e.Rewrite(ctx, "delete transaction", func(content string) (string, error) {
		return cutTransaction(content, span)
	})
}

// Rewrite runs one full mutation cycle with an arbitrary content
// transformation: backup, mutate, validate, commit or restore. op names
// the operation for error messages.
func (e *Editor) Rewrite(ctx context.Context, op string, mutate func(string) (string, error)) error {
	bak, err := newBackup(e.file)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	defer bak.discard()

	if err := e.applyMutation(mutate); err != nil {
		return rollback(bak, fmt.Errorf("failed to %s: %w", op, err))
	}
	if err := e.checker.Check(ctx); err != nil {
		return rollback(bak, &ValidationError{Op: op, Cause: err})
	}
	return nil
}

func (e *Editor) applyMutation(mutate func(string) (string, error)) error {
	data, err := os.ReadFile(e.file)
	if err != nil {
		return err
	}
	content, err := mutate(string(data))
	if err != nil {
		return err
	}
	return os.WriteFile(e.file, []byte(content), 0o644)
}

// rollback restores the journal from its backup and passes cause through.
// When the restore itself fails both problems end up in the message, since
// at that point the file needs a human.
func rollback(bak *backupFile, cause error) error {
	if err := bak.restore(); err != nil {
		return fmt.Errorf("%w (restoring the backup also failed: %v)", cause, err)
	}
	return cause
}

func appendTransaction(content string, txn *ledger.Transaction) string {
	if content != "" && !strings.HasSuffix(content, "\n\n") {
		if strings.HasSuffix(content, "\n") {
			content += "\n"
		} else {
			content += "\n\n"
		}
	}
	return content + ledger.FormatTransaction(txn) + "\n"
}

func spliceTransaction(content string, span ledger.SourceSpan, txn *ledger.Transaction) (string, error) {
	lines := splitKeepEnds(content)
	if err := checkSpan(span, len(lines)); err != nil {
		return "", err
	}
	start, end := span.Start.Line-1, span.End.Line-1
	return strings.Join(lines[:start], "") +
		ledger.FormatTransaction(txn) + "\n" +
		strings.Join(lines[end:], ""), nil
}

func cutTransaction(content string, span ledger.SourceSpan) (string, error) {
	lines := splitKeepEnds(content)
	if err := checkSpan(span, len(lines)); err != nil {
		return "", err
	}
	start, end := span.Start.Line-1, span.End.Line-1
	// Take the blank separator above the transaction with it, otherwise
	// the cut leaves two blank lines back to back.
	if start > 0 && strings.TrimSpace(lines[start-1]) == "" {
		start--
	}
	return strings.Join(lines[:start], "") + strings.Join(lines[end:], ""), nil
}

// checkSpan rejects spans that do not fit the file before any text is
// moved. Spans are 1-based and half-open, so End.Line may point one past
// the last line but no further.
func checkSpan(span ledger.SourceSpan, lineCount int) error {
	start, end := span.Start.Line-1, span.End.Line-1
	if start < 0 || end < start || end > lineCount {
		return fmt.Errorf("transaction lines %d-%d are out of range for a %d-line file",
			span.Start.Line, span.End.Line, lineCount)
	}
	return nil
}

// splitKeepEnds splits content into lines that keep their trailing
// newlines, so joining any subset back together never invents or loses
// line breaks.
func splitKeepEnds(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
