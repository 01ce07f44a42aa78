package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/calder-fi/hledger-engine/internal/ledger"
)

const sampleJournal = `2026-01-15 * (INV-001) Grocery shopping  ; weekly groceries
    expenses:food:groceries                       €40.80
    assets:bank:checking                         €-40.80

2026-01-16 Salary
    assets:bank:checking                        €3000.00
    income:salary                              €-3000.00

2026-01-17 ! Office supplies
    expenses:office                               €30.00
    assets:bank:checking
`

// Line spans of the three fixture transactions, 1-based and half-open.
var (
	spanFirst  = ledger.SourceSpan{Start: ledger.SourcePosition{Line: 1, Column: 1}, End: ledger.SourcePosition{Line: 4, Column: 1}}
	spanMiddle = ledger.SourceSpan{Start: ledger.SourcePosition{Line: 5, Column: 1}, End: ledger.SourcePosition{Line: 8, Column: 1}}
	spanLast   = ledger.SourceSpan{Start: ledger.SourcePosition{Line: 9, Column: 1}, End: ledger.SourcePosition{Line: 12, Column: 1}}
)

// stubChecker counts validations and can fail them or observe the file
// mid-mutation.
type stubChecker struct {
	err     error
	calls   int
	onCheck func()
}

func (c *stubChecker) Check(context.Context) error {
	c.calls++
	if c.onCheck != nil {
		c.onCheck()
	}
	return c.err
}

func writeJournal(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.journal")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readJournal(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	return string(data)
}

func euro(quantity string) ledger.Amount {
	return ledger.Amount{
		Commodity: "€",
		Quantity:  decimal.RequireFromString(quantity),
		Style:     ledger.DefaultStyle(),
	}
}

func rentTransaction() *ledger.Transaction {
	return &ledger.Transaction{
		Date:        "2026-02-01",
		Description: "Rent payment",
		Status:      ledger.StatusUnmarked,
		Postings: []ledger.Posting{
			{Account: "expenses:rent", Amounts: []ledger.Amount{euro("800.00")}},
			{Account: "assets:bank:checking", Amounts: []ledger.Amount{euro("-800.00")}},
		},
	}
}

// -- Append tests --

func TestAppend_SeparatesWithBlankLine(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{}
	editor := NewEditor(path, checker)
	txn := rentTransaction()

	err := editor.Append(context.Background(), txn)

	assert.NoError(t, err)
	assert.Equal(t, sampleJournal+"\n"+ledger.FormatTransaction(txn)+"\n", readJournal(t, path))
	assert.Equal(t, 1, checker.calls)
}

func TestAppend_FileWithoutTrailingNewline(t *testing.T) {
	content := "2026-01-01 Opening\n    assets:bank:checking                          €1.00\n    equity:opening"
	path := writeJournal(t, content)
	editor := NewEditor(path, &stubChecker{})
	txn := rentTransaction()

	err := editor.Append(context.Background(), txn)

	assert.NoError(t, err)
	assert.Equal(t, content+"\n\n"+ledger.FormatTransaction(txn)+"\n", readJournal(t, path))
}

func TestAppend_FileAlreadyEndsWithBlankLine(t *testing.T) {
	content := "2026-01-01 Opening\n    assets:bank:checking  €1.00\n    equity:opening\n\n"
	path := writeJournal(t, content)
	editor := NewEditor(path, &stubChecker{})
	txn := rentTransaction()

	err := editor.Append(context.Background(), txn)

	assert.NoError(t, err)
	assert.Equal(t, content+ledger.FormatTransaction(txn)+"\n", readJournal(t, path))
}

func TestAppend_EmptyFile(t *testing.T) {
	path := writeJournal(t, "")
	editor := NewEditor(path, &stubChecker{})
	txn := rentTransaction()

	err := editor.Append(context.Background(), txn)

	assert.NoError(t, err)
	assert.Equal(t, ledger.FormatTransaction(txn)+"\n", readJournal(t, path))
}

func TestAppend_MissingFileFails(t *testing.T) {
	editor := NewEditor(filepath.Join(t.TempDir(), "absent.journal"), &stubChecker{})

	err := editor.Append(context.Background(), rentTransaction())

	assert.ErrorContains(t, err, "failed to append transaction")
}

func TestAppend_ValidationFailureRestores(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{err: errors.New("could not balance this transaction")}
	editor := NewEditor(path, checker)

	err := editor.Append(context.Background(), rentTransaction())

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "append transaction", vErr.Op)
	assert.ErrorContains(t, err, "changes reverted")
	assert.Equal(t, sampleJournal, readJournal(t, path))
	assert.NoFileExists(t, BackupPath(path))
}

// -- Replace tests --

func TestReplace_SwapsTransactionLines(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	editor := NewEditor(path, &stubChecker{})
	old := &ledger.Transaction{Span: &spanMiddle}
	replacement := rentTransaction()

	err := editor.Replace(context.Background(), old, replacement)

	assert.NoError(t, err)
	expected := `2026-01-15 * (INV-001) Grocery shopping  ; weekly groceries
    expenses:food:groceries                       €40.80
    assets:bank:checking                         €-40.80

` + ledger.FormatTransaction(replacement) + "\n" + `
2026-01-17 ! Office supplies
    expenses:office                               €30.00
    assets:bank:checking
`
	assert.Equal(t, expected, readJournal(t, path))
}

func TestReplace_NoSpanRejectedBeforeTouchingDisk(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{}
	editor := NewEditor(path, checker)

	err := editor.Replace(context.Background(), &ledger.Transaction{}, rentTransaction())

	assert.ErrorIs(t, err, ErrNoSourcePosition)
	assert.Equal(t, 0, checker.calls)
	assert.Equal(t, sampleJournal, readJournal(t, path))
	assert.NoFileExists(t, BackupPath(path))
}

func TestReplace_OutOfRangeSpanRestores(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{}
	editor := NewEditor(path, checker)
	stale := &ledger.Transaction{Span: &ledger.SourceSpan{
		Start: ledger.SourcePosition{Line: 999, Column: 1},
		End:   ledger.SourcePosition{Line: 1002, Column: 1},
	}}

	err := editor.Replace(context.Background(), stale, rentTransaction())

	assert.ErrorContains(t, err, "out of range")
	assert.Equal(t, 0, checker.calls, "nothing to validate when the splice is rejected")
	assert.Equal(t, sampleJournal, readJournal(t, path))
	assert.NoFileExists(t, BackupPath(path))
}

func TestReplace_ValidationFailureRestores(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{err: errors.New("unbalanced")}
	editor := NewEditor(path, checker)

	err := editor.Replace(context.Background(), &ledger.Transaction{Span: &spanMiddle}, rentTransaction())

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, sampleJournal, readJournal(t, path))
	assert.NoFileExists(t, BackupPath(path))
}

// -- Delete tests --

func TestDelete_MiddleTakesBlankSeparator(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	editor := NewEditor(path, &stubChecker{})

	err := editor.Delete(context.Background(), &ledger.Transaction{Span: &spanMiddle})

	assert.NoError(t, err)
	expected := `2026-01-15 * (INV-001) Grocery shopping  ; weekly groceries
    expenses:food:groceries                       €40.80
    assets:bank:checking                         €-40.80

2026-01-17 ! Office supplies
    expenses:office                               €30.00
    assets:bank:checking
`
	assert.Equal(t, expected, readJournal(t, path))
}

func TestDelete_FirstTransaction(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	editor := NewEditor(path, &stubChecker{})

	err := editor.Delete(context.Background(), &ledger.Transaction{Span: &spanFirst})

	assert.NoError(t, err)
	expected := `
2026-01-16 Salary
    assets:bank:checking                        €3000.00
    income:salary                              €-3000.00

2026-01-17 ! Office supplies
    expenses:office                               €30.00
    assets:bank:checking
`
	assert.Equal(t, expected, readJournal(t, path))
}

func TestDelete_LastTransaction(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	editor := NewEditor(path, &stubChecker{})

	err := editor.Delete(context.Background(), &ledger.Transaction{Span: &spanLast})

	assert.NoError(t, err)
	expected := `2026-01-15 * (INV-001) Grocery shopping  ; weekly groceries
    expenses:food:groceries                       €40.80
    assets:bank:checking                         €-40.80

2026-01-16 Salary
    assets:bank:checking                        €3000.00
    income:salary                              €-3000.00
`
	assert.Equal(t, expected, readJournal(t, path))
}

func TestDelete_NoSpanRejected(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	editor := NewEditor(path, &stubChecker{})

	err := editor.Delete(context.Background(), &ledger.Transaction{})

	assert.ErrorIs(t, err, ErrNoSourcePosition)
	assert.Equal(t, sampleJournal, readJournal(t, path))
}

func TestDelete_ValidationFailureRestores(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{err: errors.New("parse error")}
	editor := NewEditor(path, checker)

	err := editor.Delete(context.Background(), &ledger.Transaction{Span: &spanMiddle})

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "delete transaction", vErr.Op)
	assert.Equal(t, sampleJournal, readJournal(t, path))
	assert.NoFileExists(t, BackupPath(path))
}

// -- Rewrite and backup lifecycle tests --

func TestRewrite_BackupHeldDuringValidation(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{}
	var backupContent, fileContent string
	checker.onCheck = func() {
		data, err := os.ReadFile(BackupPath(path))
		assert.NoError(t, err, "backup must exist while validating")
		backupContent = string(data)
		current, err := os.ReadFile(path)
		assert.NoError(t, err)
		fileContent = string(current)
	}
	editor := NewEditor(path, checker)

	err := editor.Append(context.Background(), rentTransaction())

	assert.NoError(t, err)
	assert.Equal(t, sampleJournal, backupContent, "backup holds the pre-mutation content")
	assert.NotEqual(t, sampleJournal, fileContent, "file is already mutated when validated")
	assert.NoFileExists(t, BackupPath(path), "backup must not outlive the mutation")
}

func TestRewrite_MutateErrorRestores(t *testing.T) {
	path := writeJournal(t, sampleJournal)
	checker := &stubChecker{}
	editor := NewEditor(path, checker)

	err := editor.Rewrite(context.Background(), "scramble journal", func(string) (string, error) {
		return "", errors.New("boom")
	})

	assert.ErrorContains(t, err, "failed to scramble journal")
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 0, checker.calls)
	assert.Equal(t, sampleJournal, readJournal(t, path))
	assert.NoFileExists(t, BackupPath(path))
}

func TestRewrite_CommitsMutatedContent(t *testing.T) {
	path := writeJournal(t, "old content\n")
	checker := &stubChecker{}
	editor := NewEditor(path, checker)

	err := editor.Rewrite(context.Background(), "rewrite journal", func(content string) (string, error) {
		assert.Equal(t, "old content\n", content)
		return "new content\n", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "new content\n", readJournal(t, path))
	assert.Equal(t, 1, checker.calls)
	assert.NoFileExists(t, BackupPath(path))
}
