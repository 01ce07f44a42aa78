package budget

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/calder-fi/hledger-engine/internal/journal"
)

// Store owns the budget file that lives next to the main journal. All
// writes go through the transactional journal editor, and because the
// budget file is included by the main journal, validating the main journal
// validates every budget edit too.
type Store struct {
	journalFile string
	path        string
	editor      *journal.Editor
	mainEditor  *journal.Editor
}

// NewStore returns a store for the budget file belonging to journalFile.
// The checker must validate the main journal, not the budget file alone.
func NewStore(journalFile string, checker journal.Checker) *Store {
	path := filepath.Join(filepath.Dir(journalFile), Filename)
	return &Store{
		journalFile: journalFile,
		path:        path,
		editor:      journal.NewEditor(path, checker),
		mainEditor:  journal.NewEditor(journalFile, checker),
	}
}

// Path returns where the budget file lives.
func (s *Store) Path() string {
	return s.path
}

// Rules reads the current budget rules. A missing budget file means no
// rules yet, not an error.
func (s *Store) Rules() ([]Rule, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read budget file: %w", err)
	}
	return ParseRules(string(data))
}

// Add creates a rule for an account that does not have one yet.
func (s *Store) Add(ctx context.Context, rule Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	rules, err := s.Rules()
	if err != nil {
		return err
	}
	if findRule(rules, rule.Account) >= 0 {
		return &ConflictError{Account: rule.Account}
	}

	if err := s.Ensure(ctx); err != nil {
		return err
	}
	return s.write(ctx, append(rules, rule))
}

// Update replaces the rule for account with rule. Renaming onto an account
// that already has its own rule is a conflict.
func (s *Store) Update(ctx context.Context, account string, rule Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	rules, err := s.Rules()
	if err != nil {
		return err
	}
	i := findRule(rules, account)
	if i < 0 {
		return &NotFoundError{Account: account}
	}
	if rule.Account != account && findRule(rules, rule.Account) >= 0 {
		return &ConflictError{Account: rule.Account}
	}

	rules[i] = rule
	return s.write(ctx, rules)
}

// Delete removes the rule for account.
func (s *Store) Delete(ctx context.Context, account string) error {
	rules, err := s.Rules()
	if err != nil {
		return err
	}
	i := findRule(rules, account)
	if i < 0 {
		return &NotFoundError{Account: account}
	}
	return s.write(ctx, append(rules[:i], rules[i+1:]...))
}

// Ensure makes the budget file exist and be included by the main journal.
// The include edit goes through the main journal's editor, so a bad
// insertion is rolled back like any other mutation.
func (s *Store) Ensure(ctx context.Context) error {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		if werr := os.WriteFile(s.path, nil, 0o644); werr != nil {
			return fmt.Errorf("failed to create budget file: %w", werr)
		}
	} else if err != nil {
		return fmt.Errorf("failed to stat budget file: %w", err)
	}

	included, err := s.journalIncludesBudget()
	if err != nil {
		return err
	}
	if included {
		return nil
	}
	return s.mainEditor.Rewrite(ctx, "insert budget include", func(content string) (string, error) {
		include := "include " + Filename + "\n"
		if content != "" && !strings.HasPrefix(content, "\n") {
			include += "\n"
		}
		return include + content, nil
	})
}

func (s *Store) journalIncludesBudget() (bool, error) {
	data, err := os.ReadFile(s.journalFile)
	if err != nil {
		return false, fmt.Errorf("failed to read journal: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == "include" && fields[1] == Filename {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) write(ctx context.Context, rules []Rule) error {
	return s.editor.Rewrite(ctx, "write budget rules", func(string) (string, error) {
		return FormatRules(rules), nil
	})
}

func findRule(rules []Rule, account string) int {
	for i, rule := range rules {
		if rule.Account == account {
			return i
		}
	}
	return -1
}

func validateRule(rule Rule) error {
	if strings.TrimSpace(rule.Account) == "" {
		return errors.New("budget rule needs an account")
	}
	if rule.Amount.Commodity == "" {
		return fmt.Errorf("budget amount for %s needs a commodity", rule.Account)
	}
	if !rule.Amount.Quantity.IsPositive() {
		return fmt.Errorf("budget amount for %s must be positive", rule.Account)
	}
	return nil
}
