package budget

import "fmt"

// ConflictError means an add would create a second rule for an account
// that already has one.
type ConflictError struct {
	Account string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a budget rule for %s already exists", e.Account)
}

// NotFoundError means an update or delete named an account with no rule.
type NotFoundError struct {
	Account string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no budget rule found for %s", e.Account)
}
