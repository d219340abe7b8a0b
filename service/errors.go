package service

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAccountName  = errors.New("account name must be non-empty and at most 255 characters")
	ErrSameAccountTransfer = errors.New("cannot transfer money to the same account")
	ErrInvalidAmount       = errors.New("transfer amount must be greater than zero")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrConflictExhausted   = errors.New("transfer conflict retries exhausted")
)

// AccountNotFoundError reports which account a ledger operation referenced
// that has no balance row. It matches ErrAccountNotFound with errors.Is.
type AccountNotFoundError struct {
	AccountID int64
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %d not found", e.AccountID)
}

func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// ConflictExhaustedError is returned when a transfer kept hitting transient
// conflicts until the retry policy gave up. Err is the last conflict seen.
type ConflictExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ConflictExhaustedError) Error() string {
	return fmt.Sprintf("transfer conflict retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConflictExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ConflictExhaustedError) Is(target error) bool {
	return target == ErrConflictExhausted
}
