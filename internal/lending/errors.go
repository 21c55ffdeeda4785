package lending

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by the engine and the wallet ledger
// matches exactly one of these through errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStorage           = errors.New("storage failure")
)

type ledgerError struct {
	kind error
	msg  string
}

func (e *ledgerError) Error() string { return e.msg }
func (e *ledgerError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &ledgerError{kind: kind, msg: msg}
}

var (
	ErrLoanNotFound = newError(ErrNotFound, "loan not found")
	ErrUserNotFound = newError(ErrNotFound, "user not found")

	ErrLoanNotPending = newError(ErrInvalidState, "loan is not available for funding")
	ErrLoanNotFunded  = newError(ErrInvalidState, "loan is not in funded status")

	ErrNotLender    = newError(ErrForbidden, "only lenders can fund loans")
	ErrNotBorrower  = newError(ErrForbidden, "only borrowers can request loans")
	ErrNotLoanOwner = newError(ErrForbidden, "you can only repay your own loans")
	ErrNotLoanParty = newError(ErrForbidden, "you are not a party to this loan")

	ErrInsufficientBalance = newError(ErrInsufficientFunds, "insufficient wallet balance")
)

// ValidationError reports bad input. No state was changed.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError is an unexpected failure of the ledger store. The unit of work
// it interrupted was rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// storageErr passes domain errors through untouched and wraps everything else.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrInvalidState, ErrForbidden, ErrInsufficientFunds, ErrStorage} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}
