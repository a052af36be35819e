package apperrors

import (
	"errors"
)

// Reasons reported by stores in StoreError.Reason
const (
	ReasonUniqueViolation  = "unique_violation"
	ReasonCheckViolation   = "check_violation"
	ReasonNotNullViolation = "not_null_violation"
	ReasonConnection       = "connection"
	ReasonOther            = "other"
)

// The only error kind callers of the API ever see
var ErrStoreFailure = errors.New("database error")

// StoreError wraps any failure that happened in the store layer.
// Op and Reason are meant for operators, Err keeps the driver error as is.
type StoreError struct {
	Op     string
	Reason string
	Err    error
}

func (e *StoreError) Error() string {
	return "database error: " + e.Op + " (" + e.Reason + "): " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStoreFailure) true for every StoreError
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// NewStoreError wraps err once. Returns nil if err is nil.
// Already wrapped errors are returned unchanged.
func NewStoreError(op string, reason string, err error) error {
	if err == nil {
		return nil
	}

	var se *StoreError
	if errors.As(err, &se) {
		return err
	}

	if reason == "" {
		reason = ReasonOther
	}

	return &StoreError{Op: op, Reason: reason, Err: err}
}
