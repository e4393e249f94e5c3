package services

import (
	"errors"
	"fmt"
)

var (
	// ErrPaymentNotFound is returned when an amend or revoke references a
	// payment that does not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrMissingMirror is returned when a payment is found without its
	// mirrored ledger entry during an amend. This state is unreachable when
	// RecordPayment is the only creation path; treat it as a bug in the
	// write path, not caller error.
	ErrMissingMirror = errors.New("payment has no mirrored ledger entry")
)

// ValidationError reports a caller mistake detected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
