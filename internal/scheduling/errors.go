package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEventTypeNotFound = errors.New("event type not found")
	ErrRuleNotFound      = errors.New("availability rule not found")
	ErrBookingNotFound   = errors.New("booking not found")

	ErrSlotUnavailable = errors.New("selected time slot is no longer available")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// ValidationError carries a human-readable message the caller can act on.
// Handlers map it to a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
