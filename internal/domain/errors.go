package domain

import "errors"

// Error kinds. Every error returned by the services either wraps one of
// these or is a store/transport fault.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrClassNotFound    = &Error{Kind: ErrNotFound, Message: "class not found"}
	ErrClassStarted     = &Error{Kind: ErrConflict, Message: "class has already started"}
	ErrDuplicateBooking = &Error{Kind: ErrConflict, Message: "duplicate booking"}
	ErrNoSlots          = &Error{Kind: ErrConflict, Message: "no available slots"}
)

type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Validation(field, message string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

// KindOf returns the kind sentinel wrapped by err, or nil for faults.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
