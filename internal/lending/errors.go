package lending

import (
	"errors"
	"fmt"
)

// Kind classifies lending failures. The HTTP layer maps kinds to status codes;
// nothing inside this package knows about transports.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindOutOfStock     Kind = "out_of_stock"
	KindDuplicateLoan  Kind = "duplicate_loan"
	KindNotBorrowed    Kind = "not_borrowed"
	KindValidation     Kind = "validation"
	KindTransientStore Kind = "transient_store"
	KindInvalidState   Kind = "invalid_state"
	KindDuplicateCard  Kind = "duplicate_card"
)

// Error is the single error type returned by lending operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrOutOfStock)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrOutOfStock     = &Error{Kind: KindOutOfStock}
	ErrDuplicateLoan  = &Error{Kind: KindDuplicateLoan}
	ErrNotBorrowed    = &Error{Kind: KindNotBorrowed}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrTransientStore = &Error{Kind: KindTransientStore}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrDuplicateCard  = &Error{Kind: KindDuplicateCard}
)

// KindOf returns the kind of err, or "" when err is not a lending error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

func NotFound(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

func OutOfStock(bookID uint) *Error {
	return &Error{Kind: KindOutOfStock, Message: fmt.Sprintf("book %d is out of stock", bookID)}
}

func DuplicateLoan(studentID, bookID uint) *Error {
	return &Error{Kind: KindDuplicateLoan, Message: fmt.Sprintf("student %d already has book %d on loan", studentID, bookID)}
}

func NotBorrowed(studentID, bookID uint) *Error {
	return &Error{Kind: KindNotBorrowed, Message: fmt.Sprintf("student %d has no active loan of book %d", studentID, bookID)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func DuplicateCard(studentID uint) *Error {
	return &Error{Kind: KindDuplicateCard, Message: fmt.Sprintf("student %d already has a library card", studentID)}
}

// TransientStore wraps a persistence failure that is safe to retry.
func TransientStore(cause error) *Error {
	return &Error{Kind: KindTransientStore, Message: "store unavailable", Err: cause}
}

// withOp stamps the operation name on lending errors and classifies anything
// else as a transient store failure.
func withOp(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if !errors.As(err, &le) {
		le = TransientStore(err)
	}
	if le.Op != "" {
		return le
	}
	stamped := *le
	stamped.Op = op
	return &stamped
}
