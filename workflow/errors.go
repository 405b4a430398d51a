package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced to callers. PermissionDenied, InvalidTransition
// and Validation must never be retried; Conflict is retryable with the
// same parameters; AlreadyProcessed is an idempotent no-op reported
// distinctly from success.
const (
	KindPermissionDenied     = "PermissionDenied"
	KindInvalidTransition    = "InvalidTransition"
	KindInsufficientQuantity = "InsufficientQuantity"
	KindAlreadyProcessed     = "AlreadyProcessed"
	KindValidation           = "ValidationError"
	KindConflict             = "Conflict"
	KindInternal             = "InternalError"
)

type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return e.Message
}

// Is matches on kind so errors.Is(err, ErrInsufficientQuantity) works
// for detailed instances built with the *f constructors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrPermissionDenied     = &Error{Kind: KindPermissionDenied, Message: "actor is not authorized for this action"}
	ErrInvalidTransition    = &Error{Kind: KindInvalidTransition, Message: "action is not legal from the current status"}
	ErrInsufficientQuantity = &Error{Kind: KindInsufficientQuantity, Message: "requested quantity exceeds availability"}
	ErrAlreadyProcessed     = &Error{Kind: KindAlreadyProcessed, Message: "request was already processed"}
	ErrAlreadyDeducted      = &Error{Kind: KindAlreadyProcessed, Message: "quantity was already deducted"}
	ErrNothingToRestore     = &Error{Kind: KindAlreadyProcessed, Message: "nothing to restore"}
	ErrConflict             = &Error{Kind: KindConflict, Message: "concurrent modification, retry the request"}
)

func PermissionDeniedf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func InsufficientQuantityf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInsufficientQuantity, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf maps any error to its taxonomy kind. Lock timeouts, deadlocks
// and unique-key collisions (two writers minting the same document
// number) surface as the retryable Conflict kind.
func KindOf(err error) string {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	if isConflictError(err) {
		return KindConflict
	}
	return KindInternal
}

func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not obtain lock") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}
