package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing key.
	RedisNotFoundMessage = "record not found"
	// ModelErrorMessage describes text model failures.
	ModelErrorMessage = "text model call failed"
	// ModelTimeoutMessage describes a text model call that exceeded its deadline.
	ModelTimeoutMessage = "text model call timed out"
)

// Sentinel errors for the failure classes the message handlers recover from.
// Handlers match these with errors.Is and resolve every one of them to a
// user-visible response; nothing propagates past the orchestrator boundary.
var (
	// ErrExtractionNull marks an onboarding extraction that produced no
	// structured result. Treated as an invalid answer, consuming an attempt.
	ErrExtractionNull = errors.New("extraction returned no result")
	// ErrStoreUnavailable marks a persistence failure. The current handler
	// aborts and the orchestrator answers with the apology text.
	ErrStoreUnavailable = errors.New("state store unavailable")
	// ErrGenerationTimeout marks a generate call that hit its deadline. The
	// message aborts without committing state and the orchestrator answers
	// with the slow-model apology.
	ErrGenerationTimeout = errors.New("generation timed out")
)

// Error wraps an underlying error with an HTTP status and safe message.
type Error struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}
