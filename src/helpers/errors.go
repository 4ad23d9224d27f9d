package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type WatchlistError struct {
	Message string
	Cause   error
}

func (e *WatchlistError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *WatchlistError) Unwrap() error {
	return e.Cause
}

// ValidationError is raised before any network call is made.
type ValidationError struct{ WatchlistError }

// TransportError covers network failures and non-2xx responses. Status is 0
// when no response was received.
type TransportError struct {
	WatchlistError
	Status int
}

// DecodeError is a malformed payload from the backend.
type DecodeError struct{ WatchlistError }

type ConfigurationError struct{ WatchlistError }
type DatabaseError struct{ WatchlistError }

// ErrSuperseded is returned to the caller of a subscribe attempt whose result
// arrived after a newer attempt had started.
var ErrSuperseded = errors.New("subscription superseded by a newer request")

// -----------------------------------------------------------------------------

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{WatchlistError{Message: fmt.Sprintf(format, args...)}}
}

func NewTransportError(message string, status int, cause error) error {
	return &TransportError{WatchlistError: WatchlistError{Message: message, Cause: cause}, Status: status}
}

func NewDecodeError(message string, cause error) error {
	return &DecodeError{WatchlistError{Message: message, Cause: cause}}
}

func NewDatabaseError(message string, cause error) error {
	return &DatabaseError{WatchlistError{Message: message, Cause: cause}}
}

func NewConfigurationError(message string, cause error) error {
	return &ConfigurationError{WatchlistError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// TransportStatus returns the HTTP status carried by a TransportError in err's chain.
func TransportStatus(err error) (int, bool) {
	var t *TransportError
	if errors.As(err, &t) {
		return t.Status, true
	}
	return 0, false
}
