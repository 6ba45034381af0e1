package relay

import (
	"errors"
	"fmt"
)

// RelayError is a failed relay call: either a JSON-RPC error envelope or a
// transport-level failure.
type RelayError struct {
	Method     string // JSON-RPC method that failed
	StatusCode int    // HTTP status, 0 when the request never completed
	Code       int    // JSON-RPC error code, 0 for transport failures
	Message    string
	Err        error
}

func (e *RelayError) Error() string {
	msg := fmt.Sprintf("relay %s failed", e.Method)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// IsRelayError reports whether err wraps a *RelayError.
func IsRelayError(err error) bool {
	var re *RelayError
	return errors.As(err, &re)
}
