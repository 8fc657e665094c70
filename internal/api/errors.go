package api

import (
	"errors"
	"fmt"
)

// ErrorKind separates backend rejections from transport failures. Finer
// business classification (driver conflicts) happens in the service layer,
// which sees the server message carried here.
type ErrorKind int

const (
	// KindRejected: the backend was reached and answered non-2xx.
	KindRejected ErrorKind = iota
	// KindNetwork: no response was received at all.
	KindNetwork
)

// NetworkErrMessage is the fixed user-facing text for transport failures.
// No structured detail is available in that case, so it never varies.
const NetworkErrMessage = "Unable to connect to the server. Please try again later."

// Error is the typed result every failed API call converts to before it
// reaches a caller. Message is the server-supplied text when present; the
// screens pick their own fallback wording, so an empty Message is preserved.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request rejected (status %d)", e.Status)
}

// AsError unwraps err into an *Error if one is in the chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
