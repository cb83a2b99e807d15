package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers network failures and errors reported by the endpoint.
	ErrTransport = errors.New("extraction endpoint failed")
	// ErrMalformedResponse means the endpoint replied with content that does
	// not hold a line-item array.
	ErrMalformedResponse = errors.New("malformed extraction response")
	// ErrEmptyTranscript is returned for a blank transcript.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrMissingCredential is returned when no API key was configured.
	ErrMissingCredential = errors.New("extraction API key is not configured")
)

// Error is an extraction failure of a given kind (ErrTransport or
// ErrMalformedResponse) with the provider's or parser's message.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func transportError(msg string, err error) *Error {
	return &Error{Kind: ErrTransport, Message: msg, Err: err}
}

func malformedError(msg string, err error) *Error {
	return &Error{Kind: ErrMalformedResponse, Message: msg, Err: err}
}
