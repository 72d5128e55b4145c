package dispatch

import "errors"

var (
	ErrMissingContent = errors.New("missing audio content")
	ErrInvalidContent = errors.New("invalid audio content")
)

const internalFailureMessage = "internal error while handling message"

// PublicError carries a message that is safe to send back to the caller.
// Err keeps the underlying cause for logs.
type PublicError struct {
	Message string
	Err     error
}

func (e *PublicError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *PublicError) Unwrap() error {
	return e.Err
}

func Public(message string, err error) error {
	return &PublicError{Message: message, Err: err}
}

func publicMessage(err error) string {
	var public *PublicError
	if errors.As(err, &public) && public.Message != "" {
		return public.Message
	}
	return internalFailureMessage
}
