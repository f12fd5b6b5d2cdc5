package core

// Error codes surfaced to clients over the wire.
const (
	ErrCodeUnauthenticated  = "unauthenticated"
	ErrCodeUnknownRecipient = "unknown_recipient"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeStoreUnavailable = "store_unavailable"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
