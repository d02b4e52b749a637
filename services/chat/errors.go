package chat

import "fmt"

// Error codes surfaced by the chat service.
const (
	CodeNotFound   = "notFound"
	CodeValidation = "validation"
	CodeForbidden  = "forbidden"
)

// ChatError is a typed error carrying a machine-readable code and a
// human-readable reason.
type ChatError struct {
	Code    string
	Message string
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...interface{}) error {
	return &ChatError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the chat error code, or "" for untyped errors.
func ErrorCode(err error) string {
	if ce, ok := err.(*ChatError); ok {
		return ce.Code
	}
	return ""
}
