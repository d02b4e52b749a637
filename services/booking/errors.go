package booking

import "fmt"

// Error codes surfaced by the lifecycle service. The HTTP layer maps them
// onto status codes; everything else is an internal persistence failure.
const (
	CodeNotFound            = "notFound"
	CodeInvalidStatus       = "invalidStatus"
	CodeInvalidTransition   = "invalidTransition"
	CodeConflict            = "conflict"
	CodeForbidden           = "forbidden"
	CodePolicyNotFound      = "policyNotFound"
	CodeExplanationRequired = "explanationRequired"
	CodeValidation          = "validation"
)

// LifecycleError is a typed error carrying a machine-readable code and a
// human-readable reason.
type LifecycleError struct {
	Code    string
	Message string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...interface{}) error {
	return &LifecycleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode extracts the lifecycle error code, or "" for untyped errors.
func ErrorCode(err error) string {
	if le, ok := err.(*LifecycleError); ok {
		return le.Code
	}
	return ""
}
