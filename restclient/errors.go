package restclient

import (
	"fmt"
)

// ConfigurationError reports a problem with how a client or request was
// configured: colliding query or header keys, an invalid status expectation,
// an unknown receive format, or a body supplied to a body-less verb.
//
// Configuration errors are raised during request construction, before any
// network I/O happens.
type ConfigurationError struct {
	msg string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return e.msg
}

// newConfigError creates a ConfigurationError with a formatted message.
func newConfigError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// UnexpectedStatusCode is returned when a response's status code does not
// satisfy the request's status expectation.
//
// The error carries both sides of the mismatch for diagnostics:
//
//	var statusErr *restclient.UnexpectedStatusCode
//	if errors.As(err, &statusErr) {
//	    body, _ := statusErr.Response.Text()
//	    log.Printf("server said: %s", body)
//	}
type UnexpectedStatusCode struct {
	// Expectation is the rule the response code failed to satisfy.
	Expectation StatusExpectation

	// Response is the full response that carried the unexpected code.
	// Its body has not been consumed.
	Response *Response
}

// Error implements the error interface.
func (e *UnexpectedStatusCode) Error() string {
	return fmt.Sprintf("Expected HTTP status code to be %s, but got %d.",
		e.Expectation, e.Response.StatusCode)
}
