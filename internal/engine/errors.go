package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/gravsearch/internal/queryerr"
)

// RequestError is a failed search or count. It wraps the *queryerr.Error
// of the failing stage, so the queryerr.Is* helpers see through it.
type RequestError struct {
	// RequestID correlates the error with the request's log lines.
	RequestID string

	// Mode is "page" or "count".
	Mode string

	// Stage names the pipeline stage that failed.
	Stage string

	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request %s failed in %s: %v", e.Mode, e.RequestID, e.Stage, e.Err)
}

// Unwrap returns the stage error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// internalMessage replaces the details of internal inconsistencies in
// client-facing messages.
const internalMessage = "internal error"

// PublicMessage returns the message a client may see for err. Internal
// inconsistencies and unclassified errors are opaque; their details are
// only logged.
func PublicMessage(err error) string {
	var qe *queryerr.Error
	if !errors.As(err, &qe) || qe.Code == queryerr.CodeInternal {
		return internalMessage
	}
	return qe.Error()
}

// RequestIDOf returns the request ID attached to err, if any.
func RequestIDOf(err error) (string, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re.RequestID, true
	}
	return "", false
}
