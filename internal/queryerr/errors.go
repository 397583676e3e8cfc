// Package queryerr defines the error taxonomy of the query engine.
//
// Every stage returns *Error values carrying a Code. Callers classify
// failures with the Is* helpers, which use errors.As and therefore see
// through fmt.Errorf("...: %w") wrapping.
//
// User-correctable codes (PARSE_ERROR, SCHEMA_ERROR, BAD_REQUEST) are
// reported verbatim. INTERNAL_INCONSISTENCY signals a bug or corrupt store
// data and is surfaced to clients as an opaque failure. STORE_TIMEOUT and
// STORE_FAILURE come from the triplestore round-trip and are never retried
// internally.
package queryerr

import (
	"errors"
	"fmt"
)

// Code categorizes query errors.
type Code string

const (
	// CodeParse indicates malformed query text.
	CodeParse Code = "PARSE_ERROR"

	// CodeSchema indicates the query mixes the simple and complex vocabularies.
	CodeSchema Code = "SCHEMA_ERROR"

	// CodeBadRequest indicates a well-formed query the engine cannot answer.
	CodeBadRequest Code = "BAD_REQUEST"

	// CodeInternal indicates a violated engine invariant or corrupt data.
	CodeInternal Code = "INTERNAL_INCONSISTENCY"

	// CodeStoreTimeout indicates the triplestore did not answer in time.
	CodeStoreTimeout Code = "STORE_TIMEOUT"

	// CodeStoreFailure indicates any other triplestore failure.
	CodeStoreFailure Code = "STORE_FAILURE"
)

// Error is a classified query failure.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Line and Column locate parse errors (1-based). Zero when unknown.
	Line   int
	Column int

	// Entity names the offending variable or IRI, if any.
	Entity string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s: line %d, column %d: %s", e.Code, e.Line, e.Column, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Parse creates a PARSE_ERROR at the given position.
func Parse(line, column int, format string, args ...any) *Error {
	return &Error{
		Code:    CodeParse,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
	}
}

// Schema creates a SCHEMA_ERROR.
func Schema(format string, args ...any) *Error {
	return &Error{Code: CodeSchema, Message: fmt.Sprintf(format, args...)}
}

// BadRequest creates a BAD_REQUEST error.
func BadRequest(format string, args ...any) *Error {
	return &Error{Code: CodeBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Untyped creates the BAD_REQUEST raised when type inference cannot
// determine the type of an entity.
func Untyped(entity string) *Error {
	return &Error{
		Code:    CodeBadRequest,
		Message: fmt.Sprintf("type of %s could not be determined", entity),
		Entity:  entity,
	}
}

// Internal creates an INTERNAL_INCONSISTENCY error.
func Internal(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// StoreTimeout wraps a triplestore timeout.
func StoreTimeout(err error, format string, args ...any) *Error {
	return &Error{Code: CodeStoreTimeout, Message: fmt.Sprintf(format, args...), Err: err}
}

// StoreFailure wraps any other triplestore failure.
func StoreFailure(err error, format string, args ...any) *Error {
	return &Error{Code: CodeStoreFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code, true
	}
	return "", false
}

func hasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsParseError reports whether err is a PARSE_ERROR.
func IsParseError(err error) bool { return hasCode(err, CodeParse) }

// IsSchemaError reports whether err is a SCHEMA_ERROR.
func IsSchemaError(err error) bool { return hasCode(err, CodeSchema) }

// IsBadRequest reports whether err is a BAD_REQUEST.
func IsBadRequest(err error) bool { return hasCode(err, CodeBadRequest) }

// IsInternal reports whether err is an INTERNAL_INCONSISTENCY.
func IsInternal(err error) bool { return hasCode(err, CodeInternal) }

// IsStoreTimeout reports whether err is a STORE_TIMEOUT.
func IsStoreTimeout(err error) bool { return hasCode(err, CodeStoreTimeout) }

// IsStoreFailure reports whether err is a STORE_FAILURE.
func IsStoreFailure(err error) bool { return hasCode(err, CodeStoreFailure) }

// IsUserError reports whether the client can fix err by changing the query.
func IsUserError(err error) bool {
	c, ok := CodeOf(err)
	if !ok {
		return false
	}
	return c == CodeParse || c == CodeSchema || c == CodeBadRequest
}
