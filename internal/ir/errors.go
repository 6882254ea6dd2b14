package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes mapping errors.
type ErrorCode string

const (
	// CodeTypeNotFound indicates a type-name lookup failed.
	CodeTypeNotFound ErrorCode = "TYPE_NOT_FOUND"

	// CodeConnectionFailure indicates a session could not be opened.
	CodeConnectionFailure ErrorCode = "CONNECTION_FAILURE"

	// CodeQueryFailure indicates the backend rejected a statement.
	CodeQueryFailure ErrorCode = "QUERY_FAILURE"

	// CodeUnsupportedFieldKind indicates a field kind the codec cannot handle.
	CodeUnsupportedFieldKind ErrorCode = "UNSUPPORTED_FIELD_KIND"

	// CodeEmptyRecord indicates a write with no present fields.
	CodeEmptyRecord ErrorCode = "EMPTY_RECORD"

	// CodeDecodeFailure indicates a raw column value could not be parsed.
	CodeDecodeFailure ErrorCode = "DECODE_FAILURE"
)

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrTypeNotFound         = &Error{Code: CodeTypeNotFound}
	ErrConnectionFailure    = &Error{Code: CodeConnectionFailure}
	ErrQueryFailure         = &Error{Code: CodeQueryFailure}
	ErrUnsupportedFieldKind = &Error{Code: CodeUnsupportedFieldKind}
	ErrEmptyRecord          = &Error{Code: CodeEmptyRecord}
	ErrDecodeFailure        = &Error{Code: CodeDecodeFailure}
)

// Error is a mapping error with structured context.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// TypeName is the record type involved, if any.
	TypeName string

	// Field names the offending field for UNSUPPORTED_FIELD_KIND and DECODE_FAILURE.
	Field string

	// Statement is the SQL text the backend rejected (QUERY_FAILURE).
	Statement string

	// Err is the underlying cause (driver error, parse error).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	switch {
	case e.TypeName != "" && e.Field != "":
		msg += fmt.Sprintf(" (type=%s, field=%s)", e.TypeName, e.Field)
	case e.TypeName != "":
		msg += fmt.Sprintf(" (type=%s)", e.TypeName)
	case e.Field != "":
		msg += fmt.Sprintf(" (field=%s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Statement != "" {
		msg += ", sql: " + e.Statement
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NewTypeNotFound reports a failed type-name lookup.
func NewTypeNotFound(typeName string) *Error {
	return &Error{
		Code:     CodeTypeNotFound,
		Message:  "record type is not registered",
		TypeName: typeName,
	}
}

// NewConnectionFailure reports a session that could not be established.
func NewConnectionFailure(target string, err error) *Error {
	return &Error{
		Code:    CodeConnectionFailure,
		Message: "connect to " + target,
		Err:     err,
	}
}

// NewQueryFailure reports a statement rejected by the backend.
func NewQueryFailure(statement string, err error) *Error {
	return &Error{
		Code:      CodeQueryFailure,
		Message:   "statement rejected",
		Statement: statement,
		Err:       err,
	}
}

// NewUnsupportedKind reports a field whose kind has no column mapping.
func NewUnsupportedKind(typeName string, f Field) *Error {
	return &Error{
		Code:     CodeUnsupportedFieldKind,
		Message:  "field kind " + f.KindName() + " is not supported",
		TypeName: typeName,
		Field:    f.Name,
	}
}

// NewEmptyRecord reports a write with no present fields.
func NewEmptyRecord(typeName string) *Error {
	return &Error{
		Code:     CodeEmptyRecord,
		Message:  "record has no present fields",
		TypeName: typeName,
	}
}

// NewDecodeFailure reports a raw value that does not parse as its field kind.
func NewDecodeFailure(typeName string, f Field, err error) *Error {
	return &Error{
		Code:     CodeDecodeFailure,
		Message:  "cannot decode " + f.Kind.String() + " value",
		TypeName: typeName,
		Field:    f.Name,
		Err:      err,
	}
}
