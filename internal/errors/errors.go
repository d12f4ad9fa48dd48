package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes failures surfaced by readers, writers and the operation pipeline.
type Kind string

const (
	KindMalformedInput Kind = "malformed_input"
	KindConversion     Kind = "conversion"
	KindOverflow       Kind = "overflow"
	KindValidation     Kind = "validation"
	KindPrecondition   Kind = "precondition"
	KindSchema         Kind = "schema"
	KindLimit          Kind = "limit_exceeded"
	KindDuplicateKey   Kind = "duplicate_key"
)

// Sentinels usable with errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrMalformedInput = &Error{Kind: KindMalformedInput}
	ErrConversion     = &Error{Kind: KindConversion}
	ErrOverflow       = &Error{Kind: KindOverflow}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrPrecondition   = &Error{Kind: KindPrecondition}
	ErrSchema         = &Error{Kind: KindSchema}
	ErrLimit          = &Error{Kind: KindLimit}
	ErrDuplicateKey   = &Error{Kind: KindDuplicateKey}
)

// Error carries a failure kind together with where it happened.
type Error struct {
	Kind    Kind
	Op      string // e.g. "read", "write", "open", "coerce"
	Path    string // JSON Pointer or field name when known
	Offset  int64  // byte offset in the input (-1 when unknown)
	Message string
	Err     error
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Offset >= 0 && e.Kind == KindMalformedInput {
		fmt.Fprintf(b, " (offset %d)", e.Offset)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithOp returns a copy of e with Op set, unless Op is already populated.
func (e *Error) WithOp(op string) *Error {
	if e.Op != "" {
		return e
	}
	c := *e
	c.Op = op
	return &c
}

// NewMalformedInputError reports a token stream that could not produce a well-formed token.
func NewMalformedInputError(offset int64, err error) *Error {
	return &Error{Kind: KindMalformedInput, Offset: offset, Message: "malformed JSON input", Err: err}
}

// NewConversionError reports a value that cannot be converted to the requested type.
func NewConversionError(path, message string, err error) *Error {
	return &Error{Kind: KindConversion, Path: path, Offset: -1, Message: message, Err: err}
}

// NewOverflowError reports a numeric token outside every supported range.
func NewOverflowError(text string) *Error {
	return &Error{Kind: KindOverflow, Offset: -1, Message: fmt.Sprintf("number %q out of range", text)}
}

// NewValidationError reports a failed validation operation.
func NewValidationError(path, message string) *Error {
	return &Error{Kind: KindValidation, Path: path, Offset: -1, Message: message}
}

// NewPreconditionError reports an API call made in the wrong state or with missing bindings.
func NewPreconditionError(op, message string) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Offset: -1, Message: message}
}

// NewSchemaError reports an invalid schema or a record no field list can classify.
func NewSchemaError(message string, err error) *Error {
	return &Error{Kind: KindSchema, Offset: -1, Message: message, Err: err}
}

// NewLimitError reports an input that exceeded a configured depth or size limit.
func NewLimitError(path string, offset int64, message string) *Error {
	return &Error{Kind: KindLimit, Path: path, Offset: offset, Message: message}
}

// NewDuplicateKeyError reports an object key seen twice under strict duplicate handling.
func NewDuplicateKeyError(path string, offset int64, key string) *Error {
	return &Error{Kind: KindDuplicateKey, Path: path, Offset: offset, Message: "key '" + key + "' duplicated"}
}

// KindOf extracts the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
