package recjson

import (
	rerrors "github.com/reoring/recjson/internal/errors"
)

// Error is the error type returned by readers, writers and operations.
// Use errors.Is against the sentinels below or KindOf to branch on the kind.
type Error = rerrors.Error

// ErrorKind categorizes an Error.
type ErrorKind = rerrors.Kind

const (
	KindMalformedInput = rerrors.KindMalformedInput
	KindConversion     = rerrors.KindConversion
	KindOverflow       = rerrors.KindOverflow
	KindValidation     = rerrors.KindValidation
	KindPrecondition   = rerrors.KindPrecondition
	KindSchema         = rerrors.KindSchema
	KindLimit          = rerrors.KindLimit
	KindDuplicateKey   = rerrors.KindDuplicateKey
)

var (
	ErrMalformedInput = rerrors.ErrMalformedInput
	ErrConversion     = rerrors.ErrConversion
	ErrOverflow       = rerrors.ErrOverflow
	ErrValidation     = rerrors.ErrValidation
	ErrPrecondition   = rerrors.ErrPrecondition
	ErrSchema         = rerrors.ErrSchema
	ErrLimit          = rerrors.ErrLimit
	ErrDuplicateKey   = rerrors.ErrDuplicateKey
)

// KindOf extracts the kind of err, or "" when err is not an Error.
func KindOf(err error) ErrorKind { return rerrors.KindOf(err) }
