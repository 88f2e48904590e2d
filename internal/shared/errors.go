package shared

import (
	"errors"
	"fmt"

	"github.com/stormlightlabs/memoria/internal/db"
)

// Code is the machine-readable error category reported to tool callers.
type Code string

const (
	CodeKeywordTooShort   Code = "KEYWORD_TOO_SHORT"
	CodeInvalidTypeFilter Code = "INVALID_TYPE_FILTER"
	CodeInvalidType       Code = "INVALID_TYPE"
	CodeInvalidStatus     Code = "INVALID_STATUS"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConstraint        Code = "CONSTRAINT_VIOLATION"
	CodeDatabase          Code = "DATABASE_ERROR"
)

// Error is a coded error. errors.Is matches on Code alone, so the sentinels
// below can be compared against errors carrying any message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrKeywordTooShort   = &Error{Code: CodeKeywordTooShort}
	ErrInvalidTypeFilter = &Error{Code: CodeInvalidTypeFilter}
	ErrInvalidType       = &Error{Code: CodeInvalidType}
	ErrInvalidStatus     = &Error{Code: CodeInvalidStatus}
	ErrInvalidArgument   = &Error{Code: CodeInvalidArgument}
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrConstraint        = &Error{Code: CodeConstraint}
	ErrDatabase          = &Error{Code: CodeDatabase}
)

func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds the "<kind> with id <id> not found" error.
func NotFound(kind string, id int64) *Error {
	return Errorf(CodeNotFound, "%s with id %d not found", kind, id)
}

// AsError coerces err into a coded error. Coded errors pass through, missing
// index sources become NOT_FOUND, SQLite constraint failures become
// CONSTRAINT_VIOLATION and anything else is DATABASE_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, db.ErrSourceNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case db.IsConstraint(err):
		return &Error{Code: CodeConstraint, Message: err.Error()}
	default:
		return &Error{Code: CodeDatabase, Message: err.Error()}
	}
}

// CodeOf reports the code of err, or "" when err is nil.
func CodeOf(err error) Code {
	if e := AsError(err); e != nil {
		return e.Code
	}
	return ""
}
