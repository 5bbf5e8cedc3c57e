package errors

import (
	"errors"
	"fmt"
)

// ErrorType is the category of an application error. Handlers map it to an
// HTTP status; the pipeline uses it to tell configuration faults from storage
// faults.
type ErrorType string

const (
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeConflict         ErrorType = "conflict"
	ErrorTypeUnauthorized     ErrorType = "unauthorized"
	ErrorTypeForbidden        ErrorType = "forbidden"
	ErrorTypeInternal         ErrorType = "internal"
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
	ErrorTypeExternal         ErrorType = "external"
	ErrorTypeRateLimited      ErrorType = "rate_limited"
)

// AppError is the error every layer above the generators returns.
// Stage is set when the failure happened inside a generation stage.
type AppError struct {
	Type    ErrorType
	Message string
	Stage   string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = "stage " + e.Stage + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newf(t ErrorType, format string, args ...any) error {
	return &AppError{Type: t, Message: fmt.Sprintf(format, args...)}
}

func wrap(t ErrorType, message string, err error) error {
	return &AppError{Type: t, Message: message, Err: err}
}

func NotFoundf(format string, args ...any) error { return newf(ErrorTypeNotFound, format, args...) }

func Validation(message string) error { return &AppError{Type: ErrorTypeValidation, Message: message} }

func Validationf(format string, args ...any) error {
	return newf(ErrorTypeValidation, format, args...)
}

// WrapValidation keeps the cause reachable, so callers can still match
// sentinels such as weighted.ErrZeroWeight with errors.Is.
func WrapValidation(message string, err error) error { return wrap(ErrorTypeValidation, message, err) }

func Conflictf(format string, args ...any) error { return newf(ErrorTypeConflict, format, args...) }

func WrapInternal(message string, err error) error { return wrap(ErrorTypeInternal, message, err) }

func Unauthorized(message string) error { return &AppError{Type: ErrorTypeUnauthorized, Message: message} }

func Forbidden(message string) error { return &AppError{Type: ErrorTypeForbidden, Message: message} }

func MethodNotAllowed(method string) error {
	return newf(ErrorTypeMethodNotAllowed, "method %s not allowed", method)
}

func External(message string) error { return &AppError{Type: ErrorTypeExternal, Message: message} }

func RateLimited(message string) error { return &AppError{Type: ErrorTypeRateLimited, Message: message} }

// WithStage tags err with the generation stage it came from. Errors that are
// not AppErrors become internal errors.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		tagged := *appErr
		tagged.Stage = stage
		return &tagged
	}
	return &AppError{Type: ErrorTypeInternal, Message: "stage failed", Stage: stage, Err: err}
}

// StageOf returns the stage recorded on err, or "".
func StageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Stage
	}
	return ""
}

// GetType returns the type of the first AppError in err's chain, or
// ErrorTypeInternal when there is none.
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsAppError reports whether err carries an AppError anywhere in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
