package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	// Generic codes
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	BadRequest           ErrorCode = "BAD_REQUEST"

	// Ledger codes
	AlreadyExists            ErrorCode = "ALREADY_EXISTS"
	NotFound                 ErrorCode = "NOT_FOUND"
	Unauthorized             ErrorCode = "UNAUTHORIZED"
	InvalidAmount            ErrorCode = "INVALID_AMOUNT"
	InsufficientBalance      ErrorCode = "INSUFFICIENT_BALANCE"
	InsufficientVaultBalance ErrorCode = "INSUFFICIENT_VAULT_BALANCE"
	ArithmeticOverflow       ErrorCode = "ARITHMETIC_OVERFLOW"
	InvalidTime              ErrorCode = "INVALID_TIME"
	LockPeriodActive         ErrorCode = "LOCK_PERIOD_ACTIVE"
)

func (e ErrorCode) String() string {
	return string(e)
}

// StatusCode is the HTTP status the code is reported with.
func (e ErrorCode) StatusCode() int {
	switch e {
	case AlreadyExists:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case InvalidAmount, InsufficientBalance, InvalidTime, BadRequest, ValidationError:
		return http.StatusBadRequest
	case ArithmeticOverflow:
		return http.StatusUnprocessableEntity
	case LockPeriodActive:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type returned by ledger operations. No operation that
// returns one has changed any state, with the single exception of a custody
// release failing after its unstake committed.
type Error struct {
	StatusCode int
	ErrorCode  ErrorCode
	Err        error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        err,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, errors.New(msg))
}

// NewLedgerError builds an error for code with the code's default status.
func NewLedgerError(code ErrorCode, format string, args ...any) *Error {
	return NewError(code.StatusCode(), code, fmt.Errorf(format, args...))
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

func NewValidationFailedError(err error) *Error {
	return NewError(http.StatusBadRequest, ValidationError, err)
}

// ErrorCodeOf returns the code carried by err, or InternalServiceError when
// err is not an *Error.
func ErrorCodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode
	}
	return InternalServiceError
}

// IsErrorCode reports whether err carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	return err != nil && ErrorCodeOf(err) == code
}
