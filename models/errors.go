package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeFetchFailure = "FETCH_FAILURE"
	ErrCodeParseFailure = "PARSE_FAILURE"
	ErrCodeOCRFailure   = "OCR_FAILURE"
	ErrCodeTimeout      = "EXTRACTION_TIMEOUT"
	ErrCodeTaskNotFound = "TASK_NOT_FOUND"
	ErrCodeTaskNotReady = "TASK_NOT_READY"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TaskError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type TaskError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *TaskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// NewTaskError creates a new TaskError.
func NewTaskError(code, message string, err error) *TaskError {
	return &TaskError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *TaskError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the error code of err, or INTERNAL_ERROR if err carries none.
func CodeOf(err error) string {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
