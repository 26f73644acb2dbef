package bizerror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("concurrent modification")
	ErrConfiguration   = errors.New("invalid workflow configuration")
	ErrInvariant       = errors.New("workflow invariant violated")
	ErrRateLimited     = errors.New("request rate limited")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}

// ErrDenied is an authorization failure carrying the message shown to the caller.
// It matches ErrUnauthorized with errors.Is.
type ErrDenied struct {
	Message string
}

func (e *ErrDenied) Error() string {
	return e.Message
}
func (e *ErrDenied) Is(target error) bool {
	return target == ErrUnauthorized
}
func (e *ErrDenied) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusForbidden, Code: "workflow.unauthorized", Message: e.Message}
}

func Denied(message string) error {
	return &ErrDenied{Message: message}
}

// IsRetryable reports whether the caller may retry after re-reading the current state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
