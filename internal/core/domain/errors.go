package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRoleNotFound     = errors.New("role record not found")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrAccountExists    = errors.New("account already exists")
	ErrCourseNotFound   = errors.New("course not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidState     = errors.New("invalid or expired oauth state")
	ErrInvalidRole      = errors.New("invalid role")
)

// Identity provider error codes.
const (
	CodeInvalidCredential    = "auth/invalid-credential"
	CodeUserDisabled         = "auth/user-disabled"
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeWeakPassword         = "auth/weak-password"
	CodeInvalidEmail         = "auth/invalid-email"
	CodePopupBlocked         = "auth/popup-blocked"
	CodeCancelledPopup       = "auth/cancelled-popup-request"
	CodePopupClosedByUser    = "auth/popup-closed-by-user"
	CodeNetworkRequestFailed = "auth/network-request-failed"
)

// ProviderError is returned by the identity provider with a stable code.
type ProviderError struct {
	Code string
	Err  error
}

func NewProviderError(code string, err error) *ProviderError {
	return &ProviderError{Code: code, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ProviderCode extracts the provider error code from err, or "" if err does
// not carry one.
func ProviderCode(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
