package billing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a billing failure for transport mapping. Controllers
// translate kinds to HTTP statuses; services only ever reason about kinds.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindEligibility ErrorKind = "eligibility"
	KindConflict    ErrorKind = "conflict"
	KindNotFound    ErrorKind = "not_found"
	KindExternal    ErrorKind = "external"
	KindSignature   ErrorKind = "signature"
)

// Denial codes returned by eligibility and catalog checks. Each failed
// precondition yields its own code so clients can tell them apart.
const (
	CodeRoleMissing        = "role_missing"
	CodeNotVerified        = "not_verified"
	CodeAccountSuspended   = "account_suspended"
	CodeRoleDisabled       = "role_disabled"
	CodePlanNotFound       = "plan_not_found"
	CodePlanInactive       = "plan_inactive"
	CodePlanRoleMismatch   = "plan_role_mismatch"
	CodeInvalidRole        = "invalid_role"
	CodeRequiresPayment    = "requires_payment"
	CodeUserNotFound       = "user_not_found"
	CodeNoSubscription     = "no_subscription"
	CodePlanInUse          = "plan_in_use"
	CodeProcessorFailed    = "processor_failed"
	CodeInvalidSignature   = "invalid_signature"
	CodeActivationConflict = "activation_conflict"
)

// Error is the billing error type carrying a kind and a stable code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a billing error without an underlying cause
func NewError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WrapError builds a billing error around an underlying cause
func WrapError(kind ErrorKind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf returns the error's billing kind, or "" for foreign errors
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// CodeOf returns the error's denial code, or "" for foreign errors
func CodeOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
