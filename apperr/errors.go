package apperr

import (
	"errors"
	"fmt"

	"tajeats-api/models"
)

// Kind classifies an error for callers
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindAlreadyExists      Kind = "ALREADY_EXISTS"
	KindInvalidArgument    Kind = "INVALID_ARGUMENT"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindPendingApproval    Kind = "PENDING_APPROVAL"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindForbidden          Kind = "FORBIDDEN"
)

// Error is a classified error returned by the services
type Error struct {
	Kind    Kind
	Entity  string          // "order", "dish", ... for not-found errors
	Message string
	Profile *models.Profile // set for pending-approval errors
	Details map[string]any  // extra response fields, e.g. valid transitions
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing entity
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: entity + " not found"}
}

func AlreadyExists(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// InvalidCredentials deliberately says nothing about which half was wrong
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
}

// PendingApproval carries the account profile so the client can show it
func PendingApproval(p models.Profile) *Error {
	return &Error{Kind: KindPendingApproval, Message: "account pending approval", Profile: &p}
}

// InvalidTransition wraps a state machine rejection
func InvalidTransition(current, requested models.OrderStatus, valid []models.OrderStatus, cause error) *Error {
	if valid == nil {
		valid = []models.OrderStatus{}
	}
	return &Error{
		Kind: KindInvalidTransition,
		Details: map[string]any{
			"currentStatus":    current,
			"requestedStatus":  requested,
			"validTransitions": valid,
		},
		Err: cause,
	}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// As extracts an *Error from the chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" for unclassified errors
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
