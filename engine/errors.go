/*
errors.go - Centralized error taxonomy for the engine

PURPOSE:
  Every caller-visible error carries a stable machine-readable kind and
  code plus a human-readable message. No error kind is invented ad hoc
  inside policy branches; all of them live here.

ERROR KINDS:
  precondition - rejected before any mutation (no approver, bad range, ...)
  conflict     - rejected after read, before write (overlap, balance, ...)
  state        - rejected mid-transition (already canceled, skipped chain)
  integrity    - tolerated anomalies (cyclic chain), logged, never silent
  collaborator - notification/sync dispatch failures, reported not raised

USAGE:
  if engine.IsKind(err, engine.KindConflict) { ... }
  if errors.Is(err, engine.ErrNoApprover) { ... }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// KINDS AND CODES
// =============================================================================

type Kind string

const (
	KindPrecondition Kind = "precondition"
	KindConflict     Kind = "conflict"
	KindState        Kind = "state"
	KindIntegrity    Kind = "integrity"
	KindCollaborator Kind = "collaborator"
)

const (
	CodeNoApprover            = "no_approver_configured"
	CodeInvalidRange          = "start_after_end"
	CodeReasonRequired        = "reason_required"
	CodeLeaveTypeDisabled     = "leave_type_disabled"
	CodeMemberArchived        = "member_archived"
	CodeOverlap               = "overlapping_request"
	CodeInsufficientAllowance = "allowance_insufficient"
	CodeRequestCanceled       = "request_already_canceled"
	CodeRequestDeclined       = "request_already_declined"
	CodeRequestDecided        = "request_already_decided"
	CodePositionDecided       = "approver_already_decided"
	CodeSkipNotAllowed        = "approver_skip_not_allowed"
	CodeNotAuthorized         = "actor_not_authorized"
	CodeCyclicChain           = "cyclic_approver_chain"
	CodeNotFound              = "not_found"
	CodeCollaborator          = "collaborator_failure"
	CodeLockTimeout           = "lock_not_acquired"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoApprover is returned when request creation cannot resolve any
	// approver. This is a hard precondition, not a warning.
	ErrNoApprover = errors.New("no approver configured")

	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERROR
// =============================================================================

// Error is the caller-visible error type for all engine operations.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func precondition(code, format string, args ...any) *Error {
	return &Error{Kind: KindPrecondition, Code: code, Message: fmt.Sprintf(format, args...)}
}

func conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func stateError(code, format string, args ...any) *Error {
	return &Error{Kind: KindState, Code: code, Message: fmt.Sprintf(format, args...)}
}

func collaborator(err error, format string, args ...any) *Error {
	return &Error{Kind: KindCollaborator, Code: CodeCollaborator, Message: fmt.Sprintf(format, args...), Err: err}
}

// =============================================================================
// HELPERS
// =============================================================================

// KindOf extracts the kind of an engine error, or "" for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf extracts the stable code of an engine error, or "" otherwise.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// IsClientError reports whether the error is due to the caller's input or
// the current state, rather than an infrastructure failure.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindPrecondition, KindConflict, KindState:
		return true
	}
	return false
}
