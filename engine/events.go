/*
events.go - Domain events

PURPOSE:
  Lifecycle notifications emitted after a request transition commits.
  Delivery is fire-and-forget: subscribers run on their own goroutine and
  a failing subscriber never rolls back or delays the transition. Failures
  go to the ErrorTracker.
*/
package engine

import "time"

// =============================================================================
// EVENTS
// =============================================================================

type EventType string

const (
	EventRequestCreated  EventType = "request.created"
	EventRequestApproved EventType = "request.approved"
	EventRequestDeclined EventType = "request.declined"
	EventRequestCanceled EventType = "request.canceled"
	// EventApprovalPending is emitted once per approver whose decision is
	// newly awaited.
	EventApprovalPending EventType = "request.approval_pending"
)

type Event struct {
	Type        EventType
	WorkspaceID WorkspaceID
	RequestID   RequestID
	MemberID    MemberID
	// ApproverID is set on approval_pending events.
	ApproverID MemberID
	Status     RequestStatus
	At         time.Time
}

// EventSink receives domain events. Implementations must be safe for
// concurrent use; they run outside the request's lock.
type EventSink interface {
	Publish(Event)
}

// ErrorTracker captures background failures that have no caller to
// return to.
type ErrorTracker interface {
	Capture(err error, context map[string]string)
}

// =============================================================================
// NOP IMPLEMENTATIONS
// =============================================================================

type NopEventSink struct{}

func (NopEventSink) Publish(Event) {}

type NopErrorTracker struct{}

func (NopErrorTracker) Capture(error, map[string]string) {}
