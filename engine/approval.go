/*
approval.go - The approval state machine

PURPOSE:
  Owns the lifecycle of a request's approval. Transitions are pure
  functions: they take an immutable snapshot of the chain plus the
  incoming decision and return the new chain state and aggregate status.
  Nothing here touches persistence.

AGGREGATE TRANSITIONS:
  PENDING -> APPROVED
  PENDING -> DECLINED              (terminal)
  PENDING | APPROVED -> CANCELED   (terminal)

PER-POLICY RULES (approve):
  Parallel_one: first approval wins; remaining pending positions are
    marked APPROVED_BY_ANOTHER_MANAGER.
  Parallel_all: approved only once no position is pending.
  Linear_one:   the chain head's approval decides; a non-head approval
    only counts once the head has settled.
  Linear_all:   each position needs its predecessor settled first; an
    administrator may skip; approved once no position is pending.

DECLINE:
  The first decline terminates the request under every policy; remaining
  pending positions are marked DECLINED_BY_ANOTHER_MANAGER.

CANCEL:
  Policy-independent. The acting principal's own position is canceled, or
  a new terminal canceler position is appended after the chain tail; all
  other non-terminal positions become CANCELED_BY_ANOTHER_MANAGER.
*/
package engine

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DECISIONS
// =============================================================================

type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionDecline DecisionAction = "decline"
	ActionCancel  DecisionAction = "cancel"
)

// Actor is the principal applying a decision. An administrator may act on
// behalf of any position; a department manager only on behalf of members
// of departments they manage.
type Actor struct {
	MemberID           MemberID
	IsAdmin            bool
	ManagesDepartments []DepartmentID
}

func (a Actor) manages(departments []DepartmentID) bool {
	for _, d := range departments {
		for _, m := range a.ManagesDepartments {
			if d == m {
				return true
			}
		}
	}
	return false
}

// Decision is one incoming approve/decline/cancel on a chain position.
type Decision struct {
	Action DecisionAction
	Actor  Actor

	// Position is the chain entry being acted on. Empty means the actor's
	// own position.
	Position MemberID

	// PositionDepartments are the departments of the position's member,
	// used for department-manager on-behalf authorization.
	PositionDepartments []DepartmentID

	Comment string
	At      time.Time
}

// Outcome is the result of applying a decision: the new chain state and
// the new aggregate status. Changed is false when the engine deliberately
// left everything as it was (department-manager fallback).
type Outcome struct {
	Approvers []RequestApprover
	Status    RequestStatus
	Changed   bool
}

// =============================================================================
// CHAIN CONSTRUCTION
// =============================================================================

// BuildApprovers materializes chain rows for a new request. The self
// approval rule auto-marks the requester's own position APPROVED when the
// policy is parallel or when the requester is the chain head.
func BuildApprovers(requestID RequestID, chain ResolvedChain, requester MemberID, process ApprovalProcess, now time.Time) []RequestApprover {
	rows := make([]RequestApprover, 0, len(chain.Links))
	for i, link := range chain.Links {
		row := RequestApprover{
			ID:            uuid.NewString(),
			RequestID:     requestID,
			ApproverID:    link.ApproverID,
			PredecessorID: link.PredecessorID,
			Status:        ApproverPending,
		}
		if link.ApproverID == requester && (process.IsParallel() || i == 0) {
			row.Status = ApproverApproved
			t := now
			row.DecidedAt = &t
		}
		rows = append(rows, row)
	}
	return rows
}

// SettleChain computes the aggregate status of a freshly built chain and
// propagates skip statuses implied by auto-approved positions.
func SettleChain(process ApprovalProcess, rows []RequestApprover, now time.Time) ([]RequestApprover, RequestStatus) {
	out := cloneApprovers(rows)

	anyApproved := false
	for _, r := range out {
		if r.Status == ApproverApproved {
			anyApproved = true
		}
	}

	if !process.RequiresAll() && anyApproved {
		markPending(out, ApproverApprovedByOther, now)
		return out, StatusApproved
	}
	if !anyPending(out) && len(out) > 0 {
		return out, StatusApproved
	}
	return out, StatusPending
}

// =============================================================================
// DECISION APPLICATION
// =============================================================================

// ApplyDecision applies one decision to a request snapshot. The input is
// never mutated.
func ApplyDecision(detail RequestDetail, approvers []RequestApprover, dec Decision) (Outcome, error) {
	switch detail.Status {
	case StatusCanceled:
		return Outcome{}, stateError(CodeRequestCanceled, "request %s is canceled", detail.RequestID)
	case StatusDeclined:
		return Outcome{}, stateError(CodeRequestDeclined, "request %s is declined", detail.RequestID)
	case StatusApproved:
		if dec.Action != ActionCancel {
			return Outcome{}, stateError(CodeRequestDecided, "request %s is already approved", detail.RequestID)
		}
	}

	if dec.Action == ActionCancel {
		return applyCancel(detail, approvers, dec), nil
	}

	position := dec.Position
	if position == "" {
		position = dec.Actor.MemberID
	}

	rows := cloneApprovers(approvers)
	idx := indexOf(rows, position)
	if idx < 0 {
		return Outcome{}, precondition(CodeNotAuthorized, "member %s holds no position in the approval chain", position)
	}

	onBehalf := dec.Actor.MemberID != position
	if onBehalf && !dec.Actor.IsAdmin {
		if !dec.Actor.manages(dec.PositionDepartments) {
			return Outcome{}, precondition(CodeNotAuthorized, "member %s may not act for approver %s", dec.Actor.MemberID, position)
		}
		if rows[idx].Status.IsTerminal() {
			// The position was already settled via another path; leave the
			// aggregate as it is rather than forcing a transition.
			return Outcome{Approvers: cloneApprovers(approvers), Status: detail.Status, Changed: false}, nil
		}
	}
	if rows[idx].Status.IsTerminal() {
		return Outcome{}, stateError(CodePositionDecided, "approver %s has already decided", position)
	}

	if dec.Action == ActionDecline {
		decide(&rows[idx], ApproverDeclined, dec)
		markPending(rows, ApproverDeclinedByOther, dec.At)
		return Outcome{Approvers: rows, Status: StatusDeclined, Changed: true}, nil
	}

	return applyApprove(detail.Process, rows, idx, dec)
}

func applyApprove(process ApprovalProcess, rows []RequestApprover, idx int, dec Decision) (Outcome, error) {
	switch process {
	case ProcessParallelOne:
		decide(&rows[idx], ApproverApproved, dec)
		markPending(rows, ApproverApprovedByOther, dec.At)
		return Outcome{Approvers: rows, Status: StatusApproved, Changed: true}, nil

	case ProcessParallelAll:
		decide(&rows[idx], ApproverApproved, dec)
		if anyPending(rows) {
			return Outcome{Approvers: rows, Status: StatusPending, Changed: true}, nil
		}
		return Outcome{Approvers: rows, Status: StatusApproved, Changed: true}, nil

	case ProcessLinearOne:
		ordered := SortApprovers(rows)
		if len(ordered) > 0 && ordered[0].ApproverID != rows[idx].ApproverID {
			if !ordered[0].Status.Settled() {
				return Outcome{}, stateError(CodeSkipNotAllowed, "no approver may be skipped: %s has not decided", ordered[0].ApproverID)
			}
		}
		decide(&rows[idx], ApproverApproved, dec)
		markPending(rows, ApproverApprovedByOther, dec.At)
		return Outcome{Approvers: rows, Status: StatusApproved, Changed: true}, nil

	case ProcessLinearAll:
		if pred := rows[idx].PredecessorID; pred != nil {
			p := indexOf(rows, *pred)
			if p >= 0 && !rows[p].Status.Settled() && !dec.Actor.IsAdmin {
				return Outcome{}, stateError(CodeSkipNotAllowed, "no approver may be skipped: %s has not decided", *pred)
			}
		}
		decide(&rows[idx], ApproverApproved, dec)
		if anyPending(rows) {
			return Outcome{Approvers: rows, Status: StatusPending, Changed: true}, nil
		}
		return Outcome{Approvers: rows, Status: StatusApproved, Changed: true}, nil
	}

	return Outcome{}, stateError(CodeRequestDecided, "unknown approval process %q", process)
}

func applyCancel(detail RequestDetail, approvers []RequestApprover, dec Decision) Outcome {
	rows := cloneApprovers(approvers)

	idx := indexOf(rows, dec.Actor.MemberID)
	if idx >= 0 {
		decide(&rows[idx], ApproverCanceled, dec)
	} else {
		// Principal holds no position: append a terminal canceler position
		// after the current chain tail.
		var pred *MemberID
		if ordered := SortApprovers(rows); len(ordered) > 0 {
			tail := ordered[len(ordered)-1].ApproverID
			pred = &tail
		}
		row := RequestApprover{
			ID:            uuid.NewString(),
			RequestID:     detail.RequestID,
			ApproverID:    dec.Actor.MemberID,
			PredecessorID: pred,
			Status:        ApproverCanceled,
			Comment:       dec.Comment,
		}
		t := dec.At
		row.DecidedAt = &t
		rows = append(rows, row)
	}

	markPending(rows, ApproverCanceledByOther, dec.At)
	return Outcome{Approvers: rows, Status: StatusCanceled, Changed: true}
}

// =============================================================================
// SMALL HELPERS
// =============================================================================

func cloneApprovers(rows []RequestApprover) []RequestApprover {
	out := make([]RequestApprover, len(rows))
	copy(out, rows)
	return out
}

func indexOf(rows []RequestApprover, id MemberID) int {
	for i := range rows {
		if rows[i].ApproverID == id {
			return i
		}
	}
	return -1
}

func anyPending(rows []RequestApprover) bool {
	for _, r := range rows {
		if r.Status == ApproverPending {
			return true
		}
	}
	return false
}

func decide(row *RequestApprover, status ApproverStatus, dec Decision) {
	row.Status = status
	row.Comment = dec.Comment
	t := dec.At
	row.DecidedAt = &t
}

func markPending(rows []RequestApprover, status ApproverStatus, at time.Time) {
	for i := range rows {
		if rows[i].Status == ApproverPending {
			rows[i].Status = status
			t := at
			rows[i].DecidedAt = &t
		}
	}
}

// NextApprovers returns the positions whose decision is currently awaited:
// every pending position for parallel policies, the first pending position
// in chain order for linear ones.
func NextApprovers(process ApprovalProcess, rows []RequestApprover) []MemberID {
	if process.IsParallel() {
		var out []MemberID
		for _, r := range rows {
			if r.Status == ApproverPending {
				out = append(out, r.ApproverID)
			}
		}
		return out
	}
	for _, r := range SortApprovers(rows) {
		if r.Status == ApproverPending {
			return []MemberID{r.ApproverID}
		}
	}
	return nil
}
