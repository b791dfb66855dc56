/*
approval_test.go - Specification tests for the approval state machine

PURPOSE:
  Covers all four approval policies, chain order enforcement, admin skip,
  on-behalf authorization, cancellation and terminal-state protection.
*/
package engine_test

import (
	"testing"
	"time"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

var decisionTime = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

// newChain builds PENDING rows a -> b -> c ... in strict order.
func newChain(ids ...engine.MemberID) []engine.RequestApprover {
	var rows []engine.RequestApprover
	var prev *engine.MemberID
	for i, id := range ids {
		rows = append(rows, engine.RequestApprover{
			ID:            string(rune('A' + i)),
			RequestID:     "req-1",
			ApproverID:    id,
			PredecessorID: prev,
			Status:        engine.ApproverPending,
		})
		p := id
		prev = &p
	}
	return rows
}

func pendingDetail(process engine.ApprovalProcess) engine.RequestDetail {
	return engine.RequestDetail{
		RequestID: "req-1",
		Status:    engine.StatusPending,
		Process:   process,
	}
}

func approveAs(id engine.MemberID) engine.Decision {
	return engine.Decision{
		Action:   engine.ActionApprove,
		Actor:    engine.Actor{MemberID: id},
		Position: id,
		At:       decisionTime,
	}
}

func declineAs(id engine.MemberID) engine.Decision {
	return engine.Decision{
		Action:   engine.ActionDecline,
		Actor:    engine.Actor{MemberID: id},
		Position: id,
		At:       decisionTime,
	}
}

func statusOf(rows []engine.RequestApprover, id engine.MemberID) engine.ApproverStatus {
	for _, r := range rows {
		if r.ApproverID == id {
			return r.Status
		}
	}
	return ""
}

// =============================================================================
// PARALLEL POLICIES
// =============================================================================

func TestApproval_ParallelOne_FirstApprovalWins(t *testing.T) {
	// GIVEN: three parallel approvers, one has to agree
	chain := newChain("alice", "bob", "carol")

	// WHEN: bob approves
	out, err := engine.ApplyDecision(pendingDetail(engine.ProcessParallelOne), chain, approveAs("bob"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: the request is approved and the others are skipped
	if out.Status != engine.StatusApproved {
		t.Errorf("status = %s, want APPROVED", out.Status)
	}
	if got := statusOf(out.Approvers, "alice"); got != engine.ApproverApprovedByOther {
		t.Errorf("alice = %s, want APPROVED_BY_ANOTHER_MANAGER", got)
	}
	if got := statusOf(out.Approvers, "carol"); got != engine.ApproverApprovedByOther {
		t.Errorf("carol = %s, want APPROVED_BY_ANOTHER_MANAGER", got)
	}
}

func TestApproval_ParallelOne_OutcomeIndependentOfArrivalOrder(t *testing.T) {
	// GIVEN: two approvers racing; whoever is applied first wins, and the
	// aggregate outcome is APPROVED either way
	for _, first := range []engine.MemberID{"alice", "bob"} {
		chain := newChain("alice", "bob")
		out, err := engine.ApplyDecision(pendingDetail(engine.ProcessParallelOne), chain, approveAs(first))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != engine.StatusApproved {
			t.Errorf("first=%s: status = %s, want APPROVED", first, out.Status)
		}

		// The loser's decision now fails cleanly on the settled request.
		detail := pendingDetail(engine.ProcessParallelOne)
		detail.Status = out.Status
		_, err = engine.ApplyDecision(detail, out.Approvers, approveAs("bob"))
		if engine.CodeOf(err) != engine.CodeRequestDecided {
			t.Errorf("first=%s: second decision code = %q, want %q", first, engine.CodeOf(err), engine.CodeRequestDecided)
		}
	}
}

func TestApproval_ParallelAll_ApprovedOnlyWhenAllAgree(t *testing.T) {
	// GIVEN: two parallel approvers, all have to agree
	chain := newChain("alice", "bob")
	detail := pendingDetail(engine.ProcessParallelAll)

	// WHEN: only alice has approved
	out, err := engine.ApplyDecision(detail, chain, approveAs("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: the request stays pending
	if out.Status != engine.StatusPending {
		t.Fatalf("status = %s, want PENDING", out.Status)
	}

	// WHEN: bob also approves
	out, err = engine.ApplyDecision(detail, out.Approvers, approveAs("bob"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != engine.StatusApproved {
		t.Errorf("status = %s, want APPROVED", out.Status)
	}
}

// =============================================================================
// LINEAR POLICIES
// =============================================================================

func TestApproval_LinearAll_OrderEnforced(t *testing.T) {
	// GIVEN: a strict chain alice -> bob
	chain := newChain("alice", "bob")
	detail := pendingDetail(engine.ProcessLinearAll)

	// WHEN: bob tries to approve before alice
	_, err := engine.ApplyDecision(detail, chain, approveAs("bob"))

	// THEN: the skip is rejected with a stable code
	if engine.CodeOf(err) != engine.CodeSkipNotAllowed {
		t.Fatalf("code = %q, want %q", engine.CodeOf(err), engine.CodeSkipNotAllowed)
	}

	// WHEN: alice approves first, then bob
	out, err := engine.ApplyDecision(detail, chain, approveAs("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != engine.StatusPending {
		t.Fatalf("status after head = %s, want PENDING", out.Status)
	}
	out, err = engine.ApplyDecision(detail, out.Approvers, approveAs("bob"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != engine.StatusApproved {
		t.Errorf("status = %s, want APPROVED", out.Status)
	}
}

func TestApproval_LinearAll_ThreeStepChainWalksInOrder(t *testing.T) {
	// GIVEN: a strict chain alice -> bob -> carol
	chain := newChain("alice", "bob", "carol")
	detail := pendingDetail(engine.ProcessLinearAll)

	// WHEN: the tail tries to approve before the others
	_, err := engine.ApplyDecision(detail, chain, approveAs("carol"))

	// THEN: the skip is rejected
	if engine.CodeOf(err) != engine.CodeSkipNotAllowed {
		t.Fatalf("code = %q, want %q", engine.CodeOf(err), engine.CodeSkipNotAllowed)
	}

	// WHEN: the chain is walked head to tail
	out, err := engine.ApplyDecision(detail, chain, approveAs("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != engine.StatusPending {
		t.Fatalf("status after alice = %s, want PENDING", out.Status)
	}
	out, err = engine.ApplyDecision(detail, out.Approvers, approveAs("bob"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != engine.StatusPending {
		t.Fatalf("status after bob = %s, want PENDING", out.Status)
	}
	out, err = engine.ApplyDecision(detail, out.Approvers, approveAs("carol"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: every position is approved and the aggregate settles
	for _, id := range []engine.MemberID{"alice", "bob", "carol"} {
		if got := statusOf(out.Approvers, id); got != engine.ApproverApproved {
			t.Errorf("%s = %s, want APPROVED", id, got)
		}
	}
	if out.Status != engine.StatusApproved {
		t.Errorf("status = %s, want APPROVED", out.Status)
	}
}

func TestApproval_LinearAll_AdminMaySkip(t *testing.T) {
	// GIVEN: a strict chain alice -> bob, alice undecided
	chain := newChain("alice", "bob")

	// WHEN: an administrator approves bob's position out of order
	dec := engine.Decision{
		Action:   engine.ActionApprove,
		Actor:    engine.Actor{MemberID: "root", IsAdmin: true},
		Position: "bob",
		At:       decisionTime,
	}
	out, err := engine.ApplyDecision(pendingDetail(engine.ProcessLinearAll), chain, dec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: bob's position is approved, alice's is still awaited
	if got := statusOf(out.Approvers, "bob"); got != engine.ApproverApproved {
		t.Errorf("bob = %s, want APPROVED", got)
	}
	if out.Status != engine.StatusPending {
		t.Errorf("status = %s, want PENDING", out.Status)
	}
}

func TestApproval_LinearOne_HeadDecides(t *testing.T) {
	// GIVEN: a chain alice -> bob -> carol, one has to agree
	chain := newChain("alice", "bob", "carol")

	// WHEN: the head approves
	out, err := engine.ApplyDecision(pendingDetail(engine.ProcessLinearOne), chain, approveAs("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: the request is approved immediately
	if out.Status != engine.StatusApproved {
		t.Errorf("status = %s, want APPROVED", out.Status)
	}
	if got := statusOf(out.Approvers, "bob"); got != engine.ApproverApprovedByOther {
		t.Errorf("bob = %s, want APPROVED_BY_ANOTHER_MANAGER", got)
	}
}

func TestApproval_LinearOne_NonHeadMustWaitForHead(t *testing.T) {
	// GIVEN: the head has not decided
	chain := newChain("alice", "bob")

	// WHEN: bob tries to approve
	_, err := engine.ApplyDecision(pendingDetail(engine.ProcessLinearOne), chain, approveAs("bob"))

	// THEN: the approval does not count yet
	if engine.CodeOf(err) != engine.CodeSkipNotAllowed {
		t.Errorf("code = %q, want %q", engine.CodeOf(err), engine.CodeSkipNotAllowed)
	}
}

// =============================================================================
// DECLINE
// =============================================================================

func TestApproval_DeclineTerminatesUnderEveryPolicy(t *testing.T) {
	for _, process := range []engine.ApprovalProcess{
		engine.ProcessLinearAll,
		engine.ProcessLinearOne,
		engine.ProcessParallelAll,
		engine.ProcessParallelOne,
	} {
		chain := newChain("alice", "bob", "carol")
		out, err := engine.ApplyDecision(pendingDetail(process), chain, declineAs("alice"))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", process, err)
		}
		if out.Status != engine.StatusDeclined {
			t.Errorf("%s: status = %s, want DECLINED", process, out.Status)
		}
		if got := statusOf(out.Approvers, "bob"); got != engine.ApproverDeclinedByOther {
			t.Errorf("%s: bob = %s, want DECLINED_BY_ANOTHER_MANAGER", process, got)
		}
	}
}

// =============================================================================
// CANCEL
// =============================================================================

func TestApproval_CancelByRequesterOutsideChain(t *testing.T) {
	// GIVEN: a pending request whose requester holds no chain position
	chain := newChain("alice", "bob")

	// WHEN: the requester cancels
	out, err := engine.ApplyDecision(pendingDetail(engine.ProcessLinearAll), chain, engine.Decision{
		Action: engine.ActionCancel,
		Actor:  engine.Actor{MemberID: "dave"},
		At:     decisionTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: a canceler position is appended after the tail and the rest
	// are marked canceled by another manager
	if out.Status != engine.StatusCanceled {
		t.Fatalf("status = %s, want CANCELED", out.Status)
	}
	if len(out.Approvers) != 3 {
		t.Fatalf("len(approvers) = %d, want 3", len(out.Approvers))
	}
	ordered := engine.SortApprovers(out.Approvers)
	tail := ordered[len(ordered)-1]
	if tail.ApproverID != "dave" || tail.Status != engine.ApproverCanceled {
		t.Errorf("tail = %s/%s, want dave/CANCELED", tail.ApproverID, tail.Status)
	}
	if got := statusOf(out.Approvers, "alice"); got != engine.ApproverCanceledByOther {
		t.Errorf("alice = %s, want CANCELED_BY_ANOTHER_MANAGER", got)
	}
}

func TestApproval_CancelApprovedRequest(t *testing.T) {
	// GIVEN: an already approved request
	chain := newChain("alice")
	chain[0].Status = engine.ApproverApproved
	detail := pendingDetail(engine.ProcessLinearAll)
	detail.Status = engine.StatusApproved

	// WHEN: alice cancels it
	out, err := engine.ApplyDecision(detail, chain, engine.Decision{
		Action: engine.ActionCancel,
		Actor:  engine.Actor{MemberID: "alice"},
		At:     decisionTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != engine.StatusCanceled {
		t.Errorf("status = %s, want CANCELED", out.Status)
	}
	if got := statusOf(out.Approvers, "alice"); got != engine.ApproverCanceled {
		t.Errorf("alice = %s, want CANCELED", got)
	}
}

// =============================================================================
// TERMINAL STATES AND AUTHORIZATION
// =============================================================================

func TestApproval_TerminalRequestsRejectDecisions(t *testing.T) {
	chain := newChain("alice")
	for _, tc := range []struct {
		status engine.RequestStatus
		code   string
	}{
		{engine.StatusCanceled, engine.CodeRequestCanceled},
		{engine.StatusDeclined, engine.CodeRequestDeclined},
		{engine.StatusApproved, engine.CodeRequestDecided},
	} {
		detail := pendingDetail(engine.ProcessLinearAll)
		detail.Status = tc.status
		_, err := engine.ApplyDecision(detail, chain, approveAs("alice"))
		if engine.CodeOf(err) != tc.code {
			t.Errorf("%s: code = %q, want %q", tc.status, engine.CodeOf(err), tc.code)
		}
	}
}

func TestApproval_PositionAlreadyDecided(t *testing.T) {
	// GIVEN: alice already approved her position under parallel-all
	chain := newChain("alice", "bob")
	chain[0].Status = engine.ApproverApproved

	// WHEN: she approves again
	_, err := engine.ApplyDecision(pendingDetail(engine.ProcessParallelAll), chain, approveAs("alice"))

	// THEN: the repeat decision is rejected
	if engine.CodeOf(err) != engine.CodePositionDecided {
		t.Errorf("code = %q, want %q", engine.CodeOf(err), engine.CodePositionDecided)
	}
}

func TestApproval_OnBehalfRequiresAuthority(t *testing.T) {
	chain := newChain("alice", "bob")
	detail := pendingDetail(engine.ProcessParallelAll)

	// WHEN: a stranger acts on alice's position
	_, err := engine.ApplyDecision(detail, chain, engine.Decision{
		Action:              engine.ActionApprove,
		Actor:               engine.Actor{MemberID: "mallory"},
		Position:            "alice",
		PositionDepartments: []engine.DepartmentID{"eng"},
		At:                  decisionTime,
	})
	if engine.CodeOf(err) != engine.CodeNotAuthorized {
		t.Fatalf("code = %q, want %q", engine.CodeOf(err), engine.CodeNotAuthorized)
	}

	// WHEN: a manager of alice's department does the same
	out, err := engine.ApplyDecision(detail, chain, engine.Decision{
		Action:              engine.ActionApprove,
		Actor:               engine.Actor{MemberID: "dept-head", ManagesDepartments: []engine.DepartmentID{"eng"}},
		Position:            "alice",
		PositionDepartments: []engine.DepartmentID{"eng"},
		At:                  decisionTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := statusOf(out.Approvers, "alice"); got != engine.ApproverApproved {
		t.Errorf("alice = %s, want APPROVED", got)
	}
}

func TestApproval_DeptManagerFallbackOnSettledPosition(t *testing.T) {
	// GIVEN: alice's position was already skipped via another path
	chain := newChain("alice", "bob")
	chain[0].Status = engine.ApproverApprovedByOther

	// WHEN: her department manager acts on it
	out, err := engine.ApplyDecision(pendingDetail(engine.ProcessParallelAll), chain, engine.Decision{
		Action:              engine.ActionApprove,
		Actor:               engine.Actor{MemberID: "dept-head", ManagesDepartments: []engine.DepartmentID{"eng"}},
		Position:            "alice",
		PositionDepartments: []engine.DepartmentID{"eng"},
		At:                  decisionTime,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: nothing is forced; the aggregate is left as it was
	if out.Changed {
		t.Error("Changed = true, want untouched outcome")
	}
	if out.Status != engine.StatusPending {
		t.Errorf("status = %s, want PENDING", out.Status)
	}
}

// =============================================================================
// CHAIN CONSTRUCTION
// =============================================================================

func TestApproval_SelfApprovalRules(t *testing.T) {
	now := decisionTime

	// Requester amid a parallel chain: auto-approved.
	chain := engine.ResolvedChain{Links: []engine.ApproverLink{
		{ApproverID: "alice"},
		{ApproverID: "me"},
	}}
	rows := engine.BuildApprovers("req-1", chain, "me", engine.ProcessParallelAll, now)
	if got := statusOf(rows, "me"); got != engine.ApproverApproved {
		t.Errorf("parallel self position = %s, want APPROVED", got)
	}

	// Requester as head of a linear chain: auto-approved.
	head := engine.MemberID("me")
	linear := engine.ResolvedChain{Links: []engine.ApproverLink{
		{ApproverID: "me"},
		{ApproverID: "alice", PredecessorID: &head},
	}}
	rows = engine.BuildApprovers("req-1", linear, "me", engine.ProcessLinearAll, now)
	if got := statusOf(rows, "me"); got != engine.ApproverApproved {
		t.Errorf("linear head self position = %s, want APPROVED", got)
	}

	// Requester mid-chain under a linear policy: stays pending.
	alice := engine.MemberID("alice")
	linear = engine.ResolvedChain{Links: []engine.ApproverLink{
		{ApproverID: "alice"},
		{ApproverID: "me", PredecessorID: &alice},
	}}
	rows = engine.BuildApprovers("req-1", linear, "me", engine.ProcessLinearAll, now)
	if got := statusOf(rows, "me"); got != engine.ApproverPending {
		t.Errorf("linear mid-chain self position = %s, want PENDING", got)
	}
}

func TestApproval_SettleChain(t *testing.T) {
	now := decisionTime

	// One-has-to-agree with an auto-approved requester settles immediately.
	chain := engine.ResolvedChain{Links: []engine.ApproverLink{
		{ApproverID: "me"},
		{ApproverID: "alice"},
	}}
	rows := engine.BuildApprovers("req-1", chain, "me", engine.ProcessParallelOne, now)
	rows, status := engine.SettleChain(engine.ProcessParallelOne, rows, now)
	if status != engine.StatusApproved {
		t.Errorf("status = %s, want APPROVED", status)
	}
	if got := statusOf(rows, "alice"); got != engine.ApproverApprovedByOther {
		t.Errorf("alice = %s, want APPROVED_BY_ANOTHER_MANAGER", got)
	}

	// All-have-to-agree keeps waiting for the rest.
	rows = engine.BuildApprovers("req-1", chain, "me", engine.ProcessParallelAll, now)
	_, status = engine.SettleChain(engine.ProcessParallelAll, rows, now)
	if status != engine.StatusPending {
		t.Errorf("status = %s, want PENDING", status)
	}
}
