/*
service.go - The request service

PURPOSE:
  Orchestrates the pure components (chain resolver, duration calculator,
  overlap detector, state machine, ledger) into the operations callers
  invoke: create a request, decide on it, cancel it, read balances.

CONCURRENCY:
  Every mutating operation runs under a TTL lock. Creation and member
  edits take the member-scoped key so two conflicting creations cannot
  both pass the overlap check; decisions take the request-scoped key so
  two approvers cannot both win a one-has-to-agree race.

EVENTS:
  Lifecycle events are emitted after the transition has been persisted,
  on a separate goroutine. A panicking subscriber is reported to the
  ErrorTracker and never affects the caller.
*/
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aasimdev/absentify-inhouse-sub002/lock"
)

// =============================================================================
// SERVICE
// =============================================================================

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 5 * time.Second
	// defaultDirectoryDepth caps how far up the manager hierarchy the chain
	// resolver walks.
	defaultDirectoryDepth = 4
)

// ServiceConfig wires a Service. Store and Locker are required; the rest
// default to no-ops or sensible values.
type ServiceConfig struct {
	Store     Store
	Locker    lock.Locker
	Directory DirectoryProvider
	Events    EventSink
	Tracker   ErrorTracker
	Fiscal    FiscalConfig
	Logger    *zap.Logger

	LockTTL        time.Duration
	LockWait       time.Duration
	DirectoryDepth int
}

// Service exposes the engine's operations over a Store and a Locker.
type Service struct {
	store     Store
	locker    lock.Locker
	directory DirectoryProvider
	events    EventSink
	tracker   ErrorTracker
	fiscal    FiscalConfig
	log       *zap.Logger

	lockTTL  time.Duration
	lockWait time.Duration
	dirDepth int

	now   func() time.Time
	newID func() string
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		store:     cfg.Store,
		locker:    cfg.Locker,
		directory: cfg.Directory,
		events:    cfg.Events,
		tracker:   cfg.Tracker,
		fiscal:    cfg.Fiscal,
		log:       cfg.Logger,
		lockTTL:   cfg.LockTTL,
		lockWait:  cfg.LockWait,
		dirDepth:  cfg.DirectoryDepth,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if s.directory == nil {
		s.directory = NopDirectory{}
	}
	if s.events == nil {
		s.events = NopEventSink{}
	}
	if s.tracker == nil {
		s.tracker = NopErrorTracker{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultLockTTL
	}
	if s.lockWait <= 0 {
		s.lockWait = defaultLockWait
	}
	if s.dirDepth <= 0 {
		s.dirDepth = defaultDirectoryDepth
	}
	return s
}

// =============================================================================
// CREATE
// =============================================================================

// CreateInput is the caller's half of a new leave request.
type CreateInput struct {
	WorkspaceID WorkspaceID
	MemberID    MemberID
	LeaveTypeID LeaveTypeID
	Start       Date
	End         Date
	StartAt     StartAt
	EndAt       EndAt
	Reason      string
}

// CreateRequest validates, prices and persists a new leave request, then
// emits its lifecycle events. The member-scoped lock serializes it against
// concurrent creations and member edits.
func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (RequestRecord, error) {
	unlock, err := s.acquire(ctx, lock.CreateKey(string(in.WorkspaceID), string(in.MemberID)))
	if err != nil {
		return RequestRecord{}, err
	}
	defer unlock()

	member, err := s.store.GetMember(ctx, in.MemberID)
	if err != nil {
		return RequestRecord{}, memberLookupErr(err, in.MemberID)
	}
	if member.Archived {
		return RequestRecord{}, precondition(CodeMemberArchived, "member %s is archived", member.ID)
	}

	lt, err := s.store.GetLeaveType(ctx, in.LeaveTypeID)
	if err != nil {
		return RequestRecord{}, lookupErr(err, "leave type %s", in.LeaveTypeID)
	}
	if member.LeaveTypeDisabled(lt.ID) {
		return RequestRecord{}, precondition(CodeLeaveTypeDisabled, "leave type %s is disabled for member %s", lt.ID, member.ID)
	}
	if lt.ReasonRequired && in.Reason == "" {
		return RequestRecord{}, precondition(CodeReasonRequired, "leave type %s requires a reason", lt.ID)
	}

	duration, err := s.priceRequest(ctx, member, lt, in)
	if err != nil {
		return RequestRecord{}, err
	}

	existing, err := s.store.ListMemberRequests(ctx, member.ID)
	if err != nil {
		return RequestRecord{}, collaborator(err, "list requests for member %s", member.ID)
	}
	window := RequestWindow{Start: in.Start, End: in.End, StartAt: in.StartAt, EndAt: in.EndAt}
	if c := DetectOverlap(existing, window); c != nil {
		return RequestRecord{}, conflict(CodeOverlap, "request overlaps %s (%s)", c.RequestID, c.Window)
	}

	year := s.fiscal.YearFor(in.Start)
	if err := s.checkAllowance(ctx, member, lt, year, duration); err != nil {
		return RequestRecord{}, err
	}

	now := s.now()
	rec := RequestRecord{
		Request: LeaveRequest{
			ID:          RequestID(s.newID()),
			MemberID:    member.ID,
			WorkspaceID: member.WorkspaceID,
			Start:       in.Start,
			End:         in.End,
			StartAt:     in.StartAt,
			EndAt:       in.EndAt,
			Unit:        lt.Unit,
			Year:        year,
			CreatedAt:   now,
		},
		Detail: RequestDetail{
			Status:      StatusPending,
			Process:     member.ApprovalProcess,
			LeaveTypeID: lt.ID,
			Reason:      in.Reason,
			Duration:    duration,
		},
	}
	rec.Detail.RequestID = rec.Request.ID

	if lt.NeedsApproval {
		chain, err := s.resolveChain(ctx, member)
		if err != nil {
			return RequestRecord{}, err
		}
		rows := BuildApprovers(rec.Request.ID, chain, member.ID, member.ApprovalProcess, now)
		rec.Approvers, rec.Detail.Status = SettleChain(member.ApprovalProcess, rows, now)
		if chain.UsesDeptDefaults && !member.UsesDeptDefaults {
			member.UsesDeptDefaults = true
			if err := s.store.SaveMember(ctx, member); err != nil {
				return RequestRecord{}, collaborator(err, "save member %s", member.ID)
			}
		}
	} else {
		rec.Detail.Status = StatusApproved
	}

	if err := s.store.CreateRequest(ctx, rec); err != nil {
		return RequestRecord{}, collaborator(err, "persist request %s", rec.Request.ID)
	}
	if err := s.recomputeMember(ctx, member.ID); err != nil {
		return RequestRecord{}, err
	}

	s.emit(Event{
		Type:        EventRequestCreated,
		WorkspaceID: member.WorkspaceID,
		RequestID:   rec.Request.ID,
		MemberID:    member.ID,
		Status:      rec.Detail.Status,
		At:          now,
	})
	s.emitPending(member.WorkspaceID, rec, now)

	s.log.Info("request created",
		zap.String("request", string(rec.Request.ID)),
		zap.String("member", string(member.ID)),
		zap.String("status", string(rec.Detail.Status)))
	return rec, nil
}

// priceRequest computes the request's duration against the member's
// effective schedule and holiday calendar.
func (s *Service) priceRequest(ctx context.Context, member Member, lt LeaveType, in CreateInput) (WorkDuration, error) {
	versions, err := s.store.MemberSchedules(ctx, member.ID)
	if err != nil {
		return WorkDuration{}, collaborator(err, "load schedules for member %s", member.ID)
	}
	ws, err := s.store.WorkspaceSchedule(ctx, member.WorkspaceID)
	if err != nil {
		return WorkDuration{}, collaborator(err, "load workspace schedule %s", member.WorkspaceID)
	}

	var holidays []PublicHolidayDay
	if !lt.IgnorePublicHolidays && member.HolidayCalendarID != "" {
		holidays, err = s.store.HolidaysInRange(ctx, member.HolidayCalendarID, DateRange{Start: in.Start, End: in.End})
		if err != nil {
			return WorkDuration{}, collaborator(err, "load holidays for calendar %s", member.HolidayCalendarID)
		}
	}

	return CalculateDuration(DurationInput{
		Range:                DateRange{Start: in.Start, End: in.End},
		StartAt:              in.StartAt,
		EndAt:                in.EndAt,
		Unit:                 lt.Unit,
		IgnoreSchedule:       lt.IgnoreSchedule,
		IgnorePublicHolidays: lt.IgnorePublicHolidays,
		Schedule:             NewScheduleResolver(versions, ws.Week),
		Holidays:             holidays,
	})
}

// checkAllowance verifies the member's balance covers the request.
func (s *Service) checkAllowance(ctx context.Context, member Member, lt LeaveType, year int, duration WorkDuration) error {
	if !lt.TakeFromAllowance {
		return nil
	}
	at, err := s.store.GetAllowanceType(ctx, lt.AllowanceTypeID)
	if err != nil {
		return lookupErr(err, "allowance type %s", lt.AllowanceTypeID)
	}
	rows, err := s.store.ListAllowances(ctx, member.ID)
	if err != nil {
		return collaborator(err, "load allowances for member %s", member.ID)
	}

	row, found := EnsureYear(rows, member.ID, member.WorkspaceID, at.ID, year)
	if !found {
		// No row for the year: synthesize it, carrying forward from the
		// previous year when one exists, and persist so it shows up in
		// balance views.
		if prev, ok := EnsureYear(rows, member.ID, member.WorkspaceID, at.ID, year-1); ok {
			row.BroughtForward = CarryForward(prev, at)
			row = row.settle()
		}
		if err := s.store.SaveAllowances(ctx, []MemberAllowance{row}); err != nil {
			return collaborator(err, "persist allowance row for member %s", member.ID)
		}
	}

	suff := CheckSufficiency(row, lt, at, duration.In(at.Unit))
	if suff.Applicable && !suff.Sufficient {
		return conflict(CodeInsufficientAllowance, "member %s has %s %s remaining, request needs %s",
			member.ID, suff.Remaining, at.Unit, suff.Requested)
	}
	return nil
}

// resolveChain gathers the chain inputs and runs the resolver.
func (s *Service) resolveChain(ctx context.Context, member Member) (ResolvedChain, error) {
	managers, err := s.directory.ManagerChain(ctx, member.ID, s.dirDepth)
	if err != nil {
		// A directory outage must not block leave requests; fall through to
		// the configured lists.
		s.tracker.Capture(err, map[string]string{"member": string(member.ID), "op": "directory_lookup"})
		s.log.Warn("directory lookup failed", zap.String("member", string(member.ID)), zap.Error(err))
		managers = nil
	}

	var deptApprovers []MemberID
	for _, dept := range member.DepartmentIDs {
		ids, err := s.store.DepartmentApprovers(ctx, dept)
		if err != nil {
			return ResolvedChain{}, collaborator(err, "load approvers for department %s", dept)
		}
		deptApprovers = append(deptApprovers, ids...)
	}

	return ResolveChain(member, ChainInput{
		DirectoryManagers: managers,
		MaxDirectoryDepth: s.dirDepth,
		DeptApprovers:     deptApprovers,
	})
}

// =============================================================================
// DECIDE
// =============================================================================

// DecideInput identifies the request, the acting principal and optionally
// the chain position being acted on.
type DecideInput struct {
	RequestID RequestID
	Actor     Actor
	// Position is the approver position being decided; empty means the
	// actor's own.
	Position MemberID
	Comment  string
}

// Approve applies an approval to one chain position.
func (s *Service) Approve(ctx context.Context, in DecideInput) (RequestRecord, error) {
	return s.decide(ctx, in, ActionApprove)
}

// Decline applies a decline to one chain position. A decline terminates
// the request under every policy.
func (s *Service) Decline(ctx context.Context, in DecideInput) (RequestRecord, error) {
	return s.decide(ctx, in, ActionDecline)
}

func (s *Service) decide(ctx context.Context, in DecideInput, action DecisionAction) (RequestRecord, error) {
	unlock, err := s.acquire(ctx, lock.RequestKey(string(in.RequestID)))
	if err != nil {
		return RequestRecord{}, err
	}
	defer unlock()

	rec, err := s.store.GetRequest(ctx, in.RequestID)
	if err != nil {
		return RequestRecord{}, lookupErr(err, "request %s", in.RequestID)
	}
	s.auditChain(rec)

	position := in.Position
	if position == "" {
		position = in.Actor.MemberID
	}
	var positionDepts []DepartmentID
	if position != in.Actor.MemberID {
		posMember, err := s.store.GetMember(ctx, position)
		if err != nil {
			return RequestRecord{}, memberLookupErr(err, position)
		}
		positionDepts = posMember.DepartmentIDs
	}

	now := s.now()
	out, err := ApplyDecision(rec.Detail, rec.Approvers, Decision{
		Action:              action,
		Actor:               in.Actor,
		Position:            position,
		PositionDepartments: positionDepts,
		Comment:             in.Comment,
		At:                  now,
	})
	if err != nil {
		return RequestRecord{}, err
	}
	if !out.Changed {
		return rec, nil
	}

	prevStatus := rec.Detail.Status
	rec.Approvers = out.Approvers
	rec.Detail.Status = out.Status
	if err := s.store.UpdateRequest(ctx, rec); err != nil {
		return RequestRecord{}, collaborator(err, "persist request %s", rec.Request.ID)
	}
	if err := s.recomputeMember(ctx, rec.Request.MemberID); err != nil {
		return RequestRecord{}, err
	}

	s.afterDecision(rec, prevStatus, now)
	return rec, nil
}

func (s *Service) afterDecision(rec RequestRecord, prev RequestStatus, now time.Time) {
	base := Event{
		WorkspaceID: rec.Request.WorkspaceID,
		RequestID:   rec.Request.ID,
		MemberID:    rec.Request.MemberID,
		Status:      rec.Detail.Status,
		At:          now,
	}
	switch {
	case rec.Detail.Status == StatusApproved && prev != StatusApproved:
		base.Type = EventRequestApproved
		s.emit(base)
	case rec.Detail.Status == StatusDeclined:
		base.Type = EventRequestDeclined
		s.emit(base)
	case rec.Detail.Status == StatusCanceled:
		base.Type = EventRequestCanceled
		s.emit(base)
	default:
		// Still pending: the decision moved the chain forward, so the next
		// approvers are now awaited.
		s.emitPending(rec.Request.WorkspaceID, rec, now)
	}

	s.log.Info("request decided",
		zap.String("request", string(rec.Request.ID)),
		zap.String("status", string(rec.Detail.Status)))
}

// auditChain reports approver rows the predecessor sort cannot reach,
// which means a cycle or a dangling pointer in the stored chain. The
// operation proceeds on the reachable prefix; the anomaly goes to the
// log and the tracker so an operator can repair the rows.
func (s *Service) auditChain(rec RequestRecord) {
	if len(rec.Approvers) == 0 {
		return
	}
	reachable := len(SortApprovers(rec.Approvers))
	if reachable >= len(rec.Approvers) {
		return
	}
	s.log.Warn("cyclic approver chain",
		zap.String("request", string(rec.Request.ID)),
		zap.Int("rows", len(rec.Approvers)),
		zap.Int("reachable", reachable))
	s.tracker.Capture(&Error{
		Kind:    KindIntegrity,
		Code:    CodeCyclicChain,
		Message: fmt.Sprintf("approver chain of request %s: %d of %d rows unreachable from head", rec.Request.ID, len(rec.Approvers)-reachable, len(rec.Approvers)),
	}, map[string]string{"request": string(rec.Request.ID), "op": "chain_audit"})
}

// =============================================================================
// CANCEL
// =============================================================================

// CancelInput identifies the request being withdrawn and who withdraws it.
type CancelInput struct {
	RequestID RequestID
	Actor     Actor
	Reason    string
}

// Cancel withdraws a pending or approved request. Permitted to the
// requester, an administrator, an approver in the chain, or a manager of
// one of the requester's departments.
func (s *Service) Cancel(ctx context.Context, in CancelInput) (RequestRecord, error) {
	unlock, err := s.acquire(ctx, lock.RequestKey(string(in.RequestID)))
	if err != nil {
		return RequestRecord{}, err
	}
	defer unlock()

	rec, err := s.store.GetRequest(ctx, in.RequestID)
	if err != nil {
		return RequestRecord{}, lookupErr(err, "request %s", in.RequestID)
	}
	s.auditChain(rec)
	if err := s.authorizeCancel(ctx, rec, in.Actor); err != nil {
		return RequestRecord{}, err
	}

	now := s.now()
	out, err := ApplyDecision(rec.Detail, rec.Approvers, Decision{
		Action:  ActionCancel,
		Actor:   in.Actor,
		Comment: in.Reason,
		At:      now,
	})
	if err != nil {
		return RequestRecord{}, err
	}

	rec.Approvers = out.Approvers
	rec.Detail.Status = out.Status
	by := in.Actor.MemberID
	rec.Detail.CanceledBy = &by
	rec.Detail.CanceledAt = &now
	rec.Detail.CancelReason = in.Reason

	if err := s.store.UpdateRequest(ctx, rec); err != nil {
		return RequestRecord{}, collaborator(err, "persist request %s", rec.Request.ID)
	}
	if err := s.recomputeMember(ctx, rec.Request.MemberID); err != nil {
		return RequestRecord{}, err
	}

	s.emit(Event{
		Type:        EventRequestCanceled,
		WorkspaceID: rec.Request.WorkspaceID,
		RequestID:   rec.Request.ID,
		MemberID:    rec.Request.MemberID,
		Status:      StatusCanceled,
		At:          now,
	})
	s.log.Info("request canceled",
		zap.String("request", string(rec.Request.ID)),
		zap.String("by", string(in.Actor.MemberID)))
	return rec, nil
}

func (s *Service) authorizeCancel(ctx context.Context, rec RequestRecord, actor Actor) error {
	if actor.IsAdmin || actor.MemberID == rec.Request.MemberID {
		return nil
	}
	for _, a := range rec.Approvers {
		if a.ApproverID == actor.MemberID {
			return nil
		}
	}
	requester, err := s.store.GetMember(ctx, rec.Request.MemberID)
	if err != nil {
		return memberLookupErr(err, rec.Request.MemberID)
	}
	if actor.manages(requester.DepartmentIDs) {
		return nil
	}
	return precondition(CodeNotAuthorized, "member %s may not cancel request %s", actor.MemberID, rec.Request.ID)
}

// =============================================================================
// BALANCES AND RECOMPUTATION
// =============================================================================

// Balance returns the member's ledger rows after a fresh recomputation.
func (s *Service) Balance(ctx context.Context, member MemberID) ([]MemberAllowance, error) {
	if err := s.recomputeMember(ctx, member); err != nil {
		return nil, err
	}
	rows, err := s.store.ListAllowances(ctx, member)
	if err != nil {
		return nil, collaborator(err, "load allowances for member %s", member)
	}
	return rows, nil
}

// GetRequest loads one request aggregate.
func (s *Service) GetRequest(ctx context.Context, id RequestID) (RequestRecord, error) {
	rec, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return RequestRecord{}, lookupErr(err, "request %s", id)
	}
	return rec, nil
}

// ListRequests returns every request of the member.
func (s *Service) ListRequests(ctx context.Context, member MemberID) ([]RequestRecord, error) {
	recs, err := s.store.ListMemberRequests(ctx, member)
	if err != nil {
		return nil, collaborator(err, "list requests for member %s", member)
	}
	return recs, nil
}

// RecomputeMemberAllowances rebuilds the member's ledger rows from the
// full request set. Exposed for admin tooling; every mutating operation
// already calls it internally.
func (s *Service) RecomputeMemberAllowances(ctx context.Context, member MemberID) error {
	return s.recomputeMember(ctx, member)
}

func (s *Service) recomputeMember(ctx context.Context, member MemberID) error {
	rows, err := s.store.ListAllowances(ctx, member)
	if err != nil {
		return collaborator(err, "load allowances for member %s", member)
	}
	recs, err := s.store.ListMemberRequests(ctx, member)
	if err != nil {
		return collaborator(err, "list requests for member %s", member)
	}

	leaveTypes := map[LeaveTypeID]LeaveType{}
	allowanceTypes := map[AllowanceTypeID]AllowanceType{}
	var counting []CountingRequest
	for _, rec := range recs {
		if !rec.Detail.Status.Counts() {
			continue
		}
		lt, ok := leaveTypes[rec.Detail.LeaveTypeID]
		if !ok {
			lt, err = s.store.GetLeaveType(ctx, rec.Detail.LeaveTypeID)
			if err != nil {
				return lookupErr(err, "leave type %s", rec.Detail.LeaveTypeID)
			}
			leaveTypes[lt.ID] = lt
		}
		if !lt.TakeFromAllowance {
			continue
		}
		at, ok := allowanceTypes[lt.AllowanceTypeID]
		if !ok {
			at, err = s.store.GetAllowanceType(ctx, lt.AllowanceTypeID)
			if err != nil {
				return lookupErr(err, "allowance type %s", lt.AllowanceTypeID)
			}
			allowanceTypes[at.ID] = at
		}
		counting = append(counting, CountingRequest{
			AllowanceTypeID: at.ID,
			Year:            rec.Request.Year,
			Amount:          rec.Detail.Duration.In(at.Unit),
		})
	}

	updated := Recompute(rows, counting)
	if err := s.store.SaveAllowances(ctx, updated); err != nil {
		return collaborator(err, "persist allowances for member %s", member)
	}
	return nil
}

// =============================================================================
// MEMBER EDITS
// =============================================================================

// SetMemberApprovers replaces the member's explicit approver list. Runs
// under the same lock as request creation so a chain snapshot is never
// built from a half-applied edit.
func (s *Service) SetMemberApprovers(ctx context.Context, workspace WorkspaceID, member MemberID, approvers []MemberID) error {
	unlock, err := s.acquire(ctx, lock.CreateKey(string(workspace), string(member)))
	if err != nil {
		return err
	}
	defer unlock()

	m, err := s.store.GetMember(ctx, member)
	if err != nil {
		return memberLookupErr(err, member)
	}
	m.ApproverIDs = approvers
	m.UsesDeptDefaults = false
	if err := s.store.SaveMember(ctx, m); err != nil {
		return collaborator(err, "save member %s", member)
	}
	return nil
}

// SetMemberSchedule appends a new schedule version for the member.
func (s *Service) SetMemberSchedule(ctx context.Context, workspace WorkspaceID, sched MemberSchedule) error {
	unlock, err := s.acquire(ctx, lock.CreateKey(string(workspace), string(sched.MemberID)))
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.SaveMemberSchedule(ctx, sched); err != nil {
		return collaborator(err, "save schedule for member %s", sched.MemberID)
	}
	return nil
}

// AddHoliday upserts one day of a public holiday calendar. Already priced
// requests are not repriced; durations are snapshots.
func (s *Service) AddHoliday(ctx context.Context, h PublicHolidayDay) error {
	if err := s.store.SaveHoliday(ctx, h); err != nil {
		return collaborator(err, "save holiday %s in calendar %s", h.Date, h.CalendarID)
	}
	return nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	h, err := s.locker.Acquire(waitCtx, key, s.lockTTL)
	if err != nil {
		return nil, conflict(CodeLockTimeout, "operation on %s is already in progress", key)
	}
	return func() {
		// Release on a fresh context: the request's context may already be
		// canceled by the time we unwind.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, h); err != nil {
			s.tracker.Capture(err, map[string]string{"key": key, "op": "lock_release"})
		}
	}, nil
}

// emit publishes one event on its own goroutine.
func (s *Service) emit(ev Event) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.tracker.Capture(fmt.Errorf("event subscriber panic: %v", r),
					map[string]string{"event": string(ev.Type), "request": string(ev.RequestID)})
			}
		}()
		s.events.Publish(ev)
	}()
}

// emitPending emits one approval_pending event per currently awaited
// approver.
func (s *Service) emitPending(workspace WorkspaceID, rec RequestRecord, now time.Time) {
	if rec.Detail.Status != StatusPending {
		return
	}
	for _, approver := range NextApprovers(rec.Detail.Process, rec.Approvers) {
		s.emit(Event{
			Type:        EventApprovalPending,
			WorkspaceID: workspace,
			RequestID:   rec.Request.ID,
			MemberID:    rec.Request.MemberID,
			ApproverID:  approver,
			Status:      StatusPending,
			At:          now,
		})
	}
}

func lookupErr(err error, format string, args ...any) error {
	if errors.Is(err, ErrNotFound) {
		return &Error{Kind: KindPrecondition, Code: CodeNotFound, Message: fmt.Sprintf(format+" not found", args...), Err: ErrNotFound}
	}
	return collaborator(err, format, args...)
}

func memberLookupErr(err error, id MemberID) error {
	return lookupErr(err, "member %s", id)
}
