/*
Package engine implements the leave-request approval and allowance engine.

PURPOSE:
  This package contains the decision core of the leave management backend:
  who must approve a request, in what order, how its status evolves as
  decisions arrive, how many work-hours or work-days it consumes, and
  whether the requester has enough balance to cover it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: a quantity of leave with a unit (days or minutes)
  - LeaveRequest / RequestDetail / RequestApprover: the request aggregate
  - Member / LeaveType / AllowanceType: configuration consumed as plain data
  - ApprovalProcess: one of four approval policies

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for day amounts (half-day precision, no
     floating-point drift)
  2. Type safety: strong ID types prevent mixing member/request/type ids
  3. Plain data in, plain data out: the engine performs no network calls
     and no persistence of its own

SEE ALSO:
  - approval.go: the approval state machine
  - duration.go: the workday duration calculator
  - allowance.go: the allowance ledger
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkspaceID string
type MemberID string
type RequestID string
type DepartmentID string
type LeaveTypeID string
type AllowanceTypeID string
type CalendarID string

// =============================================================================
// AMOUNT - Quantity of leave with a unit
// =============================================================================

type Unit string

const (
	UnitDays    Unit = "days"
	UnitMinutes Unit = "minutes"
)

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }

// WorkDuration is the output of the duration calculator: the same span
// expressed in both units. Callers pick the figure matching the leave
// type's unit.
type WorkDuration struct {
	Minutes decimal.Decimal
	Days    decimal.Decimal
}

// In returns the duration in the given unit.
func (d WorkDuration) In(unit Unit) decimal.Decimal {
	if unit == UnitMinutes {
		return d.Minutes
	}
	return d.Days
}

// =============================================================================
// APPROVAL POLICY - Snapshot onto RequestDetail at creation
// =============================================================================

type ApprovalProcess string

const (
	ProcessLinearAll   ApprovalProcess = "Linear_all_have_to_agree"
	ProcessLinearOne   ApprovalProcess = "Linear_one_has_to_agree"
	ProcessParallelAll ApprovalProcess = "Parallel_all_have_to_agree"
	ProcessParallelOne ApprovalProcess = "Parallel_one_has_to_agree"
)

func (p ApprovalProcess) IsLinear() bool {
	return p == ProcessLinearAll || p == ProcessLinearOne
}

func (p ApprovalProcess) IsParallel() bool {
	return p == ProcessParallelAll || p == ProcessParallelOne
}

// RequiresAll reports whether every approver has to agree.
func (p ApprovalProcess) RequiresAll() bool {
	return p == ProcessLinearAll || p == ProcessParallelAll
}

// =============================================================================
// REQUEST STATUS
// =============================================================================

type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusDeclined RequestStatus = "DECLINED"
	StatusCanceled RequestStatus = "CANCELED"
)

// IsTerminal reports whether no further transition is permitted from s.
// APPROVED can still be canceled, so only DECLINED and CANCELED are terminal.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusDeclined || s == StatusCanceled
}

// Counts reports whether a request in this status consumes allowance.
func (s RequestStatus) Counts() bool {
	return s == StatusPending || s == StatusApproved
}

// =============================================================================
// APPROVER STATUS
// =============================================================================

type ApproverStatus string

const (
	ApproverPending           ApproverStatus = "PENDING"
	ApproverApproved          ApproverStatus = "APPROVED"
	ApproverApprovedByOther   ApproverStatus = "APPROVED_BY_ANOTHER_MANAGER"
	ApproverDeclined          ApproverStatus = "DECLINED"
	ApproverDeclinedByOther   ApproverStatus = "DECLINED_BY_ANOTHER_MANAGER"
	ApproverCanceled          ApproverStatus = "CANCELED"
	ApproverCanceledByOther   ApproverStatus = "CANCELED_BY_ANOTHER_MANAGER"
)

// IsTerminal reports whether this position has reached a final state,
// either by its own decision or via another manager's.
func (s ApproverStatus) IsTerminal() bool { return s != ApproverPending }

// Settled reports whether the position counts as approved for chain
// ordering purposes (own approval or skipped by another manager).
func (s ApproverStatus) Settled() bool {
	return s == ApproverApproved || s == ApproverApprovedByOther
}

// =============================================================================
// HALF-DAY MARKERS
// =============================================================================

type StartAt string

const (
	StartMorning   StartAt = "morning"
	StartAfternoon StartAt = "afternoon"
)

type EndAt string

const (
	EndLunchtime EndAt = "lunchtime"
	EndOfDay     EndAt = "end_of_day"
)

// =============================================================================
// REQUEST AGGREGATE
// =============================================================================

// LeaveRequest is the date-range half of a request. Start and end are
// calendar dates; the half-day markers refine them to sub-day precision.
// Never mutated after creation except by cancellation metadata.
type LeaveRequest struct {
	ID          RequestID
	MemberID    MemberID
	WorkspaceID WorkspaceID
	Start       Date
	End         Date
	StartAt     StartAt
	EndAt       EndAt
	Unit        Unit // snapshot of the leave type's unit
	Year        int  // fiscal year the request is booked against
	CreatedAt   time.Time
}

// Window returns the request's range with its half-day markers, the shape
// the overlap detector consumes.
func (r LeaveRequest) Window() RequestWindow {
	return RequestWindow{Start: r.Start, End: r.End, StartAt: r.StartAt, EndAt: r.EndAt}
}

// RequestDetail holds the authoritative status, the approval policy
// snapshot (immutable after creation), and the computed duration.
type RequestDetail struct {
	RequestID    RequestID
	Status       RequestStatus
	Process      ApprovalProcess
	LeaveTypeID  LeaveTypeID
	Reason       string
	Duration     WorkDuration
	CanceledBy   *MemberID
	CanceledAt   *time.Time
	CancelReason string
}

// RequestApprover is one position in the approval chain. PredecessorID
// forms a singly linked list: at most one declared predecessor, exactly
// one position with a nil predecessor under normal construction.
type RequestApprover struct {
	ID            string // row identity (uuid)
	RequestID     RequestID
	ApproverID    MemberID
	PredecessorID *MemberID
	Status        ApproverStatus
	Comment       string
	DecidedAt     *time.Time
}

// RequestRecord bundles the full aggregate as loaded from a store.
type RequestRecord struct {
	Request   LeaveRequest
	Detail    RequestDetail
	Approvers []RequestApprover
}

// =============================================================================
// CONFIGURATION RECORDS - Consumed as plain data, owned by the host app
// =============================================================================

// Member carries the identity and approval configuration the engine needs.
// Directory-manager hierarchy data is NOT here; it is supplied to the chain
// resolver as an already-fetched ordered list.
type Member struct {
	ID                 MemberID
	WorkspaceID        WorkspaceID
	Email              string
	Name               string
	Archived           bool
	IsAdmin            bool
	DepartmentIDs      []DepartmentID
	ApprovalProcess    ApprovalProcess
	ApproverIDs        []MemberID // explicit per-member approver list, in order
	HolidayCalendarID  CalendarID
	DisabledLeaveTypes []LeaveTypeID
	UsesDeptDefaults   bool // set when directory resolution fell back to department defaults
}

// LeaveTypeDisabled reports whether the given leave type is switched off
// for this member.
func (m Member) LeaveTypeDisabled(id LeaveTypeID) bool {
	for _, d := range m.DisabledLeaveTypes {
		if d == id {
			return true
		}
	}
	return false
}

// InDepartment reports whether the member belongs to the given department.
func (m Member) InDepartment(id DepartmentID) bool {
	for _, d := range m.DepartmentIDs {
		if d == id {
			return true
		}
	}
	return false
}

// LeaveType carries the flags the engine consumes.
type LeaveType struct {
	ID                   LeaveTypeID
	Name                 string
	Unit                 Unit
	TakeFromAllowance    bool
	IgnoreSchedule       bool
	IgnorePublicHolidays bool
	NeedsApproval        bool
	ReasonRequired       bool
	AllowanceTypeID      AllowanceTypeID
}

// AllowanceType configures the balance bucket a leave type draws from.
type AllowanceType struct {
	ID                   AllowanceTypeID
	Name                 string
	Unit                 Unit
	IgnoreAllowanceLimit bool
	MaxCarryForward      decimal.Decimal
}

// =============================================================================
// PUBLIC HOLIDAYS
// =============================================================================

type HolidayDuration string

const (
	HolidayFull      HolidayDuration = "full"
	HolidayMorning   HolidayDuration = "morning"
	HolidayAfternoon HolidayDuration = "afternoon"
)

// PublicHolidayDay is one date in a named holiday calendar. A member is
// linked to exactly one calendar.
type PublicHolidayDay struct {
	CalendarID CalendarID
	Date       Date
	Duration   HolidayDuration
	Name       string
}
