/*
store.go - Persistence and collaborator interfaces

PURPOSE:
  The engine talks to the outside world through these interfaces. Concrete
  implementations live elsewhere (store/sqlite for durable storage,
  engine/store for the in-memory variant used by tests and development).

DESIGN PRINCIPLES:
  1. The engine accepts interfaces and returns plain structs
  2. Writes to a request aggregate replace the whole aggregate; the engine
     computed the new state under a lock and the store does not re-derive it
  3. Collaborator failures surface as KindCollaborator errors to the caller
*/
package engine

import "context"

// =============================================================================
// STORES
// =============================================================================

// RequestStore persists request aggregates.
type RequestStore interface {
	CreateRequest(ctx context.Context, rec RequestRecord) error
	// GetRequest returns ErrNotFound when no such request exists.
	GetRequest(ctx context.Context, id RequestID) (RequestRecord, error)
	// UpdateRequest replaces the detail and approver rows of an existing
	// aggregate. The date-range half is immutable and is not rewritten.
	UpdateRequest(ctx context.Context, rec RequestRecord) error
	// ListMemberRequests returns every request of the member, any status.
	ListMemberRequests(ctx context.Context, member MemberID) ([]RequestRecord, error)
}

// AllowanceStore persists ledger rows.
type AllowanceStore interface {
	ListAllowances(ctx context.Context, member MemberID) ([]MemberAllowance, error)
	// SaveAllowances upserts the given rows, keyed by member, type and year.
	SaveAllowances(ctx context.Context, rows []MemberAllowance) error
}

// ScheduleStore persists working schedules.
type ScheduleStore interface {
	// MemberSchedules returns every schedule version of the member, in any
	// order; the resolver sorts them.
	MemberSchedules(ctx context.Context, member MemberID) ([]MemberSchedule, error)
	WorkspaceSchedule(ctx context.Context, workspace WorkspaceID) (WorkspaceSchedule, error)
	SaveMemberSchedule(ctx context.Context, s MemberSchedule) error
	SaveWorkspaceSchedule(ctx context.Context, s WorkspaceSchedule) error
}

// HolidayStore serves public holiday calendars.
type HolidayStore interface {
	HolidaysInRange(ctx context.Context, calendar CalendarID, r DateRange) ([]PublicHolidayDay, error)
	// SaveHoliday upserts one calendar day, keyed by calendar and date.
	SaveHoliday(ctx context.Context, h PublicHolidayDay) error
}

// MemberStore serves member and department configuration.
type MemberStore interface {
	// GetMember returns ErrNotFound when no such member exists.
	GetMember(ctx context.Context, id MemberID) (Member, error)
	SaveMember(ctx context.Context, m Member) error
	// ListMembers returns every non-archived member, used by background
	// sweeps like the year-end rollover.
	ListMembers(ctx context.Context) ([]Member, error)
	// DepartmentApprovers returns the department's default approver list,
	// in configured order.
	DepartmentApprovers(ctx context.Context, dept DepartmentID) ([]MemberID, error)
}

// ConfigStore serves leave and allowance type configuration.
type ConfigStore interface {
	// GetLeaveType returns ErrNotFound when no such type exists.
	GetLeaveType(ctx context.Context, id LeaveTypeID) (LeaveType, error)
	GetAllowanceType(ctx context.Context, id AllowanceTypeID) (AllowanceType, error)
}

// Store is the full persistence surface the request service needs.
type Store interface {
	RequestStore
	AllowanceStore
	ScheduleStore
	HolidayStore
	MemberStore
	ConfigStore
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// DirectoryProvider resolves a member's manager hierarchy from an external
// directory. Implementations fetch at most maxDepth levels; a member with
// no directory presence yields an empty slice, not an error.
type DirectoryProvider interface {
	ManagerChain(ctx context.Context, member MemberID, maxDepth int) ([]DirectoryManager, error)
}

// NopDirectory is a DirectoryProvider for deployments without a directory
// integration; resolution always falls through to explicit approver lists.
type NopDirectory struct{}

func (NopDirectory) ManagerChain(context.Context, MemberID, int) ([]DirectoryManager, error) {
	return nil, nil
}
