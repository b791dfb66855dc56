// Package store provides engine.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	requests map[engine.RequestID]engine.RequestRecord
	byMember map[engine.MemberID][]engine.RequestID

	allowances map[allowanceKey]engine.MemberAllowance

	memberSchedules    map[engine.MemberID][]engine.MemberSchedule
	workspaceSchedules map[engine.WorkspaceID]engine.WorkspaceSchedule

	holidays map[engine.CalendarID][]engine.PublicHolidayDay

	members        map[engine.MemberID]engine.Member
	deptApprovers  map[engine.DepartmentID][]engine.MemberID
	leaveTypes     map[engine.LeaveTypeID]engine.LeaveType
	allowanceTypes map[engine.AllowanceTypeID]engine.AllowanceType
}

type allowanceKey struct {
	Member engine.MemberID
	Type   engine.AllowanceTypeID
	Year   int
}

func NewMemory() *Memory {
	return &Memory{
		requests:           make(map[engine.RequestID]engine.RequestRecord),
		byMember:           make(map[engine.MemberID][]engine.RequestID),
		allowances:         make(map[allowanceKey]engine.MemberAllowance),
		memberSchedules:    make(map[engine.MemberID][]engine.MemberSchedule),
		workspaceSchedules: make(map[engine.WorkspaceID]engine.WorkspaceSchedule),
		holidays:           make(map[engine.CalendarID][]engine.PublicHolidayDay),
		members:            make(map[engine.MemberID]engine.Member),
		deptApprovers:      make(map[engine.DepartmentID][]engine.MemberID),
		leaveTypes:         make(map[engine.LeaveTypeID]engine.LeaveType),
		allowanceTypes:     make(map[engine.AllowanceTypeID]engine.AllowanceType),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) CreateRequest(_ context.Context, rec engine.RequestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.Request.ID
	m.requests[id] = cloneRecord(rec)
	m.byMember[rec.Request.MemberID] = append(m.byMember[rec.Request.MemberID], id)
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id engine.RequestID) (engine.RequestRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.requests[id]
	if !ok {
		return engine.RequestRecord{}, engine.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (m *Memory) UpdateRequest(_ context.Context, rec engine.RequestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[rec.Request.ID]; !ok {
		return engine.ErrNotFound
	}
	m.requests[rec.Request.ID] = cloneRecord(rec)
	return nil
}

func (m *Memory) ListMemberRequests(_ context.Context, member engine.MemberID) ([]engine.RequestRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byMember[member]
	out := make([]engine.RequestRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRecord(m.requests[id]))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Request.Start.Before(out[j].Request.Start)
	})
	return out, nil
}

// =============================================================================
// ALLOWANCES
// =============================================================================

func (m *Memory) ListAllowances(_ context.Context, member engine.MemberID) ([]engine.MemberAllowance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.MemberAllowance
	for k, row := range m.allowances {
		if k.Member == member {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AllowanceTypeID != out[j].AllowanceTypeID {
			return out[i].AllowanceTypeID < out[j].AllowanceTypeID
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

func (m *Memory) SaveAllowances(_ context.Context, rows []engine.MemberAllowance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		m.allowances[allowanceKey{row.MemberID, row.AllowanceTypeID, row.Year}] = row
	}
	return nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (m *Memory) MemberSchedules(_ context.Context, member engine.MemberID) ([]engine.MemberSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.MemberSchedule, len(m.memberSchedules[member]))
	copy(out, m.memberSchedules[member])
	return out, nil
}

func (m *Memory) WorkspaceSchedule(_ context.Context, workspace engine.WorkspaceID) (engine.WorkspaceSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workspaceSchedules[workspace], nil
}

func (m *Memory) SaveMemberSchedule(_ context.Context, s engine.MemberSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberSchedules[s.MemberID] = append(m.memberSchedules[s.MemberID], s)
	return nil
}

func (m *Memory) SaveWorkspaceSchedule(_ context.Context, s engine.WorkspaceSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaceSchedules[s.WorkspaceID] = s
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) HolidaysInRange(_ context.Context, calendar engine.CalendarID, r engine.DateRange) ([]engine.PublicHolidayDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.PublicHolidayDay
	for _, h := range m.holidays[calendar] {
		if r.Contains(h.Date) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h engine.PublicHolidayDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	days := m.holidays[h.CalendarID]
	for i := range days {
		if days[i].Date.Equal(h.Date) {
			days[i] = h
			return nil
		}
	}
	m.holidays[h.CalendarID] = append(days, h)
	return nil
}

// =============================================================================
// MEMBERS AND CONFIGURATION
// =============================================================================

func (m *Memory) GetMember(_ context.Context, id engine.MemberID) (engine.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	member, ok := m.members[id]
	if !ok {
		return engine.Member{}, engine.ErrNotFound
	}
	return member, nil
}

func (m *Memory) SaveMember(_ context.Context, member engine.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[member.ID] = member
	return nil
}

func (m *Memory) ListMembers(_ context.Context) ([]engine.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.Member
	for _, member := range m.members {
		if member.Archived {
			continue
		}
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DepartmentApprovers(_ context.Context, dept engine.DepartmentID) ([]engine.MemberID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.MemberID, len(m.deptApprovers[dept]))
	copy(out, m.deptApprovers[dept])
	return out, nil
}

func (m *Memory) SetDepartmentApprovers(dept engine.DepartmentID, approvers []engine.MemberID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deptApprovers[dept] = approvers
}

func (m *Memory) GetLeaveType(_ context.Context, id engine.LeaveTypeID) (engine.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lt, ok := m.leaveTypes[id]
	if !ok {
		return engine.LeaveType{}, engine.ErrNotFound
	}
	return lt, nil
}

func (m *Memory) SaveLeaveType(lt engine.LeaveType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveTypes[lt.ID] = lt
}

func (m *Memory) GetAllowanceType(_ context.Context, id engine.AllowanceTypeID) (engine.AllowanceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	at, ok := m.allowanceTypes[id]
	if !ok {
		return engine.AllowanceType{}, engine.ErrNotFound
	}
	return at, nil
}

func (m *Memory) SaveAllowanceType(at engine.AllowanceType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowanceTypes[at.ID] = at
}

// =============================================================================
// HELPERS
// =============================================================================

func cloneRecord(rec engine.RequestRecord) engine.RequestRecord {
	approvers := make([]engine.RequestApprover, len(rec.Approvers))
	copy(approvers, rec.Approvers)
	rec.Approvers = approvers
	return rec
}
