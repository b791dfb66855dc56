/*
schedule.go - Effective daily work window resolution

PURPOSE:
  Given a member and a calendar date, yield the effective work windows for
  that day: AM/PM start-end minutes, enabled flags, and the full-day
  deduction flag. Member schedules are versioned by an effective-from date;
  when no member version covers the date, the workspace schedule applies.

DEDUCT FULL DAY:
  A single day can only be fully deducted when exactly one of AM/PM is
  enabled. When both are enabled or both disabled the flag is forced false
  during normalization.
*/
package engine

import (
	"sort"
	"time"
)

// =============================================================================
// DAY SCHEDULE - One weekday's work windows
// =============================================================================

// ClockMinutes is a time of day expressed as minutes since midnight.
type ClockMinutes int

// Clock builds a ClockMinutes from hour and minute.
func Clock(hour, minute int) ClockMinutes { return ClockMinutes(hour*60 + minute) }

type DaySchedule struct {
	MorningEnabled   bool
	MorningStart     ClockMinutes
	MorningEnd       ClockMinutes
	AfternoonEnabled bool
	AfternoonStart   ClockMinutes
	AfternoonEnd     ClockMinutes
	DeductFullDay    bool
}

// Normalized returns the schedule with the deduct-full-day invariant
// enforced: the flag only survives when exactly one half is enabled.
func (ds DaySchedule) Normalized() DaySchedule {
	if ds.MorningEnabled == ds.AfternoonEnabled {
		ds.DeductFullDay = false
	}
	return ds
}

func (ds DaySchedule) MorningMinutes() int {
	if !ds.MorningEnabled || ds.MorningEnd <= ds.MorningStart {
		return 0
	}
	return int(ds.MorningEnd - ds.MorningStart)
}

func (ds DaySchedule) AfternoonMinutes() int {
	if !ds.AfternoonEnabled || ds.AfternoonEnd <= ds.AfternoonStart {
		return 0
	}
	return int(ds.AfternoonEnd - ds.AfternoonStart)
}

func (ds DaySchedule) TotalMinutes() int {
	return ds.MorningMinutes() + ds.AfternoonMinutes()
}

// Working reports whether any half of the day is scheduled.
func (ds DaySchedule) Working() bool { return ds.MorningEnabled || ds.AfternoonEnabled }

// =============================================================================
// WEEK SCHEDULE - Indexed by time.Weekday (Sunday = 0)
// =============================================================================

type WeekSchedule [7]DaySchedule

func (w WeekSchedule) For(d Date) DaySchedule {
	return w[d.Weekday()].Normalized()
}

// StandardWeek returns a Mon-Fri schedule with the given windows, weekends
// off. Convenience for tests and seeding.
func StandardWeek(amStart, amEnd, pmStart, pmEnd ClockMinutes) WeekSchedule {
	var w WeekSchedule
	day := DaySchedule{
		MorningEnabled: true, MorningStart: amStart, MorningEnd: amEnd,
		AfternoonEnabled: true, AfternoonStart: pmStart, AfternoonEnd: pmEnd,
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		w[wd] = day
	}
	return w
}

// =============================================================================
// SCHEDULE RECORDS
// =============================================================================

// MemberSchedule is one version of a member's week, effective from a date.
type MemberSchedule struct {
	MemberID  MemberID
	ValidFrom Date
	Week      WeekSchedule
}

// WorkspaceSchedule is the fallback when no member version covers a date.
type WorkspaceSchedule struct {
	WorkspaceID WorkspaceID
	Week        WeekSchedule
}

// =============================================================================
// SCHEDULE RESOLVER
// =============================================================================

// ScheduleResolver yields the effective day schedule for any date, falling
// back from member-specific versioned schedules to the workspace default.
type ScheduleResolver struct {
	versions  []MemberSchedule // sorted by ValidFrom ascending
	workspace WeekSchedule
}

func NewScheduleResolver(versions []MemberSchedule, workspace WeekSchedule) *ScheduleResolver {
	sorted := make([]MemberSchedule, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ValidFrom.Before(sorted[j].ValidFrom)
	})
	return &ScheduleResolver{versions: sorted, workspace: workspace}
}

// DayFor returns the effective schedule for the date: the latest member
// version whose ValidFrom is on or before the date, else the workspace
// schedule. A multi-day request may cross a version boundary, so this is
// called per day.
func (r *ScheduleResolver) DayFor(d Date) DaySchedule {
	for i := len(r.versions) - 1; i >= 0; i-- {
		if r.versions[i].ValidFrom.BeforeOrEqual(d) {
			return r.versions[i].Week.For(d)
		}
	}
	return r.workspace.For(d)
}
