/*
duration_test.go - Specification tests for the workday duration calculator

PURPOSE:
  Each test documents one pricing behavior: full weeks, weekend spanning,
  half-day markers, public holidays, minute-granular leave types, the
  deduct-full-day rule and schedule version boundaries.

READING THESE TESTS:
  Each test has GIVEN/WHEN/THEN comments explaining the scenario and
  assertions with explanatory messages.
*/
package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aasimdev/absentify-inhouse-sub002/engine"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// stdWeek is Mon-Fri, 09:00-13:00 and 14:00-18:00 (480 minutes a day).
func stdWeek() engine.WeekSchedule {
	return engine.StandardWeek(
		engine.Clock(9, 0), engine.Clock(13, 0),
		engine.Clock(14, 0), engine.Clock(18, 0))
}

func stdResolver() *engine.ScheduleResolver {
	return engine.NewScheduleResolver(nil, stdWeek())
}

func date(y int, m time.Month, d int) engine.Date {
	return engine.NewDate(y, m, d)
}

func days(n float64) decimal.Decimal  { return decimal.NewFromFloat(n) }
func minutes(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
func eq(a, b decimal.Decimal) bool    { return a.Equal(b) }

// =============================================================================
// DAY-GRANULAR PRICING
// =============================================================================

func TestDuration_FullWorkWeek(t *testing.T) {
	// GIVEN: a standard Mon-Fri schedule
	// WHEN: requesting Monday through Friday
	// THEN: the request prices at 5 days / 2400 minutes
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 6)},
		StartAt:  engine.StartMorning,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(5)) {
		t.Errorf("days = %s, want 5", got.Days)
	}
	if !eq(got.Minutes, minutes(2400)) {
		t.Errorf("minutes = %s, want 2400", got.Minutes)
	}
}

func TestDuration_WeekendDaysPriceAtZero(t *testing.T) {
	// GIVEN: a standard Mon-Fri schedule
	// WHEN: requesting Monday through the following Monday (8 calendar days)
	// THEN: the weekend contributes nothing; 6 working days remain
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 9)},
		StartAt:  engine.StartMorning,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(6)) {
		t.Errorf("days = %s, want 6", got.Days)
	}
}

func TestDuration_HalfDayMarkers_SingleDay(t *testing.T) {
	// GIVEN: a single-day request starting in the afternoon
	// THEN: it prices at half a day, the afternoon's 240 minutes
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 2)},
		StartAt:  engine.StartAfternoon,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(0.5)) {
		t.Errorf("days = %s, want 0.5", got.Days)
	}
	if !eq(got.Minutes, minutes(240)) {
		t.Errorf("minutes = %s, want 240", got.Minutes)
	}
}

func TestDuration_HalfDayMarkers_MultiDay(t *testing.T) {
	// GIVEN: Mon-Wed, starting Monday afternoon and ending Wednesday at
	// lunchtime
	// THEN: 0.5 + 1 + 0.5 = 2 days
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 4)},
		StartAt:  engine.StartAfternoon,
		EndAt:    engine.EndLunchtime,
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(2)) {
		t.Errorf("days = %s, want 2", got.Days)
	}
}

func TestDuration_MarkersOnlyTouchBoundaryDays(t *testing.T) {
	// GIVEN: a Mon-Fri request with both markers set
	// THEN: only Monday's morning and Friday's afternoon are dropped
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 6)},
		StartAt:  engine.StartAfternoon,
		EndAt:    engine.EndLunchtime,
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(4)) {
		t.Errorf("days = %s, want 4", got.Days)
	}
}

// =============================================================================
// PUBLIC HOLIDAYS
// =============================================================================

func TestDuration_FullHolidayRemovesDay(t *testing.T) {
	// GIVEN: Wednesday is a full public holiday
	// WHEN: requesting the whole week
	// THEN: the holiday does not consume leave
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 6)},
		StartAt:  engine.StartMorning,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
		Holidays: []engine.PublicHolidayDay{
			{Date: date(2026, time.March, 4), Duration: engine.HolidayFull},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(4)) {
		t.Errorf("days = %s, want 4", got.Days)
	}
}

func TestDuration_MorningHolidayRemovesHalfDay(t *testing.T) {
	// GIVEN: Wednesday morning is a holiday
	// THEN: only the afternoon of that day consumes leave
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 6)},
		StartAt:  engine.StartMorning,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
		Holidays: []engine.PublicHolidayDay{
			{Date: date(2026, time.March, 4), Duration: engine.HolidayMorning},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(4.5)) {
		t.Errorf("days = %s, want 4.5", got.Days)
	}
}

func TestDuration_IgnorePublicHolidaysFlag(t *testing.T) {
	// GIVEN: a leave type that ignores public holidays
	// THEN: the holiday day is priced like any working day
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:                engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 6)},
		StartAt:              engine.StartMorning,
		EndAt:                engine.EndOfDay,
		Unit:                 engine.UnitDays,
		IgnorePublicHolidays: true,
		Schedule:             stdResolver(),
		Holidays: []engine.PublicHolidayDay{
			{Date: date(2026, time.March, 4), Duration: engine.HolidayFull},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(5)) {
		t.Errorf("days = %s, want 5", got.Days)
	}
}

// =============================================================================
// MINUTE-GRANULAR PRICING
// =============================================================================

func TestDuration_MinuteUnit_UnevenHalves(t *testing.T) {
	// GIVEN: mornings of 180 minutes and afternoons of 300 minutes
	var week engine.WeekSchedule
	day := engine.DaySchedule{
		MorningEnabled: true, MorningStart: engine.Clock(9, 0), MorningEnd: engine.Clock(12, 0),
		AfternoonEnabled: true, AfternoonStart: engine.Clock(13, 0), AfternoonEnd: engine.Clock(18, 0),
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		week[wd] = day
	}
	resolver := engine.NewScheduleResolver(nil, week)

	// WHEN: taking a single afternoon
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 2)},
		StartAt:  engine.StartAfternoon,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitMinutes,
		Schedule: resolver,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: minutes reflect the real window, the day equivalent is the
	// scheduled proportion, not a flat 0.5
	if !eq(got.Minutes, minutes(300)) {
		t.Errorf("minutes = %s, want 300", got.Minutes)
	}
	if !eq(got.Days, days(0.625)) {
		t.Errorf("days = %s, want 0.625", got.Days)
	}
}

// =============================================================================
// DEDUCT FULL DAY
// =============================================================================

func TestDuration_DeductFullDay_LoneHalf(t *testing.T) {
	// GIVEN: Fridays with only a morning, flagged deduct-full-day
	week := stdWeek()
	week[time.Friday] = engine.DaySchedule{
		MorningEnabled: true, MorningStart: engine.Clock(9, 0), MorningEnd: engine.Clock(13, 0),
		DeductFullDay: true,
	}
	resolver := engine.NewScheduleResolver(nil, week)

	// WHEN: taking that Friday off
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 6), End: date(2026, time.March, 6)},
		StartAt:  engine.StartMorning,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: resolver,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: the lone half deducts a whole day
	if !eq(got.Days, days(1)) {
		t.Errorf("days = %s, want 1", got.Days)
	}
}

func TestDuration_DeductFullDay_IgnoredWhenBothHalvesEnabled(t *testing.T) {
	// GIVEN: a full day erroneously flagged deduct-full-day
	week := stdWeek()
	full := week[time.Monday]
	full.DeductFullDay = true
	week[time.Monday] = full
	resolver := engine.NewScheduleResolver(nil, week)

	// WHEN: taking the afternoon only
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 2)},
		StartAt:  engine.StartAfternoon,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: resolver,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: the flag is neutralized and the half counts 0.5
	if !eq(got.Days, days(0.5)) {
		t.Errorf("days = %s, want 0.5", got.Days)
	}
}

// =============================================================================
// IGNORE SCHEDULE
// =============================================================================

func TestDuration_IgnoreSchedule_WeekendCounts(t *testing.T) {
	// GIVEN: a leave type that ignores schedules (e.g. sabbatical)
	// WHEN: requesting Saturday and Sunday
	// THEN: both days count fully, priced via the fallback half-day window
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:          engine.DateRange{Start: date(2026, time.March, 7), End: date(2026, time.March, 8)},
		StartAt:        engine.StartMorning,
		EndAt:          engine.EndOfDay,
		Unit:           engine.UnitDays,
		IgnoreSchedule: true,
		Schedule:       stdResolver(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eq(got.Days, days(2)) {
		t.Errorf("days = %s, want 2", got.Days)
	}
	if !eq(got.Minutes, minutes(960)) {
		t.Errorf("minutes = %s, want 960", got.Minutes)
	}
}

// =============================================================================
// SCHEDULE VERSIONS
// =============================================================================

func TestDuration_VersionBoundaryInsideRange(t *testing.T) {
	// GIVEN: a member switching to morning-only days from Wednesday on
	morningOnly := engine.WeekSchedule{}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		morningOnly[wd] = engine.DaySchedule{
			MorningEnabled: true, MorningStart: engine.Clock(9, 0), MorningEnd: engine.Clock(13, 0),
		}
	}
	resolver := engine.NewScheduleResolver([]engine.MemberSchedule{
		{MemberID: "m1", ValidFrom: date(2026, time.March, 4), Week: morningOnly},
	}, stdWeek())

	// WHEN: requesting Monday through Friday across the boundary
	got, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 2), End: date(2026, time.March, 6)},
		StartAt:  engine.StartMorning,
		EndAt:    engine.EndOfDay,
		Unit:     engine.UnitDays,
		Schedule: resolver,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN: Mon+Tue price as full days, Wed-Fri as mornings
	if !eq(got.Days, days(3.5)) {
		t.Errorf("days = %s, want 3.5", got.Days)
	}
	if !eq(got.Minutes, minutes(480+480+240+240+240)) {
		t.Errorf("minutes = %s, want 1680", got.Minutes)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestDuration_InvalidRange(t *testing.T) {
	// WHEN: the start date falls after the end date
	_, err := engine.CalculateDuration(engine.DurationInput{
		Range:    engine.DateRange{Start: date(2026, time.March, 6), End: date(2026, time.March, 2)},
		Unit:     engine.UnitDays,
		Schedule: stdResolver(),
	})

	// THEN: a precondition error with a stable code
	if engine.KindOf(err) != engine.KindPrecondition {
		t.Fatalf("kind = %q, want precondition", engine.KindOf(err))
	}
	if engine.CodeOf(err) != engine.CodeInvalidRange {
		t.Errorf("code = %q, want %q", engine.CodeOf(err), engine.CodeInvalidRange)
	}
}
