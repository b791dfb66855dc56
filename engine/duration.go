/*
duration.go - Schedule- and holiday-aware workday duration

PURPOSE:
  Computes how much working time a leave range actually consumes, walking
  the range day by day: resolve the effective schedule for each date, drop
  half-segments removed by the request's half-day markers (first/last day
  only) and by public holidays, then accumulate two running totals -
  minutes and equivalent days.

DAY EQUIVALENCE:
  For day-granular leave types a "day" is 1.0 regardless of the member's
  minute-length workday; each active half counts 0.5, and an enabled lone
  half counts 1.0 when the schedule's deduct-full-day flag is set. For
  minute-granular types the day equivalent is active minutes divided by the
  day's scheduled minutes (zero on non-working days).
*/
package engine

import "github.com/shopspring/decimal"

// fallbackHalfDayMinutes is used under ignore_schedule for days whose
// schedule defines no window at all.
const fallbackHalfDayMinutes = 240

// DurationInput carries everything the calculator needs as plain data.
type DurationInput struct {
	Range   DateRange
	StartAt StartAt
	EndAt   EndAt
	Unit    Unit

	IgnoreSchedule       bool
	IgnorePublicHolidays bool

	Schedule *ScheduleResolver
	Holidays []PublicHolidayDay // the member's calendar, pre-fetched for the range
}

// CalculateDuration computes the total workday duration of the range in
// minutes and in days. The caller picks the figure matching the leave
// type's unit.
func CalculateDuration(in DurationInput) (WorkDuration, error) {
	if !in.Range.Valid() {
		return WorkDuration{}, precondition(CodeInvalidRange, "start date %s after end date %s", in.Range.Start, in.Range.End)
	}

	holidays := make(map[string]HolidayDuration, len(in.Holidays))
	for _, h := range in.Holidays {
		holidays[h.Date.String()] = h.Duration
	}

	totalMinutes := decimal.Zero
	totalDays := decimal.Zero

	for _, day := range in.Range.Days() {
		seg := daySegments(in, day)

		// Half-day markers apply on the first and last day only.
		if day.Equal(in.Range.Start) && in.StartAt == StartAfternoon {
			seg.morningActive = false
		}
		if day.Equal(in.Range.End) && in.EndAt == EndLunchtime {
			seg.afternoonActive = false
		}

		if !in.IgnorePublicHolidays {
			switch holidays[day.String()] {
			case HolidayFull:
				seg.morningActive, seg.afternoonActive = false, false
			case HolidayMorning:
				seg.morningActive = false
			case HolidayAfternoon:
				seg.afternoonActive = false
			}
		}

		totalMinutes = totalMinutes.Add(decimal.NewFromInt(int64(seg.activeMinutes())))
		totalDays = totalDays.Add(seg.dayEquivalent(in.Unit))
	}

	return WorkDuration{Minutes: totalMinutes, Days: totalDays}, nil
}

// =============================================================================
// PER-DAY SEGMENTS
// =============================================================================

type segments struct {
	morningActive   bool
	afternoonActive bool
	morningMinutes  int
	afternoonMins   int
	scheduledTotal  int
	deductFullDay   bool
	enabledHalves   int
}

func daySegments(in DurationInput, day Date) segments {
	sched := in.Schedule.DayFor(day)

	if in.IgnoreSchedule {
		// Every calendar day counts as a full day regardless of enablement.
		am, pm := sched.MorningMinutes(), sched.AfternoonMinutes()
		if am == 0 {
			am = fallbackHalfDayMinutes
		}
		if pm == 0 {
			pm = fallbackHalfDayMinutes
		}
		return segments{
			morningActive: true, afternoonActive: true,
			morningMinutes: am, afternoonMins: pm,
			scheduledTotal: am + pm,
			enabledHalves:  2,
		}
	}

	enabled := 0
	if sched.MorningEnabled {
		enabled++
	}
	if sched.AfternoonEnabled {
		enabled++
	}
	return segments{
		morningActive:   sched.MorningEnabled,
		afternoonActive: sched.AfternoonEnabled,
		morningMinutes:  sched.MorningMinutes(),
		afternoonMins:   sched.AfternoonMinutes(),
		scheduledTotal:  sched.TotalMinutes(),
		deductFullDay:   sched.DeductFullDay,
		enabledHalves:   enabled,
	}
}

func (s segments) activeMinutes() int {
	total := 0
	if s.morningActive {
		total += s.morningMinutes
	}
	if s.afternoonActive {
		total += s.afternoonMins
	}
	return total
}

var half = decimal.NewFromFloat(0.5)

func (s segments) dayEquivalent(unit Unit) decimal.Decimal {
	if unit == UnitMinutes {
		if s.scheduledTotal == 0 {
			return decimal.Zero
		}
		return decimal.NewFromInt(int64(s.activeMinutes())).
			Div(decimal.NewFromInt(int64(s.scheduledTotal)))
	}

	active := 0
	if s.morningActive {
		active++
	}
	if s.afternoonActive {
		active++
	}
	if active == 0 {
		return decimal.Zero
	}

	// A lone enabled half deducts a whole day when the schedule says so.
	if s.deductFullDay && s.enabledHalves == 1 {
		return decimal.NewFromInt(1)
	}
	return half.Mul(decimal.NewFromInt(int64(active)))
}
