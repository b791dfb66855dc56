package engine

import "time"

// =============================================================================
// DATE - Calendar date, UTC, day granularity
// =============================================================================

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date  { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddYears(n int) Date { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// ParseDate parses the "2006-01-02" form produced by String.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// =============================================================================
// DATE RANGE - Inclusive [Start, End]
// =============================================================================

type DateRange struct {
	Start Date
	End   Date
}

// Valid reports whether the range is well formed (end not before start).
func (r DateRange) Valid() bool { return !r.End.Before(r.Start) }

func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns every date in the range, in order.
func (r DateRange) Days() []Date {
	var days []Date
	for cur := r.Start; cur.BeforeOrEqual(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

// Intersect returns the overlapping sub-range of two ranges, if any.
func (r DateRange) Intersect(other DateRange) (DateRange, bool) {
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return DateRange{}, false
	}
	return DateRange{Start: start, End: end}, true
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// FISCAL YEAR - 12-month window starting at a workspace-configured month
// =============================================================================

// FiscalConfig derives fiscal-year buckets for allowance rows. A fiscal
// year is labeled by the calendar year it starts in.
type FiscalConfig struct {
	StartMonth time.Month
}

// YearFor returns the fiscal year label containing the given date.
func (fc FiscalConfig) YearFor(d Date) int {
	start := NewDate(d.Year(), fc.startMonth(), 1)
	if d.Before(start) {
		return d.Year() - 1
	}
	return d.Year()
}

// PeriodFor returns the fiscal-year range containing the given date.
func (fc FiscalConfig) PeriodFor(d Date) DateRange {
	return fc.PeriodForYear(fc.YearFor(d))
}

// PeriodForYear returns the range of the fiscal year with the given label.
func (fc FiscalConfig) PeriodForYear(year int) DateRange {
	start := NewDate(year, fc.startMonth(), 1)
	return DateRange{Start: start, End: start.AddYears(1).AddDays(-1)}
}

func (fc FiscalConfig) startMonth() time.Month {
	if fc.StartMonth < time.January || fc.StartMonth > time.December {
		return time.January
	}
	return fc.StartMonth
}
