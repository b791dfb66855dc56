/*
overlap.go - Half-day-resolution conflict detection

PURPOSE:
  Decides whether a proposed leave range conflicts with any of the member's
  existing non-declined/non-canceled requests. Two requests touching the
  same calendar day only conflict when their active half-day segments
  overlap: one ending at lunchtime does not conflict with another starting
  in the afternoon of the same day.
*/
package engine

// RequestWindow is a date range expanded by its half-day markers.
type RequestWindow struct {
	Start   Date
	End     Date
	StartAt StartAt
	EndAt   EndAt
}

// halves returns which half-day segments of the given date the window
// occupies. A date outside the window occupies none.
func (w RequestWindow) halves(d Date) (morning, afternoon bool) {
	r := DateRange{Start: w.Start, End: w.End}
	if !r.Contains(d) {
		return false, false
	}
	morning, afternoon = true, true
	if d.Equal(w.Start) && w.StartAt == StartAfternoon {
		morning = false
	}
	if d.Equal(w.End) && w.EndAt == EndLunchtime {
		afternoon = false
	}
	return morning, afternoon
}

// Overlaps reports whether two windows share at least one half-day segment.
func Overlaps(a, b RequestWindow) bool {
	section, ok := DateRange{Start: a.Start, End: a.End}.
		Intersect(DateRange{Start: b.Start, End: b.End})
	if !ok {
		return false
	}
	for _, day := range section.Days() {
		am1, pm1 := a.halves(day)
		am2, pm2 := b.halves(day)
		if (am1 && am2) || (pm1 && pm2) {
			return true
		}
	}
	return false
}

// Conflict identifies the existing request a candidate collides with.
type Conflict struct {
	RequestID RequestID
	Window    RequestWindow
}

// DetectOverlap checks a candidate window against the member's existing
// requests, skipping declined and canceled ones. Returns the first
// conflict found, or nil.
func DetectOverlap(existing []RequestRecord, candidate RequestWindow) *Conflict {
	for _, rec := range existing {
		if rec.Detail.Status == StatusDeclined || rec.Detail.Status == StatusCanceled {
			continue
		}
		w := rec.Request.Window()
		if Overlaps(w, candidate) {
			return &Conflict{RequestID: rec.Request.ID, Window: w}
		}
	}
	return nil
}
