/*
allowance.go - The allowance ledger

PURPOSE:
  Tracks, per member, allowance type and fiscal year, how much leave is
  granted and consumed. The ledger is derived state: taken is always
  recomputed from the full set of counting requests rather than adjusted
  incrementally, so recomputation is idempotent and self-healing.

INVARIANT:
  remaining = allowance + brought_forward + compensatory - taken
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// TYPES
// =============================================================================

// MemberAllowance is one ledger row. All quantities are expressed in the
// allowance type's unit.
type MemberAllowance struct {
	MemberID        MemberID
	WorkspaceID     WorkspaceID
	AllowanceTypeID AllowanceTypeID
	Year            int

	Allowance      decimal.Decimal
	BroughtForward decimal.Decimal
	Compensatory   decimal.Decimal
	Taken          decimal.Decimal
	Remaining      decimal.Decimal
}

func (a MemberAllowance) settle() MemberAllowance {
	a.Remaining = a.Allowance.Add(a.BroughtForward).Add(a.Compensatory).Sub(a.Taken)
	return a
}

// Sufficiency is the outcome of a balance check for a candidate request.
type Sufficiency struct {
	// Applicable is false when the leave type does not draw from any
	// allowance; the remaining fields are then meaningless.
	Applicable bool
	Sufficient bool
	Remaining  decimal.Decimal
	Requested  decimal.Decimal
}

// =============================================================================
// RECOMPUTATION
// =============================================================================

// CountingRequest is the slice of a request the ledger cares about: a
// counting request consumes its duration from one allowance type in one
// fiscal year.
type CountingRequest struct {
	AllowanceTypeID AllowanceTypeID
	Year            int
	Amount          decimal.Decimal
}

// Recompute replaces each row's taken with the sum of counting requests
// for its type and year, then restores the ledger invariant. Rows are
// returned in the input order; requests for a type/year with no row are
// ignored (the caller synthesizes missing years via EnsureYear).
func Recompute(rows []MemberAllowance, counting []CountingRequest) []MemberAllowance {
	type key struct {
		t AllowanceTypeID
		y int
	}
	taken := make(map[key]decimal.Decimal, len(counting))
	for _, c := range counting {
		k := key{c.AllowanceTypeID, c.Year}
		taken[k] = taken[k].Add(c.Amount)
	}

	out := make([]MemberAllowance, len(rows))
	for i, r := range rows {
		r.Taken = taken[key{r.AllowanceTypeID, r.Year}]
		out[i] = r.settle()
	}
	return out
}

// EnsureYear returns the row for the given type and year, synthesizing a
// zero-quantity row when the member has no allowance configured for it.
// The synthesized row still satisfies the ledger invariant, so requests
// against it drive remaining negative rather than failing to resolve.
func EnsureYear(rows []MemberAllowance, member MemberID, workspace WorkspaceID, typeID AllowanceTypeID, year int) (MemberAllowance, bool) {
	for _, r := range rows {
		if r.AllowanceTypeID == typeID && r.Year == year {
			return r, true
		}
	}
	row := MemberAllowance{
		MemberID:        member,
		WorkspaceID:     workspace,
		AllowanceTypeID: typeID,
		Year:            year,
	}
	return row.settle(), false
}

// CarryForward computes the brought_forward quantity for year N+1 from the
// closing state of year N: the unused remainder, floored at zero and
// capped by the allowance type's carry-forward limit.
func CarryForward(prev MemberAllowance, at AllowanceType) decimal.Decimal {
	unused := prev.Remaining
	if unused.IsNegative() {
		unused = decimal.Zero
	}
	if unused.GreaterThan(at.MaxCarryForward) {
		return at.MaxCarryForward
	}
	return unused
}

// =============================================================================
// SUFFICIENCY
// =============================================================================

// CheckSufficiency evaluates whether a counting request of the given
// amount fits the row's remaining balance. Leave types that do not draw
// from an allowance are never checked; allowance types flagged to ignore
// the limit always pass and may go negative.
func CheckSufficiency(row MemberAllowance, lt LeaveType, at AllowanceType, amount decimal.Decimal) Sufficiency {
	if !lt.TakeFromAllowance {
		return Sufficiency{Applicable: false, Sufficient: true}
	}
	s := Sufficiency{
		Applicable: true,
		Remaining:  row.Remaining,
		Requested:  amount,
	}
	if at.IgnoreAllowanceLimit {
		s.Sufficient = true
		return s
	}
	s.Sufficient = row.Remaining.Sub(amount).GreaterThanOrEqual(decimal.Zero)
	return s
}
