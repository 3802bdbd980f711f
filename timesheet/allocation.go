/*
allocation.go - Daily allocation ceiling

PURPOSE:
  Enforces the invariant that a consultant's activity slices on one calendar
  date never sum past one working day. Astreinte (on-call) slices sit outside
  the ceiling and are skipped.

KEY CONCEPTS:
  - Ceiling: 1.0 day, compared with a small tolerance so that JSON float
    noise (0.30000000000000004) does not reject a legitimate day
  - DayAllocation: the read-side view (total, remaining, complete flag)
    served by the daily-validation endpoint

SEE ALSO:
  - reconcile.go: rewrites a date's entries when an absence day lands on it
  - monthly.go: calls CheckAddition for every entry at timesheet creation
*/
package timesheet

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CEILING CHECK
// =============================================================================

// AllocatedTotal sums the non-astreinte amounts of a date's entries.
func AllocatedTotal(entries []DailyTimesheetEntry) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		if entries[i].IsAstreinte() {
			continue
		}
		total = total.Add(entries[i].Amount)
	}
	return total
}

// CheckAddition verifies that adding amount on the given date keeps the
// consultant within the daily ceiling. entries are the date's already
// committed slices. A non-positive amount is a field error; an overrun is
// an AllocationExceededError carrying the committed total and the attempt.
func CheckAddition(consultantID ConsultantID, date Date, entries []DailyTimesheetEntry, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &FieldError{Field: "amount", Reason: "must be greater than zero"}
	}
	current := AllocatedTotal(entries)
	if current.Add(amount).GreaterThan(FullDay.Add(AllocationTolerance)) {
		return &AllocationExceededError{
			ConsultantID: consultantID,
			Date:         date,
			Current:      current,
			Attempted:    amount,
			Ceiling:      FullDay,
		}
	}
	return nil
}

// Remaining returns the capacity left on a date, clamped at zero.
func Remaining(entries []DailyTimesheetEntry) decimal.Decimal {
	left := FullDay.Sub(AllocatedTotal(entries))
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// =============================================================================
// DAY ALLOCATION VIEW
// =============================================================================

// DayAllocation is the read-side view of one (consultant, date): how much is
// declared, how much room is left, and whether the day is exactly full.
type DayAllocation struct {
	ConsultantID ConsultantID    `json:"consultant_id"`
	Date         Date            `json:"date"`
	Total        decimal.Decimal `json:"total"`
	Remaining    decimal.Decimal `json:"remaining"`
	IsComplete   bool            `json:"is_complete"`
	EntryCount   int             `json:"entry_count"`
}

// AllocationFor builds the day view from a date's loaded entries. A day is
// complete when its non-astreinte total reaches the ceiling within tolerance.
func AllocationFor(consultantID ConsultantID, date Date, entries []DailyTimesheetEntry) DayAllocation {
	total := AllocatedTotal(entries)
	return DayAllocation{
		ConsultantID: consultantID,
		Date:         date,
		Total:        total,
		Remaining:    Remaining(entries),
		IsComplete:   total.Sub(FullDay).Abs().LessThanOrEqual(AllocationTolerance),
		EntryCount:   len(entries),
	}
}
