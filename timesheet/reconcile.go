/*
reconcile.go - Absence / timesheet reconciliation

PURPOSE:
  When an absence day is created or accepted, the consultant's monthly
  timesheet for that date may already carry work entries. This file rewrites
  the date so the absence fits under the daily ceiling, then flips the
  affected timesheet back to pending for re-review.

RECONCILIATION RULES:
  - No timesheet exists for the month: nothing to do, the absence day will
    be picked up when the timesheet is created.
  - Full-day absence: every non-astreinte entry on the date is deleted and
    a single 1.0 absence entry takes its place.
  - Half-day absence: existing non-astreinte entries are shrunk, oldest
    first, until they fit in the remaining half day; whatever cannot fit is
    deleted. Then a 0.5 absence entry is inserted. A date already at or
    under half capacity is left untouched.
  - Astreinte entries sit outside the ceiling and are never touched.
  - Any rewrite marks the timesheet and its entries pending.

SEE ALSO:
  - absence/lifecycle.go: calls Apply on create/accept and RemoveRequestEntries
    on refusal, update and delete
*/
package timesheet

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler rewrites daily entries so accepted or pending absence days and
// declared work coexist under the daily ceiling.
type Reconciler struct {
	log logrus.FieldLogger
}

// NewReconciler builds a Reconciler. log must not be nil.
func NewReconciler(log logrus.FieldLogger) *Reconciler {
	return &Reconciler{log: log}
}

// Apply materializes one absence day into the consultant's monthly timesheet,
// shrinking or deleting conflicting work entries. Reports whether a timesheet
// was modified. Runs inside the caller's transaction.
func (r *Reconciler) Apply(ctx context.Context, st Store, consultantID ConsultantID, absenceType AbsenceType, day AbsenceRequestDay) (bool, error) {
	ts, err := st.GetMonthlyTimesheetByPeriod(ctx, consultantID, day.Date.Year(), int(day.Date.Month()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	entries, err := st.ListEntriesForDate(ctx, consultantID, day.Date)
	if err != nil {
		return false, err
	}

	if day.Amount.Equal(FullDay) {
		err = r.clearDate(ctx, st, entries)
	} else {
		err = r.shrinkDate(ctx, st, entries)
	}
	if err != nil {
		return false, err
	}

	entry := &DailyTimesheetEntry{
		TimesheetID:      ts.ID,
		ConsultantID:     consultantID,
		Date:             day.Date,
		Activity:         ActivityAbsence,
		Amount:           day.Amount,
		AbsenceType:      &absenceType,
		AbsenceRequestID: &day.RequestID,
		Status:           TimesheetPending,
	}
	if err := st.InsertDailyEntry(ctx, entry); err != nil {
		return false, err
	}

	if err := r.markPending(ctx, st, ts); err != nil {
		return false, err
	}

	r.log.WithFields(logrus.Fields{
		"consultant": consultantID,
		"date":       day.Date.String(),
		"amount":     day.Amount.String(),
		"timesheet":  ts.ID,
	}).Debug("absence day reconciled into timesheet")
	return true, nil
}

// clearDate removes every non-astreinte entry so a full-day absence can take
// the whole date.
func (r *Reconciler) clearDate(ctx context.Context, st Store, entries []DailyTimesheetEntry) error {
	for i := range entries {
		if entries[i].IsAstreinte() {
			continue
		}
		if err := st.DeleteDailyEntry(ctx, entries[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// shrinkDate makes room for a half-day absence: existing non-astreinte
// entries keep at most half a day between them, oldest first. An entry that
// fits the remaining budget is kept whole, one that straddles it is shrunk,
// the rest are deleted.
func (r *Reconciler) shrinkDate(ctx context.Context, st Store, entries []DailyTimesheetEntry) error {
	budget := HalfDay
	for i := range entries {
		e := &entries[i]
		if e.IsAstreinte() {
			continue
		}
		switch {
		case e.Amount.LessThanOrEqual(budget):
			budget = budget.Sub(e.Amount)
		case budget.GreaterThan(decimal.Zero):
			if err := st.UpdateDailyEntryAmount(ctx, e.ID, budget); err != nil {
				return err
			}
			budget = decimal.Zero
		default:
			if err := st.DeleteDailyEntry(ctx, e.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// markPending flips a timesheet and its entries back to pending so HR sees
// the rewritten month again.
func (r *Reconciler) markPending(ctx context.Context, st Store, ts *MonthlyTimesheet) error {
	if err := st.UpdateMonthlyTimesheetStatus(ctx, ts.ID, TimesheetPending); err != nil {
		return err
	}
	return st.SetEntriesStatusByTimesheet(ctx, ts.ID, TimesheetPending)
}

// =============================================================================
// REQUEST ENTRY REMOVAL
// =============================================================================

// RemoveRequestEntries deletes the daily entries materialized from a request.
// dates, when non-empty, restricts removal to those dates (review-refusal
// path). skipValidated leaves entries of validated months in place (update
// path, where a validated month must not be reopened silently). Affected
// timesheets are flipped to pending. Returns the number of distinct months
// touched.
func (r *Reconciler) RemoveRequestEntries(ctx context.Context, st Store, requestID RequestID, dates []Date, skipValidated bool) (int, error) {
	entries, err := st.ListEntriesByRequest(ctx, requestID)
	if err != nil {
		return 0, err
	}

	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d.String()] = true
	}

	touched := make(map[TimesheetID]bool)
	for i := range entries {
		e := &entries[i]
		if len(dates) > 0 && !wanted[e.Date.String()] {
			continue
		}
		ts, err := st.GetMonthlyTimesheet(ctx, e.TimesheetID)
		if err != nil {
			return 0, fmt.Errorf("loading timesheet %d: %w", e.TimesheetID, err)
		}
		if skipValidated && ts.Status == TimesheetValidated {
			continue
		}
		if err := st.DeleteDailyEntry(ctx, e.ID); err != nil {
			return 0, err
		}
		touched[ts.ID] = true
	}

	for id := range touched {
		if err := st.UpdateMonthlyTimesheetStatus(ctx, id, TimesheetPending); err != nil {
			return 0, err
		}
	}
	return len(touched), nil
}
