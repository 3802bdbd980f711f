package timesheet_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffhub/timesheet-engine/store/sqlite"
	"github.com/staffhub/timesheet-engine/timesheet"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func seedConsultant(t *testing.T, st timesheet.Store, email string) *timesheet.Consultant {
	t.Helper()
	c := &timesheet.Consultant{Name: "Test Consultant", Email: email}
	require.NoError(t, st.CreateConsultant(context.Background(), c))
	return c
}

func seedAssignment(t *testing.T, st timesheet.Store, consultantID timesheet.ConsultantID) *timesheet.ProjectAssignment {
	t.Helper()
	ctx := context.Background()
	p := &timesheet.Project{
		Name:          "Platform Revamp",
		ClientCompany: "Acme",
		StartsAt:      timesheet.NewDate(2026, time.January, 1),
		EndsAt:        timesheet.NewDate(2026, time.December, 31),
		IsActive:      true,
	}
	require.NoError(t, st.CreateProject(ctx, p))

	a := &timesheet.ProjectAssignment{
		ConsultantID: consultantID,
		ProjectID:    p.ID,
		Position:     "Backend developer",
		StartsAt:     p.StartsAt,
		EndsAt:       p.EndsAt,
		IsActive:     true,
	}
	require.NoError(t, st.SaveAssignment(ctx, a))
	return a
}

func seedTimesheet(t *testing.T, st timesheet.Store, consultantID timesheet.ConsultantID, year int, month time.Month, status timesheet.TimesheetStatus) *timesheet.MonthlyTimesheet {
	t.Helper()
	ts := &timesheet.MonthlyTimesheet{
		Reference:    uuid.NewString(),
		ConsultantID: consultantID,
		Month:        month,
		Year:         year,
		Status:       status,
	}
	require.NoError(t, st.InsertMonthlyTimesheet(context.Background(), ts))
	return ts
}

func seedWorkEntry(t *testing.T, st timesheet.Store, ts *timesheet.MonthlyTimesheet, missionID timesheet.AssignmentID, date timesheet.Date, amount string) *timesheet.DailyTimesheetEntry {
	t.Helper()
	activity := timesheet.ProjectActivityNormal
	e := &timesheet.DailyTimesheetEntry{
		TimesheetID:     ts.ID,
		ConsultantID:    ts.ConsultantID,
		Date:            date,
		Activity:        timesheet.ActivityProject,
		Amount:          dec(amount),
		MissionID:       &missionID,
		MissionActivity: &activity,
		Status:          ts.Status,
	}
	require.NoError(t, st.InsertDailyEntry(context.Background(), e))
	return e
}

func absenceDay(requestID timesheet.RequestID, date timesheet.Date, amount string) timesheet.AbsenceRequestDay {
	return timesheet.AbsenceRequestDay{
		RequestID: requestID,
		Date:      date,
		Amount:    dec(amount),
		Status:    timesheet.RequestPending,
	}
}

func seedRequest(t *testing.T, st timesheet.Store, consultantID timesheet.ConsultantID) *timesheet.AbsenceRequest {
	t.Helper()
	r := &timesheet.AbsenceRequest{
		Reference:    uuid.NewString(),
		ConsultantID: consultantID,
		Type:         timesheet.AbsencePaidLeave,
		Status:       timesheet.RequestPending,
	}
	require.NoError(t, st.InsertAbsenceRequest(context.Background(), r))
	return r
}

// =============================================================================
// RECONCILIATION TESTS
// =============================================================================

func TestReconciler_NoTimesheet_NoOp(t *testing.T) {
	// GIVEN: No timesheet exists for the month of the absence day
	// WHEN: Reconciling the day
	// THEN: Nothing happens and no timesheet is reported affected

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "noop@test.io")
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	affected, err := recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave,
		absenceDay(req.ID, timesheet.NewDate(2026, time.April, 7), "1"))

	require.NoError(t, err)
	assert.False(t, affected)
}

func TestReconciler_FullDay_ReplacesWorkEntries(t *testing.T) {
	// GIVEN: A validated March timesheet with two work entries on March 10
	// WHEN: A full-day absence lands on March 10
	// THEN: Both work entries are deleted, a single 1.0 absence entry remains,
	//       and the timesheet flips back to pending

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "fullday@test.io")
	a := seedAssignment(t, store, c.ID)
	ts := seedTimesheet(t, store, c.ID, 2026, time.March, timesheet.TimesheetValidated)
	date := timesheet.NewDate(2026, time.March, 10)
	seedWorkEntry(t, store, ts, a.ID, date, "0.5")
	seedWorkEntry(t, store, ts, a.ID, date, "0.5")
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	affected, err := recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave,
		absenceDay(req.ID, date, "1"))
	require.NoError(t, err)
	assert.True(t, affected)

	entries, err := store.ListEntriesForDate(ctx, c.ID, date)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, timesheet.ActivityAbsence, entries[0].Activity)
	assert.True(t, entries[0].Amount.Equal(timesheet.FullDay))
	require.NotNil(t, entries[0].AbsenceRequestID)
	assert.Equal(t, req.ID, *entries[0].AbsenceRequestID)

	reloaded, err := store.GetMonthlyTimesheet(ctx, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.TimesheetPending, reloaded.Status)
}

func TestReconciler_HalfDay_ShrinksFullWorkEntry(t *testing.T) {
	// GIVEN: A full-day work entry on the date
	// WHEN: A half-day absence lands on it
	// THEN: The work entry shrinks to 0.5, a 0.5 absence entry is added,
	//       and the date still sums to exactly one day

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "halfday@test.io")
	a := seedAssignment(t, store, c.ID)
	ts := seedTimesheet(t, store, c.ID, 2026, time.March, timesheet.TimesheetPending)
	date := timesheet.NewDate(2026, time.March, 12)
	work := seedWorkEntry(t, store, ts, a.ID, date, "1")
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	affected, err := recon.Apply(ctx, store, c.ID, timesheet.AbsenceRTT,
		absenceDay(req.ID, date, "0.5"))
	require.NoError(t, err)
	assert.True(t, affected)

	entries, err := store.ListEntriesForDate(ctx, c.ID, date)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Insertion order: the shrunk work entry first, the absence second.
	assert.Equal(t, work.ID, entries[0].ID)
	assert.True(t, entries[0].Amount.Equal(dec("0.5")), "work entry shrunk to 0.5")
	assert.Equal(t, timesheet.ActivityAbsence, entries[1].Activity)
	assert.True(t, entries[1].Amount.Equal(dec("0.5")))
	assert.True(t, timesheet.AllocatedTotal(entries).Equal(timesheet.FullDay))
}

func TestReconciler_HalfDay_DeletesOverflowEntries(t *testing.T) {
	// GIVEN: Two half-day work entries filling the date
	// WHEN: A half-day absence lands on it
	// THEN: The oldest entry is kept, the newer one is deleted

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "overflow@test.io")
	a := seedAssignment(t, store, c.ID)
	ts := seedTimesheet(t, store, c.ID, 2026, time.March, timesheet.TimesheetPending)
	date := timesheet.NewDate(2026, time.March, 13)
	first := seedWorkEntry(t, store, ts, a.ID, date, "0.5")
	seedWorkEntry(t, store, ts, a.ID, date, "0.5")
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	_, err := recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave,
		absenceDay(req.ID, date, "0.5"))
	require.NoError(t, err)

	entries, err := store.ListEntriesForDate(ctx, c.ID, date)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, timesheet.ActivityAbsence, entries[1].Activity)
}

func TestReconciler_HalfDay_UnderHalfCapacity_Untouched(t *testing.T) {
	// GIVEN: Only half a day of work declared
	// WHEN: A half-day absence lands on the date
	// THEN: The work entry is left as is

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "underhalf@test.io")
	a := seedAssignment(t, store, c.ID)
	ts := seedTimesheet(t, store, c.ID, 2026, time.March, timesheet.TimesheetPending)
	date := timesheet.NewDate(2026, time.March, 16)
	work := seedWorkEntry(t, store, ts, a.ID, date, "0.5")
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	_, err := recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave,
		absenceDay(req.ID, date, "0.5"))
	require.NoError(t, err)

	entries, err := store.ListEntriesForDate(ctx, c.ID, date)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, work.ID, entries[0].ID)
	assert.True(t, entries[0].Amount.Equal(dec("0.5")))
}

func TestReconciler_HalfDay_NonDiscreteMix_WalksInOrder(t *testing.T) {
	// GIVEN: A 0.25 and a 0.75 work entry filling the date
	// WHEN: A half-day absence lands on it
	// THEN: The walk keeps the oldest entry whole and shrinks the straddler
	//       down to the leftover budget, so the date ends up exactly full

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "nondiscrete@test.io")
	a := seedAssignment(t, store, c.ID)
	ts := seedTimesheet(t, store, c.ID, 2026, time.March, timesheet.TimesheetPending)
	date := timesheet.NewDate(2026, time.March, 18)
	first := seedWorkEntry(t, store, ts, a.ID, date, "0.25")
	second := seedWorkEntry(t, store, ts, a.ID, date, "0.75")
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	_, err := recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave,
		absenceDay(req.ID, date, "0.5"))
	require.NoError(t, err)

	entries, err := store.ListEntriesForDate(ctx, c.ID, date)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.True(t, entries[0].Amount.Equal(dec("0.25")))
	assert.Equal(t, second.ID, entries[1].ID)
	assert.True(t, entries[1].Amount.Equal(dec("0.25")))
	assert.Equal(t, timesheet.ActivityAbsence, entries[2].Activity)
	assert.True(t, entries[2].Amount.Equal(dec("0.5")))

	assert.True(t, timesheet.AllocatedTotal(entries).Equal(dec("1")))
}

func TestReconciler_FullDay_AstreinteSurvives(t *testing.T) {
	// GIVEN: A work entry and an astreinte entry on the date
	// WHEN: A full-day absence lands on it
	// THEN: The work entry is deleted but the astreinte entry survives

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "astreinte@test.io")
	a := seedAssignment(t, store, c.ID)
	ts := seedTimesheet(t, store, c.ID, 2026, time.March, timesheet.TimesheetPending)
	date := timesheet.NewDate(2026, time.March, 21)
	seedWorkEntry(t, store, ts, a.ID, date, "1")

	astreinte := timesheet.ProjectActivityAstreinte
	location := timesheet.AstreinteOnSite
	kind := timesheet.AstreinteSamedi
	onCall := &timesheet.DailyTimesheetEntry{
		TimesheetID:       ts.ID,
		ConsultantID:      c.ID,
		Date:              date,
		Activity:          timesheet.ActivityProject,
		Amount:            dec("1"),
		MissionID:         &a.ID,
		MissionActivity:   &astreinte,
		AstreinteLocation: &location,
		AstreinteKind:     &kind,
		Status:            timesheet.TimesheetPending,
	}
	require.NoError(t, store.InsertDailyEntry(ctx, onCall))

	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())
	_, err := recon.Apply(ctx, store, c.ID, timesheet.AbsenceSickLeave,
		absenceDay(req.ID, date, "1"))
	require.NoError(t, err)

	entries, err := store.ListEntriesForDate(ctx, c.ID, date)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, onCall.ID, entries[0].ID)
	assert.Equal(t, timesheet.ActivityAbsence, entries[1].Activity)
	assert.True(t, timesheet.AllocatedTotal(entries).Equal(timesheet.FullDay))
}

// =============================================================================
// REQUEST ENTRY REMOVAL TESTS
// =============================================================================

func TestRemoveRequestEntries_DateFilterAndMonthCount(t *testing.T) {
	// GIVEN: A request materialized into two different months
	// WHEN: Removing only the first month's date
	// THEN: One month is reported touched and the other entry survives

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "removal@test.io")
	tsMarch := seedTimesheet(t, store, c.ID, 2026, time.March, timesheet.TimesheetPending)
	tsApril := seedTimesheet(t, store, c.ID, 2026, time.April, timesheet.TimesheetPending)
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	marchDate := timesheet.NewDate(2026, time.March, 30)
	aprilDate := timesheet.NewDate(2026, time.April, 1)
	_, err := recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave, absenceDay(req.ID, marchDate, "1"))
	require.NoError(t, err)
	_, err = recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave, absenceDay(req.ID, aprilDate, "1"))
	require.NoError(t, err)

	months, err := recon.RemoveRequestEntries(ctx, store, req.ID, []timesheet.Date{marchDate}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, months)

	marchEntries, err := store.ListEntriesForTimesheet(ctx, tsMarch.ID)
	require.NoError(t, err)
	assert.Empty(t, marchEntries)

	aprilEntries, err := store.ListEntriesForTimesheet(ctx, tsApril.ID)
	require.NoError(t, err)
	assert.Len(t, aprilEntries, 1)
}

func TestRemoveRequestEntries_SkipValidatedMonths(t *testing.T) {
	// GIVEN: A request entry inside a validated month
	// WHEN: Removing with the skip-validated flag
	// THEN: The entry stays and no month is reported touched

	store := newTestStore(t)
	ctx := context.Background()
	c := seedConsultant(t, store, "skipvalidated@test.io")
	ts := seedTimesheet(t, store, c.ID, 2026, time.May, timesheet.TimesheetPending)
	req := seedRequest(t, store, c.ID)
	recon := timesheet.NewReconciler(testLogger())

	date := timesheet.NewDate(2026, time.May, 5)
	_, err := recon.Apply(ctx, store, c.ID, timesheet.AbsencePaidLeave, absenceDay(req.ID, date, "1"))
	require.NoError(t, err)
	require.NoError(t, store.UpdateMonthlyTimesheetStatus(ctx, ts.ID, timesheet.TimesheetValidated))

	months, err := recon.RemoveRequestEntries(ctx, store, req.ID, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 0, months)

	entries, err := store.ListEntriesForTimesheet(ctx, ts.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
