package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffhub/timesheet-engine/store/sqlite"
	"github.com/staffhub/timesheet-engine/timesheet"
)

func newStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addConsultant(t *testing.T, st timesheet.Store, email string) *timesheet.Consultant {
	t.Helper()
	c := &timesheet.Consultant{Name: "Store Test", Email: email}
	require.NoError(t, st.CreateConsultant(context.Background(), c))
	return c
}

func TestConsultantEmailUnique(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	addConsultant(t, store, "dup@test.io")

	err := store.CreateConsultant(ctx, &timesheet.Consultant{Name: "Other", Email: "dup@test.io"})
	assert.ErrorIs(t, err, timesheet.ErrConflict)
}

func TestGetConsultant_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.GetConsultant(context.Background(), 999)
	require.Error(t, err)

	var notFound *timesheet.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "consultant", notFound.Kind)
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

func TestDeleteConsultant(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	c := addConsultant(t, store, "gone@test.io")

	require.NoError(t, store.DeleteConsultant(ctx, c.ID))

	_, err := store.GetConsultant(ctx, c.ID)
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
	assert.ErrorIs(t, store.DeleteConsultant(ctx, c.ID), timesheet.ErrNotFound)
}

func TestTimesheetPeriodUniqueBackstop(t *testing.T) {
	// The service checks the period first; the UNIQUE index catches writers
	// that bypass it.

	store := newStore(t)
	ctx := context.Background()
	c := addConsultant(t, store, "period@test.io")

	first := &timesheet.MonthlyTimesheet{
		Reference: "ref-1", ConsultantID: c.ID, Month: time.June, Year: 2026,
		Status: timesheet.TimesheetSaved,
	}
	require.NoError(t, store.InsertMonthlyTimesheet(ctx, first))

	second := &timesheet.MonthlyTimesheet{
		Reference: "ref-2", ConsultantID: c.ID, Month: time.June, Year: 2026,
		Status: timesheet.TimesheetSaved,
	}
	err := store.InsertMonthlyTimesheet(ctx, second)
	require.Error(t, err)

	var dup *timesheet.DuplicatePeriodError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 6, dup.Month)
}

func TestAbsenceDayUniquePerRequestDate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	c := addConsultant(t, store, "dayunique@test.io")

	req := &timesheet.AbsenceRequest{
		Reference: "req-1", ConsultantID: c.ID,
		Type: timesheet.AbsencePaidLeave, Status: timesheet.RequestPending,
	}
	require.NoError(t, store.InsertAbsenceRequest(ctx, req))

	date := timesheet.NewDate(2026, time.July, 6)
	days := []timesheet.AbsenceRequestDay{
		{RequestID: req.ID, Date: date, Amount: decimal.NewFromInt(1), Status: timesheet.RequestPending},
		{RequestID: req.ID, Date: date, Amount: decimal.NewFromInt(1), Status: timesheet.RequestPending},
	}
	err := store.InsertAbsenceDays(ctx, days)
	require.Error(t, err)

	var conflict *timesheet.DayConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that inserts a consultant then fails
	// WHEN: WithTx returns the error
	// THEN: The insert is rolled back

	store := newStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := store.WithTx(ctx, func(st timesheet.Store) error {
		c := &timesheet.Consultant{Name: "Ghost", Email: "ghost@test.io"}
		if err := st.CreateConsultant(ctx, c); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.GetConsultantByEmail(ctx, "ghost@test.io")
	assert.ErrorIs(t, err, timesheet.ErrNotFound)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(st timesheet.Store) error {
		return st.CreateConsultant(ctx, &timesheet.Consultant{Name: "Kept", Email: "kept@test.io"})
	})
	require.NoError(t, err)

	c, err := store.GetConsultantByEmail(ctx, "kept@test.io")
	require.NoError(t, err)
	assert.Equal(t, "Kept", c.Name)
}

func TestAmountsSurviveRoundTrip(t *testing.T) {
	// Amounts are stored as decimal strings; no float drift on reload.

	store := newStore(t)
	ctx := context.Background()
	c := addConsultant(t, store, "amounts@test.io")
	ts := &timesheet.MonthlyTimesheet{
		Reference: "ref-a", ConsultantID: c.ID, Month: time.June, Year: 2026,
		Status: timesheet.TimesheetSaved,
	}
	require.NoError(t, store.InsertMonthlyTimesheet(ctx, ts))

	activity := timesheet.InternalOffice
	amount, err := decimal.NewFromString("0.5")
	require.NoError(t, err)
	entry := &timesheet.DailyTimesheetEntry{
		TimesheetID:      ts.ID,
		ConsultantID:     c.ID,
		Date:             timesheet.NewDate(2026, time.June, 10),
		Activity:         timesheet.ActivityInternal,
		Amount:           amount,
		InternalActivity: &activity,
		Status:           timesheet.TimesheetSaved,
	}
	require.NoError(t, store.InsertDailyEntry(ctx, entry))

	entries, err := store.ListEntriesForTimesheet(ctx, ts.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0.5", entries[0].Amount.String())
	assert.Equal(t, timesheet.NewDate(2026, time.June, 10), entries[0].Date)
}
