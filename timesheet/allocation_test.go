package timesheet_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffhub/timesheet-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func workEntry(amount string) timesheet.DailyTimesheetEntry {
	activity := timesheet.ProjectActivityNormal
	mission := timesheet.AssignmentID(1)
	return timesheet.DailyTimesheetEntry{
		Activity:        timesheet.ActivityProject,
		Amount:          dec(amount),
		MissionID:       &mission,
		MissionActivity: &activity,
	}
}

func astreinteEntry(amount string) timesheet.DailyTimesheetEntry {
	activity := timesheet.ProjectActivityAstreinte
	mission := timesheet.AssignmentID(1)
	return timesheet.DailyTimesheetEntry{
		Activity:        timesheet.ActivityProject,
		Amount:          dec(amount),
		MissionID:       &mission,
		MissionActivity: &activity,
	}
}

// =============================================================================
// CEILING TESTS
// =============================================================================

func TestCheckAddition_EmptyDay_AcceptsFullDay(t *testing.T) {
	// GIVEN: No entries on the date
	// WHEN: Adding a full day
	// THEN: The addition passes

	date := timesheet.NewDate(2026, 3, 10)
	err := timesheet.CheckAddition(1, date, nil, timesheet.FullDay)
	assert.NoError(t, err)
}

func TestCheckAddition_ExactCapacity_Passes(t *testing.T) {
	// GIVEN: Half a day already declared
	// WHEN: Adding exactly the remaining half
	// THEN: The addition passes (ceiling is inclusive)

	date := timesheet.NewDate(2026, 3, 10)
	entries := []timesheet.DailyTimesheetEntry{workEntry("0.5")}

	err := timesheet.CheckAddition(1, date, entries, dec("0.5"))
	assert.NoError(t, err)
}

func TestCheckAddition_Overrun_Rejected(t *testing.T) {
	// GIVEN: 0.75 of the day already declared
	// WHEN: Adding another half day
	// THEN: AllocationExceededError carrying the committed total and the attempt

	date := timesheet.NewDate(2026, 3, 10)
	entries := []timesheet.DailyTimesheetEntry{workEntry("0.5"), workEntry("0.25")}

	err := timesheet.CheckAddition(1, date, entries, dec("0.5"))
	require.Error(t, err)

	var exceeded *timesheet.AllocationExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.True(t, exceeded.Current.Equal(dec("0.75")))
	assert.True(t, exceeded.Attempted.Equal(dec("0.5")))
	assert.ErrorIs(t, err, timesheet.ErrValidation)
}

func TestCheckAddition_ToleranceAbsorbsFloatNoise(t *testing.T) {
	// GIVEN: 0.7 declared
	// WHEN: Adding 0.30005 (JSON float noise) vs 0.301 (a real overrun)
	// THEN: The noise passes, the overrun is rejected

	date := timesheet.NewDate(2026, 3, 10)
	entries := []timesheet.DailyTimesheetEntry{workEntry("0.7")}

	assert.NoError(t, timesheet.CheckAddition(1, date, entries, dec("0.30005")))
	assert.Error(t, timesheet.CheckAddition(1, date, entries, dec("0.301")))
}

func TestCheckAddition_NonPositiveAmount_Rejected(t *testing.T) {
	date := timesheet.NewDate(2026, 3, 10)

	for _, amount := range []string{"0", "-0.5"} {
		err := timesheet.CheckAddition(1, date, nil, dec(amount))
		require.Error(t, err, "amount %s", amount)

		var fieldErr *timesheet.FieldError
		assert.ErrorAs(t, err, &fieldErr)
	}
}

func TestCheckAddition_AstreinteOutsideCeiling(t *testing.T) {
	// GIVEN: A full-day astreinte entry on the date
	// WHEN: Adding a full working day
	// THEN: The addition passes; on-call duty does not consume the ceiling

	date := timesheet.NewDate(2026, 3, 14)
	entries := []timesheet.DailyTimesheetEntry{astreinteEntry("1")}

	assert.NoError(t, timesheet.CheckAddition(1, date, entries, timesheet.FullDay))
}

// =============================================================================
// DAY ALLOCATION VIEW TESTS
// =============================================================================

func TestAllocationFor_PartialDay(t *testing.T) {
	date := timesheet.NewDate(2026, 3, 10)
	entries := []timesheet.DailyTimesheetEntry{workEntry("0.5"), workEntry("0.25")}

	alloc := timesheet.AllocationFor(1, date, entries)

	assert.True(t, alloc.Total.Equal(dec("0.75")))
	assert.True(t, alloc.Remaining.Equal(dec("0.25")))
	assert.False(t, alloc.IsComplete)
	assert.Equal(t, 2, alloc.EntryCount)
}

func TestAllocationFor_CompleteDay(t *testing.T) {
	date := timesheet.NewDate(2026, 3, 10)
	entries := []timesheet.DailyTimesheetEntry{workEntry("0.5"), workEntry("0.5")}

	alloc := timesheet.AllocationFor(1, date, entries)

	assert.True(t, alloc.Total.Equal(timesheet.FullDay))
	assert.True(t, alloc.Remaining.IsZero())
	assert.True(t, alloc.IsComplete)
}

func TestAllocationFor_EmptyDay(t *testing.T) {
	date := timesheet.NewDate(2026, 3, 10)

	alloc := timesheet.AllocationFor(1, date, nil)

	assert.True(t, alloc.Total.IsZero())
	assert.True(t, alloc.Remaining.Equal(timesheet.FullDay))
	assert.False(t, alloc.IsComplete)
}

func TestValidAbsenceAmount_DiscreteValuesOnly(t *testing.T) {
	assert.True(t, timesheet.ValidAbsenceAmount(dec("0.5")))
	assert.True(t, timesheet.ValidAbsenceAmount(dec("1")))
	assert.False(t, timesheet.ValidAbsenceAmount(dec("0.25")))
	assert.False(t, timesheet.ValidAbsenceAmount(dec("0.75")))
	assert.False(t, timesheet.ValidAbsenceAmount(dec("2")))
}
