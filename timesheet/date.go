package timesheet

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar date, the unit of time allocation
// =============================================================================

// Date is a calendar date normalized to UTC midnight. It is the key every
// allocation, absence day and timesheet entry hangs off.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// DateOf truncates a time.Time to its calendar date (UTC).
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }
func (d Date) String() string    { return d.t.Format(dateLayout) }

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// SameMonth reports whether two dates fall in the same (month, year).
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

// =============================================================================
// MONTH PERIODS
// =============================================================================

// MonthStart returns the first day of a month.
func MonthStart(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}

// MonthEnd returns the last day of a month.
func MonthEnd(year int, month time.Month) Date {
	return Date{t: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// YearPeriod returns the first and last day of a calendar year.
func YearPeriod(year int) (Date, Date) {
	return NewDate(year, time.January, 1), NewDate(year, time.December, 31)
}

// ValidPeriod bounds accepted month/year inputs. The bounds are wide on
// purpose: they catch swapped fields and garbage, not business policy.
func ValidPeriod(year int, month time.Month) bool {
	return month >= time.January && month <= time.December && year >= 2000 && year <= 2100
}

// ValidYear bounds accepted year inputs for summaries.
func ValidYear(year int) bool {
	return year >= 2000 && year <= 2100
}
