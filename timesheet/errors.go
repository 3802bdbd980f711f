/*
errors.go - Centralized error types for the timesheet engine

PURPOSE:
  All error categories in one place. The api package maps these to HTTP
  status codes; services wrap them with operation context.

ERROR CATEGORIES:
  1. Validation errors - malformed input (bad date, bad amount, bad enum)
  2. Conflict errors   - duplicate period/day, state not eligible
  3. Not-found errors  - unknown entity ids
  4. Policy violations - annual cap, validated-month lock, ownership
  5. Persistence errors - storage commit failures (rolled back)

USAGE:
  if errors.Is(err, timesheet.ErrPolicyViolation) { ... }

  var capErr *timesheet.AnnualCapError
  if errors.As(err, &capErr) {
      remaining := capErr.Remaining
  }
*/
package timesheet

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all malformed-input errors.
	ErrValidation = errors.New("invalid input")

	// ErrConflict is the root of duplicate/state-eligibility errors.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is the root of unknown-entity errors.
	ErrNotFound = errors.New("not found")

	// ErrPolicyViolation is the root of business-rule rejections.
	ErrPolicyViolation = errors.New("policy violation")

	// ErrPersistence is returned when a storage write fails. The enclosing
	// unit of work has been rolled back.
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError reports a malformed input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }
func (e *FieldError) Unwrap() error { return ErrValidation }

// AllocationExceededError reports a daily ceiling violation. Carries the
// already-committed total and the attempted addition.
type AllocationExceededError struct {
	ConsultantID ConsultantID
	Date         Date
	Current      decimal.Decimal
	Attempted    decimal.Decimal
	Ceiling      decimal.Decimal
}

func (e *AllocationExceededError) Error() string {
	return fmt.Sprintf("daily allocation exceeded on %s: current %s, attempted %s, ceiling %s",
		e.Date, e.Current, e.Attempted, e.Ceiling)
}

func (e *AllocationExceededError) Unwrap() error { return ErrValidation }

// DayConflictError reports absence dates already claimed by pending or
// accepted days of other requests.
type DayConflictError struct {
	ConsultantID ConsultantID
	Dates        []Date
}

func (e *DayConflictError) Error() string {
	return fmt.Sprintf("consultant %d already has absence claims on %d date(s), first %s",
		e.ConsultantID, len(e.Dates), e.Dates[0])
}

func (e *DayConflictError) Unwrap() error { return ErrConflict }

// AnnualCapError reports an annual allowance overrun. Remaining is clamped
// at zero and surfaced to the caller.
type AnnualCapError struct {
	ConsultantID ConsultantID
	Year         int
	Used         decimal.Decimal
	Requested    decimal.Decimal
	Cap          decimal.Decimal
	Remaining    decimal.Decimal
}

func (e *AnnualCapError) Error() string {
	return fmt.Sprintf("annual absence cap exceeded for %d: used %s, requesting %s, cap %s (remaining %s)",
		e.Year, e.Used, e.Requested, e.Cap, e.Remaining)
}

func (e *AnnualCapError) Unwrap() error { return ErrPolicyViolation }

// StateError reports an operation attempted from an ineligible status.
type StateError struct {
	Op     string
	Status string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s from status %q", e.Op, e.Status)
}

func (e *StateError) Unwrap() error { return ErrConflict }

// ValidatedMonthError reports an edit blocked because the affected month's
// timesheet has already been validated.
type ValidatedMonthError struct {
	ConsultantID ConsultantID
	Year         int
	Month        int
}

func (e *ValidatedMonthError) Error() string {
	return fmt.Sprintf("timesheet for %04d-%02d is validated and cannot be reopened", e.Year, e.Month)
}

func (e *ValidatedMonthError) Unwrap() error { return ErrPolicyViolation }

// DuplicatePeriodError reports a second timesheet for the same
// (consultant, month, year).
type DuplicatePeriodError struct {
	ConsultantID ConsultantID
	Year         int
	Month        int
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("timesheet for consultant %d period %04d-%02d already exists",
		e.ConsultantID, e.Year, e.Month)
}

func (e *DuplicatePeriodError) Unwrap() error { return ErrConflict }

// OwnershipError reports a mission or absence request that does not belong
// to the acting consultant.
type OwnershipError struct {
	Kind         string // "assignment" or "absence request"
	ID           int64
	ConsultantID ConsultantID
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s %d does not belong to consultant %d", e.Kind, e.ID, e.ConsultantID)
}

func (e *OwnershipError) Unwrap() error { return ErrPolicyViolation }

// NotFoundError reports an unknown entity id.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Kind, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to caller input rather
// than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPolicyViolation)
}
