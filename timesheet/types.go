/*
Package timesheet provides the core time-allocation engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking how a
  consultant's working day is partitioned between project work, internal
  activities and absences, and for keeping monthly timesheets consistent
  with the absence requests that overlap them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amounts: day fractions backed by decimal.Decimal (no float drift)
  - Enums: activity categories, absence types, request/timesheet statuses
  - Entities: Consultant, Project, ProjectAssignment, AbsenceRequest,
    AbsenceRequestDay, MonthlyTimesheet, DailyTimesheetEntry
  - Typed IDs: prevent mixing consultant/request/timesheet identifiers

AMOUNT CONVENTION:
  All amounts are fractions of a working day. The daily ceiling is 1.0 and
  absence days come only in halves (0.5) or wholes (1.0). Hour-based views
  convert as hours = fraction * 8. Astreinte (on-call) entries sit outside
  the ceiling: they never count toward a day's allocated total.

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every amount, tolerance only at the
     comparison boundary (±0.0001)
  2. Type safety: distinct ID types per entity
  3. Per-day review: an AbsenceRequestDay carries its own status; the
     request-level status is derived from its days

SEE ALSO:
  - allocation.go: daily ceiling enforcement
  - reconcile.go: absence/timesheet reconciliation
  - monthly.go: monthly timesheet aggregate
  - store.go: persistence interfaces
*/
package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNTS - Day fractions
// =============================================================================

var (
	// FullDay is the daily ceiling: the whole of one working day.
	FullDay = decimal.NewFromInt(1)

	// HalfDay is the only other amount an absence day may carry.
	HalfDay = decimal.New(5, -1)

	// AllocationTolerance absorbs float noise from JSON payloads when
	// comparing a day's total against the ceiling.
	AllocationTolerance = decimal.New(1, -4)

	// AnnualCapDays is the yearly allowance for capped absence types.
	AnnualCapDays = decimal.NewFromInt(25)
)

// HoursPerDay documents the fraction-to-hours conversion used by reporting
// views (fraction 1.0 == 8 hours).
const HoursPerDay = 8

// ValidAbsenceAmount reports whether an absence day amount is one of the
// allowed discrete values.
func ValidAbsenceAmount(a decimal.Decimal) bool {
	return a.Equal(HalfDay) || a.Equal(FullDay)
}

// MustParseDecimal parses a stored decimal string, returning zero on error.
// Storage always writes via decimal.String so a parse failure means a
// corrupted row, not a caller mistake.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	ConsultantID int64
	ProjectID    int64
	AssignmentID int64
	RequestID    int64
	DayID        int64
	TimesheetID  int64
	EntryID      int64
)

// =============================================================================
// ENUMS
// =============================================================================

// ActivityType is the mutually-exclusive category of a daily entry.
type ActivityType string

const (
	ActivityProject  ActivityType = "project"
	ActivityInternal ActivityType = "internal"
	ActivityAbsence  ActivityType = "absence"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityProject, ActivityInternal, ActivityAbsence:
		return true
	}
	return false
}

// InternalActivityType is the subtype of an internal (non-billable) entry.
type InternalActivityType string

const (
	InternalOffice        InternalActivityType = "office"
	InternalInterContract InternalActivityType = "inter_contract"
	InternalProject       InternalActivityType = "internal_project"
	InternalTraining      InternalActivityType = "training"
)

func (t InternalActivityType) Valid() bool {
	switch t {
	case InternalOffice, InternalInterContract, InternalProject, InternalTraining:
		return true
	}
	return false
}

// AbsenceType classifies an absence request.
type AbsenceType string

const (
	AbsencePaidLeave   AbsenceType = "paid_leave"
	AbsenceRTT         AbsenceType = "rtt"
	AbsenceUnpaidLeave AbsenceType = "unpaid_leave"
	AbsenceSickLeave   AbsenceType = "sick_leave"
	AbsenceExceptional AbsenceType = "exceptional"
	AbsencePaternity   AbsenceType = "paternity"
	AbsenceMaternity   AbsenceType = "maternity"
)

func (t AbsenceType) Valid() bool {
	switch t {
	case AbsencePaidLeave, AbsenceRTT, AbsenceUnpaidLeave, AbsenceSickLeave,
		AbsenceExceptional, AbsencePaternity, AbsenceMaternity:
		return true
	}
	return false
}

// CountsTowardCap reports whether days of this type consume the annual
// allowance. Unpaid leave is exempt.
func (t AbsenceType) CountsTowardCap() bool {
	return t != AbsenceUnpaidLeave
}

// AbsenceTypes lists every absence type (enum endpoint, summaries).
func AbsenceTypes() []AbsenceType {
	return []AbsenceType{
		AbsencePaidLeave, AbsenceRTT, AbsenceUnpaidLeave, AbsenceSickLeave,
		AbsenceExceptional, AbsencePaternity, AbsenceMaternity,
	}
}

// ProjectActivityType is the subtype of a project entry.
type ProjectActivityType string

const (
	ProjectActivityNormal    ProjectActivityType = "normale"
	ProjectActivityAstreinte ProjectActivityType = "astreinte"
)

func (t ProjectActivityType) Valid() bool {
	return t == ProjectActivityNormal || t == ProjectActivityAstreinte
}

// AstreinteLocation is where on-call duty is performed.
type AstreinteLocation string

const (
	AstreinteOnSite AstreinteLocation = "on_site"
	AstreinteRemote AstreinteLocation = "remote"
)

func (l AstreinteLocation) Valid() bool {
	return l == AstreinteOnSite || l == AstreinteRemote
}

// AstreinteKind is the calendar slot of on-call duty.
type AstreinteKind string

const (
	AstreinteSemaine    AstreinteKind = "semaine"
	AstreinteSamedi     AstreinteKind = "samedi"
	AstreinteDimanche   AstreinteKind = "dimanche"
	AstreinteJoursFerie AstreinteKind = "jours_feries"
)

func (k AstreinteKind) Valid() bool {
	switch k {
	case AstreinteSemaine, AstreinteSamedi, AstreinteDimanche, AstreinteJoursFerie:
		return true
	}
	return false
}

// RequestStatus is the status of an absence request or of one of its days.
type RequestStatus string

const (
	RequestSaved             RequestStatus = "saved"
	RequestPending           RequestStatus = "pending"
	RequestAccepted          RequestStatus = "accepted"
	RequestRefused           RequestStatus = "refused"
	RequestPartiallyAccepted RequestStatus = "partially_accepted"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestSaved, RequestPending, RequestAccepted, RequestRefused, RequestPartiallyAccepted:
		return true
	}
	return false
}

// RequestStatuses lists every request status (enum endpoint).
func RequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestSaved, RequestPending, RequestAccepted, RequestRefused, RequestPartiallyAccepted,
	}
}

// TimesheetStatus is the status of a monthly timesheet and its entries.
type TimesheetStatus string

const (
	TimesheetSaved     TimesheetStatus = "saved"
	TimesheetPending   TimesheetStatus = "pending"
	TimesheetValidated TimesheetStatus = "validated"
	TimesheetRefused   TimesheetStatus = "refused"
)

func (s TimesheetStatus) Valid() bool {
	switch s {
	case TimesheetSaved, TimesheetPending, TimesheetValidated, TimesheetRefused:
		return true
	}
	return false
}

// TimesheetStatuses lists every timesheet status (enum endpoint).
func TimesheetStatuses() []TimesheetStatus {
	return []TimesheetStatus{TimesheetSaved, TimesheetPending, TimesheetValidated, TimesheetRefused}
}

// =============================================================================
// ENTITIES
// =============================================================================

// Consultant is the owner of timesheets, absence requests and assignments.
type Consultant struct {
	ID        ConsultantID
	Name      string
	Email     string
	CreatedAt time.Time
}

// Project is a client engagement with a validity window.
type Project struct {
	ID              ProjectID
	Name            string
	ClientCompany   string
	RepresentedBy   string
	SupervisorEmail string
	StartsAt        Date
	EndsAt          Date
	IsActive        bool
	CreatedAt       time.Time
}

// ProjectAssignment links one consultant to one project. Unique per
// (consultant, project) pair; reactivation toggles IsActive rather than
// creating a second row. The assignment window must nest within the
// project's window.
type ProjectAssignment struct {
	ID           AssignmentID
	ConsultantID ConsultantID
	ProjectID    ProjectID
	Position     string
	StartsAt     Date
	EndsAt       Date
	IsActive     bool
	AssignedAt   time.Time
}

// AbsenceRequest is one consultant-submitted claim for time off, spanning
// one or more dates, each reviewable individually by HR.
type AbsenceRequest struct {
	ID            RequestID
	Reference     string // opaque unique token (uuid)
	ConsultantID  ConsultantID
	Type          AbsenceType
	Commentary    string
	Justification string
	Status        RequestStatus
	AssignmentID  *AssignmentID // set when the absence is tied to a mission
	ReviewedBy    string
	ReviewedAt    *time.Time
	HRComments    string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Days []AbsenceRequestDay
}

// TotalDays sums the day amounts of the request.
func (r *AbsenceRequest) TotalDays() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Days {
		total = total.Add(d.Amount)
	}
	return total
}

// AbsenceRequestDay is a single calendar date within a request. At most one
// per (request, date); across a consultant's non-refused requests, at most
// one claim per date.
type AbsenceRequestDay struct {
	ID        DayID
	RequestID RequestID
	Date      Date
	Amount    decimal.Decimal // 0.5 or 1.0
	Status    RequestStatus
	CreatedAt time.Time
}

// MonthlyTimesheet is the per-month aggregate: one row per
// (consultant, month, year).
type MonthlyTimesheet struct {
	ID              TimesheetID
	Reference       string
	ConsultantID    ConsultantID
	Month           time.Month
	Year            int
	Description     string
	Status          TimesheetStatus
	ReviewedBy      string
	ReviewedAt      *time.Time
	ManagerComments string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DailyTimesheetEntry is one activity slice on one date. Category-specific
// fields are nil unless the category requires them.
type DailyTimesheetEntry struct {
	ID           EntryID
	TimesheetID  TimesheetID
	ConsultantID ConsultantID
	Date         Date
	Activity     ActivityType
	Amount       decimal.Decimal

	// project
	MissionID         *AssignmentID
	MissionActivity   *ProjectActivityType
	AstreinteLocation *AstreinteLocation
	AstreinteKind     *AstreinteKind

	// internal
	InternalActivity *InternalActivityType

	// absence
	AbsenceType      *AbsenceType
	AbsenceRequestID *RequestID

	Description string
	Status      TimesheetStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAstreinte reports whether the entry is an on-call slice, which is
// excluded from daily ceiling sums and total rollups.
func (e *DailyTimesheetEntry) IsAstreinte() bool {
	return e.Activity == ActivityProject &&
		e.MissionActivity != nil && *e.MissionActivity == ProjectActivityAstreinte
}
