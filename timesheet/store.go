/*
store.go - Persistence interfaces for the timesheet engine

PURPOSE:
  Defines the contract between domain logic and the database. The engine
  never talks SQL; it talks these interfaces. The SQLite implementation
  lives in store/sqlite.

TRANSACTIONS:
  Every mutating lifecycle operation (absence create/update/review/delete,
  timesheet create/status/delete) is a single unit of work. TxStore.WithTx
  runs the given function inside one database transaction: all writes are
  visible only on commit and fully reverted on any error. Services receive
  a TxStore and thread the transactional Store through their steps.

CASCADES:
  There are no implicit cascades. Deleting a request or a timesheet is the
  service's job: it enumerates and deletes dependents through these methods
  inside the same transaction.

SEE ALSO:
  - store/sqlite/sqlite.go: concrete implementation
  - absence/lifecycle.go, monthly.go, reconcile.go: consumers
*/
package timesheet

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - CRUD + filtered queries over the domain entities
// =============================================================================

// Store is the storage collaborator. Implementations translate uniqueness
// violations into the conflict taxonomy (duplicate email, duplicate day,
// duplicate period) and wrap other failures in ErrPersistence.
type Store interface {
	// --- consultants ---
	CreateConsultant(ctx context.Context, c *Consultant) error
	GetConsultant(ctx context.Context, id ConsultantID) (*Consultant, error)
	GetConsultantByEmail(ctx context.Context, email string) (*Consultant, error)
	ListConsultants(ctx context.Context) ([]Consultant, error)
	DeleteConsultant(ctx context.Context, id ConsultantID) error

	// --- projects ---
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	ListActiveProjects(ctx context.Context) ([]Project, error)

	// --- assignments ---
	SaveAssignment(ctx context.Context, a *ProjectAssignment) error
	GetAssignment(ctx context.Context, id AssignmentID) (*ProjectAssignment, error)
	GetAssignmentByPair(ctx context.Context, consultantID ConsultantID, projectID ProjectID) (*ProjectAssignment, error)
	ListAssignmentsByConsultant(ctx context.Context, consultantID ConsultantID, activeOnly bool) ([]ProjectAssignment, error)

	// --- absence requests ---
	InsertAbsenceRequest(ctx context.Context, r *AbsenceRequest) error
	// UpdateAbsenceRequest persists the request's mutable fields (type,
	// commentary, justification, status, reviewer metadata, updated_at).
	UpdateAbsenceRequest(ctx context.Context, r *AbsenceRequest) error
	// GetAbsenceRequest loads a request with its days ordered by date.
	GetAbsenceRequest(ctx context.Context, id RequestID) (*AbsenceRequest, error)
	ListAbsenceRequests(ctx context.Context, f AbsenceRequestFilter) ([]AbsenceRequest, error)
	DeleteAbsenceRequestRow(ctx context.Context, id RequestID) error

	// --- absence request days ---
	InsertAbsenceDays(ctx context.Context, days []AbsenceRequestDay) error
	UpdateAbsenceDayStatus(ctx context.Context, id DayID, status RequestStatus) error
	DeleteAbsenceDaysByRequest(ctx context.Context, requestID RequestID) error
	// ListAbsenceClaims returns every absence day of the consultant whose
	// date falls in [from, to], joined with its request's type and id,
	// ordered by date. Callers filter by status / excluded request.
	ListAbsenceClaims(ctx context.Context, consultantID ConsultantID, from, to Date) ([]AbsenceClaim, error)

	// --- monthly timesheets ---
	InsertMonthlyTimesheet(ctx context.Context, ts *MonthlyTimesheet) error
	GetMonthlyTimesheet(ctx context.Context, id TimesheetID) (*MonthlyTimesheet, error)
	GetMonthlyTimesheetByPeriod(ctx context.Context, consultantID ConsultantID, year int, month int) (*MonthlyTimesheet, error)
	ListMonthlyTimesheets(ctx context.Context, year int, month int, excludeSaved bool) ([]MonthlyTimesheet, error)
	ListTimesheetsByConsultant(ctx context.Context, consultantID ConsultantID) ([]MonthlyTimesheet, error)
	UpdateMonthlyTimesheetStatus(ctx context.Context, id TimesheetID, status TimesheetStatus) error
	// UpdateMonthlyTimesheet persists the timesheet's mutable fields
	// (description, status, reviewer metadata, updated_at).
	UpdateMonthlyTimesheet(ctx context.Context, ts *MonthlyTimesheet) error
	DeleteMonthlyTimesheetRow(ctx context.Context, id TimesheetID) error

	// --- daily entries ---
	InsertDailyEntry(ctx context.Context, e *DailyTimesheetEntry) error
	// ListEntriesForDate returns the consultant's entries on one date in
	// ascending creation order (id ASC). The reconciliation shrink/delete
	// ordering depends on this.
	ListEntriesForDate(ctx context.Context, consultantID ConsultantID, date Date) ([]DailyTimesheetEntry, error)
	ListEntriesForTimesheet(ctx context.Context, id TimesheetID) ([]DailyTimesheetEntry, error)
	ListEntriesByRequest(ctx context.Context, requestID RequestID) ([]DailyTimesheetEntry, error)
	UpdateDailyEntryAmount(ctx context.Context, id EntryID, amount decimal.Decimal) error
	DeleteDailyEntry(ctx context.Context, id EntryID) error
	DeleteEntriesByTimesheet(ctx context.Context, id TimesheetID) error
	SetEntriesStatusByTimesheet(ctx context.Context, id TimesheetID, status TimesheetStatus) error
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction is rolled back, otherwise committed.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// QUERY SHAPES
// =============================================================================

// AbsenceRequestFilter narrows ListAbsenceRequests. Zero values mean "any".
type AbsenceRequestFilter struct {
	ConsultantID ConsultantID
	Status       RequestStatus
}

// AbsenceClaim is one absence day joined with its owning request, as used
// by conflict checks, annual-cap sums, summaries and month views.
type AbsenceClaim struct {
	DayID     DayID
	RequestID RequestID
	Reference string
	Date      Date
	Amount    decimal.Decimal
	Status    RequestStatus
	Type      AbsenceType
}
