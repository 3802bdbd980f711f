/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements timesheet.Store and timesheet.TxStore over raw database/sql.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  consultants:          People submitting timesheets and absence requests
  projects:             Client engagements
  project_assignments:  Consultant-to-project links (unique per pair)
  absence_requests:     Request headers with review metadata
  absence_request_days: One row per requested date (unique per request+date)
  monthly_timesheets:   One row per consultant+month+year
  daily_entries:        Activity slices, several per date

UNIQUENESS BACKSTOPS:
  The services check duplicates inside their transactions; these indexes
  close the race window:
  - consultants(email)
  - project_assignments(consultant_id, project_id)
  - absence_request_days(request_id, date)
  - monthly_timesheets(consultant_id, month, year)
  Violations are translated into the conflict error taxonomy.

AMOUNTS AND DATES:
  Amounts are stored as decimal strings (exact round-trip through
  shopspring/decimal). Calendar dates are stored as YYYY-MM-DD text,
  timestamps as RFC3339.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time, better crash
  recovery. The pool is capped at one connection so writes never hit
  SQLITE_BUSY.

USAGE:
  store, err := sqlite.New("./data/staffhub.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - timesheet/store.go: Interface definitions
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/staffhub/timesheet-engine/timesheet"
)

// dbtx is the subset of *sql.DB and *sql.Tx the queries need, so the same
// method set runs inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements timesheet.Store over a dbtx.
type queries struct {
	db dbtx
}

// Store implements timesheet.TxStore. Use New to create one.
type Store struct {
	sqlDB *sql.DB
	queries
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{sqlDB: db, queries: queries{db: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// WithTx executes fn inside one database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(timesheet.Store) error) error {
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{db: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS consultants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		client_company TEXT NOT NULL,
		represented_by TEXT,
		supervisor_email TEXT,
		starts_at TEXT NOT NULL,
		ends_at TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS project_assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		consultant_id INTEGER NOT NULL REFERENCES consultants(id),
		project_id INTEGER NOT NULL REFERENCES projects(id),
		position TEXT,
		starts_at TEXT NOT NULL,
		ends_at TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		assigned_at TEXT NOT NULL,
		UNIQUE(consultant_id, project_id)
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_consultant
		ON project_assignments(consultant_id);

	CREATE TABLE IF NOT EXISTS absence_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reference TEXT NOT NULL UNIQUE,
		consultant_id INTEGER NOT NULL REFERENCES consultants(id),
		type TEXT NOT NULL,
		commentary TEXT,
		justification TEXT,
		status TEXT NOT NULL,
		assignment_id INTEGER REFERENCES project_assignments(id),
		reviewed_by TEXT,
		reviewed_at TEXT,
		hr_comments TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_consultant
		ON absence_requests(consultant_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON absence_requests(status);

	CREATE TABLE IF NOT EXISTS absence_request_days (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id INTEGER NOT NULL REFERENCES absence_requests(id),
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(request_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_days_request
		ON absence_request_days(request_id);
	CREATE INDEX IF NOT EXISTS idx_days_date
		ON absence_request_days(date);

	CREATE TABLE IF NOT EXISTS monthly_timesheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reference TEXT NOT NULL UNIQUE,
		consultant_id INTEGER NOT NULL REFERENCES consultants(id),
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		reviewed_by TEXT,
		reviewed_at TEXT,
		manager_comments TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(consultant_id, month, year)
	);

	CREATE INDEX IF NOT EXISTS idx_timesheets_period
		ON monthly_timesheets(year, month);

	CREATE TABLE IF NOT EXISTS daily_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timesheet_id INTEGER NOT NULL REFERENCES monthly_timesheets(id),
		consultant_id INTEGER NOT NULL REFERENCES consultants(id),
		date TEXT NOT NULL,
		activity TEXT NOT NULL,
		amount TEXT NOT NULL,
		mission_id INTEGER,
		mission_activity TEXT,
		astreinte_location TEXT,
		astreinte_kind TEXT,
		internal_activity TEXT,
		absence_type TEXT,
		absence_request_id INTEGER,
		description TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: reconciliation and ceiling checks read one consultant-date
	CREATE INDEX IF NOT EXISTS idx_entries_consultant_date
		ON daily_entries(consultant_id, date);
	CREATE INDEX IF NOT EXISTS idx_entries_timesheet
		ON daily_entries(timesheet_id);
	CREATE INDEX IF NOT EXISTS idx_entries_request
		ON daily_entries(absence_request_id) WHERE absence_request_id IS NOT NULL;
	`

	_, err := s.sqlDB.Exec(schema)
	return err
}

// =============================================================================
// CONSULTANTS
// =============================================================================

func (q *queries) CreateConsultant(ctx context.Context, c *timesheet.Consultant) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO consultants (name, email, created_at) VALUES (?, ?, ?)",
		c.Name, c.Email, now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("email %q already registered: %w", c.Email, timesheet.ErrConflict)
		}
		return persistence("insert consultant", err)
	}
	id, _ := res.LastInsertId()
	c.ID = timesheet.ConsultantID(id)
	c.CreatedAt = now
	return nil
}

func (q *queries) GetConsultant(ctx context.Context, id timesheet.ConsultantID) (*timesheet.Consultant, error) {
	return q.scanConsultant(q.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM consultants WHERE id = ?", id), int64(id))
}

func (q *queries) GetConsultantByEmail(ctx context.Context, email string) (*timesheet.Consultant, error) {
	return q.scanConsultant(q.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM consultants WHERE email = ?", email), 0)
}

func (q *queries) scanConsultant(row *sql.Row, id int64) (*timesheet.Consultant, error) {
	var c timesheet.Consultant
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &timesheet.NotFoundError{Kind: "consultant", ID: id}
	}
	if err != nil {
		return nil, persistence("scan consultant", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (q *queries) ListConsultants(ctx context.Context) ([]timesheet.Consultant, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, name, email, created_at FROM consultants ORDER BY name")
	if err != nil {
		return nil, persistence("list consultants", err)
	}
	defer rows.Close()

	var out []timesheet.Consultant
	for rows.Next() {
		var c timesheet.Consultant
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &createdAt); err != nil {
			return nil, persistence("scan consultant", err)
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *queries) DeleteConsultant(ctx context.Context, id timesheet.ConsultantID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM consultants WHERE id = ?", id)
	if err != nil {
		return persistence("delete consultant", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "consultant", ID: int64(id)}
	}
	return nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (q *queries) CreateProject(ctx context.Context, p *timesheet.Project) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO projects (name, client_company, represented_by, supervisor_email,
			starts_at, ends_at, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.ClientCompany, p.RepresentedBy, p.SupervisorEmail,
		p.StartsAt.String(), p.EndsAt.String(), p.IsActive, now.Format(time.RFC3339),
	)
	if err != nil {
		return persistence("insert project", err)
	}
	id, _ := res.LastInsertId()
	p.ID = timesheet.ProjectID(id)
	p.CreatedAt = now
	return nil
}

func (q *queries) GetProject(ctx context.Context, id timesheet.ProjectID) (*timesheet.Project, error) {
	var p timesheet.Project
	var starts, ends, createdAt string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, client_company, represented_by, supervisor_email,
		       starts_at, ends_at, is_active, created_at
		FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.ClientCompany, &p.RepresentedBy, &p.SupervisorEmail,
		&starts, &ends, &p.IsActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &timesheet.NotFoundError{Kind: "project", ID: int64(id)}
	}
	if err != nil {
		return nil, persistence("scan project", err)
	}
	p.StartsAt = parseDate(starts)
	p.EndsAt = parseDate(ends)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (q *queries) ListActiveProjects(ctx context.Context) ([]timesheet.Project, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, client_company, represented_by, supervisor_email,
		       starts_at, ends_at, is_active, created_at
		FROM projects WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, persistence("list projects", err)
	}
	defer rows.Close()

	var out []timesheet.Project
	for rows.Next() {
		var p timesheet.Project
		var starts, ends, createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientCompany, &p.RepresentedBy,
			&p.SupervisorEmail, &starts, &ends, &p.IsActive, &createdAt); err != nil {
			return nil, persistence("scan project", err)
		}
		p.StartsAt = parseDate(starts)
		p.EndsAt = parseDate(ends)
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// SaveAssignment inserts a new assignment or, when the (consultant, project)
// pair already exists, updates the window, position and active flag in place.
func (q *queries) SaveAssignment(ctx context.Context, a *timesheet.ProjectAssignment) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO project_assignments
			(consultant_id, project_id, position, starts_at, ends_at, is_active, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(consultant_id, project_id) DO UPDATE SET
			position = excluded.position,
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at,
			is_active = excluded.is_active`,
		a.ConsultantID, a.ProjectID, a.Position,
		a.StartsAt.String(), a.EndsAt.String(), a.IsActive, now.Format(time.RFC3339),
	)
	if err != nil {
		return persistence("save assignment", err)
	}
	if a.ID == 0 {
		existing, err := q.GetAssignmentByPair(ctx, a.ConsultantID, a.ProjectID)
		if err != nil {
			// Fall back to the insert id when the upsert created the row.
			id, _ := res.LastInsertId()
			a.ID = timesheet.AssignmentID(id)
		} else {
			a.ID = existing.ID
			a.AssignedAt = existing.AssignedAt
		}
	}
	return nil
}

func (q *queries) GetAssignment(ctx context.Context, id timesheet.AssignmentID) (*timesheet.ProjectAssignment, error) {
	return q.scanAssignmentRow(q.db.QueryRowContext(ctx, `
		SELECT id, consultant_id, project_id, position, starts_at, ends_at, is_active, assigned_at
		FROM project_assignments WHERE id = ?`, id), int64(id))
}

func (q *queries) GetAssignmentByPair(ctx context.Context, consultantID timesheet.ConsultantID, projectID timesheet.ProjectID) (*timesheet.ProjectAssignment, error) {
	return q.scanAssignmentRow(q.db.QueryRowContext(ctx, `
		SELECT id, consultant_id, project_id, position, starts_at, ends_at, is_active, assigned_at
		FROM project_assignments WHERE consultant_id = ? AND project_id = ?`,
		consultantID, projectID), 0)
}

func (q *queries) scanAssignmentRow(row *sql.Row, id int64) (*timesheet.ProjectAssignment, error) {
	var a timesheet.ProjectAssignment
	var starts, ends, assignedAt string
	err := row.Scan(&a.ID, &a.ConsultantID, &a.ProjectID, &a.Position,
		&starts, &ends, &a.IsActive, &assignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &timesheet.NotFoundError{Kind: "assignment", ID: id}
	}
	if err != nil {
		return nil, persistence("scan assignment", err)
	}
	a.StartsAt = parseDate(starts)
	a.EndsAt = parseDate(ends)
	a.AssignedAt = parseTime(assignedAt)
	return &a, nil
}

func (q *queries) ListAssignmentsByConsultant(ctx context.Context, consultantID timesheet.ConsultantID, activeOnly bool) ([]timesheet.ProjectAssignment, error) {
	query := `
		SELECT id, consultant_id, project_id, position, starts_at, ends_at, is_active, assigned_at
		FROM project_assignments WHERE consultant_id = ?`
	if activeOnly {
		query += " AND is_active"
	}
	query += " ORDER BY assigned_at"

	rows, err := q.db.QueryContext(ctx, query, consultantID)
	if err != nil {
		return nil, persistence("list assignments", err)
	}
	defer rows.Close()

	var out []timesheet.ProjectAssignment
	for rows.Next() {
		var a timesheet.ProjectAssignment
		var starts, ends, assignedAt string
		if err := rows.Scan(&a.ID, &a.ConsultantID, &a.ProjectID, &a.Position,
			&starts, &ends, &a.IsActive, &assignedAt); err != nil {
			return nil, persistence("scan assignment", err)
		}
		a.StartsAt = parseDate(starts)
		a.EndsAt = parseDate(ends)
		a.AssignedAt = parseTime(assignedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// ABSENCE REQUESTS
// =============================================================================

func (q *queries) InsertAbsenceRequest(ctx context.Context, r *timesheet.AbsenceRequest) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO absence_requests
			(reference, consultant_id, type, commentary, justification, status,
			 assignment_id, reviewed_by, reviewed_at, hr_comments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Reference, r.ConsultantID, r.Type, r.Commentary, r.Justification, r.Status,
		nullID(r.AssignmentID), r.ReviewedBy, nullTime(r.ReviewedAt), r.HRComments,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("request reference %q already exists: %w", r.Reference, timesheet.ErrConflict)
		}
		return persistence("insert absence request", err)
	}
	id, _ := res.LastInsertId()
	r.ID = timesheet.RequestID(id)
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (q *queries) UpdateAbsenceRequest(ctx context.Context, r *timesheet.AbsenceRequest) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE absence_requests
		SET type = ?, commentary = ?, justification = ?, status = ?,
		    reviewed_by = ?, reviewed_at = ?, hr_comments = ?, updated_at = ?
		WHERE id = ?`,
		r.Type, r.Commentary, r.Justification, r.Status,
		r.ReviewedBy, nullTime(r.ReviewedAt), r.HRComments, now.Format(time.RFC3339),
		r.ID,
	)
	if err != nil {
		return persistence("update absence request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "absence request", ID: int64(r.ID)}
	}
	r.UpdatedAt = now
	return nil
}

func (q *queries) GetAbsenceRequest(ctx context.Context, id timesheet.RequestID) (*timesheet.AbsenceRequest, error) {
	var r timesheet.AbsenceRequest
	var assignmentID sql.NullInt64
	var reviewedBy, commentary, justification, hrComments sql.NullString
	var reviewedAt sql.NullString
	var createdAt, updatedAt string
	err := q.db.QueryRowContext(ctx, `
		SELECT id, reference, consultant_id, type, commentary, justification, status,
		       assignment_id, reviewed_by, reviewed_at, hr_comments, created_at, updated_at
		FROM absence_requests WHERE id = ?`, id,
	).Scan(&r.ID, &r.Reference, &r.ConsultantID, &r.Type, &commentary, &justification,
		&r.Status, &assignmentID, &reviewedBy, &reviewedAt, &hrComments, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &timesheet.NotFoundError{Kind: "absence request", ID: int64(id)}
	}
	if err != nil {
		return nil, persistence("scan absence request", err)
	}
	r.Commentary = commentary.String
	r.Justification = justification.String
	r.ReviewedBy = reviewedBy.String
	r.HRComments = hrComments.String
	if assignmentID.Valid {
		aid := timesheet.AssignmentID(assignmentID.Int64)
		r.AssignmentID = &aid
	}
	if reviewedAt.Valid {
		t := parseTime(reviewedAt.String)
		r.ReviewedAt = &t
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)

	days, err := q.listDaysByRequest(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Days = days
	return &r, nil
}

func (q *queries) ListAbsenceRequests(ctx context.Context, f timesheet.AbsenceRequestFilter) ([]timesheet.AbsenceRequest, error) {
	query := "SELECT id FROM absence_requests"
	var conds []string
	var args []any
	if f.ConsultantID != 0 {
		conds = append(conds, "consultant_id = ?")
		args = append(args, f.ConsultantID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence("list absence requests", err)
	}
	var ids []timesheet.RequestID
	for rows.Next() {
		var id timesheet.RequestID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, persistence("scan absence request id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]timesheet.AbsenceRequest, 0, len(ids))
	for _, id := range ids {
		r, err := q.GetAbsenceRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func (q *queries) DeleteAbsenceRequestRow(ctx context.Context, id timesheet.RequestID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM absence_requests WHERE id = ?", id)
	if err != nil {
		return persistence("delete absence request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "absence request", ID: int64(id)}
	}
	return nil
}

// =============================================================================
// ABSENCE REQUEST DAYS
// =============================================================================

func (q *queries) InsertAbsenceDays(ctx context.Context, days []timesheet.AbsenceRequestDay) error {
	now := time.Now().UTC()
	for i := range days {
		d := &days[i]
		res, err := q.db.ExecContext(ctx, `
			INSERT INTO absence_request_days (request_id, date, amount, status, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			d.RequestID, d.Date.String(), d.Amount.String(), d.Status, now.Format(time.RFC3339),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return &timesheet.DayConflictError{Dates: []timesheet.Date{d.Date}}
			}
			return persistence("insert absence day", err)
		}
		id, _ := res.LastInsertId()
		d.ID = timesheet.DayID(id)
		d.CreatedAt = now
	}
	return nil
}

func (q *queries) UpdateAbsenceDayStatus(ctx context.Context, id timesheet.DayID, status timesheet.RequestStatus) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE absence_request_days SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return persistence("update absence day", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "absence day", ID: int64(id)}
	}
	return nil
}

func (q *queries) DeleteAbsenceDaysByRequest(ctx context.Context, requestID timesheet.RequestID) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM absence_request_days WHERE request_id = ?", requestID)
	if err != nil {
		return persistence("delete absence days", err)
	}
	return nil
}

func (q *queries) listDaysByRequest(ctx context.Context, requestID timesheet.RequestID) ([]timesheet.AbsenceRequestDay, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, request_id, date, amount, status, created_at
		FROM absence_request_days WHERE request_id = ? ORDER BY date ASC`, requestID)
	if err != nil {
		return nil, persistence("list absence days", err)
	}
	defer rows.Close()

	var out []timesheet.AbsenceRequestDay
	for rows.Next() {
		var d timesheet.AbsenceRequestDay
		var date, amount, createdAt string
		if err := rows.Scan(&d.ID, &d.RequestID, &date, &amount, &d.Status, &createdAt); err != nil {
			return nil, persistence("scan absence day", err)
		}
		d.Date = parseDate(date)
		d.Amount = timesheet.MustParseDecimal(amount)
		d.CreatedAt = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (q *queries) ListAbsenceClaims(ctx context.Context, consultantID timesheet.ConsultantID, from, to timesheet.Date) ([]timesheet.AbsenceClaim, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT d.id, d.request_id, r.reference, d.date, d.amount, d.status, r.type
		FROM absence_request_days d
		JOIN absence_requests r ON r.id = d.request_id
		WHERE r.consultant_id = ? AND d.date >= ? AND d.date <= ?
		ORDER BY d.date ASC`,
		consultantID, from.String(), to.String())
	if err != nil {
		return nil, persistence("list absence claims", err)
	}
	defer rows.Close()

	var out []timesheet.AbsenceClaim
	for rows.Next() {
		var c timesheet.AbsenceClaim
		var date, amount string
		if err := rows.Scan(&c.DayID, &c.RequestID, &c.Reference, &date, &amount, &c.Status, &c.Type); err != nil {
			return nil, persistence("scan absence claim", err)
		}
		c.Date = parseDate(date)
		c.Amount = timesheet.MustParseDecimal(amount)
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// MONTHLY TIMESHEETS
// =============================================================================

func (q *queries) InsertMonthlyTimesheet(ctx context.Context, ts *timesheet.MonthlyTimesheet) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO monthly_timesheets
			(reference, consultant_id, month, year, description, status,
			 reviewed_by, reviewed_at, manager_comments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Reference, ts.ConsultantID, int(ts.Month), ts.Year, ts.Description, ts.Status,
		ts.ReviewedBy, nullTime(ts.ReviewedAt), ts.ManagerComments,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &timesheet.DuplicatePeriodError{
				ConsultantID: ts.ConsultantID, Year: ts.Year, Month: int(ts.Month),
			}
		}
		return persistence("insert timesheet", err)
	}
	id, _ := res.LastInsertId()
	ts.ID = timesheet.TimesheetID(id)
	ts.CreatedAt = now
	ts.UpdatedAt = now
	return nil
}

const timesheetColumns = `id, reference, consultant_id, month, year, description, status,
	reviewed_by, reviewed_at, manager_comments, created_at, updated_at`

func (q *queries) GetMonthlyTimesheet(ctx context.Context, id timesheet.TimesheetID) (*timesheet.MonthlyTimesheet, error) {
	return q.scanTimesheetRow(q.db.QueryRowContext(ctx,
		"SELECT "+timesheetColumns+" FROM monthly_timesheets WHERE id = ?", id), int64(id))
}

func (q *queries) GetMonthlyTimesheetByPeriod(ctx context.Context, consultantID timesheet.ConsultantID, year int, month int) (*timesheet.MonthlyTimesheet, error) {
	return q.scanTimesheetRow(q.db.QueryRowContext(ctx,
		"SELECT "+timesheetColumns+" FROM monthly_timesheets WHERE consultant_id = ? AND year = ? AND month = ?",
		consultantID, year, month), 0)
}

func (q *queries) scanTimesheetRow(row *sql.Row, id int64) (*timesheet.MonthlyTimesheet, error) {
	ts, err := scanTimesheet(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &timesheet.NotFoundError{Kind: "timesheet", ID: id}
	}
	if err != nil {
		return nil, persistence("scan timesheet", err)
	}
	return ts, nil
}

func scanTimesheet(scan func(...any) error) (*timesheet.MonthlyTimesheet, error) {
	var ts timesheet.MonthlyTimesheet
	var month int
	var description, reviewedBy, reviewedAt, managerComments sql.NullString
	var createdAt, updatedAt string
	err := scan(&ts.ID, &ts.Reference, &ts.ConsultantID, &month, &ts.Year,
		&description, &ts.Status, &reviewedBy, &reviewedAt, &managerComments,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	ts.Month = time.Month(month)
	ts.Description = description.String
	ts.ReviewedBy = reviewedBy.String
	ts.ManagerComments = managerComments.String
	if reviewedAt.Valid {
		t := parseTime(reviewedAt.String)
		ts.ReviewedAt = &t
	}
	ts.CreatedAt = parseTime(createdAt)
	ts.UpdatedAt = parseTime(updatedAt)
	return &ts, nil
}

func (q *queries) ListMonthlyTimesheets(ctx context.Context, year int, month int, excludeSaved bool) ([]timesheet.MonthlyTimesheet, error) {
	query := "SELECT " + timesheetColumns + " FROM monthly_timesheets WHERE year = ? AND month = ?"
	if excludeSaved {
		query += " AND status != 'saved'"
	}
	query += " ORDER BY consultant_id"
	return q.queryTimesheets(ctx, query, year, month)
}

func (q *queries) ListTimesheetsByConsultant(ctx context.Context, consultantID timesheet.ConsultantID) ([]timesheet.MonthlyTimesheet, error) {
	query := "SELECT " + timesheetColumns + ` FROM monthly_timesheets
		WHERE consultant_id = ? ORDER BY year DESC, month DESC`
	return q.queryTimesheets(ctx, query, consultantID)
}

func (q *queries) queryTimesheets(ctx context.Context, query string, args ...any) ([]timesheet.MonthlyTimesheet, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence("list timesheets", err)
	}
	defer rows.Close()

	var out []timesheet.MonthlyTimesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows.Scan)
		if err != nil {
			return nil, persistence("scan timesheet", err)
		}
		out = append(out, *ts)
	}
	return out, rows.Err()
}

func (q *queries) UpdateMonthlyTimesheetStatus(ctx context.Context, id timesheet.TimesheetID, status timesheet.TimesheetStatus) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE monthly_timesheets SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return persistence("update timesheet status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "timesheet", ID: int64(id)}
	}
	return nil
}

func (q *queries) UpdateMonthlyTimesheet(ctx context.Context, ts *timesheet.MonthlyTimesheet) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE monthly_timesheets
		SET description = ?, status = ?, reviewed_by = ?, reviewed_at = ?,
		    manager_comments = ?, updated_at = ?
		WHERE id = ?`,
		ts.Description, ts.Status, ts.ReviewedBy, nullTime(ts.ReviewedAt),
		ts.ManagerComments, now.Format(time.RFC3339), ts.ID,
	)
	if err != nil {
		return persistence("update timesheet", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "timesheet", ID: int64(ts.ID)}
	}
	ts.UpdatedAt = now
	return nil
}

func (q *queries) DeleteMonthlyTimesheetRow(ctx context.Context, id timesheet.TimesheetID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM monthly_timesheets WHERE id = ?", id)
	if err != nil {
		return persistence("delete timesheet", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "timesheet", ID: int64(id)}
	}
	return nil
}

// =============================================================================
// DAILY ENTRIES
// =============================================================================

const entryColumns = `id, timesheet_id, consultant_id, date, activity, amount,
	mission_id, mission_activity, astreinte_location, astreinte_kind,
	internal_activity, absence_type, absence_request_id, description, status,
	created_at, updated_at`

func (q *queries) InsertDailyEntry(ctx context.Context, e *timesheet.DailyTimesheetEntry) error {
	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO daily_entries
			(timesheet_id, consultant_id, date, activity, amount,
			 mission_id, mission_activity, astreinte_location, astreinte_kind,
			 internal_activity, absence_type, absence_request_id, description, status,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TimesheetID, e.ConsultantID, e.Date.String(), e.Activity, e.Amount.String(),
		nullID(e.MissionID), nullEnum(e.MissionActivity), nullEnum(e.AstreinteLocation),
		nullEnum(e.AstreinteKind), nullEnum(e.InternalActivity), nullEnum(e.AbsenceType),
		nullID(e.AbsenceRequestID), e.Description, e.Status,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return persistence("insert daily entry", err)
	}
	id, _ := res.LastInsertId()
	e.ID = timesheet.EntryID(id)
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

func (q *queries) ListEntriesForDate(ctx context.Context, consultantID timesheet.ConsultantID, date timesheet.Date) ([]timesheet.DailyTimesheetEntry, error) {
	// id ASC: reconciliation shrinks and deletes in insertion order.
	return q.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM daily_entries WHERE consultant_id = ? AND date = ? ORDER BY id ASC",
		consultantID, date.String())
}

func (q *queries) ListEntriesForTimesheet(ctx context.Context, id timesheet.TimesheetID) ([]timesheet.DailyTimesheetEntry, error) {
	return q.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM daily_entries WHERE timesheet_id = ? ORDER BY date ASC, id ASC", id)
}

func (q *queries) ListEntriesByRequest(ctx context.Context, requestID timesheet.RequestID) ([]timesheet.DailyTimesheetEntry, error) {
	return q.queryEntries(ctx,
		"SELECT "+entryColumns+" FROM daily_entries WHERE absence_request_id = ? ORDER BY date ASC, id ASC", requestID)
}

func (q *queries) queryEntries(ctx context.Context, query string, args ...any) ([]timesheet.DailyTimesheetEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence("list daily entries", err)
	}
	defer rows.Close()

	var out []timesheet.DailyTimesheetEntry
	for rows.Next() {
		var e timesheet.DailyTimesheetEntry
		var date, amount string
		var missionID, requestID sql.NullInt64
		var missionActivity, astreinteLocation, astreinteKind sql.NullString
		var internalActivity, absenceType, description sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.TimesheetID, &e.ConsultantID, &date, &e.Activity, &amount,
			&missionID, &missionActivity, &astreinteLocation, &astreinteKind,
			&internalActivity, &absenceType, &requestID, &description, &e.Status,
			&createdAt, &updatedAt); err != nil {
			return nil, persistence("scan daily entry", err)
		}
		e.Date = parseDate(date)
		e.Amount = timesheet.MustParseDecimal(amount)
		if missionID.Valid {
			id := timesheet.AssignmentID(missionID.Int64)
			e.MissionID = &id
		}
		if missionActivity.Valid {
			v := timesheet.ProjectActivityType(missionActivity.String)
			e.MissionActivity = &v
		}
		if astreinteLocation.Valid {
			v := timesheet.AstreinteLocation(astreinteLocation.String)
			e.AstreinteLocation = &v
		}
		if astreinteKind.Valid {
			v := timesheet.AstreinteKind(astreinteKind.String)
			e.AstreinteKind = &v
		}
		if internalActivity.Valid {
			v := timesheet.InternalActivityType(internalActivity.String)
			e.InternalActivity = &v
		}
		if absenceType.Valid {
			v := timesheet.AbsenceType(absenceType.String)
			e.AbsenceType = &v
		}
		if requestID.Valid {
			id := timesheet.RequestID(requestID.Int64)
			e.AbsenceRequestID = &id
		}
		e.Description = description.String
		e.CreatedAt = parseTime(createdAt)
		e.UpdatedAt = parseTime(updatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *queries) UpdateDailyEntryAmount(ctx context.Context, id timesheet.EntryID, amount decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE daily_entries SET amount = ?, updated_at = ? WHERE id = ?",
		amount.String(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return persistence("update daily entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "daily entry", ID: int64(id)}
	}
	return nil
}

func (q *queries) DeleteDailyEntry(ctx context.Context, id timesheet.EntryID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM daily_entries WHERE id = ?", id)
	if err != nil {
		return persistence("delete daily entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &timesheet.NotFoundError{Kind: "daily entry", ID: int64(id)}
	}
	return nil
}

func (q *queries) DeleteEntriesByTimesheet(ctx context.Context, id timesheet.TimesheetID) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM daily_entries WHERE timesheet_id = ?", id)
	if err != nil {
		return persistence("delete daily entries", err)
	}
	return nil
}

func (q *queries) SetEntriesStatusByTimesheet(ctx context.Context, id timesheet.TimesheetID, status timesheet.TimesheetStatus) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE daily_entries SET status = ?, updated_at = ? WHERE timesheet_id = ?",
		status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return persistence("update daily entries", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, timesheet.ErrPersistence)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseDate(s string) timesheet.Date {
	d, _ := timesheet.ParseDate(s)
	return d
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// nullID converts an optional typed id to a nullable column value.
func nullID[T ~int64](id *T) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

// nullEnum converts an optional string-typed enum to a nullable column value.
func nullEnum[T ~string](v *T) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
