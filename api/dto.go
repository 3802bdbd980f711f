/*
dto.go - Request/response data structures

PURPOSE:
  Defines the JSON shapes crossing the HTTP boundary and their conversion
  to and from domain types. Structural validation (required fields, email
  format, value ranges) happens here via validator tags; business rules
  stay in the services.

CONVENTIONS:
  - Dates travel as "YYYY-MM-DD" strings
  - Amounts travel as JSON numbers or strings and are parsed into
    decimal.Decimal without float intermediaries
  - Optional category fields are pointers so absent and zero stay distinct

SEE ALSO:
  - handlers.go: Handler implementations using these DTOs
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/staffhub/timesheet-engine/timesheet"
)

var validate = validator.New()

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONSULTANTS / PROJECTS / ASSIGNMENTS
// =============================================================================

type CreateConsultantRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type ConsultantDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func toConsultantDTO(c *timesheet.Consultant) ConsultantDTO {
	return ConsultantDTO{
		ID:        int64(c.ID),
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

type CreateProjectRequest struct {
	Name            string `json:"name" validate:"required"`
	ClientCompany   string `json:"client_company" validate:"required"`
	RepresentedBy   string `json:"represented_by"`
	SupervisorEmail string `json:"supervisor_email" validate:"omitempty,email"`
	StartsAt        string `json:"starts_at" validate:"required"`
	EndsAt          string `json:"ends_at" validate:"required"`
}

type ProjectDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	ClientCompany   string `json:"client_company"`
	RepresentedBy   string `json:"represented_by,omitempty"`
	SupervisorEmail string `json:"supervisor_email,omitempty"`
	StartsAt        string `json:"starts_at"`
	EndsAt          string `json:"ends_at"`
	IsActive        bool   `json:"is_active"`
}

func toProjectDTO(p *timesheet.Project) ProjectDTO {
	return ProjectDTO{
		ID:              int64(p.ID),
		Name:            p.Name,
		ClientCompany:   p.ClientCompany,
		RepresentedBy:   p.RepresentedBy,
		SupervisorEmail: p.SupervisorEmail,
		StartsAt:        p.StartsAt.String(),
		EndsAt:          p.EndsAt.String(),
		IsActive:        p.IsActive,
	}
}

type CreateAssignmentRequest struct {
	ConsultantID int64  `json:"consultant_id" validate:"required"`
	ProjectID    int64  `json:"project_id" validate:"required"`
	Position     string `json:"position"`
	StartsAt     string `json:"starts_at" validate:"required"`
	EndsAt       string `json:"ends_at" validate:"required"`
}

type AssignmentDTO struct {
	ID           int64  `json:"id"`
	ConsultantID int64  `json:"consultant_id"`
	ProjectID    int64  `json:"project_id"`
	Position     string `json:"position,omitempty"`
	StartsAt     string `json:"starts_at"`
	EndsAt       string `json:"ends_at"`
	IsActive     bool   `json:"is_active"`
}

func toAssignmentDTO(a *timesheet.ProjectAssignment) AssignmentDTO {
	return AssignmentDTO{
		ID:           int64(a.ID),
		ConsultantID: int64(a.ConsultantID),
		ProjectID:    int64(a.ProjectID),
		Position:     a.Position,
		StartsAt:     a.StartsAt.String(),
		EndsAt:       a.EndsAt.String(),
		IsActive:     a.IsActive,
	}
}

// =============================================================================
// ABSENCE REQUESTS
// =============================================================================

type AbsenceDayRequest struct {
	Date   string      `json:"date" validate:"required"`
	Amount json.Number `json:"amount" validate:"required"`
}

type CreateAbsenceRequest struct {
	ConsultantID  int64               `json:"consultant_id" validate:"required"`
	Type          string              `json:"type" validate:"required"`
	Commentary    string              `json:"commentary"`
	Justification string              `json:"justification"`
	AssignmentID  *int64              `json:"assignment_id"`
	Status        string              `json:"status"`
	Days          []AbsenceDayRequest `json:"days" validate:"required,min=1,dive"`
}

type UpdateAbsenceRequest struct {
	Type          string              `json:"type" validate:"required"`
	Commentary    string              `json:"commentary"`
	Justification string              `json:"justification"`
	UpdatedBy     string              `json:"updated_by"`
	Days          []AbsenceDayRequest `json:"days" validate:"required,min=1,dive"`
}

type DayDecisionRequest struct {
	DayID  int64  `json:"day_id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=accepted refused"`
}

type ReviewAbsenceRequest struct {
	ReviewedBy string               `json:"reviewed_by" validate:"required"`
	Comments   string               `json:"comments"`
	Decisions  []DayDecisionRequest `json:"decisions" validate:"required,min=1,dive"`
}

type AbsenceDayDTO struct {
	ID     int64           `json:"id"`
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

type AbsenceRequestDTO struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	ConsultantID  int64           `json:"consultant_id"`
	Type          string          `json:"type"`
	Commentary    string          `json:"commentary,omitempty"`
	Justification string          `json:"justification,omitempty"`
	Status        string          `json:"status"`
	AssignmentID  *int64          `json:"assignment_id,omitempty"`
	ReviewedBy    string          `json:"reviewed_by,omitempty"`
	ReviewedAt    *string         `json:"reviewed_at,omitempty"`
	HRComments    string          `json:"hr_comments,omitempty"`
	TotalDays     decimal.Decimal `json:"total_days"`
	Days          []AbsenceDayDTO `json:"days"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

func toAbsenceRequestDTO(r *timesheet.AbsenceRequest) AbsenceRequestDTO {
	dto := AbsenceRequestDTO{
		ID:            int64(r.ID),
		Reference:     r.Reference,
		ConsultantID:  int64(r.ConsultantID),
		Type:          string(r.Type),
		Commentary:    r.Commentary,
		Justification: r.Justification,
		Status:        string(r.Status),
		ReviewedBy:    r.ReviewedBy,
		HRComments:    r.HRComments,
		TotalDays:     r.TotalDays(),
		Days:          make([]AbsenceDayDTO, 0, len(r.Days)),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
	if r.AssignmentID != nil {
		id := int64(*r.AssignmentID)
		dto.AssignmentID = &id
	}
	if r.ReviewedAt != nil {
		s := r.ReviewedAt.Format(time.RFC3339)
		dto.ReviewedAt = &s
	}
	for _, d := range r.Days {
		dto.Days = append(dto.Days, AbsenceDayDTO{
			ID:     int64(d.ID),
			Date:   d.Date.String(),
			Amount: d.Amount,
			Status: string(d.Status),
		})
	}
	return dto
}

type AbsenceClaimDTO struct {
	RequestID int64           `json:"request_id"`
	Reference string          `json:"reference"`
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	Type      string          `json:"type"`
}

func toAbsenceClaimDTOs(claims []timesheet.AbsenceClaim) []AbsenceClaimDTO {
	out := make([]AbsenceClaimDTO, 0, len(claims))
	for _, c := range claims {
		out = append(out, AbsenceClaimDTO{
			RequestID: int64(c.RequestID),
			Reference: c.Reference,
			Date:      c.Date.String(),
			Amount:    c.Amount,
			Status:    string(c.Status),
			Type:      string(c.Type),
		})
	}
	return out
}

// =============================================================================
// TIMESHEETS
// =============================================================================

type EntryRequest struct {
	Date              string      `json:"date" validate:"required"`
	Activity          string      `json:"activity" validate:"required"`
	Amount            json.Number `json:"amount" validate:"required"`
	MissionID         *int64      `json:"mission_id"`
	MissionActivity   *string     `json:"mission_activity"`
	AstreinteLocation *string     `json:"astreinte_location"`
	AstreinteKind     *string     `json:"astreinte_kind"`
	InternalActivity  *string     `json:"internal_activity"`
	AbsenceType       *string     `json:"absence_type"`
	AbsenceRequestID  *int64      `json:"absence_request_id"`
	Description       string      `json:"description"`
}

type CreateTimesheetRequest struct {
	ConsultantID int64          `json:"consultant_id" validate:"required"`
	Month        int            `json:"month" validate:"required,min=1,max=12"`
	Year         int            `json:"year" validate:"required"`
	Description  string         `json:"description"`
	Status       string         `json:"status"`
	Entries      []EntryRequest `json:"entries" validate:"dive"`
}

type UpdateTimesheetStatusRequest struct {
	TimesheetID int64  `json:"timesheet_id" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=pending validated refused"`
	ReviewedBy  string `json:"reviewed_by"`
	Comments    string `json:"comments"`
}

type TimesheetDTO struct {
	ID              int64   `json:"id"`
	Reference       string  `json:"reference"`
	ConsultantID    int64   `json:"consultant_id"`
	Month           int     `json:"month"`
	Year            int     `json:"year"`
	Description     string  `json:"description,omitempty"`
	Status          string  `json:"status"`
	ReviewedBy      string  `json:"reviewed_by,omitempty"`
	ReviewedAt      *string `json:"reviewed_at,omitempty"`
	ManagerComments string  `json:"manager_comments,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toTimesheetDTO(ts *timesheet.MonthlyTimesheet) TimesheetDTO {
	dto := TimesheetDTO{
		ID:              int64(ts.ID),
		Reference:       ts.Reference,
		ConsultantID:    int64(ts.ConsultantID),
		Month:           int(ts.Month),
		Year:            ts.Year,
		Description:     ts.Description,
		Status:          string(ts.Status),
		ReviewedBy:      ts.ReviewedBy,
		ManagerComments: ts.ManagerComments,
		CreatedAt:       ts.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       ts.UpdatedAt.Format(time.RFC3339),
	}
	if ts.ReviewedAt != nil {
		s := ts.ReviewedAt.Format(time.RFC3339)
		dto.ReviewedAt = &s
	}
	return dto
}

type EntryDTO struct {
	ID                int64           `json:"id"`
	Date              string          `json:"date"`
	Activity          string          `json:"activity"`
	Amount            decimal.Decimal `json:"amount"`
	MissionID         *int64          `json:"mission_id,omitempty"`
	MissionActivity   *string         `json:"mission_activity,omitempty"`
	AstreinteLocation *string         `json:"astreinte_location,omitempty"`
	AstreinteKind     *string         `json:"astreinte_kind,omitempty"`
	InternalActivity  *string         `json:"internal_activity,omitempty"`
	AbsenceType       *string         `json:"absence_type,omitempty"`
	AbsenceRequestID  *int64          `json:"absence_request_id,omitempty"`
	Description       string          `json:"description,omitempty"`
	Status            string          `json:"status"`
}

func toEntryDTO(e *timesheet.DailyTimesheetEntry) EntryDTO {
	dto := EntryDTO{
		ID:          int64(e.ID),
		Date:        e.Date.String(),
		Activity:    string(e.Activity),
		Amount:      e.Amount,
		Description: e.Description,
		Status:      string(e.Status),
	}
	if e.MissionID != nil {
		v := int64(*e.MissionID)
		dto.MissionID = &v
	}
	if e.MissionActivity != nil {
		v := string(*e.MissionActivity)
		dto.MissionActivity = &v
	}
	if e.AstreinteLocation != nil {
		v := string(*e.AstreinteLocation)
		dto.AstreinteLocation = &v
	}
	if e.AstreinteKind != nil {
		v := string(*e.AstreinteKind)
		dto.AstreinteKind = &v
	}
	if e.InternalActivity != nil {
		v := string(*e.InternalActivity)
		dto.InternalActivity = &v
	}
	if e.AbsenceType != nil {
		v := string(*e.AbsenceType)
		dto.AbsenceType = &v
	}
	if e.AbsenceRequestID != nil {
		v := int64(*e.AbsenceRequestID)
		dto.AbsenceRequestID = &v
	}
	return dto
}

func toEntryDTOs(entries []timesheet.DailyTimesheetEntry) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryDTO(&entries[i]))
	}
	return out
}

type MissionGroupDTO struct {
	MissionID     int64           `json:"mission_id"`
	ProjectName   string          `json:"project_name"`
	ClientCompany string          `json:"client_company"`
	Entries       []EntryDTO      `json:"entries"`
	TotalDays     decimal.Decimal `json:"total_days"`
	AstreinteDays decimal.Decimal `json:"astreinte_days"`
}

type InternalGroupDTO struct {
	Activity  string          `json:"activity"`
	Entries   []EntryDTO      `json:"entries"`
	TotalDays decimal.Decimal `json:"total_days"`
}

type AbsenceGroupDTO struct {
	Type      string          `json:"type"`
	Entries   []EntryDTO      `json:"entries"`
	TotalDays decimal.Decimal `json:"total_days"`
}

type TimesheetViewDTO struct {
	Timesheet TimesheetDTO       `json:"timesheet"`
	Missions  []MissionGroupDTO  `json:"missions"`
	Internal  []InternalGroupDTO `json:"internal"`
	Absences  []AbsenceGroupDTO  `json:"absences"`
	TotalDays decimal.Decimal    `json:"total_days"`
}

func toTimesheetViewDTO(v *timesheet.TimesheetView) TimesheetViewDTO {
	dto := TimesheetViewDTO{
		Timesheet: toTimesheetDTO(v.Timesheet),
		Missions:  make([]MissionGroupDTO, 0, len(v.Missions)),
		Internal:  make([]InternalGroupDTO, 0, len(v.Internal)),
		Absences:  make([]AbsenceGroupDTO, 0, len(v.Absences)),
		TotalDays: v.TotalDays,
	}
	for _, g := range v.Missions {
		dto.Missions = append(dto.Missions, MissionGroupDTO{
			MissionID:     int64(g.MissionID),
			ProjectName:   g.ProjectName,
			ClientCompany: g.ClientCompany,
			Entries:       toEntryDTOs(g.Entries),
			TotalDays:     g.TotalDays,
			AstreinteDays: g.AstreinteDays,
		})
	}
	for _, g := range v.Internal {
		dto.Internal = append(dto.Internal, InternalGroupDTO{
			Activity:  string(g.Activity),
			Entries:   toEntryDTOs(g.Entries),
			TotalDays: g.TotalDays,
		})
	}
	for _, g := range v.Absences {
		dto.Absences = append(dto.Absences, AbsenceGroupDTO{
			Type:      string(g.Type),
			Entries:   toEntryDTOs(g.Entries),
			TotalDays: g.TotalDays,
		})
	}
	return dto
}

type TimesheetSummaryDTO struct {
	Timesheet     TimesheetDTO    `json:"timesheet"`
	DeclaredDays  decimal.Decimal `json:"declared_days"`
	PresenceRatio decimal.Decimal `json:"presence_ratio"`
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseAmount(n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, &timesheet.FieldError{Field: "amount", Reason: "not a number"}
	}
	return d, nil
}

func parseDateField(field, value string) (timesheet.Date, error) {
	d, err := timesheet.ParseDate(value)
	if err != nil {
		return timesheet.Date{}, &timesheet.FieldError{Field: field, Reason: "use YYYY-MM-DD"}
	}
	return d, nil
}
