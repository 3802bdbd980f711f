/*
handlers.go - HTTP handlers for the timesheet engine

PURPOSE:
  Exposes the absence lifecycle and monthly timesheet services over REST.
  Handles HTTP request/response, JSON serialization, and delegates every
  business decision to the domain services.

REQUEST FLOW:
  1. Decode and structurally validate the payload (validator tags)
  2. Parse dates and amounts into domain types
  3. Call the service
  4. Serialize the response / map the error

ERROR HANDLING:
  Domain errors map to HTTP status by sentinel:
  - ErrValidation      -> 400
  - ErrNotFound        -> 404
  - ErrConflict        -> 409
  - ErrPolicyViolation -> 422
  - anything else      -> 500

SECURITY NOTE:
  No authentication middleware. Caller identity travels in payloads
  (reviewed_by, updated_by); an auth layer would replace that.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/staffhub/timesheet-engine/absence"
	"github.com/staffhub/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   timesheet.TxStore
	Absence *absence.Service
	Monthly *timesheet.MonthlyService
	Log     logrus.FieldLogger
}

// NewHandler creates a handler wired to the given store and services.
func NewHandler(store timesheet.TxStore, abs *absence.Service, monthly *timesheet.MonthlyService, log logrus.FieldLogger) *Handler {
	return &Handler{Store: store, Absence: abs, Monthly: monthly, Log: log}
}

// =============================================================================
// CONSULTANT HANDLERS
// =============================================================================

// CreateConsultant registers a consultant.
// POST /api/consultants
func (h *Handler) CreateConsultant(w http.ResponseWriter, r *http.Request) {
	var req CreateConsultantRequest
	if !h.decode(w, r, &req) {
		return
	}
	c := &timesheet.Consultant{Name: req.Name, Email: req.Email}
	if err := h.Store.CreateConsultant(r.Context(), c); err != nil {
		h.writeDomainError(w, "Failed to create consultant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toConsultantDTO(c))
}

// ListConsultants returns all consultants.
// GET /api/consultants
func (h *Handler) ListConsultants(w http.ResponseWriter, r *http.Request) {
	consultants, err := h.Store.ListConsultants(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list consultants", err)
		return
	}
	dtos := make([]ConsultantDTO, 0, len(consultants))
	for i := range consultants {
		dtos = append(dtos, toConsultantDTO(&consultants[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConsultant returns one consultant.
// GET /api/consultants/{id}
func (h *Handler) GetConsultant(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Store.GetConsultant(r.Context(), timesheet.ConsultantID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get consultant", err)
		return
	}
	writeJSON(w, http.StatusOK, toConsultantDTO(c))
}

// =============================================================================
// PROJECT / ASSIGNMENT HANDLERS
// =============================================================================

// CreateProject registers a client project.
// POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	starts, err := parseDateField("starts_at", req.StartsAt)
	if err != nil {
		h.writeDomainError(w, "Invalid project window", err)
		return
	}
	ends, err := parseDateField("ends_at", req.EndsAt)
	if err != nil {
		h.writeDomainError(w, "Invalid project window", err)
		return
	}
	if ends.Before(starts) {
		h.writeDomainError(w, "Invalid project window",
			&timesheet.FieldError{Field: "ends_at", Reason: "before starts_at"})
		return
	}

	p := &timesheet.Project{
		Name:            req.Name,
		ClientCompany:   req.ClientCompany,
		RepresentedBy:   req.RepresentedBy,
		SupervisorEmail: req.SupervisorEmail,
		StartsAt:        starts,
		EndsAt:          ends,
		IsActive:        true,
	}
	if err := h.Store.CreateProject(r.Context(), p); err != nil {
		h.writeDomainError(w, "Failed to create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

// ListProjects returns active projects.
// GET /api/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListActiveProjects(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list projects", err)
		return
	}
	dtos := make([]ProjectDTO, 0, len(projects))
	for i := range projects {
		dtos = append(dtos, toProjectDTO(&projects[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssignment links a consultant to a project. Re-assigning an existing
// pair updates the window and reactivates it instead of creating a second
// row. The assignment window must nest within the project window.
// POST /api/project-assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	starts, err := parseDateField("starts_at", req.StartsAt)
	if err != nil {
		h.writeDomainError(w, "Invalid assignment window", err)
		return
	}
	ends, err := parseDateField("ends_at", req.EndsAt)
	if err != nil {
		h.writeDomainError(w, "Invalid assignment window", err)
		return
	}
	if ends.Before(starts) {
		h.writeDomainError(w, "Invalid assignment window",
			&timesheet.FieldError{Field: "ends_at", Reason: "before starts_at"})
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetConsultant(ctx, timesheet.ConsultantID(req.ConsultantID)); err != nil {
		h.writeDomainError(w, "Failed to create assignment", err)
		return
	}
	project, err := h.Store.GetProject(ctx, timesheet.ProjectID(req.ProjectID))
	if err != nil {
		h.writeDomainError(w, "Failed to create assignment", err)
		return
	}
	if !project.IsActive {
		h.writeDomainError(w, "Failed to create assignment",
			&timesheet.FieldError{Field: "project_id", Reason: "project is inactive"})
		return
	}
	if starts.Before(project.StartsAt) || ends.After(project.EndsAt) {
		h.writeDomainError(w, "Failed to create assignment",
			&timesheet.FieldError{Field: "starts_at", Reason: "assignment window exceeds project window"})
		return
	}

	a := &timesheet.ProjectAssignment{
		ConsultantID: timesheet.ConsultantID(req.ConsultantID),
		ProjectID:    timesheet.ProjectID(req.ProjectID),
		Position:     req.Position,
		StartsAt:     starts,
		EndsAt:       ends,
		IsActive:     true,
	}
	if err := h.Store.SaveAssignment(ctx, a); err != nil {
		h.writeDomainError(w, "Failed to create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// ListConsultantProjects returns a consultant's active assignments.
// GET /api/consultants/{id}/projects
func (h *Handler) ListConsultantProjects(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.Store.GetConsultant(r.Context(), timesheet.ConsultantID(id)); err != nil {
		h.writeDomainError(w, "Failed to list assignments", err)
		return
	}
	assignments, err := h.Store.ListAssignmentsByConsultant(r.Context(), timesheet.ConsultantID(id), true)
	if err != nil {
		h.writeDomainError(w, "Failed to list assignments", err)
		return
	}
	dtos := make([]AssignmentDTO, 0, len(assignments))
	for i := range assignments {
		dtos = append(dtos, toAssignmentDTO(&assignments[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ABSENCE REQUEST HANDLERS
// =============================================================================

// CreateAbsenceRequest submits a new absence request.
// POST /api/absence-requests
func (h *Handler) CreateAbsenceRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateAbsenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	days, err := parseDays(req.Days)
	if err != nil {
		h.writeDomainError(w, "Invalid day list", err)
		return
	}
	in := absence.CreateInput{
		ConsultantID:  timesheet.ConsultantID(req.ConsultantID),
		Type:          timesheet.AbsenceType(req.Type),
		Commentary:    req.Commentary,
		Justification: req.Justification,
		Status:        timesheet.RequestStatus(req.Status),
		Days:          days,
	}
	if req.AssignmentID != nil {
		id := timesheet.AssignmentID(*req.AssignmentID)
		in.AssignmentID = &id
	}
	created, err := h.Absence.Create(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, "Failed to create absence request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAbsenceRequestDTO(created))
}

// ListAbsenceRequests returns requests, optionally filtered by status and
// consultant.
// GET /api/absence-requests?status=&consultant_id=
func (h *Handler) ListAbsenceRequests(w http.ResponseWriter, r *http.Request) {
	f := timesheet.AbsenceRequestFilter{
		Status: timesheet.RequestStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("consultant_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid consultant_id", err)
			return
		}
		f.ConsultantID = timesheet.ConsultantID(id)
	}
	requests, err := h.Absence.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, "Failed to list absence requests", err)
		return
	}
	dtos := make([]AbsenceRequestDTO, 0, len(requests))
	for i := range requests {
		dtos = append(dtos, toAbsenceRequestDTO(&requests[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAbsenceRequest returns one request with its day list.
// GET /api/absence-requests/{id}
func (h *Handler) GetAbsenceRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, err := h.Absence.Get(r.Context(), timesheet.RequestID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get absence request", err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceRequestDTO(req))
}

// UpdateAbsenceRequest reshapes a request and resets it to pending.
// PUT /api/absence-requests/{id}
func (h *Handler) UpdateAbsenceRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateAbsenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	days, err := parseDays(req.Days)
	if err != nil {
		h.writeDomainError(w, "Invalid day list", err)
		return
	}
	updated, err := h.Absence.Update(r.Context(), timesheet.RequestID(id), absence.UpdateInput{
		Type:          timesheet.AbsenceType(req.Type),
		Commentary:    req.Commentary,
		Justification: req.Justification,
		UpdatedBy:     req.UpdatedBy,
		Days:          days,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update absence request", err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceRequestDTO(updated))
}

// ReviewAbsenceRequest applies HR's per-day decisions.
// PUT /api/absence-requests/{id}/review
func (h *Handler) ReviewAbsenceRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req ReviewAbsenceRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := absence.ReviewInput{
		ReviewedBy: req.ReviewedBy,
		Comments:   req.Comments,
		Decisions:  make([]absence.DayDecision, 0, len(req.Decisions)),
	}
	for _, d := range req.Decisions {
		in.Decisions = append(in.Decisions, absence.DayDecision{
			DayID:  timesheet.DayID(d.DayID),
			Status: timesheet.RequestStatus(d.Status),
		})
	}
	reviewed, err := h.Absence.Review(r.Context(), timesheet.RequestID(id), in)
	if err != nil {
		h.writeDomainError(w, "Failed to review absence request", err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceRequestDTO(reviewed))
}

// DeleteAbsenceRequest removes a request and its materialized entries.
// DELETE /api/absence-requests/{id}
func (h *Handler) DeleteAbsenceRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	months, err := h.Absence.Delete(r.Context(), timesheet.RequestID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to delete absence request", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":         true,
		"months_affected": months,
	})
}

// GetAbsenceSummary returns the consultant's annual rollup.
// GET /api/consultants/{id}/absence-summary/{year}
func (h *Handler) GetAbsenceSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	year, ok := intParam(w, r, "year")
	if !ok {
		return
	}
	summary, err := h.Absence.Summary(r.Context(), timesheet.ConsultantID(id), year)
	if err != nil {
		h.writeDomainError(w, "Failed to compute absence summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListConsultantAbsenceRequests returns the consultant's requests touching
// one year, with day totals restricted to that year.
// GET /api/consultants/{id}/absence-requests/{year}
func (h *Handler) ListConsultantAbsenceRequests(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	year, ok := intParam(w, r, "year")
	if !ok {
		return
	}
	rows, err := h.Absence.ListForYear(r.Context(), timesheet.ConsultantID(id), year)
	if err != nil {
		h.writeDomainError(w, "Failed to list absence requests", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetMonthAbsences returns accepted and pending absence days in one month.
// GET /api/consultants/{id}/absences/{year}/{month}
func (h *Handler) GetMonthAbsences(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	year, ok := intParam(w, r, "year")
	if !ok {
		return
	}
	month, ok := intParam(w, r, "month")
	if !ok {
		return
	}
	claims, err := h.Absence.MonthView(r.Context(), timesheet.ConsultantID(id), year, time.Month(month))
	if err != nil {
		h.writeDomainError(w, "Failed to list month absences", err)
		return
	}
	writeJSON(w, http.StatusOK, toAbsenceClaimDTOs(claims))
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// CreateTimesheet opens a monthly timesheet with its entries.
// POST /api/timesheets
func (h *Handler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	var req CreateTimesheetRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := timesheet.CreateTimesheetInput{
		ConsultantID: timesheet.ConsultantID(req.ConsultantID),
		Month:        time.Month(req.Month),
		Year:         req.Year,
		Description:  req.Description,
		Status:       timesheet.TimesheetStatus(req.Status),
		Entries:      make([]timesheet.EntryInput, 0, len(req.Entries)),
	}
	for i := range req.Entries {
		e, err := parseEntry(&req.Entries[i])
		if err != nil {
			h.writeDomainError(w, "Invalid entry", err)
			return
		}
		in.Entries = append(in.Entries, e)
	}
	created, err := h.Monthly.Create(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, "Failed to create timesheet", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimesheetDTO(created))
}

// GetTimesheet returns one timesheet grouped by activity.
// GET /api/timesheets/{id}
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	view, err := h.Monthly.Get(r.Context(), timesheet.TimesheetID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetViewDTO(view))
}

// ListMonthlyTimesheets returns the HR review queue for one period.
// GET /api/timesheets/monthly?month=&year=
func (h *Handler) ListMonthlyTimesheets(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	sheets, err := h.Monthly.ListForPeriod(r.Context(), year, time.Month(month))
	if err != nil {
		h.writeDomainError(w, "Failed to list timesheets", err)
		return
	}
	dtos := make([]TimesheetDTO, 0, len(sheets))
	for i := range sheets {
		dtos = append(dtos, toTimesheetDTO(&sheets[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateTimesheetStatus moves a timesheet through review, cascading to its
// entries.
// PUT /api/timesheets/status
func (h *Handler) UpdateTimesheetStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateTimesheetStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	ts, err := h.Monthly.UpdateStatus(r.Context(),
		timesheet.TimesheetID(req.TimesheetID),
		timesheet.TimesheetStatus(req.Status),
		req.ReviewedBy, req.Comments)
	if err != nil {
		h.writeDomainError(w, "Failed to update timesheet status", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(ts))
}

// DeleteTimesheet removes a timesheet and its entries.
// DELETE /api/timesheets/{id}
func (h *Handler) DeleteTimesheet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Monthly.Delete(r.Context(), timesheet.TimesheetID(id)); err != nil {
		h.writeDomainError(w, "Failed to delete timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// ListConsultantTimesheets returns per-month summaries for one consultant.
// GET /api/consultants/{id}/timesheets
func (h *Handler) ListConsultantTimesheets(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	summaries, err := h.Monthly.ListByConsultant(r.Context(), timesheet.ConsultantID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to list timesheets", err)
		return
	}
	dtos := make([]TimesheetSummaryDTO, 0, len(summaries))
	for i := range summaries {
		dtos = append(dtos, TimesheetSummaryDTO{
			Timesheet:     toTimesheetDTO(&summaries[i].Timesheet),
			DeclaredDays:  summaries[i].DeclaredDays,
			PresenceRatio: summaries[i].PresenceRatio,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConsultantTimesheet returns the consultant's grouped timesheet for one
// period, without knowing its id.
// GET /api/consultants/{id}/timesheet/{year}/{month}
func (h *Handler) GetConsultantTimesheet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	year, ok := intParam(w, r, "year")
	if !ok {
		return
	}
	month, ok := intParam(w, r, "month")
	if !ok {
		return
	}
	view, err := h.Monthly.GetByPeriod(r.Context(), timesheet.ConsultantID(id), year, time.Month(month))
	if err != nil {
		h.writeDomainError(w, "Failed to get timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetViewDTO(view))
}

// GetDailyValidation reports a date's allocated total and remaining room.
// GET /api/consultants/{id}/daily-validation/{date}
func (h *Handler) GetDailyValidation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	date, err := parseDateField("date", chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, "Invalid date", err)
		return
	}
	alloc, err := h.Monthly.DailyAllocation(r.Context(), timesheet.ConsultantID(id), date)
	if err != nil {
		h.writeDomainError(w, "Failed to compute daily allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, alloc)
}

// =============================================================================
// ENUMS
// =============================================================================

// ListEnums exposes the enum values clients build pickers from.
// GET /api/enums
func (h *Handler) ListEnums(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"absence_types":       timesheet.AbsenceTypes(),
		"request_statuses":    timesheet.RequestStatuses(),
		"timesheet_statuses":  timesheet.TimesheetStatuses(),
		"activities":          []timesheet.ActivityType{timesheet.ActivityProject, timesheet.ActivityInternal, timesheet.ActivityAbsence},
		"internal_activities": []timesheet.InternalActivityType{timesheet.InternalOffice, timesheet.InternalInterContract, timesheet.InternalProject, timesheet.InternalTraining},
		"mission_activities":  []timesheet.ProjectActivityType{timesheet.ProjectActivityNormal, timesheet.ProjectActivityAstreinte},
		"astreinte_locations": []timesheet.AstreinteLocation{timesheet.AstreinteOnSite, timesheet.AstreinteRemote},
		"astreinte_kinds":     []timesheet.AstreinteKind{timesheet.AstreinteSemaine, timesheet.AstreinteSamedi, timesheet.AstreinteDimanche, timesheet.AstreinteJoursFerie},
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads, decodes and structurally validates a JSON body. Numbers are
// kept as json.Number so amounts reach decimal parsing untouched.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "Validation failed", verrs)
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func parseDays(days []AbsenceDayRequest) ([]absence.DayInput, error) {
	out := make([]absence.DayInput, 0, len(days))
	for _, d := range days {
		date, err := parseDateField("days.date", d.Date)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(d.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, absence.DayInput{Date: date, Amount: amount})
	}
	return out, nil
}

func parseEntry(e *EntryRequest) (timesheet.EntryInput, error) {
	date, err := parseDateField("entries.date", e.Date)
	if err != nil {
		return timesheet.EntryInput{}, err
	}
	amount, err := parseAmount(e.Amount)
	if err != nil {
		return timesheet.EntryInput{}, err
	}
	in := timesheet.EntryInput{
		Date:        date,
		Activity:    timesheet.ActivityType(e.Activity),
		Amount:      amount,
		Description: e.Description,
	}
	if e.MissionID != nil {
		v := timesheet.AssignmentID(*e.MissionID)
		in.MissionID = &v
	}
	if e.MissionActivity != nil {
		v := timesheet.ProjectActivityType(*e.MissionActivity)
		in.MissionActivity = &v
	}
	if e.AstreinteLocation != nil {
		v := timesheet.AstreinteLocation(*e.AstreinteLocation)
		in.AstreinteLocation = &v
	}
	if e.AstreinteKind != nil {
		v := timesheet.AstreinteKind(*e.AstreinteKind)
		in.AstreinteKind = &v
	}
	if e.InternalActivity != nil {
		v := timesheet.InternalActivityType(*e.InternalActivity)
		in.InternalActivity = &v
	}
	if e.AbsenceType != nil {
		v := timesheet.AbsenceType(*e.AbsenceType)
		in.AbsenceType = &v
	}
	if e.AbsenceRequestID != nil {
		v := timesheet.RequestID(*e.AbsenceRequestID)
		in.AbsenceRequestID = &v
	}
	return in, nil
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name, err)
		return 0, false
	}
	return v, true
}

// writeDomainError maps a service error to an HTTP status via the sentinel
// taxonomy and logs server-side failures.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, timesheet.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, timesheet.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, timesheet.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, timesheet.ErrPolicyViolation):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error(message)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
