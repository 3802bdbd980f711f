/*
monthly.go - Monthly timesheet aggregate service

PURPOSE:
  Owns the monthly timesheet lifecycle: creation with its daily entries,
  grouped retrieval, HR period listing, per-consultant summaries, status
  cascade and deletion. One timesheet per (consultant, month, year).

KEY RULES:
  - Creation validates every entry's category fields, mission and absence
    ownership, and the daily ceiling per date (astreinte excluded).
  - Status updates cascade to every entry; validated months carry reviewer
    metadata.
  - Validated timesheets cannot be deleted.

SEE ALSO:
  - allocation.go: ceiling check used per entry
  - absence/lifecycle.go: flips timesheets back to pending on reconciliation
*/
package timesheet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// SERVICE
// =============================================================================

// MonthlyService manages monthly timesheets and their daily entries.
type MonthlyService struct {
	store TxStore
	log   logrus.FieldLogger
}

func NewMonthlyService(store TxStore, log logrus.FieldLogger) *MonthlyService {
	return &MonthlyService{store: store, log: log}
}

// =============================================================================
// INPUTS
// =============================================================================

// EntryInput is one daily activity slice in a creation payload.
type EntryInput struct {
	Date              Date
	Activity          ActivityType
	Amount            decimal.Decimal
	MissionID         *AssignmentID
	MissionActivity   *ProjectActivityType
	AstreinteLocation *AstreinteLocation
	AstreinteKind     *AstreinteKind
	InternalActivity  *InternalActivityType
	AbsenceType       *AbsenceType
	AbsenceRequestID  *RequestID
	Description       string
}

// CreateTimesheetInput is the full creation payload.
type CreateTimesheetInput struct {
	ConsultantID ConsultantID
	Month        time.Month
	Year         int
	Description  string
	Status       TimesheetStatus // saved (default) or pending
	Entries      []EntryInput
}

// =============================================================================
// CREATE
// =============================================================================

// Create opens the consultant's timesheet for a period and records its daily
// entries, enforcing uniqueness of the period, category field rules,
// ownership of referenced missions and absence requests, and the daily
// ceiling on every date.
func (s *MonthlyService) Create(ctx context.Context, in CreateTimesheetInput) (*MonthlyTimesheet, error) {
	if !ValidPeriod(in.Year, in.Month) {
		return nil, &FieldError{Field: "period", Reason: "month must be 1-12 and year within range"}
	}
	status := in.Status
	if status == "" {
		status = TimesheetSaved
	}
	if status != TimesheetSaved && status != TimesheetPending {
		return nil, &FieldError{Field: "status", Reason: "new timesheets start as saved or pending"}
	}

	var created *MonthlyTimesheet
	err := s.store.WithTx(ctx, func(st Store) error {
		if _, err := st.GetConsultant(ctx, in.ConsultantID); err != nil {
			return err
		}
		if _, err := st.GetMonthlyTimesheetByPeriod(ctx, in.ConsultantID, in.Year, int(in.Month)); err == nil {
			return &DuplicatePeriodError{ConsultantID: in.ConsultantID, Year: in.Year, Month: int(in.Month)}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		ts := &MonthlyTimesheet{
			Reference:    uuid.NewString(),
			ConsultantID: in.ConsultantID,
			Month:        in.Month,
			Year:         in.Year,
			Description:  in.Description,
			Status:       status,
		}
		if err := st.InsertMonthlyTimesheet(ctx, ts); err != nil {
			return err
		}

		for i := range in.Entries {
			e := &in.Entries[i]
			if err := s.validateEntry(ctx, st, in.ConsultantID, in.Year, in.Month, e); err != nil {
				return err
			}
			if !isAstreinteInput(e) {
				existing, err := st.ListEntriesForDate(ctx, in.ConsultantID, e.Date)
				if err != nil {
					return err
				}
				if err := CheckAddition(in.ConsultantID, e.Date, existing, e.Amount); err != nil {
					return err
				}
			} else if e.Amount.LessThanOrEqual(decimal.Zero) {
				return &FieldError{Field: "amount", Reason: "must be greater than zero"}
			}
			row := &DailyTimesheetEntry{
				TimesheetID:       ts.ID,
				ConsultantID:      in.ConsultantID,
				Date:              e.Date,
				Activity:          e.Activity,
				Amount:            e.Amount,
				MissionID:         e.MissionID,
				MissionActivity:   e.MissionActivity,
				AstreinteLocation: e.AstreinteLocation,
				AstreinteKind:     e.AstreinteKind,
				InternalActivity:  e.InternalActivity,
				AbsenceType:       e.AbsenceType,
				AbsenceRequestID:  e.AbsenceRequestID,
				Description:       e.Description,
				Status:            status,
			}
			if err := st.InsertDailyEntry(ctx, row); err != nil {
				return err
			}
		}

		created = ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"consultant": in.ConsultantID,
		"year":       in.Year,
		"month":      int(in.Month),
		"entries":    len(in.Entries),
	}).Info("monthly timesheet created")
	return s.store.GetMonthlyTimesheet(ctx, created.ID)
}

// validateEntry enforces the category field rules and the ownership of
// referenced missions and absence requests.
func (s *MonthlyService) validateEntry(ctx context.Context, st Store, consultantID ConsultantID, year int, month time.Month, e *EntryInput) error {
	if e.Date.IsZero() {
		return &FieldError{Field: "date", Reason: "required"}
	}
	if e.Date.Year() != year || e.Date.Month() != month {
		return &FieldError{Field: "date", Reason: "outside the timesheet period"}
	}
	if !e.Activity.Valid() {
		return &FieldError{Field: "activity", Reason: "unknown activity category"}
	}

	switch e.Activity {
	case ActivityProject:
		if e.MissionID == nil {
			return &FieldError{Field: "mission_id", Reason: "required for project entries"}
		}
		if e.MissionActivity == nil || !e.MissionActivity.Valid() {
			return &FieldError{Field: "mission_activity", Reason: "must be normale or astreinte"}
		}
		if *e.MissionActivity == ProjectActivityAstreinte {
			if e.AstreinteLocation == nil || !e.AstreinteLocation.Valid() {
				return &FieldError{Field: "astreinte_location", Reason: "required for astreinte entries"}
			}
			if e.AstreinteKind == nil || !e.AstreinteKind.Valid() {
				return &FieldError{Field: "astreinte_kind", Reason: "required for astreinte entries"}
			}
		}
		a, err := st.GetAssignment(ctx, *e.MissionID)
		if err != nil {
			return err
		}
		if a.ConsultantID != consultantID {
			return &OwnershipError{Kind: "assignment", ID: int64(a.ID), ConsultantID: consultantID}
		}
	case ActivityInternal:
		if e.InternalActivity == nil || !e.InternalActivity.Valid() {
			return &FieldError{Field: "internal_activity", Reason: "unknown internal activity"}
		}
	case ActivityAbsence:
		if e.AbsenceType == nil || !e.AbsenceType.Valid() {
			return &FieldError{Field: "absence_type", Reason: "unknown absence type"}
		}
		if e.AbsenceRequestID != nil {
			r, err := st.GetAbsenceRequest(ctx, *e.AbsenceRequestID)
			if err != nil {
				return err
			}
			if r.ConsultantID != consultantID {
				return &OwnershipError{Kind: "absence request", ID: int64(r.ID), ConsultantID: consultantID}
			}
		}
	}
	return nil
}

func isAstreinteInput(e *EntryInput) bool {
	return e.Activity == ActivityProject &&
		e.MissionActivity != nil && *e.MissionActivity == ProjectActivityAstreinte
}

// =============================================================================
// GROUPED RETRIEVAL
// =============================================================================

// MissionGroup collects a timesheet's entries for one assignment.
type MissionGroup struct {
	MissionID     AssignmentID          `json:"mission_id"`
	ProjectName   string                `json:"project_name"`
	ClientCompany string                `json:"client_company"`
	Entries       []DailyTimesheetEntry `json:"entries"`
	TotalDays     decimal.Decimal       `json:"total_days"`
	AstreinteDays decimal.Decimal       `json:"astreinte_days"`
}

// InternalGroup collects entries for one internal activity subtype.
type InternalGroup struct {
	Activity  InternalActivityType  `json:"activity"`
	Entries   []DailyTimesheetEntry `json:"entries"`
	TotalDays decimal.Decimal       `json:"total_days"`
}

// AbsenceGroup collects entries for one absence type.
type AbsenceGroup struct {
	Type      AbsenceType           `json:"type"`
	Entries   []DailyTimesheetEntry `json:"entries"`
	TotalDays decimal.Decimal       `json:"total_days"`
}

// TimesheetView is the grouped read model of one timesheet.
type TimesheetView struct {
	Timesheet *MonthlyTimesheet `json:"timesheet"`
	Missions  []MissionGroup    `json:"missions"`
	Internal  []InternalGroup   `json:"internal"`
	Absences  []AbsenceGroup    `json:"absences"`
	// TotalDays excludes astreinte.
	TotalDays decimal.Decimal `json:"total_days"`
}

// Get returns a timesheet grouped by mission, internal subtype and absence
// type. Astreinte amounts roll into the mission group's astreinte total but
// never into TotalDays.
func (s *MonthlyService) Get(ctx context.Context, id TimesheetID) (*TimesheetView, error) {
	ts, err := s.store.GetMonthlyTimesheet(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntriesForTimesheet(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &TimesheetView{Timesheet: ts, TotalDays: decimal.Zero}
	missionIdx := map[AssignmentID]int{}
	internalIdx := map[InternalActivityType]int{}
	absenceIdx := map[AbsenceType]int{}

	for i := range entries {
		e := entries[i]
		switch e.Activity {
		case ActivityProject:
			idx, ok := missionIdx[*e.MissionID]
			if !ok {
				g := MissionGroup{MissionID: *e.MissionID, TotalDays: decimal.Zero, AstreinteDays: decimal.Zero}
				if a, err := s.store.GetAssignment(ctx, *e.MissionID); err == nil {
					if p, err := s.store.GetProject(ctx, a.ProjectID); err == nil {
						g.ProjectName = p.Name
						g.ClientCompany = p.ClientCompany
					}
				}
				view.Missions = append(view.Missions, g)
				idx = len(view.Missions) - 1
				missionIdx[*e.MissionID] = idx
			}
			view.Missions[idx].Entries = append(view.Missions[idx].Entries, e)
			if e.IsAstreinte() {
				view.Missions[idx].AstreinteDays = view.Missions[idx].AstreinteDays.Add(e.Amount)
			} else {
				view.Missions[idx].TotalDays = view.Missions[idx].TotalDays.Add(e.Amount)
				view.TotalDays = view.TotalDays.Add(e.Amount)
			}
		case ActivityInternal:
			idx, ok := internalIdx[*e.InternalActivity]
			if !ok {
				view.Internal = append(view.Internal, InternalGroup{Activity: *e.InternalActivity, TotalDays: decimal.Zero})
				idx = len(view.Internal) - 1
				internalIdx[*e.InternalActivity] = idx
			}
			view.Internal[idx].Entries = append(view.Internal[idx].Entries, e)
			view.Internal[idx].TotalDays = view.Internal[idx].TotalDays.Add(e.Amount)
			view.TotalDays = view.TotalDays.Add(e.Amount)
		case ActivityAbsence:
			idx, ok := absenceIdx[*e.AbsenceType]
			if !ok {
				view.Absences = append(view.Absences, AbsenceGroup{Type: *e.AbsenceType, TotalDays: decimal.Zero})
				idx = len(view.Absences) - 1
				absenceIdx[*e.AbsenceType] = idx
			}
			view.Absences[idx].Entries = append(view.Absences[idx].Entries, e)
			view.Absences[idx].TotalDays = view.Absences[idx].TotalDays.Add(e.Amount)
			view.TotalDays = view.TotalDays.Add(e.Amount)
		}
	}
	return view, nil
}

// GetByPeriod returns the consultant's grouped timesheet for one period.
func (s *MonthlyService) GetByPeriod(ctx context.Context, consultantID ConsultantID, year int, month time.Month) (*TimesheetView, error) {
	if !ValidPeriod(year, month) {
		return nil, &FieldError{Field: "period", Reason: "month must be 1-12 and year within range"}
	}
	ts, err := s.store.GetMonthlyTimesheetByPeriod(ctx, consultantID, year, int(month))
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, ts.ID)
}

// =============================================================================
// LISTINGS
// =============================================================================

// ListForPeriod returns every non-draft timesheet of a period, the HR review
// queue. Saved drafts stay private to their consultant.
func (s *MonthlyService) ListForPeriod(ctx context.Context, year int, month time.Month) ([]MonthlyTimesheet, error) {
	if !ValidPeriod(year, month) {
		return nil, &FieldError{Field: "period", Reason: "month must be 1-12 and year within range"}
	}
	return s.store.ListMonthlyTimesheets(ctx, year, int(month), true)
}

// TimesheetSummary is one row of the per-consultant listing.
type TimesheetSummary struct {
	Timesheet    MonthlyTimesheet `json:"timesheet"`
	DeclaredDays decimal.Decimal  `json:"declared_days"`
	// PresenceRatio is declared days over the period's business days,
	// rounded to four places. Astreinte is excluded from both.
	PresenceRatio decimal.Decimal `json:"presence_ratio"`
}

// ListByConsultant returns the consultant's timesheets with declared-day
// totals and presence ratios.
func (s *MonthlyService) ListByConsultant(ctx context.Context, consultantID ConsultantID) ([]TimesheetSummary, error) {
	if _, err := s.store.GetConsultant(ctx, consultantID); err != nil {
		return nil, err
	}
	sheets, err := s.store.ListTimesheetsByConsultant(ctx, consultantID)
	if err != nil {
		return nil, err
	}
	summaries := make([]TimesheetSummary, 0, len(sheets))
	for i := range sheets {
		entries, err := s.store.ListEntriesForTimesheet(ctx, sheets[i].ID)
		if err != nil {
			return nil, err
		}
		declared := AllocatedTotal(entries)
		business := decimal.NewFromInt(int64(BusinessDays(sheets[i].Year, sheets[i].Month)))
		ratio := decimal.Zero
		if business.GreaterThan(decimal.Zero) {
			ratio = declared.Div(business).Round(4)
		}
		summaries = append(summaries, TimesheetSummary{
			Timesheet:     sheets[i],
			DeclaredDays:  declared,
			PresenceRatio: ratio,
		})
	}
	return summaries, nil
}

// BusinessDays counts the Monday-to-Friday days of a month.
func BusinessDays(year int, month time.Month) int {
	n := 0
	for d := MonthStart(year, month); !d.After(MonthEnd(year, month)); d = d.AddDays(1) {
		wd := d.Time().Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

// =============================================================================
// STATUS / DELETE
// =============================================================================

// UpdateStatus moves a timesheet to pending, validated or refused and
// cascades the status to every entry. Validation and refusal record the
// reviewer.
func (s *MonthlyService) UpdateStatus(ctx context.Context, id TimesheetID, status TimesheetStatus, reviewedBy, comments string) (*MonthlyTimesheet, error) {
	if status != TimesheetPending && status != TimesheetValidated && status != TimesheetRefused {
		return nil, &FieldError{Field: "status", Reason: "must be pending, validated or refused"}
	}

	var out *MonthlyTimesheet
	err := s.store.WithTx(ctx, func(st Store) error {
		ts, err := st.GetMonthlyTimesheet(ctx, id)
		if err != nil {
			return err
		}
		ts.Status = status
		if status == TimesheetValidated || status == TimesheetRefused {
			now := time.Now().UTC()
			ts.ReviewedBy = reviewedBy
			ts.ReviewedAt = &now
			ts.ManagerComments = comments
		}
		if err := st.UpdateMonthlyTimesheet(ctx, ts); err != nil {
			return err
		}
		if err := st.SetEntriesStatusByTimesheet(ctx, id, status); err != nil {
			return err
		}
		out = ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"timesheet": id, "status": status}).Info("timesheet status updated")
	return out, nil
}

// Delete removes a timesheet and its entries. Validated months are locked.
func (s *MonthlyService) Delete(ctx context.Context, id TimesheetID) error {
	err := s.store.WithTx(ctx, func(st Store) error {
		ts, err := st.GetMonthlyTimesheet(ctx, id)
		if err != nil {
			return err
		}
		if ts.Status == TimesheetValidated {
			return &StateError{Op: "delete timesheet", Status: string(ts.Status)}
		}
		if err := st.DeleteEntriesByTimesheet(ctx, id); err != nil {
			return err
		}
		return st.DeleteMonthlyTimesheetRow(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.WithField("timesheet", id).Info("timesheet deleted")
	return nil
}

// =============================================================================
// DAILY ALLOCATION VIEW
// =============================================================================

// DailyAllocation reports how much of one date the consultant has declared.
func (s *MonthlyService) DailyAllocation(ctx context.Context, consultantID ConsultantID, date Date) (DayAllocation, error) {
	if _, err := s.store.GetConsultant(ctx, consultantID); err != nil {
		return DayAllocation{}, err
	}
	entries, err := s.store.ListEntriesForDate(ctx, consultantID, date)
	if err != nil {
		return DayAllocation{}, err
	}
	return AllocationFor(consultantID, date, entries), nil
}
