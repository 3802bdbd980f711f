/*
Package absence implements the absence request lifecycle.

PURPOSE:
  A consultant claims time off as a request spanning one or more dates, each
  date carrying a half-day or full-day amount. HR reviews requests day by
  day; the request's own status is derived from its days. Every mutation
  runs in one transaction and keeps the monthly timesheets reconciled.

LIFECYCLE:
  saved ──┐
          ├─> pending ──review──> accepted | refused | partially_accepted
  (draft) │                │
          │                └──update (owner) / review again (HR)
          └─> deleted (also from pending and refused; never from accepted)

KEY RULES:
  - Day amounts are 0.5 or 1.0 only; one claim per consultant per date
    across non-refused requests.
  - Capped types share a 25-day annual allowance; unpaid leave is exempt.
    The cap counts accepted and pending days, never drafts.
  - Accepting a day materializes it into the month's timesheet via the
    reconciler; refusing a day withdraws its materialized entries.
  - Updating an accepted request is reserved to the HR reviewer; a refused
    request whose affected months are validated cannot be reshaped.

SEE ALSO:
  - timesheet/reconcile.go: materialization and withdrawal mechanics
  - timesheet/store.go: persistence contract
*/
package absence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/staffhub/timesheet-engine/timesheet"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service manages absence requests end to end.
type Service struct {
	store      timesheet.TxStore
	recon      *timesheet.Reconciler
	hrReviewer string
	log        logrus.FieldLogger
}

// NewService builds the lifecycle service. hrReviewer is the email allowed
// to update accepted requests.
func NewService(store timesheet.TxStore, recon *timesheet.Reconciler, hrReviewer string, log logrus.FieldLogger) *Service {
	return &Service{store: store, recon: recon, hrReviewer: hrReviewer, log: log}
}

// =============================================================================
// INPUTS
// =============================================================================

// DayInput is one requested date.
type DayInput struct {
	Date   timesheet.Date
	Amount decimal.Decimal // 0.5 or 1.0
}

// CreateInput is the creation payload.
type CreateInput struct {
	ConsultantID  timesheet.ConsultantID
	Type          timesheet.AbsenceType
	Commentary    string
	Justification string
	AssignmentID  *timesheet.AssignmentID
	Days          []DayInput
	// Status is saved for a draft or pending for submission. Defaults to
	// pending.
	Status timesheet.RequestStatus
}

// UpdateInput reshapes an existing request. Days replaces the full day list.
type UpdateInput struct {
	Type          timesheet.AbsenceType
	Commentary    string
	Justification string
	Days          []DayInput
	// UpdatedBy identifies the caller; required to touch accepted requests.
	UpdatedBy string
}

// DayDecision is one reviewed day.
type DayDecision struct {
	DayID  timesheet.DayID
	Status timesheet.RequestStatus // accepted or refused
}

// ReviewInput carries the HR review of every day of a request.
type ReviewInput struct {
	ReviewedBy string
	Comments   string
	Decisions  []DayDecision
}

// =============================================================================
// CREATE
// =============================================================================

// Create registers a new absence request with its days, enforcing amount
// discreteness, one-claim-per-date and the annual cap, then materializes
// pending days into any existing monthly timesheets.
func (s *Service) Create(ctx context.Context, in CreateInput) (*timesheet.AbsenceRequest, error) {
	status := in.Status
	if status == "" {
		status = timesheet.RequestPending
	}
	if status != timesheet.RequestSaved && status != timesheet.RequestPending {
		return nil, &timesheet.FieldError{Field: "status", Reason: "new requests start as saved or pending"}
	}
	if err := validateDays(in.Type, in.Days); err != nil {
		return nil, err
	}

	var created *timesheet.AbsenceRequest
	err := s.store.WithTx(ctx, func(st timesheet.Store) error {
		if _, err := st.GetConsultant(ctx, in.ConsultantID); err != nil {
			return err
		}
		if in.AssignmentID != nil {
			a, err := st.GetAssignment(ctx, *in.AssignmentID)
			if err != nil {
				return err
			}
			if a.ConsultantID != in.ConsultantID {
				return &timesheet.OwnershipError{Kind: "assignment", ID: int64(a.ID), ConsultantID: in.ConsultantID}
			}
		}
		if err := s.checkConflicts(ctx, st, in.ConsultantID, 0, in.Days); err != nil {
			return err
		}
		if status == timesheet.RequestPending && in.Type.CountsTowardCap() {
			if err := s.checkAnnualCap(ctx, st, in.ConsultantID, 0, in.Type, in.Days); err != nil {
				return err
			}
		}

		req := &timesheet.AbsenceRequest{
			Reference:     uuid.NewString(),
			ConsultantID:  in.ConsultantID,
			Type:          in.Type,
			Commentary:    in.Commentary,
			Justification: in.Justification,
			Status:        status,
			AssignmentID:  in.AssignmentID,
		}
		if err := st.InsertAbsenceRequest(ctx, req); err != nil {
			return err
		}

		days := buildDays(req.ID, in.Days, status)
		if err := st.InsertAbsenceDays(ctx, days); err != nil {
			return err
		}

		if status == timesheet.RequestPending {
			for _, d := range days {
				if _, err := s.recon.Apply(ctx, st, in.ConsultantID, in.Type, d); err != nil {
					return err
				}
			}
		}

		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"consultant": in.ConsultantID,
		"type":       in.Type,
		"days":       len(in.Days),
		"status":     status,
	}).Info("absence request created")
	return s.store.GetAbsenceRequest(ctx, created.ID)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update replaces a request's type, commentary, justification and day list,
// withdraws the previously materialized entries and re-reconciles. The
// request returns to pending for a fresh review.
func (s *Service) Update(ctx context.Context, id timesheet.RequestID, in UpdateInput) (*timesheet.AbsenceRequest, error) {
	if err := validateDays(in.Type, in.Days); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(st timesheet.Store) error {
		req, err := st.GetAbsenceRequest(ctx, id)
		if err != nil {
			return err
		}
		switch req.Status {
		case timesheet.RequestPending, timesheet.RequestRefused, timesheet.RequestAccepted, timesheet.RequestSaved:
		default:
			return &timesheet.StateError{Op: "update absence request", Status: string(req.Status)}
		}
		if req.Status == timesheet.RequestAccepted && in.UpdatedBy != s.hrReviewer {
			return fmt.Errorf("accepted requests may only be updated by the HR reviewer: %w", timesheet.ErrPolicyViolation)
		}
		if req.Status == timesheet.RequestRefused {
			if err := s.checkValidatedMonths(ctx, st, req, in.Days); err != nil {
				return err
			}
		}

		if err := s.checkConflicts(ctx, st, req.ConsultantID, id, in.Days); err != nil {
			return err
		}
		if in.Type.CountsTowardCap() {
			if err := s.checkAnnualCap(ctx, st, req.ConsultantID, id, in.Type, in.Days); err != nil {
				return err
			}
		}

		if _, err := s.recon.RemoveRequestEntries(ctx, st, id, nil, true); err != nil {
			return err
		}
		if err := st.DeleteAbsenceDaysByRequest(ctx, id); err != nil {
			return err
		}

		days := buildDays(id, in.Days, timesheet.RequestPending)
		if err := st.InsertAbsenceDays(ctx, days); err != nil {
			return err
		}

		req.Type = in.Type
		req.Commentary = in.Commentary
		req.Justification = in.Justification
		req.Status = timesheet.RequestPending
		req.ReviewedBy = ""
		req.ReviewedAt = nil
		req.HRComments = ""
		if err := st.UpdateAbsenceRequest(ctx, req); err != nil {
			return err
		}

		for _, d := range days {
			if _, err := s.recon.Apply(ctx, st, req.ConsultantID, in.Type, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"request": id, "days": len(in.Days)}).Info("absence request updated")
	return s.store.GetAbsenceRequest(ctx, id)
}

// checkValidatedMonths blocks reshaping a refused request in months whose
// timesheet is already validated, unless that month's day set is untouched.
func (s *Service) checkValidatedMonths(ctx context.Context, st timesheet.Store, req *timesheet.AbsenceRequest, newDays []DayInput) error {
	type monthKey struct {
		year  int
		month int
	}
	oldByMonth := map[monthKey]map[string]string{}
	for _, d := range req.Days {
		k := monthKey{d.Date.Year(), int(d.Date.Month())}
		if oldByMonth[k] == nil {
			oldByMonth[k] = map[string]string{}
		}
		oldByMonth[k][d.Date.String()] = d.Amount.String()
	}
	newByMonth := map[monthKey]map[string]string{}
	for _, d := range newDays {
		k := monthKey{d.Date.Year(), int(d.Date.Month())}
		if newByMonth[k] == nil {
			newByMonth[k] = map[string]string{}
		}
		newByMonth[k][d.Date.String()] = d.Amount.String()
	}

	months := map[monthKey]bool{}
	for k := range oldByMonth {
		months[k] = true
	}
	for k := range newByMonth {
		months[k] = true
	}

	for k := range months {
		if sameDaySet(oldByMonth[k], newByMonth[k]) {
			continue
		}
		ts, err := st.GetMonthlyTimesheetByPeriod(ctx, req.ConsultantID, k.year, k.month)
		if err != nil {
			if errors.Is(err, timesheet.ErrNotFound) {
				continue
			}
			return err
		}
		if ts.Status == timesheet.TimesheetValidated {
			return &timesheet.ValidatedMonthError{ConsultantID: req.ConsultantID, Year: k.year, Month: k.month}
		}
	}
	return nil
}

func sameDaySet(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// =============================================================================
// REVIEW
// =============================================================================

// Review applies HR's per-day decisions. Every day must receive exactly one
// accepted or refused decision. The request status is derived: all accepted,
// all refused, or partially accepted. Newly accepted days are materialized
// into timesheets; newly refused days have their entries withdrawn.
//
// A refused or partially accepted request may be re-reviewed; a fully
// accepted request is terminal for review and can only be reshaped through
// Update by the HR reviewer.
func (s *Service) Review(ctx context.Context, id timesheet.RequestID, in ReviewInput) (*timesheet.AbsenceRequest, error) {
	if in.ReviewedBy == "" {
		return nil, &timesheet.FieldError{Field: "reviewed_by", Reason: "required"}
	}

	err := s.store.WithTx(ctx, func(st timesheet.Store) error {
		req, err := st.GetAbsenceRequest(ctx, id)
		if err != nil {
			return err
		}
		switch req.Status {
		case timesheet.RequestPending, timesheet.RequestRefused, timesheet.RequestPartiallyAccepted:
		default:
			return &timesheet.StateError{Op: "review absence request", Status: string(req.Status)}
		}

		decisions := make(map[timesheet.DayID]timesheet.RequestStatus, len(in.Decisions))
		for _, d := range in.Decisions {
			if d.Status != timesheet.RequestAccepted && d.Status != timesheet.RequestRefused {
				return &timesheet.FieldError{Field: "decisions", Reason: "each day must be accepted or refused"}
			}
			if _, dup := decisions[d.DayID]; dup {
				return &timesheet.FieldError{Field: "decisions", Reason: fmt.Sprintf("duplicate decision for day %d", d.DayID)}
			}
			decisions[d.DayID] = d.Status
		}
		known := make(map[timesheet.DayID]bool, len(req.Days))
		for _, d := range req.Days {
			known[d.ID] = true
			if _, ok := decisions[d.ID]; !ok {
				return &timesheet.FieldError{Field: "decisions", Reason: fmt.Sprintf("missing decision for day %d", d.ID)}
			}
		}
		for dayID := range decisions {
			if !known[dayID] {
				return &timesheet.FieldError{Field: "decisions", Reason: fmt.Sprintf("day %d does not belong to this request", dayID)}
			}
		}

		accepted, refused := 0, 0
		var refusedDates []timesheet.Date
		for _, d := range req.Days {
			decided := decisions[d.ID]
			if decided != d.Status {
				if err := st.UpdateAbsenceDayStatus(ctx, d.ID, decided); err != nil {
					return err
				}
			}
			switch decided {
			case timesheet.RequestAccepted:
				accepted++
				// Days refused in a previous round were withdrawn from the
				// timesheets and need re-materializing.
				if d.Status == timesheet.RequestRefused {
					day := d
					day.Status = decided
					if _, err := s.recon.Apply(ctx, st, req.ConsultantID, req.Type, day); err != nil {
						return err
					}
				}
			case timesheet.RequestRefused:
				refused++
				if d.Status != timesheet.RequestRefused {
					refusedDates = append(refusedDates, d.Date)
				}
			}
		}

		if len(refusedDates) > 0 {
			if _, err := s.recon.RemoveRequestEntries(ctx, st, id, refusedDates, false); err != nil {
				return err
			}
		}

		switch {
		case refused == 0:
			req.Status = timesheet.RequestAccepted
		case accepted == 0:
			req.Status = timesheet.RequestRefused
		default:
			req.Status = timesheet.RequestPartiallyAccepted
		}
		now := time.Now().UTC()
		req.ReviewedBy = in.ReviewedBy
		req.ReviewedAt = &now
		req.HRComments = in.Comments
		return st.UpdateAbsenceRequest(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	out, err := s.store.GetAbsenceRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"request":  id,
		"status":   out.Status,
		"reviewer": in.ReviewedBy,
	}).Info("absence request reviewed")
	return out, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a request, its days and its materialized entries. Accepted
// and partially accepted requests are locked. Returns the number of months
// whose timesheets were touched.
func (s *Service) Delete(ctx context.Context, id timesheet.RequestID) (int, error) {
	months := 0
	err := s.store.WithTx(ctx, func(st timesheet.Store) error {
		req, err := st.GetAbsenceRequest(ctx, id)
		if err != nil {
			return err
		}
		switch req.Status {
		case timesheet.RequestSaved, timesheet.RequestPending, timesheet.RequestRefused:
		default:
			return &timesheet.StateError{Op: "delete absence request", Status: string(req.Status)}
		}

		months, err = s.recon.RemoveRequestEntries(ctx, st, id, nil, false)
		if err != nil {
			return err
		}
		if err := st.DeleteAbsenceDaysByRequest(ctx, id); err != nil {
			return err
		}
		return st.DeleteAbsenceRequestRow(ctx, id)
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"request": id, "months_affected": months}).Info("absence request deleted")
	return months, nil
}

// =============================================================================
// READS
// =============================================================================

// Get loads a request with its ordered day list.
func (s *Service) Get(ctx context.Context, id timesheet.RequestID) (*timesheet.AbsenceRequest, error) {
	return s.store.GetAbsenceRequest(ctx, id)
}

// List returns requests matching the filter.
func (s *Service) List(ctx context.Context, f timesheet.AbsenceRequestFilter) ([]timesheet.AbsenceRequest, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &timesheet.FieldError{Field: "status", Reason: "unknown status"}
	}
	return s.store.ListAbsenceRequests(ctx, f)
}

// YearRequestSummary is one row of the per-year request listing: the
// request's header fields with its day total restricted to that year.
type YearRequestSummary struct {
	ID         timesheet.RequestID     `json:"id"`
	Reference  string                  `json:"reference"`
	Type       timesheet.AbsenceType   `json:"type"`
	Status     timesheet.RequestStatus `json:"status"`
	Commentary string                  `json:"commentary,omitempty"`
	TotalDays  decimal.Decimal         `json:"total_days"`
	CreatedAt  time.Time               `json:"created_at"`
}

// ListForYear returns the consultant's requests having at least one day in
// the year. A request spanning a year boundary appears in both years, each
// time with only that year's day amounts summed.
func (s *Service) ListForYear(ctx context.Context, consultantID timesheet.ConsultantID, year int) ([]YearRequestSummary, error) {
	if !timesheet.ValidYear(year) {
		return nil, &timesheet.FieldError{Field: "year", Reason: "out of range"}
	}
	if _, err := s.store.GetConsultant(ctx, consultantID); err != nil {
		return nil, err
	}
	requests, err := s.store.ListAbsenceRequests(ctx, timesheet.AbsenceRequestFilter{ConsultantID: consultantID})
	if err != nil {
		return nil, err
	}

	out := make([]YearRequestSummary, 0, len(requests))
	for i := range requests {
		r := &requests[i]
		total := decimal.Zero
		for _, d := range r.Days {
			if d.Date.Year() == year {
				total = total.Add(d.Amount)
			}
		}
		if total.IsZero() {
			continue
		}
		out = append(out, YearRequestSummary{
			ID:         r.ID,
			Reference:  r.Reference,
			Type:       r.Type,
			Status:     r.Status,
			Commentary: r.Commentary,
			TotalDays:  total,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

// MonthView returns the consultant's accepted and pending absence days in a
// month, for timesheet display.
func (s *Service) MonthView(ctx context.Context, consultantID timesheet.ConsultantID, year int, month time.Month) ([]timesheet.AbsenceClaim, error) {
	if !timesheet.ValidPeriod(year, month) {
		return nil, &timesheet.FieldError{Field: "period", Reason: "month must be 1-12 and year within range"}
	}
	if _, err := s.store.GetConsultant(ctx, consultantID); err != nil {
		return nil, err
	}
	claims, err := s.store.ListAbsenceClaims(ctx, consultantID, timesheet.MonthStart(year, month), timesheet.MonthEnd(year, month))
	if err != nil {
		return nil, err
	}
	out := claims[:0]
	for _, c := range claims {
		if c.Status == timesheet.RequestAccepted || c.Status == timesheet.RequestPending {
			out = append(out, c)
		}
	}
	return out, nil
}

// =============================================================================
// ANNUAL SUMMARY
// =============================================================================

// TypeBreakdown splits one absence type's day amounts by review outcome.
type TypeBreakdown struct {
	Accepted decimal.Decimal `json:"accepted"`
	Pending  decimal.Decimal `json:"pending"`
	Refused  decimal.Decimal `json:"refused"`
}

// AnnualSummary aggregates a consultant's absence days for one year.
type AnnualSummary struct {
	ConsultantID timesheet.ConsultantID                  `json:"consultant_id"`
	Year         int                                     `json:"year"`
	Accepted     decimal.Decimal                         `json:"accepted_days"`
	Pending      decimal.Decimal                         `json:"pending_days"`
	Refused      decimal.Decimal                         `json:"refused_days"`
	ByType       map[timesheet.AbsenceType]TypeBreakdown `json:"by_type"`
	CapDays      decimal.Decimal                         `json:"cap_days"`
	// Remaining is the allowance left after accepted and pending capped
	// days, clamped at zero.
	Remaining decimal.Decimal `json:"remaining_days"`
}

// Summary computes the annual rollup with per-type status buckets. Refused
// days show up in their buckets but never consume the allowance; draft days
// are invisible.
func (s *Service) Summary(ctx context.Context, consultantID timesheet.ConsultantID, year int) (*AnnualSummary, error) {
	if !timesheet.ValidYear(year) {
		return nil, &timesheet.FieldError{Field: "year", Reason: "out of range"}
	}
	if _, err := s.store.GetConsultant(ctx, consultantID); err != nil {
		return nil, err
	}

	from, to := timesheet.YearPeriod(year)
	claims, err := s.store.ListAbsenceClaims(ctx, consultantID, from, to)
	if err != nil {
		return nil, err
	}

	sum := &AnnualSummary{
		ConsultantID: consultantID,
		Year:         year,
		Accepted:     decimal.Zero,
		Pending:      decimal.Zero,
		Refused:      decimal.Zero,
		ByType:       map[timesheet.AbsenceType]TypeBreakdown{},
		CapDays:      timesheet.AnnualCapDays,
	}
	capped := decimal.Zero
	for _, c := range claims {
		b := sum.ByType[c.Type]
		switch c.Status {
		case timesheet.RequestAccepted:
			sum.Accepted = sum.Accepted.Add(c.Amount)
			b.Accepted = b.Accepted.Add(c.Amount)
		case timesheet.RequestPending:
			sum.Pending = sum.Pending.Add(c.Amount)
			b.Pending = b.Pending.Add(c.Amount)
		case timesheet.RequestRefused:
			sum.Refused = sum.Refused.Add(c.Amount)
			b.Refused = b.Refused.Add(c.Amount)
			sum.ByType[c.Type] = b
			continue
		default:
			continue
		}
		sum.ByType[c.Type] = b
		if c.Type.CountsTowardCap() {
			capped = capped.Add(c.Amount)
		}
	}
	sum.Remaining = timesheet.AnnualCapDays.Sub(capped)
	if sum.Remaining.IsNegative() {
		sum.Remaining = decimal.Zero
	}
	return sum, nil
}

// =============================================================================
// SHARED CHECKS
// =============================================================================

// validateDays checks type validity, non-empty day list, discrete amounts
// and intra-payload date uniqueness.
func validateDays(t timesheet.AbsenceType, days []DayInput) error {
	if !t.Valid() {
		return &timesheet.FieldError{Field: "type", Reason: "unknown absence type"}
	}
	if len(days) == 0 {
		return &timesheet.FieldError{Field: "days", Reason: "at least one day is required"}
	}
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		if d.Date.IsZero() {
			return &timesheet.FieldError{Field: "days", Reason: "each day needs a date"}
		}
		if !timesheet.ValidAbsenceAmount(d.Amount) {
			return &timesheet.FieldError{Field: "days", Reason: fmt.Sprintf("amount on %s must be 0.5 or 1.0", d.Date)}
		}
		if seen[d.Date.String()] {
			return &timesheet.FieldError{Field: "days", Reason: fmt.Sprintf("duplicate date %s", d.Date)}
		}
		seen[d.Date.String()] = true
	}
	return nil
}

// checkConflicts rejects dates already claimed by the consultant's pending
// or accepted days of other requests. exclude skips the request being
// updated.
func (s *Service) checkConflicts(ctx context.Context, st timesheet.Store, consultantID timesheet.ConsultantID, exclude timesheet.RequestID, days []DayInput) error {
	from, to := days[0].Date, days[0].Date
	wanted := make(map[string]bool, len(days))
	for _, d := range days {
		if d.Date.Before(from) {
			from = d.Date
		}
		if d.Date.After(to) {
			to = d.Date
		}
		wanted[d.Date.String()] = true
	}

	claims, err := st.ListAbsenceClaims(ctx, consultantID, from, to)
	if err != nil {
		return err
	}
	var conflicts []timesheet.Date
	for _, c := range claims {
		if c.RequestID == exclude {
			continue
		}
		if c.Status != timesheet.RequestPending && c.Status != timesheet.RequestAccepted {
			continue
		}
		if wanted[c.Date.String()] {
			conflicts = append(conflicts, c.Date)
		}
	}
	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Before(conflicts[j]) })
		return &timesheet.DayConflictError{ConsultantID: consultantID, Dates: conflicts}
	}
	return nil
}

// checkAnnualCap enforces the yearly allowance per calendar year of the
// requested days, counting the consultant's existing accepted and pending
// capped days. exclude skips the request being updated.
func (s *Service) checkAnnualCap(ctx context.Context, st timesheet.Store, consultantID timesheet.ConsultantID, exclude timesheet.RequestID, t timesheet.AbsenceType, days []DayInput) error {
	perYear := map[int]decimal.Decimal{}
	for _, d := range days {
		y := d.Date.Year()
		if prev, ok := perYear[y]; ok {
			perYear[y] = prev.Add(d.Amount)
		} else {
			perYear[y] = d.Amount
		}
	}

	years := make([]int, 0, len(perYear))
	for y := range perYear {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		requested := perYear[y]
		from, to := timesheet.YearPeriod(y)
		claims, err := st.ListAbsenceClaims(ctx, consultantID, from, to)
		if err != nil {
			return err
		}
		used := decimal.Zero
		for _, c := range claims {
			if c.RequestID == exclude {
				continue
			}
			if c.Status != timesheet.RequestPending && c.Status != timesheet.RequestAccepted {
				continue
			}
			if !c.Type.CountsTowardCap() {
				continue
			}
			used = used.Add(c.Amount)
		}
		if used.Add(requested).GreaterThan(timesheet.AnnualCapDays) {
			remaining := timesheet.AnnualCapDays.Sub(used)
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}
			return &timesheet.AnnualCapError{
				ConsultantID: consultantID,
				Year:         y,
				Used:         used,
				Requested:    requested,
				Cap:          timesheet.AnnualCapDays,
				Remaining:    remaining,
			}
		}
	}
	return nil
}

// buildDays materializes the payload into day rows sorted by date.
func buildDays(requestID timesheet.RequestID, days []DayInput, status timesheet.RequestStatus) []timesheet.AbsenceRequestDay {
	out := make([]timesheet.AbsenceRequestDay, 0, len(days))
	for _, d := range days {
		out = append(out, timesheet.AbsenceRequestDay{
			RequestID: requestID,
			Date:      d.Date,
			Amount:    d.Amount,
			Status:    status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
