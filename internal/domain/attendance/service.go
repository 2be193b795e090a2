package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"attend/internal/domain/calendar"
	"attend/internal/domain/ledger"
	"attend/internal/platform/querier"
)

var (
	ErrAlreadyDecided  = errors.New("attendance already decided for this date")
	ErrUnknownDecision = errors.New("unknown decision")
)

type Notifier interface {
	NotifyManagers(ctx context.Context, title, body string, data map[string]string) error
	NotifyEmployee(ctx context.Context, employeeID, title, body string, data map[string]string) error
}

type BalanceLedger interface {
	AdjustTx(ctx context.Context, tx querier.Querier, employeeID string, field ledger.Field, delta int) (int, error)
}

type Service struct {
	store  StoreAPI
	policy *calendar.Policy
	ledger BalanceLedger
	notify Notifier
}

func NewService(store StoreAPI, policy *calendar.Policy, balances BalanceLedger, notifier Notifier) *Service {
	return &Service{store: store, policy: policy, ledger: balances, notify: notifier}
}

type SubmitInput struct {
	EmployeeID   string
	Date         time.Time
	LocationType LocationType
	SiteName     string
}

// Submit records attendance for one employee and date. Resubmission while
// the record is still pending updates it in place; a decided record cannot
// be resubmitted.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Record, error) {
	date := calendar.DateOf(in.Date)

	kind, err := s.policy.Classify(ctx, date)
	if err != nil {
		return Record{}, err
	}
	status, note := initialStatus(kind)

	rec, err := s.store.Get(ctx, in.EmployeeID, date)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = Record{
			EmployeeID:   in.EmployeeID,
			Date:         date,
			Status:       status,
			LocationType: in.LocationType,
			SiteName:     in.SiteName,
			SubmittedAt:  time.Now(),
			SpecialNote:  note,
		}
		if err := s.store.Insert(ctx, rec); err != nil {
			return Record{}, err
		}
	case err != nil:
		return Record{}, err
	default:
		if IsTerminal(rec.Status) {
			return Record{}, ErrAlreadyDecided
		}
		rec.Status = status
		rec.SpecialNote = note
		rec.LocationType = in.LocationType
		rec.SiteName = in.SiteName
		rec.SubmittedAt = time.Now()
		if err := s.store.UpdateSubmission(ctx, rec); err != nil {
			return Record{}, err
		}
	}

	data := map[string]string{
		"type":       "attendance_submitted",
		"employeeId": in.EmployeeID,
		"date":       date.Format(calendar.DateLayout),
	}
	if err := s.notify.NotifyManagers(ctx, "Attendance submitted", "An attendance submission is awaiting approval.", data); err != nil {
		slog.Warn("attendance manager notification failed", "employeeId", in.EmployeeID, "err", err)
	} else {
		if err := s.store.MarkMDNotified(ctx, in.EmployeeID, date); err != nil {
			slog.Warn("attendance md_notified update failed", "employeeId", in.EmployeeID, "err", err)
		} else {
			rec.MDNotified = true
		}
	}

	return rec, nil
}

type DecideInput struct {
	MDID       string
	EmployeeID string
	Date       time.Time
	Decision   Decision
	Reason     string
}

// Decide moves a pending record to Present or rejected. Approving work done
// on a holiday or Sunday credits one CO day in the same transaction.
func (s *Service) Decide(ctx context.Context, in DecideInput) (Record, error) {
	var event Event
	switch in.Decision {
	case DecisionApproved:
		event = EventApprove
	case DecisionRejected:
		event = EventReject
	default:
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownDecision, in.Decision)
	}

	date := calendar.DateOf(in.Date)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	rec, err := s.store.GetForUpdateTx(ctx, tx, in.EmployeeID, date)
	if err != nil {
		return Record{}, err
	}

	next, err := Next(rec.Status, event)
	if err != nil {
		return Record{}, err
	}

	creditCO := next == StatusPresent && rec.Status == StatusPendingCO
	reason := in.Reason
	if creditCO && reason == "" {
		reason = rec.SpecialNote
	}

	now := time.Now()
	if err := s.store.ApplyDecisionTx(ctx, tx, in.EmployeeID, date, next, in.MDID, reason, now); err != nil {
		return Record{}, err
	}
	if creditCO {
		if _, err := s.ledger.AdjustTx(ctx, tx, in.EmployeeID, ledger.FieldCO, 1); err != nil {
			return Record{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}

	rec.Status = next
	rec.HandledBy = in.MDID
	rec.MDReason = reason
	rec.ActionAt = &now

	title := "Attendance approved"
	body := "Your attendance was approved."
	if next == StatusRejected {
		title = "Attendance rejected"
		body = "Your attendance was rejected."
		if in.Reason != "" {
			body = "Your attendance was rejected: " + in.Reason
		}
	}
	data := map[string]string{
		"type": "attendance_decided",
		"date": date.Format(calendar.DateLayout),
	}
	if err := s.notify.NotifyEmployee(ctx, in.EmployeeID, title, body, data); err != nil {
		slog.Warn("attendance employee notification failed", "employeeId", in.EmployeeID, "err", err)
	} else {
		if err := s.store.MarkEmployeeNotified(ctx, in.EmployeeID, date); err != nil {
			slog.Warn("attendance employee_notified update failed", "employeeId", in.EmployeeID, "err", err)
		} else {
			rec.EmployeeNotified = true
		}
	}

	return rec, nil
}

// OverrideByLeave forces every record in [from, to] to leave_override. It is
// the only transition allowed out of a terminal state and is safe to replay.
func (s *Service) OverrideByLeave(ctx context.Context, employeeID string, from, to time.Time, leaveID string) (int, error) {
	return s.store.OverrideRange(ctx, employeeID, from, to, "Overridden by approved leave "+leaveID)
}

func (s *Service) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	return s.store.ListRange(ctx, employeeID, from, to)
}

// HasRecordsInRange tells the leave workflow whether attendance already
// exists on any date of a requested leave span.
func (s *Service) HasRecordsInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	count, err := s.store.CountRange(ctx, employeeID, from, to)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
