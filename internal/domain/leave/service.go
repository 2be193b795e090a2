package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"attend/internal/domain/calendar"
	"attend/internal/domain/ledger"
	"attend/internal/platform/querier"
)

type Notifier interface {
	NotifyManagers(ctx context.Context, title, body string, data map[string]string) error
	NotifyEmployee(ctx context.Context, employeeID, title, body string, data map[string]string) error
}

type BalanceLedger interface {
	AdjustTx(ctx context.Context, tx querier.Querier, employeeID string, field ledger.Field, delta int) (int, error)
	BalancesTx(ctx context.Context, tx querier.Querier, employeeID string) (pl, co int, err error)
}

// AttendanceLog is the slice of the attendance domain the leave workflow
// needs: conflict detection at apply time and the override cascade after
// approval.
type AttendanceLog interface {
	HasRecordsInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error)
	OverrideByLeave(ctx context.Context, employeeID string, from, to time.Time, leaveID string) (int, error)
}

type Service struct {
	store      StoreAPI
	policy     *calendar.Policy
	ledger     BalanceLedger
	attendance AttendanceLog
	notify     Notifier
}

func NewService(store StoreAPI, policy *calendar.Policy, balances BalanceLedger, attendanceLog AttendanceLog, notifier Notifier) *Service {
	return &Service{store: store, policy: policy, ledger: balances, attendance: attendanceLog, notify: notifier}
}

type ApplyInput struct {
	EmployeeID   string
	EmployeeName string
	Type         Type
	From         time.Time
	To           time.Time
	Reason       string
}

// Apply validates and persists a leave request. The employee row is locked
// for the check-then-insert, so two concurrent applications for the same
// employee cannot both pass the overlap check. An attendance conflict still
// persists the request as auto-blocked before reporting the conflict.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (Request, error) {
	from := calendar.DateOf(in.From)
	to := calendar.DateOf(in.To)
	today := calendar.Today()

	if err := ValidateWindow(today, from, to); err != nil {
		return Request{}, err
	}
	field, err := BalanceField(in.Type)
	if err != nil {
		return Request{}, err
	}
	totalDays, err := s.policy.CountBillableDays(ctx, from, to)
	if err != nil {
		return Request{}, err
	}
	if err := ValidateDuration(totalDays); err != nil {
		return Request{}, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)

	if err := s.store.LockEmployeeTx(ctx, tx, in.EmployeeID); err != nil {
		return Request{}, err
	}

	pl, co, err := s.ledger.BalancesTx(ctx, tx, in.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	available := pl
	if field == ledger.FieldCO {
		available = co
	}
	if available < totalDays {
		return Request{}, &ledger.InsufficientError{Field: field, Available: available, Required: totalDays}
	}

	open, err := s.store.ListOpenOverlappingTx(ctx, tx, in.EmployeeID, from, to)
	if err != nil {
		return Request{}, err
	}
	for _, other := range open {
		if other.Status == StatusApproved {
			return Request{}, ErrApprovedOverlap
		}
	}
	if len(open) > 0 {
		return Request{}, ErrPendingOverlap
	}

	req := Request{
		ID:           uuid.NewString(),
		EmployeeID:   in.EmployeeID,
		EmployeeName: in.EmployeeName,
		Type:         in.Type,
		From:         from,
		To:           to,
		TotalDays:    totalDays,
		Reason:       in.Reason,
		Status:       StatusPending,
		AppliedAt:    time.Now(),
	}

	blocked, err := s.attendance.HasRecordsInRange(ctx, in.EmployeeID, from, to)
	if err != nil {
		return Request{}, err
	}
	if blocked {
		req.Status = StatusAutoBlocked
		req.RejectionReason = ErrAttendanceConflict.Error()
	}

	if err := s.store.InsertTx(ctx, tx, req); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}

	if blocked {
		s.notifyManagers(ctx, req, "Leave auto-blocked",
			fmt.Sprintf("%s's leave request was auto-blocked by existing attendance.", in.EmployeeName))
		return req, ErrAttendanceConflict
	}

	s.notifyManagers(ctx, req, "Leave requested",
		fmt.Sprintf("%s applied for %d day(s) of %s leave.", in.EmployeeName, totalDays, in.Type))
	return req, nil
}

type DecisionInput struct {
	LeaveID    string
	EmployeeID string
	ActorID    string
	ActorRole  string
	Reason     string
}

// Approve debits the balance and marks the request approved in one
// transaction. The attendance override cascade runs after commit; it is
// idempotent, so a crash between commit and cascade is repaired by retrying
// the cascade, never by touching the balance again.
func (s *Service) Approve(ctx context.Context, in DecisionInput) (Request, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)

	req, err := s.lockPending(ctx, tx, in.LeaveID, in.EmployeeID)
	if err != nil {
		return Request{}, err
	}

	field, err := BalanceField(req.Type)
	if err != nil {
		return Request{}, err
	}
	if _, err := s.ledger.AdjustTx(ctx, tx, req.EmployeeID, field, -req.TotalDays); err != nil {
		return Request{}, err
	}

	now := time.Now()
	if err := s.store.SetDecisionTx(ctx, tx, req.ID, StatusApproved, in.ActorID, in.ActorRole, "", now); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}

	req.Status = StatusApproved
	req.ActorID = in.ActorID
	req.ActorRole = in.ActorRole
	req.ActedAt = &now

	if _, err := s.attendance.OverrideByLeave(ctx, req.EmployeeID, req.From, req.To, req.ID); err != nil {
		slog.Warn("attendance override cascade failed, replay it for this range",
			"leaveId", req.ID, "employeeId", req.EmployeeID, "err", err)
	}

	s.notifyEmployee(ctx, req, "Leave approved",
		fmt.Sprintf("Your %s leave from %s to %s was approved.",
			req.Type, req.From.Format(calendar.DateLayout), req.To.Format(calendar.DateLayout)))
	return req, nil
}

func (s *Service) Reject(ctx context.Context, in DecisionInput) (Request, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)

	req, err := s.lockPending(ctx, tx, in.LeaveID, in.EmployeeID)
	if err != nil {
		return Request{}, err
	}

	now := time.Now()
	if err := s.store.SetDecisionTx(ctx, tx, req.ID, StatusRejected, in.ActorID, in.ActorRole, in.Reason, now); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}

	req.Status = StatusRejected
	req.ActorID = in.ActorID
	req.ActorRole = in.ActorRole
	req.RejectionReason = in.Reason
	req.ActedAt = &now

	body := "Your leave request was rejected."
	if in.Reason != "" {
		body = "Your leave request was rejected: " + in.Reason
	}
	s.notifyEmployee(ctx, req, "Leave rejected", body)
	return req, nil
}

func (s *Service) Cancel(ctx context.Context, in DecisionInput) (Request, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx)

	req, err := s.lockPending(ctx, tx, in.LeaveID, in.EmployeeID)
	if err != nil {
		return Request{}, err
	}

	now := time.Now()
	if err := s.store.SetDecisionTx(ctx, tx, req.ID, StatusCancelled, in.ActorID, in.ActorRole, "", now); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}

	req.Status = StatusCancelled
	req.ActorID = in.ActorID
	req.ActorRole = in.ActorRole
	req.ActedAt = &now

	s.notifyManagers(ctx, req, "Leave cancelled",
		fmt.Sprintf("%s cancelled a pending leave request.", req.EmployeeName))
	return req, nil
}

func (s *Service) History(ctx context.Context, employeeID string) ([]Request, error) {
	return s.store.History(ctx, employeeID)
}

// lockPending fetches a request under a row lock and requires it to still be
// pending. A missing or already-decided request is the caller's error, not a
// retryable condition.
func (s *Service) lockPending(ctx context.Context, tx querier.Tx, leaveID, employeeID string) (Request, error) {
	req, err := s.store.GetForUpdateTx(ctx, tx, leaveID, employeeID)
	if errors.Is(err, ErrNotFound) {
		return Request{}, ErrInvalidRequest
	}
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, fmt.Errorf("%w: status %s", ErrInvalidRequest, req.Status)
	}
	return req, nil
}

func (s *Service) notifyManagers(ctx context.Context, req Request, title, body string) {
	data := map[string]string{
		"type":       "leave_" + string(req.Status),
		"leaveId":    req.ID,
		"employeeId": req.EmployeeID,
	}
	if err := s.notify.NotifyManagers(ctx, title, body, data); err != nil {
		slog.Warn("leave manager notification failed", "leaveId", req.ID, "err", err)
	}
}

func (s *Service) notifyEmployee(ctx context.Context, req Request, title, body string) {
	data := map[string]string{
		"type":    "leave_" + string(req.Status),
		"leaveId": req.ID,
	}
	if err := s.notify.NotifyEmployee(ctx, req.EmployeeID, title, body, data); err != nil {
		slog.Warn("leave employee notification failed", "leaveId", req.ID, "err", err)
	}
}
