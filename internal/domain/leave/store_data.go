package leave

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"attend/internal/platform/querier"
)

var (
	ErrNotFound         = errors.New("leave request not found")
	ErrEmployeeNotFound = errors.New("employee not found")
)

const requestColumns = `
  id, employee_id, employee_name, type, from_date, to_date, total_days,
  reason, status, applied_at, acted_at, actor_id, actor_role, rejection_reason
`

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var actedAt *time.Time
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.EmployeeName, &req.Type, &req.From, &req.To,
		&req.TotalDays, &req.Reason, &req.Status, &req.AppliedAt,
		&actedAt, &req.ActorID, &req.ActorRole, &req.RejectionReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	req.ActedAt = actedAt
	return req, nil
}

func (s *Store) Begin(ctx context.Context) (querier.Tx, error) {
	return s.DB.Begin(ctx)
}

// LockEmployeeTx takes a row lock on the employee for the lifetime of the
// transaction. Concurrent applications for the same employee serialize here,
// closing the window between the overlap check and the insert.
func (s *Store) LockEmployeeTx(ctx context.Context, tx querier.Querier, employeeID string) error {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM employees WHERE id = $1 FOR UPDATE", employeeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEmployeeNotFound
	}
	return err
}

func (s *Store) ListOpenOverlappingTx(ctx context.Context, tx querier.Querier, employeeID string, from, to time.Time) ([]Request, error) {
	rows, err := tx.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE employee_id = $1
      AND status IN ($2, $3)
      AND from_date <= $5 AND to_date >= $4
  `, employeeID, StatusPending, StatusApproved, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *Store) InsertTx(ctx context.Context, tx querier.Querier, req Request) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO leave_requests
      (id, employee_id, employee_name, type, from_date, to_date, total_days, reason, status, applied_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, req.ID, req.EmployeeID, req.EmployeeName, req.Type, req.From, req.To,
		req.TotalDays, req.Reason, req.Status, req.AppliedAt)
	return err
}

func (s *Store) GetForUpdateTx(ctx context.Context, tx querier.Querier, leaveID, employeeID string) (Request, error) {
	row := tx.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE id = $1 AND employee_id = $2
    FOR UPDATE
  `, leaveID, employeeID)
	return scanRequest(row)
}

func (s *Store) SetDecisionTx(ctx context.Context, tx querier.Querier, leaveID string, status Status, actorID, actorRole, rejectionReason string, at time.Time) error {
	_, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $2, actor_id = $3, actor_role = $4, rejection_reason = $5, acted_at = $6
    WHERE id = $1
  `, leaveID, status, actorID, actorRole, rejectionReason, at)
	return err
}

func (s *Store) History(ctx context.Context, employeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests
    WHERE employee_id = $1
    ORDER BY applied_at, id
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}
