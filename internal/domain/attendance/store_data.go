package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"attend/internal/platform/querier"
)

var ErrNotFound = errors.New("attendance record not found")

const recordColumns = `
  employee_id, date, status, location_type, site_name, submitted_at,
  special_note, md_notified, employee_notified, handled_by, md_reason, action_at
`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var actionAt *time.Time
	err := row.Scan(
		&rec.EmployeeID, &rec.Date, &rec.Status, &rec.LocationType, &rec.SiteName,
		&rec.SubmittedAt, &rec.SpecialNote, &rec.MDNotified, &rec.EmployeeNotified,
		&rec.HandledBy, &rec.MDReason, &actionAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.ActionAt = actionAt
	return rec, nil
}

func (s *Store) Get(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND date = $2
  `, employeeID, date)
	return scanRecord(row)
}

func (s *Store) Insert(ctx context.Context, rec Record) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_records
      (employee_id, date, status, location_type, site_name, submitted_at, special_note)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, rec.EmployeeID, rec.Date, rec.Status, rec.LocationType, rec.SiteName, rec.SubmittedAt, rec.SpecialNote)
	return err
}

func (s *Store) UpdateSubmission(ctx context.Context, rec Record) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE attendance_records
    SET status = $3, location_type = $4, site_name = $5, submitted_at = $6, special_note = $7
    WHERE employee_id = $1 AND date = $2
  `, rec.EmployeeID, rec.Date, rec.Status, rec.LocationType, rec.SiteName, rec.SubmittedAt, rec.SpecialNote)
	return err
}

func (s *Store) MarkMDNotified(ctx context.Context, employeeID string, date time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE attendance_records SET md_notified = true
    WHERE employee_id = $1 AND date = $2
  `, employeeID, date)
	return err
}

func (s *Store) MarkEmployeeNotified(ctx context.Context, employeeID string, date time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE attendance_records SET employee_notified = true
    WHERE employee_id = $1 AND date = $2
  `, employeeID, date)
	return err
}

func (s *Store) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND date BETWEEN $2 AND $3
    ORDER BY date
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) CountRange(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM attendance_records
    WHERE employee_id = $1 AND date BETWEEN $2 AND $3
  `, employeeID, from, to).Scan(&count)
	return count, err
}

// OverrideRange is idempotent: records already in leave_override are left
// untouched, so a crashed cascade can be replayed safely.
func (s *Store) OverrideRange(ctx context.Context, employeeID string, from, to time.Time, reason string) (int, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_records
    SET status = $4, md_reason = $5, action_at = now()
    WHERE employee_id = $1 AND date BETWEEN $2 AND $3 AND status <> $4
  `, employeeID, from, to, StatusLeaveOverride, reason)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) Begin(ctx context.Context) (querier.Tx, error) {
	return s.DB.Begin(ctx)
}

func (s *Store) GetForUpdateTx(ctx context.Context, tx querier.Querier, employeeID string, date time.Time) (Record, error) {
	row := tx.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND date = $2
    FOR UPDATE
  `, employeeID, date)
	return scanRecord(row)
}

func (s *Store) ApplyDecisionTx(ctx context.Context, tx querier.Querier, employeeID string, date time.Time, status Status, handledBy, reason string, at time.Time) error {
	_, err := tx.Exec(ctx, `
    UPDATE attendance_records
    SET status = $3, handled_by = $4, md_reason = $5, action_at = $6
    WHERE employee_id = $1 AND date = $2
  `, employeeID, date, status, handledBy, reason, at)
	return err
}
